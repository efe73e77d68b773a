// Package handlers implements the REST endpoints of the API server.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/recidivism-forecast/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/recidivism-forecast/internal/interfaces/http/validation"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError maps err to its HTTP status and writes an ErrorResponse.
// Errors that are not AppErrors are masked as internal errors, and 5xx
// responses never carry the detail.
func writeError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	resp := ErrorResponse{RequestID: chimw.GetReqID(r.Context())}

	ae, ok := errors.AsAppError(err)
	if !ok {
		ae = errors.New(errors.ErrCodeInternal, "internal server error")
	}
	status := errors.HTTPStatusForCode(ae.Code)
	resp.Code = ae.Code.String()
	resp.Message = ae.Message
	if status < http.StatusInternalServerError {
		resp.Detail = ae.Detail
	} else {
		logger.WithContext(r.Context()).Error("request error",
			logging.String("path", r.URL.Path),
			logging.String("code", resp.Code),
			logging.Err(err))
	}
	writeJSON(w, status, resp)
}

// readBody reads the request body.  Bodies over the configured size limit
// yield COMMON_017.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, errors.InvalidParam("request body is required")
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return nil, errors.Newf(errors.ErrCodePayloadTooLarge, "request body exceeds %d bytes", mbe.Limit)
		}
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "failed to read request body")
	}
	if len(raw) == 0 {
		return nil, errors.InvalidParam("request body is required")
	}
	return raw, nil
}

// decodeValidated reads the body, checks it against schema and decodes it
// into dst.  Schema violations carry code.
func decodeValidated(r *http.Request, v *validation.Validator, schema string, code errors.ErrorCode, dst any) error {
	raw, err := readBody(r)
	if err != nil {
		return err
	}
	if err := v.Validate(schema, raw, code); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.Wrap(err, errors.CodeInvalidParam, "request body is not valid JSON")
	}
	return nil
}

// queryInt parses an optional integer query parameter; absent yields 0.
func queryInt(r *http.Request, name string) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.InvalidParam(name + " must be an integer").WithDetail(s)
	}
	return n, nil
}

// queryFloat parses an optional numeric query parameter; absent yields 0.
func queryFloat(r *http.Request, name string) (float64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.InvalidParam(name + " must be a number").WithDetail(s)
	}
	return f, nil
}

//Personal.AI order the ending
