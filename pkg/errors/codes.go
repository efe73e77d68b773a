package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
	ErrCodePayloadTooLarge    ErrorCode = "COMMON_017"
)

// Short aliases used at call sites.
const (
	CodeUnknown        = ErrorCode("")
	CodeOK             = ErrorCode("OK")
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeUnauthorized   = ErrCodeUnauthorized
	CodeForbidden      = ErrCodeForbidden
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeRateLimit      = ErrCodeTooManyRequests
	CodeValidation     = ErrCodeValidation
	CodeNotImplemented = ErrCodeNotImplemented

	CodeInvalidProfile     = ErrCodeInvalidProfile
	CodeAssessmentNotFound = ErrCodeAssessmentNotFound
	CodePersonNotFound     = ErrCodePersonNotFound
)

// Risk Engine Error Codes
const (
	ErrCodeInvalidProfile      ErrorCode = "RSK_001"
	ErrCodeUnrecognizedPattern ErrorCode = "RSK_002"
	ErrCodeEmptyForecast       ErrorCode = "RSK_003"
	ErrCodeConstantsInvalid    ErrorCode = "RSK_004"
	ErrCodeConstantsLoadFailed ErrorCode = "RSK_005"
	ErrCodeUnknownOffenseType  ErrorCode = "RSK_006"
	ErrCodeUnknownRiskLevel    ErrorCode = "RSK_007"
)

// Assessment Service Error Codes
const (
	ErrCodeAssessmentNotFound   ErrorCode = "ASM_001"
	ErrCodePersonNotFound       ErrorCode = "ASM_002"
	ErrCodeBatchTooLarge        ErrorCode = "ASM_003"
	ErrCodeBatchEmpty           ErrorCode = "ASM_004"
	ErrCodeHistoryEmpty         ErrorCode = "ASM_005"
	ErrCodeEventPublishFailed   ErrorCode = "ASM_006"
	ErrCodeAssessmentSaveFailed ErrorCode = "ASM_007"
	ErrCodeBatchPartialFailure  ErrorCode = "ASM_008"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusBadRequest,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeFeatureDisabled:    http.StatusServiceUnavailable,
	ErrCodeNotImplemented:     http.StatusNotImplemented,
	ErrCodePayloadTooLarge:    http.StatusRequestEntityTooLarge,

	ErrCodeInvalidProfile:      http.StatusUnprocessableEntity,
	ErrCodeUnrecognizedPattern: http.StatusOK,
	ErrCodeEmptyForecast:       http.StatusInternalServerError,
	ErrCodeConstantsInvalid:    http.StatusInternalServerError,
	ErrCodeConstantsLoadFailed: http.StatusInternalServerError,
	ErrCodeUnknownOffenseType:  http.StatusBadRequest,
	ErrCodeUnknownRiskLevel:    http.StatusBadRequest,

	ErrCodeAssessmentNotFound:   http.StatusNotFound,
	ErrCodePersonNotFound:       http.StatusNotFound,
	ErrCodeBatchTooLarge:        http.StatusRequestEntityTooLarge,
	ErrCodeBatchEmpty:           http.StatusBadRequest,
	ErrCodeHistoryEmpty:         http.StatusUnprocessableEntity,
	ErrCodeEventPublishFailed:   http.StatusInternalServerError,
	ErrCodeAssessmentSaveFailed: http.StatusInternalServerError,
	ErrCodeBatchPartialFailure:  http.StatusMultiStatus,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization error",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeFeatureDisabled:    "feature disabled",
	ErrCodeNotImplemented:     "not implemented",
	ErrCodePayloadTooLarge:    "payload too large",

	ErrCodeInvalidProfile:      "invalid person profile",
	ErrCodeUnrecognizedPattern: "unrecognized behavior pattern",
	ErrCodeEmptyForecast:       "intervention planner called without forecasts",
	ErrCodeConstantsInvalid:    "constants table failed validation",
	ErrCodeConstantsLoadFailed: "failed to load constants table",
	ErrCodeUnknownOffenseType:  "unknown offense type",
	ErrCodeUnknownRiskLevel:    "unknown risk level",

	ErrCodeAssessmentNotFound:   "assessment not found",
	ErrCodePersonNotFound:       "person not found",
	ErrCodeBatchTooLarge:        "batch exceeds the configured limit",
	ErrCodeBatchEmpty:           "batch is empty",
	ErrCodeHistoryEmpty:         "person has no recorded violations",
	ErrCodeEventPublishFailed:   "failed to publish assessment event",
	ErrCodeAssessmentSaveFailed: "failed to save assessment",
	ErrCodeBatchPartialFailure:  "some batch items failed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
