// Package validation checks request bodies against the embedded JSON schemas
// before they are decoded into domain types.
package validation

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const baseURL = "mem://schemas/"

// Schema names.
const (
	Profile = "profile.schema.json"
	Batch   = "batch.schema.json"
	Plan    = "plan.schema.json"
)

// Validator holds the compiled schemas.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// New compiles every embedded schema.
func New() (*Validator, error) {
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		data, err := schemaFS.ReadFile(path.Join("schemas", e.Name()))
		if err != nil {
			return nil, err
		}
		if err := compiler.AddResource(baseURL+e.Name(), bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", e.Name(), err)
		}
		names = append(names, e.Name())
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(names))}
	for _, name := range names {
		s, err := compiler.Compile(baseURL + name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		v.schemas[name] = s
	}
	return v, nil
}

// MustNew is New that panics on error.  The schemas are embedded, so a failure
// is a build defect.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks raw JSON against the named schema.  Malformed JSON yields a
// bad-request error; a schema violation yields code, with every violation
// listed in the detail.
func (v *Validator) Validate(schema string, raw []byte, code errors.ErrorCode) error {
	_, ok := v.schemas[schema]
	if !ok {
		return errors.Newf(errors.ErrCodeInternal, "unknown schema %q", schema)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return errors.New(errors.CodeInvalidParam, "request body is not valid JSON").WithDetail(err.Error())
	}
	return v.ValidateValue(schema, doc, code)
}

// ValidateValue checks an already decoded document.
func (v *Validator) ValidateValue(schema string, doc any, code errors.ErrorCode) error {
	s, ok := v.schemas[schema]
	if !ok {
		return errors.Newf(errors.ErrCodeInternal, "unknown schema %q", schema)
	}
	err := s.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return errors.Wrap(err, code, "request body failed validation")
	}
	return errors.New(code, "request body failed validation").WithDetail(strings.Join(Violations(ve), "; "))
}

// Violations flattens a validation error into "location: message" lines,
// leaves only, sorted by location.
func Violations(ve *jsonschema.ValidationError) []string {
	var out []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			out = append(out, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	sort.Strings(out)
	return out
}

//Personal.AI order the ending
