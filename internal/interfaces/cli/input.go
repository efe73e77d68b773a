package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/recidivism-forecast/internal/domain/risk"
	"github.com/turtacn/recidivism-forecast/pkg/errors"
)

// inputFormat is the encoding of a profile or batch file.
type inputFormat string

const (
	inputJSON inputFormat = "json"
	inputYAML inputFormat = "yaml"
	inputTOML inputFormat = "toml"
)

// batchDocument is the object form of a batch file.
type batchDocument struct {
	Profiles []risk.ProfileInput `json:"profiles" yaml:"profiles" toml:"profiles"`
}

// formatFor picks the decoder by extension; stdin and unknown extensions
// are read as JSON.
func formatFor(path string) inputFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return inputYAML
	case ".toml":
		return inputTOML
	default:
		return inputJSON
	}
}

// readInput returns the contents of path, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" {
		return nil, errors.InvalidParam("an input file is required (use - for stdin)")
	}
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "failed to read input").WithDetail(path)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.InvalidParam("input is empty").WithDetail(path)
	}
	return data, nil
}

func decodeInput(data []byte, format inputFormat, v interface{}) error {
	var err error
	switch format {
	case inputYAML:
		err = yaml.Unmarshal(data, v)
	case inputTOML:
		_, err = toml.Decode(string(data), v)
	default:
		err = json.Unmarshal(data, v)
	}
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidParam, "failed to decode "+string(format)+" input")
	}
	return nil
}

// loadProfile reads a single profile.
func loadProfile(path string, stdin io.Reader) (risk.ProfileInput, error) {
	var in risk.ProfileInput
	data, err := readInput(path, stdin)
	if err != nil {
		return in, err
	}
	err = decodeInput(data, formatFor(path), &in)
	return in, err
}

// loadBatch reads either a bare list of profiles or a {profiles: [...]}
// document. TOML has no top-level arrays, so it only accepts the document.
func loadBatch(path string, stdin io.Reader) ([]risk.ProfileInput, error) {
	data, err := readInput(path, stdin)
	if err != nil {
		return nil, err
	}
	format := formatFor(path)

	if format != inputTOML {
		var list []risk.ProfileInput
		if decodeInput(data, format, &list) == nil {
			return nonEmpty(list)
		}
	}
	var doc batchDocument
	if err := decodeInput(data, format, &doc); err != nil {
		return nil, err
	}
	return nonEmpty(doc.Profiles)
}

func nonEmpty(list []risk.ProfileInput) ([]risk.ProfileInput, error) {
	if len(list) == 0 {
		return nil, errors.New(errors.ErrCodeBatchEmpty, "batch contains no profiles")
	}
	return list, nil
}

//Personal.AI order the ending
