package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/statecore/internal/attrs"
)

// Load reads the attribute file at path, detecting its format.
func Load(path string) (map[string]any, error) {
	return LoadAs(path, "")
}

// LoadAs reads the attribute file at path in the given format. An empty
// format is detected from the extension.
func LoadAs(path string, format Format) (map[string]any, error) {
	if format == "" {
		f, err := FormatFor(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		format = f
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading attribute file %s: %w", path, err)
	}
	return Parse(path, data, format)
}

// Parse decodes data in format. name is used in error messages.
// Empty input yields an empty map.
func Parse(name string, data []byte, format Format) (map[string]any, error) {
	out := make(map[string]any)
	if len(data) == 0 {
		return out, nil
	}

	var err error
	switch format {
	case FormatTOML:
		err = toml.Unmarshal(data, &out)
	case FormatYAML:
		err = yaml.Unmarshal(data, &out)
	case FormatJSON:
		err = json.Unmarshal(data, &out)
	default:
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownFormat)
	}
	if err != nil {
		return nil, parseError(name, err)
	}
	if out == nil {
		out = make(map[string]any)
	}
	return out, nil
}

// Sync loads the file at path and sets its attributes on store.
// Keys missing from the file are left alone.
func Sync(store *attrs.Store, path string, format Format, opts attrs.Options) error {
	m, err := LoadAs(path, format)
	if err != nil {
		return err
	}
	if opts.Source == "" {
		opts.Source = path
	}
	return store.Set(attrs.Batch(m), opts)
}

func parseError(name string, err error) *ParseError {
	pe := &ParseError{Path: name, Message: err.Error(), Err: err}

	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		pe.Line, pe.Column = derr.Position()
	}
	var serr *json.SyntaxError
	if errors.As(err, &serr) {
		pe.Message = fmt.Sprintf("%s (offset %d)", serr.Error(), serr.Offset)
	}
	return pe
}
