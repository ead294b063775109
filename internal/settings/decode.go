package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Ganezza/tvmasjid-sub000/internal/model"
)

type Format string

const (
	JSON Format = "json"
	TOML Format = "toml"
	YAML Format = "yaml"
)

// FormatFor picks the decoder from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return "", fmt.Errorf("unsupported settings file %q", path)
}

// Decode parses raw onto the defaults. Missing fields keep their default,
// unknown fields are rejected, and the result is normalized and validated.
func Decode(raw []byte, format Format) (model.Settings, error) {
	s := model.DefaultSettings()
	var err error
	switch format {
	case JSON:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		err = dec.Decode(&s)
	case TOML:
		dec := toml.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		err = dec.Decode(&s)
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		err = dec.Decode(&s)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		err = fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, format, err)
	}

	s = s.Normalize()
	if err := s.Validate(); err != nil {
		return model.Settings{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s, nil
}
