package datafile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a YAML datafile. YAML is a development convenience
// for hand-written local datafiles; the document is normalized through
// JSON so both formats share one code path and one set of semantics.
func ParseYAML(payload []byte) (*Project, error) {
	var doc any
	if err := yaml.Unmarshal(payload, &doc); err != nil {
		return nil, errors.Join(ErrMalformedDatafile, err)
	}
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Join(ErrMalformedDatafile, err)
	}
	return Parse(normalized)
}

// LoadFile reads a datafile from disk, choosing the decoder by file
// extension (.json, .yaml, .yml).
func LoadFile(path string) (*Project, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrDatafileUnreadable, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return Parse(payload)
	case ".yaml", ".yml":
		return ParseYAML(payload)
	default:
		return nil, errors.Join(ErrUnsupportedFormat,
			fmt.Errorf("unrecognized datafile extension %q", filepath.Ext(path)))
	}
}
