package parser

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is returned when a YAML file decodes into a node tree
// with no document in it.
var ErrEmptyDocument = errors.New("empty YAML document")

// ParseYAMLFile opens a YAML file and unmarshals it into the out interface.
// When out is a *yaml.Node the raw node tree is kept, comments included.
func ParseYAMLFile(fsys afero.Fs, filename string, out interface{}, dir ...string) error {
	// Construct the full path of the YAML file
	fullPath := filename
	if len(dir) > 0 {
		fullPath = filepath.Join(dir[0], filename)
	}

	content, err := afero.ReadFile(fsys, fullPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", fullPath, err)
	}

	if err := yaml.Unmarshal(content, out); err != nil {
		return fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	if node, ok := out.(*yaml.Node); ok && node.Kind == 0 {
		return fmt.Errorf("%s: %w", fullPath, ErrEmptyDocument)
	}

	return nil
}

// WriteYAMLFile replaces filename with data. On the OS filesystem the write
// goes through a temp file and a rename; other filesystems are written in place.
func WriteYAMLFile(fsys afero.Fs, filename string, data []byte) error {
	if _, ok := fsys.(*afero.OsFs); ok {
		if err := atomic.WriteFile(filename, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("failed to write %s: %w", filename, err)
		}
		return nil
	}

	if err := afero.WriteFile(fsys, filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	return nil
}
