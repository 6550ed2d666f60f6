package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// ConfigLoadError is the spec §7 taxonomy entry for every way abs.toml can
// fail to become a usable Document.
type ConfigLoadError struct {
	Kind string // FileMissing, WrongFormat (also for a field of the wrong TOML type), MandatoryFieldMissing
	Path string
	Err  error
}

func (e *ConfigLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Path)
}

func (e *ConfigLoadError) Unwrap() error { return e.Err }

// Load reads and validates path, returning a Document or a *ConfigLoadError
// (spec §4.F "Tank construction" step 1, §6, §7).
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigLoadError{Kind: "FileMissing", Path: path, Err: err}
	}

	var doc Document
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, &ConfigLoadError{Kind: "WrongFormat", Path: path, Err: err}
	}

	if doc.Tank.Name == "" {
		return nil, &ConfigLoadError{Kind: "MandatoryFieldMissing", Path: "tank.name"}
	}
	if doc.Tank.Version == "" {
		return nil, &ConfigLoadError{Kind: "MandatoryFieldMissing", Path: "tank.version"}
	}

	for name, section := range doc.Sections {
		if section.Source == "" {
			return nil, &ConfigLoadError{Kind: "MandatoryFieldMissing", Path: fmt.Sprintf("sections.%s.source", name)}
		}
	}

	return &doc, nil
}
