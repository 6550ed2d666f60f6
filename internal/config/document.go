// Package config parses abs.toml into the declarative document consumed by
// the tank coordinator (spec §4.F, §6).
package config

import "fmt"

// StringOrSlice accepts either a bare TOML string or an array of strings for
// the same key, normalizing both into a []string. Every list-shaped field in
// a profile override and the section `pipes` field use this (spec §6).
type StringOrSlice []string

// UnmarshalTOML implements toml.Unmarshaler (github.com/pelletier/go-toml/v2).
func (s *StringOrSlice) UnmarshalTOML(value interface{}) error {
	switch v := value.(type) {
	case string:
		*s = StringOrSlice{v}
		return nil
	case []interface{}:
		out := make(StringOrSlice, 0, len(v))
		for _, elem := range v {
			str, ok := elem.(string)
			if !ok {
				return fmt.Errorf("expected string elements, got %T", elem)
			}
			out = append(out, str)
		}
		*s = out
		return nil
	case nil:
		*s = nil
		return nil
	default:
		return fmt.Errorf("expected a string or an array of strings, got %T", value)
	}
}

// Document is the parsed shape of abs.toml (spec §6).
type Document struct {
	Tank     TankDecl                 `toml:"tank"`
	Sections map[string]SectionDecl   `toml:"sections"`
	Profiles map[string]ProfileDecl   `toml:"profiles"`
}

// TankDecl is the mandatory [tank] table.
type TankDecl struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// SectionDecl is one [sections.<name>] table.
type SectionDecl struct {
	Source  string        `toml:"source"`
	Include string        `toml:"include"`
	Type    string        `toml:"type"`
	Pipes   StringOrSlice `toml:"pipes"`
}

// ProfileDecl is one [profiles.<name>] override table. Any preset name
// (release, debug, release-unsafe, debug-unsafe, debug-asan, debug-tsan)
// augments that preset; any other name defines a custom profile on top of
// an empty baseline (spec §4.F).
type ProfileDecl struct {
	Compiler           string        `toml:"compiler"`
	Standard           string        `toml:"standard"`
	Defines            StringOrSlice `toml:"defines"`
	Options            StringOrSlice `toml:"options"`
	LinkingOptions     StringOrSlice `toml:"linking_options"`
	LinkingDirectories StringOrSlice `toml:"linking_directories"`
	IncludeDirectories StringOrSlice `toml:"include_directories"`
}
