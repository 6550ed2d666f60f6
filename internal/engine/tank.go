package engine

import (
	"fmt"
	"sort"

	"github.com/abs-build/abs/internal/common"
	"github.com/abs-build/abs/internal/config"
)

// Tank is the coordinator component: a named collection of sections sharing
// one profile registry (spec §4.F, grounded on
// original_source/src/abs/tank.rs Tank).
type Tank struct {
	Name     string
	Version  string
	Sections map[string]*Section
	Profiles map[string]*Profile

	// Logger receives diagnostic Info/Error lines around each section's
	// dispatch (spec §10 Ambient Logging); nil means "no diagnostics",
	// which is the zero value's behavior and is always safe to call into.
	Logger *common.Logger

	order []string // section names sorted by name, for stable output
}

// sectionLogger scopes t.Logger to one section's dispatch; safe to call
// even when t.Logger is nil.
func (t *Tank) sectionLogger(sectionName, profileName string) *common.SectionLogger {
	return t.Logger.ForSection(sectionName, profileName)
}

// NewTank builds a Tank from a parsed config.Document: the six preset
// profiles merged with any [profiles.<name>] overrides, and one Section per
// [sections.<name>] table (spec §4.F "Tank construction").
func NewTank(doc *config.Document) (*Tank, error) {
	presets := DefaultProfiles()
	profiles := make(map[string]*Profile, len(presets)+len(doc.Profiles))
	for name, preset := range presets {
		profiles[name] = preset
	}
	for name, decl := range doc.Profiles {
		override := &ProfileOverride{
			Compiler:           decl.Compiler,
			Standard:           decl.Standard,
			Defines:            []string(decl.Defines),
			Options:            []string(decl.Options),
			LinkingOptions:     []string(decl.LinkingOptions),
			LinkingDirectories: []string(decl.LinkingDirectories),
			IncludeDirectories: []string(decl.IncludeDirectories),
		}
		profiles[name] = BuildProfile(name, presets, override)
	}

	names := make([]string, 0, len(doc.Sections))
	for name := range doc.Sections {
		names = append(names, name)
	}
	sort.Strings(names)

	sections := make(map[string]*Section, len(doc.Sections))
	for _, name := range names {
		decl := doc.Sections[name]
		outlet, err := ParseOutletType(decl.Type)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", name, err)
		}
		section, err := NewSection(name, outlet, decl.Source, decl.Include, []string(decl.Pipes))
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", name, err)
		}
		sections[name] = section
	}

	lookup := func(name string) (*Section, bool) {
		s, ok := sections[name]
		return s, ok
	}
	for _, name := range names {
		if err := sections[name].ResolvePipes(lookup); err != nil {
			return nil, err
		}
	}

	return &Tank{
		Name:     doc.Tank.Name,
		Version:  doc.Tank.Version,
		Sections: sections,
		Profiles: profiles,
		order:    names,
	}, nil
}

// resolveProfile looks a profile name up, falling back to an empty custom
// profile under that name if it was never declared as a preset or override
// (so -p with a name unknown to abs.toml still builds, with the empty
// baseline's gcc and -std=c++17 and no other flags).
func (t *Tank) resolveProfile(profileName string) *Profile {
	if p, ok := t.Profiles[profileName]; ok {
		return p
	}
	return emptyProfile(profileName)
}

// Check runs Check over every section, in section-name order, succeeding
// only if every section succeeds (spec §4.F). The order in which sections
// are declared in abs.toml is not kept.
func (t *Tank) Check(profileName string) error {
	profile := t.resolveProfile(profileName)
	var firstErr error
	for _, name := range t.order {
		done := t.sectionLogger(name, profileName).Timed("check")
		err := Check(t.Sections[name], profileName, profile)
		done(err)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Build runs Build over every section, in section-name order, succeeding
// only if every section succeeds.
func (t *Tank) Build(profileName string) error {
	profile := t.resolveProfile(profileName)
	var firstErr error
	for _, name := range t.order {
		done := t.sectionLogger(name, profileName).Timed("build")
		err := Build(t.Sections[name], profileName, profile)
		done(err)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Run builds then runs every section in section-name order. A single
// non-executable section does not stop the others from running.
func (t *Tank) Run(profileName string) error {
	profile := t.resolveProfile(profileName)
	var firstErr error
	for _, name := range t.order {
		done := t.sectionLogger(name, profileName).Timed("run")
		err := Run(t.Sections[name], profileName, profile)
		done(err)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SectionNames returns section names sorted by name, not in the order they
// are declared in abs.toml.
func (t *Tank) SectionNames() []string {
	return t.order
}
