package engine

import (
	"fmt"
	"os/exec"
	"strings"
)

// OutletType is the kind of artifact a Section produces (spec §3).
type OutletType string

const (
	OutletExecutable    OutletType = "executable"
	OutletStaticLibrary OutletType = "static_library"
	OutletSharedLibrary OutletType = "shared_library"
)

// ParseOutletType maps the config's `type` string (spec §6: "executable" |
// "library" | "shared", default "executable") onto an OutletType.
func ParseOutletType(s string) (OutletType, error) {
	switch s {
	case "", "executable":
		return OutletExecutable, nil
	case "library":
		return OutletStaticLibrary, nil
	case "shared":
		return OutletSharedLibrary, nil
	default:
		return "", fmt.Errorf("unknown section type %q", s)
	}
}

// Section is a self-contained compilation target: its file set and the two
// derived dependency maps (spec §3).
type Section struct {
	Name               string
	OutletType         OutletType
	IncludeDirectories []string
	Files              []*File

	// SourceDeps maps a tracked file's path to its dependency list
	// (including itself). DepSources is the exact inverse.
	SourceDeps map[string][]*File
	DepSources map[string][]*File

	// PipeNames are the unresolved `pipes` entries from config (sibling
	// section names, spec §6/§9). Pipes holds the resolved handles once
	// ResolvePipes has run; until then it is nil.
	PipeNames []string
	Pipes     []*Section

	byPath map[string]*File
}

// NewSection discovers sources/headers under sourceDir (and includeDir, if
// given), builds its include search path, and derives both dependency maps
// (spec §4.C). pipeNames is the section's unresolved `pipes` list (spec §6);
// resolving it against sibling sections is the Tank's job, since a Section
// cannot see its siblings at construction time (spec §9 "Section↔Tank back
// references").
func NewSection(name string, outletType OutletType, sourceDir, includeDir string, pipeNames []string) (*Section, error) {
	suffixes := []string{".cpp", ".c", ".hpp", ".h"}

	files, err := CollectFiles(sourceDir, suffixes)
	if err != nil {
		return nil, err
	}

	includeDirectories, err := compilerDefaultIncludes()
	if err != nil {
		return nil, err
	}
	includeDirectories = append(includeDirectories, sourceDir)

	if includeDir != "" {
		moreFiles, err := CollectFiles(includeDir, suffixes)
		if err != nil {
			return nil, err
		}
		files = append(files, moreFiles...)
		includeDirectories = append(includeDirectories, includeDir)
	}

	section := &Section{
		Name:               name,
		OutletType:         outletType,
		IncludeDirectories: includeDirectories,
		Files:              files,
		PipeNames:          pipeNames,
		byPath:             make(map[string]*File, len(files)),
	}
	for _, f := range files {
		section.byPath[f.Path()] = f
	}

	if err := section.buildDependencyMaps(); err != nil {
		return nil, err
	}
	return section, nil
}

func (s *Section) buildDependencyMaps() error {
	s.SourceDeps = make(map[string][]*File, len(s.Files))
	s.DepSources = make(map[string][]*File, len(s.Files))

	for _, file := range s.Files {
		deps, err := ScanDependencies(file.Path(), s.IncludeDirectories)
		if err != nil {
			return err
		}
		withSelf := make([]*File, 0, len(deps)+1)
		withSelf = append(withSelf, deps...)
		withSelf = append(withSelf, file)
		s.SourceDeps[file.Path()] = withSelf

		for _, dep := range withSelf {
			s.DepSources[dep.Path()] = append(s.DepSources[dep.Path()], file)
		}
	}
	return nil
}

// ResolvePipes looks up every entry in PipeNames against lookup and stores
// the result in Pipes: a weak, read-only view of sibling sections (spec §9
// "Section↔Tank back references"). Section never owns its pipes and never
// mutates them; Tank calls this once, after every section in the tank has
// been constructed, so forward references between sections resolve
// regardless of declaration order.
func (s *Section) ResolvePipes(lookup func(name string) (*Section, bool)) error {
	s.Pipes = make([]*Section, 0, len(s.PipeNames))
	for _, name := range s.PipeNames {
		sibling, ok := lookup(name)
		if !ok {
			return fmt.Errorf("section %q: pipe %q does not name a known section", s.Name, name)
		}
		s.Pipes = append(s.Pipes, sibling)
	}
	return nil
}

// TrackedFiles returns every file tracked by this section: every key of
// SourceDeps (spec §4.E "Dirty-set computation" input).
func (s *Section) TrackedFiles() []*File {
	out := make([]*File, 0, len(s.SourceDeps))
	for path := range s.SourceDeps {
		out = append(out, s.byPath[path])
	}
	return out
}

// compilerDefaultIncludes queries the system C++ compiler for its default
// include search path, equivalent to
// `c++ -xc++ /dev/null -E -Wp,-v 2>&1 | sed -n 's,^ ,,p'` (spec §4.C).
func compilerDefaultIncludes() ([]string, error) {
	cmd := exec.Command("sh", "-c", "c++ -xc++ /dev/null -E -Wp,-v 2>&1")
	output, err := cmd.CombinedOutput()
	if err != nil {
		// A missing/misbehaving compiler shouldn't prevent local section
		// construction against a fully-qualified include config; treat it
		// as "no default includes found" rather than a hard failure.
		return nil, nil
	}

	var dirs []string
	for _, line := range strings.Split(string(output), "\n") {
		if strings.HasPrefix(line, " ") {
			trimmed := strings.TrimPrefix(line, " ")
			if trimmed != "" {
				dirs = append(dirs, trimmed)
			}
		}
	}
	return dirs, nil
}
