package engine

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DependencyResolutionError is returned when an #include cannot be resolved
// against the effective search list (spec §7 taxonomy).
type DependencyResolutionError struct {
	IncludedName string
	FromFile     string
}

func (e *DependencyResolutionError) Error() string {
	return fmt.Sprintf("Failed to find %s (included from %s)", e.IncludedName, e.FromFile)
}

// effectiveSearchList builds the ordered list a #include is resolved
// against: the configured roots first, then the including file's own
// directory last (spec §4.B step 2 — deliberately not the other way
// around, so that file-local headers act as a fallback rather than a
// shadowing directory).
func effectiveSearchList(sourcePath string, includeDirs []string) ([]string, error) {
	canonical, err := filepath.EvalSymlinks(sourcePath)
	if err != nil {
		canonical = sourcePath
	}
	parent := filepath.Dir(canonical)
	list := make([]string, 0, len(includeDirs)+1)
	list = append(list, includeDirs...)
	list = append(list, parent)
	return list, nil
}

// parseIncludeName extracts the text between the delimiters of a #include
// directive from one whole source line. Returns ok=false for a line whose
// leading non-whitespace text isn't "#include".
func parseIncludeName(line string) (name string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "#include") {
		return "", false
	}
	remainder := strings.TrimSpace(trimmed[len("#include"):])
	if len(remainder) < 2 {
		return "", false
	}
	// Strip the one delimiter character on each side: " or </>.
	return remainder[1 : len(remainder)-1], true
}

// scanIncludeNames reads path line by line and returns, in order of
// appearance, the include names of every line whose leading non-whitespace
// token is "#include" (spec §4.B step 3).
func scanIncludeNames(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &FileError{Kind: "CantGetMetadata", Path: path, Err: err}
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if name, ok := parseIncludeName(scanner.Text()); ok {
			names = append(names, name)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &FileError{Kind: "CantGetMetadata", Path: path, Err: err}
	}
	return names, nil
}

// resolveIncludeName searches searchList in order for the first directory
// containing name, returning a File for dir/name (spec §4.B step 3.b/c).
func resolveIncludeName(name string, searchList []string) (*File, error) {
	for _, dir := range searchList {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return NewFile(candidate)
		}
	}
	return nil, nil
}

// ScanDependencies resolves every #include in sourcePath against includeDirs
// plus sourcePath's own directory, one hop deep (spec §4.B: "a shallow
// one-hop relation per source" — no recursion into headers).
func ScanDependencies(sourcePath string, includeDirs []string) ([]*File, error) {
	searchList, err := effectiveSearchList(sourcePath, includeDirs)
	if err != nil {
		return nil, err
	}

	names, err := scanIncludeNames(sourcePath)
	if err != nil {
		return nil, err
	}

	deps := make([]*File, 0, len(names))
	for _, name := range names {
		resolved, err := resolveIncludeName(name, searchList)
		if err != nil {
			return nil, err
		}
		if resolved == nil {
			return nil, &DependencyResolutionError{IncludedName: name, FromFile: sourcePath}
		}
		deps = append(deps, resolved)
	}
	return deps, nil
}
