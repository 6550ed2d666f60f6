package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// File is an immutable record of a canonical path and the modification time
// observed at construction. Equality and map keys are by path; the
// timestamp is a snapshot, not identity (spec §3).
type File struct {
	path    string
	modTime time.Time
}

// FileError is the taxonomy of failures that can occur while turning a
// filesystem path into a File (spec §4.A).
type FileError struct {
	Kind string // FileDoesntExist | CantGetMetadata | ModificationTimeUnavailable
	Path string
	Err  error
}

func (e *FileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Path)
}

func (e *FileError) Unwrap() error { return e.Err }

// NewFile canonicalizes path, reads its modification time, and returns a
// File or one of FileDoesntExist / CantGetMetadata / ModificationTimeUnavailable.
func NewFile(path string) (*File, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &FileError{Kind: "FileDoesntExist", Path: path, Err: err}
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &FileError{Kind: "FileDoesntExist", Path: path, Err: err}
		}
		return nil, &FileError{Kind: "CantGetMetadata", Path: path, Err: err}
	}

	info, err := os.Stat(canonical)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &FileError{Kind: "FileDoesntExist", Path: path, Err: err}
		}
		return nil, &FileError{Kind: "CantGetMetadata", Path: path, Err: err}
	}

	modTime := info.ModTime()
	if modTime.IsZero() {
		return nil, &FileError{Kind: "ModificationTimeUnavailable", Path: path}
	}

	return &File{path: canonical, modTime: modTime}, nil
}

// Path returns the canonical, absolute path this File was built from.
func (f *File) Path() string { return f.path }

// ModTime returns the modification time observed at construction.
func (f *File) ModTime() time.Time { return f.modTime }

// IsModified reports whether f's mtime is strictly newer than compareTime,
// compared at second granularity per spec §4.D.
func (f *File) IsModified(compareTime time.Time) bool {
	return f.modTime.Unix() > compareTime.Unix()
}

func isSourceFile(path string) bool {
	return strings.HasSuffix(path, ".cpp") || strings.HasSuffix(path, ".c")
}

func isHeaderFile(path string) bool {
	return strings.HasSuffix(path, ".hpp") || strings.HasSuffix(path, ".h")
}

// EncodePath turns an absolute filesystem path into a slash-free artifact
// name. It walks the path left to right; at each '/' it emits the length of
// the run since the previous separator followed by that run's characters,
// and finally emits a trailing non-slash run the same way. Two consecutive
// slashes emit "0" with an empty run, and a trailing slash contributes
// nothing after it. See spec §4.A for the literal test vectors.
func EncodePath(path string) string {
	var b strings.Builder
	rest := path
	for {
		idx := strings.IndexByte(rest, '/')
		if idx == -1 {
			if len(rest) > 0 {
				b.WriteString(strconv.Itoa(len(rest)))
				b.WriteString(rest)
			}
			break
		}
		b.WriteString(strconv.Itoa(idx))
		if idx != 0 {
			b.WriteString(rest[:idx])
		}
		rest = rest[idx+1:]
	}
	return b.String()
}

// WrongPostfixError is returned by ObjectPath when a source path has neither
// a .cpp nor a .c suffix.
type WrongPostfixError struct {
	Path string
}

func (e *WrongPostfixError) Error() string {
	return fmt.Sprintf("WrongPostfix: %s is neither a .cpp nor a .c file", e.Path)
}

// ObjectPath computes .abs/<section>/<profile>/binary/<encode(stripped)>.o
// for a source file, stripping its .cpp/.c suffix before encoding (spec §4.A).
func ObjectPath(sectionName, profileName, sourcePath string) (string, error) {
	stripped := strings.TrimSuffix(sourcePath, ".cpp")
	if stripped == sourcePath {
		stripped = strings.TrimSuffix(sourcePath, ".c")
		if stripped == sourcePath {
			return "", &WrongPostfixError{Path: sourcePath}
		}
	}
	return filepath.Join(".abs", sectionName, profileName, "binary", EncodePath(stripped)+".o"), nil
}

// FreezePath computes .abs/<section>/<profile>/frozen/<encode(full_path)>.
func FreezePath(sectionName, profileName, fullPath string) string {
	return filepath.Join(".abs", sectionName, profileName, "frozen", EncodePath(fullPath))
}

// CollectFiles recursively walks root, returning a File for every regular
// file whose canonical path ends with one of suffixes. Directories are
// descended in whatever order the filesystem reports them (spec §4.A).
func CollectFiles(root string, suffixes []string) ([]*File, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, &FileError{Kind: "CantGetMetadata", Path: root, Err: err}
	}

	var result []*File
	for _, entry := range entries {
		full := filepath.Join(root, entry.Name())
		if entry.IsDir() {
			nested, err := CollectFiles(full, suffixes)
			if err != nil {
				return nil, err
			}
			result = append(result, nested...)
			continue
		}
		if !hasAnySuffix(full, suffixes) {
			continue
		}
		file, err := NewFile(full)
		if err != nil {
			return nil, err
		}
		result = append(result, file)
	}
	return result, nil
}

func hasAnySuffix(path string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
