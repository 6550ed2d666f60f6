package engine

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/abs-build/abs/internal/common"
)

// maxConcurrentCompiles is the hard-coded concurrency cap from spec §4.E/§5.
const maxConcurrentCompiles = 8

// CompileError reports that one or more compile children exited non-zero
// (spec §7 taxonomy). Link is skipped whenever this is returned.
type CompileError struct {
	FailedCount int
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compilation failed: %d file(s)", e.FailedCount)
}

// LinkError wraps a non-zero exit from the linker or archiver.
type LinkError struct {
	Err error
}

func (e *LinkError) Error() string { return fmt.Sprintf("link failed: %v", e.Err) }
func (e *LinkError) Unwrap() error { return e.Err }

// OutletUsageError is returned by Run against a non-executable section.
type OutletUsageError struct {
	SectionName string
	OutletType  OutletType
}

func (e *OutletUsageError) Error() string {
	return fmt.Sprintf("section %q has outlet type %q, run requires executable", e.SectionName, e.OutletType)
}

// BinaryDir is .abs/<section>/<profile>/binary.
func BinaryDir(sectionName, profileName string) string {
	return filepath.Join(".abs", sectionName, profileName, "binary")
}

// OutputPath is the section's final artifact path for profileName (spec §6).
func OutputPath(sectionName, profileName string, outlet OutletType) string {
	switch outlet {
	case OutletStaticLibrary:
		return filepath.Join(".abs", sectionName, profileName, "lib"+sectionName+".a")
	case OutletSharedLibrary:
		return filepath.Join(".abs", sectionName, profileName, "lib"+sectionName+".so")
	default:
		return filepath.Join(".abs", sectionName, profileName, sectionName)
	}
}

// dirtySet computes the set of files requiring attention this pass: every
// tracked file whose freeze record is stale or missing, plus every source
// whose object file is missing, deduplicated and returned in a stable
// (path-sorted) order (spec §4.E "Dirty-set computation").
func dirtySet(section *Section, profileName string) []*File {
	seen := make(map[string]bool)
	var dirty []*File

	for _, f := range section.TrackedFiles() {
		if IsModified(section.Name, profileName, f) {
			seen[f.Path()] = true
			dirty = append(dirty, f)
		}
	}
	for _, f := range section.Files {
		if !seen[f.Path()] && HasMissingObject(section.Name, profileName, f) {
			seen[f.Path()] = true
			dirty = append(dirty, f)
		}
	}

	sort.Slice(dirty, func(i, j int) bool { return dirty[i].Path() < dirty[j].Path() })
	return dirty
}

func compileArgs(profile *Profile, sourcePath, objectPath string, includeDirs []string) []string {
	args := []string{"-c", sourcePath}
	args = append(args, profile.CompileOptions...)
	args = append(args, profile.StandardFlag)
	args = append(args, profile.Defines...)
	for _, dir := range includeDirs {
		args = append(args, "-I"+dir)
	}
	args = append(args, "-o", objectPath)
	return args
}

func syntaxCheckArgs(profile *Profile, sourcePath string, includeDirs []string) []string {
	args := append([]string{}, profile.CompileOptions...)
	args = append(args, profile.StandardFlag)
	args = append(args, profile.Defines...)
	for _, dir := range includeDirs {
		args = append(args, "-I"+dir)
	}
	args = append(args, "-fsyntax-only", sourcePath)
	return args
}

func runChild(name string, args []string) error {
	cmd := exec.Command(name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg != "" {
			return fmt.Errorf("%w\n%s", err, msg)
		}
		return err
	}
	return nil
}

// Build performs the dirty-set computation, the bounded-concurrency compile
// fan-out, header freeze propagation, and the link/archive step (spec
// §4.E). It returns nil on success, *CompileError if any compile failed
// (link is then skipped), or *LinkError if linking failed.
func Build(section *Section, profileName string, profile *Profile) error {
	binaryDir := BinaryDir(section.Name, profileName)
	if err := os.MkdirAll(binaryDir, os.ModePerm); err != nil {
		return err
	}

	dirty := dirtySet(section, profileName)
	outputPath := OutputPath(section.Name, profileName, section.OutletType)

	if len(dirty) == 0 {
		if _, err := os.Stat(outputPath); err == nil {
			common.StatusLine("%s %s", common.GreenBold("Compiling"), "nothing to compile")
			return nil
		}
	}

	queued := make(map[string]bool)
	failed := make(map[string]bool)
	var mu sync.Mutex
	var builtCount int

	sem := make(chan struct{}, maxConcurrentCompiles)
	var wg sync.WaitGroup

	compileOne := func(target *File) {
		defer wg.Done()
		defer func() { <-sem }()

		objPath, err := ObjectPath(section.Name, profileName, target.Path())
		if err == nil {
			err = common.MkdirForFile(objPath)
		}
		if err == nil {
			err = runChild(profile.Compiler, compileArgs(profile, target.Path(), objPath, section.IncludeDirectories))
		}

		if err != nil {
			mu.Lock()
			failed[target.Path()] = true
			mu.Unlock()
			common.StatusLine("%s '%s'", common.RedBold("Fail"), target.Path())
			fmt.Fprintln(common.Stdout, err)
			return
		}

		if err := Freeze(section.Name, profileName, target); err != nil {
			// spec §7: filesystem errors during freezing are reported but
			// do not cancel in-flight compiles.
			fmt.Fprintln(os.Stderr, "abs: freeze:", err)
		}
		common.StatusLine("%s '%s'", common.GreenBold("Complete"), target.Path())
	}

	for _, modifiedFile := range dirty {
		for _, target := range section.DepSources[modifiedFile.Path()] {
			if queued[target.Path()] || isHeaderFile(target.Path()) {
				continue
			}
			if target.Path() != modifiedFile.Path() {
				if frozenTime, ok := FrozenTime(section.Name, profileName, target); ok && !modifiedFile.IsModified(frozenTime) {
					continue // already rebuilt since this change, via another dirty header
				}
			}
			queued[target.Path()] = true
			builtCount++

			sem <- struct{}{}
			wg.Add(1)
			go compileOne(target)
		}
	}
	wg.Wait()

	// Header freeze propagation: a dependency is frozen unless some source
	// depending on it failed this pass (spec §4.E, §5); dependents that were
	// not compiled this pass do not block it.
	for depPath, sources := range section.DepSources {
		anySourceFailed := false
		for _, src := range sources {
			if failed[src.Path()] {
				anySourceFailed = true
				break
			}
		}
		if !anySourceFailed {
			if dep, ok := section.byPath[depPath]; ok {
				_ = Freeze(section.Name, profileName, dep)
			}
		}
	}

	if len(failed) > 0 {
		common.StatusLine("%s compiling. Compiled %d/%d", common.RedBold("Fail"), builtCount-len(failed), builtCount)
		return &CompileError{FailedCount: len(failed)}
	}

	common.StatusLine("%s compiling", common.GreenBold("Complete"))
	return link(section, profileName, profile)
}

// Check runs -fsyntax-only over the dirty set without touching object
// files, freeze records, or the link step (spec §4.E "Check").
func Check(section *Section, profileName string, profile *Profile) error {
	dirty := dirtySet(section, profileName)
	if len(dirty) == 0 {
		common.StatusLine("%s %s", common.GreenBold("Checking"), "everything is ok")
		return nil
	}

	queued := make(map[string]bool)
	var mu sync.Mutex
	var total, failedCount int

	sem := make(chan struct{}, maxConcurrentCompiles)
	var wg sync.WaitGroup

	checkOne := func(target *File) {
		defer wg.Done()
		defer func() { <-sem }()

		err := runChild(profile.Compiler, syntaxCheckArgs(profile, target.Path(), section.IncludeDirectories))

		mu.Lock()
		total++
		if err != nil {
			failedCount++
		}
		mu.Unlock()

		if err != nil {
			common.StatusLine("%s '%s'", common.RedBold("Fail"), target.Path())
			fmt.Fprintln(common.Stdout, err)
		} else {
			common.StatusLine("%s '%s'", common.GreenBold("Ok"), target.Path())
		}
	}

	for _, modifiedFile := range dirty {
		for _, target := range section.DepSources[modifiedFile.Path()] {
			if queued[target.Path()] || isHeaderFile(target.Path()) {
				continue
			}
			queued[target.Path()] = true

			sem <- struct{}{}
			wg.Add(1)
			go checkOne(target)
		}
	}
	wg.Wait()

	if failedCount > 0 {
		common.StatusLine("%s Ok %d/%d", common.RedBold("Got errors while checking:"), total-failedCount, total)
		return &CompileError{FailedCount: failedCount}
	}
	common.StatusLine("%s", common.GreenBold("Everything is ok"))
	return nil
}

// link enumerates every .o under the section's binary dir and dispatches to
// the linker or archiver per outlet type (spec §4.E "Linking").
func link(section *Section, profileName string, profile *Profile) error {
	binaryDir := BinaryDir(section.Name, profileName)
	entries, err := os.ReadDir(binaryDir)
	if err != nil {
		return &LinkError{Err: err}
	}

	var objects []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".o") {
			continue
		}
		abs, err := filepath.Abs(filepath.Join(binaryDir, entry.Name()))
		if err != nil {
			return &LinkError{Err: err}
		}
		objects = append(objects, abs)
	}
	sort.Strings(objects)

	outputPath := OutputPath(section.Name, profileName, section.OutletType)
	label := "executable"
	var err2 error

	switch section.OutletType {
	case OutletStaticLibrary:
		label = "static library"
		args := append([]string{"rcs", "-o", outputPath}, objects...)
		err2 = runChild("ar", args)

	case OutletSharedLibrary:
		label = "shared library"
		var args []string
		args = append(args, profile.LinkDirectories...)
		args = append(args, profile.LinkOptions...)
		args = append(args, objects...)
		args = append(args, "-shared", "-o", outputPath)
		err2 = runChild(profile.Compiler, args)

	default: // executable
		var args []string
		args = append(args, profile.LinkDirectories...)
		args = append(args, profile.LinkOptions...)
		args = append(args, objects...)
		args = append(args, "-o", outputPath)
		err2 = runChild(profile.Compiler, args)
	}

	if err2 != nil {
		common.StatusLine("%s %s", common.RedBold("Fail"), common.Cyan("linking"))
		fmt.Fprintln(common.Stdout, err2)
		return &LinkError{Err: err2}
	}

	common.StatusLine("%s %s", common.GreenBold("Complete "+label), common.Cyan("linking"))
	return nil
}

// Run builds the section and, only for an executable outlet, executes the
// resulting binary (spec §4.E "Run").
func Run(section *Section, profileName string, profile *Profile) error {
	if err := Build(section, profileName, profile); err != nil {
		return err
	}
	if section.OutletType != OutletExecutable {
		return &OutletUsageError{SectionName: section.Name, OutletType: section.OutletType}
	}

	outputPath := OutputPath(section.Name, profileName, section.OutletType)
	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return err
	}

	common.StatusLine("%s '%s' with profile '%s'", common.GreenBold("Running"), section.Name, profileName)
	cmd := exec.Command(absPath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}
