package engine

import (
	"bufio"
	"os"
	"time"

	"github.com/abs-build/abs/internal/common"
)

const freezeTimeLayout = "2006-01-02/15:04:05"

// FrozenTime reads the freeze record for file under (sectionName,
// profileName). It returns ok=false if the record doesn't exist or fails to
// parse (spec §4.D).
func FrozenTime(sectionName, profileName string, file *File) (t time.Time, ok bool) {
	path := FreezePath(sectionName, profileName, file.Path())

	f, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return time.Time{}, false
	}

	parsed, err := time.ParseInLocation(freezeTimeLayout, scanner.Text(), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

// Freeze records the current wall-clock time as the last successful build
// time of file under (sectionName, profileName). Writing the current time,
// not file's mtime, defends against a source edited during the compile: the
// next run sees mtime > frozen time and rebuilds (spec §4.D).
func Freeze(sectionName, profileName string, file *File) error {
	path := FreezePath(sectionName, profileName, file.Path())
	if err := common.MkdirForFile(path); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(time.Now().Format(freezeTimeLayout))
	return err
}

// IsModified implements the is-modified predicate: no freeze record, or a
// freeze record strictly older than file's mtime (spec §4.D, second
// granularity).
func IsModified(sectionName, profileName string, file *File) bool {
	frozenTime, ok := FrozenTime(sectionName, profileName, file)
	if !ok {
		return true
	}
	return file.IsModified(frozenTime)
}

// HasMissingObject reports whether file's expected object path doesn't
// exist yet, independent of freshness (spec §4.D "Missing-object
// predicate"). Non-source files (headers) never have an object and always
// report false here.
func HasMissingObject(sectionName, profileName string, file *File) bool {
	if !isSourceFile(file.Path()) {
		return false
	}
	objPath, err := ObjectPath(sectionName, profileName, file.Path())
	if err != nil {
		return false
	}
	_, err = os.Stat(objPath)
	return os.IsNotExist(err)
}
