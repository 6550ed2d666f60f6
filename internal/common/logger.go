package common

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"
)

// Logger is a thin wrapper around the standard log package used by the
// tank coordinator. Unlike per-file compile/link status lines (see
// color.go), this is for diagnostics: which section is being dispatched,
// how long it took, and why it failed.
type Logger struct {
	impl              *log.Logger
	fileName          string
	verbosity         int
	duplicateToStderr bool
}

func MakeLogger(logFile string, verbosity int64, noLogsIfEmpty bool, duplicateToStderr bool) (*Logger, error) {
	var impl *log.Logger

	if logFile != "" && logFile != "stderr" {
		out, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			return nil, err
		}
		impl = log.New(out, "", 0)
	} else if !noLogsIfEmpty {
		impl = log.New(os.Stderr, "", 0)
	}

	if verbosity < -1 || verbosity > 2 {
		return nil, errors.New("incorrect verbosity passed")
	}

	return &Logger{
		impl:              impl,
		fileName:          logFile,
		verbosity:         int(verbosity),
		duplicateToStderr: duplicateToStderr,
	}, nil
}

func formatStr(prefix string, v ...interface{}) string {
	return fmt.Sprintf("%s %s %s", time.Now().Format("2006-01-02 15:04:05"), prefix, fmt.Sprintln(v...))
}

func (logger *Logger) Info(verbosity int, v ...interface{}) {
	if logger.verbosity >= verbosity && logger.impl != nil {
		_ = logger.impl.Output(0, formatStr("INFO", v...))
	}
}

func (logger *Logger) Error(v ...interface{}) {
	if logger.impl != nil {
		_ = logger.impl.Output(0, formatStr("ERROR", v...))
	}
	if logger.duplicateToStderr {
		_, _ = fmt.Fprint(os.Stderr, formatStr("[abs]", v...))
	}
}

func (logger *Logger) GetFileName() string {
	return logger.fileName
}

func (logger *Logger) GetFileSize() int64 {
	if logger.fileName == "" {
		return 0
	}
	stat, err := os.Stat(logger.fileName)
	if err != nil {
		return 0
	}
	return stat.Size()
}

// SectionLogger scopes a Logger to one (section, profile) pair, so every
// line it writes carries that context without every call site having to
// repeat it. The tank coordinator hands one of these to each section it
// dispatches.
type SectionLogger struct {
	logger      *Logger
	sectionName string
	profileName string
}

// ForSection scopes logger to sectionName/profileName. Safe to call on a
// nil *Logger (returns a SectionLogger whose calls are all no-ops), so
// callers never need a separate nil check before using it.
func (logger *Logger) ForSection(sectionName, profileName string) *SectionLogger {
	return &SectionLogger{logger: logger, sectionName: sectionName, profileName: profileName}
}

func (sl *SectionLogger) prefix(v ...interface{}) []interface{} {
	return append([]interface{}{fmt.Sprintf("[%s/%s]", sl.sectionName, sl.profileName)}, v...)
}

func (sl *SectionLogger) Info(verbosity int, v ...interface{}) {
	if sl.logger == nil {
		return
	}
	sl.logger.Info(verbosity, sl.prefix(v...)...)
}

func (sl *SectionLogger) Error(v ...interface{}) {
	if sl.logger == nil {
		return
	}
	sl.logger.Error(sl.prefix(v...)...)
}

// Timed logs verbosity-1 start/elapsed lines around the work done between
// calling Timed and calling the returned func, labeling the outcome with
// err (nil means success). Grounded on the teacher's own
// cxx-launcher.go duration-measurement idiom around each spawned compiler
// process, applied here at the whole-section granularity instead of
// per-process.
func (sl *SectionLogger) Timed(label string) func(err error) {
	start := time.Now()
	sl.Info(1, label, "started")
	return func(err error) {
		elapsed := time.Since(start)
		if err != nil {
			sl.Error(label, "failed after", elapsed, ":", err)
			return
		}
		sl.Info(1, label, "finished in", elapsed)
	}
}
