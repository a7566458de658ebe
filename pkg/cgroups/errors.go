package cgroups

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// LookupErrorKind tells why a cgroup path could not be resolved.
type LookupErrorKind int

const (
	// FileInsteadOfGroup: requested a group, but the path is a control file.
	FileInsteadOfGroup LookupErrorKind = iota
	// GroupInsteadOfFile: requested a control file, but the path is a group.
	GroupInsteadOfFile
	// LinkNotAllowed: the path is a symlink (e.g. a subsystem alias).
	LinkNotAllowed
	// FileNotExists: the requested control file does not exist.
	FileNotExists
	// GroupNotExists: the requested group does not exist.
	GroupNotExists
	// NotExists: neither a file nor a group exists with this name.
	NotExists
	// AmbiguityFileOrGroup: the same name is a file in one subsystem
	// and a group in another.
	AmbiguityFileOrGroup
	// AmbiguityMultiFiles: more than one subsystem has a file with
	// this name, so there is no single file to resolve to.
	AmbiguityMultiFiles
)

// LookupError is returned whenever a cgroup path cannot be resolved
// unambiguously and validly. It always aborts the whole operation;
// the caller must change its request, e.g. name a single subsystem.
type LookupError struct {
	Kind LookupErrorKind
	Path string
}

func (e *LookupError) Error() string {
	switch e.Kind {
	case FileInsteadOfGroup:
		return fmt.Sprintf("requested a group, but %s is a file", e.Path)
	case GroupInsteadOfFile:
		return fmt.Sprintf("requested a file, but %s is a group", e.Path)
	case LinkNotAllowed:
		return fmt.Sprintf("cannot operate on a link: %s", e.Path)
	case FileNotExists:
		return fmt.Sprintf("the requested file %s does not exist", e.Path)
	case GroupNotExists:
		return fmt.Sprintf("the requested group %s does not exist", e.Path)
	case NotExists:
		return fmt.Sprintf("no file or group with this name: %s", e.Path)
	case AmbiguityFileOrGroup:
		return fmt.Sprintf("ambiguity: the same name is given to files and groups: %s", e.Path)
	case AmbiguityMultiFiles:
		return fmt.Sprintf("ambiguity: more than one subsystem has the file: %s", e.Path)
	default:
		return fmt.Sprintf("lookup error on %s", e.Path)
	}
}

func lookupError(kind LookupErrorKind, path string) *LookupError {
	return &LookupError{Kind: kind, Path: path}
}

// IsLookupError reports whether err is a LookupError of one of the
// given kinds, or of any kind when none is given.
func IsLookupError(err error, kinds ...LookupErrorKind) bool {
	var lookupErr *LookupError
	if !errors.As(err, &lookupErr) {
		return false
	}
	if len(kinds) == 0 {
		return true
	}
	for _, kind := range kinds {
		if lookupErr.Kind == kind {
			return true
		}
	}
	return false
}

// AccessViolation reports a multi-subsystem mutation that failed in at
// least one subsystem. Subsystems missing from Failed have completed
// the operation; they are NOT rolled back. Callers can tell a total
// failure from a partial one by comparing len(Failed) with the number
// of subsystems they addressed.
type AccessViolation struct {
	// Op is the failed operation, e.g. "write tasks".
	Op string
	// Failed maps a subsystem name to the reason it failed.
	Failed map[string]string
}

func (e *AccessViolation) Error() string {
	reasons := make([]string, 0, len(e.Failed))
	for _, s := range sortedKeys(e.Failed) {
		reasons = append(reasons, fmt.Sprintf("%s: %s", s, e.Failed[s]))
	}
	return fmt.Sprintf("failed to %s in %d subsystem(s): %s",
		e.Op, len(e.Failed), strings.Join(reasons, "; "))
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
