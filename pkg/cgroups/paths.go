package cgroups

import (
	"fmt"
	log "github.com/sirupsen/logrus"
	"os"
)

// ValidatePath checks that a cgroup exists in one subsystem and
// returns its absolute path. With create set, a missing group and its
// parents are created instead of failing. New cpuset groups start with
// empty cpuset.cpus and cpuset.mems files, so they are seeded from
// their parents before any task can be attached.
func (m *Manager) ValidatePath(subsystem, cgPath string, create bool) (string, error) {
	subsystemPath := m.SubsystemPath(subsystem, cgPath)

	st, err := os.Stat(subsystemPath)
	if err == nil && !st.IsDir() {
		return "", lookupError(FileInsteadOfGroup, subsystemPath)
	}
	if err != nil {
		if !create {
			return "", lookupError(GroupNotExists, subsystemPath)
		}
		log.Debugf("creating cgroup %s", subsystemPath)
		if err := os.MkdirAll(subsystemPath, 0755); err != nil {
			return "", fmt.Errorf("failed to create cgroup %s: %v",
				subsystemPath, err)
		}
	}

	if subsystem == cpuset {
		if err := m.InheritFromRoot(subsystem, cgPath, cpusetFiles); err != nil {
			return "", err
		}
	}

	return subsystemPath, nil
}

// SupportedSubsystems returns the set of subsystems in which the given
// cgroup exists (or could be created, with create set). Subsystems
// failing with a LookupError are left out; any other error aborts.
func (m *Manager) SupportedSubsystems(cgPath string, create bool, lookup ...string) (map[string]bool, error) {
	names, err := m.Subsystems(lookup...)
	if err != nil {
		return nil, err
	}

	supported := make(map[string]bool, len(names))
	for _, subsystem := range names {
		if _, err := m.ValidatePath(subsystem, cgPath, create); err != nil {
			if IsLookupError(err) {
				continue
			}
			return nil, err
		}
		supported[subsystem] = true
	}

	return supported, nil
}

// PathKind classifies what a cgroup path resolves to across the
// subsystem trees.
type PathKind int

const (
	// PathAbsent: no subsystem has a file or a directory at this path.
	PathAbsent PathKind = iota
	// PathFile: exactly one subsystem has a control file at this path.
	PathFile
	// PathDir: the path is a cgroup in at least one subsystem.
	PathDir
)

func (k PathKind) String() string {
	switch k {
	case PathFile:
		return "file"
	case PathDir:
		return "dir"
	default:
		return "absent"
	}
}

// PathInfo is the interpretation of a cgroup path across subsystems.
type PathInfo struct {
	Kind PathKind
	// Subsystem and AbsPath identify the owning subsystem and the
	// absolute file path when Kind is PathFile.
	Subsystem string
	AbsPath   string
	// Subsystems names the subsystems containing the directory when
	// Kind is PathDir.
	Subsystems map[string]bool
}

// Interpret resolves what a cgroup path means across all the real
// subsystems (or the lookup subset): a single control file, a group
// directory, or nothing at all. A name that is a file in one subsystem
// and a group in another, or a file in more than one subsystem, cannot
// be resolved and yields an ambiguity LookupError; narrowing the
// lookup set is the way to disambiguate.
func (m *Manager) Interpret(cgPath string, lookup ...string) (*PathInfo, error) {
	names, err := m.Subsystems(lookup...)
	if err != nil {
		return nil, err
	}

	var fileCount, dirCount int
	isFile := make([]bool, len(names))
	isDir := make([]bool, len(names))
	for i, subsystem := range names {
		st, err := os.Stat(m.SubsystemPath(subsystem, cgPath))
		if err != nil {
			continue
		}
		if st.IsDir() {
			isDir[i] = true
			dirCount++
		} else {
			isFile[i] = true
			fileCount++
		}
	}

	relPath := cleanPath(cgPath)
	if dirCount > 0 && fileCount > 0 {
		return nil, lookupError(AmbiguityFileOrGroup, relPath)
	}
	if fileCount > 1 {
		return nil, lookupError(AmbiguityMultiFiles, relPath)
	}

	if fileCount == 1 {
		for i, subsystem := range names {
			if isFile[i] {
				return &PathInfo{
					Kind:      PathFile,
					Subsystem: subsystem,
					AbsPath:   m.SubsystemPath(subsystem, cgPath),
				}, nil
			}
		}
	}

	if dirCount > 0 {
		subsystems := make(map[string]bool, dirCount)
		for i, subsystem := range names {
			if isDir[i] {
				subsystems[subsystem] = true
			}
		}
		return &PathInfo{Kind: PathDir, Subsystems: subsystems}, nil
	}

	return &PathInfo{Kind: PathAbsent}, nil
}
