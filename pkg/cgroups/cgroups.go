// Package cgroups resolves and manipulates cgroup-v1 hierarchies
// through their filesystem interface under /sys/fs/cgroup.
package cgroups

import (
	"path"
	"sort"
	"strings"
)

const (
	// DefaultRoot is where most distributions mount the cgroup
	// pseudo-filesystems, one subdirectory per subsystem.
	DefaultRoot = "/sys/fs/cgroup"

	// DefaultProc is the procfs mountpoint used for reverse lookups.
	DefaultProc = "/proc"

	// TasksFile lists the task (thread) ids attached to a cgroup.
	TasksFile = "tasks"

	// ProcsFile lists the process (thread group) ids attached to a cgroup.
	ProcsFile = "cgroup.procs"
)

// Manager operates on all the cgroup subsystems mounted under a common
// root directory. Methods taking a cgPath expect a path relative to the
// subsystem mountpoints, e.g. "system/daemon"; the empty path names the
// root cgroup.
type Manager struct {
	// Root is the directory containing one mountpoint per subsystem.
	Root string
	// Proc is the procfs mountpoint; only used to look up the cgroup
	// membership of a task.
	Proc string
}

// New returns a Manager for the given cgroup root directory.
// An empty root selects DefaultRoot.
func New(root string) *Manager {
	if root == "" {
		root = DefaultRoot
	}
	return &Manager{
		Root: root,
		Proc: DefaultProc,
	}
}

// SubsystemPath returns the absolute path of a cgroup within one
// subsystem. The cgPath is normalized first, so it cannot escape the
// subsystem mountpoint.
func (m *Manager) SubsystemPath(subsystem, cgPath string) string {
	return path.Join(m.Root, subsystem, cleanPath(cgPath))
}

// splitPath breaks a cgroup path into its segments, dropping leading
// and trailing separators and any attempt to climb above the root.
// The root path yields no segments.
func splitPath(cgPath string) []string {
	trimmed := strings.Trim(path.Clean("/"+cgPath), "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// cleanPath normalizes a cgroup path to its canonical relative form.
// The root cgroup is the empty string.
func cleanPath(cgPath string) string {
	return path.Join(splitPath(cgPath)...)
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
