package cgroups

import (
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"weike.sh/mycgroups/util"
)

// Subsystems returns the names of the real subsystems mounted under
// the cgroup root, e.g. "memory" or "cpu,cpuacct" for combined mounts.
// Symlink aliases such as cpu -> cpu,cpuacct are skipped. When lookup
// names are given, only those subsystems are returned; names that are
// not mounted are silently dropped.
func (m *Manager) Subsystems(lookup ...string) ([]string, error) {
	return m.subsystems(false, lookup)
}

// SubsystemsAndAliases returns the mounted subsystems including their
// symlink aliases, e.g. both cpu,cpuacct and the cpu and cpuacct links
// pointing at it.
func (m *Manager) SubsystemsAndAliases(lookup ...string) ([]string, error) {
	return m.subsystems(true, lookup)
}

// subsystems lists the entries of the cgroup root in lexical order, so
// repeated calls see the subsystems in the same order.
func (m *Manager) subsystems(includeAliases bool, lookup []string) ([]string, error) {
	entries, err := ioutil.ReadDir(m.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to list cgroup root %s: %v", m.Root, err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.Mode()&os.ModeSymlink != 0 {
			if !includeAliases {
				continue
			}
			// the entry itself was lstat'ed; make sure the
			// alias actually points to a subsystem directory.
			target, err := os.Stat(path.Join(m.Root, name))
			if err != nil || !target.IsDir() {
				continue
			}
		} else if !entry.IsDir() {
			continue
		}
		if len(lookup) > 0 && !util.Contains(lookup, name) {
			continue
		}
		names = append(names, name)
	}

	return names, nil
}
