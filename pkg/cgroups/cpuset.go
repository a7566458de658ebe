package cgroups

import (
	"fmt"
	log "github.com/sirupsen/logrus"
	"io/ioutil"
	"os"
	"path"
)

const (
	cpuset     = "cpuset"
	cpusetCpus = "cpuset.cpus"
	cpusetMems = "cpuset.mems"
)

// notes: cpuset.cpus and cpuset.mems of a new group are empty and must
// be seeded before any process can be added to the group's tasks file.
var cpusetFiles = []string{cpusetMems, cpusetCpus}

// InitDefaults makes sure a set of control files in a cgroup hold a
// value. Files that already have content keep it; empty files are
// seeded with the given default. The returned map holds the effective
// value of every file after the call. A file whose default is the
// empty string is only read, never written.
func (m *Manager) InitDefaults(subsystem, cgPath string, defaults map[string]string) (map[string]string, error) {
	values := make(map[string]string, len(defaults))
	for _, name := range sortedKeys(defaults) {
		confFile := path.Join(m.SubsystemPath(subsystem, cgPath), name)

		st, err := os.Stat(confFile)
		if err != nil {
			return nil, lookupError(NotExists, confFile)
		}
		if st.IsDir() {
			return nil, lookupError(GroupInsteadOfFile, confFile)
		}

		current, err := readValue(confFile)
		if err != nil {
			return nil, err
		}
		if current != "" {
			values[name] = current
			continue
		}

		defaultValue := defaults[name]
		if defaultValue == "" {
			values[name] = ""
			continue
		}
		log.Debugf("set %s => %s", confFile, defaultValue)
		if err := writeValue(confFile, defaultValue); err != nil {
			return nil, err
		}
		values[name] = defaultValue
	}

	return values, nil
}

// InheritFromRoot seeds the control files of a cgroup and of all its
// ancestors from the subsystem root, with the nearest ancestor that
// already holds a value winning. With an empty file list, all the
// regular files of the cgroup are seeded. The subsystem root must hold
// a value for every file, otherwise there is nothing to inherit.
func (m *Manager) InheritFromRoot(subsystem, cgPath string, files []string) error {
	if len(files) == 0 {
		entries, err := ioutil.ReadDir(m.SubsystemPath(subsystem, cgPath))
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if entry.Mode().IsRegular() {
				files = append(files, entry.Name())
			}
		}
	}

	defaults := make(map[string]string, len(files))
	for _, name := range files {
		defaults[name] = ""
	}
	values, err := m.InitDefaults(subsystem, "", defaults)
	if err != nil {
		return err
	}
	for _, name := range files {
		if values[name] == "" {
			return fmt.Errorf("no data is set for file %s in the root of %s",
				name, subsystem)
		}
	}

	parts := splitPath(cgPath)
	for i := 1; i <= len(parts); i++ {
		values, err = m.InitDefaults(subsystem, path.Join(parts[:i]...), values)
		if err != nil {
			return err
		}
	}

	return nil
}
