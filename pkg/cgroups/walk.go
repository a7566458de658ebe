package cgroups

import (
	"fmt"
	log "github.com/sirupsen/logrus"
	"io/ioutil"
	"os"
	"path"
	"sort"
)

// Children maps each child group of a cgroup to the set of subsystems
// containing it. Subsystems in which the path itself does not exist
// contribute nothing.
func (m *Manager) Children(cgPath string, lookup ...string) (map[string]map[string]bool, error) {
	names, err := m.Subsystems(lookup...)
	if err != nil {
		return nil, err
	}

	children := make(map[string]map[string]bool)
	for _, subsystem := range names {
		entries, err := ioutil.ReadDir(m.SubsystemPath(subsystem, cgPath))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			name := entry.Name()
			if children[name] == nil {
				children[name] = make(map[string]bool)
			}
			children[name][subsystem] = true
		}
	}

	return children, nil
}

// HierarchyTasks returns the tasks of a cgroup together with the tasks
// of all its descendants. Every child group is read through the
// subsystems that actually contain it.
func (m *Manager) HierarchyTasks(cgPath string, lookup ...string) (map[string]bool, error) {
	return m.hierarchyMembers(TasksFile, cgPath, lookup)
}

// HierarchyProcs returns the processes of a cgroup together with the
// processes of all its descendants.
func (m *Manager) HierarchyProcs(cgPath string, lookup ...string) (map[string]bool, error) {
	return m.hierarchyMembers(ProcsFile, cgPath, lookup)
}

func (m *Manager) hierarchyMembers(fname, cgPath string, lookup []string) (map[string]bool, error) {
	all, err := m.commonMembers(fname, cgPath, lookup)
	if err != nil {
		return nil, err
	}

	children, err := m.Children(cgPath, lookup...)
	if err != nil {
		return nil, err
	}
	for name, subsystems := range children {
		childMembers, err := m.hierarchyMembers(fname,
			path.Join(cgPath, name), sortedNames(subsystems))
		if err != nil {
			return nil, err
		}
		for id := range childMembers {
			all[id] = true
		}
	}

	return all, nil
}

// Remove deletes a cgroup from one subsystem. The kernel only allows
// this when the group has no tasks and no child groups left; trying to
// remove a control file or a subsystem alias is refused.
func (m *Manager) Remove(subsystem, cgPath string) error {
	subsystemPath := m.SubsystemPath(subsystem, cgPath)

	if st, err := os.Stat(subsystemPath); err == nil && !st.IsDir() {
		return lookupError(FileInsteadOfGroup, subsystemPath)
	}
	st, err := os.Lstat(subsystemPath)
	if err != nil {
		return lookupError(NotExists, subsystemPath)
	}
	if st.Mode()&os.ModeSymlink != 0 {
		return lookupError(LinkNotAllowed, subsystemPath)
	}

	log.Debugf("removing cgroup %s", subsystemPath)
	// notes: the regular files in a cgroup directory can't be deleted,
	// removing the directory itself is what deletes the group, so
	// os.RemoveAll doesn't work here.
	// ref: http://blog.tinola.com/?e=21
	return os.Remove(subsystemPath)
}

// RemoveAll deletes a cgroup from every subsystem (or the lookup
// subset), children first when recursive is set. It returns the
// subsystems the group could not be deleted from mapped to the failure
// reason; the group survives in exactly those subsystems, and a later
// call may retry them.
func (m *Manager) RemoveAll(cgPath string, recursive bool, lookup ...string) (map[string]string, error) {
	if recursive {
		children, err := m.Children(cgPath, lookup...)
		if err != nil {
			return nil, err
		}
		childNames := make([]string, 0, len(children))
		for name := range children {
			childNames = append(childNames, name)
		}
		sort.Strings(childNames)
		for _, name := range childNames {
			childPath := path.Join(cgPath, name)
			childFailed, err := m.RemoveAll(childPath, true,
				sortedNames(children[name])...)
			if err != nil {
				return nil, err
			}
			if len(childFailed) > 0 {
				log.Warnf("cannot delete %s in subsystems: %v",
					childPath, childFailed)
			}
		}
	}

	names, err := m.Subsystems(lookup...)
	if err != nil {
		return nil, err
	}

	failed := make(map[string]string)
	for _, subsystem := range names {
		if err := m.Remove(subsystem, cgPath); err != nil {
			failed[subsystem] = err.Error()
		}
	}

	return failed, nil
}

// ClearTasks moves the tasks of a cgroup (with recursive, of its whole
// subtree) to the root cgroup, leaving the group empty so that it can
// be removed. Tasks that cannot be moved are logged and skipped.
func (m *Manager) ClearTasks(cgPath string, recursive bool, lookup ...string) error {
	if cleanPath(cgPath) == "" {
		return fmt.Errorf("cannot clear tasks of the root cgroup")
	}

	var ids map[string]bool
	var err error
	if recursive {
		ids, err = m.HierarchyTasks(cgPath, lookup...)
	} else {
		ids, err = m.CommonTasks(cgPath, lookup...)
	}
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	if err := m.AddTasksAll("", sortedNames(ids), lookup...); err != nil {
		log.Warnf("failed to clear tasks of %s: %v", cgPath, err)
	}

	return nil
}
