package cgroups

import (
	"fmt"
	"io/ioutil"
	"os"
	"path"
	"strconv"
	"strings"
)

// Tasks returns the task (thread) ids attached to a cgroup in one
// subsystem.
func (m *Manager) Tasks(subsystem, cgPath string) ([]string, error) {
	return m.members(TasksFile, subsystem, cgPath)
}

// Procs returns the process (thread group) ids attached to a cgroup in
// one subsystem.
func (m *Manager) Procs(subsystem, cgPath string) ([]string, error) {
	return m.members(ProcsFile, subsystem, cgPath)
}

// AddTasks attaches task ids to a cgroup in one subsystem. The ids may
// be a string, an int, or a slice of either.
func (m *Manager) AddTasks(subsystem, cgPath string, ids interface{}) error {
	return m.addMembers(TasksFile, subsystem, cgPath, ids)
}

// AddProcs attaches process ids to a cgroup in one subsystem. The ids
// may be a string, an int, or a slice of either.
func (m *Manager) AddProcs(subsystem, cgPath string, ids interface{}) error {
	return m.addMembers(ProcsFile, subsystem, cgPath, ids)
}

// AddTasksAll attaches task ids to a cgroup in every subsystem (or the
// lookup subset). Each subsystem is attempted even if an earlier one
// failed; on any failure the result is an AccessViolation naming the
// failed subsystems, while the others keep the ids.
func (m *Manager) AddTasksAll(cgPath string, ids interface{}, lookup ...string) error {
	return m.addMembersAll(TasksFile, cgPath, ids, lookup)
}

// AddProcsAll attaches process ids to a cgroup in every subsystem (or
// the lookup subset), with the same partial-failure contract as
// AddTasksAll.
func (m *Manager) AddProcsAll(cgPath string, ids interface{}, lookup ...string) error {
	return m.addMembersAll(ProcsFile, cgPath, ids, lookup)
}

// CommonTasks returns the task ids attached to a cgroup in all of the
// subsystems (or the lookup subset): the intersection of the
// per-subsystem tasks files, seeded by the first subsystem.
func (m *Manager) CommonTasks(cgPath string, lookup ...string) (map[string]bool, error) {
	return m.commonMembers(TasksFile, cgPath, lookup)
}

// CommonProcs returns the process ids attached to a cgroup in all of
// the subsystems (or the lookup subset).
func (m *Manager) CommonProcs(cgPath string, lookup ...string) (map[string]bool, error) {
	return m.commonMembers(ProcsFile, cgPath, lookup)
}

func (m *Manager) members(fname, subsystem, cgPath string) ([]string, error) {
	memberFile := path.Join(m.SubsystemPath(subsystem, cgPath), fname)
	contentsBytes, err := ioutil.ReadFile(memberFile)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, line := range strings.Split(string(contentsBytes), "\n") {
		if id := strings.TrimSpace(line); id != "" {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

func (m *Manager) addMembers(fname, subsystem, cgPath string, ids interface{}) error {
	memberIDs, err := normalizeIDs(ids)
	if err != nil {
		return err
	}
	return m.writeMembers(fname, subsystem, cgPath, memberIDs)
}

func (m *Manager) writeMembers(fname, subsystem, cgPath string, ids []string) error {
	memberFile := path.Join(m.SubsystemPath(subsystem, cgPath), fname)
	f, err := os.OpenFile(memberFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	// NOTE: the kernel accepts only ONE id per write to the tasks and
	// cgroup.procs files, so every id needs its own write.
	for _, id := range ids {
		if _, err := fmt.Fprintf(f, "%s\n", id); err != nil {
			return fmt.Errorf("failed to add %s to %s: %v", id, memberFile, err)
		}
	}

	return nil
}

func (m *Manager) addMembersAll(fname, cgPath string, ids interface{}, lookup []string) error {
	memberIDs, err := normalizeIDs(ids)
	if err != nil {
		return err
	}

	names, err := m.Subsystems(lookup...)
	if err != nil {
		return err
	}

	failed := make(map[string]string)
	for _, subsystem := range names {
		if err := m.writeMembers(fname, subsystem, cgPath, memberIDs); err != nil {
			failed[subsystem] = err.Error()
		}
	}

	if len(failed) > 0 {
		return &AccessViolation{Op: "write " + fname, Failed: failed}
	}

	return nil
}

func (m *Manager) commonMembers(fname, cgPath string, lookup []string) (map[string]bool, error) {
	names, err := m.Subsystems(lookup...)
	if err != nil {
		return nil, err
	}

	var common map[string]bool
	for _, subsystem := range names {
		ids, err := m.members(fname, subsystem, cgPath)
		if err != nil {
			return nil, err
		}
		if common == nil {
			common = make(map[string]bool, len(ids))
			for _, id := range ids {
				common[id] = true
			}
			continue
		}
		next := make(map[string]bool, len(ids))
		for _, id := range ids {
			if common[id] {
				next[id] = true
			}
		}
		common = next
	}

	if common == nil {
		common = make(map[string]bool)
	}

	return common, nil
}

// TaskCgroups reads the cgroup list of a task from procfs and returns
// the cgroups it belongs to, mapping each cgroup path to the subsystem
// fields naming it. Combined mounts keep their combined field, e.g.
// "cpu,cpuacct"; named hierarchies lose their "name=" prefix.
func (m *Manager) TaskCgroups(id interface{}) (map[string]map[string]bool, error) {
	taskID, err := normalizeID(id)
	if err != nil {
		return nil, err
	}

	procFile := path.Join(m.Proc, taskID, "cgroup")
	contentsBytes, err := ioutil.ReadFile(procFile)
	if err != nil {
		return nil, err
	}

	cgroups := make(map[string]map[string]bool)
	for _, line := range strings.Split(string(contentsBytes), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		// each line reads hierarchy-id:subsystem-list:cgroup-path,
		// and only the path may contain further colons.
		fields := strings.SplitN(line, ":", 3)
		if len(fields) != 3 {
			return nil, fmt.Errorf("malformed line %q in %s", line, procFile)
		}
		subsystem := strings.TrimPrefix(fields[1], "name=")
		if subsystem == "" {
			// the cgroup-v2 unified hierarchy has no subsystem field.
			continue
		}
		cgPath := strings.TrimLeft(fields[2], "/")
		if cgroups[cgPath] == nil {
			cgroups[cgPath] = make(map[string]bool)
		}
		cgroups[cgPath][subsystem] = true
	}

	return cgroups, nil
}

func normalizeID(id interface{}) (string, error) {
	switch v := id.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	default:
		return "", fmt.Errorf("process/task id must be an integer or a string, but got %T", id)
	}
}

func normalizeIDs(ids interface{}) ([]string, error) {
	switch v := ids.(type) {
	case []string:
		return v, nil
	case []int:
		normalized := make([]string, len(v))
		for i, id := range v {
			normalized[i] = strconv.Itoa(id)
		}
		return normalized, nil
	case []interface{}:
		normalized := make([]string, len(v))
		for i, id := range v {
			normalizedID, err := normalizeID(id)
			if err != nil {
				return nil, err
			}
			normalized[i] = normalizedID
		}
		return normalized, nil
	default:
		normalizedID, err := normalizeID(ids)
		if err != nil {
			return nil, err
		}
		return []string{normalizedID}, nil
	}
}
