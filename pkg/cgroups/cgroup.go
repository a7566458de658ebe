package cgroups

import (
	"fmt"
	log "github.com/sirupsen/logrus"
	"path"
	"sort"
	"strings"
	"weike.sh/mycgroups/util"
)

// Cgroup is one group bound to the set of subsystems that contain it,
// so cross-subsystem operations only touch trees the group actually
// lives in.
//
//	m := cgroups.New("")
//	c, err := m.Create("system/daemon")
//	err = c.AddProcs(os.Getpid())
//	err = c.Set("cpu.shares", "512")
//	value, err := c.Get("memory.limit_in_bytes")
type Cgroup struct {
	// Path is the canonical path of the group, relative to the
	// subsystem mountpoints; the root group is the empty string.
	Path string
	// Subsystems is the sorted set of subsystems this group is bound
	// to. Delete rebinds it to the subsystems the group survived in.
	Subsystems []string

	manager *Manager
}

// Lookup binds a Cgroup to the subsystems containing cgPath. When the
// first path segment names one of the bound subsystems, the group is
// narrowed to that subsystem alone, so "cpu/system" is the "system"
// group of the cpu subsystem. Explicitly requested subsystems must all
// be mounted and must all contain the path.
func (m *Manager) Lookup(cgPath string, subsystems ...string) (*Cgroup, error) {
	return m.lookup(cgPath, subsystems, false)
}

// Create behaves like Lookup but creates the group in every bound
// subsystem where it is missing.
func (m *Manager) Create(cgPath string, subsystems ...string) (*Cgroup, error) {
	return m.lookup(cgPath, subsystems, true)
}

func (m *Manager) lookup(cgPath string, subsystems []string, create bool) (*Cgroup, error) {
	available, err := m.Subsystems(subsystems...)
	if err != nil {
		return nil, err
	}

	if len(subsystems) > 0 {
		var unmounted []string
		for _, subsystem := range subsystems {
			if !util.Contains(available, subsystem) {
				unmounted = append(unmounted, subsystem)
			}
		}
		if len(unmounted) > 0 {
			return nil, fmt.Errorf("subsystems not mounted under %s: %s",
				m.Root, strings.Join(unmounted, ", "))
		}
	}

	parts := splitPath(cgPath)
	if len(parts) > 0 && util.Contains(available, parts[0]) {
		available = []string{parts[0]}
		parts = parts[1:]
	}
	relPath := path.Join(parts...)

	supported, err := m.SupportedSubsystems(relPath, create, available...)
	if err != nil {
		return nil, err
	}

	bound := sortedNames(supported)
	if len(subsystems) > 0 {
		var missing []string
		for _, subsystem := range available {
			if !supported[subsystem] {
				missing = append(missing, subsystem)
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("the path %s does not exist in all the "+
				"required subsystems, missing: %s",
				relPath, strings.Join(missing, ", "))
		}
		bound = available
	}

	return &Cgroup{Path: relPath, Subsystems: bound, manager: m}, nil
}

// TaskGroups returns the cgroups a task belongs to, each bound to the
// subsystems naming it in procfs. Entries of hierarchies that are not
// mounted under the cgroup root (e.g. the systemd named hierarchy) are
// skipped.
func (m *Manager) TaskGroups(id interface{}) ([]*Cgroup, error) {
	cgroups, err := m.TaskCgroups(id)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(cgroups))
	for cgPath := range cgroups {
		paths = append(paths, cgPath)
	}
	sort.Strings(paths)

	groups := make([]*Cgroup, 0, len(paths))
	for _, cgPath := range paths {
		subsystems := sortedNames(cgroups[cgPath])
		available, err := m.Subsystems(subsystems...)
		if err != nil {
			return nil, err
		}
		if len(available) == 0 {
			log.Debugf("skipping cgroup %s: none of %v is mounted",
				cgPath, subsystems)
			continue
		}
		group, err := m.Lookup(cgPath, available...)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}

	return groups, nil
}

func (c *Cgroup) String() string {
	if c.IsRoot() {
		return "/"
	}
	return c.Path
}

// IsRoot reports whether this group is the root of its subsystems.
func (c *Cgroup) IsRoot() bool {
	return c.Path == ""
}

// Root returns the root group of the same subsystems.
func (c *Cgroup) Root() *Cgroup {
	return &Cgroup{Subsystems: c.Subsystems, manager: c.manager}
}

// Parent returns the parent group, bound to the same subsystems.
func (c *Cgroup) Parent() (*Cgroup, error) {
	if c.IsRoot() {
		return nil, fmt.Errorf("cannot go up, already in the root of the subsystem")
	}
	parts := splitPath(c.Path)
	return c.manager.Lookup(path.Join(parts[:len(parts)-1]...), c.Subsystems...)
}

// Subsystem rebinds the group to specific subsystems, which must all
// contain it.
func (c *Cgroup) Subsystem(subsystems ...string) (*Cgroup, error) {
	return c.manager.Lookup(c.Path, subsystems...)
}

// Sub resolves a group below this one, bound to the same subsystems.
func (c *Cgroup) Sub(subPath string) (*Cgroup, error) {
	return c.manager.Lookup(path.Join(c.Path, cleanPath(subPath)), c.Subsystems...)
}

// CreateSub resolves a group below this one, creating it where missing.
func (c *Cgroup) CreateSub(subPath string) (*Cgroup, error) {
	return c.manager.Create(path.Join(c.Path, cleanPath(subPath)), c.Subsystems...)
}

// Children returns the direct sub-groups, each bound to the subsystems
// that contain it.
func (c *Cgroup) Children() ([]*Cgroup, error) {
	groups, err := c.manager.Children(c.Path, c.Subsystems...)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	children := make([]*Cgroup, 0, len(names))
	for _, name := range names {
		child, err := c.manager.Lookup(path.Join(c.Path, name),
			sortedNames(groups[name])...)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}

	return children, nil
}

// Tasks returns the task ids attached to the group in all its
// subsystems.
func (c *Cgroup) Tasks() (map[string]bool, error) {
	return c.manager.CommonTasks(c.Path, c.Subsystems...)
}

// Procs returns the process ids attached to the group in all its
// subsystems.
func (c *Cgroup) Procs() (map[string]bool, error) {
	return c.manager.CommonProcs(c.Path, c.Subsystems...)
}

// AddTasks attaches task ids to the group in all its subsystems.
func (c *Cgroup) AddTasks(ids interface{}) error {
	return c.manager.AddTasksAll(c.Path, ids, c.Subsystems...)
}

// AddProcs attaches process ids to the group in all its subsystems.
func (c *Cgroup) AddProcs(ids interface{}) error {
	return c.manager.AddProcsAll(c.Path, ids, c.Subsystems...)
}

// HierarchyTasks returns the tasks of the group and of all its
// descendants.
func (c *Cgroup) HierarchyTasks() (map[string]bool, error) {
	return c.manager.HierarchyTasks(c.Path, c.Subsystems...)
}

// HierarchyProcs returns the processes of the group and of all its
// descendants.
func (c *Cgroup) HierarchyProcs() (map[string]bool, error) {
	return c.manager.HierarchyProcs(c.Path, c.Subsystems...)
}

// ClearTasks moves the group's tasks (with recursive, the whole
// subtree's) to the root cgroup.
func (c *Cgroup) ClearTasks(recursive bool) error {
	return c.manager.ClearTasks(c.Path, recursive, c.Subsystems...)
}

// Delete removes the group from its subsystems, children first when
// recursive is set. The group stays bound to exactly the subsystems
// the delete failed in, so calling Delete again retries only those.
func (c *Cgroup) Delete(recursive bool) error {
	if c.IsRoot() {
		return fmt.Errorf("cannot remove the root cgroup")
	}

	failed, err := c.manager.RemoveAll(c.Path, recursive, c.Subsystems...)
	if err != nil {
		return err
	}
	if len(failed) > 0 {
		log.Warnf("cannot delete %s in subsystems: %v", c.Path, failed)
	}
	c.Subsystems = sortedKeys(failed)

	return nil
}

// ClearAndDelete empties the group and then removes it.
func (c *Cgroup) ClearAndDelete(recursive bool) error {
	if err := c.ClearTasks(recursive); err != nil {
		return err
	}
	return c.Delete(recursive)
}

// Get reads a control file of this group. The name must resolve to a
// file in exactly one of the group's subsystems.
func (c *Cgroup) Get(name string) (string, error) {
	info, err := c.manager.Interpret(path.Join(c.Path, name), c.Subsystems...)
	if err != nil {
		return "", err
	}
	switch info.Kind {
	case PathFile:
		return readValue(info.AbsPath)
	case PathDir:
		return "", lookupError(GroupInsteadOfFile, path.Join(c.Path, name))
	default:
		return "", lookupError(FileNotExists, path.Join(c.Path, name))
	}
}

// Set writes a value to a control file of this group. The name must
// resolve to a file in exactly one of the group's subsystems.
func (c *Cgroup) Set(name, value string) error {
	info, err := c.manager.Interpret(path.Join(c.Path, name), c.Subsystems...)
	if err != nil {
		return err
	}
	switch info.Kind {
	case PathFile:
		log.Debugf("set %s => %s", info.AbsPath, value)
		return writeValue(info.AbsPath, value)
	case PathDir:
		return lookupError(GroupInsteadOfFile, path.Join(c.Path, name))
	default:
		return lookupError(FileNotExists, path.Join(c.Path, name))
	}
}

// Child resolves a direct sub-group by name, bound to the subsystems
// containing it. At the root, a subsystem name resolves to the root
// group narrowed to that subsystem.
func (c *Cgroup) Child(name string) (*Cgroup, error) {
	if c.IsRoot() && util.Contains(c.Subsystems, name) {
		return c.Subsystem(name)
	}

	info, err := c.manager.Interpret(path.Join(c.Path, name), c.Subsystems...)
	if err != nil {
		return nil, err
	}
	switch info.Kind {
	case PathFile:
		return nil, lookupError(FileInsteadOfGroup, path.Join(c.Path, name))
	case PathDir:
		return c.manager.Lookup(path.Join(c.Path, name),
			sortedNames(info.Subsystems)...)
	default:
		return nil, lookupError(GroupNotExists, path.Join(c.Path, name))
	}
}

// CreateChild resolves a direct sub-group by name, creating it in all
// the group's subsystems when missing.
func (c *Cgroup) CreateChild(name string) (*Cgroup, error) {
	info, err := c.manager.Interpret(path.Join(c.Path, name), c.Subsystems...)
	if err != nil {
		return nil, err
	}
	if info.Kind == PathFile {
		return nil, lookupError(FileInsteadOfGroup, path.Join(c.Path, name))
	}
	return c.manager.Create(path.Join(c.Path, name), c.Subsystems...)
}

// RemoveChild deletes a direct sub-group by name from the subsystems
// containing it.
func (c *Cgroup) RemoveChild(name string) error {
	child, err := c.Child(name)
	if err != nil {
		return err
	}
	return child.Delete(false)
}

// Chown hands the group's directories over to another user.
func (c *Cgroup) Chown(owner string) error {
	return c.manager.Chown(c.Path, owner, c.Subsystems...)
}

// ChownCurrentUser hands the group's directories to the user running
// this process and returns the user name.
func (c *Cgroup) ChownCurrentUser() (string, error) {
	owner, err := util.CurrentUser()
	if err != nil {
		return "", err
	}
	return owner, c.Chown(owner)
}
