package cgroups_test

import (
	"io/ioutil"
	"os"
	"path"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"weike.sh/mycgroups/pkg/cgroups"
)

var _ = Describe("HierarchyWalk", func() {
	var root string
	var m *cgroups.Manager

	BeforeEach(func() {
		var err error
		root, err = ioutil.TempDir("", "mycgroups-walk")
		Expect(err).ToNot(HaveOccurred())
		m = cgroups.New(root)

		makeDirs(root, "memory", "app", "db")
		makeDirs(root, "memory", "app", "web")
		makeDirs(root, "pids", "app", "web")
	})

	AfterEach(func() {
		Expect(os.RemoveAll(root)).To(Succeed())
	})

	Describe("Children", func() {
		It("merges the child names across subsystems", func() {
			Expect(m.Children("app")).To(Equal(map[string]map[string]bool{
				"db":  {"memory": true},
				"web": {"memory": true, "pids": true},
			}))
		})

		It("ignores regular files in a group", func() {
			makeFile("", root, "memory", "app", "tasks")
			children, err := m.Children("app")
			Expect(err).ToNot(HaveOccurred())
			Expect(children).ToNot(HaveKey("tasks"))
		})

		It("contributes nothing from subsystems missing the path", func() {
			makeDirs(root, "freezer")
			Expect(m.Children("app")).To(HaveLen(2))
		})
	})

	Describe("HierarchyTasks", func() {
		It("collects the tasks of the group and all its descendants", func() {
			makeFile("1\n2\n", root, "memory", "app", "tasks")
			makeFile("1\n2\n3\n", root, "pids", "app", "tasks")
			makeFile("7\n", root, "memory", "app", "db", "tasks")
			makeFile("8\n", root, "memory", "app", "web", "tasks")
			makeFile("8\n9\n", root, "pids", "app", "web", "tasks")

			Expect(m.HierarchyTasks("app")).To(Equal(map[string]bool{
				"1": true, "2": true, "7": true, "8": true,
			}))
		})
	})

	Describe("Remove", func() {
		It("removes an empty group directory", func() {
			makeDirs(root, "memory", "doomed")
			Expect(m.Remove("memory", "doomed")).To(Succeed())
			Expect(path.Join(root, "memory", "doomed")).ToNot(BeADirectory())
		})

		It("refuses to remove a control file", func() {
			makeFile("1\n", root, "memory", "app", "some.file")
			err := m.Remove("memory", "app/some.file")
			Expect(cgroups.IsLookupError(err, cgroups.FileInsteadOfGroup)).To(BeTrue())
		})

		It("refuses to remove a subsystem alias", func() {
			Expect(os.Symlink("memory", path.Join(root, "mem-alias"))).To(Succeed())
			err := m.Remove("mem-alias", "")
			Expect(cgroups.IsLookupError(err, cgroups.LinkNotAllowed)).To(BeTrue())
		})

		It("reports a missing group", func() {
			err := m.Remove("memory", "never-existed")
			Expect(cgroups.IsLookupError(err, cgroups.NotExists)).To(BeTrue())
		})

		It("fails on a group that still has children", func() {
			Expect(m.Remove("memory", "app")).ToNot(Succeed())
		})
	})

	Describe("RemoveAll", func() {
		It("deletes the group from every subsystem, children first", func() {
			failed, err := m.RemoveAll("app", true)
			Expect(err).ToNot(HaveOccurred())
			Expect(failed).To(BeEmpty())
			Expect(path.Join(root, "memory", "app")).ToNot(BeADirectory())
			Expect(path.Join(root, "pids", "app")).ToNot(BeADirectory())
		})

		It("keeps the group in subsystems where the delete fails", func() {
			makeFile("", root, "pids", "app", "web", "tasks")

			failed, err := m.RemoveAll("app", true)
			Expect(err).ToNot(HaveOccurred())
			Expect(failed).To(HaveKey("pids"))
			Expect(path.Join(root, "memory", "app")).ToNot(BeADirectory())
			Expect(path.Join(root, "pids", "app")).To(BeADirectory())
		})

		It("retries only the failed subsystems on a second call", func() {
			makeFile("", root, "pids", "app", "web", "tasks")
			failed, err := m.RemoveAll("app", true)
			Expect(err).ToNot(HaveOccurred())
			Expect(failed).To(HaveKey("pids"))

			Expect(os.Remove(path.Join(root, "pids", "app", "web", "tasks"))).To(Succeed())
			failed, err = m.RemoveAll("app", true, "pids")
			Expect(err).ToNot(HaveOccurred())
			Expect(failed).To(BeEmpty())
			Expect(path.Join(root, "pids", "app")).ToNot(BeADirectory())
		})
	})

	Describe("ClearTasks", func() {
		It("moves the tasks of the subtree to the root cgroup", func() {
			makeFile("1\n2\n", root, "memory", "app", "tasks")
			makeFile("1\n2\n", root, "pids", "app", "tasks")
			makeFile("9\n", root, "memory", "app", "db", "tasks")
			makeFile("", root, "memory", "app", "web", "tasks")
			makeFile("", root, "pids", "app", "web", "tasks")

			Expect(m.ClearTasks("app", true)).To(Succeed())
			Expect(fileContents(root, "memory", "tasks")).To(Equal("1\n2\n9\n"))
			Expect(fileContents(root, "pids", "tasks")).To(Equal("1\n2\n9\n"))
		})

		It("refuses to clear the root cgroup", func() {
			err := m.ClearTasks("/", false)
			Expect(err).To(MatchError(ContainSubstring("root cgroup")))
		})

		It("only warns when the move to the root fails", func() {
			makeFile("1\n", root, "memory", "app", "tasks")
			makeFile("1\n", root, "pids", "app", "tasks")
			// a directory named tasks makes the root write in pids fail.
			makeDirs(root, "pids", "tasks")

			Expect(m.ClearTasks("app", false)).To(Succeed())
			Expect(fileContents(root, "memory", "tasks")).To(Equal("1\n"))
		})

		It("does nothing when the group holds no tasks", func() {
			makeFile("", root, "memory", "app", "tasks")
			makeFile("", root, "pids", "app", "tasks")
			Expect(m.ClearTasks("app", false)).To(Succeed())
			Expect(path.Join(root, "memory", "tasks")).ToNot(BeAnExistingFile())
		})
	})
})
