package cgroups_test

import (
	"io/ioutil"
	"os"
	"path"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"weike.sh/mycgroups/pkg/cgroups"
)

var _ = Describe("Cgroup", func() {
	var root string
	var m *cgroups.Manager

	BeforeEach(func() {
		var err error
		root, err = ioutil.TempDir("", "mycgroups-cgroup")
		Expect(err).ToNot(HaveOccurred())
		m = cgroups.New(root)

		makeDirs(root, "memory", "app", "web")
		makeDirs(root, "pids", "app")
		makeDirs(root, "freezer")
	})

	AfterEach(func() {
		Expect(os.RemoveAll(root)).To(Succeed())
	})

	Describe("Lookup", func() {
		It("binds the group to every subsystem containing it", func() {
			c, err := m.Lookup("app")
			Expect(err).ToNot(HaveOccurred())
			Expect(c.Path).To(Equal("app"))
			Expect(c.Subsystems).To(Equal([]string{"memory", "pids"}))
		})

		It("narrows to one subsystem named by the first path segment", func() {
			c, err := m.Lookup("memory/app")
			Expect(err).ToNot(HaveOccurred())
			Expect(c.Path).To(Equal("app"))
			Expect(c.Subsystems).To(Equal([]string{"memory"}))
		})

		It("binds a path no subsystem contains to nothing", func() {
			c, err := m.Lookup("nowhere")
			Expect(err).ToNot(HaveOccurred())
			Expect(c.Subsystems).To(BeEmpty())
		})

		It("requires explicitly requested subsystems to be mounted", func() {
			_, err := m.Lookup("app", "devices")
			Expect(err).To(MatchError(ContainSubstring("not mounted")))
		})

		It("requires the path to exist in all requested subsystems", func() {
			_, err := m.Lookup("app/web", "memory", "pids")
			Expect(err).To(MatchError(
				ContainSubstring("does not exist in all the required subsystems")))
		})
	})

	Describe("Create", func() {
		It("creates the group in all the requested subsystems", func() {
			c, err := m.Create("fresh", "memory", "freezer")
			Expect(err).ToNot(HaveOccurred())
			Expect(c.Subsystems).To(Equal([]string{"freezer", "memory"}))
			Expect(path.Join(root, "freezer", "fresh")).To(BeADirectory())
			Expect(path.Join(root, "memory", "fresh")).To(BeADirectory())
			Expect(path.Join(root, "pids", "fresh")).ToNot(BeADirectory())
		})

		It("creates unscoped groups everywhere", func() {
			c, err := m.Create("fresh")
			Expect(err).ToNot(HaveOccurred())
			Expect(c.Subsystems).To(Equal([]string{"freezer", "memory", "pids"}))
			Expect(path.Join(root, "pids", "fresh")).To(BeADirectory())
		})
	})

	Describe("navigation", func() {
		It("Parent goes one level up with the same binding", func() {
			web, err := m.Lookup("app/web")
			Expect(err).ToNot(HaveOccurred())
			Expect(web.Subsystems).To(Equal([]string{"memory"}))

			app, err := web.Parent()
			Expect(err).ToNot(HaveOccurred())
			Expect(app.Path).To(Equal("app"))
			Expect(app.Subsystems).To(Equal([]string{"memory"}))
		})

		It("Parent refuses to go above the root", func() {
			rootGroup, err := m.Lookup("")
			Expect(err).ToNot(HaveOccurred())
			_, err = rootGroup.Parent()
			Expect(err).To(MatchError(ContainSubstring("cannot go up")))
		})

		It("Root returns the root of the same subsystems", func() {
			app, err := m.Lookup("app")
			Expect(err).ToNot(HaveOccurred())
			Expect(app.Root().IsRoot()).To(BeTrue())
			Expect(app.Root().Subsystems).To(Equal(app.Subsystems))
		})

		It("Sub keeps the parent's binding and requires it to hold", func() {
			app, err := m.Lookup("app")
			Expect(err).ToNot(HaveOccurred())
			_, err = app.Sub("web")
			Expect(err).To(MatchError(
				ContainSubstring("does not exist in all the required subsystems")))
		})

		It("Child binds to the subsystems containing the child", func() {
			app, err := m.Lookup("app")
			Expect(err).ToNot(HaveOccurred())

			web, err := app.Child("web")
			Expect(err).ToNot(HaveOccurred())
			Expect(web.Path).To(Equal("app/web"))
			Expect(web.Subsystems).To(Equal([]string{"memory"}))
		})

		It("Child reports a missing sub-group", func() {
			app, err := m.Lookup("app")
			Expect(err).ToNot(HaveOccurred())
			_, err = app.Child("nope")
			Expect(cgroups.IsLookupError(err, cgroups.GroupNotExists)).To(BeTrue())
		})

		It("Child resolves a subsystem name at the root", func() {
			rootGroup, err := m.Lookup("")
			Expect(err).ToNot(HaveOccurred())

			memory, err := rootGroup.Child("memory")
			Expect(err).ToNot(HaveOccurred())
			Expect(memory.IsRoot()).To(BeTrue())
			Expect(memory.Subsystems).To(Equal([]string{"memory"}))
		})

		It("Children lists the sub-groups with their own bindings", func() {
			app, err := m.Lookup("app")
			Expect(err).ToNot(HaveOccurred())

			children, err := app.Children()
			Expect(err).ToNot(HaveOccurred())
			Expect(children).To(HaveLen(1))
			Expect(children[0].Path).To(Equal("app/web"))
			Expect(children[0].Subsystems).To(Equal([]string{"memory"}))
		})

		It("CreateChild extends the group's own binding", func() {
			app, err := m.Lookup("app")
			Expect(err).ToNot(HaveOccurred())

			db, err := app.CreateChild("db")
			Expect(err).ToNot(HaveOccurred())
			Expect(db.Subsystems).To(Equal([]string{"memory", "pids"}))
			Expect(path.Join(root, "pids", "app", "db")).To(BeADirectory())
		})
	})

	Describe("Get and Set", func() {
		var app *cgroups.Cgroup

		BeforeEach(func() {
			makeFile("100\n", root, "memory", "app", "memory.swappiness")
			var err error
			app, err = m.Lookup("app")
			Expect(err).ToNot(HaveOccurred())
		})

		It("reads the trimmed value of a control file", func() {
			Expect(app.Get("memory.swappiness")).To(Equal("100"))
		})

		It("writes a single value", func() {
			Expect(app.Set("memory.swappiness", "42")).To(Succeed())
			Expect(fileContents(root, "memory", "app", "memory.swappiness")).To(Equal("42\n"))
		})

		It("refuses to read a group as a file", func() {
			_, err := app.Get("web")
			Expect(cgroups.IsLookupError(err, cgroups.GroupInsteadOfFile)).To(BeTrue())
		})

		It("reports a missing control file", func() {
			_, err := app.Get("memory.nope")
			Expect(cgroups.IsLookupError(err, cgroups.FileNotExists)).To(BeTrue())
		})

		It("refuses to write a group", func() {
			err := app.Set("web", "1")
			Expect(cgroups.IsLookupError(err, cgroups.GroupInsteadOfFile)).To(BeTrue())
		})
	})

	Describe("Delete", func() {
		It("stays bound to exactly the subsystems the delete failed in", func() {
			makeFile("", root, "pids", "app", "blocker")
			c, err := m.Lookup("app")
			Expect(err).ToNot(HaveOccurred())

			Expect(c.Delete(true)).To(Succeed())
			Expect(c.Subsystems).To(Equal([]string{"pids"}))
			Expect(path.Join(root, "memory", "app")).ToNot(BeADirectory())
			Expect(path.Join(root, "pids", "app")).To(BeADirectory())

			Expect(os.Remove(path.Join(root, "pids", "app", "blocker"))).To(Succeed())
			Expect(c.Delete(true)).To(Succeed())
			Expect(c.Subsystems).To(BeEmpty())
			Expect(path.Join(root, "pids", "app")).ToNot(BeADirectory())
		})

		It("refuses to delete the root cgroup", func() {
			rootGroup, err := m.Lookup("")
			Expect(err).ToNot(HaveOccurred())
			Expect(rootGroup.Delete(false)).To(MatchError(
				ContainSubstring("cannot remove the root cgroup")))
		})
	})

	Describe("TaskGroups", func() {
		var proc string

		BeforeEach(func() {
			var err error
			proc, err = ioutil.TempDir("", "mycgroups-proc")
			Expect(err).ToNot(HaveOccurred())
			m.Proc = proc

			makeDirs(proc, "42")
			makeFile("12:memory:/app\n"+
				"11:pids:/app\n"+
				"10:name=systemd:/user.slice\n", proc, "42", "cgroup")
		})

		AfterEach(func() {
			Expect(os.RemoveAll(proc)).To(Succeed())
		})

		It("binds each entry and skips unmounted hierarchies", func() {
			groups, err := m.TaskGroups(42)
			Expect(err).ToNot(HaveOccurred())
			Expect(groups).To(HaveLen(1))
			Expect(groups[0].Path).To(Equal("app"))
			Expect(groups[0].Subsystems).To(Equal([]string{"memory", "pids"}))
		})
	})
})
