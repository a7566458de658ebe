package cgroups_test

import (
	"io/ioutil"
	"os"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/urfave/cli"

	"weike.sh/mycgroups/pkg/cgroups"
)

// parseResources runs the resource flags through a throwaway cli app,
// the same way the real commands receive them.
func parseResources(args ...string) (*cgroups.Resources, error) {
	var resources *cgroups.Resources
	var parseErr error

	app := cli.NewApp()
	app.Writer = ioutil.Discard
	app.Flags = cgroups.Flags
	app.Action = func(ctx *cli.Context) error {
		resources, parseErr = cgroups.NewResources(ctx)
		return nil
	}

	if err := app.Run(append([]string{"resources-test"}, args...)); err != nil {
		return nil, err
	}
	return resources, parseErr
}

var _ = Describe("Resources", func() {
	Describe("SetLimits", func() {
		var root string
		var m *cgroups.Manager
		var app *cgroups.Cgroup

		BeforeEach(func() {
			var err error
			root, err = ioutil.TempDir("", "mycgroups-resources")
			Expect(err).ToNot(HaveOccurred())
			m = cgroups.New(root)

			makeDirs(root, "memory", "app")
			makeDirs(root, "cpu,cpuacct", "app")
			makeFile("", root, "memory", "app", "memory.limit_in_bytes")
			makeFile("", root, "memory", "app", "memory.memsw.limit_in_bytes")
			makeFile("", root, "memory", "app", "memory.oom_control")
			makeFile("", root, "cpu,cpuacct", "app", "cpu.shares")

			app, err = m.Lookup("app")
			Expect(err).ToNot(HaveOccurred())
			Expect(app.Subsystems).To(Equal([]string{"cpu,cpuacct", "memory"}))
		})

		AfterEach(func() {
			Expect(os.RemoveAll(root)).To(Succeed())
		})

		It("writes every configured limit through its subsystem", func() {
			err := app.SetLimits(&cgroups.Resources{
				CpuShares:        512,
				MemoryLimit:      536870912,
				MemorySwappiness: -1,
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(fileContents(root, "cpu,cpuacct", "app", "cpu.shares")).To(Equal("512\n"))
			Expect(fileContents(root, "memory", "app", "memory.limit_in_bytes")).To(Equal("536870912\n"))
		})

		It("leaves the limit files alone when nothing is configured", func() {
			Expect(app.SetLimits(&cgroups.Resources{MemorySwappiness: -1})).To(Succeed())
			Expect(fileContents(root, "memory", "app", "memory.limit_in_bytes")).To(Equal(""))
			Expect(fileContents(root, "cpu,cpuacct", "app", "cpu.shares")).To(Equal(""))
		})

		It("skips limits whose control file is missing", func() {
			err := app.SetLimits(&cgroups.Resources{
				BlkioWeight:      500,
				MemorySwappiness: -1,
			})
			Expect(err).ToNot(HaveOccurred())
		})

		It("forces the swap limit to unlimited when memory is unlimited", func() {
			err := app.SetLimits(&cgroups.Resources{
				MemoryLimit:      -1,
				MemorySwapLimit:  1073741824,
				MemorySwappiness: -1,
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(fileContents(root, "memory", "app", "memory.limit_in_bytes")).To(Equal("-1\n"))
			Expect(fileContents(root, "memory", "app", "memory.memsw.limit_in_bytes")).To(Equal("-1\n"))
		})

		It("disables the oom killer through memory.oom_control", func() {
			err := app.SetLimits(&cgroups.Resources{
				OomKillDisable:   true,
				MemorySwappiness: -1,
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(fileContents(root, "memory", "app", "memory.oom_control")).To(Equal("1\n"))
		})

		It("rejects unknown freezer states", func() {
			err := app.SetLimits(&cgroups.Resources{
				FreezerState:     "MELTED",
				MemorySwappiness: -1,
			})
			Expect(err).To(MatchError(ContainSubstring("freezer state must be one of")))
		})
	})

	Describe("NewResources", func() {
		It("returns leave-alone defaults with no flags", func() {
			r, err := parseResources()
			Expect(err).ToNot(HaveOccurred())
			Expect(r.MemoryLimit).To(BeZero())
			Expect(r.MemorySwappiness).To(Equal(int64(-1)))
			Expect(r.CpuShares).To(BeZero())
			Expect(r.FreezerState).To(BeEmpty())
		})

		It("parses human readable memory sizes", func() {
			r, err := parseResources("--memory-limit", "512MB")
			Expect(err).ToNot(HaveOccurred())
			Expect(r.MemoryLimit).To(Equal(int64(536870912)))
		})

		It("accepts -1 as unlimited memory", func() {
			r, err := parseResources("--memory-limit", "-1")
			Expect(err).ToNot(HaveOccurred())
			Expect(r.MemoryLimit).To(Equal(int64(-1)))
		})

		It("rejects malformed sizes", func() {
			_, err := parseResources("--memory-limit", "one-gig")
			Expect(err).To(MatchError(ContainSubstring("invalid size")))
		})

		It("keeps the soft limit below the hard limit", func() {
			_, err := parseResources("--memory-limit", "1GB", "--memory-soft-limit", "2GB")
			Expect(err).To(MatchError(ContainSubstring("can't exceed")))
		})

		It("requires the swap limit to cover the memory limit", func() {
			_, err := parseResources("--memory-limit", "2GB", "--memory-swap-limit", "1GB")
			Expect(err).To(MatchError(ContainSubstring("requires >= --memory-limit")))
		})

		It("caps swappiness at 100", func() {
			_, err := parseResources("--memory-swappiness", "150")
			Expect(err).To(MatchError(ContainSubstring("[0, 100]")))
		})

		It("validates the blkio weight range", func() {
			_, err := parseResources("--blkio-weight", "5")
			Expect(err).To(MatchError(ContainSubstring("[10, 1000]")))
		})

		It("requires at least two cpu shares", func() {
			_, err := parseResources("--cpu-shares", "1")
			Expect(err).To(MatchError(ContainSubstring(">= 2")))
		})

		It("bounds the cfs period", func() {
			_, err := parseResources("--cpu-cfs-period", "500")
			Expect(err).To(MatchError(ContainSubstring("[1000, 1000000]")))
		})

		It("accepts a single cpu", func() {
			r, err := parseResources("--cpuset-cpus", "0")
			Expect(err).ToNot(HaveOccurred())
			Expect(r.CpusetCpus).To(Equal("0"))
		})

		It("rejects reversed cpuset ranges", func() {
			_, err := parseResources("--cpuset-cpus", "3-0")
			Expect(err).To(MatchError(ContainSubstring("requires a-b")))
		})

		It("rejects cpu ids that are not numbers", func() {
			_, err := parseResources("--cpuset-cpus", "x")
			Expect(err).To(MatchError(ContainSubstring("is not a number")))
		})

		It("whitelists the freezer states", func() {
			r, err := parseResources("--freezer-state", "THAWED")
			Expect(err).ToNot(HaveOccurred())
			Expect(r.FreezerState).To(Equal("THAWED"))

			_, err = parseResources("--freezer-state", "SOLID")
			Expect(err).To(MatchError(ContainSubstring("'FROZEN' or 'THAWED'")))
		})
	})
})
