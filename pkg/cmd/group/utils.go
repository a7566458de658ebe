package group

import (
	"fmt"
	"github.com/Pallinder/go-randomdata"
	"github.com/c2h5oh/datasize"
	"github.com/gosuri/uitable"
	"github.com/urfave/cli"
	"os"
	"path"
	"strconv"
	"strings"
	"weike.sh/mycgroups/pkg/cgroups"
	"weike.sh/mycgroups/util"
)

const memoryUsage = "memory.usage_in_bytes"

func newManager(ctx *cli.Context) *cgroups.Manager {
	return cgroups.New(ctx.GlobalString("root"))
}

func createGroups(ctx *cli.Context) error {
	resources, err := cgroups.NewResources(ctx)
	if err != nil {
		return err
	}

	args := ctx.Args()
	if len(args) == 0 {
		// generate a random name if necessary.
		args = []string{strings.ToLower(randomdata.SillyName())}
	}

	m := newManager(ctx)
	for _, cgPath := range args {
		c, err := m.Create(cgPath, ctx.StringSlice("subsystem")...)
		if err != nil {
			return err
		}
		if err := c.SetLimits(resources); err != nil {
			return err
		}
		if owner := ctx.String("owner"); owner != "" {
			if err := c.Chown(owner); err != nil {
				return err
			}
		}
		fmt.Println(c)
	}

	return nil
}

func removeGroups(ctx *cli.Context) error {
	if len(ctx.Args()) < 1 {
		return fmt.Errorf("missing cgroup path")
	}

	m := newManager(ctx)
	for _, cgPath := range ctx.Args() {
		c, err := m.Lookup(cgPath, ctx.StringSlice("subsystem")...)
		if err != nil {
			return err
		}
		if ctx.Bool("clear") {
			if err := c.ClearTasks(ctx.Bool("recursive")); err != nil {
				return err
			}
		}
		if err := c.Delete(ctx.Bool("recursive")); err != nil {
			return err
		}
		if len(c.Subsystems) > 0 {
			return fmt.Errorf("%s still exists in subsystems: %s",
				c, strings.Join(c.Subsystems, ", "))
		}
	}

	return nil
}

func listGroups(ctx *cli.Context) error {
	c, err := newManager(ctx).Lookup(ctx.Args().Get(0),
		ctx.StringSlice("subsystem")...)
	if err != nil {
		return err
	}

	children, err := c.Children()
	if err != nil {
		return err
	}

	table := uitable.New()
	if !ctx.Bool("long") {
		table.AddRow("NAME", "SUBSYSTEMS")
		for _, child := range children {
			table.AddRow(path.Base(child.Path),
				strings.Join(child.Subsystems, ","))
		}
		return util.EncodeTable(os.Stdout, table)
	}

	table.AddRow("NAME", "SUBSYSTEMS", "PROCS", "MEMORY")
	for _, child := range children {
		procs, err := child.Procs()
		if err != nil {
			return err
		}
		table.AddRow(path.Base(child.Path),
			strings.Join(child.Subsystems, ","),
			strconv.Itoa(len(procs)),
			groupMemoryUsage(child))
	}

	return util.EncodeTable(os.Stdout, table)
}

// groupMemoryUsage renders the memory usage of a cgroup as a human
// readable size, or "-" for groups outside the memory subsystem.
func groupMemoryUsage(c *cgroups.Cgroup) string {
	value, err := c.Get(memoryUsage)
	if err != nil {
		return "-"
	}
	usageBytes, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return "-"
	}
	return datasize.ByteSize(usageBytes).HumanReadable()
}

func getValues(ctx *cli.Context) error {
	if len(ctx.Args()) < 1 {
		return fmt.Errorf("missing the control file to read")
	}

	m := newManager(ctx)
	for _, arg := range ctx.Args() {
		c, err := m.Lookup(path.Dir(arg), ctx.StringSlice("subsystem")...)
		if err != nil {
			return err
		}
		value, err := c.Get(path.Base(arg))
		if err != nil {
			return err
		}
		fmt.Println(value)
	}

	return nil
}

func setValue(ctx *cli.Context) error {
	if len(ctx.Args()) != 2 {
		return fmt.Errorf("requires the control file and the value to write")
	}

	arg, value := ctx.Args().Get(0), ctx.Args().Get(1)
	c, err := newManager(ctx).Lookup(path.Dir(arg),
		ctx.StringSlice("subsystem")...)
	if err != nil {
		return err
	}

	return c.Set(path.Base(arg), value)
}

func chownGroups(ctx *cli.Context) error {
	if len(ctx.Args()) < 1 {
		return fmt.Errorf("missing cgroup path")
	}

	owner := ctx.String("user")
	if owner == "" {
		var err error
		if owner, err = util.CurrentUser(); err != nil {
			return err
		}
	}

	m := newManager(ctx)
	for _, cgPath := range ctx.Args() {
		c, err := m.Lookup(cgPath, ctx.StringSlice("subsystem")...)
		if err != nil {
			return err
		}
		if err := c.Chown(owner); err != nil {
			return err
		}
	}

	return nil
}
