package task

import (
	"fmt"
	"github.com/gosuri/uitable"
	"github.com/urfave/cli"
	"os"
	"strconv"
	"strings"
	"weike.sh/mycgroups/pkg/cgroups"
	"weike.sh/mycgroups/util"
)

func newManager(ctx *cli.Context) *cgroups.Manager {
	return cgroups.New(ctx.GlobalString("root"))
}

func listMembers(ctx *cli.Context, procs bool) error {
	c, err := newManager(ctx).Lookup(ctx.Args().Get(0),
		ctx.StringSlice("subsystem")...)
	if err != nil {
		return err
	}

	var ids map[string]bool
	switch {
	case procs && ctx.Bool("recursive"):
		ids, err = c.HierarchyProcs()
	case procs:
		ids, err = c.Procs()
	case ctx.Bool("recursive"):
		ids, err = c.HierarchyTasks()
	default:
		ids, err = c.Tasks()
	}
	if err != nil {
		return err
	}

	for _, id := range util.SortedIDs(ids) {
		fmt.Println(id)
	}

	return nil
}

func addMembers(ctx *cli.Context) error {
	if len(ctx.Args()) < 2 {
		return fmt.Errorf("requires the cgroup path and at least one id")
	}

	args := ctx.Args()
	c, err := newManager(ctx).Lookup(args.Get(0),
		ctx.StringSlice("subsystem")...)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(args)-1)
	for _, arg := range args.Tail() {
		if _, err := strconv.Atoi(arg); err != nil {
			return fmt.Errorf("%s is not a process id", arg)
		}
		ids = append(ids, arg)
	}

	if ctx.Bool("tasks") {
		return c.AddTasks(ids)
	}
	return c.AddProcs(ids)
}

func clearMembers(ctx *cli.Context) error {
	if len(ctx.Args()) < 1 {
		return fmt.Errorf("missing cgroup path")
	}

	m := newManager(ctx)
	for _, cgPath := range ctx.Args() {
		c, err := m.Lookup(cgPath, ctx.StringSlice("subsystem")...)
		if err != nil {
			return err
		}
		if err := c.ClearTasks(ctx.Bool("recursive")); err != nil {
			return err
		}
	}

	return nil
}

func whichGroups(ctx *cli.Context) error {
	if len(ctx.Args()) < 1 {
		return fmt.Errorf("missing process id")
	}

	m := newManager(ctx)
	table := uitable.New()
	table.AddRow("PID", "CGROUP", "SUBSYSTEMS")
	for _, arg := range ctx.Args() {
		if _, err := strconv.Atoi(arg); err != nil {
			return fmt.Errorf("%s is not a process id", arg)
		}
		groups, err := m.TaskGroups(arg)
		if err != nil {
			return err
		}
		for _, c := range groups {
			table.AddRow(arg, c.String(), strings.Join(c.Subsystems, ","))
		}
	}

	return util.EncodeTable(os.Stdout, table)
}
