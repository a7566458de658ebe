package task

import (
	"github.com/urfave/cli"
)

var subsystemFlag = cli.StringSliceFlag{
	Name:  "subsystem,s",
	Usage: "Only operate on these subsystems",
}

var recursiveFlag = cli.BoolFlag{
	Name:  "recursive,r",
	Usage: "Include all the descendant cgroups",
}

var Tasks = cli.Command{
	Name:  "tasks",
	Usage: "List the task ids attached to a cgroup in all its subsystems",
	Flags: []cli.Flag{subsystemFlag, recursiveFlag},
	Action: func(ctx *cli.Context) error {
		return listMembers(ctx, false)
	},
}

var Procs = cli.Command{
	Name:  "procs",
	Usage: "List the process ids attached to a cgroup in all its subsystems",
	Flags: []cli.Flag{subsystemFlag, recursiveFlag},
	Action: func(ctx *cli.Context) error {
		return listMembers(ctx, true)
	},
}

var Add = cli.Command{
	Name:  "add",
	Usage: "Attach processes to a cgroup in all its subsystems",
	Flags: []cli.Flag{
		subsystemFlag,
		cli.BoolFlag{
			Name:  "tasks,t",
			Usage: "Attach single tasks (threads) instead of whole processes",
		},
	},
	Action: func(ctx *cli.Context) error {
		return addMembers(ctx)
	},
}

var Clear = cli.Command{
	Name:  "clear",
	Usage: "Move the tasks of one or more cgroups to the root cgroup",
	Flags: []cli.Flag{subsystemFlag, recursiveFlag},
	Action: func(ctx *cli.Context) error {
		return clearMembers(ctx)
	},
}

var Which = cli.Command{
	Name:  "which",
	Usage: "Show the cgroups one or more processes belong to",
	Action: func(ctx *cli.Context) error {
		return whichGroups(ctx)
	},
}
