package group

import (
	"github.com/urfave/cli"
	"weike.sh/mycgroups/pkg/cgroups"
)

var subsystemFlag = cli.StringSliceFlag{
	Name:  "subsystem,s",
	Usage: "Only operate on these subsystems",
}

var createFlags = []cli.Flag{
	subsystemFlag,
	cli.StringFlag{
		Name:  "owner",
		Usage: "Hand the new cgroup over to this user",
	},
}

var Create = cli.Command{
	Name:  "create",
	Usage: "Create one or more cgroups in the mounted subsystems",
	Flags: append(createFlags, cgroups.Flags...),
	Action: func(ctx *cli.Context) error {
		return createGroups(ctx)
	},
}

var Remove = cli.Command{
	Name:  "rm",
	Usage: "Remove one or more cgroups",
	Flags: []cli.Flag{
		subsystemFlag,
		cli.BoolFlag{
			Name:  "recursive,r",
			Usage: "Remove the whole subtree, children first",
		},
		cli.BoolFlag{
			Name:  "clear",
			Usage: "Move the attached tasks to the root cgroup first",
		},
	},
	Action: func(ctx *cli.Context) error {
		return removeGroups(ctx)
	},
}

var List = cli.Command{
	Name:  "ls",
	Usage: "List the child cgroups of a cgroup",
	Flags: []cli.Flag{
		subsystemFlag,
		cli.BoolFlag{
			Name:  "long,l",
			Usage: "Also show the attached processes and the memory usage",
		},
	},
	Action: func(ctx *cli.Context) error {
		return listGroups(ctx)
	},
}

var Get = cli.Command{
	Name:  "get",
	Usage: "Read one or more cgroup control files",
	Flags: []cli.Flag{subsystemFlag},
	Action: func(ctx *cli.Context) error {
		return getValues(ctx)
	},
}

var Set = cli.Command{
	Name:  "set",
	Usage: "Write a value to a cgroup control file",
	Flags: []cli.Flag{subsystemFlag},
	Action: func(ctx *cli.Context) error {
		return setValue(ctx)
	},
}

var Chown = cli.Command{
	Name:  "chown",
	Usage: "Hand one or more cgroups over to a user",
	Flags: []cli.Flag{
		subsystemFlag,
		cli.StringFlag{
			Name:  "user,u",
			Usage: "The new owner; defaults to the current user",
		},
	},
	Action: func(ctx *cli.Context) error {
		return chownGroups(ctx)
	},
}
