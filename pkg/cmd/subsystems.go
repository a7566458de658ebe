package cmd

import (
	"github.com/gosuri/uitable"
	"github.com/urfave/cli"
	"os"
	"weike.sh/mycgroups/pkg/cgroups"
	"weike.sh/mycgroups/util"
)

var Subsystems = cli.Command{
	Name:  "subsystems",
	Usage: "List the cgroup subsystems mounted on this host",
	Flags: []cli.Flag{
		cli.BoolFlag{
			Name:  "all,a",
			Usage: "Include the symlink aliases of combined subsystems",
		},
	},
	Action: func(ctx *cli.Context) error {
		m := cgroups.New(ctx.GlobalString("root"))

		var names []string
		var err error
		if ctx.Bool("all") {
			names, err = m.SubsystemsAndAliases()
		} else {
			names, err = m.Subsystems()
		}
		if err != nil {
			return err
		}

		table := uitable.New()
		table.AddRow("SUBSYSTEM", "ROOT")
		for _, name := range names {
			table.AddRow(name, m.SubsystemPath(name, ""))
		}

		return util.EncodeTable(os.Stdout, table)
	},
}
