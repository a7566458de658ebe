package cmd

import (
	"encoding/json"
	"fmt"
	"github.com/urfave/cli"
	"weike.sh/mycgroups/pkg/cgroups"
	"weike.sh/mycgroups/util"
)

// groupInfo is the inspect view of one cgroup.
type groupInfo struct {
	Path       string   `json:"Path"`
	Subsystems []string `json:"Subsystems"`
	Procs      []string `json:"Procs"`
	Tasks      []string `json:"Tasks"`
	Children   []string `json:"Children"`
}

var Inspect = cli.Command{
	Name:  "inspect",
	Usage: "Print information of cgroups",
	Flags: []cli.Flag{
		cli.StringSliceFlag{
			Name:  "subsystem,s",
			Usage: "Only inspect the cgroup in these subsystems",
		},
	},
	Action: func(ctx *cli.Context) error {
		if len(ctx.Args()) < 1 {
			return fmt.Errorf("missing cgroup path")
		}

		m := cgroups.New(ctx.GlobalString("root"))
		for _, arg := range ctx.Args() {
			c, err := m.Lookup(arg, ctx.StringSlice("subsystem")...)
			if err != nil {
				fmt.Printf("\033[0;31mno such cgroup %s: %v\033[0m\n", arg, err)
				continue
			}
			if err := showUp(c); err != nil {
				return err
			}
		}

		return nil
	},
}

func showUp(c *cgroups.Cgroup) error {
	procs, err := c.Procs()
	if err != nil {
		return err
	}
	tasks, err := c.Tasks()
	if err != nil {
		return err
	}
	children, err := c.Children()
	if err != nil {
		return err
	}

	info := &groupInfo{
		Path:       c.String(),
		Subsystems: c.Subsystems,
		Procs:      util.SortedIDs(procs),
		Tasks:      util.SortedIDs(tasks),
		Children:   make([]string, 0, len(children)),
	}
	for _, child := range children {
		info.Children = append(info.Children, child.Path)
	}

	jsonBytes, err := json.MarshalIndent(info, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to json-encode cgroup %s: %v", c, err)
	}

	fmt.Printf("\033[0;32mShowing the cgroup %s:\033[0m\n", c)
	fmt.Println(string(jsonBytes))
	return nil
}
