package main

import (
	"math/rand"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"weike.sh/mycgroups/pkg/cgroups"
	"weike.sh/mycgroups/pkg/cmd"
	"weike.sh/mycgroups/pkg/cmd/group"
	"weike.sh/mycgroups/pkg/cmd/task"
)

const usage = `mycgroups is a simple manager for the linux cgroup-v1 trees.
The purpose of this project is to resolve cgroup names across all the
mounted subsystems and to keep every multi-subsystem operation
consistent, enjoy it!`

func init() {
	rand.Seed(time.Now().UnixNano())
}

func main() {
	app := cli.NewApp()
	app.Name = "mycgroups"
	app.Usage = usage

	app.Commands = []cli.Command{
		cmd.Subsystems,
		group.Create,
		group.Remove,
		group.List,
		group.Get,
		group.Set,
		group.Chown,
		task.Tasks,
		task.Procs,
		task.Add,
		task.Clear,
		task.Which,
		cmd.Inspect,
	}

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "debug",
			Usage: "print mycgroups debug logs",
		},
		cli.StringFlag{
			Name:  "root",
			Usage: "the directory the cgroup subsystems are mounted under",
			Value: cgroups.DetectRoot(),
		},
	}

	app.Before = func(ctx *cli.Context) error {
		if ctx.Bool("debug") {
			log.SetLevel(log.DebugLevel)
		}

		log.SetOutput(os.Stdout)
		log.SetFormatter(&prefixed.TextFormatter{
			ForceColors:     true,
			ForceFormatting: true,
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})

		return nil
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
