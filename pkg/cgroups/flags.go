package cgroups

import (
	"fmt"
	"github.com/c2h5oh/datasize"
	"github.com/urfave/cli"
	"path"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"weike.sh/mycgroups/util"
)

// Flags declares all the resource limit options. The zero value of
// every flag means "leave this limit file alone", so a bare create
// touches nothing but the group directories.
var Flags = []cli.Flag{
	cli.Uint64Flag{
		Name:  "cpu-cfs-period",
		Usage: "Limit CPU CFS (Completely Fair Scheduler) period in us",
	},
	cli.Uint64Flag{
		Name:  "cpu-cfs-quota",
		Usage: "Limit CPU CFS (Completely Fair Scheduler) quota in us",
	},
	cli.Uint64Flag{
		Name:  "cpu-shares,c",
		Usage: "CPU shares (relative weight)",
	},
	cli.StringFlag{
		Name:  "cpuset-cpus",
		Usage: "CPUs in which to allow execution (0-3, 0,1)",
	},
	cli.StringFlag{
		Name:  "cpuset-mems",
		Usage: "MEMs in which to allow execution (0-3, 0,1)",
	},
	cli.StringFlag{
		Name:  "memory-limit,m",
		Usage: "Memory limit, e.g., 512MB; -1 indicates unlimited",
	},
	cli.StringFlag{
		Name:  "memory-soft-limit",
		Usage: "Memory soft limit, e.g., 512MB; -1 indicates unlimited",
	},
	cli.StringFlag{
		Name:  "memory-swap-limit",
		Usage: "Swap limit equals to memory plus swap; -1 indicates unlimited",
	},
	cli.Int64Flag{
		Name:  "memory-swappiness",
		Usage: "Tune memory swappiness (range [0, 100])",
		Value: -1,
	},
	cli.BoolFlag{
		Name:  "oom-kill-disable",
		Usage: "Disable oom killer, i.e., process will be hung if oom, NOT killed",
	},
	cli.Uint64Flag{
		Name:  "blkio-weight",
		Usage: "Block IO relative weight (range [10, 1000])",
	},
	cli.Uint64Flag{
		Name:  "pids-max",
		Usage: "Limit pids number in the cgroup; 0 indicates unlimited",
	},
	cli.Uint64Flag{
		Name:  "net-classid",
		Usage: "Set class identifier for the cgroup's network packets",
	},
	cli.StringFlag{
		Name:  "freezer-state",
		Usage: "Set freezer state for the cgroup, must be 'FROZEN' or 'THAWED'",
	},
}

func NewResources(ctx *cli.Context) (*Resources, error) {
	parseFlagsFuncs := []func(*cli.Context, *Resources) error{
		parseCpuFlags,
		parseCpusetFlags,
		parseMemoryFlags,
		parseBlkioFlags,
		parsePidsFlags,
		parseNetClsFlags,
		parseFreezerFlags,
	}

	resources := &Resources{}
	for _, parseFlagsFunc := range parseFlagsFuncs {
		if err := parseFlagsFunc(ctx, resources); err != nil {
			return nil, err
		}
	}

	return resources, nil
}

func parseCpuFlags(ctx *cli.Context, r *Resources) error {
	cpuCfsPeriodArg := ctx.Uint64("cpu-cfs-period")
	if cpuCfsPeriodArg > 0 && (cpuCfsPeriodArg < 1000 || cpuCfsPeriodArg > 1000000) {
		return fmt.Errorf("--cpu-cfs-period requires [1000, 1000000]")
	}
	r.CpuCfsPeriod = cpuCfsPeriodArg

	r.CpuCfsQuota = ctx.Uint64("cpu-cfs-quota")

	cpuSharesArg := ctx.Uint64("cpu-shares")
	if cpuSharesArg > 0 && cpuSharesArg < 2 {
		return fmt.Errorf("--cpu-shares requires >= 2")
	}
	r.CpuShares = cpuSharesArg

	return nil
}

func parseCpusetFlags(ctx *cli.Context, r *Resources) error {
	numCPU := runtime.NumCPU()
	numMem := getMemNodesNum()

	cpusetCpusArg := ctx.String("cpuset-cpus")
	if err := validateCpusetArgs(cpusetCpusArg, "cpu", numCPU); err != nil {
		return err
	}
	r.CpusetCpus = cpusetCpusArg

	cpusetMemsArg := ctx.String("cpuset-mems")
	if err := validateCpusetArgs(cpusetMemsArg, "mem", numMem); err != nil {
		return err
	}
	r.CpusetMems = cpusetMemsArg

	return nil
}

func validateCpusetArgs(args, cls string, maxNum int) error {
	if args == "" {
		return nil
	}

	err := fmt.Errorf("--cpuset-%ss requires a-b, "+
		"and a must be less or equal to b, and both "+
		"must be in the range [0, %d)", cls, maxNum)

	for _, arg := range strings.Split(args, ",") {
		if strings.Contains(arg, "-") {
			re, _ := regexp.Compile(`(\d+)-(\d+)`)
			if !re.MatchString(arg) {
				return err
			}

			pairs := re.FindStringSubmatch(arg)
			a, _ := strconv.Atoi(pairs[1])
			b, _ := strconv.Atoi(pairs[2])

			if a >= 0 && b < maxNum && a <= b {
				continue
			} else {
				return err
			}
		} else {
			numArg, err := strconv.Atoi(arg)
			if err != nil {
				return fmt.Errorf("%s is not a number", arg)
			}
			if numArg < 0 || numArg >= maxNum {
				return fmt.Errorf("value of --cpuset-%ss must "+
					"be in the range [0, %d)", cls, maxNum)
			}
		}
	}

	return nil
}

func parseMemoryFlags(ctx *cli.Context, r *Resources) error {
	memoryLimitArg, err := parseMemorySize(ctx.String("memory-limit"))
	if err != nil {
		return fmt.Errorf("--memory-limit: %v", err)
	}
	r.MemoryLimit = memoryLimitArg

	memorySoftLimitArg, err := parseMemorySize(ctx.String("memory-soft-limit"))
	if err != nil {
		return fmt.Errorf("--memory-soft-limit: %v", err)
	}
	if memorySoftLimitArg > 0 && memoryLimitArg > 0 && memorySoftLimitArg > memoryLimitArg {
		return fmt.Errorf("--memory-soft-limit can't exceed --memory-limit")
	}
	r.MemorySoftLimit = memorySoftLimitArg

	memorySwapLimitArg, err := parseMemorySize(ctx.String("memory-swap-limit"))
	if err != nil {
		return fmt.Errorf("--memory-swap-limit: %v", err)
	}
	if memorySwapLimitArg > 0 && memoryLimitArg > 0 && memorySwapLimitArg < memoryLimitArg {
		return fmt.Errorf("--memory-swap-limit requires >= --memory-limit")
	}
	r.MemorySwapLimit = memorySwapLimitArg

	memorySwappinessArg := ctx.Int64("memory-swappiness")
	if memorySwappinessArg > 100 {
		return fmt.Errorf("--memory-swappiness requires [0, 100]")
	}
	r.MemorySwappiness = memorySwappinessArg

	r.OomKillDisable = ctx.Bool("oom-kill-disable")

	return nil
}

// parseMemorySize turns a human readable size like 512MB into bytes.
// The empty string yields 0, i.e., leave the limit file alone, while
// -1 means unlimited.
func parseMemorySize(arg string) (int64, error) {
	switch arg {
	case "":
		return 0, nil
	case "-1":
		return -1, nil
	}

	var byteSize datasize.ByteSize
	if err := byteSize.UnmarshalText([]byte(arg)); err != nil {
		return 0, fmt.Errorf("invalid size %s", arg)
	}

	return int64(byteSize.Bytes()), nil
}

func parseBlkioFlags(ctx *cli.Context, r *Resources) error {
	blkioWeightArg := ctx.Uint64("blkio-weight")
	if blkioWeightArg > 0 && (blkioWeightArg < 10 || blkioWeightArg > 1000) {
		return fmt.Errorf("--blkio-weight requires [10, 1000]")
	}
	r.BlkioWeight = blkioWeightArg

	return nil
}

func parsePidsFlags(ctx *cli.Context, r *Resources) error {
	r.PidsMax = ctx.Uint64("pids-max")
	return nil
}

func parseNetClsFlags(ctx *cli.Context, r *Resources) error {
	r.NetClsClassid = ctx.Uint64("net-classid")
	return nil
}

func parseFreezerFlags(ctx *cli.Context, r *Resources) error {
	freezerStateArg := ctx.String("freezer-state")
	if freezerStateArg != "" && !util.Contains(freezerStates, freezerStateArg) {
		return fmt.Errorf("--freezer-state must be 'FROZEN' or 'THAWED'")
	}
	r.FreezerState = freezerStateArg

	return nil
}

// get value from /sys/fs/cgroup/cpuset/cpuset.mems
// or use the command: `numactl --hardware`
// this function falls back to one memory node on any error.
func getMemNodesNum() int {
	confFile := path.Join(DetectRoot(), cpuset, cpusetMems)
	if exist, _ := util.FileOrDirExists(confFile); !exist {
		return 1
	}

	value, err := readValue(confFile)
	if err != nil {
		return 1
	}

	re, _ := regexp.Compile(`^[\d,-]*(\d+)$`)
	results := re.FindStringSubmatch(value)
	if results == nil {
		return 1
	}

	memNodesNum, _ := strconv.Atoi(results[1])
	return memNodesNum + 1
}
