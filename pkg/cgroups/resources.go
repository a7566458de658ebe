package cgroups

import (
	"fmt"
	log "github.com/sirupsen/logrus"
	"weike.sh/mycgroups/util"
)

const (
	// since Linux 2.6.24; CONFIG_CGROUP_SCHED
	// https://www.kernel.org/doc/Documentation/scheduler/sched-bwc.txt
	cpuCfsPeriod = "cpu.cfs_period_us"
	cpuCfsQuota  = "cpu.cfs_quota_us"
	cpuShares    = "cpu.shares"

	// since Linux 2.6.25; CONFIG_MEMCG
	// https://www.kernel.org/doc/Documentation/cgroup-v1/memory.txt
	memoryLimit      = "memory.limit_in_bytes"
	memorySoftLimit  = "memory.soft_limit_in_bytes"
	memorySwapLimit  = "memory.memsw.limit_in_bytes"
	memorySwappiness = "memory.swappiness"
	memoryOomControl = "memory.oom_control"

	// since Linux 2.6.33; CONFIG_BLK_CGROUP
	// https://www.kernel.org/doc/Documentation/cgroup-v1/blkio-controller.txt
	blkioWeight = "blkio.weight"

	// since Linux 4.3; CONFIG_CGROUP_PIDS
	// https://www.kernel.org/doc/Documentation/cgroup-v1/pids.txt
	pidsMax = "pids.max"

	// since Linux 2.6.29; CONFIG_CGROUP_NET_CLASSID
	// https://www.kernel.org/doc/Documentation/cgroup-v1/net_cls.txt
	netClsClassid = "net_cls.classid"

	// since Linux 2.6.28; CONFIG_CGROUP_FREEZER
	// https://www.kernel.org/doc/Documentation/cgroup-v1/freezer-subsystem.txt
	freezerState = "freezer.state"
)

var freezerStates = []string{"FROZEN", "THAWED"}

type Resources struct {
	/////////////////////////////////////////////////
	// configurations for cpu subsystem of cgroups //
	/////////////////////////////////////////////////

	// cpu period (1ms-1s, i.e., 1000-1000000) to be used for CFS scheduling.
	// `0` to use system default.
	// cpu.cfs_period_us: the length of a period (in us)
	// default: 100ms = 100000
	CpuCfsPeriod uint64 `json:"CpuCfsPeriod"`

	// how many time cpu will use in CFS scheduling.
	// cpu.cfs_quota_us: the total available run-time within a period (in us)
	// default: -1 indicates unlimited.
	CpuCfsQuota uint64 `json:"CpuCfsQuota"`

	// relative weight vs. other groups
	// cpu.shares
	CpuShares uint64 `json:"CpuShares"`

	////////////////////////////////////////////////////
	// configurations for cpuset subsystem of cgroups //
	////////////////////////////////////////////////////

	// cpus can be used in this cgroup, e.g., 0,2-4,6
	// cpuset.cpus
	CpusetCpus string `json:"CpusetCpus"`

	// cpuset.mems
	CpusetMems string `json:"CpusetMems"`

	////////////////////////////////////////////////////
	// configurations for memory subsystem of cgroups //
	////////////////////////////////////////////////////

	// memory.limit_in_bytes
	MemoryLimit int64 `json:"MemoryLimit"`

	// memory.soft_limit_in_bytes
	MemorySoftLimit int64 `json:"MemorySoftLimit"`

	// total memory usage (memory + swap); `-1` to enable unlimited swap.
	// memory.memsw.limit_in_bytes
	MemorySwapLimit int64 `json:"MemorySwapLimit"`

	// swappiness (0 to 100) controls how aggressive the kernel will swap memory pages,
	// higher value will increase aggressiveness, lower values decrease the amount of swap.
	// `-1` to leave the kernel default alone.
	// memory.swappiness
	MemorySwappiness int64 `json:"MemorySwappiness"`

	// `false` means process will be OOMKilled if memory usages exceed MemoryLimit,
	// while `true` won't.
	// memory.oom_control
	OomKillDisable bool `json:"OomKillDisable"`

	///////////////////////////////////////////////////
	// configurations for blkio subsystem of cgroups //
	///////////////////////////////////////////////////

	// specifies per cgroup weight, range is from 10 to 1000.
	// blkio.weight
	BlkioWeight uint64 `json:"BlkioWeight"`

	//////////////////////////////////////////////////
	// configurations for pids subsystem of cgroups //
	//////////////////////////////////////////////////

	// process limit, set `0` to disable limit.
	// pids.max
	PidsMax uint64 `json:"PidsMax"`

	/////////////////////////////////////////////////////
	// configurations for net_cls subsystem of cgroups //
	/////////////////////////////////////////////////////

	// set class identifier for the cgroup's network packets.
	// net_cls.classid
	NetClsClassid uint64 `json:"NetClsClassid"`

	/////////////////////////////////////////////////////
	// configurations for freezer subsystem of cgroups //
	/////////////////////////////////////////////////////

	// can only be "FROZEN" or "THAWED"
	// freezer.state
	FreezerState string `json:"Freezer"`
}

// SetLimits applies all the configured resource limits to the cgroup.
// Every limit file is located by name through the bound subsystems, so
// combined mounts like cpu,cpuacct need no special handling here.
func (c *Cgroup) SetLimits(r *Resources) error {
	setLimitsFuncs := []func(*Cgroup, *Resources) error{
		setCpuLimits,
		setCpusetLimits,
		setMemoryLimits,
		setBlkioLimits,
		setPidsLimits,
		setNetClsLimits,
		setFreezerState,
	}

	for _, setLimitsFunc := range setLimitsFuncs {
		if err := setLimitsFunc(c, r); err != nil {
			return err
		}
	}

	return nil
}

// setLimit writes one limit file of the cgroup. A limit whose control
// file doesn't exist in any bound subsystem is skipped with a warning,
// e.g. memory.memsw.* on kernels booted without swapaccount=1.
func (c *Cgroup) setLimit(name, value string) error {
	err := c.Set(name, value)
	if err != nil && IsLookupError(err, FileNotExists) {
		log.Warnf("skip %s: no such file in the subsystems of %s", name, c)
		return nil
	}
	return err
}

func setCpuLimits(c *Cgroup, r *Resources) error {
	if r.CpuCfsPeriod > 0 {
		if err := c.setLimit(cpuCfsPeriod, fmt.Sprintf("%d", r.CpuCfsPeriod)); err != nil {
			return err
		}
	}

	if r.CpuCfsQuota > 0 {
		if err := c.setLimit(cpuCfsQuota, fmt.Sprintf("%d", r.CpuCfsQuota)); err != nil {
			return err
		}
	}

	if r.CpuShares > 0 {
		if err := c.setLimit(cpuShares, fmt.Sprintf("%d", r.CpuShares)); err != nil {
			return err
		}
	}

	return nil
}

func setCpusetLimits(c *Cgroup, r *Resources) error {
	// notes: keep mems before cpus; on some kernels cpuset.cpus
	// rejects writes while cpuset.mems is still empty.
	if r.CpusetMems != "" {
		if err := c.setLimit(cpusetMems, r.CpusetMems); err != nil {
			return err
		}
	}

	if r.CpusetCpus != "" {
		if err := c.setLimit(cpusetCpus, r.CpusetCpus); err != nil {
			return err
		}
	}

	return nil
}

func setMemoryLimits(c *Cgroup, r *Resources) error {
	if r.MemoryLimit > 0 || r.MemoryLimit == -1 {
		if err := c.setLimit(memoryLimit, fmt.Sprintf("%d", r.MemoryLimit)); err != nil {
			return err
		}
	}

	if r.MemorySoftLimit > 0 || r.MemorySoftLimit == -1 {
		if err := c.setLimit(memorySoftLimit, fmt.Sprintf("%d", r.MemorySoftLimit)); err != nil {
			return err
		}
	}

	if r.MemorySwapLimit > 0 || r.MemorySwapLimit == -1 {
		swapLimit := r.MemorySwapLimit
		if r.MemoryLimit == -1 {
			// unlimited memory implies unlimited swap.
			swapLimit = -1
		}
		if err := c.setLimit(memorySwapLimit, fmt.Sprintf("%d", swapLimit)); err != nil {
			return err
		}
	}

	if r.MemorySwappiness >= 0 && r.MemorySwappiness <= 100 {
		if err := c.setLimit(memorySwappiness, fmt.Sprintf("%d", r.MemorySwappiness)); err != nil {
			return err
		}
	}

	if r.OomKillDisable {
		if err := c.setLimit(memoryOomControl, "1"); err != nil {
			return err
		}
	}

	return nil
}

func setBlkioLimits(c *Cgroup, r *Resources) error {
	if r.BlkioWeight > 0 {
		if err := c.setLimit(blkioWeight, fmt.Sprintf("%d", r.BlkioWeight)); err != nil {
			return err
		}
	}

	return nil
}

func setPidsLimits(c *Cgroup, r *Resources) error {
	if r.PidsMax > 0 {
		if err := c.setLimit(pidsMax, fmt.Sprintf("%d", r.PidsMax)); err != nil {
			return err
		}
	}

	return nil
}

func setNetClsLimits(c *Cgroup, r *Resources) error {
	if r.NetClsClassid > 0 {
		if err := c.setLimit(netClsClassid, fmt.Sprintf("%d", r.NetClsClassid)); err != nil {
			return err
		}
	}

	return nil
}

func setFreezerState(c *Cgroup, r *Resources) error {
	if r.FreezerState == "" {
		return nil
	}

	if !util.Contains(freezerStates, r.FreezerState) {
		return fmt.Errorf("freezer state must be one of %v, but got %s",
			freezerStates, r.FreezerState)
	}

	return c.setLimit(freezerState, r.FreezerState)
}
