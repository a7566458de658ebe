package cgroups

import (
	"io/ioutil"
	"path"
	"strings"
)

const (
	cgroupFsType  = "cgroup"
	mountInfoFile = "/proc/self/mountinfo"
)

// DetectRoot finds the directory the cgroup subsystems are mounted
// under by scanning the mount table of the current process. It falls
// back to DefaultRoot if no cgroup mount is found.
func DetectRoot() string {
	contentsBytes, err := ioutil.ReadFile(mountInfoFile)
	if err != nil {
		return DefaultRoot
	}

	for _, mntInfo := range strings.Split(string(contentsBytes), "\n") {
		mntFields := strings.Split(mntInfo, " ")
		// the fields after the "-" separator are: fstype, source, options.
		// ref: https://www.kernel.org/doc/Documentation/filesystems/proc.txt
		for i := 6; i < len(mntFields)-1; i++ {
			if mntFields[i] != "-" {
				continue
			}
			if mntFields[i+1] == cgroupFsType {
				return path.Dir(mntFields[4])
			}
			break
		}
	}

	return DefaultRoot
}

// readValue returns the trimmed contents of a cgroup control file.
func readValue(file string) (string, error) {
	contentsBytes, err := ioutil.ReadFile(file)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(contentsBytes)), nil
}

// writeValue writes a single newline-terminated value to a cgroup
// control file.
func writeValue(file, value string) error {
	return ioutil.WriteFile(file, []byte(value+"\n"), 0644)
}
