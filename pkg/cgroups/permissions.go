package cgroups

import (
	"fmt"
	log "github.com/sirupsen/logrus"
	"os/exec"
	"strings"
)

// Chown hands the directories of a cgroup over to another user, so an
// unprivileged process can manage its own groups. The owner may be
// given as "user" or "user:group". It runs chown through sudo, which
// the calling user must be allowed to use without a password.
func (m *Manager) Chown(cgPath, owner string, lookup ...string) error {
	supported, err := m.SupportedSubsystems(cgPath, false, lookup...)
	if err != nil {
		return err
	}

	failed := make(map[string]string)
	for _, subsystem := range sortedNames(supported) {
		subsystemPath := m.SubsystemPath(subsystem, cgPath)
		log.Debugf("chowning %s to %s", subsystemPath, owner)
		cmd := exec.Command("sudo", "-n", "chown", "-R", owner, subsystemPath)
		if output, err := cmd.CombinedOutput(); err != nil {
			failed[subsystem] = fmt.Sprintf("%v: %s",
				err, strings.TrimSpace(string(output)))
		}
	}

	if len(failed) > 0 {
		return &AccessViolation{Op: "change owner", Failed: failed}
	}

	return nil
}
