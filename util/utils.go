package util

import (
	"github.com/gosuri/uitable"
	"io"
	"os"
	"os/user"
	"sort"
	"strconv"
)

func FileOrDirExists(fileOrDir string) (bool, error) {
	_, err := os.Stat(fileOrDir)
	if err == nil {
		return true, nil
	} else if os.IsNotExist(err) {
		return false, nil
	} else {
		return false, err
	}
}

func Contains(list []string, item string) bool {
	for _, element := range list {
		if element == item {
			return true
		}
	}
	return false
}

// CurrentUser returns the name of the user running this process.
func CurrentUser() (string, error) {
	current, err := user.Current()
	if err != nil {
		return "", err
	}
	return current.Username, nil
}

// SortedIDs sorts a set of process or task ids numerically; ids that
// are not numbers sort last, in lexical order.
func SortedIDs(ids map[string]bool) []string {
	all := make([]string, 0, len(ids))
	for id := range ids {
		all = append(all, id)
	}
	sort.Slice(all, func(i, j int) bool {
		a, errA := strconv.Atoi(all[i])
		b, errB := strconv.Atoi(all[j])
		if errA != nil || errB != nil {
			if (errA == nil) != (errB == nil) {
				return errA == nil
			}
			return all[i] < all[j]
		}
		return a < b
	})
	return all
}

// EncodeTable writes a rendered table followed by a newline.
func EncodeTable(out io.Writer, table *uitable.Table) error {
	raw := table.Bytes()
	raw = append(raw, []byte("\n")...)
	_, err := out.Write(raw)
	return err
}
