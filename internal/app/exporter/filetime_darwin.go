//go:build darwin

package exporter

import (
	"os/exec"
	"time"
)

// setFileCreationTime stamps a note file with its creation date using
// SetFile from the Xcode command line tools. Silently a no-op when the
// tool is not installed; only the modification time matters to most
// vault setups.
func setFileCreationTime(path string, created time.Time) error {
	if created.IsZero() {
		return nil
	}
	setFilePath, err := exec.LookPath("SetFile")
	if err != nil {
		return nil
	}
	ts := created.Local().Format("01/02/2006 15:04:05")
	return exec.Command(setFilePath, "-d", ts, path).Run()
}
