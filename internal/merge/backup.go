package merge

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ErrBackupFailed wraps every failure to take the pre-merge backup.
var ErrBackupFailed = errors.New("failed to back up the archive")

const backupPrefix = "all_enrollments_backup_"

// backupName is all_enrollments_backup_<YYYYMMDD_HHMMSS>.csv, later
// collisions get a _<n> suffix.
func backupName(at time.Time, n int) string {
	stamp := at.Format("20060102_150405")
	if n == 0 {
		return fmt.Sprintf("%s%s.csv", backupPrefix, stamp)
	}
	return fmt.Sprintf("%s%s_%d.csv", backupPrefix, stamp, n)
}

// createBackupFile creates a backup file that did not exist before.
func createBackupFile(dir string, at time.Time) (*os.File, error) {
	for n := 0; ; n++ {
		f, err := os.OpenFile(filepath.Join(dir, backupName(at, n)), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0666)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		return f, err
	}
}

// backup copies the archive byte for byte into dir and returns the path
// of the copy.
func backup(archivePath, dir string, at time.Time) (string, error) {
	src, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBackupFailed, err)
	}
	defer src.Close()

	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBackupFailed, err)
	}
	dst, err := createBackupFile(dir, at)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBackupFailed, err)
	}

	_, err = io.Copy(dst, src)
	if err == nil {
		err = dst.Sync()
	}
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("%w: %s: %w", ErrBackupFailed, dst.Name(), err)
	}
	return dst.Name(), nil
}
