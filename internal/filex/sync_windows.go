//go:build windows

package filex

import (
	"path/filepath"

	"golang.org/x/sys/windows"
)

// flush flushes the write cache of the volume that held path.
func flush(path string) error {
	vol := filepath.VolumeName(path)
	if vol == "" {
		return nil
	}
	name, err := windows.UTF16PtrFromString(vol + `\`)
	if err != nil {
		return err
	}
	h, err := windows.CreateFile(name,
		windows.GENERIC_WRITE,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS,
		0)
	if err != nil {
		return err
	}
	defer windows.CloseHandle(h)
	return windows.FlushFileBuffers(h)
}
