//go:build windows

package pathmodel

import (
	"golang.org/x/sys/windows"
)

// IsReparsePoint opens p without following any reparse tag and reports
// whether its attributes mark it as a symbolic link, mount point, or
// junction. A failure to open the path is treated as "not a reparse
// point" — the follow-link filter then handles it as a normal entry.
func IsReparsePoint(absolutePath string) bool {
	u16, err := windows.UTF16PtrFromString(absolutePath)
	if err != nil {
		return false
	}

	attrs, err := windows.GetFileAttributes(u16)
	if err != nil || attrs == windows.INVALID_FILE_ATTRIBUTES {
		return false
	}
	if attrs&windows.FILE_ATTRIBUTE_REPARSE_POINT == 0 {
		return false
	}

	handle, err := windows.CreateFile(
		u16,
		0,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_FLAG_BACKUP_SEMANTICS|windows.FILE_FLAG_OPEN_REPARSE_POINT,
		0,
	)
	if err != nil {
		return false
	}
	defer windows.CloseHandle(handle)

	var buf [windows.MAXIMUM_REPARSE_DATA_BUFFER_SIZE]byte
	var bytesReturned uint32
	err = windows.DeviceIoControl(handle, windows.FSCTL_GET_REPARSE_POINT, nil, 0, &buf[0], uint32(len(buf)), &bytesReturned, nil)
	if err != nil {
		return false
	}
	if bytesReturned < 4 {
		return false
	}

	tag := uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
	switch tag {
	case windows.IO_REPARSE_TAG_SYMLINK, windows.IO_REPARSE_TAG_MOUNT_POINT:
		return true
	default:
		return false
	}
}
