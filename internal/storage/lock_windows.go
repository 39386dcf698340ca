//go:build windows

package storage

import "golang.org/x/sys/windows"

// LockFileEx parameters: lock the first byte, which covers the whole file
// for cooperating processes.
const (
	lockReserved  = 0
	lockBytesLow  = 1
	lockBytesHigh = 0
)

func lockExclusive(fd uintptr) error {
	return windows.LockFileEx(
		windows.Handle(fd),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		lockReserved,
		lockBytesLow,
		lockBytesHigh,
		&windows.Overlapped{},
	)
}

func unlock(fd uintptr) error {
	return windows.UnlockFileEx(
		windows.Handle(fd),
		lockReserved,
		lockBytesLow,
		lockBytesHigh,
		&windows.Overlapped{},
	)
}
