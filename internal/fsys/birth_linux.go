//go:build linux

package fsys

import (
	"os"
	"syscall"
	"time"
)

// birthTime falls back to the inode change time; Stat_t has no birth time
// on Linux.
func birthTime(fi os.FileInfo) time.Time {
	st, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return zeroTime
	}
	return time.Unix(st.Ctim.Unix())
}
