//go:build unix

package fsx

import (
	"errors"

	"golang.org/x/sys/unix"
)

// isEXDEV 识别跨设备 rename。
// afero.OsFs 返回 *os.LinkError，errors.Is 会沿 Unwrap 找到底层 Errno。
func isEXDEV(err error) bool {
	return err != nil && errors.Is(err, unix.EXDEV)
}
