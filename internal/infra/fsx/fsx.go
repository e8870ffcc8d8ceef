package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/afero"
)

// PathTypeConflictError 表示目标路径类型冲突（例如期望目录但实际是文件）。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// CrossDeviceError 表示跨盘（EXDEV）导致的 rename 失败。
// 遇到 EXDEV 必须失败并交给用户决定，不做 copy+delete。
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("跨盘移动失败（EXDEV）：%q -> %q；请确保源与目标在同一文件系统（本工具不会隐式 copy+delete）：%v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice 判断 err 是否为跨盘（EXDEV）错误。
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename 封装 fs.Rename，并把 EXDEV 显式标记为 CrossDeviceError。
func Rename(fs afero.Fs, src, dst string) error {
	if err := fs.Rename(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// Exists 报告 path 是否存在（任何类型）。无法判定时返回错误。
func Exists(fs afero.Fs, path string) (bool, error) {
	_, err := lstat(fs, path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// MoveNoOverwrite 把 src 移动到 dst，目标已存在时拒绝覆盖。
//
// 返回值：
// - 目标是目录：*PathTypeConflictError
// - 目标是文件：包装了 os.ErrExist 的 *os.PathError
//
// 注意：存在性检查与 rename 之间不是原子的；本工具只有单一操作者，可以接受。
func MoveNoOverwrite(fs afero.Fs, src, dst string) error {
	if fi, err := lstat(fs, dst); err == nil {
		if fi.IsDir() {
			return &PathTypeConflictError{Path: dst, Want: "file", Got: "dir"}
		}
		return &os.PathError{Op: "move", Path: dst, Err: os.ErrExist}
	} else if !os.IsNotExist(err) {
		return err
	}
	return Rename(fs, src, dst)
}

// EnsureDir 确保 dir 是目录：不存在则创建，存在但不是目录则返回 PathTypeConflictError。
func EnsureDir(fs afero.Fs, dir string) error {
	fi, err := fs.Stat(dir)
	if err == nil {
		if fi.IsDir() {
			return nil
		}
		return &PathTypeConflictError{Path: dir, Want: "dir", Got: "file"}
	}
	if !os.IsNotExist(err) {
		return err
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	// MkdirAll 成功后仍然复核一次：文件系统可能不支持目录语义（例如某些网络挂载）。
	fi, err = fs.Stat(dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return &PathTypeConflictError{Path: dir, Want: "dir", Got: fi.Mode().Type().String()}
	}
	return nil
}

// WriteFileAtomicReplace 在 dir 下原子写入 name（临时文件 + rename），目标已存在时覆盖。
//
// - 临时文件必须与目标文件在同目录，以保证 rename 的原子性
// - 对临时文件做 Sync；目录 Sync 采用 best-effort
func WriteFileAtomicReplace(fs afero.Fs, dir, name string, data []byte) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dst := filepath.Join(dir, name)

	// 创建同目录临时文件（前缀带 '.'，扫描时会被当作隐藏文件忽略）。
	tmp, err := afero.TempFile(fs, dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = fs.Remove(tmpName)
	}()

	if err := writeAll(tmp, data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := fs.Chmod(tmpName, 0o644); err != nil {
		return err
	}

	if err := Rename(fs, tmpName, dst); err != nil {
		return err
	}

	_ = syncDirBestEffort(fs, dir)
	return nil
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func lstat(fs afero.Fs, path string) (os.FileInfo, error) {
	if l, ok := fs.(afero.Lstater); ok {
		fi, _, err := l.LstatIfPossible(path)
		return fi, err
	}
	return fs.Stat(path)
}

func syncDirBestEffort(fs afero.Fs, dir string) error {
	// Windows 上目录 Sync 的语义与支持情况不稳定，这里直接跳过。
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := fs.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
