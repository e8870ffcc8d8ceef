package fsx

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// renameFailFs 让 Rename 稳定失败，用于模拟权限/跨盘等错误。
type renameFailFs struct {
	afero.Fs
	err error
}

func (f renameFailFs) Rename(oldname, newname string) error { return f.err }

func TestWriteFileAtomicReplace_SuccessAndNoTempLeft(t *testing.T) {
	fs := afero.NewOsFs()
	dir := t.TempDir()

	require.NoError(t, WriteFileAtomicReplace(fs, dir, "a.json", []byte("hello")))
	require.NoError(t, WriteFileAtomicReplace(fs, dir, "a.json", []byte("world")))

	b, err := os.ReadFile(filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.Equal(t, "world", string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".a.json.tmp-"), "临时文件未清理：%q", e.Name())
	}
}

func TestWriteFileAtomicReplace_RenameFail_CleanupTemp(t *testing.T) {
	base := afero.NewMemMapFs()
	fs := renameFailFs{Fs: base, err: os.ErrPermission}

	err := WriteFileAtomicReplace(fs, "/out", "a.json", []byte("hello"))
	require.Error(t, err)

	entries, err := afero.ReadDir(base, "/out")
	require.NoError(t, err)
	assert.Empty(t, entries, "临时文件与最终文件都不应留下")
}

func TestMoveNoOverwrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/in/a.jpg", []byte("a"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/in/b.jpg", []byte("b"), 0o644))
	require.NoError(t, fs.MkdirAll("/out/dir.jpg", 0o755))

	require.NoError(t, MoveNoOverwrite(fs, "/in/a.jpg", "/out/a.jpg"))
	ok, err := Exists(fs, "/in/a.jpg")
	require.NoError(t, err)
	assert.False(t, ok)

	// 目标已存在：拒绝覆盖，源文件保持不动。
	require.NoError(t, afero.WriteFile(fs, "/out/b.jpg", []byte("old"), 0o644))
	err = MoveNoOverwrite(fs, "/in/b.jpg", "/out/b.jpg")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrExist))
	b, err := afero.ReadFile(fs, "/out/b.jpg")
	require.NoError(t, err)
	assert.Equal(t, "old", string(b))

	// 目标是目录：类型冲突。
	err = MoveNoOverwrite(fs, "/in/b.jpg", "/out/dir.jpg")
	assert.True(t, IsPathTypeConflict(err), "实际：%T %v", err, err)
}

func TestEnsureDir(t *testing.T) {
	fs := afero.NewMemMapFs()

	require.NoError(t, EnsureDir(fs, "/a/b/c"))
	require.NoError(t, EnsureDir(fs, "/a/b/c"), "重复调用应当幂等")

	require.NoError(t, afero.WriteFile(fs, "/file", []byte("x"), 0o644))
	err := EnsureDir(fs, "/file")
	assert.True(t, IsPathTypeConflict(err), "实际：%T %v", err, err)
}
