package scan

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/John-Robertt/rawcull/internal/domain"
)

// ExtSet 是小写、带前导 '.' 的扩展名集合。
type ExtSet map[string]struct{}

// NewExtSet 规范化扩展名列表："NEF"、".nef"、" .Nef " 都视为 ".nef"。空项忽略。
func NewExtSet(exts []string) ExtSet {
	set := make(ExtSet, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = struct{}{}
	}
	return set
}

// Match 判断文件名的扩展名是否属于集合（大小写不敏感）。
func (s ExtSet) Match(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	_, ok := s[ext]
	return ok
}

// Sorted 返回排序后的扩展名列表（用于日志与展示）。
func (s ExtSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// ScanFolder 列出 dir 下（不递归）扩展名属于 exts 的普通文件。
//
// 规则：
// - 以 '.' 开头的文件视为隐藏文件，直接忽略（包括 macOS 的 ._ 资源文件与本工具的临时文件）
// - 子目录、符号链接以外的非普通文件都忽略
// - 输出按文件名字典序稳定排序
//
// 注意：扫描阶段只做 stat，不读文件内容。
func ScanFolder(fs afero.Fs, dir string, exts ExtSet) ([]domain.ImageFile, error) {
	dir = filepath.Clean(dir)
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("读取目录 %q 失败：%w", dir, err)
	}

	files := make([]domain.ImageFile, 0, len(entries))
	for _, fi := range entries {
		name := fi.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if !fi.Mode().IsRegular() {
			continue
		}
		if !exts.Match(name) {
			continue
		}
		files = append(files, domain.NewImageFile(filepath.Join(dir, name), fi.Size()))
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// ScanPairFolders 扫描 raw 与 JPEG 两个目录并合并结果。
//
// 两个目录可以是同一个目录：同一路径只会出现一次。
func ScanPairFolders(fs afero.Fs, rawDir string, rawExts ExtSet, jpegDir string, jpegExts ExtSet) ([]domain.ImageFile, error) {
	raws, err := ScanFolder(fs, rawDir, rawExts)
	if err != nil {
		return nil, err
	}
	jpegs, err := ScanFolder(fs, jpegDir, jpegExts)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(raws)+len(jpegs))
	out := make([]domain.ImageFile, 0, len(raws)+len(jpegs))
	for _, group := range [][]domain.ImageFile{raws, jpegs} {
		for _, f := range group {
			if _, ok := seen[f.Path]; ok {
				continue
			}
			seen[f.Path] = struct{}{}
			out = append(out, f)
		}
	}
	return out, nil
}
