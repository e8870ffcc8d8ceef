package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// FileName 是根目录下自动发现的配置文件名。
const FileName = "rawcull.toml"

const (
	// ErrCodeNotFound 表示 --config 指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	DefaultRawFolder      = "NEF"
	DefaultJPEGFolder     = "JPG"
	DefaultKeepRawFolder  = "SEL_NEF"
	DefaultKeepJPEGFolder = "SEL_JPG"
	DefaultDeleteFolder   = "DEL"
	DefaultPreviewMaxEdge = 2048
	DefaultLogLevel       = "info"
)

var (
	DefaultRawExtensions  = []string{".nef", ".cr2", ".cr3", ".arw", ".dng", ".raf", ".orf", ".rw2", ".pef", ".srw"}
	DefaultJPEGExtensions = []string{".jpg", ".jpeg"}
)

//go:embed sample_config.toml
var sampleConfig []byte

// SampleConfig 返回内置的示例配置（TOML）。
func SampleConfig() []byte { return append([]byte(nil), sampleConfig...) }

// CLIArgs 是 CLI 可覆盖的配置项，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --report=false 必须能覆盖 report = true。
type CLIArgs struct {
	Root       string
	ConfigPath string

	RawFolder      string
	RawFolderSet   bool
	JPEGFolder     string
	JPEGFolderSet  bool
	KeepRaw        string
	KeepRawSet     bool
	KeepJPEG       string
	KeepJPEGSet    bool
	DeleteFolder   string
	DeleteSet      bool
	PreviewMaxEdge int
	PreviewSet     bool

	Report    bool
	ReportSet bool

	LogLevel    string
	LogLevelSet bool
}

// FileConfig 对应 rawcull.toml 的解析结构。指针字段用于区分“未填写”和零值。
type FileConfig struct {
	RawFolder        string        `toml:"raw_folder"`
	JPEGFolder       string        `toml:"jpeg_folder"`
	KeepRawFolder    string        `toml:"keep_raw_folder"`
	KeepJPEGFolder   string        `toml:"keep_jpeg_folder"`
	DeleteFolder     string        `toml:"delete_folder"`
	DeleteRawFolder  string        `toml:"delete_raw_folder"`
	DeleteJPEGFolder string        `toml:"delete_jpeg_folder"`
	RawExtensions    []string      `toml:"raw_extensions"`
	JPEGExtensions   []string      `toml:"jpeg_extensions"`
	PreviewMaxEdge   *int          `toml:"preview_max_edge"`
	Report           *bool         `toml:"report"`
	Logging          LoggingConfig `toml:"logging"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// EffectiveConfig 是合并并规范化后的最终配置：目录都是绝对路径，实现层直接消费。
type EffectiveConfig struct {
	BaseDir string
	// ConfigFile 是实际读取的配置文件；没有读取任何文件时为空。
	ConfigFile string

	RawFolder        string `key:"raw_folder" validate:"required"`
	JPEGFolder       string `key:"jpeg_folder" validate:"required"`
	KeepRawFolder    string `key:"keep_raw_folder" validate:"required"`
	KeepJPEGFolder   string `key:"keep_jpeg_folder" validate:"required"`
	DeleteFolder     string `key:"delete_folder" validate:"required"`
	DeleteRawFolder  string `key:"delete_raw_folder" validate:"required"`
	DeleteJPEGFolder string `key:"delete_jpeg_folder" validate:"required"`

	RawExtensions  []string `key:"raw_extensions" validate:"required,min=1,dive,required"`
	JPEGExtensions []string `key:"jpeg_extensions" validate:"required,min=1,dive,required"`

	PreviewMaxEdge int  `key:"preview_max_edge" validate:"min=0,max=16384"`
	Report         bool `key:"report"`

	LogLevel  string `key:"logging.level" validate:"oneof=debug info warn error"`
	LogFormat string `key:"logging.format" validate:"omitempty,oneof=console json"`
}

// OutputFolders 返回所有输出目录（去重，保持顺序）。
func (c EffectiveConfig) OutputFolders() []string {
	all := []string{c.KeepRawFolder, c.KeepJPEGFolder, c.DeleteFolder, c.DeleteRawFolder, c.DeleteJPEGFolder}
	seen := make(map[string]struct{}, len(all))
	out := make([]string, 0, len(all))
	for _, d := range all {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则：
// 1) --config 指定文件：必须存在
// 2) 否则读取 <base>/rawcull.toml（可选），base 为 --root 或 cwd
//
// 覆盖优先级：CLI（显式指定）> 配置文件 > 内置默认。
// 相对路径一律以 base 为基准（--config 指定的文件除外，它以 cwd 为基准）。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	base := cwdAbs
	if strings.TrimSpace(cli.Root) != "" {
		base = absCleanFrom(cwdAbs, cli.Root)
	}

	var (
		cfgPath string
		fc      FileConfig
		exists  bool
	)
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
	} else {
		cfgPath = filepath.Join(base, FileName)
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	}

	eff := merge(base, cli, fc)
	if exists {
		eff.ConfigFile = cfgPath
	}

	errPath := cfgPath
	if !exists {
		errPath = base
	}
	if err := validate(eff); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: errPath, Err: err}
	}
	return eff, nil
}

func merge(base string, cli CLIArgs, fc FileConfig) EffectiveConfig {
	folder := func(cliVal string, cliSet bool, fileVal, def string) string {
		v := def
		if cliSet {
			v = cliVal
		} else if strings.TrimSpace(fileVal) != "" {
			v = fileVal
		}
		return absCleanFrom(base, v)
	}

	eff := EffectiveConfig{
		BaseDir:        base,
		RawFolder:      folder(cli.RawFolder, cli.RawFolderSet, fc.RawFolder, DefaultRawFolder),
		JPEGFolder:     folder(cli.JPEGFolder, cli.JPEGFolderSet, fc.JPEGFolder, DefaultJPEGFolder),
		KeepRawFolder:  folder(cli.KeepRaw, cli.KeepRawSet, fc.KeepRawFolder, DefaultKeepRawFolder),
		KeepJPEGFolder: folder(cli.KeepJPEG, cli.KeepJPEGSet, fc.KeepJPEGFolder, DefaultKeepJPEGFolder),
		DeleteFolder:   folder(cli.DeleteFolder, cli.DeleteSet, fc.DeleteFolder, DefaultDeleteFolder),
		RawExtensions:  normalizeExts(fc.RawExtensions, DefaultRawExtensions),
		JPEGExtensions: normalizeExts(fc.JPEGExtensions, DefaultJPEGExtensions),
		PreviewMaxEdge: DefaultPreviewMaxEdge,
		Report:         true,
		LogLevel:       DefaultLogLevel,
		LogFormat:      strings.ToLower(strings.TrimSpace(fc.Logging.Format)),
	}

	// 按类型拆分的删除目录：未配置时跟随（已合并的）delete_folder。
	// CLI --delete 显式指定时同样覆盖拆分目录，保证“全部删到这里”的直觉。
	eff.DeleteRawFolder = eff.DeleteFolder
	eff.DeleteJPEGFolder = eff.DeleteFolder
	if !cli.DeleteSet {
		if strings.TrimSpace(fc.DeleteRawFolder) != "" {
			eff.DeleteRawFolder = absCleanFrom(base, fc.DeleteRawFolder)
		}
		if strings.TrimSpace(fc.DeleteJPEGFolder) != "" {
			eff.DeleteJPEGFolder = absCleanFrom(base, fc.DeleteJPEGFolder)
		}
	}

	if cli.PreviewSet {
		eff.PreviewMaxEdge = cli.PreviewMaxEdge
	} else if fc.PreviewMaxEdge != nil {
		eff.PreviewMaxEdge = *fc.PreviewMaxEdge
	}

	if cli.ReportSet {
		eff.Report = cli.Report
	} else if fc.Report != nil {
		eff.Report = *fc.Report
	}

	if cli.LogLevelSet {
		eff.LogLevel = strings.ToLower(strings.TrimSpace(cli.LogLevel))
	} else if s := strings.TrimSpace(fc.Logging.Level); s != "" {
		eff.LogLevel = strings.ToLower(s)
	}
	return eff
}

var validate = newValidator()

func newValidator() func(EffectiveConfig) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if k := fld.Tag.Get("key"); k != "" {
			return k
		}
		return fld.Name
	})

	return func(c EffectiveConfig) error {
		if err := v.Struct(c); err != nil {
			var ves validator.ValidationErrors
			if errors.As(err, &ves) {
				msgs := make([]string, 0, len(ves))
				for _, fe := range ves {
					msgs = append(msgs, formatValidationError(fe))
				}
				return errors.New(strings.Join(msgs, "; "))
			}
			return err
		}
		return validateLayout(c)
	}
}

func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s 不能为空", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s 只能是 %s 之一，实际是 %q", fe.Field(), fe.Param(), fe.Value())
	case "min", "max":
		return fmt.Sprintf("%s 超出范围（%s=%s），实际是 %v", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s 未通过 %s 校验", fe.Field(), fe.Tag())
	}
}

// validateLayout 检查标签表达不了的跨字段约束。
func validateLayout(c EffectiveConfig) error {
	for _, r := range c.RawExtensions {
		for _, j := range c.JPEGExtensions {
			if r == j {
				return fmt.Errorf("扩展名 %q 同时出现在 raw_extensions 与 jpeg_extensions 中", r)
			}
		}
	}
	for _, out := range c.OutputFolders() {
		if out == c.RawFolder || out == c.JPEGFolder {
			return fmt.Errorf("输出目录 %q 不能与输入目录相同", out)
		}
	}
	return nil
}

// normalizeExts 统一为小写、带前导 '.'；为空时使用默认值。
func normalizeExts(in, def []string) []string {
	src := in
	if len(src) == 0 {
		src = def
	}
	out := make([]string, 0, len(src))
	for _, e := range src {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	return out
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 TOML 配置文件；未知键视为错误（多半是拼写错误）。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}

// ParseSample 解析内置示例配置（用于保证示例与默认值一致）。
func ParseSample() (FileConfig, error) {
	var fc FileConfig
	dec := toml.NewDecoder(bytes.NewReader(sampleConfig))
	dec.DisallowUnknownFields()
	err := dec.Decode(&fc)
	return fc, err
}
