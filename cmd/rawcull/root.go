package main

import (
	"bufio"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/rawcull/internal/config"
	"github.com/John-Robertt/rawcull/internal/logging"
)

// cliIO 收拢命令的输入输出：stdout 给交互界面，stderr 给日志与进度。
type cliIO struct {
	in  *bufio.Reader
	out io.Writer
	err io.Writer
}

type configFlags struct {
	root       string
	configPath string
	raw        string
	jpeg       string
	keepRaw    string
	keepJPEG   string
	deleteDir  string
	maxEdge    int
	report     bool
	logLevel   string
}

type commandContext struct {
	io    *cliIO
	flags configFlags
}

func newRootCommand(cio *cliIO) *cobra.Command {
	ctx := &commandContext{io: cio}

	rootCmd := &cobra.Command{
		Use:           "rawcull",
		Short:         "raw + JPEG 照片筛选工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&ctx.flags.root, "root", "", "整理根目录（默认当前目录）；相对路径以它为基准")
	pf.StringVarP(&ctx.flags.configPath, "config", "c", "", "配置文件路径（默认 <root>/"+config.FileName+"）")
	pf.StringVar(&ctx.flags.raw, "raw", "", "raw 输入目录")
	pf.StringVar(&ctx.flags.jpeg, "jpeg", "", "JPEG 输入目录")
	pf.StringVar(&ctx.flags.keepRaw, "keep-raw", "", "保留 raw 的目录")
	pf.StringVar(&ctx.flags.keepJPEG, "keep-jpeg", "", "保留 JPEG 的目录")
	pf.StringVar(&ctx.flags.deleteDir, "delete", "", "删除目录（覆盖按类型拆分的删除目录）")
	pf.IntVar(&ctx.flags.maxEdge, "preview-max-edge", config.DefaultPreviewMaxEdge, "预览长边上限，0 表示不缩放")
	pf.BoolVar(&ctx.flags.report, "report", true, "会话结束时写 JSON 报告")
	pf.StringVar(&ctx.flags.logLevel, "log-level", config.DefaultLogLevel, "日志级别：debug|info|warn|error")

	rootCmd.AddCommand(newSessionCommand(ctx))
	rootCmd.AddCommand(newScanCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	return rootCmd
}

// load 读取并合并配置，然后按配置初始化日志。
func (c *commandContext) load(cmd *cobra.Command) (config.EffectiveConfig, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return config.EffectiveConfig{}, err
	}

	changed := cmd.Flags().Changed
	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		Root:           c.flags.root,
		ConfigPath:     c.flags.configPath,
		RawFolder:      c.flags.raw,
		RawFolderSet:   changed("raw"),
		JPEGFolder:     c.flags.jpeg,
		JPEGFolderSet:  changed("jpeg"),
		KeepRaw:        c.flags.keepRaw,
		KeepRawSet:     changed("keep-raw"),
		KeepJPEG:       c.flags.keepJPEG,
		KeepJPEGSet:    changed("keep-jpeg"),
		DeleteFolder:   c.flags.deleteDir,
		DeleteSet:      changed("delete"),
		PreviewMaxEdge: c.flags.maxEdge,
		PreviewSet:     changed("preview-max-edge"),
		Report:         c.flags.report,
		ReportSet:      changed("report"),
		LogLevel:       c.flags.logLevel,
		LogLevelSet:    changed("log-level"),
	})
	if err != nil {
		return config.EffectiveConfig{}, err
	}

	if err := logging.Setup(c.io.err, eff.LogLevel, eff.LogFormat, isTerminal(c.io.err)); err != nil {
		return config.EffectiveConfig{}, err
	}
	return eff, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
