package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/rawcull/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "配置相关工具",
	}
	configCmd.AddCommand(newConfigSampleCommand(ctx))
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigSampleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "输出示例配置（TOML）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.io.out.Write(config.SampleConfig())
			return err
		},
	}
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "校验配置并输出生效值",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eff, err := ctx.load(cmd)
			if err != nil {
				return err
			}

			source := eff.ConfigFile
			if source == "" {
				source = "（未读取配置文件，使用默认值）"
			}
			rows := [][]string{
				{"config", source},
				{"raw_folder", eff.RawFolder},
				{"jpeg_folder", eff.JPEGFolder},
				{"keep_raw_folder", eff.KeepRawFolder},
				{"keep_jpeg_folder", eff.KeepJPEGFolder},
				{"delete_raw_folder", eff.DeleteRawFolder},
				{"delete_jpeg_folder", eff.DeleteJPEGFolder},
				{"raw_extensions", strings.Join(eff.RawExtensions, " ")},
				{"jpeg_extensions", strings.Join(eff.JPEGExtensions, " ")},
				{"preview_max_edge", strconv.Itoa(eff.PreviewMaxEdge)},
				{"report", strconv.FormatBool(eff.Report)},
				{"logging.level", eff.LogLevel},
			}
			fmt.Fprintln(ctx.io.out, renderTable([]string{"键", "值"}, rows, nil))
			fmt.Fprintln(ctx.io.out, "配置有效")
			return nil
		},
	}
}
