// Package logging 配置全局 zerolog logger。
//
// 日志一律写到 stderr（或调用方给的 writer）；stdout 留给面向用户的交互输出。
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// ParseLevel 把 debug/info/warn/error 转为 zerolog 级别。
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("未知日志级别 %q", s)
	}
}

// Setup 替换全局 logger 并设置全局级别。
// format 为空时由 tty 决定：终端用 console，否则用 JSON 行。
func Setup(w io.Writer, level, format string, tty bool) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "":
		if tty {
			w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
		}
	case FormatConsole:
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: !tty}
	case FormatJSON:
	default:
		return fmt.Errorf("未知日志格式 %q", format)
	}

	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	return nil
}
