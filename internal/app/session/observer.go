package session

import (
	"time"

	"github.com/John-Robertt/rawcull/internal/config"
	"github.com/John-Robertt/rawcull/internal/cull"
)

// Observer 用于把“会话进度/阶段/处置结果”从核心流程中解耦出来。
//
// 约束：
// - session 包只负责发事件，不做任何输出（stdout 留给交互界面）。
// - Observer 的实现必须并发安全。
type Observer interface {
	cull.Observer
	// OnStart 在会话开始时调用（尽早，保证用户立刻看到生效配置）。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在阶段结束时调用（prepare/scan/build）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
}
