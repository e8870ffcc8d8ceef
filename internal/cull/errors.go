package cull

import (
	"errors"
	"fmt"
)

// ErrBuildAborted 表示用户在构建阶段选择了中止。
var ErrBuildAborted = errors.New("构建已被用户中止")

// PreconditionError 表示调用方违反了前置条件（例如在只有 JPEG 的配对上调用 KeepRaw）。
// 这是编程错误：以 panic 抛出，不应被上层吞掉。
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("cull.%s：前置条件不满足：%s", e.Op, e.Reason)
}

func precondition(op, reason string) {
	panic(&PreconditionError{Op: op, Reason: reason})
}
