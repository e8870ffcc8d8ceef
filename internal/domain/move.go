package domain

// MoveState 是单个文件移动状态机的状态。
//
// 迁移：Attempting -> {Succeeded, FailedPrompting} -> {Attempting, Abandoned}
type MoveState int

const (
	MoveAttempting MoveState = iota
	MoveSucceeded
	MoveFailedPrompting
	MoveAbandoned
)

func (s MoveState) String() string {
	switch s {
	case MoveAttempting:
		return "attempting"
	case MoveSucceeded:
		return "succeeded"
	case MoveFailedPrompting:
		return "failed_prompting"
	case MoveAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Terminal 表示该状态是否为终态。
func (s MoveState) Terminal() bool { return s == MoveSucceeded || s == MoveAbandoned }

// MoveOutcome 记录一次“移动到目标目录”的最终结果。
type MoveOutcome struct {
	Src string
	Dst string // 成功时为最终路径；放弃时为最后一次尝试的目标
	// Renamed 表示目标文件名来自拍摄时间而不是原文件名。
	Renamed  bool
	State    MoveState
	Attempts int
	Err      error // 最后一次失败的原因；成功时为 nil
}

func (o MoveOutcome) Succeeded() bool { return o.State == MoveSucceeded }
