package domain

// PairPlan 是配对扫描的结果：同一 basename 的 raw 与 JPEG（任一可缺）。
//
// 不变量：RawPath 与 JPEGPath 至少一个非空。
type PairPlan struct {
	RawPath  string
	JPEGPath string
}

func (p PairPlan) HasRaw() bool  { return p.RawPath != "" }
func (p PairPlan) HasJPEG() bool { return p.JPEGPath != "" }
