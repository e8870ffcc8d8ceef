package meta

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/spf13/afero"

	"github.com/John-Robertt/rawcull/internal/domain"
)

// ErrNoExif 表示文件中没有可解析的 EXIF 段。调用方应当把它视为“元数据为空”，而不是失败。
var ErrNoExif = errors.New("meta: 未找到 EXIF")

// lensModel 在部分 goexif 版本中没有导出常量，这里直接用字段名。
const lensModel exif.FieldName = "LensModel"

// Reader 用 goexif 读取拍摄参数。
//
// 约束：任何字段缺失都返回空值；只有“文件打不开”与“没有 EXIF”会返回错误。
type Reader struct {
	Fs afero.Fs
}

func NewReader(fs afero.Fs) Reader { return Reader{Fs: fs} }

// Read 读取 path 的拍摄参数。返回错误时 CaptureMeta 也是可用的零值。
func (r Reader) Read(path string) (domain.CaptureMeta, error) {
	f, err := r.Fs.Open(path)
	if err != nil {
		return domain.CaptureMeta{}, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return domain.CaptureMeta{}, fmt.Errorf("%w：%q：%w", ErrNoExif, path, err)
	}
	return FromExif(x), nil
}

// FromExif 从已解码的 EXIF 中提取字段。
func FromExif(x *exif.Exif) domain.CaptureMeta {
	var m domain.CaptureMeta

	if num, den, ok := rat(x, exif.ExposureTime); ok {
		m.Shutter = FormatShutter(num, den)
	}
	if num, den, ok := rat(x, exif.FNumber); ok {
		m.Aperture = FormatAperture(num, den)
	}
	if tag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		if v, err := tag.Int(0); err == nil && v > 0 {
			m.ISO = "ISO" + strconv.Itoa(v)
		}
	}
	if num, den, ok := rat(x, exif.ExposureBiasValue); ok {
		m.ExposureComp = FormatExposureComp(num, den)
	}
	if num, den, ok := rat(x, exif.FocalLength); ok {
		m.FocalLength = FormatFocalLength(num, den)
	}
	if tag, err := x.Get(lensModel); err == nil {
		if s, err := tag.StringVal(); err == nil {
			m.Lens = strings.TrimSpace(strings.TrimRight(s, "\x00"))
		}
	}
	// DateTime 优先 DateTimeOriginal，缺失时退化到 IFD0 的 DateTime。
	if t, err := x.DateTime(); err == nil && !t.IsZero() {
		m.CaptureTime = &t
	}
	return m
}

func rat(x *exif.Exif, name exif.FieldName) (num, den int64, ok bool) {
	tag, err := x.Get(name)
	if err != nil {
		return 0, 0, false
	}
	num, den, err = tag.Rat2(0)
	if err != nil || den == 0 {
		return 0, 0, false
	}
	return num, den, true
}

// FormatShutter: 1/250 -> "1/250s"；2/1 -> "2s"；13/10 -> "1.3s"。
func FormatShutter(num, den int64) string {
	if num <= 0 || den <= 0 {
		return ""
	}
	if num >= den {
		return trimFloat(float64(num)/float64(den), 1) + "s"
	}
	return fmt.Sprintf("1/%ds", int64(math.Round(float64(den)/float64(num))))
}

// FormatAperture: 28/10 -> "f/2.8"；8/1 -> "f/8"。
func FormatAperture(num, den int64) string {
	if num <= 0 || den <= 0 {
		return ""
	}
	return "f/" + trimFloat(float64(num)/float64(den), 1)
}

// FormatExposureComp: 1/3 -> "+0.3EV"；-1/1 -> "-1EV"；0 -> "0EV"。
func FormatExposureComp(num, den int64) string {
	if den == 0 {
		return ""
	}
	v := float64(num) / float64(den)
	s := trimFloat(math.Abs(v), 1)
	switch {
	case s == "0":
		return "0EV"
	case v > 0:
		return "+" + s + "EV"
	default:
		return "-" + s + "EV"
	}
}

// FormatFocalLength: 50/1 -> "50mm"；43/10 -> "4.3mm"。
func FormatFocalLength(num, den int64) string {
	if num <= 0 || den <= 0 {
		return ""
	}
	return trimFloat(float64(num)/float64(den), 1) + "mm"
}

func trimFloat(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}
