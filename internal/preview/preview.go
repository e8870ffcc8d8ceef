package preview

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/spf13/afero"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// 预览来源。
const (
	SourceJPEG          = "jpeg"
	SourceExifThumbnail = "exif-thumbnail"
	SourceTIFFBitmap    = "tiff-bitmap"
)

// UnsupportedThumbnailError 表示 raw 文件里没有可识别的内嵌缩略图。
// 这是可恢复错误：由用户决定跳过该配对还是中止构建。
type UnsupportedThumbnailError struct {
	Path string
	// Tried 记录依次尝试过的策略及失败原因（用于提示与日志）。
	Tried []error
}

func (e *UnsupportedThumbnailError) Error() string {
	return fmt.Sprintf("无法识别 %q 的内嵌缩略图格式：%v", e.Path, errors.Join(e.Tried...))
}

func IsUnsupportedThumbnail(err error) bool {
	var e *UnsupportedThumbnailError
	return errors.As(err, &e)
}

// Preview 是一张已解码的预览图。归属于某个配对记录，配对被处置时调用 Release。
type Preview struct {
	img    image.Image
	width  int // 解码后、缩放前的尺寸
	height int
	model  string
	source string
}

// New 用已解码的图片构造 Preview；maxEdge > 0 时按长边等比缩小（不放大）。
func New(img image.Image, source string, maxEdge int) *Preview {
	b := img.Bounds()
	p := &Preview{
		width:  b.Dx(),
		height: b.Dy(),
		model:  colorModelName(img),
		source: source,
	}
	p.img = downscale(img, maxEdge)
	return p
}

// Image 返回用于显示的图片；Release 之后为 nil。
func (p *Preview) Image() image.Image { return p.img }

func (p *Preview) Width() int  { return p.width }
func (p *Preview) Height() int { return p.height }

// ColorModel 是类似 "RGB"、"YCbCr"、"Gray" 的简短描述。
func (p *Preview) ColorModel() string { return p.model }

func (p *Preview) Source() string { return p.source }

// Release 释放像素数据；可重复调用。尺寸信息保留，便于释放后仍能展示标签。
func (p *Preview) Release() {
	if p == nil {
		return
	}
	p.img = nil
}

func (p *Preview) Released() bool { return p == nil || p.img == nil }

// Decoder 负责把文件解码为 Preview。
type Decoder struct {
	Fs      afero.Fs
	MaxEdge int
}

func NewDecoder(fs afero.Fs, maxEdge int) Decoder {
	return Decoder{Fs: fs, MaxEdge: maxEdge}
}

// DecodeJPEG 直接加载 JPEG 文件。
func (d Decoder) DecodeJPEG(path string) (*Preview, error) {
	b, err := afero.ReadFile(d.Fs, path)
	if err != nil {
		return nil, err
	}
	img, err := jpeg.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("解码 JPEG %q 失败：%w", path, err)
	}
	return New(img, SourceJPEG, d.MaxEdge), nil
}

// DecodeRaw 从 raw 文件中取出内嵌缩略图。
//
// 策略（按顺序）：
// 1) EXIF IFD1 中的 JPEG 缩略图
// 2) TIFF IFD0 中的未压缩位图（TIFF 结构的 raw 常见）
// 都失败 => *UnsupportedThumbnailError
func (d Decoder) DecodeRaw(path string) (*Preview, error) {
	b, err := afero.ReadFile(d.Fs, path)
	if err != nil {
		return nil, err
	}

	tried := make([]error, 0, 2)

	thumb, err := exifThumbnail(bytes.NewReader(b))
	if err == nil {
		img, e := jpeg.Decode(bytes.NewReader(thumb))
		if e == nil {
			return New(img, SourceExifThumbnail, d.MaxEdge), nil
		}
		err = e
	}
	tried = append(tried, fmt.Errorf("exif 缩略图：%w", err))

	img, err := tiff.Decode(bytes.NewReader(b))
	if err == nil {
		return New(img, SourceTIFFBitmap, d.MaxEdge), nil
	}
	tried = append(tried, fmt.Errorf("tiff 位图：%w", err))

	return nil, &UnsupportedThumbnailError{Path: path, Tried: tried}
}

func exifThumbnail(r io.Reader) ([]byte, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return nil, err
	}
	thumb, err := x.JpegThumbnail()
	if err != nil {
		return nil, err
	}
	if len(thumb) == 0 {
		return nil, errors.New("缩略图为空")
	}
	return thumb, nil
}

func downscale(img image.Image, maxEdge int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxEdge <= 0 || (w <= maxEdge && h <= maxEdge) {
		return img
	}

	nw, nh := maxEdge, maxEdge
	if w >= h {
		nh = max(1, h*maxEdge/w)
	} else {
		nw = max(1, w*maxEdge/h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func colorModelName(img image.Image) string {
	switch img.(type) {
	case *image.YCbCr:
		return "YCbCr"
	case *image.Gray, *image.Gray16:
		return "Gray"
	case *image.CMYK:
		return "CMYK"
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		return "RGB"
	case *image.Paletted:
		return "P"
	default:
		return "?"
	}
}
