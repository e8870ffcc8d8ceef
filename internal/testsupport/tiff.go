// Package testsupport 提供测试用的最小 TIFF/EXIF 夹具构造器。
//
// 只被 _test.go 引用；生成的字节足以让 goexif 与 x/image/tiff 走真实解析路径，
// 但不追求是一个“合法相机 raw”。
package testsupport

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
)

// TIFF 字段类型。
const (
	typeASCII     uint16 = 2
	typeShort     uint16 = 3
	typeLong      uint16 = 4
	typeRational  uint16 = 5
	typeSRational uint16 = 10
)

// RawFixture 描述要写入夹具的 EXIF 字段；零值字段不写。
type RawFixture struct {
	DateTimeOriginal string // "2006:01:02 15:04:05"
	ExposureTime     [2]uint32
	FNumber          [2]uint32
	ISO              uint16
	ExposureBias     [2]int32
	FocalLength      [2]uint32

	// Thumbnail 非空时写入 IFD1（JPEGInterchangeFormat）。
	Thumbnail []byte
}

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

// BuildRaw 构造一个 little-endian 的 TIFF 流：IFD0 -> ExifIFD（+ 可选 IFD1 缩略图）。
func BuildRaw(f RawFixture) []byte {
	le := binary.LittleEndian

	var exifEntries []entry
	if f.ExposureTime[1] != 0 {
		exifEntries = append(exifEntries, rational(0x829A, f.ExposureTime))
	}
	if f.FNumber[1] != 0 {
		exifEntries = append(exifEntries, rational(0x829D, f.FNumber))
	}
	if f.ISO != 0 {
		b := make([]byte, 2)
		le.PutUint16(b, f.ISO)
		exifEntries = append(exifEntries, entry{tag: 0x8827, typ: typeShort, count: 1, data: b})
	}
	if f.DateTimeOriginal != "" {
		s := append([]byte(f.DateTimeOriginal), 0)
		exifEntries = append(exifEntries, entry{tag: 0x9003, typ: typeASCII, count: uint32(len(s)), data: s})
	}
	if f.ExposureBias[1] != 0 {
		b := make([]byte, 8)
		le.PutUint32(b[0:], uint32(f.ExposureBias[0]))
		le.PutUint32(b[4:], uint32(f.ExposureBias[1]))
		exifEntries = append(exifEntries, entry{tag: 0x9204, typ: typeSRational, count: 1, data: b})
	}
	if f.FocalLength[1] != 0 {
		exifEntries = append(exifEntries, rational(0x920A, f.FocalLength))
	}

	hasThumb := len(f.Thumbnail) > 0
	ifd0Off := uint32(8)
	exifOff := ifd0Off + ifdSize(1)
	ifd1Off := exifOff + ifdSize(len(exifEntries))
	dataOff := ifd1Off
	if hasThumb {
		dataOff += ifdSize(2)
	}

	// 先为 >4 字节的值分配数据区偏移，缩略图放在最后。
	offsets := make([]uint32, len(exifEntries))
	cur := dataOff
	for i, e := range exifEntries {
		if len(e.data) > 4 {
			offsets[i] = cur
			cur += padded(len(e.data))
		}
	}
	thumbOff := cur

	var buf bytes.Buffer
	buf.WriteString("II")
	writeU16(&buf, 42)
	writeU32(&buf, ifd0Off)

	ptr := make([]byte, 4)
	le.PutUint32(ptr, exifOff)
	next := uint32(0)
	if hasThumb {
		next = ifd1Off
	}
	writeIFD(&buf, []entry{{tag: 0x8769, typ: typeLong, count: 1, data: ptr}}, nil, next)
	writeIFD(&buf, exifEntries, offsets, 0)

	if hasThumb {
		off := make([]byte, 4)
		le.PutUint32(off, thumbOff)
		n := make([]byte, 4)
		le.PutUint32(n, uint32(len(f.Thumbnail)))
		writeIFD(&buf, []entry{
			{tag: 0x0201, typ: typeLong, count: 1, data: off},
			{tag: 0x0202, typ: typeLong, count: 1, data: n},
		}, nil, 0)
	}

	for _, e := range exifEntries {
		if len(e.data) > 4 {
			buf.Write(e.data)
			if len(e.data)%2 == 1 {
				buf.WriteByte(0)
			}
		}
	}
	buf.Write(f.Thumbnail)
	return buf.Bytes()
}

// JPEG 编码一张纯色图片，用作 JPEG 文件或内嵌缩略图。
func JPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: 80}); err != nil {
		panic(err)
	}
	return out.Bytes()
}

func rational(tag uint16, v [2]uint32) entry {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint32(b[0:], v[0])
	binary.LittleEndian.PutUint32(b[4:], v[1])
	return entry{tag: tag, typ: typeRational, count: 1, data: b}
}

func ifdSize(n int) uint32 { return uint32(2 + 12*n + 4) }

func padded(n int) uint32 { return uint32(n + n%2) }

func writeIFD(buf *bytes.Buffer, entries []entry, offsets []uint32, next uint32) {
	writeU16(buf, uint16(len(entries)))
	for i, e := range entries {
		writeU16(buf, e.tag)
		writeU16(buf, e.typ)
		writeU32(buf, e.count)
		if len(e.data) > 4 {
			writeU32(buf, offsets[i])
			continue
		}
		v := make([]byte, 4)
		copy(v, e.data)
		buf.Write(v)
	}
	writeU32(buf, next)
}

func writeU16(buf *bytes.Buffer, v uint16) {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	buf.Write(b)
}

func writeU32(buf *bytes.Buffer, v uint32) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	buf.Write(b)
}
