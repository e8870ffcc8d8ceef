package preview

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"

	"github.com/John-Robertt/rawcull/internal/testsupport"
)

func TestDecodeJPEG(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/j/A.JPG", testsupport.JPEG(40, 30), 0o644))

	p, err := NewDecoder(fs, 0).DecodeJPEG("/j/A.JPG")
	require.NoError(t, err)
	assert.Equal(t, 40, p.Width())
	assert.Equal(t, 30, p.Height())
	assert.Equal(t, SourceJPEG, p.Source())
	assert.Equal(t, "YCbCr", p.ColorModel())
	assert.False(t, p.Released())

	p.Release()
	p.Release()
	assert.True(t, p.Released())
	assert.Nil(t, p.Image())
	assert.Equal(t, 40, p.Width(), "释放后仍保留尺寸")
}

func TestDecodeJPEG_Downscale(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/j/A.JPG", testsupport.JPEG(200, 100), 0o644))

	p, err := NewDecoder(fs, 50).DecodeJPEG("/j/A.JPG")
	require.NoError(t, err)
	assert.Equal(t, 200, p.Width(), "标签展示原始尺寸")
	b := p.Image().Bounds()
	assert.Equal(t, 50, b.Dx())
	assert.Equal(t, 25, b.Dy())
}

func TestDecodeRaw_ExifThumbnail(t *testing.T) {
	fs := afero.NewMemMapFs()
	raw := testsupport.BuildRaw(testsupport.RawFixture{
		DateTimeOriginal: "2025:03:04 12:00:00",
		Thumbnail:        testsupport.JPEG(16, 12),
	})
	require.NoError(t, afero.WriteFile(fs, "/n/A.NEF", raw, 0o644))

	p, err := NewDecoder(fs, 0).DecodeRaw("/n/A.NEF")
	require.NoError(t, err)
	assert.Equal(t, SourceExifThumbnail, p.Source())
	assert.Equal(t, 16, p.Width())
	assert.Equal(t, 12, p.Height())
}

func TestDecodeRaw_TIFFBitmapFallback(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, img, nil))

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/n/B.DNG", buf.Bytes(), 0o644))

	p, err := NewDecoder(fs, 0).DecodeRaw("/n/B.DNG")
	require.NoError(t, err)
	assert.Equal(t, SourceTIFFBitmap, p.Source())
	assert.Equal(t, 8, p.Width())
}

func TestDecodeRaw_Unsupported(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/n/C.CR3", []byte("\x00\x00\x00\x18ftypcrx junk"), 0o644))

	_, err := NewDecoder(fs, 0).DecodeRaw("/n/C.CR3")
	require.Error(t, err)
	assert.True(t, IsUnsupportedThumbnail(err), "实际：%T %v", err, err)
}

func TestDecodeRaw_MissingFileIsNotUnsupported(t *testing.T) {
	_, err := NewDecoder(afero.NewMemMapFs(), 0).DecodeRaw("/nope.NEF")
	require.Error(t, err)
	assert.False(t, IsUnsupportedThumbnail(err))
}
