package pipeline

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/SyedDaiam9101/gender-service/internal/inference"
)

func posInf() float64 { return math.Inf(1) }

func TestDecode_Formats(t *testing.T) {
	src := splitImage(40, 30)

	encoders := map[string]func(*bytes.Buffer) error{
		"png":  func(b *bytes.Buffer) error { return png.Encode(b, src) },
		"jpeg": func(b *bytes.Buffer) error { return jpeg.Encode(b, src, nil) },
		"gif":  func(b *bytes.Buffer) error { return gif.Encode(b, src, nil) },
		"bmp":  func(b *bytes.Buffer) error { return bmp.Encode(b, src) },
		"tiff": func(b *bytes.Buffer) error { return tiff.Encode(b, src, nil) },
	}

	for name, encode := range encoders {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, encode(&buf))

			img, err := decode(buf.Bytes(), DefaultMaxPixels)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())
		})
	}
}

// withOrientation inserts an APP1 EXIF segment carrying only the
// orientation tag right after the JPEG SOI marker.
func withOrientation(jpg []byte, orientation uint16) []byte {
	exif := []byte("Exif\x00\x00")
	exif = append(exif, 'M', 'M', 0x00, 0x2a, 0x00, 0x00, 0x00, 0x08) // big-endian TIFF header, IFD at 8
	exif = append(exif, 0x00, 0x01)                                   // one entry
	exif = append(exif, 0x01, 0x12, 0x00, 0x03, 0x00, 0x00, 0x00, 0x01) // Orientation, SHORT, count 1
	exif = append(exif, byte(orientation>>8), byte(orientation), 0x00, 0x00)
	exif = append(exif, 0x00, 0x00, 0x00, 0x00) // no next IFD

	size := len(exif) + 2
	out := append([]byte{}, jpg[:2]...)
	out = append(out, 0xff, 0xe1, byte(size>>8), byte(size))
	out = append(out, exif...)
	return append(out, jpg[2:]...)
}

func TestDecode_AppliesEXIFOrientation(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, splitImage(200, 100), nil))

	img, err := decode(buf.Bytes(), DefaultMaxPixels)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 200, 100), img.Bounds())

	// 6: stored rotated, display rotated 90 degrees clockwise
	img, err = decode(withOrientation(buf.Bytes(), 6), DefaultMaxPixels)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 200), img.Bounds())

	// the red left half ends up on top
	top := img.NRGBAAt(50, 20)
	assert.Greater(t, int(top.R), 200)
	assert.Less(t, int(top.B), 60)
}

func TestDecode_DropsAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 10, B: 10, A: 0})
	src.SetNRGBA(1, 1, color.NRGBA{R: 10, G: 10, B: 200, A: 128})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	img, err := decode(buf.Bytes(), DefaultMaxPixels)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 200, G: 10, B: 10, A: 255}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 10, G: 10, B: 200, A: 255}, img.NRGBAAt(1, 1))
}

func TestGrayscale(t *testing.T) {
	img := splitImage(10, 4)
	gray := grayscale(img)

	assert.Equal(t, img.Bounds(), gray.Bounds())
	// BT.601: 0.299 R, 0.114 B
	assert.InDelta(t, 76, int(gray.GrayAt(0, 0).Y), 1)
	assert.InDelta(t, 29, int(gray.GrayAt(9, 0).Y), 1)
}

func TestPaddedRect(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 80)

	tests := []struct {
		name string
		box  image.Rectangle
		want image.Rectangle
	}{
		{"interior", image.Rect(30, 30, 50, 50), image.Rect(20, 20, 60, 60)},
		{"top left corner", image.Rect(0, 0, 20, 20), image.Rect(0, 0, 30, 30)},
		{"bottom right corner", image.Rect(85, 70, 100, 80), image.Rect(75, 60, 100, 80)},
		{"whole image", bounds, bounds},
		{"outside", image.Rect(200, 200, 220, 220), image.Rectangle{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := paddedRect(tt.box, bounds)
			if tt.want.Empty() {
				assert.True(t, got.Empty(), "got %v", got)
				return
			}
			assert.Equal(t, tt.want, got)
			assert.True(t, got.In(bounds))
		})
	}
}

func TestCropFace(t *testing.T) {
	img := splitImage(100, 80)

	face, err := cropFace(img, image.Rect(0, 0, 20, 20))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 30, 30), face.Bounds())

	_, err = cropFace(img, image.Rect(300, 300, 310, 310))
	assert.Error(t, err)
}

func TestResizeAndTensor(t *testing.T) {
	face := splitImage(37, 53)
	resized := resizeFace(face)
	assert.Equal(t, inference.InputWidth, resized.Bounds().Dx())
	assert.Equal(t, inference.InputHeight, resized.Bounds().Dy())

	tensor, err := toTensor(resized, ChannelOrderBGR)
	require.NoError(t, err)
	require.Len(t, tensor, inference.InputSize)
	for i, v := range tensor {
		if v < 0 || v > 1 {
			t.Fatalf("tensor[%d] = %v out of [0,1]", i, v)
		}
	}

	// top-left pixel is red: b, g, r
	assert.InDelta(t, 0, tensor[0], 0.01)
	assert.InDelta(t, 1, tensor[2], 0.01)
	// top-right pixel is blue
	last := (inference.InputWidth - 1) * 3
	assert.InDelta(t, 1, tensor[last], 0.01)
	assert.InDelta(t, 0, tensor[last+2], 0.01)
}

func TestToTensor_Errors(t *testing.T) {
	_, err := toTensor(splitImage(10, 10), ChannelOrderBGR)
	assert.Error(t, err)

	_, err = toTensor(splitImage(inference.InputWidth, inference.InputHeight), "hsv")
	assert.Error(t, err)
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		scores    inference.Scores
		wantLabel string
		wantConf  float64
		wantErr   bool
	}{
		{"male", inference.Scores{Male: 0.8, Female: 0.2}, LabelMale, 0.8, false},
		{"female", inference.Scores{Male: 0.2, Female: 0.7}, LabelFemale, 0.7, false},
		{"tie", inference.Scores{Male: 0.5, Female: 0.5}, LabelFemale, 0.5, false},
		{"unnormalized", inference.Scores{Male: 3, Female: 1}, LabelMale, 3, false},
		{"nan", inference.Scores{Male: float32(math.NaN()), Female: 0.5}, "", 0, true},
		{"inf", inference.Scores{Male: 0.5, Female: float32(math.Inf(-1))}, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := decide(tt.scores)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabel, res.Label)
			assert.InDelta(t, tt.wantConf, res.Confidence, 1e-6)
		})
	}
}
