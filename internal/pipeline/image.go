package pipeline

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/SyedDaiam9101/gender-service/internal/inference"
)

// FacePadding is added on every side of a detected box before cropping.
const FacePadding = 10

// DefaultMaxPixels bounds the decoded image size.
const DefaultMaxPixels = 40_000_000

// Channel orders for the classifier input.
const (
	ChannelOrderBGR = "bgr"
	ChannelOrderRGB = "rgb"
)

// decode turns upload bytes into an opaque 3-channel image with its origin at (0,0),
// rotated upright per any EXIF orientation. Alpha is dropped, not composited.
func decode(data []byte, maxPixels int) (*image.NRGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrDecode)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	if maxPixels > 0 && cfg.Width*cfg.Height > maxPixels {
		return nil, fmt.Errorf("%w: image is %dx%d", ErrDecode, cfg.Width, cfg.Height)
	}

	// Phone JPEGs are often stored sideways with an EXIF orientation tag;
	// the cascade only finds upright faces.
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	img := imaging.Clone(src)
	if img.Rect.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrDecode)
	}
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img, nil
}

// grayscale converts img to luminance with BT.601 weights.
func grayscale(img image.Image) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(b)
	draw.Draw(gray, b, img, b.Min, draw.Src)
	return gray
}

// paddedRect grows box by FacePadding and clamps it to bounds.
func paddedRect(box, bounds image.Rectangle) image.Rectangle {
	return box.Inset(-FacePadding).Intersect(bounds)
}

// cropFace cuts the padded face region out of the color image.
func cropFace(img *image.NRGBA, box image.Rectangle) (*image.NRGBA, error) {
	r := paddedRect(box, img.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("face box %v is outside image %v", box, img.Bounds())
	}
	return imaging.Crop(img, r), nil
}

// resizeFace scales the crop to the classifier input size.
func resizeFace(face image.Image) image.Image {
	return resize.Resize(inference.InputWidth, inference.InputHeight, face, resize.Bilinear)
}

// toTensor lays img out as NHWC float32 in [0,1] with batch 1.
func toTensor(img image.Image, order string) ([]float32, error) {
	b := img.Bounds()
	if b.Dx() != inference.InputWidth || b.Dy() != inference.InputHeight {
		return nil, fmt.Errorf("face is %dx%d, expected %dx%d", b.Dx(), b.Dy(), inference.InputWidth, inference.InputHeight)
	}

	bgr := true
	switch order {
	case "", ChannelOrderBGR:
	case ChannelOrderRGB:
		bgr = false
	default:
		return nil, fmt.Errorf("unknown channel order %q", order)
	}

	out := make([]float32, 0, inference.InputSize)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			r, g, bl := float32(c.R)/255, float32(c.G)/255, float32(c.B)/255
			if bgr {
				out = append(out, bl, g, r)
			} else {
				out = append(out, r, g, bl)
			}
		}
	}
	return out, nil
}
