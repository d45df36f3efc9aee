package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Layout is the memory order of a model input tensor.
type Layout string

const (
	// NHWC stores pixels row by row with interleaved channels (Keras default).
	NHWC Layout = "NHWC"
	// NCHW stores each channel as a separate plane.
	NCHW Layout = "NCHW"
)

// ParseLayout accepts a layout name in any case. An empty string means NHWC.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(NHWC):
		return NHWC, nil
	case string(NCHW):
		return NCHW, nil
	}
	return "", fmt.Errorf("unsupported tensor layout %q", s)
}

const channels = 3

// Decode reads an encoded image and returns it as an opaque RGB raster along
// with the name of the format it was decoded from.
func Decode(r io.Reader) (*image.RGBA, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", err
	}
	return ToRGB(img), format, nil
}

// DecodeBytes is Decode over an in-memory buffer.
func DecodeBytes(data []byte) (*image.RGBA, string, error) {
	return Decode(bytes.NewReader(data))
}

// ToRGB drops the alpha channel, keeping the straight (non-premultiplied)
// color of every pixel.
func ToRGB(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			off := dst.PixOffset(x-b.Min.X, y-b.Min.Y)
			dst.Pix[off+0] = c.R
			dst.Pix[off+1] = c.G
			dst.Pix[off+2] = c.B
			dst.Pix[off+3] = 0xff
		}
	}

	return dst
}

// Resize scales img to a size×size square. Aspect ratio is not preserved.
func Resize(img image.Image, size int) image.Image {
	return resize.Resize(uint(size), uint(size), img, resize.Bicubic)
}

// ToTensor converts img into a float32 tensor with values in [0,1] in the
// given layout. The result holds a single batch element.
func ToTensor(img image.Image, layout Layout) []float32 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	plane := width * height
	data := make([]float32, channels*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			rNorm := float32(r) / 65535.0
			gNorm := float32(g) / 65535.0
			bNorm := float32(b) / 65535.0

			pixelIndex := y*width + x
			if layout == NCHW {
				data[pixelIndex] = rNorm
				data[plane+pixelIndex] = gNorm
				data[2*plane+pixelIndex] = bNorm
				continue
			}
			data[pixelIndex*channels] = rNorm
			data[pixelIndex*channels+1] = gNorm
			data[pixelIndex*channels+2] = bNorm
		}
	}

	return data
}

// TensorSize is the number of float32 values ToTensor produces for a
// size×size image.
func TensorSize(size int) int {
	return channels * size * size
}

// EncodeJPEG encodes img as JPEG. A quality of 0 uses the library default.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 {
		quality = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// IsBlank reports whether every pixel of img equals background.
func IsBlank(img image.Image, background color.Color) bool {
	br, bg, bb, _ := background.RGBA()
	bounds := img.Bounds()

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r != br || g != bg || b != bb {
				return false
			}
		}
	}

	return true
}
