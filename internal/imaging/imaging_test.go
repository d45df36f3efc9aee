package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode failed: %v", err)
	}
	return buf.Bytes()
}

func TestDecodePNG(t *testing.T) {
	data := encodePNG(t, solid(64, 48, color.RGBA{R: 200, G: 10, B: 30, A: 255}))

	img, format, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if format != "png" {
		t.Errorf("Expected format png, got %s", format)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Errorf("Unexpected bounds %v", img.Bounds())
	}
	if got := img.RGBAAt(10, 10); got.R != 200 || got.G != 10 || got.B != 30 || got.A != 255 {
		t.Errorf("Unexpected pixel %v", got)
	}
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"text", []byte("this is not an image")},
		{"truncated png", encodePNG(t, solid(8, 8, color.White))[:20]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeBytes(tt.data); err == nil {
				t.Error("Expected decode error")
			}
		})
	}
}

func TestToRGBDropsAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 0})
	src.SetNRGBA(1, 0, color.NRGBA{R: 100, G: 150, B: 200, A: 128})

	dst := ToRGB(src)

	if got := dst.RGBAAt(1, 0); got.R != 100 || got.G != 150 || got.B != 200 || got.A != 255 {
		t.Errorf("Expected straight color with opaque alpha, got %v", got)
	}
	if got := dst.RGBAAt(0, 0); got.A != 255 {
		t.Errorf("Expected opaque pixel, got %v", got)
	}
}

func TestResize(t *testing.T) {
	tests := []struct {
		w, h int
	}{
		{64, 64},
		{300, 300},
		{640, 480},
		{1, 1},
	}

	for _, tt := range tests {
		out := Resize(solid(tt.w, tt.h, color.White), 128)
		if out.Bounds().Dx() != 128 || out.Bounds().Dy() != 128 {
			t.Errorf("Resize(%dx%d): got %v", tt.w, tt.h, out.Bounds())
		}
	}
}

func TestToTensorLayouts(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	img.SetRGBA(1, 0, color.RGBA{R: 0, G: 255, B: 0, A: 255})

	nhwc := ToTensor(img, NHWC)
	wantNHWC := []float32{1, 0, 0, 0, 1, 0}
	for i := range wantNHWC {
		if nhwc[i] != wantNHWC[i] {
			t.Errorf("NHWC[%d] = %v, want %v", i, nhwc[i], wantNHWC[i])
		}
	}

	nchw := ToTensor(img, NCHW)
	wantNCHW := []float32{1, 0, 0, 1, 0, 0}
	for i := range wantNCHW {
		if nchw[i] != wantNCHW[i] {
			t.Errorf("NCHW[%d] = %v, want %v", i, nchw[i], wantNCHW[i])
		}
	}
}

func TestToTensorRange(t *testing.T) {
	data := ToTensor(Resize(solid(64, 64, color.RGBA{R: 128, G: 64, B: 255, A: 255}), 128), NHWC)

	if len(data) != TensorSize(128) {
		t.Fatalf("Expected %d values, got %d", TensorSize(128), len(data))
	}
	for i, v := range data {
		if v < 0 || v > 1 {
			t.Fatalf("Value %d out of range: %v", i, v)
		}
	}
}

func TestJPEGRoundTrip(t *testing.T) {
	src := solid(128, 128, color.RGBA{R: 240, G: 200, B: 40, A: 255})

	data, err := EncodeJPEG(src, 0)
	if err != nil {
		t.Fatalf("EncodeJPEG failed: %v", err)
	}

	img, format, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("Expected jpeg, got %s", format)
	}

	got := img.RGBAAt(64, 64)
	if diff(got.R, 240) > 8 || diff(got.G, 200) > 8 || diff(got.B, 40) > 8 {
		t.Errorf("Color drifted too far: %v", got)
	}

	first := ToTensor(img, NHWC)
	again, _, _ := DecodeBytes(data)
	second := ToTensor(again, NHWC)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Decoding the same bytes twice differs at %d", i)
		}
	}
}

func diff(a, b uint8) float64 {
	return math.Abs(float64(a) - float64(b))
}

func TestIsBlank(t *testing.T) {
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	canvas := solid(30, 30, white)

	if !IsBlank(canvas, white) {
		t.Error("Expected untouched canvas to be blank")
	}

	canvas.Set(15, 15, color.Black)
	if IsBlank(canvas, white) {
		t.Error("Expected canvas with a stroke to be non-blank")
	}
}

func TestParseLayout(t *testing.T) {
	tests := []struct {
		in      string
		want    Layout
		wantErr bool
	}{
		{"", NHWC, false},
		{"nhwc", NHWC, false},
		{"NCHW", NCHW, false},
		{"HWC", "", true},
	}

	for _, tt := range tests {
		got, err := ParseLayout(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLayout(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLayout(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
