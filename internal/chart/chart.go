package chart

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// Bar is one column of the chart.
type Bar struct {
	Label string  `json:"label"`
	Class string  `json:"class"`
	Value float64 `json:"value"`
}

// Options control the rendered image.
type Options struct {
	Width    int
	Height   int
	MaxValue float64
	FontSize float64
}

// DefaultOptions produces a 1000x500 chart with a 0..1.1 value axis.
func DefaultOptions() Options {
	return Options{
		Width:    1000,
		Height:   500,
		MaxValue: 1.1,
		FontSize: 16,
	}
}

var (
	palette = []color.RGBA{
		{R: 0xff, G: 0x99, B: 0x99, A: 0xff}, // #ff9999
		{R: 0x66, G: 0xb3, B: 0xff, A: 0xff}, // #66b3ff
		{R: 0x99, G: 0xff, B: 0x99, A: 0xff}, // #99ff99
		{R: 0xff, G: 0xcc, B: 0x99, A: 0xff}, // #ffcc99
		{R: 0xc2, G: 0xc2, B: 0xf0, A: 0xff}, // #c2c2f0
	}
	axisColor = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}
	textColor = color.Black
)

// SortDescending returns one bar per class ordered by descending value.
// Equal values are ordered by class name. display maps a class to its label.
func SortDescending(probs map[string]float64, display func(string) string) []Bar {
	bars := make([]Bar, 0, len(probs))
	for class, v := range probs {
		label := class
		if display != nil {
			label = display(class)
		}
		bars = append(bars, Bar{Label: label, Class: class, Value: v})
	}

	sort.Slice(bars, func(i, j int) bool {
		if bars[i].Value != bars[j].Value {
			return bars[i].Value > bars[j].Value
		}
		return bars[i].Class < bars[j].Class
	})

	return bars
}

// Renderer draws bar charts with an embedded font. A font face keeps
// scratch buffers, so rendering is serialized.
type Renderer struct {
	opts Options
	font *sfnt.Font
	face font.Face

	mu  sync.Mutex
	buf sfnt.Buffer
}

// NewRenderer parses the Go regular font at the configured size.
func NewRenderer(opts Options) (*Renderer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid chart size %dx%d", opts.Width, opts.Height)
	}
	if opts.MaxValue <= 0 {
		opts.MaxValue = 1
	}

	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    opts.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create type face: %w", err)
	}

	return &Renderer{opts: opts, font: f, face: face}, nil
}

// Render draws the bars left to right in the given order. Each bar is
// annotated with its value above it and its label below the axis.
func (r *Renderer) Render(bars []Bar) *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, h := r.opts.Width, r.opts.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	lineHeight := r.face.Metrics().Height.Ceil()
	left, right := 40, w-20
	top, bottom := 20+lineHeight, h-2*lineHeight-10

	// axes
	fillRect(img, image.Rect(left, top, left+1, bottom+1), axisColor)
	fillRect(img, image.Rect(left, bottom, right, bottom+1), axisColor)

	for _, tick := range []float64{0, 0.2, 0.4, 0.6, 0.8, 1.0} {
		y := bottom - int(tick/r.opts.MaxValue*float64(bottom-top))
		fillRect(img, image.Rect(left-4, y, left, y+1), axisColor)
		label := fmt.Sprintf("%.1f", tick)
		r.drawText(img, label, left-6-r.textWidth(label), y+lineHeight/3)
	}

	if len(bars) == 0 {
		return img
	}

	slot := (right - left) / len(bars)
	barWidth := slot * 2 / 3

	for i, bar := range bars {
		value := bar.Value
		if value < 0 {
			value = 0
		}
		if value > r.opts.MaxValue {
			value = r.opts.MaxValue
		}

		x0 := left + i*slot + (slot-barWidth)/2
		x1 := x0 + barWidth
		y0 := bottom - int(value/r.opts.MaxValue*float64(bottom-top))
		center := (x0 + x1) / 2

		fillRect(img, image.Rect(x0, y0, x1, bottom), palette[i%len(palette)])

		annotation := fmt.Sprintf("%.2f", bar.Value)
		r.drawText(img, annotation, center-r.textWidth(annotation)/2, y0-4)

		label := r.printable(bar.Label)
		r.drawText(img, label, center-r.textWidth(label)/2, bottom+lineHeight+4)
	}

	return img
}

// RenderPNG renders the bars and encodes the result as PNG.
func (r *Renderer) RenderPNG(bars []Bar) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, r.Render(bars)); err != nil {
		return nil, fmt.Errorf("failed to encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

// printable drops runes the font has no glyph for, such as emoji.
func (r *Renderer) printable(s string) string {
	var b strings.Builder
	for _, c := range s {
		idx, err := r.font.GlyphIndex(&r.buf, c)
		if err != nil || idx == 0 {
			continue
		}
		b.WriteRune(c)
	}
	return strings.TrimSpace(b.String())
}

func (r *Renderer) textWidth(s string) int {
	return font.MeasureString(r.face, s).Ceil()
}

func (r *Renderer) drawText(img draw.Image, s string, x, y int) {
	dr := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: r.face,
		Dot:  fixed.P(x, y),
	}
	dr.DrawString(s)
}

func fillRect(img draw.Image, rect image.Rectangle, c color.Color) {
	draw.Draw(img, rect, image.NewUniform(c), image.Point{}, draw.Src)
}
