// Package preview rasterizes sliced layers to images for inspection.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/slicer"
	"github.com/chazu/strata/pkg/toolpath"
)

// MaxDimension bounds the width and height of a rendered image.
const MaxDimension = 8192

// Palette colors.
var (
	Background   = color.RGBA{0x10, 0x10, 0x10, 0xff}
	Material     = color.RGBA{0x40, 0x40, 0x48, 0xff}
	OuterStroke  = color.RGBA{0xff, 0xff, 0xff, 0xff}
	InnerStroke  = color.RGBA{0x60, 0xc0, 0xff, 0xff}
	HatchStroke  = color.RGBA{0xff, 0x90, 0x30, 0xff}
	LabelText    = color.RGBA{0xc0, 0xc0, 0xc0, 0xff}
)

// Options controls rendering.
type Options struct {
	PixelsPerMM float64    // defaults to 10
	Margin      float64    // mm around the geometry; defaults to 1
	StrokeWidth float64    // pixels; defaults to 1
	Bounds      *geom.Rect // fixed XY window, e.g. shared by every layer of a job
	Label       bool       // print the layer height in the corner
}

func (o Options) withDefaults() Options {
	if o.PixelsPerMM <= 0 {
		o.PixelsPerMM = 10
	}
	if o.Margin <= 0 {
		o.Margin = 1
	}
	if o.StrokeWidth <= 0 {
		o.StrokeWidth = 1
	}
	return o
}

// LayerBounds returns the XY extent of a layer's outer loops.
func LayerBounds(l slicer.Layer) geom.Rect {
	r := geom.EmptyRect()
	for _, s := range l.Contours {
		r = r.Union(s.Outer.Bounds())
	}
	return r
}

// StackBounds returns the XY extent of every layer.
func StackBounds(layers []slicer.Layer) geom.Rect {
	r := geom.EmptyRect()
	for _, l := range layers {
		r = r.Union(LayerBounds(l))
	}
	return r
}

type canvas struct {
	img        *image.RGBA
	z          *vector.Rasterizer
	minX, maxY float64
	scale      float64
	half       float64
}

func (c *canvas) pt(p geom.Point) (float32, float32) {
	return float32((p.X - c.minX) * c.scale), float32((c.maxY - p.Y) * c.scale)
}

func (c *canvas) reset() {
	b := c.img.Bounds()
	c.z.Reset(b.Dx(), b.Dy())
	c.z.DrawOp = draw.Over
}

func (c *canvas) flush(col color.Color) {
	c.z.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{})
	c.reset()
}

func (c *canvas) fillLoop(l geom.Loop) {
	if len(l) < 3 {
		return
	}
	x, y := c.pt(l[0])
	c.z.MoveTo(x, y)
	for _, p := range l[1:] {
		x, y := c.pt(p)
		c.z.LineTo(x, y)
	}
	c.z.ClosePath()
}

func (c *canvas) stroke(a, b geom.Point) {
	ax, ay := c.pt(a)
	bx, by := c.pt(b)
	dx, dy := float64(bx-ax), float64(by-ay)
	n := math.Hypot(dx, dy)
	if n == 0 {
		return
	}
	ox, oy := float32(-dy/n*c.half), float32(dx/n*c.half)
	c.z.MoveTo(ax+ox, ay+oy)
	c.z.LineTo(bx+ox, by+oy)
	c.z.LineTo(bx-ox, by-oy)
	c.z.LineTo(ax-ox, ay-oy)
	c.z.ClosePath()
}

func (c *canvas) polyline(pts []geom.Point) {
	for i := 1; i < len(pts); i++ {
		c.stroke(pts[i-1], pts[i])
	}
}

// Render draws the layer: the material area filled, then contour and hatch
// strokes taken from its toolpath.
func Render(l slicer.Layer, opts Options) (*image.RGBA, error) {
	opts = opts.withDefaults()
	bounds := LayerBounds(l)
	if opts.Bounds != nil {
		bounds = *opts.Bounds
	}
	if bounds.IsEmpty() {
		bounds = geom.Rect{}
	}

	minX := bounds.Min.X - opts.Margin
	maxY := bounds.Max.Y + opts.Margin
	w := int(math.Ceil((bounds.Dx() + 2*opts.Margin) * opts.PixelsPerMM))
	h := int(math.Ceil((bounds.Dy() + 2*opts.Margin) * opts.PixelsPerMM))
	if w <= 0 || h <= 0 || w > MaxDimension || h > MaxDimension {
		return nil, fmt.Errorf("preview: image size %dx%d out of range", w, h)
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	c := &canvas{img: img, z: vector.NewRasterizer(w, h), minX: minX, maxY: maxY,
		scale: opts.PixelsPerMM, half: opts.StrokeWidth / 2}
	c.reset()

	// Outer loops wind counter-clockwise and holes clockwise, so the
	// accumulated winding leaves holes empty.
	for _, s := range l.Contours {
		c.fillLoop(s.Outer)
		for _, hole := range s.Inners {
			c.fillLoop(hole)
		}
	}
	c.flush(Material)

	layers := []struct {
		t   toolpath.SegmentType
		col color.Color
	}{
		{toolpath.Hatch, HatchStroke},
		{toolpath.InnerContour, InnerStroke},
		{toolpath.OuterContour, OuterStroke},
	}
	for _, ly := range layers {
		for _, seg := range l.Toolpath.Segments {
			if seg.Type == ly.t {
				c.polyline(seg.Points)
			}
		}
		c.flush(ly.col)
	}

	if opts.Label {
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(LabelText),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(4, 13),
		}
		d.DrawString(fmt.Sprintf("#%d z=%.3f", l.Index, l.Z))
	}
	return img, nil
}

// WritePNG renders l and encodes it as PNG.
func WritePNG(w io.Writer, l slicer.Layer, opts Options) error {
	img, err := Render(l, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
