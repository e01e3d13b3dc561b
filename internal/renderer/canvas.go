// Package renderer rasterises scene nodes into RGBA frames.
package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/image/vector"

	"github.com/ivlev/resultflow/internal/scene"
)

// Canvas maps scene units onto a pixel frame. A Canvas is not safe for concurrent use.
type Canvas struct {
	Width, Height int
	Background    color.NRGBA

	scale  float64
	raster *vector.Rasterizer
	texts  *cache.Cache
}

func NewCanvas(width, height int, bg color.NRGBA) *Canvas {
	return &Canvas{
		Width:      width,
		Height:     height,
		Background: bg,
		scale:      float64(height) / scene.FrameHeight,
		raster:     vector.NewRasterizer(width, height),
		// scaling animations produce many one-off sizes
		texts: cache.New(time.Minute, 2*time.Minute),
	}
}

// PixelsPerUnit is the length of one scene unit in pixels.
func (c *Canvas) PixelsPerUnit() float64 { return c.scale }

// ToPixel maps a scene point to pixel coordinates.
func (c *Canvas) ToPixel(v scene.Vec) (float64, float64) {
	return float64(c.Width)/2 + v.X*c.scale, float64(c.Height)/2 - v.Y*c.scale
}

// NewFrame allocates a frame matching the canvas.
func (c *Canvas) NewFrame() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
}

// Render clears dst and draws nodes in order.
func (c *Canvas) Render(dst *image.RGBA, nodes []*scene.Node) error {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c.Background), image.Point{}, draw.Src)
	for _, n := range nodes {
		if err := c.drawNode(dst, n); err != nil {
			return fmt.Errorf("draw %s: %w", n.Label(), err)
		}
	}
	return nil
}

func (c *Canvas) drawNode(dst *image.RGBA, n *scene.Node) error {
	st := n.State
	if st.Opacity <= 0 || st.Scale <= 0 || st.Reveal <= 0 {
		return nil
	}
	switch s := n.Shape.(type) {
	case *scene.TextShape:
		return c.drawText(dst, n, s)
	case *scene.RasterShape:
		c.drawRaster(dst, n, s)
	case *scene.LineShape:
		c.drawLine(dst, n, s)
	default:
		c.drawOutline(dst, n)
	}
	return nil
}

func withAlpha(col color.NRGBA, alpha float64) color.NRGBA {
	alpha = math.Max(0, math.Min(1, alpha))
	col.A = uint8(math.Round(float64(col.A) * alpha))
	return col
}
