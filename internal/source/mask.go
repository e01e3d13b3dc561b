package source

import (
	"image"
	"image/color"
)

// Mask turns an icon drawn dark on a light or transparent background into an
// alpha mask: ink becomes opaque, paper becomes transparent.
func Mask(img image.Image) *image.Alpha {
	b := img.Bounds()
	out := image.NewAlpha(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			lum := (299*uint32(c.R) + 587*uint32(c.G) + 114*uint32(c.B)) / 1000
			ink := (255 - lum) * uint32(c.A) / 255
			out.Pix[(y-b.Min.Y)*out.Stride+(x-b.Min.X)] = uint8(ink)
		}
	}
	return out
}
