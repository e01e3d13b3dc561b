package source

import (
	"fmt"
	"image"

	"github.com/skip2/go-qrcode"
)

// QRCode renders content as a square QR code mask of sizePx pixels.
func QRCode(content string, sizePx int) (*image.Alpha, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}
	q.DisableBorder = true
	return Mask(q.Image(sizePx)), nil
}
