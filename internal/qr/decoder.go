package qr

import (
	"errors"
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/multi/qrcode"
)

// Box is the axis-aligned bounding box of a decoded symbol in image
// coordinates.
type Box struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns Width*Height. Nil boxes count as zero.
func (b *Box) Area() int {
	if b == nil {
		return 0
	}
	return b.Width * b.Height
}

// Symbol is one decoded QR code.
type Symbol struct {
	Data string `json:"data"`
	Box  *Box   `json:"box,omitempty"`
}

// Decoder reads QR symbols out of an image. The zero result (no
// symbols, nil error) means the image simply contains no readable QR.
type Decoder interface {
	Decode(img image.Image) ([]Symbol, error)
}

// ZXingDecoder decodes with the gozxing multi-reader, which picks up
// every QR in the frame rather than just the first.
type ZXingDecoder struct{}

// NewDecoder returns the default decoder.
func NewDecoder() *ZXingDecoder {
	return &ZXingDecoder{}
}

// Decode implements Decoder. An image without any QR yields an empty
// slice, not an error.
func (d *ZXingDecoder) Decode(img image.Image) ([]Symbol, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("preparing image for decode: %w", err)
	}

	reader := qrcode.NewQRCodeMultiReader()
	results, err := reader.DecodeMultiple(bmp, nil)
	if err != nil {
		var nf gozxing.NotFoundException
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding qr codes: %w", err)
	}

	symbols := make([]Symbol, 0, len(results))
	for _, r := range results {
		symbols = append(symbols, Symbol{
			Data: r.GetText(),
			Box:  boxFromPoints(r.GetResultPoints()),
		})
	}
	return symbols, nil
}

func boxFromPoints(points []gozxing.ResultPoint) *Box {
	if len(points) == 0 {
		return nil
	}
	minX, minY := points[0].GetX(), points[0].GetY()
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		x, y := p.GetX(), p.GetY()
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}
	return &Box{
		X:      int(minX),
		Y:      int(minY),
		Width:  int(maxX - minX),
		Height: int(maxY - minY),
	}
}
