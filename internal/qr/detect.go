package qr

import (
	"errors"
	"image"
)

// ErrNoEntryID is returned when an image decodes fine but none of its
// QR codes carries a delivery identifier.
var ErrNoEntryID = errors.New("qr: no delivery identifier found")

// Detection is the chosen delivery QR of an image.
type Detection struct {
	EntryID    string `json:"entregaId"`
	Payload    string `json:"qrData"`
	Confidence string `json:"confidence"` // "high" when exactly one candidate
	Box        *Box   `json:"box,omitempty"`
}

type candidate struct {
	entryID string
	symbol  Symbol
}

// BestDetection picks the delivery QR to trust among decoded symbols.
// With several candidates the largest one wins, on the assumption that
// the main QR of the sheet is printed bigger than any incidental ones,
// and confidence drops to "medium".
func BestDetection(symbols []Symbol) *Detection {
	var candidates []candidate
	for _, s := range symbols {
		if id, ok := ExtractEntryID(s.Data); ok {
			candidates = append(candidates, candidate{entryID: id, symbol: s})
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.symbol.Box.Area() > best.symbol.Box.Area() {
			best = c
		}
	}

	confidence := "high"
	if len(candidates) > 1 {
		confidence = "medium"
	}
	return &Detection{
		EntryID:    best.entryID,
		Payload:    best.symbol.Data,
		Confidence: confidence,
		Box:        best.symbol.Box,
	}
}

// Scan decodes an image and returns its delivery QR. ErrNoEntryID
// distinguishes "nothing usable in the image" from decoder failures.
func Scan(dec Decoder, img image.Image) (*Detection, error) {
	symbols, err := dec.Decode(img)
	if err != nil {
		return nil, err
	}
	det := BestDetection(symbols)
	if det == nil {
		return nil, ErrNoEntryID
	}
	return det, nil
}
