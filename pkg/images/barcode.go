package images

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/datamatrix"
	"github.com/boombuler/barcode/ean"
	"github.com/boombuler/barcode/qr"
)

var ErrUnknownSymbology = errors.New("unknown barcode symbology")

// Barcode encodes value with the named symbology and scales the symbol to
// at least w×h pixels. Supported symbologies: code128, code39, ean, qr and
// datamatrix.
func Barcode(symbology, value string, w, h int) (image.Image, error) {
	var bc barcode.Barcode
	var err error
	switch strings.ToLower(symbology) {
	case "", "code128":
		bc, err = code128.Encode(value)
	case "code39":
		bc, err = code39.Encode(value, false, true)
	case "ean", "ean13", "ean8":
		bc, err = ean.Encode(value)
	case "qr", "qrcode":
		bc, err = qr.Encode(value, qr.M, qr.Auto)
	case "datamatrix":
		bc, err = datamatrix.Encode(value)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbology, symbology)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s barcode: %w", symbology, err)
	}
	b := bc.Bounds()
	w = max(w, b.Dx())
	h = max(h, b.Dy())
	scaled, err := barcode.Scale(bc, w, h)
	if err != nil {
		return nil, fmt.Errorf("scale %s barcode: %w", symbology, err)
	}
	return scaled, nil
}
