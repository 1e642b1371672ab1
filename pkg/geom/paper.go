package geom

import (
	"fmt"
	"strings"
)

// PaperSize is a physical page size in points (1/72 inch).
type PaperSize struct {
	Name   string
	Width  float64
	Height float64
}

var (
	PaperA3     = PaperSize{Name: "A3", Width: 841.89, Height: 1190.55}
	PaperA4     = PaperSize{Name: "A4", Width: 595.28, Height: 841.89}
	PaperA5     = PaperSize{Name: "A5", Width: 419.53, Height: 595.28}
	PaperLetter = PaperSize{Name: "Letter", Width: 612, Height: 792}
	PaperLegal  = PaperSize{Name: "Legal", Width: 612, Height: 1008}
)

var papers = []PaperSize{PaperA3, PaperA4, PaperA5, PaperLetter, PaperLegal}

// LookupPaper finds a paper size by name, ignoring case.
func LookupPaper(name string) (PaperSize, error) {
	for _, p := range papers {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return PaperSize{}, fmt.Errorf("unknown paper size %q", name)
}

// Landscape returns the paper with width and height swapped when needed so
// that the long edge is horizontal.
func (p PaperSize) Landscape() PaperSize {
	if p.Width < p.Height {
		p.Width, p.Height = p.Height, p.Width
	}
	return p
}
