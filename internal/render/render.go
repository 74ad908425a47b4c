// Package render turns solution text into 1-bit 200x200 bitmap pages encoded
// as binary PBM (P4), the native format of the target e-paper display.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// PageWidth and PageHeight are the pixel dimensions of one page.
	PageWidth  = 200
	PageHeight = 200

	// WrapWidth is the maximum number of characters per line.
	WrapWidth = 24

	// lineAdvance is the vertical distance between consecutive baselines.
	lineAdvance = 14
	// margin is the left and top inset of the text block.
	margin = 10
)

// LinesPerPage is how many wrapped lines fit on one page.
const LinesPerPage = PageHeight / lineAdvance

// Wrap splits text into lines of at most width characters, breaking on
// whitespace. Words longer than width are split mid-word, filling whatever
// space remains on the current line first. Empty input yields no lines.
func Wrap(text string, width int) []string {
	var lines []string
	var line strings.Builder

	flush := func() {
		if line.Len() > 0 {
			lines = append(lines, line.String())
			line.Reset()
		}
	}

	for _, word := range strings.Fields(text) {
		// Oversized words (long LaTeX runs have no spaces) fill the
		// remainder of the current line, then hard-split across lines.
		for len(word) > width {
			space := width - line.Len()
			if line.Len() > 0 {
				space-- // the joining space
			}
			if space > 0 {
				if line.Len() > 0 {
					line.WriteByte(' ')
				}
				line.WriteString(word[:space])
				word = word[space:]
			}
			flush()
		}
		switch {
		case line.Len() == 0:
			line.WriteString(word)
		case line.Len()+1+len(word) <= width:
			line.WriteByte(' ')
			line.WriteString(word)
		default:
			flush()
			line.WriteString(word)
		}
	}
	flush()

	return lines
}

// Pages renders the text into one or more PBM-encoded pages. Empty or
// whitespace-only text still produces a single blank page so a device always
// has a page to fetch.
func Pages(text string) [][]byte {
	lines := Wrap(text, WrapWidth)
	if len(lines) == 0 {
		return [][]byte{EncodePBM(drawPage(nil))}
	}

	var pages [][]byte
	for i := 0; i < len(lines); i += LinesPerPage {
		end := i + LinesPerPage
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, EncodePBM(drawPage(lines[i:end])))
	}

	return pages
}

// drawPage draws the lines black-on-white onto a fresh page image.
func drawPage(lines []string) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, PageWidth, PageHeight))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: face,
	}

	y := margin
	for _, line := range lines {
		d.Dot = fixed.P(margin, y+face.Ascent)
		d.DrawString(line)
		y += lineAdvance
	}

	return img
}

// EncodePBM encodes a grayscale image as binary PBM (P4): packed rows, most
// significant bit first, 1 = black. Pixels darker than mid-gray are black.
func EncodePBM(img *image.Gray) []byte {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	rowBytes := (w + 7) / 8

	var buf bytes.Buffer
	buf.Grow(32 + rowBytes*h)
	fmt.Fprintf(&buf, "P4\n%d %d\n", w, h)

	row := make([]byte, rowBytes)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for i := range row {
			row[i] = 0
		}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.GrayAt(x, y).Y < 128 {
				i := x - bounds.Min.X
				row[i/8] |= 0x80 >> (i % 8)
			}
		}
		buf.Write(row)
	}

	return buf.Bytes()
}
