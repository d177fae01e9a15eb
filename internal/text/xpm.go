package text

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dyuri/buildmap/internal/model"
)

// ErrNotIndexed is returned for tiles that carry encoded images.
var ErrNotIndexed = errors.New("tile is not indexed")

// Printable XPM color codes, without space and quote
const xpmChars = "!#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_`abcdefghijklmnopqrstuvwxyz{|}~"

// WriteTile outputs an indexed tile as a [tile] section holding an XPM
// picture. Only the palette entries the tile uses are listed.
func (w *Writer) WriteTile(e model.TileEntry) error {
	if e.Format != model.FormatIndexed || e.Palette == nil {
		return fmt.Errorf("tile %d: %w", e.Tile, ErrNotIndexed)
	}
	if len(e.Data) < e.Width*e.Height {
		return fmt.Errorf("tile %d: bitmap data too short", e.Tile)
	}

	used := make(map[byte]bool)
	for _, p := range e.Data[:e.Width*e.Height] {
		used[p] = true
	}
	indices := make([]int, 0, len(used))
	for p := range used {
		indices = append(indices, int(p))
	}
	sort.Ints(indices)

	// one character per pixel while the codes last, two beyond
	cpp := 1
	if len(indices) > len(xpmChars) {
		cpp = 2
	}
	codes := make(map[byte]string, len(indices))
	for i, p := range indices {
		if cpp == 1 {
			codes[byte(p)] = string(xpmChars[i])
		} else {
			codes[byte(p)] = string([]byte{xpmChars[i/len(xpmChars)], xpmChars[i%len(xpmChars)]})
		}
	}

	w.printf("[tile %d]\n", e.Tile)
	w.printf("Source=%s\n", e.Source.Path)
	if e.Anim != nil {
		w.printf("Anim=%d,%d,%d,%d,%d\n", e.Anim.Frames, e.Anim.Type, e.Anim.XCenter, e.Anim.YCenter, e.Anim.Speed)
	}
	w.printf("Xpm=\"%d %d %d %d\"\n", e.Width, e.Height, len(indices), cpp)
	for _, p := range indices {
		c := e.Palette[p]
		if c.A == 0 {
			w.printf("\"%s c none\"\n", codes[byte(p)])
		} else {
			w.printf("\"%s c #%02x%02x%02x\"\n", codes[byte(p)], c.R, c.G, c.B)
		}
	}
	for y := 0; y < e.Height; y++ {
		w.printf("\"")
		for x := 0; x < e.Width; x++ {
			w.printf("%s", codes[e.Data[y*e.Width+x]])
		}
		w.printf("\"\n")
	}
	w.printf("[end]\n\n")
	if w.err != nil {
		return fmt.Errorf("write tile %d: %w", e.Tile, w.err)
	}
	return nil
}
