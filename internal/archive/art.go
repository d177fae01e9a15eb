package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"

	"github.com/dyuri/buildmap/internal/model"
)

// ART file header
type artHeader struct {
	Version   int32
	NumTiles  int32 // unreliable, derived from the range instead
	FirstTile int32
	LastTile  int32
}

const artHeaderSize = 16

// Tile is one picture of an ART file. Pixels are palette indices in column
// major order.
type Tile struct {
	Number int
	Width  int
	Height int
	Anim   model.PicAnim
	Offset int64 // byte offset of the pixels inside the ART file
	Pixels []byte
}

// At returns the palette index at (x, y).
func (t *Tile) At(x, y int) byte { return t.Pixels[x*t.Height+y] }

// RowMajor returns the pixels in row major order.
func (t *Tile) RowMajor() []byte {
	out := make([]byte, len(t.Pixels))
	for x := 0; x < t.Width; x++ {
		for y := 0; y < t.Height; y++ {
			out[y*t.Width+x] = t.Pixels[x*t.Height+y]
		}
	}
	return out
}

// Image renders the tile with a palette.
func (t *Tile) Image(pal *model.Palette) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, t.Width, t.Height), pal.ColorModel())
	copy(img.Pix, t.RowMajor())
	return img
}

// ART is a parsed tile bank.
type ART struct {
	FirstTile int
	LastTile  int
	Tiles     []Tile // tiles with both dimensions set
	Truncated bool   // pixel data ended early, later tiles are missing
}

// ParseART parses an ART tile bank. Tiles without pixels are left out.
func ParseART(data []byte) (*ART, error) {
	r := bytes.NewReader(data)
	var header artHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read ART header: %w", ErrInvalid)
	}
	if header.Version != 1 {
		return nil, fmt.Errorf("ART version %d: %w", header.Version, ErrUnsupportedVersion)
	}
	n := int(header.LastTile) - int(header.FirstTile) + 1
	if header.FirstTile < 0 || n <= 0 || artHeaderSize+int64(n)*8 > int64(len(data)) {
		return nil, fmt.Errorf("ART tile range %d-%d: %w", header.FirstTile, header.LastTile, ErrInvalid)
	}

	widths := make([]uint16, n)
	heights := make([]uint16, n)
	anims := make([]uint32, n)
	for _, v := range []any{widths, heights, anims} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("failed to read ART tile table: %w", ErrInvalid)
		}
	}

	art := &ART{FirstTile: int(header.FirstTile), LastTile: int(header.LastTile)}
	offset := int64(artHeaderSize + n*8)
	for i := 0; i < n; i++ {
		w, h := int(widths[i]), int(heights[i])
		if w == 0 || h == 0 {
			continue
		}
		size := int64(w * h)
		if offset+size > int64(len(data)) {
			art.Truncated = true
			break
		}
		art.Tiles = append(art.Tiles, Tile{
			Number: art.FirstTile + i,
			Width:  w,
			Height: h,
			Anim:   model.DecodePicAnim(anims[i]),
			Offset: offset,
			Pixels: data[offset : offset+size],
		})
		offset += size
	}
	return art, nil
}

// WriteART encodes tiles numbered first..last. Missing numbers are stored
// empty.
func WriteART(first, last int, tiles []Tile) []byte {
	n := last - first + 1
	byNumber := make(map[int]Tile, len(tiles))
	for _, t := range tiles {
		byNumber[t.Number] = t
	}
	widths := make([]uint16, n)
	heights := make([]uint16, n)
	anims := make([]uint32, n)
	for i := 0; i < n; i++ {
		t := byNumber[first+i]
		widths[i], heights[i], anims[i] = uint16(t.Width), uint16(t.Height), t.Anim.Encode()
	}

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, artHeader{Version: 1, NumTiles: int32(n), FirstTile: int32(first), LastTile: int32(last)})
	binary.Write(&buf, binary.LittleEndian, widths)
	binary.Write(&buf, binary.LittleEndian, heights)
	binary.Write(&buf, binary.LittleEndian, anims)
	for i := 0; i < n; i++ {
		buf.Write(byNumber[first+i].Pixels)
	}
	return buf.Bytes()
}
