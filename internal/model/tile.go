package model

import (
	"image/color"
	"time"
)

// Default tile dimensions used when no texture is available.
const (
	DefaultTileWidth  = 32
	DefaultTileHeight = 32
)

// TransparentIndex is the palette index rendered as fully transparent.
const TransparentIndex = 255

// SourceKind identifies where a tile came from.
type SourceKind int

const (
	SourceLoose SourceKind = iota // loose png/jpg file
	SourceART                     // ART tile bank
	SourceGRP                     // ART inside a GRP archive
	SourceRFF                     // ART inside an RFF archive
)

func (k SourceKind) String() string {
	switch k {
	case SourceART:
		return "art"
	case SourceGRP:
		return "grp"
	case SourceRFF:
		return "rff"
	default:
		return "loose"
	}
}

// TileFormat is the pixel payload format of a tile.
type TileFormat int

const (
	FormatIndexed TileFormat = iota // 8-bit palette indices, row-major
	FormatPNG                       // encoded png
	FormatJPEG                      // encoded jpeg
)

func (f TileFormat) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	default:
		return "indexed"
	}
}

// PicAnim is the decoded picanm word of an ART tile.
type PicAnim struct {
	Frames  int `json:"frames"`  // bits 0-5
	Type    int `json:"type"`    // bits 6-7
	XCenter int `json:"xcenter"` // signed bits 8-15
	YCenter int `json:"ycenter"` // signed bits 16-23
	Speed   int `json:"speed"`   // bits 24-27
}

// DecodePicAnim splits a raw picanm value.
func DecodePicAnim(v uint32) PicAnim {
	return PicAnim{
		Frames:  int(v & 0x3F),
		Type:    int((v >> 6) & 0x03),
		XCenter: int(int8(v >> 8)),
		YCenter: int(int8(v >> 16)),
		Speed:   int((v >> 24) & 0x0F),
	}
}

// Encode packs the fields back into a picanm value.
func (p PicAnim) Encode() uint32 {
	return uint32(p.Frames&0x3F) |
		uint32(p.Type&0x03)<<6 |
		uint32(uint8(int8(p.XCenter)))<<8 |
		uint32(uint8(int8(p.YCenter)))<<16 |
		uint32(p.Speed&0x0F)<<24
}

// TileSource describes the container a tile was read from.
type TileSource struct {
	Root       string     `json:"root"`        // configured source folder or file
	Path       string     `json:"path"`        // file that holds the tile (loose image, ART, GRP or RFF)
	Entry      string     `json:"entry"`       // entry name inside GRP/RFF, empty otherwise
	Kind       SourceKind `json:"kind"`        // container type
	Offset     int64      `json:"offset"`      // byte offset of the entry inside Path
	Size       int64      `json:"size"`        // entry size in bytes
	ModTime    time.Time  `json:"mod_time"`    // file or archive entry modification time
	RFFFlags   uint8      `json:"rff_flags"`   // RFF entry flags
	RFFVersion uint16     `json:"rff_version"` // RFF archive version
}

// TileEntry is one resolved tile.
type TileEntry struct {
	Tile    int        `json:"tile"`
	Source  TileSource `json:"source"`
	Format  TileFormat `json:"format"`
	Width   int        `json:"width"`
	Height  int        `json:"height"`
	Data    []byte     `json:"-"` // indexed pixels (row-major) or encoded image
	Anim    *PicAnim   `json:"anim,omitempty"`
	Palette *Palette   `json:"-"` // palette for indexed tiles
}

// Offset returns the sprite center offset, zero for tiles without picanm.
func (t TileEntry) Offset() (int, int) {
	if t.Anim == nil {
		return 0, 0
	}
	return t.Anim.XCenter, t.Anim.YCenter
}

// Palette maps 8-bit indices to colors.
type Palette [256]color.RGBA

// NewPalette builds a palette from 768 rgb bytes. Six-bit palettes are
// scaled by four.
func NewPalette(rgb []byte, sixBit bool) *Palette {
	var p Palette
	for i := 0; i < 256 && i*3+2 < len(rgb); i++ {
		r, g, b := rgb[i*3], rgb[i*3+1], rgb[i*3+2]
		if sixBit {
			r, g, b = r<<2, g<<2, b<<2
		}
		p[i] = color.RGBA{R: r, G: g, B: b, A: 0xFF}
	}
	p[TransparentIndex].A = 0
	return &p
}

// ColorModel returns the palette as a color.Palette.
func (p *Palette) ColorModel() color.Palette {
	out := make(color.Palette, len(p))
	for i, c := range p {
		out[i] = c
	}
	return out
}
