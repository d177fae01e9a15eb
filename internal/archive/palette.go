package archive

import (
	"fmt"

	"github.com/dyuri/buildmap/internal/model"
)

// Palette file names
const (
	PaletteDAT   = "PALETTE.DAT" // 6-bit components
	PaletteBlood = "BLOOD.PAL"   // 8-bit components
)

const paletteSize = 768

// ParsePalette reads the leading 256 rgb triplets of a palette file.
func ParsePalette(data []byte, sixBit bool) (*model.Palette, error) {
	if len(data) < paletteSize {
		return nil, fmt.Errorf("palette of %d bytes: %w", len(data), ErrInvalid)
	}
	return model.NewPalette(data[:paletteSize], sixBit), nil
}
