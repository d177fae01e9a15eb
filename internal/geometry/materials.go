package geometry

import (
	"fmt"
	"sort"

	"github.com/dyuri/buildmap/internal/model"
)

// Texture sampling modes.
const (
	SamplingClosest = "Closest"
	SamplingSmart   = "Smart"
)

// Material is a request to the scene backend for one tile's material.
type Material struct {
	Name            string `json:"name"`
	Tile            int    `json:"tile"`
	Image           string `json:"image"` // loose file name the tile extracts to
	Found           bool   `json:"found"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	Sampling        string `json:"sampling"`
	BackFaceCulling bool   `json:"back_face_culling"`
	Procedural      bool   `json:"procedural"`
	Reuse           bool   `json:"reuse"`
}

// MaterialName is the material name of a tile.
func MaterialName(tile int) string {
	return fmt.Sprintf("picnum%04d_%s", tile, tileStem(tile))
}

// ImageName is the loose file name of a tile in index-file notation.
func ImageName(tile int) string {
	return tileStem(tile) + ".png"
}

func tileStem(tile int) string {
	return fmt.Sprintf("%03d-%03d", tile%256, tile/256)
}

// Tiles provides tile dimensions. A nil Tiles or a missing tile falls back
// to the default size.
type Tiles interface {
	Lookup(tile int) (model.TileEntry, bool)
}

func (b *builder) tileSize(tile int) (float64, float64) {
	if b.tiles != nil {
		if e, ok := b.tiles.Lookup(tile); ok && e.Width > 0 && e.Height > 0 {
			return float64(e.Width), float64(e.Height)
		}
	}
	return model.DefaultTileWidth, model.DefaultTileHeight
}

func (b *builder) use(tile int) { b.used[tile] = true }

func (b *builder) materials() []Material {
	tiles := make([]int, 0, len(b.used))
	for t := range b.used {
		tiles = append(tiles, t)
	}
	sort.Ints(tiles)

	sampling := SamplingSmart
	if b.opts.PixelShading {
		sampling = SamplingClosest
	}
	out := make([]Material, 0, len(tiles))
	for _, t := range tiles {
		mat := Material{
			Name:            MaterialName(t),
			Tile:            t,
			Image:           ImageName(t),
			Width:           model.DefaultTileWidth,
			Height:          model.DefaultTileHeight,
			Sampling:        sampling,
			BackFaceCulling: b.opts.BackFaceCulling,
			Procedural:      b.opts.ProceduralMaterials,
			Reuse:           b.opts.ReuseMaterials,
		}
		if b.tiles != nil {
			if e, ok := b.tiles.Lookup(t); ok {
				mat.Found = true
				mat.Width, mat.Height = e.Width, e.Height
			}
		}
		out = append(out, mat)
	}
	return out
}
