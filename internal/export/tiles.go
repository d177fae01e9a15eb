package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/dyuri/buildmap/internal/config"
	"github.com/dyuri/buildmap/internal/geometry"
	"github.com/dyuri/buildmap/internal/model"
	"github.com/sirupsen/logrus"
)

// TileImage decodes a tile into an image. Indexed tiles use their palette.
func TileImage(e model.TileEntry) (image.Image, error) {
	switch e.Format {
	case model.FormatPNG:
		return png.Decode(bytes.NewReader(e.Data))
	case model.FormatJPEG:
		return jpeg.Decode(bytes.NewReader(e.Data))
	}
	if e.Palette == nil {
		return nil, fmt.Errorf("tile %d has no palette", e.Tile)
	}
	if len(e.Data) < e.Width*e.Height {
		return nil, fmt.Errorf("tile %d: pixel data too short", e.Tile)
	}
	img := image.NewPaletted(image.Rect(0, 0, e.Width, e.Height), e.Palette.ColorModel())
	copy(img.Pix, e.Data)
	return img, nil
}

// WriteTilePNG stores a tile in dir under its material image name. Loose
// png files are copied as they are.
func WriteTilePNG(dir string, e model.TileEntry) (string, error) {
	path := filepath.Join(dir, geometry.ImageName(e.Tile))
	if e.Format == model.FormatPNG {
		return path, os.WriteFile(path, e.Data, 0o644)
	}
	img, err := TileImage(e)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode tile %d: %w", e.Tile, err)
	}
	return path, os.WriteFile(path, buf.Bytes(), 0o644)
}

// ExtractTiles writes every entry to dir. A tile that fails is logged and
// skipped; the number of written tiles is returned.
func ExtractTiles(ctx context.Context, dir string, entries []model.TileEntry, log logrus.FieldLogger) (int, error) {
	log = config.OrDiscard(log)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}
	n := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		path, err := WriteTilePNG(dir, e)
		if err != nil {
			log.WithField("tile", e.Tile).Warnf("failed to extract: %v", err)
			continue
		}
		log.WithField("tile", e.Tile).Debugf("wrote %s", path)
		n++
	}
	return n, nil
}
