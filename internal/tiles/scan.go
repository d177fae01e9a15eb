package tiles

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/djherbis/times"
	"github.com/dyuri/buildmap/internal/archive"
	"github.com/dyuri/buildmap/internal/model"
	"github.com/sirupsen/logrus"
)

// candidate is a tile offered by one source.
type candidate struct {
	source model.TileSource
	art    *archive.Tile // nil for loose images
}

// sourceIndex is everything one source offers.
type sourceIndex struct {
	loose    map[int]candidate
	art      map[int]candidate
	userArt  map[int]candidate // by index in ART file
	palette  *model.Palette
	problems []string
}

func newSourceIndex() *sourceIndex {
	return &sourceIndex{
		loose:   make(map[int]candidate),
		art:     make(map[int]candidate),
		userArt: make(map[int]candidate),
	}
}

func (si *sourceIndex) warn(log logrus.FieldLogger, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Warn(msg)
	si.problems = append(si.problems, msg)
}

// scanner walks one source.
type scanner struct {
	src     Source
	palette string // palette file name
	sixBit  bool
	log     logrus.FieldLogger
	out     *sourceIndex
}

func scan(ctx context.Context, src Source, v model.Variant, log logrus.FieldLogger) (*sourceIndex, error) {
	s := &scanner{
		src:     src,
		palette: archive.PaletteDAT,
		sixBit:  true,
		log:     log.WithField("source", src.Path),
		out:     newSourceIndex(),
	}
	if v == model.VariantBlood {
		s.palette, s.sixBit = archive.PaletteBlood, false
	}

	kind, err := DetectKind(src.Path)
	if err != nil {
		s.out.warn(s.log, "source unavailable: %v", err)
		return s.out, nil
	}
	switch kind {
	case KindFolder:
		err = s.walk(ctx)
	case KindArchive:
		s.archive(src.Path)
	default:
		s.file(src.Path)
	}
	if err != nil {
		return nil, err
	}
	s.log.Debugf("%d loose, %d ART tiles", len(s.out.loose), len(s.out.art))
	return s.out, nil
}

// walk visits the folder tree breadth first. In every folder the plain files
// come first, then the archives, both sorted by name, then the subfolders.
func (s *scanner) walk(ctx context.Context) error {
	queue := []string{s.src.Path}
	seen := make(map[string]bool)
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		dir := queue[0]
		queue = queue[1:]
		if abs, err := filepath.Abs(dir); err == nil {
			if seen[abs] {
				continue
			}
			seen[abs] = true
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			s.out.warn(s.log, "failed to read folder: %v", err)
			continue
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
		})

		var archives, subdirs []string
		for _, e := range entries {
			p := filepath.Join(dir, e.Name())
			switch {
			case e.IsDir():
				subdirs = append(subdirs, p)
			case archive.IsArchive(e.Name()):
				archives = append(archives, p)
			default:
				s.file(p)
			}
		}
		for _, p := range archives {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.archive(p)
		}
		queue = append(queue, subdirs...)
	}
	return nil
}

// file handles one plain file: a loose image, an ART file or a palette.
func (s *scanner) file(path string) {
	name := filepath.Base(path)
	switch {
	case isImage(name):
		s.image(path)
	case isART(name):
		data, err := os.ReadFile(path)
		if err != nil {
			s.out.warn(s.log, "failed to read ART file: %v", err)
			return
		}
		s.parseART(data, model.TileSource{
			Root:    s.src.Path,
			Path:    path,
			Kind:    model.SourceART,
			ModTime: modTime(path),
		})
	case strings.EqualFold(name, s.palette) && s.out.palette == nil:
		data, err := os.ReadFile(path)
		if err != nil {
			s.out.warn(s.log, "failed to read palette: %v", err)
			return
		}
		s.setPalette(data, path)
	}
}

func (s *scanner) image(path string) {
	info, err := os.Stat(path)
	if err != nil {
		s.out.warn(s.log, "failed to stat image: %v", err)
		return
	}
	c := candidate{source: model.TileSource{
		Root:    s.src.Path,
		Path:    path,
		Kind:    model.SourceLoose,
		Size:    info.Size(),
		ModTime: modTime(path),
	}}
	if tile, ok := TileNumber(path); ok {
		if _, dup := s.out.loose[tile]; !dup {
			s.out.loose[tile] = c
		}
	}
	if idx, ok := userArtIndex(path); ok {
		if _, dup := s.out.userArt[idx]; !dup {
			s.out.userArt[idx] = c
		}
	}
}

// archive reads the palette and ART entries of a GRP or RFF archive. A
// malformed archive contributes nothing.
func (s *scanner) archive(path string) {
	a, err := archive.Open(path)
	if err != nil {
		s.out.warn(s.log, "skipping archive: %v", err)
		return
	}
	mtime := modTime(path)
	for _, e := range a.Entries {
		isPalette := strings.EqualFold(e.Name, s.palette)
		if !isART(e.Name) && !(isPalette && s.out.palette == nil) {
			continue
		}
		data, err := a.Read(e)
		if err != nil {
			s.out.warn(s.log, "failed to read %s: %v", e.Name, err)
			continue
		}
		if isPalette {
			s.setPalette(data, path+":"+e.Name)
			continue
		}
		src := model.TileSource{
			Root:       s.src.Path,
			Path:       path,
			Entry:      e.Name,
			Kind:       a.Kind,
			Offset:     e.Offset,
			ModTime:    e.ModTime,
			RFFFlags:   e.Flags,
			RFFVersion: a.Version,
		}
		if src.ModTime.IsZero() {
			src.ModTime = mtime
		}
		s.parseART(data, src)
	}
}

// parseART adds the tiles of an ART file. src.Offset is the position of
// the ART data inside src.Path.
func (s *scanner) parseART(data []byte, src model.TileSource) {
	name := src.Path
	if src.Entry != "" {
		name += ":" + src.Entry
	}
	art, err := archive.ParseART(data)
	if err != nil {
		s.out.warn(s.log, "skipping %s: %v", name, err)
		return
	}
	if art.Truncated {
		s.out.warn(s.log, "%s ends early, tiles after %d are missing", name, art.FirstTile+len(art.Tiles)-1)
	}
	base := src.Offset
	for i := range art.Tiles {
		t := &art.Tiles[i]
		if _, dup := s.out.art[t.Number]; dup {
			continue
		}
		c := candidate{source: src, art: t}
		c.source.Offset = base + t.Offset
		c.source.Size = int64(len(t.Pixels))
		s.out.art[t.Number] = c
	}
	s.log.Debugf("%s: tiles %d-%d", name, art.FirstTile, art.LastTile)
}

func (s *scanner) setPalette(data []byte, name string) {
	pal, err := archive.ParsePalette(data, s.sixBit)
	if err != nil {
		s.log.Debugf("ignoring palette %s: %v", name, err)
		return
	}
	s.out.palette = pal
	s.log.Infof("using palette %s", name)
}

func modTime(path string) time.Time {
	ts, err := times.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return ts.ModTime()
}
