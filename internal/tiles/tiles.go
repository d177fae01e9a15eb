// Package tiles resolves tile numbers to pictures from loose image folders
// and native ART, GRP and RFF containers.
package tiles

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dyuri/buildmap/internal/archive"
	"github.com/dyuri/buildmap/internal/config"
	"github.com/dyuri/buildmap/internal/model"
	"github.com/sirupsen/logrus"
)

// Kind is the type of a configured source.
type Kind int

const (
	KindFolder  Kind = iota // folder tree with loose images, ART files and archives
	KindArchive             // single GRP or RFF file
	KindART                 // single ART file
	KindImage               // single png/jpg file
)

func (k Kind) String() string {
	switch k {
	case KindArchive:
		return "archive"
	case KindART:
		return "art"
	case KindImage:
		return "image"
	default:
		return "folder"
	}
}

// DetectKind classifies a source path.
func DetectKind(path string) (Kind, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	switch {
	case info.IsDir():
		return KindFolder, nil
	case archive.IsArchive(path):
		return KindArchive, nil
	case isART(path):
		return KindART, nil
	case isImage(path):
		return KindImage, nil
	}
	return 0, fmt.Errorf("%s: not a folder, archive or image", path)
}

// Source is one configured tile source.
type Source struct {
	Path     string
	Priority int  // lower is consulted first, ties keep list order
	UserArt  bool // serves only the user art range, ahead of the other sources
}

// Options controls index construction.
type Options struct {
	Variant model.Variant

	// PreferLoose prefers loose images over ART tiles of the same number
	// within one source.
	PreferLoose bool

	UserArtFirst int
	UserArtLast  int

	// Required limits the index to these tiles. Nil indexes everything.
	// Tiles from UserArtStart on may fall back to names giving only the
	// index inside an ART file.
	Required []int

	Logger logrus.FieldLogger
}

// FromConfig derives the sources and options from the texture settings.
func FromConfig(t config.Textures, v model.Variant, log logrus.FieldLogger) ([]Source, Options) {
	var sources []Source
	for _, f := range t.Folders {
		sources = append(sources, Source{Path: f, Priority: 1})
	}
	if t.UsePriorityFolder && t.PriorityFolder != "" {
		p := 2
		if t.PriorityFirst {
			p = 0
		}
		sources = append(sources, Source{Path: t.PriorityFolder, Priority: p})
	}
	opts := Options{Variant: v, PreferLoose: t.PreferLooseImages, Logger: log}
	if t.UseUserArt && t.UserArtFolder != "" {
		sources = append(sources, Source{Path: t.UserArtFolder, UserArt: true})
		opts.UserArtFirst, opts.UserArtLast = t.UserArtFirst, t.UserArtLast
	}
	return sources, opts
}

// Index maps tile numbers to resolved tiles.
type Index struct {
	entries map[int]model.TileEntry
	palette *model.Palette
}

// Build scans all sources concurrently and merges them by priority. Source
// problems are reported, never returned; only cancellation fails the build.
func Build(ctx context.Context, sources []Source, opts Options) (*Index, *model.Report, error) {
	log := config.OrDiscard(opts.Logger)
	report := &model.Report{}

	scanned := make([]*sourceIndex, len(sources))
	errs := make([]error, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			scanned[i], errs[i] = scan(ctx, src, opts.Variant, log)
		}(i, src)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, nil, err
		}
	}

	order := make([]int, len(sources))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		sa, sb := sources[order[a]], sources[order[b]]
		if sa.UserArt != sb.UserArt {
			return sa.UserArt
		}
		return sa.Priority < sb.Priority
	})

	ix := &Index{entries: make(map[int]model.TileEntry)}
	hasART := false
	for _, i := range order {
		for _, p := range scanned[i].problems {
			report.Add(model.TableSource, i, model.ActionWarned, "%s: %s", sources[i].Path, p)
		}
		if ix.palette == nil && scanned[i].palette != nil {
			ix.palette = scanned[i].palette
		}
		hasART = hasART || len(scanned[i].art) > 0
	}
	if ix.palette == nil && hasART {
		log.Warn("no palette found, ART tiles can not be decoded")
		report.Add(model.TableSource, -1, model.ActionWarned, "no palette found, ART tiles skipped")
	}

	m := merger{ix: ix, opts: opts, log: log, report: report, want: wanted(opts.Required)}
	for _, i := range order {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		m.add(i, sources[i], scanned[i])
	}
	m.fallback(order, scanned)

	log.WithField("tiles", len(ix.entries)).Info("tile index built")
	return ix, report, nil
}

func wanted(required []int) map[int]bool {
	if required == nil {
		return nil
	}
	want := make(map[int]bool, len(required))
	for _, t := range required {
		want[t] = true
	}
	return want
}

type merger struct {
	ix     *Index
	opts   Options
	log    logrus.FieldLogger
	report *model.Report
	want   map[int]bool
}

// add takes the tiles of one source that no earlier source provided.
func (m *merger) add(pos int, src Source, si *sourceIndex) {
	numbers := make(map[int]bool)
	for t := range si.loose {
		numbers[t] = true
	}
	if m.ix.palette != nil {
		for t := range si.art {
			numbers[t] = true
		}
	}

	sorted := make([]int, 0, len(numbers))
	for t := range numbers {
		sorted = append(sorted, t)
	}
	sort.Ints(sorted)

	for _, t := range sorted {
		if _, done := m.ix.entries[t]; done {
			continue
		}
		if m.want != nil && !m.want[t] {
			continue
		}
		if src.UserArt && (t < m.opts.UserArtFirst || t > m.opts.UserArtLast) {
			continue
		}
		for _, c := range m.choices(si, t) {
			if e, ok := m.resolve(pos, t, c); ok {
				m.ix.entries[t] = e
				break
			}
		}
	}
}

// choices orders the candidates of one tile within a source.
func (m *merger) choices(si *sourceIndex, t int) []candidate {
	var out []candidate
	loose, hasLoose := si.loose[t]
	art, hasART := si.art[t]
	hasART = hasART && m.ix.palette != nil
	if hasLoose && (m.opts.PreferLoose || !hasART) {
		out = append(out, loose)
	}
	if hasART {
		out = append(out, art)
	}
	if hasLoose && !m.opts.PreferLoose && hasART {
		out = append(out, loose)
	}
	return out
}

// fallback fills required user art tiles from names that only give the
// index inside an ART file.
func (m *merger) fallback(order []int, scanned []*sourceIndex) {
	for _, t := range m.opts.Required {
		if t < UserArtStart {
			continue
		}
		if _, done := m.ix.entries[t]; done {
			continue
		}
		for _, i := range order {
			c, ok := scanned[i].userArt[t%256]
			if !ok {
				continue
			}
			if e, ok := m.resolve(i, t, c); ok {
				m.log.WithField("tile", t).Debugf("user art fallback %s", c.source.Path)
				m.ix.entries[t] = e
				break
			}
		}
	}
}

// resolve loads the pixels of a candidate.
func (m *merger) resolve(pos, t int, c candidate) (model.TileEntry, bool) {
	e := model.TileEntry{Tile: t, Source: c.source}
	if c.art != nil {
		anim := c.art.Anim
		e.Format = model.FormatIndexed
		e.Width, e.Height = c.art.Width, c.art.Height
		e.Data = c.art.RowMajor()
		e.Anim = &anim
		e.Palette = m.ix.palette
		return e, true
	}

	data, err := os.ReadFile(c.source.Path)
	if err == nil {
		var cfg image.Config
		var format string
		cfg, format, err = image.DecodeConfig(bytes.NewReader(data))
		if err == nil {
			e.Width, e.Height, e.Data = cfg.Width, cfg.Height, data
			e.Format = model.FormatPNG
			if format == "jpeg" {
				e.Format = model.FormatJPEG
			}
			return e, true
		}
	}
	m.log.WithField("tile", t).Warnf("unreadable image %s: %v", c.source.Path, err)
	m.report.Add(model.TableSource, pos, model.ActionWarned, "%s: %v", filepath.Base(c.source.Path), err)
	return e, false
}

// Lookup returns the tile, or false when no source provides it.
func (ix *Index) Lookup(tile int) (model.TileEntry, bool) {
	if ix == nil {
		return model.TileEntry{}, false
	}
	e, ok := ix.entries[tile]
	return e, ok
}

// Palette returns the palette used for ART tiles, nil if none was found.
func (ix *Index) Palette() *model.Palette { return ix.palette }

// Len returns the number of resolved tiles.
func (ix *Index) Len() int { return len(ix.entries) }

// Tiles returns the resolved tile numbers in ascending order.
func (ix *Index) Tiles() []int {
	out := make([]int, 0, len(ix.entries))
	for t := range ix.entries {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

// Manifest returns the entries of the given tiles, or of all tiles when
// none are given. Missing tiles are left out.
func (ix *Index) Manifest(tiles ...int) []model.TileEntry {
	if len(tiles) == 0 {
		tiles = ix.Tiles()
	}
	var out []model.TileEntry
	for _, t := range tiles {
		if e, ok := ix.entries[t]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Describe returns a short description of where a tile came from.
func Describe(e model.TileEntry) string {
	var sb strings.Builder
	sb.WriteString(e.Source.Path)
	if e.Source.Entry != "" {
		sb.WriteString(":" + e.Source.Entry)
	}
	fmt.Fprintf(&sb, " (%s, %dx%d)", e.Source.Kind, e.Width, e.Height)
	return sb.String()
}
