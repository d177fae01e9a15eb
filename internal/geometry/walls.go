package geometry

import (
	"math"

	"github.com/dyuri/buildmap/internal/model"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
)

// heightFunc returns a height in scaled Build space at (x, y).
type heightFunc func(x, y float64) float64

// wallPart is one vertical strip of a wall between two heights.
type wallPart struct {
	part   string // "", Bot, Mid or Top
	bottom heightFunc
	top    heightFunc
	base   float64 // height of the bottom level at the wall start
	align  float64 // height the texture is anchored to
	tile   int
	sky    bool
}

// wallParts splits a wall into the parts visible from its own sector. A
// one-sided wall spans floor to ceiling. A two-sided wall has a lower step
// up to the neighbor's floor, an optional masked middle across the opening
// and an upper step down to the neighbor's ceiling.
func (b *builder) wallParts(s model.Sector, sp *sectorPlanes, w model.Wall) []wallPart {
	floor, ceil := sp.level(model.Floor), sp.level(model.Ceiling)
	ownFloor, ownCeil := s.Level(model.Floor), s.Level(model.Ceiling)

	var nb *sectorPlanes
	var nbSector model.Sector
	if w.HasNeighbor() && w.NextSector >= 0 {
		if p, ok := b.sectorPlanes(int(w.NextSector)); ok {
			nb = p
			nbSector, _ = b.m.Sector(int(w.NextSector))
		}
	}
	start := scaled2(w)

	if nb == nil {
		align := ceil.Z
		if w.Cstat.AlignBottom() {
			align = floor.Z
		}
		return []wallPart{{
			bottom: floor.HeightAt,
			top:    ceil.HeightAt,
			base:   floor.Z,
			align:  align,
			tile:   int(w.Picnum),
		}}
	}

	nbFloor, nbCeil := nb.level(model.Floor), nb.level(model.Ceiling)
	var parts []wallPart

	lower := wallPart{
		part:   "Bot",
		bottom: floor.HeightAt,
		top:    nbFloor.HeightAt,
		base:   floor.Z,
		align:  nbFloor.Z,
		tile:   int(w.Picnum),
		sky:    ownFloor.Stat.Parallax() && nbSector.Level(model.Floor).Stat.Parallax(),
	}
	if w.Cstat.AlignBottom() {
		lower.align = ceil.Z
	}
	if w.Cstat.BottomSwap() {
		if partner, ok := b.m.Wall(int(w.NextWall)); ok {
			lower.tile = int(partner.Picnum)
		}
	}
	parts = append(parts, lower)

	if w.Cstat.Masked() {
		bottom := func(x, y float64) float64 { return math.Min(floor.HeightAt(x, y), nbFloor.HeightAt(x, y)) }
		top := func(x, y float64) float64 { return math.Max(ceil.HeightAt(x, y), nbCeil.HeightAt(x, y)) }
		mid := wallPart{
			part:   "Mid",
			bottom: bottom,
			top:    top,
			base:   bottom(start[0], start[1]),
			align:  top(start[0], start[1]),
			tile:   int(w.OverPicnum),
		}
		if w.Cstat.AlignBottom() {
			mid.align = mid.base
		}
		parts = append(parts, mid)
	}

	upper := wallPart{
		part:   "Top",
		bottom: nbCeil.HeightAt,
		top:    ceil.HeightAt,
		base:   nbCeil.Z,
		align:  nbCeil.Z,
		tile:   int(w.Picnum),
		sky:    ownCeil.Stat.Parallax() && nbSector.Level(model.Ceiling).Stat.Parallax(),
	}
	if w.Cstat.AlignBottom() {
		upper.align = ceil.Z
	}
	parts = append(parts, upper)
	return parts
}

// clipWall returns the outline of a part between start and end, cut where
// the top edge crosses below the bottom edge. Heights grow downwards.
func clipWall(p wallPart, start, end mgl64.Vec2) []mgl64.Vec3 {
	a := mgl64.Vec3{start[0], start[1], p.bottom(start[0], start[1])}
	b := mgl64.Vec3{end[0], end[1], p.bottom(end[0], end[1])}
	c := mgl64.Vec3{end[0], end[1], p.top(end[0], end[1])}
	d := mgl64.Vec3{start[0], start[1], p.top(start[0], start[1])}

	startHeight := a[2] - d[2]
	endHeight := b[2] - c[2]
	cross := func() mgl64.Vec3 {
		t := startHeight / (startHeight - endHeight)
		return a.Add(b.Sub(a).Mul(t))
	}
	switch {
	case startHeight > 0 && endHeight > 0:
		return []mgl64.Vec3{a, b, c, d}
	case startHeight > 0:
		return []mgl64.Vec3{a, cross(), d}
	case endHeight > 0:
		return []mgl64.Vec3{cross(), b, c}
	}
	return nil
}

// wallUV computes one texture coordinate of a wall. The input is made
// relative to the align position, optionally flipped, scaled from repeat
// units to the tile size and offset by panning.
func wallUV(in, align, flip, repeat, pan, dim, panDiv, panSign, pixFactor, flipPlus float64, flipFirst bool) float64 {
	out := in - align
	if flipFirst && flip < 0 {
		out = out*flip + flipPlus
	}
	out *= repeat * 8 * pixFactor
	out /= dim
	out += pan / panDiv * panSign
	if !flipFirst && flip < 0 {
		out = out*flip + flipPlus
	}
	return out
}

func flipFactor(flipped bool) float64 {
	if flipped {
		return -1
	}
	return 1
}

func (b *builder) wall(s model.Sector, sp *sectorPlanes, w model.Wall, n int) {
	next, _ := b.m.Wall(int(w.Point2))
	start, end := scaled2(w), scaled2(next)
	length := end.Sub(start).Len()
	log := b.log.WithFields(logrus.Fields{"sector": s.Index, "wall": w.Index})
	if length == 0 {
		log.Debug("zero length wall")
		return
	}

	for _, p := range b.wallParts(s, sp, w) {
		outline := clipWall(p, start, end)
		if outline == nil {
			continue
		}
		b.use(p.tile)
		tw, th := b.tileSize(p.tile)

		verts := make([]mgl64.Vec3, len(outline))
		uvs := make([]mgl64.Vec2, len(outline))
		for i, v := range outline {
			verts[i] = toScene(v)
			if p.sky && !b.opts.SplitSky {
				uvs[i] = b.dome.uv(v)
				continue
			}
			dist := v.Vec2().Sub(start).Len()
			uvs[i] = mgl64.Vec2{
				wallUV(dist/length, 0, flipFactor(w.Cstat.FlipX()), float64(w.XRepeat), float64(w.XPanning), tw, tw, 1, 1, 1, true),
				wallUV(p.base-v[2], p.base-p.align, flipFactor(w.Cstat.FlipY()), float64(w.YRepeat), float64(w.YPanning), th, 256, -1, 0.5, 0, false),
			}
		}

		origin := Origin{Kind: OriginWall, Index: w.Index, Sector: s.Index, Part: p.part}
		obj := b.wallObject(s, w, n, p, origin)
		obj.Mesh.addFace(verts, Face{
			UVs:    uvs,
			Colors: b.shadeColors(int(w.Shade), len(verts)),
			Tile:   p.tile,
			Shade:  int(w.Shade),
			Sky:    p.sky,
			Origin: origin,
		})
	}
}

// wallObject picks the object a wall part is added to. Split walls and sky
// parts split to the sky collection get one object per part.
func (b *builder) wallObject(s model.Sector, w model.Wall, n int, p wallPart, origin Origin) *Object {
	toSky := p.sky && b.opts.SplitSky
	if b.opts.SplitWalls || toSky {
		name := b.name("Sector_%03d_SctWall_%03d", s.Index, n)
		if p.part != "" {
			name += "_" + p.part
		}
		collection := CollectionWalls
		if toSky {
			collection = CollectionSky
		}
		return b.object(name, collection, &origin, w.Fields())
	}
	if b.opts.SplitSectors {
		so := origin
		so.Kind, so.Index, so.Part = OriginSector, s.Index, ""
		return b.object(b.name("Sector_%03d", s.Index), CollectionMap, &so, s.Fields())
	}
	return b.mergedObject(false)
}
