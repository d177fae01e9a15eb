package geometry

import (
	"math"

	"github.com/dyuri/buildmap/internal/model"
	"github.com/go-gl/mathgl/mgl64"
)

func (b *builder) level(s model.Sector, loops [][]model.Wall, sp *sectorPlanes, kind model.LevelKind) {
	lv := s.Level(kind)
	log := b.log.WithField("sector", s.Index)
	if b.m.Header.SupportsTROR() && lv.Stat.TRORHidden() {
		log.Debugf("%s hidden by TROR", kind)
		return
	}

	poly := make([][]mgl64.Vec2, len(loops))
	for i, loop := range loops {
		for _, w := range loop {
			poly[i] = append(poly[i], scaled2(w))
		}
	}
	tris := Triangulate(poly)
	if len(tris) == 0 {
		log.Warnf("%s has no area", kind)
		return
	}

	sky := lv.Stat.Parallax()
	plane := sp.level(kind)
	tile := int(lv.Picnum)
	b.use(tile)
	w, h := b.tileSize(tile)
	origin := Origin{Kind: OriginSector, Index: s.Index, Sector: s.Index, Part: kind.String()}
	obj := b.levelObject(s, kind, sky, origin)

	for _, t := range tris {
		verts := make([]mgl64.Vec3, 3)
		uvs := make([]mgl64.Vec2, 3)
		for i, p := range t {
			v := mgl64.Vec3{p[0], p[1], plane.HeightAt(p[0], p[1])}
			verts[i] = toScene(v)
			if sky && !b.opts.SplitSky {
				uvs[i] = b.dome.uv(v)
			} else {
				uvs[i] = sectorUV(lv, sp, p[0], p[1], w, h)
			}
		}
		// floors face up, ceilings face down
		flat := []mgl64.Vec2{verts[0].Vec2(), verts[1].Vec2(), verts[2].Vec2()}
		if (kind == model.Floor) != (signedArea(flat) > 0) {
			verts[1], verts[2] = verts[2], verts[1]
			uvs[1], uvs[2] = uvs[2], uvs[1]
		}
		obj.Mesh.addFace(verts, Face{
			UVs:    uvs,
			Colors: b.shadeColors(int(lv.Shade), 3),
			Tile:   tile,
			Shade:  int(lv.Shade),
			Sky:    sky,
			Origin: origin,
		})
	}
}

// levelObject picks the object a floor or ceiling is added to.
func (b *builder) levelObject(s model.Sector, kind model.LevelKind, sky bool, origin Origin) *Object {
	toSky := sky && b.opts.SplitSky
	if b.opts.SplitSectors {
		name := b.name("Sector_%03d_%s", s.Index, kind)
		collection := CollectionMap
		if toSky {
			name += "_Sky"
			collection = CollectionSky
		}
		return b.object(name, collection, &origin, s.Fields())
	}
	return b.mergedObject(toSky)
}

func (b *builder) mergedObject(sky bool) *Object {
	if sky {
		return b.object(b.name("MapGeometry_Sky"), CollectionSky, nil, nil)
	}
	return b.object(b.name("MapGeometry"), CollectionMap, nil, nil)
}

// sectorUV maps a point of a floor or ceiling, in scaled Build space, to
// texture space. A tile repeats every 32 scaled units per 32 pixels, halved
// by the expansion bit.
func sectorUV(lv model.Level, sp *sectorPlanes, x, y, w, h float64) mgl64.Vec2 {
	exp := lv.Stat.Expansion()
	ux, uy := 32/w*exp, 32/h*exp
	panX, panY := float64(lv.XPanning)/256, -float64(lv.YPanning)/256
	fx, fy := 1.0, 1.0
	if lv.Stat.SwapXY() != lv.Stat.FlipX() {
		fx = -1
	}
	if lv.Stat.SwapXY() != lv.Stat.FlipY() {
		fy = -1
	}

	a, c := x, y
	if lv.Stat.AlignFirstWall() {
		v := mgl64.Vec2{x - sp.start[0], sp.start[1] - y}
		v = mgl64.Rotate2D(sp.angle).Mul2x1(v)
		// stretch along the slope so the texture keeps its size
		plane := sp.level(lv.Kind)
		dz := plane.HeightAt(x, y) - plane.Z
		a, c = v[0], math.Copysign(math.Hypot(dz, v[1]), v[1])
	}
	if lv.Stat.SwapXY() {
		a, c = c, a
	}
	return mgl64.Vec2{a*fx*ux + panX, c*fy*uy + panY}
}
