// Package geometry reconstructs a renderable scene from decoded map tables:
// sector floors and ceilings, wall parts, sprites and the spawn point.
package geometry

import (
	"context"
	"fmt"
	"math"

	"github.com/dyuri/buildmap/internal/config"
	"github.com/dyuri/buildmap/internal/model"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"
)

// Options configures scene reconstruction
type Options struct {
	ObjectPrefix         string
	SplitSectors         bool    // one object per sector level
	SplitWalls           bool    // one object per wall part
	SplitSky             bool    // parallax surfaces go to the sky collection
	ScaleSpritesAsInGame bool    // fixed scale for pickups
	WallSpriteOffset     float64 // scene units along the sprite's facing
	ShadeToVertexColors  bool

	// Material request flags passed through to the backend
	ReuseMaterials      bool
	PixelShading        bool
	ProceduralMaterials bool
	BackFaceCulling     bool

	// IgnoreErrors skips sectors whose walls do not form closed loops
	// instead of failing.
	IgnoreErrors bool
	Logger       logrus.FieldLogger
}

// FromConfig copies the geometry related settings.
func FromConfig(o config.Options, log logrus.FieldLogger) Options {
	return Options{
		ObjectPrefix:         o.ObjectPrefix,
		SplitSectors:         o.SplitSectors,
		SplitWalls:           o.SplitWalls,
		SplitSky:             o.SplitSky,
		ScaleSpritesAsInGame: o.ScaleSpritesAsInGame,
		WallSpriteOffset:     o.WallSpriteOffset,
		ShadeToVertexColors:  o.ShadeToVertexColors,
		ReuseMaterials:       o.ReuseMaterials,
		PixelShading:         o.PixelShading,
		ProceduralMaterials:  o.ProceduralMaterials,
		BackFaceCulling:      o.BackFaceCulling,
		IgnoreErrors:         o.IgnoreMapErrors,
		Logger:               log,
	}
}

type builder struct {
	m      *model.Map
	tiles  Tiles
	opts   Options
	log    logrus.FieldLogger
	report *model.Report

	objects []*Object
	byName  map[string]*Object
	planes  map[int]*sectorPlanes
	used    map[int]bool
	dome    skyDome
}

// Build reconstructs the scene of m. Neighbor links are taken as they are,
// so m should already have gone through a neighbor strategy. In strict mode
// the first sector that cannot be traced fails the build; otherwise it is
// skipped and reported. A canceled context discards all work.
func Build(ctx context.Context, m *model.Map, tiles Tiles, opts Options) (*Scene, *model.Report, error) {
	b := &builder{
		m:      m,
		tiles:  tiles,
		opts:   opts,
		log:    config.OrDiscard(opts.Logger),
		report: &model.Report{},
		byName: make(map[string]*Object),
		planes: make(map[int]*sectorPlanes),
		used:   make(map[int]bool),
		dome:   newSkyDome(m),
	}
	scene := &Scene{}

	for _, s := range m.Sectors {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		ok, err := b.sector(s)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			scene.Sectors++
		}
	}

	meshes := make(map[SpriteMeshKey]int)
	for _, sp := range m.Sprites {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		b.sprite(scene, sp, meshes)
	}
	scene.Spawn = b.spawn()

	for _, o := range b.objects {
		if o.Mesh.Empty() {
			continue
		}
		scene.Objects = append(scene.Objects, *o)
	}
	scene.Materials = b.materials()

	b.log.WithFields(logrus.Fields{
		"sectors": scene.Sectors,
		"objects": len(scene.Objects),
		"sprites": len(scene.Sprites),
	}).Debug("scene built")
	return scene, b.report, nil
}

func (b *builder) name(format string, args ...any) string {
	return b.opts.ObjectPrefix + fmt.Sprintf(format, args...)
}

// object returns the named object, creating it on first use.
func (b *builder) object(name, collection string, origin *Origin, fields []model.Field) *Object {
	if o, ok := b.byName[name]; ok {
		return o
	}
	o := &Object{
		Name:       name,
		Collection: b.opts.ObjectPrefix + collection,
		Origin:     origin,
		Fields:     fields,
	}
	b.objects = append(b.objects, o)
	b.byName[name] = o
	return o
}

// sectorPlanes returns the cached planes of a sector by index.
func (b *builder) sectorPlanes(index int) (*sectorPlanes, bool) {
	if sp, ok := b.planes[index]; ok {
		return sp, sp != nil
	}
	s, ok := b.m.Sector(index)
	if !ok {
		b.planes[index] = nil
		return nil, false
	}
	sp, err := newSectorPlanes(b.m, s)
	if err != nil {
		b.planes[index] = nil
		return nil, false
	}
	b.planes[index] = sp
	return sp, true
}

func (b *builder) sector(s model.Sector) (bool, error) {
	log := b.log.WithField("sector", s.Index)
	loops, err := TraceLoops(b.m, s)
	if err == nil {
		_, ok := b.sectorPlanes(s.Index)
		if !ok {
			err = fmt.Errorf("%w: sector %d: no first wall", ErrOpenLoop, s.Index)
		}
	}
	if err != nil {
		if !b.opts.IgnoreErrors {
			return false, err
		}
		b.report.Add(model.TableSector, s.Index, model.ActionSkipped, "%v", err)
		log.Warn(err)
		return false, nil
	}
	planes, _ := b.sectorPlanes(s.Index)

	for _, kind := range model.Levels {
		b.level(s, loops, planes, kind)
	}
	n := 0
	for _, loop := range loops {
		for _, w := range loop {
			b.wall(s, planes, w, n)
			n++
		}
	}
	log.WithField("loops", len(loops)).Debug("sector built")
	return true, nil
}

// shadeColors returns per-corner colors when vertex colors are enabled.
func (b *builder) shadeColors(shade int, n int) []mgl64.Vec4 {
	if !b.opts.ShadeToVertexColors {
		return nil
	}
	c := ShadeColor(shade)
	out := make([]mgl64.Vec4, n)
	for i := range out {
		out[i] = c
	}
	return out
}

// skyDome maps parallax surfaces left in place onto a sphere around the
// map center, seen from the spawn height.
type skyDome struct {
	center mgl64.Vec2 // scaled Build space
	eye    float64
}

func newSkyDome(m *model.Map) skyDome {
	d := skyDome{eye: float64(m.Header.PosZ) / model.ZScale}
	if len(m.Walls) == 0 {
		return d
	}
	lo := mgl64.Vec2{math.Inf(1), math.Inf(1)}
	hi := mgl64.Vec2{math.Inf(-1), math.Inf(-1)}
	for _, w := range m.Walls {
		p := scaled2(w)
		lo = mgl64.Vec2{math.Min(lo[0], p[0]), math.Min(lo[1], p[1])}
		hi = mgl64.Vec2{math.Max(hi[0], p[0]), math.Max(hi[1], p[1])}
	}
	d.center = lo.Add(hi).Mul(0.5)
	return d
}

// uv returns azimuth and elevation, both mapped to [0, 1].
func (d skyDome) uv(v mgl64.Vec3) mgl64.Vec2 {
	dx, dy := v[0]-d.center[0], d.center[1]-v[1]
	u := math.Atan2(dy, dx)/(2*math.Pi) + 0.5
	elev := math.Atan2(d.eye-v[2], math.Hypot(dx, dy))
	return mgl64.Vec2{u, clamp(0.5+elev/math.Pi, 0, 1)}
}
