package geometry

import (
	"math"

	"github.com/dyuri/buildmap/internal/model"
	"github.com/go-gl/mathgl/mgl64"
)

// Pixels per local sprite unit. A tile of 64 pixels spans two units.
const spritePixels = 32.0

// Category classifies a sprite for collection and mesh building.
func Category(v model.Variant, sp model.Sprite) SpriteCategory {
	if IsEffect(v, int(sp.Picnum)) {
		return CategoryEffect
	}
	switch sp.Cstat.Kind() {
	case model.WallSprite:
		return CategoryWall
	case model.FloorSprite:
		return CategoryFloor
	case model.SlopeSprite:
		return CategoryOther
	}
	return CategoryFace
}

func spriteKey(sp model.Sprite) SpriteMeshKey {
	return SpriteMeshKey{
		Tile:     int(sp.Picnum),
		FlipX:    sp.Cstat.FlipX(),
		FlipY:    sp.Cstat.FlipY(),
		Floor:    sp.Cstat.Kind() == model.FloorSprite,
		Centered: sp.Cstat.RealCentered(),
	}
}

// spriteQuad builds the unit mesh of a sprite key. Upright sprites stand in
// the local YZ plane with the bottom edge at the origin unless centered;
// floor sprites lie in XY. The tile center offset shifts upright quads.
func (b *builder) spriteQuad(key SpriteMeshKey, sp model.Sprite) Mesh {
	w, h := b.tileSize(key.Tile)
	sx, sy := w/64, h/64

	var verts []mgl64.Vec3
	switch {
	case key.Floor:
		verts = []mgl64.Vec3{{-sy, -sx, 0}, {sy, -sx, 0}, {sy, sx, 0}, {-sy, sx, 0}}
	case key.Centered:
		verts = []mgl64.Vec3{{0, sx, -sy}, {0, sx, sy}, {0, -sx, sy}, {0, -sx, -sy}}
	default:
		verts = []mgl64.Vec3{{0, sx, 0}, {0, sx, 2 * sy}, {0, -sx, 2 * sy}, {0, -sx, 0}}
	}
	if !key.Floor && b.tiles != nil {
		if e, ok := b.tiles.Lookup(key.Tile); ok {
			ox, oy := e.Offset()
			shift := mgl64.Vec3{0, float64(ox) / spritePixels, float64(oy) / spritePixels}
			for i := range verts {
				verts[i] = verts[i].Add(shift)
			}
		}
	}

	fx, fy := 0.0, 0.0
	if key.FlipX {
		fx = 1
	}
	if key.FlipY {
		fy = 1
	}
	var m Mesh
	m.addFace(verts, Face{
		UVs:    []mgl64.Vec2{{1 - fx, fy}, {1 - fx, 1 - fy}, {fx, 1 - fy}, {fx, fy}},
		Tile:   key.Tile,
		Shade:  int(sp.Shade),
		Origin: Origin{Kind: OriginSprite, Index: sp.Index, Sector: int(sp.SectNum)},
	})
	return m
}

// spriteScale converts repeat values to object scale. Pickups listed as
// fixed size use their in-game scale when enabled.
func (b *builder) spriteScale(sp model.Sprite, floor bool) mgl64.Vec3 {
	if b.opts.ScaleSpritesAsInGame {
		if s, ok := inGameScale(int(sp.Picnum)); ok {
			return mgl64.Vec3{s, s, s}
		}
	}
	x, y := float64(sp.XRepeat)/64, float64(sp.YRepeat)/64
	if floor {
		return mgl64.Vec3{y, x, x}
	}
	return mgl64.Vec3{x, x, y}
}

func (b *builder) sprite(scene *Scene, sp model.Sprite, meshes map[SpriteMeshKey]int) {
	name := b.name("Sprite_%03d", sp.Index)
	key := spriteKey(sp)
	mesh, ok := meshes[key]
	if !ok {
		mesh = len(scene.SpriteMeshes)
		meshes[key] = mesh
		scene.SpriteMeshes = append(scene.SpriteMeshes, SpriteMesh{Name: name, Key: key, Mesh: b.spriteQuad(key, sp)})
	}
	b.use(key.Tile)

	cat := Category(b.m.Header.Variant, sp)
	rot := Angle(sp.Ang)
	loc := Position(sp.X, sp.Y, sp.Z)
	if sp.Cstat.Kind() == model.WallSprite && b.opts.WallSpriteOffset != 0 {
		loc = loc.Add(mgl64.Vec3{math.Cos(rot), math.Sin(rot), 0}.Mul(b.opts.WallSpriteOffset))
	}

	inst := SpriteInstance{
		Name:       name,
		Index:      sp.Index,
		Sector:     int(sp.SectNum),
		Category:   cat,
		Collection: b.opts.ObjectPrefix + cat.Collection(),
		Mesh:       mesh,
		Location:   loc,
		Rotation:   rot,
		Scale:      b.spriteScale(sp, key.Floor),
		Tile:       key.Tile,
		Label:      Label(b.m.Header.Variant, key.Tile),
		Shade:      int(sp.Shade),
		Color:      ShadeColor(int(sp.Shade)),
		Fields:     sp.Fields(),
	}
	scene.Sprites = append(scene.Sprites, inst)
	b.log.WithField("sprite", sp.Index).Debugf("%s sprite, tile %d", cat, key.Tile)
}

func (b *builder) spawn() Spawn {
	h := b.m.Header
	return Spawn{
		Name:     b.name("Spawn"),
		Sector:   int(h.CurSector),
		Location: Position(h.PosX, h.PosY, h.PosZ),
		Rotation: Angle(h.Angle),
		Fields:   h.Fields(),
	}
}
