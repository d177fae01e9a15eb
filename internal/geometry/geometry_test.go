package geometry

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/dyuri/buildmap/internal/model"
	"github.com/go-gl/mathgl/mgl64"
)

const eps = 1e-9

type fakeTiles map[int]model.TileEntry

func (f fakeTiles) Lookup(tile int) (model.TileEntry, bool) {
	e, ok := f[tile]
	return e, ok
}

// addRoom appends a square sector from x0 to x1 and 0 to 1024 with walls in
// Build (clockwise) order and returns its index.
func addRoom(m *model.Map, x0, x1, floorZ, ceilZ int32) int {
	s := len(m.Sectors)
	base := len(m.Walls)
	m.Sectors = append(m.Sectors, model.Sector{
		Index:    s,
		WallPtr:  int16(base),
		WallNum:  4,
		FloorZ:   floorZ,
		CeilingZ: ceilZ,
	})
	pts := [][2]int32{{x0, 0}, {x1, 0}, {x1, 1024}, {x0, 1024}}
	for i, p := range pts {
		m.Walls = append(m.Walls, model.Wall{
			Index:      base + i,
			Sector:     s,
			X:          p[0],
			Y:          p[1],
			Point2:     uint16(base + (i+1)%4),
			NextWall:   -1,
			NextSector: -1,
			XRepeat:    8,
			YRepeat:    8,
		})
	}
	return s
}

func link(m *model.Map, a, b int) {
	m.Walls[a].NextWall, m.Walls[a].NextSector = int16(b), int16(m.Walls[b].Sector)
	m.Walls[b].NextWall, m.Walls[b].NextSector = int16(a), int16(m.Walls[a].Sector)
}

// twoRooms has a tall room 0 next to room 1 with a raised floor and a
// lowered ceiling, joined by walls 1 and 7.
func twoRooms() *model.Map {
	m := &model.Map{}
	addRoom(m, 0, 1024, 0, -16384)
	addRoom(m, 1024, 2048, -4096, -8192)
	link(m, 1, 7)
	m.Header.NumSectors, m.Header.NumWalls = 2, 8
	m.Header.PosX, m.Header.PosY, m.Header.PosZ, m.Header.Angle = 512, 512, -8192, 512
	return m
}

func build(t *testing.T, m *model.Map, tiles Tiles, opts Options) *Scene {
	t.Helper()
	scene, report, err := Build(context.Background(), m, tiles, opts)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !report.Empty() {
		t.Fatalf("unexpected report: %v", report)
	}
	return scene
}

func normal(o *Object, f Face) mgl64.Vec3 {
	a, b, c := o.Mesh.Vertices[f.Indices[0]], o.Mesh.Vertices[f.Indices[1]], o.Mesh.Vertices[f.Indices[2]]
	return b.Sub(a).Cross(c.Sub(a))
}

// TestTraceLoops tests loop detection including an island
func TestTraceLoops(t *testing.T) {
	m := &model.Map{}
	addRoom(m, 0, 4096, 0, -8192)
	// island inside sector 0
	for i, p := range [][2]int32{{1024, 256}, {1024, 512}, {2048, 512}, {2048, 256}} {
		m.Walls = append(m.Walls, model.Wall{Index: 4 + i, X: p[0], Y: p[1], Point2: uint16(4 + (i+1)%4), NextWall: -1, NextSector: -1})
	}
	m.Sectors[0].WallNum = 8

	loops, err := TraceLoops(m, m.Sectors[0])
	if err != nil {
		t.Fatalf("TraceLoops: %v", err)
	}
	if len(loops) != 2 || len(loops[0]) != 4 || len(loops[1]) != 4 {
		t.Fatalf("loops = %d, want 2 of 4 walls", len(loops))
	}
	if loops[1][0].Index != 4 {
		t.Errorf("second loop starts at %d, want 4", loops[1][0].Index)
	}
}

// addPolygon appends a one-loop sector with the given corners and returns
// its index.
func addPolygon(m *model.Map, pts [][2]int32) int {
	s := len(m.Sectors)
	base := len(m.Walls)
	m.Sectors = append(m.Sectors, model.Sector{Index: s, WallPtr: int16(base), WallNum: int16(len(pts)), CeilingZ: -8192})
	for i, p := range pts {
		m.Walls = append(m.Walls, model.Wall{
			Index:      base + i,
			Sector:     s,
			X:          p[0],
			Y:          p[1],
			Point2:     uint16(base + (i+1)%len(pts)),
			NextWall:   -1,
			NextSector: -1,
			XRepeat:    8,
			YRepeat:    8,
		})
	}
	return s
}

// regular returns the corners of a regular n-gon around (1024, 1024).
func regular(n int) [][2]int32 {
	pts := make([][2]int32, n)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / float64(n)
		pts[i] = [2]int32{int32(math.Round(1024 + 1024*math.Cos(a))), int32(math.Round(1024 + 1024*math.Sin(a)))}
	}
	return pts
}

// TestSectorShapes tests loop closure and triangulation of convex and
// concave sectors with 3 to 8 walls
func TestSectorShapes(t *testing.T) {
	tests := []struct {
		name string
		pts  [][2]int32
	}{
		{"triangle", [][2]int32{{0, 0}, {1024, 0}, {512, 1024}}},
		{"dart", [][2]int32{{0, 0}, {2048, 1024}, {0, 2048}, {512, 1024}}},
		{"pentagon", regular(5)},
		{"hexagon", regular(6)},
		{"L", [][2]int32{{0, 0}, {2048, 0}, {2048, 1024}, {1024, 1024}, {1024, 2048}, {0, 2048}}},
		{"heptagon", regular(7)},
		{"octagon", regular(8)},
		{"U", [][2]int32{{0, 0}, {3072, 0}, {3072, 2048}, {2048, 2048}, {2048, 1024}, {1024, 1024}, {1024, 2048}, {0, 2048}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &model.Map{}
			addPolygon(m, tt.pts)
			s := m.Sectors[0]

			w := int(s.WallPtr)
			for i := 0; i < int(s.WallNum); i++ {
				w = int(m.Walls[w].Point2)
				if w == int(s.WallPtr) && i+1 < int(s.WallNum) {
					t.Fatalf("loop closed after %d walls, want %d", i+1, s.WallNum)
				}
			}
			if w != int(s.WallPtr) {
				t.Fatalf("loop ended at wall %d, want %d", w, s.WallPtr)
			}

			loops, err := TraceLoops(m, s)
			if err != nil {
				t.Fatalf("TraceLoops: %v", err)
			}
			if len(loops) != 1 || len(loops[0]) != len(tt.pts) {
				t.Fatalf("loops = %d, want 1 of %d walls", len(loops), len(tt.pts))
			}

			poly := make([]mgl64.Vec2, len(tt.pts))
			for i, p := range tt.pts {
				poly[i] = mgl64.Vec2{float64(p[0]), float64(p[1])}
			}
			sum := 0.0
			for _, tri := range Triangulate([][]mgl64.Vec2{poly}) {
				sum += math.Abs(signedArea(tri[:]))
			}
			if want := math.Abs(signedArea(poly)); math.Abs(sum-want) > 1e-6 {
				t.Errorf("triangles cover %v, want %v", sum, want)
			}

			scene := build(t, m, nil, Options{})
			if scene.Sectors != 1 {
				t.Errorf("Sectors = %d, want 1", scene.Sectors)
			}
			parts := map[string]bool{}
			for _, f := range scene.Faces(OriginSector, 0) {
				parts[f.Origin.Part] = true
			}
			if !parts["Floor"] || !parts["Ceiling"] {
				t.Errorf("sector parts = %v, want Floor and Ceiling", parts)
			}
			for i := range tt.pts {
				if n := len(scene.Faces(OriginWall, i)); n != 1 {
					t.Errorf("wall %d has %d faces, want 1", i, n)
				}
			}
		})
	}
}

// TestTraceLoopsOpen tests rejection of loops leaving the sector
func TestTraceLoopsOpen(t *testing.T) {
	tests := []struct {
		name   string
		point2 uint16
	}{
		{"outside", 9},
		{"rejoin", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &model.Map{}
			addRoom(m, 0, 1024, 0, -8192)
			addRoom(m, 1024, 2048, 0, -8192)
			m.Walls[2].Point2 = tt.point2
			if _, err := TraceLoops(m, m.Sectors[0]); !errors.Is(err, ErrOpenLoop) {
				t.Errorf("err = %v, want ErrOpenLoop", err)
			}
		})
	}
}

// TestTriangulate tests that the triangles cover the polygon minus its holes
func TestTriangulate(t *testing.T) {
	outer := []mgl64.Vec2{{0, 0}, {4, 0}, {4, 4}, {0, 4}}
	hole := []mgl64.Vec2{{1, 1}, {1, 2}, {2, 2}, {2, 1}}
	concave := []mgl64.Vec2{{0, 0}, {4, 0}, {4, 4}, {2, 1}, {0, 4}}

	tests := []struct {
		name  string
		loops [][]mgl64.Vec2
		area  float64
	}{
		{"square", [][]mgl64.Vec2{outer}, 16},
		{"hole", [][]mgl64.Vec2{outer, hole}, 15},
		{"concave", [][]mgl64.Vec2{concave}, 16 - 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := 0.0
			for _, tri := range Triangulate(tt.loops) {
				total += math.Abs(signedArea(tri[:]))
			}
			if math.Abs(total-tt.area) > eps {
				t.Errorf("area = %v, want %v", total, tt.area)
			}
		})
	}
}

// TestPlaneHeight tests slope evaluation relative to the first wall
func TestPlaneHeight(t *testing.T) {
	p := Plane{Z: 1, Slope: 0.5, Origin: mgl64.Vec2{0, 0}, Dir: mgl64.Vec2{1, 0}}
	if got := p.HeightAt(5, 0); got != 1 {
		t.Errorf("on the first wall: %v, want 1", got)
	}
	if got := p.HeightAt(0, 2); got != 2 {
		t.Errorf("two units in: %v, want 2", got)
	}
}

// TestBuildTwoRooms tests sector count, wall parts and face orientation
func TestBuildTwoRooms(t *testing.T) {
	scene := build(t, twoRooms(), nil, Options{})
	if scene.Sectors != 2 {
		t.Errorf("Sectors = %d, want 2", scene.Sectors)
	}
	obj, ok := scene.Object("MapGeometry")
	if !ok {
		t.Fatal("MapGeometry missing")
	}

	parts := map[string]bool{}
	for _, f := range scene.Faces(OriginWall, 1) {
		parts[f.Origin.Part] = true
	}
	if len(parts) != 2 || !parts["Bot"] || !parts["Top"] {
		t.Errorf("wall 1 parts = %v, want Bot and Top", parts)
	}
	// steps only face the lower, taller room
	if n := len(scene.Faces(OriginWall, 7)); n != 0 {
		t.Errorf("wall 7 has %d faces, want 0", n)
	}
	// one-sided walls of both rooms
	if n := len(scene.Faces(OriginWall, 5)); n != 1 {
		t.Errorf("wall 5 has %d faces, want 1", n)
	}

	for _, f := range obj.Mesh.Faces {
		if f.Origin.Kind != OriginSector {
			continue
		}
		n := normal(obj, f)
		if f.Origin.Part == "Floor" && n[2] <= 0 || f.Origin.Part == "Ceiling" && n[2] >= 0 {
			t.Errorf("sector %d %s normal %v", f.Origin.Index, f.Origin.Part, n)
		}
	}
}

// TestWallGeometry tests the lower step outline and a one-sided wall's UVs
func TestWallGeometry(t *testing.T) {
	m := twoRooms()
	m.Walls[0].Picnum = 5
	scene := build(t, m, fakeTiles{5: {Tile: 5, Width: 64, Height: 64}}, Options{SplitWalls: true})

	bot, ok := scene.Object("Sector_000_SctWall_001_Bot")
	if !ok {
		t.Fatal("lower step missing")
	}
	var zs []float64
	for _, v := range bot.Mesh.Vertices {
		zs = append(zs, v[2])
	}
	if len(zs) != 4 || zs[0] != 0 || zs[1] != 0 || zs[2] != 0.5 || zs[3] != 0.5 {
		t.Errorf("lower step heights = %v, want [0 0 0.5 0.5]", zs)
	}

	wall, ok := scene.Object("Sector_000_SctWall_000")
	if !ok {
		t.Fatal("wall 0 missing")
	}
	f := wall.Mesh.Faces[0]
	want := []mgl64.Vec2{{0, -1}, {1, -1}, {1, 0}, {0, 0}}
	for i, uv := range f.UVs {
		if !uv.ApproxEqualThreshold(want[i], eps) {
			t.Errorf("uv %d = %v, want %v", i, uv, want[i])
		}
	}
	if n := normal(wall, f); n[1] >= 0 {
		t.Errorf("wall 0 normal %v does not face the room", n)
	}
	if wall.Origin == nil || wall.Origin.Index != 0 || len(wall.Fields) == 0 {
		t.Errorf("wall 0 origin %v fields %d", wall.Origin, len(wall.Fields))
	}
}

// TestClipWall tests the cut where top and bottom edges cross
func TestClipWall(t *testing.T) {
	flat := func(z float64) heightFunc { return func(x, y float64) float64 { return z } }
	ramp := func(x, y float64) float64 { return 1 - x }
	start, end := mgl64.Vec2{0, 0}, mgl64.Vec2{2, 0}

	got := clipWall(wallPart{bottom: flat(0.5), top: ramp}, start, end)
	if len(got) != 3 {
		t.Fatalf("outline = %v, want a triangle", got)
	}
	if !got[0].ApproxEqualThreshold(mgl64.Vec3{0.5, 0, 0.5}, eps) {
		t.Errorf("cut point = %v, want (0.5, 0, 0.5)", got[0])
	}
	if out := clipWall(wallPart{bottom: flat(0), top: flat(1)}, start, end); out != nil {
		t.Errorf("inverted part = %v, want nil", out)
	}
}

// TestSectorUV tests plain and wall-aligned floor mapping
func TestSectorUV(t *testing.T) {
	m := twoRooms()
	sp, err := newSectorPlanes(m, m.Sectors[0])
	if err != nil {
		t.Fatal(err)
	}
	lv := m.Sectors[0].Level(model.Floor)
	if got := sectorUV(lv, sp, 2, 0, 32, 32); !got.ApproxEqualThreshold(mgl64.Vec2{2, 0}, eps) {
		t.Errorf("plain uv = %v, want (2, 0)", got)
	}
	lv.XPanning, lv.Stat = 128, 0x08
	if got := sectorUV(lv, sp, 1, 0, 64, 64); !got.ApproxEqualThreshold(mgl64.Vec2{1.5, 0}, eps) {
		t.Errorf("expanded uv = %v, want (1.5, 0)", got)
	}
	lv.XPanning, lv.Stat = 0, 0x04
	// swapping without flips mirrors both axes
	if got := sectorUV(lv, sp, 2, 1, 32, 32); !got.ApproxEqualThreshold(mgl64.Vec2{-1, -2}, eps) {
		t.Errorf("swapped uv = %v, want (-1, -2)", got)
	}

	// the first wall runs along +x, so only y turns around
	lv.Stat = 0x40
	if got := sectorUV(lv, sp, 1, 1, 32, 32); !got.ApproxEqualThreshold(mgl64.Vec2{1, -1}, eps) {
		t.Errorf("aligned uv = %v, want (1, -1)", got)
	}
}

// TestSplitNames tests object naming with split options and a prefix
func TestSplitNames(t *testing.T) {
	scene := build(t, twoRooms(), nil, Options{ObjectPrefix: "e1m1_", SplitSectors: true, SplitWalls: true})
	for _, name := range []string{
		"e1m1_Sector_000_Floor",
		"e1m1_Sector_001_Ceiling",
		"e1m1_Sector_000_SctWall_001_Bot",
		"e1m1_Sector_000_SctWall_001_Top",
		"e1m1_Sector_001_SctWall_002",
	} {
		if _, ok := scene.Object(name); !ok {
			t.Errorf("object %q missing", name)
		}
	}
	if _, ok := scene.Object("e1m1_MapGeometry"); ok {
		t.Error("merged object emitted while splitting")
	}
	o, _ := scene.Object("e1m1_Sector_000_SctWall_001_Bot")
	if o.Collection != "e1m1_Walls" {
		t.Errorf("collection = %q", o.Collection)
	}
	if scene.Spawn.Name != "e1m1_Spawn" {
		t.Errorf("spawn name = %q", scene.Spawn.Name)
	}
}

// TestSky tests parallax ceilings with and without the sky split
func TestSky(t *testing.T) {
	m := twoRooms()
	m.Sectors[0].CeilingStat = 0x01
	m.Sectors[1].CeilingStat = 0x01

	split := build(t, m, nil, Options{SplitSky: true})
	sky, ok := split.Object("MapGeometry_Sky")
	if !ok {
		t.Fatal("sky object missing")
	}
	for _, f := range sky.Mesh.Faces {
		if !f.Sky || f.Origin.Part != "Ceiling" {
			t.Errorf("sky face %+v", f.Origin)
		}
	}
	top, ok := split.Object("Sector_000_SctWall_001_Top")
	if !ok || top.Collection != CollectionSky {
		t.Errorf("upper step between skies not split to sky: %v", ok)
	}

	inPlace := build(t, m, nil, Options{})
	if _, ok := inPlace.Object("MapGeometry_Sky"); ok {
		t.Error("sky object without split")
	}
	for _, f := range inPlace.Faces(OriginSector, 0) {
		if !f.Sky {
			continue
		}
		for _, uv := range f.UVs {
			if uv[0] < 0 || uv[0] > 1 || uv[1] < 0 || uv[1] > 1 {
				t.Errorf("dome uv %v out of range", uv)
			}
		}
	}
}

// TestBrokenSector tests strict failure and lenient skipping
func TestBrokenSector(t *testing.T) {
	m := twoRooms()
	m.Walls[6].Point2 = 2

	if _, _, err := Build(context.Background(), m, nil, Options{}); !errors.Is(err, ErrOpenLoop) {
		t.Errorf("strict err = %v, want ErrOpenLoop", err)
	}

	scene, report, err := Build(context.Background(), m, nil, Options{IgnoreErrors: true})
	if err != nil {
		t.Fatalf("lenient: %v", err)
	}
	if scene.Sectors != 1 {
		t.Errorf("Sectors = %d, want 1", scene.Sectors)
	}
	if report.Len() != 1 || report.Entries[0].Index != 1 || report.Entries[0].Action != model.ActionSkipped {
		t.Errorf("report = %v", report)
	}
}

// TestCanceled tests that a canceled context discards the scene
func TestCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	scene, _, err := Build(ctx, twoRooms(), nil, Options{})
	if !errors.Is(err, context.Canceled) || scene != nil {
		t.Errorf("Build = %v, %v", scene, err)
	}
}

// TestVertexColors tests shade colors on faces
func TestVertexColors(t *testing.T) {
	m := twoRooms()
	m.Sectors[0].FloorShade = 30
	scene := build(t, m, nil, Options{ShadeToVertexColors: true})
	for _, f := range scene.Faces(OriginSector, 0) {
		if f.Origin.Part != "Floor" {
			continue
		}
		if len(f.Colors) != 3 || f.Colors[0] != (mgl64.Vec4{0, 0, 0, 1}) {
			t.Errorf("floor colors = %v", f.Colors)
		}
	}
	plain := build(t, twoRooms(), nil, Options{})
	for _, f := range plain.Faces(OriginSector, 0) {
		if f.Colors != nil {
			t.Fatal("colors without the option")
		}
	}
}

// TestShadeColor tests the shade curve end points
func TestShadeColor(t *testing.T) {
	if c := ShadeColor(-5); c != (mgl64.Vec4{1, 1, 1, 1}) {
		t.Errorf("ShadeColor(-5) = %v", c)
	}
	if c := ShadeColor(31); c != (mgl64.Vec4{0, 0, 0, 1}) {
		t.Errorf("ShadeColor(31) = %v", c)
	}
	c := ShadeColor(10)
	if math.Abs(c[0]-(-0.0432-0.21012+0.986183)) > eps || c[3] != 1 {
		t.Errorf("ShadeColor(10) = %v", c)
	}
}

// TestSprites tests categories, scale, mesh sharing and placement
func TestSprites(t *testing.T) {
	m := twoRooms()
	m.Sprites = []model.Sprite{
		{Index: 0, Picnum: 1, XRepeat: 64, YRepeat: 64},                                 // effector
		{Index: 1, Picnum: 40, XRepeat: 32, YRepeat: 32},                                // pistol ammo
		{Index: 2, Picnum: 40, XRepeat: 32, YRepeat: 32},                                // shares mesh with 1
		{Index: 3, Picnum: 300, Cstat: 0x10, X: 1024, Y: 512, XRepeat: 64, YRepeat: 32}, // wall sprite, angle 0
		{Index: 4, Picnum: 300, Cstat: 0x20, XRepeat: 64, YRepeat: 32},                  // floor sprite
	}
	tiles := fakeTiles{300: {Tile: 300, Width: 128, Height: 64, Anim: &model.PicAnim{XCenter: 16}}}

	scene := build(t, m, tiles, Options{ScaleSpritesAsInGame: true, WallSpriteOffset: 0.25})
	if len(scene.Sprites) != 5 {
		t.Fatalf("sprites = %d, want 5", len(scene.Sprites))
	}
	wantCat := []SpriteCategory{CategoryEffect, CategoryFace, CategoryFace, CategoryWall, CategoryFloor}
	for i, sp := range scene.Sprites {
		if sp.Category != wantCat[i] {
			t.Errorf("sprite %d category %v, want %v", i, sp.Category, wantCat[i])
		}
	}
	if scene.Sprites[0].Label != "SectorEffector" || scene.Sprites[0].Collection != CollectionEffectSprites {
		t.Errorf("effector = %q in %q", scene.Sprites[0].Label, scene.Sprites[0].Collection)
	}
	if s := scene.Sprites[1].Scale; s != (mgl64.Vec3{0.25, 0.25, 0.25}) {
		t.Errorf("ammo scale = %v, want 0.25", s)
	}
	if scene.Sprites[1].Mesh != scene.Sprites[2].Mesh || len(scene.SpriteMeshes) != 4 {
		t.Errorf("meshes = %d, sprite 1/2 use %d/%d", len(scene.SpriteMeshes), scene.Sprites[1].Mesh, scene.Sprites[2].Mesh)
	}
	if s := scene.Sprites[4].Scale; s != (mgl64.Vec3{0.5, 1, 1}) {
		t.Errorf("floor scale = %v, want (0.5, 1, 1)", s)
	}
	if loc := scene.Sprites[3].Location; !loc.ApproxEqualThreshold(mgl64.Vec3{2.25, -1, 0}, eps) {
		t.Errorf("wall sprite location = %v", loc)
	}

	wall := scene.SpriteMeshes[scene.Sprites[3].Mesh].Mesh
	// 128 wide, shifted right by 16 pixels
	if v := wall.Vertices[0]; !v.ApproxEqualThreshold(mgl64.Vec3{0, 2.5, 0}, eps) {
		t.Errorf("wall sprite corner = %v, want (0, 2.5, 0)", v)
	}

	raw := build(t, m, tiles, Options{})
	if s := raw.Sprites[1].Scale; s != (mgl64.Vec3{0.5, 0.5, 0.5}) {
		t.Errorf("raw ammo scale = %v, want 0.5", s)
	}
}

// TestBloodSprites tests that the in-game scale table and the wall sprite
// offset do not depend on the map variant or the effect class
func TestBloodSprites(t *testing.T) {
	m := twoRooms()
	m.Header.Variant = model.VariantBlood
	m.Sprites = []model.Sprite{
		{Index: 0, Picnum: 40, XRepeat: 32, YRepeat: 32},                                 // ammo tile
		{Index: 1, Picnum: 2072, Cstat: 0x10, X: 1024, Y: 512, XRepeat: 64, YRepeat: 64}, // wall aligned effect
	}

	scene := build(t, m, nil, Options{ScaleSpritesAsInGame: true, WallSpriteOffset: 0.25})
	if s := scene.Sprites[0].Scale; s != (mgl64.Vec3{0.25, 0.25, 0.25}) {
		t.Errorf("ammo scale = %v, want 0.25", s)
	}
	if c := scene.Sprites[1].Category; c != CategoryEffect {
		t.Errorf("sprite 1 category = %v, want effect", c)
	}
	if loc := scene.Sprites[1].Location; !loc.ApproxEqualThreshold(mgl64.Vec3{2.25, -1, 0}, eps) {
		t.Errorf("wall aligned effect location = %v, want (2.25, -1, 0)", loc)
	}
}

// TestMaterials tests material requests for used tiles
func TestMaterials(t *testing.T) {
	m := twoRooms()
	m.Sectors[0].FloorPicnum = 568
	scene := build(t, m, fakeTiles{568: {Tile: 568, Width: 16, Height: 8}}, Options{PixelShading: true})

	var mat *Material
	for i := range scene.Materials {
		if scene.Materials[i].Tile == 568 {
			mat = &scene.Materials[i]
		}
	}
	if mat == nil {
		t.Fatal("no material for tile 568")
	}
	if mat.Name != "picnum0568_056-002" || mat.Image != "056-002.png" {
		t.Errorf("names = %q %q", mat.Name, mat.Image)
	}
	if !mat.Found || mat.Width != 16 || mat.Sampling != SamplingClosest {
		t.Errorf("material = %+v", mat)
	}
	if scene.Materials[0].Tile != 0 || scene.Materials[0].Found {
		t.Errorf("tile 0 material = %+v", scene.Materials[0])
	}
}

// TestLabel tests the game specific tile names
func TestLabel(t *testing.T) {
	tests := []struct {
		variant model.Variant
		tile    int
		want    string
	}{
		{model.VariantBuild, 51, "SmallMedkit"},
		{model.VariantBuild, 2072, ""},
		{model.VariantBlood, 2072, "Earthquake"},
		{model.VariantBlood, 2553, "KeyEye"},
	}
	for _, tt := range tests {
		if got := Label(tt.variant, tt.tile); got != tt.want {
			t.Errorf("Label(%v, %d) = %q, want %q", tt.variant, tt.tile, got, tt.want)
		}
	}
}
