package model

import "sort"

// NoNeighbor marks an absent nextwall/nextsector link.
const NoNeighbor = -1

// Coordinate scale factors from Build units to scene units.
const (
	XYScale = 512.0  // Build x/y units per scene unit
	ZScale  = 8192.0 // Build z units per scene unit
)

// Variant identifies the map file flavour.
type Variant int

const (
	VariantBuild Variant = iota // plain BUILD map (version 7, 8, 9)
	VariantBlood                // Blood BLM map (encrypted version 7.0)
)

func (v Variant) String() string {
	if v == VariantBlood {
		return "blood"
	}
	return "build"
}

// Header contains map file metadata
type Header struct {
	Variant      Variant
	Version      int // Major version (7, 8, 9)
	MinorVersion int // Only set for Blood maps
	PosX         int32
	PosY         int32
	PosZ         int32
	Angle        int16
	CurSector    int16
	NumSectors   int
	NumWalls     int
	NumSprites   int

	// Blood specific header data
	Revisions  uint32
	Copyright  string
	SkyOffsets []int16
	HasSky     bool
}

// SupportsTROR reports whether the map format can carry room-over-room data.
func (h Header) SupportsTROR() bool {
	return h.Variant == VariantBlood || h.Version >= 9
}

// Sector is one decoded sector record.
type Sector struct {
	Index int // position in the map's sector table

	WallPtr         int16
	WallNum         int16
	CeilingZ        int32
	FloorZ          int32
	CeilingStat     uint16
	FloorStat       uint16
	CeilingPicnum   uint16
	CeilingHeinum   int16
	CeilingShade    int8
	CeilingPal      uint8
	CeilingXPanning uint8
	CeilingYPanning uint8
	FloorPicnum     uint16
	FloorHeinum     int16
	FloorShade      int8
	FloorPal        uint8
	FloorXPanning   uint8
	FloorYPanning   uint8
	Visibility      uint8
	Filler          uint8
	Lotag           int16
	Hitag           int16
	Extra           int16
}

// FirstWall returns the index of the sector's first wall.
func (s Sector) FirstWall() int { return int(s.WallPtr) }

// WallRange returns the half-open wall index range owned by the sector.
func (s Sector) WallRange() (int, int) {
	return int(s.WallPtr), int(s.WallPtr) + int(s.WallNum)
}

// Owns reports whether the wall index lies in the sector's wall range.
func (s Sector) Owns(wall int) bool {
	first, end := s.WallRange()
	return wall >= first && wall < end
}

// Level returns the floor or ceiling plane description.
func (s Sector) Level(kind LevelKind) Level {
	if kind == Floor {
		return Level{
			Kind:     Floor,
			Z:        s.FloorZ,
			Stat:     SurfaceStat(s.FloorStat),
			Picnum:   s.FloorPicnum,
			Heinum:   s.FloorHeinum,
			Shade:    s.FloorShade,
			Pal:      s.FloorPal,
			XPanning: s.FloorXPanning,
			YPanning: s.FloorYPanning,
		}
	}
	return Level{
		Kind:     Ceiling,
		Z:        s.CeilingZ,
		Stat:     SurfaceStat(s.CeilingStat),
		Picnum:   s.CeilingPicnum,
		Heinum:   s.CeilingHeinum,
		Shade:    s.CeilingShade,
		Pal:      s.CeilingPal,
		XPanning: s.CeilingXPanning,
		YPanning: s.CeilingYPanning,
	}
}

// LevelKind selects floor or ceiling.
type LevelKind int

const (
	Floor LevelKind = iota
	Ceiling
)

func (k LevelKind) String() string {
	if k == Ceiling {
		return "Ceiling"
	}
	return "Floor"
}

// Levels lists both level kinds in output order.
var Levels = [2]LevelKind{Floor, Ceiling}

// Level is a sector's floor or ceiling as a standalone value.
type Level struct {
	Kind     LevelKind
	Z        int32
	Stat     SurfaceStat
	Picnum   uint16
	Heinum   int16
	Shade    int8
	Pal      uint8
	XPanning uint8
	YPanning uint8
}

// Slope returns the signed tilt (1.0 = 45 degrees) or 0 if not sloped.
func (l Level) Slope() float64 {
	if !l.Stat.Sloped() {
		return 0
	}
	return float64(l.Heinum) / 4096
}

// SurfaceStat holds floorstat/ceilingstat bits.
type SurfaceStat uint16

func (s SurfaceStat) Parallax() bool { return s&0x01 != 0 }
func (s SurfaceStat) Sloped() bool { return s&0x02 != 0 }
func (s SurfaceStat) SwapXY() bool { return s&0x04 != 0 }
func (s SurfaceStat) DoubleSmooth() bool { return s&0x08 != 0 }
func (s SurfaceStat) FlipX() bool { return s&0x10 != 0 }
func (s SurfaceStat) FlipY() bool { return s&0x20 != 0 }
func (s SurfaceStat) AlignFirstWall() bool { return s&0x40 != 0 }

// TRORHidden reports a level covered by a room-over-room neighbor, which is
// not drawn. Only meaningful for maps that support TROR.
func (s SurfaceStat) TRORHidden() bool { return s&0x400 != 0 && s&0x80 == 0 }

// Expansion is the texture expansion factor (1 or 2).
func (s SurfaceStat) Expansion() float64 {
	return float64((s>>3)&1) + 1
}

// Wall is one decoded wall record. Sector is derived from the sector table
// and is NoNeighbor for walls no sector claims.
type Wall struct {
	Index  int
	Sector int

	X          int32
	Y          int32
	Point2     uint16
	NextWall   int16
	NextSector int16
	Cstat      WallStat
	Picnum     uint16
	OverPicnum uint16
	Shade      int8
	Pal        uint8
	XRepeat    uint8
	YRepeat    uint8
	XPanning   uint8
	YPanning   uint8
	Lotag      int16
	Hitag      int16
	Extra      int16
}

// HasNeighbor reports whether the wall links to a partner wall.
func (w Wall) HasNeighbor() bool { return w.NextWall >= 0 }

// WallStat holds wall cstat bits.
type WallStat uint16

func (c WallStat) Blocking() bool { return c&0x0001 != 0 }
func (c WallStat) BottomSwap() bool { return c&0x0002 != 0 }
func (c WallStat) AlignBottom() bool { return c&0x0004 != 0 }
func (c WallStat) FlipX() bool { return c&0x0008 != 0 }
func (c WallStat) Masked() bool { return c&0x0010 != 0 }
func (c WallStat) OneWay() bool { return c&0x0020 != 0 }
func (c WallStat) Translucent() bool { return c&0x0080 != 0 }
func (c WallStat) FlipY() bool { return c&0x0100 != 0 }
func (c WallStat) RotateTexture() bool { return c&0x1000 != 0 }

// SpriteKind is the orientation class from cstat bits 4-5.
type SpriteKind int

const (
	FaceSprite  SpriteKind = iota // always faces the camera
	WallSprite                    // flat, vertical, oriented by angle
	FloorSprite                   // flat, parallel to floors
	SlopeSprite                   // reserved orientation value 3
)

func (k SpriteKind) String() string {
	switch k {
	case FaceSprite:
		return "face"
	case WallSprite:
		return "wall"
	case FloorSprite:
		return "floor"
	default:
		return "slope"
	}
}

// SpriteStat holds sprite cstat bits.
type SpriteStat uint16

func (c SpriteStat) Kind() SpriteKind { return SpriteKind((c >> 4) & 3) }
func (c SpriteStat) FlipX() bool { return c&0x0004 != 0 }
func (c SpriteStat) FlipY() bool { return c&0x0008 != 0 }
func (c SpriteStat) OneSided() bool { return c&0x0040 != 0 }
func (c SpriteStat) RealCentered() bool { return c&0x0080 != 0 }
func (c SpriteStat) Invisible() bool { return c&0x8000 != 0 }

// Sprite is one decoded sprite record.
type Sprite struct {
	Index int

	X        int32
	Y        int32
	Z        int32
	Cstat    SpriteStat
	Picnum   uint16
	Shade    int8
	Pal      uint8
	ClipDist uint8
	Filler   uint8
	XRepeat  uint8
	YRepeat  uint8
	XOffset  int8
	YOffset  int8
	SectNum  int16
	StatNum  int16
	Ang      int16
	Owner    int16
	XVel     int16
	YVel     int16
	ZVel     int16
	Lotag    int16
	Hitag    int16
	Extra    int16
}

// Map is the arena of decoded entities. Tables hold only records that
// passed validation, sorted by their original Index, so cross references
// stay plain integers.
type Map struct {
	Header  Header
	Sectors []Sector
	Walls   []Wall
	Sprites []Sprite
}

// Sector looks up a sector by its original index.
func (m *Map) Sector(index int) (Sector, bool) {
	i, ok := find(len(m.Sectors), index, func(i int) int { return m.Sectors[i].Index })
	if !ok {
		return Sector{}, false
	}
	return m.Sectors[i], true
}

// Wall looks up a wall by its original index.
func (m *Map) Wall(index int) (Wall, bool) {
	i, ok := find(len(m.Walls), index, func(i int) int { return m.Walls[i].Index })
	if !ok {
		return Wall{}, false
	}
	return m.Walls[i], true
}

// Sprite looks up a sprite by its original index.
func (m *Map) Sprite(index int) (Sprite, bool) {
	i, ok := find(len(m.Sprites), index, func(i int) int { return m.Sprites[i].Index })
	if !ok {
		return Sprite{}, false
	}
	return m.Sprites[i], true
}

// WithWalls returns a shallow copy of the map using a replacement wall table.
func (m *Map) WithWalls(walls []Wall) *Map {
	out := *m
	out.Walls = walls
	return &out
}

// Picnums returns every tile number the map refers to, in ascending order.
// Wall overpicnums count only for masked or one-way walls.
func (m *Map) Picnums() []int {
	seen := make(map[int]bool)
	for _, s := range m.Sectors {
		seen[int(s.FloorPicnum)] = true
		seen[int(s.CeilingPicnum)] = true
	}
	for _, w := range m.Walls {
		seen[int(w.Picnum)] = true
		if w.Cstat.Masked() || w.Cstat.OneWay() {
			seen[int(w.OverPicnum)] = true
		}
	}
	for _, sp := range m.Sprites {
		seen[int(sp.Picnum)] = true
	}
	out := make([]int, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

func find(n, index int, key func(int) int) (int, bool) {
	if index < 0 {
		return 0, false
	}
	// Fast path: nothing dropped before this index.
	if index < n && key(index) == index {
		return index, true
	}
	i := sort.Search(n, func(i int) bool { return key(i) >= index })
	if i < n && key(i) == index {
		return i, true
	}
	return 0, false
}
