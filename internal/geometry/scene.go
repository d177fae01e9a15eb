package geometry

import (
	"fmt"

	"github.com/dyuri/buildmap/internal/model"
	"github.com/go-gl/mathgl/mgl64"
)

// Collection names, used with the object prefix.
const (
	CollectionMap           = "Map"
	CollectionSky           = "Sky"
	CollectionWalls         = "Walls"
	CollectionSprites       = "Sprites"
	CollectionFaceSprites   = "FaceSprites"
	CollectionWallSprites   = "WallSprites"
	CollectionFloorSprites  = "FloorSprites"
	CollectionEffectSprites = "EffectSprites"
)

// OriginKind is the record table an object or face was built from.
type OriginKind int

const (
	OriginSector OriginKind = iota
	OriginWall
	OriginSprite
)

func (k OriginKind) String() string {
	switch k {
	case OriginWall:
		return "wall"
	case OriginSprite:
		return "sprite"
	default:
		return "sector"
	}
}

// MarshalText encodes the kind by name.
func (k OriginKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *OriginKind) UnmarshalText(b []byte) error {
	for _, v := range []OriginKind{OriginSector, OriginWall, OriginSprite} {
		if v.String() == string(b) {
			*k = v
			return nil
		}
	}
	return fmt.Errorf("unknown origin kind %q", b)
}

// Origin points back at the record a surface was built from.
type Origin struct {
	Kind   OriginKind `json:"kind"`
	Index  int        `json:"index"`
	Sector int        `json:"sector"`
	Part   string     `json:"part,omitempty"` // Floor, Ceiling, Bot, Mid, Top
}

// Face is one textured polygon. Indices point into the owning mesh.
type Face struct {
	Indices []int        `json:"indices"`
	UVs     []mgl64.Vec2 `json:"uvs"`
	Colors  []mgl64.Vec4 `json:"colors,omitempty"`
	Tile    int          `json:"tile"`
	Shade   int          `json:"shade"`
	Sky     bool         `json:"sky,omitempty"`
	Origin  Origin       `json:"origin"`
}

// Mesh is a polygon soup in scene coordinates (Z up).
type Mesh struct {
	Vertices []mgl64.Vec3 `json:"vertices"`
	Faces    []Face       `json:"faces"`
}

// Empty reports whether the mesh has no faces.
func (m *Mesh) Empty() bool { return len(m.Faces) == 0 }

func (m *Mesh) addFace(verts []mgl64.Vec3, f Face) {
	base := len(m.Vertices)
	m.Vertices = append(m.Vertices, verts...)
	f.Indices = make([]int, len(verts))
	for i := range verts {
		f.Indices[i] = base + i
	}
	m.Faces = append(m.Faces, f)
}

// Object is one named mesh object.
type Object struct {
	Name       string        `json:"name"`
	Collection string        `json:"collection"`
	Origin     *Origin       `json:"origin,omitempty"` // nil for merged objects
	Fields     []model.Field `json:"fields,omitempty"`
	Mesh       Mesh          `json:"mesh"`
}

// SpriteCategory groups sprites the way they are collected in the scene.
type SpriteCategory int

const (
	CategoryFace SpriteCategory = iota
	CategoryWall
	CategoryFloor
	CategoryEffect
	CategoryOther
)

func (c SpriteCategory) String() string {
	switch c {
	case CategoryWall:
		return "wall"
	case CategoryFloor:
		return "floor"
	case CategoryEffect:
		return "effect"
	case CategoryOther:
		return "other"
	default:
		return "face"
	}
}

// MarshalText encodes the category by name.
func (c SpriteCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a category name.
func (c *SpriteCategory) UnmarshalText(b []byte) error {
	for v := CategoryFace; v <= CategoryOther; v++ {
		if v.String() == string(b) {
			*c = v
			return nil
		}
	}
	return fmt.Errorf("unknown sprite category %q", b)
}

// Collection returns the collection name of the category.
func (c SpriteCategory) Collection() string {
	switch c {
	case CategoryWall:
		return CollectionWallSprites
	case CategoryFloor:
		return CollectionFloorSprites
	case CategoryEffect:
		return CollectionEffectSprites
	case CategoryOther:
		return CollectionSprites
	default:
		return CollectionFaceSprites
	}
}

// SpriteMeshKey identifies sprites that can share one mesh.
type SpriteMeshKey struct {
	Tile     int  `json:"tile"`
	FlipX    bool `json:"flip_x"`
	FlipY    bool `json:"flip_y"`
	Floor    bool `json:"floor"`
	Centered bool `json:"centered"`
}

// SpriteMesh is a unit quad shared by every sprite with the same key.
type SpriteMesh struct {
	Name string        `json:"name"`
	Key  SpriteMeshKey `json:"key"`
	Mesh Mesh          `json:"mesh"`
}

// SpriteInstance places a shared sprite mesh.
type SpriteInstance struct {
	Name       string         `json:"name"`
	Index      int            `json:"index"`
	Sector     int            `json:"sector"`
	Category   SpriteCategory `json:"category"`
	Collection string         `json:"collection"`
	Mesh       int            `json:"mesh"` // index into Scene.SpriteMeshes
	Location   mgl64.Vec3     `json:"location"`
	Rotation   float64        `json:"rotation"` // around Z, radians
	Scale      mgl64.Vec3     `json:"scale"`
	Tile       int            `json:"tile"`
	Label      string         `json:"label,omitempty"`
	Shade      int            `json:"shade"`
	Color      mgl64.Vec4     `json:"color"`
	Fields     []model.Field  `json:"fields,omitempty"`
}

// Spawn is the player start from the map header.
type Spawn struct {
	Name     string        `json:"name"`
	Sector   int           `json:"sector"`
	Location mgl64.Vec3    `json:"location"`
	Rotation float64       `json:"rotation"`
	Fields   []model.Field `json:"fields,omitempty"`
}

// Scene is the reconstructed scene graph.
type Scene struct {
	Objects      []Object         `json:"objects"`
	SpriteMeshes []SpriteMesh     `json:"sprite_meshes"`
	Sprites      []SpriteInstance `json:"sprites"`
	Spawn        Spawn            `json:"spawn"`
	Materials    []Material       `json:"materials"`
	Sectors      int              `json:"sectors"` // number of sectors reconstructed
}

// Object returns the object with the given name.
func (s *Scene) Object(name string) (*Object, bool) {
	for i := range s.Objects {
		if s.Objects[i].Name == name {
			return &s.Objects[i], true
		}
	}
	return nil, false
}

// Faces returns every face with the given origin kind and record index.
func (s *Scene) Faces(kind OriginKind, index int) []Face {
	var out []Face
	for _, o := range s.Objects {
		for _, f := range o.Mesh.Faces {
			if f.Origin.Kind == kind && f.Origin.Index == index {
				out = append(out, f)
			}
		}
	}
	return out
}
