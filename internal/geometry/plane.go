package geometry

import (
	"fmt"
	"math"

	"github.com/dyuri/buildmap/internal/model"
	"github.com/go-gl/mathgl/mgl64"
)

// Plane is a floor or ceiling surface in scaled Build space: x and y divided
// by XYScale, z divided by ZScale, y and z pointing down.
type Plane struct {
	Z      float64 // height at the first wall
	Slope  float64
	Origin mgl64.Vec2 // start of the first wall
	Dir    mgl64.Vec2 // unit direction of the first wall
}

// HeightAt evaluates the plane. Points right of the first wall, looking
// along it, rise or fall with the slope.
func (p Plane) HeightAt(x, y float64) float64 {
	if p.Slope == 0 {
		return p.Z
	}
	return p.Z + p.Slope*(p.Dir[0]*(y-p.Origin[1])-p.Dir[1]*(x-p.Origin[0]))
}

// sectorPlanes holds both levels of a sector together with its first wall.
type sectorPlanes struct {
	first  model.Wall
	start  mgl64.Vec2
	angle  float64 // rotation taking the first wall onto the scene x axis
	levels [2]Plane
}

func (sp *sectorPlanes) level(kind model.LevelKind) Plane { return sp.levels[kind] }

func newSectorPlanes(m *model.Map, s model.Sector) (*sectorPlanes, error) {
	w0, ok := m.Wall(s.FirstWall())
	if !ok {
		return nil, fmt.Errorf("%w: sector %d: first wall %d missing", ErrOpenLoop, s.Index, s.FirstWall())
	}
	w1, ok := m.Wall(int(w0.Point2))
	if !ok {
		return nil, fmt.Errorf("%w: sector %d: wall %d point2 %d missing", ErrOpenLoop, s.Index, w0.Index, w0.Point2)
	}

	start, end := scaled2(w0), scaled2(w1)
	dir := end.Sub(start)
	if l := dir.Len(); l > 0 {
		dir = dir.Mul(1 / l)
	} else {
		dir = mgl64.Vec2{1, 0}
	}

	sp := &sectorPlanes{
		first: w0,
		start: start,
		angle: math.Atan2(dir[1], dir[0]),
	}
	for _, kind := range model.Levels {
		lv := s.Level(kind)
		sp.levels[kind] = Plane{
			Z:      float64(lv.Z) / model.ZScale,
			Slope:  lv.Slope(),
			Origin: start,
			Dir:    dir,
		}
	}
	return sp, nil
}

func scaled2(w model.Wall) mgl64.Vec2 {
	return mgl64.Vec2{float64(w.X) / model.XYScale, float64(w.Y) / model.XYScale}
}

// toScene converts a scaled Build point to scene coordinates.
func toScene(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v[0], -v[1], -v[2]}
}

// Position converts raw Build coordinates to scene coordinates.
func Position(x, y, z int32) mgl64.Vec3 {
	return mgl64.Vec3{float64(x) / model.XYScale, -float64(y) / model.XYScale, -float64(z) / model.ZScale}
}

// Angle converts a Build angle (2048 per turn, clockwise) to radians.
func Angle(ang int16) float64 {
	return -(float64(ang) * math.Pi / 1024)
}
