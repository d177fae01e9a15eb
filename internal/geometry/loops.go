package geometry

import (
	"errors"
	"fmt"

	"github.com/dyuri/buildmap/internal/model"
)

// ErrOpenLoop is returned when a sector's walls do not form closed loops.
var ErrOpenLoop = errors.New("open wall loop")

// TraceLoops follows point2 links through the sector's wall range. The first
// loop starts at the first wall; each further loop starts at the lowest
// index not visited yet. Every wall of the range belongs to exactly one loop.
func TraceLoops(m *model.Map, s model.Sector) ([][]model.Wall, error) {
	first, end := s.WallRange()
	if s.WallNum < 3 {
		return nil, fmt.Errorf("%w: sector %d has %d walls", ErrOpenLoop, s.Index, s.WallNum)
	}
	visited := make([]bool, end-first)
	var loops [][]model.Wall

	for start := first; start < end; start++ {
		if visited[start-first] {
			continue
		}
		var loop []model.Wall
		for cur := start; ; {
			w, ok := m.Wall(cur)
			if !ok {
				return nil, fmt.Errorf("%w: sector %d: wall %d missing", ErrOpenLoop, s.Index, cur)
			}
			visited[cur-first] = true
			loop = append(loop, w)

			next := int(w.Point2)
			if next < first || next >= end {
				return nil, fmt.Errorf("%w: sector %d: wall %d point2 %d leaves the sector", ErrOpenLoop, s.Index, cur, next)
			}
			if next == start {
				break
			}
			if visited[next-first] {
				return nil, fmt.Errorf("%w: sector %d: wall %d rejoins at %d instead of %d", ErrOpenLoop, s.Index, cur, next, start)
			}
			cur = next
		}
		if len(loop) < 3 {
			return nil, fmt.Errorf("%w: sector %d: loop at wall %d has %d walls", ErrOpenLoop, s.Index, start, len(loop))
		}
		loops = append(loops, loop)
	}
	return loops, nil
}
