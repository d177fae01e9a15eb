package neighbor

import (
	"math"
	"sort"
)

type point struct{ x, y float64 }

func (p point) near(q point, eps float64) bool {
	return math.Abs(p.x-q.x) <= eps && math.Abs(p.y-q.y) <= eps
}

type cell struct{ x, y int64 }

// pointIndex buckets wall start points into square cells at least eps wide,
// so candidates for a query are found in the surrounding 3x3 cells.
type pointIndex struct {
	size  float64
	cells map[cell][]int
}

func newPointIndex(eps float64) *pointIndex {
	size := eps
	if size < 1 {
		size = 1
	}
	return &pointIndex{size: size, cells: make(map[cell][]int)}
}

func (g *pointIndex) key(p point) cell {
	return cell{int64(math.Floor(p.x / g.size)), int64(math.Floor(p.y / g.size))}
}

func (g *pointIndex) add(p point, i int) {
	k := g.key(p)
	g.cells[k] = append(g.cells[k], i)
}

// near returns the candidate indices around p in ascending order.
func (g *pointIndex) near(p point) []int {
	k := g.key(p)
	var out []int
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			out = append(out, g.cells[cell{k.x + dx, k.y + dy}]...)
		}
	}
	sort.Ints(out)
	return out
}
