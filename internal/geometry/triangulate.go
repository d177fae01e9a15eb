package geometry

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// minArea is the smallest triangle area kept by Triangulate.
const minArea = 1e-12

// Triangulate fills a polygon given as one or more closed loops. Inner loops
// are holes by the even-odd rule, so outer boundary and islands need no
// particular winding. The polygon is cut into horizontal slabs at every
// vertex y, each slab into trapezoids between pairs of crossing edges, and
// each trapezoid into two triangles. Degenerate triangles are dropped.
func Triangulate(loops [][]mgl64.Vec2) [][3]mgl64.Vec2 {
	type edge struct{ a, b mgl64.Vec2 }
	var edges []edge
	var ys []float64
	for _, loop := range loops {
		for i, p := range loop {
			q := loop[(i+1)%len(loop)]
			ys = append(ys, p[1])
			if p[1] == q[1] {
				continue
			}
			if p[1] > q[1] {
				p, q = q, p
			}
			edges = append(edges, edge{p, q})
		}
	}
	sort.Float64s(ys)
	ys = uniq(ys)

	type crossing struct{ x0, x1 float64 }
	var tris [][3]mgl64.Vec2
	var xs []crossing
	for i := 0; i+1 < len(ys); i++ {
		y0, y1 := ys[i], ys[i+1]
		xs = xs[:0]
		for _, e := range edges {
			if e.a[1] >= y1 || e.b[1] <= y0 {
				continue
			}
			xs = append(xs, crossing{xAt(e.a, e.b, y0), xAt(e.a, e.b, y1)})
		}
		sort.Slice(xs, func(i, j int) bool { return xs[i].x0+xs[i].x1 < xs[j].x0+xs[j].x1 })

		for j := 0; j+1 < len(xs); j += 2 {
			l, r := xs[j], xs[j+1]
			quad := [4]mgl64.Vec2{{l.x0, y0}, {r.x0, y0}, {r.x1, y1}, {l.x1, y1}}
			for _, t := range [2][3]mgl64.Vec2{{quad[0], quad[1], quad[2]}, {quad[0], quad[2], quad[3]}} {
				if math.Abs(signedArea(t[:])) > minArea {
					tris = append(tris, t)
				}
			}
		}
	}
	return tris
}

func xAt(a, b mgl64.Vec2, y float64) float64 {
	return a[0] + (b[0]-a[0])*(y-a[1])/(b[1]-a[1])
}

func uniq(s []float64) []float64 {
	out := s[:0]
	for i, v := range s {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// signedArea is positive for counter-clockwise polygons in a y-up frame.
func signedArea(pts []mgl64.Vec2) float64 {
	a := 0.0
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		a += p[0]*q[1] - q[0]*p[1]
	}
	return a / 2
}
