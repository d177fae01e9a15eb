// Package neighbor repairs and infers the nextwall/nextsector links between
// walls of adjoining sectors.
package neighbor

import (
	"fmt"

	"github.com/dyuri/buildmap/internal/config"
	"github.com/dyuri/buildmap/internal/model"
	"github.com/sirupsen/logrus"
)

// Kind selects a resolution strategy
type Kind int

const (
	Disabled  Kind = iota // keep links exactly as stored
	Strict                // keep symmetric links, clear the rest
	Heuristic             // Strict, then match unlinked walls by coordinates
)

func (k Kind) String() string {
	switch k {
	case Strict:
		return "strict"
	case Heuristic:
		return "heuristic"
	default:
		return "disabled"
	}
}

// ParseKind parses a strategy name.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "disabled", "none":
		return Disabled, nil
	case "strict", "":
		return Strict, nil
	case "heuristic":
		return Heuristic, nil
	}
	return Disabled, fmt.Errorf("unknown neighbor strategy %q", s)
}

// Options configures a strategy
type Options struct {
	// Epsilon is the coordinate tolerance, in Build units, of the
	// heuristic endpoint match.
	Epsilon float64
	Logger  logrus.FieldLogger
}

// Result is the outcome of a resolution
type Result struct {
	Walls   []model.Wall // copy of the wall table with corrected links
	Repairs int          // number of walls whose links changed
	Report  *model.Report
}

// Strategy resolves wall neighbor links.
type Strategy interface {
	Kind() Kind
	Resolve(m *model.Map) Result
}

// New returns the strategy for kind.
func New(kind Kind, opts Options) Strategy {
	switch kind {
	case Strict:
		return strict{log: config.OrDiscard(opts.Logger)}
	case Heuristic:
		return heuristic{strict: strict{log: config.OrDiscard(opts.Logger)}, eps: opts.Epsilon}
	default:
		return disabled{}
	}
}

// Apply resolves m with s and returns a map sharing everything but the
// wall table.
func Apply(m *model.Map, s Strategy) (*model.Map, Result) {
	res := s.Resolve(m)
	return m.WithWalls(res.Walls), res
}

type disabled struct{}

func (disabled) Kind() Kind { return Disabled }

func (disabled) Resolve(m *model.Map) Result {
	return Result{Walls: copyWalls(m.Walls), Report: &model.Report{}}
}

type strict struct {
	log logrus.FieldLogger
}

func (strict) Kind() Kind { return Strict }

func (s strict) Resolve(m *model.Map) Result {
	walls := copyWalls(m.Walls)
	report := &model.Report{}
	repairs := s.pass(m, walls, report)
	return Result{Walls: walls, Repairs: repairs, Report: report}
}

// pass keeps every symmetric cross-sector link and clears the others.
// Links from or to walls without a sector are cleared without a report
// entry, since those walls belong to a sector the decoder dropped.
func (s strict) pass(m *model.Map, walls []model.Wall, report *model.Report) int {
	repairs := 0
	for i := range walls {
		w := &walls[i]
		reason := ""
		silent := false
		nextSector := int16(model.NoNeighbor)

		switch {
		case w.NextWall < 0:
			if w.NextSector >= 0 {
				reason = fmt.Sprintf("nextsector %d without nextwall", w.NextSector)
			}
		default:
			p, ok := m.Wall(int(w.NextWall))
			switch {
			case !ok:
				reason = fmt.Sprintf("nextwall %d out of range", w.NextWall)
			case int(p.NextWall) != w.Index:
				reason = fmt.Sprintf("nextwall %d links back to %d", w.NextWall, p.NextWall)
			case p.Sector == model.NoNeighbor || w.Sector == model.NoNeighbor:
				// walls of a dropped sector; the decoder already reported it
				reason = fmt.Sprintf("nextwall %d is not owned by a sector", w.NextWall)
				silent = true
			case p.Sector == w.Sector:
				reason = fmt.Sprintf("nextwall %d lies in the same sector", w.NextWall)
			default:
				nextSector = int16(p.Sector)
				if w.NextSector != nextSector {
					reason = fmt.Sprintf("nextsector %d corrected to %d", w.NextSector, nextSector)
				}
			}
		}
		if reason == "" {
			continue
		}

		if nextSector == model.NoNeighbor {
			w.NextWall = model.NoNeighbor
		}
		w.NextSector = nextSector
		s.log.WithField("wall", w.Index).Debug(reason)
		if silent {
			continue
		}
		repairs++
		report.Add(model.TableWall, w.Index, model.ActionRepaired, "%s", reason)
	}
	return repairs
}

type heuristic struct {
	strict
	eps float64
}

func (heuristic) Kind() Kind { return Heuristic }

func (h heuristic) Resolve(m *model.Map) Result {
	walls := copyWalls(m.Walls)
	report := &model.Report{}
	repairs := h.pass(m, walls, report)
	repairs += h.match(m, walls, report)
	return Result{Walls: walls, Repairs: repairs, Report: report}
}

// match links every unlinked wall to the first unlinked wall of another
// sector running along the same segment in the opposite direction.
func (h heuristic) match(m *model.Map, walls []model.Wall, report *model.Report) int {
	idx := newPointIndex(h.eps)
	ends := make([]point, len(walls))
	valid := make([]bool, len(walls))
	for i, w := range walls {
		p2, ok := m.Wall(int(w.Point2))
		if !ok || w.Sector == model.NoNeighbor {
			continue
		}
		ends[i] = point{float64(p2.X), float64(p2.Y)}
		valid[i] = true
		idx.add(point{float64(w.X), float64(w.Y)}, i)
	}

	repairs := 0
	for i := range walls {
		w := &walls[i]
		if !valid[i] || w.NextWall >= 0 {
			continue
		}
		start := point{float64(w.X), float64(w.Y)}

		found := -1
		matches := 0
		for _, j := range idx.near(ends[i]) {
			c := &walls[j]
			if j == i || c.NextWall >= 0 || c.Sector == w.Sector {
				continue
			}
			if !ends[j].near(start, h.eps) || !(point{float64(c.X), float64(c.Y)}).near(ends[i], h.eps) {
				continue
			}
			matches++
			if found < 0 {
				found = j
			}
		}
		if found < 0 {
			continue
		}
		if matches > 1 && !m.Header.SupportsTROR() {
			h.log.WithField("wall", w.Index).Warnf("%d neighbor candidates in a map without TROR", matches)
		}

		c := &walls[found]
		w.NextWall, w.NextSector = int16(c.Index), int16(c.Sector)
		c.NextWall, c.NextSector = int16(w.Index), int16(w.Sector)
		repairs += 2
		report.Add(model.TableWall, w.Index, model.ActionRepaired, "linked to wall %d by coordinates", c.Index)
		report.Add(model.TableWall, c.Index, model.ActionRepaired, "linked to wall %d by coordinates", w.Index)
		h.log.WithFields(logrus.Fields{"wall": w.Index, "nextwall": c.Index}).Debug("heuristic neighbor")
	}
	return repairs
}

func copyWalls(walls []model.Wall) []model.Wall {
	out := make([]model.Wall, len(walls))
	copy(out, walls)
	return out
}
