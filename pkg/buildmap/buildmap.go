// Package buildmap imports BUILD engine and Blood maps into a scene graph.
//
// This package can be used as a library to decode maps, resolve wall
// neighbors, reconstruct geometry and resolve the tiles the map uses.
//
// Example usage:
//
//	buf, _ := os.ReadFile("E1L1.MAP")
//	opts := buildmap.Options{Options: config.Default()}
//	sources := []buildmap.Source{{Path: "/games/duke3d"}}
//
//	res, err := buildmap.Import(ctx, buf, sources, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, e := range res.Report.Entries {
//	    fmt.Println(e)
//	}
package buildmap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dyuri/buildmap/internal/binary"
	"github.com/dyuri/buildmap/internal/config"
	"github.com/dyuri/buildmap/internal/geometry"
	"github.com/dyuri/buildmap/internal/model"
	"github.com/dyuri/buildmap/internal/neighbor"
	"github.com/dyuri/buildmap/internal/tiles"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Public names of the pipeline types
type (
	Map       = model.Map
	Report    = model.Report
	TileEntry = model.TileEntry
	Scene     = geometry.Scene
	Source    = tiles.Source
)

// Options is the import configuration plus the logger every stage uses.
type Options struct {
	config.Options
	Logger logrus.FieldLogger
}

// Result is the outcome of one import.
type Result struct {
	Map      *Map        // decoded tables with resolved neighbor links
	Scene    *Scene      // reconstructed geometry
	Manifest []TileEntry // resolved tiles the map uses
	Report   *Report     // every dropped, skipped, repaired or suspicious record
	RunID    string
}

// Import decodes a map buffer, resolves wall neighbors, indexes the tile
// sources and builds the scene. Without explicit sources the texture
// folders of the options are used. A canceled context discards all work.
func Import(ctx context.Context, buf []byte, sources []Source, opts Options) (*Result, error) {
	runID := uuid.NewString()
	log := config.OrDiscard(opts.Logger).WithField("run", runID)

	m, report, err := resolve(ctx, buf, opts, log)
	if err != nil {
		return nil, err
	}

	configured, tileOpts := tiles.FromConfig(opts.Textures, m.Header.Variant, log)
	if sources == nil {
		sources = configured
	}
	tileOpts.Required = m.Picnums()
	index, tileReport, err := tiles.Build(ctx, sources, tileOpts)
	if err != nil {
		return nil, wrap(err)
	}
	report.Merge(tileReport)

	scene, sceneReport, err := geometry.Build(ctx, m, index, geometry.FromConfig(opts.Options, log))
	if err != nil {
		return nil, wrap(err)
	}
	report.Merge(sceneReport)

	log.WithFields(logrus.Fields{
		"sectors": scene.Sectors,
		"tiles":   index.Len(),
		"report":  report.Len(),
	}).Info("map imported")
	return &Result{
		Map:      m,
		Scene:    scene,
		Manifest: index.Manifest(m.Picnums()...),
		Report:   report,
		RunID:    runID,
	}, nil
}

// Validate runs the import without tile sources and returns the report.
func Validate(ctx context.Context, buf []byte, opts Options) (*Report, error) {
	log := config.OrDiscard(opts.Logger)
	m, report, err := resolve(ctx, buf, opts, log)
	if err != nil {
		return nil, err
	}
	_, sceneReport, err := geometry.Build(ctx, m, nil, geometry.FromConfig(opts.Options, log))
	if err != nil {
		return nil, wrap(err)
	}
	report.Merge(sceneReport)
	return report, nil
}

// Fix decodes a map, resolves its neighbor links and encodes it again.
func Fix(ctx context.Context, buf []byte, opts Options) ([]byte, *Report, error) {
	m, report, err := resolve(ctx, buf, opts, config.OrDiscard(opts.Logger))
	if err != nil {
		return nil, nil, err
	}
	out, err := binary.Encode(m)
	if err != nil {
		return nil, nil, &Error{Code: ErrInvalidFormat.Code, Message: "failed to encode map", Cause: err}
	}
	return out, report, nil
}

// Decode parses a map buffer without resolving anything.
func Decode(buf []byte, opts Options) (*Map, *Report, error) {
	m, report, err := binary.Decode(buf, binary.Options{IgnoreErrors: opts.IgnoreMapErrors, Logger: opts.Logger})
	if err != nil {
		return nil, nil, wrap(err)
	}
	return m, report, nil
}

// resolve decodes the map and applies the configured neighbor strategy.
func resolve(ctx context.Context, buf []byte, opts Options, log logrus.FieldLogger) (*Map, *Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, wrap(err)
	}
	m, report, err := binary.Decode(buf, binary.Options{IgnoreErrors: opts.IgnoreMapErrors, Logger: log})
	if err != nil {
		return nil, nil, wrap(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, wrap(err)
	}

	kind := neighbor.Strict
	if opts.HeuristicWallSearch {
		kind = neighbor.Heuristic
	}
	m, res := neighbor.Apply(m, neighbor.New(kind, neighbor.Options{Epsilon: opts.HeuristicEpsilon, Logger: log}))
	report.Merge(res.Report)
	if res.Repairs > 0 {
		log.Infof("%s neighbor search changed %d walls", kind, res.Repairs)
	}
	return m, report, nil
}

// Common errors
var (
	ErrInvalidFormat = &Error{Code: "invalid_format", Message: "invalid map format"}
	ErrStructural    = &Error{Code: "structural", Message: "corrupt map structure"}
	ErrReferential   = &Error{Code: "referential", Message: "broken map reference"}
	ErrCanceled      = &Error{Code: "canceled", Message: "import canceled"}
)

// Error represents a buildmap error
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, so errors.Is(err, ErrStructural) holds for
// every structural failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// wrap classifies a pipeline error.
func wrap(err error) error {
	var kind *Error
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = ErrCanceled
	case errors.Is(err, binary.ErrUnknownFormat), errors.Is(err, binary.ErrUnsupportedVersion):
		kind = ErrInvalidFormat
	case errors.Is(err, binary.ErrTruncated), errors.Is(err, binary.ErrCountMismatch):
		kind = ErrStructural
	case errors.Is(err, binary.ErrIndexOutOfRange), errors.Is(err, geometry.ErrOpenLoop):
		kind = ErrReferential
	default:
		return fmt.Errorf("import: %w", err)
	}
	return &Error{Code: kind.Code, Message: kind.Message, Cause: err}
}
