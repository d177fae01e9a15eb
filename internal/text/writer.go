// Package text writes the human readable debug dump of a map: every raw
// record value in [section] key=value form.
package text

import (
	"fmt"
	"io"

	"github.com/dyuri/buildmap/internal/geometry"
	"github.com/dyuri/buildmap/internal/model"
)

// Writer writes the debug dump
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter creates a new dump writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) printf(format string, args ...interface{}) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}

// Write outputs the header and every sector, wall and sprite record,
// followed by the report.
func (w *Writer) Write(m *model.Map, report *model.Report) error {
	w.section("header", m.Header.Fields())
	for _, s := range m.Sectors {
		w.section(fmt.Sprintf("sector %d", s.Index), s.Fields())
	}
	for _, wl := range m.Walls {
		w.section(fmt.Sprintf("wall %d", wl.Index), wl.Fields())
	}
	for _, sp := range m.Sprites {
		w.section(fmt.Sprintf("sprite %d", sp.Index), sp.Fields())
	}

	if !report.Empty() {
		w.printf("[report]\n")
		for _, e := range report.Entries {
			w.printf("%s\n", e)
		}
		w.printf("[end]\n\n")
	}
	if w.err != nil {
		return fmt.Errorf("write dump: %w", w.err)
	}
	return nil
}

// WriteScene outputs the debug metadata attached to the scene objects and
// sprites.
func (w *Writer) WriteScene(scene *geometry.Scene) error {
	for _, o := range scene.Objects {
		w.printf("[object %s]\n", o.Name)
		w.printf("collection=%s\n", o.Collection)
		if o.Origin != nil {
			w.printf("origin=%s %d\n", o.Origin.Kind, o.Origin.Index)
		}
		w.printf("faces=%d\n", len(o.Mesh.Faces))
		w.fields(o.Fields)
		w.printf("[end]\n\n")
	}
	for _, sp := range scene.Sprites {
		w.printf("[object %s]\n", sp.Name)
		w.printf("collection=%s\n", sp.Collection)
		if sp.Label != "" {
			w.printf("label=%s\n", sp.Label)
		}
		w.fields(sp.Fields)
		w.printf("[end]\n\n")
	}
	w.section("object "+scene.Spawn.Name, scene.Spawn.Fields)
	if w.err != nil {
		return fmt.Errorf("write scene dump: %w", w.err)
	}
	return nil
}

func (w *Writer) section(name string, fields []model.Field) {
	w.printf("[%s]\n", name)
	w.fields(fields)
	w.printf("[end]\n\n")
}

func (w *Writer) fields(fields []model.Field) {
	for _, f := range fields {
		w.printf("%s=%v\n", f.Name, f.Value)
	}
}
