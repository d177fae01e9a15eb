// Package export writes imported scenes and their tile manifests to disk:
// compressed JSON documents, extracted tile pictures and file tags.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dyuri/buildmap/internal/geometry"
	"github.com/dyuri/buildmap/internal/model"
)

// Document is the exported form of one import.
type Document struct {
	RunID    string            `json:"run_id"`
	Source   string            `json:"source"` // map file name
	Version  int               `json:"version"`
	Variant  string            `json:"variant"`
	Scene    *geometry.Scene   `json:"scene"`
	Manifest []model.TileEntry `json:"manifest"`
	Report   *model.Report     `json:"report"`
}

// Encode writes doc as indented JSON through the codec.
func Encode(w io.Writer, doc *Document, codec Codec) error {
	cw, err := codec.NewWriter(w)
	if err != nil {
		return fmt.Errorf("failed to create %s writer: %w", codec, err)
	}
	bw := bufio.NewWriterSize(cw, 256*1024)
	enc := json.NewEncoder(bw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		cw.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		cw.Close()
		return err
	}
	return cw.Close()
}

// Decode reads a document written by Encode.
func Decode(r io.Reader, codec Codec) (*Document, error) {
	cr, err := codec.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s reader: %w", codec, err)
	}
	defer cr.Close()
	var doc Document
	if err := json.NewDecoder(bufio.NewReader(cr)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("json decode: %w", err)
	}
	return &doc, nil
}

// WriteFile writes doc to path, adding the codec extension when missing,
// and returns the final path.
func WriteFile(path string, doc *Document, codec Codec) (string, error) {
	if ext := codec.Ext(); ext != "" && !strings.HasSuffix(path, ext) {
		path += ext
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", err
	}
	if err := Encode(f, doc, codec); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// ReadFile reads a document, picking the codec from the extension.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f, CodecFor(path))
}

// CodecFor guesses the codec from a file name.
func CodecFor(path string) Codec {
	for _, c := range []Codec{CodecZstd, CodecLZ4, CodecXZ} {
		if strings.HasSuffix(path, c.Ext()) {
			return c
		}
	}
	return CodecNone
}
