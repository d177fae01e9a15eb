// Package archive reads the native BUILD engine resource containers: GRP
// and RFF archives, ART tile banks and palettes.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dyuri/buildmap/internal/model"
	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrInvalid is returned for files that are not the expected container.
	ErrInvalid = errors.New("invalid archive")
	// ErrUnsupportedVersion is returned for RFF and ART versions that can not be read.
	ErrUnsupportedVersion = errors.New("unsupported archive version")
)

// Entry is one file stored in an archive.
type Entry struct {
	Name    string    `json:"name"`
	Offset  int64     `json:"offset"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time,omitempty"`
	Flags   uint8     `json:"flags,omitempty"`
}

// Encrypted reports whether the RFF entry data is XOR encrypted.
func (e Entry) Encrypted() bool { return e.Flags&rffEncrypted != 0 }

// Archive is a GRP or RFF archive held in memory.
type Archive struct {
	Path    string
	Kind    model.SourceKind // SourceGRP or SourceRFF
	Version uint16           // RFF only
	Entries []Entry

	data []byte
}

// Size returns the archive size in bytes.
func (a *Archive) Size() int64 { return int64(len(a.data)) }

// Open reads a whole archive file and parses it by extension.
func Open(name string) (*Archive, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	var a *Archive
	switch strings.ToLower(filepath.Ext(name)) {
	case ".rff":
		a, err = ParseRFF(data)
	default:
		a, err = ParseGRP(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	a.Path = name
	return a, nil
}

// IsArchive reports whether a file name has a supported archive extension.
func IsArchive(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".grp", ".rff":
		return true
	}
	return false
}

// Read returns the decrypted contents of an entry.
func (a *Archive) Read(e Entry) ([]byte, error) {
	if e.Offset < 0 || e.Size < 0 || e.Offset+e.Size > int64(len(a.data)) {
		return nil, fmt.Errorf("entry %s: %w", e.Name, ErrInvalid)
	}
	out := make([]byte, e.Size)
	copy(out, a.data[e.Offset:e.Offset+e.Size])
	if a.Kind == model.SourceRFF && e.Encrypted() {
		decryptEntry(out)
	}
	return out, nil
}

// Find returns the entries matching a case-insensitive glob pattern, in
// archive order.
func (a *Archive) Find(pattern string) []Entry {
	pattern = strings.ToUpper(pattern)
	var out []Entry
	for _, e := range a.Entries {
		if ok, _ := path.Match(pattern, strings.ToUpper(e.Name)); ok {
			out = append(out, e)
		}
	}
	return out
}

// dosName decodes a fixed NUL padded DOS name.
func dosName(raw []byte) string {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	s, err := charmap.CodePage437.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return strings.TrimSpace(string(s))
}
