package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/dyuri/buildmap/internal/model"
)

// GRPMagic starts every GRP archive.
const GRPMagic = "KenSilverman"

// GRP file header
type grpHeader struct {
	Magic [12]byte
	Count uint32
}

// GRP directory entry. Data follows the directory in entry order.
type grpEntry struct {
	Name [12]byte
	Size uint32
}

// ParseGRP parses a GRP archive.
func ParseGRP(data []byte) (*Archive, error) {
	r := bytes.NewReader(data)
	var header grpHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read GRP header: %w", ErrInvalid)
	}
	if string(header.Magic[:]) != GRPMagic {
		return nil, fmt.Errorf("bad GRP signature %q: %w", header.Magic[:], ErrInvalid)
	}

	dirEnd := 16 + int64(header.Count)*16
	if dirEnd > int64(len(data)) {
		return nil, fmt.Errorf("GRP directory of %d files exceeds file size: %w", header.Count, ErrInvalid)
	}

	a := &Archive{Kind: model.SourceGRP, data: data}
	offset := dirEnd
	for i := uint32(0); i < header.Count; i++ {
		var raw grpEntry
		if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
			return nil, fmt.Errorf("failed to read GRP entry %d: %w", i, ErrInvalid)
		}
		e := Entry{Name: dosName(raw.Name[:]), Offset: offset, Size: int64(raw.Size)}
		if e.Offset+e.Size > int64(len(data)) {
			return nil, fmt.Errorf("GRP entry %s exceeds file size: %w", e.Name, ErrInvalid)
		}
		a.Entries = append(a.Entries, e)
		offset += e.Size
	}
	return a, nil
}

// File is a named payload for building archives.
type File struct {
	Name string
	Data []byte
}

// WriteGRP encodes files as a GRP archive. Names are truncated to 12 bytes.
func WriteGRP(files []File) []byte {
	var buf bytes.Buffer
	header := grpHeader{Count: uint32(len(files))}
	copy(header.Magic[:], GRPMagic)
	binary.Write(&buf, binary.LittleEndian, header)
	for _, f := range files {
		var e grpEntry
		copy(e.Name[:], f.Name)
		e.Size = uint32(len(f.Data))
		binary.Write(&buf, binary.LittleEndian, e)
	}
	for _, f := range files {
		buf.Write(f.Data)
	}
	return buf.Bytes()
}
