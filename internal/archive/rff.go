package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/dyuri/buildmap/internal/model"
)

// RFFMagic starts every RFF archive.
const RFFMagic = "RFF\x1A"

// RFF entry flags
const (
	rffExternal  = 0x02
	rffEncrypted = 0x10
)

// Only the head of an encrypted entry is scrambled.
const rffEncryptedBytes = 256

// RFF file header
type rffHeader struct {
	Magic       [4]byte
	Version     uint16
	Reserved1   [2]byte
	DictOffset  uint32
	DictEntries uint32
	Reserved2   [16]byte
}

// RFF dictionary entry (48 bytes)
type rffEntry struct {
	CacheNode  [16]byte
	Offset     uint32
	Size       uint32
	PackedSize uint32
	Time       uint32
	Flags      uint8
	Type       [3]byte
	Name       [8]byte
	ID         uint32
}

const (
	rffHeaderSize = 32
	rffEntrySize  = 48
)

// ParseRFF parses a Blood RFF archive. Version 3 dictionaries are
// decrypted; external entries are left out.
func ParseRFF(data []byte) (*Archive, error) {
	var header rffHeader
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read RFF header: %w", ErrInvalid)
	}
	if string(header.Magic[:]) != RFFMagic {
		return nil, fmt.Errorf("bad RFF signature %q: %w", header.Magic[:], ErrInvalid)
	}
	major := header.Version & 0xFF00
	if major != 0x0200 && major != 0x0300 {
		return nil, fmt.Errorf("RFF version 0x%04x: %w", header.Version, ErrUnsupportedVersion)
	}

	a := &Archive{Kind: model.SourceRFF, Version: header.Version, data: data}
	if header.DictEntries == 0 {
		return a, nil
	}
	dictSize := int64(header.DictEntries) * rffEntrySize
	if header.DictOffset < rffHeaderSize || int64(header.DictOffset)+dictSize > int64(len(data)) {
		return nil, fmt.Errorf("RFF dictionary at %d (%d entries) exceeds file size: %w",
			header.DictOffset, header.DictEntries, ErrInvalid)
	}

	dict := make([]byte, dictSize)
	copy(dict, data[header.DictOffset:])
	if major == 0x0300 {
		key := uint16(header.DictOffset + uint32(header.Version&0xFF)*header.DictOffset)
		for i := range dict {
			dict[i] ^= byte(key >> 1)
			key++
		}
	}

	r := bytes.NewReader(dict)
	for i := uint32(0); i < header.DictEntries; i++ {
		var raw rffEntry
		if err := binary.Read(r, binary.LittleEndian, &raw); err != nil {
			return nil, fmt.Errorf("failed to read RFF entry %d: %w", i, ErrInvalid)
		}
		if raw.Flags&rffExternal != 0 {
			continue
		}
		e := Entry{
			Name:    dosName(raw.Name[:]),
			Offset:  int64(raw.Offset),
			Size:    int64(raw.Size),
			ModTime: dosTime(raw.Time),
			Flags:   raw.Flags,
		}
		if ext := dosName(raw.Type[:]); ext != "" {
			e.Name += "." + ext
		}
		if e.Offset+e.Size > int64(len(data)) {
			continue
		}
		a.Entries = append(a.Entries, e)
	}
	return a, nil
}

func decryptEntry(b []byte) {
	for i := 0; i < len(b) && i < rffEncryptedBytes; i++ {
		b[i] ^= byte(i >> 1)
	}
}

// dosTime decodes a DOS timestamp, date in the high word.
func dosTime(v uint32) time.Time {
	if v == 0 {
		return time.Time{}
	}
	t, d := v&0xFFFF, v>>16
	return time.Date(
		1980+int((d>>9)&0x7F), time.Month((d>>5)&0x0F), int(d&0x1F),
		int((t>>11)&0x1F), int((t>>5)&0x3F), int(t&0x1F)*2,
		0, time.UTC)
}

func encodeDOSTime(t time.Time) uint32 {
	if t.IsZero() {
		return 0
	}
	d := uint32(t.Year()-1980)<<9 | uint32(t.Month())<<5 | uint32(t.Day())
	tm := uint32(t.Hour())<<11 | uint32(t.Minute())<<5 | uint32(t.Second()/2)
	return d<<16 | tm
}

// RFFFile is a payload for WriteRFF.
type RFFFile struct {
	File
	Flags   uint8
	ModTime time.Time
}

// WriteRFF encodes files as an RFF archive with the dictionary at the end.
// Entries flagged as encrypted are stored scrambled.
func WriteRFF(version uint16, files []RFFFile) []byte {
	var buf bytes.Buffer
	buf.Write(make([]byte, rffHeaderSize))

	entries := make([]rffEntry, len(files))
	for i, f := range files {
		data := append([]byte(nil), f.Data...)
		if f.Flags&rffEncrypted != 0 {
			decryptEntry(data)
		}
		base, ext, _ := strings.Cut(f.Name, ".")
		e := rffEntry{
			Offset:     uint32(buf.Len()),
			Size:       uint32(len(data)),
			PackedSize: uint32(len(data)),
			Time:       encodeDOSTime(f.ModTime),
			Flags:      f.Flags,
			ID:         uint32(i),
		}
		copy(e.Name[:], base)
		copy(e.Type[:], ext)
		entries[i] = e
		buf.Write(data)
	}

	var dict bytes.Buffer
	binary.Write(&dict, binary.LittleEndian, entries)
	dictOffset := uint32(buf.Len())
	raw := dict.Bytes()
	if version&0xFF00 == 0x0300 {
		key := uint16(dictOffset + uint32(version&0xFF)*dictOffset)
		for i := range raw {
			raw[i] ^= byte(key >> 1)
			key++
		}
	}
	buf.Write(raw)

	out := buf.Bytes()
	header := rffHeader{Version: version, DictOffset: dictOffset, DictEntries: uint32(len(files))}
	copy(header.Magic[:], RFFMagic)
	var hb bytes.Buffer
	binary.Write(&hb, binary.LittleEndian, header)
	copy(out, hb.Bytes())
	return out
}
