package binary

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/dyuri/buildmap/internal/model"
	"golang.org/x/text/encoding/charmap"
)

// Writer encodes a map back into the BUILD or Blood file format
type Writer struct {
	w      io.Writer
	endian binary.ByteOrder
}

// NewWriter creates a new map writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:      w,
		endian: binary.LittleEndian,
	}
}

// Write writes a complete map in the variant named by its header. Tables
// must be complete: every record's Index has to equal its position.
func (w *Writer) Write(m *model.Map) error {
	if err := checkContiguous(m); err != nil {
		return err
	}

	var buf bytes.Buffer
	var err error
	if m.Header.Variant == model.VariantBlood {
		err = w.writeBlood(&buf, m)
	} else {
		err = w.writeBuild(&buf, m)
	}
	if err != nil {
		return err
	}

	if _, err := w.w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write map: %w", err)
	}
	return nil
}

// Encode returns the encoded map bytes.
func Encode(m *model.Map) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewWriter(&buf).Write(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (w *Writer) writeBuild(buf *bytes.Buffer, m *model.Map) error {
	version := m.Header.Version
	if version == 0 {
		version = 7
	}
	if version < 7 || version > 9 {
		return fmt.Errorf("%w: cannot write BUILD map version %d", ErrUnsupportedVersion, version)
	}

	w.put32(buf, uint32(version))
	w.put32(buf, uint32(m.Header.PosX))
	w.put32(buf, uint32(m.Header.PosY))
	w.put32(buf, uint32(m.Header.PosZ))
	w.put16(buf, uint16(m.Header.Angle))
	w.put16(buf, uint16(m.Header.CurSector))

	rec := make([]byte, SpriteSize)

	w.put16(buf, uint16(len(m.Sectors)))
	for _, s := range m.Sectors {
		encodeSector(rec[:SectorSize], s)
		buf.Write(rec[:SectorSize])
	}

	w.put16(buf, uint16(len(m.Walls)))
	for _, wall := range m.Walls {
		encodeWall(rec[:WallSize], wall)
		buf.Write(rec[:WallSize])
	}

	w.put16(buf, uint16(len(m.Sprites)))
	for _, s := range m.Sprites {
		encodeSprite(rec[:SpriteSize], s)
		buf.Write(rec[:SpriteSize])
	}
	return nil
}

func (w *Writer) writeBlood(buf *bytes.Buffer, m *model.Map) error {
	h := m.Header
	hasSky := h.HasSky && len(h.SkyOffsets) > 0
	buf.Write(BloodMagic)
	buf.WriteByte(0) // minor
	buf.WriteByte(7) // major

	key, inc := 0x4D, 0

	// Header 1
	block := make([]byte, bloodHeader1Size)
	w.endian.PutUint32(block[0:4], uint32(h.PosX))
	w.endian.PutUint32(block[4:8], uint32(h.PosY))
	w.endian.PutUint32(block[8:12], uint32(h.PosZ))
	w.endian.PutUint16(block[12:14], uint16(h.Angle))
	w.endian.PutUint16(block[14:16], uint16(h.CurSector))
	inc = decrypt(block, key, inc)
	buf.Write(block)

	// Header 2
	block = make([]byte, bloodHeader2Size)
	if hasSky {
		block[0] |= 0x04
	}
	copy(block[6:10], "Matt")
	inc = decrypt(block, key, inc)
	buf.Write(block)

	// Header 3
	block = make([]byte, bloodHeader3Size)
	w.endian.PutUint32(block[0:4], h.Revisions)
	w.endian.PutUint16(block[4:6], uint16(len(m.Sectors)))
	w.endian.PutUint16(block[6:8], uint16(len(m.Walls)))
	w.endian.PutUint16(block[8:10], uint16(len(m.Sprites)))
	decrypt(block, key, inc)
	buf.Write(block)

	// Header 4
	block = make([]byte, bloodHeader4Size)
	copyright, err := charmap.CodePage437.NewEncoder().Bytes([]byte(h.Copyright))
	if err != nil {
		return fmt.Errorf("encode copyright: %w", err)
	}
	copy(block[0:57], copyright)
	decrypt(block, len(m.Walls)&0xFF, 0)
	buf.Write(block)

	// Sky offsets. The first decrypted byte overlays the size byte and is
	// always zero.
	if hasSky {
		size := len(h.SkyOffsets) * 2
		if size > 0xFF {
			return fmt.Errorf("%w: %d sky offsets", ErrIndexOutOfRange, len(h.SkyOffsets))
		}
		block = make([]byte, size)
		for i, off := range h.SkyOffsets {
			w.endian.PutUint16(block[i*2:], uint16(off))
		}
		block[0] = 0
		decrypt(block, size, 0)
		buf.Write(block)
	} else {
		buf.Write([]byte{0, 0})
	}

	rev := int(h.Revisions)
	rec := make([]byte, SpriteSize)

	sectorKey := (rev * SectorSize) & 0xFF
	for _, s := range m.Sectors {
		encodeSector(rec[:SectorSize], s)
		decrypt(rec[:SectorSize], sectorKey, 0)
		buf.Write(rec[:SectorSize])
		if s.Extra > 0 {
			buf.Write(make([]byte, bloodSectorExtraSize))
		}
	}

	wallKey := ((rev * SectorSize) | 0x4D) & 0xFF
	for _, wall := range m.Walls {
		encodeWall(rec[:WallSize], wall)
		decrypt(rec[:WallSize], wallKey, 0)
		buf.Write(rec[:WallSize])
		if wall.Extra > 0 {
			buf.Write(make([]byte, bloodWallExtraSize))
		}
	}

	spriteKey := ((rev * SpriteSize) | 0x4D) & 0xFF
	for _, s := range m.Sprites {
		encodeSprite(rec[:SpriteSize], s)
		decrypt(rec[:SpriteSize], spriteKey, 0)
		buf.Write(rec[:SpriteSize])
		if s.Extra > 0 {
			buf.Write(make([]byte, bloodSpriteExtraSize))
		}
	}

	w.put32(buf, crc32.ChecksumIEEE(buf.Bytes()))
	return nil
}

func (w *Writer) put16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	w.endian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func (w *Writer) put32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	w.endian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func checkContiguous(m *model.Map) error {
	for i, s := range m.Sectors {
		if s.Index != i {
			return fmt.Errorf("%w: sector table has a gap at %d", ErrIndexOutOfRange, i)
		}
	}
	for i, wall := range m.Walls {
		if wall.Index != i {
			return fmt.Errorf("%w: wall table has a gap at %d", ErrIndexOutOfRange, i)
		}
	}
	for i, s := range m.Sprites {
		if s.Index != i {
			return fmt.Errorf("%w: sprite table has a gap at %d", ErrIndexOutOfRange, i)
		}
	}
	if len(m.Sectors) > 0xFFFF || len(m.Walls) > 0xFFFF || len(m.Sprites) > 0xFFFF {
		return fmt.Errorf("%w: table exceeds 65535 records", ErrIndexOutOfRange)
	}
	return nil
}
