package binary

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/dyuri/buildmap/internal/model"
)

// twoRooms builds two adjacent square sectors sharing walls 1 and 7, plus
// one sprite in each.
func twoRooms() *model.Map {
	m := &model.Map{Header: model.Header{Version: 7, PosX: 512, PosY: 512, PosZ: -8192, Angle: 512}}
	m.Sectors = []model.Sector{
		{Index: 0, WallPtr: 0, WallNum: 4, CeilingZ: -16384, FloorZ: 0, FloorPicnum: 10, CeilingPicnum: 11},
		{Index: 1, WallPtr: 4, WallNum: 4, CeilingZ: -8192, FloorZ: -4096, FloorStat: 2, FloorHeinum: 512},
	}
	pts := [][2]int32{{0, 0}, {1024, 0}, {1024, 1024}, {0, 1024}, {1024, 0}, {2048, 0}, {2048, 1024}, {1024, 1024}}
	for i, p := range pts {
		base := i / 4 * 4
		m.Walls = append(m.Walls, model.Wall{
			Index:      i,
			Sector:     i / 4,
			X:          p[0],
			Y:          p[1],
			Point2:     uint16(base + (i+1)%4),
			NextWall:   -1,
			NextSector: -1,
			XRepeat:    8,
			YRepeat:    8,
			Picnum:     uint16(100 + i),
		})
	}
	m.Walls[1].NextWall, m.Walls[1].NextSector = 7, 1
	m.Walls[7].NextWall, m.Walls[7].NextSector = 1, 0
	m.Sprites = []model.Sprite{
		{Index: 0, X: 512, Y: 512, Z: 0, Picnum: 1, SectNum: 0, XRepeat: 64, YRepeat: 64, Ang: 1024},
		{Index: 1, X: 1536, Y: 512, Z: -4096, Picnum: 40, SectNum: 1, XRepeat: 32, YRepeat: 32, Cstat: 0x20},
	}
	m.Header.NumSectors, m.Header.NumWalls, m.Header.NumSprites = 2, 8, 2
	return m
}

func encode(t *testing.T, m *model.Map) []byte {
	t.Helper()
	buf, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	return buf
}

// TestDetectFormat tests magic detection
func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		buf     []byte
		variant model.Variant
		version int
		err     error
	}{
		{"build7", []byte{7, 0, 0, 0}, model.VariantBuild, 7, nil},
		{"build9", []byte{9, 0, 0, 0}, model.VariantBuild, 9, nil},
		{"build3", []byte{3, 0, 0, 0}, model.VariantBuild, 3, nil},
		{"blood", []byte("BLM\x1A\x00\x07"), model.VariantBlood, 7, nil},
		{"unknown", []byte{0x50, 0x4B, 3, 4}, 0, 0, ErrUnknownFormat},
		{"short", []byte{7, 0}, 0, 0, ErrTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			variant, version, err := DetectFormat(tt.buf)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("DetectFormat error = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetectFormat failed: %v", err)
			}
			if variant != tt.variant || version != tt.version {
				t.Errorf("DetectFormat = %v %d, want %v %d", variant, version, tt.variant, tt.version)
			}
		})
	}
}

// TestDecodeBuildMap tests decoding of a well-formed BUILD map
func TestDecodeBuildMap(t *testing.T) {
	src := twoRooms()
	m, report, err := Decode(encode(t, src), Options{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !report.Empty() {
		t.Errorf("report = %v, want empty", report)
	}

	h := m.Header
	if h.Variant != model.VariantBuild || h.Version != 7 {
		t.Errorf("Header variant/version = %v/%d, want build/7", h.Variant, h.Version)
	}
	if h.PosX != 512 || h.PosZ != -8192 || h.Angle != 512 {
		t.Errorf("start = %d,%d,%d ang %d", h.PosX, h.PosY, h.PosZ, h.Angle)
	}
	if h.NumSectors != 2 || h.NumWalls != 8 || h.NumSprites != 2 {
		t.Errorf("counts = %d/%d/%d, want 2/8/2", h.NumSectors, h.NumWalls, h.NumSprites)
	}
	if h.SupportsTROR() {
		t.Error("version 7 map reports TROR support")
	}

	if len(m.Sectors) != 2 || len(m.Walls) != 8 || len(m.Sprites) != 2 {
		t.Fatalf("tables = %d/%d/%d, want 2/8/2", len(m.Sectors), len(m.Walls), len(m.Sprites))
	}
	if m.Sectors[1].FloorHeinum != 512 || m.Sectors[1].FloorStat != 2 {
		t.Errorf("sector 1 slope = %d stat %d", m.Sectors[1].FloorHeinum, m.Sectors[1].FloorStat)
	}
	if m.Sectors[0].CeilingZ != -16384 {
		t.Errorf("sector 0 ceilingz = %d, want -16384", m.Sectors[0].CeilingZ)
	}
	for i, w := range m.Walls {
		if w != src.Walls[i] {
			t.Errorf("wall %d = %+v, want %+v", i, w, src.Walls[i])
		}
	}
	for i, s := range m.Sprites {
		if s != src.Sprites[i] {
			t.Errorf("sprite %d = %+v, want %+v", i, s, src.Sprites[i])
		}
	}
}

// TestDecodeBloodMap tests decoding of an encrypted Blood map
func TestDecodeBloodMap(t *testing.T) {
	src := twoRooms()
	src.Header.Variant = model.VariantBlood
	src.Header.Revisions = 13
	src.Header.Copyright = "Copyright 1997 Monolith Productions."
	src.Header.HasSky = true
	src.Header.SkyOffsets = []int16{0, 1, 2, 3}
	// extra > 0 appends a Blood data block that has to be skipped
	src.Sectors[1].Extra = 5
	src.Walls[3].Extra = 2
	src.Sprites[0].Extra = 1

	buf := encode(t, src)
	if !bytes.Equal(buf[:4], BloodMagic) {
		t.Fatalf("magic = %q", buf[:4])
	}

	m, report, err := Decode(buf, Options{})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !report.Empty() {
		t.Errorf("report = %v, want empty", report)
	}
	h := m.Header
	if h.Variant != model.VariantBlood || h.Version != 7 || h.MinorVersion != 0 {
		t.Errorf("version = %v %d.%d, want blood 7.0", h.Variant, h.Version, h.MinorVersion)
	}
	if !h.SupportsTROR() {
		t.Error("Blood map does not report TROR support")
	}
	if h.Revisions != 13 {
		t.Errorf("Revisions = %d, want 13", h.Revisions)
	}
	if h.Copyright != src.Header.Copyright {
		t.Errorf("Copyright = %q, want %q", h.Copyright, src.Header.Copyright)
	}
	if len(h.SkyOffsets) != 4 || h.SkyOffsets[3] != 3 {
		t.Errorf("SkyOffsets = %v, want [0 1 2 3]", h.SkyOffsets)
	}
	if h.PosX != 512 || h.Angle != 512 {
		t.Errorf("start = %d ang %d", h.PosX, h.Angle)
	}
	if len(m.Sectors) != 2 || len(m.Walls) != 8 || len(m.Sprites) != 2 {
		t.Fatalf("tables = %d/%d/%d, want 2/8/2", len(m.Sectors), len(m.Walls), len(m.Sprites))
	}
	if m.Walls[4] != src.Walls[4] {
		t.Errorf("wall 4 = %+v, want %+v", m.Walls[4], src.Walls[4])
	}
	if m.Sprites[1] != src.Sprites[1] {
		t.Errorf("sprite 1 = %+v, want %+v", m.Sprites[1], src.Sprites[1])
	}
}

// TestDecryptSymmetric tests that the Blood key stream is its own inverse
func TestDecryptSymmetric(t *testing.T) {
	plain := []byte("0123456789abcdef")
	buf := append([]byte(nil), plain...)
	inc := decrypt(buf, 0x4D, 3)
	if inc != 3+len(plain) {
		t.Errorf("increment = %d, want %d", inc, 3+len(plain))
	}
	if bytes.Equal(buf, plain) {
		t.Fatal("decrypt did not change the data")
	}
	decrypt(buf, 0x4D, 3)
	if !bytes.Equal(buf, plain) {
		t.Errorf("decrypt twice = %q, want %q", buf, plain)
	}
}

// TestDecodeShortHeader tests that header truncation is fatal in both modes
func TestDecodeShortHeader(t *testing.T) {
	buf := encode(t, twoRooms())[:12]
	for _, lenient := range []bool{false, true} {
		if _, _, err := Decode(buf, Options{IgnoreErrors: lenient}); !errors.Is(err, ErrTruncated) {
			t.Errorf("IgnoreErrors=%v: error = %v, want ErrTruncated", lenient, err)
		}
	}
}

// TestDecodeUnsupportedVersion tests rejection of old BUILD versions
func TestDecodeUnsupportedVersion(t *testing.T) {
	buf := encode(t, twoRooms())
	binary.LittleEndian.PutUint32(buf[0:], 6)
	if _, _, err := Decode(buf, Options{IgnoreErrors: true}); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("error = %v, want ErrUnsupportedVersion", err)
	}
}

// TestDecodeSectorOutOfRange tests strict and lenient handling of a sector
// whose first wall lies beyond the wall table
func TestDecodeSectorOutOfRange(t *testing.T) {
	src := twoRooms()
	src.Sectors = append(src.Sectors, model.Sector{Index: 2, WallPtr: 20, WallNum: 0})
	buf := encode(t, src)

	if _, _, err := Decode(buf, Options{}); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("strict error = %v, want ErrIndexOutOfRange", err)
	}

	m, report, err := Decode(buf, Options{IgnoreErrors: true})
	if err != nil {
		t.Fatalf("lenient Decode failed: %v", err)
	}
	if len(m.Sectors) != 2 {
		t.Errorf("sectors = %d, want 2", len(m.Sectors))
	}
	if report.Len() != 1 {
		t.Fatalf("report = %v, want one entry", report)
	}
	e := report.Entries[0]
	if e.Table != model.TableSector || e.Index != 2 || e.Action != model.ActionDropped {
		t.Errorf("entry = %+v, want sector 2 dropped", e)
	}
	if _, ok := m.Sector(2); ok {
		t.Error("dropped sector 2 still resolvable")
	}
}

// TestDecodeBadPoint2 tests dropping of a wall whose point2 is out of range
func TestDecodeBadPoint2(t *testing.T) {
	src := twoRooms()
	src.Walls[6].Point2 = 99
	buf := encode(t, src)

	if _, _, err := Decode(buf, Options{}); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("strict error = %v, want ErrIndexOutOfRange", err)
	}
	m, report, err := Decode(buf, Options{IgnoreErrors: true})
	if err != nil {
		t.Fatalf("lenient Decode failed: %v", err)
	}
	if len(m.Walls) != 7 {
		t.Errorf("walls = %d, want 7", len(m.Walls))
	}
	if _, ok := m.Wall(6); ok {
		t.Error("wall 6 still present")
	}
	if w, ok := m.Wall(7); !ok || w.Index != 7 || w.Sector != 1 {
		t.Errorf("wall 7 lookup = %+v %v", w, ok)
	}
	if got := report.Filter(model.TableWall); len(got) != 1 || got[0].Index != 6 {
		t.Errorf("wall entries = %v, want wall 6", got)
	}
}

// TestDecodeSpriteSector tests sprites referencing a missing sector
func TestDecodeSpriteSector(t *testing.T) {
	src := twoRooms()
	src.Sprites[1].SectNum = 9
	buf := encode(t, src)

	if _, _, err := Decode(buf, Options{}); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("strict error = %v, want ErrIndexOutOfRange", err)
	}
	m, report, err := Decode(buf, Options{IgnoreErrors: true})
	if err != nil {
		t.Fatalf("lenient Decode failed: %v", err)
	}
	if len(m.Sprites) != 1 || report.Len() != 1 {
		t.Errorf("sprites = %d report = %v", len(m.Sprites), report)
	}
}

// TestDecodeCountMismatch tests the wall count sanity check
func TestDecodeCountMismatch(t *testing.T) {
	src := twoRooms()
	src.Sectors[1].WallNum = 3
	buf := encode(t, src)

	if _, _, err := Decode(buf, Options{}); !errors.Is(err, ErrCountMismatch) {
		t.Fatalf("strict error = %v, want ErrCountMismatch", err)
	}
	m, report, err := Decode(buf, Options{IgnoreErrors: true})
	if err != nil {
		t.Fatalf("lenient Decode failed: %v", err)
	}
	if report.Len() != 1 || report.Entries[0].Table != model.TableHeader {
		t.Errorf("report = %v, want one header entry", report)
	}
	if len(m.Sectors) != 2 {
		t.Errorf("sectors = %d, want 2", len(m.Sectors))
	}
	if w, _ := m.Wall(7); w.Sector != model.NoNeighbor {
		t.Errorf("wall 7 sector = %d, want unowned", w.Sector)
	}
}

// TestDecodeTruncatedTable tests a wall table running past the buffer end
func TestDecodeTruncatedTable(t *testing.T) {
	buf := encode(t, twoRooms())
	// header(22) + sectors(80) + numwalls(2) + 5 full walls + half a wall
	cut := 22 + 2*SectorSize + 2 + 5*WallSize + WallSize/2
	buf = buf[:cut]

	if _, _, err := Decode(buf, Options{}); !errors.Is(err, ErrTruncated) {
		t.Fatalf("strict error = %v, want ErrTruncated", err)
	}
	m, report, err := Decode(buf, Options{IgnoreErrors: true})
	if err != nil {
		t.Fatalf("lenient Decode failed: %v", err)
	}
	// five walls were read; wall 4 points at the missing wall 5 and is dropped
	if len(m.Walls) != 4 {
		t.Errorf("walls = %d, want 4", len(m.Walls))
	}
	if len(m.Sprites) != 0 {
		t.Errorf("sprites = %d, want 0", len(m.Sprites))
	}
	// sector 1 needs walls up to 7 and is dropped as well
	if len(m.Sectors) != 1 {
		t.Errorf("sectors = %d, want 1", len(m.Sectors))
	}
	if report.Len() == 0 {
		t.Error("report is empty")
	}
}

// TestWriterRejectsGaps tests that only complete tables are written
func TestWriterRejectsGaps(t *testing.T) {
	m := twoRooms()
	m.Walls = append(m.Walls[:3], m.Walls[4:]...)
	if _, err := Encode(m); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Encode error = %v, want ErrIndexOutOfRange", err)
	}
}

// TestCursor tests bounds checking of the record cursor
func TestCursor(t *testing.T) {
	c := NewCursor([]byte{1, 0, 0xFE, 0xFF, 0xFF, 0xFF, 9})
	if v, err := c.U16(); err != nil || v != 1 {
		t.Errorf("U16 = %d, %v", v, err)
	}
	if v, err := c.I32(); err != nil || v != -2 {
		t.Errorf("I32 = %d, %v", v, err)
	}
	if c.Remaining() != 1 {
		t.Errorf("Remaining = %d, want 1", c.Remaining())
	}
	if _, err := c.U16(); !errors.Is(err, ErrTruncated) {
		t.Errorf("U16 past end error = %v, want ErrTruncated", err)
	}
	if c.Pos() != 6 {
		t.Errorf("Pos after failed read = %d, want 6", c.Pos())
	}
	if v, err := c.I8(); err != nil || v != 9 {
		t.Errorf("I8 = %d, %v", v, err)
	}
	if err := c.Seek(8); !errors.Is(err, ErrTruncated) {
		t.Errorf("Seek error = %v, want ErrTruncated", err)
	}
}
