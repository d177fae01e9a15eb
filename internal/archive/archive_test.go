package archive

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dyuri/buildmap/internal/model"
)

func TestGRP(t *testing.T) {
	data := WriteGRP([]File{
		{Name: "TILES000.ART", Data: []byte("art")},
		{Name: "PALETTE.DAT", Data: []byte("palette")},
		{Name: "GAME.CON", Data: nil},
	})
	a, err := ParseGRP(data)
	if err != nil {
		t.Fatalf("ParseGRP failed: %v", err)
	}
	if len(a.Entries) != 3 {
		t.Fatalf("Got %d entries, want 3", len(a.Entries))
	}
	if a.Entries[1].Offset != 16+3*16+3 {
		t.Errorf("Offset = %d, want %d", a.Entries[1].Offset, 16+3*16+3)
	}

	found := a.Find("palette.dat")
	if len(found) != 1 {
		t.Fatalf("Find returned %d entries, want 1", len(found))
	}
	got, err := a.Read(found[0])
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != "palette" {
		t.Errorf("Read = %q, want %q", got, "palette")
	}
	if n := len(a.Find("*.art")); n != 1 {
		t.Errorf("Find(*.art) = %d entries, want 1", n)
	}
}

func TestGRPInvalid(t *testing.T) {
	good := WriteGRP([]File{{Name: "A.ART", Data: []byte("0123456789")}})

	tests := []struct {
		name string
		data []byte
	}{
		{"short", good[:10]},
		{"magic", append([]byte("KenSilverMan"), good[12:]...)},
		{"directory", good[:20]},
		{"data", good[:len(good)-1]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseGRP(tt.data); !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestRFF(t *testing.T) {
	mtime := time.Date(1997, time.March, 14, 10, 20, 30, 0, time.UTC)
	long := bytes.Repeat([]byte{0xAA}, 300)
	files := []RFFFile{
		{File: File{Name: "BLOOD.PAL", Data: []byte("plain")}, ModTime: mtime},
		{File: File{Name: "TILES000.ART", Data: long}, Flags: rffEncrypted},
		{File: File{Name: "EXTERN.SFX", Data: []byte("x")}, Flags: rffExternal},
	}

	for _, version := range []uint16{0x0200, 0x0301} {
		data := WriteRFF(version, files)
		a, err := ParseRFF(data)
		if err != nil {
			t.Fatalf("ParseRFF(0x%04x) failed: %v", version, err)
		}
		if a.Version != version {
			t.Errorf("Version = 0x%04x, want 0x%04x", a.Version, version)
		}
		if len(a.Entries) != 2 {
			t.Fatalf("Got %d entries, want 2 (external skipped)", len(a.Entries))
		}

		pal := a.Entries[0]
		if pal.Name != "BLOOD.PAL" {
			t.Errorf("Name = %q, want BLOOD.PAL", pal.Name)
		}
		if !pal.ModTime.Equal(mtime) {
			t.Errorf("ModTime = %v, want %v", pal.ModTime, mtime)
		}

		art := a.Entries[1]
		if !art.Encrypted() {
			t.Errorf("%s not flagged as encrypted", art.Name)
		}
		if raw := data[art.Offset : art.Offset+art.Size]; raw[4] == 0xAA || raw[299] != 0xAA {
			t.Errorf("stored bytes %x..%x, want only the first 256 scrambled", raw[4], raw[299])
		}
		got, err := a.Read(art)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if !bytes.Equal(got, long) {
			t.Errorf("decrypted entry differs from original")
		}
	}
}

func TestRFFInvalid(t *testing.T) {
	data := WriteRFF(0x0100, []RFFFile{{File: File{Name: "A.ART", Data: []byte("a")}}})
	if _, err := ParseRFF(data); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("version 0x0100: err = %v, want ErrUnsupportedVersion", err)
	}

	data = WriteRFF(0x0301, []RFFFile{{File: File{Name: "A.ART", Data: []byte("a")}}})
	if _, err := ParseRFF(data[:len(data)-1]); !errors.Is(err, ErrInvalid) {
		t.Errorf("cut dictionary: err = %v, want ErrInvalid", err)
	}
	if _, err := ParseRFF([]byte("RFF")); !errors.Is(err, ErrInvalid) {
		t.Errorf("short: err = %v, want ErrInvalid", err)
	}
}

func TestDOSTime(t *testing.T) {
	if !dosTime(0).IsZero() {
		t.Errorf("dosTime(0) = %v, want zero", dosTime(0))
	}
	// 2001-02-03 04:05:06
	v := uint32(21<<9|2<<5|3)<<16 | uint32(4<<11|5<<5|3)
	want := time.Date(2001, time.February, 3, 4, 5, 6, 0, time.UTC)
	if got := dosTime(v); !got.Equal(want) {
		t.Errorf("dosTime = %v, want %v", got, want)
	}
}

func TestART(t *testing.T) {
	// 2x3 tile stored column by column
	pixels := []byte{1, 2, 3, 4, 5, 6}
	anim := model.PicAnim{Frames: 3, Type: 1, XCenter: -4, YCenter: 7, Speed: 2}
	data := WriteART(100, 102, []Tile{
		{Number: 100, Width: 2, Height: 3, Anim: anim, Pixels: pixels},
		{Number: 102, Width: 1, Height: 1, Pixels: []byte{9}},
	})

	art, err := ParseART(data)
	if err != nil {
		t.Fatalf("ParseART failed: %v", err)
	}
	if art.FirstTile != 100 || art.LastTile != 102 {
		t.Errorf("range = %d-%d, want 100-102", art.FirstTile, art.LastTile)
	}
	if len(art.Tiles) != 2 {
		t.Fatalf("Got %d tiles, want 2 (empty tile skipped)", len(art.Tiles))
	}

	tile := art.Tiles[0]
	if tile.Anim != anim {
		t.Errorf("Anim = %+v, want %+v", tile.Anim, anim)
	}
	if tile.Offset != 16+3*8 {
		t.Errorf("Offset = %d, want %d", tile.Offset, 16+3*8)
	}
	if tile.At(1, 0) != 4 {
		t.Errorf("At(1, 0) = %d, want 4", tile.At(1, 0))
	}
	if got, want := tile.RowMajor(), []byte{1, 4, 2, 5, 3, 6}; !bytes.Equal(got, want) {
		t.Errorf("RowMajor = %v, want %v", got, want)
	}
	if art.Tiles[1].Number != 102 {
		t.Errorf("Number = %d, want 102", art.Tiles[1].Number)
	}

	img := tile.Image(model.NewPalette(bytes.Repeat([]byte{10}, 768), true))
	if img.ColorIndexAt(0, 1) != 2 {
		t.Errorf("ColorIndexAt(0, 1) = %d, want 2", img.ColorIndexAt(0, 1))
	}
}

func TestARTTruncated(t *testing.T) {
	data := WriteART(0, 1, []Tile{
		{Number: 0, Width: 2, Height: 2, Pixels: []byte{1, 2, 3, 4}},
		{Number: 1, Width: 2, Height: 2, Pixels: []byte{5, 6, 7, 8}},
	})
	art, err := ParseART(data[:len(data)-1])
	if err != nil {
		t.Fatalf("ParseART failed: %v", err)
	}
	if !art.Truncated || len(art.Tiles) != 1 {
		t.Errorf("Truncated = %v with %d tiles, want true with 1", art.Truncated, len(art.Tiles))
	}

	data[0] = 2
	if _, err := ParseART(data); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("version 2: err = %v, want ErrUnsupportedVersion", err)
	}
}

func TestPalette(t *testing.T) {
	if _, err := ParsePalette(make([]byte, 767), true); !errors.Is(err, ErrInvalid) {
		t.Errorf("short palette: err = %v, want ErrInvalid", err)
	}
	raw := make([]byte, 800)
	raw[0], raw[1], raw[2] = 63, 32, 1
	pal, err := ParsePalette(raw, true)
	if err != nil {
		t.Fatalf("ParsePalette failed: %v", err)
	}
	if c := pal[0]; c.R != 252 || c.G != 128 || c.B != 4 {
		t.Errorf("color 0 = %v, want {252 128 4}", c)
	}
	if pal[model.TransparentIndex].A != 0 {
		t.Errorf("index 255 is opaque")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	grp := filepath.Join(dir, "DUKE3D.GRP")
	if err := os.WriteFile(grp, WriteGRP([]File{{Name: "A.ART", Data: []byte("a")}}), 0644); err != nil {
		t.Fatal(err)
	}
	rff := filepath.Join(dir, "blood.rff")
	if err := os.WriteFile(rff, WriteRFF(0x0301, []RFFFile{{File: File{Name: "A.ART", Data: []byte("a")}}}), 0644); err != nil {
		t.Fatal(err)
	}

	for path, kind := range map[string]model.SourceKind{grp: model.SourceGRP, rff: model.SourceRFF} {
		if !IsArchive(path) {
			t.Errorf("IsArchive(%s) = false", path)
		}
		a, err := Open(path)
		if err != nil {
			t.Fatalf("Open(%s) failed: %v", path, err)
		}
		if a.Kind != kind || a.Path != path || len(a.Entries) != 1 {
			t.Errorf("Open(%s) = %v %s with %d entries", path, a.Kind, a.Path, len(a.Entries))
		}
	}
	if IsArchive("tiles000.art") {
		t.Errorf("IsArchive(tiles000.art) = true")
	}
}
