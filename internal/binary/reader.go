package binary

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/dyuri/buildmap/internal/config"
	"github.com/dyuri/buildmap/internal/model"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"
)

// BloodMagic starts every Blood map
var BloodMagic = []byte("BLM\x1A")

// Options controls map decoding
type Options struct {
	// IgnoreErrors drops invalid records instead of failing the decode.
	IgnoreErrors bool
	Logger       logrus.FieldLogger
}

// Reader decodes BUILD and Blood map files
type Reader struct {
	cur    *Cursor
	opts   Options
	log    logrus.FieldLogger
	report *model.Report

	// short is set once a table ran past the end of the buffer in lenient
	// mode; later tables are then absent.
	short bool
}

// NewReader creates a new map reader over buf
func NewReader(buf []byte, opts Options) *Reader {
	return &Reader{
		cur:    NewCursor(buf),
		opts:   opts,
		log:    config.OrDiscard(opts.Logger),
		report: &model.Report{},
	}
}

// Decode parses a complete map buffer.
func Decode(buf []byte, opts Options) (*model.Map, *model.Report, error) {
	return NewReader(buf, opts).Parse()
}

// ReadAll reads a map from r and decodes it.
func ReadAll(r io.Reader, opts Options) (*model.Map, *model.Report, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read map: %w", err)
	}
	return Decode(buf, opts)
}

// DetectFormat identifies the map variant and major version from the magic.
func DetectFormat(buf []byte) (model.Variant, int, error) {
	if len(buf) < 4 {
		return 0, 0, fmt.Errorf("%w: map is %d bytes, magic needs 4", ErrTruncated, len(buf))
	}
	if bytes.Equal(buf[:4], BloodMagic) {
		if len(buf) < 6 {
			return model.VariantBlood, 0, fmt.Errorf("%w: blood version missing", ErrTruncated)
		}
		return model.VariantBlood, int(buf[5]), nil
	}
	version := int32(binary.LittleEndian.Uint32(buf[:4]))
	if version < 3 || version > 9 {
		return 0, 0, fmt.Errorf("%w: magic 0x%X", ErrUnknownFormat, buf[:4])
	}
	return model.VariantBuild, int(version), nil
}

// Parse reads the entire map and returns the decoded tables together with a
// report of every record that was dropped.
func (r *Reader) Parse() (*model.Map, *model.Report, error) {
	header, err := r.ReadHeader()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	var sectors []model.Sector
	var walls []model.Wall
	var sprites []model.Sprite
	if header.Variant == model.VariantBlood {
		sectors, walls, sprites, err = r.readBloodTables(header)
	} else {
		sectors, walls, sprites, err = r.readBuildTables(header)
	}
	if err != nil {
		return nil, nil, err
	}
	r.readTrailer(header)

	m, err := r.validate(header, sectors, walls, sprites)
	if err != nil {
		return nil, nil, err
	}
	return m, r.report, nil
}

// ReadHeader reads and validates the map header. Header problems are always
// fatal.
func (r *Reader) ReadHeader() (*model.Header, error) {
	variant, version, err := DetectFormat(r.cur.buf)
	if err != nil {
		return nil, err
	}
	if variant == model.VariantBlood {
		return r.readBloodHeader()
	}
	if version < 7 {
		return nil, fmt.Errorf("%w: BUILD map version %d, only 7, 8 and 9 are supported", ErrUnsupportedVersion, version)
	}

	h := &model.Header{Variant: model.VariantBuild, Version: version}
	r.cur.Skip(4)

	// posx, posy, posz, ang, cursectnum
	buf, err := r.cur.Bytes(16)
	if err != nil {
		return nil, fmt.Errorf("start position: %w", err)
	}
	h.PosX = int32(le.Uint32(buf[0:4]))
	h.PosY = int32(le.Uint32(buf[4:8]))
	h.PosZ = int32(le.Uint32(buf[8:12]))
	h.Angle = int16(le.Uint16(buf[12:14]))
	h.CurSector = int16(le.Uint16(buf[14:16]))

	// Sector count follows the start position; wall and sprite counts are
	// interleaved with their tables.
	n, err := r.cur.U16()
	if err != nil {
		return nil, fmt.Errorf("sector count: %w", err)
	}
	h.NumSectors = int(n)

	r.log.WithFields(logrus.Fields{
		"version":    h.Version,
		"posx":       h.PosX,
		"posy":       h.PosY,
		"posz":       h.PosZ,
		"ang":        h.Angle,
		"cursectnum": h.CurSector,
		"numsectors": h.NumSectors,
		"tror":       h.SupportsTROR(),
	}).Debug("read BUILD map header")
	return h, nil
}

func (r *Reader) readBuildTables(h *model.Header) ([]model.Sector, []model.Wall, []model.Sprite, error) {
	read := func(size int) func(int) ([]byte, error) {
		return func(int) ([]byte, error) { return r.cur.Bytes(size) }
	}

	sectors, err := readTable(r, model.TableSector, h.NumSectors, read(SectorSize), decodeSector)
	if err != nil {
		return nil, nil, nil, err
	}

	if h.NumWalls, err = r.readCount(model.TableWall); err != nil {
		return nil, nil, nil, err
	}
	walls, err := readTable(r, model.TableWall, h.NumWalls, read(WallSize), decodeWall)
	if err != nil {
		return nil, nil, nil, err
	}

	if h.NumSprites, err = r.readCount(model.TableSprite); err != nil {
		return nil, nil, nil, err
	}
	sprites, err := readTable(r, model.TableSprite, h.NumSprites, read(SpriteSize), decodeSprite)
	if err != nil {
		return nil, nil, nil, err
	}
	return sectors, walls, sprites, nil
}

// readCount reads an interleaved u16 table count.
func (r *Reader) readCount(table string) (int, error) {
	if r.short {
		return 0, nil
	}
	n, err := r.cur.U16()
	if err != nil {
		if ferr := r.fail(model.TableHeader, -1, model.ActionDropped, fmt.Errorf("%s count: %w", table, err)); ferr != nil {
			return 0, ferr
		}
		r.short = true
		return 0, nil
	}
	r.log.WithField("table", table).Debugf("num%ss: %d", table, n)
	return int(n), nil
}

// readTable reads count fixed-size records. A table that runs past the end
// of the buffer is fatal in strict mode; in lenient mode the complete
// records are kept and the rest of the map is treated as absent.
func readTable[T any](r *Reader, table string, count int, read func(int) ([]byte, error), decode func([]byte, int) T) ([]T, error) {
	if r.short {
		if count > 0 {
			r.report.Add(table, -1, model.ActionDropped, "%d records missing after truncated data", count)
		}
		return nil, nil
	}
	out := make([]T, 0, count)
	for i := 0; i < count; i++ {
		rec, err := read(i)
		if err != nil {
			err = fmt.Errorf("%s table: record %d of %d: %w", table, i, count, err)
			if ferr := r.fail(table, -1, model.ActionDropped, err); ferr != nil {
				return nil, ferr
			}
			r.short = true
			break
		}
		out = append(out, decode(rec, i))
	}
	r.log.WithField("table", table).Debugf("parsed %d of %d records", len(out), count)
	return out, nil
}

func (r *Reader) readTrailer(h *model.Header) {
	fields := logrus.Fields{"size": r.cur.Len(), "pos": r.cur.Pos()}
	if h.Variant == model.VariantBlood && r.cur.Remaining() >= 4 {
		crc, _ := r.cur.U32()
		r.log.WithFields(fields).Debugf("CRC 0x%08X", crc)
		return
	}
	if r.cur.Remaining() == 0 {
		r.log.WithFields(fields).Debug("EOF reached")
	} else {
		r.log.WithFields(fields).Debug("EOF not reached")
	}
}

// validate checks cross references and assembles the map arena.
func (r *Reader) validate(h *model.Header, sectors []model.Sector, walls []model.Wall, sprites []model.Sprite) (*model.Map, error) {
	sum := 0
	for _, s := range sectors {
		sum += int(s.WallNum)
	}
	if sum != h.NumWalls {
		err := fmt.Errorf("%w: sectors claim %d walls, map declares %d", ErrCountMismatch, sum, h.NumWalls)
		if ferr := r.fail(model.TableHeader, -1, model.ActionWarned, err); ferr != nil {
			return nil, ferr
		}
	}

	m := &model.Map{Header: *h}

	// Walls with a point2 outside the table can never be traced.
	for _, w := range walls {
		if int(w.Point2) >= len(walls) {
			err := fmt.Errorf("%w: wall %d point2 %d outside wall table of %d", ErrIndexOutOfRange, w.Index, w.Point2, len(walls))
			if ferr := r.fail(model.TableWall, w.Index, model.ActionDropped, err); ferr != nil {
				return nil, ferr
			}
			continue
		}
		m.Walls = append(m.Walls, w)
	}

	dropped := make(map[int]bool)
	for _, s := range sectors {
		first, end := s.WallRange()
		if s.WallPtr < 0 || s.WallNum <= 0 || end > len(walls) {
			err := fmt.Errorf("%w: sector %d walls [%d, %d) outside wall table of %d", ErrIndexOutOfRange, s.Index, first, end, len(walls))
			if ferr := r.fail(model.TableSector, s.Index, model.ActionDropped, err); ferr != nil {
				return nil, ferr
			}
			dropped[s.Index] = true
			continue
		}
		m.Sectors = append(m.Sectors, s)
	}

	// Back-reference each wall to the sector whose range contains it.
	for _, s := range m.Sectors {
		first, end := s.WallRange()
		for idx := first; idx < end; idx++ {
			i, ok := wallPos(m.Walls, idx)
			if !ok {
				continue
			}
			if m.Walls[i].Sector != model.NoNeighbor {
				r.log.WithFields(logrus.Fields{"wall": idx, "sector": s.Index}).
					Warnf("wall already owned by sector %d", m.Walls[i].Sector)
				continue
			}
			m.Walls[i].Sector = s.Index
		}
	}
	for _, w := range m.Walls {
		if w.Sector == model.NoNeighbor {
			r.log.WithField("wall", w.Index).Warn("wall is not used by any sector")
		}
	}

	for _, sp := range sprites {
		if sp.SectNum < 0 || int(sp.SectNum) >= len(sectors) {
			err := fmt.Errorf("%w: sprite %d sectnum %d outside sector table of %d", ErrIndexOutOfRange, sp.Index, sp.SectNum, len(sectors))
			if ferr := r.fail(model.TableSprite, sp.Index, model.ActionDropped, err); ferr != nil {
				return nil, ferr
			}
			continue
		}
		if dropped[int(sp.SectNum)] {
			r.log.WithFields(logrus.Fields{"sprite": sp.Index, "sector": sp.SectNum}).Warn("sprite belongs to a dropped sector")
		}
		m.Sprites = append(m.Sprites, sp)
	}

	r.log.WithFields(logrus.Fields{
		"sectors": len(m.Sectors),
		"walls":   len(m.Walls),
		"sprites": len(m.Sprites),
		"report":  r.report.Len(),
	}).Debug("map decoded")
	return m, nil
}

// fail handles an ignorable problem: in strict mode it is returned as the
// decode error, in lenient mode it is recorded and nil is returned.
func (r *Reader) fail(table string, index int, action model.Action, err error) error {
	r.log.WithFields(logrus.Fields{"table": table, "index": index}).Error(err)
	if !r.opts.IgnoreErrors {
		return err
	}
	r.report.Add(table, index, action, "%v", err)
	return nil
}

func wallPos(walls []model.Wall, index int) (int, bool) {
	lo, hi := 0, len(walls)
	if index < hi && walls[index].Index == index {
		return index, true
	}
	for lo < hi {
		mid := (lo + hi) / 2
		if walls[mid].Index < index {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(walls) && walls[lo].Index == index {
		return lo, true
	}
	return 0, false
}

// decodeString decodes a NUL padded CP437 string.
func decodeString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	s, err := charmap.CodePage437.NewDecoder().Bytes(b)
	if err != nil {
		return strings.TrimRight(string(b), "\x00")
	}
	return string(s)
}
