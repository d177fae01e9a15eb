package binary

import (
	"fmt"

	"github.com/dyuri/buildmap/internal/model"
	"github.com/sirupsen/logrus"
)

// Blood header block sizes
const (
	bloodHeader1Size = 16  // posx, posy, posz, ang, cursectnum
	bloodHeader2Size = 11  // flags, 5 unknown bytes, 4 byte string, unknown byte
	bloodHeader3Size = 12  // revisions, sector, wall and sprite counts
	bloodHeader4Size = 128 // copyright, x-record counts, reserved
)

// readBloodHeader reads the encrypted header blocks of a BLM v7.0 map.
func (r *Reader) readBloodHeader() (*model.Header, error) {
	h := &model.Header{Variant: model.VariantBlood}
	if err := r.cur.Skip(4); err != nil {
		return nil, err
	}
	minor, err := r.cur.U8()
	if err != nil {
		return nil, fmt.Errorf("minor version: %w", err)
	}
	major, err := r.cur.U8()
	if err != nil {
		return nil, fmt.Errorf("major version: %w", err)
	}
	h.Version, h.MinorVersion = int(major), int(minor)
	if major != 7 || minor != 0 {
		return nil, fmt.Errorf("%w: Blood map v%d.%d, only encrypted v7.0 is supported", ErrUnsupportedVersion, major, minor)
	}

	key, inc := 0x4D, 0

	// Header 1
	buf, err := r.cur.Copy(bloodHeader1Size)
	if err != nil {
		return nil, fmt.Errorf("header 1: %w", err)
	}
	inc = decrypt(buf, key, inc)
	h.PosX = int32(le.Uint32(buf[0:4]))
	h.PosY = int32(le.Uint32(buf[4:8]))
	h.PosZ = int32(le.Uint32(buf[8:12]))
	h.Angle = int16(le.Uint16(buf[12:14]))
	h.CurSector = int16(le.Uint16(buf[14:16]))

	// Header 2
	buf, err = r.cur.Copy(bloodHeader2Size)
	if err != nil {
		return nil, fmt.Errorf("header 2: %w", err)
	}
	inc = decrypt(buf, key, inc)
	flags := buf[0]
	h.HasSky = (flags>>2)&0x01 != 0
	matt := decodeString(buf[6:10])

	// Header 3
	buf, err = r.cur.Copy(bloodHeader3Size)
	if err != nil {
		return nil, fmt.Errorf("header 3: %w", err)
	}
	decrypt(buf, key, inc)
	h.Revisions = le.Uint32(buf[0:4])
	h.NumSectors = int(le.Uint16(buf[4:6]))
	h.NumWalls = int(le.Uint16(buf[6:8]))
	h.NumSprites = int(le.Uint16(buf[8:10]))

	// Header 4 restarts the key stream, keyed by the wall count.
	buf, err = r.cur.Copy(bloodHeader4Size)
	if err != nil {
		return nil, fmt.Errorf("header 4: %w", err)
	}
	decrypt(buf, h.NumWalls&0xFF, 0)
	h.Copyright = decodeString(buf[0:57])
	xsprite := le.Uint32(buf[64:68])
	xwall := le.Uint32(buf[68:72])
	xsector := le.Uint32(buf[72:76])

	// Sky offsets. The size byte is part of the encrypted block.
	size, err := r.cur.U8()
	if err != nil {
		return nil, fmt.Errorf("sky offsets: %w", err)
	}
	if _, err := r.cur.U8(); err != nil {
		return nil, fmt.Errorf("sky offsets: %w", err)
	}
	if h.HasSky {
		if err := r.cur.Seek(r.cur.Pos() - 2); err != nil {
			return nil, err
		}
		buf, err = r.cur.Copy(int(size))
		if err != nil {
			return nil, fmt.Errorf("sky offsets: %w", err)
		}
		decrypt(buf, int(size), 0)
		h.SkyOffsets = make([]int16, int(size)/2)
		for i := range h.SkyOffsets {
			h.SkyOffsets[i] = int16(le.Uint16(buf[i*2:]))
		}
	}

	r.log.WithFields(logrus.Fields{
		"version":    fmt.Sprintf("%d.%d", major, minor),
		"posx":       h.PosX,
		"posy":       h.PosY,
		"posz":       h.PosZ,
		"ang":        h.Angle,
		"cursectnum": h.CurSector,
		"flags":      fmt.Sprintf("0b%08b", flags),
		"matt":       matt,
		"revisions":  h.Revisions,
		"numsectors": h.NumSectors,
		"numwalls":   h.NumWalls,
		"numsprites": h.NumSprites,
		"xsprite":    xsprite,
		"xwall":      xwall,
		"xsector":    xsector,
		"sky":        len(h.SkyOffsets),
	}).Debug("read Blood map header")
	r.log.Infof("Copyright String: %s", h.Copyright)
	return h, nil
}

// bloodRecord returns a reader for one encrypted record table. Records
// whose extra field (at extraAt) is positive carry an additional data block
// which is skipped.
func (r *Reader) bloodRecord(size, key, extraAt, extraSize int) func(int) ([]byte, error) {
	return func(int) ([]byte, error) {
		buf, err := r.cur.Copy(size)
		if err != nil {
			return nil, err
		}
		decrypt(buf, key, 0)
		if int16(le.Uint16(buf[extraAt:])) > 0 {
			if err := r.cur.Skip(extraSize); err != nil {
				return nil, fmt.Errorf("extra data: %w", err)
			}
		}
		return buf, nil
	}
}

func (r *Reader) readBloodTables(h *model.Header) ([]model.Sector, []model.Wall, []model.Sprite, error) {
	rev := int(h.Revisions)

	sectors, err := readTable(r, model.TableSector, h.NumSectors,
		r.bloodRecord(SectorSize, (rev*SectorSize)&0xFF, 38, bloodSectorExtraSize), decodeSector)
	if err != nil {
		return nil, nil, nil, err
	}
	walls, err := readTable(r, model.TableWall, h.NumWalls,
		r.bloodRecord(WallSize, ((rev*SectorSize)|0x4D)&0xFF, 30, bloodWallExtraSize), decodeWall)
	if err != nil {
		return nil, nil, nil, err
	}
	sprites, err := readTable(r, model.TableSprite, h.NumSprites,
		r.bloodRecord(SpriteSize, ((rev*SpriteSize)|0x4D)&0xFF, 42, bloodSpriteExtraSize), decodeSprite)
	if err != nil {
		return nil, nil, nil, err
	}
	return sectors, walls, sprites, nil
}
