package binary

import (
	"encoding/binary"

	"github.com/dyuri/buildmap/internal/model"
)

// Fixed record sizes of the BUILD map format
const (
	SectorSize = 40
	WallSize   = 32
	SpriteSize = 44
)

// Additional Blood data blocks appended to records with extra > 0
const (
	bloodSectorExtraSize = 60
	bloodWallExtraSize   = 24
	bloodSpriteExtraSize = 56
)

var le = binary.LittleEndian

func decodeSector(buf []byte, index int) model.Sector {
	return model.Sector{
		Index:           index,
		WallPtr:         int16(le.Uint16(buf[0:2])),
		WallNum:         int16(le.Uint16(buf[2:4])),
		CeilingZ:        int32(le.Uint32(buf[4:8])),
		FloorZ:          int32(le.Uint32(buf[8:12])),
		CeilingStat:     le.Uint16(buf[12:14]),
		FloorStat:       le.Uint16(buf[14:16]),
		CeilingPicnum:   le.Uint16(buf[16:18]),
		CeilingHeinum:   int16(le.Uint16(buf[18:20])),
		CeilingShade:    int8(buf[20]),
		CeilingPal:      buf[21],
		CeilingXPanning: buf[22],
		CeilingYPanning: buf[23],
		FloorPicnum:     le.Uint16(buf[24:26]),
		FloorHeinum:     int16(le.Uint16(buf[26:28])),
		FloorShade:      int8(buf[28]),
		FloorPal:        buf[29],
		FloorXPanning:   buf[30],
		FloorYPanning:   buf[31],
		Visibility:      buf[32],
		Filler:          buf[33],
		Lotag:           int16(le.Uint16(buf[34:36])),
		Hitag:           int16(le.Uint16(buf[36:38])),
		Extra:           int16(le.Uint16(buf[38:40])),
	}
}

func encodeSector(buf []byte, s model.Sector) {
	le.PutUint16(buf[0:2], uint16(s.WallPtr))
	le.PutUint16(buf[2:4], uint16(s.WallNum))
	le.PutUint32(buf[4:8], uint32(s.CeilingZ))
	le.PutUint32(buf[8:12], uint32(s.FloorZ))
	le.PutUint16(buf[12:14], s.CeilingStat)
	le.PutUint16(buf[14:16], s.FloorStat)
	le.PutUint16(buf[16:18], s.CeilingPicnum)
	le.PutUint16(buf[18:20], uint16(s.CeilingHeinum))
	buf[20] = uint8(s.CeilingShade)
	buf[21] = s.CeilingPal
	buf[22] = s.CeilingXPanning
	buf[23] = s.CeilingYPanning
	le.PutUint16(buf[24:26], s.FloorPicnum)
	le.PutUint16(buf[26:28], uint16(s.FloorHeinum))
	buf[28] = uint8(s.FloorShade)
	buf[29] = s.FloorPal
	buf[30] = s.FloorXPanning
	buf[31] = s.FloorYPanning
	buf[32] = s.Visibility
	buf[33] = s.Filler
	le.PutUint16(buf[34:36], uint16(s.Lotag))
	le.PutUint16(buf[36:38], uint16(s.Hitag))
	le.PutUint16(buf[38:40], uint16(s.Extra))
}

func decodeWall(buf []byte, index int) model.Wall {
	return model.Wall{
		Index:      index,
		Sector:     model.NoNeighbor,
		X:          int32(le.Uint32(buf[0:4])),
		Y:          int32(le.Uint32(buf[4:8])),
		Point2:     le.Uint16(buf[8:10]),
		NextWall:   int16(le.Uint16(buf[10:12])),
		NextSector: int16(le.Uint16(buf[12:14])),
		Cstat:      model.WallStat(le.Uint16(buf[14:16])),
		Picnum:     le.Uint16(buf[16:18]),
		OverPicnum: le.Uint16(buf[18:20]),
		Shade:      int8(buf[20]),
		Pal:        buf[21],
		XRepeat:    buf[22],
		YRepeat:    buf[23],
		XPanning:   buf[24],
		YPanning:   buf[25],
		Lotag:      int16(le.Uint16(buf[26:28])),
		Hitag:      int16(le.Uint16(buf[28:30])),
		Extra:      int16(le.Uint16(buf[30:32])),
	}
}

func encodeWall(buf []byte, w model.Wall) {
	le.PutUint32(buf[0:4], uint32(w.X))
	le.PutUint32(buf[4:8], uint32(w.Y))
	le.PutUint16(buf[8:10], w.Point2)
	le.PutUint16(buf[10:12], uint16(w.NextWall))
	le.PutUint16(buf[12:14], uint16(w.NextSector))
	le.PutUint16(buf[14:16], uint16(w.Cstat))
	le.PutUint16(buf[16:18], w.Picnum)
	le.PutUint16(buf[18:20], w.OverPicnum)
	buf[20] = uint8(w.Shade)
	buf[21] = w.Pal
	buf[22] = w.XRepeat
	buf[23] = w.YRepeat
	buf[24] = w.XPanning
	buf[25] = w.YPanning
	le.PutUint16(buf[26:28], uint16(w.Lotag))
	le.PutUint16(buf[28:30], uint16(w.Hitag))
	le.PutUint16(buf[30:32], uint16(w.Extra))
}

func decodeSprite(buf []byte, index int) model.Sprite {
	return model.Sprite{
		Index:    index,
		X:        int32(le.Uint32(buf[0:4])),
		Y:        int32(le.Uint32(buf[4:8])),
		Z:        int32(le.Uint32(buf[8:12])),
		Cstat:    model.SpriteStat(le.Uint16(buf[12:14])),
		Picnum:   le.Uint16(buf[14:16]),
		Shade:    int8(buf[16]),
		Pal:      buf[17],
		ClipDist: buf[18],
		Filler:   buf[19],
		XRepeat:  buf[20],
		YRepeat:  buf[21],
		XOffset:  int8(buf[22]),
		YOffset:  int8(buf[23]),
		SectNum:  int16(le.Uint16(buf[24:26])),
		StatNum:  int16(le.Uint16(buf[26:28])),
		Ang:      int16(le.Uint16(buf[28:30])),
		Owner:    int16(le.Uint16(buf[30:32])),
		XVel:     int16(le.Uint16(buf[32:34])),
		YVel:     int16(le.Uint16(buf[34:36])),
		ZVel:     int16(le.Uint16(buf[36:38])),
		Lotag:    int16(le.Uint16(buf[38:40])),
		Hitag:    int16(le.Uint16(buf[40:42])),
		Extra:    int16(le.Uint16(buf[42:44])),
	}
}

func encodeSprite(buf []byte, s model.Sprite) {
	le.PutUint32(buf[0:4], uint32(s.X))
	le.PutUint32(buf[4:8], uint32(s.Y))
	le.PutUint32(buf[8:12], uint32(s.Z))
	le.PutUint16(buf[12:14], uint16(s.Cstat))
	le.PutUint16(buf[14:16], s.Picnum)
	buf[16] = uint8(s.Shade)
	buf[17] = s.Pal
	buf[18] = s.ClipDist
	buf[19] = s.Filler
	buf[20] = s.XRepeat
	buf[21] = s.YRepeat
	buf[22] = uint8(s.XOffset)
	buf[23] = uint8(s.YOffset)
	le.PutUint16(buf[24:26], uint16(s.SectNum))
	le.PutUint16(buf[26:28], uint16(s.StatNum))
	le.PutUint16(buf[28:30], uint16(s.Ang))
	le.PutUint16(buf[30:32], uint16(s.Owner))
	le.PutUint16(buf[32:34], uint16(s.XVel))
	le.PutUint16(buf[34:36], uint16(s.YVel))
	le.PutUint16(buf[36:38], uint16(s.ZVel))
	le.PutUint16(buf[38:40], uint16(s.Lotag))
	le.PutUint16(buf[40:42], uint16(s.Hitag))
	le.PutUint16(buf[42:44], uint16(s.Extra))
}

// decrypt XORs buf in place with the Blood key stream and returns the
// increment to continue the stream with.
func decrypt(buf []byte, key, inc int) int {
	for i := range buf {
		buf[i] ^= byte(key + inc + i)
	}
	return inc + len(buf)
}
