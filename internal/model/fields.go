package model

import "fmt"

// Field is one named raw value attached to an object as debug metadata.
type Field struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

func bit(v uint16, n uint) int { return int(v>>n) & 1 }

func bits(v uint16, shift uint, width int) string {
	mask := uint16(1)<<width - 1
	return fmt.Sprintf("0b%0*b", width, (v>>shift)&mask)
}

// Fields returns the map header values.
func (h Header) Fields() []Field {
	return []Field{
		{"mapversion", h.Version},
		{"posx", h.PosX},
		{"posy", h.PosY},
		{"posz", h.PosZ},
		{"ang", h.Angle},
		{"cursectnum", h.CurSector},
		{"numsectors", h.NumSectors},
		{"numwalls", h.NumWalls},
		{"numsprites", h.NumSprites},
	}
}

// Fields returns every raw sector value with the stat words split into bits.
func (s Sector) Fields() []Field {
	return []Field{
		{"wallptr", s.WallPtr},
		{"wallnum", s.WallNum},
		{"ceilingz", s.CeilingZ},
		{"floorz", s.FloorZ},
		{"ceilingstat bit0 parallaxing", bit(s.CeilingStat, 0)},
		{"ceilingstat bit1 sloped", bit(s.CeilingStat, 1)},
		{"ceilingstat bit2 swap-xy", bit(s.CeilingStat, 2)},
		{"ceilingstat bit3 smoothness", bit(s.CeilingStat, 3)},
		{"ceilingstat bit4 x-flip", bit(s.CeilingStat, 4)},
		{"ceilingstat bit5 y-flip", bit(s.CeilingStat, 5)},
		{"ceilingstat bit6 align", bit(s.CeilingStat, 6)},
		{"ceilingstat bit7-15 reserved", bits(s.CeilingStat, 7, 9)},
		{"floorstat bit0 parallaxing", bit(s.FloorStat, 0)},
		{"floorstat bit1 sloped", bit(s.FloorStat, 1)},
		{"floorstat bit2 swap-xy", bit(s.FloorStat, 2)},
		{"floorstat bit3 smoothness", bit(s.FloorStat, 3)},
		{"floorstat bit4 x-flip", bit(s.FloorStat, 4)},
		{"floorstat bit5 y-flip", bit(s.FloorStat, 5)},
		{"floorstat bit6 align", bit(s.FloorStat, 6)},
		{"floorstat bit7-15 reserved", bits(s.FloorStat, 7, 9)},
		{"ceilingpicnum", s.CeilingPicnum},
		{"ceilingheinum", s.CeilingHeinum},
		{"ceilingshade", s.CeilingShade},
		{"ceilingpal", s.CeilingPal},
		{"ceilingxpanning", s.CeilingXPanning},
		{"ceilingypanning", s.CeilingYPanning},
		{"floorpicnum", s.FloorPicnum},
		{"floorheinum", s.FloorHeinum},
		{"floorshade", s.FloorShade},
		{"floorpal", s.FloorPal},
		{"floorxpanning", s.FloorXPanning},
		{"floorypanning", s.FloorYPanning},
		{"visibility", s.Visibility},
		{"filler", s.Filler},
		{"lotag", s.Lotag},
		{"hitag", s.Hitag},
		{"extra", s.Extra},
	}
}

// Fields returns every raw wall value with cstat split into bits.
func (w Wall) Fields() []Field {
	c := uint16(w.Cstat)
	return []Field{
		{"x", w.X},
		{"y", w.Y},
		{"point2", w.Point2},
		{"nextwall", w.NextWall},
		{"nextsector", w.NextSector},
		{"cstat bit0 blocking1", bit(c, 0)},
		{"cstat bit1 swap bot of invis", bit(c, 1)},
		{"cstat bit2 align to bot", bit(c, 2)},
		{"cstat bit3 flip x", bit(c, 3)},
		{"cstat bit4 masking", bit(c, 4)},
		{"cstat bit5 1-way", bit(c, 5)},
		{"cstat bit6 blocking2", bit(c, 6)},
		{"cstat bit7 transluscence", bit(c, 7)},
		{"cstat bit8 flip y", bit(c, 8)},
		{"cstat bit9 transl. rev.", bit(c, 9)},
		{"cstat bit10-15 reserved", bits(c, 10, 6)},
		{"picnum", w.Picnum},
		{"overpicnum", w.OverPicnum},
		{"shade", w.Shade},
		{"pal", w.Pal},
		{"xrepeat", w.XRepeat},
		{"yrepeat", w.YRepeat},
		{"xpanning", w.XPanning},
		{"ypanning", w.YPanning},
		{"lotag", w.Lotag},
		{"hitag", w.Hitag},
		{"extra", w.Extra},
	}
}

// Fields returns every raw sprite value with cstat split into bits.
func (s Sprite) Fields() []Field {
	c := uint16(s.Cstat)
	return []Field{
		{"x", s.X},
		{"y", s.Y},
		{"z", s.Z},
		{"cstat bit0 blocking1", bit(c, 0)},
		{"cstat bit1 transluscence", bit(c, 1)},
		{"cstat bit2 flip x", bit(c, 2)},
		{"cstat bit3 flip y", bit(c, 3)},
		{"cstat bit5-4 face-wall-floor", bits(c, 4, 2)},
		{"cstat bit6 1-sided", bit(c, 6)},
		{"cstat bit7 real center", bit(c, 7)},
		{"cstat bit8 blocking2", bit(c, 8)},
		{"cstat bit9 transl. rev.", bit(c, 9)},
		{"cstat bit10-14 reserved", bits(c, 10, 5)},
		{"cstat bit15 invisible", bit(c, 15)},
		{"picnum", s.Picnum},
		{"shade", s.Shade},
		{"pal", s.Pal},
		{"clipdist", s.ClipDist},
		{"filler", s.Filler},
		{"xrepeat", s.XRepeat},
		{"yrepeat", s.YRepeat},
		{"xoffset", s.XOffset},
		{"yoffset", s.YOffset},
		{"sectnum", s.SectNum},
		{"statnum", s.StatNum},
		{"ang", s.Ang},
		{"owner", s.Owner},
		{"xvel", s.XVel},
		{"yvel", s.YVel},
		{"zvel", s.ZVel},
		{"lotag", s.Lotag},
		{"hitag", s.Hitag},
		{"extra", s.Extra},
	}
}
