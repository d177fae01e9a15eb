package tiles

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// First tile number of the custom user art range. Names that only carry the
// index inside an ART file may stand in for tiles from here on.
const UserArtStart = 3584

// Loose image names
var (
	// 056-002.png: index in ART file, ART file number
	xtractName = regexp.MustCompile(`(?i)^0{0,3}(\d{1,3})-0{0,3}(\d{1,3})\.(?:png|jpg)$`)
	// 00000568.png
	numberName = regexp.MustCompile(`(?i)^0{0,8}(\d{1,5})\.(?:png|jpg)$`)
	// tile0568.png
	tileName = regexp.MustCompile(`(?i)^tile(\d{4,5})\.(?:png|jpg)$`)
	// 056-xyz.png, user art fallback
	userArtName = regexp.MustCompile(`(?i)^0{0,2}(\d{1,3})-.{3}\.(?:png|jpg)$`)
)

// TileNumber parses the tile number from a loose image file name.
func TileNumber(name string) (int, bool) {
	name = filepath.Base(name)
	if m := xtractName.FindStringSubmatch(name); m != nil {
		idx, _ := strconv.Atoi(m[1])
		file, _ := strconv.Atoi(m[2])
		if idx >= 256 {
			return 0, false
		}
		return file*256 + idx, true
	}
	if m := numberName.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true
	}
	if m := tileName.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n, true
	}
	return 0, false
}

// userArtIndex parses names that only give the index inside an ART file.
func userArtIndex(name string) (int, bool) {
	m := userArtName.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, false
	}
	idx, _ := strconv.Atoi(m[1])
	return idx, idx < 256
}

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg":
		return true
	}
	return false
}

func isART(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".art")
}
