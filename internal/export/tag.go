package export

import (
	"github.com/pkg/xattr"
)

// Extended attribute names
const (
	AttrRun    = "user.buildmap.run"
	AttrSource = "user.buildmap.source"
)

// Tag records the run id and source map on an exported file. File systems
// without extended attributes are not an error; false is returned instead.
func Tag(path, runID, source string) bool {
	if err := xattr.Set(path, AttrRun, []byte(runID)); err != nil {
		return false
	}
	if source != "" {
		if err := xattr.Set(path, AttrSource, []byte(source)); err != nil {
			return false
		}
	}
	return true
}

// RunID reads the run id tag of a file.
func RunID(path string) (string, error) {
	v, err := xattr.Get(path, AttrRun)
	if err != nil {
		return "", err
	}
	return string(v), nil
}
