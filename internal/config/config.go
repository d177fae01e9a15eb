// Package config holds the import options, their defaults, YAML loading and
// command line flag binding.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Custom user art tile range
const (
	UserArtFirst = 3584
	UserArtLast  = 30719
)

// Options is the complete configuration surface of a map import.
type Options struct {
	ObjectPrefix string `yaml:"object_prefix"`

	SplitSectors bool `yaml:"split_sectors"`
	SplitWalls   bool `yaml:"split_walls"`
	SplitSky     bool `yaml:"split_sky"`

	ScaleSpritesAsInGame bool    `yaml:"scale_sprites_as_in_game"`
	WallSpriteOffset     float64 `yaml:"wall_sprite_offset"`

	ReuseMaterials      bool `yaml:"reuse_materials"`
	ShadeToVertexColors bool `yaml:"shade_to_vertex_colors"`
	PixelShading        bool `yaml:"pixel_shading"`
	ProceduralMaterials bool `yaml:"procedural_materials"`
	BackFaceCulling     bool `yaml:"back_face_culling"`

	HeuristicWallSearch bool    `yaml:"heuristic_wall_search"`
	HeuristicEpsilon    float64 `yaml:"heuristic_epsilon"`
	IgnoreMapErrors     bool    `yaml:"ignore_map_errors"`

	Textures Textures `yaml:"textures"`
}

// Textures configures the tile sources.
type Textures struct {
	// Folders are the base game folders (or archive files) in priority order.
	Folders []string `yaml:"folders"`

	PriorityFolder    string `yaml:"priority_folder"`
	UsePriorityFolder bool   `yaml:"use_priority_folder"`
	// PriorityFirst places the priority folder before the base folders.
	PriorityFirst bool `yaml:"priority_first"`

	UserArtFolder string `yaml:"user_art_folder"`
	UseUserArt    bool   `yaml:"use_user_art"`
	UserArtFirst  int    `yaml:"user_art_first"`
	UserArtLast   int    `yaml:"user_art_last"`

	// PreferLooseImages prefers png/jpg files over ART tiles of the same
	// number within one source.
	PreferLooseImages bool `yaml:"prefer_loose_images"`
}

// Default returns the default options.
func Default() Options {
	return Options{
		SplitSky:             true,
		ScaleSpritesAsInGame: true,
		ReuseMaterials:       true,
		PixelShading:         true,
		Textures: Textures{
			PriorityFirst: true,
			UseUserArt:    true,
			UserArtFirst:  UserArtFirst,
			UserArtLast:   UserArtLast,
		},
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (Options, error) {
	o := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return o, err
	}
	if err := yaml.Unmarshal(raw, &o); err != nil {
		return o, fmt.Errorf("%s: %w", path, err)
	}
	if err := o.Validate(); err != nil {
		return o, fmt.Errorf("%s: %w", path, err)
	}
	return o, nil
}

// Validate checks option values.
func (o Options) Validate() error {
	if o.HeuristicEpsilon < 0 {
		return fmt.Errorf("heuristic_epsilon must not be negative: %v", o.HeuristicEpsilon)
	}
	if o.Textures.UserArtFirst > o.Textures.UserArtLast {
		return fmt.Errorf("user art range is empty: %d..%d", o.Textures.UserArtFirst, o.Textures.UserArtLast)
	}
	return nil
}

// BindFlags registers a flag for every option, writing into o.
func BindFlags(fs *pflag.FlagSet, o *Options) {
	fs.StringVar(&o.ObjectPrefix, "prefix", o.ObjectPrefix, "object name prefix")
	fs.BoolVar(&o.SplitSectors, "split-sectors", o.SplitSectors, "emit floors and ceilings as separate objects")
	fs.BoolVar(&o.SplitWalls, "split-walls", o.SplitWalls, "emit walls as separate objects")
	fs.BoolVar(&o.SplitSky, "split-sky", o.SplitSky, "collect parallax surfaces into a separate sky object")
	fs.BoolVar(&o.ScaleSpritesAsInGame, "scale-as-in-game", o.ScaleSpritesAsInGame, "override sprite scale for pickups")
	fs.Float64Var(&o.WallSpriteOffset, "wall-sprite-offset", o.WallSpriteOffset, "distance wall sprites are moved away from their wall")
	fs.BoolVar(&o.ReuseMaterials, "reuse-materials", o.ReuseMaterials, "reuse existing materials of the same name")
	fs.BoolVar(&o.ShadeToVertexColors, "shade-to-vertex-colors", o.ShadeToVertexColors, "emit shade as vertex colors")
	fs.BoolVar(&o.PixelShading, "pixel-shading", o.PixelShading, "closest texture sampling")
	fs.BoolVar(&o.ProceduralMaterials, "procedural-materials", o.ProceduralMaterials, "request procedural material effects")
	fs.BoolVar(&o.BackFaceCulling, "back-face-culling", o.BackFaceCulling, "enable back face culling on materials")
	fs.BoolVar(&o.HeuristicWallSearch, "heuristic-wall-search", o.HeuristicWallSearch, "infer missing wall neighbors from coordinates")
	fs.Float64Var(&o.HeuristicEpsilon, "heuristic-epsilon", o.HeuristicEpsilon, "coordinate tolerance of the heuristic wall search")
	fs.BoolVar(&o.IgnoreMapErrors, "ignore-map-errors", o.IgnoreMapErrors, "drop invalid records instead of failing")

	t := &o.Textures
	fs.StringSliceVar(&t.Folders, "textures", t.Folders, "texture folders or archives in priority order")
	fs.StringVar(&t.PriorityFolder, "priority-folder", t.PriorityFolder, "folder consulted before the texture folders")
	fs.BoolVar(&t.UsePriorityFolder, "use-priority-folder", t.UsePriorityFolder, "enable the priority folder")
	fs.BoolVar(&t.PriorityFirst, "priority-first", t.PriorityFirst, "consult the priority folder before the texture folders")
	fs.StringVar(&t.UserArtFolder, "user-art-folder", t.UserArtFolder, "folder providing custom user art tiles")
	fs.BoolVar(&t.UseUserArt, "use-user-art", t.UseUserArt, "enable the custom user art folder")
	fs.IntVar(&t.UserArtFirst, "user-art-first", t.UserArtFirst, "first custom user art tile")
	fs.IntVar(&t.UserArtLast, "user-art-last", t.UserArtLast, "last custom user art tile")
	fs.BoolVar(&t.PreferLooseImages, "prefer-loose-images", t.PreferLooseImages, "prefer png/jpg files over ART tiles within a source")
}

// ApplyFile loads path into o while keeping every flag the user set
// explicitly on fs. o must be the value previously passed to BindFlags.
func ApplyFile(fs *pflag.FlagSet, o *Options, path string) error {
	loaded, err := Load(path)
	if err != nil {
		return err
	}

	type saved struct {
		value string
		slice []string
		isSet bool
	}
	changed := map[string]saved{}
	fs.Visit(func(f *pflag.Flag) {
		s := saved{value: f.Value.String()}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			s.slice = append([]string(nil), sv.GetSlice()...)
			s.isSet = true
		}
		changed[f.Name] = s
	})

	*o = loaded
	for name, s := range changed {
		f := fs.Lookup(name)
		if s.isSet {
			if err := f.Value.(pflag.SliceValue).Replace(s.slice); err != nil {
				return fmt.Errorf("flag --%s: %w", name, err)
			}
			continue
		}
		if err := f.Value.Set(s.value); err != nil {
			return fmt.Errorf("flag --%s: %w", name, err)
		}
	}
	return nil
}
