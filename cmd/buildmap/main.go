package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/dyuri/buildmap/internal/archive"
	"github.com/dyuri/buildmap/internal/config"
	"github.com/dyuri/buildmap/internal/export"
	"github.com/dyuri/buildmap/internal/model"
	"github.com/dyuri/buildmap/internal/text"
	"github.com/dyuri/buildmap/internal/tiles"
	"github.com/dyuri/buildmap/pkg/buildmap"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	opts   = config.Default()
	logger *logrus.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "buildmap",
	Short: "Import BUILD engine and Blood maps",
	Long: `buildmap is a tool for working with BUILD engine maps.

It decodes Duke Nukem 3D style BUILD maps (versions 7 to 9) and Blood
maps, repairs wall neighbor links, reconstructs sector geometry and
resolves the tiles the map uses from loose images, ART files and GRP or
RFF archives.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("log-level", "warning", "Log level: debug, info, warning, error")
	pf.Bool("log-json", false, "Log as JSON")
	pf.String("config", "", "YAML options file, explicit flags take precedence")
	config.BindFlags(pf, &opts)

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(sceneCmd)
	rootCmd.AddCommand(tilesCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(versionCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	level, _ := cmd.Flags().GetString("log-level")
	asJSON, _ := cmd.Flags().GetBool("log-json")
	path, _ := cmd.Flags().GetString("config")

	var err error
	logger, err = config.NewLogger(os.Stderr, level, asJSON)
	if err != nil {
		return err
	}
	if path != "" {
		if err := config.ApplyFile(cmd.Flags(), &opts, path); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		logger.WithField("config", path).Debug("options loaded")
	}
	return opts.Validate()
}

func options() buildmap.Options {
	return buildmap.Options{Options: opts, Logger: logger}
}

func readMap(path string) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map file: %w", err)
	}
	return buf, nil
}

// info command
var infoCmd = &cobra.Command{
	Use:   "info <input.map>",
	Short: "Display map file information",
	Long: `Display header data and record counts of a map file.

Nothing is repaired; records that fail to decode are listed with
--ignore-map-errors.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().Bool("json", false, "Output as JSON")
	infoCmd.Flags().Bool("brief", false, "Show only summary")
}

func runInfo(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")
	brief, _ := cmd.Flags().GetBool("brief")

	buf, err := readMap(inputPath)
	if err != nil {
		return err
	}
	m, report, err := buildmap.Decode(buf, options())
	if err != nil {
		return fmt.Errorf("decode map: %w", err)
	}

	if jsonOutput {
		return outputInfoJSON(inputPath, m, report, len(buf))
	}
	h := m.Header
	if brief {
		fmt.Printf("%s: %s v%d Sectors=%d Walls=%d Sprites=%d\n",
			inputPath, h.Variant, h.Version, len(m.Sectors), len(m.Walls), len(m.Sprites))
		return nil
	}

	fmt.Printf("Map File: %s\n", inputPath)
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("  Format:           %s version %s\n", h.Variant, mapVersion(h))
	fmt.Printf("  Start:            (%d, %d, %d) angle %d sector %d\n", h.PosX, h.PosY, h.PosZ, h.Angle, h.CurSector)
	if h.Variant == model.VariantBlood {
		fmt.Printf("  Revisions:        %d\n", h.Revisions)
		if h.HasSky {
			fmt.Printf("  Sky tiles:        %d\n", len(h.SkyOffsets))
		}
	}
	fmt.Println()
	fmt.Printf("  Sectors:          %s\n", humanize.Comma(int64(len(m.Sectors))))
	fmt.Printf("  Walls:            %s\n", humanize.Comma(int64(len(m.Walls))))
	fmt.Printf("  Sprites:          %s\n", humanize.Comma(int64(len(m.Sprites))))
	fmt.Printf("  Tiles used:       %d\n", len(m.Picnums()))
	fmt.Println()
	fmt.Printf("File Size:          %s (%d bytes)\n", humanize.Bytes(uint64(len(buf))), len(buf))
	if !report.Empty() {
		fmt.Printf("\nDecode report (%d):\n", report.Len())
		for _, e := range report.Entries {
			fmt.Printf("  - %s\n", e)
		}
	}
	return nil
}

func mapVersion(h model.Header) string {
	if h.Variant == model.VariantBlood {
		return fmt.Sprintf("%d.%d", h.Version, h.MinorVersion)
	}
	return fmt.Sprint(h.Version)
}

func outputInfoJSON(path string, m *buildmap.Map, report *buildmap.Report, size int) error {
	output := map[string]interface{}{
		"file":    path,
		"size":    size,
		"variant": m.Header.Variant.String(),
		"version": mapVersion(m.Header),
		"start": map[string]interface{}{
			"x":      m.Header.PosX,
			"y":      m.Header.PosY,
			"z":      m.Header.PosZ,
			"angle":  m.Header.Angle,
			"sector": m.Header.CurSector,
		},
		"sectors": len(m.Sectors),
		"walls":   len(m.Walls),
		"sprites": len(m.Sprites),
		"tiles":   m.Picnums(),
		"report":  report.Entries,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// validate command
var validateCmd = &cobra.Command{
	Use:   "validate <input.map>",
	Short: "Validate map structure",
	Long: `Decode the map, resolve wall neighbors and reconstruct its geometry
without loading any tiles.

Dropped and skipped records are errors, repairs and warnings are not
unless --strict is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().Bool("strict", false, "Fail on warnings and repairs")
}

func runValidate(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	strict, _ := cmd.Flags().GetBool("strict")

	buf, err := readMap(inputPath)
	if err != nil {
		return err
	}
	report, err := buildmap.Validate(cmd.Context(), buf, options())
	if err != nil {
		return fmt.Errorf("validate map: %w", err)
	}

	errs := report.Count(model.ActionDropped) + report.Count(model.ActionSkipped)
	warnings := report.Len() - errs
	printReport(inputPath, report)

	fmt.Println()
	switch {
	case errs > 0:
		fmt.Printf("Validation failed: %d error(s)", errs)
		if warnings > 0 {
			fmt.Printf(", %d warning(s)", warnings)
		}
		fmt.Println()
	case warnings > 0:
		fmt.Printf("Validation passed with %d warning(s)\n", warnings)
		if strict {
			fmt.Println("(use without --strict to ignore warnings)")
		}
	}
	if errs > 0 || (strict && warnings > 0) {
		return fmt.Errorf("validation failed")
	}
	return nil
}

func printReport(file string, report *buildmap.Report) {
	fmt.Printf("Validating: %s\n", file)
	fmt.Println(strings.Repeat("=", 50))
	if report.Empty() {
		fmt.Println("✓ Valid map - no issues found")
		return
	}
	for _, e := range report.Entries {
		mark := "⚠"
		if e.Action == model.ActionDropped || e.Action == model.ActionSkipped {
			mark = "✗"
		}
		fmt.Printf("  %s %s\n", mark, e)
	}
}

// scene command
var sceneCmd = &cobra.Command{
	Use:   "scene <input.map>",
	Short: "Import a map and export its scene",
	Long: `Import a map with the configured tile sources and write the scene,
tile manifest and report as a JSON document.

The document can be compressed with zstd, lz4 or xz. Resolved tiles can
be extracted next to it as PNG files named like the scene materials.`,
	Args: cobra.ExactArgs(1),
	RunE: runScene,
}

func init() {
	sceneCmd.Flags().StringP("output", "o", "", "Output file (default: <map>.json)")
	sceneCmd.Flags().String("compress", "zstd", "Compression: none, zstd, lz4, xz")
	sceneCmd.Flags().String("tiles-dir", "", "Extract the used tiles as PNG files to this directory")
	sceneCmd.Flags().Bool("dump", false, "Write the record and object dump to stdout")
}

func runScene(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	compress, _ := cmd.Flags().GetString("compress")
	tilesDir, _ := cmd.Flags().GetString("tiles-dir")
	dump, _ := cmd.Flags().GetBool("dump")

	codec, err := export.ParseCodec(compress)
	if err != nil {
		return err
	}
	if outputPath == "" {
		outputPath = strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + ".json"
	}

	buf, err := readMap(inputPath)
	if err != nil {
		return err
	}
	res, err := buildmap.Import(cmd.Context(), buf, nil, options())
	if err != nil {
		return fmt.Errorf("import map: %w", err)
	}
	log := logger.WithField("run", res.RunID)

	doc := &export.Document{
		RunID:    res.RunID,
		Source:   filepath.Base(inputPath),
		Version:  res.Map.Header.Version,
		Variant:  res.Map.Header.Variant.String(),
		Scene:    res.Scene,
		Manifest: res.Manifest,
		Report:   res.Report,
	}
	path, err := export.WriteFile(outputPath, doc, codec)
	if err != nil {
		return fmt.Errorf("write scene: %w", err)
	}
	if !export.Tag(path, res.RunID, doc.Source) {
		log.Debugf("%s: extended attributes not supported", path)
	}
	fmt.Printf("Wrote %s: %d objects, %d sprites, %d tiles\n",
		path, len(res.Scene.Objects), len(res.Scene.Sprites), len(res.Manifest))

	if tilesDir != "" {
		n, err := export.ExtractTiles(cmd.Context(), tilesDir, res.Manifest, log)
		if err != nil {
			return fmt.Errorf("extract tiles: %w", err)
		}
		fmt.Printf("Extracted %d tile(s) to %s\n", n, tilesDir)
	}

	if dump {
		w := text.NewWriter(os.Stdout)
		if err := w.Write(res.Map, res.Report); err != nil {
			return err
		}
		if err := w.WriteScene(res.Scene); err != nil {
			return err
		}
	}

	if !res.Report.Empty() {
		fmt.Printf("Report: %d dropped, %d skipped, %d repaired, %d warning(s)\n",
			res.Report.Count(model.ActionDropped), res.Report.Count(model.ActionSkipped),
			res.Report.Count(model.ActionRepaired), res.Report.Count(model.ActionWarned))
	}
	return nil
}

// tiles command
var tilesCmd = &cobra.Command{
	Use:   "tiles [source...]",
	Short: "List or extract tiles",
	Long: `Index tile sources and list, extract or dump the resolved tiles.

Sources are folders, GRP or RFF archives, ART files or single images.
Without arguments the configured texture folders are used.`,
	RunE: runTiles,
}

func init() {
	tilesCmd.Flags().String("map", "", "Only index the tiles this map uses")
	tilesCmd.Flags().IntSlice("tile", nil, "Only show these tiles")
	tilesCmd.Flags().Bool("blood", false, "Use the Blood palette")
	tilesCmd.Flags().StringP("extract", "x", "", "Extract the tiles as PNG files to this directory")
	tilesCmd.Flags().Bool("xpm", false, "Dump indexed tiles as XPM to stdout")
}

func runTiles(cmd *cobra.Command, args []string) error {
	mapPath, _ := cmd.Flags().GetString("map")
	only, _ := cmd.Flags().GetIntSlice("tile")
	blood, _ := cmd.Flags().GetBool("blood")
	extractDir, _ := cmd.Flags().GetString("extract")
	xpm, _ := cmd.Flags().GetBool("xpm")

	variant := model.VariantBuild
	if blood {
		variant = model.VariantBlood
	}
	var required []int
	if mapPath != "" {
		buf, err := readMap(mapPath)
		if err != nil {
			return err
		}
		m, _, err := buildmap.Decode(buf, options())
		if err != nil {
			return fmt.Errorf("decode map: %w", err)
		}
		variant = m.Header.Variant
		required = m.Picnums()
	}
	if only != nil {
		required = only
	}

	sources, tileOpts := tiles.FromConfig(opts.Textures, variant, logger)
	if len(args) > 0 {
		sources = make([]tiles.Source, len(args))
		for i, a := range args {
			sources[i] = tiles.Source{Path: a}
		}
	}
	if len(sources) == 0 {
		return fmt.Errorf("no tile sources given")
	}
	tileOpts.Required = required

	index, report, err := tiles.Build(cmd.Context(), sources, tileOpts)
	if err != nil {
		return err
	}
	for _, e := range report.Entries {
		logger.Warn(e.String())
	}
	entries := index.Manifest(required...)

	switch {
	case extractDir != "":
		n, err := export.ExtractTiles(cmd.Context(), extractDir, entries, logger)
		if err != nil {
			return fmt.Errorf("extract tiles: %w", err)
		}
		fmt.Printf("Extracted %d tile(s) to %s\n", n, extractDir)
	case xpm:
		w := text.NewWriter(os.Stdout)
		for _, e := range entries {
			if err := w.WriteTile(e); err != nil {
				logger.WithField("tile", e.Tile).Debug(err)
			}
		}
	default:
		fmt.Printf("Found %d tile(s):\n", len(entries))
		for _, e := range entries {
			fmt.Printf("  %5d  %s\n", e.Tile, tiles.Describe(e))
		}
	}
	return nil
}

// archive command
var archiveCmd = &cobra.Command{
	Use:   "archive <file.grp|file.rff>",
	Short: "List or extract archive entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runArchive,
}

func init() {
	archiveCmd.Flags().StringP("output", "o", "", "Extract the entries to this directory")
	archiveCmd.Flags().StringP("pattern", "p", "*", "Only entries matching this pattern, e.g. '*.ART'")
}

func runArchive(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	pattern, _ := cmd.Flags().GetString("pattern")

	a, err := archive.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	entries := a.Find(pattern)

	if outputPath == "" {
		fmt.Printf("%s: %s v%#x, %d entries, %s\n",
			filepath.Base(inputPath), a.Kind, a.Version, len(a.Entries), humanize.Bytes(uint64(a.Size())))
		for _, e := range entries {
			line := fmt.Sprintf("  %-12s %10s", e.Name, humanize.Bytes(uint64(e.Size)))
			if !e.ModTime.IsZero() {
				line += "  " + humanize.Time(e.ModTime)
			}
			if e.Encrypted() {
				line += "  (encrypted)"
			}
			fmt.Println(line)
		}
		return nil
	}

	if err := os.MkdirAll(outputPath, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for _, e := range entries {
		data, err := a.Read(e)
		if err != nil {
			return fmt.Errorf("read %s: %w", e.Name, err)
		}
		if err := os.WriteFile(filepath.Join(outputPath, e.Name), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", e.Name, err)
		}
	}
	fmt.Printf("Extracted %d file(s) to %s\n", len(entries), outputPath)
	return nil
}

// fix command
var fixCmd = &cobra.Command{
	Use:   "fix <input.map>",
	Short: "Repair wall neighbor links",
	Long: `Decode a map, resolve its wall neighbor links and write it back.

With --heuristic-wall-search missing links are inferred from matching
wall coordinates; otherwise only one-sided links are cleared.`,
	Args: cobra.ExactArgs(1),
	RunE: runFix,
}

func init() {
	fixCmd.Flags().StringP("output", "o", "", "Output file (required)")
	fixCmd.MarkFlagRequired("output")
}

func runFix(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")

	buf, err := readMap(inputPath)
	if err != nil {
		return err
	}
	out, report, err := buildmap.Fix(cmd.Context(), buf, options())
	if err != nil {
		return fmt.Errorf("fix map: %w", err)
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}

	fmt.Printf("Wrote %s (%s), %d wall(s) repaired\n",
		outputPath, humanize.Bytes(uint64(len(out))), report.Count(model.ActionRepaired))
	for _, e := range report.Entries {
		fmt.Printf("  - %s\n", e)
	}
	return nil
}

// show command
var showCmd = &cobra.Command{
	Use:   "show <scene.json[.zst|.lz4|.xz]>",
	Short: "Summarize an exported scene document",
	Long: `Read a document written by the scene command and print its source,
run id, object counts, tile manifest and report.

The codec is picked from the file extension.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	doc, err := export.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read scene: %w", err)
	}

	fmt.Printf("Scene File: %s\n", inputPath)
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("  Source:           %s (%s version %d)\n", doc.Source, doc.Variant, doc.Version)
	fmt.Printf("  Run:              %s\n", doc.RunID)
	if tagged, err := export.RunID(inputPath); err == nil && tagged != doc.RunID {
		fmt.Printf("  File tag:         %s (does not match)\n", tagged)
	}
	if doc.Scene != nil {
		fmt.Printf("  Sectors:          %d\n", doc.Scene.Sectors)
		fmt.Printf("  Objects:          %d\n", len(doc.Scene.Objects))
		fmt.Printf("  Sprites:          %d\n", len(doc.Scene.Sprites))
		fmt.Printf("  Materials:        %d\n", len(doc.Scene.Materials))
	}
	fmt.Printf("  Tiles:            %d\n", len(doc.Manifest))
	if !doc.Report.Empty() {
		fmt.Printf("\nReport (%d):\n", doc.Report.Len())
		for _, e := range doc.Report.Entries {
			fmt.Printf("  - %s\n", e)
		}
	}
	return nil
}

// version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("buildmap version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
	},
}
