// Command stcrender renders a scene file to PNG and reports what lies under
// given pixels.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"spacetime-chart/internal/chart"
	"spacetime-chart/internal/config"
	"spacetime-chart/internal/scene"
	"spacetime-chart/internal/version"
)

// pickList collects repeated -pick x,y flags.
type pickList []image.Point

func (p *pickList) String() string {
	parts := make([]string, len(*p))
	for i, pt := range *p {
		parts[i] = fmt.Sprintf("%d,%d", pt.X, pt.Y)
	}
	return strings.Join(parts, " ")
}

func (p *pickList) Set(v string) error {
	x, y, ok := strings.Cut(v, ",")
	if !ok {
		return fmt.Errorf("want x,y, got %q", v)
	}
	px, err := strconv.Atoi(strings.TrimSpace(x))
	if err != nil {
		return err
	}
	py, err := strconv.Atoi(strings.TrimSpace(y))
	if err != nil {
		return err
	}
	*p = append(*p, image.Pt(px, py))
	return nil
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	scenePath := flag.String("scene", "", "Scene file (YAML or JSON)")
	configPath := flag.String("config", "", "Chart configuration file (optional)")
	envPath := flag.String("env", ".env", "Environment file with STC_* overrides (optional)")
	outPath := flag.String("out", "chart.png", "Output PNG")
	pickingPath := flag.String("picking", "", "Also write the picking buffer to this PNG")
	width := flag.Int("width", 1280, "Image width in pixels")
	height := flag.Int("height", 720, "Image height in pixels")
	scroll := flag.Float64("scroll", 0, "Vertical scroll in pixels")
	verbose := flag.Bool("v", false, "Log engine diagnostics")
	var picks pickList
	flag.Var(&picks, "pick", "Report the element at x,y (repeatable)")
	flag.Parse()

	if *scenePath == "" {
		fmt.Println("Usage: stcrender -scene <file> [-config c.yaml] [-out chart.png] [-picking pick.png] [-pick x,y]")
		os.Exit(1)
	}

	if err := godotenv.Load(*envPath); err != nil && !os.IsNotExist(err) {
		log.Printf("Ignoring %s: %v", *envPath, err)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Config: %v", err)
		}
	}
	cfg.ApplyEnv()

	s, err := scene.Load(*scenePath)
	if err != nil {
		log.Fatalf("Scene: %v", err)
	}

	opts := []chart.Option{chart.WithSize(*width, *height)}
	if *verbose {
		opts = append(opts, chart.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))))
	}
	c, err := chart.New(cfg, opts...)
	if err != nil {
		log.Fatalf("Chart: %v", err)
	}
	defer c.Close()

	s.Apply(c)
	c.Controller().ScrollTo(*scroll)

	log.Printf("%s: %d waypoints, %d paths, %d zones, %d conflicts",
		version.String(), len(s.OperationalPoints), len(s.Paths), len(s.OccupancyZones), len(s.Conflicts))

	img, err := c.Render()
	if img == nil {
		log.Fatalf("Render: %v", err)
	}
	if err != nil {
		log.Printf("Render: %v", err)
	}
	if err := writePNG(*outPath, img); err != nil {
		log.Fatalf("Write %s: %v", *outPath, err)
	}
	log.Printf("Wrote %s (%dx%d)", *outPath, *width, *height)

	if *pickingPath != "" {
		if err := writePNG(*pickingPath, c.PickingImage()); err != nil {
			log.Fatalf("Write %s: %v", *pickingPath, err)
		}
		log.Printf("Wrote picking buffer %s", *pickingPath)
	}

	for _, pt := range picks {
		if el, ok := c.Pick(pt.X, pt.Y); ok {
			fmt.Printf("%d,%d\t%s\n", pt.X, pt.Y, el)
		} else {
			fmt.Printf("%d,%d\t-\n", pt.X, pt.Y)
		}
	}
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
