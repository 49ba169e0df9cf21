// EventDP — Personalised event display pictures.
//
// Usage:
//
//	eventdp -o <file> --event <path> [--photo <path>] [--text <t>]... [options]
//	eventdp validate --event <path>
//	eventdp serve [--port 8080]
//	eventdp init
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xob0t/eventdp/clients/server"
	"github.com/xob0t/eventdp/pkg/compose"
	"github.com/xob0t/eventdp/pkg/event"
	"github.com/xob0t/eventdp/pkg/generator"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "init":
		if err := runInit(os.Args[2:]); err != nil {
			fatal(err)
		}
	case "validate":
		if err := runValidate(os.Args[2:]); err != nil {
			fatal(err)
		}
	case "serve":
		if err := server.RunServe(os.Args[2:]); err != nil {
			fatal(err)
		}
	case "help", "-h", "--help":
		printUsage()
	default:
		// Default: render mode (all flags on root).
		if err := run(os.Args[1:]); err != nil {
			fatal(err)
		}
	}
}

// textList collects repeated --text flags in order.
type textList []string

func (t *textList) String() string     { return strings.Join(*t, ", ") }
func (t *textList) Set(v string) error { *t = append(*t, v); return nil }

func run(args []string) error {
	fs := flag.NewFlagSet("eventdp", flag.ExitOnError)

	var (
		output    string
		eventPath string
		flyerPath string
		photoPath string
		texts     textList
		width     float64
		maxHeight float64
		ratio     float64
		quality   int
		fontDir   string
		verbose   bool
	)

	fs.StringVar(&output, "o", "", "Output file path (.png or .jpg)")
	fs.StringVar(&output, "output", "", "Output file path (.png or .jpg)")
	fs.StringVar(&eventPath, "event", "", "Path to .eventdp bundle or event JSON")
	fs.StringVar(&flyerPath, "flyer", "", "Flyer image (default: the event's flyerUrl)")
	fs.StringVar(&photoPath, "photo", "", "Attendee photo (optional)")
	fs.Var(&texts, "text", "Text for the next text placeholder (repeatable)")
	fs.Float64Var(&width, "width", compose.DefaultContainerWidth, "Container width in pixels")
	fs.Float64Var(&maxHeight, "max-height", compose.DefaultMaxHeight, "Maximum canvas height in pixels")
	fs.Float64Var(&ratio, "ratio", compose.DefaultPixelRatio, "Export pixel ratio")
	fs.IntVar(&quality, "quality", generator.DefaultJPEGQuality, "JPEG quality (1-100)")
	fs.StringVar(&fontDir, "font-dir", "", "Directory with custom TTF/OTF fonts")
	fs.BoolVar(&verbose, "v", false, "Verbose logging")

	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	if output == "" {
		printUsage()
		return fmt.Errorf("output file is required (-o)")
	}
	if eventPath == "" {
		return fmt.Errorf("--event is required")
	}
	format, err := generator.ParseFormat(filepath.Ext(output))
	if err != nil {
		return err
	}
	if verbose {
		compose.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	e, cleanup, err := event.Load(eventPath)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}
	defer cleanup()

	if err := event.Validate(e); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if flyerPath == "" {
		flyerPath = e.FlyerURL
	}
	if flyerPath == "" {
		return fmt.Errorf("event has no flyer: pass --flyer")
	}
	if strings.HasPrefix(flyerPath, "http://") || strings.HasPrefix(flyerPath, "https://") {
		return fmt.Errorf("remote flyer %s: download it and pass --flyer", flyerPath)
	}

	session := compose.NewSession(compose.Options{
		ContainerWidth: width,
		MaxHeight:      maxHeight,
		Fonts:          compose.NewFontManager(fontDir),
	})
	session.SetEvent(e)

	ctx := context.Background()
	if err := session.LoadFlyer(ctx, compose.FromFile(flyerPath)); err != nil {
		return err
	}
	if photoPath != "" {
		if err := session.LoadPhoto(ctx, compose.FromFile(photoPath)); err != nil {
			return err
		}
	}
	if len(texts) > len(e.TextPlaceholders) {
		fmt.Fprintf(os.Stderr, "Warning: %d texts given, event has %d text placeholders\n", len(texts), len(e.TextPlaceholders))
	}
	session.SetTexts(texts)

	fmt.Printf("Rendering event: %s\n", e.Title)
	art, err := session.Export(compose.ExportOptions{PixelRatio: ratio, Format: format, Quality: quality})
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, art.Data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Printf("Done: %s (%dx%d)\n", output, art.Width, art.Height)
	return nil
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var eventPath string
	fs.StringVar(&eventPath, "event", "", "Path to .eventdp bundle or event JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if eventPath == "" {
		return fmt.Errorf("--event is required for validate command")
	}

	e, cleanup, err := event.Load(eventPath)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := event.Validate(e); err != nil {
		return err
	}
	fmt.Printf("OK: %s (%d image, %d text placeholders)\n", e.Title, len(e.ImagePlaceholders), len(e.TextPlaceholders))
	return nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var eventOut string
	fs.StringVar(&eventOut, "event", "event.json", "Output path for sample event")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := os.WriteFile(eventOut, []byte(event.GetExampleJSON()), 0644); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	// The sample event points at flyer.png next to the JSON.
	flyerOut := filepath.Join(filepath.Dir(eventOut), "flyer.png")
	flyer := generator.NewSolidImage(1200, 800, color.RGBA{0x1a, 0x1a, 0x2e, 0xff})
	if err := generator.Generate(flyerOut, flyer, generator.Config{}); err != nil {
		return err
	}

	fmt.Printf("Created: %s, %s\n", eventOut, flyerOut)
	fmt.Printf("Run: eventdp -o dp.png --event %s --photo me.jpg --text \"Jane Doe\"\n", eventOut)
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	if kind := compose.KindOf(err); kind != "" {
		fmt.Fprintf(os.Stderr, "Kind: %s\n", kind)
	}
	os.Exit(1)
}

func printUsage() {
	fmt.Print(`EventDP — Personalised event display pictures (Pure Go)

USAGE:
    eventdp -o <file> --event <path> [options]
    eventdp validate --event <path>
    eventdp serve [--port 8080]
    eventdp init [--event event.json]

RENDER:
    --event <path>         .eventdp bundle or standalone event JSON
    -o, --output <path>    Output file (.png or .jpg)
    --flyer <path>         Flyer image (default: event flyerUrl)
    --photo <path>         Attendee photo, cover-fitted into the hole
    --text <text>          Text for the next text placeholder (repeatable)
    --width <px>           Container width (default: 600)
    --max-height <px>      Maximum canvas height (default: 600)
    --ratio <n>            Export pixel ratio (default: 2)
    --quality <n>          JPEG quality (default: 92)
    --font-dir <dir>       Custom fonts, e.g. OpenSans-Bold.ttf
    -v                     Verbose logging

API SERVER:
    eventdp serve [--port 8080]       Configured from the environment / .env

EXAMPLES:
    eventdp init
    eventdp -o dp.png --event event.json --photo me.jpg --text "Jane Doe"
    eventdp -o dp.jpg --event party.eventdp --photo me.jpg --ratio 3
    eventdp validate --event party.eventdp
`)
}
