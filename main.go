package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dave/daisy/config"
	"github.com/dave/daisy/globals"
	"github.com/dave/daisy/tss"
	"github.com/spf13/cobra"
)

func main() {
	if err := Main(); err != nil {
		log.Fatalf("%v", err)
	}
}

func Main() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd(newApp(os.Stdin, os.Stderr)).ExecuteContext(ctx)
}

type flags struct {
	config      string
	writeConfig string

	input, output, anchor string

	tool     string
	method   string
	image    bool
	timeout  time.Duration
	workDir  string
	keepTemp bool

	gpx, geojson, kml, preview string
	ele                        bool

	verbose bool
}

func newRootCmd(a *app) *cobra.Command {
	var f flags
	def := config.Default()

	cmd := &cobra.Command{
		Use:   "daisy",
		Short: "Route groups of waypoints one after another through tss",
		Long: `daisy splits a tab separated waypoint file into runs of rows sharing the same
first column, routes each run with the tss tool starting from where the previous
run ended, then formats the joined route in a final tss pass.`,
		Version:       globals.VERSION,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			load := config.Load
			if cmd.Flags().Changed("config") {
				load = config.LoadFile
			}
			cfg, err := load(f.config)
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			if f.writeConfig != "" {
				return cfg.Save(f.writeConfig)
			}
			return a.run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.config, "config", globals.DEFAULT_CONFIG, "YAML config file; the default is ignored when missing")
	fs.StringVar(&f.writeConfig, "write-config", "", "write the effective config to this file and exit")

	fs.StringVarP(&f.input, "input", "i", def.Input, "input file: tab separated group key, lab, lat, lon with a header line (or an HTML table)")
	fs.StringVarP(&f.output, "output", "o", def.Output, "output file")
	fs.StringVarP(&f.anchor, "anchor", "a", def.Anchor, `anchor for the first group as "lat,lon"`)

	fs.StringVar(&f.tool, "tool", def.Tool, "routing tool executable (env DAISY_TOOL)")
	fs.StringVarP(&f.method, "method", "m", def.Method, "optimisation method for each group: "+strings.Join(tss.MethodNames(), ", "))
	fs.BoolVar(&f.image, "image", def.Image, "ask the final pass for a route image")
	fs.DurationVar(&f.timeout, "timeout", def.Timeout, "limit for each tool invocation, 0 for none")
	fs.StringVar(&f.workDir, "work-dir", def.WorkDir, "directory for per-group temp files (env DAISY_WORK_DIR)")
	fs.BoolVar(&f.keepTemp, "keep-temp", def.KeepTemp, "keep temp files")

	fs.StringVar(&f.gpx, "gpx", "", "also write the route as GPX")
	fs.StringVar(&f.geojson, "geojson", "", "also write the route as GeoJSON")
	fs.StringVar(&f.kml, "kml", "", "also write the route as KML")
	fs.StringVar(&f.preview, "preview", "", "also draw the route to this PNG")
	fs.BoolVar(&f.ele, "ele", false, "lookup SRTM elevations for the exports")

	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging and tool output")
	return cmd
}

// apply overrides the config with the flags given on the command line.
func (f *flags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	str := func(name string, dst *string, v string) {
		if changed(name) {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool, v bool) {
		if changed(name) {
			*dst = v
		}
	}
	str("input", &cfg.Input, f.input)
	str("output", &cfg.Output, f.output)
	str("anchor", &cfg.Anchor, f.anchor)
	str("tool", &cfg.Tool, f.tool)
	str("method", &cfg.Method, f.method)
	boolean("image", &cfg.Image, f.image)
	if changed("timeout") {
		cfg.Timeout = f.timeout
	}
	str("work-dir", &cfg.WorkDir, f.workDir)
	boolean("keep-temp", &cfg.KeepTemp, f.keepTemp)
	str("gpx", &cfg.Export.GPX, f.gpx)
	str("geojson", &cfg.Export.GeoJSON, f.geojson)
	str("kml", &cfg.Export.KML, f.kml)
	str("preview", &cfg.Export.Preview, f.preview)
	boolean("ele", &cfg.Export.Elevation, f.ele)
	boolean("verbose", &cfg.Verbose, f.verbose)
}
