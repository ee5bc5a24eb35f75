package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dave/daisy/chain"
	"github.com/dave/daisy/config"
	"github.com/dave/daisy/export"
	"github.com/dave/daisy/table"
	"github.com/dave/daisy/tiler"
	"github.com/dave/daisy/tss"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type app struct {
	stdin  io.Reader
	stderr io.Writer

	// logger replaces the one built from the config when set.
	logger     *zap.Logger
	runner     func(cfg *config.Config, logger *zap.Logger) (tss.Runner, error)
	elevations func() (export.Elevations, error)
}

func newApp(stdin io.Reader, stderr io.Writer) *app {
	a := &app{stdin: stdin, stderr: stderr}
	a.runner = a.execRunner
	a.elevations = func() (export.Elevations, error) {
		return export.NewSrtm(http.DefaultClient)
	}
	return a
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core)
}

// execRunner runs the real tool, checking it can be found first.
func (a *app) execRunner(cfg *config.Config, logger *zap.Logger) (tss.Runner, error) {
	e := tss.NewExec(cfg.Tool, logger)
	path, err := e.Check()
	if err != nil {
		return nil, err
	}
	logger.Debug("using routing tool", zap.String("path", path))
	e.Timeout = cfg.Timeout
	e.Stdin = a.stdin
	// exhaustive runs over many stops ask for confirmation on stdout
	if cfg.Verbose || cfg.Method == "exh" {
		e.Echo = a.stderr
	}
	return e, nil
}

func (a *app) run(ctx context.Context, cfg *config.Config) error {
	logger := a.logger
	if logger == nil {
		logger = newLogger(a.stderr, cfg.Verbose)
		defer logger.Sync()
	}

	anchor, err := cfg.ParsedAnchor()
	if err != nil {
		return fmt.Errorf("could not parse anchor: %w", err)
	}

	rows, err := table.Load(cfg.Input)
	if err != nil {
		return fmt.Errorf("could not read file: %w", err)
	}
	groups := table.GroupRows(rows)
	logger.Info("read waypoints",
		zap.String("input", cfg.Input),
		zap.Int("rows", len(rows)),
		zap.Int("groups", len(groups)))

	runner, err := a.runner(cfg, logger)
	if err != nil {
		return err
	}

	c := &chain.Chain{
		Runner:   runner,
		Logger:   logger,
		WorkDir:  cfg.WorkDir,
		KeepTemp: cfg.KeepTemp,
		Method:   cfg.Method,
		Image:    cfg.Image,
	}
	report, err := c.Run(ctx, groups, anchor, cfg.Output)
	if err != nil {
		return fmt.Errorf("chaining groups: %w", err)
	}

	fields := []zap.Field{
		zap.String("run", report.RunID),
		zap.Int("legs", len(report.Legs)),
		zap.String("km", fmt.Sprintf("%.2f", report.Length())),
		zap.String("output", report.Output),
	}
	if report.Final.Center != nil {
		fields = append(fields, zap.Stringer("center", report.Final.Center))
	}
	if report.Final.AvgDist != "" {
		fields = append(fields, zap.String("avg", report.Final.AvgDist))
	}
	if report.Image != "" {
		fields = append(fields, zap.String("image", report.Image))
	}
	logger.Info("route complete", fields...)

	if err := a.export(ctx, cfg, report, logger); err != nil {
		return fmt.Errorf("exporting route: %w", err)
	}
	return nil
}

func (a *app) export(ctx context.Context, cfg *config.Config, report *chain.Report, logger *zap.Logger) error {
	ec := cfg.Export
	if !ec.Any() {
		return nil
	}
	legs := export.FromReport(report)

	if ec.Elevation {
		ele, err := a.elevations()
		if err != nil {
			return err
		}
		export.AddElevations(legs, ele, logger)
	}

	base := filepath.Base(cfg.Output)
	targets := export.Targets{
		GPX:     ec.GPX,
		GeoJSON: ec.GeoJSON,
		KML:     ec.KML,
		Name:    strings.TrimSuffix(base, filepath.Ext(base)),
	}
	if err := export.Write(ctx, legs, targets, logger); err != nil {
		return err
	}

	if ec.Preview != "" {
		if err := tiler.SavePNG(ec.Preview, legs, ec.Width, ec.Height); err != nil {
			return err
		}
		logger.Info("wrote preview", zap.String("path", ec.Preview))
	}
	return nil
}
