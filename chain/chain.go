// Package chain routes groups of waypoints one after another through the routing tool, starting
// each group from where the previous one ended, then formats the joined result in a final pass.
package chain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dave/daisy/geo"
	"github.com/dave/daisy/globals"
	"github.com/dave/daisy/table"
	"github.com/dave/daisy/tss"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrNoGroups = errors.New("no waypoints to route")

// ErrNoOutput is returned when the tool exits cleanly without writing its output. The tool
// reports input errors on stdout and still exits 0.
var ErrNoOutput = errors.New("routing tool wrote no output")

type Chain struct {
	Runner tss.Runner
	Logger *zap.Logger

	// WorkDir holds the per-group temp files. Empty means a fresh temp directory, removed
	// afterwards unless KeepTemp is set.
	WorkDir  string
	KeepTemp bool

	Method string // per-group optimisation method
	Image  bool   // ask the final pass for a route image
}

// Leg is the routed output of one group.
type Leg struct {
	Index  int
	Key    string
	Anchor geo.Anchor // anchor the group was routed from
	Rows   [][]string // label, lat, lon as written by the tool
}

type Report struct {
	RunID  string
	Legs   []Leg
	Final  table.Result
	Output string // absolute path of the final output
	Image  string // absolute path of the route image, when requested
}

// Line is the final route in visiting order.
func (r *Report) Line() geo.Line {
	return r.Final.Line()
}

// Length is the final route length in km.
func (r *Report) Length() float64 {
	return r.Line().Length()
}

func (c *Chain) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Run routes the groups in order. start is the anchor of the first group. output is where the
// final formatted result is written.
func (c *Chain) Run(ctx context.Context, groups []table.Group, start geo.Anchor, output string) (*Report, error) {
	if len(groups) == 0 {
		return nil, ErrNoGroups
	}
	if c.Runner == nil {
		return nil, fmt.Errorf("no routing tool configured")
	}

	report := &Report{RunID: uuid.NewString()}
	log := c.logger().With(zap.String("run", report.RunID))

	dir, cleanup, err := c.workDir()
	if err != nil {
		return nil, err
	}
	defer cleanup()
	log.Debug("using work directory", zap.String("dir", dir))

	anchor := start
	var all [][]string
	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Info("routing group",
			zap.Int("group", i),
			zap.String("key", group.Key),
			zap.Int("stops", len(group.Rows)),
			zap.String("anchor", anchor.String()))

		leg, err := c.routeGroup(ctx, dir, i, group, anchor)
		if err != nil {
			return nil, fmt.Errorf("routing group %d (%s): %w", i, group.Key, err)
		}
		report.Legs = append(report.Legs, leg)
		all = append(all, leg.Rows...)

		next, ok, err := lastAnchor(leg.Rows)
		if err != nil {
			return nil, fmt.Errorf("reading anchor from group %d (%s): %w", i, group.Key, err)
		}
		if ok {
			anchor = next
		} else {
			log.Warn("group produced no rows, keeping anchor", zap.Int("group", i), zap.String("key", group.Key))
		}
	}

	if err := c.finish(ctx, log, all, output, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (c *Chain) routeGroup(ctx context.Context, dir string, i int, group table.Group, anchor geo.Anchor) (Leg, error) {
	in := fmt.Sprintf("tmp%d", i)
	out := in + "_o"
	defer c.remove(filepath.Join(dir, in), filepath.Join(dir, out))

	if err := table.WriteInput(filepath.Join(dir, in), group.Rows); err != nil {
		return Leg{}, err
	}
	opts := tss.Options{
		Input:  in,
		Output: out,
		Method: c.Method,
		Anchor: anchor,
	}
	if err := c.run(ctx, dir, opts); err != nil {
		return Leg{}, err
	}
	res, err := table.ReadResult(filepath.Join(dir, out))
	if err != nil {
		return Leg{}, err
	}
	return Leg{Index: i, Key: group.Key, Anchor: anchor, Rows: res.Records}, nil
}

// finish writes the joined legs next to the output and formats them with the final method. The
// tool resolves names against its working directory, so it runs in the output's directory.
func (c *Chain) finish(ctx context.Context, log *zap.Logger, rows [][]string, output string, report *Report) error {
	abs, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("resolving output %q: %w", output, err)
	}
	dir := filepath.Dir(abs)

	f, err := os.CreateTemp(dir, "daisy-in-*.txt")
	if err != nil {
		return fmt.Errorf("creating final input: %w", err)
	}
	in := f.Name()
	f.Close()
	defer c.remove(in)

	if err := table.WriteInput(in, rows); err != nil {
		return err
	}

	opts := tss.Options{
		Input:  filepath.Base(in),
		Output: filepath.Base(abs),
		Image:  c.Image,
		Format: true,
		Method: globals.FINAL_METHOD,
		Anchor: geo.NoAnchor,
	}
	log.Info("building final output", zap.Int("stops", len(rows)), zap.String("output", abs))
	if err := c.run(ctx, dir, opts); err != nil {
		return fmt.Errorf("building final output: %w", err)
	}

	final, err := table.ReadResult(abs)
	if err != nil {
		return fmt.Errorf("reading final output: %w", err)
	}
	report.Final = final
	report.Output = abs
	if img := imagePath(abs); c.Image && img != "" {
		if _, err := os.Stat(img); err == nil {
			report.Image = img
		} else {
			log.Warn("routing tool wrote no image", zap.String("image", img))
		}
	}
	return nil
}

// run clears the files the tool is asked to write before running it, then checks the output was
// written, so a file left over from an earlier run is never read back as this run's result.
func (c *Chain) run(ctx context.Context, dir string, opts tss.Options) error {
	out := filepath.Join(dir, opts.Output)
	stale := []string{out}
	if img := imagePath(out); opts.Image && img != "" {
		stale = append(stale, img)
	}
	for _, p := range stale {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing previous output %q: %w", p, err)
		}
	}

	if err := c.Runner.Run(ctx, dir, opts); err != nil {
		return err
	}
	if _, err := os.Stat(out); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrNoOutput, opts.Output)
		}
		return fmt.Errorf("checking output %q: %w", out, err)
	}
	return nil
}

// imagePath is where the tool writes the route image for output: the name up to ".txt" with
// "_route.png" appended.
func imagePath(output string) string {
	base := filepath.Base(output)
	i := strings.Index(base, ".txt")
	if i < 0 {
		return ""
	}
	return filepath.Join(filepath.Dir(output), base[:i]+"_route.png")
}

func (c *Chain) workDir() (string, func(), error) {
	if c.WorkDir != "" {
		return c.WorkDir, func() {}, nil
	}
	dir, err := os.MkdirTemp("", "daisy-")
	if err != nil {
		return "", nil, fmt.Errorf("creating work directory: %w", err)
	}
	if c.KeepTemp {
		c.logger().Info("keeping temp files", zap.String("dir", dir))
		return dir, func() {}, nil
	}
	return dir, func() {
		if err := os.RemoveAll(dir); err != nil {
			c.logger().Warn("removing work directory", zap.String("dir", dir), zap.Error(err))
		}
	}, nil
}

func (c *Chain) remove(paths ...string) {
	if c.KeepTemp {
		return
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			c.logger().Warn("removing temp file", zap.String("path", p), zap.Error(err))
		}
	}
}

// lastAnchor takes the lat and lon of the last routed row.
func lastAnchor(rows [][]string) (geo.Anchor, bool, error) {
	lat, lon, ok := table.Result{Records: rows}.LastCoords()
	if !ok {
		return geo.NoAnchor, false, nil
	}
	a, err := geo.AnchorFromFields(lat, lon)
	if err != nil {
		return geo.NoAnchor, false, err
	}
	return a, true, nil
}
