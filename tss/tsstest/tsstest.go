// Package tsstest provides an in-process stand-in for the routing tool. It honours the tool's
// file contract (header handling, plain and formatted outputs, anchor rotation, image name) but
// keeps the input order instead of optimising it.
package tsstest

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/dave/daisy/geo"
	"github.com/dave/daisy/tss"
)

// Tool is a tss.Runner that records every invocation.
type Tool struct {
	mu    sync.Mutex
	Calls []Call

	// Fail makes the n-th call (zero based) return an error without writing output.
	Fail map[int]error
	// Empty makes the n-th call write a header-only output.
	Empty map[int]bool
	// Silent makes the n-th call succeed without writing anything, as the tool does when it
	// cannot load its input.
	Silent map[int]bool
}

type Call struct {
	Dir   string
	Opts  tss.Options
	Input string // input file contents at the time of the call
}

func (t *Tool) Run(ctx context.Context, dir string, opts tss.Options) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	n := len(t.Calls)
	b, _ := os.ReadFile(filepath.Join(dir, opts.Input))
	t.Calls = append(t.Calls, Call{Dir: dir, Opts: opts, Input: string(b)})
	fail := t.Fail[n]
	empty := t.Empty[n]
	silent := t.Silent[n]
	t.mu.Unlock()

	if fail != nil {
		return fail
	}
	if silent {
		return nil
	}
	if empty {
		return os.WriteFile(filepath.Join(dir, opts.Output), []byte("label\tlat\tlon\n"), 0666)
	}
	return Emulate(dir, opts)
}

// Anchors returns the anchor passed to each call.
func (t *Tool) Anchors() []geo.Anchor {
	t.mu.Lock()
	defer t.mu.Unlock()
	anchors := make([]geo.Anchor, len(t.Calls))
	for i, c := range t.Calls {
		anchors[i] = c.Opts.Anchor
	}
	return anchors
}

type point struct {
	lab string
	pos geo.Pos
}

// Emulate reads opts.Input in dir and writes opts.Output the way the routing tool would with
// the "none" method.
func Emulate(dir string, opts tss.Options) error {
	in, err := os.ReadFile(filepath.Join(dir, opts.Input))
	if err != nil {
		return fmt.Errorf("error loading file: %w", err)
	}
	var pts []point
	lines := strings.Split(strings.TrimSpace(string(in)), "\n")
	for i, line := range lines {
		if i == 0 {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 3 {
			return fmt.Errorf("short record at row %d", i+1)
		}
		pos, err := geo.ParsePos(cols[1], cols[2])
		if err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
		pts = append(pts, point{lab: strings.TrimSpace(cols[0]), pos: pos})
	}
	if len(pts) == 0 {
		return fmt.Errorf("empty points, quiting")
	}

	if !opts.Anchor.Empty() {
		a, err := opts.Anchor.Pos()
		if err != nil {
			return err
		}
		start := 0
		for i, p := range pts {
			if p.pos.Distance(a) < pts[start].pos.Distance(a) {
				start = i
			}
		}
		pts = append(pts[start:], pts[:start]...)
	}

	var sb strings.Builder
	if opts.Format {
		var lat, lon float64
		for _, p := range pts {
			lat += p.pos.Lat
			lon += p.pos.Lon
		}
		center := geo.Pos{Lat: lat / float64(len(pts)), Lon: lon / float64(len(pts))}
		var dist float64
		for _, p := range pts {
			dist += p.pos.Distance(center)
		}
		fmt.Fprintf(&sb, "center:\t%s\t%s\t%.2fkm avg dist\n\nlab\tlat\tlon\tord\n",
			ff(center.Lat), ff(center.Lon), dist/float64(len(pts)))
		for i, p := range pts {
			fmt.Fprintf(&sb, "%s\t%s\t%s\t%d\n", p.lab, ff(p.pos.Lat), ff(p.pos.Lon), i+1)
		}
	} else {
		sb.WriteString("label\tlat\tlon\n")
		for _, p := range pts {
			fmt.Fprintf(&sb, "%s\t%s\t%s\n", p.lab, ff(p.pos.Lat), ff(p.pos.Lon))
		}
	}
	if err := os.WriteFile(filepath.Join(dir, opts.Output), []byte(sb.String()), 0666); err != nil {
		return fmt.Errorf("error writing file: %w", err)
	}

	if opts.Image {
		name := opts.Output[:strings.Index(opts.Output, ".txt")]
		if err := os.WriteFile(filepath.Join(dir, name+"_route.png"), []byte("png"), 0666); err != nil {
			return err
		}
	}
	return nil
}

func ff(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// ParseArgs parses the tool's command line into options.
func ParseArgs(args []string) (tss.Options, error) {
	fs := flag.NewFlagSet("tss", flag.ContinueOnError)
	var opts tss.Options
	var anchor string
	fs.StringVar(&opts.Input, "f", "in.txt", "source file name")
	fs.StringVar(&opts.Output, "o", "out.txt", "outfile name")
	fs.BoolVar(&opts.Image, "t", true, "produce route image")
	fs.BoolVar(&opts.Format, "fmt", true, "format output with headers and order")
	fs.StringVar(&opts.Method, "m", "auto", "opt method to use")
	fs.StringVar(&anchor, "a", "", "pass anchor coords for rotation")
	if err := fs.Parse(args); err != nil {
		return tss.Options{}, err
	}
	opts.Anchor = geo.Anchor(anchor)
	return opts, nil
}

var _ tss.Runner = (*Tool)(nil)

// Rows is a convenience for building tool inputs in tests.
func Rows(lines ...string) [][]string {
	rows := make([][]string, len(lines))
	for i, l := range lines {
		rows[i] = strings.Split(l, "\t")
	}
	return rows
}
