// Package tss drives the external routing executable. The tool reads a tab separated file of
// labelled points, orders them, and writes the ordered points back out. Its command line is:
//
//	tss -f=<input> -o=<output> -t=<image> -fmt=<formatted> -m=<method> -a=<lat,lon>
//
// Input and output names are resolved relative to the tool's working directory.
package tss

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dave/daisy/geo"
)

// Methods lists the optimisation methods the tool accepts, best quality first.
var Methods = map[int]string{
	-1: "auto",
	0:  "exh",
	1:  "opt",
	2:  "resOpt",
	3:  "bigOpt",
	4:  "nnMul",
	5:  "nn",
	6:  "none",
}

func ValidMethod(m string) bool {
	for _, v := range Methods {
		if v == m {
			return true
		}
	}
	return false
}

// MethodNames returns the methods in quality order for help and error messages.
func MethodNames() []string {
	var keys []int
	for k := range Methods {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = Methods[k]
	}
	return names
}

type Options struct {
	Input  string     // -f
	Output string     // -o
	Image  bool       // -t: draw a route image next to the output
	Format bool       // -fmt: center row and ord column
	Method string     // -m
	Anchor geo.Anchor // -a
}

// Args renders the options as the tool's flags, in the order the tool documents them.
func (o Options) Args() []string {
	return []string{
		"-f=" + o.Input,
		"-o=" + o.Output,
		"-t=" + strconv.FormatBool(o.Image),
		"-fmt=" + strconv.FormatBool(o.Format),
		"-m=" + o.Method,
		"-a=" + o.Anchor.String(),
	}
}

func (o Options) String() string {
	return strings.Join(o.Args(), " ")
}

// Validate checks the options before the tool is started.
func (o Options) Validate() error {
	if o.Input == "" {
		return fmt.Errorf("input file is required")
	}
	if o.Output == "" {
		return fmt.Errorf("output file is required")
	}
	if !ValidMethod(o.Method) {
		return fmt.Errorf("%q is not a valid method (valid methods: %s)", o.Method, strings.Join(MethodNames(), ", "))
	}
	if o.Image && !strings.Contains(o.Output, ".txt") {
		return fmt.Errorf("output %q must have a .txt extension to derive the image name", o.Output)
	}
	return nil
}

// Runner runs the routing tool once in the directory dir.
type Runner interface {
	Run(ctx context.Context, dir string, opts Options) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, dir string, opts Options) error

func (f RunnerFunc) Run(ctx context.Context, dir string, opts Options) error {
	return f(ctx, dir, opts)
}
