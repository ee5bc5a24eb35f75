package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dave/daisy/config"
	"github.com/dave/daisy/export"
	"github.com/dave/daisy/geo"
	"github.com/dave/daisy/tss"
	"github.com/dave/daisy/tss/tsstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const waypoints = "key\tlab\tlat\tlon\n" +
	"a\tone\t51.500000\t-0.120000\n" +
	"a\ttwo\t51.510000\t-0.130000\n" +
	"b\tthree\t51.520000\t-0.140000\n" +
	"a\tfour\t51.530000\t-0.150000\n"

type fakeElevations float64

func (f fakeElevations) Elevation(lat, lon float64) (float64, error) {
	return float64(f), nil
}

func testApp(t *testing.T, tool *tsstest.Tool) *app {
	t.Setenv("DAISY_TOOL", "")
	t.Setenv("DAISY_WORK_DIR", "")
	a := newApp(strings.NewReader(""), &bytes.Buffer{})
	a.logger = zaptest.NewLogger(t)
	a.runner = func(cfg *config.Config, logger *zap.Logger) (tss.Runner, error) {
		return tool, nil
	}
	a.elevations = func() (export.Elevations, error) {
		return fakeElevations(42), nil
	}
	return a
}

func execute(a *app, args ...string) error {
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	return cmd.ExecuteContext(context.Background())
}

func emptyConfig(t *testing.T, dir string) string {
	fpath := filepath.Join(dir, "daisy.yaml")
	require.NoError(t, os.WriteFile(fpath, nil, 0666))
	return fpath
}

func writeInput(t *testing.T, dir string) string {
	fpath := filepath.Join(dir, "daisy.dat")
	require.NoError(t, os.WriteFile(fpath, []byte(waypoints), 0666))
	return fpath
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	tool := &tsstest.Tool{}
	a := testApp(t, tool)

	out := filepath.Join(dir, "out.txt")
	err := execute(a,
		"--config", emptyConfig(t, dir),
		"-i", writeInput(t, dir),
		"-o", out,
		"-a", "51.0, -0.1",
		"-m", "nn",
		"--gpx", filepath.Join(dir, "route.gpx"),
		"--geojson", filepath.Join(dir, "route.geojson"),
		"--kml", filepath.Join(dir, "route.kml"),
		"--preview", filepath.Join(dir, "route.png"),
	)
	require.NoError(t, err)

	// three runs of keys (a, b, a) then the final pass
	require.Len(t, tool.Calls, 4)
	assert.Equal(t, []geo.Anchor{"51.0,-0.1", "51.510000,-0.130000", "51.520000,-0.140000", geo.NoAnchor}, tool.Anchors())
	for _, c := range tool.Calls[:3] {
		assert.Equal(t, "nn", c.Opts.Method)
		assert.False(t, c.Opts.Format)
	}
	final := tool.Calls[3]
	assert.Equal(t, "none", final.Opts.Method)
	assert.True(t, final.Opts.Format)
	assert.True(t, final.Opts.Image)
	assert.Equal(t, "out.txt", final.Opts.Output)
	assert.Equal(t, dir, final.Dir)

	for _, name := range []string{"out.txt", "out_route.png", "route.gpx", "route.geojson", "route.kml", "route.png"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	// only the outputs and the input are left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), "daisy-in-"), e.Name())
	}
}

func TestRunElevation(t *testing.T) {
	dir := t.TempDir()
	a := testApp(t, &tsstest.Tool{})

	geojson := filepath.Join(dir, "route.geojson")
	require.NoError(t, execute(a,
		"--config", emptyConfig(t, dir),
		"-i", writeInput(t, dir),
		"-o", filepath.Join(dir, "out.txt"),
		"--geojson", geojson,
		"--ele",
	))
	b, err := os.ReadFile(geojson)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"ele":42`)
}

func TestRunMissingInput(t *testing.T) {
	dir := t.TempDir()
	tool := &tsstest.Tool{}
	a := testApp(t, tool)

	err := execute(a,
		"--config", emptyConfig(t, dir),
		"-i", filepath.Join(dir, "nope.dat"),
		"-o", filepath.Join(dir, "out.txt"),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not read file")
	assert.Empty(t, tool.Calls)
}

func TestRunToolMissing(t *testing.T) {
	dir := t.TempDir()
	a := testApp(t, &tsstest.Tool{})
	a.runner = func(cfg *config.Config, logger *zap.Logger) (tss.Runner, error) {
		return nil, errors.New("locating routing tool")
	}

	err := execute(a,
		"--config", emptyConfig(t, dir),
		"-i", writeInput(t, dir),
		"-o", filepath.Join(dir, "out.txt"),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locating routing tool")
	assert.NoFileExists(t, filepath.Join(dir, "out.txt"))
}

func TestRunToolFailure(t *testing.T) {
	dir := t.TempDir()
	tool := &tsstest.Tool{Fail: map[int]error{1: errors.New("boom")}}
	a := testApp(t, tool)

	err := execute(a,
		"--config", emptyConfig(t, dir),
		"-i", writeInput(t, dir),
		"-o", filepath.Join(dir, "out.txt"),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Len(t, tool.Calls, 2)
}

func TestInvalidFlags(t *testing.T) {
	dir := t.TempDir()
	for name, tc := range map[string]struct {
		args []string
		want string
	}{
		"method": {[]string{"-m", "fastest"}, `"fastest" is not a valid method`},
		"anchor": {[]string{"-a", "north"}, "could not parse anchor"},
		"output": {[]string{"-o", filepath.Join(dir, "out.csv")}, "must have a .txt extension"},
		"args":   {[]string{"extra"}, "unknown command"},
	} {
		t.Run(name, func(t *testing.T) {
			tool := &tsstest.Tool{}
			args := append([]string{"--config", emptyConfig(t, dir)}, tc.args...)
			err := execute(testApp(t, tool), args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
			assert.Empty(t, tool.Calls)
		})
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "daisy.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("input: from-config.dat\nmethod: nn\nimage: false\ntool: /opt/tss\n"), 0666))

	written := filepath.Join(dir, "effective.yaml")
	require.NoError(t, execute(testApp(t, &tsstest.Tool{}),
		"--config", cfgPath,
		"--write-config", written,
		"-m", "opt",
		"-o", filepath.Join(dir, "route"),
	))

	cfg, err := config.Load(written)
	require.NoError(t, err)
	assert.Equal(t, "from-config.dat", cfg.Input)
	assert.Equal(t, "opt", cfg.Method)
	assert.Equal(t, "/opt/tss", cfg.Tool)
	assert.False(t, cfg.Image)
	assert.Equal(t, filepath.Join(dir, "route"), cfg.Output)
}

func TestExecRunnerEcho(t *testing.T) {
	var stderr bytes.Buffer
	a := newApp(strings.NewReader("y\n"), &stderr)

	for _, tc := range []struct {
		method  string
		verbose bool
		echo    bool
	}{
		{"auto", false, false},
		{"auto", true, true},
		{"exh", false, true},
	} {
		cfg := config.Default()
		cfg.Tool = os.Args[0]
		cfg.Method = tc.method
		cfg.Verbose = tc.verbose

		r, err := a.execRunner(cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		e := r.(*tss.Exec)
		assert.Equal(t, a.stdin, e.Stdin)
		if tc.echo {
			assert.Equal(t, io.Writer(&stderr), e.Echo, tc.method)
		} else {
			assert.Nil(t, e.Echo, tc.method)
		}
	}
}

func TestMissingConfigFile(t *testing.T) {
	dir := t.TempDir()
	tool := &tsstest.Tool{}
	err := execute(testApp(t, tool), "--config", filepath.Join(dir, "missing.yaml"), "-i", writeInput(t, dir))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, tool.Calls)
}

func TestRunStaleOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(out, []byte("center:\t1.0\t1.0\t0.00km avg dist\n\nlab\tlat\tlon\tord\nSTALE\t1.000000\t1.000000\t1\n"), 0666))

	tool := &tsstest.Tool{Silent: map[int]bool{3: true}}
	err := execute(testApp(t, tool),
		"--config", emptyConfig(t, dir),
		"-i", writeInput(t, dir),
		"-o", out,
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "routing tool wrote no output")
	assert.NoFileExists(t, out)
}

func TestInputUsage(t *testing.T) {
	cmd := newRootCmd(newApp(strings.NewReader(""), &bytes.Buffer{}))
	usage := cmd.Flags().Lookup("input").Usage
	assert.Contains(t, usage, "group key, lab, lat, lon")
}
