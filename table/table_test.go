package table

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dave/daisy/geo"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "lab\tloc\tlat\tlon\n" +
	"A\tstore 1\t51.500000\t-0.120000\n" +
	"A\tstore 2\t51.510000\t-0.130000\n" +
	"\n" +
	"B\tstore 3\t51.520000\t-0.140000  \n" +
	"A\tstore 4\t51.530000\t-0.150000\n"

func TestRead(t *testing.T) {
	rows, err := Read(strings.NewReader(sample))
	require.NoError(t, err)

	want := []Row{
		{Key: "A", Fields: []string{"store 1", "51.500000", "-0.120000"}},
		{Key: "A", Fields: []string{"store 2", "51.510000", "-0.130000"}},
		{Key: "B", Fields: []string{"store 3", "51.520000", "-0.140000"}},
		{Key: "A", Fields: []string{"store 4", "51.530000", "-0.150000"}},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadHeaderOnly(t *testing.T) {
	rows, err := Read(strings.NewReader("lab\tloc\tlat\tlon\n"))
	require.NoError(t, err)
	assert.Empty(t, rows)

	rows, err = Read(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.dat"))
	assert.True(t, os.IsNotExist(err))
}

func TestGroupRows(t *testing.T) {
	rows, err := Read(strings.NewReader(sample))
	require.NoError(t, err)

	groups := GroupRows(rows)
	want := []Group{
		{Key: "A", Rows: [][]string{
			{"store 1", "51.500000", "-0.120000"},
			{"store 2", "51.510000", "-0.130000"},
		}},
		{Key: "B", Rows: [][]string{{"store 3", "51.520000", "-0.140000"}}},
		{Key: "A", Rows: [][]string{{"store 4", "51.530000", "-0.150000"}}},
	}
	if diff := cmp.Diff(want, groups); diff != "" {
		t.Errorf("GroupRows() mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, GroupRows(nil))
}

func TestWriteInput(t *testing.T) {
	fpath := filepath.Join(t.TempDir(), "tmp0")
	require.NoError(t, WriteInput(fpath, [][]string{{"a", "1.0", "2.0"}, {"b", "3.0", "4.0"}}))

	b, err := os.ReadFile(fpath)
	require.NoError(t, err)
	assert.Equal(t, "lab\tlat\tlon\na\t1.0\t2.0\nb\t3.0\t4.0\n", string(b))
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))
	assert.Equal(t, "lab\tlat\tlon\n", buf.String())
}

func TestDecodeResultPlain(t *testing.T) {
	res, err := DecodeResult(strings.NewReader("label\tlat\tlon\nx\t1.000000\t2.000000\ny\t3.000000\t4.000000\n"))
	require.NoError(t, err)

	assert.Nil(t, res.Center)
	assert.Equal(t, []string{"label", "lat", "lon"}, res.Header)
	assert.Len(t, res.Records, 2)

	lat, lon, ok := res.LastCoords()
	require.True(t, ok)
	assert.Equal(t, "3.000000", lat)
	assert.Equal(t, "4.000000", lon)
}

func TestDecodeResultFormatted(t *testing.T) {
	in := "center:\t10.500000\t20.250000\t1.23km avg dist\n" +
		"\n" +
		"lab\tlat\tlon\tord\n" +
		"x\t10.000000\t20.000000\t1\n" +
		"y\t11.000000\t20.500000\t2\n"
	res, err := DecodeResult(strings.NewReader(in))
	require.NoError(t, err)

	require.NotNil(t, res.Center)
	assert.Equal(t, geo.Pos{Lat: 10.5, Lon: 20.25}, *res.Center)
	assert.Equal(t, "1.23km avg dist", res.AvgDist)
	assert.Equal(t, []string{"lab", "lat", "lon", "ord"}, res.Header)
	assert.Equal(t, [][]string{{"x", "10.000000", "20.000000", "1"}, {"y", "11.000000", "20.500000", "2"}}, res.Records)
	assert.Len(t, res.Line(), 2)
}

func TestDecodeResultBadCenter(t *testing.T) {
	_, err := DecodeResult(strings.NewReader("center:\tnorth\tsouth\n"))
	assert.Error(t, err)
}

func TestLastCoordsEmpty(t *testing.T) {
	_, _, ok := Result{Header: []string{"label", "lat", "lon"}}.LastCoords()
	assert.False(t, ok)
}

func TestRowsLineSkipsBadRows(t *testing.T) {
	line := RowsLine([][]string{{"a", "1", "2"}, {"b", "x", "2"}, {"c"}, {"d", "3", "4"}})
	assert.Equal(t, geo.Line{{Lat: 1, Lon: 2}, {Lat: 3, Lon: 4}}, line)
}
