package table

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dave/daisy/geo"
)

const centerPrefix = "center:"

// Result is a routing tool output file. Formatted outputs (-fmt=true) start with a center row
// and a blank line before the header; plain outputs start with the header.
type Result struct {
	Center  *geo.Pos
	AvgDist string
	Header  []string
	Records [][]string
}

func ReadResult(fpath string) (Result, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return Result{}, err
	}
	defer f.Close()
	res, err := DecodeResult(f)
	if err != nil {
		return Result{}, fmt.Errorf("reading %q: %w", fpath, err)
	}
	return res, nil
}

func DecodeResult(r io.Reader) (Result, error) {
	var res Result
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		switch {
		case res.Header == nil && cols[0] == centerPrefix:
			if len(cols) < 3 {
				return Result{}, fmt.Errorf("short center row %q", line)
			}
			pos, err := geo.ParsePos(cols[1], cols[2])
			if err != nil {
				return Result{}, fmt.Errorf("parsing center row: %w", err)
			}
			res.Center = &pos
			if len(cols) > 3 {
				res.AvgDist = cols[3]
			}
		case res.Header == nil:
			res.Header = cols
		default:
			res.Records = append(res.Records, cols)
		}
	}
	if err := scanner.Err(); err != nil {
		return Result{}, err
	}
	return res, nil
}

// LastCoords returns the lat and lon columns of the last record.
func (r Result) LastCoords() (lat, lon string, ok bool) {
	if len(r.Records) == 0 {
		return "", "", false
	}
	last := r.Records[len(r.Records)-1]
	if len(last) < 3 {
		return "", "", false
	}
	return last[1], last[2], true
}

// Line converts the records to positions, skipping rows without parseable coordinates.
func (r Result) Line() geo.Line {
	return RowsLine(r.Records)
}

// RowsLine converts label,lat,lon rows to positions.
func RowsLine(rows [][]string) geo.Line {
	line := make(geo.Line, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		pos, err := geo.ParsePos(row[1], row[2])
		if err != nil {
			continue
		}
		line = append(line, pos)
	}
	return line
}
