// Package table reads and writes the tab separated waypoint files exchanged with the routing tool.
package table

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// InputHeader is the header line the routing tool expects on its input.
var InputHeader = []string{"lab", "lat", "lon"}

// Row is one data line of the chain input: the group key and the columns after it.
type Row struct {
	Key    string
	Fields []string
}

// Group is a run of consecutive rows sharing a key.
type Group struct {
	Key  string
	Rows [][]string
}

func ReadFile(fpath string) ([]Row, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read parses tab separated lines, dropping the first (header) line. Lines are trimmed and blank
// lines are skipped.
func Read(r io.Reader) ([]Row, error) {
	var rows []Row
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	var header bool
	for scanner.Scan() {
		if !header {
			header = true
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		rows = append(rows, Row{Key: cols[0], Fields: cols[1:]})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning rows: %w", err)
	}
	return rows, nil
}

// GroupRows splits rows into runs of equal keys. A key that comes back after another key starts
// a new group.
func GroupRows(rows []Row) []Group {
	var groups []Group
	for _, row := range rows {
		if len(groups) == 0 || groups[len(groups)-1].Key != row.Key {
			groups = append(groups, Group{Key: row.Key})
		}
		last := &groups[len(groups)-1]
		last.Rows = append(last.Rows, row.Fields)
	}
	return groups
}

// WriteInput writes rows as a routing tool input file.
func WriteInput(fpath string, rows [][]string) error {
	f, err := os.Create(fpath)
	if err != nil {
		return fmt.Errorf("creating %q: %w", fpath, err)
	}
	if err := Write(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("writing %q: %w", fpath, err)
	}
	return f.Close()
}

func Write(w io.Writer, rows [][]string) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(strings.Join(InputHeader, "\t"))
	bw.WriteByte('\n')
	for _, row := range rows {
		bw.WriteString(strings.Join(row, "\t"))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
