package table

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// IsHTML reports whether fpath looks like an html table export.
func IsHTML(fpath string) bool {
	switch strings.ToLower(filepath.Ext(fpath)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// Load reads rows from a tab separated file or, for .html/.htm files, from the first table of
// the document.
func Load(fpath string) ([]Row, error) {
	if !IsHTML(fpath) {
		return ReadFile(fpath)
	}
	f, err := os.Open(fpath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadHTML(f, "text/html")
}

// ReadHTML reads the first <table> of an html document. The first row is the header and is
// dropped, like the header line of a tab separated file. contentType may carry a charset
// parameter; otherwise the encoding is sniffed from the document.
func ReadHTML(r io.Reader, contentType string) ([]Row, error) {
	utf8, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, fmt.Errorf("detecting charset: %w", err)
	}
	dom, err := goquery.NewDocumentFromReader(utf8)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	table := dom.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("no table found")
	}
	var rows []Row
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		var cols []string
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			cols = append(cols, strings.TrimSpace(cell.Text()))
		})
		if len(cols) == 0 || strings.Join(cols, "") == "" {
			return
		}
		rows = append(rows, Row{Key: cols[0], Fields: cols[1:]})
	})
	return rows, nil
}
