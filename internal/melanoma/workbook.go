// Package melanoma extracts melanoma incidence statistics from the AIHW
// "Cancer incidence and mortality by state and territory" workbook and reduces
// them to per-state summary metrics.
//
// The workbook is a plain .xlsx file. Only cell text is needed, so the reader
// walks the OOXML parts directly (workbook part for sheet names, relationships
// for worksheet paths, the shared-strings table, then the worksheet rows)
// instead of pulling in a spreadsheet library.
package melanoma

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// ReadSheet returns every row of the named worksheet as strings. Shared-string
// and inline-string cells are resolved; numeric cells keep their stored text.
// Rows are padded on the right so ragged trailing cells never shift columns.
func ReadSheet(workbookPath, sheetName string) ([][]string, error) {
	b, err := os.ReadFile(workbookPath)
	if err != nil {
		return nil, fmt.Errorf("read workbook: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	sheets := workbookSheets(zipPart(zr, "xl/workbook.xml"))
	rels := workbookRels(zipPart(zr, "xl/_rels/workbook.xml.rels"))

	var target string
	for _, s := range sheets {
		if strings.EqualFold(s.name, sheetName) {
			if rel, ok := rels[s.rid]; ok {
				target = sheetPartPath(rel)
			}
			break
		}
	}
	if target == "" {
		names := make([]string, len(sheets))
		for i, s := range sheets {
			names[i] = s.name
		}
		return nil, fmt.Errorf("sheet %q not found in %s (available: %s)",
			sheetName, path.Base(workbookPath), strings.Join(names, ", "))
	}

	shared := sharedStrings(zipPart(zr, "xl/sharedStrings.xml"))
	rr := newRowReader(zipPart(zr, target), shared)

	var rows [][]string
	width := 0
	for {
		row, ok := rr.next()
		if !ok {
			break
		}
		if len(row) > width {
			width = len(row)
		}
		rows = append(rows, row)
	}
	for i, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		}
	}
	return rows, nil
}

type sheetEntry struct {
	name string
	rid  string
}

func workbookSheets(data []byte) []sheetEntry {
	var sheets []sheetEntry
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return sheets
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var s sheetEntry
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.name = a.Value
			case "id": // r:id
				s.rid = a.Value
			}
		}
		sheets = append(sheets, s)
	}
}

func workbookRels(data []byte) map[string]string {
	out := map[string]string{}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, rel string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				rel = a.Value
			}
		}
		if id != "" && rel != "" {
			out[id] = rel
		}
	}
}

// sheetPartPath converts a relationship target to the ZIP entry path.
// Targets may be absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func sheetPartPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}

func zipPart(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil
		}
		defer rc.Close()
		b, _ := io.ReadAll(rc)
		return b
	}
	return nil
}

func sharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "si":
				buf.Reset()
			case "t":
				inText = true
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inText = false
			case "si":
				out = append(out, buf.String())
			}
		case xml.CharData:
			if inText {
				buf.Write(se)
			}
		}
	}
}

// rowReader streams <row> elements from a worksheet part one at a time.
type rowReader struct {
	dec    *xml.Decoder
	shared []string
	cur    []string
	width  int
}

func newRowReader(data []byte, shared []string) *rowReader {
	return &rowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

func (r *rowReader) next() ([]string, bool) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "row":
				r.cur = nil
				r.width = 0
			case "c":
				var ref, typ string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "r":
						ref = a.Value
					case "t":
						typ = a.Value
					}
				}
				col := columnIndex(ref)
				if col < 0 {
					// No cell reference: treat as the next position.
					col = len(r.cur)
				}
				if col+1 > r.width {
					r.width = col + 1
				}
				val := r.cellValue(typ)
				if len(r.cur) <= col {
					grown := make([]string, col+1)
					copy(grown, r.cur)
					r.cur = grown
				}
				r.cur[col] = val
			}
		case xml.EndElement:
			if se.Name.Local == "row" {
				if len(r.cur) < r.width {
					grown := make([]string, r.width)
					copy(grown, r.cur)
					r.cur = grown
				}
				return r.cur, true
			}
		}
	}
}

// cellValue consumes tokens to the end of the current cell, capturing the
// <v> (value) or <is><t> (inline string) text. Shared-string cells ("t=s")
// hold an index into the shared-strings table.
func (r *rowReader) cellValue(typ string) string {
	var val string
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return val
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "v" || se.Name.Local == "t" {
				var sb strings.Builder
				for {
					inner, err := r.dec.Token()
					if err != nil {
						break
					}
					if end, ok := inner.(xml.EndElement); ok && (end.Name.Local == "v" || end.Name.Local == "t") {
						break
					}
					if ch, ok := inner.(xml.CharData); ok {
						sb.Write(ch)
					}
				}
				val = sb.String()
			}
		case xml.EndElement:
			if se.Name.Local == "c" {
				if typ == "s" {
					if val == "" {
						return ""
					}
					idx := parseDigits(val)
					if idx >= 0 && idx < len(r.shared) {
						return r.shared[idx]
					}
					return ""
				}
				return val
			}
		}
	}
}

// columnIndex converts the letter prefix of a cell reference ("C12") to a
// 0-based column index.
func columnIndex(ref string) int {
	i := 0
	for i < len(ref) && (ref[i]|0x20) >= 'a' && (ref[i]|0x20) <= 'z' {
		i++
	}
	idx := 0
	for _, c := range strings.ToUpper(ref[:i]) {
		idx = idx*26 + int(c-'A'+1)
	}
	return idx - 1
}

func parseDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			break
		}
		n = n*10 + int(s[i]-'0')
	}
	return n
}
