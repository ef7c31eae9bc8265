package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
	"golang.org/x/text/width"

	"github.com/ha1tch/sqlp/sqlpruntime"
)

type outputFormat int

const (
	formatAuto outputFormat = iota
	formatTable
	formatTSV
)

func parseFormat(name string) (outputFormat, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return formatAuto, nil
	case "table":
		return formatTable, nil
	case "tsv":
		return formatTSV, nil
	}
	return formatAuto, fmt.Errorf("unknown format %q (valid: table, tsv, auto)", name)
}

// resolve picks the aligned table for terminals and TSV for pipes and
// files.
func (f outputFormat) resolve(w io.Writer) outputFormat {
	if f != formatAuto {
		return f
	}
	if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		return formatTable
	}
	return formatTSV
}

func renderResult(w io.Writer, rs *sqlpruntime.ResultSet, f outputFormat) error {
	if f.resolve(w) == formatTable {
		return renderTable(w, rs)
	}
	return renderTSV(w, rs)
}

func renderTable(w io.Writer, rs *sqlpruntime.ResultSet) error {
	cells := make([][]string, len(rs.Rows))
	widths := make([]int, len(rs.Columns))
	for i, c := range rs.Columns {
		widths[i] = displayWidth(c)
	}
	for r, row := range rs.Rows {
		cells[r] = make([]string, len(rs.Columns))
		for i := range rs.Columns {
			if i < len(row) {
				cells[r][i] = formatScalar(row[i])
			}
			if n := displayWidth(cells[r][i]); n > widths[i] {
				widths[i] = n
			}
		}
	}

	rule := make([]string, len(widths))
	for i, n := range widths {
		rule[i] = strings.Repeat("-", n)
	}

	lines := [][]string{rs.Columns, rule}
	lines = append(lines, cells...)
	for _, line := range lines {
		var sb strings.Builder
		for i, cell := range line {
			if i > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(padRight(cell, widths[i]))
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(sb.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}

var tsvEscaper = strings.NewReplacer("\\", "\\\\", "\t", "\\t", "\n", "\\n", "\r", "\\r")

func renderTSV(w io.Writer, rs *sqlpruntime.ResultSet) error {
	write := func(fields []string) error {
		for i, f := range fields {
			fields[i] = tsvEscaper.Replace(f)
		}
		_, err := fmt.Fprintln(w, strings.Join(fields, "\t"))
		return err
	}

	if err := write(append([]string(nil), rs.Columns...)); err != nil {
		return err
	}
	for _, row := range rs.Rows {
		fields := make([]string, len(row))
		for i, v := range row {
			fields[i] = formatScalar(v)
		}
		if err := write(fields); err != nil {
			return err
		}
	}
	return nil
}

func formatScalar(v interface{}) string {
	if v == nil {
		return "NULL"
	}
	switch val := v.(type) {
	case time.Time:
		return val.Format(time.RFC3339)
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// displayWidth counts terminal columns: wide and fullwidth East Asian
// characters take two.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

func padRight(s string, n int) string {
	if w := displayWidth(s); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}
