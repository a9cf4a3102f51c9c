// Package export renders flat records as comma separated documents.
package export

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Write emits one header row and one row per record. Header labels are quoted
// only when they need it; string cells are always quoted with embedded quotes
// doubled; other cells are written verbatim.
func Write(w io.Writer, headers []string, rows [][]any) error {
	bw := bufio.NewWriter(w)

	labels := make([]string, len(headers))
	for i, h := range headers {
		labels[i] = h
		if strings.ContainsAny(h, "\",\r\n") {
			labels[i] = quote(h)
		}
	}
	if _, err := bw.WriteString(strings.Join(labels, ",") + "\r\n"); err != nil {
		return err
	}

	for i, row := range rows {
		if len(row) != len(headers) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(headers))
		}
		if err := writeRow(bw, row); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Document is Write into a string.
func Document(headers []string, rows [][]any) (string, error) {
	var buf bytes.Buffer
	if err := Write(&buf, headers, rows); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Filename builds "<name>_YYYY-MM-DD.csv".
func Filename(name string, at time.Time) string {
	return fmt.Sprintf("%s_%s.csv", name, at.Format("2006-01-02"))
}

func writeRow(w *bufio.Writer, cells []any) error {
	for i, cell := range cells {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(formatCell(cell)); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}

func formatCell(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return quote(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.Format(time.RFC3339)
	case fmt.Stringer:
		return quote(v.String())
	default:
		return fmt.Sprint(v)
	}
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
