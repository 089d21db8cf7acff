// Package interchange reads and writes the three-column CSV exchange format
// (Series,Value,Timestamp) and generates sample data.
package interchange

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cast"

	"tracer/internal/models"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

var Header = []string{"Series", "Value", "Timestamp"}

var ErrMalformedRow = errors.New("malformed row")

// RowError points at the first row an import could not read. Row counts
// from 1 and includes the header.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

func FormatTimestamp(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(TimestampLayout)
}

// Export writes a header and one row per point, in the given order.
func Export(w io.Writer, points []models.DataPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, p := range points {
		if err := cw.Write([]string{p.Series, p.Value.String(), FormatTimestamp(p.Timestamp)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Import reads rows positionally. A leading header row is skipped and blank
// lines are ignored. Values that read as numbers become numeric.
func Import(r io.Reader) ([]models.NewDataPoint, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	out := make([]models.NewDataPoint, 0)
	row := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			return nil, &RowError{Row: row, Err: fmt.Errorf("%w: %v", ErrMalformedRow, err)}
		}
		if row == 1 && isHeader(record) {
			continue
		}
		p, err := parseRecord(record)
		if err != nil {
			return nil, &RowError{Row: row, Err: err}
		}
		out = append(out, p)
	}
	return out, nil
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), Header[0])
}

func parseRecord(record []string) (models.NewDataPoint, error) {
	if len(record) < 3 {
		return models.NewDataPoint{}, fmt.Errorf("%w: want 3 columns, got %d", ErrMalformedRow, len(record))
	}
	series := strings.TrimSpace(record[0])
	if series == "" {
		return models.NewDataPoint{}, fmt.Errorf("%w: empty series", ErrMalformedRow)
	}
	ts, err := ParseTimestamp(record[2])
	if err != nil {
		return models.NewDataPoint{}, fmt.Errorf("%w: %v", ErrMalformedRow, err)
	}
	return models.NewDataPoint{Series: series, Value: models.ParseValue(record[1]), Timestamp: ts}, nil
}

// ParseTimestamp accepts RFC 3339 (with or without fractional seconds) or
// epoch milliseconds.
func ParseTimestamp(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UnixMilli(), nil
	}
	ms, err := cast.ToInt64E(s)
	if err != nil || ms <= 0 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	return ms, nil
}
