package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"
)

type SeriesType string

const (
	SeriesNumeric SeriesType = "numeric"
	SeriesText    SeriesType = "text"
)

func (t SeriesType) Valid() bool {
	return t == SeriesNumeric || t == SeriesText
}

func ParseSeriesType(s string) (SeriesType, error) {
	switch t := SeriesType(strings.ToLower(strings.TrimSpace(s))); t {
	case "", SeriesNumeric, SeriesText:
		return t, nil
	default:
		return "", fmt.Errorf("unknown series type %q", s)
	}
}

// Value is a recorded measurement: either a number or a text string.
type Value struct {
	num    float64
	text   string
	isText bool
}

func NumberValue(f float64) Value {
	return Value{num: f}
}

func TextValue(s string) Value {
	return Value{text: s, isText: true}
}

// ParseValue turns user input into a Value. Input that reads as a finite
// number becomes numeric, everything else is kept as text.
func ParseValue(s string) Value {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return TextValue(s)
	}
	f, err := cast.ToFloat64E(trimmed)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return TextValue(s)
	}
	return NumberValue(f)
}

func (v Value) Kind() SeriesType {
	if v.isText {
		return SeriesText
	}
	return SeriesNumeric
}

func (v Value) IsNumeric() bool { return !v.isText }

// Float returns the numeric value, or 0 for text values.
func (v Value) Float() float64 {
	if v.isText {
		return 0
	}
	return v.num
}

func (v Value) String() string {
	if v.isText {
		return v.text
	}
	return strconv.FormatFloat(v.num, 'f', -1, 64)
}

func (v Value) Equal(other Value) bool {
	if v.isText != other.isText {
		return false
	}
	if v.isText {
		return v.text == other.text
	}
	return v.num == other.num
}

// Key identifies the value inside a set; numeric 1 and text "1" differ.
func (v Value) Key() string {
	return string(v.Kind()) + ":" + v.String()
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.isText {
		return json.Marshal(v.text)
	}
	return json.Marshal(v.num)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case float64:
		*v = NumberValue(t)
	case string:
		*v = TextValue(t)
	default:
		return fmt.Errorf("value must be a number or a string, got %s", string(data))
	}
	return nil
}
