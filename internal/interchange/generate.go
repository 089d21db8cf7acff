package interchange

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"time"

	"tracer/internal/models"
)

const (
	MinFrequency = 0.1
	MaxFrequency = 10.0
)

var (
	moods     = []string{"Happy", "Sad", "Excited", "Angry", "Relaxed"}
	exercises = []string{"Running", "Cycling", "Swimming", "Yoga", "Weightlifting"}
)

// presets draw one value from a random source returning [0, 1).
var presets = map[string]func(random func() float64) models.Value{
	"weight": func(random func() float64) models.Value {
		return models.NumberValue(math.Round((random()*20+60)*10) / 10)
	},
	"sales": func(random func() float64) models.Value {
		return models.NumberValue(math.Floor(random()*500 + 100))
	},
	"expenses": func(random func() float64) models.Value {
		return models.NumberValue(math.Floor(random()*200 + 50))
	},
	"mood": func(random func() float64) models.Value {
		return models.TextValue(moods[int(random()*float64(len(moods)))])
	},
	"exercise": func(random func() float64) models.Value {
		return models.TextValue(exercises[int(random()*float64(len(exercises)))])
	},
}

func Presets() []string {
	out := make([]string, 0, len(presets))
	for name := range presets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type GenerateRequest struct {
	Preset    string
	From      time.Time
	To        time.Time
	Frequency float64
}

// Generate produces round(days*frequency) points of the preset series, evenly
// spaced from From. The series name is the preset name.
func Generate(req GenerateRequest, random func() float64) ([]models.NewDataPoint, error) {
	draw, ok := presets[req.Preset]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q", req.Preset)
	}
	if req.From.IsZero() || req.To.IsZero() {
		return nil, errors.New("a date range is required")
	}
	if !req.To.After(req.From) {
		return nil, errors.New("range end must be after its start")
	}
	if req.Frequency < MinFrequency || req.Frequency > MaxFrequency {
		return nil, fmt.Errorf("frequency must be between %v and %v per day", MinFrequency, MaxFrequency)
	}
	if random == nil {
		random = rand.Float64
	}

	const day = float64(24 * time.Hour / time.Millisecond)
	start := req.From.UnixMilli()
	days := float64(req.To.UnixMilli()-start) / day
	total := int(math.Round(days * req.Frequency))
	step := day / req.Frequency

	out := make([]models.NewDataPoint, 0, total)
	for i := 0; i < total; i++ {
		out = append(out, models.NewDataPoint{
			Series:    req.Preset,
			Value:     draw(random),
			Timestamp: start + int64(float64(i)*step),
		})
	}
	return out, nil
}
