package interchange

import (
	"testing"
	"time"

	"tracer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(v float64) func() float64 {
	return func() float64 { return v }
}

func TestGenerate_CountAndSpacing(t *testing.T) {
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	points, err := Generate(GenerateRequest{Preset: "sales", From: from, To: from.AddDate(0, 0, 10), Frequency: 2}, fixed(0.5))
	require.NoError(t, err)
	require.Len(t, points, 20)

	assert.Equal(t, from.UnixMilli(), points[0].Timestamp)
	assert.Equal(t, from.Add(12*time.Hour).UnixMilli(), points[1].Timestamp)
	for _, p := range points {
		assert.Equal(t, "sales", p.Series)
		assert.True(t, p.Value.Equal(models.NumberValue(350)))
	}
}

func TestGenerate_Presets(t *testing.T) {
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	req := GenerateRequest{From: from, To: from.AddDate(0, 0, 1), Frequency: 1}

	cases := map[string]models.Value{
		"weight":   models.NumberValue(74.7),
		"sales":    models.NumberValue(468),
		"expenses": models.NumberValue(197),
		"mood":     models.TextValue("Angry"),
		"exercise": models.TextValue("Yoga"),
	}
	for preset, want := range cases {
		req.Preset = preset
		points, err := Generate(req, fixed(0.7371))
		require.NoError(t, err, preset)
		require.Len(t, points, 1, preset)
		assert.True(t, want.Equal(points[0].Value), "%s: got %s", preset, points[0].Value)
	}
	assert.Equal(t, []string{"exercise", "expenses", "mood", "sales", "weight"}, Presets())
}

func TestGenerate_Validation(t *testing.T) {
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := Generate(GenerateRequest{Preset: "steps", From: from, To: from.AddDate(0, 0, 1), Frequency: 1}, nil)
	assert.Error(t, err)
	_, err = Generate(GenerateRequest{Preset: "mood", From: from, Frequency: 1}, nil)
	assert.Error(t, err)
	_, err = Generate(GenerateRequest{Preset: "mood", From: from, To: from, Frequency: 1}, nil)
	assert.Error(t, err)
	_, err = Generate(GenerateRequest{Preset: "mood", From: from, To: from.AddDate(0, 0, 1), Frequency: 11}, nil)
	assert.Error(t, err)
}

func TestGenerate_FractionalFrequency(t *testing.T) {
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	points, err := Generate(GenerateRequest{Preset: "mood", From: from, To: from.AddDate(0, 0, 30), Frequency: 0.5}, nil)
	require.NoError(t, err)
	require.Len(t, points, 15)
	assert.Equal(t, from.AddDate(0, 0, 2).UnixMilli(), points[1].Timestamp)
}
