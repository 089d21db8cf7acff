package interchange

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"tracer/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport(t *testing.T) {
	ts := time.Date(2024, 6, 15, 9, 30, 0, 250*int(time.Millisecond), time.UTC).UnixMilli()
	points := []models.DataPoint{
		{ID: 1, Series: "Weight", Value: models.NumberValue(70.5), Timestamp: ts},
		{ID: 2, Series: "Notes, misc", Value: models.TextValue(`said "hi"`), Timestamp: ts},
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, points))

	want := "Series,Value,Timestamp\n" +
		"Weight,70.5,2024-06-15T09:30:00.250Z\n" +
		"\"Notes, misc\",\"said \"\"hi\"\"\",2024-06-15T09:30:00.250Z\n"
	assert.Equal(t, want, buf.String())
}

func TestImport_SkipsHeaderAndBlankLines(t *testing.T) {
	in := "Series,Value,Timestamp\n\nWeight,70.5,2024-06-15T09:30:00.250Z\nMood,Happy,2024-06-15T10:00:00Z\n"
	points, err := Import(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "Weight", points[0].Series)
	assert.True(t, points[0].Value.Equal(models.NumberValue(70.5)))
	assert.Equal(t, time.Date(2024, 6, 15, 9, 30, 0, 250*int(time.Millisecond), time.UTC).UnixMilli(), points[0].Timestamp)
	assert.True(t, points[1].Value.Equal(models.TextValue("Happy")))
}

func TestImport_WithoutHeader(t *testing.T) {
	points, err := Import(strings.NewReader("Steps,1000,1718443800000\n"))
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, int64(1718443800000), points[0].Timestamp)
}

func TestImport_RoundTrip(t *testing.T) {
	points := []models.DataPoint{
		{Series: "A", Value: models.NumberValue(-3.25), Timestamp: 1718443800123},
		{Series: "B", Value: models.TextValue("x,y"), Timestamp: 1718443800999},
	}
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, points))

	got, err := Import(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i, p := range points {
		assert.Equal(t, p.Series, got[i].Series)
		assert.True(t, p.Value.Equal(got[i].Value))
		assert.Equal(t, p.Timestamp, got[i].Timestamp)
	}
}

func TestImport_MalformedRows(t *testing.T) {
	cases := map[string]int{
		"Series,Value,Timestamp\nA,1,2024-01-01T00:00:00Z\n,2,2024-01-01T00:00:00Z\n": 3,
		"A,1\n": 1,
		"Series,Value,Timestamp\nA,1,yesterday\n": 2,
		"A,1,\n": 1,
	}
	for in, row := range cases {
		_, err := Import(strings.NewReader(in))
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrMalformedRow), in)
		var rowErr *RowError
		require.True(t, errors.As(err, &rowErr), in)
		assert.Equal(t, row, rowErr.Row, in)
	}
}

func TestParseTimestamp(t *testing.T) {
	ms, err := ParseTimestamp("2024-06-15T09:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 15, 7, 30, 0, 0, time.UTC).UnixMilli(), ms)

	_, err = ParseTimestamp("-5")
	assert.Error(t, err)
}
