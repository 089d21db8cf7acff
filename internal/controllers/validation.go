package controllers

import (
	"fmt"
	"strings"

	"github.com/gookit/validate"

	"tracer/internal/models"
)

type seriesNameForm struct {
	Name string `validate:"required|uniqueSeries"`
}

// validateSeriesName checks that name is non-empty and not used by any other
// series, ignoring case. exceptID is the series being renamed, 0 on create.
func validateSeriesName(name string, existing []models.DataSeries, exceptID int64) error {
	form := &seriesNameForm{Name: strings.TrimSpace(name)}
	v := validate.Struct(form)
	v.AddValidator("uniqueSeries", func(val interface{}) bool {
		s, _ := val.(string)
		for _, other := range existing {
			if other.ID != exceptID && strings.EqualFold(other.Name, s) {
				return false
			}
		}
		return true
	})
	v.AddMessages(map[string]string{
		"required":     "series name must not be empty",
		"uniqueSeries": "a series with this name already exists",
	})
	if !v.Validate() {
		return fmt.Errorf("%w: %s", ErrValidation, v.Errors.One())
	}
	return nil
}
