package models

type DataSeries struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Color       string     `json:"color"`
	Emoji       string     `json:"emoji,omitempty"`
	Unit        string     `json:"unit,omitempty"`
	Description string     `json:"description,omitempty"`
	Type        SeriesType `json:"type,omitempty"`
	CreatedAt   int64      `json:"createdAt"`
	UpdatedAt   int64      `json:"updatedAt"`
	DataAddedAt int64      `json:"dataAddedAt,omitempty"`
}

type NewSeries struct {
	Name        string     `json:"name"`
	Color       string     `json:"color"`
	Emoji       string     `json:"emoji,omitempty"`
	Unit        string     `json:"unit,omitempty"`
	Description string     `json:"description,omitempty"`
	Type        SeriesType `json:"type,omitempty"`
}

type SeriesPatch struct {
	Name        *string     `json:"name,omitempty"`
	Color       *string     `json:"color,omitempty"`
	Emoji       *string     `json:"emoji,omitempty"`
	Unit        *string     `json:"unit,omitempty"`
	Description *string     `json:"description,omitempty"`
	Type        *SeriesType `json:"type,omitempty"`
	DataAddedAt *int64      `json:"dataAddedAt,omitempty"`
}

// Renames reports whether applying the patch to s changes its name.
func (p SeriesPatch) Renames(s DataSeries) bool {
	return p.Name != nil && *p.Name != s.Name
}

func (p SeriesPatch) Apply(s *DataSeries) {
	if p.Name != nil {
		s.Name = *p.Name
	}
	if p.Color != nil {
		s.Color = *p.Color
	}
	if p.Emoji != nil {
		s.Emoji = *p.Emoji
	}
	if p.Unit != nil {
		s.Unit = *p.Unit
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Type != nil {
		s.Type = *p.Type
	}
	if p.DataAddedAt != nil {
		s.DataAddedAt = *p.DataAddedAt
	}
}
