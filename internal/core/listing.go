package core

import (
	"fmt"
	"strings"

	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/model"
)

// Page sizes of the list screens.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Page is one slice of a filtered list. Page is 1-based.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// Paginate cuts items into pages of size. A page past the end yields no
// items; page and size below 1 fall back to the first page and the default
// size.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	out := Page[T]{
		Items:      []T{},
		Total:      len(items),
		Page:       page,
		PageSize:   size,
		TotalPages: (len(items) + size - 1) / size,
	}
	from := (page - 1) * size
	if from >= len(items) {
		return out
	}
	to := from + size
	if to > len(items) {
		to = len(items)
	}
	out.Items = items[from:to]
	return out
}

// SearchCountries keeps the countries whose name contains term, ignoring
// case.
func SearchCountries(countries []model.Country, term string) []model.Country {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return countries
	}
	out := make([]model.Country, 0, len(countries))
	for _, c := range countries {
		if strings.Contains(strings.ToLower(c.Name), term) {
			out = append(out, c)
		}
	}
	return out
}

// RecordNames resolves the region and disease labels a record search
// matches against.
type RecordNames struct {
	Regions  map[int]string
	Diseases map[int]string
}

func (n RecordNames) region(id int) string {
	if name, ok := n.Regions[id]; ok {
		return name
	}
	return fmt.Sprintf("Region #%d", id)
}

func (n RecordNames) disease(id int) string {
	if name, ok := n.Diseases[id]; ok {
		return name
	}
	return fmt.Sprintf("Disease #%d", id)
}

// SearchRecords keeps the records of diseaseID (0 means any) whose region or
// disease name contains term, ignoring case.
func SearchRecords(records []model.Record, diseaseID int, term string, names RecordNames) []model.Record {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if diseaseID > 0 && r.DiseaseID != diseaseID {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(names.region(r.RegionID)), term) &&
			!strings.Contains(strings.ToLower(names.disease(r.DiseaseID)), term) {
			continue
		}
		out = append(out, r)
	}
	return out
}
