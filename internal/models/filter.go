package models

import (
	"encoding/json"
	"slices"
)

// Set is a set of allowed category values. A nil Set means the caller did
// not constrain the field; a non-nil empty Set allows nothing.
type Set map[string]struct{}

func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s Set) Contains(v string) bool {
	_, ok := s[v]
	return ok
}

// Values returns the members in sorted order.
func (s Set) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

func (s Set) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	return json.Marshal(s.Values())
}

func (s *Set) UnmarshalJSON(b []byte) error {
	var values []string
	if err := json.Unmarshal(b, &values); err != nil {
		return err
	}
	if values == nil {
		*s = nil
		return nil
	}
	*s = NewSet(values...)
	return nil
}

// FilterSelection holds the allowed values for each filterable field.
type FilterSelection struct {
	Branch       Set `json:"branch"`
	CustomerType Set `json:"customer_type"`
	City         Set `json:"city"`
	Gender       Set `json:"gender"`
	ProductLine  Set `json:"product_line"`
}

// Allows reports whether r passes every membership predicate.
func (f FilterSelection) Allows(r Record) bool {
	return f.Branch.Contains(r.Branch) &&
		f.CustomerType.Contains(r.CustomerType) &&
		f.City.Contains(r.City) &&
		f.Gender.Contains(r.Gender) &&
		f.ProductLine.Contains(r.ProductLine)
}

// FilterOptions lists the distinct values of each field in first-seen order.
type FilterOptions struct {
	Branch       []string `json:"branch"`
	CustomerType []string `json:"customer_type"`
	City         []string `json:"city"`
	Gender       []string `json:"gender"`
	ProductLine  []string `json:"product_line"`
}

// DashboardView is everything the page needs after one filter interaction.
type DashboardView struct {
	Dataset   *Dataset        `json:"dataset"`
	Options   FilterOptions   `json:"options"`
	Selection FilterSelection `json:"selection"`
	Summary   Summary         `json:"summary"`
	Records   []Record        `json:"records"`
}
