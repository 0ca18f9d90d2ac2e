// Package profile describes the expected shape of a CSV file: its columns,
// their types and the constraints a later column-level pass may enforce.
//
// Profiles are declarative JSON documents. This package only loads and
// structurally checks them; it never looks at CSV data.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrUnknownProfile is returned when a named profile is not registered.
var ErrUnknownProfile = errors.New("unknown profile")

// ColumnType is the declared data type of a column.
type ColumnType string

const (
	TypeString  ColumnType = "string"
	TypeInteger ColumnType = "integer"
	TypeDecimal ColumnType = "decimal"
	TypeBoolean ColumnType = "boolean"
	TypeEnum    ColumnType = "enum"
)

// Profile is a named set of column definitions.
type Profile struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description,omitempty"`
	Columns     []Column `json:"columns" validate:"required,min=1,dive"`
}

// Column defines one expected column.
type Column struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description,omitempty"`
	Ordinal     int        `json:"ordinal" validate:"gte=1"`
	Type        ColumnType `json:"type" validate:"required,oneof=string integer decimal boolean enum"`
	Values      []string   `json:"values,omitempty"`
	Min         int64      `json:"min"`
	Max         int64      `json:"max"`
	Required    bool       `json:"required"`
	AllowEmpty  bool       `json:"allowEmpty"`
	Format      string     `json:"format,omitempty"`
	Pattern     string     `json:"pattern,omitempty" validate:"omitempty,regex_pattern"`
}

// UnmarshalJSON applies the full int64 range to min/max when they are omitted.
func (c *Column) UnmarshalJSON(b []byte) error {
	type plain Column
	v := plain{Min: math.MinInt64, Max: math.MaxInt64}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*c = Column(v)
	return nil
}

// ColumnNames returns the column names ordered by ordinal.
func (p *Profile) ColumnNames() []string {
	cols := append([]Column(nil), p.Columns...)
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Ordinal < cols[j].Ordinal })

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// Column returns the column with the given name.
func (p *Profile) Column(name string) (Column, bool) {
	for _, c := range p.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Summary is the listing form of a profile.
type Summary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Columns     int    `json:"columns"`
}

// Summarize returns the listing form of p.
func (p *Profile) Summarize() Summary {
	return Summary{Name: p.Name, Description: p.Description, Columns: len(p.Columns)}
}

// String implements fmt.Stringer.
func (p *Profile) String() string {
	return fmt.Sprintf("%s (%d columns)", p.Name, len(p.Columns))
}
