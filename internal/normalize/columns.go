package normalize

import (
	"strings"

	"github.com/jgoulah/ecowatts/pkg/models"
)

// ColumnMap maps canonical fields to the column names used by a particular input.
// Optional fields may be left empty.
type ColumnMap struct {
	Timestamp string `yaml:"timestamp" default:"Timestamp" validate:"required"`
	Usage     string `yaml:"usage" default:"Usage_kWh" validate:"required"`
	Appliance string `yaml:"appliance,omitempty" default:"Appliance"`
	Room      string `yaml:"room,omitempty" default:"Room"`
	Cost      string `yaml:"cost,omitempty" default:"Cost"`
}

// DefaultColumns matches the headers of the standard meter export
func DefaultColumns() ColumnMap {
	return ColumnMap{
		Timestamp: "Timestamp",
		Usage:     "Usage_kWh",
		Appliance: "Appliance",
		Room:      "Room",
		Cost:      "Cost",
	}
}

// IdentityColumns matches the headers written by FromTable
func IdentityColumns() ColumnMap {
	return ColumnMap{
		Timestamp: string(models.FieldTimestamp),
		Usage:     string(models.FieldUsage),
		Appliance: string(models.FieldAppliance),
		Room:      string(models.FieldRoom),
		Cost:      string(models.FieldCost),
	}
}

// Column returns the configured column name for a field
func (m ColumnMap) Column(f models.Field) string {
	switch f {
	case models.FieldTimestamp:
		return m.Timestamp
	case models.FieldUsage:
		return m.Usage
	case models.FieldAppliance:
		return m.Appliance
	case models.FieldRoom:
		return m.Room
	case models.FieldCost:
		return m.Cost
	}
	return ""
}

var allFields = []models.Field{
	models.FieldTimestamp,
	models.FieldUsage,
	models.FieldAppliance,
	models.FieldRoom,
	models.FieldCost,
}

// foldName trims and case-folds a header for comparison
func foldName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// resolve finds the header index of every mapped field. Required fields that cannot
// be found produce a SchemaError; optional ones are simply left out.
func (m ColumnMap) resolve(header []string) (map[models.Field]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := foldName(h)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	out := make(map[models.Field]int, len(allFields))
	for _, f := range allFields {
		name := foldName(m.Column(f))
		i, ok := index[name]
		if name == "" || !ok {
			if f.Required() {
				return nil, models.MissingColumn(f)
			}
			continue
		}
		out[f] = i
	}
	return out, nil
}
