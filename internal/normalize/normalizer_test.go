package normalize

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/ecowatts/pkg/models"
)

func sampleRaw() RawTable {
	raw := RawTable{Header: []string{"Timestamp", "Usage_kWh", "Appliance", "Room", "Cost"}}
	for i := 0; i < 9; i++ {
		raw.Rows = append(raw.Rows, []string{
			fmt.Sprintf("2023-01-0%d 1%d:30:00", i+1, i),
			fmt.Sprintf("%d.5", i),
			"Fridge",
			"Kitchen",
			"0.25",
		})
	}
	raw.Rows = append(raw.Rows[:4], append([][]string{{"yesterday", "1.0", "AC", "Bedroom", ""}}, raw.Rows[4:]...)...)
	return raw
}

func TestNormalize_DropsUnparseableTimestamp(t *testing.T) {
	table, diag, err := New("").Normalize(sampleRaw(), DefaultColumns())
	require.NoError(t, err)

	assert.Equal(t, 9, table.Len())
	assert.Equal(t, models.Diagnostics{models.ReasonUnparseableTimestamp: 1}, diag)
	assert.Equal(t, 1, diag.Total())
}

func TestNormalize_PreservesInputOrder(t *testing.T) {
	table, _, err := New("").Normalize(sampleRaw(), DefaultColumns())
	require.NoError(t, err)

	for i := 1; i < table.Len(); i++ {
		assert.True(t, table.At(i-1).Timestamp.Before(table.At(i).Timestamp))
	}
	assert.Equal(t, 0.5, table.At(0).Usage)
	assert.Equal(t, 8.5, table.At(8).Usage)
}

func TestNormalize_DerivedFields(t *testing.T) {
	raw := RawTable{
		Header: []string{"Timestamp", "Usage_kWh"},
		Rows:   [][]string{{"2023-03-12 23:59:59", "1"}},
	}
	table, _, err := New("").Normalize(raw, DefaultColumns())
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	rec := table.At(0)
	assert.Equal(t, time.Date(2023, 3, 12, 0, 0, 0, 0, time.UTC), rec.Date)
	assert.Equal(t, 23, rec.Hour)
}

func TestNormalize_HeaderResolution(t *testing.T) {
	tests := []struct {
		name   string
		header []string
	}{
		{name: "exact", header: []string{"Timestamp", "Usage_kWh"}},
		{name: "whitespace", header: []string{"  Timestamp ", "\tUsage_kWh"}},
		{name: "case", header: []string{"TIMESTAMP", "usage_kwh"}},
		{name: "reordered", header: []string{"usage_kwh", "extra", "timestamp"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := make([]string, len(tt.header))
			for i, h := range tt.header {
				switch foldName(h) {
				case "timestamp":
					row[i] = "2023-01-01 00:00:00"
				case "usage_kwh":
					row[i] = "2.5"
				}
			}
			table, diag, err := New("").Normalize(RawTable{Header: tt.header, Rows: [][]string{row}}, DefaultColumns())
			require.NoError(t, err)
			assert.Equal(t, 0, diag.Total())
			require.Equal(t, 1, table.Len())
			assert.Equal(t, 2.5, table.At(0).Usage)
		})
	}
}

func TestNormalize_MissingRequiredColumn(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		field  models.Field
	}{
		{name: "no timestamp", header: []string{"Date", "Usage_kWh"}, field: models.FieldTimestamp},
		{name: "no usage", header: []string{"Timestamp", "kWh"}, field: models.FieldUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := New("").Normalize(RawTable{Header: tt.header}, DefaultColumns())
			require.Error(t, err)

			var schemaErr *models.SchemaError
			require.True(t, errors.As(err, &schemaErr))
			assert.Equal(t, models.ReasonMissingColumn, schemaErr.Reason)
			assert.Equal(t, tt.field, schemaErr.Field)
			assert.ErrorIs(t, err, models.ErrMissingColumn)
		})
	}
}

func TestNormalize_OptionalColumnsAbsent(t *testing.T) {
	raw := RawTable{
		Header: []string{"Timestamp", "Usage_kWh"},
		Rows:   [][]string{{"2023-01-01 10:00:00", "3"}},
	}
	table, _, err := New("").Normalize(raw, DefaultColumns())
	require.NoError(t, err)

	assert.False(t, table.HasField(models.FieldAppliance))
	assert.False(t, table.HasField(models.FieldRoom))
	assert.False(t, table.HasField(models.FieldCost))
	assert.Equal(t, []models.Field{models.FieldTimestamp, models.FieldUsage}, table.Fields())
}

func TestNormalize_RejectsInvalidValues(t *testing.T) {
	raw := RawTable{
		Header: []string{"Timestamp", "Usage_kWh", "Cost"},
		Rows: [][]string{
			{"2023-01-01 10:00:00", "-1", ""},
			{"2023-01-01 10:00:00", "abc", ""},
			{"2023-01-01 10:00:00", "", ""},
			{"2023-01-01 10:00:00", "NaN", ""},
			{"2023-01-01 10:00:00", "1", "-0.5"},
			{"2023-01-01 10:00:00", "1", "free"},
			{"01/01/2023 10:00", "1", ""},
			{"2023-01-01 10:00:00"},
			{"2023-01-01 10:00:00", " 0 ", ""},
		},
	}
	table, diag, err := New("").Normalize(raw, DefaultColumns())
	require.NoError(t, err)

	assert.Equal(t, 1, table.Len())
	assert.Equal(t, 0.0, table.At(0).Usage)
	assert.Equal(t, models.Diagnostics{
		models.ReasonInvalidUsage:         5,
		models.ReasonInvalidCost:          2,
		models.ReasonUnparseableTimestamp: 1,
	}, diag)
	assert.Equal(t, []string{
		models.ReasonInvalidCost,
		models.ReasonInvalidUsage,
		models.ReasonUnparseableTimestamp,
	}, diag.Reasons())
}

func TestNormalize_MissingCategoriesStayEmpty(t *testing.T) {
	raw := RawTable{
		Header: []string{"Timestamp", "Usage_kWh", "Appliance", "Room", "Cost"},
		Rows: [][]string{
			{"2023-01-01 10:00:00", "1", "  ", "", ""},
			{"2023-01-01 11:00:00", "2", " AC ", "Bedroom", "0.3"},
		},
	}
	table, _, err := New("").Normalize(raw, DefaultColumns())
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	_, ok := table.At(0).Category(models.FieldAppliance)
	assert.False(t, ok)
	assert.False(t, table.At(0).HasCost)

	name, ok := table.At(1).Category(models.FieldAppliance)
	assert.True(t, ok)
	assert.Equal(t, "AC", name)
	assert.True(t, table.At(1).HasCost)
	assert.Equal(t, 0.3, table.At(1).Cost)
}

func TestNormalize_InvalidCostRejectsWholeReading(t *testing.T) {
	raw := RawTable{
		Header: []string{"Timestamp", "Usage_kWh", "Cost"},
		Rows: [][]string{
			{"2023-01-01 10:00:00", "1", "0.2"},
			{"2023-01-01 11:00:00", "5", "n/a"},
			{"2023-01-01 12:00:00", "2", ""},
		},
	}
	table, diag, err := New("").Normalize(raw, DefaultColumns())
	require.NoError(t, err)

	require.Equal(t, 2, table.Len())
	var usage float64
	table.Each(func(_ int, r models.Record) { usage += r.Usage })
	assert.Equal(t, 3.0, usage)
	assert.Equal(t, models.Diagnostics{models.ReasonInvalidCost: 1}, diag)
	assert.False(t, table.At(1).HasCost)
}

func TestNormalize_CustomLayout(t *testing.T) {
	raw := RawTable{
		Header: []string{"when", "kwh"},
		Rows:   [][]string{{"2023-01-01T10:00:00Z", "1"}, {"2023-01-01 10:00:00", "1"}},
	}
	n := New(time.RFC3339)
	table, diag, err := n.Normalize(raw, ColumnMap{Timestamp: "When", Usage: "KWH"})
	require.NoError(t, err)

	assert.Equal(t, time.RFC3339, n.Layout())
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, 1, diag[models.ReasonUnparseableTimestamp])
}

func TestNormalize_IdempotentUnderIdentityColumns(t *testing.T) {
	n := New("")
	table, _, err := n.Normalize(sampleRaw(), DefaultColumns())
	require.NoError(t, err)

	again, diag, err := n.Normalize(FromTable(table, n.Layout()), IdentityColumns())
	require.NoError(t, err)

	assert.Equal(t, 0, diag.Total())
	assert.Equal(t, table.Records(), again.Records())
	assert.Equal(t, table.Fields(), again.Fields())
}

func TestTable_RecordsIsACopy(t *testing.T) {
	table, _, err := New("").Normalize(sampleRaw(), DefaultColumns())
	require.NoError(t, err)

	recs := table.Records()
	recs[0].Usage = 999
	assert.NotEqual(t, 999.0, table.At(0).Usage)
}
