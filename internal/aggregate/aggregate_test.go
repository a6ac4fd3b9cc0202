package aggregate

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/ecowatts/pkg/models"
)

func record(ts string, usage float64, appliance, room string) models.Record {
	t, err := time.Parse("2006-01-02 15:04", ts)
	if err != nil {
		panic(err)
	}
	return models.NewRecord(models.Reading{Timestamp: t, Usage: usage, Appliance: appliance, Room: room})
}

func withCost(r models.Record, cost float64) models.Record {
	r.Cost = cost
	r.HasCost = true
	return r
}

func fullTable(records ...models.Record) *models.Table {
	return models.NewTable(records, models.FieldAppliance, models.FieldRoom, models.FieldCost)
}

func TestAggregate_RankAppliances(t *testing.T) {
	table := fullTable(
		record("2023-01-01 08:00", 5.0, "Fridge", "Kitchen"),
		record("2023-01-01 09:00", 3.0, "Fridge", "Kitchen"),
		record("2023-01-01 10:00", 20.0, "AC", "Bedroom"),
	)

	s, err := Aggregate(table, Request{Key: ByAppliance, Reducer: Sum, Order: DescendingByValue})
	require.NoError(t, err)

	assert.Equal(t, []Point{
		{Key: "AC", Value: 20.0, Count: 1},
		{Key: "Fridge", Value: 8.0, Count: 2},
	}, s.Points())

	top, ok := s.Top()
	require.True(t, ok)
	assert.Equal(t, "AC", top.Key)
}

func TestAggregate_NaturalOrder(t *testing.T) {
	table := fullTable(
		record("2023-01-03 23:00", 1, "TV", "Living"),
		record("2023-01-01 07:00", 2, "Fridge", "Kitchen"),
		record("2023-01-02 07:00", 3, "TV", "Living"),
		record("2023-01-01 23:00", 4, "Heater", "Bedroom"),
	)

	tests := []struct {
		name string
		key  Key
		want []Point
	}{
		{
			name: "date is chronological",
			key:  ByDate,
			want: []Point{
				{Key: "2023-01-01", Value: 6, Count: 2},
				{Key: "2023-01-02", Value: 3, Count: 1},
				{Key: "2023-01-03", Value: 1, Count: 1},
			},
		},
		{
			name: "hour is chronological",
			key:  ByHour,
			want: []Point{
				{Key: "07", Value: 5, Count: 2},
				{Key: "23", Value: 5, Count: 2},
			},
		},
		{
			name: "appliance is first seen",
			key:  ByAppliance,
			want: []Point{
				{Key: "TV", Value: 4, Count: 2},
				{Key: "Fridge", Value: 2, Count: 1},
				{Key: "Heater", Value: 4, Count: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Aggregate(table, Request{Key: tt.key})
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Points())
			assert.Equal(t, tt.key, s.Key())
		})
	}
}

func TestAggregate_TiesKeepFirstSeenOrder(t *testing.T) {
	table := fullTable(
		record("2023-01-01 08:00", 4, "Lamp", ""),
		record("2023-01-01 09:00", 9, "Oven", ""),
		record("2023-01-01 10:00", 4, "Kettle", ""),
		record("2023-01-01 11:00", 4, "Fan", ""),
	)

	s, err := Aggregate(table, Request{Key: ByAppliance, Order: DescendingByValue})
	require.NoError(t, err)

	var keys []string
	for _, p := range s.Points() {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"Oven", "Lamp", "Kettle", "Fan"}, keys)
}

func TestAggregate_MissingCategoryIsExcluded(t *testing.T) {
	table := fullTable(
		record("2023-01-01 08:00", 5, "Fridge", ""),
		record("2023-01-01 09:00", 100, "", "Kitchen"),
		record("2023-01-01 10:00", 1, "Fridge", "Kitchen"),
	)

	byAppliance, err := Aggregate(table, Request{Key: ByAppliance})
	require.NoError(t, err)
	assert.Equal(t, []Point{{Key: "Fridge", Value: 6, Count: 2}}, byAppliance.Points())
	_, ok := byAppliance.Value("Unknown")
	assert.False(t, ok)
	_, ok = byAppliance.Value("")
	assert.False(t, ok)

	byRoom, err := Aggregate(table, Request{Key: ByRoom})
	require.NoError(t, err)
	assert.Equal(t, []Point{{Key: "Kitchen", Value: 101, Count: 2}}, byRoom.Points())
}

func TestAggregate_Mean(t *testing.T) {
	table := fullTable(
		record("2023-01-01 08:00", 1, "", ""),
		record("2023-01-02 08:00", 2, "", ""),
		record("2023-01-03 09:00", 6, "", ""),
	)

	s, err := Aggregate(table, Request{Key: ByHour, Reducer: Mean})
	require.NoError(t, err)

	v, ok := s.Value("08")
	require.True(t, ok)
	assert.InDelta(t, 1.5, v, 1e-12)
	v, ok = s.Value("09")
	require.True(t, ok)
	assert.InDelta(t, 6.0, v, 1e-12)
	assert.Equal(t, Mean, s.Reducer())
}

func TestAggregate_Cost(t *testing.T) {
	table := fullTable(
		withCost(record("2023-01-01 08:00", 1, "AC", ""), 0.5),
		record("2023-01-01 09:00", 1, "AC", ""),
		withCost(record("2023-01-01 10:00", 1, "Fridge", ""), 0.25),
	)

	s, err := Aggregate(table, Request{Key: ByAppliance, Measure: Cost})
	require.NoError(t, err)

	assert.Equal(t, []Point{
		{Key: "AC", Value: 0.5, Count: 1},
		{Key: "Fridge", Value: 0.25, Count: 1},
	}, s.Points())
	assert.InDelta(t, 0.75, s.Total(), 1e-12)
}

func TestAggregate_UnavailableColumn(t *testing.T) {
	table := models.NewTable([]models.Record{record("2023-01-01 08:00", 1, "", "")})

	tests := []struct {
		name  string
		req   Request
		field models.Field
	}{
		{name: "appliance", req: Request{Key: ByAppliance}, field: models.FieldAppliance},
		{name: "room", req: Request{Key: ByRoom}, field: models.FieldRoom},
		{name: "cost", req: Request{Key: ByDate, Measure: Cost}, field: models.FieldCost},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate(table, tt.req)
			var schemaErr *models.SchemaError
			require.True(t, errors.As(err, &schemaErr))
			assert.Equal(t, tt.field, schemaErr.Field)
		})
	}

	_, err := Aggregate(table, Request{Key: ByHour})
	assert.NoError(t, err)
}

func TestAggregate_Deterministic(t *testing.T) {
	var records []models.Record
	appliances := []string{"AC", "Fridge", "TV", "Heater", "Lamp"}
	for i := 0; i < 500; i++ {
		ts := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i*37) * time.Minute)
		records = append(records, models.NewRecord(models.Reading{
			Timestamp: ts,
			Usage:     float64(i%13) * 0.1,
			Appliance: appliances[i%len(appliances)],
		}))
	}
	table := fullTable(records...)

	for _, req := range []Request{
		{Key: ByDate},
		{Key: ByHour, Reducer: Mean},
		{Key: ByAppliance, Order: DescendingByValue},
	} {
		first, err := Aggregate(table, req)
		require.NoError(t, err)
		second, err := Aggregate(table, req)
		require.NoError(t, err)
		assert.Equal(t, first.Points(), second.Points())
	}
}

func TestAggregate_ConcurrentCallsOverOneTable(t *testing.T) {
	table := fullTable(
		record("2023-01-01 08:00", 5, "Fridge", "Kitchen"),
		record("2023-01-02 09:00", 3, "AC", "Bedroom"),
	)
	want, err := Aggregate(table, Request{Key: ByRoom})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Series, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Aggregate(table, Request{Key: ByRoom})
		}(i)
	}
	wg.Wait()

	for _, s := range results {
		assert.Equal(t, want.Points(), s.Points())
	}
}

func TestDaily(t *testing.T) {
	table := fullTable(
		record("2023-01-02 08:00", 2, "", ""),
		record("2023-01-01 08:00", 1, "", ""),
		record("2023-01-02 18:00", 2, "", ""),
	)

	s := Daily(table)
	dates, err := s.Dates()
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
	}, dates)
	assert.Equal(t, 4.0, s.At(1).Value)

	byHour, err := Aggregate(table, Request{Key: ByHour})
	require.NoError(t, err)
	_, err = byHour.Dates()
	assert.Error(t, err)
}

func TestNewDailySeries_RepeatedDateIsOneDay(t *testing.T) {
	jan1 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	jan2 := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)

	s, err := NewDailySeries([]time.Time{jan2, jan1, jan2}, []float64{1, 4, 2})
	require.NoError(t, err)
	assert.Equal(t, []Point{
		{Key: "2023-01-02", Value: 3, Count: 2},
		{Key: "2023-01-01", Value: 4, Count: 1},
	}, s.Points())

	_, err = NewDailySeries([]time.Time{jan1}, nil)
	assert.Error(t, err)
}

func TestDaily_EmptyTable(t *testing.T) {
	s := Daily(models.NewTable(nil))
	require.NotNil(t, s)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, ByDate, s.Key())
}

func TestParseHelpers(t *testing.T) {
	k, err := ParseKey("room")
	require.NoError(t, err)
	assert.Equal(t, ByRoom, k)
	_, err = ParseKey("week")
	assert.Error(t, err)

	r, err := ParseReducer("mean")
	require.NoError(t, err)
	assert.Equal(t, Mean, r)
	_, err = ParseReducer("median")
	assert.Error(t, err)

	m, err := ParseMeasure("cost")
	require.NoError(t, err)
	assert.Equal(t, Cost, m)
	_, err = ParseMeasure("co2")
	assert.Error(t, err)
}
