package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderpulse/internal/testutil"
	"orderpulse/pkg/models"
)

func TestNormalizeDates(t *testing.T) {
	good := testutil.RawOrder("O1")
	good.OrderDate = "01-02-2023"
	bad := testutil.RawOrder("O2")
	bad.OrderDate = "bad-date"
	alsoGood := testutil.RawOrder("O3")
	alsoGood.OrderDate = "15-03-2023"

	orders := []*models.Order{good, bad, alsoGood}

	converted, failures := normalizeDates(orders)

	assert.Equal(t, 2, converted)
	require.Len(t, failures, 1)
	assert.Equal(t, "O2", failures[0].OrderID)
	assert.Equal(t, "bad-date", failures[0].RawValue)

	require.NotNil(t, good.CleanOrderDate)
	assert.Equal(t, time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC), *good.CleanOrderDate)
	assert.Nil(t, bad.CleanOrderDate)
	require.NotNil(t, alsoGood.CleanOrderDate)
	assert.Equal(t, time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC), *alsoGood.CleanOrderDate)
}

func TestNormalizeDatesIsIdempotent(t *testing.T) {
	order := testutil.RawOrder("O1")
	order.OrderDate = "01-02-2023"
	orders := []*models.Order{order}

	converted, _ := normalizeDates(orders)
	assert.Equal(t, 1, converted)
	first := *order.CleanOrderDate

	// Mutate the raw text; a second run must not re-derive from it
	order.OrderDate = "09-09-2024"
	converted, failures := normalizeDates(orders)
	assert.Zero(t, converted)
	assert.Empty(t, failures)
	assert.Equal(t, first, *order.CleanOrderDate)
}

func TestNormalizeDatesMissingValue(t *testing.T) {
	order := testutil.RawOrder("O1")
	order.OrderDate = ""

	converted, failures := normalizeDates([]*models.Order{order})

	assert.Zero(t, converted)
	require.Len(t, failures, 1)
	assert.Equal(t, "missing value", failures[0].Reason)
}

func TestExtractDurations(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		want     *int
		failWith string
	}{
		{name: "valid", raw: "(min) 25", want: testutil.IntPtr(25)},
		{name: "valid zero", raw: "(min) 0", want: testutil.IntPtr(0)},
		{name: "missing prefix", raw: "25", failWith: "missing \"(min)\" prefix"},
		{name: "non numeric remainder", raw: "(min) abc", failWith: "remainder is not an integer"},
		{name: "negative", raw: "(min) -5", failWith: "negative duration"},
		{name: "empty", raw: "", failWith: "missing \"(min)\" prefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := testutil.RawOrder("O1")
			order.TimeTakenRaw = tt.raw

			converted, failures := extractDurations([]*models.Order{order})

			if tt.want != nil {
				assert.Equal(t, 1, converted)
				require.NotNil(t, order.DeliveryDuration)
				assert.Equal(t, *tt.want, *order.DeliveryDuration)
				assert.Empty(t, failures)
			} else {
				assert.Zero(t, converted)
				assert.Nil(t, order.DeliveryDuration)
				require.Len(t, failures, 1)
				assert.Equal(t, tt.failWith, failures[0].Reason)
			}
		})
	}
}

func TestExtractDurationsIsIdempotent(t *testing.T) {
	order := testutil.RawOrder("O1")
	order.TimeTakenRaw = "(min) 25"
	orders := []*models.Order{order}

	extractDurations(orders)
	require.NotNil(t, order.DeliveryDuration)

	order.TimeTakenRaw = "(min) 99"
	converted, _ := extractDurations(orders)
	assert.Zero(t, converted)
	assert.Equal(t, 25, *order.DeliveryDuration)
}

func TestImputeNumericUsesSnapshotMean(t *testing.T) {
	withAge := func(id string, age float64) *models.Order {
		o := testutil.RawOrder(id)
		o.DeliveryPersonAge = testutil.FloatPtr(age)
		return o
	}
	missing := func(id string) *models.Order {
		o := testutil.RawOrder(id)
		o.DeliveryPersonAge = nil
		return o
	}

	// Known ages 20 and 30; two null rows. Mean of the snapshot is 25; had
	// the first imputed row fed the second row's mean, the second would get
	// a different value.
	orders := []*models.Order{withAge("O1", 20), missing("O2"), withAge("O3", 30), missing("O4")}

	imputed := imputeNumeric(orders)

	assert.Equal(t, 25.0, imputed.Age)
	assert.Equal(t, 2, imputed.AgeRows)
	assert.Equal(t, 25.0, *orders[1].DeliveryPersonAge)
	assert.Equal(t, 25.0, *orders[3].DeliveryPersonAge)
	// Known values are never touched
	assert.Equal(t, 20.0, *orders[0].DeliveryPersonAge)
}

func TestImputeNumericRounding(t *testing.T) {
	age := func(id string, v float64) *models.Order {
		o := testutil.RawOrder(id)
		o.DeliveryPersonAge = testutil.FloatPtr(v)
		o.DeliveryPersonRatings = nil
		return o
	}

	// Ages 20, 25 and one null: mean 22.5 rounds to 23 (nearest integer)
	orders := []*models.Order{age("O1", 20), age("O2", 25), {OrderID: "O3"}}
	imputed := imputeNumeric(orders)
	assert.Equal(t, 23.0, imputed.Age)

	// Ratings round to 2 decimal places
	r1 := testutil.RawOrder("R1")
	r1.DeliveryPersonRatings = testutil.FloatPtr(4.0)
	r2 := testutil.RawOrder("R2")
	r2.DeliveryPersonRatings = testutil.FloatPtr(4.7)
	r3 := testutil.RawOrder("R3")
	r3.DeliveryPersonRatings = testutil.FloatPtr(4.7)
	blank := &models.Order{OrderID: "R4"}

	imputed = imputeNumeric([]*models.Order{r1, r2, r3, blank})
	assert.Equal(t, 4.47, imputed.Rating) // 13.4/3 = 4.4666... -> 4.47
	assert.Equal(t, 4.47, *blank.DeliveryPersonRatings)
}

func TestImputeNumericAllNull(t *testing.T) {
	orders := []*models.Order{{OrderID: "O1"}, {OrderID: "O2"}}

	imputed := imputeNumeric(orders)

	// Nothing to compute a mean from; rows stay null
	assert.Zero(t, imputed.AgeRows)
	assert.Zero(t, imputed.RatingRows)
	assert.Nil(t, orders[0].DeliveryPersonAge)
	assert.Nil(t, orders[1].DeliveryPersonRatings)
}

func TestImputeCategoricalSentinels(t *testing.T) {
	order := &models.Order{OrderID: "O1"}

	weather, traffic, festival := imputeCategorical([]*models.Order{order})

	assert.Equal(t, 1, weather)
	assert.Equal(t, 1, traffic)
	assert.Equal(t, 1, festival)
	assert.Equal(t, "Unknown", *order.WeatherConditions)
	// Misspelled sentinel preserved from the source system
	assert.Equal(t, "Unkown", *order.RoadTrafficDensity)
	assert.Equal(t, "No", *order.Festival)
}

func TestImputeCategoricalLeavesKnownValues(t *testing.T) {
	order := testutil.RawOrder("O1")

	weather, traffic, festival := imputeCategorical([]*models.Order{order})

	assert.Zero(t, weather)
	assert.Zero(t, traffic)
	assert.Zero(t, festival)
	assert.Equal(t, "Sunny", *order.WeatherConditions)
}

func TestDeriveFlagsSLA(t *testing.T) {
	tests := []struct {
		duration int
		breach   bool
	}{
		{duration: 39, breach: false},
		{duration: 40, breach: false}, // threshold itself is not a breach
		{duration: 41, breach: true},
		{duration: 0, breach: false},
	}

	for _, tt := range tests {
		order := testutil.RawOrder("O1")
		order.DeliveryDuration = testutil.IntPtr(tt.duration)

		deriveFlags([]*models.Order{order}, DefaultRules())

		require.NotNil(t, order.SLABreachFlag)
		assert.Equal(t, tt.breach, *order.SLABreachFlag, "duration %d", tt.duration)
	}
}

func TestDeriveFlagsSLASkipsNullDuration(t *testing.T) {
	order := testutil.RawOrder("O1")

	slaSet, _, _ := deriveFlags([]*models.Order{order}, DefaultRules())

	assert.Zero(t, slaSet)
	assert.Nil(t, order.SLABreachFlag)
}

func TestDeriveFlagsPeakWindow(t *testing.T) {
	tests := []struct {
		timeOrdered string
		peak        bool
	}{
		{timeOrdered: "18:59:00", peak: false},
		{timeOrdered: "19:00:00", peak: true},
		{timeOrdered: "20:30:00", peak: true},
		{timeOrdered: "21:59:59", peak: true}, // window is inclusive of hour 21
		{timeOrdered: "22:00:00", peak: false},
		{timeOrdered: "08:15", peak: false}, // HH:MM also accepted
	}

	for _, tt := range tests {
		order := testutil.RawOrder("O1")
		order.TimeOrdered = tt.timeOrdered
		order.DeliveryDuration = testutil.IntPtr(10)

		deriveFlags([]*models.Order{order}, DefaultRules())

		require.NotNil(t, order.PeakHourFlag, "time %s", tt.timeOrdered)
		assert.Equal(t, tt.peak, *order.PeakHourFlag, "time %s", tt.timeOrdered)
	}
}

func TestDeriveFlagsBadTimeOrdered(t *testing.T) {
	order := testutil.RawOrder("O1")
	order.TimeOrdered = "around lunch"
	order.DeliveryDuration = testutil.IntPtr(10)

	_, peakSet, failures := deriveFlags([]*models.Order{order}, DefaultRules())

	assert.Zero(t, peakSet)
	assert.Nil(t, order.PeakHourFlag)
	require.Len(t, failures, 1)
	assert.Equal(t, "time_ordered", failures[0].Field)
}

func TestDeriveFlagsCustomRules(t *testing.T) {
	rules := Rules{SLABreachMinutes: 30, PeakStartHour: 11, PeakEndHour: 13}

	order := testutil.RawOrder("O1")
	order.TimeOrdered = "12:00:00"
	order.DeliveryDuration = testutil.IntPtr(35)

	deriveFlags([]*models.Order{order}, rules)

	assert.True(t, *order.SLABreachFlag)
	assert.True(t, *order.PeakHourFlag)
}

func TestDeriveFlagsIsIdempotent(t *testing.T) {
	order := testutil.RawOrder("O1")
	order.TimeOrdered = "20:00:00"
	order.DeliveryDuration = testutil.IntPtr(45)
	orders := []*models.Order{order}

	deriveFlags(orders, DefaultRules())
	require.NotNil(t, order.SLABreachFlag)

	// Tighten the rules; already-derived flags must not change
	slaSet, peakSet, _ := deriveFlags(orders, Rules{SLABreachMinutes: 100, PeakStartHour: 1, PeakEndHour: 2})
	assert.Zero(t, slaSet)
	assert.Zero(t, peakSet)
	assert.True(t, *order.SLABreachFlag)
	assert.True(t, *order.PeakHourFlag)
}
