package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderpulse/internal/testutil"
	"orderpulse/pkg/models"
)

func cleanedOrder(id string) *models.Order {
	o := testutil.RawOrder(id)
	o.CleanOrderDate = testutil.TimePtr(time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC))
	o.DeliveryDuration = testutil.IntPtr(25)
	o.SLABreachFlag = testutil.BoolPtr(false)
	o.PeakHourFlag = testutil.BoolPtr(false)
	return o
}

func TestCheckQualityCleanDataset(t *testing.T) {
	orders := []*models.Order{cleanedOrder("O1"), cleanedOrder("O2")}

	report := CheckQuality(orders)

	assert.Equal(t, 2, report.TotalRecords)
	assert.True(t, report.Clean())
	assert.Empty(t, report.Failures)
}

func TestCheckQualityCountsResidualNulls(t *testing.T) {
	good := cleanedOrder("O1")

	noDate := cleanedOrder("O2")
	noDate.CleanOrderDate = nil
	noDate.OrderDate = "bad-date"

	noDuration := cleanedOrder("O3")
	noDuration.DeliveryDuration = nil
	noDuration.SLABreachFlag = nil

	report := CheckQuality([]*models.Order{good, noDate, noDuration})

	assert.False(t, report.Clean())
	assert.Equal(t, 1, report.NullCleanDate)
	assert.Equal(t, 1, report.NullDuration)
	assert.Equal(t, 1, report.NullSLAFlag)
	assert.Zero(t, report.NullPeakFlag)

	// The unparseable date is reported with its raw value
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "O2", report.Failures[0].OrderID)
	assert.Equal(t, "bad-date", report.Failures[0].RawValue)
}

func TestCheckQualityExplainsDurationAndTimeFailures(t *testing.T) {
	badDuration := cleanedOrder("O1")
	badDuration.DeliveryDuration = nil
	badDuration.TimeTakenRaw = "25 min"

	badTime := cleanedOrder("O2")
	badTime.PeakHourFlag = nil
	badTime.TimeOrdered = "quarter past nine"

	report := CheckQuality([]*models.Order{badDuration, badTime})

	require.Len(t, report.Failures, 2)

	assert.Equal(t, "O1", report.Failures[0].OrderID)
	assert.Equal(t, "time_taken_min", report.Failures[0].Field)
	assert.Equal(t, "25 min", report.Failures[0].RawValue)

	assert.Equal(t, "O2", report.Failures[1].OrderID)
	assert.Equal(t, "time_ordered", report.Failures[1].Field)
	assert.Equal(t, "quarter past nine", report.Failures[1].RawValue)
}

func TestCheckQualityCountsMisspelledTrafficSentinel(t *testing.T) {
	imputed := cleanedOrder("O1")
	imputed.RoadTrafficDensity = testutil.StrPtr(TrafficSentinel)

	genuine := cleanedOrder("O2")
	genuine.RoadTrafficDensity = testutil.StrPtr("Jam")

	report := CheckQuality([]*models.Order{imputed, genuine})

	assert.Equal(t, 1, report.MisspelledTraffic)
	// The sentinel is a data-quality quirk, not a gate failure
	assert.True(t, report.Clean())
}

func TestCheckQualityEmptyDataset(t *testing.T) {
	report := CheckQuality(nil)

	assert.Zero(t, report.TotalRecords)
	assert.True(t, report.Clean())
}
