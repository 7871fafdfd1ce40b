// Package report computes the fixed operational KPI reports over the
// cleaned order dataset: per-group order counts, mean delivery duration,
// and SLA breach rate.
package report

import (
	"math"
	"sort"

	"orderpulse/pkg/models"
)

// Supported report names, as accepted by the CLI.
const (
	NameGlobal  = "global"
	NameCity    = "city"
	NamePeak    = "peak"
	NameDaily   = "daily"
	NameTraffic = "traffic"
	NameWeather = "weather"
	NameCourier = "courier"
)

// Names lists every supported report.
func Names() []string {
	return []string{NameGlobal, NameCity, NamePeak, NameDaily, NameTraffic, NameWeather, NameCourier}
}

// Row is one aggregate result line: a group key with its order count, mean
// delivery duration (2 dp) and SLA breach percentage (2 dp, 0 for an empty
// group).
type Row struct {
	Group       string
	Orders      int
	AvgDuration float64
	BreachPct   float64
}

// Global aggregates the whole dataset into a single ungrouped row.
func Global(records []models.AnalyticsRecord) Row {
	return aggregate("all", records)
}

// ByCity groups by city, worst breach rate first.
func ByCity(records []models.AnalyticsRecord) []Row {
	return byBreachRate(records, func(r models.AnalyticsRecord) string { return r.City })
}

// ByPeak splits the dataset into the peak and off-peak order windows,
// worst breach rate first.
func ByPeak(records []models.AnalyticsRecord) []Row {
	return byBreachRate(records, func(r models.AnalyticsRecord) string {
		if r.PeakHourFlag {
			return "peak"
		}
		return "off-peak"
	})
}

// ByDate groups by calendar order date, ascending by date.
func ByDate(records []models.AnalyticsRecord) []Row {
	rows := groupBy(records, func(r models.AnalyticsRecord) string {
		return r.OrderDate.Format("2006-01-02")
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].Group < rows[j].Group })
	return rows
}

// ByTraffic groups by road traffic density, worst breach rate first.
func ByTraffic(records []models.AnalyticsRecord) []Row {
	return byBreachRate(records, func(r models.AnalyticsRecord) string { return r.RoadTrafficDensity })
}

// ByWeather groups by weather condition, worst breach rate first.
func ByWeather(records []models.AnalyticsRecord) []Row {
	return byBreachRate(records, func(r models.AnalyticsRecord) string { return r.WeatherConditions })
}

// ByCourier groups the cleaned record set by delivery person, restricted to
// couriers with at least minOrders orders, slowest average first. It reads
// the full records rather than the projection because the projection does
// not carry courier identity.
func ByCourier(orders []*models.Order, minOrders int) []Row {
	groups := make(map[string][]models.AnalyticsRecord)
	for _, o := range orders {
		// Standard aggregate-null-skip: rows without a parsed duration
		// cannot contribute to count or average
		if o.DeliveryPersonID == "" || o.DeliveryDuration == nil || o.SLABreachFlag == nil {
			continue
		}
		groups[o.DeliveryPersonID] = append(groups[o.DeliveryPersonID], models.AnalyticsRecord{
			DeliveryDuration: *o.DeliveryDuration,
			SLABreachFlag:    *o.SLABreachFlag,
		})
	}

	var rows []Row
	for courier, records := range groups {
		if len(records) < minOrders {
			continue
		}
		rows = append(rows, aggregate(courier, records))
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].AvgDuration != rows[j].AvgDuration {
			return rows[i].AvgDuration > rows[j].AvgDuration
		}
		return rows[i].Group < rows[j].Group
	})
	return rows
}

// aggregate computes one row over a set of records. An empty group yields
// zeroed aggregates rather than dividing by zero.
func aggregate(group string, records []models.AnalyticsRecord) Row {
	row := Row{Group: group, Orders: len(records)}
	if len(records) == 0 {
		return row
	}

	var durationSum, breaches int
	for _, r := range records {
		durationSum += r.DeliveryDuration
		if r.SLABreachFlag {
			breaches++
		}
	}

	row.AvgDuration = roundTo2(float64(durationSum) / float64(len(records)))
	row.BreachPct = roundTo2(100 * float64(breaches) / float64(len(records)))
	return row
}

// groupBy buckets records by key, skipping empty keys per aggregate-null
// semantics.
func groupBy(records []models.AnalyticsRecord, key func(models.AnalyticsRecord) string) []Row {
	groups := make(map[string][]models.AnalyticsRecord)
	for _, r := range records {
		k := key(r)
		if k == "" {
			continue
		}
		groups[k] = append(groups[k], r)
	}

	rows := make([]Row, 0, len(groups))
	for k, group := range groups {
		rows = append(rows, aggregate(k, group))
	}
	return rows
}

// byBreachRate groups and sorts descending by breach percentage, then by
// group key for a stable presentation.
func byBreachRate(records []models.AnalyticsRecord, key func(models.AnalyticsRecord) string) []Row {
	rows := groupBy(records, key)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].BreachPct != rows[j].BreachPct {
			return rows[i].BreachPct > rows[j].BreachPct
		}
		return rows[i].Group < rows[j].Group
	})
	return rows
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
