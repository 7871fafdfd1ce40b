package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"orderpulse/pkg/errors"
	"orderpulse/pkg/models"
)

const (
	// DateLayout is the fixed day-month-year pattern of the raw order_date.
	DateLayout = "02-01-2006"

	// DurationPrefix is the literal prefix of the raw time_taken_min field.
	DurationPrefix = "(min) "

	// WeatherSentinel replaces missing weather conditions.
	WeatherSentinel = "Unknown"

	// TrafficSentinel replaces missing road traffic density. The source
	// system ships this misspelling and downstream reports group on it, so
	// it is preserved verbatim. See DESIGN.md.
	TrafficSentinel = "Unkown"

	// FestivalSentinel replaces a missing festival marker.
	FestivalSentinel = "No"
)

// Rules are the business thresholds the flag derivations read. They default
// to the fixed SLA and peak-hour window but stay injectable so tests can
// vary them.
type Rules struct {
	SLABreachMinutes int
	PeakStartHour    int
	PeakEndHour      int
}

// DefaultRules returns the production thresholds.
func DefaultRules() Rules {
	return Rules{
		SLABreachMinutes: 40,
		PeakStartHour:    19,
		PeakEndHour:      21,
	}
}

// ParseFailure records a raw value that did not match its expected pattern.
// The row keeps a null derived field and the failure surfaces in the
// data-quality report.
type ParseFailure struct {
	OrderID  string
	Field    string
	RawValue string
	Reason   string
}

func (f ParseFailure) String() string {
	return fmt.Sprintf("order %s: %s %q (%s)", f.OrderID, f.Field, f.RawValue, f.Reason)
}

// normalizeDates parses the raw day-month-year text into CleanOrderDate.
// Rows already converted are left untouched, which makes re-runs safe.
func normalizeDates(orders []*models.Order) (converted int, failures []ParseFailure) {
	for _, o := range orders {
		if o.CleanOrderDate != nil {
			continue
		}
		if o.OrderDate == "" {
			failures = append(failures, ParseFailure{
				OrderID: o.OrderID, Field: "order_date", RawValue: "", Reason: "missing value",
			})
			continue
		}

		parsed, err := time.Parse(DateLayout, o.OrderDate)
		if err != nil {
			failures = append(failures, ParseFailure{
				OrderID: o.OrderID, Field: "order_date", RawValue: o.OrderDate,
				Reason: "does not match DD-MM-YYYY",
			})
			continue
		}

		d := parsed
		o.CleanOrderDate = &d
		converted++
	}
	return converted, failures
}

// extractDurations strips the fixed "(min) " prefix from time_taken_min and
// parses the remainder as a non-negative integer number of minutes.
// Negative or non-numeric remainders are rejected, never coerced.
func extractDurations(orders []*models.Order) (converted int, failures []ParseFailure) {
	for _, o := range orders {
		if o.DeliveryDuration != nil {
			continue
		}

		minutes, failure := parseDuration(o.OrderID, o.TimeTakenRaw)
		if failure != nil {
			failures = append(failures, *failure)
			continue
		}

		m := minutes
		o.DeliveryDuration = &m
		converted++
	}
	return converted, failures
}

// parseDuration validates one raw time_taken_min value and returns the
// minutes, or the failure explaining why the field cannot be derived.
func parseDuration(orderID, raw string) (int, *ParseFailure) {
	if !strings.HasPrefix(raw, DurationPrefix) {
		return 0, &ParseFailure{
			OrderID: orderID, Field: "time_taken_min", RawValue: raw,
			Reason: fmt.Sprintf("missing %q prefix", strings.TrimSpace(DurationPrefix)),
		}
	}

	remainder := strings.TrimSpace(strings.TrimPrefix(raw, DurationPrefix))
	minutes, err := strconv.Atoi(remainder)
	if err != nil {
		return 0, &ParseFailure{
			OrderID: orderID, Field: "time_taken_min", RawValue: raw,
			Reason: "remainder is not an integer",
		}
	}
	if minutes < 0 {
		return 0, &ParseFailure{
			OrderID: orderID, Field: "time_taken_min", RawValue: raw,
			Reason: "negative duration",
		}
	}
	return minutes, nil
}

// ImputedValues reports what the numeric imputation wrote, for the run
// summary.
type ImputedValues struct {
	Age        float64
	AgeRows    int
	Rating     float64
	RatingRows int
}

// imputeNumeric fills null ages and ratings with the rounded mean of the
// values known at the start of the pass. Two-pass by construction: the means
// come from a snapshot taken before any assignment, so imputed rows never
// feed each other's mean.
func imputeNumeric(orders []*models.Order) ImputedValues {
	var (
		ageSum, ratingSum     float64
		ageCount, ratingCount int
	)
	for _, o := range orders {
		if o.DeliveryPersonAge != nil {
			ageSum += *o.DeliveryPersonAge
			ageCount++
		}
		if o.DeliveryPersonRatings != nil {
			ratingSum += *o.DeliveryPersonRatings
			ratingCount++
		}
	}

	var result ImputedValues
	if ageCount > 0 {
		result.Age = math.Round(ageSum / float64(ageCount))
	}
	if ratingCount > 0 {
		result.Rating = roundTo2(ratingSum / float64(ratingCount))
	}

	for _, o := range orders {
		if o.DeliveryPersonAge == nil && ageCount > 0 {
			v := result.Age
			o.DeliveryPersonAge = &v
			result.AgeRows++
		}
		if o.DeliveryPersonRatings == nil && ratingCount > 0 {
			v := result.Rating
			o.DeliveryPersonRatings = &v
			result.RatingRows++
		}
	}

	return result
}

// imputeCategorical replaces null categorical fields with their sentinel
// literals.
func imputeCategorical(orders []*models.Order) (weather, traffic, festival int) {
	for _, o := range orders {
		if o.WeatherConditions == nil {
			v := WeatherSentinel
			o.WeatherConditions = &v
			weather++
		}
		if o.RoadTrafficDensity == nil {
			v := TrafficSentinel
			o.RoadTrafficDensity = &v
			traffic++
		}
		if o.Festival == nil {
			v := FestivalSentinel
			o.Festival = &v
			festival++
		}
	}
	return weather, traffic, festival
}

// deriveFlags computes the SLA-breach and peak-hour flags. It runs after
// duration extraction since the SLA flag reads the parsed duration; rows
// whose duration never parsed keep a null flag.
func deriveFlags(orders []*models.Order, rules Rules) (slaSet, peakSet int, failures []ParseFailure) {
	for _, o := range orders {
		if o.SLABreachFlag == nil && o.DeliveryDuration != nil {
			breached := *o.DeliveryDuration > rules.SLABreachMinutes
			o.SLABreachFlag = &breached
			slaSet++
		}

		if o.PeakHourFlag == nil {
			hour, err := hourOf(o.TimeOrdered)
			if err != nil {
				failures = append(failures, ParseFailure{
					OrderID: o.OrderID, Field: "time_ordered", RawValue: o.TimeOrdered,
					Reason: "not a valid time of day",
				})
				continue
			}
			peak := hour >= rules.PeakStartHour && hour <= rules.PeakEndHour
			o.PeakHourFlag = &peak
			peakSet++
		}
	}
	return slaSet, peakSet, failures
}

// hourOf extracts the hour component from an HH:MM:SS or HH:MM time of day.
func hourOf(timeOrdered string) (int, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, timeOrdered); err == nil {
			return t.Hour(), nil
		}
	}
	return 0, errors.New(errors.ErrCodeTimeParse, fmt.Sprintf("invalid time of day %q", timeOrdered))
}

// roundTo2 rounds to 2 decimal places.
func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
