package pipeline

import (
	"time"

	"orderpulse/pkg/models"
)

// QualityReport is the post-pipeline validation result: residual nulls in
// the required derived fields, plus the raw values that refused to parse.
// It is informational, never an error; callers decide whether the dataset
// is fit for reporting.
type QualityReport struct {
	TotalRecords      int
	NullCleanDate     int
	NullDuration      int
	NullSLAFlag       int
	NullPeakFlag      int
	MisspelledTraffic int // rows carrying the preserved "Unkown" sentinel
	Failures          []ParseFailure
}

// Clean reports whether every record passed the data-quality gate.
func (q QualityReport) Clean() bool {
	return q.NullCleanDate == 0 && q.NullDuration == 0 &&
		q.NullSLAFlag == 0 && q.NullPeakFlag == 0
}

// CheckQuality validates a dataset after (or without) a pipeline run. For
// each residual null it re-attempts the parse of the raw value so the
// report can say why the field is still unset, which lets 'validate' run
// standalone against an already-cleaned table.
func CheckQuality(orders []*models.Order) QualityReport {
	report := QualityReport{TotalRecords: len(orders)}

	for _, o := range orders {
		if o.CleanOrderDate == nil {
			report.NullCleanDate++
			if _, err := time.Parse(DateLayout, o.OrderDate); err != nil {
				report.Failures = append(report.Failures, ParseFailure{
					OrderID: o.OrderID, Field: "order_date", RawValue: o.OrderDate,
					Reason: "does not match DD-MM-YYYY",
				})
			}
		}
		if o.DeliveryDuration == nil {
			report.NullDuration++
			if _, failure := parseDuration(o.OrderID, o.TimeTakenRaw); failure != nil {
				report.Failures = append(report.Failures, *failure)
			}
		}
		if o.SLABreachFlag == nil {
			report.NullSLAFlag++
		}
		if o.PeakHourFlag == nil {
			report.NullPeakFlag++
			if _, err := hourOf(o.TimeOrdered); err != nil {
				report.Failures = append(report.Failures, ParseFailure{
					OrderID: o.OrderID, Field: "time_ordered", RawValue: o.TimeOrdered,
					Reason: "not a valid time of day",
				})
			}
		}
		if o.RoadTrafficDensity != nil && *o.RoadTrafficDensity == TrafficSentinel {
			report.MisspelledTraffic++
		}
	}

	return report
}
