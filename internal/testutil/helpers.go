package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"orderpulse/pkg/models"
)

// NewMockDB returns a sqlmock-backed database handle that is closed when the
// test finishes.
func NewMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db, mock
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 { return &f }

// IntPtr returns a pointer to i.
func IntPtr(i int) *int { return &i }

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool { return &b }

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time { return &t }

// RawOrder builds an uncleaned order with the usual well-formed raw fields.
// Tests override individual fields to introduce the malformation under test.
func RawOrder(id string) *models.Order {
	return &models.Order{
		OrderID:               id,
		OrderDate:             "15-03-2023",
		TimeOrdered:           "13:30:00",
		TimeTakenRaw:          "(min) 25",
		DeliveryPersonID:      "COURIER_1",
		City:                  "Metropolitan",
		DeliveryPersonAge:     FloatPtr(29),
		DeliveryPersonRatings: FloatPtr(4.5),
		WeatherConditions:     StrPtr("Sunny"),
		RoadTrafficDensity:    StrPtr("Low"),
		Festival:              StrPtr("No"),
	}
}
