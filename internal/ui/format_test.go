package ui

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestColorFuncPassesTextThrough(t *testing.T) {
	// Colored or not, the original text must survive
	for _, fn := range []func(string) string{
		ColorSuccess, ColorError, ColorWarning, ColorInfo, ColorProgress, ColorBold, ColorDim,
	} {
		assert.Contains(t, fn("hello"), "hello")
	}
}

func TestGetSuggestion(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{message: "Authentication failed for user", want: "orderpulse setup"},
		{message: "dial tcp: connection refused", want: "network connectivity"},
		{message: "Dataset contains 2 duplicate order ids", want: "Deduplicate"},
		{message: "Table DELIVERY_ORDERS does not exist", want: "orders table"},
		{message: "something else entirely", want: ""},
	}

	for _, tt := range tests {
		suggestion := getSuggestion(tt.message)
		if tt.want == "" {
			assert.Empty(t, suggestion)
		} else {
			assert.Contains(t, suggestion, tt.want)
		}
	}
}

func TestShowErrorDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		ShowError(fmt.Errorf("line one\nline two"))
	})
}

func TestSpinnerStartStop(t *testing.T) {
	spinner := NewSpinner("working")
	spinner.Start()
	spinner.UpdateMessage("still working")
	time.Sleep(150 * time.Millisecond)
	assert.NotPanics(t, func() {
		spinner.Stop(true, "done")
	})
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "2.5s", FormatDuration(2500*time.Millisecond))
	assert.Equal(t, "1m30s", FormatDuration(90*time.Second))
}
