package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Allocation outcomes
const (
	OutcomeAllocated = "allocated"
	OutcomeOverflow  = "overflow"
	OutcomeFailed    = "failed"
)

// MetricsError reports a failure to build a metrics set.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewFiscalMetrics", Err: "meter cannot be nil"}

// FiscalMetrics records sequence allocation and catalog resolution activity.
// Channel identifiers are never used as attributes.
type FiscalMetrics struct {
	allocations        *Counter
	allocationDuration *Histogram
	counterOverrides   *Counter
	catalogLookups     *Counter
	optionListings     *Counter
}

// NewFiscalMetrics creates the instruments on meter.
func NewFiscalMetrics(meter metric.Meter) (*FiscalMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	fm := &FiscalMetrics{}
	var err error

	fm.allocations, err = NewCounter(meter,
		"fiscal_sequence_allocations_total",
		"Sequence allocation attempts by document type and outcome",
		"{allocations}")
	if err != nil {
		return nil, err
	}

	fm.allocationDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "fiscal_sequence_allocation_duration_seconds",
		Description: "Latency of the atomic sequence allocation",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	fm.counterOverrides, err = NewCounter(meter,
		"fiscal_counter_overrides_total",
		"Document type counters overwritten by administrators",
		"{counters}")
	if err != nil {
		return nil, err
	}

	fm.catalogLookups, err = NewCounter(meter,
		"fiscal_catalog_lookups_total",
		"Classification lookups by resolving source",
		"{lookups}")
	if err != nil {
		return nil, err
	}

	fm.optionListings, err = NewCounter(meter,
		"fiscal_catalog_option_listings_total",
		"Option list requests by field and histogram cache result",
		"{requests}")
	if err != nil {
		return nil, err
	}

	return fm, nil
}

// RecordAllocation counts one allocation attempt and its latency
func (m *FiscalMetrics) RecordAllocation(ctx context.Context, documentType, outcome string, d time.Duration) {
	m.allocations.Inc(ctx, AttrDocumentType.String(documentType), AttrOutcome.String(outcome))
	if outcome == OutcomeAllocated {
		m.allocationDuration.RecordDuration(ctx, d, AttrDocumentType.String(documentType))
	}
}

// RecordCounterOverride counts the counters changed by one SetCounters call
func (m *FiscalMetrics) RecordCounterOverride(ctx context.Context, changed int) {
	if changed > 0 {
		m.counterOverrides.Add(ctx, int64(changed))
	}
}

// RecordLookup counts a classification lookup; source is override,
// reference or miss
func (m *FiscalMetrics) RecordLookup(ctx context.Context, source string) {
	m.catalogLookups.Inc(ctx, AttrSource.String(source))
}

// RecordOptionListing counts an option list request
func (m *FiscalMetrics) RecordOptionListing(ctx context.Context, field string, cacheHit bool) {
	result := "miss"
	if cacheHit {
		result = "hit"
	}
	m.optionListings.Inc(ctx, AttrField.String(field), AttrCacheResult.String(result))
}
