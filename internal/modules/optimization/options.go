package optimization

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// SensitivityModel maps a tenor to its per-unit risk sensitivity.
type SensitivityModel string

const (
	// SensitivityDuration scales exposure with tenor: k(t) = t.
	SensitivityDuration SensitivityModel = "duration"
	// SensitivityFlat treats every tenor as equally sensitive: k(t) = 1.
	SensitivityFlat SensitivityModel = "flat"
)

// PerUnit returns the exposure contributed by one unit of amount at tenor.
func (m SensitivityModel) PerUnit(tenor float64) float64 {
	if m == SensitivityFlat {
		return 1.0
	}
	return tenor
}

// SecondaryPolicy decides what happens when BEI01 or CS01 has no eligible tenor
// for a bucket whose DV01 group is satisfiable.
type SecondaryPolicy string

const (
	// SecondarySkip drops the group for that bucket and records a warning.
	SecondarySkip SecondaryPolicy = "skip"
	// SecondaryStrict fails the run with an UnsatisfiableBucketError.
	SecondaryStrict SecondaryPolicy = "strict"
)

// Defaults
const (
	DefaultEpsilon       = 1e-6
	DefaultDecimalPlaces = 2
	MaxDecimalPlaces     = 8
)

// Options tunes a run.
type Options struct {
	Epsilon         float64          `json:"epsilon"` // relative to the total amount
	DecimalPlaces   int32            `json:"decimal_places"`
	Sensitivity     SensitivityModel `json:"sensitivity"`
	SecondaryPolicy SecondaryPolicy  `json:"secondary_policy"`
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Epsilon:         DefaultEpsilon,
		DecimalPlaces:   DefaultDecimalPlaces,
		Sensitivity:     SensitivityDuration,
		SecondaryPolicy: SecondarySkip,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.Epsilon <= 0 || o.Epsilon >= 1 || math.IsNaN(o.Epsilon) {
		return fmt.Errorf("epsilon must be in (0, 1), got %g", o.Epsilon)
	}
	if o.DecimalPlaces < 0 || o.DecimalPlaces > MaxDecimalPlaces {
		return fmt.Errorf("decimal places must be in [0, %d], got %d", MaxDecimalPlaces, o.DecimalPlaces)
	}
	switch o.Sensitivity {
	case SensitivityDuration, SensitivityFlat:
	default:
		return fmt.Errorf("unknown sensitivity model: %q", o.Sensitivity)
	}
	switch o.SecondaryPolicy {
	case SecondarySkip, SecondaryStrict:
	default:
		return fmt.Errorf("unknown secondary policy: %q", o.SecondaryPolicy)
	}
	return nil
}

// unit is the smallest representable amount at the configured precision.
func (o Options) unit() decimal.Decimal {
	return decimal.New(1, -o.DecimalPlaces)
}
