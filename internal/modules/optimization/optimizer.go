// Package optimization implements the risk-balanced allocation optimizer.
//
// Given a snapshot of horizon buckets, the tenors made available per risk group and a
// total amount, it decides how much to place in each eligible sleeve so that every
// bucket meets its minimum, the whole amount is invested, DV01 exposure is as even as
// the constraints allow across buckets, BEI01/CS01 follow the chosen DV01 tenor, and
// a sleeve offered in several currencies receives the same amount in each.
package optimization

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/aristath/riskalloc/internal/utils"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Optimizer runs the allocation. It keeps no state between runs and is safe for
// concurrent use.
type Optimizer struct {
	opts Options
	log  zerolog.Logger
}

// NewOptimizer creates an optimizer with the given options.
func NewOptimizer(opts Options, log zerolog.Logger) *Optimizer {
	return &Optimizer{
		opts: opts,
		log:  log.With().Str("component", "optimizer").Logger(),
	}
}

// Options returns the options the optimizer runs with.
func (o *Optimizer) Options() Options {
	return o.opts
}

// WithOptions returns a copy of the optimizer using opts.
func (o *Optimizer) WithOptions(opts Options) *Optimizer {
	return &Optimizer{opts: opts, log: o.log}
}

// Optimize computes the allocation for snapshot. Any eligibility or feasibility
// failure aborts the whole run and no partial result is returned; the same happens
// when ctx is cancelled between bucket steps.
func (o *Optimizer) Optimize(ctx context.Context, snapshot Snapshot) (*Result, error) {
	defer utils.OperationTimer("optimize", o.log)()

	if err := o.opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid optimizer options: %w", err)
	}

	snap, err := normalizeSnapshot(snapshot, o.opts.DecimalPlaces)
	if err != nil {
		return nil, err
	}

	ordered := OrderBuckets(snap.Buckets)
	if err := checkMinima(ordered, snap.Total); err != nil {
		return nil, err
	}

	total, _ := snap.Total.Float64()
	walker := NewBucketWalker(o.opts, o.log)

	plans, warnings, err := walker.plan(ordered, snap.Supply, activeGroups(snap.Supply), total)
	if err != nil {
		return nil, err
	}

	steps, err := walker.walk(ctx, plans, total)
	if err != nil {
		return nil, err
	}

	sleeveAmounts, bucketAmounts, roundingWarnings := roundSteps(steps, snap.Total, o.opts)
	for _, w := range roundingWarnings {
		o.log.Warn().
			Str("bucket", w.BucketID).
			Float64("residual", w.Residual).
			Msg("Rounding residue exceeded tolerance")
	}
	warnings = append(warnings, roundingWarnings...)

	result := buildResult(steps, sleeveAmounts, bucketAmounts, snap.Total, o.opts.Sensitivity)
	result.Warnings = warnings
	if result.Warnings == nil {
		result.Warnings = []Warning{}
	}

	if err := verifyResult(result, o.opts); err != nil {
		return nil, err
	}

	o.log.Info().
		Int("buckets", len(result.Buckets)).
		Int("allocations", len(result.Allocations)).
		Str("total", snap.Total.String()).
		Float64("exposure_variance", result.Imbalance.Variance).
		Int("warnings", len(result.Warnings)).
		Msg("Allocation computed")

	return result, nil
}

func buildResult(steps []bucketStep, sleeveAmounts [][]decimal.Decimal, bucketAmounts []decimal.Decimal, total decimal.Decimal, model SensitivityModel) *Result {
	result := &Result{Total: total}
	exposures := make([]float64, 0, len(steps))

	for i, step := range steps {
		var dv01Exposure float64
		for j, sl := range step.sleeves {
			amount := sleeveAmounts[i][j]
			f, _ := amount.Float64()
			exposure := f * model.PerUnit(sl.Tenor)
			if sl.Group == DV01 {
				dv01Exposure += exposure
			}
			result.Allocations = append(result.Allocations, AllocationResult{
				BucketID: step.plan.bucket.ID,
				Sleeve:   sl.Sleeve,
				Amount:   amount,
				Exposure: exposure,
			})
		}

		groups := []RiskGroup{DV01}
		for _, g := range RiskGroups {
			if _, ok := step.plan.secondary[g]; ok {
				groups = append(groups, g)
			}
		}

		result.Buckets = append(result.Buckets, BucketSummary{
			BucketID:     step.plan.bucket.ID,
			Horizon:      step.plan.bucket.Horizon,
			Minimum:      step.plan.bucket.Minimum,
			Amount:       bucketAmounts[i],
			DV01Tenor:    step.dv01Tenor,
			DV01Exposure: dv01Exposure,
			ActiveGroups: groups,
			AtMinimum:    step.pinned || bucketAmounts[i].Equal(step.plan.bucket.Minimum),
		})
		exposures = append(exposures, dv01Exposure)
	}

	mean, variance := stat.PopMeanVariance(exposures, nil)
	result.Imbalance = Imbalance{
		Mean:     mean,
		Variance: variance,
		Spread:   floats.Max(exposures) - floats.Min(exposures),
	}
	return result
}

// verifyResult re-checks conservation, minima and currency parity on the rounded
// result before it leaves the optimizer.
func verifyResult(result *Result, opts Options) error {
	if allocated := result.AllocatedTotal(); !allocated.Equal(result.Total) {
		return fmt.Errorf("allocated %s does not match total %s", allocated.String(), result.Total.String())
	}
	for _, b := range result.Buckets {
		if b.Amount.LessThan(b.Minimum) {
			return fmt.Errorf("bucket %s: allocated %s is below minimum %s", b.BucketID, b.Amount.String(), b.Minimum.String())
		}
	}
	return VerifyParity(result.Allocations, opts.unit())
}

// checkMinima fails fast when the minima alone exceed the total. Both are exact
// at the configured precision, so no tolerance applies.
func checkMinima(ordered []Bucket, total decimal.Decimal) error {
	required := decimal.Zero
	var ids []string
	for _, b := range ordered {
		required = required.Add(b.Minimum)
		if b.Minimum.IsPositive() {
			ids = append(ids, b.ID)
		}
	}
	if required.GreaterThan(total) {
		r, _ := required.Float64()
		t, _ := total.Float64()
		return &InfeasibleAllocationError{BucketIDs: ids, Required: r, Available: t}
	}
	return nil
}

// activeGroups returns DV01 plus every secondary group the caller supplied tenors for.
func activeGroups(supply TenorSupply) []RiskGroup {
	supplied := make(map[RiskGroup]bool)
	for _, e := range supply {
		for _, t := range e.Tenors {
			if t > 0 {
				supplied[e.Group] = true
				break
			}
		}
	}
	groups := []RiskGroup{DV01}
	for _, g := range RiskGroups {
		if g != DV01 && supplied[g] {
			groups = append(groups, g)
		}
	}
	return groups
}

// normalizeSnapshot validates the snapshot and returns a copy with canonical
// currency codes. A bucket without currencies trades in one unspecified currency.
func normalizeSnapshot(s Snapshot, places int32) (Snapshot, error) {
	if !s.Total.IsPositive() {
		return Snapshot{}, invalidf("total must be positive, got %s", s.Total.String())
	}
	if !s.Total.Equal(s.Total.Round(places)) {
		return Snapshot{}, invalidf("total %s has more than %d decimal places", s.Total.String(), places)
	}
	if len(s.Buckets) == 0 {
		return Snapshot{}, invalidf("no buckets supplied")
	}

	out := Snapshot{Total: s.Total}
	seen := make(map[string]bool, len(s.Buckets))
	for _, b := range s.Buckets {
		if strings.TrimSpace(b.ID) == "" {
			return Snapshot{}, invalidf("bucket without identifier")
		}
		if seen[b.ID] {
			return Snapshot{}, invalidf("duplicate bucket %s", b.ID)
		}
		seen[b.ID] = true
		if b.Horizon <= 0 || math.IsNaN(b.Horizon) || math.IsInf(b.Horizon, 0) {
			return Snapshot{}, invalidf("bucket %s: horizon must be positive, got %g", b.ID, b.Horizon)
		}
		if b.Minimum.IsNegative() {
			return Snapshot{}, invalidf("bucket %s: minimum must not be negative", b.ID)
		}
		if !b.Minimum.Equal(b.Minimum.Round(places)) {
			return Snapshot{}, invalidf("bucket %s: minimum %s has more than %d decimal places", b.ID, b.Minimum.String(), places)
		}
		b.Currencies = normalizeCurrencies(b.Currencies)
		if len(b.Currencies) == 0 {
			b.Currencies = []string{""}
		}
		out.Buckets = append(out.Buckets, b)
	}

	for _, e := range s.Supply {
		if !seen[e.BucketID] {
			return Snapshot{}, invalidf("supply references unknown bucket %s", e.BucketID)
		}
		if !e.Group.Valid() {
			return Snapshot{}, invalidf("supply for bucket %s: unknown risk group %q", e.BucketID, e.Group)
		}
		for _, t := range e.Tenors {
			if math.IsNaN(t) || math.IsInf(t, 0) {
				return Snapshot{}, invalidf("supply for bucket %s: tenor must be finite", e.BucketID)
			}
		}
		e.Tenors = append([]float64(nil), e.Tenors...)
		e.Currencies = normalizeCurrencies(e.Currencies)
		out.Supply = append(out.Supply, e)
	}

	return out, nil
}

func normalizeCurrencies(codes []string) []string {
	var out []string
	seen := make(map[string]bool, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
