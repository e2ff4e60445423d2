package optimization

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"
)

// objectiveTieTolerance decides when two tenor candidates balance equally well.
const objectiveTieTolerance = 1e-9

// bucketPlan is what eligibility allows a bucket to hold, computed before amounts.
type bucketPlan struct {
	bucket    Bucket
	dv01      []EligibleTenor
	secondary map[RiskGroup][]EligibleTenor
	minimum   float64 // share of total
}

// activeGroups is the number of risk groups the bucket's amount is split across.
func (bp bucketPlan) activeGroups() int {
	return 1 + len(bp.secondary)
}

// nominalKappa is the DV01 exposure per unit of bucket amount assumed for a
// bucket not walked yet: its longest eligible DV01 tenor, evenly split.
func (bp bucketPlan) nominalKappa(model SensitivityModel) float64 {
	longest := bp.dv01[len(bp.dv01)-1].Tenor
	return model.PerUnit(longest) * EvenShare(bp.activeGroups())
}

// bucketStep is the solved allocation of one walked bucket, in shares.
type bucketStep struct {
	plan      bucketPlan
	dv01Tenor float64
	sleeves   []stepSleeve
	amounts   []float64
	amount    float64
	exposure  float64
	pinned    bool
}

// BucketWalker drives the per-bucket computation in ascending horizon order.
type BucketWalker struct {
	opts Options
	log  zerolog.Logger
}

// NewBucketWalker creates a walker.
func NewBucketWalker(opts Options, log zerolog.Logger) *BucketWalker {
	return &BucketWalker{
		opts: opts,
		log:  log.With().Str("component", "bucket_walker").Logger(),
	}
}

// OrderBuckets sorts buckets by ascending horizon, then Order. Buckets equal on
// both keep their position in the input.
func OrderBuckets(buckets []Bucket) []Bucket {
	ordered := append([]Bucket(nil), buckets...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if a.Horizon != b.Horizon {
			return a.Horizon < b.Horizon
		}
		return a.Order < b.Order
	})
	return ordered
}

// plan computes the eligible tenors of every bucket, walking the tenor pool
// forward so tenors only ever flow from shorter to longer buckets.
func (w *BucketWalker) plan(ordered []Bucket, supply TenorSupply, active []RiskGroup, total float64) ([]bucketPlan, []Warning, error) {
	var pool TenorPool
	var warnings []Warning
	plans := make([]bucketPlan, 0, len(ordered))

	for _, b := range ordered {
		pool.Add(b, supply)

		dv01 := pool.Eligible(b, DV01)
		if len(dv01) == 0 {
			return nil, nil, &UnsatisfiableBucketError{BucketID: b.ID, Group: DV01, Horizon: b.Horizon}
		}

		secondary := make(map[RiskGroup][]EligibleTenor)
		for _, g := range active {
			if g == DV01 {
				continue
			}
			eligible := pool.Eligible(b, g)
			if len(eligible) > 0 {
				secondary[g] = eligible
				continue
			}
			if w.opts.SecondaryPolicy == SecondaryStrict {
				return nil, nil, &UnsatisfiableBucketError{BucketID: b.ID, Group: g, Horizon: b.Horizon}
			}
			w.log.Warn().
				Str("bucket", b.ID).
				Str("group", string(g)).
				Float64("horizon", b.Horizon).
				Msg("No eligible tenor for risk group, skipping it for this bucket")
			warnings = append(warnings, Warning{
				Kind:     SecondaryGroupSkipped,
				BucketID: b.ID,
				Group:    g,
				Message:  fmt.Sprintf("no eligible %s tenor within horizon %g; group skipped", g, b.Horizon),
			})
		}

		minimum, _ := b.Minimum.Float64()
		plans = append(plans, bucketPlan{
			bucket:    b,
			dv01:      dv01,
			secondary: secondary,
			minimum:   minimum / total,
		})
	}

	return plans, warnings, nil
}

// walk solves every bucket in order. Each step fixes the current bucket while
// projecting the buckets still to come, so conservation and the balancing
// objective always cover the whole portfolio. All buckets are processed.
func (w *BucketWalker) walk(ctx context.Context, plans []bucketPlan, total float64) ([]bucketStep, error) {
	steps := make([]bucketStep, 0, len(plans))
	walked := make([]float64, 0, len(plans))
	remaining := 1.0

	for k, plan := range plans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		projected := make([]projectedBucket, 0, len(plans)-k-1)
		for _, next := range plans[k+1:] {
			projected = append(projected, projectedBucket{
				id:      next.bucket.ID,
				minimum: next.minimum,
				kappa:   next.nominalKappa(w.opts.Sensitivity),
			})
		}

		var best *bucketStep
		bestObjective := math.Inf(1)
		for _, candidate := range plan.dv01 {
			sleeves := w.sleevesFor(plan, candidate)
			problem := stepProblem{
				bucketID:  plan.bucket.ID,
				remaining: remaining,
				walked:    walked,
				sleeves:   sleeves,
				minimum:   plan.minimum,
				projected: projected,
			}
			sol, err := solveStep(problem, w.opts.Epsilon, total)
			if err != nil {
				return nil, err
			}

			// Candidates are ascending, so accepting ties prefers the longer tenor.
			if sol.objective <= bestObjective+objectiveTieTolerance*math.Max(1, math.Abs(bestObjective)) {
				bestObjective = sol.objective
				best = &bucketStep{
					plan:      plan,
					dv01Tenor: candidate.Tenor,
					sleeves:   sleeves,
					amounts:   sol.sleeveAmounts,
					amount:    sol.amount,
					exposure:  sol.exposure,
					pinned:    sol.pinned,
				}
			}
		}

		amounts, err := levelCurrencies(best.sleeves, best.amounts, w.opts.Epsilon)
		if err != nil {
			return nil, fmt.Errorf("bucket %s: %w", plan.bucket.ID, err)
		}
		best.amounts = amounts

		w.log.Debug().
			Str("bucket", plan.bucket.ID).
			Float64("dv01_tenor", best.dv01Tenor).
			Float64("share", best.amount).
			Float64("exposure", best.exposure).
			Bool("at_minimum", best.pinned).
			Int("active_groups", plan.activeGroups()).
			Msg("Bucket allocated")

		steps = append(steps, *best)
		walked = append(walked, best.exposure)
		remaining -= best.amount
	}

	return steps, nil
}

// sleevesFor lays out the current bucket's unknowns for one DV01 tenor candidate:
// DV01 first, then each active secondary group at its derived tenor, each in
// every currency the tenor is offered in.
func (w *BucketWalker) sleevesFor(plan bucketPlan, dv01 EligibleTenor) []stepSleeve {
	var sleeves []stepSleeve
	add := func(g RiskGroup, et EligibleTenor) {
		for _, c := range et.Currencies {
			sleeves = append(sleeves, stepSleeve{
				Sleeve: Sleeve{Group: g, Tenor: et.Tenor, Currency: c},
				kappa:  w.opts.Sensitivity.PerUnit(et.Tenor),
			})
		}
	}

	add(DV01, dv01)
	for _, g := range RiskGroups {
		eligible, ok := plan.secondary[g]
		if !ok {
			continue
		}
		derived, _ := DeriveTenor(dv01.Tenor, eligible)
		add(g, derived)
	}
	return sleeves
}
