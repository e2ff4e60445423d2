package optimization

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const shareDigits = 12

// roundSteps turns solved shares into money amounts.
//
// Every amount is rounded half-to-even at opts.DecimalPlaces. Bucket totals are
// rounded first. A positive conservation residue goes to the last bucket in walk
// order; a negative one is taken from the last buckets that can give it up without
// dropping below their minimum. Inside a bucket see roundBucket.
func roundSteps(steps []bucketStep, total decimal.Decimal, opts Options) ([][]decimal.Decimal, []decimal.Decimal, []Warning) {
	places := opts.DecimalPlaces
	threshold := decimal.Max(
		total.Mul(decimal.NewFromFloat(opts.Epsilon)),
		opts.unit(),
	)
	var warnings []Warning

	bucketAmounts := make([]decimal.Decimal, len(steps))
	allocated := decimal.Zero
	for i, step := range steps {
		amount := shareOf(step.amount).Mul(total).RoundBank(places)
		if floor := step.plan.bucket.Minimum.RoundCeil(places); amount.LessThan(floor) {
			amount = floor
		}
		if amount.IsNegative() {
			amount = decimal.Zero
		}
		bucketAmounts[i] = amount
		allocated = allocated.Add(amount)
	}

	if residue := total.Sub(allocated); !residue.IsZero() {
		absorber := absorbBucketResidue(steps, bucketAmounts, residue)
		if residue.Abs().GreaterThan(threshold) {
			warnings = append(warnings, precisionWarning(steps[absorber].plan.bucket.ID, residue, threshold))
		}
	}

	sleeveAmounts := make([][]decimal.Decimal, len(steps))
	for i, step := range steps {
		if step.amount <= 0 || bucketAmounts[i].IsZero() {
			amounts := make([]decimal.Decimal, len(step.sleeves))
			for j := range amounts {
				amounts[j] = decimal.Zero
			}
			sleeveAmounts[i] = amounts
			continue
		}

		amounts, residue := roundBucket(step, bucketAmounts[i], opts.unit(), places)
		if residue.Abs().GreaterThan(threshold) {
			warnings = append(warnings, precisionWarning(step.plan.bucket.ID, residue, threshold))
		}
		sleeveAmounts[i] = amounts
	}

	return sleeveAmounts, bucketAmounts, warnings
}

// absorbBucketResidue applies residue to the bucket amounts and returns the index
// of the last bucket that took part of it.
func absorbBucketResidue(steps []bucketStep, amounts []decimal.Decimal, residue decimal.Decimal) int {
	last := len(steps) - 1
	if residue.IsPositive() {
		amounts[last] = amounts[last].Add(residue)
		return last
	}

	owed := residue.Neg()
	absorber := last
	for i := last; i >= 0 && owed.IsPositive(); i-- {
		slack := amounts[i].Sub(decimal.Max(steps[i].plan.bucket.Minimum, decimal.Zero))
		if !slack.IsPositive() {
			continue
		}
		take := decimal.Min(slack, owed)
		amounts[i] = amounts[i].Sub(take)
		owed = owed.Sub(take)
		absorber = i
	}
	if owed.IsPositive() {
		// Only reachable when the minima alone exceed the total; verifyResult reports it.
		amounts[last] = amounts[last].Sub(owed)
	}
	return absorber
}

// roundBucket splits a rounded bucket amount over the bucket's sleeves.
//
// Each (risk group, tenor) set is rounded once per currency, so every currency of
// a set carries the same amount. The residue then moves whole sets one minor unit
// at a time, last set first. Units no whole set can take (fewer than the currency
// count of every set) go one each to the trailing sleeves of the last set able to
// hold them, so no set differs across currencies by more than one unit.
// The returned residue is the one left by the per-set rounding.
func roundBucket(step bucketStep, amount, unit decimal.Decimal, places int32) ([]decimal.Decimal, decimal.Decimal) {
	sets := sleeveGroups(step.sleeves)
	perCurrency := make([]decimal.Decimal, len(sets))
	sizes := make([]decimal.Decimal, len(sets))

	allocated := decimal.Zero
	for s, idx := range sets {
		var share float64
		for _, i := range idx {
			share += step.amounts[i]
		}
		share /= float64(len(idx))
		perCurrency[s] = amount.Mul(shareOf(share / step.amount)).RoundBank(places)
		sizes[s] = decimal.NewFromInt(int64(len(idx)))
		allocated = allocated.Add(perCurrency[s].Mul(sizes[s]))
	}
	residue := amount.Sub(allocated)

	delta := unit
	if residue.IsNegative() {
		delta = unit.Neg()
	}
	remaining := residue
	for moved := true; moved && !remaining.IsZero(); {
		moved = false
		for s := len(sets) - 1; s >= 0 && !remaining.IsZero(); s-- {
			if remaining.Abs().LessThan(unit.Mul(sizes[s])) {
				continue
			}
			next := perCurrency[s].Add(delta)
			if next.IsNegative() {
				continue
			}
			perCurrency[s] = next
			remaining = remaining.Sub(delta.Mul(sizes[s]))
			moved = true
		}
	}

	amounts := make([]decimal.Decimal, len(step.sleeves))
	for s, idx := range sets {
		for _, i := range idx {
			amounts[i] = perCurrency[s]
		}
	}
	if remaining.IsZero() {
		return amounts, residue
	}

	units := int(remaining.Abs().Div(unit).IntPart())
	for s := len(sets) - 1; s >= 0; s-- {
		idx := sets[s]
		if units >= len(idx) || (delta.IsNegative() && perCurrency[s].LessThan(unit)) {
			continue
		}
		for _, i := range idx[len(idx)-units:] {
			amounts[i] = amounts[i].Add(delta)
		}
		return amounts, residue
	}

	last := len(amounts) - 1
	amounts[last] = amounts[last].Add(remaining)
	return amounts, residue
}

// shareOf converts a solved share to a decimal, dropping float noise below
// shareDigits so exact halves round the same way on every platform.
func shareOf(share float64) decimal.Decimal {
	return decimal.NewFromFloat(share).Round(shareDigits)
}

func precisionWarning(bucketID string, residue, threshold decimal.Decimal) Warning {
	r, _ := residue.Float64()
	return Warning{
		Kind:     NumericPrecisionWarning,
		BucketID: bucketID,
		Residual: r,
		Message:  fmt.Sprintf("rounding residue %s exceeds tolerance %s and was absorbed", residue.String(), threshold.String()),
	}
}
