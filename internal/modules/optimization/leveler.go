package optimization

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// levelCurrencies enforces equal amounts across currencies for every
// (risk group, tenor) sleeve of a bucket. The solver already holds parity as a hard
// constraint, so any gap beyond tol is an error; smaller gaps are float noise and
// are levelled to the group mean.
func levelCurrencies(sleeves []stepSleeve, amounts []float64, tol float64) ([]float64, error) {
	levelled := append([]float64(nil), amounts...)
	for _, idx := range sleeveGroups(sleeves) {
		if len(idx) < 2 {
			continue
		}
		lo, hi, sum := math.Inf(1), math.Inf(-1), 0.0
		for _, i := range idx {
			lo = math.Min(lo, amounts[i])
			hi = math.Max(hi, amounts[i])
			sum += amounts[i]
		}
		if hi-lo > tol {
			sl := sleeves[idx[0]]
			return nil, fmt.Errorf("currency parity broken for %s tenor %g: spread %g", sl.Group, sl.Tenor, hi-lo)
		}
		mean := sum / float64(len(idx))
		for _, i := range idx {
			levelled[i] = mean
		}
	}
	return levelled, nil
}

// VerifyParity checks that, within each bucket, sleeves sharing a risk group and
// tenor carry the same amount in every currency. Rounding may leave at most one
// minor unit between currencies of a set.
func VerifyParity(allocations []AllocationResult, unit decimal.Decimal) error {
	type key struct {
		bucket string
		group  RiskGroup
		tenor  int64
	}
	amounts := make(map[key][]decimal.Decimal)
	var order []key

	for _, a := range allocations {
		k := key{a.BucketID, a.Sleeve.Group, tenorKey(a.Sleeve.Tenor)}
		if _, ok := amounts[k]; !ok {
			order = append(order, k)
		}
		amounts[k] = append(amounts[k], a.Amount)
	}

	for _, k := range order {
		values := amounts[k]
		lo, hi := values[0], values[0]
		for _, v := range values[1:] {
			lo = decimal.Min(lo, v)
			hi = decimal.Max(hi, v)
		}
		if hi.Sub(lo).GreaterThan(unit) {
			return fmt.Errorf("bucket %s: %s sleeves differ across currencies by %s", k.bucket, k.group, hi.Sub(lo).String())
		}
	}
	return nil
}
