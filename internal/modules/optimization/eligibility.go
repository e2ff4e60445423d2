package optimization

import (
	"math"
	"sort"
)

// tenorKeyPrecision groups tenors that differ only by float noise.
const tenorKeyPrecision = 1e-9

// EligibleTenor is a tenor usable by a bucket, with the bucket currencies it is
// offered in.
type EligibleTenor struct {
	Tenor      float64  `json:"tenor"`
	Currencies []string `json:"currencies"`
}

type pooledSupply struct {
	source Bucket
	entry  SupplyEntry
}

// TenorPool accumulates supply as buckets are walked in ascending horizon order.
// A tenor supplied at one bucket stays visible to every longer bucket walked later.
type TenorPool struct {
	entries []pooledSupply
}

// Add makes the supply declared at b visible to b and to every longer bucket.
func (p *TenorPool) Add(b Bucket, supply TenorSupply) {
	for _, e := range supply {
		if e.BucketID == b.ID {
			p.entries = append(p.entries, pooledSupply{source: b, entry: e})
		}
	}
}

// Eligible returns, in ascending order, the tenors of group g usable by b: tenors
// supplied at b itself or at a bucket with a strictly shorter horizon, no longer
// than b's horizon and offered in at least one of b's currencies.
func (p *TenorPool) Eligible(b Bucket, g RiskGroup) []EligibleTenor {
	offered := make(map[int64]map[string]bool)
	tenors := make(map[int64]float64)

	for _, ps := range p.entries {
		if ps.entry.Group != g {
			continue
		}
		if ps.source.ID != b.ID && ps.source.Horizon >= b.Horizon {
			continue
		}
		currencies := intersectCurrencies(b.Currencies, ps.entry.Currencies)
		if len(currencies) == 0 {
			continue
		}
		for _, t := range ps.entry.Tenors {
			if t <= 0 || t > b.Horizon+tenorKeyPrecision {
				continue
			}
			key := tenorKey(t)
			if _, ok := tenors[key]; !ok {
				tenors[key] = t
				offered[key] = make(map[string]bool)
			}
			for _, c := range currencies {
				offered[key][c] = true
			}
		}
	}

	keys := make([]int64, 0, len(tenors))
	for k := range tenors {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	result := make([]EligibleTenor, 0, len(keys))
	for _, k := range keys {
		var currencies []string
		for _, c := range b.Currencies {
			if offered[k][c] {
				currencies = append(currencies, c)
			}
		}
		result = append(result, EligibleTenor{Tenor: tenors[k], Currencies: currencies})
	}
	return result
}

// intersectCurrencies keeps the bucket's currency order. An empty restriction
// means every bucket currency.
func intersectCurrencies(bucket, restriction []string) []string {
	if len(restriction) == 0 {
		return bucket
	}
	allowed := make(map[string]bool, len(restriction))
	for _, c := range restriction {
		allowed[c] = true
	}
	var out []string
	for _, c := range bucket {
		if allowed[c] {
			out = append(out, c)
		}
	}
	return out
}

func tenorKey(t float64) int64 {
	return int64(t/tenorKeyPrecision + 0.5)
}

// DeriveTenor picks the secondary-group tenor that tracks the chosen DV01 tenor:
// the eligible tenor nearest to it, shorter on ties. ok is false when eligible is empty.
func DeriveTenor(dv01Tenor float64, eligible []EligibleTenor) (EligibleTenor, bool) {
	if len(eligible) == 0 {
		return EligibleTenor{}, false
	}
	best := eligible[0]
	bestDistance := math.Abs(best.Tenor - dv01Tenor)
	for _, candidate := range eligible[1:] {
		d := math.Abs(candidate.Tenor - dv01Tenor)
		if d < bestDistance-tenorKeyPrecision {
			best = candidate
			bestDistance = d
		}
	}
	return best, true
}

// EvenShare is the fraction of a bucket's amount each active risk group receives.
func EvenShare(activeGroups int) float64 {
	if activeGroups <= 0 {
		return 0
	}
	return 1.0 / float64(activeGroups)
}
