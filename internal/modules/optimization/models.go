package optimization

import (
	"github.com/shopspring/decimal"
)

// RiskGroup identifies a risk-sensitivity measure.
type RiskGroup string

const (
	DV01  RiskGroup = "DV01"  // interest rate
	BEI01 RiskGroup = "BEI01" // breakeven inflation
	CS01  RiskGroup = "CS01"  // credit spread
)

// RiskGroups lists every known group in canonical order.
var RiskGroups = []RiskGroup{DV01, BEI01, CS01}

// Valid reports whether g is a known risk group.
func (g RiskGroup) Valid() bool {
	switch g {
	case DV01, BEI01, CS01:
		return true
	}
	return false
}

// Bucket is one node of the allocation tree scoped to a time horizon.
type Bucket struct {
	ID         string          `json:"id"`
	Horizon    float64         `json:"horizon"` // years
	Minimum    decimal.Decimal `json:"minimum"`
	Currencies []string        `json:"currencies"`
	Order      int             `json:"order"` // declared sibling order, breaks horizon ties
}

// SupplyEntry makes a set of tenors available to a bucket for one risk group.
// An empty Currencies slice offers the tenors in every currency of the bucket.
type SupplyEntry struct {
	BucketID   string    `json:"bucket"`
	Group      RiskGroup `json:"group"`
	Tenors     []float64 `json:"tenors"`
	Currencies []string  `json:"currencies,omitempty"`
}

// TenorSupply is the (bucket, risk group) -> tenors table assembled by the editor.
type TenorSupply []SupplyEntry

// Snapshot is the immutable input of a single optimizer run.
type Snapshot struct {
	Buckets []Bucket        `json:"buckets"`
	Supply  TenorSupply     `json:"supply"`
	Total   decimal.Decimal `json:"total"`
}

// Sleeve is one investable unit within a bucket.
type Sleeve struct {
	Group    RiskGroup `json:"group"`
	Tenor    float64   `json:"tenor"`
	Currency string    `json:"currency"`
}

// AllocationResult is the amount placed into one sleeve of one bucket.
type AllocationResult struct {
	BucketID string          `json:"bucket"`
	Sleeve   Sleeve          `json:"sleeve"`
	Amount   decimal.Decimal `json:"amount"`
	Exposure float64         `json:"exposure"`
}

// BucketSummary aggregates a bucket's allocation.
type BucketSummary struct {
	BucketID     string          `json:"bucket"`
	Horizon      float64         `json:"horizon"`
	Minimum      decimal.Decimal `json:"minimum"`
	Amount       decimal.Decimal `json:"amount"`
	DV01Tenor    float64         `json:"dv01_tenor"`
	DV01Exposure float64         `json:"dv01_exposure"`
	ActiveGroups []RiskGroup     `json:"active_groups"`
	AtMinimum    bool            `json:"at_minimum"`
}

// Imbalance describes how evenly DV01 exposure ended up spread across buckets.
type Imbalance struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Spread   float64 `json:"spread"`
}

// WarningKind classifies a non-fatal condition raised during a run.
type WarningKind string

const (
	// NumericPrecisionWarning marks a rounding residue above the configured epsilon.
	NumericPrecisionWarning WarningKind = "numeric_precision"
	// SecondaryGroupSkipped marks a BEI01/CS01 group dropped for a bucket with no eligible tenor.
	SecondaryGroupSkipped WarningKind = "secondary_group_skipped"
)

// Warning is surfaced alongside a successful result.
type Warning struct {
	Kind     WarningKind `json:"kind"`
	BucketID string      `json:"bucket,omitempty"`
	Group    RiskGroup   `json:"group,omitempty"`
	Residual float64     `json:"residual,omitempty"`
	Message  string      `json:"message"`
}

// Result is the complete output of one run.
type Result struct {
	Total       decimal.Decimal    `json:"total"`
	Allocations []AllocationResult `json:"allocations"`
	Buckets     []BucketSummary    `json:"buckets"`
	Imbalance   Imbalance          `json:"imbalance"`
	Warnings    []Warning          `json:"warnings"`
}

// BucketTotal returns the summed amount allocated to a bucket.
func (r *Result) BucketTotal(bucketID string) decimal.Decimal {
	total := decimal.Zero
	for _, a := range r.Allocations {
		if a.BucketID == bucketID {
			total = total.Add(a.Amount)
		}
	}
	return total
}

// AllocatedTotal returns the sum of every allocation.
func (r *Result) AllocatedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, a := range r.Allocations {
		total = total.Add(a.Amount)
	}
	return total
}
