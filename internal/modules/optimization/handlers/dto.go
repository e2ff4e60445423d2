package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aristath/riskalloc/internal/horizon"
	"github.com/aristath/riskalloc/internal/modules/allocation"
	"github.com/aristath/riskalloc/internal/modules/optimization"
	"github.com/aristath/riskalloc/internal/utils"
	"github.com/shopspring/decimal"
)

// RunRequest is the body of POST /optimizer/run. Exactly one of Buckets and Tree
// must be given.
type RunRequest struct {
	Total   decimal.Decimal   `json:"total"`
	Buckets []BucketRequest   `json:"buckets,omitempty"`
	Tree    []allocation.Node `json:"tree,omitempty"`
	Supply  []SupplyRequest   `json:"supply"`
	Options *OptionsRequest   `json:"options,omitempty"`
}

// BucketRequest describes a bucket directly.
type BucketRequest struct {
	ID         string          `json:"id"`
	Horizon    Horizon         `json:"horizon"`
	Minimum    decimal.Decimal `json:"minimum"`
	Currencies CurrencyList    `json:"currencies"`
	Order      int             `json:"order"`
}

// SupplyRequest makes tenors available to a bucket for one risk group.
type SupplyRequest struct {
	Bucket     string       `json:"bucket"`
	Group      string       `json:"group"`
	Tenors     TenorList    `json:"tenors"`
	Currencies CurrencyList `json:"currencies,omitempty"`
}

// OptionsRequest overrides the configured optimizer options for one run.
type OptionsRequest struct {
	Epsilon         *float64 `json:"epsilon,omitempty"`
	DecimalPlaces   *int32   `json:"decimal_places,omitempty"`
	Sensitivity     *string  `json:"sensitivity,omitempty"`
	SecondaryPolicy *string  `json:"secondary_policy,omitempty"`
}

// Apply returns base with the requested overrides.
func (o *OptionsRequest) Apply(base optimization.Options) optimization.Options {
	if o == nil {
		return base
	}
	if o.Epsilon != nil {
		base.Epsilon = *o.Epsilon
	}
	if o.DecimalPlaces != nil {
		base.DecimalPlaces = *o.DecimalPlaces
	}
	if o.Sensitivity != nil {
		base.Sensitivity = optimization.SensitivityModel(*o.Sensitivity)
	}
	if o.SecondaryPolicy != nil {
		base.SecondaryPolicy = optimization.SecondaryPolicy(*o.SecondaryPolicy)
	}
	return base
}

// Horizon accepts either a number of years or a label such as "6M".
type Horizon float64

func (h *Horizon) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var label string
		if err := json.Unmarshal(data, &label); err != nil {
			return err
		}
		years, err := horizon.ToYears(label)
		if err != nil {
			return err
		}
		*h = Horizon(years)
		return nil
	}
	var years float64
	if err := json.Unmarshal(data, &years); err != nil {
		return fmt.Errorf("horizon must be a number of years or a label: %w", err)
	}
	*h = Horizon(years)
	return nil
}

// CurrencyList accepts either ["EUR","USD"] or "EUR, USD".
type CurrencyList []string

func (c *CurrencyList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = allocation.ParseCurrencyCodes(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	var codes []string
	for _, s := range list {
		codes = append(codes, allocation.ParseCurrencyCodes(s)...)
	}
	*c = codes
	return nil
}

// TenorList accepts either [0.5, 1, 3] or "0.5, 1, 3".
type TenorList []float64

func (t *TenorList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = utils.ParseTenors(s)
		return nil
	}
	var list []float64
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*t = list
	return nil
}

// RunResponse wraps a result with the run identifier.
type RunResponse struct {
	RunID    string    `json:"run_id"`
	Data     ResultDTO `json:"data"`
	Metadata Metadata  `json:"metadata"`
}

// Metadata is attached to every successful response.
type Metadata struct {
	Timestamp string `json:"timestamp"`
}

// ResultDTO is the wire form of optimization.Result. Money amounts are decimal strings.
type ResultDTO struct {
	Total       string                 `json:"total"`
	Allocations []AllocationDTO        `json:"allocations"`
	Buckets     []BucketSummaryDTO     `json:"buckets"`
	Imbalance   optimization.Imbalance `json:"imbalance"`
	Warnings    []WarningDTO           `json:"warnings"`
}

// AllocationDTO is the wire form of one AllocationResult.
type AllocationDTO struct {
	Bucket   string  `json:"bucket"`
	Group    string  `json:"group"`
	Tenor    float64 `json:"tenor"`
	Currency string  `json:"currency"`
	Amount   string  `json:"amount"`
	Exposure float64 `json:"exposure"`
}

// BucketSummaryDTO is the wire form of one BucketSummary.
type BucketSummaryDTO struct {
	Bucket       string   `json:"bucket"`
	Horizon      float64  `json:"horizon"`
	Minimum      string   `json:"minimum"`
	Amount       string   `json:"amount"`
	DV01Tenor    float64  `json:"dv01_tenor"`
	DV01Exposure float64  `json:"dv01_exposure"`
	ActiveGroups []string `json:"active_groups"`
	AtMinimum    bool     `json:"at_minimum"`
}

// WarningDTO is the wire form of one Warning.
type WarningDTO struct {
	Kind     string  `json:"kind"`
	Bucket   string  `json:"bucket,omitempty"`
	Group    string  `json:"group,omitempty"`
	Residual float64 `json:"residual,omitempty"`
	Message  string  `json:"message"`
}

func toResultDTO(result *optimization.Result) ResultDTO {
	dto := ResultDTO{
		Total:       result.Total.String(),
		Allocations: make([]AllocationDTO, 0, len(result.Allocations)),
		Buckets:     make([]BucketSummaryDTO, 0, len(result.Buckets)),
		Imbalance:   result.Imbalance,
		Warnings:    make([]WarningDTO, 0, len(result.Warnings)),
	}
	for _, a := range result.Allocations {
		dto.Allocations = append(dto.Allocations, AllocationDTO{
			Bucket:   a.BucketID,
			Group:    string(a.Sleeve.Group),
			Tenor:    a.Sleeve.Tenor,
			Currency: a.Sleeve.Currency,
			Amount:   a.Amount.String(),
			Exposure: a.Exposure,
		})
	}
	for _, b := range result.Buckets {
		groups := make([]string, len(b.ActiveGroups))
		for i, g := range b.ActiveGroups {
			groups[i] = string(g)
		}
		dto.Buckets = append(dto.Buckets, BucketSummaryDTO{
			Bucket:       b.BucketID,
			Horizon:      b.Horizon,
			Minimum:      b.Minimum.String(),
			Amount:       b.Amount.String(),
			DV01Tenor:    b.DV01Tenor,
			DV01Exposure: b.DV01Exposure,
			ActiveGroups: groups,
			AtMinimum:    b.AtMinimum,
		})
	}
	for _, w := range result.Warnings {
		dto.Warnings = append(dto.Warnings, WarningDTO{
			Kind:     string(w.Kind),
			Bucket:   w.BucketID,
			Group:    string(w.Group),
			Residual: w.Residual,
			Message:  w.Message,
		})
	}
	return dto
}
