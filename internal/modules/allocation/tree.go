// Package allocation turns the editor's allocation tree into optimizer buckets.
package allocation

import (
	"fmt"
	"sort"

	"github.com/aristath/riskalloc/internal/horizon"
	"github.com/aristath/riskalloc/internal/modules/optimization"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Node is one entry of the allocation tree. Only leaves with a horizon become
// buckets; the minimum of an inner node is ignored.
type Node struct {
	Name       string          `json:"name"`
	Horizon    string          `json:"horizon,omitempty"`    // label, e.g. "6M" or "3Y"
	Minimum    decimal.Decimal `json:"minimum"`              // money amount
	Currencies string          `json:"currencies,omitempty"` // comma separated
	SortOrder  int             `json:"sort_order"`
	Children   []Node          `json:"children,omitempty"`
}

// IsLeaf reports whether the node has no children.
func (n Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// TreeFlattener aggregates tree leaves into one bucket per horizon.
type TreeFlattener struct {
	log zerolog.Logger
}

// NewTreeFlattener creates a flattener.
func NewTreeFlattener(log zerolog.Logger) *TreeFlattener {
	return &TreeFlattener{
		log: log.With().Str("component", "tree_flattener").Logger(),
	}
}

// Flatten walks the tree depth first in sibling sort order. Leaves sharing a
// canonical horizon label merge into a single bucket identified by that label:
// minima are summed and currencies unioned in first-seen order. A bucket's Order
// is the position at which its horizon was first met.
//
// Leaves with no horizon or no currency list are skipped. A currency list made
// only of aliases such as "N/A" gives a bucket in the unspecified currency.
func (f *TreeFlattener) Flatten(roots []Node) ([]optimization.Bucket, error) {
	var buckets []optimization.Bucket
	index := make(map[string]int)
	seenCurrency := make(map[string]map[string]bool)

	var visit func(path string, n Node) error
	visit = func(path string, n Node) error {
		if path == "" {
			path = n.Name
		} else {
			path = path + "/" + n.Name
		}

		if !n.IsLeaf() {
			for _, child := range sortedChildren(n.Children) {
				if err := visit(path, child); err != nil {
					return err
				}
			}
			return nil
		}

		if n.Horizon == "" || n.Currencies == "" {
			f.log.Debug().Str("node", path).Msg("Skipping leaf without horizon or currencies")
			return nil
		}
		label, err := horizon.Parse(n.Horizon)
		if err != nil {
			return fmt.Errorf("node %s: %w", path, err)
		}
		if n.Minimum.IsNegative() {
			return fmt.Errorf("node %s: minimum must not be negative", path)
		}

		id := label.String()
		i, ok := index[id]
		if !ok {
			i = len(buckets)
			index[id] = i
			seenCurrency[id] = make(map[string]bool)
			buckets = append(buckets, optimization.Bucket{
				ID:      id,
				Horizon: label.Years(),
				Minimum: decimal.Zero,
				Order:   i,
			})
		}

		b := &buckets[i]
		b.Minimum = b.Minimum.Add(n.Minimum)
		for _, c := range ParseCurrencyCodes(n.Currencies) {
			if seenCurrency[id][c] {
				continue
			}
			seenCurrency[id][c] = true
			b.Currencies = append(b.Currencies, c)
		}
		return nil
	}

	for _, root := range sortedChildren(roots) {
		if err := visit("", root); err != nil {
			return nil, err
		}
	}

	f.log.Debug().Int("buckets", len(buckets)).Msg("Allocation tree flattened")
	return buckets, nil
}

func sortedChildren(nodes []Node) []Node {
	sorted := append([]Node(nil), nodes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SortOrder < sorted[j].SortOrder
	})
	return sorted
}
