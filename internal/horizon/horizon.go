// Package horizon parses time horizon labels such as 6M, 3Y, 2W or 10D.
//
// A label is a strictly positive whole number followed by a unit: Y (years),
// M (months), W (weeks) or D (days). Units are case-insensitive and a space may
// separate the number from the unit. Canonical labels are upper-case with no space.
package horizon

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Unit is a horizon label unit.
type Unit string

const (
	Years  Unit = "Y"
	Months Unit = "M"
	Weeks  Unit = "W"
	Days   Unit = "D"
)

// perYear is how many of each unit make up a year.
var perYear = map[Unit]float64{
	Years:  1,
	Months: 12,
	Weeks:  52,
	Days:   365,
}

var labelPattern = regexp.MustCompile(`^(\d+)\s*([YMWDymwd])$`)

// Label is a parsed horizon label.
type Label struct {
	Amount int
	Unit   Unit
}

// String returns the canonical form, e.g. "6M".
func (l Label) String() string {
	return fmt.Sprintf("%d%s", l.Amount, l.Unit)
}

// Years converts the label to a horizon in years.
func (l Label) Years() float64 {
	return float64(l.Amount) / perYear[l.Unit]
}

// Parse parses a horizon label.
func Parse(value string) (Label, error) {
	text := strings.TrimSpace(value)
	match := labelPattern.FindStringSubmatch(text)
	if match == nil {
		return Label{}, fmt.Errorf("invalid horizon %q: expected <number><unit> (e.g. 6M, 3Y) with unit Y, M, W or D", value)
	}
	amount, err := strconv.Atoi(match[1])
	if err != nil {
		return Label{}, fmt.Errorf("invalid horizon %q: %w", value, err)
	}
	if amount <= 0 {
		return Label{}, fmt.Errorf("invalid horizon %q: value must be greater than zero", value)
	}
	return Label{Amount: amount, Unit: Unit(strings.ToUpper(match[2]))}, nil
}

// Normalize returns the canonical label for value. Blank input yields "" and no error.
func Normalize(value string) (string, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	l, err := Parse(value)
	if err != nil {
		return "", err
	}
	return l.String(), nil
}

// ToYears parses value and converts it to years.
func ToYears(value string) (float64, error) {
	l, err := Parse(value)
	if err != nil {
		return 0, err
	}
	return l.Years(), nil
}

// Merge combines label lists into a de-duplicated list of canonical labels sorted
// by length of time, shortest first. Invalid and blank labels are dropped.
func Merge(lists ...[]string) []string {
	seen := make(map[string]Label)
	for _, list := range lists {
		for _, value := range list {
			l, err := Parse(value)
			if err != nil {
				continue
			}
			seen[l.String()] = l
		}
	}

	labels := make([]Label, 0, len(seen))
	for _, l := range seen {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		yi, yj := labels[i].Years(), labels[j].Years()
		if yi != yj {
			return yi < yj
		}
		return labels[i].String() < labels[j].String()
	})

	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = l.String()
	}
	return out
}
