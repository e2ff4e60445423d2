package allocation

import (
	"strings"

	"github.com/aristath/riskalloc/internal/utils"
)

// unspecifiedAliases are currency entries that mean "no particular currency".
var unspecifiedAliases = map[string]bool{
	"UNSPECIFIED": true,
	"NONE":        true,
	"N/A":         true,
	"NA":          true,
}

// ParseCurrencyCodes splits a comma-separated currency list into upper-case,
// de-duplicated codes in first-seen order. Aliases such as "N/A" are dropped, so
// an input made only of aliases yields an empty, non-nil slice.
func ParseCurrencyCodes(s string) []string {
	values := utils.ParseCSV(s)
	if values == nil {
		return nil
	}

	codes := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		code := strings.ToUpper(v)
		if unspecifiedAliases[code] || seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes
}
