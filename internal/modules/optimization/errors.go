package optimization

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSnapshot wraps every input validation failure.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// UnsatisfiableBucketError is returned when a bucket has no eligible tenor for a
// required risk group.
type UnsatisfiableBucketError struct {
	BucketID string
	Group    RiskGroup
	Horizon  float64
}

func (e *UnsatisfiableBucketError) Error() string {
	return fmt.Sprintf("bucket %s: no eligible %s tenor within horizon %g", e.BucketID, e.Group, e.Horizon)
}

// InfeasibleAllocationError is returned when minima, parity and conservation cannot
// hold together.
type InfeasibleAllocationError struct {
	BucketIDs []string
	Required  float64
	Available float64
}

func (e *InfeasibleAllocationError) Error() string {
	return fmt.Sprintf("infeasible allocation for buckets [%s]: minima require %.6f but only %.6f is available",
		strings.Join(e.BucketIDs, ", "), e.Required, e.Available)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidSnapshot, fmt.Sprintf(format, args...))
}
