package enums

import "fmt"

// PeriodStatus tracks a settlement period through its payment lifecycle.
// Transitions are monotonic: pending -> processing -> paid.
type PeriodStatus string

const (
	PeriodStatusPending    PeriodStatus = "pending"
	PeriodStatusProcessing PeriodStatus = "processing"
	PeriodStatusPaid       PeriodStatus = "paid"
)

var validPeriodStatuses = []PeriodStatus{
	PeriodStatusPending,
	PeriodStatusProcessing,
	PeriodStatusPaid,
}

// String implements fmt.Stringer.
func (p PeriodStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PeriodStatus) IsValid() bool {
	for _, candidate := range validPeriodStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePeriodStatus converts raw input into a PeriodStatus.
func ParsePeriodStatus(value string) (PeriodStatus, error) {
	for _, candidate := range validPeriodStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid period status %q", value)
}
