package enums

import "fmt"

// RestaurantStatus is a tenant's operating status. Only active restaurants
// accrue new billing periods.
type RestaurantStatus string

const (
	RestaurantStatusActive    RestaurantStatus = "active"
	RestaurantStatusInactive  RestaurantStatus = "inactive"
	RestaurantStatusSuspended RestaurantStatus = "suspended"
	RestaurantStatusOff       RestaurantStatus = "off"
)

var validRestaurantStatuses = []RestaurantStatus{
	RestaurantStatusActive,
	RestaurantStatusInactive,
	RestaurantStatusSuspended,
	RestaurantStatusOff,
}

// String implements fmt.Stringer.
func (r RestaurantStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r RestaurantStatus) IsValid() bool {
	for _, candidate := range validRestaurantStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRestaurantStatus converts raw input into a RestaurantStatus.
func ParseRestaurantStatus(value string) (RestaurantStatus, error) {
	for _, candidate := range validRestaurantStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid restaurant status %q", value)
}
