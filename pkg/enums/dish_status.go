package enums

import "fmt"

// DishStatus tracks the kitchen lifecycle of a single order dish line.
type DishStatus string

const (
	DishStatusPending   DishStatus = "pending"
	DishStatusCooking   DishStatus = "cooking"
	DishStatusReady     DishStatus = "ready"
	DishStatusCompleted DishStatus = "completed"
)

var validDishStatuses = []DishStatus{
	DishStatusPending,
	DishStatusCooking,
	DishStatusReady,
	DishStatusCompleted,
}

// dishStatusRank orders statuses along the forward-only pipeline.
var dishStatusRank = map[DishStatus]int{
	DishStatusPending:   0,
	DishStatusCooking:   1,
	DishStatusReady:     2,
	DishStatusCompleted: 3,
}

// String implements fmt.Stringer.
func (d DishStatus) String() string {
	return string(d)
}

// IsValid reports whether the value is a known DishStatus.
func (d DishStatus) IsValid() bool {
	for _, candidate := range validDishStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// Rank returns the position of the status in the forward pipeline.
func (d DishStatus) Rank() int {
	if rank, ok := dishStatusRank[d]; ok {
		return rank
	}
	return -1
}

// IsKitchenDone reports whether the line already reached the kitchen-ready side
// of the pipeline. Re-adding the same dish past this point marks the new line
// as additional.
func (d DishStatus) IsKitchenDone() bool {
	return d == DishStatusReady || d == DishStatusCompleted
}

// ParseDishStatus converts raw input into a DishStatus.
func ParseDishStatus(value string) (DishStatus, error) {
	for _, candidate := range validDishStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid dish status %q", value)
}
