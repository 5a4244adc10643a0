package enums

import "fmt"

// SubscriptionType names the kind of entity a socket client can subscribe to.
type SubscriptionType string

const (
	SubscriptionTypeOrder    SubscriptionType = "ORDER"
	SubscriptionTypeDispatch SubscriptionType = "DISPATCH"
)

var validSubscriptionTypes = []SubscriptionType{
	SubscriptionTypeOrder,
	SubscriptionTypeDispatch,
}

// String implements fmt.Stringer.
func (s SubscriptionType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SubscriptionType.
func (s SubscriptionType) IsValid() bool {
	for _, candidate := range validSubscriptionTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// SubscriptionTypes returns every known subscription type.
func SubscriptionTypes() []SubscriptionType {
	out := make([]SubscriptionType, len(validSubscriptionTypes))
	copy(out, validSubscriptionTypes)
	return out
}

// ParseSubscriptionType converts raw input into a SubscriptionType.
func ParseSubscriptionType(value string) (SubscriptionType, error) {
	for _, candidate := range validSubscriptionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid subscription type %q", value)
}
