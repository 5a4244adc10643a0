package enums

import "fmt"

// JobName identifies the handler a queued job dispatches to.
type JobName string

const (
	JobDishUpdate              JobName = "dish-update"
	JobCrudUpdate              JobName = "crud-update"
	JobCreateSnapshot          JobName = "create-snapshot"
	JobCreateOwnersDefaultMenu JobName = "create-owners-default-menus"
)

var validJobNames = []JobName{
	JobDishUpdate,
	JobCrudUpdate,
	JobCreateSnapshot,
	JobCreateOwnersDefaultMenu,
}

// String implements fmt.Stringer.
func (j JobName) String() string {
	return string(j)
}

// IsValid reports whether the value is a known JobName.
func (j JobName) IsValid() bool {
	for _, candidate := range validJobNames {
		if candidate == j {
			return true
		}
	}
	return false
}

// ParseJobName converts raw input into a JobName.
func ParseJobName(value string) (JobName, error) {
	for _, candidate := range validJobNames {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid job name %q", value)
}

// JobStatus tracks a queued job through its lifecycle.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

var validJobStatuses = []JobStatus{
	JobStatusPending,
	JobStatusRunning,
	JobStatusCompleted,
	JobStatusFailed,
}

// String implements fmt.Stringer.
func (j JobStatus) String() string {
	return string(j)
}

// IsValid reports whether the value is a known JobStatus.
func (j JobStatus) IsValid() bool {
	for _, candidate := range validJobStatuses {
		if candidate == j {
			return true
		}
	}
	return false
}
