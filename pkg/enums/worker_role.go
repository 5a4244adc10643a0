package enums

import "fmt"

// WorkerRole represents the back-office role of an authenticated worker.
type WorkerRole string

const (
	WorkerRoleSystemAdmin WorkerRole = "system_admin"
	WorkerRoleOwner       WorkerRole = "owner"
	WorkerRoleAdmin       WorkerRole = "admin"
	WorkerRoleWaiter      WorkerRole = "waiter"
	WorkerRoleKitchen     WorkerRole = "kitchen"
	WorkerRoleCashier     WorkerRole = "cashier"
	WorkerRoleDispatcher  WorkerRole = "dispatcher"
	WorkerRoleCourier     WorkerRole = "courier"
)

var validWorkerRoles = []WorkerRole{
	WorkerRoleSystemAdmin,
	WorkerRoleOwner,
	WorkerRoleAdmin,
	WorkerRoleWaiter,
	WorkerRoleKitchen,
	WorkerRoleCashier,
	WorkerRoleDispatcher,
	WorkerRoleCourier,
}

// String implements fmt.Stringer.
func (w WorkerRole) String() string {
	return string(w)
}

// IsValid reports whether the value is a known WorkerRole.
func (w WorkerRole) IsValid() bool {
	for _, candidate := range validWorkerRoles {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWorkerRole converts raw input into a WorkerRole.
func ParseWorkerRole(value string) (WorkerRole, error) {
	for _, candidate := range validWorkerRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid worker role %q", value)
}
