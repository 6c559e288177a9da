package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ServiceStatus represents the progress of a repair job
type ServiceStatus int

const (
	ServiceStatusAwaitingConfirmation ServiceStatus = 0
	ServiceStatusInProgress           ServiceStatus = 1
	ServiceStatusCompleted            ServiceStatus = 2
	ServiceStatusCancelled            ServiceStatus = 3
)

var serviceStatusNames = [...]string{"AwaitingConfirmation", "InProgress", "Completed", "Cancelled"}

func (s ServiceStatus) String() string {
	if !s.Valid() {
		return fmt.Sprintf("ServiceStatus(%d)", int(s))
	}
	return serviceStatusNames[s]
}

// Valid reports whether s is one of the declared statuses.
func (s ServiceStatus) Valid() bool {
	return s >= ServiceStatusAwaitingConfirmation && s <= ServiceStatusCancelled
}

// CanTransitionTo reports whether a ticket may move from s to next.
// Completed and Cancelled are terminal for the status axis.
func (s ServiceStatus) CanTransitionTo(next ServiceStatus) bool {
	switch s {
	case ServiceStatusAwaitingConfirmation:
		return next == ServiceStatusInProgress || next == ServiceStatusCancelled
	case ServiceStatusInProgress:
		return next == ServiceStatusCompleted || next == ServiceStatusCancelled
	default:
		return false
	}
}

// ParseServiceStatus parses a status name.
func ParseServiceStatus(str string) (ServiceStatus, error) {
	for i, name := range serviceStatusNames {
		if name == str {
			return ServiceStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown service status %q", str)
}

func (s ServiceStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ServiceStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		// Try unmarshaling as int
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = ServiceStatus(i)
		if !s.Valid() {
			return fmt.Errorf("unknown service status %d", i)
		}
		return nil
	}
	parsed, err := ParseServiceStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s ServiceStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *ServiceStatus) Scan(value interface{}) error {
	if value == nil {
		*s = ServiceStatusAwaitingConfirmation
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = ServiceStatus(v)
	case int:
		*s = ServiceStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into ServiceStatus", value)
	}
	return nil
}
