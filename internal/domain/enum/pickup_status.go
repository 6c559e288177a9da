package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PickupStatus records whether the customer collected the device.
// PickedUp is one-way.
type PickupStatus int

const (
	PickupStatusNotPickedUp PickupStatus = 0
	PickupStatusPickedUp    PickupStatus = 1
)

func (s PickupStatus) String() string {
	switch s {
	case PickupStatusNotPickedUp:
		return "NotPickedUp"
	case PickupStatusPickedUp:
		return "PickedUp"
	}
	return fmt.Sprintf("PickupStatus(%d)", int(s))
}

func (s PickupStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *PickupStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = PickupStatus(i)
		return nil
	}
	parsed, err := ParsePickupStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParsePickupStatus parses a pickup status name.
func ParsePickupStatus(str string) (PickupStatus, error) {
	switch str {
	case "NotPickedUp":
		return PickupStatusNotPickedUp, nil
	case "PickedUp":
		return PickupStatusPickedUp, nil
	}
	return 0, fmt.Errorf("unknown pickup status %q", str)
}

func (s PickupStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *PickupStatus) Scan(value interface{}) error {
	if value == nil {
		*s = PickupStatusNotPickedUp
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = PickupStatus(v)
	case int:
		*s = PickupStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into PickupStatus", value)
	}
	return nil
}
