package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PaymentStatus tracks how much of a repair has been paid
type PaymentStatus int

const (
	PaymentStatusUnpaid      PaymentStatus = 0
	PaymentStatusDepositPaid PaymentStatus = 1
	PaymentStatusPaidInFull  PaymentStatus = 2
)

var paymentStatusNames = [...]string{"Unpaid", "DepositPaid", "PaidInFull"}

func (s PaymentStatus) String() string {
	if !s.Valid() {
		return fmt.Sprintf("PaymentStatus(%d)", int(s))
	}
	return paymentStatusNames[s]
}

func (s PaymentStatus) Valid() bool {
	return s >= PaymentStatusUnpaid && s <= PaymentStatusPaidInFull
}

// ParsePaymentStatus parses a status name.
func ParsePaymentStatus(str string) (PaymentStatus, error) {
	for i, name := range paymentStatusNames {
		if name == str {
			return PaymentStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown payment status %q", str)
}

func (s PaymentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *PaymentStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*s = PaymentStatus(i)
		if !s.Valid() {
			return fmt.Errorf("unknown payment status %d", i)
		}
		return nil
	}
	parsed, err := ParsePaymentStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s PaymentStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *PaymentStatus) Scan(value interface{}) error {
	if value == nil {
		*s = PaymentStatusUnpaid
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = PaymentStatus(v)
	case int:
		*s = PaymentStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into PaymentStatus", value)
	}
	return nil
}
