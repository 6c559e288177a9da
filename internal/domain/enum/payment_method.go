package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// PaymentMethod is how the customer agreed to pay for a repair
type PaymentMethod int

const (
	PaymentMethodPayLater    PaymentMethod = 0
	PaymentMethodDepositHalf PaymentMethod = 1
	PaymentMethodPayInFull   PaymentMethod = 2
)

var paymentMethodNames = [...]string{"PayLater", "DepositHalf", "PayInFull"}

func (m PaymentMethod) String() string {
	if !m.Valid() {
		return fmt.Sprintf("PaymentMethod(%d)", int(m))
	}
	return paymentMethodNames[m]
}

func (m PaymentMethod) Valid() bool {
	return m >= PaymentMethodPayLater && m <= PaymentMethodPayInFull
}

// ParsePaymentMethod parses a method name.
func ParsePaymentMethod(str string) (PaymentMethod, error) {
	for i, name := range paymentMethodNames {
		if name == str {
			return PaymentMethod(i), nil
		}
	}
	return 0, fmt.Errorf("unknown payment method %q", str)
}

func (m PaymentMethod) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *PaymentMethod) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		*m = PaymentMethod(i)
		if !m.Valid() {
			return fmt.Errorf("unknown payment method %d", i)
		}
		return nil
	}
	parsed, err := ParsePaymentMethod(str)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m PaymentMethod) Value() (driver.Value, error) {
	return int64(m), nil
}

func (m *PaymentMethod) Scan(value interface{}) error {
	if value == nil {
		*m = PaymentMethodPayLater
		return nil
	}
	switch v := value.(type) {
	case int64:
		*m = PaymentMethod(v)
	case int:
		*m = PaymentMethod(v)
	default:
		return fmt.Errorf("cannot scan %T into PaymentMethod", value)
	}
	return nil
}
