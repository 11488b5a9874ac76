package entity

// MethodName identifies a payment channel. The set is closed; provider
// adapters are selected by an exhaustive switch on this enum.
type MethodName string

const (
	MethodMTNMoMo     MethodName = "mtn_momo"
	MethodOrangeMoney MethodName = "orange_money"
	MethodCard        MethodName = "card"
	MethodPayPal      MethodName = "paypal"
)

func (m MethodName) Valid() bool {
	switch m {
	case MethodMTNMoMo, MethodOrangeMoney, MethodCard, MethodPayPal:
		return true
	}
	return false
}

// PaymentMethod is immutable reference data created at setup time.
type PaymentMethod struct {
	Base
	Name     MethodName `db:"name"`
	IsActive bool       `db:"is_active"`
}
