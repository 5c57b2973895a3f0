package entity

import (
	"fmt"

	"github.com/jhoicas/farms-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Precisión de las columnas: cantidades NUMERIC(18,3) y montos NUMERIC(18,2).
const (
	QuantityScale = 3
	AmountScale   = 2
	numericDigits = 18
)

var (
	quantityLimit = decimal.New(1, numericDigits-QuantityScale)
	amountLimit   = decimal.New(1, numericDigits-AmountScale)
)

// CheckQuantity exige una cantidad positiva que quepa en NUMERIC(18,3) sin redondeo.
func CheckQuantity(q decimal.Decimal) error {
	if !q.IsPositive() {
		return fmt.Errorf("%w: la cantidad debe ser mayor que cero", domain.ErrValidation)
	}
	return checkFits("cantidad", q, QuantityScale, quantityLimit)
}

// CheckAmount exige un monto no negativo que quepa en NUMERIC(18,2) sin redondeo.
func CheckAmount(what string, a decimal.Decimal) error {
	if a.IsNegative() {
		return fmt.Errorf("%w: %s negativo", domain.ErrValidation, what)
	}
	return checkFits(what, a, AmountScale, amountLimit)
}

func checkFits(what string, v decimal.Decimal, scale int32, limit decimal.Decimal) error {
	if !v.Equal(v.Truncate(scale)) {
		return fmt.Errorf("%w: %s admite máximo %d decimales", domain.ErrValidation, what, scale)
	}
	if v.Abs().GreaterThanOrEqual(limit) {
		return fmt.Errorf("%w: %s fuera de rango", domain.ErrValidation, what)
	}
	return nil
}
