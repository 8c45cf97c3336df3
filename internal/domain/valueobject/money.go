package valueobject

import (
	"github.com/shopspring/decimal"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

// MoneyScale - количество знаков после запятой для денежных сумм.
const MoneyScale = 2

var (
	hundred = decimal.NewFromInt(100)
	// moneyLimit - первое значение, не помещающееся в NUMERIC(12,2).
	moneyLimit = decimal.New(1, 10)
)

// RoundMoney округляет сумму до копеек.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// ParseMoney разбирает строковое представление суммы.
func ParseMoney(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperror.Validation("некорректная денежная сумма")
	}
	return RoundMoney(d), nil
}

type CommissionType string

const (
	CommissionTypePercentage CommissionType = "percentage"
	CommissionTypeFixed      CommissionType = "fixed"
)

func (t CommissionType) IsValid() bool {
	return t == CommissionTypePercentage || t == CommissionTypeFixed
}

func NewCommissionType(raw string) (CommissionType, error) {
	t := CommissionType(raw)
	if !t.IsValid() {
		return "", apperror.Validation("тип комиссии должен быть percentage или fixed")
	}
	return t, nil
}

// ValidateCommission проверяет значение комиссии: не отрицательное, процент не выше 100,
// не больше двух знаков после запятой. Значения вне диапазона отклоняются, а не обрезаются,
// поэтому оба хранилища видят одно и то же число.
func ValidateCommission(t CommissionType, value decimal.Decimal) error {
	if !t.IsValid() {
		return apperror.Validation("тип комиссии должен быть percentage или fixed")
	}
	if value.IsNegative() {
		return apperror.Validation("значение комиссии не может быть отрицательным")
	}
	if t == CommissionTypePercentage && value.GreaterThan(hundred) {
		return apperror.Validation("процент комиссии не может превышать 100")
	}
	if !value.Equal(value.Round(MoneyScale)) {
		return apperror.Validation("значение комиссии допускает не больше двух знаков после запятой")
	}
	if value.GreaterThanOrEqual(moneyLimit) {
		return apperror.Validation("значение комиссии слишком велико")
	}
	return nil
}
