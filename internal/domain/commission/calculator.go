// Package commission рассчитывает комиссию платформы и выплату исполнителю.
// Все функции чистые и идемпотентные: повторный вызов с теми же входными
// данными даёт ту же сумму.
package commission

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/entity"
	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/domain/valueobject"
)

var hundred = decimal.NewFromInt(100)

// Source - откуда взято правило комиссии.
type Source string

const (
	SourceNone     Source = "none"
	SourceOrder    Source = "order"
	SourceService  Source = "service_override"
	SourceSettings Source = "global_settings"
)

// Rule - разрешённое правило расчёта.
type Rule struct {
	Type   valueobject.CommissionType
	Value  decimal.Decimal
	Source Source
}

// Calculate считает сумму комиссии от базы.
// percentage: base * value / 100, fixed: value независимо от базы.
func Calculate(base decimal.Decimal, t valueobject.CommissionType, value decimal.Decimal) (decimal.Decimal, error) {
	if err := valueobject.ValidateCommission(t, value); err != nil {
		return decimal.Zero, err
	}
	if t == valueobject.CommissionTypeFixed {
		return valueobject.RoundMoney(value), nil
	}
	return valueobject.RoundMoney(base.Mul(value).Div(hundred)), nil
}

// ResolvePlatform: правило заказа, затем глобальные настройки (если включены), иначе ноль.
func ResolvePlatform(order *entity.Order, settings *entity.GlobalSettings) Rule {
	if order.CommissionExplicit && order.Commission.IsSet() {
		return Rule{Type: order.Commission.Type, Value: order.Commission.Value, Source: SourceOrder}
	}
	if settings != nil && settings.IsCommissionEnabled {
		return Rule{Type: settings.CommissionType, Value: settings.CommissionValue, Source: SourceSettings}
	}
	return Rule{Source: SourceNone}
}

// ResolveCollaborator: активное переопределение услуги, затем глобальные настройки, иначе ноль.
func ResolveCollaborator(override *entity.ServiceCommissionOverride, settings *entity.GlobalSettings) Rule {
	if override != nil && override.IsActive {
		return Rule{Type: override.CommissionType, Value: override.CommissionValue, Source: SourceService}
	}
	if settings != nil && settings.IsCollaboratorCommissionEnabled {
		return Rule{Type: settings.CollaboratorCommissionType, Value: settings.CollaboratorCommissionValue, Source: SourceSettings}
	}
	return Rule{Source: SourceNone}
}

// Amount применяет правило к базе. Для SourceNone сумма нулевая.
func (r Rule) Amount(base decimal.Decimal) (decimal.Decimal, error) {
	if r.Source == SourceNone {
		return decimal.Zero, nil
	}
	return Calculate(base, r.Type, r.Value)
}

func (r Rule) terms(base decimal.Decimal) (entity.CommissionTerms, error) {
	amount, err := r.Amount(base)
	if err != nil {
		return entity.CommissionTerms{}, err
	}
	return entity.CommissionTerms{Type: r.Type, Value: r.Value, Amount: amount}, nil
}

// Apply разрешает правила по текущим настройкам и закрепляет их за заказом.
// Возвращает true, если хотя бы одна сумма изменилась.
func Apply(order *entity.Order, settings *entity.GlobalSettings, override *entity.ServiceCommissionOverride) (bool, error) {
	platform, err := ResolvePlatform(order, settings).terms(order.TotalPrice)
	if err != nil {
		return false, err
	}
	payout, err := ResolveCollaborator(override, settings).terms(order.TotalPrice)
	if err != nil {
		return false, err
	}

	changed := !sameTerms(order.Commission, platform) || !sameTerms(order.CollaboratorCommission, payout)
	order.Commission = platform
	order.CollaboratorCommission = payout
	return changed, nil
}

// ApplyCollaborator заново разрешает только выплату исполнителю, комиссия
// платформы остаётся закреплённой. Используется при смене исполнителя.
func ApplyCollaborator(order *entity.Order, settings *entity.GlobalSettings, override *entity.ServiceCommissionOverride) (bool, error) {
	if order.CommissionFinalizedAt != nil {
		return false, nil
	}
	payout, err := ResolveCollaborator(override, settings).terms(order.TotalPrice)
	if err != nil {
		return false, err
	}
	changed := !sameTerms(order.CollaboratorCommission, payout)
	order.CollaboratorCommission = payout
	return changed, nil
}

// Recompute пересчитывает суммы по уже закреплённым правилам заказа,
// не обращаясь к настройкам.
func Recompute(order *entity.Order) (bool, error) {
	platform, err := recomputeTerms(order.Commission, order.TotalPrice)
	if err != nil {
		return false, err
	}
	payout, err := recomputeTerms(order.CollaboratorCommission, order.TotalPrice)
	if err != nil {
		return false, err
	}

	changed := !sameTerms(order.Commission, platform) || !sameTerms(order.CollaboratorCommission, payout)
	order.Commission = platform
	order.CollaboratorCommission = payout
	return changed, nil
}

// Finalize фиксирует комиссию при завершении заказа. Повторный вызов ничего не меняет.
func Finalize(order *entity.Order, now time.Time) error {
	if order.CommissionFinalizedAt != nil {
		return nil
	}
	if _, err := Recompute(order); err != nil {
		return err
	}
	finalizedAt := now
	order.CommissionFinalizedAt = &finalizedAt
	return nil
}

func recomputeTerms(t entity.CommissionTerms, base decimal.Decimal) (entity.CommissionTerms, error) {
	if !t.IsSet() {
		return entity.CommissionTerms{Amount: decimal.Zero}, nil
	}
	amount, err := Calculate(base, t.Type, t.Value)
	if err != nil {
		return entity.CommissionTerms{}, err
	}
	return entity.CommissionTerms{Type: t.Type, Value: t.Value, Amount: amount}, nil
}

func sameTerms(a, b entity.CommissionTerms) bool {
	return a.Type == b.Type && a.Value.Equal(b.Value) && a.Amount.Equal(b.Amount)
}
