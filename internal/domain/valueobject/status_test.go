package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ouchin55edcx/ls-sademy-api-sub000/internal/pkg/apperror"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusInProgress, false},
		{OrderStatusConfirmed, OrderStatusInProgress, true},
		{OrderStatusInProgress, OrderStatusUnderReview, true},
		{OrderStatusUnderReview, OrderStatusCompleted, true},
		{OrderStatusUnderReview, OrderStatusInProgress, true},
		{OrderStatusInProgress, OrderStatusCompleted, false},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatus_CancelFromEveryNonTerminal(t *testing.T) {
	for _, s := range AllOrderStatuses() {
		if s.IsTerminal() {
			assert.False(t, s.CanTransitionTo(OrderStatusCancelled), s)
			continue
		}
		assert.True(t, s.CanTransitionTo(OrderStatusCancelled), s)
	}
}

func TestNewOrderStatus_Invalid(t *testing.T) {
	_, err := NewOrderStatus("draft")
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestValidateCommission(t *testing.T) {
	assert.NoError(t, ValidateCommission(CommissionTypePercentage, decimal.NewFromInt(100)))
	assert.NoError(t, ValidateCommission(CommissionTypeFixed, decimal.NewFromInt(5000)))

	err := ValidateCommission(CommissionTypePercentage, decimal.RequireFromString("100.01"))
	assert.True(t, apperror.IsValidation(err))

	err = ValidateCommission(CommissionTypeFixed, decimal.NewFromInt(-1))
	assert.True(t, apperror.IsValidation(err))

	err = ValidateCommission("tiered", decimal.NewFromInt(1))
	assert.True(t, apperror.IsValidation(err))
}

func TestValidateCommission_Scale(t *testing.T) {
	assert.NoError(t, ValidateCommission(CommissionTypePercentage, decimal.RequireFromString("12.5")))
	assert.NoError(t, ValidateCommission(CommissionTypePercentage, decimal.RequireFromString("12.50")))
	assert.NoError(t, ValidateCommission(CommissionTypePercentage, decimal.RequireFromString("12.500")))
	assert.NoError(t, ValidateCommission(CommissionTypeFixed, decimal.RequireFromString("9999999999.99")))

	err := ValidateCommission(CommissionTypePercentage, decimal.RequireFromString("12.345"))
	assert.True(t, apperror.IsValidation(err))

	err = ValidateCommission(CommissionTypeFixed, decimal.RequireFromString("0.001"))
	assert.True(t, apperror.IsValidation(err))

	err = ValidateCommission(CommissionTypeFixed, decimal.RequireFromString("10000000000"))
	assert.True(t, apperror.IsValidation(err))
}

func TestNewRole(t *testing.T) {
	r, err := NewRole("collaborator")
	require.NoError(t, err)
	assert.Equal(t, RoleCollaborator, r)

	_, err = NewRole("moderator")
	assert.Error(t, err)
}
