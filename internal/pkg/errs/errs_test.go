package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMark(t *testing.T) {
	cause := New("remote said no")
	marked := Mark(cause, ErrExternalBuyFailed)

	require.True(t, Is(marked, ErrExternalBuyFailed))
	require.False(t, errors.Is(marked, ErrExternalBuyFailed))
	require.True(t, Is(marked, cause))
	require.Contains(t, marked.Error(), "remote said no")

	require.Equal(t, ErrNotFound, Mark(nil, ErrNotFound))
}

func TestWrapNil(t *testing.T) {
	require.NoError(t, Wrap(nil, "context"))
	require.NoError(t, Wrapf(nil, "context %d", 1))

	err := Wrap(ErrInsufficientFunds, "reserve")
	require.ErrorIs(t, err, ErrInsufficientFunds)
	require.Equal(t, "reserve: insufficient funds", err.Error())
}

func TestIsBudgetRejection(t *testing.T) {
	require.True(t, IsBudgetRejection(Wrap(ErrDailyBudgetExceeded, "reserve")))
	require.True(t, IsBudgetRejection(ErrSupplyExhausted))
	require.False(t, IsBudgetRejection(ErrExternalBuyFailed))
	require.False(t, IsBudgetRejection(nil))
}
