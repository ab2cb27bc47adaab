package enums

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("pending")
	require.NoError(t, err)
	require.Equal(t, OrderStatusPending, status)
	require.True(t, status.IsValid())

	_, err = ParseOrderStatus("shipped")
	require.Error(t, err)
	require.False(t, OrderStatus("shipped").IsValid())
}

func TestParseAddressKind(t *testing.T) {
	kind, err := ParseAddressKind("billing")
	require.NoError(t, err)
	require.Equal(t, AddressKindBilling, kind)

	_, err = ParseAddressKind("home")
	require.Error(t, err)
}

func TestOutboxEnums(t *testing.T) {
	eventType, err := ParseOutboxEventType("low_stock")
	require.NoError(t, err)
	require.Equal(t, EventLowStock, eventType)
	require.True(t, EventOrderPlaced.IsValid())
	require.False(t, OutboxEventType("order_created").IsValid())

	agg, err := ParseOutboxAggregateType("stock_unit")
	require.NoError(t, err)
	require.Equal(t, AggregateStockUnit, agg)
	_, err = ParseOutboxAggregateType("store")
	require.Error(t, err)
}

func TestOutboxDLQErrorReason(t *testing.T) {
	require.True(t, OutboxDLQReasonMaxAttempts.IsValid())
	require.True(t, OutboxDLQReasonNonRetryable.IsValid())
	require.False(t, OutboxDLQErrorReason("timeout").IsValid())
}
