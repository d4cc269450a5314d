package partition

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseradb/tessera/internal/schema"
	"github.com/tesseradb/tessera/internal/testutil"
)

func TestMonthKeyerCurrentAndNext(t *testing.T) {
	clock := testutil.NewFixedClock(time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC))
	k := MonthKeyer{Clock: clock}

	current, err := k.CurrentPartitionKey()
	require.NoError(t, err)
	assert.Equal(t, "2024_01", current)

	next, err := k.NextPartitionKey()
	require.NoError(t, err)
	assert.Equal(t, "2024_02", next)
}

func TestMonthKeyerYearBoundary(t *testing.T) {
	clock := testutil.NewFixedClock(time.Date(2024, time.December, 31, 23, 59, 0, 0, time.UTC))
	k := MonthKeyer{Clock: clock}

	current, err := k.CurrentPartitionKey()
	require.NoError(t, err)
	assert.Equal(t, "2024_12", current)

	next, err := k.NextPartitionKey()
	require.NoError(t, err)
	assert.Equal(t, "2025_01", next, "December rolls over to January of the next year")
}

func TestMonthKeyerFormatOverride(t *testing.T) {
	clock := testutil.NewFixedClock(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	k := MonthKeyer{Clock: clock, Format: "2006-01"}

	current, err := k.CurrentPartitionKey()
	require.NoError(t, err)
	assert.Equal(t, "2024-03", current)
}

type timestampedInstance struct{ at time.Time }

func (i timestampedInstance) PartitionTimestamp() time.Time { return i.at }

func TestMonthKeyerPartitionKeyFor(t *testing.T) {
	k := MonthKeyer{}
	at := time.Date(2023, time.July, 4, 0, 0, 0, 0, time.UTC)

	key, err := k.PartitionKeyFor(timestampedInstance{at: at})
	require.NoError(t, err)
	assert.Equal(t, "2023_07", key)

	key, err = k.PartitionKeyFor(at)
	require.NoError(t, err)
	assert.Equal(t, "2023_07", key)

	_, err = k.PartitionKeyFor(struct{}{})
	require.Error(t, err)
	assert.True(t, schema.IsNotImplemented(err))
}

func TestUnimplementedKeyer(t *testing.T) {
	k := UnimplementedKeyer{Entity: "Star"}

	_, err := k.CurrentPartitionKey()
	require.Error(t, err)
	assert.True(t, schema.IsNotImplemented(err))
	assert.Contains(t, err.Error(), "Star")

	_, err = k.NextPartitionKey()
	assert.True(t, schema.IsNotImplemented(err))

	_, err = k.PartitionKeyFor(nil)
	assert.True(t, schema.IsNotImplemented(err))
}
