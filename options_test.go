package zsock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workspace-9/zsock"
)

func TestHighWaterMarkText(t *testing.T) {
	for _, hwm := range []zsock.HighWaterMark{zsock.Unlimited, zsock.Limited(1), zsock.Limited(5000)} {
		text, err := hwm.MarshalText()
		require.NoError(t, err)

		var decoded zsock.HighWaterMark
		require.NoError(t, decoded.UnmarshalText(text))
		assert.Equal(t, hwm, decoded)
	}

	var hwm zsock.HighWaterMark
	assert.Error(t, hwm.UnmarshalText([]byte("0")))
	assert.Error(t, hwm.UnmarshalText([]byte("lots")))
	assert.True(t, hwm.IsUnlimited())
}

func TestLimitedRejectsZero(t *testing.T) {
	assert.Panics(t, func() { zsock.Limited(0) })
	assert.Panics(t, func() { zsock.Limited(-3) })

	limit, ok := zsock.Limited(3).Limit()
	assert.True(t, ok)
	assert.Equal(t, 3, limit)
	_, ok = zsock.Unlimited.Limit()
	assert.False(t, ok)
}

func TestPeriodText(t *testing.T) {
	for _, period := range []zsock.Period{zsock.Infinite, zsock.Finite(0), zsock.Finite(1500 * time.Millisecond)} {
		text, err := period.MarshalText()
		require.NoError(t, err)

		var decoded zsock.Period
		require.NoError(t, decoded.UnmarshalText(text))
		assert.Equal(t, period, decoded)
	}

	var period zsock.Period
	assert.Error(t, period.UnmarshalText([]byte("-1s")))
	assert.Panics(t, func() { zsock.Finite(-time.Second) })
}

func TestDurationText(t *testing.T) {
	d := zsock.Duration(90 * time.Second)
	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	var decoded zsock.Duration
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, d, decoded)
}
