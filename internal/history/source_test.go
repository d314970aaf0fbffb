package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skarani/doubler/internal/market"
)

type fakeProvider struct {
	name   string
	series market.Series
	err    error
	calls  int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Fetch(ctx context.Context, symbol string, years int) (market.Series, error) {
	f.calls++
	return f.series, f.err
}

func someSeries() market.Series {
	bar := market.NewBar(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC))
	bar.Close = 10
	return market.Series{Symbol: "X", Bars: []market.Bar{bar}}
}

func TestSourcePrimaryPreferred(t *testing.T) {
	primary := &fakeProvider{name: "primary", series: someSeries()}
	fallback := &fakeProvider{name: "fallback", series: someSeries()}

	src := NewSource(primary, fallback, 8, testLogger())

	series, err := src.Fetch(context.Background(), "X")
	require.NoError(t, err)
	assert.False(t, series.Empty())
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, fallback.calls, "fallback must not fire when primary succeeds")
}

func TestSourceFallsBackOnPrimaryError(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("boom")}
	fallback := &fakeProvider{name: "fallback", series: someSeries()}

	src := NewSource(primary, fallback, 8, testLogger())

	series, err := src.Fetch(context.Background(), "X")
	require.NoError(t, err)
	assert.False(t, series.Empty())
	assert.Equal(t, 1, fallback.calls)
}

func TestSourceFallsBackOnPrimaryEmpty(t *testing.T) {
	primary := &fakeProvider{name: "primary"} // no error, no bars
	fallback := &fakeProvider{name: "fallback", series: someSeries()}

	src := NewSource(primary, fallback, 8, testLogger())

	series, err := src.Fetch(context.Background(), "X")
	require.NoError(t, err)
	assert.False(t, series.Empty())
}

func TestSourceNoPrimaryConfigured(t *testing.T) {
	fallback := &fakeProvider{name: "fallback", series: someSeries()}

	src := NewSource(nil, fallback, 8, testLogger())

	series, err := src.Fetch(context.Background(), "X")
	require.NoError(t, err)
	assert.False(t, series.Empty())
}

func TestSourceBothFail(t *testing.T) {
	primary := &fakeProvider{name: "primary", err: errors.New("down")}
	fallback := &fakeProvider{name: "fallback", err: ErrNoData}

	src := NewSource(primary, fallback, 8, testLogger())

	_, err := src.Fetch(context.Background(), "X")
	assert.ErrorIs(t, err, ErrNotAvailable)
}
