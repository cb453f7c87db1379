package source

import (
	"context"
	"testing"
	"time"

	"github.com/fentz26/stageboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(h, m int) time.Time {
	return time.Date(2026, 6, 20, h, m, 0, 0, time.UTC)
}

func TestStaticLoadReturnsCopies(t *testing.T) {
	src := NewStatic([]models.Act{
		{Name: "A", ScheduledStart: at(12, 0), ScheduledEnd: at(13, 0)},
	})

	acts, err := src.Load(context.Background())
	require.NoError(t, err)
	acts[0].Name = "mutated"

	fresh, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A", fresh[0].Name)
}

func TestStaticWriteActual(t *testing.T) {
	src := NewStatic([]models.Act{
		{Name: "A", ScheduledStart: at(12, 0), ScheduledEnd: at(13, 0)},
	})
	ctx := context.Background()

	start := at(12, 5)
	require.NoError(t, src.WriteActual(ctx, "A", FieldStart, &start))
	end := at(12, 50)
	require.NoError(t, src.WriteActual(ctx, "A", FieldEnd, &end))

	acts, err := src.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, acts[0].ActualStart)
	assert.Equal(t, start, *acts[0].ActualStart)
	require.NotNil(t, acts[0].ActualEnd)
	assert.Equal(t, end, *acts[0].ActualEnd)

	// nil clears.
	require.NoError(t, src.WriteActual(ctx, "A", FieldStart, nil))
	acts, _ = src.Load(ctx)
	assert.Nil(t, acts[0].ActualStart)

	assert.ErrorIs(t, src.WriteActual(ctx, "Nobody", FieldStart, &start), ErrActNotFound)
}

func TestStaticUpdateReplacesSchedule(t *testing.T) {
	src := NewStatic([]models.Act{
		{Name: "A", ScheduledStart: at(12, 0), ScheduledEnd: at(13, 0)},
	})

	src.Update([]models.Act{
		{Name: "B", ScheduledStart: at(14, 0), ScheduledEnd: at(15, 0)},
		{Name: "C", ScheduledStart: at(15, 0), ScheduledEnd: at(16, 0)},
	})

	acts, err := src.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, acts, 2)
	assert.Equal(t, "B", acts[0].Name)
}

func TestDefaultSchedule(t *testing.T) {
	day := time.Date(2026, 6, 20, 0, 0, 0, 0, time.UTC)
	acts := DefaultSchedule(day)

	require.Len(t, acts, 8)
	assert.Equal(t, "Sunrise Collective", acts[0].Name)
	assert.Equal(t, "The Headliners", acts[7].Name)

	for i, act := range acts {
		assert.True(t, act.ScheduledEnd.After(act.ScheduledStart), "act %d has non-positive duration", i)
		if i > 0 {
			assert.False(t, act.ScheduledStart.Before(acts[i-1].ScheduledEnd),
				"act %d overlaps its predecessor", i)
		}
		assert.Equal(t, day.Day(), act.ScheduledStart.Day())
	}
}
