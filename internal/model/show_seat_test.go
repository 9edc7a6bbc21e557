package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowSeat_LockConfirm(t *testing.T) {
	now := time.Date(2026, 1, 1, 18, 0, 0, 0, time.UTC)
	s := ShowSeat{Label: "A1", Status: SeatAvailable}

	require.NoError(t, s.Lock(7, now, 5*time.Minute))
	assert.Equal(t, SeatLocked, s.Status)
	assert.True(t, s.LockedByUser(7, now))
	assert.False(t, s.LockedByUser(8, now))

	assert.ErrorIs(t, s.Lock(8, now.Add(time.Minute), 5*time.Minute), ErrSeatUnavailable)
	assert.ErrorIs(t, s.Lock(7, now.Add(time.Minute), 5*time.Minute), ErrSeatUnavailable)

	assert.ErrorIs(t, s.Confirm(8, now), ErrSeatNotLocked)
	require.NoError(t, s.Confirm(7, now.Add(time.Minute)))
	assert.Equal(t, SeatBooked, s.Status)
	assert.ErrorIs(t, s.Lock(8, now.Add(time.Hour), 5*time.Minute), ErrSeatUnavailable)
}

func TestShowSeat_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 18, 0, 0, 0, time.UTC)
	s := ShowSeat{Label: "B4", Status: SeatAvailable}
	require.NoError(t, s.Lock(1, now, time.Minute))

	later := now.Add(time.Minute)
	assert.True(t, s.LockExpired(later))
	assert.Equal(t, SeatAvailable, s.EffectiveStatus(later))
	assert.ErrorIs(t, s.Confirm(1, later), ErrSeatNotLocked)
	assert.ErrorIs(t, s.Unlock(1, later), ErrSeatNotLocked)

	// an expired lock can be taken over before the sweeper runs
	require.NoError(t, s.Lock(2, later, time.Minute))
	assert.True(t, s.LockedByUser(2, later))

	assert.False(t, s.Expire(later))
	assert.True(t, s.Expire(later.Add(2*time.Minute)))
	assert.Equal(t, SeatAvailable, s.Status)
	assert.Nil(t, s.LockedBy)
}

func TestShowSeat_Unlock(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		holder  uint64
		wantErr error
	}{
		{name: "owner", holder: 3},
		{name: "admin override", holder: 0},
		{name: "someone else", holder: 4, wantErr: ErrSeatNotLocked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ShowSeat{Status: SeatAvailable}
			require.NoError(t, s.Lock(3, now, time.Minute))
			err := s.Unlock(tt.holder, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, SeatLocked, s.Status)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, SeatAvailable, s.Status)
		})
	}
}

func TestShowSeat_Release(t *testing.T) {
	now := time.Now()
	s := ShowSeat{Status: SeatAvailable}
	assert.ErrorIs(t, s.Release(now), ErrSeatNotBooked)
	require.NoError(t, s.Lock(1, now, time.Minute))
	require.NoError(t, s.Confirm(1, now))
	require.NoError(t, s.Release(now))
	assert.Equal(t, SeatAvailable, s.Status)
	assert.EqualValues(t, 3, s.Version)
}
