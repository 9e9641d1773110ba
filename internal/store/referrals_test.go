package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"referral-bot/internal/models"
)

func int64ptr(v int64) *int64 { return &v }

func TestAwardRequiresVerification(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	seedAccount(t, db, models.Account{TgID: 10, FirstName: "Referrer"})
	seedAccount(t, db, models.Account{TgID: 20, ReferredBy: int64ptr(10)})

	_, err := s.AwardReferralIfNeeded(ctx, 20)
	require.ErrorIs(t, err, ErrNoAward)

	ref, err := s.GetAccount(ctx, 10)
	require.NoError(t, err)
	require.EqualValues(t, 0, ref.Points)
	require.EqualValues(t, 0, ref.Referrals)
}

func TestAwardRequiresReferrer(t *testing.T) {
	s, db := newTestStore(t)

	seedAccount(t, db, models.Account{TgID: 20, Verified: true})

	_, err := s.AwardReferralIfNeeded(context.Background(), 20)
	require.ErrorIs(t, err, ErrNoAward)
}

func TestAwardUnknownAccount(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.AwardReferralIfNeeded(context.Background(), 404)
	require.ErrorIs(t, err, ErrNoAward)
}

func TestAwardExactlyOnce(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	seedAccount(t, db, models.Account{TgID: 10, FirstName: "Referrer"})
	seedAccount(t, db, models.Account{TgID: 20, Verified: true, ReferredBy: int64ptr(10)})

	referrer, err := s.AwardReferralIfNeeded(ctx, 20)
	require.NoError(t, err)
	require.EqualValues(t, 10, referrer)

	// Second delivery of the same event must not credit again.
	_, err = s.AwardReferralIfNeeded(ctx, 20)
	require.ErrorIs(t, err, ErrNoAward)

	ref, err := s.GetAccount(ctx, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, ref.Points)
	require.EqualValues(t, 1, ref.Referrals)

	referred, err := s.GetAccount(ctx, 20)
	require.NoError(t, err)
	require.True(t, referred.ReferralAwarded)
}

func TestAwardConcurrentDeliveries(t *testing.T) {
	s, db := newTestStore(t)
	ctx := context.Background()

	seedAccount(t, db, models.Account{TgID: 10})
	seedAccount(t, db, models.Account{TgID: 20, Verified: true, ReferredBy: int64ptr(10)})

	const n = 8
	var wg sync.WaitGroup
	awards := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if referrer, err := s.AwardReferralIfNeeded(ctx, 20); err == nil {
				awards <- referrer
			}
		}()
	}
	wg.Wait()
	close(awards)

	require.Len(t, collect(awards), 1)

	ref, err := s.GetAccount(ctx, 10)
	require.NoError(t, err)
	require.EqualValues(t, 1, ref.Points)
	require.EqualValues(t, 1, ref.Referrals)
}

func collect(ch chan int64) []int64 {
	var out []int64
	for v := range ch {
		out = append(out, v)
	}
	return out
}
