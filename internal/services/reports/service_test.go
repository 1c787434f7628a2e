package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"labelcheck/internal/adapters/memory"
	"labelcheck/internal/domain"
	"labelcheck/internal/ports"
)

func setup(t *testing.T) (*Service, int64, int64) {
	t.Helper()
	store := memory.New()
	alice, err := store.CreateUser(context.Background(), domain.User{Email: "alice@example.com"})
	require.NoError(t, err)
	bob, err := store.CreateUser(context.Background(), domain.User{Email: "bob@example.com"})
	require.NoError(t, err)
	return New(store, zap.NewNop()), alice.ID, bob.ID
}

func record(risk domain.RiskLevel) domain.AssessmentRecord {
	return domain.AssessmentRecord{OverallRisk: risk, Verdict: "v", VerdictZh: "v"}
}

func TestSaveDerivesScoreAndID(t *testing.T) {
	svc, alice, _ := setup(t)
	ctx := context.Background()
	for risk, want := range map[domain.RiskLevel]int{domain.RiskLow: 1, domain.RiskMedium: 2, domain.RiskHigh: 3} {
		r, err := svc.Save(ctx, alice, "Lemon soda", domain.LangEN, record(risk))
		require.NoError(t, err)
		assert.Equal(t, want, r.Score)
		_, err = uuid.Parse(r.ExternalID)
		assert.NoError(t, err)
		assert.Equal(t, alice, r.OwnerID)
	}
}

func TestSaveDefaultTitle(t *testing.T) {
	svc, alice, _ := setup(t)
	svc.now = func() time.Time { return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) }
	r, err := svc.Save(context.Background(), alice, "   ", domain.LangZH, record(domain.RiskLow))
	require.NoError(t, err)
	assert.Equal(t, "Compliance report 2026-03-04", r.Title)
	assert.Equal(t, domain.LangZH, r.Language)
}

func TestListNewestFirstAndBounded(t *testing.T) {
	svc, alice, bob := setup(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < MaxListLimit+5; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		svc.now = func() time.Time { return at }
		_, err := svc.Save(ctx, alice, "", domain.LangEN, record(domain.RiskLow))
		require.NoError(t, err)
	}

	list, err := svc.List(ctx, alice, 0)
	require.NoError(t, err)
	require.Len(t, list, DefaultListLimit)
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))

	list, err = svc.List(ctx, alice, 1000)
	require.NoError(t, err)
	assert.Len(t, list, MaxListLimit)

	list, err = svc.List(ctx, bob, 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOwnershipIsolation(t *testing.T) {
	svc, alice, bob := setup(t)
	ctx := context.Background()
	r, err := svc.Save(ctx, alice, "mine", domain.LangEN, record(domain.RiskHigh))
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob, r.ExternalID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, bob, r.ExternalID), domain.ErrNotFound)

	got, err := svc.Get(ctx, alice, r.ExternalID)
	require.NoError(t, err)
	assert.Equal(t, "mine", got.Title)

	require.NoError(t, svc.Delete(ctx, alice, r.ExternalID))
	_, err = svc.Get(ctx, alice, r.ExternalID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, alice, r.ExternalID), domain.ErrNotFound)
}

func TestMalformedIDIsNotFound(t *testing.T) {
	svc, alice, _ := setup(t)
	_, err := svc.Get(context.Background(), alice, "../../etc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(context.Background(), alice, "42"), domain.ErrNotFound)
}

type brokenRepo struct{ ports.ReportRepository }

func (brokenRepo) ListReports(context.Context, int64, int) ([]domain.SavedReport, error) {
	return nil, errors.New("connection refused")
}

func TestStoreFailureIsReduced(t *testing.T) {
	svc := New(brokenRepo{}, zap.NewNop())
	_, err := svc.List(context.Background(), 1, 10)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.NotContains(t, err.Error(), "connection refused")
}
