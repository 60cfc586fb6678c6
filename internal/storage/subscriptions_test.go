package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/siphon/internal/model"
)

func int64Ptr(n int64) *int64 { return &n }

func createTestSubscription(t *testing.T, s *SQLiteStorage, payload model.CreateSubscriptionPayload) string {
	t.Helper()
	if payload.CustomName == "" {
		payload.CustomName = "Test subscription"
	}
	if payload.StartDate == "" {
		payload.StartDate = "2025-01-01"
	}
	id, err := s.CreateSubscription(context.Background(), &payload)
	require.NoError(t, err)
	return id
}

// insertRawSubscription bypasses application validation so the schema's own
// constraints are exercised.
func insertRawSubscription(s *SQLiteStorage, id, cycle string, amount int64) error {
	_, err := s.db.Exec(
		`INSERT INTO subscriptions (id, custom_name, amount_cents, billing_cycle, start_date)
		 VALUES (?, 'raw', ?, ?, '2025-01-01')`, id, amount, cycle)
	return wrapDBError(err, "raw insert")
}

func TestCreateSubscription_Defaults(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	id := createTestSubscription(t, store, model.CreateSubscriptionPayload{
		CustomName:  "Gym",
		AmountCents: 2999,
	})

	sub, err := store.GetSubscriptionRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Gym", sub.CustomName)
	assert.Equal(t, int64(2999), sub.AmountCents)
	assert.Equal(t, "EUR", sub.Currency)
	assert.Equal(t, model.BillingMonthly, sub.BillingCycle)
	require.NotNil(t, sub.ReminderDays)
	assert.Equal(t, int64(0), *sub.ReminderDays)
	assert.True(t, sub.IsActive)
	assert.Nil(t, sub.ServiceID)
	assert.Nil(t, sub.CategoryID)
	assert.Nil(t, sub.CancelledAt)
	assert.NotEmpty(t, sub.CreatedAt)
}

func TestCreateSubscription_AllFields(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	id := createTestSubscription(t, store, model.CreateSubscriptionPayload{
		ServiceID:       strPtr("svc-spotify"),
		CategoryID:      strPtr("cat-music"),
		CustomName:      "Spotify Duo",
		AmountCents:     1499,
		Currency:        "usd",
		BillingCycle:    model.BillingYearly,
		StartDate:       "2024-06-01",
		NextBillingDate: strPtr("2025-06-01"),
		PaymentMethod:   strPtr("Visa"),
		ReminderDays:    int64Ptr(3),
		Note:            strPtr("shared with partner"),
	})

	view, err := store.GetSubscription(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "USD", view.Currency)
	assert.Equal(t, model.BillingYearly, view.BillingCycle)
	require.NotNil(t, view.ServiceName)
	assert.Equal(t, "Spotify", *view.ServiceName)
	require.NotNil(t, view.ServiceIconURL)
	assert.Equal(t, "https://logo.clearbit.com/spotify.com", *view.ServiceIconURL)
	require.NotNil(t, view.CategoryName)
	assert.Equal(t, "Music", *view.CategoryName)
	require.NotNil(t, view.CategoryColor)
	assert.Equal(t, "#E67E22", *view.CategoryColor)
	assert.Equal(t, "Spotify", view.DisplayName())
	require.NotNil(t, view.ReminderDays)
	assert.Equal(t, int64(3), *view.ReminderDays)
	require.NotNil(t, view.Note)
	assert.Equal(t, "shared with partner", *view.Note)
}

func TestCreateSubscription_Validation(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	tests := []struct {
		name    string
		payload *model.CreateSubscriptionPayload
		wantErr error
	}{
		{name: "nil payload", payload: nil, wantErr: ErrNilParameter},
		{name: "missing name", payload: &model.CreateSubscriptionPayload{StartDate: "2025-01-01"}, wantErr: ErrInvalidSubscription},
		{name: "missing start date", payload: &model.CreateSubscriptionPayload{CustomName: "x"}, wantErr: ErrInvalidSubscription},
		{name: "negative amount", payload: &model.CreateSubscriptionPayload{CustomName: "x", StartDate: "2025-01-01", AmountCents: -1}, wantErr: ErrInvalidSubscription},
		{name: "bad currency", payload: &model.CreateSubscriptionPayload{CustomName: "x", StartDate: "2025-01-01", Currency: "EURO"}, wantErr: ErrInvalidSubscription},
		{name: "bad cycle", payload: &model.CreateSubscriptionPayload{CustomName: "x", StartDate: "2025-01-01", BillingCycle: "biweekly"}, wantErr: model.ErrInvalidBillingCycle},
		{name: "negative reminder", payload: &model.CreateSubscriptionPayload{CustomName: "x", StartDate: "2025-01-01", ReminderDays: int64Ptr(-2)}, wantErr: ErrInvalidSubscription},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.CreateSubscription(ctx, tt.payload)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, 0, countRows(t, store, "subscriptions"))
}

func TestCreateSubscription_UnknownReferences(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.CreateSubscription(ctx, &model.CreateSubscriptionPayload{
		ServiceID:  strPtr("svc-missing"),
		CustomName: "Ghost",
		StartDate:  "2025-01-01",
	})
	assert.True(t, IsConstraintKind(err, ConstraintForeignKey))

	_, err = store.CreateSubscription(ctx, &model.CreateSubscriptionPayload{
		CategoryID: strPtr("cat-missing"),
		CustomName: "Ghost",
		StartDate:  "2025-01-01",
	})
	assert.True(t, IsConstraintKind(err, ConstraintForeignKey))
}

func TestSchema_BillingCycleCheck(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	err := insertRawSubscription(store, "sub-bad", "biweekly", 100)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConstraintViolation)
	assert.True(t, IsConstraintKind(err, ConstraintCheck))

	require.NoError(t, insertRawSubscription(store, "sub-good", "yearly", 100))

	for _, cycle := range model.BillingCycles() {
		require.NoError(t, insertRawSubscription(store, "sub-"+cycle.String(), cycle.String(), 100))
	}
}

func TestSchema_NegativeAmountRejected(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	err := insertRawSubscription(store, "sub-neg", "monthly", -500)
	require.Error(t, err)
	assert.True(t, IsConstraintKind(err, ConstraintTrigger))

	id := createTestSubscription(t, store, model.CreateSubscriptionPayload{AmountCents: 500})
	_, err = store.db.Exec(`UPDATE subscriptions SET amount_cents = -1 WHERE id = ?`, id)
	assert.True(t, IsConstraintKind(wrapDBError(err, "raw update"), ConstraintTrigger))

	sub, err := store.GetSubscriptionRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(500), sub.AmountCents)
}

func TestSubscriptionView_NullService(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	id := createTestSubscription(t, store, model.CreateSubscriptionPayload{
		CategoryID:  strPtr("cat-health"),
		CustomName:  "Local gym",
		AmountCents: 3500,
		Note:        strPtr("cancel in summer"),
	})

	view, err := store.GetSubscription(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, view.ServiceName)
	assert.Nil(t, view.ServiceIconURL)
	assert.Nil(t, view.ServiceURL)
	assert.Equal(t, "Local gym", view.CustomName)
	assert.Equal(t, "Local gym", view.DisplayName())
	assert.Equal(t, int64(3500), view.AmountCents)
	require.NotNil(t, view.CategoryName)
	assert.Equal(t, "Health & Fitness", *view.CategoryName)
	require.NotNil(t, view.Note)
	assert.Equal(t, "cancel in summer", *view.Note)
}

func TestListSubscriptions_OrderAndFilters(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	later := createTestSubscription(t, store, model.CreateSubscriptionPayload{
		ServiceID: strPtr("svc-netflix"), CategoryID: strPtr("cat-entertainment"),
		CustomName: "Netflix", AmountCents: 1399, NextBillingDate: strPtr("2025-03-10"),
	})
	sooner := createTestSubscription(t, store, model.CreateSubscriptionPayload{
		ServiceID: strPtr("svc-spotify"), CategoryID: strPtr("cat-music"),
		CustomName: "Spotify", AmountCents: 1099, NextBillingDate: strPtr("2025-02-01"),
	})
	cancelled := createTestSubscription(t, store, model.CreateSubscriptionPayload{
		CategoryID: strPtr("cat-music"), CustomName: "Old radio", AmountCents: 500,
		NextBillingDate: strPtr("2025-02-15"),
	})
	require.NoError(t, store.CancelSubscription(ctx, cancelled, time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)))

	all, err := store.ListSubscriptions(ctx, SubscriptionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{sooner, cancelled, later}, []string{all[0].ID, all[1].ID, all[2].ID})

	active, err := store.ListSubscriptions(ctx, SubscriptionFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, sooner, active[0].ID)
	assert.Equal(t, later, active[1].ID)

	music, err := store.ListSubscriptions(ctx, SubscriptionFilter{CategoryID: "cat-music"})
	require.NoError(t, err)
	assert.Len(t, music, 2)

	netflix, err := store.ListSubscriptions(ctx, SubscriptionFilter{ServiceID: "svc-netflix", ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, netflix, 1)
	assert.Equal(t, later, netflix[0].ID)
}

func TestUpdateSubscription_Partial(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	id := createTestSubscription(t, store, model.CreateSubscriptionPayload{
		ServiceID:     strPtr("svc-dropbox"),
		CustomName:    "Dropbox",
		AmountCents:   1199,
		PaymentMethod: strPtr("PayPal"),
		Note:          strPtr("family"),
	})
	before, err := store.GetSubscriptionRecord(ctx, id)
	require.NoError(t, err)

	err = store.UpdateSubscription(ctx, id, &model.UpdateSubscriptionPayload{
		AmountCents:  model.Set(int64(1299)),
		BillingCycle: model.Set(model.BillingYearly),
		Note:         model.Null[string](),
		ServiceID:    model.Null[string](),
	})
	require.NoError(t, err)

	after, err := store.GetSubscriptionRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1299), after.AmountCents)
	assert.Equal(t, model.BillingYearly, after.BillingCycle)
	assert.Nil(t, after.Note)
	assert.Nil(t, after.ServiceID)
	assert.Equal(t, before.CustomName, after.CustomName)
	require.NotNil(t, after.PaymentMethod)
	assert.Equal(t, "PayPal", *after.PaymentMethod)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.NotEmpty(t, after.UpdatedAt)
}

func TestUpdateSubscription_Errors(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	id := createTestSubscription(t, store, model.CreateSubscriptionPayload{AmountCents: 100})

	assert.ErrorIs(t, store.UpdateSubscription(ctx, id, &model.UpdateSubscriptionPayload{}), ErrEmptyUpdate)
	assert.ErrorIs(t, store.UpdateSubscription(ctx, id, nil), ErrNilParameter)
	assert.ErrorIs(t, store.UpdateSubscription(ctx, id, &model.UpdateSubscriptionPayload{
		CustomName: model.Null[string](),
	}), ErrInvalidSubscription)
	assert.ErrorIs(t, store.UpdateSubscription(ctx, id, &model.UpdateSubscriptionPayload{
		AmountCents: model.Set(int64(-5)),
	}), ErrInvalidSubscription)
	assert.ErrorIs(t, store.UpdateSubscription(ctx, id, &model.UpdateSubscriptionPayload{
		BillingCycle: model.Set(model.BillingCycle("biweekly")),
	}), model.ErrInvalidBillingCycle)
	assert.ErrorIs(t, store.UpdateSubscription(ctx, "sub-missing", &model.UpdateSubscriptionPayload{
		Note: model.Set("x"),
	}), ErrNotFound)

	err := store.UpdateSubscription(ctx, id, &model.UpdateSubscriptionPayload{
		CategoryID: model.Set("cat-missing"),
	})
	assert.True(t, IsConstraintKind(err, ConstraintForeignKey))
}

func TestCancelSubscription(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	id := createTestSubscription(t, store, model.CreateSubscriptionPayload{AmountCents: 799})
	at := time.Date(2025, 5, 4, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.CancelSubscription(ctx, id, at))

	sub, err := store.GetSubscriptionRecord(ctx, id)
	require.NoError(t, err)
	assert.False(t, sub.IsActive)
	require.NotNil(t, sub.CancelledAt)
	assert.Equal(t, "2025-05-04T09:00:00Z", *sub.CancelledAt)
}

func TestDeleteSubscription(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	id := createTestSubscription(t, store, model.CreateSubscriptionPayload{AmountCents: 100})
	require.NoError(t, store.DeleteSubscription(ctx, id))

	_, err := store.GetSubscription(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteSubscription(ctx, id), ErrNotFound)
}

func TestDeleteCategory_NullsSubscriptionReference(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	id := createTestSubscription(t, store, model.CreateSubscriptionPayload{
		ServiceID:  strPtr("svc-notion"),
		CategoryID: strPtr("cat-productivity"),
	})
	require.NoError(t, store.DeleteCategory(ctx, "cat-productivity"))

	view, err := store.GetSubscription(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, view.CategoryName)
	require.NotNil(t, view.ServiceName)
	assert.Equal(t, "Notion", *view.ServiceName)
}
