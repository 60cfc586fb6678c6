package main

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/siphon/internal/common"
	"github.com/Veraticus/siphon/internal/model"
	"github.com/Veraticus/siphon/internal/storage"
	"github.com/Veraticus/siphon/internal/testutil"
)

func TestSubscriptionsCmd(t *testing.T) {
	cmd := subscriptionsCmd()
	for _, name := range []string{"list", "add", "update", "cancel", "delete"} {
		assert.NotNil(t, findSubcommand(cmd, name), "%s subcommand should exist", name)
	}

	addCmd := findSubcommand(cmd, "add")
	require.NotNil(t, addCmd)
	for _, flag := range []string{"amount", "currency", "cycle", "start", "next", "service", "category", "payment", "note", "reminder-days"} {
		assert.NotNil(t, addCmd.Flag(flag), "%s flag should exist", flag)
	}
	assert.Nil(t, addCmd.Flag("name"))
}

func TestSubscriptionsCmd_AddUsesServiceDefaultCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	out, err := runCLI(t, db.Path, "subscriptions", "add", "Family plan",
		"--service", "svc-spotify", "--amount", "17.99", "--currency", "eur",
		"--cycle", "monthly", "--start", "2024-02-01", "--next", "2026-11-01")
	require.NoError(t, err)
	assert.Contains(t, out, `Tracking "Family plan"`)

	subs, err := db.Storage.ListSubscriptions(ctx, storage.SubscriptionFilter{})
	require.NoError(t, err)
	require.Len(t, subs, 1)

	sub := subs[0]
	assert.Equal(t, "Spotify", sub.DisplayName())
	assert.Equal(t, int64(1799), sub.AmountCents)
	assert.Equal(t, "EUR", sub.Currency)
	require.NotNil(t, sub.CategoryName)
	assert.Equal(t, "Music", *sub.CategoryName)
	assert.Equal(t, "2024-02-01", sub.StartDate)
}

func TestSubscriptionsCmd_AddRejectsBadInput(t *testing.T) {
	db := testutil.SetupTestDB(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "negative amount", args: []string{"--amount=-5"}},
		{name: "malformed amount", args: []string{"--amount", "5.999"}},
		{name: "unknown cycle", args: []string{"--amount", "5", "--cycle", "biweekly"}},
		{name: "bad date", args: []string{"--amount", "5", "--start", "01/02/2024"}},
		{name: "bad currency", args: []string{"--amount", "5", "--currency", "EURO"}},
		{name: "missing service", args: []string{"--amount", "5", "--service", "svc-nope"}},
		{name: "missing category", args: []string{"--amount", "5", "--category", "cat-nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"subscriptions", "add", "Gym"}, tt.args...)
			_, err := runCLI(t, db.Path, args...)
			require.Error(t, err)
			assert.True(t, common.IsUserError(err), "expected user error, got %v", err)
		})
	}

	subs, err := db.Storage.ListSubscriptions(context.Background(), storage.SubscriptionFilter{})
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestSubscriptionsCmd_ListJSONAndFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	netflixID := db.MustCreateSubscription(testutil.NetflixSubscription())
	gymID := db.MustCreateSubscription(testutil.CustomSubscription("Gym", 3000))

	out, err := runCLI(t, db.Path, "subscriptions", "list", "--json")
	require.NoError(t, err)

	var views []model.SubscriptionView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 2)

	out, err = runCLI(t, db.Path, "subscriptions", "list", "--json", "--category", "cat-entertainment")
	require.NoError(t, err)
	views = nil
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.Equal(t, netflixID, views[0].ID)

	out, err = runCLI(t, db.Path, "subscriptions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Netflix")
	assert.Contains(t, out, "30.00 EUR")
	assert.Contains(t, out, gymID)
}

func TestSubscriptionsCmd_UpdateCancelDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()

	payload := testutil.NetflixSubscription()
	note := "shared with family"
	payload.Note = &note
	id := db.MustCreateSubscription(payload)

	_, err := runCLI(t, db.Path, "subscriptions", "update", id, "--amount", "19.99", "--cycle", "yearly", "--clear", "note,next")
	require.NoError(t, err)

	record, err := db.Storage.GetSubscriptionRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1999), record.AmountCents)
	assert.Equal(t, model.BillingYearly, record.BillingCycle)
	assert.Nil(t, record.Note)
	assert.Nil(t, record.NextBillingDate)
	assert.Equal(t, "Netflix Premium", record.CustomName)

	_, err = runCLI(t, db.Path, "subscriptions", "update", id)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrEmptyUpdate)

	_, err = runCLI(t, db.Path, "subscriptions", "update", id, "--clear", "amount")
	require.Error(t, err)
	assert.True(t, common.IsUserError(err))

	_, err = runCLI(t, db.Path, "subscriptions", "cancel", id)
	require.NoError(t, err)

	record, err = db.Storage.GetSubscriptionRecord(ctx, id)
	require.NoError(t, err)
	assert.False(t, record.IsActive)
	assert.NotNil(t, record.CancelledAt)

	out, err := runCLI(t, db.Path, "subscriptions", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No subscriptions found")

	out, err = runCLI(t, db.Path, "subscriptions", "list", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "cancelled")

	_, err = runCLI(t, db.Path, "subscriptions", "delete", id)
	require.NoError(t, err)

	_, err = runCLI(t, db.Path, "subscriptions", "delete", id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = runCLI(t, db.Path, "subscriptions", "cancel", id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdatePayload_OnlyChangedFlags(t *testing.T) {
	cmd := &cobra.Command{}
	var flags subscriptionFlags
	flags.register(cmd)
	cmd.Flags().StringVar(&flags.name, "name", "", "")
	require.NoError(t, cmd.Flags().Parse([]string{"--payment", "Visa", "--reminder-days", "3"}))

	payload, err := flags.updatePayload(cmd, []string{"category"})
	require.NoError(t, err)

	assert.Equal(t, model.Set("Visa"), payload.PaymentMethod)
	assert.Equal(t, model.Set(int64(3)), payload.ReminderDays)
	assert.Equal(t, model.Null[string](), payload.CategoryID)
	assert.False(t, payload.AmountCents.Set)
	assert.False(t, payload.CustomName.Set)
	assert.False(t, payload.Note.Set)
}
