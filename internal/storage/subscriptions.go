package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/Veraticus/siphon/internal/model"
)

// SubscriptionFilter narrows ListSubscriptions. Zero value lists everything.
type SubscriptionFilter struct {
	CategoryID string
	ServiceID  string
	ActiveOnly bool
}

var subscriptionViewColumns = []string{
	"sub.id",
	"sub.custom_name",
	"svc.name AS service_name",
	"svc.icon_url AS service_icon_url",
	"svc.url AS service_url",
	"cat.name AS category_name",
	"cat.color AS category_color",
	"sub.amount_cents",
	"sub.currency",
	"sub.billing_cycle",
	"sub.start_date",
	"sub.next_billing_date",
	"sub.payment_method",
	"sub.reminder_days",
	"sub.note",
	"sub.is_active",
	"sub.cancelled_at",
	"sub.created_at",
	"sub.updated_at",
}

const subscriptionColumns = `id, service_id, category_id, custom_name, amount_cents, currency,
	billing_cycle, start_date, next_billing_date, payment_method, reminder_days, note,
	is_active, cancelled_at, created_at, updated_at`

// subscriptionViewQuery joins each subscription with its service and
// category; missing references yield NULL columns rather than dropping rows.
func subscriptionViewQuery() squirrel.SelectBuilder {
	return squirrel.Select(subscriptionViewColumns...).
		From("subscriptions sub").
		LeftJoin("services svc ON sub.service_id = svc.id").
		LeftJoin("categories cat ON sub.category_id = cat.id")
}

func scanSubscriptionView(row rowScanner) (model.SubscriptionView, error) {
	var (
		v                                      model.SubscriptionView
		serviceName, serviceIcon, serviceURL   sql.NullString
		categoryName, categoryColor            sql.NullString
		nextBilling, paymentMethod, note, canc sql.NullString
		reminderDays                           sql.NullInt64
		cycle                                  string
	)
	err := row.Scan(
		&v.ID, &v.CustomName,
		&serviceName, &serviceIcon, &serviceURL,
		&categoryName, &categoryColor,
		&v.AmountCents, &v.Currency, &cycle, &v.StartDate,
		&nextBilling, &paymentMethod, &reminderDays, &note,
		&v.IsActive, &canc, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return model.SubscriptionView{}, err
	}

	v.BillingCycle = model.BillingCycle(cycle)
	v.ServiceName = nullStringPtr(serviceName)
	v.ServiceIconURL = nullStringPtr(serviceIcon)
	v.ServiceURL = nullStringPtr(serviceURL)
	v.CategoryName = nullStringPtr(categoryName)
	v.CategoryColor = nullStringPtr(categoryColor)
	v.NextBillingDate = nullStringPtr(nextBilling)
	v.PaymentMethod = nullStringPtr(paymentMethod)
	v.ReminderDays = nullInt64Ptr(reminderDays)
	v.Note = nullStringPtr(note)
	v.CancelledAt = nullStringPtr(canc)
	return v, nil
}

func scanSubscription(row rowScanner) (model.Subscription, error) {
	var (
		sub                                    model.Subscription
		serviceID, categoryID                  sql.NullString
		nextBilling, paymentMethod, note, canc sql.NullString
		reminderDays                           sql.NullInt64
		cycle                                  string
	)
	err := row.Scan(
		&sub.ID, &serviceID, &categoryID, &sub.CustomName, &sub.AmountCents, &sub.Currency,
		&cycle, &sub.StartDate, &nextBilling, &paymentMethod, &reminderDays, &note,
		&sub.IsActive, &canc, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return model.Subscription{}, err
	}

	sub.BillingCycle = model.BillingCycle(cycle)
	sub.ServiceID = nullStringPtr(serviceID)
	sub.CategoryID = nullStringPtr(categoryID)
	sub.NextBillingDate = nullStringPtr(nextBilling)
	sub.PaymentMethod = nullStringPtr(paymentMethod)
	sub.ReminderDays = nullInt64Ptr(reminderDays)
	sub.Note = nullStringPtr(note)
	sub.CancelledAt = nullStringPtr(canc)
	return sub, nil
}

// ListSubscriptions returns the subscription view ordered by next billing
// date.
func (s *SQLiteStorage) ListSubscriptions(ctx context.Context, filter SubscriptionFilter) ([]model.SubscriptionView, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := subscriptionViewQuery().OrderBy("sub.next_billing_date ASC", "sub.custom_name ASC")
	if filter.ActiveOnly {
		query = query.Where(squirrel.Eq{"sub.is_active": 1})
	}
	if filter.CategoryID != "" {
		query = query.Where(squirrel.Eq{"sub.category_id": filter.CategoryID})
	}
	if filter.ServiceID != "" {
		query = query.Where(squirrel.Eq{"sub.service_id": filter.ServiceID})
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build subscriptions query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query subscriptions: %w", err)
	}
	defer rows.Close()

	var views []model.SubscriptionView
	for rows.Next() {
		v, err := scanSubscriptionView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		views = append(views, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", err)
	}

	slog.Debug("retrieved subscriptions", "count", len(views), "active_only", filter.ActiveOnly)
	return views, nil
}

// GetSubscription returns the view row of a single subscription.
func (s *SQLiteStorage) GetSubscription(ctx context.Context, id string) (*model.SubscriptionView, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	stmt, args, err := subscriptionViewQuery().Where(squirrel.Eq{"sub.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build subscription query: %w", err)
	}

	v, err := scanSubscriptionView(s.db.QueryRowContext(ctx, stmt, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subscription %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}

	return &v, nil
}

// GetSubscriptionRecord returns the stored subscription row with its raw
// foreign keys.
func (s *SQLiteStorage) GetSubscriptionRecord(ctx context.Context, id string) (*model.Subscription, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	sub, err := scanSubscription(s.db.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subscription %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query subscription: %w", err)
	}

	return &sub, nil
}

// CreateSubscription inserts a subscription and returns its new id.
func (s *SQLiteStorage) CreateSubscription(ctx context.Context, payload *model.CreateSubscriptionPayload) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateSubscriptionPayload(payload); err != nil {
		return "", err
	}

	currency := model.DefaultCurrency
	if payload.Currency != "" {
		currency = strings.ToUpper(payload.Currency)
	}
	cycle := model.DefaultBillingCycle
	if payload.BillingCycle != "" {
		cycle = payload.BillingCycle
	}
	var reminderDays int64
	if payload.ReminderDays != nil {
		reminderDays = *payload.ReminderDays
	}

	id := uuid.NewString()
	now := model.Timestamp(time.Now())

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscriptions
			(id, service_id, category_id, custom_name, amount_cents, currency,
			 billing_cycle, start_date, next_billing_date, payment_method,
			 reminder_days, note, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		stringArg(payload.ServiceID),
		stringArg(payload.CategoryID),
		strings.TrimSpace(payload.CustomName),
		payload.AmountCents,
		currency,
		string(cycle),
		payload.StartDate,
		stringArg(payload.NextBillingDate),
		stringArg(payload.PaymentMethod),
		reminderDays,
		stringArg(payload.Note),
		now,
		now,
	)
	if err != nil {
		return "", wrapDBError(err, "failed to create subscription")
	}

	slog.Info("created subscription", "name", payload.CustomName, "id", id)
	return id, nil
}

// UpdateSubscription writes the fields set in payload and refreshes
// updated_at.
func (s *SQLiteStorage) UpdateSubscription(ctx context.Context, id string, payload *model.UpdateSubscriptionPayload) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	if err := validateSubscriptionUpdate(payload); err != nil {
		return err
	}

	update := squirrel.Update("subscriptions")
	set := func(column string, ok bool, value any) {
		if ok {
			update = update.Set(column, value)
		}
	}

	set("custom_name", payload.CustomName.Set, strings.TrimSpace(payload.CustomName.Value))
	set("service_id", payload.ServiceID.Set, payload.ServiceID.Arg())
	set("category_id", payload.CategoryID.Set, payload.CategoryID.Arg())
	set("amount_cents", payload.AmountCents.Set, payload.AmountCents.Value)
	set("currency", payload.Currency.Set, strings.ToUpper(payload.Currency.Value))
	set("billing_cycle", payload.BillingCycle.Set, string(payload.BillingCycle.Value))
	set("start_date", payload.StartDate.Set, payload.StartDate.Value)
	set("next_billing_date", payload.NextBillingDate.Set, payload.NextBillingDate.Arg())
	set("payment_method", payload.PaymentMethod.Set, payload.PaymentMethod.Arg())
	set("reminder_days", payload.ReminderDays.Set, payload.ReminderDays.Arg())
	set("note", payload.Note.Set, payload.Note.Arg())
	set("is_active", payload.IsActive.Set, payload.IsActive.Value)
	set("cancelled_at", payload.CancelledAt.Set, payload.CancelledAt.Arg())

	stmt, args, err := update.
		Set("updated_at", model.Timestamp(time.Now())).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build subscription update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return wrapDBError(err, "failed to update subscription")
	}

	return checkAffected(res, "subscription", id)
}

// CancelSubscription marks a subscription inactive as of at.
func (s *SQLiteStorage) CancelSubscription(ctx context.Context, id string, at time.Time) error {
	return s.UpdateSubscription(ctx, id, &model.UpdateSubscriptionPayload{
		IsActive:    model.Set(false),
		CancelledAt: model.Set(model.Timestamp(at)),
	})
}

// DeleteSubscription removes a subscription permanently.
func (s *SQLiteStorage) DeleteSubscription(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		return wrapDBError(err, "failed to delete subscription")
	}
	if err := checkAffected(res, "subscription", id); err != nil {
		return err
	}

	slog.Info("deleted subscription", "id", id)
	return nil
}
