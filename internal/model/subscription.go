package model

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultCurrency is stored when a new subscription does not name a currency.
const DefaultCurrency = "EUR"

// Subscription is a recurring charge the user is tracking. Amounts are
// integer minor currency units.
type Subscription struct {
	ServiceID       *string      `json:"service_id"`
	CategoryID      *string      `json:"category_id"`
	NextBillingDate *string      `json:"next_billing_date"`
	PaymentMethod   *string      `json:"payment_method"`
	ReminderDays    *int64       `json:"reminder_days"`
	Note            *string      `json:"note"`
	CancelledAt     *string      `json:"cancelled_at"`
	ID              string       `json:"id"`
	CustomName      string       `json:"custom_name"`
	Currency        string       `json:"currency"`
	BillingCycle    BillingCycle `json:"billing_cycle"`
	StartDate       string       `json:"start_date"`
	CreatedAt       string       `json:"created_at"`
	UpdatedAt       string       `json:"updated_at"`
	AmountCents     int64        `json:"amount_cents"`
	IsActive        bool         `json:"is_active"`
}

// CreateSubscriptionPayload carries the fields of a new subscription.
// Empty Currency and BillingCycle fall back to DefaultCurrency and
// DefaultBillingCycle; a nil ReminderDays is stored as 0.
type CreateSubscriptionPayload struct {
	ServiceID       *string      `json:"service_id,omitempty"`
	CategoryID      *string      `json:"category_id,omitempty"`
	NextBillingDate *string      `json:"next_billing_date,omitempty"`
	PaymentMethod   *string      `json:"payment_method,omitempty"`
	ReminderDays    *int64       `json:"reminder_days,omitempty"`
	Note            *string      `json:"note,omitempty"`
	CustomName      string       `json:"custom_name"`
	Currency        string       `json:"currency,omitempty"`
	BillingCycle    BillingCycle `json:"billing_cycle,omitempty"`
	StartDate       string       `json:"start_date"`
	AmountCents     int64        `json:"amount_cents"`
}

// UpdateSubscriptionPayload is a partial update. Only set fields are written.
type UpdateSubscriptionPayload struct {
	CustomName      Patch[string]       `json:"custom_name"`
	ServiceID       Patch[string]       `json:"service_id"`
	CategoryID      Patch[string]       `json:"category_id"`
	AmountCents     Patch[int64]        `json:"amount_cents"`
	Currency        Patch[string]       `json:"currency"`
	BillingCycle    Patch[BillingCycle] `json:"billing_cycle"`
	StartDate       Patch[string]       `json:"start_date"`
	NextBillingDate Patch[string]       `json:"next_billing_date"`
	PaymentMethod   Patch[string]       `json:"payment_method"`
	ReminderDays    Patch[int64]        `json:"reminder_days"`
	Note            Patch[string]       `json:"note"`
	IsActive        Patch[bool]         `json:"is_active"`
	CancelledAt     Patch[string]       `json:"cancelled_at"`
}

// IsEmpty reports whether the payload sets no field at all.
func (p UpdateSubscriptionPayload) IsEmpty() bool {
	return !p.CustomName.Set && !p.ServiceID.Set && !p.CategoryID.Set &&
		!p.AmountCents.Set && !p.Currency.Set && !p.BillingCycle.Set &&
		!p.StartDate.Set && !p.NextBillingDate.Set && !p.PaymentMethod.Set &&
		!p.ReminderDays.Set && !p.Note.Set && !p.IsActive.Set && !p.CancelledAt.Set
}

// SubscriptionView is the flattened listing row: a subscription joined with
// its service and category. It is always derived on read.
type SubscriptionView struct {
	ServiceName     *string      `json:"service_name"`
	ServiceIconURL  *string      `json:"service_icon_url"`
	ServiceURL      *string      `json:"service_url"`
	CategoryName    *string      `json:"category_name"`
	CategoryColor   *string      `json:"category_color"`
	NextBillingDate *string      `json:"next_billing_date"`
	PaymentMethod   *string      `json:"payment_method"`
	ReminderDays    *int64       `json:"reminder_days"`
	Note            *string      `json:"note"`
	CancelledAt     *string      `json:"cancelled_at"`
	ID              string       `json:"id"`
	CustomName      string       `json:"custom_name"`
	Currency        string       `json:"currency"`
	BillingCycle    BillingCycle `json:"billing_cycle"`
	StartDate       string       `json:"start_date"`
	CreatedAt       string       `json:"created_at"`
	UpdatedAt       string       `json:"updated_at"`
	AmountCents     int64        `json:"amount_cents"`
	IsActive        bool         `json:"is_active"`
}

// DisplayName prefers the linked service's name and falls back to the
// subscription's custom name.
func (v SubscriptionView) DisplayName() string {
	if v.ServiceName != nil && *v.ServiceName != "" {
		return *v.ServiceName
	}
	return v.CustomName
}

// FormatAmount renders minor units as a decimal string, e.g. 1499 -> "14.99".
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// ErrInvalidAmount is returned by ParseAmount for malformed input.
var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts a decimal string with at most two fractional digits
// into minor units, e.g. "14.99" -> 1499 and "5" -> 500.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	negative := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")

	whole, frac, hasFrac := strings.Cut(digits, ".")
	if whole == "" || (hasFrac && (frac == "" || len(frac) > 2)) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseUint(whole, 10, 64)
	if err != nil || units > (math.MaxInt64-99)/100 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	cents, err := strconv.ParseUint(frac, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	total := int64(units)*100 + int64(cents)
	if negative {
		total = -total
	}
	return total, nil
}

// TimestampLayout is the layout of every timestamp written by the application.
const TimestampLayout = time.RFC3339

// Timestamp formats t as a UTC date-time string.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
