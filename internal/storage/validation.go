// Package storage provides the data persistence layer for siphon.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/siphon/internal/model"
)

// Validation errors.
var (
	ErrNilContext          = errors.New("context cannot be nil")
	ErrEmptyString         = errors.New("string parameter cannot be empty")
	ErrNilParameter        = errors.New("parameter cannot be nil")
	ErrEmptyUpdate         = errors.New("update sets no fields")
	ErrInvalidCategory     = errors.New("invalid category")
	ErrInvalidService      = errors.New("invalid service")
	ErrInvalidSubscription = errors.New("invalid subscription")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateCategoryPayload(p *model.CreateCategoryPayload) error {
	if p == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCategory)
	}
	return nil
}

func validateServicePayload(p *model.CreateServicePayload) error {
	if p == nil {
		return fmt.Errorf("%w: service", ErrNilParameter)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidService)
	}
	return nil
}

func validateSubscriptionPayload(p *model.CreateSubscriptionPayload) error {
	if p == nil {
		return fmt.Errorf("%w: subscription", ErrNilParameter)
	}
	if strings.TrimSpace(p.CustomName) == "" {
		return fmt.Errorf("%w: missing custom name", ErrInvalidSubscription)
	}
	if strings.TrimSpace(p.StartDate) == "" {
		return fmt.Errorf("%w: missing start date", ErrInvalidSubscription)
	}
	if err := validateAmount(p.AmountCents); err != nil {
		return err
	}
	if p.Currency != "" {
		if err := validateCurrency(p.Currency); err != nil {
			return err
		}
	}
	if p.BillingCycle != "" && !p.BillingCycle.IsValid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidSubscription, model.ErrInvalidBillingCycle, p.BillingCycle)
	}
	if p.ReminderDays != nil {
		if err := validateReminderDays(*p.ReminderDays); err != nil {
			return err
		}
	}
	return nil
}

func validateSubscriptionUpdate(p *model.UpdateSubscriptionPayload) error {
	if p == nil {
		return fmt.Errorf("%w: update", ErrNilParameter)
	}
	if p.IsEmpty() {
		return ErrEmptyUpdate
	}
	if p.CustomName.Set && (p.CustomName.Null || strings.TrimSpace(p.CustomName.Value) == "") {
		return fmt.Errorf("%w: missing custom name", ErrInvalidSubscription)
	}
	if p.StartDate.Set && (p.StartDate.Null || strings.TrimSpace(p.StartDate.Value) == "") {
		return fmt.Errorf("%w: missing start date", ErrInvalidSubscription)
	}
	if p.AmountCents.Set {
		if p.AmountCents.Null {
			return fmt.Errorf("%w: amount cannot be cleared", ErrInvalidSubscription)
		}
		if err := validateAmount(p.AmountCents.Value); err != nil {
			return err
		}
	}
	if p.Currency.Set {
		if p.Currency.Null {
			return fmt.Errorf("%w: currency cannot be cleared", ErrInvalidSubscription)
		}
		if err := validateCurrency(p.Currency.Value); err != nil {
			return err
		}
	}
	if p.BillingCycle.Set && (p.BillingCycle.Null || !p.BillingCycle.Value.IsValid()) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidSubscription, model.ErrInvalidBillingCycle, p.BillingCycle.Value)
	}
	if p.IsActive.Set && p.IsActive.Null {
		return fmt.Errorf("%w: is_active cannot be cleared", ErrInvalidSubscription)
	}
	if p.ReminderDays.Set && !p.ReminderDays.Null {
		if err := validateReminderDays(p.ReminderDays.Value); err != nil {
			return err
		}
	}
	return nil
}

// validateAmount rejects negative amounts. The store enforces the same rule
// with triggers.
func validateAmount(cents int64) error {
	if cents < 0 {
		return fmt.Errorf("%w: amount must not be negative, got %d", ErrInvalidSubscription, cents)
	}
	return nil
}

func validateReminderDays(days int64) error {
	if days < 0 {
		return fmt.Errorf("%w: reminder days must not be negative, got %d", ErrInvalidSubscription, days)
	}
	return nil
}

// validateCurrency accepts three ASCII letters, e.g. "EUR".
func validateCurrency(code string) error {
	if len(code) != 3 {
		return fmt.Errorf("%w: currency must be a 3-letter code, got %q", ErrInvalidSubscription, code)
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return fmt.Errorf("%w: currency must be a 3-letter code, got %q", ErrInvalidSubscription, code)
		}
	}
	return nil
}
