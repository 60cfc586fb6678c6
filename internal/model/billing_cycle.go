package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// BillingCycle is how often a subscription charges. The set is closed; the
// subscriptions table carries a CHECK constraint over the same values.
type BillingCycle string

const (
	// BillingWeekly charges every week.
	BillingWeekly BillingCycle = "weekly"
	// BillingMonthly charges every month.
	BillingMonthly BillingCycle = "monthly"
	// BillingQuarterly charges every three months.
	BillingQuarterly BillingCycle = "quarterly"
	// BillingSemiAnnually charges every six months.
	BillingSemiAnnually BillingCycle = "semi_annually"
	// BillingYearly charges every year.
	BillingYearly BillingCycle = "yearly"
)

// DefaultBillingCycle is used when a new subscription does not name one.
const DefaultBillingCycle = BillingMonthly

// ErrInvalidBillingCycle is returned for values outside the closed set.
var ErrInvalidBillingCycle = errors.New("invalid billing cycle")

// BillingCycles returns every valid billing cycle in declaration order.
func BillingCycles() []BillingCycle {
	return []BillingCycle{
		BillingWeekly,
		BillingMonthly,
		BillingQuarterly,
		BillingSemiAnnually,
		BillingYearly,
	}
}

// IsValid reports whether c is one of the known billing cycles.
func (c BillingCycle) IsValid() bool {
	switch c {
	case BillingWeekly, BillingMonthly, BillingQuarterly, BillingSemiAnnually, BillingYearly:
		return true
	}
	return false
}

// ParseBillingCycle converts s into a BillingCycle.
func ParseBillingCycle(s string) (BillingCycle, error) {
	c := BillingCycle(s)
	if !c.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidBillingCycle, s)
	}
	return c, nil
}

// String implements fmt.Stringer.
func (c BillingCycle) String() string {
	return string(c)
}

// UnmarshalJSON rejects values outside the closed set.
func (c *BillingCycle) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseBillingCycle(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
