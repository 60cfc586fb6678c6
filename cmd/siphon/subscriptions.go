package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/siphon/internal/cli"
	"github.com/Veraticus/siphon/internal/common"
	"github.com/Veraticus/siphon/internal/model"
	"github.com/Veraticus/siphon/internal/storage"
)

const dateLayout = "2006-01-02"

func subscriptionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "subscriptions",
		Aliases: []string{"subs", "subscription"},
		Short:   "Manage tracked subscriptions",
	}

	cmd.AddCommand(listSubscriptionsCmd())
	cmd.AddCommand(addSubscriptionCmd())
	cmd.AddCommand(updateSubscriptionCmd())
	cmd.AddCommand(cancelSubscriptionCmd())
	cmd.AddCommand(deleteSubscriptionCmd())

	return cmd
}

func listSubscriptionsCmd() *cobra.Command {
	var (
		filter  storage.SubscriptionFilter
		asJSON  bool
		showAll bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List subscriptions by next billing date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			filter.ActiveOnly = !showAll
			subs, err := store.ListSubscriptions(ctx, filter)
			if err != nil {
				return fmt.Errorf("failed to get subscriptions: %w", err)
			}

			if asJSON {
				if subs == nil {
					subs = []model.SubscriptionView{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(subs)
			}

			if len(subs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.InfoStyle.Render("No subscriptions found. Use 'siphon subscriptions add' to track one."))
				return nil
			}

			writeSubscriptionTable(cmd.OutOrStdout(), subs)
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.CategoryID, "category", "", "Only subscriptions in this category id")
	cmd.Flags().StringVar(&filter.ServiceID, "service", "", "Only subscriptions of this service id")
	cmd.Flags().BoolVar(&showAll, "all", false, "Include cancelled subscriptions")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	return cmd
}

func writeSubscriptionTable(out io.Writer, subs []model.SubscriptionView) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		cli.HeaderStyle.Render("ID"),
		cli.HeaderStyle.Render("Name"),
		cli.HeaderStyle.Render("Amount"),
		cli.HeaderStyle.Render("Cycle"),
		cli.HeaderStyle.Render("Next"),
		cli.HeaderStyle.Render("Category"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("-", 36),
		strings.Repeat("-", 20),
		strings.Repeat("-", 12),
		strings.Repeat("-", 13),
		strings.Repeat("-", 10),
		strings.Repeat("-", 16))

	for _, sub := range subs {
		name := sub.DisplayName()
		if !sub.IsActive {
			name = cli.SubtleStyle.Render(name + " (cancelled)")
		}
		fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\t%s\n",
			sub.ID,
			name,
			model.FormatAmount(sub.AmountCents),
			sub.Currency,
			sub.BillingCycle,
			cli.Optional(sub.NextBillingDate),
			cli.Optional(sub.CategoryName))
	}
}

type subscriptionFlags struct {
	name          string
	amount        string
	currency      string
	cycle         string
	start         string
	next          string
	serviceID     string
	categoryID    string
	paymentMethod string
	note          string
	reminderDays  int64
}

func (f *subscriptionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.amount, "amount", "", "Amount per billing cycle, e.g. 14.99")
	cmd.Flags().StringVar(&f.currency, "currency", "", "ISO currency code (default "+model.DefaultCurrency+")")
	cmd.Flags().StringVar(&f.cycle, "cycle", "", "Billing cycle: "+billingCycleList())
	cmd.Flags().StringVar(&f.start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.next, "next", "", "Next billing date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.serviceID, "service", "", "Service id")
	cmd.Flags().StringVar(&f.categoryID, "category", "", "Category id")
	cmd.Flags().StringVar(&f.paymentMethod, "payment", "", "Payment method label")
	cmd.Flags().StringVar(&f.note, "note", "", "Free-form note")
	cmd.Flags().Int64Var(&f.reminderDays, "reminder-days", 0, "Days before billing to be reminded")
}

func billingCycleList() string {
	cycles := model.BillingCycles()
	names := make([]string, len(cycles))
	for i, c := range cycles {
		names[i] = c.String()
	}
	return strings.Join(names, ", ")
}

func parseDate(value, flag string) (string, error) {
	if _, err := time.Parse(dateLayout, value); err != nil {
		return "", common.NewUserError(fmt.Sprintf("--%s must be a date like 2025-01-31", flag), err)
	}
	return value, nil
}

func addSubscriptionCmd() *cobra.Command {
	var flags subscriptionFlags

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Track a new subscription",
		Long: `Track a new subscription. When --service is given without --category,
the service's default category is used.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			payload, err := flags.createPayload(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if payload.ServiceID != nil && payload.CategoryID == nil {
				svc, err := store.GetService(ctx, *payload.ServiceID)
				if err != nil {
					return userFacing(err, "service "+*payload.ServiceID)
				}
				payload.CategoryID = svc.DefaultCategoryID
			}

			id, err := store.CreateSubscription(ctx, payload)
			if err != nil {
				return userFacing(err, fmt.Sprintf("subscription %q", payload.CustomName))
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Tracking %q (%s)", payload.CustomName, id)))
			return nil
		},
	}

	flags.register(cmd)
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func (f *subscriptionFlags) createPayload(name string) (*model.CreateSubscriptionPayload, error) {
	amount, err := model.ParseAmount(f.amount)
	if err != nil {
		return nil, common.NewUserError("--amount must be a decimal like 14.99", err)
	}

	payload := &model.CreateSubscriptionPayload{
		CustomName:    strings.TrimSpace(name),
		AmountCents:   amount,
		Currency:      strings.ToUpper(f.currency),
		ServiceID:     optionalString(f.serviceID),
		CategoryID:    optionalString(f.categoryID),
		PaymentMethod: optionalString(f.paymentMethod),
		Note:          optionalString(f.note),
		StartDate:     time.Now().Format(dateLayout),
	}

	if f.cycle != "" {
		cycle, err := model.ParseBillingCycle(f.cycle)
		if err != nil {
			return nil, common.NewUserError("--cycle must be one of "+billingCycleList(), err)
		}
		payload.BillingCycle = cycle
	}
	if f.start != "" {
		if payload.StartDate, err = parseDate(f.start, "start"); err != nil {
			return nil, err
		}
	}
	if f.next != "" {
		next, err := parseDate(f.next, "next")
		if err != nil {
			return nil, err
		}
		payload.NextBillingDate = &next
	}
	if f.reminderDays != 0 {
		days := f.reminderDays
		payload.ReminderDays = &days
	}

	return payload, nil
}

func updateSubscriptionCmd() *cobra.Command {
	var (
		flags  subscriptionFlags
		clears []string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a subscription",
		Long: `Change fields of a subscription. Only the flags you pass are written.
Use --clear to empty optional fields, e.g. --clear note,next.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			payload, err := flags.updatePayload(cmd, clears)
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.UpdateSubscription(ctx, args[0], payload); err != nil {
				return userFacing(err, "subscription "+args[0])
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Updated subscription "+args[0]))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&flags.name, "name", "", "New display name")
	cmd.Flags().StringSliceVar(&clears, "clear", nil, "Optional fields to empty: service, category, next, payment, reminder-days, note")

	return cmd
}

func (f *subscriptionFlags) updatePayload(cmd *cobra.Command, clears []string) (*model.UpdateSubscriptionPayload, error) {
	changed := cmd.Flags().Changed
	payload := &model.UpdateSubscriptionPayload{}

	if changed("name") {
		payload.CustomName = model.Set(strings.TrimSpace(f.name))
	}
	if changed("amount") {
		amount, err := model.ParseAmount(f.amount)
		if err != nil {
			return nil, common.NewUserError("--amount must be a decimal like 14.99", err)
		}
		payload.AmountCents = model.Set(amount)
	}
	if changed("currency") {
		payload.Currency = model.Set(strings.ToUpper(f.currency))
	}
	if changed("cycle") {
		cycle, err := model.ParseBillingCycle(f.cycle)
		if err != nil {
			return nil, common.NewUserError("--cycle must be one of "+billingCycleList(), err)
		}
		payload.BillingCycle = model.Set(cycle)
	}
	if changed("start") {
		start, err := parseDate(f.start, "start")
		if err != nil {
			return nil, err
		}
		payload.StartDate = model.Set(start)
	}
	if changed("next") {
		next, err := parseDate(f.next, "next")
		if err != nil {
			return nil, err
		}
		payload.NextBillingDate = model.Set(next)
	}
	if changed("service") {
		payload.ServiceID = model.Set(f.serviceID)
	}
	if changed("category") {
		payload.CategoryID = model.Set(f.categoryID)
	}
	if changed("payment") {
		payload.PaymentMethod = model.Set(f.paymentMethod)
	}
	if changed("note") {
		payload.Note = model.Set(f.note)
	}
	if changed("reminder-days") {
		payload.ReminderDays = model.Set(f.reminderDays)
	}

	for _, field := range clears {
		switch strings.TrimSpace(field) {
		case "service":
			payload.ServiceID = model.Null[string]()
		case "category":
			payload.CategoryID = model.Null[string]()
		case "next":
			payload.NextBillingDate = model.Null[string]()
		case "payment":
			payload.PaymentMethod = model.Null[string]()
		case "reminder-days":
			payload.ReminderDays = model.Null[int64]()
		case "note":
			payload.Note = model.Null[string]()
		default:
			return nil, common.NewUserError(fmt.Sprintf("cannot clear %q", field), nil)
		}
	}

	if payload.IsEmpty() {
		return nil, common.NewUserError("nothing to update", storage.ErrEmptyUpdate)
	}
	return payload, nil
}

func cancelSubscriptionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Mark a subscription as cancelled",
		Long:  `Mark a subscription inactive. It stays in the database and shows up with --all.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.CancelSubscription(ctx, args[0], time.Now()); err != nil {
				return userFacing(err, "subscription "+args[0])
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Cancelled subscription "+args[0]))
			return nil
		},
	}
}

func deleteSubscriptionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a subscription permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.DeleteSubscription(ctx, args[0]); err != nil {
				return userFacing(err, "subscription "+args[0])
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted subscription "+args[0]))
			return nil
		},
	}
}
