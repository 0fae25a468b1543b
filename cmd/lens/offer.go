package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hollisfi/ledgerlens/internal/aggregate"
	"github.com/hollisfi/ledgerlens/internal/classify"
	"github.com/hollisfi/ledgerlens/internal/cli"
	"github.com/hollisfi/ledgerlens/internal/model"
	"github.com/hollisfi/ledgerlens/internal/offer"
	"github.com/hollisfi/ledgerlens/internal/risk"
)

func offerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offer",
		Short: "Calculate and manage funding offers",
	}

	cmd.AddCommand(offerCalcCmd())
	cmd.AddCommand(offerSaveCmd())
	cmd.AddCommand(offerListCmd())
	cmd.AddCommand(offerDeleteCmd())
	cmd.AddCommand(offerFavoriteCmd())

	return cmd
}

func addOfferFlags(cmd *cobra.Command) {
	cmd.Flags().String("session", "", "derive revenue and existing payments from this session")
	cmd.Flags().Float64("revenue", 0, "monthly true revenue (overrides session-derived figure)")
	cmd.Flags().Float64("existing", 0, "existing monthly MCA payment (overrides session-derived figure)")
	cmd.Flags().Float64("withhold", 20, "withhold percent of revenue")
	cmd.Flags().Float64("factor", 1.3, "factor rate")
	cmd.Flags().Int("term", 9, "term length in payments")
	cmd.Flags().String("term-type", "monthly", "payment frequency (daily, weekly, biweekly, monthly)")
	cmd.Flags().Float64("funded", 0, "manual funded amount (back-solves the required withhold)")
	cmd.Flags().Float64("manual-withhold", 0, "manual withhold percent, kept even when it exceeds the slider range")
}

func parseTermType(s string) (model.TermType, error) {
	switch strings.ToLower(s) {
	case "daily":
		return model.TermDaily, nil
	case "weekly":
		return model.TermWeekly, nil
	case "biweekly":
		return model.TermBiweekly, nil
	case "monthly":
		return model.TermMonthly, nil
	default:
		return "", fmt.Errorf("unknown term type %q", s)
	}
}

// offerInputs builds calculator inputs from flags, deriving revenue and
// existing payments from session data when available.
func offerInputs(cmd *cobra.Command, a *app) (offer.Inputs, string, error) {
	ctx := cmd.Context()
	flags := cmd.Flags()

	sessionID, _ := flags.GetString("session")
	termTypeFlag, _ := flags.GetString("term-type")
	termType, err := parseTermType(termTypeFlag)
	if err != nil {
		return offer.Inputs{}, "", err
	}

	in := offer.Inputs{
		TermType: termType,
	}
	in.WithholdPercent, _ = flags.GetFloat64("withhold")
	in.FactorRate, _ = flags.GetFloat64("factor")
	in.TermValue, _ = flags.GetInt("term")

	if sessionID != "" {
		session, err := a.store.GetSession(ctx, sessionID)
		if err != nil {
			return offer.Inputs{}, "", err
		}
		txns, err := a.store.GetTransactionsBySession(ctx, session.ID)
		if err != nil {
			return offer.Inputs{}, "", err
		}
		result := aggregate.Aggregate(txns, classify.IsNSFFee)
		in.TrueRevenue = result.Averages.TrueRevenue

		exposure := risk.BuildExposure(txns, nil)
		if result.MonthCount() > 0 {
			in.ExistingPayment = exposure.TotalPaid / float64(result.MonthCount())
		}
	}

	if flags.Changed("revenue") {
		v, _ := flags.GetFloat64("revenue")
		if sessionID != "" {
			in.RevenueOverride = &v
		} else {
			in.TrueRevenue = v
		}
	} else if sessionID == "" {
		return offer.Inputs{}, "", fmt.Errorf("pass --session or --revenue")
	}

	if flags.Changed("existing") {
		in.ExistingPayment, _ = flags.GetFloat64("existing")
	}
	if flags.Changed("funded") {
		v, _ := flags.GetFloat64("funded")
		in.FundedOverride = &v
	}
	if flags.Changed("manual-withhold") {
		v, _ := flags.GetFloat64("manual-withhold")
		in.WithholdOverride = &v
	}

	if err := in.Validate(); err != nil {
		return offer.Inputs{}, "", err
	}
	return in, sessionID, nil
}

func offerCalcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Calculate an offer without saving it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := initApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			in, _, err := offerInputs(cmd, a)
			if err != nil {
				return err
			}
			printQuote(offer.Calculate(in))
			return nil
		},
	}
	addOfferFlags(cmd)
	return cmd
}

func offerSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Calculate an offer and save it to a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			in, sessionID, err := offerInputs(cmd, a)
			if err != nil {
				return err
			}
			if sessionID == "" {
				return fmt.Errorf("--session is required to save an offer")
			}

			q := offer.Calculate(in)
			saved := offer.Snapshot(sessionID, in, q)
			saved.Name, _ = cmd.Flags().GetString("name")
			saved.Notes, _ = cmd.Flags().GetString("notes")

			if err := a.store.SaveOffer(ctx, saved); err != nil {
				return err
			}

			printQuote(q)
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Offer %s saved", saved.ID)))
			return nil
		},
	}
	addOfferFlags(cmd)
	cmd.Flags().String("name", "", "offer name")
	cmd.Flags().String("notes", "", "free-form notes")
	return cmd
}

func printQuote(q offer.Quote) {
	var b strings.Builder
	fmt.Fprintf(&b, "Funded amount        %s\n", cli.BoldStyle.Render(money(q.FundedAmount)))
	fmt.Fprintf(&b, "Total payback        %s\n", money(q.TotalPayback))
	fmt.Fprintf(&b, "Withhold             %.1f%% of %s → cap %s\n",
		q.WithholdPercent, money(q.TrueRevenue), money(q.CapAmount))
	fmt.Fprintf(&b, "Available payment    %s\n", money(q.NewPaymentAvailable))
	fmt.Fprintf(&b, "Term                 %.1f months\n", q.TermMonths)
	fmt.Fprintf(&b, "Monthly payment      %s\n", money(q.MonthlyPayment))
	fmt.Fprintf(&b, "Weekly / daily       %s / %s\n", money(q.WeeklyPayment), money(q.DailyPayment))
	fmt.Fprintf(&b, "Withhold utilization %.1f%%", q.Utilization)

	fmt.Println(cli.RenderBox("Offer", b.String()))

	for _, warning := range q.Warnings {
		fmt.Println(cli.FormatWarning(warning))
	}
}

func offerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <session-id>",
		Short: "List saved offers, favorites first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			offers, err := a.store.GetOffersBySession(ctx, args[0])
			if err != nil {
				return err
			}
			if len(offers) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No saved offers for this session."))
				return nil
			}

			fmt.Println(cli.FormatTitle("Saved Offers"))
			fmt.Printf("%-38s %-20s %14s %14s %14s %10s %s\n",
				"ID", "NAME", "FUNDED", "PAYBACK", "MONTHLY", "WITHHOLD", "")
			for i := range offers {
				o := &offers[i]
				favorite := ""
				if o.IsFavorite {
					favorite = cli.WarningStyle.Render(cli.StarIcon)
				}
				fmt.Printf("%-38s %-20s %14s %14s %14s %9.1f%% %s\n",
					o.ID, o.Name, money(o.AdvanceAmount), money(o.TotalPayback),
					money(o.MonthlyPayment), o.WithholdPercent, favorite)
			}
			return nil
		},
	}
}

func offerDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <offer-id>",
		Short: "Delete a saved offer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.store.DeleteOffer(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Offer deleted"))
			return nil
		},
	}
}

func offerFavoriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "favorite <offer-id>",
		Short: "Toggle an offer's favorite flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			favorite, err := a.store.ToggleOfferFavorite(ctx, args[0])
			if err != nil {
				return err
			}
			if favorite {
				fmt.Println(cli.FormatSuccess("Offer marked as favorite"))
			} else {
				fmt.Println(cli.FormatSuccess("Offer unmarked as favorite"))
			}
			return nil
		},
	}
}
