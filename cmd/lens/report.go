package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hollisfi/ledgerlens/internal/aggregate"
	"github.com/hollisfi/ledgerlens/internal/classify"
	"github.com/hollisfi/ledgerlens/internal/cli"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [session-id...]",
		Short: "Monthly revenue report across sessions",
		Long: `Aggregate transactions into a month-by-month revenue report. Funding
deposits and marked adjustments are excluded from true revenue. Select
sessions explicitly or report a whole batch with --batch.`,
		RunE: runReport,
	}
	cmd.Flags().String("batch", "", "report every session in this batch")
	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	batchID, _ := cmd.Flags().GetString("batch")

	a, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sessions, err := resolveSessions(ctx, a.store, batchID, args)
	if err != nil {
		return err
	}

	// Aggregate per session, then merge: statements usually cover disjoint
	// months, and Combine handles the overlapping ones.
	results := make([]aggregate.Result, 0, len(sessions))
	for i := range sessions {
		txns, err := a.store.GetTransactionsBySession(ctx, sessions[i].ID)
		if err != nil {
			return fmt.Errorf("loading transactions of session %s: %w", sessions[i].ID, err)
		}
		results = append(results, aggregate.Aggregate(txns, classify.IsNSFFee))
	}

	combined := aggregate.Combine(results...)
	printReport(&combined, len(sessions))
	return nil
}

func printReport(result *aggregate.Result, sessionCount int) {
	fmt.Println(cli.FormatTitle(fmt.Sprintf("Monthly Revenue (%d sessions)", sessionCount)))

	if len(result.Months) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No transactions to report."))
		return
	}

	fmt.Printf("%-9s %14s %14s %14s %14s %12s %5s %5s %4s\n",
		"MONTH", "DEPOSITS", "ADJUSTMENTS", "TRUE REVENUE", "DEBITS", "AVG DAILY", "DEP", "DEB", "NSF")
	for i := range result.Months {
		m := &result.Months[i]
		fmt.Printf("%-9s %14s %14s %14s %14s %12s %5d %5d %4d\n",
			m.MonthKey,
			money(m.Deposits), money(m.Adjustments),
			cli.BoldStyle.Render(money(m.TrueRevenue)),
			money(m.Debits), money(m.AverageDaily),
			m.DepositCount, m.DebitCount, m.NSFCount)
	}

	fmt.Println()
	fmt.Printf("%-9s %14s %14s %14s %14s\n", "TOTAL",
		money(result.Totals.Deposits), money(result.Totals.Adjustments),
		cli.BoldStyle.Render(money(result.Totals.TrueRevenue)), money(result.Totals.Debits))
	fmt.Printf("%-9s %14s %14s %14s %14s\n", "AVG/MO",
		money(result.Averages.Deposits), money(result.Averages.Adjustments),
		cli.BoldStyle.Render(money(result.Averages.TrueRevenue)), money(result.Averages.Debits))

	if result.Totals.NSFCount > 0 {
		fmt.Println()
		fmt.Println(cli.FormatWarning(fmt.Sprintf("%d NSF/overdraft fees across the period", result.Totals.NSFCount)))
	}
}
