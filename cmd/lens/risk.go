package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hollisfi/ledgerlens/internal/aggregate"
	"github.com/hollisfi/ledgerlens/internal/classify"
	"github.com/hollisfi/ledgerlens/internal/cli"
	"github.com/hollisfi/ledgerlens/internal/risk"
)

func riskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "risk [session-id...]",
		Short: "Underwriting risk assessment across sessions",
		Long: `Score the merchant's MCA exposure against true revenue: debt load,
payment burden, and lender stacking, with a per-lender exposure table.
Classify MCA payments and funding first; unmarked activity is invisible
to the assessment.`,
		RunE: runRisk,
	}
	cmd.Flags().String("batch", "", "assess every session in this batch")
	return cmd
}

func runRisk(cmd *cobra.Command, args []string) error {
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
	txns, err := collectTransactions(ctx, a.store, sessions)
	if err != nil {
		return err
	}

	result := aggregate.Aggregate(txns, classify.IsNSFFee)
	exposure := risk.BuildExposure(txns, lenderNameResolver(ctx, a.store))

	// Monthly payment load is the observed total spread over the
	// statement period.
	monthlyPayments := 0.0
	if result.MonthCount() > 0 {
		monthlyPayments = exposure.TotalPaid / float64(result.MonthCount())
	}

	assessment := risk.Score(risk.Inputs{
		TrueRevenueMonthly: result.Averages.TrueRevenue,
		TotalFunding:       exposure.TotalFunding,
		TotalPayments:      monthlyPayments,
		LenderCount:        exposure.LenderCount,
	})

	printRisk(&assessment, &exposure, result.Averages.TrueRevenue)
	return nil
}

func printRisk(a *risk.Assessment, exposure *risk.ExposureSummary, monthlyRevenue float64) {
	fmt.Println(cli.FormatTitle("Risk Assessment"))

	headline := cli.SuccessStyle
	switch a.DebtTier {
	case risk.DebtModerate:
		headline = cli.WarningStyle
	case risk.DebtHigh, risk.DebtVeryHigh:
		headline = cli.ErrorStyle
	}
	fmt.Println(cli.RenderBox(headline.Render(a.Recommendation), a.Detail))
	fmt.Println()

	fmt.Printf("True revenue (monthly avg)  %s\n", money(monthlyRevenue))
	fmt.Printf("Debt-to-revenue             %.1f%% (%s)\n", a.DebtToRevenue, a.DebtTier)
	fmt.Printf("Payment burden              %.1f%% (%s)\n", a.PaymentToRevenue, a.BurdenTier)
	fmt.Printf("Lender stacking             %d lenders (%s)\n", a.LenderCount, a.StackingTier)

	if len(exposure.Lenders) == 0 {
		fmt.Println()
		fmt.Println(cli.SubtleStyle.Render("No MCA activity classified yet."))
		return
	}

	fmt.Println()
	fmt.Printf("%-30s %6s %14s %14s %-16s %14s\n",
		"LENDER", "PMTS", "TOTAL PAID", "AVG PAYMENT", "FREQUENCY", "FUNDING")
	for i := range exposure.Lenders {
		l := &exposure.Lenders[i]
		fmt.Printf("%-30s %6d %14s %14s %-16s %14s\n",
			l.LenderName, l.PaymentCount, money(l.TotalPaid),
			money(l.AveragePayment), l.Frequency.Label(), money(l.FundingReceived))
	}
	fmt.Printf("\n%-30s %6d %14s %30s %14s\n",
		"TOTAL", exposure.PaymentCount, money(exposure.TotalPaid), "", money(exposure.TotalFunding))
}
