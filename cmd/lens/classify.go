package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hollisfi/ledgerlens/internal/cli"
	"github.com/hollisfi/ledgerlens/internal/model"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify transactions as MCA activity or adjustments",
	}

	cmd.AddCommand(classifySuggestCmd())
	cmd.AddCommand(classifyPaymentCmd())
	cmd.AddCommand(classifyFundingCmd())
	cmd.AddCommand(classifyAdjustmentCmd())
	cmd.AddCommand(classifyUnmarkCmd())
	cmd.AddCommand(classifyFlipCmd())
	cmd.AddCommand(classifySimilarCmd())

	return cmd
}

func parseTxnID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("transaction id must be numeric, got %q", arg)
	}
	return id, nil
}

func classifySuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <session-id>",
		Short: "Suggest lender attributions for unmarked transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			suggestions, err := a.classifier.Suggest(ctx, args[0])
			if err != nil {
				return err
			}
			if len(suggestions) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No pattern matches among unmarked transactions."))
				return nil
			}

			fmt.Println(cli.FormatTitle("Suggested Attributions"))
			for i := range suggestions {
				s := &suggestions[i]
				confidence := "similar"
				if s.Match.Exact {
					confidence = "exact"
				}
				fmt.Printf("%8d %-12s %12s  %-45.45s → %s (%s, used %d)\n",
					s.Transaction.ID,
					s.Transaction.Date.Format("2006-01-02"),
					money(s.Transaction.Amount),
					s.Transaction.Description,
					cli.BoldStyle.Render(s.Match.LenderName),
					confidence, s.Match.UsageCount)
			}
			fmt.Println(cli.SubtleStyle.Render("\nApply with: lens classify payment|funding <txn-id> <lender-id>"))
			return nil
		},
	}
}

func classifyPaymentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payment <txn-id> <lender-id>",
		Short: "Mark a debit as an MCA payment",
		Long: `Mark a debit as a payment to the given lender. The transaction's
description is learned as a pattern for that lender. An unknown lender id
creates a custom lender when --name is supplied. With --batch, similar
transactions are offered for the same attribution.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMark(cmd, args, false)
		},
	}
	cmd.Flags().String("name", "", "display name when creating a custom lender")
	cmd.Flags().Bool("batch", false, "offer similar transactions for the same lender")
	return cmd
}

func classifyFundingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "funding <txn-id> <lender-id>",
		Short: "Mark a credit as an MCA funding deposit",
		Long: `Mark a credit as funding received from the given lender. Funding
deposits are excluded from true revenue automatically.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMark(cmd, args, true)
		},
	}
	cmd.Flags().String("name", "", "display name when creating a custom lender")
	cmd.Flags().Bool("batch", false, "offer similar transactions for the same lender")
	return cmd
}

func runMark(cmd *cobra.Command, args []string, funding bool) error {
	ctx := cmd.Context()
	txnID, err := parseTxnID(args[0])
	if err != nil {
		return err
	}
	lenderID := args[1]
	name, _ := cmd.Flags().GetString("name")
	batch, _ := cmd.Flags().GetBool("batch")

	a, err := initApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var txn *model.Transaction
	if funding {
		txn, err = a.classifier.MarkMCAFunding(ctx, txnID, lenderID, name)
	} else {
		txn, err = a.classifier.MarkMCAPayment(ctx, txnID, lenderID, name)
	}
	if err != nil {
		return err
	}

	role := "payment"
	resolvedLender := txn.MCALenderID
	if funding {
		role = "funding"
		resolvedLender = txn.FundingLenderID
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Marked transaction %d as %s for %s", txn.ID, role, resolvedLender)))

	if batch {
		return offerSimilar(cmd, a, txn.ID, resolvedLender)
	}
	return nil
}

func classifyAdjustmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adjustment <txn-id>",
		Short: "Exclude a credit from true revenue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			txnID, err := parseTxnID(args[0])
			if err != nil {
				return err
			}

			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			txn, err := a.classifier.MarkAdjustment(ctx, txnID)
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Transaction %d excluded from true revenue", txn.ID)))
			return nil
		},
	}
}

func classifyUnmarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unmark <txn-id>",
		Short: "Remove a transaction's classification",
		Long: `Undo a prior classification. Payments and funding deposits also
unlearn the pattern credited to the lender at marking time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			txnID, err := parseTxnID(args[0])
			if err != nil {
				return err
			}

			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			txn, err := a.store.GetTransaction(ctx, txnID)
			if err != nil {
				return err
			}

			switch {
			case txn.IsMCAPayment:
				txn, err = a.classifier.UnmarkMCAPayment(ctx, txnID)
			case txn.IsAdjustment:
				txn, err = a.classifier.UnmarkAdjustment(ctx, txnID)
			default:
				return fmt.Errorf("transaction %d has no classification to remove", txnID)
			}
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Transaction %d unmarked", txn.ID)))
			return nil
		},
	}
}

func classifyFlipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flip <txn-id>",
		Short: "Flip a transaction between credit and debit",
		Long: `Correct an extraction error by flipping the transaction type. Any
existing classification is cleared and session totals are recomputed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			txnID, err := parseTxnID(args[0])
			if err != nil {
				return err
			}

			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			txn, err := a.classifier.FlipType(ctx, txnID)
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Transaction %d is now a %s", txn.ID, txn.Type)))
			return nil
		},
	}
}

func classifySimilarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "similar <txn-id> <lender-id>",
		Short: "Find and attribute transactions similar to a classified one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			txnID, err := parseTxnID(args[0])
			if err != nil {
				return err
			}

			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			return offerSimilar(cmd, a, txnID, args[1])
		},
	}
}

// offerSimilar runs the interactive similar-transaction flow: find
// candidates, confirm with the user, apply the approved subset.
func offerSimilar(cmd *cobra.Command, a *app, txnID int64, lenderID string) error {
	ctx := cmd.Context()

	cands, err := a.classifier.FindSimilar(ctx, txnID, lenderID)
	if err != nil {
		return err
	}
	if len(cands.Credits)+len(cands.Debits) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No similar unattributed transactions found."))
		return nil
	}

	lender, err := a.store.GetLender(ctx, lenderID)
	if err != nil {
		return err
	}

	prompter := cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	approved, err := prompter.ConfirmBatch(ctx, lender.Name, *cands)
	if err != nil {
		return err
	}

	ids := make([]int64, 0, len(approved.Credits)+len(approved.Debits))
	for i := range approved.Credits {
		ids = append(ids, approved.Credits[i].ID)
	}
	for i := range approved.Debits {
		ids = append(ids, approved.Debits[i].ID)
	}
	if len(ids) == 0 {
		fmt.Println(cli.SubtleStyle.Render("Nothing applied."))
		return nil
	}

	applied := 0
	for _, result := range a.classifier.ApplyBatch(ctx, lenderID, ids) {
		if result.Err == nil {
			applied++
		} else {
			fmt.Println(cli.FormatWarning(fmt.Sprintf("transaction %d: %v", result.TransactionID, result.Err)))
		}
	}
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Attributed %d of %d transactions to %s", applied, len(ids), lender.Name)))
	return nil
}
