package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hollisfi/ledgerlens/internal/cli"
	"github.com/hollisfi/ledgerlens/internal/model"
)

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect imported statement sessions",
	}

	cmd.AddCommand(sessionsListCmd())
	cmd.AddCommand(sessionsShowCmd())

	return cmd
}

func sessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all sessions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			sessions, err := a.store.GetSessions(ctx)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No sessions yet. Import statements with: lens import <file>"))
				return nil
			}

			fmt.Println(cli.FormatTitle("Statement Sessions"))
			fmt.Printf("%-38s %-10s %-24s %5s %14s %14s %14s\n",
				"SESSION", "BATCH", "SOURCE", "TXNS", "CREDITS", "DEBITS", "NET")
			for i := range sessions {
				s := &sessions[i]
				fmt.Printf("%-38s %-10s %-24s %5d %14s %14s %14s\n",
					s.ID, short(s.BatchID), s.SourceFile, s.TransactionCount,
					money(s.TotalCredits), money(s.TotalDebits), money(s.NetFlow))
			}
			return nil
		},
	}
}

func sessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show one session's transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			session, err := a.store.GetSession(ctx, args[0])
			if err != nil {
				return err
			}
			txns, err := a.store.GetTransactionsBySession(ctx, session.ID)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("Session %s (%s)", session.ID, session.SourceFile)))
			fmt.Printf("credits %s  debits %s  net %s\n\n",
				money(session.TotalCredits), money(session.TotalDebits), money(session.NetFlow))

			fmt.Printf("%8s %-12s %-8s %12s  %-50s %s\n", "ID", "DATE", "TYPE", "AMOUNT", "DESCRIPTION", "FLAGS")
			for i := range txns {
				t := &txns[i]
				fmt.Printf("%8d %-12s %-8s %12s  %-50.50s %s\n",
					t.ID, t.Date.Format("2006-01-02"), t.Type, money(t.Amount),
					t.Description, transactionFlags(t))
			}
			return nil
		},
	}
}

func transactionFlags(t *model.Transaction) string {
	switch {
	case t.IsMCAFunding:
		return cli.WarningStyle.Render("funding:" + t.FundingLenderID)
	case t.IsMCAPayment:
		return cli.WarningStyle.Render("payment:" + t.MCALenderID)
	case t.IsAdjustment:
		return cli.SubtleStyle.Render("adjustment")
	case t.WasCorrected:
		return cli.SubtleStyle.Render("corrected")
	default:
		return ""
	}
}
