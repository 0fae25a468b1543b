package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hollisfi/ledgerlens/internal/cli"
	"github.com/hollisfi/ledgerlens/internal/model"
)

func lendersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lenders",
		Short: "Manage the lender registry",
	}

	cmd.AddCommand(lendersListCmd())
	cmd.AddCommand(lendersAddCmd())
	cmd.AddCommand(lendersSeedCmd())
	cmd.AddCommand(lendersShowCmd())

	return cmd
}

func parseLenderKind(s string) (model.LenderKind, error) {
	switch s {
	case "", "mca":
		if s == "" {
			return "", nil
		}
		return model.KindMCALender, nil
	case "collector":
		return model.KindDebtCollector, nil
	default:
		return "", fmt.Errorf("unknown lender kind %q (mca or collector)", s)
	}
}

func lendersListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List lenders with pattern usage, most used first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			kindFlag, _ := cmd.Flags().GetString("kind")
			kind, err := parseLenderKind(kindFlag)
			if err != nil {
				return err
			}

			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			rows, err := a.registry.Lenders(ctx, kind)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No lenders registered. Seed the known set with: lens lenders seed"))
				return nil
			}

			fmt.Println(cli.FormatTitle("Lenders"))
			fmt.Printf("%-28s %-30s %-14s %8s %8s %-12s\n",
				"ID", "NAME", "KIND", "PATTERNS", "USAGE", "LAST USED")
			for i := range rows {
				row := &rows[i]
				lastUsed := "never"
				if row.LastUsedAt != nil {
					lastUsed = row.LastUsedAt.Format("2006-01-02")
				}
				fmt.Printf("%-28s %-30s %-14s %8d %8d %-12s\n",
					row.Lender.ID, row.Lender.Name, row.Lender.Kind,
					row.PatternCount, row.TotalUsage, lastUsed)
			}
			return nil
		},
	}
	cmd.Flags().String("kind", "", "filter by kind (mca or collector)")
	return cmd
}

func lendersAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a custom lender",
		Long: `Register a lender not in the seeded set. The id is derived from the
name and a starter pattern is created so the lender matches immediately.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kindFlag, _ := cmd.Flags().GetString("kind")
			kind, err := parseLenderKind(kindFlag)
			if err != nil {
				return err
			}
			if kind == "" {
				kind = model.KindMCALender
			}

			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			lender, err := a.registry.CreateLender(ctx, args[0], kind)
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created lender %s (%s)", lender.Name, lender.ID)))
			return nil
		},
	}
	cmd.Flags().String("kind", "mca", "lender kind (mca or collector)")
	return cmd
}

func lendersSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the known lender and debt collector set",
		Long: `Create the built-in lenders and their name-derived starter patterns.
Safe to run repeatedly: existing lenders and usage counts are untouched.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.registry.Seed(ctx); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Lender registry seeded"))
			return nil
		},
	}
}

func lendersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <lender-id>",
		Short: "Show one lender and its learned patterns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			lender, err := a.store.GetLender(ctx, args[0])
			if err != nil {
				return err
			}
			patterns, err := a.registry.Patterns(ctx, lender.ID)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle(fmt.Sprintf("%s (%s, %s)", lender.Name, lender.ID, lender.Kind)))
			if len(patterns) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No learned patterns."))
				return nil
			}

			fmt.Printf("%8s %8s %-10s %s\n", "ID", "USAGE", "STATE", "PATTERN")
			for i := range patterns {
				p := &patterns[i]
				state := "active"
				if p.Excluded {
					state = cli.WarningStyle.Render("excluded")
				}
				fmt.Printf("%8d %8d %-10s %s\n", p.ID, p.UsageCount, state, p.NormalizedText)
			}
			return nil
		},
	}
}
