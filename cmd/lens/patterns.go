package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hollisfi/ledgerlens/internal/cli"
	"github.com/hollisfi/ledgerlens/internal/registry"
)

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Manage learned lender patterns",
	}

	cmd.AddCommand(patternsAddCmd())
	cmd.AddCommand(patternsEditCmd())
	cmd.AddCommand(patternsDeleteCmd())
	cmd.AddCommand(patternsExcludeCmd())

	return cmd
}

func parsePatternID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("pattern id must be numeric, got %q", arg)
	}
	return id, nil
}

func patternsAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <lender-id> <text>",
		Short: "Add a pattern to a lender",
		Long: `Add a matching pattern by hand. The text is normalized the same way
transaction descriptions are, so dates, amounts, and reference numbers
may be included verbatim.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.registry.AddPattern(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Pattern added to %s", args[0])))
			return nil
		},
	}
}

func patternsEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <pattern-id> <text>",
		Short: "Rewrite a pattern's text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			patternID, err := parsePatternID(args[0])
			if err != nil {
				return err
			}

			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.registry.RenamePattern(ctx, patternID, args[1]); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Pattern %d updated", patternID)))
			return nil
		},
	}
}

func patternsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <pattern-id>",
		Short: "Delete a pattern",
		Long: `Delete a learned pattern. A lender's last remaining pattern cannot be
deleted; exclude it instead to keep the lender resolvable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			patternID, err := parsePatternID(args[0])
			if err != nil {
				return err
			}

			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.registry.RemovePattern(ctx, patternID); err != nil {
				if errors.Is(err, registry.ErrLastPattern) {
					return fmt.Errorf("pattern %d is its lender's only pattern; use 'lens patterns exclude' instead", patternID)
				}
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Pattern %d deleted", patternID)))
			return nil
		},
	}
}

func patternsExcludeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exclude <lender-id> <text>",
		Short: "Exclude a pattern from matching",
		Long: `Stop a pattern from producing matches without losing its history.
Pass --restore to re-enable it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			restore, _ := cmd.Flags().GetBool("restore")

			a, err := initApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.registry.SetExcluded(ctx, args[0], args[1], !restore); err != nil {
				return err
			}
			verb := "excluded from"
			if restore {
				verb = "restored to"
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Pattern %s matching", verb)))
			return nil
		},
	}
	cmd.Flags().Bool("restore", false, "re-enable a previously excluded pattern")
	return cmd
}
