package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cmoney/internal/backend"
	"cmoney/internal/cli"
)

func categoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Manage a user's categories",
	}

	var username string
	initCmd := &cobra.Command{
		Use:   "init-defaults",
		Short: "Seed the default income and expense categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, func(ctx context.Context, b *backend.BackendResult) error {
				u, err := lookupUser(ctx, b, username)
				if err != nil {
					return err
				}
				n, err := b.Services.Categories.InitDefaults(ctx, u.ID)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render(fmt.Sprintf("Created %d categories for %s", n, u.Username)))
				return nil
			})
		},
	}
	initCmd.Flags().StringVar(&username, "user", "", "username")
	cmd.AddCommand(initCmd)
	return cmd
}

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Inspect budgets",
	}

	var username string
	alertsCmd := &cobra.Command{
		Use:   "alerts",
		Short: "List active budgets at or over their alert threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, func(ctx context.Context, b *backend.BackendResult) error {
				u, err := lookupUser(ctx, b, username)
				if err != nil {
					return err
				}
				alerts, err := b.Services.Budgets.Alerts(ctx, u.ID)
				if err != nil {
					return err
				}
				if len(alerts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render("No budget alerts"))
					return nil
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				defer w.Flush()
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					cli.HeaderStyle.Render("Month"),
					cli.HeaderStyle.Render("Category"),
					cli.HeaderStyle.Render("Budget"),
					cli.HeaderStyle.Render("Spent"),
					cli.HeaderStyle.Render("Used"))
				for _, st := range alerts {
					category := st.CategoryName
					if st.CategoryID == nil {
						category = "(total)"
					}
					used := st.UsagePercentage.String() + "%"
					if st.IsExceeded {
						used = cli.ErrorStyle.Render(used)
					} else {
						used = cli.WarningStyle.Render(used)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", st.YearMonth, category, st.Amount, st.SpentAmount, used)
				}
				return nil
			})
		},
	}
	alertsCmd.Flags().StringVar(&username, "user", "", "username")
	cmd.AddCommand(alertsCmd)
	return cmd
}

func reportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Print reports",
	}

	var username, month string
	summaryCmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the monthly summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, func(ctx context.Context, b *backend.BackendResult) error {
				u, err := lookupUser(ctx, b, username)
				if err != nil {
					return err
				}
				s, err := b.Services.Reports.Summary(ctx, u.ID, month)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintln(out, cli.TitleStyle.Render(fmt.Sprintf("Summary for %s, %s", u.Username, s.YearMonth)))
				fmt.Fprintf(out, "Income:  %s (%d)\n", s.Income.Total, s.Income.Count)
				fmt.Fprintf(out, "Expense: %s (%d)\n", s.Expense.Total, s.Expense.Count)
				fmt.Fprintf(out, "Balance: %s\n", s.Balance)
				if s.Budget != nil {
					fmt.Fprintf(out, "Budget:  %s used of %s (%s%%)\n", s.Budget.SpentAmount, s.Budget.Amount, s.Budget.UsagePercentage)
				}
				if len(s.CategoryDistribution) == 0 {
					return nil
				}

				fmt.Fprintln(out)
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				defer w.Flush()
				fmt.Fprintf(w, "%s\t%s\t%s\n",
					cli.HeaderStyle.Render("Category"),
					cli.HeaderStyle.Render("Amount"),
					cli.HeaderStyle.Render("Share"))
				for _, c := range s.CategoryDistribution {
					fmt.Fprintf(w, "%s\t%s\t%s%%\n", c.Name, c.Amount, c.Percentage)
				}
				return nil
			})
		},
	}
	summaryCmd.Flags().StringVar(&username, "user", "", "username")
	summaryCmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")
	cmd.AddCommand(summaryCmd)
	return cmd
}
