package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"cmoney/internal/backend"
	"cmoney/internal/cli"
	"cmoney/internal/core"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage API users",
	}
	cmd.AddCommand(createUserCmd())
	cmd.AddCommand(rotateTokenCmd())
	cmd.AddCommand(listUsersCmd())
	return cmd
}

func createUserCmd() *cobra.Command {
	var u core.User
	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user and print their API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, func(ctx context.Context, b *backend.BackendResult) error {
				u.Username = args[0]
				u.APIToken = uuid.NewString()
				created, err := b.Repository.CreateUser(ctx, u)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, cli.SuccessStyle.Render(fmt.Sprintf("Created user %s (id %d)", created.Username, created.ID)))
				fmt.Fprintln(out, "API token:", created.APIToken)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&u.Email, "email", "", "email address")
	cmd.Flags().StringVar(&u.Nickname, "nickname", "", "display name")
	cmd.Flags().StringVar(&u.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&u.StudentID, "student-id", "", "student number")
	return cmd
}

func rotateTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <username>",
		Short: "Issue a new API token, revoking the old one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, func(ctx context.Context, b *backend.BackendResult) error {
				u, err := b.Repository.GetUserByUsername(ctx, args[0])
				if err != nil {
					return err
				}
				token := uuid.NewString()
				if err := b.Repository.UpdateUserToken(ctx, u.ID, token); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.SuccessStyle.Render("New token for "+u.Username+":"), token)
				fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render("Running servers may accept the old token until their auth cache expires."))
				return nil
			})
		},
	}
}

func listUsersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, func(ctx context.Context, b *backend.BackendResult) error {
				users, err := b.Repository.ListUsers(ctx)
				if err != nil {
					return err
				}
				if len(users) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render("No users yet. Use 'cmoneyctl users create' to add one."))
					return nil
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				defer w.Flush()
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					cli.HeaderStyle.Render("ID"),
					cli.HeaderStyle.Render("Username"),
					cli.HeaderStyle.Render("Email"),
					cli.HeaderStyle.Render("Created"))
				for _, u := range users {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.CreatedAt.Format("2006-01-02"))
				}
				return nil
			})
		},
	}
}

// lookupUser resolves the --user flag shared by the per-user commands.
func lookupUser(ctx context.Context, b *backend.BackendResult, username string) (core.User, error) {
	if username == "" {
		return core.User{}, fmt.Errorf("--user is required")
	}
	return b.Repository.GetUserByUsername(ctx, username)
}
