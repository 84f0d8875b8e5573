// Command attendctl runs operator tasks against the attendance database:
// schema migrations, teacher provisioning and device resets.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"campusattend/internal/auth"
	"campusattend/internal/config"
	"campusattend/internal/store"
	"campusattend/internal/students"
	"campusattend/internal/users"
)

type provisioner interface {
	Provision(ctx context.Context, email, name, role, password string) (users.User, error)
}

type deviceResetter interface {
	ForceResetDevice(ctx context.Context, email string) error
}

// backend is what the commands operate on. close releases it.
type backend struct {
	migrate  func(ctx context.Context) error
	users    provisioner
	students deviceResetter
	close    func() error
}

type opener func(ctx context.Context) (*backend, error)

func openPostgres(ctx context.Context) (*backend, error) {
	cfg := config.Load()
	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	tokens := auth.NewIssuer(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.TokenTTL)
	return &backend{
		migrate:  func(ctx context.Context) error { return store.Migrate(ctx, db.Client) },
		users:    users.NewService(users.NewRepository(db.Client), tokens),
		students: students.NewService(students.NewRepository(db.Client), tokens, cfg.StudentEmailDomain),
		close:    db.Close,
	}, nil
}

func newRootCmd(open opener, out io.Writer) *cobra.Command {
	var timeout time.Duration
	root := &cobra.Command{
		Use:           "attendctl",
		Short:         "Operate the campus attendance service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Deadline for the whole command")
	root.SetOut(out)

	// withBackend opens the backend for one command and closes it afterwards.
	withBackend := func(cmd *cobra.Command, fn func(ctx context.Context, b *backend) error) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		b, err := open(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = b.close() }()
		return fn(ctx, b)
	}

	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withBackend(cmd, func(ctx context.Context, b *backend) error {
				if err := b.migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	})

	root.AddCommand(newUserCmd(withBackend), newDeviceCmd(withBackend))
	return root
}

type backendRunner func(cmd *cobra.Command, fn func(ctx context.Context, b *backend) error) error

func newUserCmd(run backendRunner) *cobra.Command {
	userCmd := &cobra.Command{Use: "user", Short: "Manage teacher and admin accounts"}

	var email, name, role, password string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a teacher or admin with a bcrypt-hashed password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("ATTENDCTL_PASSWORD")
			}
			if password == "" {
				return fmt.Errorf("--password or ATTENDCTL_PASSWORD is required")
			}
			return run(cmd, func(ctx context.Context, b *backend) error {
				u, err := b.users.Provision(ctx, email, name, role, password)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", u.Role, u.Email, u.ID)
				return nil
			})
		},
	}
	f := add.Flags()
	f.StringVar(&email, "email", "", "Account email")
	f.StringVar(&name, "name", "", "Display name")
	f.StringVar(&role, "role", auth.RoleTeacher, "teacher or admin")
	f.StringVar(&password, "password", "", "Initial password (or ATTENDCTL_PASSWORD)")
	_ = add.MarkFlagRequired("email")

	userCmd.AddCommand(add)
	return userCmd
}

func newDeviceCmd(run backendRunner) *cobra.Command {
	deviceCmd := &cobra.Command{Use: "device", Short: "Manage student device bindings"}

	var email string
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Clear a student's bound device so the next check-in binds a new one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, func(ctx context.Context, b *backend) error {
				if err := b.students.ForceResetDevice(ctx, email); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "device reset for %s\n", email)
				return nil
			})
		},
	}
	reset.Flags().StringVar(&email, "email", "", "Student email")
	_ = reset.MarkFlagRequired("email")

	deviceCmd.AddCommand(reset)
	return deviceCmd
}

func main() {
	root := newRootCmd(openPostgres, os.Stdout)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
