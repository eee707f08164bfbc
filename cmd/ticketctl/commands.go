package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/class-meetup-checkin/internal/config"
	"github.com/iliyamo/class-meetup-checkin/internal/database"
	"github.com/iliyamo/class-meetup-checkin/internal/repository"
	"github.com/iliyamo/class-meetup-checkin/internal/ticket"
	"github.com/iliyamo/class-meetup-checkin/internal/utils"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ticketctl",
		Short:        "Operate class and meetup tickets",
		SilenceUsage: true,
	}
	root.AddCommand(newIssueCmd(), newVerifyCmd(), newMigrateCmd(), newTokenCmd())
	return root
}

func openDB(ctx context.Context) (config.Config, *repository.TicketRepo, func(), error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return cfg, nil, nil, err
	}
	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		return cfg, nil, nil, err
	}
	return cfg, repository.NewTicketRepo(db), func() { _ = db.Close() }, nil
}

func newIssueCmd() *cobra.Command {
	var (
		req     ticket.IssueRequest
		expires time.Duration
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue and store a ticket, printing its QR payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, repo, closeDB, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			if expires > 0 {
				at := time.Now().UTC().Add(expires)
				req.ExpiresAt = &at
			}
			t, err := ticket.NewIssuer(cfg.TicketSecret).Issue(req)
			if err != nil {
				return err
			}
			if err := repo.Create(cmd.Context(), t); err != nil {
				return fmt.Errorf("store ticket: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ticket %s (%s)\n%s\n", t.TicketNumber, t.ID, t.SignedPayload)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.UserID, "user", "", "ticket owner user id (required)")
	f.StringVar(&req.ClassID, "class", "", "class id")
	f.StringVar(&req.MeetupID, "meetup", "", "meetup id")
	f.StringVar(&req.EnrollmentID, "enrollment", "", "class enrollment id")
	f.StringVar(&req.MeetupMemberID, "member", "", "meetup membership id")
	f.DurationVar(&expires, "expires-in", 0, "expiry relative to now; 0 never expires")
	_ = cmd.MarkFlagRequired("user")
	cmd.MarkFlagsMutuallyExclusive("class", "meetup")
	cmd.MarkFlagsOneRequired("class", "meetup")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var qr string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a QR payload's format and signature without touching the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadTicketSecret()
			if err != nil {
				return err
			}
			p, err := ticket.VerifySignature(qr, cfg.TicketSecret)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), ticket.Code(err))
				return err
			}
			canon, err := p.CanonicalBytes()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signature ok (%s)\n%s\n", p.EventKind(), canon)
			return nil
		},
	}
	cmd.Flags().StringVar(&qr, "qr", "", "serialized QR payload (required)")
	_ = cmd.MarkFlagRequired("qr")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			db, err := database.Open(cmd.Context(), database.Options{
				User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
			})
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}

func newTokenCmd() *cobra.Command {
	var (
		user, role string
		ttl        time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token signed with JWT_SECRET for a local scanner or admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			tok, err := utils.NewAccessToken(secret, user, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "subject user id (required)")
	cmd.Flags().StringVar(&role, "role", "", "role claim, e.g. ADMIN")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
