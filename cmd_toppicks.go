package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shopguide/internal/adminui"
	"shopguide/internal/apiclient"
	"shopguide/internal/logging"
	"shopguide/internal/models"
)

type apiFlags struct {
	baseURL  string
	username string
	password string
	token    string
	verbose  bool
}

func newTopPicksCmd() *cobra.Command {
	flags := &apiFlags{}
	cmd := &cobra.Command{
		Use:   "top-picks",
		Short: "Inspect and reorder the featured products through the HTTP API",
	}
	cmd.PersistentFlags().StringVar(&flags.baseURL, "api", envOr("SHOPGUIDE_API", "http://localhost:3000"), "API base URL")
	cmd.PersistentFlags().StringVar(&flags.username, "user", os.Getenv("SHOPGUIDE_USER"), "admin username or email")
	cmd.PersistentFlags().StringVar(&flags.password, "password", os.Getenv("SHOPGUIDE_PASSWORD"), "admin password")
	cmd.PersistentFlags().StringVar(&flags.token, "token", os.Getenv("SHOPGUIDE_TOKEN"), "admin bearer token, skips login")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log requests and reloads")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "Show the featured set in admin order, inactive included",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				session, err := flags.session(cmd.Context())
				if err != nil {
					return err
				}
				printTopPicks(cmd.OutOrStdout(), session.Store().Products())
				return nil
			},
		},
		&cobra.Command{
			Use:   "move <from> <to>",
			Short: "Move the product at position from to position to (1-based) and save the order",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				from, err := parsePosition(args[0])
				if err != nil {
					return err
				}
				to, err := parsePosition(args[1])
				if err != nil {
					return err
				}
				session, err := flags.session(cmd.Context())
				if err != nil {
					return err
				}
				if err := session.Drop(cmd.Context(), from, to); err != nil {
					printTopPicks(cmd.ErrOrStderr(), session.Store().Products())
					return fmt.Errorf("reorder failed, current order shown above: %w", err)
				}
				printTopPicks(cmd.OutOrStdout(), session.Store().Products())
				return nil
			},
		},
		&cobra.Command{
			Use:   "reorder <id> [id...]",
			Short: "Save a complete order, first id becomes rank 1",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				session, err := flags.session(cmd.Context())
				if err != nil {
					return err
				}
				if err := session.Submit(cmd.Context(), args); err != nil {
					printTopPicks(cmd.ErrOrStderr(), session.Store().Products())
					return fmt.Errorf("reorder failed, current order shown above: %w", err)
				}
				printTopPicks(cmd.OutOrStdout(), session.Store().Products())
				return nil
			},
		},
		&cobra.Command{
			Use:   "toggle <id>",
			Short: "Add a product to the featured set or remove it",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				session, err := flags.session(cmd.Context())
				if err != nil {
					return err
				}
				product, err := session.Toggle(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				state := "removed from"
				if product.IsTopPick {
					state = "added to"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s top picks\n", product.Title, state)
				printTopPicks(cmd.OutOrStdout(), session.Store().Products())
				return nil
			},
		},
	)
	return cmd
}

// session logs in when no token is given and loads the current featured set.
func (f *apiFlags) session(ctx context.Context) (*adminui.Session, error) {
	logger := zap.NewNop()
	if f.verbose {
		built, err := logging.New("debug", true)
		if err != nil {
			return nil, err
		}
		logger = built
	}

	client := apiclient.New(f.baseURL, apiclient.WithToken(f.token))
	if f.token == "" {
		if f.username == "" || f.password == "" {
			return nil, fmt.Errorf("either --token or --user and --password are required")
		}
		if _, err := client.Login(ctx, f.username, f.password); err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
	}

	session := adminui.NewSession(client, logger)
	if err := session.Load(ctx); err != nil {
		return nil, fmt.Errorf("load top picks: %w", err)
	}
	return session, nil
}

func parsePosition(raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("position must be a positive integer, got %q", raw)
	}
	return n - 1, nil
}

func printTopPicks(w io.Writer, products []models.Product) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POS\tRANK\tACTIVE\tID\tTITLE")
	for i, p := range products {
		fmt.Fprintf(tw, "%d\t%d\t%t\t%s\t%s\n", i+1, p.Rank, p.IsActive, p.ID.Hex(), p.Title)
	}
	tw.Flush()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
