package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hirosato/staging-ledger/internal/app"
	"github.com/hirosato/staging-ledger/internal/domain/command"
	"github.com/hirosato/staging-ledger/internal/domain/errors"
	"github.com/hirosato/staging-ledger/internal/domain/ledger"
	"github.com/hirosato/staging-ledger/internal/domain/session"
	"github.com/hirosato/staging-ledger/internal/domain/staging"
)

type rootOptions struct {
	sessionID string
	verbose   bool
}

// opener builds the application for one command run
type opener func(ctx context.Context, opts rootOptions) (*app.App, error)

func newRootCmd(open opener) *cobra.Command {
	opts := rootOptions{}

	root := &cobra.Command{
		Use:           "stagingctl",
		Short:         "Inspect and post staged ledger rows",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.sessionID, "session", "", "staging session ID (overrides STAGING_SESSION_ID)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	// withApp opens the app, runs fn and flushes pending edits on the way out
	withApp := func(fn func(cmd *cobra.Command, a *app.App, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := open(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close(ctx)
			return fn(cmd, a, args)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List staged rows",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
				return printRows(cmd.OutOrStdout(), a.Store.Rows())
			}),
		},
		&cobra.Command{
			Use:   "balance",
			Short: "Check debit and credit totals of unposted rows",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
				result, err := dispatch(cmd.Context(), a, command.CheckBalance{})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), result.(session.BalanceReport).Message)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "post",
			Short: "Group unposted rows by document number and post them as vouchers",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
				result, err := dispatch(cmd.Context(), a, command.Post{})
				if err != nil {
					return err
				}
				post := result.(session.PostResult)
				fmt.Fprintln(cmd.OutOrStdout(), post.Message)
				if len(post.Summary.FailedDocNumbers) > 0 {
					return fmt.Errorf("%d voucher(s) failed", len(post.Summary.FailedDocNumbers))
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "add",
			Short: "Append an empty row",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
				result, err := dispatch(cmd.Context(), a, command.AddRow{})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), result.(staging.Row).ID)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "set <row-id> <field> <value>",
			Short: "Edit one field of a row",
			Args:  cobra.ExactArgs(3),
			RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
				row, err := a.Store.Edit(cmd.Context(), args[0], staging.Field(args[1]), args[2])
				if err != nil {
					return err
				}
				return printRows(cmd.OutOrStdout(), []staging.Row{row})
			}),
		},
		&cobra.Command{
			Use:   "delete <row-id>",
			Short: "Delete a row",
			Args:  cobra.ExactArgs(1),
			RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
				return a.Store.Delete(cmd.Context(), args[0])
			}),
		},
		confirmCmd("clear", "Delete every row of the session", withApp, func(confirmed bool) command.Command {
			return command.ClearAll{Confirmed: confirmed}
		}),
		confirmCmd("reset", "Replace every row with the sample data", withApp, func(confirmed bool) command.Command {
			return command.ResetSample{Confirmed: confirmed}
		}),
		newVouchersCmd(withApp),
	)

	return root
}

type runner func(fn func(cmd *cobra.Command, a *app.App, args []string) error) func(*cobra.Command, []string) error

func confirmCmd(use, short string, withApp runner, build func(confirmed bool) command.Command) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			result, err := dispatch(cmd.Context(), a, build(yes))
			if err != nil {
				return err
			}
			return printRows(cmd.OutOrStdout(), result.([]staging.Row))
		}),
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the destructive operation")
	return cmd
}

func newVouchersCmd(withApp runner) *cobra.Command {
	var voucherID, docNo string
	cmd := &cobra.Command{
		Use:   "vouchers",
		Short: "Show posted vouchers by ID or document number",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app.App, args []string) error {
			var vouchers []ledger.Voucher
			switch {
			case voucherID != "":
				v, err := a.Ledger.GetVoucher(cmd.Context(), voucherID)
				if err != nil {
					return err
				}
				vouchers = []ledger.Voucher{*v}
			case docNo != "":
				found, err := a.Ledger.ListVouchersByDocNo(cmd.Context(), docNo)
				if err != nil {
					return err
				}
				vouchers = found
			default:
				return errors.NewValidationError("either --id or --doc is required")
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(vouchers)
		}),
	}
	cmd.Flags().StringVar(&voucherID, "id", "", "voucher ID")
	cmd.Flags().StringVar(&docNo, "doc", "", "document number")
	return cmd
}

func dispatch(ctx context.Context, a *app.App, cmd command.Command) (any, error) {
	outcome, err := a.Bus.Dispatch(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if !outcome.Handled {
		return nil, errors.NewConflictError("no staging session is active")
	}
	return outcome.Result, nil
}

func printRows(w io.Writer, rows []staging.Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tDOC\tDEBIT\tCREDIT\tAMOUNT\tSTATUS\tNOTE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.Date, r.DocNo, r.DebitAccount, r.CreditAccount, r.Amount, r.Status, r.StatusNote)
	}
	return tw.Flush()
}
