package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/bnema/deltahash-cli/internal/application"
	"github.com/spf13/cobra"
)

func newAccountsCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "accounts",
		Aliases: []string{"account"},
		Short:   "Manage accounts",
	}

	cmd.AddCommand(
		newAccountsListCmd(app),
		newAccountsAddCmd(app),
	)

	return cmd
}

func newAccountsListCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			summaries, err := app.service.ListAccounts(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(summaries)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ACCOUNT\tKEY\tPROXY\tDEVICE")
			for _, summary := range summaries {
				device := summary.DeviceID
				if device == "" {
					device = "-"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", summary.Label, summary.KeyHint, summary.Proxy, device)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print accounts as JSON")

	return cmd
}

func newAccountsAddCmd(app *app) *cobra.Command {
	var input application.AddAccountCommand

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an account, or update the one with the same cookie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := app.service.AddAccount(cmd.Context(), input)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d proxies)\n", account.Label(), len(account.Proxies))
			return err
		},
	}

	cmd.Flags().StringVar(&input.Cookie, "cookie", "", "session cookie (connect.sid value, prefix optional)")
	cmd.Flags().StringVar(&input.Identifier, "identifier", "", "stable account key when no cookie is given")
	cmd.Flags().StringSliceVar(&input.Proxies, "proxy", nil, "proxy URL (http, https, socks5); repeat for a rotation pool")
	cmd.Flags().StringVar(&input.DeviceID, "device-id", "", "known device handle")
	cmd.MarkFlagsOneRequired("cookie", "identifier")

	return cmd
}
