package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newIdentityCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Inspect the synthetic client identity of an account",
	}

	cmd.AddCommand(newIdentityShowCmd(app))

	return cmd
}

func newIdentityShowCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <label|key>",
		Short: "Show (and cache on first use) the identity of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := app.service.ShowIdentity(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}

			id := view.Identity
			account := view.Account
			if account == "" {
				account = "-"
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			rows := [][2]string{
				{"account", account},
				{"key", view.Key},
				{"user agent", id.UserAgent},
				{"platform", fmt.Sprintf("%s (%s, %s)", id.Platform, id.OS, id.Browser)},
				{"gpu", id.GPU},
				{"hardware", fmt.Sprintf("%d cores, %s", id.Cores, id.Memory)},
				{"screen", fmt.Sprintf("%s, viewport %s, x%d", id.ScreenRes, id.Viewport, id.PixelRatio)},
				{"locale", fmt.Sprintf("%s, %s", id.Locale, id.Timezone)},
				{"canvas", id.CanvasHash},
				{"webgl", id.WebGLHash},
				{"audio", id.AudioHash},
			}
			for _, row := range rows {
				_, _ = fmt.Fprintf(w, "%s:\t%s\n", row[0], row[1])
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the identity as JSON")

	return cmd
}
