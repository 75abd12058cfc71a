package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"
)

// randomOptions holds flags for the random command.
type randomOptions struct {
	json bool
	open bool
}

// randomCommand creates the random command.
func (c *CLI) randomCommand() *cobra.Command {
	var opts randomOptions

	cmd := &cobra.Command{
		Use:   "random",
		Short: "Show a random Wikipedia article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRandom(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "print the article as JSON")
	cmd.Flags().BoolVar(&opts.open, "open", false, "open the article in a browser")

	return cmd
}

func (c *CLI) runRandom(ctx context.Context, w io.Writer, opts randomOptions) error {
	client, backend, err := c.newClient(ctx, false)
	if err != nil {
		return err
	}
	defer backend.Close()

	spin := newSpinner(ctx, "Picking a random article...")
	if !opts.json {
		spin.Start()
	}
	articles, err := client.RandomArticle(ctx)
	spin.Stop()
	if err != nil {
		return err
	}

	if opts.json {
		if err := writeJSON(w, articles); err != nil {
			return err
		}
	} else {
		writeArticles(w, articles)
	}

	if opts.open {
		if err := openBrowser(articles[0].URL); err != nil {
			return err
		}
		if !opts.json {
			printSuccess("Opened %s", articles[0].Title)
		}
	}
	return nil
}
