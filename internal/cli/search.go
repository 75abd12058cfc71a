package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wikiviewer/pkg/errors"
	"github.com/matzehuels/wikiviewer/pkg/integrations/wikipedia"
)

// searchOptions holds flags for the search command.
type searchOptions struct {
	json   bool
	strict bool
}

// searchCommand creates the search command.
func (c *CLI) searchCommand() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <keyword...>",
		Short: "Search Wikipedia articles",
		Long: `Search Wikipedia and print every hit with its snippet and URL.

Words matching the keyword are highlighted. All arguments are joined into
one keyword.`,
		Example: `  wikiviewer search cat
  wikiviewer search "domestic cat" --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSearch(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "print articles as JSON")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail when a hit cannot be resolved to a URL")

	return cmd
}

func (c *CLI) runSearch(ctx context.Context, w io.Writer, keyword string, opts searchOptions) error {
	if err := errors.ValidateKeyword(keyword); err != nil {
		return err
	}

	client, backend, err := c.newClient(ctx, opts.strict)
	if err != nil {
		return err
	}
	defer backend.Close()

	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	spin := newSpinner(ctx, fmt.Sprintf("Searching %q...", keyword))
	if !opts.json {
		spin.Start()
	}
	articles, err := client.Search(ctx, keyword)
	spin.Stop()
	if err != nil {
		return err
	}

	if opts.json {
		return writeJSON(w, articles)
	}
	if len(articles) == 0 {
		printInfo("No articles found for %q", keyword)
		return nil
	}

	prog.done(fmt.Sprintf("Found %d articles", len(articles)))
	writeArticles(w, articles)

	if n := countUnresolved(articles); n > 0 {
		printWarning("%d of %d articles could not be resolved to a URL", n, len(articles))
	}
	return nil
}

func countUnresolved(articles []wikipedia.Article) int {
	n := 0
	for _, a := range articles {
		if !a.Resolved() {
			n++
		}
	}
	return n
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
