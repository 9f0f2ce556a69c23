package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/tubular/internal/app"
	"github.com/mmcdole/tubular/internal/collection"
	"github.com/mmcdole/tubular/internal/domain"
)

func newSearchCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the active service and print the results",
		Example: `  tubular search golang generics
  tubular search --kind playlist --order date lofi
  tubular search --service vimeo --pages 3 -o json cats`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer c.close()

			kind, err := kindFlag(cmd)
			if err != nil {
				return err
			}
			order, _ := cmd.Flags().GetString("order")
			pages, _ := cmd.Flags().GetInt("pages")
			query := strings.Join(args, " ")

			items, err := searchItems(cmd.Context(), a.Browser, kind, query, order, pages)
			if len(items) > 0 {
				if ferr := printItems(cmd, items); ferr != nil {
					return ferr
				}
			}
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			if len(items) == 0 {
				cmd.Println("No results for", query)
			}
			return nil
		},
	}
	addFetchFlags(cmd)
	cmd.Flags().String("order", "", "result order (default: the last one used for the service)")
	return cmd
}

func newListCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <resource>",
		Short: "List a resource of the active service",
		Long: `List pages of a service resource. For YouTube the resource is an API
path such as /videos, /playlistItems or /subscriptions; for plugins it is
whatever id the plugin understands.`,
		Example: `  tubular list /playlistItems --filter playlistId=PL123
  tubular list --kind comment /commentThreads --filter videoId=abc
  tubular list --kind user /subscriptions --param mine=true`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open()
			if err != nil {
				return err
			}
			defer c.close()

			kind, err := kindFlag(cmd)
			if err != nil {
				return err
			}
			pages, _ := cmd.Flags().GetInt("pages")
			filters, _ := cmd.Flags().GetStringToString("filter")
			params, _ := cmd.Flags().GetStringToString("param")

			opts := []collection.Option{
				collection.WithFilters(toAny(filters)),
				collection.WithParams(toAny(params)),
			}
			items, err := listItems(cmd.Context(), a.Browser, kind, args[0], opts, pages)
			if len(items) > 0 {
				if ferr := printItems(cmd, items); ferr != nil {
					return ferr
				}
			}
			if err != nil {
				return fmt.Errorf("list failed: %w", err)
			}
			if len(items) == 0 {
				cmd.Println("Nothing found")
			}
			return nil
		},
	}
	addFetchFlags(cmd)
	cmd.Flags().StringToString("filter", nil, "filter passed to the service (key=value, repeatable)")
	cmd.Flags().StringToString("param", nil, "extra parameter passed to the service (key=value, repeatable)")
	return cmd
}

func addFetchFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("kind", "k", string(domain.KindVideo), "kind of item: video, playlist, user or comment")
	cmd.Flags().IntP("pages", "p", 1, "number of pages to load")
	cmd.Flags().StringP("output", "o", "text", "output format: text or json")
}

func kindFlag(cmd *cobra.Command) (domain.ResourceKind, error) {
	value, _ := cmd.Flags().GetString("kind")
	kind := domain.ResourceKind(strings.ToLower(value))
	if !kind.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedKind, value)
	}
	return kind, nil
}

func toAny(m map[string]string) map[string]any {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func searchItems(ctx context.Context, b *app.Browser, kind domain.ResourceKind, query, order string, pages int) ([]domain.Item, error) {
	switch kind {
	case domain.KindPlaylist:
		c := b.Playlists()
		return collect(ctx, c, func() { app.Search(b, c, query, order) }, pages)
	case domain.KindUser:
		c := b.Users()
		return collect(ctx, c, func() { app.Search(b, c, query, order) }, pages)
	case domain.KindComment:
		c := b.Comments()
		return collect(ctx, c, func() { app.Search(b, c, query, order) }, pages)
	default:
		c := b.Videos()
		return collect(ctx, c, func() { app.Search(b, c, query, order) }, pages)
	}
}

func listItems(ctx context.Context, b *app.Browser, kind domain.ResourceKind, resource string, opts []collection.Option, pages int) ([]domain.Item, error) {
	switch kind {
	case domain.KindPlaylist:
		c := b.Playlists()
		return collect(ctx, c, func() { c.List(resource, opts...) }, pages)
	case domain.KindUser:
		c := b.Users()
		return collect(ctx, c, func() { c.List(resource, opts...) }, pages)
	case domain.KindComment:
		c := b.Comments()
		return collect(ctx, c, func() { c.List(resource, opts...) }, pages)
	default:
		c := b.Videos()
		return collect(ctx, c, func() { c.List(resource, opts...) }, pages)
	}
}

func collect[T domain.Item](ctx context.Context, c *collection.Collection[T], start func(), pages int) ([]domain.Item, error) {
	items, err := app.Collect(ctx, c, start, pages)
	out := make([]domain.Item, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out, err
}
