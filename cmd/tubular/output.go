package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmcdole/tubular/internal/domain"
)

// printItems writes items in the format chosen by the --output flag
func printItems(cmd *cobra.Command, items []domain.Item) error {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	case "text", "":
		return printText(cmd, items)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func printText(cmd *cobra.Command, items []domain.Item) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, item := range items {
		fmt.Fprintln(w, strings.Join(textColumns(item), "\t"))
	}
	return w.Flush()
}

// textColumns returns the columns shown for one item: title, detail, id
func textColumns(item domain.Item) []string {
	switch v := item.(type) {
	case *domain.Video:
		ref := v.URL
		if ref == "" {
			ref = v.ID
		}
		return []string{oneLine(v.Title, 70), v.GetDescription(), ref}
	case *domain.Playlist:
		return []string{oneLine(v.Title, 70), v.GetDescription(), v.ID}
	case *domain.User:
		detail := ""
		if v.SubscriberCount > 0 {
			detail = fmt.Sprintf("%d subscribers", v.SubscriberCount)
		}
		if v.Subscribed {
			detail = strings.TrimSpace(detail + " (subscribed)")
		}
		return []string{oneLine(v.Username, 70), detail, v.ID}
	case *domain.Comment:
		return []string{v.Username, oneLine(v.Body, 90), v.Date}
	default:
		return []string{oneLine(item.GetTitle(), 70), "", item.GetID()}
	}
}

// oneLine flattens whitespace and cuts s to width runes
func oneLine(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
