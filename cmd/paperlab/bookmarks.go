package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"paperlab/internal/bookmarks"
	"paperlab/internal/term"
)

var bookmarksCmd = &cobra.Command{
	Use:   "bookmarks",
	Short: "Print the bookmarks held by a running paperlab server",
	Args:  cobra.NoArgs,
	RunE:  runBookmarks,
}

func init() {
	bookmarksCmd.Flags().String("server", "http://localhost:8000", "base URL of the paperlab server")
	bookmarksCmd.Flags().Int("width", 0, "output width in columns")
	rootCmd.AddCommand(bookmarksCmd)
}

func runBookmarks(cmd *cobra.Command, _ []string) error {
	server, _ := cmd.Flags().GetString("server")
	width, _ := cmd.Flags().GetInt("width")

	groups, err := fetchBookmarks(cmd, strings.TrimRight(server, "/")+"/api/bookmarks")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), term.NewRenderer(width).Bookmarks(groups))
	return nil
}

func fetchBookmarks(cmd *cobra.Command, endpoint string) ([]bookmarks.Group, error) {
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contacting paperlab server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paperlab server returned HTTP %d", resp.StatusCode)
	}
	var groups []bookmarks.Group
	if err := json.NewDecoder(resp.Body).Decode(&groups); err != nil {
		return nil, fmt.Errorf("decoding bookmarks: %w", err)
	}
	return groups, nil
}
