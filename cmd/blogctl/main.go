// Command blogctl manages blog posts through the admin API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "blogctl",
		Short:        "Manage blog posts from the command line",
		SilenceUsage: true,
		Long: `blogctl talks to a running blog server. Every command logs in with the
admin password first.

Examples:
  blogctl list
  blogctl create --title "Hello" --excerpt "Short" --content-file post.md --published
  blogctl update 6650c1f2 --published=false
  blogctl watch`,
	}

	cmd.AddCommand(
		newListCommand(),
		newGetCommand(),
		newCreateCommand(),
		newUpdateCommand(),
		newDeleteCommand(),
		newWatchCommand(),
	)
	return cmd
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
