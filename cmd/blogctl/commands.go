package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/blackmichael/blog-admin/internal/client"
	"github.com/blackmichael/blog-admin/internal/domain"
)

const (
	serverFlag   = "server"
	passwordFlag = "password"

	titleFlag       = "title"
	excerptFlag     = "excerpt"
	contentFlag     = "content"
	contentFileFlag = "content-file"
	publishedFlag   = "published"
)

// connectionFlags are registered on every command that talks to the server.
func connectionFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		serverFlag: &cobraflags.StringFlag{
			Name:  serverFlag,
			Value: envOrDefault("BLOG_SERVER", "http://localhost:3000"),
			Usage: "Blog server URL (or set BLOG_SERVER)",
		},
		passwordFlag: &cobraflags.StringFlag{
			Name:  passwordFlag,
			Value: envOrDefault("BLOG_ADMIN_PASSWORD", ""),
			Usage: "Admin password (or set BLOG_ADMIN_PASSWORD)",
		},
	}
}

func postFlags() map[string]cobraflags.Flag {
	return map[string]cobraflags.Flag{
		titleFlag: &cobraflags.StringFlag{
			Name:  titleFlag,
			Usage: "Post title",
		},
		excerptFlag: &cobraflags.StringFlag{
			Name:  excerptFlag,
			Usage: "Short summary shown in listings",
		},
		contentFlag: &cobraflags.StringFlag{
			Name:  contentFlag,
			Usage: "Post body",
		},
		contentFileFlag: &cobraflags.StringFlag{
			Name:  contentFileFlag,
			Usage: "Read the post body from a file ('-' for stdin)",
		},
	}
}

func connect(ctx context.Context, flags map[string]cobraflags.Flag) (*client.Client, error) {
	password := flags[passwordFlag].GetString()
	if password == "" {
		return nil, fmt.Errorf("--password is required (or set BLOG_ADMIN_PASSWORD)")
	}

	c := client.NewClient(flags[serverFlag].GetString())
	if err := c.Login(ctx, password); err != nil {
		return nil, err
	}
	return c, nil
}

func newListCommand() *cobra.Command {
	flags := connectionFlags()
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all posts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := connect(cmd.Context(), flags)
			if err != nil {
				return err
			}
			posts, err := c.ListPosts(cmd.Context())
			if err != nil {
				return err
			}
			return printPosts(cmd.OutOrStdout(), posts)
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newGetCommand() *cobra.Command {
	flags := connectionFlags()
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a post as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context(), flags)
			if err != nil {
				return err
			}
			post, err := c.GetPost(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), post)
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newCreateCommand() *cobra.Command {
	flags := connectionFlags()
	fields := postFlags()
	var published bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := domain.PostInput{
				Title:     fields[titleFlag].GetString(),
				Excerpt:   fields[excerptFlag].GetString(),
				Published: published,
			}
			content, err := readContent(cmd.InOrStdin(), fields)
			if err != nil {
				return err
			}
			in.Content = content

			c, err := connect(cmd.Context(), flags)
			if err != nil {
				return err
			}
			id, err := c.CreatePost(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	cobraflags.RegisterMap(cmd, fields)
	cmd.Flags().BoolVar(&published, publishedFlag, false, "Publish the post immediately")
	return cmd
}

func newUpdateCommand() *cobra.Command {
	flags := connectionFlags()
	fields := postFlags()
	var published bool

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a post; fields that are not given keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context(), flags)
			if err != nil {
				return err
			}

			post, err := c.GetPost(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			in := domain.PostInput{
				Title:     post.Title,
				Excerpt:   post.Excerpt,
				Content:   post.Content,
				Published: post.Published,
			}
			if cmd.Flags().Changed(titleFlag) {
				in.Title = fields[titleFlag].GetString()
			}
			if cmd.Flags().Changed(excerptFlag) {
				in.Excerpt = fields[excerptFlag].GetString()
			}
			if cmd.Flags().Changed(contentFlag) || cmd.Flags().Changed(contentFileFlag) {
				if in.Content, err = readContent(cmd.InOrStdin(), fields); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed(publishedFlag) {
				in.Published = published
			}

			if err := c.UpdatePost(cmd.Context(), args[0], in); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", args[0])
			return nil
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	cobraflags.RegisterMap(cmd, fields)
	cmd.Flags().BoolVar(&published, publishedFlag, false, "Published state")
	return cmd
}

func newDeleteCommand() *cobra.Command {
	flags := connectionFlags()
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect(cmd.Context(), flags)
			if err != nil {
				return err
			}
			if err := c.DeletePost(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newWatchCommand() *cobra.Command {
	flags := connectionFlags()
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream post changes until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			c, err := connect(ctx, flags)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			err = c.Watch(ctx, func(e domain.PostEvent) {
				fmt.Fprintln(out, formatEvent(e))
			})
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

// readContent prefers --content-file over --content.
func readContent(stdin io.Reader, fields map[string]cobraflags.Flag) (string, error) {
	path := fields[contentFileFlag].GetString()
	if path == "" {
		return fields[contentFlag].GetString(), nil
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return string(data), nil
}

func printPosts(w io.Writer, posts []domain.Post) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tCREATED\tSLUG\tTITLE")
	for _, p := range posts {
		status := "draft"
		if p.Published {
			status = "published"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, status, p.CreatedAt.Format(time.DateTime), p.Slug, p.Title)
	}
	return tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatEvent(e domain.PostEvent) string {
	line := fmt.Sprintf("%s %-7s %s", e.At.Format(time.RFC3339), e.Type, e.ID)
	if e.Post != nil {
		line += fmt.Sprintf(" %q", e.Post.Title)
	}
	return line
}
