package cmd

import (
	"fmt"
	"time"

	"blog-server/pkg/config"
	"blog-server/pkg/services"

	"github.com/spf13/cobra"
)

var newPost services.NewPost

var newCmd = &cobra.Command{
	Use:   "new <path>",
	Short: "Creates a draft post in the content directory",
	Example: `  blog-server new posts/2024-06-01-hello --title "Hello" --tags go,web
  blog-server new diary/secret.md --private`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		relPath, err := services.CreateContent(config.ContentPath, args[0], newPost, time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", relPath)
		return nil
	},
}

func init() {
	newCmd.Flags().StringVarP(&newPost.Title, "title", "t", "", "post title (default is the file name)")
	newCmd.Flags().StringVar(&newPost.Description, "description", "", "post description")
	newCmd.Flags().StringSliceVar(&newPost.Tags, "tags", nil, "comma separated tags")
	newCmd.Flags().StringVar(&newPost.Collection, "collection", "", "collection the post belongs to")
	newCmd.Flags().BoolVar(&newPost.Private, "private", false, "gate the post behind a password")
	rootCmd.AddCommand(newCmd)
}
