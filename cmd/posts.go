package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"blog-server/pkg/config"
	"blog-server/pkg/services"

	"github.com/spf13/cobra"
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Lists the posts found in the content directory",
	Long: `The posts command loads the content directory the same way the server does,
prints every published post and reports files that could not be loaded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := services.NewPostStore(config.ContentPath)
		posts, err := store.Posts()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tPERMALINK\tTITLE\tFLAGS")
		for _, p := range posts {
			flags := ""
			if p.Private {
				flags += "private "
			}
			if p.Pinned {
				flags += "pinned "
			}
			if p.Featured || p.Sticky > 0 {
				flags += "featured "
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.DateString, p.Permalink, p.Title, flags)
		}
		w.Flush()

		loadErrors, _ := store.LoadErrors()
		for _, e := range loadErrors {
			fmt.Fprintf(os.Stderr, "skipped %s: %s\n", e.Path, e.Error)
		}
		if len(loadErrors) > 0 {
			return fmt.Errorf("%d file(s) could not be loaded", len(loadErrors))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(postsCmd)
}
