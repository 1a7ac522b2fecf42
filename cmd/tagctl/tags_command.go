package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jdholdren/tagcast/internal/sqlite"
)

func newTagsCommand(ctx *commandContext) *cobra.Command {
	var moreThan int

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List stored tags with their usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, dbx, repo, err := ctx.openStore(cmd)
			if err != nil {
				return err
			}
			defer dbx.Close()

			tags, err := repo.AllTags(cmd.Context(), moreThan)
			if err != nil {
				return err
			}
			printTagUsage(cmd.OutOrStdout(), tags)

			return nil
		},
	}
	cmd.Flags().IntVar(&moreThan, "min", 0, "Only list tags used by more than this many episodes")

	cmd.AddCommand(newTagsCommonCommand(ctx))

	return cmd
}

func newTagsCommonCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "common",
		Short: "List the most used tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, dbx, repo, err := ctx.openStore(cmd)
			if err != nil {
				return err
			}
			defer dbx.Close()

			tags, err := repo.MostCommonTags(cmd.Context(), limit)
			if err != nil {
				return err
			}
			printTagUsage(cmd.OutOrStdout(), tags)

			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 25, "How many tags to list")

	return cmd
}

func printTagUsage(out io.Writer, tags []sqlite.TagUsage) {
	if len(tags) == 0 {
		fmt.Fprintln(out, "Tags: none")
		return
	}

	rows := make([][]string, 0, len(tags))
	for _, t := range tags {
		rows = append(rows, []string{t.Tag, strconv.Itoa(t.Usage)})
	}
	fmt.Fprintln(out, renderTable([]string{"Tag", "Episodes"}, rows, []columnAlignment{alignLeft, alignRight}))
}
