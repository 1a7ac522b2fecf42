package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jdholdren/tagcast/internal/duration"
	"github.com/jdholdren/tagcast/internal/feed"
	"github.com/jdholdren/tagcast/internal/fetch"
	"github.com/jdholdren/tagcast/internal/podcast"
)

type inspectOptions struct {
	sort    string
	match   []string
	limit   int
	tags    int
	timeout time.Duration
	german  bool
}

func newInspectCommand() *cobra.Command {
	opts := inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <feed-url>",
		Short: "Parse a live feed and print what a sync would store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(opts.match) != 0 && len(opts.match) != 3 {
				return fmt.Errorf("--match takes three values: type,field,pattern")
			}

			raw, err := fetch.NewClient(opts.timeout).Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p, err := feed.Parse(cmd.Context(), raw)
			if err != nil {
				return err
			}
			p.FeedURL = args[0]

			episodes := p.Episodes
			if len(opts.match) == 3 {
				episodes = podcast.FilterEpisodes(episodes, opts.match[0], opts.match[1], opts.match[2])
			}
			if opts.sort != "" {
				episodes = podcast.SortEpisodes(episodes, opts.sort)
			}

			out := cmd.OutOrStdout()
			printPodcast(out, p, opts.german)
			printEpisodes(out, episodes, opts.limit)
			printTagCounts(out, podcast.MostCommonTags(p.Episodes, opts.tags))

			return nil
		},
	}

	cmd.Flags().StringVar(&opts.sort, "sort", "", `Sort episodes by "key [asc|desc]" (pubdate, title, duration, episode)`)
	cmd.Flags().StringSliceVar(&opts.match, "match", nil, "Filter episodes by type,field,pattern")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "How many episodes to print, 0 for all")
	cmd.Flags().IntVar(&opts.tags, "tags", 10, "How many of the most common feed tags to print")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Timeout for fetching the feed")
	cmd.Flags().BoolVar(&opts.german, "german", false, "Print the category in German")

	return cmd
}

func printPodcast(out io.Writer, p podcast.Podcast, german bool) {
	const stampLayout = "2006-01-02 15:04"

	fmt.Fprintf(out, "Title:     %s\n", p.DisplayTitle())
	fmt.Fprintf(out, "Category:  %s\n", p.PrimaryCategory(german))
	fmt.Fprintf(out, "Episodes:  %d (%s)\n", len(p.Episodes), duration.LongString(podcast.TotalDuration(p.Episodes)))
	if pub := p.EffectivePubDate(); pub != nil {
		fmt.Fprintf(out, "Published: %s\n", pub.UTC().Format(stampLayout))
	}
	if f, ok := podcast.PublishingFrequency(p.Episodes); ok {
		fmt.Fprintf(out, "Frequency: every %.1f days\n", f.MeanDays())
	}
	fmt.Fprintf(out, "Hash:      %s\n", p.ContentHash)
}

func printEpisodes(out io.Writer, episodes []podcast.Episode, limit int) {
	if len(episodes) == 0 {
		fmt.Fprintln(out, "Episodes: none")
		return
	}
	if limit > 0 && limit < len(episodes) {
		episodes = episodes[:limit]
	}

	rows := make([][]string, 0, len(episodes))
	for _, e := range episodes {
		number, published := "", ""
		if e.HasNumber() {
			number = strconv.Itoa(e.EpisodeNumber)
		}
		if e.PubDate != nil {
			published = e.PubDate.UTC().Format("2006-01-02")
		}
		rows = append(rows, []string{number, e.Title, published, duration.ShortString(e.DurationSeconds), strconv.Itoa(len(e.Tags))})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Title", "Published", "Duration", "Tags"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
	))
}

func printTagCounts(out io.Writer, counts []podcast.TagCount) {
	if len(counts) == 0 {
		fmt.Fprintln(out, "Feed tags: none")
		return
	}

	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Tag, strconv.Itoa(c.Count)})
	}
	fmt.Fprintln(out, renderTable([]string{"Feed tag", "Episodes"}, rows, []columnAlignment{alignLeft, alignRight}))
}
