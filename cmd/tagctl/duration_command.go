package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jdholdren/tagcast/internal/duration"
)

func newDurationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "duration <value>",
		Short: "Convert a feed duration into seconds and readable text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := duration.Sniff(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Seconds: %d\n", seconds)
			fmt.Fprintf(out, "Short:   %s\n", duration.ShortString(seconds))
			fmt.Fprintf(out, "Long:    %s\n", duration.LongString(seconds))

			return nil
		},
	}
}
