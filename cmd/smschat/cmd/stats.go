package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"smschat/internal/indexer"
	"smschat/internal/maildir"
)

var statsCmd = &cobra.Command{
	Use:   "stats <maildir>",
	Short: "Show archive statistics without writing anything",
	Long: `Load and index a maildir of SMS Backup+ emails, then print the
resolved users and per-conversation message counts. Nothing is written
to disk; this is a dry run of the conversion's identity resolution.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		msgs, err := maildir.Load(args[0], maildir.Options{Logger: logger})
		if err != nil {
			return err
		}

		idx := indexer.New(logger)
		convos, err := idx.Index(msgs)
		if err != nil {
			return err
		}

		fmt.Printf("Messages:      %d\n", len(msgs))
		fmt.Printf("Users:         %d\n", len(idx.Users()))
		fmt.Printf("Conversations: %d\n\n", len(convos))

		type convoLine struct {
			names    string
			threads  int
			messages int
		}
		lines := make([]convoLine, 0, len(convos))
		for _, threads := range convos {
			var line convoLine
			for _, ms := range threads {
				line.threads++
				line.messages += len(ms)
				if line.names == "" && len(ms) > 0 {
					names := []string{
						ms[0].Sender.DisplayName(),
						ms[0].Receiver.DisplayName(),
					}
					slices.Sort(names)
					line.names = strings.Join(names, " / ")
				}
			}
			lines = append(lines, line)
		}
		slices.SortFunc(lines, func(a, b convoLine) int {
			return b.messages - a.messages
		})
		for _, l := range lines {
			fmt.Printf("%6d messages  %3d threads  %s\n", l.messages, l.threads, l.names)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
