package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"smschat/internal/export"
	"smschat/internal/indexer"
	"smschat/internal/maildir"
	"smschat/internal/store"
)

var (
	convertExportDir string
	convertTimezone  string
	convertDBPath    string
	convertNoExport  bool
)

var convertCmd = &cobra.Command{
	Use:   "convert <maildir>",
	Short: "Convert a maildir of SMS backup emails into chat logs",
	Long: `Convert a maildir of SMS Backup+ emails into per-conversation chat
logs.

Every message is attributed to a resolved sender and receiver, bucketed
by conversation and thread, and written as plain-text logs under the
export directory. With --db, the resolved archive is also persisted to
a SQLite database.

Inconsistent identity data (two different names for one phone number,
disagreeing headers in one message) aborts the run; nothing is written.

Examples:
  smschat convert ~/backups/sms/
  smschat convert --timezone Europe/Berlin --export ~/chats ~/backups/sms/`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]

		exportDir := convertExportDir
		if exportDir == "" {
			exportDir = cfg.Convert.ExportDir
		}
		tz := convertTimezone
		if tz == "" {
			tz = cfg.Convert.Timezone
		}
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("invalid timezone %q: %w", tz, err)
		}

		msgs, err := maildir.Load(dir, maildir.Options{Logger: logger})
		if err != nil {
			return err
		}

		idx := indexer.New(logger)
		convos, err := idx.Index(msgs)
		if err != nil {
			return err
		}

		if !convertNoExport {
			if err := export.Write(exportDir, convos, export.Options{
				Location: loc,
				Logger:   logger,
			}); err != nil {
				return err
			}
			fmt.Printf("Exported %d conversations to %s\n", len(convos), exportDir)
		}

		if convertDBPath != "" {
			st, err := store.Open(convertDBPath)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.SaveIndex(idx.Users(), convos); err != nil {
				return err
			}
			fmt.Printf("Saved archive to %s\n", convertDBPath)
		}

		fmt.Printf("Messages: %d  Users: %d  Conversations: %d\n",
			len(msgs), len(idx.Users()), len(convos))
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertExportDir, "export", "", "chat log output directory (default from config)")
	convertCmd.Flags().StringVar(&convertTimezone, "timezone", "", "display timezone for exported logs (default from config)")
	convertCmd.Flags().StringVar(&convertDBPath, "db", "", "also persist the archive to this SQLite database")
	convertCmd.Flags().BoolVar(&convertNoExport, "no-export", false, "skip writing chat logs (useful with --db)")
	rootCmd.AddCommand(convertCmd)
}
