// Package export writes indexed conversations out as plain-text chat
// logs, one directory per conversation and one file per thread.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"smschat/internal/indexer"
)

const timestampLayout = "2006-01-02 15:04:05"

// Options controls chat log output. A nil Location means UTC; a nil
// Logger means slog.Default().
type Options struct {
	// Location is the display timezone. Message timestamps are stored
	// in UTC and converted only here.
	Location *time.Location

	Logger *slog.Logger
}

// Write renders every conversation under root. Each conversation gets a
// directory named for its two participants and each thread a
// `<thread>.log` file with one line per message, sorted by the
// message's ordering id.
func Write(root string, convos indexer.Conversations, opts Options) error {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	used := make(map[string]bool)
	for key, threads := range convos {
		name := conversationDirName(threads)
		if used[name] {
			// Two distinct conversations can share display names
			// (e.g. identical contact names with different numbers).
			name = fmt.Sprintf("%s-%s", name, key.String()[:8])
		}
		used[name] = true

		dir := filepath.Join(root, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create conversation directory: %w", err)
		}
		for thread, msgs := range threads {
			if err := writeThread(filepath.Join(dir, fmt.Sprintf("%d.log", thread)), msgs, loc); err != nil {
				return err
			}
		}
		log.Debug("exported conversation", "dir", name, "threads", len(threads))
	}
	return nil
}

func writeThread(path string, msgs []indexer.Attributed, loc *time.Location) error {
	sorted := slices.Clone(msgs)
	slices.SortStableFunc(sorted, func(a, b indexer.Attributed) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})

	var sb strings.Builder
	for _, m := range sorted {
		fmt.Fprintf(&sb, "(%s) %s: %s\n",
			m.Date.In(loc).Format(timestampLayout),
			m.Sender.DisplayName(), m.Body)
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write thread log: %w", err)
	}
	return nil
}

// conversationDirName derives a directory name from the two
// participants of a conversation, taken from its first message.
// Names are sorted so the result does not depend on who spoke first.
func conversationDirName(threads map[int64][]indexer.Attributed) string {
	for _, msgs := range threads {
		for _, m := range msgs {
			names := []string{
				sanitize(m.Sender.DisplayName()),
				sanitize(m.Receiver.DisplayName()),
			}
			slices.Sort(names)
			return fmt.Sprintf("%s - %s", names[0], names[1])
		}
	}
	return "empty"
}

// sanitize makes a display name safe as a single path element.
func sanitize(name string) string {
	if name == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':':
			return '_'
		case r < 0x20:
			return '_'
		default:
			return r
		}
	}, name)
}
