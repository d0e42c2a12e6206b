// Package maildir loads SMS backup emails from an on-disk maildir into
// message records.
//
// Each file is one RFC 5322 message written by SMS Backup+, carrying the
// original text message in X-smssync-* extension headers and a
// base64-or-plain body.
package maildir

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"

	"smschat/internal/identity"
	"smschat/internal/sms"
)

// ErrInvalidRecord means a backup email is missing or mangling a header
// the converter requires. The wrapping error names the file and header
// so the bad record can be found in the archive.
var ErrInvalidRecord = errors.New("invalid sms record")

// Options controls loading. A nil Logger means slog.Default().
type Options struct {
	// MaxMessageBytes limits the size of a single backup email.
	// Zero means the 4 MiB default; SMS bodies are small and anything
	// bigger is a sign the folder is not an SMS archive.
	MaxMessageBytes int64

	Logger *slog.Logger
}

const defaultMaxMessageBytes int64 = 4 << 20

// Load reads every message in the maildir rooted at dir (its cur/ and
// new/ subdirectories) and returns the parsed records in file order.
// Any malformed record fails the whole load.
func Load(dir string, opts Options) ([]*sms.Message, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	maxBytes := opts.MaxMessageBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxMessageBytes
	}

	paths, err := discover(dir)
	if err != nil {
		return nil, err
	}
	log.Info("loading messages", "dir", dir, "files", len(paths))

	msgs := make([]*sms.Message, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if info.Size() > maxBytes {
			return nil, fmt.Errorf("%s: %d bytes exceeds limit %d: %w",
				path, info.Size(), maxBytes, ErrInvalidRecord)
		}
		m, err := loadFile(path, log)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// discover lists message files in cur/ and new/, sorted within each
// subdirectory. tmp/ holds partially-delivered files and is skipped.
func discover(dir string) ([]string, error) {
	var paths []string
	found := false
	for _, sub := range []string{"cur", "new"} {
		entries, err := os.ReadDir(filepath.Join(dir, sub))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read maildir %s: %w", dir, err)
		}
		found = true
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			paths = append(paths, filepath.Join(dir, sub, e.Name()))
		}
	}
	if !found {
		return nil, fmt.Errorf("%s is not a maildir (no cur/ or new/)", dir)
	}
	return paths, nil
}

func loadFile(path string, log *slog.Logger) (*sms.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	env, err := enmime.ReadEnvelope(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	m, err := fromEnvelope(env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if m.Body == "" {
		log.Warn("empty sms body", "date", m.Date, "id", m.ID)
	}
	return m, nil
}

// fromEnvelope builds one record from a parsed backup email. The
// X-smssync-* headers carry the original SMS metadata; read, status,
// protocol, and service_center are optional with the upstream defaults.
func fromEnvelope(env *enmime.Envelope) (*sms.Message, error) {
	required := func(header string) (string, error) {
		v := env.GetHeader(header)
		if v == "" {
			return "", fmt.Errorf("missing header %s: %w", header, ErrInvalidRecord)
		}
		return v, nil
	}
	requiredInt := func(header string) (int64, error) {
		v, err := required(header)
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("header %s = %q: %w", header, v, ErrInvalidRecord)
		}
		return n, nil
	}
	optionalInt := func(header string, def int) int {
		v := strings.TrimSpace(env.GetHeader(header))
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return def
		}
		return n
	}

	to, err := required("To")
	if err != nil {
		return nil, err
	}
	from, err := required("From")
	if err != nil {
		return nil, err
	}
	subject, err := required("Subject")
	if err != nil {
		return nil, err
	}
	address, err := required("X-smssync-address")
	if err != nil {
		return nil, err
	}
	id, err := requiredInt("X-smssync-id")
	if err != nil {
		return nil, err
	}
	kind, err := requiredInt("X-smssync-type")
	if err != nil {
		return nil, err
	}
	dateMs, err := requiredInt("X-smssync-date")
	if err != nil {
		return nil, err
	}
	thread, err := requiredInt("X-smssync-thread")
	if err != nil {
		return nil, err
	}

	return &sms.Message{
		To:            identity.ParseToken(to),
		From:          identity.ParseToken(from),
		Subject:       identity.ParseToken(subject),
		Address:       identity.ParseToken(address),
		ServiceCenter: identity.ParseToken(env.GetHeader("X-smssync-service_center")),
		Kind:          sms.Kind(kind),
		ID:            id,
		Thread:        thread,
		Date:          time.UnixMilli(dateMs).UTC(),
		Read:          optionalInt("X-smssync-read", 1),
		Status:        optionalInt("X-smssync-status", -1),
		Protocol:      optionalInt("X-smssync-protocol", 0),
		ContentType:   env.GetHeader("Content-Type"),
		Body:          strings.TrimSpace(env.Text),
	}, nil
}
