package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-logfmt/logfmt"
)

type slogWriter struct {
	create func(ctx context.Context, timestamp time.Time, level, message string, attributes map[string]string) error
}

// Write decodes logfmt records, as produced by slog.TextHandler, and
// persists each one without blocking the caller.
func (sw *slogWriter) Write(p []byte) (n int, err error) {
	d := logfmt.NewDecoder(bytes.NewReader(p))
	for d.ScanRecord() {
		var (
			timestamp    time.Time
			level        string
			message      string
			hasTimestamp bool
		)
		attributes := make(map[string]string)

		for d.ScanKeyval() {
			key := string(d.Key())
			value := string(d.Value())

			switch key {
			case "time":
				parsed, timeErr := time.Parse(time.RFC3339Nano, value)
				if timeErr != nil {
					parsed = time.Now().UTC()
				}
				timestamp = parsed
				hasTimestamp = true
			case "level":
				level = strings.ToLower(value)
			case "msg", "message":
				message = value
			default:
				attributes[key] = value
			}
		}
		if d.Err() != nil {
			return len(p), fmt.Errorf("logfmt.ScanRecord: %w", d.Err())
		}
		if !hasTimestamp {
			timestamp = time.Now()
		}

		create := sw.create
		if create == nil {
			s := current()
			if s == nil {
				continue
			}
			create = s.Create
		}
		go func() {
			defer RecoverPanic("slogWriter", nil)
			if err := create(context.Background(), timestamp, level, message, attributes); err != nil {
				fmt.Fprintf(os.Stderr, "ERROR [logging.slogWriter]: failed to persist log: %v\n", err)
			}
		}()
	}
	if d.Err() != nil {
		return len(p), fmt.Errorf("logfmt.ScanRecord final: %w", d.Err())
	}
	return len(p), nil
}

// NewSlogWriter returns a writer that persists to the global service.
func NewSlogWriter() io.Writer {
	return &slogWriter{}
}
