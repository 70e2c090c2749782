package logging

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/covgis/meters/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceCreateAndList(t *testing.T) {
	conn, err := db.Connect(filepath.Join(t.TempDir(), "data"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	svc := NewService(db.New(conn))
	events := svc.Subscribe(t.Context())

	ts := time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)
	require.NoError(t, svc.Create(t.Context(), ts, "", "layer loaded", map[string]string{"features": "42"}))

	select {
	case ev := <-events:
		assert.Equal(t, EventLogCreated, ev.Type)
		assert.Equal(t, "layer loaded", ev.Payload.Message)
	case <-time.After(time.Second):
		t.Fatal("no log event")
	}

	logs, err := svc.ListAll(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "info", logs[0].Level)
	assert.Equal(t, ts, logs[0].Timestamp)
	assert.Equal(t, map[string]string{"features": "42"}, logs[0].Attributes)
}

func TestSlogWriterDecodesLogfmt(t *testing.T) {
	t.Parallel()

	type record struct {
		level, msg string
		attrs      map[string]string
		ts         time.Time
	}
	var (
		mu  sync.Mutex
		got []record
		wg  sync.WaitGroup
	)
	wg.Add(2)
	w := &slogWriter{create: func(_ context.Context, ts time.Time, level, message string, attrs map[string]string) error {
		defer wg.Done()
		mu.Lock()
		defer mu.Unlock()
		got = append(got, record{level, message, attrs, ts})
		return nil
	}}

	n, err := w.Write([]byte(
		"time=2025-05-01T09:30:00Z level=WARN msg=\"data integrity\" feature=meters/7\n" +
			"level=DEBUG msg=stale query=w1\n"))
	require.NoError(t, err)
	assert.Positive(t, n)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	byMsg := map[string]record{}
	for _, r := range got {
		byMsg[r.msg] = r
	}
	assert.Equal(t, "warn", byMsg["data integrity"].level)
	assert.Equal(t, "meters/7", byMsg["data integrity"].attrs["feature"])
	assert.Equal(t, time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC), byMsg["data integrity"].ts)
	assert.Equal(t, "w1", byMsg["stale"].attrs["query"])
	assert.False(t, byMsg["stale"].ts.IsZero())
}

func TestRecoverPanicRunsCleanup(t *testing.T) {
	t.Chdir(t.TempDir())

	cleaned := false
	func() {
		defer RecoverPanic("test", func() { cleaned = true })
		panic("boom")
	}()
	assert.True(t, cleaned)

	files, err := filepath.Glob("meters-panic-test-*.log")
	require.NoError(t, err)
	assert.Len(t, files, 1)
}
