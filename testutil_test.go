package gridsheet

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func newTestLogger(t *testing.T) *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newTestBook(t *testing.T, opts ...Option) *Book {
	t.Helper()
	b := NewBook(append([]Option{WithLogger(newTestLogger(t))}, opts...)...)
	t.Cleanup(b.Close)
	return b
}

func mustSheet(t *testing.T, b *Book, name string, init [][]any, opts ...TableOption) *Table {
	t.Helper()
	sheet, err := b.AddSheet(name, init, opts...)
	require.NoError(t, err)
	return sheet
}

func pt(addr string) Point {
	p, err := AddressToPoint(addr)
	if err != nil {
		panic(err)
	}
	return p
}

func areaOf(top, bottom string) Area {
	return NewArea(pt(top), pt(bottom))
}

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type fixedRandom float64

func (r fixedRandom) Float64() float64 { return float64(r) }
