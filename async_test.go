package gridsheet

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerSlow(t *testing.T, r *Registry, run func(ctx context.Context, n float64) (any, error)) {
	t.Helper()
	require.NoError(t, r.Register(&Function{
		Name:    "SLOW",
		MinArgs: 1,
		MaxArgs: 1,
		Main: func(_ *Call, args []any) (any, error) {
			n, err := ensureNumber(args[0])
			if err != nil {
				return nil, err
			}
			return &Async{Run: func(ctx context.Context) (any, error) { return run(ctx, n) }}, nil
		},
	}))
}

func TestAsync_PendingThenValue(t *testing.T) {
	b := newTestBook(t)
	var runs atomic.Int32
	registerSlow(t, b.Registry(), func(_ context.Context, n float64) (any, error) {
		runs.Add(1)
		return n * 2, nil
	})
	sheet := mustSheet(t, b, "S", [][]any{{2, "=SLOW(A1)", "=B1+1"}})
	assert.Equal(t, PendingText, sheet.Stringify(pt("B1"), false))
	assert.Equal(t, PendingText, sheet.Stringify(pt("C1"), false))

	v, err := sheet.Solve(pt("B1"))
	require.NoError(t, err)
	assert.True(t, IsPending(v))

	b.Settle()
	sheet = b.TableByName("S")
	assert.Equal(t, "4", sheet.Stringify(pt("B1"), false))
	assert.Equal(t, "5", sheet.Stringify(pt("C1"), false))
	assert.EqualValues(t, 1, runs.Load())

	c, ok := sheet.GetCellByPoint(pt("B1"))
	require.True(t, ok)
	require.NotNil(t, c.Async())
	assert.Equal(t, 4.0, c.Async().Value)
}

func TestAsync_ArgumentChangeRecomputes(t *testing.T) {
	b := newTestBook(t)
	var runs atomic.Int32
	registerSlow(t, b.Registry(), func(_ context.Context, n float64) (any, error) {
		runs.Add(1)
		return n * 2, nil
	})
	sheet := mustSheet(t, b, "S", [][]any{{2, "=SLOW(A1)"}}, WithSize(1, 3))
	sheet.Stringify(pt("B1"), false)
	b.Settle()

	sheet = b.TableByName("S").Write(pt("A1"), "3")
	assert.Equal(t, PendingText, sheet.Stringify(pt("B1"), false))
	b.Settle()
	assert.Equal(t, "6", b.TableByName("S").Stringify(pt("B1"), false))
	assert.EqualValues(t, 2, runs.Load())

	sheet = b.TableByName("S").Write(pt("C1"), "unrelated")
	assert.Equal(t, "6", sheet.Stringify(pt("B1"), false))
	assert.EqualValues(t, 2, runs.Load())
}

func TestAsync_InflightShared(t *testing.T) {
	b := newTestBook(t)
	var runs atomic.Int32
	release := make(chan struct{})
	registerSlow(t, b.Registry(), func(_ context.Context, n float64) (any, error) {
		runs.Add(1)
		<-release
		return n, nil
	})
	sheet := mustSheet(t, b, "S", [][]any{{1, "=SLOW(A1)"}}, WithSize(1, 3))
	assert.Equal(t, PendingText, sheet.Stringify(pt("B1"), false))

	sheet = sheet.Write(pt("C1"), "x")
	assert.Equal(t, PendingText, sheet.Stringify(pt("B1"), false))

	close(release)
	b.Settle()
	assert.Equal(t, "1", b.TableByName("S").Stringify(pt("B1"), false))
	assert.EqualValues(t, 1, runs.Load())
}

func TestAsync_StaleResultDropped(t *testing.T) {
	b := newTestBook(t)
	release := make(chan struct{})
	registerSlow(t, b.Registry(), func(_ context.Context, n float64) (any, error) {
		<-release
		return n * 10, nil
	})
	sheet := mustSheet(t, b, "S", [][]any{{1, "=SLOW(A1)"}})
	assert.Equal(t, PendingText, sheet.Stringify(pt("B1"), false))

	sheet = sheet.Write(pt("A1"), "2")
	assert.Equal(t, PendingText, sheet.Stringify(pt("B1"), false))

	close(release)
	b.Settle()
	assert.Equal(t, "20", b.TableByName("S").Stringify(pt("B1"), false))
}

func TestAsync_Rejection(t *testing.T) {
	b := newTestBook(t)
	boom := errors.New("boom")
	registerSlow(t, b.Registry(), func(context.Context, float64) (any, error) {
		return nil, boom
	})
	sheet := mustSheet(t, b, "S", [][]any{{1, "=SLOW(A1)"}})
	sheet.Stringify(pt("B1"), false)
	b.Settle()

	sheet = b.TableByName("S")
	assert.Equal(t, "#ASYNC!", sheet.Stringify(pt("B1"), false))
	_, err := sheet.Solve(pt("B1"))
	assert.True(t, IsFormulaError(err, ErrorCodeAsync))
	assert.ErrorIs(t, err, boom)
}

func TestAsync_CloseCancels(t *testing.T) {
	b := newTestBook(t)
	registerSlow(t, b.Registry(), func(ctx context.Context, _ float64) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	sheet := mustSheet(t, b, "S", [][]any{{1, "=SLOW(A1)"}})
	sheet.Stringify(pt("B1"), false)

	b.Close()
	b.Settle()
	_, err := b.TableByName("S").Solve(pt("B1"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAsync_TTLExpiry(t *testing.T) {
	clock := &fixedClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	b := newTestBook(t, WithRegistry(NewRegistry(WithClock(clock))), WithAsyncTTL(time.Minute))
	var runs atomic.Int32
	registerSlow(t, b.Registry(), func(_ context.Context, n float64) (any, error) {
		runs.Add(1)
		return n + float64(runs.Load()), nil
	})
	sheet := mustSheet(t, b, "S", [][]any{{10, "=SLOW(A1)"}}, WithSize(1, 3))
	sheet.Stringify(pt("B1"), false)
	b.Settle()
	assert.Equal(t, "11", b.TableByName("S").Stringify(pt("B1"), false))

	clock.now = clock.now.Add(30 * time.Second)
	sheet = b.TableByName("S").Write(pt("C1"), "tick")
	assert.Equal(t, "11", sheet.Stringify(pt("B1"), false))

	clock.now = clock.now.Add(time.Minute)
	sheet = b.TableByName("S").Write(pt("C1"), "tock")
	assert.Equal(t, PendingText, sheet.Stringify(pt("B1"), false))
	b.Settle()
	assert.Equal(t, "12", b.TableByName("S").Stringify(pt("B1"), false))
}

func TestAsync_EventOnCompletion(t *testing.T) {
	b := newTestBook(t)
	registerSlow(t, b.Registry(), func(_ context.Context, n float64) (any, error) { return n, nil })
	sheet := mustSheet(t, b, "S", [][]any{{1, "=SLOW(A1)"}})

	var kinds []EventKind
	b.Subscribe(ListenerFunc(func(ev Event) { kinds = append(kinds, ev.Kind) }))
	sheet.Stringify(pt("B1"), false)

	require.Eventually(t, func() bool {
		b.Flush()
		return len(kinds) > 0
	}, time.Second, time.Millisecond)
	assert.Equal(t, []EventKind{EventAsync}, kinds)
	assert.Equal(t, "1", b.TableByName("S").Stringify(pt("B1"), false))
}

func TestAsync_KeyCanonical(t *testing.T) {
	b := newTestBook(t)
	sheet := mustSheet(t, b, "S", [][]any{{1, 2}, {1, 2}})
	top := &Range{table: sheet, area: areaOf("A1", "B1")}
	bottom := &Range{table: sheet, area: areaOf("A2", "B2")}

	assert.Equal(t, asyncKey("F", []any{top}), asyncKey("F", []any{bottom}))
	assert.NotEqual(t, asyncKey("F", []any{1.0}), asyncKey("F", []any{2.0}))
	assert.NotEqual(t, asyncKey("F", []any{1.0}), asyncKey("G", []any{1.0}))
}

func TestAsync_ImmediateScheduler(t *testing.T) {
	var s ImmediateScheduler
	ran := 0
	s.RunNow(func() { ran++ })
	s.RunLater(func() { ran++ })
	assert.Equal(t, 2, ran)

	q := NewQueueScheduler()
	q.RunLater(func() { q.RunLater(func() { ran++ }) })
	assert.Equal(t, 2, q.Flush())
	assert.Equal(t, 3, ran)
}
