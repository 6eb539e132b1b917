package gridsheet

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// PendingText is how a pending value is displayed.
const PendingText = "..."

// Async is returned from Function.Main to compute a result off the writer flow.
type Async struct {
	Run func(ctx context.Context) (any, error)
	TTL time.Duration // zero = the book default, which is no expiry unless configured
}

// Pending marks an in-flight asynchronous result for one cell.
type Pending struct {
	Key  string
	Cell CellKey
}

// IsPending reports whether v is a pending marker.
func IsPending(v any) bool {
	_, ok := v.(*Pending)
	return ok
}

// AsyncCache is the last completed asynchronous result of a cell.
type AsyncCache struct {
	Value  any
	Err    error
	Key    string
	Expiry time.Time
}

func (c *AsyncCache) expired(now time.Time) bool {
	return !c.Expiry.IsZero() && !now.Before(c.Expiry)
}

// Scheduler abstracts the host event loop. RunNow runs a task on the caller's
// flow; RunLater hands a task back to the single writer at a later point.
type Scheduler interface {
	RunNow(task func())
	RunLater(task func())
}

// ImmediateScheduler runs every task synchronously. Async completions then run
// on the computing goroutine, so hosts using it must serialize access to the
// book themselves.
type ImmediateScheduler struct{}

func (ImmediateScheduler) RunNow(task func())   { task() }
func (ImmediateScheduler) RunLater(task func()) { task() }

// QueueScheduler queues RunLater tasks until Flush is called from the writer.
// Enqueueing is safe from any goroutine.
type QueueScheduler struct {
	mu    sync.Mutex
	queue []func()
}

// NewQueueScheduler creates an empty queue scheduler.
func NewQueueScheduler() *QueueScheduler {
	return &QueueScheduler{}
}

func (s *QueueScheduler) RunNow(task func()) { task() }

func (s *QueueScheduler) RunLater(task func()) {
	s.mu.Lock()
	s.queue = append(s.queue, task)
	s.mu.Unlock()
}

// Flush runs queued tasks, including ones queued while flushing, and returns
// how many ran.
func (s *QueueScheduler) Flush() int {
	n := 0
	for {
		s.mu.Lock()
		tasks := s.queue
		s.queue = nil
		s.mu.Unlock()
		if len(tasks) == 0 {
			return n
		}
		for _, task := range tasks {
			task()
			n++
		}
	}
}

// asyncRunner owns the in-flight table. inflight is only touched on the
// writer flow; the goroutines only compute and hand back through RunLater.
type asyncRunner struct {
	book     *Book
	inflight map[CellKey]*Pending
	flight   singleflight.Group
	wg       sync.WaitGroup
}

func newAsyncRunner(b *Book) *asyncRunner {
	return &asyncRunner{book: b, inflight: make(map[CellKey]*Pending)}
}

// resolve returns the cached result for an unchanged key, the existing pending
// marker for an in-flight key, or starts the computation.
func (r *asyncRunner) resolve(c *Call, args []any, a *Async) (any, error) {
	key := asyncKey(c.Name, args)
	id := c.Table.IDAt(c.Origin)
	cellKey := CellKey{SheetID: c.Table.sheetID, ID: id}

	if cell := c.Table.st.cells[id]; cell != nil && cell.async != nil && cell.async.Key == key {
		if !cell.async.expired(c.Now()) {
			if cell.async.Err != nil {
				return nil, NewAsyncError(cell.async.Err)
			}
			return cell.async.Value, nil
		}
	}
	if p, ok := r.inflight[cellKey]; ok && p.Key == key {
		return p, nil
	}
	p := &Pending{Key: key, Cell: cellKey}
	r.inflight[cellKey] = p
	r.start(p, a)
	return p, nil
}

func (r *asyncRunner) start(p *Pending, a *Async) {
	r.wg.Add(1)
	ctx := r.book.ctx
	ttl := a.TTL
	if ttl == 0 {
		ttl = r.book.opts.asyncTTL
	}
	r.book.scheduler.RunNow(func() {
		go func() {
			defer r.wg.Done()
			v, err, _ := r.flight.Do(p.Key, func() (any, error) {
				return a.Run(ctx)
			})
			r.book.scheduler.RunLater(func() { r.complete(p, v, err, ttl) })
		}()
	})
}

// complete writes a finished result into the cell's async cache unless a newer
// request for the cell has replaced p.
func (r *asyncRunner) complete(p *Pending, v any, err error, ttl time.Duration) {
	if current, ok := r.inflight[p.Cell]; !ok || current != p {
		r.book.logger.Debug("stale async result dropped", slog.Int("sheet", p.Cell.SheetID), slog.Int("id", int(p.Cell.ID)))
		return
	}
	delete(r.inflight, p.Cell)

	t := r.book.Table(p.Cell.SheetID)
	if t == nil {
		return
	}
	cell := t.st.cells[p.Cell.ID]
	if cell == nil {
		return
	}
	cache := &AsyncCache{Value: v, Err: err, Key: p.Key}
	if ttl > 0 {
		cache.Expiry = r.book.registry.clock.Now().Add(ttl)
	}
	cell.async = cache
	if err != nil {
		r.book.logger.Debug("async computation rejected", slog.Int("sheet", p.Cell.SheetID), slog.String("error", err.Error()))
	} else {
		r.book.logger.Debug("async result written", slog.Int("sheet", p.Cell.SheetID), slog.Int("id", int(p.Cell.ID)))
	}
	r.book.refreshAll(t.sheetID, EventAsync)
}

// wait blocks until every started computation has handed back its result.
func (r *asyncRunner) wait() { r.wg.Wait() }

// asyncKey hashes the function name and a canonical form of the evaluated
// arguments. Ranges serialize as their flattened values, so equal contents
// hash equally regardless of position.
func asyncKey(name string, args []any) string {
	canonical := make([]any, len(args))
	for i, a := range args {
		canonical[i] = canonicalArg(a)
	}
	h := fnv.New64a()
	h.Write([]byte(name))
	h.Write([]byte{0})
	data, err := json.Marshal(canonical)
	if err != nil {
		data = []byte(fmt.Sprintf("%#v", canonical))
	}
	h.Write(data)
	return name + ":" + hex.EncodeToString(h.Sum(nil))
}

func canonicalArg(v any) any {
	switch x := v.(type) {
	case *Range:
		values := flatten(x)
		out := make([]any, len(values))
		for i, e := range values {
			out[i] = canonicalArg(e)
		}
		return out
	case error:
		return string(errorCodeOf(x))
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}
