package gridsheet

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Book owns a set of sheets together with the function registry, the
// scheduler and the change channel they share.
type Book struct {
	registry  *Registry
	scheduler Scheduler
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	opts      *Options

	sheets      map[int]*Table
	names       map[string]int
	order       []int
	lastSheetID int

	subs      []subscription
	lastSubID int

	async *asyncRunner
}

// NewBook creates an empty Book.
func NewBook(opts ...Option) *Book {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.registry == nil {
		o.registry = NewRegistry()
	}
	if o.scheduler == nil {
		o.scheduler = NewQueueScheduler()
	}
	ctx, cancel := context.WithCancel(o.ctx)
	b := &Book{
		registry:  o.registry,
		scheduler: o.scheduler,
		logger:    o.logger,
		ctx:       ctx,
		cancel:    cancel,
		opts:      o,
		sheets:    make(map[int]*Table),
		names:     make(map[string]int),
	}
	b.async = newAsyncRunner(b)
	for _, l := range o.listeners {
		b.Subscribe(l)
	}
	for _, fc := range o.functions {
		if err := b.registry.RegisterExpr(fc.Name, fc.Expr, fc.MinArgs, fc.MaxArgs); err != nil {
			b.logger.Warn("custom function skipped", slog.String("name", fc.Name), slog.String("error", err.Error()))
		}
	}
	return b
}

// AddSheet creates a sheet from a matrix of raw values. String values are
// parsed like edit text; formulas may use addresses, which are bound to ids
// once the sheet exists.
func (b *Book) AddSheet(name string, init [][]any, opts ...TableOption) (*Table, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("add sheet: name is required")
	}
	if _, dup := b.names[name]; dup {
		return nil, fmt.Errorf("add sheet %q: name already in use", name)
	}
	o := &tableOptions{limits: b.opts.limits, historyLimit: b.opts.historyLimit}
	for _, opt := range opts {
		opt(o)
	}
	b.lastSheetID++
	t := newTable(b, b.lastSheetID, name, init, o)
	b.sheets[t.sheetID] = t
	b.names[name] = t.sheetID
	b.order = append(b.order, t.sheetID)

	t.absolutize(false)
	for _, id := range b.order[:len(b.order)-1] {
		b.sheets[id].absolutize(true)
	}
	return b.refreshAll(t.sheetID, EventUpdate), nil
}

// Table returns the latest snapshot of a sheet, or nil.
func (b *Book) Table(sheetID int) *Table { return b.sheets[sheetID] }

// TableByName returns the latest snapshot of the named sheet, or nil.
func (b *Book) TableByName(name string) *Table {
	id, ok := b.names[name]
	if !ok {
		return nil
	}
	return b.sheets[id]
}

// Sheets lists the latest snapshots in creation order.
func (b *Book) Sheets() []*Table {
	out := make([]*Table, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.sheets[id])
	}
	return out
}

// Registry returns the function registry of the book.
func (b *Book) Registry() *Registry { return b.registry }

// Logger returns the diagnostics logger.
func (b *Book) Logger() *slog.Logger { return b.logger }

// refreshAll replaces every sheet by a fresh snapshot, which drops all solved
// values, and transmits one event for sheetID.
func (b *Book) refreshAll(sheetID int, kind EventKind) *Table {
	for id, t := range b.sheets {
		b.sheets[id] = t.clone()
	}
	next := b.sheets[sheetID]
	b.Transmit(Event{Kind: kind, SheetID: sheetID, Table: next})
	return next
}

// WaitAsync blocks until every started async computation has handed its
// result to the scheduler.
func (b *Book) WaitAsync() { b.async.wait() }

// Flush drains the scheduler when it queues tasks, applying finished async
// results. It returns the number of tasks run.
func (b *Book) Flush() int {
	if f, ok := b.scheduler.(interface{ Flush() int }); ok {
		return f.Flush()
	}
	return 0
}

// Settle waits for async computations and applies their results.
func (b *Book) Settle() {
	b.WaitAsync()
	b.Flush()
}

// Close cancels the context of in-flight async computations.
func (b *Book) Close() { b.cancel() }
