package gridsheet

import (
	"context"
	"log/slog"
	"time"
)

// DefaultHistoryLimit is the number of undoable entries kept per sheet.
const DefaultHistoryLimit = 10

// Options holds configuration for a Book.
type Options struct {
	logger       *slog.Logger
	registry     *Registry
	scheduler    Scheduler
	listeners    []Listener
	historyLimit int
	limits       Limits
	ctx          context.Context
	functions    []FunctionConfig
	asyncTTL     time.Duration
}

func defaultOptions() *Options {
	return &Options{
		historyLimit: DefaultHistoryLimit,
		limits:       DefaultLimits(),
		ctx:          context.Background(),
	}
}

// Option configures a Book.
type Option func(*Options)

// WithLogger sets the logger receiving diagnostics (default: discard).
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.logger = l }
}

// WithRegistry sets the function registry (default: a fresh NewRegistry()).
func WithRegistry(r *Registry) Option {
	return func(o *Options) { o.registry = r }
}

// WithScheduler sets the scheduler async completions are handed back through
// (default: a QueueScheduler drained by Book.Flush).
func WithScheduler(s Scheduler) Option {
	return func(o *Options) { o.scheduler = s }
}

// WithListener adds a listener notified after every mutation and async completion.
func WithListener(l Listener) Option {
	return func(o *Options) { o.listeners = append(o.listeners, l) }
}

// WithHistoryLimit sets the default history capacity of new sheets.
func WithHistoryLimit(n int) Option {
	return func(o *Options) { o.historyLimit = n }
}

// WithLimits sets the default row and column limits of new sheets.
func WithLimits(l Limits) Option {
	return func(o *Options) { o.limits = l }
}

// WithAsyncTTL sets the expiry of async results whose function does not set one.
func WithAsyncTTL(d time.Duration) Option {
	return func(o *Options) { o.asyncTTL = d }
}

// WithContext sets the context passed to async computations. It is
// cancelled by Book.Close.
func WithContext(ctx context.Context) Option {
	return func(o *Options) { o.ctx = ctx }
}

// WithConfig applies a loaded Config.
func WithConfig(cfg *Config) Option {
	return func(o *Options) {
		if cfg == nil {
			return
		}
		o.historyLimit = cfg.HistoryLimit
		o.limits = cfg.Limits
		o.asyncTTL = cfg.AsyncTTL
		o.functions = append(o.functions, cfg.Functions...)
	}
}

type tableOptions struct {
	rows         int
	cols         int
	limits       Limits
	historyLimit int
	cells        map[string]Cell
}

// TableOption configures one sheet.
type TableOption func(*tableOptions)

// WithSize sets the minimum number of rows and columns of a new sheet.
func WithSize(rows, cols int) TableOption {
	return func(o *tableOptions) {
		o.rows = rows
		o.cols = cols
	}
}

// WithSheetLimits overrides the book limits for one sheet.
func WithSheetLimits(l Limits) TableOption {
	return func(o *tableOptions) { o.limits = l }
}

// WithSheetHistoryLimit overrides the book history limit for one sheet.
func WithSheetHistoryLimit(n int) TableOption {
	return func(o *tableOptions) { o.historyLimit = n }
}

// WithCells sets initial cell metadata keyed by address ("B3"), column
// header ("B") or row header ("3").
func WithCells(cells map[string]Cell) TableOption {
	return func(o *tableOptions) { o.cells = cells }
}
