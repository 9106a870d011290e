package mock

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Shared test services for the container suites. They mirror the shape of
// the marketplace backend: a logger, a database connection, and the
// repositories built on top of it.

// Logger records log lines in memory.
type Logger struct {
	mu    sync.Mutex
	lines []string
}

func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) Log(msg string) {
	l.mu.Lock()
	l.lines = append(l.lines, msg)
	l.mu.Unlock()
}

func (l *Logger) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Database simulates a connection handle owned by the backend.
type Database struct {
	Logger *Logger
	closed atomic.Bool
}

func NewDatabase(logger *Logger) *Database {
	logger.Log("db: connected")
	return &Database{Logger: logger}
}

func (d *Database) Close() error {
	d.closed.Store(true)
	d.Logger.Log("db: closed")
	return nil
}

func (d *Database) IsClosed() bool {
	return d.closed.Load()
}

// UserRepo is a repository built on the shared database connection.
type UserRepo struct {
	DB *Database
}

func NewUserRepo(db *Database) *UserRepo {
	return &UserRepo{DB: db}
}

// ReviewRepo is a second repository, used for diamond-shaped graphs.
type ReviewRepo struct {
	DB *Database
}

func NewReviewRepo(db *Database) *ReviewRepo {
	return &ReviewRepo{DB: db}
}

// FailingCloser always fails to close.
type FailingCloser struct{}

func (FailingCloser) Close() error {
	return fmt.Errorf("simulated close failure")
}

// Widget is a plain value produced by the counting factories below.
type Widget struct {
	ID int
}

// SlowFactory counts its invocations and sleeps before returning, widening
// the race window for single-flight tests.
type SlowFactory struct {
	Delay time.Duration
	calls atomic.Int64
}

func (f *SlowFactory) New([]any) (any, error) {
	n := f.calls.Add(1)
	time.Sleep(f.Delay)
	return &Widget{ID: int(n)}, nil
}

func (f *SlowFactory) Calls() int64 {
	return f.calls.Load()
}

// FlakyFactory fails its first Failures invocations, then succeeds.
type FlakyFactory struct {
	Failures int64
	calls    atomic.Int64
}

func (f *FlakyFactory) New([]any) (any, error) {
	n := f.calls.Add(1)
	if n <= f.Failures {
		return nil, fmt.Errorf("simulated boot failure on attempt %d", n)
	}
	return &Widget{ID: int(n)}, nil
}

func (f *FlakyFactory) Calls() int64 {
	return f.calls.Load()
}
