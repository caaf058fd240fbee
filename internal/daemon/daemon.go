package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"stickerbot/internal/config"
	"stickerbot/internal/logging"
	"stickerbot/internal/notifications"
	"stickerbot/internal/workflow"
)

// ErrAlreadyRunning is returned when another instance holds the lock.
var ErrAlreadyRunning = errors.New("another stickerbot instance is already running")

// Runner is the message loop bracketed by the daemon.
type Runner interface {
	Run(ctx context.Context) error
}

// Counter reports job totals for the shutdown summary.
type Counter interface {
	Totals() workflow.Totals
}

// Daemon coordinates startup, shutdown and single-instance locking.
type Daemon struct {
	runner    Runner
	counter   Counter
	notifier  notifications.Service
	platforms []string
	logger    *slog.Logger

	lockPath string
	pidPath  string
	lock     *flock.Flock

	running atomic.Bool
}

// Status describes whether a daemon holds the lock for a config.
type Status struct {
	Running  bool
	PID      int
	LockPath string
	PIDPath  string
}

// New constructs a daemon around the message loop.
func New(cfg *config.Config, runner Runner, counter Counter, notifier notifications.Service, platforms []string, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || runner == nil {
		return nil, errors.New("daemon requires config and runner")
	}
	if notifier == nil {
		notifier = notifications.NewService(&config.Config{})
	}
	return &Daemon{
		runner:    runner,
		counter:   counter,
		notifier:  notifier,
		platforms: platforms,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		lockPath:  cfg.LockPath(),
		pidPath:   cfg.PIDPath(),
		lock:      flock.New(cfg.LockPath()),
	}, nil
}

// Run acquires the lock and blocks in the runner until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
	}()

	if err := writePIDFile(d.pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(d.pidPath)

	started := time.Now()
	d.logger.Info("stickerbot daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.String("platforms", strings.Join(d.platforms, ",")),
	)
	d.notify("startup", d.notifier.NotifyStarted(ctx, d.platforms))

	runErr := d.runner.Run(ctx)

	var totals workflow.Totals
	if d.counter != nil {
		totals = d.counter.Totals()
	}
	uptime := time.Since(started)
	d.logger.Info("stickerbot daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stopped"),
		logging.Int("completed", totals.Completed),
		logging.Int("failed", totals.Failed),
		logging.Duration("uptime", uptime),
	)
	// The run context is usually cancelled by now.
	notifyCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	d.notify("shutdown", d.notifier.NotifyStopped(notifyCtx, totals.Completed, totals.Failed, uptime))
	return runErr
}

// Running reports whether Run is active in this process.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

func (d *Daemon) notify(event string, err error) {
	if err == nil {
		return
	}
	logging.WarnWithContext(d.logger, "notification failed", "notification_failed",
		logging.String("event", event),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
	)
}

// Probe reports whether some process currently holds the daemon lock.
func Probe(cfg *config.Config) (Status, error) {
	status := Status{LockPath: cfg.LockPath(), PIDPath: cfg.PIDPath()}
	if _, err := os.Stat(status.LockPath); errors.Is(err, os.ErrNotExist) {
		return status, nil
	}

	lock := flock.New(status.LockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return status, fmt.Errorf("probe lock: %w", err)
	}
	if ok {
		_ = lock.Unlock()
		return status, nil
	}
	status.Running = true
	status.PID = readPIDFile(status.PIDPath)
	return status, nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func readPIDFile(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return pid
}
