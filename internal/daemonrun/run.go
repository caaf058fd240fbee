package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"stickerbot/internal/audio"
	"stickerbot/internal/channel"
	"stickerbot/internal/channel/discord"
	"stickerbot/internal/channel/telegram"
	"stickerbot/internal/config"
	"stickerbot/internal/convert"
	"stickerbot/internal/daemon"
	"stickerbot/internal/delivery"
	"stickerbot/internal/dispatch"
	"stickerbot/internal/journal"
	"stickerbot/internal/logging"
	"stickerbot/internal/metrics"
	"stickerbot/internal/notifications"
	"stickerbot/internal/preflight"
	"stickerbot/internal/queue"
	"stickerbot/internal/staging"
	"stickerbot/internal/workflow"
)

const (
	staleScopeAge    = 24 * time.Hour
	journalRetention = 30 * 24 * time.Hour
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel      string
	SkipPreflight bool
}

// Run starts the bot and blocks until SIGINT/SIGTERM or every transport fails.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("stickerbot-%s.log", runID))
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	logger, err := logging.NewFromConfig(cfg, logPath)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logger.With(logging.String(logging.FieldSessionID, uuid.NewString()))

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update stickerbot.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "stickerbot-*.log", Exclude: []string{logPath}},
	)
	staging.CleanStale(cfg.Paths.WorkDir, staleScopeAge, logger)

	if !opts.SkipPreflight {
		results := preflight.RunAll(signalCtx, cfg)
		logPreflight(logger, results)
		if err := preflight.FirstFailure(results); err != nil {
			return err
		}
	}

	var jobJournal workflow.Journal
	if cfg.Journal.Enabled {
		store, err := openJournal(signalCtx, cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		jobJournal = store
	}

	notifier := notifications.NewService(cfg)
	pipeline := workflow.NewPipeline(cfg,
		convert.NewEngine(convert.OptionsFromConfig(cfg), logger),
		delivery.New(logger),
		jobJournal, notifier, logger)
	jobQueue := queue.New(pipeline, queue.Options{
		MaxPending: cfg.Queue.MaxPending,
		Observer:   pipeline,
		Logger:     logger,
	})

	var audioFetcher dispatch.AudioFetcher
	if cfg.Audio.Enabled {
		audioFetcher = audio.New(cfg, logger)
	}
	dispatcher := dispatch.New(dispatch.GrammarFromConfig(cfg), jobQueue, audioFetcher, logger)

	transports, err := buildTransports(cfg, logger)
	if err != nil {
		return err
	}
	platforms := make([]string, 0, len(transports))
	for _, t := range transports {
		platforms = append(platforms, t.Name())
	}

	metricsServer := metrics.StartServer(cfg.Metrics.Bind, logger)
	defer metrics.Shutdown(metricsServer, 5*time.Second)

	manager := workflow.NewManager(transports, dispatcher, jobQueue, logger)
	d, err := daemon.New(cfg, manager, pipeline, notifier, platforms, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Run(signalCtx); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return err
		}
		logging.ErrorWithContext(logger, "daemon exited with error", "daemon_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check transport tokens and network access"),
		)
		return err
	}
	logger.Info("stickerbot shut down")
	return nil
}

func openJournal(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*journal.Store, error) {
	store, err := journal.Open(cfg.JournalPath())
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	abandoned, err := store.AbandonOpen(ctx)
	if err != nil {
		logger.Warn("journal recovery failed", logging.Error(err))
	} else if abandoned > 0 {
		logger.Info("marked unfinished jobs abandoned",
			logging.String(logging.FieldEventType, "journal_recovered"),
			logging.Int64("count", abandoned),
		)
	}
	if pruned, err := store.Prune(ctx, time.Now().Add(-journalRetention)); err != nil {
		logger.Warn("journal prune failed", logging.Error(err))
	} else if pruned > 0 {
		logger.Debug("journal pruned", logging.Int64("count", pruned))
	}
	return store, nil
}

func buildTransports(cfg *config.Config, logger *slog.Logger) ([]channel.Transport, error) {
	var transports []channel.Transport
	if cfg.Telegram.Enabled {
		adapter, err := telegram.New(cfg.Telegram, logger)
		if err != nil {
			return nil, err
		}
		transports = append(transports, adapter)
	}
	if cfg.Discord.Enabled {
		adapter, err := discord.New(cfg.Discord, logger)
		if err != nil {
			return nil, err
		}
		transports = append(transports, adapter)
	}
	if len(transports) == 0 {
		return nil, errors.New("no transport enabled: set telegram.enabled or discord.enabled")
	}
	return transports, nil
}

func logPreflight(logger *slog.Logger, results []preflight.Result) {
	for _, r := range results {
		if r.Passed {
			logger.Debug("preflight ok", logging.String("check", r.Name), logging.String("detail", r.Detail))
			continue
		}
		logging.ErrorWithContext(logger, "preflight failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldErrorHint, "fix the configuration and restart"),
		)
	}
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "stickerbot.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}
