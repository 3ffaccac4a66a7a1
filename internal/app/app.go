package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/H3R0SHI/reminder-bot/internal/config"
	"github.com/H3R0SHI/reminder-bot/internal/domain"
	"github.com/H3R0SHI/reminder-bot/internal/scheduler"
	"github.com/H3R0SHI/reminder-bot/internal/service"
	"github.com/H3R0SHI/reminder-bot/internal/store"
	"github.com/H3R0SHI/reminder-bot/internal/telegram"
)

// notifierFunc adapts a function to the scheduler.Notifier interface so the
// scheduler can be built before the router that actually delivers messages.
type notifierFunc func(*domain.Reminder, *domain.UserProfile) error

func (f notifierFunc) Notify(r *domain.Reminder, p *domain.UserProfile) error { return f(r, p) }

type App struct {
	cfg     config.Config
	log     *zap.Logger
	bot     *tgbotapi.BotAPI
	httpSrv *http.Server
	repo    store.Repo
	sched   *scheduler.Scheduler
	router  *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, bot: bot, httpSrv: srv}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting reminder-bot",
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("default_tz", a.cfg.DefaultTZ),
	)

	// Open SQLite and run migrations.
	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready")

	// The scheduler delivers through the router, and the router's service
	// layer arms timers through the scheduler. The indirection below lets
	// both be constructed without a setter.
	a.sched = scheduler.New(repo, a.log, notifierFunc(func(r *domain.Reminder, p *domain.UserProfile) error {
		return a.router.Notify(r, p)
	}), a.cfg.StartupGrace)

	svc := service.New(repo, a.sched, domain.NewNLParser(), a.log, a.cfg.DefaultTZ, a.cfg.InitialCredits)
	a.router = telegram.NewRouter(a.bot, a.log, svc, a.cfg.AdminIDs)

	// Re-arm persisted reminders. Past-due ones fire after the grace window.
	if err := a.sched.RearmAll(ctx); err != nil {
		a.log.Error("rearm failed", zap.Error(err))
		return err
	}

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.bot.GetUpdatesChan(u)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")

			a.sched.Stop()

			shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := a.httpSrv.Shutdown(shCtx)
			cancel()

			if err != nil {
				a.log.Warn("http server shutdown error", zap.Error(err))
			}
			if a.repo != nil {
				_ = a.repo.Close()
			}
			return nil

		case upd := <-updCh:
			a.router.HandleUpdate(ctx, upd)
		}
	}
}
