// Package apiserver exposes the ledger store read-only over HTTP.
package apiserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	sdklogging "github.com/Layr-Labs/eigensdk-go/logging"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"

	"github.com/Kazuha787/Pharos-Auto-Bot/core/scheduler"
	"github.com/Kazuha787/Pharos-Auto-Bot/core/taskstore"
	"github.com/Kazuha787/Pharos-Auto-Bot/model"
	"github.com/Kazuha787/Pharos-Auto-Bot/pkg/logger"
	"github.com/Kazuha787/Pharos-Auto-Bot/pkg/timekeeper"
	"github.com/Kazuha787/Pharos-Auto-Bot/version"
)

type LedgerSource interface {
	ListAll(ctx context.Context) ([]taskstore.Entry, error)
	Lookup(ctx context.Context, identity string) (string, *model.WalletLedger, error)
}

// SchedulerStats is implemented by *scheduler.Scheduler.
type SchedulerStats interface {
	Stats() scheduler.Stats
}

type HttpJsonResp[T any] struct {
	Data T `json:"data"`
}

// LedgerView is a ledger as served; the API token stays private.
type LedgerView struct {
	Identity     string             `json:"identity"`
	WalletNumber int                `json:"walletNumber,omitempty"`
	Name         string             `json:"name,omitempty"`
	Status       model.Status       `json:"status"`
	Tasks        []model.TaskRecord `json:"tasks"`
}

type Health struct {
	Status    string           `json:"status"`
	Uptime    string           `json:"uptime"`
	Scheduler *SchedulerHealth `json:"scheduler,omitempty"`
}

type SchedulerHealth struct {
	Runs     int64  `json:"runs"`
	Failures int64  `json:"failures"`
	Busy     string `json:"busy"`
	NextRun  string `json:"nextRun,omitempty"`
}

type Server struct {
	echo      *echo.Echo
	store     LedgerSource
	scheduler SchedulerStats
	uptime    *timekeeper.Elapsing
	logger    sdklogging.Logger
}

type Option func(*Server)

// WithScheduler adds the scheduler counters to /health.
func WithScheduler(s SchedulerStats) Option {
	return func(srv *Server) { srv.scheduler = s }
}

func New(store LedgerSource, gatherer prometheus.Gatherer, log sdklogging.Logger, opts ...Option) *Server {
	srv := &Server{
		echo:   echo.New(),
		store:  store,
		uptime: timekeeper.NewElapsing(),
		logger: logger.EnsureLogger(log),
	}
	for _, opt := range opts {
		opt(srv)
	}

	e := srv.echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/health", srv.health)
	e.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"version":  version.Get(),
			"revision": version.GetRevision(),
		})
	})
	e.GET("/api/ledger", srv.listLedgers)
	e.GET("/api/ledger/:identity", srv.getLedger)
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return srv
}

// Handler is the router, for mounting or tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "address", addr)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) health(c echo.Context) error {
	resp := Health{Status: "ok", Uptime: s.uptime.Peek().Round(time.Second).String()}
	if s.scheduler != nil {
		st := s.scheduler.Stats()
		resp.Scheduler = &SchedulerHealth{
			Runs:     st.Runs,
			Failures: st.Failures,
			Busy:     st.Busy.Round(time.Second).String(),
		}
		if !st.NextRun.IsZero() {
			resp.Scheduler.NextRun = st.NextRun.Format(time.RFC3339)
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) listLedgers(c echo.Context) error {
	entries, err := s.store.ListAll(c.Request().Context())
	if err != nil {
		s.logger.Error("Failed to list ledgers", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read ledger store")
	}
	return c.JSON(http.StatusOK, &HttpJsonResp[[]LedgerView]{
		Data: lo.Map(entries, func(e taskstore.Entry, _ int) LedgerView {
			return view(e.Identity, e.Ledger)
		}),
	})
}

func (s *Server) getLedger(c echo.Context) error {
	key, ledger, err := s.store.Lookup(c.Request().Context(), c.Param("identity"))
	if err != nil {
		s.logger.Error("Failed to read ledger", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read ledger store")
	}
	if key == "" {
		return echo.NewHTTPError(http.StatusNotFound, "no ledger for this wallet")
	}
	return c.JSON(http.StatusOK, &HttpJsonResp[LedgerView]{Data: view(key, ledger)})
}

func view(identity string, l *model.WalletLedger) LedgerView {
	return LedgerView{
		Identity:     identity,
		WalletNumber: l.WalletNumber,
		Name:         l.Name,
		Status:       l.Status,
		Tasks:        l.Tasks,
	}
}
