package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/booknook/storefront/internal/admin"
	"github.com/booknook/storefront/internal/api"
	"github.com/booknook/storefront/internal/assistant"
	"github.com/booknook/storefront/internal/cart"
	"github.com/booknook/storefront/internal/catalog"
	"github.com/booknook/storefront/internal/config"
	"github.com/booknook/storefront/internal/db"
	"github.com/booknook/storefront/internal/events"
	"github.com/booknook/storefront/internal/httpserver"
	"github.com/booknook/storefront/internal/library"
	"github.com/booknook/storefront/internal/logging"
	authmw "github.com/booknook/storefront/internal/middleware/auth"
	"github.com/booknook/storefront/internal/middleware/csrf"
	loggingmw "github.com/booknook/storefront/internal/middleware/logging"
	"github.com/booknook/storefront/internal/payment"
	"github.com/booknook/storefront/internal/profile"
	"github.com/booknook/storefront/internal/reader"
	"github.com/booknook/storefront/internal/search"
	"github.com/booknook/storefront/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db_open_failed", "error", err)
		os.Exit(1)
	}
	prod := events.New(cfg.KafkaBrokers)
	carts := cart.NewService(gdb, prod)
	if err := carts.Repo.Migrate(ctx); err != nil {
		logger.Error("db_migrate_failed", "error", err)
		os.Exit(1)
	}

	client := api.New(cfg.BackendURL,
		api.WithTimeout(cfg.BackendTimeout),
		api.WithRetries(cfg.BackendRetries),
		api.WithDevFallback(cfg.DevFallback),
	)

	var index catalog.Searcher
	if cfg.ESURL != "" {
		es, err := search.NewClient(ctx, search.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword}, logger)
		if err != nil {
			logger.Warn("search_disabled", "error", err)
		} else {
			ix := search.NewIndex(es, cfg.ESIndex)
			if err := ix.Ensure(ctx); err != nil {
				logger.Warn("search_disabled", "index", cfg.ESIndex, "error", err)
			} else {
				index = ix
			}
		}
	}
	books := catalog.New(client, index)

	cookies := session.Cookies{Secure: cfg.CookieSecure}
	profiles := profile.New(client)
	content, err := reader.NewContentProxy(cfg.BackendURL, session.Token)
	if err != nil {
		logger.Error("content_proxy_failed", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = httpserver.ErrorHandler
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestID(), loggingmw.RequestLogger(logger), middleware.Recover())

	csrfCfg := csrf.DefaultConfig()
	csrfCfg.Secure = cfg.CookieSecure
	csrfCfg.Skipper = httpserver.CSRFSkipper
	e.Use(csrf.Middleware(csrfCfg))

	httpserver.Register(e, &httpserver.Deps{
		Auth:    authmw.New(profiles, cookies),
		Backend: client,
		Shell:   &httpserver.ShellHTTP{Cookies: cookies},
		Store:   &httpserver.StoreHTTP{Catalog: books, Backend: client},
		Cart: &httpserver.CartHTTP{
			Cart:     carts,
			Catalog:  books,
			Profiles: profiles,
			Payments: payment.New(client, carts, prod),
			Cookies:  cookies,
		},
		Account:   &httpserver.AccountHTTP{Backend: client, Profiles: profiles, Cookies: cookies},
		Library:   &httpserver.LibraryHTTP{Backend: client, Library: library.New(client, books)},
		Admin:     &httpserver.AdminHTTP{Admin: admin.New(client, books, prod)},
		Reader:    &httpserver.ReaderHTTP{Reader: reader.New(client), Content: content},
		Assistant: &httpserver.AssistantHTTP{Assistant: assistant.New(client), Cookies: cookies},
	})

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server_started", "addr", cfg.ListenAddr, "backend", cfg.BackendURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return books.Run(gctx, cfg.SearchSyncInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting_down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server_error", "error", err)
	}

	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_failed", "error", err)
	}
	if err := prod.Close(); err != nil {
		logger.Error("kafka_close_failed", "error", err)
	}
	logger.Info("shutdown_complete")
}
