package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/cinema-ticketing/internal/config"
	"github.com/iliyamo/cinema-ticketing/internal/database"
	"github.com/iliyamo/cinema-ticketing/internal/handler"
	"github.com/iliyamo/cinema-ticketing/internal/logging"
	"github.com/iliyamo/cinema-ticketing/internal/middleware"
	"github.com/iliyamo/cinema-ticketing/internal/payment"
	"github.com/iliyamo/cinema-ticketing/internal/queue"
	"github.com/iliyamo/cinema-ticketing/internal/repository"
	"github.com/iliyamo/cinema-ticketing/internal/repository/memory"
	"github.com/iliyamo/cinema-ticketing/internal/repository/mysql"
	"github.com/iliyamo/cinema-ticketing/internal/router"
	"github.com/iliyamo/cinema-ticketing/internal/service"
	"github.com/iliyamo/cinema-ticketing/internal/validation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	logging.Init(cfg.LogLevel, cfg.IsProduction())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
	logrus.Info("server stopped")
}

func openStore(ctx context.Context, cfg config.Config) (repository.Store, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		logrus.Warn("using in-memory store; data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}
	dsn := database.DSN(cfg.DB.User, cfg.DB.Pass, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)
	db, err := database.Open(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DB.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
	}
	return mysql.NewStore(db), func() { _ = db.Close() }, nil
}

func run(ctx context.Context, cfg config.Config) error {
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	rdb := config.NewRedisClient(ctx, cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	} else {
		logrus.Info("redis not available; using local rate limiting without response cache")
	}

	var pub service.EventPublisher = queue.LogPublisher{}
	if cfg.Rabbit.URL != "" {
		p, err := queue.NewPublisher(cfg.Rabbit.URL, cfg.Rabbit.Exchange)
		if err != nil {
			return err
		}
		defer p.Close()
		pub = p
	}

	gateway := payment.NewSandbox()
	authSvc := service.NewAuthService(store, service.AuthConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTTL(),
		RefreshTTL: cfg.RefreshTTL(),
		BcryptCost: cfg.BcryptCost,
	})
	if err := authSvc.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password, cfg.Admin.Name); err != nil {
		return err
	}
	catalogSvc := service.NewCatalogService(store)
	showtimeSvc := service.NewShowtimeService(store)
	seatSvc := service.NewSeatService(store, cfg.Seats.LockTTL, pub, cfg.Currency)
	checkoutSvc := service.NewCheckoutService(store, gateway, pub, cfg.Currency)
	orderSvc := service.NewOrderService(store, gateway, pub, cfg.Currency)
	reviewSvc := service.NewReviewService(store)
	userSvc := service.NewUserService(store)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.EchoValidator{}
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(middleware.RequestContext())
	e.Use(middleware.RequestLogger())
	e.Use(echomw.Recover())

	router.RegisterRoutes(e, router.Handlers{
		Auth:      handler.NewAuthHandler(authSvc, cfg.CookieSecure),
		Catalog:   handler.NewCatalogHandler(catalogSvc),
		Showtimes: handler.NewShowtimeHandler(showtimeSvc),
		Seats:     handler.NewSeatHandler(seatSvc, showtimeSvc),
		Checkout:  handler.NewCheckoutHandler(checkoutSvc),
		Orders:    handler.NewOrderHandler(orderSvc),
		Reviews:   handler.NewReviewHandler(reviewSvc),
		Users:     handler.NewUserHandler(userSvc),
	}, router.Options{
		JWTSecret: cfg.JWTSecret,
		Cache:     cfg.Cache,
		RateLimit: cfg.RateLimit,
		Redis:     rdb,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "store": cfg.StoreDriver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return seatSvc.RunSweeper(ctx, cfg.Seats.SweepInterval)
	})
	if cfg.Rabbit.URL != "" {
		consumer := queue.NewConsumer(cfg.Rabbit.URL, cfg.Rabbit.Exchange, cfg.Rabbit.Queue, cfg.Rabbit.NotificationLog)
		g.Go(func() error {
			return consumer.Run(ctx)
		})
	}
	return g.Wait()
}
