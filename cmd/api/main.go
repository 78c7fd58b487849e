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
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	httpadp "loanflow-backend/internal/adapter/http"
	idem "loanflow-backend/internal/adapter/middleware"
	"loanflow-backend/internal/adapter/notifier"
	"loanflow-backend/internal/adapter/repository/mysql"
	redisrepo "loanflow-backend/internal/adapter/repository/redis"
	"loanflow-backend/internal/config"
	"loanflow-backend/internal/domain/notification"
	"loanflow-backend/internal/domain/schedule"
	"loanflow-backend/internal/infrastructure/cache"
	"loanflow-backend/internal/infrastructure/db"
	"loanflow-backend/internal/usecase/delivery"
	"loanflow-backend/internal/usecase/loan"
	"loanflow-backend/internal/usecase/scheduler"
	"loanflow-backend/internal/usecase/sweep"
	"loanflow-backend/pkg/clock"
)

func main() {
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN(), log)
	if err != nil {
		log.WithError(err).Fatal("mysql: connect failed")
	}
	if err := mysql.Migrate(gdb); err != nil {
		log.WithError(err).Fatal("mysql: migrate failed")
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.WithError(err).Fatal("redis: connect failed")
	}
	defer rdb.Close()

	clk := clock.Real{}
	loans := mysql.NewLoanRepository(gdb)
	users := mysql.NewUserRepository(gdb)
	transitions := mysql.NewTransitionRepository(gdb)
	tx := mysql.NewGormUoW(gdb)

	// notifications
	gateway := notifier.NewGateway(notifier.DefaultTemplates(), log)
	pool, err := notifier.DialSMTP(notifier.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPass,
		From:     cfg.SMTPFrom,
		PoolSize: cfg.SMTPPoolSize,
	})
	if err != nil {
		log.WithError(err).Fatal("smtp: pool failed")
	}
	defer pool.Close()
	gateway.Register(notification.ChannelEmail, notifier.NewEmailTransport(pool, cfg.SMTPFrom, 0))
	if cfg.WhatsAppEnabled() {
		gateway.Register(notification.ChannelWhatsApp, notifier.NewWhatsAppTransport(notifier.WhatsAppConfig{
			APIURL: cfg.WhatsAppAPIURL,
			Token:  cfg.WhatsAppToken,
		}))
	} else {
		log.Warn("whatsapp: WHATSAPP_API_URL not set, whatsapp sends will fail permanently")
	}

	tracker := delivery.NewTracker(redisrepo.NewSendRecordStore(rdb), clk, delivery.DefaultPolicy(), log)
	deliverer := delivery.NewDeliverer(users, gateway, log)
	dispatcher := delivery.NewDispatcher(tracker, deliverer, log)

	// lifecycle
	sched := scheduler.New(transitions, clk, log)
	uc := loan.NewUsecase(loans, tx,
		loan.WithTimer(sched),
		loan.WithNotifier(dispatcher),
		loan.WithClock(clk),
		loan.WithLogger(log),
		loan.WithAutoDecisionDelay(cfg.AutoDecisionDelay),
		loan.WithAnnualInterestRate(cfg.AnnualInterestRate),
	)
	sched.Register(schedule.KindAutoDecision, uc.HandleAutoDecision)
	if _, err := sched.Recover(context.Background()); err != nil {
		log.WithError(err).Fatal("scheduler: recover failed")
	}

	sweeps := sweep.New(loans, users, tracker, deliverer, clk, log)
	if err := sweeps.Schedule(sweep.Specs{
		PaymentFailed:   cfg.SweepPaymentFailedSpec,
		ProfileReminder: cfg.SweepProfileReminderSpec,
		PaymentPending:  cfg.SweepPaymentPendingSpec,
		TrackerPrune:    cfg.SweepTrackerPruneSpec,
	}); err != nil {
		log.WithError(err).Fatal("sweep: bad schedule")
	}
	sweeps.Start()

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())

	// routes
	httpadp.Register(e,
		httpadp.NewHandler(
			httpadp.Check{Name: "mysql", Ping: db.Ping(gdb)},
			httpadp.Check{Name: "redis", Ping: cache.Ping(rdb)},
		),
		httpadp.NewLoanHandler(uc),
		httpadp.NewAdminHandler(uc),
		idem.IdempotencyMiddleware(rdb, cfg.IdempotencyTTL(), log),
	)

	go func() {
		addr := ":" + cfg.AppPort
		log.WithField("addr", addr).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http: server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("http: shutdown")
	}
	sweeps.Stop()
	sched.Stop()
	dispatcher.Stop()
}
