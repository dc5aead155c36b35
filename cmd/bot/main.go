package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/cos71n/pipe-relining-pros/internal/adapter/httpapi"
	telegramAdapter "github.com/cos71n/pipe-relining-pros/internal/adapter/telegram"
	"github.com/cos71n/pipe-relining-pros/internal/config"
	"github.com/cos71n/pipe-relining-pros/internal/domain"
	"github.com/cos71n/pipe-relining-pros/internal/infra/memory"
	sqliteRepo "github.com/cos71n/pipe-relining-pros/internal/infra/sqlite"
	"github.com/cos71n/pipe-relining-pros/internal/platform/logger"
	"github.com/cos71n/pipe-relining-pros/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		userRepo   domain.UserRepository
		funnelRepo usecase.FunnelRepository
		reportRepo usecase.AnnounceReportRepository
	)
	if cfg.SQLiteDSN == "memory" {
		userRepo, funnelRepo, reportRepo = memory.NewUserRepo(), memory.NewFunnelRepo(), memory.NewAnnounceReportRepo()
	} else {
		db, err := sqliteRepo.Open(cfg.SQLiteDSN)
		if err != nil {
			log.Error("sqlite init failed", "dsn", cfg.SQLiteDSN, "error", err)
			return err
		}
		defer db.Close()
		userRepo, funnelRepo, reportRepo = sqliteRepo.NewUserRepo(db), sqliteRepo.NewFunnelRepo(db), sqliteRepo.NewAnnounceReportRepo(db)
	}

	funnelUC := usecase.NewFunnelUsecase(funnelRepo)
	panels := usecase.NewPanelStore(cfg.Profile, usecase.WithTTL(cfg.SessionTTL))
	limiter := httpapi.NewRateLimiter(cfg.RateLimitPerMinute)

	var wg sync.WaitGroup
	defer wg.Wait()
	wg.Add(1)
	go func() {
		defer wg.Done()
		panels.RunSweeper(ctx, time.Minute, func(n int) {
			log.Debug("expired quote chats", "count", n)
		})
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(5 * time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				limiter.Cleanup()
			}
		}
	}()

	if cfg.LogMode == "prod" || cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	server := httpapi.NewServer(cfg.HTTPAddr, httpapi.RouterConfig{
		Quote:          httpapi.NewQuoteHandler(panels, funnelUC, log.Logger),
		Limiter:        limiter,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         log.Logger,
	})
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := server.Run(ctx); err != nil {
			log.Error("http server failed", "error", err)
			stop()
		}
	}()

	if cfg.TelegramToken == "" {
		log.Warn("TELEGRAM_BOT_TOKEN is not set, running the web widget API only")
	} else {
		bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			log.Error("telegram bot init failed", "error", err)
			stop()
			return fmt.Errorf("telegram bot init: %w", err)
		}
		bot.Debug = false
		log.Info("telegram authorized", "username", bot.Self.UserName)

		announceUC := usecase.NewAnnounceUsecase(userRepo, funnelRepo, telegramAdapter.ChatIDFromKey, telegramAdapter.NewSender(bot), reportRepo)
		handler := telegramAdapter.NewHandler(bot, panels, cfg.Profile, userRepo, announceUC, cfg.AdminIDs, funnelUC, log.Logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			handler.Run(ctx)
		}()
	}

	<-ctx.Done()
	wg.Wait()
	log.Info("shutdown complete")
	return nil
}
