package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/go-playground/validator/v10"

	"github.com/the-gavel/goapi/base/clock"
	"github.com/the-gavel/goapi/base/ctx"
	"github.com/the-gavel/goapi/base/goroutine"
	"github.com/the-gavel/goapi/base/log"
	"github.com/the-gavel/goapi/base/metrics"
	bValidator "github.com/the-gavel/goapi/base/validator"
	mmiddleware "github.com/the-gavel/goapi/middleware"
	"github.com/the-gavel/goapi/service/analytics"
	"github.com/the-gavel/goapi/service/cache"
	"github.com/the-gavel/goapi/service/cache/provider/primitive"
	"github.com/the-gavel/goapi/service/chainmock"
	activity_delivery "github.com/the-gavel/goapi/stores/activity/delivery/http"
	activity_repository "github.com/the-gavel/goapi/stores/activity/repository"
	activity_usecase "github.com/the-gavel/goapi/stores/activity/usecase"
	auction_delivery "github.com/the-gavel/goapi/stores/auction/delivery/http"
	auction_repository "github.com/the-gavel/goapi/stores/auction/repository"
	auction_usecase "github.com/the-gavel/goapi/stores/auction/usecase"
	faucet_delivery "github.com/the-gavel/goapi/stores/faucet/delivery/http"
	faucet_usecase "github.com/the-gavel/goapi/stores/faucet/usecase"
	loan_delivery "github.com/the-gavel/goapi/stores/loan/delivery/http"
	loan_repository "github.com/the-gavel/goapi/stores/loan/repository"
	loan_usecase "github.com/the-gavel/goapi/stores/loan/usecase"
	marketplace_delivery "github.com/the-gavel/goapi/stores/marketplace/delivery/http"
	marketplace_repository "github.com/the-gavel/goapi/stores/marketplace/repository"
	marketplace_usecase "github.com/the-gavel/goapi/stores/marketplace/usecase"
	nftlending_delivery "github.com/the-gavel/goapi/stores/nftlending/delivery/http"
	nftlending_repository "github.com/the-gavel/goapi/stores/nftlending/repository"
	nftlending_usecase "github.com/the-gavel/goapi/stores/nftlending/usecase"
)

func init() {
	pflag.String("config", "infra/configs/config.yaml", "path to config file")
	pflag.Parse()
	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		panic(err)
	}

	viper.SetConfigType("yaml")
	viper.SetConfigFile(viper.GetString("config"))
	err := viper.ReadInConfig()
	if err != nil {
		panic(err)
	}

	log.Setup()

	if viper.GetBool(`debug`) {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

func main() {
	// init echo
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	e.Use(middleware.RequestID())
	middL := mmiddleware.InitMiddleware()
	e.Use(middL.ResponseLogger())
	e.Use(middL.AddContext())
	e.Use(middleware.CORS())
	e.Validator = bValidator.NewCustomValidator(validator.New())

	context := ctx.Background()

	mmiddleware.SetupCache()

	clk := clock.System()

	// simulated chain executor
	executorCfg := chainmock.DefaultConfig()
	if v := viper.GetDuration("executor.minDelay"); v > 0 {
		executorCfg.MinDelay = v
	}
	if v := viper.GetDuration("executor.maxDelay"); v > 0 {
		executorCfg.MaxDelay = v
	}
	executorCfg.FailureRate = viper.GetFloat64("executor.failureRate")
	executor := chainmock.New(executorCfg, metrics.New("chainmock"))

	// construct repository, usecase and delivery
	eventRepo := activity_repository.NewEventRepo()
	recorder := analytics.New(eventRepo, clk)

	auctionRepo := auction_repository.NewAuctionRepo()
	loanRepo := loan_repository.NewLoanRepo()
	listingRepo := marketplace_repository.NewListingRepo()
	offerRepo := marketplace_repository.NewOfferRepo()
	nftRepo := nftlending_repository.NewNftRepo()
	nftAuctionRepo := nftlending_repository.NewAuctionRepo()
	nftLoanRepo := nftlending_repository.NewLoanRepo()

	loanUC := loan_usecase.NewLoanUseCase(loanRepo, executor, recorder, clk)
	auctionUC := auction_usecase.NewAuctionUseCase(auctionRepo, loanUC, executor, recorder, clk)
	marketplaceUC := marketplace_usecase.NewMarketplaceUseCase(listingRepo, offerRepo, loanUC, executor, recorder, clk)
	faucetUC := faucet_usecase.NewFaucetUseCase(executor)
	nftLendingUC := nftlending_usecase.NewNftLendingUseCase(nftRepo, nftAuctionRepo, nftLoanRepo, executor, recorder, clk)

	statsCache := cache.New(cache.ServiceConfig{
		Ttl:   viper.GetDuration("cache.statsTtl"),
		Pfx:   "activityStats",
		Cache: primitive.NewPrimitive("activityStats", 8),
	})
	activityUC := activity_usecase.NewActivityUseCase(eventRepo, auctionUC, loanUC, statsCache)

	auction_delivery.New(e, auctionUC)
	loan_delivery.New(e, loanUC)
	marketplace_delivery.New(e, marketplaceUC)
	nftlending_delivery.New(e, nftLendingUC)
	activity_delivery.New(e, activityUC)
	faucet_delivery.New(e, faucetUC)

	e.GET("/healthcheck", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok"})
	})

	// periodic status recomputation
	auctionTick := viper.GetDuration("ticker.auction")
	if auctionTick <= 0 {
		auctionTick = time.Second
	}
	loanTick := viper.GetDuration("ticker.loan")
	if loanTick <= 0 {
		loanTick = time.Minute
	}

	goroutine.RecoverableGo(func() {
		ticker := time.NewTicker(auctionTick)
		defer ticker.Stop()
		for range ticker.C {
			if err := auctionUC.RefreshStatuses(context); err != nil {
				context.WithField("err", err).Warn("auction refresh failed")
			}
			if err := nftLendingUC.RefreshStatuses(context); err != nil {
				context.WithField("err", err).Warn("nft refresh failed")
			}
		}
	})
	goroutine.RecoverableGo(func() {
		ticker := time.NewTicker(loanTick)
		defer ticker.Stop()
		for range ticker.C {
			if err := loanUC.RefreshStatuses(context); err != nil {
				context.WithField("err", err).Warn("loan refresh failed")
			}
			if err := marketplaceUC.RefreshOffers(context); err != nil {
				context.WithField("err", err).Warn("offer refresh failed")
			}
		}
	})

	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	// Use a buffered channel to avoid missing signals as recommended for signal.Notify
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	shutdownCtx, cancel := ctx.WithTimeout(context, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
}
