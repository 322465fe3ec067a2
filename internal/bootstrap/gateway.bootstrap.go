package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/krobus00/portfolio-service/internal/config"
	"github.com/krobus00/portfolio-service/internal/entity"
	httpHandler "github.com/krobus00/portfolio-service/internal/handler/portfolio/http"
	"github.com/krobus00/portfolio-service/internal/infrastructure"
	"github.com/krobus00/portfolio-service/internal/repository"
	"github.com/krobus00/portfolio-service/internal/service/market"
	"github.com/krobus00/portfolio-service/internal/service/pnl"
	"github.com/krobus00/portfolio-service/internal/service/ticker"
	"github.com/krobus00/portfolio-service/internal/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func StartGateway(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	portfolioDB, err := infrastructure.NewPostgresConnection(ctx, config.Env.Database["portfolio"])
	util.ContinueOrFatal(err)
	infrastructure.StartPostgresHealthCheck(ctx, portfolioDB, config.Env.Database["portfolio"].PingInterval)

	redisClient, err := infrastructure.NewRedisClient(ctx, config.Env.Redis["cache"])
	util.ContinueOrFatal(err)

	nc, js, err := infrastructure.NewJetstream()
	util.ContinueOrFatal(err)

	marketRepo := repository.NewMarketRepository(portfolioDB)
	walletRepo := repository.NewWalletRepository(portfolioDB)
	walletPnlRepo := repository.NewWalletPnlRepository(portfolioDB)
	priceRepo := repository.NewPriceRepository(portfolioDB)

	initVenues(config.Env.Venues)

	tickerStore := ticker.NewMapSource()
	tickerFeed := ticker.NewFeed(config.Env.Portfolio.TickerWSURL, tickerStore, redisClient)
	go tickerFeed.Run(ctx)

	importLock := market.NewRedisImportLock(redisClient, config.Env.Portfolio.ImportLockTTL)
	marketService := market.NewService(marketRepo, importLock, js, config.Env.DefaultVenue)
	pnlService := pnl.NewService(walletRepo, walletPnlRepo, priceRepo, tickerFeed, js)

	publishers := make([]entity.Publisher, 0)
	publishers = append(publishers, marketService, pnlService)
	for _, v := range publishers {
		err = v.JetstreamEventInit(ctx)
		util.ContinueOrFatal(err)
	}

	portfolioHTTPHandler := httpHandler.NewPortfolioHTTPHandler(marketService, pnlService)
	httpMux := http.NewServeMux()
	portfolioHTTPHandler.Register(httpMux)

	httpPort := fmt.Sprintf(":%s", config.Env.Port["portfolio_gateway_http"])
	httpServer := infrastructure.NewHTTPServerWithConfig(infrastructure.HTTPServerConfig{
		Addr:            httpPort,
		ShutdownTimeout: config.Env.GracefulShutdownTimeout,
	}, httpMux)

	go func() {
		err := httpServer.Start()
		if err != nil {
			logrus.Error(err)
		}
	}()
	logrus.Info(fmt.Sprintf("http server started on %s", httpPort))

	wait := gracefulShutdown(ctx, config.Env.GracefulShutdownTimeout, map[string]operation{
		"portfolio database": func(ctx context.Context) error {
			cancel()
			return portfolioDB.Close()
		},
		"redis": func(ctx context.Context) error {
			return redisClient.Close()
		},
		"http": func(ctx context.Context) error {
			return httpServer.Shutdown(ctx)
		},
		"nats connection": func(ctx context.Context) error {
			return infrastructure.CloseJetstream(nc)
		},
	})

	<-wait
}
