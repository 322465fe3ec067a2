package bootstrap

import (
	"context"

	"github.com/krobus00/portfolio-service/internal/config"
	"github.com/krobus00/portfolio-service/internal/entity"
	"github.com/krobus00/portfolio-service/internal/infrastructure"
	"github.com/krobus00/portfolio-service/internal/repository"
	"github.com/krobus00/portfolio-service/internal/service/pnl"
	"github.com/krobus00/portfolio-service/internal/service/ticker"
	"github.com/krobus00/portfolio-service/internal/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// StartSnapshotWorker consumes queued pnl snapshot requests and writes the
// daily valuation rows.
func StartSnapshotWorker(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	portfolioDB, err := infrastructure.NewPostgresConnection(ctx, config.Env.Database["portfolio"])
	util.ContinueOrFatal(err)
	infrastructure.StartPostgresHealthCheck(ctx, portfolioDB, config.Env.Database["portfolio"].PingInterval)

	redisClient, err := infrastructure.NewRedisClient(ctx, config.Env.Redis["cache"])
	util.ContinueOrFatal(err)

	nc, js, err := infrastructure.NewJetstream()
	util.ContinueOrFatal(err)

	walletRepo := repository.NewWalletRepository(portfolioDB)
	walletPnlRepo := repository.NewWalletPnlRepository(portfolioDB)
	priceRepo := repository.NewPriceRepository(portfolioDB)

	tickerStore := ticker.NewMapSource()
	tickerFeed := ticker.NewFeed(config.Env.Portfolio.TickerWSURL, tickerStore, redisClient)
	go tickerFeed.Run(ctx)

	pnlService := pnl.NewService(walletRepo, walletPnlRepo, priceRepo, tickerFeed, js)

	subscribers := make([]entity.Subscriber, 0)
	subscribers = append(subscribers, pnlService)
	for _, v := range subscribers {
		err = v.JetstreamEventSubscribe(ctx)
		util.ContinueOrFatal(err)
	}
	logrus.Info("pnl snapshot worker started")

	wait := gracefulShutdown(ctx, config.Env.GracefulShutdownTimeout, map[string]operation{
		"portfolio database": func(ctx context.Context) error {
			cancel()
			return portfolioDB.Close()
		},
		"redis": func(ctx context.Context) error {
			return redisClient.Close()
		},
		"nats connection": func(ctx context.Context) error {
			return infrastructure.CloseJetstream(nc)
		},
	})

	<-wait
}
