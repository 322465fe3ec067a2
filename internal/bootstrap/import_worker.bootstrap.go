package bootstrap

import (
	"context"

	"github.com/krobus00/portfolio-service/internal/config"
	"github.com/krobus00/portfolio-service/internal/entity"
	"github.com/krobus00/portfolio-service/internal/infrastructure"
	"github.com/krobus00/portfolio-service/internal/repository"
	"github.com/krobus00/portfolio-service/internal/service/market"
	"github.com/krobus00/portfolio-service/internal/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// StartImportWorker consumes queued market import requests and reconciles
// venue markets into the database.
func StartImportWorker(cmd *cobra.Command, args []string) {
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

	initVenues(config.Env.Venues)

	importLock := market.NewRedisImportLock(redisClient, config.Env.Portfolio.ImportLockTTL)
	marketService := market.NewService(marketRepo, importLock, js, config.Env.DefaultVenue)

	subscribers := make([]entity.Subscriber, 0)
	subscribers = append(subscribers, marketService)
	for _, v := range subscribers {
		err = v.JetstreamEventSubscribe(ctx)
		util.ContinueOrFatal(err)
	}
	logrus.Info("market import worker started")

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
