package bootstrap

import (
	"strings"

	"github.com/krobus00/portfolio-service/internal/config"
	"github.com/krobus00/portfolio-service/internal/entity"
	"github.com/krobus00/portfolio-service/internal/service/venue"
	"github.com/sirupsen/logrus"
)

// initVenues starts a client for every enabled venue in config and registers
// it in the global venue registry.
func initVenues(venues map[string]config.VenueConfig) {
	for name, cfg := range venues {
		if !cfg.Enabled {
			continue
		}

		switch entity.VenueName(strings.ToLower(name)) {
		case entity.VenueBinance:
			venue.InitBinanceVenue(cfg)
		case entity.VenueKucoin:
			venue.InitKucoinVenue(cfg)
		case entity.VenueXT:
			venue.InitXTVenue(cfg)
		case entity.VenueOKX:
			venue.InitOKXVenue(cfg)
		default:
			logrus.Warnf("unknown venue in config: %s", name)
		}
	}
}
