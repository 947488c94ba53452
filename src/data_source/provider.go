package datasource

import (
	"fmt"

	"market-screener/src/data_source/polygon"
	"market-screener/src/helpers"
	"market-screener/src/interfaces"
	"market-screener/src/logger"
	"market-screener/src/models"
)

// -----------------------------------------------------------------------------

// NewProvider instantiates the provider named in the configuration. The
// cache only ever talks to one provider; there is no fan-in across sources.
func NewProvider(config *models.MConfig, log *logger.Logger, network interfaces.INetworkManager) (interfaces.IMarketDataProvider, error) {
	switch config.Provider.Name {
	case "polygon", "":
		return polygon.NewProvider(config, log.WithName("PolygonProvider"), network), nil
	default:
		return nil, helpers.NewConfigurationError(
			fmt.Sprintf("unknown market data provider %q", config.Provider.Name), nil)
	}
}
