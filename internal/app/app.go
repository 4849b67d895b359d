// Package app wires configuration, clients and services for fundval
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bobmcallan/fundval/internal/clients/eastmoney"
	"github.com/bobmcallan/fundval/internal/clients/gemini"
	"github.com/bobmcallan/fundval/internal/clients/ths"
	"github.com/bobmcallan/fundval/internal/common"
	"github.com/bobmcallan/fundval/internal/interfaces"
	"github.com/bobmcallan/fundval/internal/services/quote"
	"github.com/bobmcallan/fundval/internal/services/resolver"
	"github.com/bobmcallan/fundval/internal/services/valuation"
	"github.com/bobmcallan/fundval/internal/storage/fundcache"
	"github.com/bobmcallan/fundval/internal/storage/resultsfs"
)

// App holds all initialized services and clients.
// It is the shared core used by both cmd/fundval-server and cmd/fundval.
type App struct {
	Config            *common.Config
	Logger            *common.Logger
	FundStore         interfaces.FundRepository
	THSClient         interfaces.QuoteClient
	EastmoneyClient   interfaces.QuoteClient
	FundSearcher      interfaces.FundSearcher
	MarketClient      interfaces.MarketClient
	HoldingsExtractor interfaces.HoldingsExtractor // nil when no Gemini key is configured
	QuoteService      interfaces.QuoteService
	ResolverService   interfaces.ResolverService
	ValuationService  interfaces.ValuationService
	Results           *resultsfs.Store
	QuoteSource       string
	StartupTime       time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes all clients and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	binDir := getBinaryDir()

	// Load configuration - check provided path, FUNDVAL_CONFIG, then binary dir, then working dir
	if configPath == "" {
		configPath = os.Getenv("FUNDVAL_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "fundval.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "fundval.toml"
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)

	store, err := fundcache.NewDefaultStore(logger, config.Cache.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize fund cache: %w", err)
	}

	thsCfg := config.Clients.THS
	thsClient := ths.NewClient(
		ths.WithBaseURL(thsCfg.BaseURL),
		ths.WithReferer(thsCfg.Referer),
		ths.WithLogger(logger),
		ths.WithRateLimit(thsCfg.RateLimit),
		ths.WithTimeout(thsCfg.GetTimeout()),
	)

	emCfg := config.Clients.Eastmoney
	emClient := eastmoney.NewClient(
		eastmoney.WithFundGZURL(emCfg.FundGZURL),
		eastmoney.WithSearchURL(emCfg.SearchURL),
		eastmoney.WithPushURL(emCfg.PushURL),
		eastmoney.WithUT(emCfg.UT),
		eastmoney.WithLogger(logger),
		eastmoney.WithRateLimit(emCfg.RateLimit),
		eastmoney.WithTimeout(emCfg.GetTimeout()),
		eastmoney.WithSearchTimeout(emCfg.GetSearchTimeout()),
	)

	a := &App{
		Config:          config,
		Logger:          logger,
		FundStore:       store,
		THSClient:       thsClient,
		EastmoneyClient: emClient,
		FundSearcher:    emClient,
		MarketClient:    emClient,
		Results:         resultsfs.NewStore("", logger),
		StartupTime:     startupStart,
	}

	if key := config.Clients.Gemini.APIKey; key != "" {
		geminiClient, err := gemini.NewClient(context.Background(), key,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client")
		} else {
			a.HoldingsExtractor = geminiClient
		}
	} else {
		logger.Debug().Msg("Gemini API key not configured - screenshot OCR will be unavailable")
	}

	a.ResolverService = resolver.NewService(store, emClient, logger)
	if err := a.UseSource(config.Valuation.PrimarySource, config.Valuation.Fallback); err != nil {
		return nil, err
	}

	logger.Info().
		Str("quote_source", a.QuoteSource).
		Int("funds_cached", store.Len()).
		Bool("ocr", a.HoldingsExtractor != nil).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// UseSource rebuilds the quote and valuation services around source ("ths" or
// "eastmoney"). With fallback set, the other source is tried when it fails.
func (a *App) UseSource(source string, fallback bool) error {
	primary, alternate, err := a.clientsFor(source)
	if err != nil {
		return err
	}
	if !fallback {
		alternate = nil
	}

	a.QuoteSource = primary.Source()
	a.QuoteService = quote.NewService(primary, alternate, a.Logger)
	a.ValuationService = valuation.NewService(a.ResolverService, a.QuoteService, a.Logger,
		valuation.WithFundInfo(a.EastmoneyClient),
		valuation.WithMarket(a.MarketClient),
		valuation.WithWorkers(a.Config.Valuation.Workers),
		valuation.WithIndices(a.Config.Valuation.MarketIndices),
	)
	return nil
}

func (a *App) clientsFor(source string) (interfaces.QuoteClient, interfaces.QuoteClient, error) {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case common.SourceTHS, "":
		return a.THSClient, a.EastmoneyClient, nil
	case common.SourceEastmoney:
		return a.EastmoneyClient, a.THSClient, nil
	default:
		return nil, nil, fmt.Errorf("unknown quote source %q (want %s or %s)", source, common.SourceTHS, common.SourceEastmoney)
	}
}

// Close releases resources held by the App. Safe to call more than once.
func (a *App) Close() {
	a.Logger.Debug().Dur("uptime", time.Since(a.StartupTime)).Msg("App closed")
}
