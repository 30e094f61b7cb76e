package restapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/idrissbellil/cryptomonitor/internal/app/port"
	"github.com/idrissbellil/cryptomonitor/internal/app/registry"
	"github.com/idrissbellil/cryptomonitor/internal/app/service"
	"github.com/idrissbellil/cryptomonitor/internal/config"
	"github.com/idrissbellil/cryptomonitor/internal/domain/entity"
)

// Handler serves the monitoring API. Every request re-reads the persisted
// profile, matching the CLI's read-at-start-of-every-operation lifecycle.
type Handler struct {
	cfg    *config.Config
	reg    *registry.Registry
	store  port.ProfileStore
	rates  port.RateProvider
	logger *zap.Logger
}

// NewHandler creates the API handler.
func NewHandler(
	cfg *config.Config,
	reg *registry.Registry,
	store port.ProfileStore,
	rates port.RateProvider,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		cfg:    cfg,
		reg:    reg,
		store:  store,
		rates:  rates,
		logger: logger.Named("Handler"),
	}
}

type balancesResponse struct {
	Balances     []entity.Balance     `json:"balances"`
	SourceErrors []entity.SourceError `json:"sourceErrors,omitempty"`
}

// GetBalancesHandler reports on-chain balances for the profile's addresses,
// optionally filtered by repeated ?asset= parameters.
func (h *Handler) GetBalancesHandler(c *gin.Context) {
	assets, ok := h.requestedAssets(c)
	if !ok {
		return
	}

	sources, ok := h.assetSources(c, assets)
	if !ok {
		return
	}

	svc := service.NewWalletService(sources, nil, h.cfg.Aggregator, h.logger)
	balances, sourceErrs := svc.GetBalances(c.Request.Context())

	c.JSON(http.StatusOK, balancesResponse{Balances: balances, SourceErrors: sourceErrs})
}

type walletResponse struct {
	Wallet       entity.Wallet        `json:"wallet"`
	Converted    []entity.Balance     `json:"converted,omitempty"`
	Total        *entity.Balance      `json:"total,omitempty"`
	SourceErrors []entity.SourceError `json:"sourceErrors,omitempty"`
}

// GetWalletHandler builds the aggregated wallet snapshot and, when a
// ?convert= target is given, re-expresses every balance in that asset.
func (h *Handler) GetWalletHandler(c *gin.Context) {
	sources, ok := h.assetSources(c, entity.CryptoAssets())
	if !ok {
		return
	}

	svc := service.NewWalletService(sources, h.rates, h.cfg.Aggregator, h.logger)
	wallet, sourceErrs, err := svc.BuildWallet(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to build wallet", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	response := walletResponse{Wallet: wallet, SourceErrors: sourceErrs}

	if convert := c.Query("convert"); convert != "" {
		target, err := entity.ParseAsset(convert)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		converted, err := wallet.Convert(target)
		if err != nil {
			status := http.StatusBadGateway
			if errors.Is(err, entity.ErrRateUnavailable) {
				status = http.StatusUnprocessableEntity
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		total, err := wallet.Total(target)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		response.Converted = converted
		response.Total = &total
	}

	c.JSON(http.StatusOK, response)
}

type exchangersResponse struct {
	Exchangers   []service.ExchangerView `json:"exchangers"`
	SourceErrors []entity.SourceError    `json:"sourceErrors,omitempty"`
}

// GetExchangersHandler reports balances, open orders and trades for the
// profile's exchange accounts, optionally filtered by repeated ?name=
// parameters.
func (h *Handler) GetExchangersHandler(c *gin.Context) {
	profile, ok := h.loadProfile(c)
	if !ok {
		return
	}

	names := entity.Exchangers()
	if queried := c.QueryArray("name"); len(queried) > 0 {
		names = names[:0]
		for _, raw := range queried {
			name, found := entity.ParseExchanger(raw)
			if !found {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown exchanger " + raw})
				return
			}
			names = append(names, name)
		}
	}

	var sources []port.ExchangeSource
	for _, xp := range profile.ExchangersFor(names) {
		source, err := h.reg.ForExchanger(xp)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		sources = append(sources, source)
	}

	svc := service.NewExchangeService(sources, h.logger)
	views, sourceErrs := svc.FetchAll(c.Request.Context())

	c.JSON(http.StatusOK, exchangersResponse{Exchangers: views, SourceErrors: sourceErrs})
}

func (h *Handler) requestedAssets(c *gin.Context) ([]entity.Asset, bool) {
	queried := c.QueryArray("asset")
	if len(queried) == 0 {
		return entity.CryptoAssets(), true
	}

	assets := make([]entity.Asset, 0, len(queried))
	for _, raw := range queried {
		asset, err := entity.ParseAsset(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, false
		}
		assets = append(assets, asset)
	}
	return assets, true
}

func (h *Handler) assetSources(c *gin.Context, assets []entity.Asset) ([]port.AssetSource, bool) {
	profile, ok := h.loadProfile(c)
	if !ok {
		return nil, false
	}

	var sources []port.AssetSource
	for _, address := range profile.AddressesFor(assets) {
		source, err := h.reg.ForAddress(address)
		if err != nil {
			h.logger.Error("Failed to build asset source",
				zap.String("address", address.Addr), zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, false
		}
		sources = append(sources, source)
	}
	return sources, true
}

func (h *Handler) loadProfile(c *gin.Context) (entity.Profile, bool) {
	profile, err := h.store.Load()
	if err != nil {
		if errors.Is(err, entity.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no profile found, initialize one with the init command"})
			return entity.Profile{}, false
		}
		h.logger.Error("Failed to load profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return entity.Profile{}, false
	}
	return profile, true
}
