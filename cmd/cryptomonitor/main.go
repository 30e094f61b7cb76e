package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/idrissbellil/cryptomonitor/internal/app/port"
	"github.com/idrissbellil/cryptomonitor/internal/app/registry"
	"github.com/idrissbellil/cryptomonitor/internal/app/service"
	"github.com/idrissbellil/cryptomonitor/internal/config"
	"github.com/idrissbellil/cryptomonitor/internal/domain/entity"
	"github.com/idrissbellil/cryptomonitor/internal/infrastructure/profilestore"
	"github.com/idrissbellil/cryptomonitor/internal/infrastructure/rates"
	"github.com/idrissbellil/cryptomonitor/internal/pkg/logger"
	"github.com/idrissbellil/cryptomonitor/internal/pkg/metrics"
)

const usage = `Monitor crypto wallets & exchangers.

Usage:
  cryptomonitor init -asset BTC -address <addr> [-exchanger-name KRAKEN -exchanger-key "KEY SECRET"]
  cryptomonitor balance [-asset BTC -asset ETH]
  cryptomonitor transactions [-asset ETH]
  cryptomonitor exchanger [-name KRAKEN]
  cryptomonitor wallet [-convert USD]
`

// stringList collects repeated flag values.
type stringList []string

func (l *stringList) String() string {
	return fmt.Sprint([]string(*l))
}

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

type app struct {
	cfg    *config.Config
	reg    *registry.Registry
	store  port.ProfileStore
	logger *zap.Logger
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfgPath := os.Getenv("CRYPTOMONITOR_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	metrics.MustRegister()

	a := &app{
		cfg:    cfg,
		reg:    registry.New(cfg, log),
		store:  profilestore.New(cfg.Profile.Path),
		logger: log,
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "init":
		err = a.runInit(os.Args[2:])
	case "balance":
		err = a.runBalance(ctx, os.Args[2:])
	case "transactions":
		err = a.runTransactions(ctx, os.Args[2:])
	case "exchanger":
		err = a.runExchanger(ctx, os.Args[2:])
	case "wallet":
		err = a.runWallet(ctx, os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Error("Command failed", zap.String("command", os.Args[1]), zap.Error(err))
		os.Exit(1)
	}
}

// runInit persists a fresh profile for future use.
func (a *app) runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var assets, addresses, exchangerNames, exchangerKeys stringList
	fs.Var(&assets, "asset", "asset of the next wallet address (repeatable)")
	fs.Var(&addresses, "address", "crypto wallet address (repeatable)")
	fs.Var(&exchangerNames, "exchanger-name", "remote exchanger service (repeatable)")
	fs.Var(&exchangerKeys, "exchanger-key", "remote exchanger credential (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if len(assets) != len(addresses) {
		return fmt.Errorf("the number of assets (%d) & addresses (%d) don't match", len(assets), len(addresses))
	}
	if len(exchangerNames) != len(exchangerKeys) {
		return fmt.Errorf("the number of exchangers (%d) & keys (%d) don't match", len(exchangerNames), len(exchangerKeys))
	}

	profile := entity.Profile{}
	for i, raw := range assets {
		asset, err := entity.ParseAsset(raw)
		if err != nil {
			return err
		}
		if !asset.IsCrypto() {
			return fmt.Errorf("%s has no on-chain addresses", asset)
		}
		profile.Addresses = append(profile.Addresses, entity.Address{Addr: addresses[i], Asset: asset})
	}
	for i, raw := range exchangerNames {
		exchanger, ok := entity.ParseExchanger(raw)
		if !ok {
			return fmt.Errorf("unknown exchanger %q", raw)
		}
		profile.Exchangers = append(profile.Exchangers, entity.ExchangerProfile{
			Exchanger: exchanger,
			AuthKey:   exchangerKeys[i],
		})
	}

	if err := a.store.Save(profile); err != nil {
		return err
	}

	a.logger.Info("Profile persisted",
		zap.Int("addresses", len(profile.Addresses)),
		zap.Int("exchangers", len(profile.Exchangers)))
	return nil
}

// runBalance prints on-chain balances for the selected assets.
func (a *app) runBalance(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	var assetFlags stringList
	fs.Var(&assetFlags, "asset", "asset to report on (repeatable, default all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	assets, err := parseAssets(assetFlags)
	if err != nil {
		return err
	}

	sources, err := a.sourcesFor(assets)
	if err != nil {
		return err
	}

	svc := service.NewWalletService(sources, nil, a.cfg.Aggregator, a.logger)
	balances, sourceErrs := svc.GetBalances(ctx)

	for _, balance := range balances {
		fmt.Printf("%s: %v\n", balance.Asset, balance.Amount)
	}
	return reportSourceErrors(sourceErrs)
}

// runTransactions prints ledger activity for the selected assets.
func (a *app) runTransactions(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("transactions", flag.ExitOnError)
	var assetFlags stringList
	fs.Var(&assetFlags, "asset", "asset to report on (repeatable, default all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	assets, err := parseAssets(assetFlags)
	if err != nil {
		return err
	}

	sources, err := a.sourcesFor(assets)
	if err != nil {
		return err
	}

	for _, source := range sources {
		count, err := source.GetTransactionCount(ctx)
		switch {
		case errors.Is(err, entity.ErrUnsupported):
			fmt.Printf("%s %s: transaction count unsupported\n", source.Asset(), source.Address().Addr)
		case err != nil:
			return err
		default:
			fmt.Printf("%s %s: %d transactions\n", source.Asset(), source.Address().Addr, count)
		}

		transfers, err := source.ScanTransfersAndSwaps(ctx)
		switch {
		case errors.Is(err, entity.ErrUnsupported):
			fmt.Printf("%s %s: transfer scan unsupported\n", source.Asset(), source.Address().Addr)
		case err != nil:
			return err
		default:
			for _, tx := range transfers {
				fmt.Printf("  %s -> %s: %v\n", tx.Origin.Addr, tx.Destination.Addr, tx.AmountOrig)
			}
		}
	}
	return nil
}

// runExchanger prints balances, open orders and trades per exchange account.
func (a *app) runExchanger(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("exchanger", flag.ExitOnError)
	var nameFlags stringList
	fs.Var(&nameFlags, "name", "exchanger to report on (repeatable, default all)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	names := entity.Exchangers()
	if len(nameFlags) > 0 {
		names = names[:0]
		for _, raw := range nameFlags {
			name, ok := entity.ParseExchanger(raw)
			if !ok {
				return fmt.Errorf("unknown exchanger %q", raw)
			}
			names = append(names, name)
		}
	}

	profile, err := a.loadProfile()
	if err != nil {
		return err
	}

	var sources []port.ExchangeSource
	for _, xp := range profile.ExchangersFor(names) {
		source, err := a.reg.ForExchanger(xp)
		if err != nil {
			return err
		}
		sources = append(sources, source)
	}

	svc := service.NewExchangeService(sources, a.logger)
	views, sourceErrs := svc.FetchAll(ctx)

	for _, view := range views {
		fmt.Printf("%s:\n", view.Exchanger)
		for _, balance := range view.Balances {
			fmt.Printf("  balance %s: %v\n", balance.Asset, balance.Amount)
		}
		for _, order := range view.OpenOrders {
			fmt.Printf("  open order: %v %s -> %v %s\n",
				order.AmountOrig, order.Origin.Asset, order.AmountDest, order.Destination.Asset)
		}
		for _, trade := range view.Trades {
			fmt.Printf("  trade: %v %s -> %v %s\n",
				trade.AmountOrig, trade.Origin.Asset, trade.AmountDest, trade.Destination.Asset)
		}
	}
	return reportSourceErrors(sourceErrs)
}

// runWallet prints the aggregated wallet, converted to one asset.
func (a *app) runWallet(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("wallet", flag.ExitOnError)
	convert := fs.String("convert", string(a.cfg.Aggregator.ReferenceAsset), "asset to express the wallet in")
	if err := fs.Parse(args); err != nil {
		return err
	}

	target, err := entity.ParseAsset(*convert)
	if err != nil {
		return err
	}

	sources, err := a.sourcesFor(entity.CryptoAssets())
	if err != nil {
		return err
	}

	rateProvider := rates.NewCMCRateProvider(a.cfg.CoinMarketCap, a.cfg.RateCache, a.logger)
	svc := service.NewWalletService(sources, rateProvider, a.cfg.Aggregator, a.logger)

	wallet, sourceErrs, err := svc.BuildWallet(ctx)
	if err != nil {
		return err
	}

	for asset, balance := range wallet.Balances {
		fmt.Printf("%s: %v\n", asset, balance.Amount)
	}

	total, err := wallet.Total(target)
	if err != nil {
		return err
	}
	fmt.Printf("total: %v %s\n", total.Amount, total.Asset)

	return reportSourceErrors(sourceErrs)
}

func (a *app) loadProfile() (entity.Profile, error) {
	profile, err := a.store.Load()
	if errors.Is(err, entity.ErrProfileNotFound) {
		return entity.Profile{}, fmt.Errorf("profile not found, make sure to call `init` before invoking this: %w", err)
	}
	return profile, err
}

func (a *app) sourcesFor(assets []entity.Asset) ([]port.AssetSource, error) {
	profile, err := a.loadProfile()
	if err != nil {
		return nil, err
	}

	var sources []port.AssetSource
	for _, address := range profile.AddressesFor(assets) {
		source, err := a.reg.ForAddress(address)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, nil
}

func parseAssets(raw []string) ([]entity.Asset, error) {
	if len(raw) == 0 {
		return entity.CryptoAssets(), nil
	}

	assets := make([]entity.Asset, 0, len(raw))
	for _, r := range raw {
		asset, err := entity.ParseAsset(r)
		if err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

func reportSourceErrors(sourceErrs []entity.SourceError) error {
	if len(sourceErrs) == 0 {
		return nil
	}
	for _, se := range sourceErrs {
		fmt.Fprintf(os.Stderr, "source error: %s\n", se.Error())
	}
	return fmt.Errorf("%d source(s) failed", len(sourceErrs))
}
