package service

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/idrissbellil/cryptomonitor/internal/app/port"
	"github.com/idrissbellil/cryptomonitor/internal/domain/entity"
)

// ExchangerView is the normalized snapshot of one exchange account: holdings,
// resting orders and settled trades.
type ExchangerView struct {
	Exchanger  entity.Exchanger `json:"exchanger"`
	Balances   []entity.Balance `json:"balances"`
	OpenOrders []entity.Order   `json:"openOrders"`
	Trades     []entity.Trade   `json:"trades"`
}

// ExchangeService fans out over configured exchange sources. Sources are
// queried concurrently; the three views of one source are fetched
// sequentially so its nonce sequence stays cheap to reason about.
type ExchangeService struct {
	sources []port.ExchangeSource
	logger  *zap.Logger
}

// NewExchangeService creates an aggregator over the given exchange sources.
func NewExchangeService(sources []port.ExchangeSource, logger *zap.Logger) *ExchangeService {
	return &ExchangeService{
		sources: sources,
		logger:  logger.Named("ExchangeService"),
	}
}

// FetchAll collects the full view of every configured exchange account. A
// failing source contributes a SourceError; the views of succeeding sources
// are returned regardless.
func (s *ExchangeService) FetchAll(ctx context.Context) ([]ExchangerView, []entity.SourceError) {
	var (
		mu         sync.Mutex
		views      []ExchangerView
		sourceErrs []entity.SourceError
	)

	eg, childCtx := errgroup.WithContext(ctx)

	for _, source := range s.sources {
		src := source
		eg.Go(func() error {
			view, err := s.fetchOne(childCtx, src)
			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				s.logger.Error("Exchange source failed",
					zap.String("exchanger", string(src.Exchanger())),
					zap.Error(err))
				sourceErrs = append(sourceErrs, entity.SourceError{
					Source:  string(src.Exchanger()),
					Message: err.Error(),
					Err:     err,
				})
				return nil
			}

			views = append(views, view)
			return nil
		})
	}

	_ = eg.Wait()
	return views, sourceErrs
}

func (s *ExchangeService) fetchOne(ctx context.Context, src port.ExchangeSource) (ExchangerView, error) {
	balances, err := src.GetBalances(ctx)
	if err != nil {
		return ExchangerView{}, err
	}

	orders, err := src.GetOpenOrders(ctx)
	if err != nil {
		return ExchangerView{}, err
	}

	trades, err := src.GetTrades(ctx)
	if err != nil {
		return ExchangerView{}, err
	}

	return ExchangerView{
		Exchanger:  src.Exchanger(),
		Balances:   balances,
		OpenOrders: orders,
		Trades:     trades,
	}, nil
}
