// Package marketdata aggregates the per-venue price clients behind the
// MarketDataProvider contract: it fans lookups out by asset type, batches
// them to respect third-party rate limits, and tolerates per-symbol misses.
package marketdata

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/clients/binance"
	"github.com/ozgurkara/portfoy/internal/clients/tefas"
	"github.com/ozgurkara/portfoy/internal/clients/yahoo"
	"github.com/ozgurkara/portfoy/internal/domain"
)

// maxConcurrentLookups caps in-flight price requests per refresh cycle.
const maxConcurrentLookups = 10

// troyOunceGrams converts an ounce gold price to a gram price.
const troyOunceGrams = 31.1035

// ErrSuperseded is returned when a newer refresh cycle started while this one
// was in flight. The stale result must be discarded, never stored.
var ErrSuperseded = errors.New("refresh cycle superseded")

// CryptoSource supplies USD crypto tickers.
type CryptoSource interface {
	GetTicker(ctx context.Context, symbol string) (*binance.Ticker, error)
}

// FundSource supplies TEFAS fund prices.
type FundSource interface {
	GetFundPrice(ctx context.Context, code string) (*tefas.FundPrice, error)
}

// ChartSource supplies Yahoo chart quotes for equities, forex and futures.
type ChartSource interface {
	GetQuote(ctx context.Context, symbol string) (*yahoo.ChartQuote, error)
}

// RateSource supplies current and historical exchange rates.
type RateSource interface {
	GetRate(ctx context.Context, from, to string) (float64, error)
	GetHistoricalRate(ctx context.Context, from, to string, date time.Time) (float64, error)
}

// Snapshot is the consistent result of one refresh cycle: every valuation in
// a cycle sees the same quote map and rate.
type Snapshot struct {
	Seq        uint64
	Quotes     map[string]domain.Quote
	UsdTryRate float64
	FetchedAt  time.Time
}

// Service implements domain.MarketDataProvider.
type Service struct {
	crypto CryptoSource
	funds  FundSource
	charts ChartSource
	rates  RateSource

	fallbackUsdTryRate float64
	log                zerolog.Logger

	seq    atomic.Uint64
	mu     sync.RWMutex
	latest *Snapshot
}

// NewService creates a market data service.
func NewService(crypto CryptoSource, funds FundSource, charts ChartSource, rates RateSource, fallbackUsdTryRate float64, log zerolog.Logger) *Service {
	return &Service{
		crypto:             crypto,
		funds:              funds,
		charts:             charts,
		rates:              rates,
		fallbackUsdTryRate: fallbackUsdTryRate,
		log:                log.With().Str("service", "marketdata").Logger(),
	}
}

// UsdTryRate returns the live USD/TRY rate, or the configured fallback when
// the feed is unavailable. Implements domain.RateSource.
func (s *Service) UsdTryRate() (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rate, err := s.rates.GetRate(ctx, "USD", "TRY")
	if err != nil || rate <= 0 {
		s.log.Warn().Err(err).Float64("fallback", s.fallbackUsdTryRate).Msg("Rate feed unavailable, using configured fallback")
		return s.fallbackUsdTryRate, nil
	}
	return rate, nil
}

// FetchHistoricalRate returns the USD/TRY rate on a past date.
func (s *Service) FetchHistoricalRate(ctx context.Context, date time.Time) (float64, error) {
	return s.rates.GetHistoricalRate(ctx, "USD", "TRY", date)
}

// FetchQuotes resolves quotes for the given instruments. Symbols that cannot
// be priced are absent from the result; the batch itself only fails when the
// context is cancelled.
func (s *Service) FetchQuotes(ctx context.Context, refs []domain.InstrumentRef) (map[string]domain.Quote, error) {
	quotes := make(map[string]domain.Quote)

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxConcurrentLookups)

	// Gold sub-denominations all derive from one gram reference lookup.
	needGramGold := false
	for _, ref := range refs {
		if ref.Type == domain.AssetGold && !strings.EqualFold(ref.Symbol, "ONS") {
			needGramGold = true
			break
		}
	}
	if needGramGold {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if q, ok := s.gramGoldQuote(ctx); ok {
				mu.Lock()
				quotes[q.Symbol] = q
				mu.Unlock()
			}
		}()
	}

	for _, ref := range refs {
		if ref.Type == domain.AssetBES || ref.Type == domain.AssetCustom {
			continue // no market feed
		}
		if ref.Type == domain.AssetGold && !strings.EqualFold(ref.Symbol, "ONS") {
			continue // served by the gram reference
		}

		wg.Add(1)
		go func(ref domain.InstrumentRef) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			quote, ok := s.lookup(ctx, ref)
			if !ok {
				return
			}

			mu.Lock()
			quotes[quote.Symbol] = quote
			mu.Unlock()
		}(ref)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return quotes, nil
}

// Refresh runs one tagged refresh cycle for the given instruments. A cycle
// that is superseded by a newer one while in flight is discarded so stale
// quotes never overwrite fresher ones.
func (s *Service) Refresh(ctx context.Context, refs []domain.InstrumentRef) (*Snapshot, error) {
	seq := s.seq.Add(1)

	rate, err := s.UsdTryRate()
	if err != nil {
		return nil, err
	}

	quotes, err := s.FetchQuotes(ctx, refs)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		Seq:        seq,
		Quotes:     quotes,
		UsdTryRate: rate,
		FetchedAt:  time.Now(),
	}

	if s.seq.Load() != seq {
		s.log.Debug().Uint64("seq", seq).Msg("Refresh cycle superseded, discarding")
		return nil, ErrSuperseded
	}

	s.mu.Lock()
	s.latest = snapshot
	s.mu.Unlock()

	return snapshot, nil
}

// Latest returns the most recent completed snapshot, or nil before the first
// refresh.
func (s *Service) Latest() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// lookup resolves one instrument to a quote via the venue matching its type.
func (s *Service) lookup(ctx context.Context, ref domain.InstrumentRef) (domain.Quote, bool) {
	symbol := strings.ToUpper(strings.TrimSpace(ref.Symbol))

	switch ref.Type {
	case domain.AssetCrypto:
		ticker, err := s.crypto.GetTicker(ctx, symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Crypto quote unavailable")
			return domain.Quote{}, false
		}
		return domain.Quote{
			Symbol:    symbol,
			Price:     ticker.PriceUsd,
			Currency:  domain.USD,
			Change24h: ticker.Change24h,
			UpdatedAt: time.Unix(ticker.FetchedAt, 0),
		}, true

	case domain.AssetFund:
		fund, err := s.funds.GetFundPrice(ctx, symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("Fund price unavailable")
			return domain.Quote{}, false
		}
		return domain.Quote{
			Symbol:    symbol,
			Price:     fund.Price,
			Currency:  domain.TRY,
			Change24h: fund.Change1d,
			UpdatedAt: time.Unix(fund.FetchedAt, 0),
		}, true

	case domain.AssetStock:
		return s.chartQuote(ctx, symbol, symbol+".IS")

	case domain.AssetForex:
		return s.chartQuote(ctx, symbol, symbol+"=X")

	case domain.AssetGold:
		// Only the ounce reaches here; sub-denominations use the gram ref.
		return s.chartQuote(ctx, symbol, "GC=F")

	case domain.AssetMetal:
		return s.chartQuote(ctx, symbol, metalFuture(symbol))
	}

	return domain.Quote{}, false
}

// chartQuote fetches a Yahoo quote and maps its currency.
func (s *Service) chartQuote(ctx context.Context, symbol, yahooSymbol string) (domain.Quote, bool) {
	q, err := s.charts.GetQuote(ctx, yahooSymbol)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", symbol).Str("yahoo_symbol", yahooSymbol).Msg("Chart quote unavailable")
		return domain.Quote{}, false
	}

	currency := domain.USD
	if strings.EqualFold(q.Currency, "TRY") {
		currency = domain.TRY
	}

	return domain.Quote{
		Symbol:    symbol,
		Price:     q.Price,
		Currency:  currency,
		Change24h: q.Change24h(),
		UpdatedAt: time.Unix(q.FetchedAt, 0),
	}, true
}

// gramGoldQuote derives the TRY gram-gold reference from the ounce future
// and the USD/TRY rate.
func (s *Service) gramGoldQuote(ctx context.Context) (domain.Quote, bool) {
	ons, err := s.charts.GetQuote(ctx, "GC=F")
	if err != nil {
		s.log.Warn().Err(err).Msg("Gold ounce quote unavailable")
		return domain.Quote{}, false
	}

	rate, err := s.UsdTryRate()
	if err != nil || rate <= 0 {
		return domain.Quote{}, false
	}

	return domain.Quote{
		Symbol:    "GRAM-ALTIN",
		Price:     ons.Price / troyOunceGrams * rate,
		Currency:  domain.TRY,
		Change24h: ons.Change24h(),
		UpdatedAt: time.Unix(ons.FetchedAt, 0),
	}, true
}

// metalFuture maps metal symbols to their Yahoo futures code.
func metalFuture(symbol string) string {
	switch symbol {
	case "GUMUS", "SILVER", "XAG":
		return "SI=F"
	case "PLATIN", "PLATINUM", "XPT":
		return "PL=F"
	case "PALADYUM", "PALLADIUM", "XPD":
		return "PA=F"
	default:
		return symbol
	}
}
