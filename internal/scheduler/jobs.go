package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ozgurkara/portfoy/internal/domain"
	"github.com/ozgurkara/portfoy/internal/modules/alerts"
	"github.com/ozgurkara/portfoy/internal/modules/backup"
	"github.com/ozgurkara/portfoy/internal/modules/ledger"
	"github.com/ozgurkara/portfoy/internal/modules/portfolio"
	"github.com/ozgurkara/portfoy/internal/modules/valuation"
	"github.com/ozgurkara/portfoy/internal/services/marketdata"
)

// jobTimeout bounds one background run including all remote lookups.
const jobTimeout = 2 * time.Minute

// snapshotDateFormat is the canonical day key for the history series.
const snapshotDateFormat = "2006-01-02"

// SnapshotJob values every portfolio and appends one total-value point per
// day to the history series.
type SnapshotJob struct {
	portfolios *portfolio.Service
	holdings   *ledger.Repository
	market     *marketdata.Service
	engine     *valuation.Engine
	series     domain.SeriesStore
	log        zerolog.Logger
}

// NewSnapshotJob creates the daily snapshot job.
func NewSnapshotJob(portfolios *portfolio.Service, holdings *ledger.Repository, market *marketdata.Service, engine *valuation.Engine, series domain.SeriesStore, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		portfolios: portfolios,
		holdings:   holdings,
		market:     market,
		engine:     engine,
		series:     series,
		log:        log.With().Str("job", "daily_snapshot").Logger(),
	}
}

func (j *SnapshotJob) Name() string { return "daily_snapshot" }

// Run appends today's snapshot for each portfolio. Re-running on the same day
// overwrites the day's point with the fresher value.
func (j *SnapshotJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	list, err := j.portfolios.List()
	if err != nil {
		return err
	}

	date := time.Now().Format(snapshotDateFormat)
	for _, p := range list {
		holdings, err := j.holdings.GetHoldings(p.ID)
		if err != nil {
			return err
		}

		snapshot, err := j.market.Refresh(ctx, instrumentRefs(holdings))
		if err != nil {
			j.log.Warn().Err(err).Str("portfolio_id", p.ID).Msg("Quote refresh failed, skipping snapshot")
			continue
		}

		total := p.CashBalance
		for _, v := range j.engine.ValuateAll(holdings, snapshot.Quotes, snapshot.UsdTryRate) {
			total += v.ValueTry
		}

		if err := j.series.AppendDailySnapshot(p.ID, date, total); err != nil {
			return err
		}

		j.log.Info().Str("portfolio_id", p.ID).Str("date", date).Float64("value_try", total).Msg("Daily snapshot recorded")
	}

	return nil
}

// AlertCheckJob evaluates active price alerts against fresh quotes.
type AlertCheckJob struct {
	portfolios *portfolio.Service
	alerts     *alerts.Service
	market     *marketdata.Service
	log        zerolog.Logger
}

// NewAlertCheckJob creates the alert evaluation job.
func NewAlertCheckJob(portfolios *portfolio.Service, alertsSvc *alerts.Service, market *marketdata.Service, log zerolog.Logger) *AlertCheckJob {
	return &AlertCheckJob{
		portfolios: portfolios,
		alerts:     alertsSvc,
		market:     market,
		log:        log.With().Str("job", "alert_check").Logger(),
	}
}

func (j *AlertCheckJob) Name() string { return "alert_check" }

func (j *AlertCheckJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	list, err := j.portfolios.List()
	if err != nil {
		return err
	}

	for _, p := range list {
		refs, err := j.alerts.ActiveInstruments(p.ID)
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			continue
		}

		quotes, err := j.market.FetchQuotes(ctx, refs)
		if err != nil {
			return err
		}

		fired, err := j.alerts.Evaluate(ctx, p.ID, quotes)
		if err != nil {
			return err
		}
		if fired > 0 {
			j.log.Info().Str("portfolio_id", p.ID).Int("fired", fired).Msg("Alerts triggered")
		}
	}

	return nil
}

// BackupJob uploads the export envelope to S3.
type BackupJob struct {
	backup *backup.Service
}

// NewBackupJob creates the backup job.
func NewBackupJob(svc *backup.Service) *BackupJob {
	return &BackupJob{backup: svc}
}

func (j *BackupJob) Name() string { return "s3_backup" }

func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	return j.backup.Run(ctx)
}

// instrumentRefs deduplicates holdings into symbol/type pairs for a quote
// refresh.
func instrumentRefs(holdings []domain.Holding) []domain.InstrumentRef {
	seen := make(map[string]struct{}, len(holdings))
	refs := make([]domain.InstrumentRef, 0, len(holdings))
	for _, h := range holdings {
		key := h.Symbol + "|" + string(h.Type)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		refs = append(refs, domain.InstrumentRef{Symbol: h.Symbol, Type: h.Type})
	}
	return refs
}
