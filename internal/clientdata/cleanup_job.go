package clientdata

import (
	"github.com/rs/zerolog"
)

// CleanupJob deletes expired cache rows from all tables.
type CleanupJob struct {
	repo *Repository
	log  zerolog.Logger
}

// NewCleanupJob creates a cache cleanup job.
func NewCleanupJob(repo *Repository, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo: repo,
		log:  log.With().Str("job", "cache_cleanup").Logger(),
	}
}

// Name returns the job name for scheduler logging.
func (j *CleanupJob) Name() string {
	return "cache_cleanup"
}

// Run removes expired entries from every cache table.
func (j *CleanupJob) Run() error {
	var total int64
	for _, table := range AllTables {
		deleted, err := j.repo.DeleteExpired(table)
		if err != nil {
			return err
		}
		total += deleted
	}

	if total > 0 {
		j.log.Debug().Int64("deleted", total).Msg("Expired cache entries removed")
	}
	return nil
}
