package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	PruneJournalSpec      = "30 3 * * *"
	Timezone              = "UTC"
	TimezoneOffsetSeconds = 0
	pruneJournalTimeout   = 5 * time.Minute
)

type pruner interface {
	PruneAttempts(ctx context.Context, before time.Time) (int64, error)
}

type Scheduler struct {
	ctx       context.Context
	cron      *cron.Cron
	journal   pruner
	retention time.Duration
	now       func() time.Time
	log       *slog.Logger
}

func New(ctx context.Context, journal pruner, retention time.Duration, log *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLocation(time.FixedZone(Timezone, TimezoneOffsetSeconds)))

	return &Scheduler{
		ctx:       ctx,
		cron:      c,
		journal:   journal,
		retention: retention,
		now:       time.Now,
		log:       log,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(PruneJournalSpec, s.pruneJournal); err != nil {
		return err
	}

	s.cron.Start()

	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) pruneJournal() {
	ctx, cancel := context.WithTimeout(s.ctx, pruneJournalTimeout)
	defer cancel()

	select {
	case <-ctx.Done():
		s.log.InfoContext(ctx, "Scheduler context is done",
			"error", ctx.Err())
		return
	default:
	}

	before := s.now().Add(-s.retention)

	removed, err := s.journal.PruneAttempts(ctx, before)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to prune journal",
			"error", err,
			"before", before,
			"retention", s.retention.String())

		return
	}

	s.log.InfoContext(ctx, "Journal is pruned",
		"removed", removed,
		"before", before,
		"retention", s.retention.String())
}
