package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	alertdomain "github.com/smallbiznis/opsdesk/internal/alert/domain"
	"github.com/smallbiznis/opsdesk/internal/clock"
	formdomain "github.com/smallbiznis/opsdesk/internal/form/domain"
	"github.com/smallbiznis/opsdesk/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

const leaderLockKey = "scheduler:leader"

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Forms    formdomain.Repository
	AlertSvc alertdomain.Service

	Locker *ratelimit.Locker `optional:"true"`
	Config Config            `optional:"true"`
}

// Scheduler runs periodic background sweeps. Today that is a single job:
// flipping pending form submissions past their due date to overdue and
// raising an alert for each. When a redis locker is configured only one
// instance runs a sweep at a time.
type Scheduler struct {
	db       *gorm.DB
	log      *zap.Logger
	cfg      Config
	genID    *snowflake.Node
	clock    clock.Clock
	forms    formdomain.Repository
	alertSvc alertdomain.Service
	locker   *ratelimit.Locker
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil || p.Forms == nil || p.AlertSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:       p.DB,
		log:      p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:      p.Config.withDefaults(),
		genID:    p.GenID,
		clock:    p.Clock,
		forms:    p.Forms,
		alertSvc: p.AlertSvc,
		locker:   p.Locker,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	log := s.log.With(zap.String("job", name))
	err := fn(ctx)
	log.Debug("job finished", zap.Duration("duration", time.Since(start)))
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		log.Warn("job timed out",
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	if s.locker != nil {
		token, ok, err := s.locker.TryLock(parent, leaderLockKey, s.cfg.LockTTL)
		if err != nil {
			s.log.Warn("leader lock unavailable, running without it", zap.Error(err))
		} else if !ok {
			return nil
		} else {
			defer func() {
				if err := s.locker.Release(parent, leaderLockKey, token); err != nil {
					s.log.Warn("failed to release leader lock", zap.Error(err))
				}
			}()
		}
	}

	var err error
	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{"mark_overdue_forms", s.MarkOverdueFormsJob},
	}

	for _, job := range jobs {
		if !s.isJobEnabled(job.Name) {
			continue
		}
		err = errors.Join(err, s.runJob(parent, job.Name, job.Run))
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// An empty EnabledJobs list enables everything.
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// MarkOverdueFormsJob flips pending submissions whose due date has passed
// to overdue and raises a form_overdue alert per submission. The flip is a
// conditional update, so a submission claimed by a concurrent instance is
// skipped without a duplicate alert.
func (s *Scheduler) MarkOverdueFormsJob(ctx context.Context) error {
	now := s.clock.Now()
	var jobErr error

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rows, err := s.forms.ListPendingPastDue(ctx, s.db, now, s.cfg.BatchSize)
		if err != nil {
			return errors.Join(jobErr, err)
		}
		if len(rows) == 0 {
			return jobErr
		}

		claimed := 0
		for _, row := range rows {
			affected, err := s.forms.MarkOverdueIfPending(ctx, s.db, row.SubmissionID)
			if err != nil {
				jobErr = errors.Join(jobErr, err)
				continue
			}
			if affected == 0 {
				continue
			}
			claimed++

			if _, err := s.alertSvc.Create(ctx, alertdomain.CreateRequest{
				WorkspaceID: row.WorkspaceID,
				Type:        alertdomain.AlertFormOverdue,
				Message:     fmt.Sprintf("Form %q is overdue (due %s).", row.TemplateName, row.DueAt.Format(time.RFC1123)),
			}); err != nil {
				jobErr = errors.Join(jobErr, err)
				s.log.Error("failed to raise overdue alert",
					zap.String("submission_id", row.SubmissionID.String()),
					zap.Error(err),
				)
			}
		}

		// Everything left in the batch was claimed elsewhere.
		if claimed == 0 {
			return jobErr
		}
	}
}
