package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/pkg/jobs"
)

// WarmJob asks for the week containing Date to be recomposed for a classroom.
type WarmJob struct {
	ClassroomID string
	Date        time.Time
}

// WarmService repopulates the week cache in the background after a template
// import or an override write invalidates it, so the next public read does
// not pay the composition cost.
type WarmService struct {
	queue  *jobs.Queue[WarmJob]
	logger *zap.Logger
}

// NewWarmService builds the warmer around the timetable compositor.
func NewWarmService(timetable *TimetableService, logger *zap.Logger) *WarmService {
	if logger == nil {
		logger = zap.NewNop()
	}
	handler := func(ctx context.Context, job WarmJob) error {
		_, err := timetable.ResolveWeek(ctx, job.ClassroomID, job.Date)
		return err
	}
	return &WarmService{
		queue: jobs.New("week-cache-warm", handler, jobs.Options{
			Workers:    2,
			MaxRetries: 2,
			RetryDelay: 2 * time.Second,
			Logger:     logger,
		}),
		logger: logger,
	}
}

// Start launches the background workers.
func (s *WarmService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *WarmService) Stop() {
	s.queue.Stop()
}

// WarmWeek enqueues a recomposition without blocking the caller.
func (s *WarmService) WarmWeek(classroomID string, date time.Time) {
	if err := s.queue.Enqueue(WarmJob{ClassroomID: classroomID, Date: date}); err != nil {
		s.logger.Warn("failed to enqueue cache warm", zap.String("classroom_id", classroomID), zap.Error(err))
	}
}
