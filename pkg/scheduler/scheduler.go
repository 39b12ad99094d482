package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/korjavin/mealdeals/pkg/logger"
	"github.com/korjavin/mealdeals/pkg/tagger"
)

// Job is one unit of periodic work
type Job interface {
	Run(ctx context.Context) (tagger.Result, error)
}

// Service runs offer tagging on a fixed interval
type Service struct {
	job      Job
	interval time.Duration
	logger   *logger.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// runs receives a value after every completed run; used by tests
	runs chan tagger.Result
}

// New creates a new scheduler service
func New(job Job, interval time.Duration) *Service {
	return &Service{
		job:      job,
		interval: interval,
		logger:   logger.New("scheduler"),
		stopChan: make(chan struct{}),
	}
}

// Start starts the scheduler. The first run happens immediately.
func (s *Service) Start() {
	s.logger.Info("Starting offer tagging scheduler with interval %v", s.interval)

	s.wg.Add(1)
	go s.runTagging()
}

// Stop stops the scheduler and waits for a run in progress to finish
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping offer tagging scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}

func (s *Service) runTagging() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce()
	for {
		select {
		case <-ticker.C:
			s.runOnce()
		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) runOnce() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel an in-flight run when the scheduler is stopped
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-s.stopChan:
			cancel()
		case <-done:
		}
	}()

	res, err := s.job.Run(ctx)
	if err != nil {
		s.logger.Error("Offer tagging failed: %v", err)
	}

	if s.runs != nil {
		select {
		case s.runs <- res:
		default:
		}
	}
}
