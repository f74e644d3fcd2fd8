package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"InsiderSignal/internal/notifier"
	"InsiderSignal/internal/pipeline"
)

// ErrRunning is returned when a run is requested while one is in progress.
var ErrRunning = errors.New("a pipeline run is already in progress")

// Runner executes one batch from a trade file.
type Runner interface {
	RunFile(ctx context.Context, path string) (*pipeline.Result, error)
}

// Sender delivers a text message.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler runs the pipeline on a cron schedule and on demand.
type Scheduler struct {
	Cron      *cron.Cron
	Runner    Runner
	Notifier  Sender
	TradesCSV string
	OutputDir string
	Ctx       context.Context

	mu      sync.Mutex
	running bool
	last    *pipeline.Result
}

// NewScheduler creates a new Scheduler. tn may be nil to disable digests.
func NewScheduler(ctx context.Context, runner Runner, tn *notifier.TelegramNotifier, tradesCSV, outputDir string) *Scheduler {
	s := &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Runner:    runner,
		TradesCSV: tradesCSV,
		OutputDir: outputDir,
		Ctx:       ctx,
	}
	if tn != nil {
		s.Notifier = tn
	}
	return s
}

// RegisterAll registers the daily pipeline run.
func (s *Scheduler) RegisterAll(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes one pipeline run immediately and writes its outputs.
func (s *Scheduler) RunNow() (*pipeline.Result, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrRunning
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	res, err := s.Runner.RunFile(s.Ctx, s.TradesCSV)
	if err != nil {
		return nil, err
	}
	if s.OutputDir != "" {
		if err := pipeline.WriteOutputs(s.OutputDir, res); err != nil {
			return res, err
		}
	}
	s.mu.Lock()
	s.last = res
	s.mu.Unlock()
	return res, nil
}

// Last returns the most recent successful result, if any.
func (s *Scheduler) Last() *pipeline.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Scheduler) dailyTask() {
	log.Info().Str("trades", s.TradesCSV).Msg("running daily pipeline")
	res, err := s.RunNow()
	if err != nil {
		log.Error().Err(err).Msg("daily pipeline")
		s.trySend(fmt.Sprintf("❌ pipeline run failed: %v", err))
		return
	}
	s.trySend(notifier.FormatRunDigest(res))
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/run":
		res, err := s.RunNow()
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatRunDigest(res)
	case "/report":
		if last := s.Last(); last != nil {
			return notifier.FormatRunDigest(last)
		}
		return "No run yet. Send /run to start one."
	case "/top":
		if last := s.Last(); last != nil {
			return notifier.FormatHighConviction(last.HighConviction, 15)
		}
		return "No run yet. Send /run to start one."
	default:
		return "Commands:\n• /run\n• /report\n• /top"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
