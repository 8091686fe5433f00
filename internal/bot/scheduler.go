package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"bdaybot/internal/database"
)

// DispatchFunc delivers the daily digest to one chat.
type DispatchFunc func(ctx context.Context, chatID int64)

// Scheduler runs one gocron job per subscribed chat, all on the same cron
// schedule. Jobs can be added and removed while running; the schedule is
// restored from stored subscriptions at startup.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cron      string
	dispatch  DispatchFunc

	mu      sync.Mutex
	jobs    map[int64]uuid.UUID
	running bool
}

// NewScheduler creates a scheduler that fires dispatch on the given cron
// schedule for every registered chat.
func NewScheduler(cron string, dispatch DispatchFunc, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		scheduler: s,
		logger:    logger.With("component", "scheduler"),
		cron:      cron,
		dispatch:  dispatch,
		jobs:      make(map[int64]uuid.UUID),
	}, nil
}

// Restore registers a dispatch job for every stored subscription.
func (s *Scheduler) Restore(ctx context.Context, store database.Store) error {
	subs, err := store.ListSubscriptions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list subscriptions: %w", err)
	}

	for _, sub := range subs {
		if err := s.AddChat(sub.ChatID); err != nil {
			s.logger.ErrorContext(ctx, "Failed to restore dispatch job", "chat_id", sub.ChatID, "error", err)
			continue
		}
	}

	s.logger.InfoContext(ctx, "Dispatch schedule restored", "chats", len(subs))
	return nil
}

// AddChat schedules the daily dispatch for a chat. Adding a chat that is
// already scheduled is a no-op.
func (s *Scheduler) AddChat(chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[chatID]; exists {
		return nil
	}

	job, err := s.scheduler.NewJob(
		gocron.CronJob(s.cron, false),
		gocron.NewTask(func(ctx context.Context) {
			s.logger.Info("Running dispatch job", "chat_id", chatID)
			start := time.Now()
			s.dispatch(ctx, chatID)
			s.logger.Info("Finished dispatch job", "chat_id", chatID, "duration", time.Since(start))
		}, context.Background()),
		gocron.WithName(fmt.Sprintf("dispatch-%d", chatID)),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule dispatch for chat %d: %w", chatID, err)
	}

	s.jobs[chatID] = job.ID()
	s.logger.Info("Scheduled daily dispatch", "chat_id", chatID, "schedule", s.cron)
	return nil
}

// RemoveChat drops the chat's dispatch job. Removing an unknown chat is a
// no-op.
func (s *Scheduler) RemoveChat(chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobID, exists := s.jobs[chatID]
	if !exists {
		return nil
	}

	if err := s.scheduler.RemoveJob(jobID); err != nil {
		return fmt.Errorf("failed to remove dispatch job for chat %d: %w", chatID, err)
	}

	delete(s.jobs, chatID)
	s.logger.Info("Removed daily dispatch", "chat_id", chatID)
	return nil
}

// Scheduled reports whether the chat has a dispatch job.
func (s *Scheduler) Scheduled(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.jobs[chatID]
	return exists
}

// Start begins the scheduler's internal ticking.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started", "jobs", len(s.jobs))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs to
// complete.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		s.logger.Info("Scheduler is not running, nothing to stop.")
		return nil
	}

	err := s.scheduler.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped gracefully.")
	}

	s.running = false
	return err
}
