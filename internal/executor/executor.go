package executor

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/semaphore"

	"reportfire/internal/notify"
	"reportfire/internal/report"
	"reportfire/types"
)

// Config carries the executor's construction-time settings. Space is the job
// family namespace the artifacts are filed under; it is passed explicitly
// instead of living in shared mutable state.
type Config struct {
	Space         string
	Destination   string
	TemplateType  string
	TempDir       string
	MaxConcurrent int64
}

// Service runs report payloads asynchronously. Execute returns immediately;
// the outcome arrives on the returned channel from a worker goroutine, and a
// weighted semaphore bounds how many reports render at once.
type Service struct {
	cfg       Config
	source    report.DataSource
	renderer  report.Renderer
	artifacts report.ArtifactStore
	notifier  notify.Sender
	sem       *semaphore.Weighted
}

func NewService(cfg Config, source report.DataSource, renderer report.Renderer, artifacts report.ArtifactStore, notifier notify.Sender) *Service {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if renderer == nil {
		renderer = report.JSONRenderer{}
	}
	return &Service{
		cfg:       cfg,
		source:    source,
		renderer:  renderer,
		artifacts: artifacts,
		notifier:  notifier,
		sem:       semaphore.NewWeighted(cfg.MaxConcurrent),
	}
}

// Execute starts the report pipeline for one firing and returns a channel
// that receives exactly one outcome. Callers on scheduler threads must attach
// continuations instead of blocking.
func (s *Service) Execute(ctx context.Context, job *types.JobInformation) <-chan types.ExecutionOutcome {
	out := make(chan types.ExecutionOutcome, 1)

	go func() {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			out <- failure(fmt.Sprintf("executor shut down before job %s could run", job.ID), err)
			return
		}
		defer s.sem.Release(1)

		out <- s.run(ctx, job)
	}()

	return out
}

func (s *Service) run(ctx context.Context, job *types.JobInformation) types.ExecutionOutcome {
	payload, err := s.source.Fetch(ctx, job.OwnerRef, job.WindowStart, job.WindowEnd)
	if err != nil {
		return failure(fmt.Sprintf("failed to gather report data for owner %s: %v", job.OwnerRef, err), err)
	}

	data, err := s.renderer.Render(payload)
	if err != nil {
		return failure(fmt.Sprintf("failed to render report for job %s: %v", job.ID, err), err)
	}

	name := fmt.Sprintf("%s-%d.json", job.ID, time.Now().UnixNano())
	local := filepath.Join(s.cfg.TempDir, name)
	if err := os.WriteFile(local, data, 0o644); err != nil {
		return failure(fmt.Sprintf("failed to write local artifact for job %s: %v", job.ID, err), err)
	}

	url, err := s.artifacts.Upload(ctx, data, filepath.Join(s.cfg.Space, name))
	if err != nil {
		return failure(fmt.Sprintf("failed to upload report artifact for job %s: %v", job.ID, err), err)
	}

	// Notification failures do not fail the execution.
	if err := s.notifier.Notify(ctx, s.cfg.Destination, s.cfg.TemplateType, map[string]string{
		"jobId":     job.ID,
		"jobName":   job.Name,
		"reportUrl": url,
	}); err != nil {
		log.Printf("executor: notification for job %s failed: %v", job.ID, err)
	}

	if err := os.Remove(local); err != nil {
		log.Printf("executor: cannot remove local artifact %s: %v", local, err)
	}

	return types.ExecutionOutcome{
		Status:      types.OutcomeSuccess,
		Message:     fmt.Sprintf("report for job %s generated", job.ID),
		ArtifactRef: url,
	}
}

func failure(message string, err error) types.ExecutionOutcome {
	return types.ExecutionOutcome{
		Status:  types.OutcomeFailure,
		Message: message,
		Err:     err,
	}
}
