package service

import (
	"context"
	"time"

	qualificationsrepo "gymcore/internal/qualifications/repository"
	"gymcore/pkg/config"
	apperrors "gymcore/pkg/errors"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentChecks bounds the availability checks run in parallel for one
// search.
const maxConcurrentChecks = 8

type TrainerSearch interface {
	// FindAvailableTrainers returns the trainers qualified for serviceID that
	// are free for the slot, in qualification order. Candidates that are
	// rejected for a business reason are left out; only store faults fail
	// the search.
	FindAvailableTrainers(ctx context.Context, serviceID string, start time.Time, durationMinutes int) ([]string, error)
}

type trainerSearch struct {
	qualifications qualificationsrepo.QualificationRepository
	checker        AvailabilityChecker
	cfg            *config.Config
}

func NewTrainerSearch(
	qualifications qualificationsrepo.QualificationRepository,
	checker AvailabilityChecker,
	cfg *config.Config,
) TrainerSearch {
	return &trainerSearch{
		qualifications: qualifications,
		checker:        checker,
		cfg:            cfg,
	}
}

func (s *trainerSearch) FindAvailableTrainers(ctx context.Context, serviceID string, start time.Time, durationMinutes int) ([]string, error) {
	if _, err := proposedEnd(start, durationMinutes); err != nil {
		return nil, err
	}

	candidates, err := s.qualifications.LoadQualifiedTrainerIDs(ctx, serviceID)
	if err != nil {
		s.cfg.Log.Error("Failed to load qualified trainers", "service_id", serviceID, "error", err)
		return nil, apperrors.Internal("Failed to search trainers", err)
	}
	if len(candidates) == 0 {
		s.cfg.Log.Debug("No trainer offers service", "service_id", serviceID)
		return []string{}, nil
	}

	available := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChecks)
	for i, trainerID := range candidates {
		g.Go(func() error {
			ok, err := s.checker.IsTrainerAvailable(gctx, trainerID, start, durationMinutes)
			if err != nil {
				if apperrors.IsBusinessRejection(err) {
					return nil
				}
				return err
			}
			available[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.cfg.Log.Error("Trainer search aborted", "service_id", serviceID, "error", err)
		return nil, apperrors.AsAppError(err)
	}

	trainers := make([]string, 0, len(candidates))
	for i, trainerID := range candidates {
		if available[i] {
			trainers = append(trainers, trainerID)
		}
	}

	s.cfg.Log.Debug("Trainer search completed",
		"service_id", serviceID,
		"candidates", len(candidates),
		"available", len(trainers),
	)
	return trainers, nil
}
