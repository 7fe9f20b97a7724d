package waitlist

import (
	"context"

	"github.com/akeren/pingaroo/internal/log"
)

type WaitlistService interface {
	// Register validates candidate and records it at most once. Registering an
	// address that is already on the list succeeds with the same confirmation.
	Register(ctx context.Context, candidate string) (*Confirmation, error)
}

type waitlistService struct {
	logger     *log.Logger
	repository WaitlistRepository
	metrics    *RegistrationMetrics
}

// NewWaitlistService accepts a nil metrics value.
func NewWaitlistService(logger *log.Logger, repository WaitlistRepository, metrics *RegistrationMetrics) WaitlistService {
	return &waitlistService{logger: logger, repository: repository, metrics: metrics}
}

func (s *waitlistService) Register(ctx context.Context, candidate string) (*Confirmation, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	email, err := ValidateEmail(candidate)
	if err != nil {
		logger.Info("Rejected waitlist registration", "reason", "invalid_email")
		s.metrics.observe(outcomeInvalid)
		return nil, err
	}

	created, err := s.repository.InsertIfAbsent(ctx, email)
	if err != nil {
		logger.Error("Failed to register waitlist entry", "error", err, "sqlstate", sqlState(err))
		s.metrics.observe(outcomeError)
		return nil, err
	}

	if created {
		s.metrics.observe(outcomeCreated)
	} else {
		s.metrics.observe(outcomeExisting)
	}
	logger.Info("Waitlist registration accepted", "created", created)

	return &Confirmation{Email: email, Message: MessageRegistered}, nil
}
