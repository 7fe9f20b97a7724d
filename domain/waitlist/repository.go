package waitlist

import (
	"context"
	"errors"

	"github.com/akeren/pingaroo/internal/models"
	"github.com/akeren/pingaroo/pkg/circuitbreaker"
	apperrors "github.com/akeren/pingaroo/pkg/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=waitlist

type WaitlistRepository interface {
	// InsertIfAbsent stores email unless an entry with the same address
	// already exists, in a single statement. created reports whether a row was
	// written; an existing entry is left untouched and is not an error.
	InsertIfAbsent(ctx context.Context, email string) (created bool, err error)
}

type waitlistRepository struct {
	db      *gorm.DB
	breaker circuitbreaker.CircuitBreaker
}

// NewWaitlistRepository uses a default circuit breaker when breaker is nil.
func NewWaitlistRepository(db *gorm.DB, breaker circuitbreaker.CircuitBreaker) WaitlistRepository {
	if breaker == nil {
		breaker = circuitbreaker.NewCircuitBreaker(nil)
	}
	return &waitlistRepository{db: db, breaker: breaker}
}

func (wr *waitlistRepository) InsertIfAbsent(ctx context.Context, email string) (bool, error) {
	if wr.db == nil {
		return false, apperrors.NewInternalServerError("waitlist store is not configured", nil)
	}

	var created bool

	err := wr.breaker.Call(func() error {
		entry := &models.WaitlistEntry{Email: email}

		result := wr.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "email"}},
				DoNothing: true,
			}).
			Create(entry)
		if result.Error != nil {
			return result.Error
		}

		created = result.RowsAffected > 0
		return nil
	})

	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			return false, apperrors.NewInternalServerError("waitlist store temporarily unavailable", err)
		}
		return false, apperrors.NewDatabaseError("unable to register waitlist entry", err)
	}

	return created, nil
}

// sqlState returns the Postgres SQLSTATE behind err, or "" for other drivers.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
