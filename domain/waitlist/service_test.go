package waitlist

import (
	"context"
	"testing"

	"github.com/akeren/pingaroo/internal/log"
	apperrors "github.com/akeren/pingaroo/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newTestService(t *testing.T) (*MockWaitlistRepository, *RegistrationMetrics, WaitlistService) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockRepo := NewMockWaitlistRepository(ctrl)
	metrics := NewRegistrationMetrics(prometheus.NewRegistry())
	service := NewWaitlistService(log.NewLoggerWithJSONOutput(), mockRepo, metrics)
	return mockRepo, metrics, service
}

func TestWaitlistService_Register(t *testing.T) {
	t.Run("new address", func(t *testing.T) {
		mockRepo, metrics, service := newTestService(t)

		mockRepo.EXPECT().
			InsertIfAbsent(gomock.Any(), "user@example.com").
			Return(true, nil)

		result, err := service.Register(context.Background(), "user@example.com")

		require.NoError(t, err)
		assert.Equal(t, "user@example.com", result.Email)
		assert.Equal(t, "Successfully added to waitlist!", result.Message)
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.registrations.WithLabelValues(outcomeCreated)))
	})

	t.Run("already registered looks the same", func(t *testing.T) {
		mockRepo, metrics, service := newTestService(t)

		mockRepo.EXPECT().
			InsertIfAbsent(gomock.Any(), "user@example.com").
			Return(false, nil)

		result, err := service.Register(context.Background(), "user@example.com")

		require.NoError(t, err)
		assert.Equal(t, "Successfully added to waitlist!", result.Message)
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.registrations.WithLabelValues(outcomeExisting)))
	})

	t.Run("normalized before insert", func(t *testing.T) {
		mockRepo, _, service := newTestService(t)

		mockRepo.EXPECT().
			InsertIfAbsent(gomock.Any(), "User@example.com").
			Return(true, nil)

		_, err := service.Register(context.Background(), " User@EXAMPLE.com ")
		require.NoError(t, err)
	})

	t.Run("invalid address never reaches the repository", func(t *testing.T) {
		_, metrics, service := newTestService(t)

		result, err := service.Register(context.Background(), "not-an-email")

		assert.Nil(t, result)
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.GetErrorType(err))
		assert.Equal(t, apperrors.FieldErrors{"email": {"Invalid email address."}}, apperrors.GetFieldErrors(err))
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.registrations.WithLabelValues(outcomeInvalid)))
	})

	t.Run("repository error", func(t *testing.T) {
		mockRepo, metrics, service := newTestService(t)

		mockRepo.EXPECT().
			InsertIfAbsent(gomock.Any(), gomock.Any()).
			Return(false, apperrors.NewDatabaseError("database error", nil))

		result, err := service.Register(context.Background(), "user@example.com")

		assert.Error(t, err)
		assert.Nil(t, result)
		assert.Nil(t, apperrors.GetFieldErrors(err))
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.registrations.WithLabelValues(outcomeError)))
	})
}

func TestWaitlistService_NilMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := NewMockWaitlistRepository(ctrl)
	mockRepo.EXPECT().InsertIfAbsent(gomock.Any(), gomock.Any()).Return(true, nil)

	service := NewWaitlistService(log.NewLoggerWithJSONOutput(), mockRepo, nil)

	_, err := service.Register(context.Background(), "user@example.com")
	assert.NoError(t, err)
}
