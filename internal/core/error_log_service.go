package core

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sellervault-backend-go/internal/db"
	"sellervault-backend-go/internal/models"
)

const errorLogTimeout = 5 * time.Second

// errorLogService implements the ErrorLogService interface.
type errorLogService struct {
	repo   db.ErrorLogRepository
	now    func() time.Time
	logger *zap.Logger
}

// NewErrorLogService creates an ErrorLogService backed by repo.
func NewErrorLogService(repo db.ErrorLogRepository, logger *zap.Logger) ErrorLogService {
	return &errorLogService{repo: repo, now: time.Now, logger: logger}
}

// Record appends the failure to the error log. Write failures are logged and swallowed.
func (s *errorLogService) Record(ctx context.Context, err error, where string, memberID string) {
	if err == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Error log write panicked", zap.Any("panic", r), zap.String("context", where))
		}
	}()

	s.logger.Error("Action failed", zap.String("context", where), zap.String("memberId", memberID), zap.Error(err))
	if s.repo == nil {
		return
	}

	// The request context may already be cancelled by the failure being logged.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), errorLogTimeout)
	defer cancel()

	entry := models.ErrorLog{
		ErrorMessage: err.Error(),
		Context:      where,
		Timestamp:    s.now().UTC().Format(time.RFC3339Nano),
		MemberID:     memberID,
	}
	if writeErr := s.repo.Create(writeCtx, entry); writeErr != nil {
		s.logger.Warn("Failed to write error log entry", zap.String("context", where), zap.Error(writeErr))
	}
}
