package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/clinic-scheduler/internal/semester"
)

// SemesterReport is the semester status together with its lifecycle state.
type SemesterReport struct {
	Status semester.Status
	State  semester.State
}

// SemesterService exposes the semester banner status and the backup trigger.
type SemesterService struct {
	status    semester.StatusSource
	lifecycle *semester.Lifecycle
	logger    *slog.Logger
}

// NewSemesterService constructs a semester service.
func NewSemesterService(status semester.StatusSource, lifecycle *semester.Lifecycle, logger *slog.Logger) *SemesterService {
	return &SemesterService{status: status, lifecycle: lifecycle, logger: defaultLogger(logger)}
}

// Status reports the current semester status.
func (s *SemesterService) Status(ctx context.Context) (SemesterReport, error) {
	if s == nil || s.status == nil {
		return SemesterReport{}, fmt.Errorf("semester status source not configured")
	}
	status, err := s.status.SemesterStatus(ctx)
	if err != nil {
		serviceLogger(ctx, s.logger, "SemesterService", "Status").
			ErrorContext(ctx, "failed to load semester status", "error", err)
		return SemesterReport{}, &UpstreamError{Message: "Não foi possível verificar o status do semestre.", Err: err}
	}
	return SemesterReport{Status: status, State: status.State()}, nil
}

// Backup archives the previous semester on behalf of principal. An empty
// principal is recorded as the system invoker.
func (s *SemesterService) Backup(ctx context.Context, principal Principal) (semester.BackupResult, error) {
	if s == nil || s.lifecycle == nil {
		return semester.BackupResult{}, fmt.Errorf("semester lifecycle not configured")
	}
	return s.lifecycle.Backup(ctx, principal.UserID)
}
