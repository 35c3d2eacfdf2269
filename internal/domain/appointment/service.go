package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/labtrack/labtrack/internal/domain/report"
	"github.com/labtrack/labtrack/internal/platform/auth"
	"github.com/labtrack/labtrack/internal/platform/lock"
	"github.com/labtrack/labtrack/internal/platform/notification"
)

// TestInfo is the catalog projection the engine needs at booking time.
type TestInfo struct {
	ID   uuid.UUID
	Name string
	Cost float64
}

// CatalogSource resolves test IDs at booking time.
type CatalogSource interface {
	Tests(ctx context.Context, ids []uuid.UUID) ([]TestInfo, error)
}

// PhleboDirectory resolves a phlebotomist ID into a binding. Unknown IDs
// and records without a display name are errors.
type PhleboDirectory interface {
	Phlebo(ctx context.Context, id uuid.UUID) (Binding, error)
}

// FormatSource supplies report formats for composing report blocks.
type FormatSource interface {
	FormatsFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]report.Format, error)
}

// HistoryRecorder appends to the activity log.
type HistoryRecorder interface {
	Record(ctx context.Context, user, action string) error
}

// Service drives the appointment lifecycle. Transitions serialize under a
// per-appointment lock and land as a single versioned write; notification
// and history emission happen after the write and never fail it.
type Service struct {
	repo     Repository
	catalog  CatalogSource
	phlebos  PhleboDirectory
	formats  FormatSource
	history  HistoryRecorder
	notifier notification.Publisher
	locker   lock.Locker
	logger   zerolog.Logger
}

func NewService(
	repo Repository,
	catalog CatalogSource,
	phlebos PhleboDirectory,
	formats FormatSource,
	history HistoryRecorder,
	notifier notification.Publisher,
	locker lock.Locker,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		catalog:  catalog,
		phlebos:  phlebos,
		formats:  formats,
		history:  history,
		notifier: notifier,
		locker:   locker,
		logger:   logger,
	}
}

// BookInput is the booking request. PatientID and PatientName are taken
// from the actor when a patient books for themselves.
type BookInput struct {
	PatientID   uuid.UUID   `json:"patientId"`
	PatientName string      `json:"patientName"`
	TestIDs     []uuid.UUID `json:"testIds"`
	Date        time.Time   `json:"date"`
	Address     string      `json:"address"`
	Description string      `json:"description"`
}

// Book creates a Pending appointment, snapshotting test names and the
// total cost from the catalog as they are right now.
func (s *Service) Book(ctx context.Context, actor auth.Identity, in BookInput) (*Appointment, error) {
	if actor.Role == auth.RolePatient {
		pid, err := uuid.Parse(actor.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid patient identity: %w", err)
		}
		in.PatientID = pid
		in.PatientName = actor.Name
	}
	if in.PatientID == uuid.Nil || in.PatientName == "" {
		return nil, fmt.Errorf("patient is required")
	}
	if len(in.TestIDs) == 0 {
		return nil, fmt.Errorf("at least one test is required")
	}
	if in.Date.IsZero() {
		return nil, fmt.Errorf("date is required")
	}
	if in.Address == "" {
		return nil, fmt.Errorf("address is required")
	}

	tests, err := s.catalog.Tests(ctx, in.TestIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve tests: %w", err)
	}
	byID := make(map[uuid.UUID]TestInfo, len(tests))
	for _, t := range tests {
		byID[t.ID] = t
	}

	appt := &Appointment{
		PatientID:   in.PatientID,
		PatientName: in.PatientName,
		TestIDs:     in.TestIDs,
		Date:        in.Date,
		Status:      StatusPending,
		Address:     in.Address,
		Description: in.Description,
	}
	for _, id := range in.TestIDs {
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("unknown test: %s", id)
		}
		appt.TestNames = append(appt.TestNames, t.Name)
		appt.TestCosts = append(appt.TestCosts, t.Cost)
		appt.TotalCost += t.Cost
	}

	if err := s.repo.Create(ctx, appt); err != nil {
		return nil, err
	}

	s.emit(ctx, actor, Outcome{
		Notices: []Notice{{
			Target: notification.AllStaff(),
			Title:  "New Appointment",
			Message: fmt.Sprintf("%s booked a new appointment for %s.",
				appt.PatientName, appt.TestNames[0]),
			Link: "/dashboard/appointments",
		}},
		History: []string{
			fmt.Sprintf("Booked new appointment %s for %s.", shortID(appt), testSummary(appt)),
		},
	})
	return appt, nil
}

// TransitionInput is the action-specific payload for Transition.
type TransitionInput struct {
	PhleboID *uuid.UUID          `json:"phleboId,omitempty"`
	Reason   string              `json:"reason,omitempty"`
	Report   []report.TestReport `json:"report,omitempty"`
}

// Transition applies one lifecycle action under the appointment's lock.
// The reload-evaluate-write sequence happens entirely inside the lock, so
// a stale version can only come from a writer that bypassed it.
func (s *Service) Transition(ctx context.Context, actor auth.Identity, id uuid.UUID, action Action, in TransitionInput) (*Appointment, error) {
	var result *Appointment
	err := s.locker.WithAppointmentLock(ctx, id, func(ctx context.Context) error {
		appt, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		params := Params{Reason: in.Reason, Report: in.Report}
		if in.PhleboID != nil {
			b, err := s.resolvePhlebo(ctx, *in.PhleboID)
			if err != nil {
				return err
			}
			params.Phlebo = &b
		}

		out, err := Apply(appt, action, actor, params)
		if err != nil {
			return err
		}

		applyOutcome(appt, out)
		if err := s.repo.Update(ctx, appt); err != nil {
			return err
		}

		s.emit(ctx, actor, out)
		result = appt
		return nil
	})
	return result, err
}

// SaveReport persists report blocks without changing status.
func (s *Service) SaveReport(ctx context.Context, actor auth.Identity, id uuid.UUID, blocks []report.TestReport) (*Appointment, error) {
	return s.Transition(ctx, actor, id, ActionSaveReport, TransitionInput{Report: blocks})
}

// Finalize persists report blocks and completes the appointment.
func (s *Service) Finalize(ctx context.Context, actor auth.Identity, id uuid.UUID, blocks []report.TestReport) (*Appointment, error) {
	return s.Transition(ctx, actor, id, ActionFinalize, TransitionInput{Report: blocks})
}

// SubmitFeedback marks the patient's one-time feedback as given.
func (s *Service) SubmitFeedback(ctx context.Context, actor auth.Identity, id uuid.UUID) (*Appointment, error) {
	return s.Transition(ctx, actor, id, ActionFeedback, TransitionInput{})
}

// ComposeReport returns the editable report blocks for the appointment,
// merging captured data with formats for tests not yet captured.
func (s *Service) ComposeReport(ctx context.Context, actor auth.Identity, id uuid.UUID) ([]report.TestReport, error) {
	appt, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	formats, err := s.formats.FormatsFor(ctx, appt.TestIDs)
	if err != nil {
		return nil, fmt.Errorf("load report formats: %w", err)
	}
	return report.Compose(appt.TestIDs, formats, appt.ReportData), nil
}

// Get loads one appointment, scoped to what the actor may see. Patients
// see their own, phlebos see their assignments, staff see everything.
// Out-of-scope appointments read as not found.
func (s *Service) Get(ctx context.Context, actor auth.Identity, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case auth.RolePatient:
		if appt.PatientID.String() != actor.ID {
			return nil, ErrNotFound
		}
	case auth.RolePhlebo:
		if !isAssignee(appt, actor) {
			return nil, ErrNotFound
		}
	}
	return appt, nil
}

// List returns appointments visible to the actor.
func (s *Service) List(ctx context.Context, actor auth.Identity, f Filter, limit, offset int) ([]Appointment, int, error) {
	switch actor.Role {
	case auth.RolePatient:
		pid, err := uuid.Parse(actor.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid patient identity: %w", err)
		}
		f.PatientID = &pid
	case auth.RolePhlebo:
		pid, err := uuid.Parse(actor.ID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid phlebo identity: %w", err)
		}
		f.PhleboID = &pid
	}
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) resolvePhlebo(ctx context.Context, id uuid.UUID) (Binding, error) {
	b, err := s.phlebos.Phlebo(ctx, id)
	if err != nil {
		return Binding{}, fmt.Errorf("%w: %v", ErrPhleboRequired, err)
	}
	if b.Name == "" {
		return Binding{}, fmt.Errorf("%w: phlebotomist has no name on record", ErrPhleboRequired)
	}
	b.ID = id
	return b, nil
}

// applyOutcome folds an outcome into the loaded appointment so the repo
// persists everything in one write.
func applyOutcome(appt *Appointment, out Outcome) {
	appt.Status = out.Status
	if out.SetPhlebo != nil {
		id, name := out.SetPhlebo.ID, out.SetPhlebo.Name
		appt.PhleboID = &id
		appt.PhleboName = &name
	}
	if out.ClearPhlebo {
		appt.PhleboID = nil
		appt.PhleboName = nil
	}
	if out.AppendNote != "" {
		if appt.Notes == "" {
			appt.Notes = out.AppendNote
		} else {
			appt.Notes += "\n" + out.AppendNote
		}
	}
	if out.SetReport {
		appt.ReportData = out.Report
	}
	if out.SetFeedback {
		appt.FeedbackSubmitted = true
	}
}

// emit delivers notifications and history entries after a successful
// write. Failures are logged and swallowed.
func (s *Service) emit(ctx context.Context, actor auth.Identity, out Outcome) {
	for _, n := range out.Notices {
		if err := s.notifier.Publish(ctx, n.Target, n.Title, n.Message, n.Link); err != nil {
			s.logger.Error().Err(err).Str("title", n.Title).Msg("notification delivery failed")
		}
	}
	for _, action := range out.History {
		if err := s.history.Record(ctx, actor.Name, action); err != nil {
			s.logger.Error().Err(err).Str("action", action).Msg("history log failed")
		}
	}
}
