package appointment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/labtrack/labtrack/internal/domain/report"
	"github.com/labtrack/labtrack/internal/platform/auth"
	"github.com/labtrack/labtrack/internal/platform/notification"
)

// Action is a lifecycle operation on an existing appointment.
type Action string

const (
	ActionConfirm    Action = "confirm"
	ActionAssign     Action = "assign"
	ActionCancel     Action = "cancel"
	ActionCollect    Action = "collect"
	ActionRelease    Action = "release"
	ActionReceive    Action = "receive"
	ActionProcess    Action = "process"
	ActionSaveReport Action = "save_report"
	ActionFinalize   Action = "finalize"
	ActionFeedback   Action = "feedback"
)

var (
	ErrInvalidTransition = errors.New("action is not valid for the current appointment status")
	ErrRoleNotAllowed    = errors.New("role is not permitted to perform this action")
	ErrPhleboRequired    = errors.New("a phlebotomist must be assigned")
	ErrReasonRequired    = errors.New("a reason is required")
	ErrNotAssignee       = errors.New("appointment is assigned to a different phlebotomist")
	ErrFeedbackGiven     = errors.New("feedback has already been submitted")
	ErrUnknownAction     = errors.New("unknown appointment action")
)

// Params carries action-specific input.
type Params struct {
	Phlebo *Binding
	Reason string
	Report []report.TestReport
}

// Notice is a notification the caller should emit after the write lands.
type Notice struct {
	Target  notification.Target
	Title   string
	Message string
	Link    string
}

// Outcome is the full effect of an action: the new status, the field
// changes belonging to the same write, and the side effects to emit
// afterwards. Apply never mutates the appointment.
type Outcome struct {
	Status      Status
	SetPhlebo   *Binding
	ClearPhlebo bool
	AppendNote  string
	SetReport   bool
	Report      []report.TestReport
	SetFeedback bool
	Finalized   bool
	Notices     []Notice
	History     []string
}

// Apply evaluates a single action against an appointment and returns the
// outcome to persist. Every surface routes through this table so the
// lifecycle rules live in exactly one place.
func Apply(appt *Appointment, action Action, actor auth.Identity, p Params) (Outcome, error) {
	switch action {
	case ActionConfirm:
		return confirm(appt, actor, p)
	case ActionAssign:
		return assign(appt, actor, p)
	case ActionCancel:
		return cancel(appt, actor, p)
	case ActionCollect:
		return collect(appt, actor)
	case ActionRelease:
		return release(appt, actor, p)
	case ActionReceive:
		return advance(appt, actor, StatusSampleCollected, StatusReceived)
	case ActionProcess:
		return advance(appt, actor, StatusReceived, StatusInProcess)
	case ActionSaveReport:
		return saveReport(appt, actor, p)
	case ActionFinalize:
		return finalize(appt, actor, p)
	case ActionFeedback:
		return feedback(appt, actor)
	default:
		return Outcome{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

func isStaff(actor auth.Identity) bool {
	return actor.Role == auth.RoleStaff || actor.Role == auth.RoleAdmin
}

func isAssignee(appt *Appointment, actor auth.Identity) bool {
	return appt.Assigned() && appt.PhleboID.String() == actor.ID
}

// shortID renders the abbreviated appointment reference used in
// notifications and the history log.
func shortID(appt *Appointment) string {
	id := appt.ID.String()
	if len(id) > 5 {
		id = id[:5]
	}
	return "#" + id
}

// testSummary is the display name used in patient-facing messages.
func testSummary(appt *Appointment) string {
	if len(appt.TestNames) == 0 {
		return "your test"
	}
	return strings.Join(appt.TestNames, ", ")
}

func patientNotice(appt *Appointment, title, message string) Notice {
	return Notice{
		Target:  notification.User(auth.RolePatient, appt.PatientID),
		Title:   title,
		Message: message,
		Link:    "/dashboard/appointments",
	}
}

func statusNotice(appt *Appointment, to Status) Notice {
	return patientNotice(appt,
		fmt.Sprintf("Appointment Update: %s", to),
		fmt.Sprintf("Your test for %s is now %s.", testSummary(appt), strings.ToLower(string(to))),
	)
}

func confirm(appt *Appointment, actor auth.Identity, p Params) (Outcome, error) {
	if !isStaff(actor) {
		return Outcome{}, ErrRoleNotAllowed
	}
	if appt.Status != StatusPending {
		return Outcome{}, fmt.Errorf("%w: confirm from %q", ErrInvalidTransition, appt.Status)
	}
	out := Outcome{
		Status:  StatusConfirmed,
		Notices: []Notice{statusNotice(appt, StatusConfirmed)},
	}
	if p.Phlebo != nil {
		if err := validBinding(p.Phlebo); err != nil {
			return Outcome{}, err
		}
		out.SetPhlebo = p.Phlebo
		out.Notices = append(out.Notices, assignmentNotice(appt, p.Phlebo))
		out.History = append(out.History,
			fmt.Sprintf("Confirmed appointment %s and assigned to %s.", shortID(appt), p.Phlebo.Name))
	} else {
		out.History = append(out.History, fmt.Sprintf("Confirmed appointment %s.", shortID(appt)))
	}
	return out, nil
}

func assign(appt *Appointment, actor auth.Identity, p Params) (Outcome, error) {
	if !isStaff(actor) {
		return Outcome{}, ErrRoleNotAllowed
	}
	if appt.Status != StatusConfirmed {
		return Outcome{}, fmt.Errorf("%w: assign from %q", ErrInvalidTransition, appt.Status)
	}
	if appt.Assigned() {
		return Outcome{}, fmt.Errorf("%w: already assigned to %s", ErrInvalidTransition, *appt.PhleboName)
	}
	if p.Phlebo == nil {
		return Outcome{}, ErrPhleboRequired
	}
	if err := validBinding(p.Phlebo); err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Status:    StatusConfirmed,
		SetPhlebo: p.Phlebo,
		Notices:   []Notice{assignmentNotice(appt, p.Phlebo)},
		History: []string{
			fmt.Sprintf("Assigned appointment %s to %s.", shortID(appt), p.Phlebo.Name),
		},
	}, nil
}

func assignmentNotice(appt *Appointment, b *Binding) Notice {
	return Notice{
		Target:  notification.User(auth.RolePhlebo, b.ID),
		Title:   "New Appointment Assigned",
		Message: fmt.Sprintf("You have been assigned a new appointment for %s.", appt.PatientName),
		Link:    "/dashboard/appointments",
	}
}

func cancel(appt *Appointment, actor auth.Identity, p Params) (Outcome, error) {
	if !isStaff(actor) {
		return Outcome{}, ErrRoleNotAllowed
	}
	if appt.Status != StatusPending && appt.Status != StatusConfirmed {
		return Outcome{}, fmt.Errorf("%w: cancel from %q", ErrInvalidTransition, appt.Status)
	}
	out := Outcome{
		Status: StatusCancelled,
		Notices: []Notice{patientNotice(appt,
			"Appointment Cancelled",
			fmt.Sprintf("Your appointment for %s has been cancelled.", testSummary(appt)))},
		History: []string{fmt.Sprintf("Cancelled appointment %s.", shortID(appt))},
	}
	if p.Reason != "" {
		out.AppendNote = "Cancelled: " + p.Reason
	}
	return out, nil
}

func collect(appt *Appointment, actor auth.Identity) (Outcome, error) {
	if appt.Status != StatusConfirmed {
		return Outcome{}, fmt.Errorf("%w: collect from %q", ErrInvalidTransition, appt.Status)
	}
	out := Outcome{
		Status: StatusSampleCollected,
		History: []string{
			fmt.Sprintf("Marked sample collected for appointment %s for patient %s.",
				shortID(appt), appt.PatientName),
		},
	}
	switch {
	case isStaff(actor):
	case actor.Role == auth.RolePhlebo:
		if !isAssignee(appt, actor) {
			return Outcome{}, ErrNotAssignee
		}
		out.Notices = append(out.Notices, Notice{
			Target: notification.AllStaff(),
			Title:  "Sample Collected",
			Message: fmt.Sprintf("Sample for appointment %s has been collected by %s.",
				shortID(appt), actor.Name),
			Link: "/dashboard/appointments",
		})
	default:
		return Outcome{}, ErrRoleNotAllowed
	}
	return out, nil
}

func release(appt *Appointment, actor auth.Identity, p Params) (Outcome, error) {
	if actor.Role != auth.RolePhlebo {
		return Outcome{}, ErrRoleNotAllowed
	}
	if appt.Status != StatusConfirmed {
		return Outcome{}, fmt.Errorf("%w: release from %q", ErrInvalidTransition, appt.Status)
	}
	if !appt.Assigned() {
		return Outcome{}, ErrPhleboRequired
	}
	if !isAssignee(appt, actor) {
		return Outcome{}, ErrNotAssignee
	}
	if strings.TrimSpace(p.Reason) == "" {
		return Outcome{}, ErrReasonRequired
	}
	return Outcome{
		Status:      StatusPending,
		ClearPhlebo: true,
		AppendNote:  "Released: " + p.Reason,
		Notices: []Notice{{
			Target: notification.AllStaff(),
			Title:  "Appointment Released",
			Message: fmt.Sprintf("Appointment %s for %s was released by the phlebo.",
				shortID(appt), appt.PatientName),
			Link: "/dashboard/appointments",
		}},
		History: []string{
			fmt.Sprintf("Released appointment %s back to the pending queue.", shortID(appt)),
		},
	}, nil
}

func advance(appt *Appointment, actor auth.Identity, from, to Status) (Outcome, error) {
	if !isStaff(actor) {
		return Outcome{}, ErrRoleNotAllowed
	}
	if appt.Status != from {
		return Outcome{}, fmt.Errorf("%w: %q from %q", ErrInvalidTransition, to, appt.Status)
	}
	return Outcome{
		Status:  to,
		Notices: []Notice{statusNotice(appt, to)},
	}, nil
}

func saveReport(appt *Appointment, actor auth.Identity, p Params) (Outcome, error) {
	if !isStaff(actor) {
		return Outcome{}, ErrRoleNotAllowed
	}
	if !appt.Status.atLeast(StatusInProcess) {
		return Outcome{}, fmt.Errorf("%w: save report from %q", ErrInvalidTransition, appt.Status)
	}
	return Outcome{
		Status:    appt.Status,
		SetReport: true,
		Report:    p.Report,
	}, nil
}

func finalize(appt *Appointment, actor auth.Identity, p Params) (Outcome, error) {
	if !isStaff(actor) {
		return Outcome{}, ErrRoleNotAllowed
	}
	if !appt.Status.atLeast(StatusInProcess) {
		return Outcome{}, fmt.Errorf("%w: finalize from %q", ErrInvalidTransition, appt.Status)
	}
	out := Outcome{
		Status:    StatusCompleted,
		SetReport: true,
		Report:    p.Report,
	}
	// Side effects fire only on the first completion; re-finalizing an
	// already completed report saves the data silently.
	if !appt.Status.finalized() {
		out.Finalized = true
		out.Notices = []Notice{patientNotice(appt,
			"Your Report is Ready!",
			fmt.Sprintf("Your report for %s is now available to view.", testSummary(appt)))}
		out.History = []string{
			fmt.Sprintf("Finalized report for appointment %s for patient %s.",
				shortID(appt), appt.PatientName),
		}
	}
	return out, nil
}

func feedback(appt *Appointment, actor auth.Identity) (Outcome, error) {
	if actor.Role != auth.RolePatient {
		return Outcome{}, ErrRoleNotAllowed
	}
	if actor.ID != appt.PatientID.String() {
		return Outcome{}, ErrRoleNotAllowed
	}
	if !appt.Status.finalized() {
		return Outcome{}, fmt.Errorf("%w: feedback from %q", ErrInvalidTransition, appt.Status)
	}
	if appt.FeedbackSubmitted {
		return Outcome{}, ErrFeedbackGiven
	}
	return Outcome{
		Status:      appt.Status,
		SetFeedback: true,
	}, nil
}

func validBinding(b *Binding) error {
	if b.ID == uuid.Nil || b.Name == "" {
		return fmt.Errorf("%w: binding needs both id and name", ErrPhleboRequired)
	}
	return nil
}
