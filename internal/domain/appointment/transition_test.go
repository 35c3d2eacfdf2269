package appointment

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/labtrack/labtrack/internal/domain/report"
	"github.com/labtrack/labtrack/internal/platform/auth"
	"github.com/labtrack/labtrack/internal/platform/notification"
)

func staffActor() auth.Identity {
	return auth.Identity{ID: uuid.NewString(), Name: "Priya Sharma", Role: auth.RoleStaff}
}

func adminActor() auth.Identity {
	return auth.Identity{ID: uuid.NewString(), Name: "Admin", Role: auth.RoleAdmin}
}

func phleboActor(id uuid.UUID) auth.Identity {
	return auth.Identity{ID: id.String(), Name: "Rahul Verma", Role: auth.RolePhlebo}
}

func patientActor(id uuid.UUID) auth.Identity {
	return auth.Identity{ID: id.String(), Name: "Asha Rao", Role: auth.RolePatient}
}

func testAppt(status Status) *Appointment {
	return &Appointment{
		ID:          uuid.New(),
		PatientID:   uuid.New(),
		PatientName: "Asha Rao",
		TestIDs:     []uuid.UUID{uuid.New()},
		TestNames:   []string{"Complete Blood Count"},
		Status:      status,
	}
}

func assignedAppt(status Status) (*Appointment, uuid.UUID) {
	appt := testAppt(status)
	phleboID := uuid.New()
	name := "Rahul Verma"
	appt.PhleboID = &phleboID
	appt.PhleboName = &name
	return appt, phleboID
}

func TestApply_Confirm(t *testing.T) {
	appt := testAppt(StatusPending)

	out, err := Apply(appt, ActionConfirm, staffActor(), Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusConfirmed {
		t.Errorf("expected Confirmed, got %q", out.Status)
	}
	if out.SetPhlebo != nil {
		t.Error("confirm without phlebo should not bind one")
	}
	if len(out.Notices) != 1 || out.Notices[0].Title != "Appointment Update: Confirmed" {
		t.Errorf("expected patient status notice, got %+v", out.Notices)
	}
	if out.Notices[0].Target.Scope != notification.ScopeUser || out.Notices[0].Target.UserID != appt.PatientID {
		t.Errorf("notice should target the patient, got %+v", out.Notices[0].Target)
	}
}

func TestApply_ConfirmWithPhlebo(t *testing.T) {
	appt := testAppt(StatusPending)
	binding := &Binding{ID: uuid.New(), Name: "Rahul Verma"}

	out, err := Apply(appt, ActionConfirm, staffActor(), Params{Phlebo: binding})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.SetPhlebo == nil || out.SetPhlebo.ID != binding.ID || out.SetPhlebo.Name != "Rahul Verma" {
		t.Errorf("expected phlebo binding, got %+v", out.SetPhlebo)
	}
	if len(out.Notices) != 2 {
		t.Fatalf("expected patient and phlebo notices, got %d", len(out.Notices))
	}
	if out.Notices[1].Title != "New Appointment Assigned" {
		t.Errorf("unexpected phlebo notice: %+v", out.Notices[1])
	}
}

func TestApply_ConfirmRejectsEmptyBindingName(t *testing.T) {
	appt := testAppt(StatusPending)
	_, err := Apply(appt, ActionConfirm, staffActor(), Params{Phlebo: &Binding{ID: uuid.New()}})
	if !errors.Is(err, ErrPhleboRequired) {
		t.Errorf("expected ErrPhleboRequired, got %v", err)
	}
}

func TestApply_Assign(t *testing.T) {
	appt := testAppt(StatusConfirmed)
	binding := &Binding{ID: uuid.New(), Name: "Rahul Verma"}

	out, err := Apply(appt, ActionAssign, staffActor(), Params{Phlebo: binding})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusConfirmed {
		t.Errorf("assign should keep Confirmed, got %q", out.Status)
	}
	if out.SetPhlebo == nil {
		t.Fatal("expected binding")
	}
}

func TestApply_AssignAlreadyAssigned(t *testing.T) {
	appt, _ := assignedAppt(StatusConfirmed)
	_, err := Apply(appt, ActionAssign, staffActor(), Params{Phlebo: &Binding{ID: uuid.New(), Name: "Other"}})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestApply_AssignWithoutBinding(t *testing.T) {
	appt := testAppt(StatusConfirmed)
	_, err := Apply(appt, ActionAssign, staffActor(), Params{})
	if !errors.Is(err, ErrPhleboRequired) {
		t.Errorf("expected ErrPhleboRequired, got %v", err)
	}
}

func TestApply_Cancel(t *testing.T) {
	for _, from := range []Status{StatusPending, StatusConfirmed} {
		appt := testAppt(from)
		out, err := Apply(appt, ActionCancel, staffActor(), Params{Reason: "patient unavailable"})
		if err != nil {
			t.Fatalf("cancel from %q: %v", from, err)
		}
		if out.Status != StatusCancelled {
			t.Errorf("expected Cancelled, got %q", out.Status)
		}
		if !strings.Contains(out.AppendNote, "patient unavailable") {
			t.Errorf("reason should land in notes, got %q", out.AppendNote)
		}
	}
}

func TestApply_CancelAfterCollection(t *testing.T) {
	appt := testAppt(StatusSampleCollected)
	_, err := Apply(appt, ActionCancel, staffActor(), Params{})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestApply_CollectByStaff(t *testing.T) {
	appt := testAppt(StatusConfirmed)
	out, err := Apply(appt, ActionCollect, staffActor(), Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusSampleCollected {
		t.Errorf("expected Sample Collected, got %q", out.Status)
	}
	if len(out.Notices) != 0 {
		t.Errorf("staff collection should not notify, got %+v", out.Notices)
	}
	if len(out.History) != 1 {
		t.Errorf("expected one history entry, got %+v", out.History)
	}
}

func TestApply_CollectByAssignedPhlebo(t *testing.T) {
	appt, phleboID := assignedAppt(StatusConfirmed)
	out, err := Apply(appt, ActionCollect, phleboActor(phleboID), Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Notices) != 1 || out.Notices[0].Target.Scope != notification.ScopeAllStaff {
		t.Fatalf("phlebo collection should notify all staff, got %+v", out.Notices)
	}
	if out.Notices[0].Title != "Sample Collected" {
		t.Errorf("unexpected notice title %q", out.Notices[0].Title)
	}
}

func TestApply_CollectByOtherPhlebo(t *testing.T) {
	appt, _ := assignedAppt(StatusConfirmed)
	_, err := Apply(appt, ActionCollect, phleboActor(uuid.New()), Params{})
	if !errors.Is(err, ErrNotAssignee) {
		t.Errorf("expected ErrNotAssignee, got %v", err)
	}
}

func TestApply_Release(t *testing.T) {
	appt, phleboID := assignedAppt(StatusConfirmed)

	out, err := Apply(appt, ActionRelease, phleboActor(phleboID), Params{Reason: "wrong address"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusPending {
		t.Errorf("release should return to Pending, got %q", out.Status)
	}
	if !out.ClearPhlebo {
		t.Error("release must clear the phlebo binding")
	}
	if !strings.Contains(out.AppendNote, "wrong address") {
		t.Errorf("reason should land in notes, got %q", out.AppendNote)
	}
	if len(out.Notices) != 1 || out.Notices[0].Target.Scope != notification.ScopeAllStaff {
		t.Fatalf("release should notify all staff, got %+v", out.Notices)
	}
	if out.Notices[0].Title != "Appointment Released" {
		t.Errorf("unexpected notice title %q", out.Notices[0].Title)
	}
}

func TestApply_ReleaseGuards(t *testing.T) {
	appt, phleboID := assignedAppt(StatusConfirmed)

	if _, err := Apply(appt, ActionRelease, phleboActor(phleboID), Params{Reason: "  "}); !errors.Is(err, ErrReasonRequired) {
		t.Errorf("blank reason: expected ErrReasonRequired, got %v", err)
	}
	if _, err := Apply(appt, ActionRelease, phleboActor(uuid.New()), Params{Reason: "x"}); !errors.Is(err, ErrNotAssignee) {
		t.Errorf("other phlebo: expected ErrNotAssignee, got %v", err)
	}
	if _, err := Apply(appt, ActionRelease, staffActor(), Params{Reason: "x"}); !errors.Is(err, ErrRoleNotAllowed) {
		t.Errorf("staff: expected ErrRoleNotAllowed, got %v", err)
	}

	unassigned := testAppt(StatusConfirmed)
	if _, err := Apply(unassigned, ActionRelease, phleboActor(uuid.New()), Params{Reason: "x"}); !errors.Is(err, ErrPhleboRequired) {
		t.Errorf("unassigned: expected ErrPhleboRequired, got %v", err)
	}
}

func TestApply_ReceiveAndProcess(t *testing.T) {
	appt := testAppt(StatusSampleCollected)
	out, err := Apply(appt, ActionReceive, staffActor(), Params{})
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if out.Status != StatusReceived {
		t.Errorf("expected Received, got %q", out.Status)
	}
	if len(out.Notices) != 1 || out.Notices[0].Title != "Appointment Update: Received" {
		t.Errorf("expected patient notice, got %+v", out.Notices)
	}

	appt.Status = StatusReceived
	out, err = Apply(appt, ActionProcess, staffActor(), Params{})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if out.Status != StatusInProcess {
		t.Errorf("expected In Process, got %q", out.Status)
	}
}

// Actions only ever move forward through the progression; any attempt to
// reach a status out of order is rejected.
func TestApply_MonotonicProgression(t *testing.T) {
	invalid := []struct {
		from   Status
		action Action
	}{
		{StatusPending, ActionCollect},
		{StatusPending, ActionReceive},
		{StatusPending, ActionProcess},
		{StatusPending, ActionFinalize},
		{StatusConfirmed, ActionConfirm},
		{StatusConfirmed, ActionReceive},
		{StatusConfirmed, ActionProcess},
		{StatusSampleCollected, ActionCollect},
		{StatusSampleCollected, ActionProcess},
		{StatusReceived, ActionReceive},
		{StatusInProcess, ActionConfirm},
		{StatusCompleted, ActionCollect},
		{StatusCancelled, ActionConfirm},
		{StatusCancelled, ActionCancel},
	}
	for _, tt := range invalid {
		appt := testAppt(tt.from)
		if _, err := Apply(appt, tt.action, staffActor(), Params{}); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s from %q: expected ErrInvalidTransition, got %v", tt.action, tt.from, err)
		}
	}
}

func TestApply_SaveReport(t *testing.T) {
	blocks := []report.TestReport{{TestName: "CBC"}}

	appt := testAppt(StatusInProcess)
	out, err := Apply(appt, ActionSaveReport, staffActor(), Params{Report: blocks})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusInProcess {
		t.Errorf("save must not change status, got %q", out.Status)
	}
	if !out.SetReport || len(out.Report) != 1 {
		t.Errorf("expected report data in outcome: %+v", out)
	}
	if len(out.Notices) != 0 || len(out.History) != 0 {
		t.Error("save should have no side effects")
	}

	early := testAppt(StatusConfirmed)
	if _, err := Apply(early, ActionSaveReport, staffActor(), Params{Report: blocks}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition before In Process, got %v", err)
	}
}

func TestApply_FinalizeFirstTime(t *testing.T) {
	appt := testAppt(StatusInProcess)
	out, err := Apply(appt, ActionFinalize, staffActor(), Params{Report: []report.TestReport{{TestName: "CBC"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusCompleted {
		t.Errorf("expected Completed, got %q", out.Status)
	}
	if !out.Finalized {
		t.Error("first finalization should be marked")
	}
	if len(out.Notices) != 1 || out.Notices[0].Title != "Your Report is Ready!" {
		t.Errorf("expected report-ready notice, got %+v", out.Notices)
	}
	if len(out.History) != 1 {
		t.Errorf("expected one history entry, got %+v", out.History)
	}
}

func TestApply_FinalizeAgainSuppressesEffects(t *testing.T) {
	for _, from := range []Status{StatusCompleted, StatusReportUploaded} {
		appt := testAppt(from)
		out, err := Apply(appt, ActionFinalize, staffActor(), Params{Report: []report.TestReport{{TestName: "CBC"}}})
		if err != nil {
			t.Fatalf("finalize from %q: %v", from, err)
		}
		if !out.SetReport {
			t.Error("report data must still be saved")
		}
		if out.Finalized || len(out.Notices) != 0 || len(out.History) != 0 {
			t.Errorf("re-finalizing from %q must not repeat side effects: %+v", from, out)
		}
	}
}

func TestApply_Feedback(t *testing.T) {
	appt := testAppt(StatusCompleted)
	actor := patientActor(appt.PatientID)

	out, err := Apply(appt, ActionFeedback, actor, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.SetFeedback {
		t.Error("expected feedback flag")
	}
	if out.Status != StatusCompleted {
		t.Errorf("feedback must not change status, got %q", out.Status)
	}

	appt.FeedbackSubmitted = true
	if _, err := Apply(appt, ActionFeedback, actor, Params{}); !errors.Is(err, ErrFeedbackGiven) {
		t.Errorf("expected ErrFeedbackGiven, got %v", err)
	}
}

func TestApply_FeedbackGuards(t *testing.T) {
	appt := testAppt(StatusCompleted)

	if _, err := Apply(appt, ActionFeedback, patientActor(uuid.New()), Params{}); !errors.Is(err, ErrRoleNotAllowed) {
		t.Errorf("other patient: expected ErrRoleNotAllowed, got %v", err)
	}
	if _, err := Apply(appt, ActionFeedback, staffActor(), Params{}); !errors.Is(err, ErrRoleNotAllowed) {
		t.Errorf("staff: expected ErrRoleNotAllowed, got %v", err)
	}

	pending := testAppt(StatusPending)
	if _, err := Apply(pending, ActionFeedback, patientActor(pending.PatientID), Params{}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("pending: expected ErrInvalidTransition, got %v", err)
	}
}

func TestApply_RoleGating(t *testing.T) {
	patient := patientActor(uuid.New())
	for _, action := range []Action{ActionConfirm, ActionAssign, ActionCancel, ActionReceive, ActionProcess, ActionSaveReport, ActionFinalize} {
		appt := testAppt(StatusPending)
		if _, err := Apply(appt, action, patient, Params{}); !errors.Is(err, ErrRoleNotAllowed) {
			t.Errorf("%s by patient: expected ErrRoleNotAllowed, got %v", action, err)
		}
	}
}

func TestApply_AdminActsAsStaff(t *testing.T) {
	appt := testAppt(StatusPending)
	out, err := Apply(appt, ActionConfirm, adminActor(), Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != StatusConfirmed {
		t.Errorf("expected Confirmed, got %q", out.Status)
	}
}

func TestApply_UnknownAction(t *testing.T) {
	appt := testAppt(StatusPending)
	if _, err := Apply(appt, Action("archive"), staffActor(), Params{}); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}
