package lot

import "testing"

func TestTransitionTo(t *testing.T) {
	ok := []struct {
		from, to Status
	}{
		{StatusWaiting, StatusProposalsOpened},
		{StatusProposalsOpened, StatusInDispute},
		{StatusInDispute, StatusDisputeEnded},
		{StatusDisputeEnded, StatusNegotiation},
		{StatusDisputeEnded, StatusWinnerDeclared},
		{StatusNegotiation, StatusWinnerDeclared},
		{StatusWinnerDeclared, StatusResourcePhase},
		{StatusWinnerDeclared, StatusAdjudicated},
		{StatusResourcePhase, StatusAdjudicated},
		{StatusAdjudicated, StatusHomologated},
		{StatusAdjudicated, StatusRevoked},
		{StatusResourcePhase, StatusCanceled},
	}
	for _, tc := range ok {
		l := &Lot{Status: tc.from}
		if err := l.TransitionTo(tc.to); err != nil {
			t.Fatalf("expected %s -> %s to be allowed: %v", tc.from, tc.to, err)
		}
		if l.Status != tc.to {
			t.Fatalf("expected status %s, got %s", tc.to, l.Status)
		}
	}

	bad := []struct {
		from, to Status
	}{
		{StatusWaiting, StatusInDispute},
		{StatusWaiting, StatusDisputeEnded},
		{StatusProposalsOpened, StatusWaiting},
		{StatusInDispute, StatusWinnerDeclared},
		{StatusDisputeEnded, StatusInDispute},
		{StatusNegotiation, StatusDisputeEnded},
		{StatusWinnerDeclared, StatusHomologated},
		{StatusResourcePhase, StatusWinnerDeclared},
	}
	for _, tc := range bad {
		l := &Lot{Status: tc.from}
		if err := l.TransitionTo(tc.to); err != ErrInvalidTransition {
			t.Fatalf("expected %s -> %s to be rejected, got %v", tc.from, tc.to, err)
		}
		if l.Status != tc.from {
			t.Fatalf("status mutated on rejected transition: %s", l.Status)
		}
	}
}

func TestTransitionFromTerminal(t *testing.T) {
	for _, from := range []Status{StatusHomologated, StatusRevoked, StatusCanceled} {
		l := &Lot{Status: from}
		if !l.IsTerminal() {
			t.Fatalf("expected %s to be terminal", from)
		}
		if err := l.TransitionTo(StatusInDispute); err != ErrTerminalState {
			t.Fatalf("expected terminal state error from %s, got %v", from, err)
		}
		if err := l.ForceTo(StatusRevoked); err != ErrTerminalState {
			t.Fatalf("expected terminal state error on force from %s, got %v", from, err)
		}
	}
}

func TestForceTo(t *testing.T) {
	for _, from := range []Status{StatusWaiting, StatusInDispute, StatusResourcePhase} {
		for _, to := range []Status{StatusRevoked, StatusCanceled} {
			l := &Lot{Status: from}
			if err := l.ForceTo(to); err != nil {
				t.Fatalf("expected force %s -> %s to be allowed: %v", from, to, err)
			}
			if l.Status != to {
				t.Fatalf("expected status %s, got %s", to, l.Status)
			}
		}
	}

	l := &Lot{Status: StatusInDispute}
	if err := l.ForceTo(StatusHomologated); err != ErrInvalidTransition {
		t.Fatalf("expected force to non-override target to be rejected, got %v", err)
	}
}

func TestValidStatus(t *testing.T) {
	if !ValidStatus(StatusWaiting) || !ValidStatus(StatusHomologated) {
		t.Fatalf("expected known statuses to be valid")
	}
	if ValidStatus("SOMETHING_ELSE") {
		t.Fatalf("expected unknown status to be invalid")
	}
}
