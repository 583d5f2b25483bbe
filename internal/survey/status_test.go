package survey

import "testing"

func TestCanTransition_PawprintLifecycle(t *testing.T) {
	steps := []struct {
		from, to Status
	}{
		{StatusRaw, StatusProcessing},
		{StatusProcessing, StatusReady},
		{StatusReady, StatusReadyToMatch},
		{StatusReadyToMatch, StatusMatched},
	}
	for _, s := range steps {
		if !CanTransition(KindPawprintStack, s.from, s.to) {
			t.Errorf("pawprint %q -> %q should be allowed", s.from, s.to)
		}
	}
}

func TestCanTransition_RejectsSkips(t *testing.T) {
	cases := []struct {
		kind     Kind
		from, to Status
	}{
		{KindPawprintStack, StatusRaw, StatusReady},       // must pass through processing
		{KindPawprintStack, StatusReady, StatusFailed},    // ready is not failable
		{KindPawprintStack, StatusMatched, StatusRaw},     // matched is terminal
		{KindTile, StatusRaw, StatusReadyToExtractFeatures},
		{KindTile, StatusReadyToMatch, StatusRaw},
		{KindPawprintXTile, StatusMatched, StatusPending},
	}
	for _, c := range cases {
		if CanTransition(c.kind, c.from, c.to) {
			t.Errorf("%s %q -> %q should be rejected", c.kind, c.from, c.to)
		}
	}
}

func TestCanTransition_SelfIsAllowed(t *testing.T) {
	if !CanTransition(KindPawprintStack, StatusReady, StatusReady) {
		t.Error("payload-only commits must keep the current status")
	}
}

func TestCanTransition_ManualResets(t *testing.T) {
	if !CanTransition(KindPawprintStack, StatusFailed, StatusRaw) {
		t.Error("failed pawprints must be resettable to raw")
	}
	if !CanTransition(KindPawprintXTile, StatusFailed, StatusPending) {
		t.Error("failed associations must be resettable to pending")
	}
}

func TestValidStatus_ClosedSets(t *testing.T) {
	if ValidStatus(KindTile, StatusProcessing) {
		t.Error("tiles have no processing status")
	}
	if ValidStatus(KindPawprintXTile, StatusRaw) {
		t.Error("associations start at pending, not raw")
	}
	if !ValidStatus(KindPawprintStack, StatusReadyToMatch) {
		t.Error("ready-to-match is part of the pawprint set")
	}
}

func TestFailureStatus(t *testing.T) {
	if st, ok := FailureStatus(KindPawprintStack); !ok || st != StatusFailed {
		t.Errorf("pawprint failure status = %q, %v", st, ok)
	}
	if _, ok := FailureStatus(KindTile); ok {
		t.Error("tiles must not have a failure status")
	}
}

func TestCheckTransition_ErrorMentionsStatuses(t *testing.T) {
	err := CheckTransition(KindPawprintStack, StatusRaw, StatusReady)
	if err == nil {
		t.Fatal("expected error for raw -> ready")
	}
}
