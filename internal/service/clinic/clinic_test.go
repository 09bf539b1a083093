package clinic

import (
	"errors"
	"testing"

	"github.com/educare/track_backend/internal/repo"
	"github.com/educare/track_backend/pkg/crypto"
)

var _ Sealer = (*crypto.Box)(nil)

func TestOutcomeFor(t *testing.T) {
	tests := []struct {
		decision    string
		wantOutcome string
		wantStatus  string
	}{
		{repo.DecisionSendHome, repo.OutcomeSentHome, repo.StudentSentHome},
		{repo.DecisionReturnToClass, repo.OutcomeReturned, repo.StudentOut},
		{repo.DecisionRestAtClinic, repo.OutcomeReturned, repo.StudentOut},
	}
	for _, tt := range tests {
		t.Run(tt.decision, func(t *testing.T) {
			outcome, status := OutcomeFor(tt.decision)
			if outcome != tt.wantOutcome || status != tt.wantStatus {
				t.Errorf("OutcomeFor(%q) = (%q, %q), want (%q, %q)",
					tt.decision, outcome, status, tt.wantOutcome, tt.wantStatus)
			}
		})
	}
}

func TestFindingsNormalize(t *testing.T) {
	got, err := FindingsRequest{Reason: "  fever ", Notes: " 38.5C ", Decision: " Send_Home "}.normalize()
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if got.Reason != "fever" || got.Notes != "38.5C" || got.Decision != repo.DecisionSendHome {
		t.Errorf("normalize = %+v", got)
	}

	for _, d := range []string{"", "home", "Decision: send home"} {
		if _, err := (FindingsRequest{Decision: d}).normalize(); !errors.Is(err, ErrInvalidDecision) {
			t.Errorf("decision %q: err = %v, want ErrInvalidDecision", d, err)
		}
	}
}

func TestSealedNotesRoundTrip(t *testing.T) {
	box, err := crypto.NewBox("000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f")
	if err != nil {
		t.Fatalf("NewBox: %v", err)
	}
	s := &clinicService{sealer: box}

	sealed, err := box.Seal("temp 38.5, gave paracetamol")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if sealed == "temp 38.5, gave paracetamol" {
		t.Fatal("notes were not encrypted")
	}

	v, err := s.open(&repo.ClinicVisit{Notes: sealed})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if v.Notes != "temp 38.5, gave paracetamol" {
		t.Errorf("Notes = %q", v.Notes)
	}
}

func TestPlainSealerPassesThrough(t *testing.T) {
	var p plainSealer
	if s, _ := p.Seal("x"); s != "x" {
		t.Errorf("Seal = %q", s)
	}
	if s, _ := p.Open("x"); s != "x" {
		t.Errorf("Open = %q", s)
	}
}

func TestVisitError(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{repo.ErrNotFound, ErrVisitNotFound},
		{repo.ErrStaleStatus, ErrInvalidTransition},
	}
	for _, tt := range tests {
		if got := visitError("op", tt.in); !errors.Is(got, tt.want) {
			t.Errorf("visitError(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if visitError("op", nil) != nil {
		t.Error("visitError(nil) != nil")
	}
	boom := errors.New("boom")
	if got := visitError("op", boom); !errors.Is(got, boom) {
		t.Errorf("visitError lost the cause: %v", got)
	}
}
