package agents

import "testing"

func pair() (*Agent, *Agent) {
	return &Agent{ID: "a", Name: "Alder Ashdown"}, &Agent{ID: "b", Name: "Briar Mossbank"}
}

func TestAdjustSymmetric(t *testing.T) {
	a, b := pair()
	Adjust(a, b, 12, "shared a harvest shift")

	if got := ScoreWith(a, "b"); got != 12 {
		t.Fatalf("a->b score = %d, want 12", got)
	}
	if got := ScoreWith(b, "a"); got != 12 {
		t.Fatalf("b->a score = %d, want 12", got)
	}
	if len(a.Relationships) != 1 || len(b.Relationships) != 1 {
		t.Fatalf("expected one edge per side, got %d and %d", len(a.Relationships), len(b.Relationships))
	}
	if a.Relationships[0].Reasons[0] != "shared a harvest shift" {
		t.Fatalf("reason not recorded: %v", a.Relationships[0].Reasons)
	}
}

func TestAdjustClampsScore(t *testing.T) {
	a, b := pair()
	for i := 0; i < 30; i++ {
		Adjust(a, b, 25, "")
	}
	if got := ScoreWith(a, "b"); got != MaxScore {
		t.Fatalf("score = %d, want clamp at %d", got, MaxScore)
	}
	for i := 0; i < 60; i++ {
		Adjust(a, b, -25, "")
	}
	if got := ScoreWith(b, "a"); got != MinScore {
		t.Fatalf("score = %d, want clamp at %d", got, MinScore)
	}
}

func TestThresholdMembership(t *testing.T) {
	tests := []struct {
		name      string
		score     int
		wantAlly  bool
		wantRival bool
	}{
		{"neutral", 0, false, false},
		{"just under ally", 39, false, false},
		{"ally boundary", 40, true, false},
		{"deep ally", 90, true, false},
		{"just over rival", -39, false, false},
		{"rival boundary", -40, false, true},
		{"deep rival", -100, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := pair()
			Adjust(a, b, tt.score, "")
			if got := contains(a.Allies, "b"); got != tt.wantAlly {
				t.Errorf("ally membership = %v, want %v", got, tt.wantAlly)
			}
			if got := contains(a.Rivals, "b"); got != tt.wantRival {
				t.Errorf("rival membership = %v, want %v", got, tt.wantRival)
			}
		})
	}
}

func TestNeverAllyAndRival(t *testing.T) {
	a, b := pair()
	Adjust(a, b, 60, "saved from the river")
	if !contains(a.Allies, "b") {
		t.Fatal("expected ally after +60")
	}
	Adjust(a, b, -120, "betrayed at council")
	if contains(a.Allies, "b") {
		t.Fatal("still an ally after falling to rival range")
	}
	if !contains(a.Rivals, "b") || !contains(b.Rivals, "a") {
		t.Fatal("expected mutual rivals after -60 net")
	}
	for _, id := range a.Allies {
		if contains(a.Rivals, id) {
			t.Fatalf("id %q in both allies and rivals", id)
		}
	}
}

func TestReasonsBounded(t *testing.T) {
	a, b := pair()
	for i := 0; i < 20; i++ {
		Adjust(a, b, 1, "quarrel over firewood")
	}
	if got := len(a.Relationships[0].Reasons); got != maxReasons {
		t.Fatalf("reasons len = %d, want %d", got, maxReasons)
	}
}

func TestReconcileRebuild(t *testing.T) {
	a := &Agent{
		ID: "a",
		Relationships: []Relationship{
			{TargetID: "x", Score: 55},
			{TargetID: "y", Score: -70},
			{TargetID: "z", Score: 10},
		},
		// Stale lists, as a damaged snapshot would carry.
		Allies: []string{"y", "z"},
		Rivals: []string{"x"},
	}
	Reconcile(a)
	if !contains(a.Allies, "x") || contains(a.Rivals, "x") {
		t.Fatalf("x misclassified: allies=%v rivals=%v", a.Allies, a.Rivals)
	}
	if !contains(a.Rivals, "y") || contains(a.Allies, "y") {
		t.Fatalf("y misclassified: allies=%v rivals=%v", a.Allies, a.Rivals)
	}
	if contains(a.Allies, "z") || contains(a.Rivals, "z") {
		t.Fatalf("z should be neither: allies=%v rivals=%v", a.Allies, a.Rivals)
	}
}

func TestAdjustIgnoresSelfAndNil(t *testing.T) {
	a, _ := pair()
	Adjust(a, a, 50, "talking to themselves")
	if len(a.Relationships) != 0 {
		t.Fatal("self edge created")
	}
	Adjust(a, nil, 50, "")
	Adjust(nil, a, 50, "")
	if len(a.Relationships) != 0 {
		t.Fatal("nil partner created an edge")
	}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
