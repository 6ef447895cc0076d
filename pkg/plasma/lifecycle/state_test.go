package lifecycle

import (
	"testing"

	"github.com/arrowlake/plasma-go/pkg/plasma"
	"github.com/arrowlake/plasma-go/pkg/plasma/inuse"
)

func testID(t *testing.T, b byte) plasma.ObjectID {
	t.Helper()
	raw := make([]byte, plasma.ObjectIDSize)
	raw[0] = b
	id, err := plasma.NewObjectID(raw)
	if err != nil {
		t.Fatalf("NewObjectID: %v", err)
	}
	return id
}

func TestOfAbsentByDefault(t *testing.T) {
	tbl := inuse.New(nil)
	id := testID(t, 1)

	if got := Of(tbl, nil, id); got != Absent {
		t.Fatalf("expected Absent, got %v", got)
	}
}

func TestOfCreatingBeforeSeal(t *testing.T) {
	tbl := inuse.New(nil)
	id := testID(t, 2)
	tbl.BeginUse(plasma.PlasmaObject{ID: id}, false)

	if got := Of(tbl, nil, id); got != Creating {
		t.Fatalf("expected Creating, got %v", got)
	}
}

func TestOfSealedInUseAfterSeal(t *testing.T) {
	tbl := inuse.New(nil)
	id := testID(t, 3)
	tbl.BeginUse(plasma.PlasmaObject{ID: id}, false)
	tbl.Seal(id)

	if got := Of(tbl, nil, id); got != SealedInUse {
		t.Fatalf("expected SealedInUse, got %v", got)
	}
}

func TestOfQueuedAfterReleaseToZero(t *testing.T) {
	hist := inuse.NewHistory(0, 0, nil)
	tbl := inuse.New(hist)
	id := testID(t, 4)

	tbl.BeginUse(plasma.PlasmaObject{ID: id}, true)
	if _, err := tbl.EndUse(id); err != nil {
		t.Fatalf("EndUse: %v", err)
	}

	if got := Of(tbl, hist, id); got != Queued {
		t.Fatalf("expected Queued, got %v", got)
	}
}

func TestCheckAllowsLegalTransition(t *testing.T) {
	id := testID(t, 5)
	if err := Check(OpCreate, id, Absent); err != nil {
		t.Fatalf("expected Create legal from Absent, got %v", err)
	}
	if err := Check(OpSeal, id, Creating); err != nil {
		t.Fatalf("expected Seal legal from Creating, got %v", err)
	}
}

func TestCheckRejectsIllegalTransition(t *testing.T) {
	id := testID(t, 6)
	if err := Check(OpSeal, id, SealedInUse); err == nil {
		t.Fatal("expected Seal illegal from SealedInUse")
	}
	if err := Check(OpRelease, id, Creating); err == nil {
		t.Fatal("expected Release illegal from Creating")
	}
	if err := Check(OpCreate, id, SealedInUse); err == nil {
		t.Fatal("expected Create illegal from SealedInUse")
	}
}

func TestStateString(t *testing.T) {
	cases := map[State]string{
		Absent:      "absent",
		Creating:    "creating",
		SealedInUse: "sealed-in-use",
		Queued:      "queued",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Fatalf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
