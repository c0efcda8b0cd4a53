package booster

import (
	"math"
	"testing"

	"github.com/kailas-cloud/courserec/internal/domain/course"
	"github.com/kailas-cloud/courserec/internal/domain/recommendation"
)

func takenSet(subjects ...string) course.TakenSet {
	cs := make([]course.Course, len(subjects))
	for i, s := range subjects {
		cs[i] = course.Course{SubjectNumber: s}
	}
	return course.NewTakenSet(cs)
}

func candidate() course.Course {
	return course.Course{
		SubjectNumber: "6.4200",
		Prerequisites: "A.1 and B.1",
		Corequisites:  "C.1 or D.1",
	}
}

func TestTier_AllVsAnySemantics(t *testing.T) {
	c := candidate()
	tests := []struct {
		name   string
		taken  course.TakenSet
		want   float64
		suffix string
	}{
		{"all prereqs and one coreq", takenSet("A.1", "B.1", "C.1"), 1.3, SuffixBoth},
		{"all prereqs, no coreq", takenSet("A.1", "B.1"), 1.2, SuffixPrerequisites},
		{"missing prereq, coreq taken", takenSet("A.1", "D.1"), 1.1, SuffixCorequisite},
		{"missing prereq only", takenSet("A.1"), 1.0, ""},
		{"nothing", takenSet(), 1.0, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, suffix := Tier(&c, tc.taken)
			if m != tc.want || suffix != tc.suffix {
				t.Errorf("Tier = %v %q, want %v %q", m, suffix, tc.want, tc.suffix)
			}
		})
	}
}

func TestTier_NoPrerequisitesIsVacuouslyMet(t *testing.T) {
	c := course.Course{SubjectNumber: "21M.030"}
	m, suffix := Tier(&c, takenSet())
	if m != MultiplierPrerequisite || suffix != SuffixNoPrerequisite {
		t.Errorf("Tier = %v %q", m, suffix)
	}
}

func TestTier_AliasSatisfiesPrerequisite(t *testing.T) {
	c := course.Course{SubjectNumber: "6.7900", Prerequisites: "6.036"}
	taken := course.NewTakenSet([]course.Course{{SubjectNumber: "6.3900", Aliases: []string{"6.036"}}})
	if m, _ := Tier(&c, taken); m != MultiplierPrerequisite {
		t.Errorf("expected alias to satisfy prerequisite, got %v", m)
	}
}

func TestMultipliers_Monotone(t *testing.T) {
	if !(MultiplierBoth >= MultiplierPrerequisite &&
		MultiplierPrerequisite >= MultiplierCorequisite &&
		MultiplierCorequisite >= MultiplierNone && MultiplierNone == 1.0) {
		t.Fatal("multipliers must satisfy 1.3 >= 1.2 >= 1.1 >= 1.0")
	}
}

func TestApply_Idempotent(t *testing.T) {
	r := recommendation.New(candidate(), 10, "base")
	taken := takenSet("A.1", "B.1", "C.1")

	once := Apply(r, taken)
	twice := Apply(once, taken)
	if math.Abs(once.Score()-13) > 1e-9 {
		t.Fatalf("once = %v, want 13", once.Score())
	}
	if twice.Score() != once.Score() || twice.Reason() != once.Reason() {
		t.Errorf("applying twice changed result: %v %q vs %v %q",
			twice.Score(), twice.Reason(), once.Score(), once.Reason())
	}
	if once.Reason() != "base"+SuffixBoth {
		t.Errorf("reason = %q", once.Reason())
	}
}

func TestApplyAll_Resorts(t *testing.T) {
	plain := course.Course{SubjectNumber: "X.1", Prerequisites: "Q.9"}
	boosted := candidate()
	recs := []recommendation.Recommendation{
		recommendation.New(plain, 10, "a"),
		recommendation.New(boosted, 9, "b"),
	}

	got := ApplyAll(recs, takenSet("A.1", "B.1", "C.1"))
	first := got[0].Course()
	if first.SubjectNumber != "6.4200" {
		t.Errorf("expected boosted candidate first, got %s", first.SubjectNumber)
	}
	if recs[0].Multiplier() != 1 {
		t.Error("input slice must not be modified")
	}
}
