package prereq

import (
	"reflect"
	"testing"

	"github.com/kailas-cloud/courserec/internal/domain/course"
)

func TestExtractCourseNumbers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"mixed prereq and coreq", "Prereq: 6.100A or 18.06; Coreq: 8.02", []string{"6.100A", "18.06", "8.02"}},
		{"empty", "", []string{}},
		{"whitespace", "   ", []string{}},
		{"no tokens", "permission of instructor", []string{}},
		{"lowercase normalized", "6.100a and cc.801", []string{"6.100A", "CC.801"}},
		{"duplicates collapsed", "18.06, 18.06 or 18.700", []string{"18.06", "18.700"}},
		{"letter department with digits", "HST.0301A recommended", []string{"HST.0301A"}},
		{"number embedded in word", "room 18.06and", []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractCourseNumbers(tc.text)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ExtractCourseNumbers(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}

func TestMentions_WholeTokenOnly(t *testing.T) {
	if !Mentions("Prereq: 6.100", "6.100") {
		t.Error("expected exact token match")
	}
	if Mentions("Prereq: 6.1000", "6.100") {
		t.Error("6.100 must not match inside 6.1000")
	}
	if Mentions("anything", "") {
		t.Error("empty subject never matches")
	}
}

func TestRequirements_Evaluate(t *testing.T) {
	req := Requirements{
		Prerequisites: []string{"A.1", "B.1"},
		Corequisites:  []string{"C.1", "D.1"},
	}

	tests := []struct {
		name  string
		taken []string
		want  Satisfaction
	}{
		{"all prereqs and one coreq", []string{"A.1", "B.1", "C.1"}, Satisfaction{true, true}},
		{"missing one prereq", []string{"A.1", "C.1"}, Satisfaction{false, true}},
		{"prereqs only", []string{"A.1", "B.1"}, Satisfaction{true, false}},
		{"nothing", nil, Satisfaction{false, false}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			courses := make([]course.Course, len(tc.taken))
			for i, s := range tc.taken {
				courses[i] = course.Course{SubjectNumber: s}
			}
			got := req.Evaluate(course.NewTakenSet(courses))
			if got != tc.want {
				t.Errorf("Evaluate = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestRequirements_EvaluateVacuous(t *testing.T) {
	got := Requirements{}.Evaluate(course.NewTakenSet(nil))
	if !got.Prerequisites {
		t.Error("no prerequisites listed must count as satisfied")
	}
	if got.Corequisites {
		t.Error("no corequisites listed must not count as satisfied")
	}
}

func TestRequirements_EvaluateThroughAlias(t *testing.T) {
	req := Requirements{Prerequisites: []string{"6.036"}}
	taken := course.NewTakenSet([]course.Course{{SubjectNumber: "6.3900", Aliases: []string{"6.036"}}})
	if !req.Evaluate(taken).Prerequisites {
		t.Error("alias of a taken course must satisfy the prerequisite")
	}
}

func TestParse_AndAll(t *testing.T) {
	c := course.Course{Prerequisites: "6.1010, 6.1200", Corequisites: "6.1200 or 18.06"}
	r := Parse(&c)
	want := []string{"6.1010", "6.1200", "18.06"}
	if got := r.All(); !reflect.DeepEqual(got, want) {
		t.Errorf("All() = %v, want %v", got, want)
	}
}
