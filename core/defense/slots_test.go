package defense

import (
	"reflect"
	"testing"
)

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "single digit hour", raw: "9:00", want: "09:00"},
		{name: "already padded", raw: "09:00", want: "09:00"},
		{name: "afternoon", raw: "14:30", want: "14:30"},
		{name: "midnight", raw: "0:05", want: "00:05"},
		{name: "not a time", raw: "morning", want: "morning"},
		{name: "empty", raw: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTime(tt.raw); got != tt.want {
				t.Errorf("NormalizeTime(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			// normalizing twice must not change the result
			if got := NormalizeTime(NormalizeTime(tt.raw)); got != tt.want {
				t.Errorf("NormalizeTime(NormalizeTime(%q)) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDedupeProfessorsForDay(t *testing.T) {
	entries := []AvailabilityEntry{
		{ProfessorID: "p1", Name: "Amal", Time: "9:00"},
		{ProfessorID: "p2", Name: "Bilal", Time: "09:00"},
		{ProfessorID: "p1", Name: "Amal", Time: "09:00"}, // same slot as "9:00"
		{ProfessorID: "p1", Name: "Amal", Time: "10:00"},
		{ProfessorID: "p2", Name: "Bilal", Time: "9:00"}, // dup of padded form
	}

	got := DedupeProfessorsForDay(entries)
	want := []AvailabilityEntry{
		{ProfessorID: "p1", Name: "Amal", Time: "09:00"},
		{ProfessorID: "p2", Name: "Bilal", Time: "09:00"},
		{ProfessorID: "p1", Name: "Amal", Time: "10:00"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DedupeProfessorsForDay() = %+v, want %+v", got, want)
	}
}

func TestDedupeProfessorsForDay_keepsMalformedTimes(t *testing.T) {
	entries := []AvailabilityEntry{
		{ProfessorID: "p1", Time: "whenever"},
		{ProfessorID: "p1", Time: "whenever"},
		{ProfessorID: "p1", Time: "later"},
	}
	got := DedupeProfessorsForDay(entries)
	if len(got) != 2 {
		t.Errorf("DedupeProfessorsForDay() kept %d entries, want 2", len(got))
	}
}

func TestGroupByTime(t *testing.T) {
	entries := []AvailabilityEntry{
		{ProfessorID: "p1", Time: "9:00"},
		{ProfessorID: "p2", Time: "09:00"},
		{ProfessorID: "p3", Time: "14:00"},
	}

	groups := GroupByTime(entries)
	if len(groups) != 2 {
		t.Fatalf("GroupByTime() returned %d groups, want 2", len(groups))
	}
	if n := len(groups["09:00"]); n != 2 {
		t.Errorf("groups[09:00] has %d entries, want 2", n)
	}
	if n := len(groups["14:00"]); n != 1 {
		t.Errorf("groups[14:00] has %d entries, want 1", n)
	}

	times := SortedTimes(groups)
	want := []string{"09:00", "14:00"}
	if !reflect.DeepEqual(times, want) {
		t.Errorf("SortedTimes() = %v, want %v", times, want)
	}
}
