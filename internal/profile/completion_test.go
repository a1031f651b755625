package profile

import (
	"testing"
	"time"
)

func TestCompletionNilProfile(t *testing.T) {
	if got := Completion(nil); got != 0 {
		t.Fatalf("expected 0 for nil profile, got %d", got)
	}
}

func TestCompletionEmptyProfile(t *testing.T) {
	if got := Completion(&Profile{}); got != 0 {
		t.Fatalf("expected 0 for empty profile, got %d", got)
	}
}

func TestCompletionFullyPopulated(t *testing.T) {
	dateOfBirth := time.Date(1990, time.May, 12, 0, 0, 0, 0, time.UTC)
	record := &Profile{
		FullName:    "Alice Doe",
		Username:    "alice",
		Gender:      "female",
		DateOfBirth: &dateOfBirth,
		State:       "Goa",
		Tags:        "travel,food",
		Bio:         "hello",
	}
	if got := Completion(record); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestCompletionRoundsPerFieldCount(t *testing.T) {
	cases := []struct {
		name   string
		record Profile
		want   int
	}{
		{name: "one of seven", record: Profile{Username: "alice"}, want: 14},
		{name: "two of seven", record: Profile{Username: "alice", FullName: "Alice"}, want: 29},
		{name: "three of seven", record: Profile{Username: "alice", FullName: "Alice", Bio: "hi"}, want: 43},
		{name: "four of seven", record: Profile{Username: "alice", FullName: "Alice", Bio: "hi", State: "Goa"}, want: 57},
		{name: "five of seven", record: Profile{Username: "alice", FullName: "Alice", Bio: "hi", State: "Goa", Gender: "f"}, want: 71},
		{name: "six of seven", record: Profile{Username: "alice", FullName: "Alice", Bio: "hi", State: "Goa", Gender: "f", Tags: "a"}, want: 86},
	}
	for _, testCase := range cases {
		if got := Completion(&testCase.record); got != testCase.want {
			t.Fatalf("%s: expected %d, got %d", testCase.name, testCase.want, got)
		}
	}
}

func TestCompletionIgnoresWhitespaceOnlyFields(t *testing.T) {
	record := &Profile{FullName: "   ", Tags: " \t ", Bio: "\n"}
	if got := Completion(record); got != 0 {
		t.Fatalf("expected whitespace-only fields to count as empty, got %d", got)
	}
}

func TestAgeDecrementsBeforeBirthday(t *testing.T) {
	dateOfBirth := time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)

	beforeBirthday := time.Date(2026, time.June, 14, 0, 0, 0, 0, time.UTC)
	if got := Age(dateOfBirth, beforeBirthday); got != 35 {
		t.Fatalf("expected 35 before the birthday, got %d", got)
	}

	onBirthday := time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)
	if got := Age(dateOfBirth, onBirthday); got != 36 {
		t.Fatalf("expected 36 on the birthday, got %d", got)
	}

	earlierMonth := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	if got := Age(dateOfBirth, earlierMonth); got != 35 {
		t.Fatalf("expected 35 in an earlier month, got %d", got)
	}
}

func TestDaysSince(t *testing.T) {
	joined := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)
	now := time.Date(2026, time.August, 31, 11, 0, 0, 0, time.UTC)
	if got := DaysSince(joined, now); got != 29 {
		t.Fatalf("expected 29 whole days, got %d", got)
	}
}

func TestSplitTags(t *testing.T) {
	got := SplitTags(" travel , , food,photography ,")
	want := []string{"travel", "food", "photography"}
	if len(got) != len(want) {
		t.Fatalf("expected %d tags, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected tag %q at %d, got %q", want[i], i, got[i])
		}
	}
	if empty := SplitTags(""); len(empty) != 0 {
		t.Fatalf("expected no tags for empty input, got %v", empty)
	}
}
