package profile

import (
	"math"
	"strings"
	"time"
)

// completionFieldCount is the number of recognized profile fields. The
// canonical set is {full_name, username, gender, date_of_birth, state, tags,
// bio}; string fields count only when non-empty after trimming.
const completionFieldCount = 7

// Completion computes the 0-100 completion percentage for a profile. A nil
// profile scores 0. The function is pure; the edit view and the public view
// both call it so the field set and rounding rule cannot diverge between
// call sites.
func Completion(p *Profile) int {
	if p == nil {
		return 0
	}
	completed := 0
	for _, populated := range []bool{
		strings.TrimSpace(p.FullName) != "",
		strings.TrimSpace(p.Username) != "",
		strings.TrimSpace(p.Gender) != "",
		p.DateOfBirth != nil,
		strings.TrimSpace(p.State) != "",
		strings.TrimSpace(p.Tags) != "",
		strings.TrimSpace(p.Bio) != "",
	} {
		if populated {
			completed++
		}
	}
	return int(math.Round(float64(completed) / completionFieldCount * 100))
}

// Age returns the whole-year age for the given birth date, decremented by one
// when the current month/day precedes the birth month/day.
func Age(dateOfBirth time.Time, now time.Time) int {
	years := now.Year() - dateOfBirth.Year()
	if now.Month() < dateOfBirth.Month() ||
		(now.Month() == dateOfBirth.Month() && now.Day() < dateOfBirth.Day()) {
		years--
	}
	return years
}

// DaysSince returns the whole number of days elapsed between then and now.
func DaysSince(then time.Time, now time.Time) int {
	return int(now.Sub(then).Hours() / 24)
}
