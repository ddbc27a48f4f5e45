package defense

import (
	"regexp"
	"sort"
)

// rawTimeRegex matches "H:MM" and "HH:MM". Anything else is passed through
// unchanged: malformed times simply never merge during dedup.
var rawTimeRegex = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// NormalizeTime canonicalizes a raw wall-clock time to a zero-padded
// "HH:MM" slot key. Idempotent: normalizing an already-normalized time is
// a no-op.
func NormalizeTime(raw string) string {
	if !rawTimeRegex.MatchString(raw) {
		return raw
	}
	if len(raw) == 4 { // "H:MM"
		return "0" + raw
	}
	return raw
}

// DedupeProfessorsForDay drops entries resolving to a (professor, slot)
// pair already seen, keeping the first occurrence and first-seen order.
// Kept entries have their Time rewritten to the normalized slot key.
func DedupeProfessorsForDay(entries []AvailabilityEntry) []AvailabilityEntry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]AvailabilityEntry, 0, len(entries))
	for _, e := range entries {
		slot := NormalizeTime(e.Time)
		key := e.ProfessorID + "-" + slot
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		e.Time = slot
		out = append(out, e)
	}
	return out
}

// GroupByTime buckets a day's entries by normalized slot key.
func GroupByTime(entries []AvailabilityEntry) map[string][]AvailabilityEntry {
	groups := make(map[string][]AvailabilityEntry)
	for _, e := range entries {
		slot := NormalizeTime(e.Time)
		groups[slot] = append(groups[slot], e)
	}
	return groups
}

// SortedTimes returns the group keys in ascending lexicographic order,
// which is chronological for zero-padded 24h slot keys.
func SortedTimes(groups map[string][]AvailabilityEntry) []string {
	times := make([]string, 0, len(groups))
	for slot := range groups {
		times = append(times, slot)
	}
	sort.Strings(times)
	return times
}
