// Package timeutil converts between user-entered worklog durations
// ("2h 30m"), tracker-acceptable duration strings, and raw seconds.
package timeutil

import (
	"strconv"
	"strings"

	"github.com/crmarques/boardprompt/faults"
)

var unitSeconds = []struct {
	suffix  byte
	seconds int64
}{
	{'d', 8 * 60 * 60}, // tracker working day
	{'h', 60 * 60},
	{'m', 60},
	{'s', 1},
}

// SanitizeWorklog normalizes a user-entered duration into the canonical
// "<N>d <N>h <N>m <N>s" form the remote tracker accepts. A bare number is
// passed through unchanged so the server can apply its own default unit.
func SanitizeWorklog(input string) string {
	compact := strings.ReplaceAll(input, " ", "")
	if compact == "" {
		return ""
	}

	var out []string
	for _, unit := range unitSeconds {
		if amount := amountBefore(compact, unit.suffix); amount != "" {
			out = append(out, amount+string(unit.suffix))
		}
	}
	if len(out) == 0 {
		return compact
	}
	return strings.Join(out, " ")
}

// ParseWorklogSeconds converts a duration string such as "2h30m" to seconds.
func ParseWorklogSeconds(input string) (int64, error) {
	compact := strings.ReplaceAll(input, " ", "")
	if compact == "" {
		return 0, faults.Validation("worklog duration is empty", nil)
	}

	if plain, err := strconv.ParseInt(compact, 10, 64); err == nil {
		if plain < 0 {
			return 0, faults.Validation("worklog duration must not be negative", nil)
		}
		return plain * 60, nil // bare numbers are minutes
	}

	var total int64
	matched := false
	for _, unit := range unitSeconds {
		amount := amountBefore(compact, unit.suffix)
		if amount == "" {
			continue
		}
		value, err := strconv.ParseInt(amount, 10, 64)
		if err != nil {
			return 0, faults.Validation("invalid worklog duration: "+input, err)
		}
		total += value * unit.seconds
		matched = true
	}
	if !matched {
		return 0, faults.Validation("invalid worklog duration: "+input, nil)
	}
	return total, nil
}

// FriendlySeconds renders seconds as a compact duration, e.g. 5400 -> "1h30m".
// Zero or negative values render as "0m", matching tracker conventions.
func FriendlySeconds(seconds int64) string {
	if seconds <= 0 {
		return "0m"
	}
	minutes := seconds / 60
	secs := seconds % 60
	hours := minutes / 60
	minutes = minutes % 60

	var b strings.Builder
	if hours > 0 {
		b.WriteString(strconv.FormatInt(hours, 10))
		b.WriteByte('h')
	}
	if minutes > 0 {
		b.WriteString(strconv.FormatInt(minutes, 10))
		b.WriteByte('m')
	}
	if secs > 0 {
		b.WriteString(strconv.FormatInt(secs, 10))
		b.WriteByte('s')
	}
	return b.String()
}

// amountBefore extracts the digit run immediately preceding the unit suffix.
func amountBefore(compact string, suffix byte) string {
	idx := strings.IndexByte(compact, suffix)
	if idx <= 0 {
		return ""
	}
	start := idx
	for start > 0 && compact[start-1] >= '0' && compact[start-1] <= '9' {
		start--
	}
	return compact[start:idx]
}
