// Package parse segments raw gym-log text into dated session blocks.
package parse

import (
	"strings"
	"time"

	"example.com/gymlog/internal/logdate"
)

// Session is one date-anchored block of raw exercise lines.
type Session struct {
	SessionDate string
	Exercises   []string
	NotesRaw    string
}

// GymText splits raw multi-line log text into ordered sessions. Each session
// is anchored by a "Month Day" header line and collects the exercise lines
// that follow until the next header. Headers with no exercise lines beneath
// them are dropped, which tolerates stray or duplicated date lines. A first
// line reading just "gym" is treated as a document title, not data.
func GymText(text string, now time.Time) []Session {
	var lines []string
	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if len(lines) == 0 && strings.EqualFold(line, "gym") {
			continue
		}
		lines = append(lines, line)
	}

	var sessions []Session
	previousDate := ""

	i := 0
	for i < len(lines) {
		line := lines[i]
		if !logdate.IsMonthDayLabel(line) {
			i++
			continue
		}

		sessionDate, err := logdate.Resolve(line, previousDate, now)
		if err != nil {
			// IsMonthDayLabel accepted it, so Resolve cannot fail here.
			i++
			continue
		}
		previousDate = sessionDate
		i++

		var exercises []string
		for i < len(lines) && !logdate.IsMonthDayLabel(lines[i]) {
			exercises = append(exercises, lines[i])
			i++
		}

		if len(exercises) > 0 {
			sessions = append(sessions, Session{
				SessionDate: sessionDate,
				Exercises:   exercises,
				NotesRaw:    line,
			})
		}
	}

	return sessions
}
