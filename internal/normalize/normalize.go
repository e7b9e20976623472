// Package normalize canonicalizes free-text exercise names and infers the
// training location of a session from its raw lines.
package normalize

import (
	"regexp"
	"strings"
)

// LocationID identifies one of the known training locations.
type LocationID string

// Known locations. Reference data, never minted by ingestion.
const (
	LocationPlanetFitness LocationID = "planet-fitness"
	LocationWork          LocationID = "work"
	LocationStreet        LocationID = "street"
	LocationUnknown       LocationID = "unknown"
)

var locationPrefixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^g?work\s+`),
	regexp.MustCompile(`(?i)^pf\s+`),
	regexp.MustCompile(`(?i)^home\s+`),
}

var (
	setsToken       = regexp.MustCompile(`(?i)\b\d+\s*sets?\b`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
	standaloneBack  = regexp.MustCompile(`\bback\b`)
	nonAlphaNumeric = regexp.MustCompile(`[^a-z0-9]+`)
)

// Alias reduces a raw exercise line to its normalized lookup key: location
// prefixes stripped, periods removed, parentheses blanked, "N sets" tokens
// dropped, whitespace collapsed, lowercased. Idempotent.
func Alias(raw string) string {
	value := strings.TrimSpace(raw)

	for _, prefix := range locationPrefixes {
		value = prefix.ReplaceAllString(value, "")
	}

	value = strings.ReplaceAll(value, ".", "")
	value = strings.NewReplacer("(", " ", ")", " ").Replace(value)
	value = setsToken.ReplaceAllString(value, " ")
	value = strings.TrimSpace(whitespaceRun.ReplaceAllString(value, " "))

	return strings.ToLower(value)
}

// StripLocationPrefix removes the leading location marker but keeps the rest
// of the raw text intact. Used to record the as-typed alias on an exercise.
func StripLocationPrefix(raw string) string {
	value := strings.TrimSpace(raw)
	for _, prefix := range locationPrefixes {
		value = prefix.ReplaceAllString(value, "")
	}
	return strings.TrimSpace(value)
}

// CanonicalName resolves a raw exercise line with no location context.
func CanonicalName(raw string) string {
	return CanonicalNameForLocation(raw, LocationUnknown)
}

// CanonicalNameForLocation resolves a raw exercise line to its canonical
// display name. The standalone word "back" means different machines at
// different gyms, so it is resolved by location before the general alias
// table is consulted. Unknown aliases fall back to title-casing the
// normalized key, so every input yields a deterministic name.
func CanonicalNameForLocation(raw string, locationID LocationID) string {
	normalized := Alias(raw)

	if standaloneBack.MatchString(normalized) {
		switch locationID {
		case LocationPlanetFitness:
			return "Back Machine Row"
		case LocationWork, LocationUnknown:
			return "One-Arm Dumbbell Row"
		}
	}

	if direct, ok := canonicalByAlias[normalized]; ok {
		return direct
	}

	parts := strings.Fields(normalized)
	for i, part := range parts {
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}

// CanonicalID resolves a raw exercise line to its identity slug with no
// location context.
func CanonicalID(raw string) string {
	return CanonicalIDForLocation(raw, LocationUnknown)
}

// CanonicalIDForLocation resolves a raw exercise line to its identity slug.
func CanonicalIDForLocation(raw string, locationID LocationID) string {
	return Slugify(CanonicalNameForLocation(raw, locationID))
}

// Slugify converts a display name to its lowercase-hyphen identity slug.
func Slugify(value string) string {
	slug := nonAlphaNumeric.ReplaceAllString(strings.ToLower(value), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "exercise"
	}
	return slug
}

// InferLocation guesses the training location for a session from lexical
// prefixes shared by all of its raw exercise lines. All-or-nothing: one line
// without the shared prefix makes the whole session unknown, since
// mixed-prefix sessions cannot be confidently attributed to one place.
func InferLocation(exercises []string) LocationID {
	if len(exercises) == 0 {
		return LocationUnknown
	}

	lowered := make([]string, len(exercises))
	for i, exercise := range exercises {
		lowered[i] = strings.ToLower(strings.TrimSpace(exercise))
	}

	if all(lowered, func(s string) bool { return strings.HasPrefix(s, "pf ") }) {
		return LocationPlanetFitness
	}
	if all(lowered, func(s string) bool {
		return strings.HasPrefix(s, "work ") || strings.HasPrefix(s, "gwork ")
	}) {
		return LocationWork
	}
	if all(lowered, func(s string) bool { return strings.HasPrefix(s, "run") }) {
		return LocationStreet
	}

	return LocationUnknown
}

func all(values []string, predicate func(string) bool) bool {
	for _, value := range values {
		if !predicate(value) {
			return false
		}
	}
	return true
}
