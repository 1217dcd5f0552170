package hunt

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/umahmood/haversine"
)

const (
	// textMatchThreshold is the minimum similarity ratio (0-100) for a
	// text answer to count as correct.
	textMatchThreshold = 85

	// maxAnswerWords bounds the permutation search; answers with more
	// words are rejected outright.
	maxAnswerWords = 6

	// DefaultLocationTolerance is how close a submitted coordinate must
	// be to the expected one, in meters.
	DefaultLocationTolerance = 400.0
)

// ErrMalformedCoordinate is returned when a location answer cannot be
// parsed as a "lat,lon" pair.
var ErrMalformedCoordinate = errors.New("malformed coordinate")

// Verifier checks a submitted answer against a task's expected answer.
// One implementation exists per answer kind; verification never
// mutates anything and is safe to call concurrently.
type Verifier interface {
	Verify(submitted string) (bool, error)
}

// TextAnswer verifies free-text answers with tolerance for minor
// misspellings, word reordering, and extra or missing filler words.
type TextAnswer struct {
	Correct string
}

func (a TextAnswer) Verify(submitted string) (bool, error) {
	return MatchText(a.Correct, submitted), nil
}

// MatchText reports whether submitted is close enough to correct.
//
// The stored answer is lowercased with all whitespace removed. The
// submitted answer is lowercased and split into words; every ordered
// permutation of every subset of those words is joined without
// separators and scored against the stored answer. A single
// permutation scoring at or above the threshold is a match. Answers
// longer than maxAnswerWords never match: the candidate count grows
// factorially and six words already covers any reasonable answer.
func MatchText(correct, submitted string) bool {
	want := normalizeAnswer(correct)
	words := strings.Fields(strings.ToLower(submitted))
	if len(words) > maxAnswerWords {
		return false
	}
	used := make([]bool, len(words))
	return permuteMatch(words, used, "", want)
}

// permuteMatch tries every ordered permutation of the unused words
// appended to prefix, returning early on the first candidate that
// clears the threshold. Every non-empty prefix is itself a candidate,
// which yields all permutations of length 1..len(words).
func permuteMatch(words []string, used []bool, prefix, want string) bool {
	for i, w := range words {
		if used[i] {
			continue
		}
		candidate := prefix + w
		if similarityRatio(candidate, want) >= textMatchThreshold {
			return true
		}
		used[i] = true
		if permuteMatch(words, used, candidate, want) {
			used[i] = false
			return true
		}
		used[i] = false
	}
	return false
}

func normalizeAnswer(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}

// similarityRatio scores two strings on a 0-100 scale from their
// Levenshtein distance, where 100 is an exact match.
func similarityRatio(a, b string) int {
	if a == b {
		return 100
	}
	longer := len([]rune(a))
	if l := len([]rune(b)); l > longer {
		longer = l
	}
	if longer == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * float64(longer-d) / float64(longer)))
}

// LocationAnswer verifies geographic answers: both sides are "lat,lon"
// strings and the submitted point must lie within Tolerance meters of
// the expected one, measured along the great circle.
type LocationAnswer struct {
	Correct   string
	Tolerance float64 // meters; zero means DefaultLocationTolerance
}

func (a LocationAnswer) Verify(submitted string) (bool, error) {
	want, err := ParseCoordinate(a.Correct)
	if err != nil {
		// The stored answer is server data. Surfacing it, even inside a
		// parse error, would hand the player the answer, so this is an
		// internal error and deliberately does not match
		// ErrMalformedCoordinate.
		return false, errors.New("stored location answer is not a coordinate pair")
	}
	got, err := ParseCoordinate(submitted)
	if err != nil {
		return false, fmt.Errorf("submitted answer: %w", err)
	}

	tolerance := a.Tolerance
	if tolerance == 0 {
		tolerance = DefaultLocationTolerance
	}

	_, km := haversine.Distance(want, got)
	return km*1000 < tolerance, nil
}

// ParseCoordinate parses a "lat,lon" string into a coordinate.
func ParseCoordinate(s string) (haversine.Coord, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return haversine.Coord{}, fmt.Errorf("%w: %q", ErrMalformedCoordinate, s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return haversine.Coord{}, fmt.Errorf("%w: %q", ErrMalformedCoordinate, s)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return haversine.Coord{}, fmt.Errorf("%w: %q", ErrMalformedCoordinate, s)
	}
	return haversine.Coord{Lat: lat, Lon: lon}, nil
}

// ImageAnswer verifies image answers. The caller resolves the
// submitted image id to its record; the verdict is the record's flag.
type ImageAnswer struct {
	IsCorrect bool
}

func (a ImageAnswer) Verify(string) (bool, error) {
	return a.IsCorrect, nil
}
