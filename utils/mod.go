package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors for malformed rating inputs.
var (
	ErrInvalidScoreType   = errors.New("invalid score type")
	ErrInvalidScoreFormat = errors.New("invalid score format")
)

// NormalizeRating converts a raw rating (a number, or a string holding one)
// into a reward in [0, 0.95]: the value is clamped to [0, 95] and divided by
// 100. The cap stays below 1.0 so no single sample can saturate a node's
// accumulated value.
func NormalizeRating(score any) (float64, error) {
	if score == nil {
		return 0, fmt.Errorf("%w: score is nil", ErrInvalidScoreType)
	}

	var value float64
	switch s := score.(type) {
	case int:
		value = float64(s)
	case int32:
		value = float64(s)
	case int64:
		value = float64(s)
	case float32:
		value = float64(s)
	case float64:
		value = s
	case json.Number:
		return NormalizeRating(string(s))
	case string:
		if !isNumericScore(s) {
			return 0, fmt.Errorf("%w: %q is not a numeric string", ErrInvalidScoreFormat, s)
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidScoreFormat, s)
		}
		value = parsed
	default:
		return 0, fmt.Errorf("%w: %T", ErrInvalidScoreType, score)
	}

	capped := min(95, max(0, value))
	return capped / 100.0, nil
}

// isNumericScore accepts an optional single leading minus sign, digits, and
// at most one decimal point. Scientific notation is rejected.
func isNumericScore(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}

	digits := 0
	dots := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
			if dots > 1 {
				return false
			}
		default:
			return false
		}
	}
	return digits > 0
}

// ExtractFirstNumber returns the first run of digits found in s, or 0 when s
// contains none. It salvages a rating from a free-text model response that
// ignored the structured schema.
func ExtractFirstNumber(s string) int {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start == -1 {
				start = i
			}
			continue
		}
		if start != -1 {
			n, _ := strconv.Atoi(s[start:i])
			return n
		}
	}
	if start == -1 {
		return 0
	}
	n, _ := strconv.Atoi(s[start:])
	return n
}
