package outputparser

import (
	"strconv"
	"strings"
)

// ParseNumber extracts a single float64 from response, handling a direct
// number, a labeled pattern ("Score: 8.5", "Rating: 8", "Result: 3"), a
// fraction pattern ("8/10" extracts the numerator), and falling back to
// the last number-like substring found (LLMs tend to put the answer at
// the end).
func ParseNumber(response string) (float64, error) {
	cleaned := Preprocess(response)
	if cleaned == "" {
		return 0, errEmptyResponse()
	}

	if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return v, nil
	}

	lower := strings.ToLower(cleaned)
	for _, label := range []string{"score:", "rating:", "result:"} {
		if pos := strings.Index(lower, label); pos >= 0 {
			after := cleaned[pos+len(label):]
			nums := findAllNumbers(after)
			if len(nums) > 0 {
				if v, err := strconv.ParseFloat(nums[0], 64); err == nil {
					return v, nil
				}
			}
		}
	}

	if v, ok := extractFraction(cleaned); ok {
		return v, nil
	}

	numbers := findAllNumbers(cleaned)
	for i := len(numbers) - 1; i >= 0; i-- {
		if v, err := strconv.ParseFloat(numbers[i], 64); err == nil {
			return v, nil
		}
	}

	return 0, errNoNumber()
}

// ParseNumberInRange parses a number via ParseNumber and rejects it if it
// falls outside [min, max].
func ParseNumberInRange(response string, min, max float64) (float64, error) {
	v, err := ParseNumber(response)
	if err != nil {
		return 0, err
	}
	if v < min || v > max {
		return 0, errNoNumber()
	}
	return v, nil
}

// extractFraction finds a "N/M" pattern and returns N, scanning backward
// from the "/" for digits, ".", and a leading "-".
func extractFraction(text string) (float64, bool) {
	for i, c := range text {
		if c != '/' {
			continue
		}
		start := i
		for start > 0 {
			prev := rune(text[start-1])
			if (prev >= '0' && prev <= '9') || prev == '.' || prev == '-' {
				start--
			} else {
				break
			}
		}
		if start < i {
			if v, err := strconv.ParseFloat(text[start:i], 64); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

// findAllNumbers returns every number-like substring in text: digits,
// optional decimal portion, optional leading minus.
func findAllNumbers(text string) []string {
	var numbers []string
	runes := []rune(text)
	n := len(runes)
	i := 0
	for i < n {
		isNegative := runes[i] == '-' && i+1 < n && isDigit(runes[i+1])
		isDigitStart := isDigit(runes[i])
		if isDigitStart || isNegative {
			start := i
			if isNegative {
				i++
			}
			for i < n && isDigit(runes[i]) {
				i++
			}
			if i < n && runes[i] == '.' && i+1 < n && isDigit(runes[i+1]) {
				i++
				for i < n && isDigit(runes[i]) {
					i++
				}
			}
			numbers = append(numbers, string(runes[start:i]))
			continue
		}
		i++
	}
	return numbers
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
