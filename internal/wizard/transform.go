package wizard

// transform.go is the catalog of named column transformations a mapping
// may reference. The load runner applies them row by row; the wizard only
// needs the names for validation, the metadata for display, and a
// single-value Apply for previewing the effect on a sample cell.

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// TransformationCategory groups transformations for display.
type TransformationCategory string

const (
	CategoryString       TransformationCategory = "string"
	CategoryDate         TransformationCategory = "date"
	CategoryNumeric      TransformationCategory = "numeric"
	CategoryNullHandling TransformationCategory = "null_handling"
)

// Transformation describes one named operation.
type Transformation struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Category    TransformationCategory `json:"category"`
}

var transformations = map[string]Transformation{
	"UPPER":         {"UPPER", "Convert text to UPPERCASE", CategoryString},
	"LOWER":         {"LOWER", "Convert text to lowercase", CategoryString},
	"TRIM":          {"TRIM", "Remove leading and trailing whitespace", CategoryString},
	"LTRIM":         {"LTRIM", "Remove leading whitespace", CategoryString},
	"RTRIM":         {"RTRIM", "Remove trailing whitespace", CategoryString},
	"REMOVE_SPACES": {"REMOVE_SPACES", "Remove all spaces from text", CategoryString},
	"CAPITALIZE":    {"CAPITALIZE", "Capitalize first letter of each value", CategoryString},
	"TITLE":         {"TITLE", "Convert To Title Case", CategoryString},
	"REVERSE":       {"REVERSE", "Reverse text", CategoryString},
	"LENGTH":        {"LENGTH", "Get length of text", CategoryString},

	"EXTRACT_YEAR":  {"EXTRACT_YEAR", "Extract year from date (e.g., 2024)", CategoryDate},
	"EXTRACT_MONTH": {"EXTRACT_MONTH", "Extract month number (1-12)", CategoryDate},
	"EXTRACT_DAY":   {"EXTRACT_DAY", "Extract day of month (1-31)", CategoryDate},
	"TODAY":         {"TODAY", "Replace with current date", CategoryDate},
	"NOW":           {"NOW", "Replace with current date and time", CategoryDate},

	"ABS":     {"ABS", "Get absolute value", CategoryNumeric},
	"FLOOR":   {"FLOOR", "Round down to nearest integer", CategoryNumeric},
	"CEILING": {"CEILING", "Round up to nearest integer", CategoryNumeric},

	"FILL_NULL": {"FILL_NULL", "Replace null values with empty string", CategoryNullHandling},
	"FILL_ZERO": {"FILL_ZERO", "Replace null values with zero", CategoryNullHandling},
}

// Transformations returns the full catalog sorted by category then name.
func Transformations() []Transformation {
	out := make([]Transformation, 0, len(transformations))
	for _, t := range transformations {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// KnownTransformation reports whether name is in the catalog. The empty
// name and "none" are accepted as no-ops.
func KnownTransformation(name string) bool {
	if name == "" || name == "none" {
		return true
	}
	_, ok := transformations[name]
	return ok
}

// ApplyTransformations applies the named transformations to a single
// value in listed order. Used for sample-cell previews in the mapping
// step; the actual load applies the same names column-wide.
func ApplyTransformations(value string, names []string) (string, error) {
	out := value
	for _, name := range names {
		var err error
		out, err = applyOne(out, name)
		if err != nil {
			return "", err
		}
	}
	return out, nil
}

// dateLayouts are the formats tried when a date transformation parses its
// input.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
}

func applyOne(value, name string) (string, error) {
	switch name {
	case "", "none":
		return value, nil
	case "UPPER":
		return strings.ToUpper(value), nil
	case "LOWER":
		return strings.ToLower(value), nil
	case "TRIM":
		return strings.TrimSpace(value), nil
	case "LTRIM":
		return strings.TrimLeft(value, " \t\r\n"), nil
	case "RTRIM":
		return strings.TrimRight(value, " \t\r\n"), nil
	case "REMOVE_SPACES":
		return strings.ReplaceAll(value, " ", ""), nil
	case "CAPITALIZE":
		if value == "" {
			return value, nil
		}
		r, size := utf8.DecodeRuneInString(value)
		return strings.ToUpper(string(r)) + strings.ToLower(value[size:]), nil
	case "TITLE":
		return titleCase(value), nil
	case "REVERSE":
		runes := []rune(value)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return string(runes), nil
	case "LENGTH":
		return strconv.Itoa(utf8.RuneCountInString(value)), nil

	case "EXTRACT_YEAR":
		return extractDatePart(value, func(t time.Time) int { return t.Year() })
	case "EXTRACT_MONTH":
		return extractDatePart(value, func(t time.Time) int { return int(t.Month()) })
	case "EXTRACT_DAY":
		return extractDatePart(value, func(t time.Time) int { return t.Day() })
	case "TODAY":
		return time.Now().Format("2006-01-02"), nil
	case "NOW":
		return time.Now().Format("2006-01-02 15:04:05"), nil

	case "ABS", "FLOOR", "CEILING":
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return "", fmt.Errorf("transformation %s: %q is not numeric", name, value)
		}
		switch name {
		case "ABS":
			f = math.Abs(f)
		case "FLOOR":
			f = math.Floor(f)
		case "CEILING":
			f = math.Ceil(f)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil

	// Preview values have no null representation beyond the empty
	// string, so both fills treat empty as null, same as the loader.
	case "FILL_NULL":
		if value == "" {
			return "", nil
		}
		return value, nil
	case "FILL_ZERO":
		if value == "" {
			return "0", nil
		}
		return value, nil

	default:
		return "", fmt.Errorf("unknown transformation %q", name)
	}
}

func extractDatePart(value string, part func(time.Time) int) (string, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(value)); err == nil {
			return strconv.Itoa(part(t)), nil
		}
	}
	return "", fmt.Errorf("%q is not a recognized date", value)
}

func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		isLetter := ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
		switch {
		case isLetter && !prevLetter:
			b.WriteString(strings.ToUpper(string(r)))
		case isLetter:
			b.WriteString(strings.ToLower(string(r)))
		default:
			b.WriteRune(r)
		}
		prevLetter = isLetter
	}
	return b.String()
}
