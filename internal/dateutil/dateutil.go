// Package dateutil resolves document dates: the "auto" syntax accepted in
// configuration and the D:YYYYMMDDHHmmSS form found in PDF Info
// dictionaries.
package dateutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDateFormat indicates an invalid date format string.
var ErrInvalidDateFormat = errors.New("invalid date format")

// ErrInvalidPDFDate indicates a PDF date string that cannot be parsed.
var ErrInvalidPDFDate = errors.New("invalid PDF date")

// MaxDateFormatLength limits format string length to prevent abuse.
const MaxDateFormatLength = 50

// DefaultDateFormat is the xs:date layout OFD uses for CreationDate.
const DefaultDateFormat = "YYYY-MM-DD"

// dateTokens maps user-friendly tokens to Go time format components.
// Ordered by length descending for greedy matching.
var dateTokens = []struct {
	token string
	goFmt string
}{
	{"YYYY", "2006"},
	{"MMMM", "January"},
	{"MMM", "Jan"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"M", "1"},
	{"D", "2"},
}

// DatePresets provides named shortcuts for common date formats.
var DatePresets = map[string]string{
	"iso":     "YYYY-MM-DD",
	"compact": "YYYYMMDD",
	"cn":      "YYYY[年]M[月]D[日]",
}

// ParseDateFormat converts a user-friendly format string to Go's time format.
// Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D. Text inside brackets is kept
// literally, as is any other character.
func ParseDateFormat(format string) (string, error) {
	if format == "" {
		return "", fmt.Errorf("%w: format cannot be empty", ErrInvalidDateFormat)
	}
	if len(format) > MaxDateFormatLength {
		return "", fmt.Errorf("%w: format exceeds %d characters", ErrInvalidDateFormat, MaxDateFormatLength)
	}

	var result strings.Builder
	result.Grow(len(format) + 10)

	i := 0
	for i < len(format) {
		if format[i] == '[' {
			end := strings.IndexByte(format[i+1:], ']')
			if end == -1 {
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, i)
			}
			result.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		}

		matched := false
		for _, t := range dateTokens {
			if strings.HasPrefix(format[i:], t.token) {
				result.WriteString(t.goFmt)
				i += len(t.token)
				matched = true
				break
			}
		}
		if !matched {
			result.WriteByte(format[i])
			i++
		}
	}

	return result.String(), nil
}

// ResolveDate handles the "auto" syntax for document.date:
//   - "auto" is t in YYYY-MM-DD;
//   - "auto:FORMAT" or "auto:preset" is t in that format;
//   - any other value is returned unchanged.
func ResolveDate(value string, t time.Time) (string, error) {
	lower := strings.ToLower(value)
	if !strings.HasPrefix(lower, "auto") {
		return value, nil
	}

	format := DefaultDateFormat
	if lower != "auto" {
		if !strings.HasPrefix(lower, "auto:") {
			return "", fmt.Errorf("%w: invalid auto syntax %q, use \"auto\" or \"auto:FORMAT\"", ErrInvalidDateFormat, value)
		}
		format = value[len("auto:"):]
		if format == "" {
			return "", fmt.Errorf("%w: format cannot be empty after \"auto:\"", ErrInvalidDateFormat)
		}
		if preset, ok := DatePresets[strings.ToLower(format)]; ok {
			format = preset
		}
	}

	goFmt, err := ParseDateFormat(format)
	if err != nil {
		return "", err
	}
	return t.Format(goFmt), nil
}

// ParsePDFDate parses a PDF date string, D:YYYYMMDDHHmmSSOHH'mm'. Every
// part after the year is optional; the "D:" prefix may be omitted. Without
// an offset the time is UTC.
func ParsePDFDate(s string) (time.Time, error) {
	v := strings.TrimPrefix(strings.TrimSpace(s), "D:")
	if len(v) < 4 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPDFDate, s)
	}

	// Year, month, day, hour, minute, second with their defaults.
	fields := [6]int{0, 1, 1, 0, 0, 0}
	widths := [6]int{4, 2, 2, 2, 2, 2}
	pos := 0
	for i, w := range widths {
		if pos+w > len(v) || !digits(v[pos:pos+w]) {
			if i == 0 {
				return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPDFDate, s)
			}
			break
		}
		fields[i], _ = strconv.Atoi(v[pos : pos+w])
		pos += w
	}

	loc := time.UTC
	if rest := v[pos:]; rest != "" {
		switch rest[0] {
		case 'Z':
		case '+', '-':
			off := strings.ReplaceAll(rest[1:], "'", "")
			if len(off) < 2 || !digits(off[:2]) {
				return time.Time{}, fmt.Errorf("%w: bad offset in %q", ErrInvalidPDFDate, s)
			}
			hh, _ := strconv.Atoi(off[:2])
			mm := 0
			if len(off) >= 4 && digits(off[2:4]) {
				mm, _ = strconv.Atoi(off[2:4])
			}
			secs := hh*3600 + mm*60
			if rest[0] == '-' {
				secs = -secs
			}
			loc = time.FixedZone("", secs)
		default:
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidPDFDate, s)
		}
	}

	t := time.Date(fields[0], time.Month(fields[1]), fields[2], fields[3], fields[4], fields[5], 0, loc)
	if t.Month() != time.Month(fields[1]) || t.Day() != fields[2] {
		return time.Time{}, fmt.Errorf("%w: %q is out of range", ErrInvalidPDFDate, s)
	}
	return t, nil
}

// PDFToOFD converts a PDF date to an OFD CreationDate. Unparseable input
// yields "".
func PDFToOFD(s string) string {
	t, err := ParsePDFDate(s)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
