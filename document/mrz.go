package document

import (
	"regexp"
	"strings"
)

// mrzStrategy handles documents whose back face carries a machine-readable
// zone. Names come from the first line containing the "<<" delimiter: the
// uppercase run before it is the family name, the run after it the given
// name. Dates are six-digit runs anchored on the sex marker (M or F): the
// last run ending just before the marker is the birth date, the run starting
// immediately after it is the expiry date. Both pass through NormalizeDate.
type mrzStrategy struct{}

var (
	mrzNameRe   = regexp.MustCompile(`([A-Z]+)<<([A-Z]+)`)
	sixDigitRun = regexp.MustCompile(`\d{6}`)
)

// A check digit and an occasional OCR-mangled filler may sit between the
// birth-date run and the sex marker.
const maxBirthMarkerGap = 2

func (mrzStrategy) ExtractFront(text string, referenceYear int) FieldSet {
	return extractFront(text, cardNumberAlnum)
}

func (mrzStrategy) ExtractBack(text string, referenceYear int) FieldSet {
	text = normalizeText(text)

	var fields FieldSet
	for _, line := range strings.Split(text, "\n") {
		if fields.FamilyName == "" && strings.Contains(line, "<<") {
			if m := mrzNameRe.FindStringSubmatch(line); m != nil {
				fields.FamilyName = m[1]
				fields.GivenName = m[2]
			}
		}
		if fields.BirthDate == "" && fields.ExpiryDate == "" {
			birth, expiry := extractMRZDates(line, referenceYear)
			fields.BirthDate = birth
			fields.ExpiryDate = expiry
		}
	}
	return fields
}

// extractMRZDates scans one line for a sex marker with six-digit date runs
// around it. Runs with an out-of-range month or day are treated as misses so
// a stray digit sequence never masquerades as a date; month-length validation
// beyond [1,12]/[1,31] is deliberately not done.
func extractMRZDates(line string, referenceYear int) (birth, expiry string) {
	runs := sixDigitRun.FindAllStringIndex(line, -1)
	if len(runs) == 0 {
		return "", ""
	}

	marker := strings.IndexAny(line, "MF")
	for marker >= 0 {
		for _, run := range runs {
			start, end := run[0], run[1]
			if end <= marker && marker-end <= maxBirthMarkerGap && birth == "" {
				birth = normalizeRun(line[start:end], referenceYear)
			}
			if start == marker+1 && expiry == "" {
				expiry = normalizeRun(line[start:end], referenceYear)
			}
		}
		if birth != "" || expiry != "" {
			return birth, expiry
		}
		next := strings.IndexAny(line[marker+1:], "MF")
		if next < 0 {
			break
		}
		marker += 1 + next
	}
	return "", ""
}

// normalizeRun turns a yymmdd run into an ISO date, or "" when the month or
// day component is out of range.
func normalizeRun(run string, referenceYear int) string {
	yy, mm, dd := run[0:2], run[2:4], run[4:6]
	if !digitsInRange(mm, 1, 12) || !digitsInRange(dd, 1, 31) {
		return ""
	}
	return NormalizeDate(yy, mm, dd, referenceYear).ISO
}

func digitsInRange(s string, lo, hi int) bool {
	v := int(s[0]-'0')*10 + int(s[1]-'0')
	return v >= lo && v <= hi
}
