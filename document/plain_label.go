package document

import "regexp"

// plainLabelStrategy handles documents whose back face prints explicit
// labels. The label match is case-insensitive, the captured value is a run of
// uppercase letters following the colon. A label that is absent or garbled by
// OCR simply leaves the field unset.
type plainLabelStrategy struct{}

var (
	familyNameRe = regexp.MustCompile(`(?i:nom):\s*([A-Z]+)`)
	givenNameRe  = regexp.MustCompile(`(?i:prénom\(s\)):\s*([A-Z]+)`)
)

func (plainLabelStrategy) ExtractFront(text string, referenceYear int) FieldSet {
	return extractFront(text, cardNumberDigits)
}

func (plainLabelStrategy) ExtractBack(text string, referenceYear int) FieldSet {
	text = normalizeText(text)

	var fields FieldSet
	if m := familyNameRe.FindStringSubmatch(text); m != nil {
		fields.FamilyName = m[1]
	}
	if m := givenNameRe.FindStringSubmatch(text); m != nil {
		fields.GivenName = m[1]
	}
	return fields
}
