package document

import (
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Strategy extracts a partial FieldSet from the OCR text of one document
// face. Every match is best effort: a pattern that fails to match leaves the
// corresponding field unset, it never produces an error. Worst case for
// adversarial or garbled text is an all-unset FieldSet.
type Strategy interface {
	ExtractFront(text string, referenceYear int) FieldSet
	ExtractBack(text string, referenceYear int) FieldSet
}

// StrategyFor returns the extraction strategy for a document type. ID cards
// print plain-language labels on the back and restrict the card number to
// digits; driving licences and passports carry an MRZ-style back line and
// allow alphanumeric card numbers.
func StrategyFor(dt DocumentType) Strategy {
	switch dt {
	case IdCard:
		return plainLabelStrategy{}
	default:
		return mrzStrategy{}
	}
}

// Extract runs front and back extraction for the given document type and
// merges the partial results. Back-derived values take precedence: the
// MRZ-style patterns are structurally more constrained than the front-face
// three-dates fallback, so they are less prone to false positives.
//
// referenceYear feeds the century disambiguation; it is passed in rather than
// read from the clock so repeated runs over the same text are bit-identical.
func Extract(dt DocumentType, frontText, backText string, referenceYear int) FieldSet {
	strategy := StrategyFor(dt)

	fields := strategy.ExtractBack(backText, referenceYear)
	fields.Merge(strategy.ExtractFront(frontText, referenceYear))
	fields.DocumentType = dt

	slog.Debug("Field extraction completed",
		"document_type", dt,
		"missing_fields", fields.MissingFields())
	return fields
}

// -----------------------------------------------------------------------------------
// Front-face extraction, shared across document types.

var (
	identityNumberRe = regexp.MustCompile(`\b\d{18}\b`)
	cardNumberDigits = regexp.MustCompile(`\b\d{9}\b`)
	cardNumberAlnum  = regexp.MustCompile(`\b[A-Z0-9]{9}\b`)
	dottedDateRe     = regexp.MustCompile(`\b(\d{4})\.(\d{2})\.(\d{2})\b`)
)

// extractFront pulls the identity number, card number and the dotted-date
// fallback out of the front-face text. The 18-digit identity number and the
// 9-character card number are bounded by word boundaries, so an adjacent
// longer digit run is never truncated into a match.
func extractFront(text string, cardNumberPattern *regexp.Regexp) FieldSet {
	text = normalizeText(text)

	var fields FieldSet
	fields.IdentityNumber = identityNumberRe.FindString(text)
	fields.CardNumber = cardNumberPattern.FindString(text)

	// Some layouts print issue, expiry and birth dates as YYYY.MM.DD on the
	// front, in that document order. The 2nd occurrence is the expiry date
	// and the 3rd the birth date; both yield to back-derived values on merge.
	dates := dottedDateRe.FindAllStringSubmatch(text, -1)
	if len(dates) >= 2 {
		fields.ExpiryDate = isoFromDotted(dates[1])
	}
	if len(dates) >= 3 {
		fields.BirthDate = isoFromDotted(dates[2])
	}

	return fields
}

func isoFromDotted(match []string) string {
	return match[1] + "-" + match[2] + "-" + match[3]
}

// normalizeText NFC-normalizes OCR output so decomposed accents still match
// literal patterns like "Prénom".
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
