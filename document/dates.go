package document

import "fmt"

// DateComponents holds a two-digit-year date exactly as it was read from the
// document text, together with the disambiguated ISO form.
type DateComponents struct {
	YY  string
	MM  string
	DD  string
	ISO string // YYYY-MM-DD
}

// NormalizeDate disambiguates the century of a yy/mm/dd triple against an
// explicit reference year. With current2 = referenceYear mod 100, a two-digit
// year at or below current2 is read as 20yy, anything above as 19yy. Identity
// documents never carry dates more than about a century away from "now", so a
// floating pivot never goes stale the way a hard-coded one does.
//
// The inputs must already match their digit patterns (2/2/2); the caller
// validates that. No month-length or leap-year checking is done here, a
// syntactically valid but calendrically impossible day passes through as-is.
func NormalizeDate(yy, mm, dd string, referenceYear int) DateComponents {
	current2 := referenceYear % 100

	var y int
	fmt.Sscanf(yy, "%d", &y)

	year := 1900 + y
	if y <= current2 {
		year = 2000 + y
	}

	return DateComponents{
		YY:  yy,
		MM:  mm,
		DD:  dd,
		ISO: fmt.Sprintf("%04d-%s-%s", year, mm, dd),
	}
}
