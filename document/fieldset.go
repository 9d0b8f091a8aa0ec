package document

// DocumentType selects the extraction strategy and the required-field list
// for a submission.
type DocumentType string

const (
	IdCard         DocumentType = "id_card"
	DrivingLicence DocumentType = "driving_licence"
	Passport       DocumentType = "passport"
)

// IsValid reports whether the document type is one of the supported variants.
func (dt DocumentType) IsValid() bool {
	switch dt {
	case IdCard, DrivingLicence, Passport:
		return true
	}
	return false
}

// Field names as the consuming form knows them.
const (
	FieldFamilyName     = "familyName"
	FieldGivenName      = "givenName"
	FieldIdentityNumber = "identityNumber"
	FieldCardNumber     = "cardNumber"
	FieldBirthDate      = "birthDate"
	FieldExpiryDate     = "expiryDate"
)

// FieldSet is the structured identity record assembled from OCR text.
// An empty string means the field is unset; extraction never produces a
// set-but-empty value.
type FieldSet struct {
	FamilyName     string
	GivenName      string
	IdentityNumber string
	CardNumber     string
	BirthDate      string // ISO YYYY-MM-DD
	ExpiryDate     string // ISO YYYY-MM-DD
	DocumentType   DocumentType
}

// Merge copies fields from other into f, but only where f is still unset.
// The receiver's values always win, which is how back-face precedence is
// implemented: merge the back-derived set first, then merge the front into it.
func (f *FieldSet) Merge(other FieldSet) {
	if f.FamilyName == "" {
		f.FamilyName = other.FamilyName
	}
	if f.GivenName == "" {
		f.GivenName = other.GivenName
	}
	if f.IdentityNumber == "" {
		f.IdentityNumber = other.IdentityNumber
	}
	if f.CardNumber == "" {
		f.CardNumber = other.CardNumber
	}
	if f.BirthDate == "" {
		f.BirthDate = other.BirthDate
	}
	if f.ExpiryDate == "" {
		f.ExpiryDate = other.ExpiryDate
	}
	if f.DocumentType == "" {
		f.DocumentType = other.DocumentType
	}
}

// RequiredFields returns the fields the consuming form demands for the given
// document type. The passport form has no expiry-date input, the other two
// require the full set.
func RequiredFields(dt DocumentType) []string {
	switch dt {
	case Passport:
		return []string{
			FieldFamilyName, FieldGivenName,
			FieldIdentityNumber, FieldCardNumber,
			FieldBirthDate,
		}
	default:
		return []string{
			FieldFamilyName, FieldGivenName,
			FieldIdentityNumber, FieldCardNumber,
			FieldBirthDate, FieldExpiryDate,
		}
	}
}

// MissingFields returns the names of required fields that are unset or empty,
// in the order RequiredFields lists them.
func (f FieldSet) MissingFields() []string {
	values := map[string]string{
		FieldFamilyName:     f.FamilyName,
		FieldGivenName:      f.GivenName,
		FieldIdentityNumber: f.IdentityNumber,
		FieldCardNumber:     f.CardNumber,
		FieldBirthDate:      f.BirthDate,
		FieldExpiryDate:     f.ExpiryDate,
	}

	var missing []string
	for _, name := range RequiredFields(f.DocumentType) {
		if values[name] == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
