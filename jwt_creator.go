package main

import (
	"crypto/rsa"
	"os"
	"time"

	"go-ekyc-gateway/pipeline"

	"github.com/golang-jwt/jwt/v4"
)

func NewReceiptJwtCreator(privateKeyPath string, issuerId string, validity time.Duration) (*DefaultJwtCreator, error) {
	keyBytes, err := os.ReadFile(privateKeyPath)

	if err != nil {
		return nil, err
	}

	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(keyBytes)

	if err != nil {
		return nil, err
	}

	return &DefaultJwtCreator{
		issuerId:   issuerId,
		privateKey: privateKey,
		validity:   validity,
	}, nil
}

type DefaultJwtCreator struct {
	privateKey *rsa.PrivateKey
	issuerId   string
	validity   time.Duration
}

// CreateReceiptJwt signs a receipt for an accepted submission. The receipt
// carries the extracted fields so a relying party can check them against the
// stored record without another round trip.
func (jc *DefaultJwtCreator) CreateReceiptJwt(record *pipeline.Record) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":             jc.issuerId,
		"sub":             record.ID,
		"iat":             now.Unix(),
		"exp":             now.Add(jc.validity).Unix(),
		"document_type":   string(record.Fields.DocumentType),
		"family_name":     record.Fields.FamilyName,
		"given_name":      record.Fields.GivenName,
		"identity_number": record.Fields.IdentityNumber,
		"card_number":     record.Fields.CardNumber,
		"birth_date":      record.Fields.BirthDate,
		"expiry_date":     record.Fields.ExpiryDate,
		"liveness":        string(record.Liveness.Verdict),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(jc.privateKey)
}
