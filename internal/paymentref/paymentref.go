// Package paymentref encodes the Swiss QR-bill payment reference (the
// 27-digit QR reference, formerly ISR) used to match incoming bank payments
// to invoices. Check digits follow the recursive Modulo 10 algorithm from
// Annex B of the Swiss payment standard.
package paymentref

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	baseLength      = 26
	referenceLength = 27
)

var (
	ErrNotNumeric = errors.New("reference_not_numeric")
	ErrTooLong    = errors.New("reference_base_too_long")
)

// mod10Table is the fixed carry table from Annex B.
var mod10Table = [10]int{0, 9, 4, 6, 8, 2, 7, 1, 3, 5}

// Modulo10Recursive computes the Annex B check digit over a digit string.
func Modulo10Recursive(number string) (string, error) {
	carry := 0
	for _, r := range number {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q", ErrNotNumeric, number)
		}
		carry = mod10Table[(int(r-'0')+carry)%10]
	}
	return string(rune('0' + (10-carry)%10)), nil
}

// GenerateReference builds the 27-character QR reference: the base number
// (the invoice's numeric identifier) left-padded with zeros to 26 digits,
// followed by its check digit.
func GenerateReference(baseNumber string) (string, error) {
	base := strings.TrimSpace(baseNumber)
	if len(base) > baseLength {
		return "", fmt.Errorf("%w: %d digits", ErrTooLong, len(base))
	}
	base = strings.Repeat("0", baseLength-len(base)) + base

	check, err := Modulo10Recursive(base)
	if err != nil {
		return "", err
	}
	return base + check, nil
}

// GenerateReferenceFromID is GenerateReference for a numeric primary key.
func GenerateReferenceFromID(id int64) (string, error) {
	if id < 0 {
		return "", fmt.Errorf("%w: negative id", ErrNotNumeric)
	}
	return GenerateReference(fmt.Sprintf("%d", id))
}

// Party is one address block of a QR-bill payload.
type Party struct {
	Name       string
	Street     string
	PostalCode string
	City       string
	Country    string
}

// Payload carries everything the document renderer needs to draw the
// QR-bill payment part. Rendering itself is outside the engine.
type Payload struct {
	Account               string
	Creditor              Party
	Debtor                Party
	Amount                string
	Currency              string
	Reference             string
	AdditionalInformation string
}

// NewPayload assembles a QR-bill payload for an invoice total. The amount is
// always formatted with two decimals and the additional-information line is
// the conventional "Rechnung {number}".
func NewPayload(account string, creditor, debtor Party, amount decimal.Decimal, invoiceNumber string, invoiceID int64) (Payload, error) {
	reference, err := GenerateReferenceFromID(invoiceID)
	if err != nil {
		return Payload{}, err
	}
	return Payload{
		Account:               account,
		Creditor:              creditor,
		Debtor:                debtor,
		Amount:                amount.StringFixed(2),
		Currency:              "CHF",
		Reference:             reference,
		AdditionalInformation: fmt.Sprintf("Rechnung %s", invoiceNumber),
	}, nil
}
