package paymentmethods

import (
	"regexp"
	"strconv"
	"strings"

	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
)

// Card validation messages shown to shoppers.
const (
	MsgCardNumber    = "Card number must be 16 digits."
	MsgCardCVV       = "CVV must be 3 digits."
	MsgExpiryFormat  = "Expiry must be in MM/YY format."
	MsgExpiryInvalid = "Expiry date is invalid or already expired."
)

// minExpiryYear is the smallest accepted two-digit expiry year.
const minExpiryYear = 25

var expiryRe = regexp.MustCompile(`^(\d{2})/?(\d{2})$`)

// CardInput is the raw card form as submitted.
type CardInput struct {
	CardNumber string `json:"cardNumber"`
	CardName   string `json:"cardName"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}

// Card is a validated card. Number is never persisted; only Last4 is.
type Card struct {
	Number string
	Last4  string
	Name   string
	Expiry string
	CVV    string
}

// ValidateCard normalizes and checks the card form. Checks run in the order the
// shopper sees them and stop at the first failure.
func ValidateCard(input CardInput) (Card, error) {
	number := digitsOnly(input.CardNumber)
	if len(number) != 16 {
		return Card{}, pkgerrors.New(pkgerrors.CodeValidation, MsgCardNumber)
	}

	cvv := digitsOnly(input.CVV)
	if len(cvv) != 3 {
		return Card{}, pkgerrors.New(pkgerrors.CodeValidation, MsgCardCVV)
	}

	match := expiryRe.FindStringSubmatch(strings.TrimSpace(input.Expiry))
	if match == nil {
		return Card{}, pkgerrors.New(pkgerrors.CodeValidation, MsgExpiryFormat)
	}
	month, _ := strconv.Atoi(match[1])
	year, _ := strconv.Atoi(match[2])
	if month < 1 || month > 12 || year < minExpiryYear {
		return Card{}, pkgerrors.New(pkgerrors.CodeValidation, MsgExpiryInvalid)
	}

	return Card{
		Number: number,
		Last4:  number[len(number)-4:],
		Name:   strings.TrimSpace(input.CardName),
		Expiry: match[1] + "/" + match[2],
		CVV:    cvv,
	}, nil
}

// Label is the display name stored with a saved card.
func (c Card) Label() string {
	return "Card ending in " + c.Last4
}

func digitsOnly(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
