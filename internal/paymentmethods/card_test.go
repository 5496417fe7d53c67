package paymentmethods

import (
	"testing"

	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
)

func TestValidateCard(t *testing.T) {
	t.Parallel()

	valid := CardInput{CardNumber: "4111 1111 1111 1234", CardName: " Ann Lee ", Expiry: "1227", CVV: "123"}

	cases := []struct {
		name    string
		mutate  func(*CardInput)
		message string
	}{
		{name: "short number", mutate: func(in *CardInput) { in.CardNumber = "4111 1111" }, message: MsgCardNumber},
		{name: "long number", mutate: func(in *CardInput) { in.CardNumber = "41111111111112345" }, message: MsgCardNumber},
		{name: "cvv too long", mutate: func(in *CardInput) { in.CVV = "1234" }, message: MsgCardCVV},
		{name: "cvv letters", mutate: func(in *CardInput) { in.CVV = "1a2" }, message: MsgCardCVV},
		{name: "expiry format", mutate: func(in *CardInput) { in.Expiry = "12-27" }, message: MsgExpiryFormat},
		{name: "month zero", mutate: func(in *CardInput) { in.Expiry = "00/27" }, message: MsgExpiryInvalid},
		{name: "month thirteen", mutate: func(in *CardInput) { in.Expiry = "13/27" }, message: MsgExpiryInvalid},
		{name: "expired year", mutate: func(in *CardInput) { in.Expiry = "12/24" }, message: MsgExpiryInvalid},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			input := valid
			tc.mutate(&input)
			_, err := ValidateCard(input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation code, got %v", err)
			}
			if got := pkgerrors.As(err).Message(); got != tc.message {
				t.Fatalf("expected %q, got %q", tc.message, got)
			}
		})
	}

	card, err := ValidateCard(valid)
	if err != nil {
		t.Fatalf("valid card rejected: %v", err)
	}
	if card.Last4 != "1234" || card.Expiry != "12/27" || card.Name != "Ann Lee" || card.CVV != "123" {
		t.Fatalf("unexpected normalized card %+v", card)
	}
	if card.Label() != "Card ending in 1234" {
		t.Fatalf("unexpected label %q", card.Label())
	}
}
