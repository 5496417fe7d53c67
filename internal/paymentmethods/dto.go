package paymentmethods

import "github.com/freshmart/storefront-backend/pkg/db/models"

// PaymentMethodDTO is the saved card as shown on the profile and payment pages.
type PaymentMethodDTO struct {
	Last4    string `json:"last4"`
	CardName string `json:"cardName"`
	Label    string `json:"label"`
	Expiry   string `json:"expiry"`
}

func FromModel(m *models.PaymentMethod) *PaymentMethodDTO {
	if m == nil {
		return nil
	}
	return &PaymentMethodDTO{
		Last4:    m.Last4,
		CardName: m.CardName,
		Label:    m.Label,
		Expiry:   m.Expiry,
	}
}
