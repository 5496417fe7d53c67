package paymentmethods

import (
	"context"
	"testing"

	"github.com/freshmart/storefront-backend/pkg/db/dbtest"
	"github.com/freshmart/storefront-backend/pkg/db/models"
	"github.com/freshmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (Service, *Repository, uint64) {
	t.Helper()
	conn := dbtest.Open(t, "paymentmethods")
	user := &models.User{Username: "pat", Email: "pat@example.com", PasswordHash: "x", Role: enums.RoleUser}
	require.NoError(t, conn.Create(user).Error)

	repo := NewRepository(conn)
	svc, err := NewService(repo)
	require.NoError(t, err)
	return svc, repo, user.ID
}

func TestSaveReplacesExistingCard(t *testing.T) {
	svc, repo, userID := newTestService(t)
	ctx := context.Background()

	first, err := ValidateCard(CardInput{CardNumber: "4000000000001111", Expiry: "01/30", CVV: "111"})
	require.NoError(t, err)
	second, err := ValidateCard(CardInput{CardNumber: "4000000000002222", CardName: "Pat", Expiry: "02/31", CVV: "222"})
	require.NoError(t, err)

	_, err = svc.Save(ctx, userID, enums.RoleUser, first)
	require.NoError(t, err)
	saved, err := svc.Save(ctx, userID, enums.RoleUser, second)
	require.NoError(t, err)
	assert.Equal(t, "2222", saved.Last4)

	stored, err := repo.FindByUser(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "2222", stored.Last4)
	assert.Equal(t, "Card ending in 2222", stored.Label)
	assert.Equal(t, "02/31", stored.Expiry)

	var count int64
	require.NoError(t, repo.db.Model(&models.PaymentMethod{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestSaveRejectsAdmins(t *testing.T) {
	svc, _, userID := newTestService(t)
	card, err := ValidateCard(CardInput{CardNumber: "4000000000001111", Expiry: "01/30", CVV: "111"})
	require.NoError(t, err)

	_, err = svc.Save(context.Background(), userID, enums.RoleAdmin, card)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestGetAndRemove(t *testing.T) {
	svc, _, userID := newTestService(t)
	ctx := context.Background()

	none, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, none)

	card, err := ValidateCard(CardInput{CardNumber: "4000000000009999", Expiry: "09/29", CVV: "999"})
	require.NoError(t, err)
	_, err = svc.Save(ctx, userID, enums.RoleUser, card)
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, userID))
	after, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, after)
}
