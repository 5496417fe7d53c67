package reviews

import (
	"context"
	"strings"
	"testing"

	"github.com/freshmart/storefront-backend/internal/catalog"
	"github.com/freshmart/storefront-backend/pkg/db/dbtest"
	"github.com/freshmart/storefront-backend/pkg/db/models"
	"github.com/freshmart/storefront-backend/pkg/enums"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampRating(t *testing.T) {
	t.Parallel()
	cases := map[int]int{-3: 1, 0: 1, 1: 1, 3: 3, 5: 5, 9: 5}
	for in, want := range cases {
		if got := ClampRating(in); got != want {
			t.Fatalf("ClampRating(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestNormalizeComment(t *testing.T) {
	t.Parallel()
	if got := NormalizeComment("  tasty  "); got != "tasty" {
		t.Fatalf("expected trimmed comment, got %q", got)
	}
	long := strings.Repeat("é", MaxCommentLength+50)
	if got := NormalizeComment(long); len([]rune(got)) != MaxCommentLength {
		t.Fatalf("expected %d characters, got %d", MaxCommentLength, len([]rune(got)))
	}
}

type fixture struct {
	svc     Service
	product models.Product
	user    models.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t, "reviews")
	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn))
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{Repo: NewRepository(conn), Catalog: catalogSvc})
	require.NoError(t, err)

	product := models.Product{Name: "Sourdough", Price: decimal.RequireFromString("6.50"), Stock: 4, Image: "bread.jpg"}
	require.NoError(t, conn.Create(&product).Error)
	user := models.User{Username: "omar", Email: "omar@example.com", PasswordHash: "x", Role: enums.RoleUser}
	require.NoError(t, conn.Create(&user).Error)
	return fixture{svc: svc, product: product, user: user}
}

func TestCreateAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.user.ID, enums.RoleUser, f.product.ID, CreateReviewInput{Rating: 11, Comment: "  great crust "})
	require.NoError(t, err)
	assert.Equal(t, 5, created.Rating)
	assert.Equal(t, "great crust", created.Comment)

	_, err = f.svc.Create(ctx, f.user.ID, enums.RoleUser, f.product.ID, CreateReviewInput{Rating: 2})
	require.NoError(t, err)

	forProduct, err := f.svc.ListForProduct(ctx, f.product.ID)
	require.NoError(t, err)
	require.Len(t, forProduct, 2)
	assert.Equal(t, "omar", forProduct[0].Username)
	assert.Equal(t, 2, forProduct[0].Rating, "newest first")

	mine, err := f.svc.ListForUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "Sourdough", mine[0].ProductName)
	assert.Equal(t, "/images/bread.jpg", mine[0].ProductImage)
}

func TestCreateRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.user.ID, enums.RoleAdmin, f.product.ID, CreateReviewInput{Rating: 4})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = f.svc.Create(ctx, f.user.ID, enums.RoleUser, f.product.ID+100, CreateReviewInput{Rating: 4})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Create(ctx, 0, enums.RoleUser, f.product.ID, CreateReviewInput{Rating: 4})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}
