package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/freshmart/storefront-backend/api/middleware"
	"github.com/freshmart/storefront-backend/api/responses"
	"github.com/freshmart/storefront-backend/api/validators"
	"github.com/freshmart/storefront-backend/internal/catalog"
	"github.com/freshmart/storefront-backend/internal/favorites"
	"github.com/freshmart/storefront-backend/internal/media"
	"github.com/freshmart/storefront-backend/internal/reviews"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/freshmart/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

const pathInventory = "/inventory"

// multipartOverhead leaves room for the text fields around the image part.
const multipartOverhead = 512 * 1024

type shoppingView struct {
	Products    []catalog.ProductDTO `json:"products"`
	Categories  []string             `json:"categories"`
	Filter      catalog.Filter       `json:"filter"`
	FavoriteIDs []uint64             `json:"favoriteIds"`
}

type productDetailView struct {
	Product    *catalog.ProductDTO `json:"product"`
	Reviews    []reviews.ReviewDTO `json:"reviews"`
	IsFavorite bool                `json:"isFavorite"`
}

type inventoryView struct {
	Products   []catalog.ProductDTO `json:"products"`
	Categories []string             `json:"categories"`
}

func filterFromQuery(r *http.Request) catalog.Filter {
	return catalog.Filter{
		Search:   validators.SearchQuery(r, "search"),
		Category: validators.SearchQuery(r, "category"),
		Sort:     validators.SearchQuery(r, "sort"),
	}
}

// ProductsShopping lists the catalog for shoppers.
func ProductsShopping(svc catalog.Service, favs favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := filterFromQuery(r)
		products, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		favoriteIDs := []uint64{}
		if user := middleware.CurrentUser(r.Context()); user != nil && favs != nil {
			ids, err := favs.ListForUser(r.Context(), user.ID)
			if err != nil {
				logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "products.favorites.load_failed")
			} else {
				favoriteIDs = ids
			}
		}

		renderPage(w, r, logg, shoppingView{
			Products:    products,
			Categories:  categories,
			Filter:      filter,
			FavoriteIDs: favoriteIDs,
		})
	}
}

// ProductsDetail shows one product with its most recent reviews.
func ProductsDetail(svc catalog.Service, reviewSvc reviews.Service, favs favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found"))
			return
		}
		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := reviewSvc.ListForProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view := productDetailView{Product: product, Reviews: list}
		if user := middleware.CurrentUser(r.Context()); user != nil && favs != nil {
			ids, err := favs.ListForUser(r.Context(), user.ID)
			if err == nil {
				for _, favID := range ids {
					if favID == id {
						view.IsFavorite = true
						break
					}
				}
			}
		}
		renderPage(w, r, logg, view)
	}
}

// InventoryList is the admin catalog table.
func InventoryList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.List(r.Context(), filterFromQuery(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		renderPage(w, r, logg, inventoryView{Products: products, Categories: categories})
	}
}

// InventoryAdd creates a product from a multipart form with an optional image.
func InventoryAdd(svc catalog.Service, images media.Service, maxImageBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}

		input, stored, err := readProductForm(w, r, images, maxImageBytes)
		if err != nil {
			redirectWithError(w, r, sess, pathInventory, flashError(r.Context(), logg, err, "inventory.add.form_failed"))
			return
		}

		product, err := svc.Create(r.Context(), input)
		if err != nil {
			discardImage(r.Context(), images, stored, logg)
			redirectWithError(w, r, sess, pathInventory, flashError(r.Context(), logg, err, "inventory.add.failed"))
			return
		}

		logg.Info(logg.WithField(r.Context(), "product_id", product.ID), "inventory.product.created")
		redirectWithSuccess(w, r, sess, pathInventory, "Product added")
	}
}

// InventoryEdit updates a product; an absent image part keeps the current one.
func InventoryEdit(svc catalog.Service, images media.Service, maxImageBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			redirectWithError(w, r, sess, pathInventory, "Product not found")
			return
		}

		input, stored, err := readProductForm(w, r, images, maxImageBytes)
		if err != nil {
			redirectWithError(w, r, sess, pathInventory, flashError(r.Context(), logg, err, "inventory.edit.form_failed"))
			return
		}

		if _, err := svc.Update(r.Context(), id, input); err != nil {
			discardImage(r.Context(), images, stored, logg)
			redirectWithError(w, r, sess, pathInventory, flashError(r.Context(), logg, err, "inventory.edit.failed"))
			return
		}

		logg.Info(logg.WithField(r.Context(), "product_id", id), "inventory.product.updated")
		redirectWithSuccess(w, r, sess, pathInventory, "Product updated")
	}
}

func InventoryDelete(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := currentSession(w, r, logg)
		if !ok {
			return
		}
		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			redirectWithError(w, r, sess, pathInventory, "Product not found")
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			redirectWithError(w, r, sess, pathInventory, flashError(r.Context(), logg, err, "inventory.delete.failed"))
			return
		}
		logg.Info(logg.WithField(r.Context(), "product_id", id), "inventory.product.deleted")
		redirectWithSuccess(w, r, sess, pathInventory, "Product deleted")
	}
}

// readProductForm parses the multipart product form and stores the image part
// when one was sent. stored is the new file name, or "".
func readProductForm(w http.ResponseWriter, r *http.Request, images media.Service, maxImageBytes int64) (catalog.ProductInput, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxImageBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return catalog.ProductInput{}, "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Image must be %dMB or smaller", maxImageBytes/(1024*1024)))
		}
		return catalog.ProductInput{}, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid product form")
	}

	input := catalog.ProductInput{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Category:    strings.TrimSpace(r.FormValue("category")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}

	price, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("price")))
	if err != nil {
		return catalog.ProductInput{}, "", pkgerrors.New(pkgerrors.CodeValidation, "Price must be a number")
	}
	input.Price = price

	stockRaw := strings.TrimSpace(r.FormValue("stock"))
	if stockRaw == "" {
		stockRaw = strings.TrimSpace(r.FormValue("quantity"))
	}
	stock, err := strconv.Atoi(stockRaw)
	if err != nil {
		return catalog.ProductInput{}, "", pkgerrors.New(pkgerrors.CodeValidation, "Stock must be a whole number")
	}
	input.Stock = stock

	if raw := strings.TrimSpace(r.FormValue("discountPercentage")); raw != "" {
		discount, err := decimal.NewFromString(raw)
		if err != nil {
			return catalog.ProductInput{}, "", pkgerrors.New(pkgerrors.CodeValidation, "Discount must be a number")
		}
		input.DiscountPercentage = &discount
	}

	file, _, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return input, "", nil
	case err != nil:
		return catalog.ProductInput{}, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid image upload")
	}
	defer file.Close()

	stored, err := images.SaveImage(r.Context(), file)
	if err != nil {
		return catalog.ProductInput{}, "", err
	}
	input.Image = stored
	return input, stored, nil
}

func discardImage(ctx context.Context, images media.Service, stored string, logg *logger.Logger) {
	if stored == "" {
		return
	}
	if err := images.RemoveImage(ctx, stored); err != nil {
		logg.Warn(logg.WithField(ctx, "image", stored), "inventory.image.cleanup_failed")
	}
}
