package invoices

import (
	"context"

	"github.com/freshmart/storefront-backend/pkg/db"
	"github.com/freshmart/storefront-backend/pkg/db/models"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
)

const (
	MsgNotFound   = "Invoice not found"
	MsgNoInvoices = "No invoices found. Complete a checkout to view your invoice."
)

// Service reads invoices for display.
type Service interface {
	Get(ctx context.Context, id uint64, userID *uint64) (*InvoiceDTO, error)
	Latest(ctx context.Context, userID uint64) (*InvoiceDTO, error)
}

type store interface {
	FindByID(ctx context.Context, id uint64, userID *uint64) (*models.Invoice, error)
	FindLatestForUser(ctx context.Context, userID uint64) (*models.Invoice, error)
}

type service struct {
	repo store
}

// NewService builds an invoice service.
func NewService(repo store) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "invoice repo is required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, id uint64, userID *uint64) (*InvoiceDTO, error) {
	if id == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, MsgNotFound)
	}
	invoice, err := s.repo.FindByID(ctx, id, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, MsgNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load invoice")
	}
	return Display(FromModel(invoice)), nil
}

func (s *service) Latest(ctx context.Context, userID uint64) (*InvoiceDTO, error) {
	invoice, err := s.repo.FindLatestForUser(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, MsgNoInvoices)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load latest invoice")
	}
	return Display(FromModel(invoice)), nil
}
