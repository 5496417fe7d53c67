package cart

import (
	"context"
	"fmt"

	"github.com/freshmart/storefront-backend/internal/catalog"
	pkgerrors "github.com/freshmart/storefront-backend/pkg/errors"
	"github.com/freshmart/storefront-backend/pkg/types"
)

const (
	MsgAdded        = "Item added to cart."
	MsgUpdated      = "Quantity updated."
	MsgRemoved      = "Item removed from cart."
	MsgCleared      = "Cart cleared."
	MsgItemNotFound = "Cart item not found."
)

type productLookup interface {
	Get(ctx context.Context, id uint64) (*catalog.ProductDTO, error)
}

type mirrorWriter interface {
	Increment(ctx context.Context, userID, productID uint64, qty int)
	SetQuantity(ctx context.Context, userID, productID uint64, qty int)
	Remove(ctx context.Context, userID, productID uint64)
	Clear(ctx context.Context, userID uint64)
}

// ManagerParams groups the cart manager's collaborators. Mirror is optional.
type ManagerParams struct {
	Catalog productLookup
	Mirror  mirrorWriter
}

// Manager applies stock-aware cart mutations. owner is the logged-in user id,
// 0 for anonymous visitors; only owned carts are mirrored.
type Manager struct {
	catalog productLookup
	mirror  mirrorWriter
}

// NewManager builds a cart manager.
func NewManager(params ManagerParams) (*Manager, error) {
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog service is required")
	}
	mirror := params.Mirror
	if mirror == nil {
		mirror = (*AsyncMirror)(nil)
	}
	return &Manager{catalog: params.Catalog, mirror: mirror}, nil
}

// View prices the cart for display.
func (m *Manager) View(state State, search string) View {
	return BuildView(state, search)
}

// AddItem adds up to requestedQty units, limited by what is left in stock
// after the units already in the cart.
func (m *Manager) AddItem(ctx context.Context, owner uint64, state State, productID uint64, requestedQty int) (State, Outcome, error) {
	if requestedQty < 1 {
		requestedQty = 1
	}
	product, err := m.catalog.Get(ctx, productID)
	if err != nil {
		return state, Outcome{}, err
	}

	inCart := state.Quantity(productID)
	available := product.Stock - inCart
	if available <= 0 {
		msg := fmt.Sprintf("%s is out of stock.", product.Name)
		if inCart > 0 {
			msg = fmt.Sprintf("You already have all %d of %s in your cart.", inCart, product.Name)
		}
		return state, Outcome{}, pkgerrors.New(pkgerrors.CodeOutOfStock, msg)
	}

	added := min(requestedQty, available)
	next := state.clone()
	if i := next.index(productID); i >= 0 {
		next.Items[i].Quantity += added
		next.Items[i].Stock = product.Stock
	} else {
		next.Items = append(next.Items, types.CartLine{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.EffectivePrice(),
			Image:     product.Image,
			Stock:     product.Stock,
			Quantity:  added,
		})
	}

	if owner != 0 {
		m.mirror.Increment(ctx, owner, productID, added)
	}

	if added < requestedQty {
		return next, Outcome{
			Message: fmt.Sprintf("Only %d left in stock. Added what was available.", available),
			Partial: true,
		}, nil
	}
	return next, Outcome{Message: MsgAdded}, nil
}

// UpdateQuantity sets the line to requestedQty clamped to live stock. A product
// that has run out is dropped from the cart.
func (m *Manager) UpdateQuantity(ctx context.Context, owner uint64, state State, productID uint64, requestedQty int) (State, Outcome, error) {
	if state.index(productID) < 0 {
		return state, Outcome{}, pkgerrors.New(pkgerrors.CodeNotFound, MsgItemNotFound)
	}
	if requestedQty < 1 {
		requestedQty = 1
	}
	product, err := m.catalog.Get(ctx, productID)
	if err != nil {
		return state, Outcome{}, err
	}

	next := state.clone()
	i := next.index(productID)
	if product.Stock <= 0 {
		next.Items = append(next.Items[:i], next.Items[i+1:]...)
		if owner != 0 {
			m.mirror.Remove(ctx, owner, productID)
		}
		return next, Outcome{
			Message: fmt.Sprintf("%s is out of stock and was removed from your cart.", product.Name),
			Partial: true,
		}, nil
	}

	qty := min(requestedQty, product.Stock)
	next.Items[i].Quantity = qty
	next.Items[i].Stock = product.Stock
	if owner != 0 {
		m.mirror.SetQuantity(ctx, owner, productID, qty)
	}

	if qty < requestedQty {
		return next, Outcome{
			Message: fmt.Sprintf("Only %d left in stock. Quantity adjusted.", product.Stock),
			Partial: true,
		}, nil
	}
	return next, Outcome{Message: MsgUpdated}, nil
}

// RemoveItem drops the line for productID.
func (m *Manager) RemoveItem(ctx context.Context, owner uint64, state State, productID uint64) (State, Outcome, error) {
	i := state.index(productID)
	if i < 0 {
		return state, Outcome{}, pkgerrors.New(pkgerrors.CodeNotFound, MsgItemNotFound)
	}
	next := state.clone()
	next.Items = append(next.Items[:i], next.Items[i+1:]...)
	if owner != 0 {
		m.mirror.Remove(ctx, owner, productID)
	}
	return next, Outcome{Message: MsgRemoved}, nil
}

// Clear empties the cart.
func (m *Manager) Clear(ctx context.Context, owner uint64, state State) (State, Outcome) {
	if owner != 0 {
		m.mirror.Clear(ctx, owner)
	}
	return State{Items: []types.CartLine{}}, Outcome{Message: MsgCleared}
}
