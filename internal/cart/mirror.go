package cart

import (
	"context"
	"sync"
	"time"

	"github.com/freshmart/storefront-backend/pkg/db/models"
	"github.com/freshmart/storefront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultMirrorTimeout bounds one background mirror write.
const DefaultMirrorTimeout = 5 * time.Second

// Mirror is the persistent copy of a logged-in shopper's cart. It is written
// through from the session and never read back.
type Mirror interface {
	Increment(ctx context.Context, userID, productID uint64, qty int) error
	SetQuantity(ctx context.Context, userID, productID uint64, qty int) error
	Remove(ctx context.Context, userID, productID uint64) error
	Clear(ctx context.Context, userID uint64) error
}

// Repository stores the mirror in cart_items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart mirror repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Increment adds qty to the row, creating it when missing.
func (r *Repository) Increment(ctx context.Context, userID, productID uint64, qty int) error {
	if userID == 0 || productID == 0 || qty <= 0 {
		return nil
	}
	item := models.CartItem{UserID: userID, ProductID: productID, Quantity: qty}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + ?", qty),
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(&item).Error
}

// SetQuantity overwrites the quantity of an existing row.
func (r *Repository) SetQuantity(ctx context.Context, userID, productID uint64, qty int) error {
	if userID == 0 || productID == 0 || qty <= 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Updates(map[string]any{"quantity": qty, "updated_at": time.Now().UTC()}).
		Error
}

func (r *Repository) Remove(ctx context.Context, userID, productID uint64) error {
	if userID == 0 || productID == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{}).
		Error
}

func (r *Repository) Clear(ctx context.Context, userID uint64) error {
	if userID == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).
		Error
}

// PruneBefore drops mirror rows untouched since cutoff.
func (r *Repository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}

// AsyncMirror runs mirror writes in the background. Writes for one user are
// applied in call order by a single drainer; different users proceed in
// parallel. Failures are logged and dropped. Wait blocks until every queued
// write has finished.
type AsyncMirror struct {
	mirror  Mirror
	logg    *logger.Logger
	timeout time.Duration
	wg      sync.WaitGroup

	mu sync.Mutex
	// a key is present while that user's drainer is running
	queues map[uint64][]mirrorWrite
}

type mirrorWrite struct {
	ctx       context.Context
	op        string
	productID uint64
	apply     func(context.Context) error
}

// NewAsyncMirror wraps mirror. A nil mirror turns every call into a no-op.
func NewAsyncMirror(mirror Mirror, logg *logger.Logger, timeout time.Duration) *AsyncMirror {
	if timeout <= 0 {
		timeout = DefaultMirrorTimeout
	}
	return &AsyncMirror{mirror: mirror, logg: logg, timeout: timeout, queues: map[uint64][]mirrorWrite{}}
}

func (a *AsyncMirror) Increment(ctx context.Context, userID, productID uint64, qty int) {
	a.enqueue(ctx, "cart.mirror.increment", userID, productID, func(c context.Context) error {
		return a.mirror.Increment(c, userID, productID, qty)
	})
}

func (a *AsyncMirror) SetQuantity(ctx context.Context, userID, productID uint64, qty int) {
	a.enqueue(ctx, "cart.mirror.set_quantity", userID, productID, func(c context.Context) error {
		return a.mirror.SetQuantity(c, userID, productID, qty)
	})
}

func (a *AsyncMirror) Remove(ctx context.Context, userID, productID uint64) {
	a.enqueue(ctx, "cart.mirror.remove", userID, productID, func(c context.Context) error {
		return a.mirror.Remove(c, userID, productID)
	})
}

func (a *AsyncMirror) Clear(ctx context.Context, userID uint64) {
	a.enqueue(ctx, "cart.mirror.clear", userID, 0, func(c context.Context) error {
		return a.mirror.Clear(c, userID)
	})
}

// Wait blocks until all queued writes return.
func (a *AsyncMirror) Wait() {
	if a == nil {
		return
	}
	a.wg.Wait()
}

func (a *AsyncMirror) enqueue(ctx context.Context, op string, userID, productID uint64, apply func(context.Context) error) {
	if a == nil || a.mirror == nil || userID == 0 {
		return
	}
	// the request context is cancelled once the redirect is written
	w := mirrorWrite{ctx: context.WithoutCancel(ctx), op: op, productID: productID, apply: apply}

	a.wg.Add(1)
	a.mu.Lock()
	pending, draining := a.queues[userID]
	a.queues[userID] = append(pending, w)
	a.mu.Unlock()
	if !draining {
		go a.drain(userID)
	}
}

func (a *AsyncMirror) drain(userID uint64) {
	for {
		a.mu.Lock()
		pending := a.queues[userID]
		if len(pending) == 0 {
			delete(a.queues, userID)
			a.mu.Unlock()
			return
		}
		w := pending[0]
		a.queues[userID] = pending[1:]
		a.mu.Unlock()

		a.apply(userID, w)
		a.wg.Done()
	}
}

func (a *AsyncMirror) apply(userID uint64, w mirrorWrite) {
	writeCtx, cancel := context.WithTimeout(w.ctx, a.timeout)
	defer cancel()
	if err := w.apply(writeCtx); err != nil {
		logCtx := a.logg.WithFields(w.ctx, map[string]any{
			"user_id":    userID,
			"product_id": w.productID,
		})
		a.logg.Error(logCtx, w.op+" failed", err)
	}
}
