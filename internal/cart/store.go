package cart

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/verdantlabs/leafroom-backend/pkg/db/models"
	pkgerrors "github.com/verdantlabs/leafroom-backend/pkg/errors"
	"github.com/verdantlabs/leafroom-backend/pkg/logger"
	"github.com/verdantlabs/leafroom-backend/pkg/types"
)

// Item is one product-and-quantity pairing in the cart. The product is a
// snapshot taken at add time and is not re-fetched on later reads.
type Item struct {
	ProductID uuid.UUID      `json:"product_id"`
	Product   models.Product `json:"product"`
	Quantity  int            `json:"quantity"`
}

// Store is the single source of truth for one cart. Every mutation goes
// through its fixed action vocabulary and is mirrored to storage; the open
// flag is transient and never persisted.
type Store struct {
	mu      sync.Mutex
	key     string
	items   []Item
	isOpen  bool
	storage Storage
	logg    *logger.Logger
}

// Manager hands out stores bound to a storage key.
type Manager struct {
	storage Storage
	logg    *logger.Logger
}

// NewManager builds a cart manager backed by the provided storage.
func NewManager(storage Storage, logg *logger.Logger) (*Manager, error) {
	if storage == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "cart storage required")
	}
	return &Manager{storage: storage, logg: logg}, nil
}

// ForKey rehydrates the cart stored under key. A missing or unreadable
// mirror yields an empty cart; corruption is never surfaced to the caller.
func (m *Manager) ForKey(ctx context.Context, key string) *Store {
	store := &Store{key: key, storage: m.storage, logg: m.logg}

	items, err := m.storage.Load(ctx, key)
	if err != nil {
		if m.logg != nil {
			m.logg.Warn(m.logg.WithSessionID(ctx, key), "cart rehydrate failed, starting empty")
		}
		return store
	}
	store.items = items
	return store
}

// AddItem appends a line for the product or merges into the existing one.
// The requested quantity must be positive; the resulting line quantity is
// clamped to the product's stock.
func (s *Store) AddItem(ctx context.Context, product models.Product, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if product.Stock <= 0 {
		return pkgerrors.New(pkgerrors.CodeOutOfStock, "product is out of stock").
			WithDetails(map[string]any{"product_id": product.ID})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.find(product.ID); idx >= 0 {
		s.items[idx].Quantity = clampToStock(s.items[idx].Quantity+quantity, s.items[idx].Product.Stock)
	} else {
		s.items = append(s.items, Item{
			ProductID: product.ID,
			Product:   product,
			Quantity:  clampToStock(quantity, product.Stock),
		})
	}

	s.persist(ctx)
	return nil
}

// RemoveItem drops the line with the given product id. Removing an absent
// line is a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.find(productID)
	if idx < 0 {
		return
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.persist(ctx)
}

// UpdateQuantity replaces the line's quantity, clamped to stock. A quantity
// of zero or less removes the line. Updating an absent line is a no-op.
func (s *Store) UpdateQuantity(ctx context.Context, productID uuid.UUID, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.find(productID)
	if idx < 0 {
		return
	}
	if quantity <= 0 {
		s.items = append(s.items[:idx], s.items[idx+1:]...)
	} else {
		s.items[idx].Quantity = clampToStock(quantity, s.items[idx].Product.Stock)
	}
	s.persist(ctx)
}

// Clear empties the cart. The open flag is unaffected.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.persist(ctx)
}

// Open marks the cart drawer visible.
func (s *Store) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isOpen = true
}

// Close marks the cart drawer hidden.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isOpen = false
}

// IsOpen reports the drawer visibility flag.
func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOpen
}

// Items returns a copy of the current lines in insertion order.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Count is the total number of units across all lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

// SubtotalCents is the sum of effective unit price times quantity.
func (s *Store) SubtotalCents() types.Cents {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total types.Cents
	for _, item := range s.items {
		total += item.Product.EffectiveUnitPriceCents() * types.Cents(item.Quantity)
	}
	return total
}

// Key returns the storage key the cart is bound to.
func (s *Store) Key() string {
	return s.key
}

// persist mirrors the items to storage. Mirror failures are logged and
// swallowed so cart actions stay total functions. Callers must hold s.mu.
func (s *Store) persist(ctx context.Context) {
	if s.storage == nil {
		return
	}
	if err := s.storage.Save(ctx, s.key, s.items); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithSessionID(ctx, s.key), "cart mirror write failed", err)
	}
}

// find returns the index of the line for productID, or -1. Callers must
// hold s.mu.
func (s *Store) find(productID uuid.UUID) int {
	for i, item := range s.items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func clampToStock(quantity, stock int) int {
	if stock > 0 && quantity > stock {
		return stock
	}
	return quantity
}
