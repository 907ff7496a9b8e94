package engine

import (
	"sync"
	"time"

	"github.com/google/btree"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
)

// BookEntry represents a single order resting on the book.
type BookEntry struct {
	Price     int64
	CreatedAt time.Time
	OrderID   int64
	Order     *domain.Order
}

// PriceLevel represents an aggregated price level in the order book.
type PriceLevel struct {
	Price         int64
	TotalQuantity int64
	OrderCount    int
}

// buyLess defines ordering for the buy side: price descending, then
// created_at ascending, then order_id ascending. This means Min()
// returns the best buy (highest price, earliest time).
func buyLess(a, b BookEntry) bool {
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.OrderID < b.OrderID
}

// sellLess defines ordering for the sell side: price ascending, then
// created_at ascending, then order_id ascending. Min() returns the
// best sell (lowest price, earliest time).
func sellLess(a, b BookEntry) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.OrderID < b.OrderID
}

// OrderBook maintains the buy and sell sides for a single company using
// B-trees with a secondary index for O(log n) removal by order ID.
type OrderBook struct {
	companyID int64
	mu        sync.RWMutex
	buys      *btree.BTreeG[BookEntry]
	sells     *btree.BTreeG[BookEntry]
	index     map[int64]BookEntry // order_id → entry
}

// NewOrderBook creates an order book for the given company.
func NewOrderBook(companyID int64) *OrderBook {
	const degree = 32
	return &OrderBook{
		companyID: companyID,
		buys:      btree.NewG[BookEntry](degree, buyLess),
		sells:     btree.NewG[BookEntry](degree, sellLess),
		index:     make(map[int64]BookEntry),
	}
}

// RLock acquires the read lock on the order book.
func (ob *OrderBook) RLock() {
	ob.mu.RLock()
}

// RUnlock releases the read lock on the order book.
func (ob *OrderBook) RUnlock() {
	ob.mu.RUnlock()
}

// InsertBuy adds an entry to the buy side of the book.
func (ob *OrderBook) InsertBuy(entry BookEntry) {
	ob.buys.ReplaceOrInsert(entry)
	ob.index[entry.OrderID] = entry
}

// InsertSell adds an entry to the sell side of the book.
func (ob *OrderBook) InsertSell(entry BookEntry) {
	ob.sells.ReplaceOrInsert(entry)
	ob.index[entry.OrderID] = entry
}

// Remove deletes an order from the book by order ID using the
// secondary index. It tries both sides since the caller may not
// know which side the order is on.
func (ob *OrderBook) Remove(orderID int64) {
	entry, ok := ob.index[orderID]
	if !ok {
		return
	}
	delete(ob.index, orderID)
	// Try both sides; Delete is a no-op if the entry isn't found.
	ob.buys.Delete(entry)
	ob.sells.Delete(entry)
}

// BestBuy returns the highest-priority buy (highest price, earliest time).
func (ob *OrderBook) BestBuy() (BookEntry, bool) {
	return ob.buys.Min()
}

// BestSell returns the highest-priority sell (lowest price, earliest time).
func (ob *OrderBook) BestSell() (BookEntry, bool) {
	return ob.sells.Min()
}

// TopBuys returns up to n aggregated price levels from the buy side,
// ordered by price descending.
func (ob *OrderBook) TopBuys(n int) []PriceLevel {
	return topLevels(ob.buys, n)
}

// TopSells returns up to n aggregated price levels from the sell side,
// ordered by price ascending.
func (ob *OrderBook) TopSells(n int) []PriceLevel {
	return topLevels(ob.sells, n)
}

// topLevels iterates the B-tree in order and aggregates entries into
// at most n price levels.
func topLevels(tree *btree.BTreeG[BookEntry], n int) []PriceLevel {
	if n <= 0 {
		return nil
	}
	levels := make([]PriceLevel, 0, n)
	tree.Ascend(func(entry BookEntry) bool {
		if len(levels) > 0 && levels[len(levels)-1].Price == entry.Price {
			levels[len(levels)-1].TotalQuantity += entry.Order.RemainingQuantity
			levels[len(levels)-1].OrderCount++
			return true
		}
		if len(levels) >= n {
			return false
		}
		levels = append(levels, PriceLevel{
			Price:         entry.Price,
			TotalQuantity: entry.Order.RemainingQuantity,
			OrderCount:    1,
		})
		return true
	})
	return levels
}

// BuyCount returns the number of individual buy orders on the book.
func (ob *OrderBook) BuyCount() int {
	return ob.buys.Len()
}

// SellCount returns the number of individual sell orders on the book.
func (ob *OrderBook) SellCount() int {
	return ob.sells.Len()
}

// BookManager is a thread-safe map of company id → OrderBook. Each book
// carries its own write lock, so matching for different companies runs
// fully in parallel.
type BookManager struct {
	mu    sync.RWMutex
	books map[int64]*OrderBook
}

// NewBookManager creates a new BookManager.
func NewBookManager() *BookManager {
	return &BookManager{
		books: make(map[int64]*OrderBook),
	}
}

// GetOrCreate returns the order book for the given company, creating
// one if it doesn't already exist.
func (bm *BookManager) GetOrCreate(companyID int64) *OrderBook {
	bm.mu.RLock()
	book, ok := bm.books[companyID]
	bm.mu.RUnlock()
	if ok {
		return book
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()
	// Double-check after acquiring write lock.
	if book, ok = bm.books[companyID]; ok {
		return book
	}
	book = NewOrderBook(companyID)
	bm.books[companyID] = book
	return book
}
