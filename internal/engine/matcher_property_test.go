package engine

import (
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
)

func TestProperty_PriceCompatibilityDeterminesMatching(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		buyPrice := rapid.Int64Range(1, 10000).Draw(t, "buyPrice")
		sellPrice := rapid.Int64Range(1, 10000).Draw(t, "sellPrice")
		qty := rapid.Int64Range(1, 100).Draw(t, "qty")

		e := newTestEnv()
		seller := e.addUser(t, "seller", 0)
		buyer := e.addUser(t, "buyer", buyPrice*qty*2)
		// No treasury shares, so issuance cannot fill the buy.
		c := e.addCompany(t, "TEST", sellPrice, 1000000, 0)
		e.giveShares(seller, c.CompanyID, qty*2, sellPrice)

		if _, err := e.matcher.SubmitOrder(order(seller.UserID, c.CompanyID, domain.OrderSideSell, sellPrice, qty)); err != nil {
			t.Fatalf("failed to place sell: %v", err)
		}

		fills, err := e.matcher.SubmitOrder(order(buyer.UserID, c.CompanyID, domain.OrderSideBuy, buyPrice, qty))
		if err != nil {
			t.Fatalf("failed to place buy: %v", err)
		}

		shouldMatch := buyPrice >= sellPrice
		if shouldMatch && len(fills) == 0 {
			t.Fatalf("expected fill when buy=%d >= sell=%d, got none", buyPrice, sellPrice)
		}
		if !shouldMatch && len(fills) != 0 {
			t.Fatalf("expected no fill when buy=%d < sell=%d, got %d", buyPrice, sellPrice, len(fills))
		}

		// When no match, the book must not be crossed.
		if !shouldMatch {
			book := e.matcher.books.GetOrCreate(c.CompanyID)
			bestBuy, hasBuy := book.BestBuy()
			bestSell, hasSell := book.BestSell()
			if hasBuy && hasSell && bestBuy.Price >= bestSell.Price {
				t.Fatalf("book is crossed: best buy %d >= best sell %d", bestBuy.Price, bestSell.Price)
			}
		}
	})
}

func TestProperty_ExecutionAtRestingPrice(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sellPrice := rapid.Int64Range(1, 5000).Draw(t, "sellPrice")
		premium := rapid.Int64Range(0, 5000).Draw(t, "premium")
		buyPrice := sellPrice + premium
		qty := rapid.Int64Range(1, 100).Draw(t, "qty")

		e := newTestEnv()
		seller := e.addUser(t, "seller", 0)
		buyer := e.addUser(t, "buyer", buyPrice*qty*2)
		c := e.addCompany(t, "TEST", sellPrice, 1000000, 0)
		e.giveShares(seller, c.CompanyID, qty*2, sellPrice)

		if _, err := e.matcher.SubmitOrder(order(seller.UserID, c.CompanyID, domain.OrderSideSell, sellPrice, qty)); err != nil {
			t.Fatalf("failed to place sell: %v", err)
		}
		fills, err := e.matcher.SubmitOrder(order(buyer.UserID, c.CompanyID, domain.OrderSideBuy, buyPrice, qty))
		if err != nil {
			t.Fatalf("failed to place buy: %v", err)
		}
		if len(fills) != 1 {
			t.Fatalf("expected exactly 1 fill, got %d", len(fills))
		}
		if fills[0].PricePerShare != sellPrice {
			t.Fatalf("expected execution at resting price %d, got %d", sellPrice, fills[0].PricePerShare)
		}
	})
}

func TestProperty_TradeConservesCash(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sellPrice := rapid.Int64Range(1, 5000).Draw(t, "sellPrice")
		premium := rapid.Int64Range(0, 5000).Draw(t, "premium")
		buyPrice := sellPrice + premium
		qty := rapid.Int64Range(1, 100).Draw(t, "qty")
		buyerCash := buyPrice * qty * 2

		e := newTestEnv()
		seller := e.addUser(t, "seller", 0)
		buyer := e.addUser(t, "buyer", buyerCash)
		c := e.addCompany(t, "TEST", sellPrice, 1000000, 0)
		e.giveShares(seller, c.CompanyID, qty, sellPrice)

		totalBefore := buyer.WalletBalance + seller.WalletBalance

		if _, err := e.matcher.SubmitOrder(order(seller.UserID, c.CompanyID, domain.OrderSideSell, sellPrice, qty)); err != nil {
			t.Fatalf("failed to place sell: %v", err)
		}
		if _, err := e.matcher.SubmitOrder(order(buyer.UserID, c.CompanyID, domain.OrderSideBuy, buyPrice, qty)); err != nil {
			t.Fatalf("failed to place buy: %v", err)
		}

		totalAfter := buyer.WalletBalance + seller.WalletBalance
		if totalBefore != totalAfter {
			t.Fatalf("cash not conserved: before=%d after=%d", totalBefore, totalAfter)
		}
		if buyer.ReservedCash != 0 {
			t.Fatalf("completed buy must leave no reservation, got %d", buyer.ReservedCash)
		}

		// Shares are conserved between the two accounts.
		buyerQty := buyer.Holdings[c.CompanyID].Quantity
		sellerQty := int64(0)
		if h, ok := seller.Holdings[c.CompanyID]; ok {
			sellerQty = h.Quantity
		}
		if buyerQty+sellerQty != qty {
			t.Fatalf("shares not conserved: buyer=%d seller=%d want total %d", buyerQty, sellerQty, qty)
		}
	})
}

func TestProperty_IssuanceConservesValue(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		price := rapid.Int64Range(1, 10000).Draw(t, "price")
		treasury := rapid.Int64Range(0, 500).Draw(t, "treasury")
		qty := rapid.Int64Range(1, 500).Draw(t, "qty")

		e := newTestEnv()
		buyer := e.addUser(t, "buyer", price*qty*2)
		c := e.addCompany(t, "TEST", price, 1000000, treasury)

		fills, err := e.matcher.SubmitOrder(order(buyer.UserID, c.CompanyID, domain.OrderSideBuy, price, qty))
		if err != nil {
			t.Fatalf("failed to place buy: %v", err)
		}

		if treasury >= qty {
			// All-or-nothing issuance must have filled the order.
			if len(fills) != 1 || fills[0].Type != domain.TransactionTypeIPO {
				t.Fatalf("expected one ipo fill, got %+v", fills)
			}
			if c.AvailableShares != treasury-qty {
				t.Fatalf("treasury: want %d, got %d", treasury-qty, c.AvailableShares)
			}
			if c.WalletBalance != qty*price {
				t.Fatalf("company wallet: want %d, got %d", qty*price, c.WalletBalance)
			}
		} else {
			if len(fills) != 0 {
				t.Fatalf("expected no fills with treasury %d < qty %d", treasury, qty)
			}
			if c.AvailableShares != treasury {
				t.Fatalf("treasury must be untouched, got %d", c.AvailableShares)
			}
		}
		if c.AvailableShares < 0 {
			t.Fatalf("available shares went negative: %d", c.AvailableShares)
		}
	})
}

func TestProperty_HoldingBasisInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := &domain.Holding{}
		now := time.Now()

		ops := rapid.IntRange(1, 30).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			if h.Quantity > 0 && rapid.Bool().Draw(t, "sell") {
				qty := rapid.Int64Range(1, h.Quantity).Draw(t, "sellQty")
				if err := h.RemoveShares(qty, now); err != nil {
					t.Fatalf("remove: %v", err)
				}
			} else {
				qty := rapid.Int64Range(1, 100).Draw(t, "buyQty")
				price := rapid.Int64Range(1, 10000).Draw(t, "buyPrice")
				h.AddShares(qty, price, now)
			}

			if h.Quantity < 0 || h.TotalInvested < 0 {
				t.Fatalf("negative position: qty=%d invested=%d", h.Quantity, h.TotalInvested)
			}
			if h.Quantity == 0 {
				if h.TotalInvested != 0 || h.AverageBuyPrice != 0 {
					t.Fatalf("empty position must have zero basis: invested=%d avg=%d",
						h.TotalInvested, h.AverageBuyPrice)
				}
				continue
			}
			// total_invested == quantity × average within integer rounding.
			diff := h.TotalInvested - h.Quantity*h.AverageBuyPrice
			if diff < 0 {
				diff = -diff
			}
			if diff >= h.Quantity {
				t.Fatalf("basis invariant violated: invested=%d qty=%d avg=%d",
					h.TotalInvested, h.Quantity, h.AverageBuyPrice)
			}
		}
	})
}
