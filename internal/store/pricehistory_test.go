package store

import (
	"testing"
	"time"

	"github.com/rohitkumar-gith/share-market-simulation/internal/domain"
)

func TestPriceHistoryStore_HistoryLimit(t *testing.T) {
	s := NewPriceHistoryStore()
	base := time.Now()
	for i := 0; i < 5; i++ {
		s.Append(domain.PriceTick{CompanyID: 1, Price: int64(100 + i), RecordedAt: base.Add(time.Duration(i) * time.Minute)})
	}

	got := s.History(1, 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 ticks, got %d", len(got))
	}
	// Most recent 3, still chronological.
	if got[0].Price != 102 || got[2].Price != 104 {
		t.Errorf("unexpected window: first=%d last=%d", got[0].Price, got[2].Price)
	}
}

func TestPriceHistoryStore_LatestAtOrBefore(t *testing.T) {
	s := NewPriceHistoryStore()
	base := time.Now()
	s.Append(domain.PriceTick{CompanyID: 1, Price: 100, RecordedAt: base})
	s.Append(domain.PriceTick{CompanyID: 1, Price: 110, RecordedAt: base.Add(time.Hour)})
	s.Append(domain.PriceTick{CompanyID: 1, Price: 120, RecordedAt: base.Add(2 * time.Hour)})

	tick, ok := s.LatestAtOrBefore(1, base.Add(90*time.Minute))
	if !ok || tick.Price != 110 {
		t.Errorf("expected tick 110, got %+v ok=%v", tick, ok)
	}

	// No tick old enough: falls back to the earliest.
	tick, ok = s.LatestAtOrBefore(1, base.Add(-time.Hour))
	if !ok || tick.Price != 100 {
		t.Errorf("expected earliest tick 100, got %+v ok=%v", tick, ok)
	}

	// Unknown company.
	if _, ok := s.LatestAtOrBefore(9, base); ok {
		t.Error("expected no tick for unknown company")
	}
}

func TestTransactionStore_RecentAndVolume(t *testing.T) {
	s := NewTransactionStore()
	base := time.Now()
	seller := int64(2)
	for i := 0; i < 3; i++ {
		s.Append(&domain.Transaction{
			BuyerID:       1,
			SellerID:      &seller,
			CompanyID:     1,
			Quantity:      int64(10 * (i + 1)),
			PricePerShare: 100,
			Type:          domain.TransactionTypeTrade,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		})
	}

	recent := s.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(recent))
	}
	if recent[0].Quantity != 30 {
		t.Errorf("expected newest first, got quantity %d", recent[0].Quantity)
	}

	// Only the last two fall inside the window.
	vol := s.VolumeSince(1, base.Add(30*time.Second))
	if vol != 50 {
		t.Errorf("expected volume 50, got %d", vol)
	}
}
