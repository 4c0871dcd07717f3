package service

import (
	"context"
	"testing"
	"time"

	"github.com/amiosamu/fulfillment-service/internal/domain"
	platformErrors "github.com/amiosamu/fulfillment-service/internal/platform/errors"
)

func TestQuoteCombinesPricingAndWindows(t *testing.T) {
	calc := &deliveryCalculator{
		configs: &fakeDeliveryConfigRepository{},
		now: func() time.Time {
			return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
		},
	}

	quote, err := calc.Quote(context.Background(), domain.TierTwo)
	if err != nil {
		t.Fatalf("Quote failed: %v", err)
	}

	if quote.StandardCost != 70 || quote.ExpressCost != 149 {
		t.Errorf("tier_2 costs = %v/%v", quote.StandardCost, quote.ExpressCost)
	}
	if quote.NormalWindow != (domain.DeliveryWindow{MinDays: 3, MaxDays: 4}) {
		t.Errorf("normal window = %+v", quote.NormalWindow)
	}
	// Estimate is the quote day plus the window maximum.
	if quote.NormalEstimate != "2026-09-04" {
		t.Errorf("normal estimate = %s, want 2026-09-04", quote.NormalEstimate)
	}
	if quote.ExpressEstimate != "2026-09-03" {
		t.Errorf("express estimate = %s, want 2026-09-03", quote.ExpressEstimate)
	}
}

func TestQuoteUnknownTier(t *testing.T) {
	calc := NewDeliveryCalculator(&fakeDeliveryConfigRepository{})

	_, err := calc.Quote(context.Background(), domain.DeliveryTier("tier_9"))
	if !platformErrors.IsNotFound(err) {
		t.Errorf("expected not-found for unconfigured tier, got %v", err)
	}
}
