package service

import (
	"context"
	"time"

	"github.com/amiosamu/fulfillment-service/internal/domain"
	platformErrors "github.com/amiosamu/fulfillment-service/internal/platform/errors"
	"github.com/amiosamu/fulfillment-service/internal/repository/interfaces"
)

// DeliveryCalculator produces tier-based delivery quotes.
type DeliveryCalculator interface {
	// Quote combines the tier's configured pricing with its fixed day
	// windows for both delivery modes.
	Quote(ctx context.Context, tier domain.DeliveryTier) (*DeliveryQuote, error)
}

// DeliveryQuote is the full pricing and timing picture for one tier.
type DeliveryQuote struct {
	Tier              domain.DeliveryTier   `json:"tier"`
	Description       string                `json:"description"`
	StandardCost      float64               `json:"standard_cost"`
	ExpressCost       float64               `json:"express_cost"`
	FreeThreshold     float64               `json:"free_threshold"`
	Currency          string                `json:"currency"`
	NormalWindow      domain.DeliveryWindow `json:"normal_window"`
	ExpressWindow     domain.DeliveryWindow `json:"express_window"`
	NormalEstimate    string                `json:"normal_estimate"`
	ExpressEstimate   string                `json:"express_estimate"`
}

type deliveryCalculator struct {
	configs interfaces.DeliveryConfigRepository
	now     func() time.Time
}

// NewDeliveryCalculator creates a calculator backed by the delivery
// config repository.
func NewDeliveryCalculator(configs interfaces.DeliveryConfigRepository) DeliveryCalculator {
	return &deliveryCalculator{
		configs: configs,
		now:     time.Now,
	}
}

func (d *deliveryCalculator) Quote(ctx context.Context, tier domain.DeliveryTier) (*DeliveryQuote, error) {
	cfg, err := d.configs.GetTier(ctx, string(tier))
	if err != nil {
		return nil, platformErrors.Wrap(err, "failed to load delivery tier config")
	}

	normalWindow := domain.WindowFor(tier, domain.ModeNormal)
	expressWindow := domain.WindowFor(tier, domain.ModeExpress)

	today := d.now()

	return &DeliveryQuote{
		Tier:            tier,
		Description:     cfg.Description,
		StandardCost:    cfg.StandardCost,
		ExpressCost:     cfg.ExpressCost,
		FreeThreshold:   cfg.FreeThreshold,
		Currency:        cfg.Currency,
		NormalWindow:    normalWindow,
		ExpressWindow:   expressWindow,
		NormalEstimate:  domain.EstimatedDeliveryDate(today, normalWindow).Format("2006-01-02"),
		ExpressEstimate: domain.EstimatedDeliveryDate(today, expressWindow).Format("2006-01-02"),
	}, nil
}
