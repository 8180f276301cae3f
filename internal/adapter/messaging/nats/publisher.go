package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/NiceArti/Marketplace/internal/config"
	"github.com/NiceArti/Marketplace/internal/marketplace/domain"
)

const (
	ItemCreatedSubject      = "marketplace.item.created"
	ItemListedSubject       = "marketplace.item.listed"
	ListingCancelledSubject = "marketplace.listing.cancelled"
	ItemSoldSubject         = "marketplace.item.sold"
	AuctionStartedSubject   = "marketplace.auction.started"
	BidPlacedSubject        = "marketplace.auction.bid"
	AuctionSettledSubject   = "marketplace.auction.settled"
	AuctionCancelledSubject = "marketplace.auction.cancelled"
	ItemWithdrawnSubject    = "marketplace.item.withdrawn"
)

// MarketEvent is the payload published for every committed state transition.
// Amount carries the price, bid, or minted quantity as a decimal string
// depending on the subject.
type MarketEvent struct {
	EventID    string    `json:"event_id"`
	Collection string    `json:"collection"`
	TokenID    uint64    `json:"token_id"`
	Actor      string    `json:"actor"`
	Amount     string    `json:"amount,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type Publisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

func NewNATSPublisher(cfg *config.NATSConfig, logger *zap.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.Timeout(cfg.ConnectTimeout),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	logger.Info("Successfully connected to NATS", zap.String("url", nc.ConnectedUrl()))

	return &Publisher{nc: nc, logger: logger}, nil
}

func (p *Publisher) publish(subject string, key domain.ItemKey, actor domain.Address, amount string) error {
	event := MarketEvent{
		EventID:    uuid.NewString(),
		Collection: string(key.Collection),
		TokenID:    key.TokenID,
		Actor:      string(actor),
		Amount:     amount,
		Timestamp:  time.Now().UTC(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal marketplace event",
			zap.String("subject", subject),
			zap.Error(err),
		)
		return fmt.Errorf("failed to marshal event for %s: %w", subject, err)
	}

	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Error("Failed to publish NATS message",
			zap.String("subject", subject),
			zap.Uint64("token_id", key.TokenID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish NATS message for %s: %w", subject, err)
	}
	p.logger.Debug("Published NATS message",
		zap.String("subject", subject),
		zap.String("collection", string(key.Collection)),
		zap.Uint64("token_id", key.TokenID),
	)
	return nil
}

func (p *Publisher) PublishItemCreated(_ context.Context, key domain.ItemKey, owner domain.Address, amount string) error {
	return p.publish(ItemCreatedSubject, key, owner, amount)
}

func (p *Publisher) PublishItemListed(_ context.Context, key domain.ItemKey, seller domain.Address, price string) error {
	return p.publish(ItemListedSubject, key, seller, price)
}

func (p *Publisher) PublishListingCancelled(_ context.Context, key domain.ItemKey, seller domain.Address) error {
	return p.publish(ListingCancelledSubject, key, seller, "")
}

func (p *Publisher) PublishItemSold(_ context.Context, key domain.ItemKey, buyer domain.Address, price string) error {
	return p.publish(ItemSoldSubject, key, buyer, price)
}

func (p *Publisher) PublishAuctionStarted(_ context.Context, key domain.ItemKey, seller domain.Address, startPrice string) error {
	return p.publish(AuctionStartedSubject, key, seller, startPrice)
}

func (p *Publisher) PublishBidPlaced(_ context.Context, key domain.ItemKey, bidder domain.Address, bid string) error {
	return p.publish(BidPlacedSubject, key, bidder, bid)
}

func (p *Publisher) PublishAuctionSettled(_ context.Context, key domain.ItemKey, winner domain.Address, bid string) error {
	return p.publish(AuctionSettledSubject, key, winner, bid)
}

func (p *Publisher) PublishAuctionCancelled(_ context.Context, key domain.ItemKey, seller domain.Address) error {
	return p.publish(AuctionCancelledSubject, key, seller, "")
}

func (p *Publisher) PublishItemWithdrawn(_ context.Context, key domain.ItemKey, owner domain.Address) error {
	return p.publish(ItemWithdrawnSubject, key, owner, "")
}

func (p *Publisher) Close() {
	if p.nc != nil && !p.nc.IsClosed() {
		if err := p.nc.Drain(); err != nil {
			p.logger.Error("Error draining NATS connection", zap.Error(err))
		}
		p.nc.Close()
		p.logger.Info("NATS publisher connection closed")
	}
}
