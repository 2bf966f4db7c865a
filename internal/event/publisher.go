package event

import (
	"context"
	"log/slog"

	"github.com/modaversa/storefront/pkg/kafka"
	"github.com/modaversa/storefront/pkg/logger"
)

// Kafka topics for storefront domain events.
const (
	TopicWishlistUpdated = "storefront.wishlist.updated"
	TopicWishlistShared  = "storefront.wishlist.shared"
	TopicCartUpdated     = "storefront.cart.updated"
	TopicCartMerged      = "storefront.cart.merged"
	TopicWebhookReceived = "storefront.payment.webhook.received"
)

const source = "storefront"

// Publisher emits storefront domain events. Publishing is best effort:
// failures are logged and never surfaced to the caller, since a dropped
// event must not fail the request that produced it.
type Publisher struct {
	producer *kafka.Producer
	logger   *slog.Logger
}

// NewPublisher creates a Publisher on top of the shared Kafka producer.
func NewPublisher(producer *kafka.Producer, log *slog.Logger) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   log,
	}
}

// WishlistItemAddedPayload is the data of a wishlist item-added event.
type WishlistItemAddedPayload struct {
	WishlistID string `json:"wishlist_id"`
	ProductID  string `json:"product_id"`
	VariantID  string `json:"variant_id,omitempty"`
}

// WishlistItemRemovedPayload is the data of a wishlist item-removed event.
type WishlistItemRemovedPayload struct {
	WishlistID string `json:"wishlist_id"`
	ProductID  string `json:"product_id"`
	VariantID  string `json:"variant_id,omitempty"`
}

// WishlistSharedPayload is the data of a wishlist shared event.
type WishlistSharedPayload struct {
	WishlistID string `json:"wishlist_id"`
	ShareToken string `json:"share_token"`
}

// CartUpdatedPayload is the data of a cart updated event.
type CartUpdatedPayload struct {
	Owner       string `json:"owner"`
	ItemCount   int    `json:"item_count"`
	TotalAmount int64  `json:"total_amount"`
}

// CartMergedPayload is the data of a guest-to-user cart merge event.
type CartMergedPayload struct {
	UserID    string `json:"user_id"`
	ItemCount int    `json:"item_count"`
}

// WebhookReceivedPayload is the data of a verified payment webhook event.
type WebhookReceivedPayload struct {
	Provider  string `json:"provider"`
	EventType string `json:"event_type"`
	EventID   string `json:"event_id"`
}

func (p *Publisher) WishlistItemAdded(ctx context.Context, wishlistID, productID, variantID string) {
	p.publish(ctx, TopicWishlistUpdated, "wishlist.item_added", wishlistID, "wishlist",
		WishlistItemAddedPayload{WishlistID: wishlistID, ProductID: productID, VariantID: variantID})
}

func (p *Publisher) WishlistItemRemoved(ctx context.Context, wishlistID, productID, variantID string) {
	p.publish(ctx, TopicWishlistUpdated, "wishlist.item_removed", wishlistID, "wishlist",
		WishlistItemRemovedPayload{WishlistID: wishlistID, ProductID: productID, VariantID: variantID})
}

func (p *Publisher) WishlistShared(ctx context.Context, wishlistID, shareToken string) {
	p.publish(ctx, TopicWishlistShared, "wishlist.shared", wishlistID, "wishlist",
		WishlistSharedPayload{WishlistID: wishlistID, ShareToken: shareToken})
}

func (p *Publisher) CartUpdated(ctx context.Context, owner string, itemCount int, total int64) {
	p.publish(ctx, TopicCartUpdated, "cart.updated", owner, "cart",
		CartUpdatedPayload{Owner: owner, ItemCount: itemCount, TotalAmount: total})
}

func (p *Publisher) CartMerged(ctx context.Context, userID string, itemCount int) {
	p.publish(ctx, TopicCartMerged, "cart.merged", userID, "cart",
		CartMergedPayload{UserID: userID, ItemCount: itemCount})
}

func (p *Publisher) WebhookReceived(ctx context.Context, provider, eventType, eventID string) {
	p.publish(ctx, TopicWebhookReceived, "payment.webhook_received", eventID, "webhook",
		WebhookReceivedPayload{Provider: provider, EventType: eventType, EventID: eventID})
}

func (p *Publisher) publish(ctx context.Context, topic, eventType, aggregateID, aggregateType string, data any) {
	ev, err := kafka.NewEvent(eventType, aggregateID, aggregateType, source, data)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to build event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
		return
	}

	if cid := logger.CorrelationIDFromContext(ctx); cid != "" {
		ev.WithCorrelationID(cid)
	}

	if err := p.producer.Publish(ctx, topic, ev); err != nil {
		p.logger.WarnContext(ctx, "event not published",
			slog.String("topic", topic),
			slog.String("event_type", eventType),
			slog.String("error", err.Error()),
		)
	}
}
