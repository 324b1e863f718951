package services

import (
	"context"
	"net/http"

	"github.com/desertthunder/vtx/internal/models"
)

// SubscriptionService covers the subscriptions/* endpoints.
type SubscriptionService struct {
	c *client
}

// List returns one page of the viewer's subscriptions.
func (s *SubscriptionService) List(ctx context.Context, q models.PageQuery) ([]models.Subscription, error) {
	raw, err := s.c.getList(ctx, endpoint("subscriptions"), pageQuery(q, 12))
	if err != nil {
		return nil, err
	}
	return decodeList[models.Subscription](raw)
}

// Subscribe follows a channel.
func (s *SubscriptionService) Subscribe(ctx context.Context, channelID string) error {
	return s.c.sendJSON(ctx, http.MethodPost, endpoint("subscriptions", channelID), struct{}{}, nil)
}

// Unsubscribe stops following a channel.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, channelID string) error {
	return s.c.doRequest(ctx, jsonless(http.MethodDelete, endpoint("subscriptions", channelID)), nil)
}

// Toggle unsubscribes when subscribed is true and subscribes otherwise.
func (s *SubscriptionService) Toggle(ctx context.Context, channelID string, subscribed bool) error {
	if subscribed {
		return s.Unsubscribe(ctx, channelID)
	}
	return s.Subscribe(ctx, channelID)
}

// Status reports whether the viewer follows the channel.
func (s *SubscriptionService) Status(ctx context.Context, channelID string) (*models.SubscriptionStatus, error) {
	var status models.SubscriptionStatus
	if err := s.c.get(ctx, endpoint("subscriptions", "status", channelID), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}
