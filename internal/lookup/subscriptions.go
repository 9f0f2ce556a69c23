package lookup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/tubular/internal/domain"
	"github.com/mmcdole/tubular/internal/request"
)

// SubscriptionsResource is the listing of the signed-in user's subscriptions
const SubscriptionsResource = "/subscriptions"

const subscriptionsPageSize = 50

// Resolver creates Requests for a service. *registry.Registry satisfies it.
type Resolver interface {
	NewRequest(service string) domain.Request
}

// NewSubscriptions builds the subscription index for service: channel id to
// subscription id. Records are expected to carry "channelId" and
// "subscriptionId".
func NewSubscriptions(resolver Resolver, service string, logger *slog.Logger, opts ...Option) *Cache {
	fetch := func(ctx context.Context, pageToken string) (map[string]string, string, error) {
		req := resolver.NewRequest(service)
		if req == nil {
			return nil, "", fmt.Errorf("%w: %q", domain.ErrUnknownService, service)
		}

		_, err := request.Await(ctx, req, func() {
			req.List(domain.ListRequest{
				Kind:       domain.KindUser,
				ResourceID: SubscriptionsResource,
				Params: map[string]any{
					"mine":       true,
					"maxResults": subscriptionsPageSize,
				},
				PageToken: pageToken,
			})
		})
		if err != nil {
			return nil, "", err
		}

		result := req.Result()
		pairs := make(map[string]string, len(result.Items))
		for _, item := range result.Items {
			channelID, _ := item["channelId"].(string)
			id, _ := item["subscriptionId"].(string)
			if channelID == "" || id == "" {
				continue
			}
			pairs[channelID] = id
		}
		return pairs, result.Next, nil
	}

	return New(fetch, append([]Option{WithLogger(logger)}, opts...)...)
}
