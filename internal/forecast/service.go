package forecast

import (
	"context"

	"github.com/pmulloy/kitewind/internal/models"
)

// Service is the forecast engine's asynchronous consumer surface. Requests
// for a base model go straight through the normalizing client; requests for
// the blended variant fan out across the enabled models.
type Service struct {
	client  *Client
	blender *Blender
	cache   *Cache
}

func NewService(cache *Cache, client *Client, enabled []string) *Service {
	return &Service{
		client:  client,
		blender: NewBlender(client, enabled),
		cache:   cache,
	}
}

// FetchDaily returns 7 daily points for the given model or blend.
func (s *Service) FetchDaily(ctx context.Context, lat, lng float64, model string) ([]models.ForecastPoint, error) {
	if model == ModelBlend {
		return s.blender.Daily(ctx, lat, lng)
	}
	return s.client.FetchDaily(ctx, lat, lng, model)
}

// FetchHourly returns 24 hourly points for the requested day offset.
func (s *Service) FetchHourly(ctx context.Context, lat, lng float64, model string, dayOffset int) ([]models.ForecastPoint, error) {
	if model == ModelBlend {
		return s.blender.Hourly(ctx, lat, lng, dayOffset)
	}
	return s.client.FetchHourly(ctx, lat, lng, model, dayOffset)
}

// ClearCache drops every cached per-model forecast.
func (s *Service) ClearCache() {
	s.cache.Clear()
}
