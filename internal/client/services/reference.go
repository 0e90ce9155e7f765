package services

import (
	"context"
	"fmt"

	"github.com/civilog/civilog-cli/internal/client/cache"
	"github.com/civilog/civilog-cli/internal/client/models"
	"github.com/civilog/civilog-cli/internal/common"
)

// Projects returns the live project list, refreshing the cache on success
// and falling back to the cache when the fetch fails.
func (s *reportService) Projects(ctx context.Context) ([]models.Project, error) {
	live, err := s.api.FetchProjects(ctx)
	if err == nil {
		if cerr := cache.Set(ctx, s.cache, cache.KeyProjects, live); cerr != nil {
			s.log.Warn(ctx, "failed to cache projects", "error", cerr)
		}
		return live, nil
	}

	if cached, ok := cache.Get[[]models.Project](ctx, s.cache, cache.KeyProjects); ok {
		s.log.Warn(ctx, "projects fetch failed, using cache", "error", err)
		return cached, nil
	}
	return nil, fmt.Errorf("%w: projects: %s", common.ErrNoData, err)
}

// Elements returns one project's hierarchy, live-first with cache fallback.
func (s *reportService) Elements(ctx context.Context, projectID string) (*models.Elements, error) {
	live, err := s.api.FetchElements(ctx, projectID)
	if err == nil {
		if cerr := cache.Set(ctx, s.cache, cache.KeyElements(projectID), live); cerr != nil {
			s.log.Warn(ctx, "failed to cache elements", "project", projectID, "error", cerr)
		}
		return live, nil
	}

	if cached, ok := cache.Get[*models.Elements](ctx, s.cache, cache.KeyElements(projectID)); ok && cached != nil {
		s.log.Warn(ctx, "elements fetch failed, using cache", "project", projectID, "error", err)
		return cached, nil
	}
	return nil, fmt.Errorf("%w: elements: %s", common.ErrNoData, err)
}

// UnitTypes returns unit types live-first, then cached, then the built-in
// fallback set. It never fails: some unit list is always available.
func (s *reportService) UnitTypes(ctx context.Context) ([]models.UnitType, error) {
	live, err := s.api.FetchUnitTypes(ctx)
	if err == nil {
		if cerr := cache.Set(ctx, s.cache, cache.KeyUnitTypes, live); cerr != nil {
			s.log.Warn(ctx, "failed to cache unit types", "error", cerr)
		}
		return live, nil
	}

	if cached, ok := cache.Get[[]models.UnitType](ctx, s.cache, cache.KeyUnitTypes); ok && len(cached) > 0 {
		s.log.Warn(ctx, "unit types fetch failed, using cache", "error", err)
		return cached, nil
	}

	s.log.Warn(ctx, "unit types unavailable, using built-in set", "error", err)
	return models.DefaultUnitTypes(), nil
}
