package handlers

import (
	"phishguard/internal/domain/services"
	"phishguard/internal/infrastructure/cache"
	"phishguard/internal/infrastructure/database/repository"
	"phishguard/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health   *HealthHandler
	Analysis *AnalysisHandler
	Text     *TextHandler
	URL      *URLHandler
	Stats    *StatsHandler
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Combined *services.CombinedAnalyzer
	Text     *services.TextAnalyzer
	URLs     *services.URLAnalyzer
	Repos    *repository.Repositories
	Cache    *cache.RedisCache
	Logger   *logger.Logger
	Version  string
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Cache, deps.Repos, deps.Version, deps.Logger),
		Analysis: NewAnalysisHandler(deps.Combined, deps.Logger),
		Text:     NewTextHandler(deps.Text, deps.Logger),
		URL:      NewURLHandler(deps.URLs, deps.Logger),
		Stats:    NewStatsHandler(deps.Repos, deps.Logger),
	}
}
