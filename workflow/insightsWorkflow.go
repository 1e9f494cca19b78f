package workflow

import (
	"github.com/mmdatafocus/storefront_insights/config"
	"github.com/mmdatafocus/storefront_insights/insights"
	"github.com/mmdatafocus/storefront_insights/llm"
	"github.com/mmdatafocus/storefront_insights/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// NewInsightsService wires the insights pipeline against db. The returned notifier is nil
// when no topic is configured; otherwise the caller must Run it.
func NewInsightsService(s config.Settings, db *gorm.DB, logger *logrus.Logger) (*insights.Service, *InsightsNotifier, error) {
	provider, err := llm.New(s.LLM, nil)
	if err != nil {
		return nil, nil, err
	}

	currency := s.Insights.CurrencySymbol
	opts := []insights.ServiceOption{
		insights.WithFallbackOnError(config.FallbackOnGenerationError()),
	}
	if locker := config.GetRedisLock(); locker != nil {
		opts = append(opts, insights.WithLocker(locker, s.Insights.LockTTL))
	}

	var notifier *InsightsNotifier
	if s.Insights.PubSubTopic != "" {
		notifier = NewInsightsNotifier(s.Insights.PubSubTopic, logger)
		opts = append(opts, insights.WithNotifier(notifier))
	}

	svc := insights.NewService(
		insights.NewAggregator(models.NewStoreGateway(db)),
		insights.NewGenerator(provider, s.Insights.GenerationTimeout, currency),
		insights.NewSynthesizer(currency, config.StrictInsightsSchema()),
		insights.NewCache(s.Insights.CacheTTL),
		opts...,
	)

	logger.WithFields(logrus.Fields{
		"field":     "insights",
		"provider":  provider.Name(),
		"cache_ttl": s.Insights.CacheTTL.String(),
		"notifier":  notifier != nil,
	}).Info("insights service ready")
	return svc, notifier, nil
}
