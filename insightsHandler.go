package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/storefront_insights/config"
	"github.com/mmdatafocus/storefront_insights/insights"
	"github.com/mmdatafocus/storefront_insights/middlewares"
	"github.com/mmdatafocus/storefront_insights/utils"
)

const insightsFailureMessage = "Failed to generate insights"

var errServiceNotReady = errors.New("insights service not ready")

type insightsGenerator interface {
	Generate(ctx context.Context) (*insights.Response, error)
}

// lazyInsights lets routes be registered before the database is connected.
type lazyInsights struct {
	svc atomic.Pointer[insights.Service]
}

func (l *lazyInsights) Set(svc *insights.Service) {
	l.svc.Store(svc)
}

func (l *lazyInsights) Ready() bool {
	return l.svc.Load() != nil
}

func (l *lazyInsights) Generate(ctx context.Context) (*insights.Response, error) {
	svc := l.svc.Load()
	if svc == nil {
		return nil, errServiceNotReady
	}
	return svc.Generate(ctx)
}

func insightsFailure(c *gin.Context, funcName string, err error) {
	logger := config.GetLogger()
	ctx := c.Request.Context()
	data := map[string]any{}
	if cid, ok := utils.GetCorrelationIdFromContext(ctx); ok {
		data["correlationId"] = cid
	}
	if claim := middlewares.CtxValue(ctx); claim != nil {
		data["userId"] = claim.ID
	}
	cause := "generate"
	switch {
	case errors.Is(err, insights.ErrSourceFetch):
		cause = "source fetch"
	case errors.Is(err, insights.ErrGeneration):
		cause = "generation call"
	}
	config.LogError(logger, "insightsHandler.go", funcName, insightsFailureMessage+" ("+cause+")", data, err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   insightsFailureMessage,
	})
}

func insightsHandler(svc insightsGenerator) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Generate(c.Request.Context())
		if err != nil {
			insightsFailure(c, "insightsHandler", err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

func insightsExportHandler(svc insightsGenerator) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Generate(c.Request.Context())
		if err != nil {
			insightsFailure(c, "insightsExportHandler", err)
			return
		}

		filename := fmt.Sprintf("insights-%s.xlsx", time.Now().UTC().Format("20060102-1504"))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment; filename="+filename)
		c.Status(http.StatusOK)
		if err := insights.WriteWorkbook(c.Writer, res); err != nil {
			config.LogError(config.GetLogger(), "insightsHandler.go", "insightsExportHandler", "Failed to write workbook", nil, err)
		}
	}
}
