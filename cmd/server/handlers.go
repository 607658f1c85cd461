package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/medless/internal/analysis"
	"github.com/Skufu/medless/internal/dosing"
	"github.com/Skufu/medless/internal/medication"
)

type handlers struct {
	planner  *dosing.Planner
	analyzer *analysis.Service
	meds     medication.Repository
	db       HealthChecker
	cache    HealthChecker
}

func (h *handlers) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	body := gin.H{"status": "ok", "db": "disabled", "cache": "memory"}
	status := http.StatusOK
	if h.db != nil {
		body["db"] = "ok"
		if err := h.db.Ping(ctx); err != nil {
			body["db"] = fmt.Sprintf("unhealthy: %v", err)
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	if h.cache != nil {
		body["cache"] = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			body["cache"] = fmt.Sprintf("unhealthy: %v", err)
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, body)
}

func (h *handlers) analyze(c *gin.Context) {
	var req analysis.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	resp, err := h.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		var verr *dosing.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":      "validation_failed",
				"field":      verr.Field,
				"medication": verr.Medication,
				"message":    verr.Message,
			})
		case errors.Is(err, dosing.ErrDoseTooHigh):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "dose_too_high",
				"message": "the required CBD dose cannot be covered by the available products",
			})
		default:
			log.Printf("analyze failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handlers) products(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"products":       h.planner.Catalog(),
		"bottleCapacity": dosing.BottleCapacity,
	})
}

func (h *handlers) listMedications(c *gin.Context) {
	if h.meds == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "medication directory disabled"})
		return
	}
	meds, err := h.meds.List(c.Request.Context())
	if err != nil {
		log.Printf("list medications: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list medications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"medications": meds})
}

func (h *handlers) searchMedications(c *gin.Context) {
	if h.meds == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "medication directory disabled"})
		return
	}
	query := strings.TrimSpace(c.Param("query"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	meds, err := h.meds.Search(c.Request.Context(), query)
	if err != nil {
		log.Printf("search medications %q: %v", query, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"medications": meds})
}
