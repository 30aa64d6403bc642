package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-civicfix/ingest"
	"go-civicfix/store"
	"go-civicfix/types"
)

type submitRequest struct {
	// Pointers so 0 (equator, prime meridian) passes required validation.
	Lat         *float64 `json:"lat" binding:"required"`
	Lon         *float64 `json:"lon" binding:"required"`
	PhotoBase64 string   `json:"photo" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
}

// SubmitReport accepts a citizen complaint and runs it through ingestion.
func SubmitReport(c *gin.Context, svc *ingest.Service) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	photo, err := base64.StdEncoding.DecodeString(req.PhotoBase64)
	if err != nil || len(photo) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo must be non-empty base64"})
		return
	}

	report, err := svc.Submit(c.Request.Context(), ingest.Submission{
		Lat:          *req.Lat,
		Lon:          *req.Lon,
		Photo:        photo,
		Description:  req.Description,
		CategoryHint: req.Category,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, report)
}

func GetReport(c *gin.Context, svc *ingest.Service) {
	report, err := svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func GetReportDuplicates(c *gin.Context, svc *ingest.Service) {
	duplicates, err := svc.Duplicates(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"duplicates": duplicates})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateReportStatus moves a report between pending, verified and resolved.
func UpdateReportStatus(c *gin.Context, svc *ingest.Service) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := types.Status(req.Status)
	if !types.ValidStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be pending, verified or resolved"})
		return
	}

	report, err := svc.UpdateStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}
