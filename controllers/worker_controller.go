package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nearnect/nearnect-api/config"
	"github.com/nearnect/nearnect-api/services"
	"github.com/nearnect/nearnect-api/utils"
)

// SearchWorkers handles GET /api/v1/workers - public worker discovery.
// The body is the bare search result, not the success envelope.
func SearchWorkers(c *gin.Context) {
	params := services.WorkerSearchParams{
		Search:       c.Query("search"),
		Skill:        c.Query("skill"),
		Availability: c.Query("availability"),
		Sort:         c.DefaultQuery("sort", services.DefaultSearchSort),
		MaxDistance:  utils.ParseRadius(c.Query("maxDistance")),
	}

	var ok bool
	if params.MinPrice, ok = utils.ParseOptionalFloat(c.Query("minPrice")); !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "minPrice must be a number")
		return
	}
	if params.MaxPrice, ok = utils.ParseOptionalFloat(c.Query("maxPrice")); !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "maxPrice must be a number")
		return
	}
	if params.MinRating, ok = utils.ParseOptionalFloat(c.Query("minRating")); !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "minRating must be a number")
		return
	}
	if params.Limit, ok = utils.ParsePositiveInt(c.Query("limit"), services.DefaultSearchLimit); !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a positive integer")
		return
	}
	if params.Page, ok = utils.ParsePositiveInt(c.Query("page"), 1); !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "page must be a positive integer")
		return
	}
	if params.Limit > maxListLimit {
		params.Limit = maxListLimit
	}

	ref, err := utils.ParseGeoPoint(c.Query("latitude"), c.Query("longitude"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	params.Reference = ref

	svc := services.NewWorkerSearchService(config.GetDB())
	result, err := svc.Search(c.Request.Context(), params)
	if err != nil {
		respondServerError(c, "INTERNAL_ERROR", "Failed to search workers", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// NearbyWorkerCount handles GET /api/v1/workers/nearby/count
func NearbyWorkerCount(c *gin.Context) {
	if c.Query("latitude") == "" || c.Query("longitude") == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Latitude and longitude are required")
		return
	}

	center, err := utils.ParseGeoPoint(c.Query("latitude"), c.Query("longitude"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	svc := services.NewWorkerSearchService(config.GetDB())
	result, err := svc.NearbyCount(c.Request.Context(), *center, utils.ParseRadius(c.Query("maxDistance")))
	if err != nil {
		respondServerError(c, "INTERNAL_ERROR", "Failed to count nearby workers", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetWorkerProfile handles GET /api/v1/workers/:id
func GetWorkerProfile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	svc := services.NewWorkerSearchService(config.GetDB())
	profile, err := svc.Profile(c.Request.Context(), id)
	switch {
	case errors.Is(err, services.ErrWorkerNotFound):
		respondError(c, http.StatusNotFound, "WORKER_NOT_FOUND", "Worker not found")
		return
	case errors.Is(err, services.ErrNotAWorker):
		respondError(c, http.StatusBadRequest, "NOT_A_WORKER", "User is not a worker")
		return
	case err != nil:
		respondServerError(c, "DATABASE_ERROR", "Failed to load worker profile", err)
		return
	}

	respondOK(c, http.StatusOK, profile)
}

// ListSkills handles GET /api/v1/workers/skills/list
func ListSkills(c *gin.Context) {
	svc := services.NewWorkerSearchService(config.GetDB())
	skills, err := svc.Skills(c.Request.Context())
	if err != nil {
		respondServerError(c, "DATABASE_ERROR", "Failed to list skills", err)
		return
	}

	respondOK(c, http.StatusOK, skills)
}
