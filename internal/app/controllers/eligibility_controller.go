package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/exchangeintake/internal/app/models/dto"
	"github.com/yigit/exchangeintake/internal/app/services"
	"github.com/yigit/exchangeintake/internal/middleware"
)

// EligibilityController serves the course catalog and eligibility checks
type EligibilityController struct {
	eligibilityService services.EligibilityService
}

// NewEligibilityController creates a new EligibilityController
func NewEligibilityController(eligibilityService services.EligibilityService) *EligibilityController {
	return &EligibilityController{eligibilityService: eligibilityService}
}

// GetCatalog returns the course mapping snapshot
// @Summary Get the course catalog
// @Description Returns every course mapping row. Pass refresh=true to refetch from the source first.
// @Tags catalog
// @Produce json
// @Param refresh query bool false "Force a refetch"
// @Success 200 {object} dto.APIResponse{data=dto.CatalogResponse} "Catalog snapshot"
// @Failure 502 {object} dto.ErrorResponse "Catalog source unavailable"
// @Router /catalog [get]
func (c *EligibilityController) GetCatalog(ctx *gin.Context) {
	refresh, _ := strconv.ParseBool(ctx.Query("refresh"))

	resp, err := c.eligibilityService.GetCatalog(ctx.Request.Context(), refresh)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// GetCountries lists destination countries
// @Summary List destination countries
// @Tags catalog
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.CountriesResponse} "Countries"
// @Router /catalog/countries [get]
func (c *EligibilityController) GetCountries(ctx *gin.Context) {
	resp, err := c.eligibilityService.GetCountries(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// GetUniversities lists partner universities in a country
// @Summary List partner universities
// @Tags catalog
// @Produce json
// @Param country query string true "Country name"
// @Success 200 {object} dto.APIResponse{data=dto.UniversitiesResponse} "Universities"
// @Failure 400 {object} dto.ErrorResponse "Country missing"
// @Router /catalog/universities [get]
func (c *EligibilityController) GetUniversities(ctx *gin.Context) {
	resp, err := c.eligibilityService.GetUniversities(ctx.Request.Context(), ctx.Query("country"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// Evaluate checks course codes against one university's mappings
// @Summary Evaluate courses at a university
// @Tags eligibility
// @Accept json
// @Produce json
// @Param request body dto.EvaluateRequest true "Codes and destination"
// @Success 200 {object} dto.APIResponse{data=dto.EvaluateResponse} "Per-course verdicts"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Router /eligibility/evaluate [post]
func (c *EligibilityController) Evaluate(ctx *gin.Context) {
	var req dto.EvaluateRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.eligibilityService.Evaluate(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// Recommend ranks universities for a course list
// @Summary Recommend universities
// @Tags eligibility
// @Accept json
// @Produce json
// @Param request body dto.RecommendRequest true "Codes and result limit"
// @Success 200 {object} dto.APIResponse{data=dto.RecommendResponse} "Ranked universities"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Router /eligibility/recommend [post]
func (c *EligibilityController) Recommend(ctx *gin.Context) {
	var req dto.RecommendRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.eligibilityService.Recommend(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
