package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/exchangeintake/internal/app/models/dto"
	"github.com/yigit/exchangeintake/internal/app/services"
	"github.com/yigit/exchangeintake/internal/middleware"
)

// ApplicationController handles the student-facing application wizard
type ApplicationController struct {
	applicationService services.ApplicationService
}

// NewApplicationController creates a new ApplicationController
func NewApplicationController(applicationService services.ApplicationService) *ApplicationController {
	return &ApplicationController{applicationService: applicationService}
}

// Submit stores a completed application
// @Summary Submit an application
// @Description Validates and stores the application, re-evaluating courses against the catalog. Confirmation emails are sent in the background.
// @Tags applications
// @Accept json
// @Produce json
// @Param request body dto.SubmitApplicationRequest true "Application"
// @Success 201 {object} dto.APIResponse{data=dto.SubmitApplicationResponse} "Application submitted"
// @Failure 400 {object} dto.ErrorResponse "Invalid application data"
// @Failure 429 {object} dto.ErrorResponse "Too many submissions"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /applications [post]
func (c *ApplicationController) Submit(ctx *gin.Context) {
	var req dto.SubmitApplicationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.applicationService.Submit(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// SaveDraft stores partial wizard state
// @Summary Save a draft
// @Description Updates the draft with the given id while it is still a draft, otherwise creates a new draft.
// @Tags applications
// @Accept json
// @Produce json
// @Param request body dto.SaveDraftRequest true "Partial application"
// @Success 200 {object} dto.APIResponse{data=dto.DraftResponse} "Draft saved"
// @Failure 400 {object} dto.ErrorResponse "Invalid draft data"
// @Failure 429 {object} dto.ErrorResponse "Too many requests"
// @Router /applications/draft [post]
func (c *ApplicationController) SaveDraft(ctx *gin.Context) {
	var req dto.SaveDraftRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.applicationService.SaveDraft(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// GetDraft loads a saved draft
// @Summary Load a draft
// @Tags applications
// @Produce json
// @Param id query string true "Draft ID"
// @Success 200 {object} dto.APIResponse{data=dto.DraftResponse} "Draft"
// @Failure 400 {object} dto.ErrorResponse "Draft ID required"
// @Failure 404 {object} dto.ErrorResponse "Draft not found"
// @Router /applications/draft [get]
func (c *ApplicationController) GetDraft(ctx *gin.Context) {
	draft, err := c.applicationService.GetDraft(ctx.Request.Context(), ctx.Query("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.DraftResponse{DraftID: draft.ID, Draft: draft}))
}

// GetApplication retrieves an application by ID
// @Summary Get an application
// @Tags applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} dto.APIResponse{data=models.Application} "Application"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Router /applications/{id} [get]
func (c *ApplicationController) GetApplication(ctx *gin.Context) {
	app, err := c.applicationService.GetApplication(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(app))
}

// GetStatus returns an application's status
// @Summary Get application status
// @Tags applications
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationStatusResponse} "Status"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Router /applications/{id}/status [get]
func (c *ApplicationController) GetStatus(ctx *gin.Context) {
	resp, err := c.applicationService.GetStatus(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
