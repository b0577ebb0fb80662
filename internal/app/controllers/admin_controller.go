package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/exchangeintake/internal/app/models"
	"github.com/yigit/exchangeintake/internal/app/models/dto"
	"github.com/yigit/exchangeintake/internal/app/services"
	"github.com/yigit/exchangeintake/internal/middleware"
	"github.com/yigit/exchangeintake/internal/pkg/helpers"
)

// AdminController handles the exchange office's review of applications
type AdminController struct {
	applicationService services.ApplicationService
}

// NewAdminController creates a new AdminController
func NewAdminController(applicationService services.ApplicationService) *AdminController {
	return &AdminController{applicationService: applicationService}
}

// ListApplications lists applications, most recent submission first
// @Summary List applications
// @Tags admin
// @Produce json
// @Security AdminSession
// @Param status query string false "Filter by status"
// @Param page query int false "Page number (1-based)" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.ApplicationListResponse} "Applications"
// @Failure 400 {object} dto.ErrorResponse "Invalid status filter"
// @Failure 401 {object} dto.ErrorResponse "Not authenticated"
// @Router /admin/applications [get]
func (c *AdminController) ListApplications(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	filter := models.ApplicationFilter{
		Status: models.ApplicationStatus(ctx.Query("status")),
		Page:   page,
		Size:   size,
	}

	resp, err := c.applicationService.ListApplications(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// UpdateApplication changes status and/or admin notes
// @Summary Update an application
// @Description Moving an application into nominated or approved emails the student.
// @Tags admin
// @Accept json
// @Produce json
// @Security AdminSession
// @Param id path string true "Application ID"
// @Param request body dto.UpdateApplicationRequest true "Changes"
// @Success 200 {object} dto.APIResponse{data=models.Application} "Updated application"
// @Failure 400 {object} dto.ErrorResponse "Invalid update"
// @Failure 401 {object} dto.ErrorResponse "Not authenticated"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Router /admin/applications/{id} [patch]
func (c *AdminController) UpdateApplication(ctx *gin.Context) {
	var req dto.UpdateApplicationRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	app, err := c.applicationService.UpdateApplication(ctx.Request.Context(), ctx.Param("id"), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(app))
}

// DeleteApplication removes an application
// @Summary Delete an application
// @Tags admin
// @Produce json
// @Security AdminSession
// @Param id path string true "Application ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Deleted"
// @Failure 401 {object} dto.ErrorResponse "Not authenticated"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Router /admin/applications/{id} [delete]
func (c *AdminController) DeleteApplication(ctx *gin.Context) {
	if err := c.applicationService.DeleteApplication(ctx.Request.Context(), ctx.Param("id")); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Application deleted"}))
}

// AddComment leaves a comment for the student
// @Summary Comment on an application
// @Tags admin
// @Accept json
// @Produce json
// @Security AdminSession
// @Param id path string true "Application ID"
// @Param request body dto.AddCommentRequest true "Comment"
// @Success 201 {object} dto.APIResponse{data=models.AdminComment} "Comment added"
// @Failure 400 {object} dto.ErrorResponse "Invalid comment"
// @Failure 401 {object} dto.ErrorResponse "Not authenticated"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Router /admin/applications/{id}/comments [post]
func (c *AdminController) AddComment(ctx *gin.Context) {
	var req dto.AddCommentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	comment, err := c.applicationService.AddComment(ctx.Request.Context(), ctx.Param("id"), middleware.AdminEmail(ctx), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(comment))
}

// DownloadPDF exports an application as PDF
// @Summary Download application PDF
// @Tags admin
// @Produce application/pdf
// @Security AdminSession
// @Param id path string true "Application ID"
// @Success 200 {file} file "PDF document"
// @Failure 401 {object} dto.ErrorResponse "Not authenticated"
// @Failure 404 {object} dto.ErrorResponse "Application not found"
// @Router /admin/applications/{id}/download [get]
func (c *AdminController) DownloadPDF(ctx *gin.Context) {
	pdf, app, err := c.applicationService.ExportPDF(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="application-%s.pdf"`, app.ID))
	ctx.Data(http.StatusOK, "application/pdf", pdf)
}
