// internal/handlers/issue.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/prodcare/prodcare-backend/internal/models"
	"github.com/prodcare/prodcare-backend/internal/repository"
	"github.com/prodcare/prodcare-backend/internal/services"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

type IssueHandler struct {
	issueService     *services.IssueService
	situationService *services.SituationService
}

func NewIssueHandler(issueService *services.IssueService, situationService *services.SituationService) *IssueHandler {
	return &IssueHandler{
		issueService:     issueService,
		situationService: situationService,
	}
}

// POST /issue/create
func (h *IssueHandler) CreateIssue(c *gin.Context) {
	var req services.CreateIssueRequest
	if !bindJSON(c, &req) {
		return
	}

	issue, err := h.issueService.CreateIssue(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"issue": issue})
}

// PUT /issue/update
func (h *IssueHandler) UpdateIssue(c *gin.Context) {
	var req services.UpdateIssueRequest
	if !bindJSON(c, &req) {
		return
	}

	issue, err := h.issueService.UpdateIssue(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"issue": issue})
}

// DELETE /issue/delete
func (h *IssueHandler) DeleteIssues(c *gin.Context) {
	ids, ok := bindIDList(c, "issueIds")
	if !ok {
		return
	}

	deleteCount, err := h.issueService.DeleteIssues(c.Request.Context(), actorFrom(c), ids)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleteCount": deleteCount})
}

// GET /issue/find
func (h *IssueHandler) FindIssues(c *gin.Context) {
	filter := repository.IssueFilter{
		Q:               c.Query("q"),
		Status:          models.IssueStatus(c.Query("status")),
		Type:            models.IssueType(c.Query("type")),
		RemainStatus:    models.RemainStatus(c.Query("remainStatus")),
		WarrantyStatus:  models.WarrantyStatus(c.Query("warrantyStatus")),
		UnhandleReason:  c.Query("unhandleReason"),
		ResponsibleType: models.ResponsibleType(c.Query("responsibleType")),
		ProjectID:       c.Query("projectId"),
		ProductID:       queryInt64(c, "productId"),
		AccountID:       c.Query("accountId"),
		CustomerID:      queryInt64(c, "customerId"),
		StopFighting:    queryBool(c, "stopFighting"),
		Level:           c.Query("level"),
		StartTime:       queryDay(c, "startTime", false),
		EndTime:         queryDay(c, "endTime", true),
		Page:            utils.GetPageParams(c),
	}

	rows, total, err := h.issueService.FindIssues(c.Request.Context(), filter, queryInt64(c, "componentId"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, "issues", rows, len(rows), total, filter.Page)
}

// GET /issue/detail/:issueId
func (h *IssueHandler) GetIssueDetail(c *gin.Context) {
	id, ok := pathID(c, "issueId")
	if !ok {
		return
	}

	detail, err := h.issueService.GetIssueDetail(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"issue":         detail.Issue,
		"componentPath": detail.ComponentPath,
		"customer":      detail.Customer,
		"events":        detail.Events,
	})
}

// GET /issue/reasons
func (h *IssueHandler) ListReasons(c *gin.Context) {
	reasons, err := h.issueService.ListReasons(c.Request.Context(), c.Query("projectId"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"total": len(reasons), "reasons": reasons})
}

// PUT /issue/situation
func (h *IssueHandler) ReconcileSituation(c *gin.Context) {
	result, err := h.situationService.Reconcile(c.Request.Context())
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"reconcile": result})
}
