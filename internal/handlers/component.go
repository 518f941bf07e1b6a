// internal/handlers/component.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/prodcare/prodcare-backend/internal/models"
	"github.com/prodcare/prodcare-backend/internal/repository"
	"github.com/prodcare/prodcare-backend/internal/services"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

type ComponentHandler struct {
	componentService *services.ComponentService
	treeService      *services.TreeService
}

func NewComponentHandler(componentService *services.ComponentService, treeService *services.TreeService) *ComponentHandler {
	return &ComponentHandler{
		componentService: componentService,
		treeService:      treeService,
	}
}

// POST /component/create
func (h *ComponentHandler) CreateComponent(c *gin.Context) {
	var req services.CreateComponentRequest
	if !bindJSON(c, &req) {
		return
	}

	component, err := h.componentService.CreateComponent(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"component": component})
}

// PUT /component/update
func (h *ComponentHandler) UpdateComponent(c *gin.Context) {
	var req services.UpdateComponentRequest
	if !bindJSON(c, &req) {
		return
	}

	component, err := h.componentService.UpdateComponent(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"component": component})
}

// DELETE /component/delete
func (h *ComponentHandler) DeleteComponents(c *gin.Context) {
	ids, ok := bindIDList(c, "componentIds")
	if !ok {
		return
	}

	deleteCount, err := h.componentService.DeleteComponents(c.Request.Context(), actorFrom(c), ids)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleteCount": deleteCount})
}

// GET /component/find
func (h *ComponentHandler) FindComponents(c *gin.Context) {
	filter := repository.ComponentFilter{
		Q:          c.Query("q"),
		Type:       models.ComponentType(c.Query("type")),
		Level:      queryInt(c, "level"),
		ParentID:   queryInt64(c, "parentId"),
		ProductID:  queryInt64(c, "productId"),
		ProjectID:  c.Query("projectId"),
		CustomerID: queryInt64(c, "customerId"),
		Status:     c.Query("status"),
		Situation:  models.Situation(c.Query("situation")),
		Page:       utils.GetPageParams(c),
	}

	rows, total, err := h.componentService.FindComponents(c.Request.Context(), filter)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, "components", rows, len(rows), total, filter.Page)
}

// GET /component/detail/:id
func (h *ComponentHandler) GetComponentDetail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.componentService.GetComponentDetail(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"component": detail.Component,
		"fullPath":  detail.FullPath,
		"events":    detail.Events,
		"issues":    detail.Issues,
	})
}

// GET /component/children/:id
func (h *ComponentHandler) GetChildren(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	recursive := queryBool(c, "recursive")

	components, err := h.componentService.GetChildren(c.Request.Context(), id, recursive != nil && *recursive)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"components": components, "count": len(components)})
}

type cascadeSerialRequest struct {
	ID int64 `json:"id" binding:"required"`
}

// POST /product/serial
func (h *ComponentHandler) CascadeSerial(c *gin.Context) {
	var req cascadeSerialRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.treeService.CascadeSerial(c.Request.Context(), actorFrom(c), req.ID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"updated": updated})
}
