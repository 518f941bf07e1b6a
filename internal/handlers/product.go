// internal/handlers/product.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/prodcare/prodcare-backend/internal/models"
	"github.com/prodcare/prodcare-backend/internal/repository"
	"github.com/prodcare/prodcare-backend/internal/services"
	"github.com/prodcare/prodcare-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

func productFilter(c *gin.Context) repository.ProductFilter {
	return repository.ProductFilter{
		Q:                   c.Query("q"),
		Type:                models.ProductType(c.Query("type")),
		ProjectID:           c.Query("projectId"),
		ProductionBatchesID: c.Query("productionBatchesId"),
		CustomerID:          queryInt64(c, "customerId"),
		Status:              c.Query("status"),
		Situation:           models.Situation(c.Query("situation")),
		StartTime:           queryDay(c, "startTime", false),
		EndTime:             queryDay(c, "endTime", true),
		Page:                utils.GetPageParams(c),
	}
}

// POST /product/create
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"product": product})
}

// PUT /product/update
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req services.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"product": product})
}

// DELETE /product/delete
func (h *ProductHandler) DeleteProducts(c *gin.Context) {
	ids, ok := bindIDList(c, "productIds")
	if !ok {
		return
	}

	deleteCount, err := h.productService.DeleteProducts(c.Request.Context(), actorFrom(c), ids)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleteCount": deleteCount})
}

// GET /product/find
func (h *ProductHandler) FindProducts(c *gin.Context) {
	filter := productFilter(c)

	rows, total, err := h.productService.FindProducts(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, "products", rows, len(rows), total, filter.Page)
}

// GET /product/tree
func (h *ProductHandler) GetProductTree(c *gin.Context) {
	filter := productFilter(c)

	nodes, total, err := h.productService.GetProductTree(c.Request.Context(), actorFrom(c), filter)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, "products", nodes, len(nodes), total, filter.Page)
}

// GET /product/detail/:id
func (h *ProductHandler) GetProductDetail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	detail, err := h.productService.GetProductDetail(c.Request.Context(), id)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product": detail.Product,
		"events":  detail.Events,
		"issues":  detail.Issues,
	})
}
