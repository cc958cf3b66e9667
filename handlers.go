package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/stock_ledger/models"
	"github.com/mmdatafocus/stock_ledger/models/reports"
	"github.com/mmdatafocus/stock_ledger/utils"
	"github.com/mmdatafocus/stock_ledger/workflow"
	"github.com/shopspring/decimal"
)

type handler struct {
	inv *models.Inventory
}

func registerRoutes(r *gin.Engine, h *handler) {
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	r.GET("/dashboard", h.dashboard)
	r.GET("/categories", h.listCategories)

	r.GET("/products", h.listProducts)
	r.POST("/products", h.createProduct)
	r.GET("/products/:id", h.getProduct)
	r.PATCH("/products/:id", h.updateProduct)
	r.DELETE("/products/:id", h.deleteProduct)
	r.GET("/products/:id/pipeline", h.productPipeline)

	r.GET("/transactions", h.listTransactions)
	r.GET("/transactions/:id", h.getTransaction)
	r.POST("/transactions/inward", h.bulkInward)
	r.POST("/transactions/outward", h.bulkOutward)
	r.PUT("/transactions/:id", h.editTransaction)
	r.DELETE("/transactions/:id", h.removeTransaction)

	r.GET("/orders", h.listOrders)
	r.POST("/orders", h.createOrder)
	r.GET("/orders/:id", h.getOrder)
	r.POST("/orders/:id/confirm", h.confirmOrder)
	r.POST("/orders/:id/cancel", h.cancelOrder)

	r.GET("/reports/export.xlsx", h.exportReports)
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	var stockErr *models.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      err.Error(),
			"product_id": stockErr.ProductId,
			"required":   stockErr.Required,
			"available":  stockErr.Available,
			"base_unit":  stockErr.BaseUnit,
		})
	case errors.Is(err, models.ErrUnknownProduct), errors.Is(err, models.ErrUnknownTransaction), errors.Is(err, models.ErrUnknownOrder):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrDuplicateId), errors.Is(err, models.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInvalidInput):
		body := gin.H{"error": err.Error()}
		if fields := utils.ProcessValidationErrors(err); fields != nil {
			body["fields"] = fields
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, models.ErrUnknownUnit), errors.Is(err, models.ErrInvalidConversion),
		errors.Is(err, models.ErrMissingDocumentDate), errors.Is(err, models.ErrEmptyItemSet):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func bindJSON(c *gin.Context, input any) bool {
	if err := c.ShouldBindJSON(input); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return false
	}
	return true
}

func (h *handler) dashboard(c *gin.Context) {
	var body gin.H
	h.inv.View(func(s *models.Snapshot) {
		pending := 0
		for _, o := range s.Orders {
			if o.Status == models.OrderStatusPending {
				pending++
			}
		}
		body = gin.H{
			"product_count":     len(s.Products),
			"inventory_value":   s.InventoryValue(),
			"low_stock_count":   len(s.LowStockProducts()),
			"transaction_count": len(s.Transactions),
			"pending_orders":    pending,
		}
	})
	c.JSON(http.StatusOK, body)
}

func (h *handler) listCategories(c *gin.Context) {
	var categories []string
	h.inv.View(func(s *models.Snapshot) { categories = s.Categories() })
	c.JSON(http.StatusOK, categories)
}

func (h *handler) listProducts(c *gin.Context) {
	var views []models.ProductStockView
	h.inv.View(func(s *models.Snapshot) {
		products := s.SearchProducts(c.Query("search"), c.Query("category"))
		if c.Query("low_stock") == "true" {
			low := make([]models.Product, 0, len(products))
			for _, p := range products {
				if p.Stock.LessThanOrEqual(p.MinLevel) {
					low = append(low, p)
				}
			}
			products = low
		}
		views = s.ProductStockViews(products)
	})
	c.JSON(http.StatusOK, views)
}

func (h *handler) getProduct(c *gin.Context) {
	product, err := h.inv.GetProduct(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *handler) createProduct(c *gin.Context) {
	var input models.NewProduct
	if !bindJSON(c, &input) {
		return
	}
	var product *models.Product
	err := h.inv.Update(c.Request.Context(), func(tx *models.InventoryTx) error {
		var err error
		product, err = tx.AddProduct(&input)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *handler) updateProduct(c *gin.Context) {
	var patch models.ProductPatch
	if !bindJSON(c, &patch) {
		return
	}
	var product *models.Product
	err := h.inv.Update(c.Request.Context(), func(tx *models.InventoryTx) error {
		var err error
		product, err = tx.UpdateProduct(c.Param("id"), &patch)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *handler) deleteProduct(c *gin.Context) {
	err := h.inv.Update(c.Request.Context(), func(tx *models.InventoryTx) error {
		_, err := tx.DeleteProduct(c.Param("id"))
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type pipelineResponse struct {
	ProductId string          `json:"product_id"`
	Stock     decimal.Decimal `json:"stock"`
	Incoming  decimal.Decimal `json:"incoming"`
	Committed decimal.Decimal `json:"committed"`
	Available decimal.Decimal `json:"available"`
}

func (h *handler) productPipeline(c *gin.Context) {
	product, err := h.inv.GetProduct(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	pipeline := h.inv.PipelineStock(product.ID)
	c.JSON(http.StatusOK, pipelineResponse{
		ProductId: product.ID,
		Stock:     product.Stock,
		Incoming:  pipeline.Incoming,
		Committed: pipeline.Committed,
		Available: h.inv.Available(product),
	})
}

func (h *handler) listTransactions(c *gin.Context) {
	c.JSON(http.StatusOK, h.inv.GetTransactions())
}

func (h *handler) getTransaction(c *gin.Context) {
	txn, err := h.inv.GetTransaction(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (h *handler) bulkInward(c *gin.Context) {
	var input workflow.StockEntryInput
	if !bindJSON(c, &input) {
		return
	}
	txn, err := workflow.BulkInward(c.Request.Context(), h.inv, &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func (h *handler) bulkOutward(c *gin.Context) {
	var input workflow.StockEntryInput
	if !bindJSON(c, &input) {
		return
	}
	txn, err := workflow.BulkOutward(c.Request.Context(), h.inv, &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, txn)
}

func (h *handler) editTransaction(c *gin.Context) {
	var input workflow.StockEntryInput
	if !bindJSON(c, &input) {
		return
	}
	txn, err := workflow.EditTransaction(c.Request.Context(), h.inv, c.Param("id"), &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, txn)
}

func (h *handler) removeTransaction(c *gin.Context) {
	if _, err := workflow.RemoveTransaction(c.Request.Context(), h.inv, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) listOrders(c *gin.Context) {
	orders := h.inv.GetOrders()
	if status := c.Query("status"); status != "" {
		filtered := make([]models.Order, 0, len(orders))
		for _, o := range orders {
			if string(o.Status) == status {
				filtered = append(filtered, o)
			}
		}
		orders = filtered
	}
	c.JSON(http.StatusOK, orders)
}

func (h *handler) getOrder(c *gin.Context) {
	order, err := h.inv.GetOrder(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handler) createOrder(c *gin.Context) {
	var input workflow.OrderInput
	if !bindJSON(c, &input) {
		return
	}
	order, err := workflow.CreateOrder(c.Request.Context(), h.inv, &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *handler) confirmOrder(c *gin.Context) {
	var input workflow.ConfirmOrderInput
	if !bindJSON(c, &input) {
		return
	}
	input.OrderId = c.Param("id")
	txn, order, err := workflow.ConfirmOrder(c.Request.Context(), h.inv, &input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "transaction": txn})
}

func (h *handler) cancelOrder(c *gin.Context) {
	order, err := workflow.CancelOrder(c.Request.Context(), h.inv, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handler) exportReports(c *gin.Context) {
	snap := h.inv.Snapshot()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=stock_report.xlsx")
	err := reports.WriteWorkbook(c.Writer,
		reports.StockValuationSheet(snap),
		reports.TransactionLogSheet(snap, c.Query("from"), c.Query("to")),
		reports.LowStockSheet(snap),
	)
	if err != nil {
		_ = c.Error(err)
		c.Status(http.StatusInternalServerError)
	}
}
