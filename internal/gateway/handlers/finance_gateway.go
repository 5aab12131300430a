package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	finance "brewstock-system/internal/services/finance/handler"
)

type FinanceHTTPHandler struct {
	finance *finance.FinanceHandler
}

func NewFinanceHTTPHandler(financeHandler *finance.FinanceHandler) *FinanceHTTPHandler {
	return &FinanceHTTPHandler{
		finance: financeHandler,
	}
}

func (s *FinanceHTTPHandler) CreateExpense(c *gin.Context) {
	var req finance.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	expense, err := s.finance.CreateExpense(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, expense)
}

func (s *FinanceHTTPHandler) UpdateExpense(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid expense ID")
		return
	}

	var req finance.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	expense, err := s.finance.UpdateExpense(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, expense)
}

func (s *FinanceHTTPHandler) DeleteExpense(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid expense ID")
		return
	}

	if err := s.finance.DeleteExpense(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	success(c, gin.H{"deleted": id})
}

func (s *FinanceHTTPHandler) ListExpenses(c *gin.Context) {
	expenses, err := s.finance.ListExpenses(c.Request.Context(), c.Query("department"), parseDateRange(c))
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, expenses)
}

type recordIncomeRequest struct {
	OrderID    *int64          `json:"order_id"`
	AmountPaid decimal.Decimal `json:"amount_paid" binding:"required"`
}

func (s *FinanceHTTPHandler) RecordIncome(c *gin.Context) {
	var req recordIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	entry, err := s.finance.RecordIncome(c.Request.Context(), req.OrderID, req.AmountPaid)
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, entry)
}

func (s *FinanceHTTPHandler) Summary(c *gin.Context) {
	summary, err := s.finance.Summary(c.Request.Context(), c.Query("department"), parseDateRange(c))
	if err != nil {
		writeError(c, err)
		return
	}

	success(c, summary)
}
