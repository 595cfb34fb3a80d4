package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/etnz/findeck"
	"github.com/etnz/findeck/theme"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AccountResponse is an account view with its look.
type AccountResponse struct {
	findeck.AccountView
	Theme theme.Tag   `json:"theme"`
	Style theme.Style `json:"style"`
}

// PortfolioResponse is the body of GET /portfolio.
type PortfolioResponse struct {
	HomeCurrency string            `json:"home_currency"`
	Total        string            `json:"total"` // rounded to 2 digits
	Accounts     []AccountResponse `json:"accounts"`
	Unpriced     []string          `json:"unpriced,omitempty"`
}

func newAccountResponse(v findeck.AccountView) AccountResponse {
	tag := theme.Classify(v.Account.Name, v.Account.Currency, v.Account.Type.String())
	return AccountResponse{AccountView: v, Theme: tag, Style: theme.StyleOf(tag)}
}

func newPortfolioResponse(p findeck.Portfolio) PortfolioResponse {
	r := PortfolioResponse{
		HomeCurrency: p.HomeCurrency,
		Total:        p.TotalString(),
		Accounts:     make([]AccountResponse, 0, len(p.Accounts)),
		Unpriced:     p.Unpriced,
	}
	for _, v := range p.Accounts {
		r.Accounts = append(r.Accounts, newAccountResponse(v))
	}
	return r
}

// BalanceRequest is the body of PATCH /accounts/:id/balance: either a new
// balance, or an amount to add (income) or subtract (expense).
type BalanceRequest struct {
	Balance *decimal.Decimal `json:"balance"`
	Amount  *decimal.Decimal `json:"amount"`
	Income  bool             `json:"income"`
}

func (s *Server) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func (s *Server) GetPortfolio(c *gin.Context) {
	c.JSON(http.StatusOK, newPortfolioResponse(s.session.Portfolio()))
}

func (s *Server) ListAccounts(c *gin.Context) {
	views := s.session.Portfolio().Accounts
	accounts := make([]findeck.Account, 0, len(views))
	for _, v := range views {
		accounts = append(accounts, v.Account)
	}
	c.JSON(http.StatusOK, accounts)
}

func (s *Server) CreateAccount(c *gin.Context) {
	var req findeck.NewAccount
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, fmt.Errorf("%w: %v", findeck.ErrInvalidAccount, err))
		return
	}
	a, err := s.session.Create(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (s *Server) UpdateBalance(c *gin.Context) {
	id := c.Param("id")
	var req BalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, fmt.Errorf("%w: %v", findeck.ErrInvalidAccount, err))
		return
	}

	ctx := c.Request.Context()
	var err error
	switch {
	case req.Balance != nil && req.Amount == nil:
		err = s.session.SetBalance(ctx, id, *req.Balance)
	case req.Amount != nil && req.Balance == nil:
		_, err = s.session.Adjust(ctx, id, *req.Amount, req.Income)
	default:
		err = fmt.Errorf("%w: exactly one of balance or amount is required", findeck.ErrInvalidAccount)
	}
	if err != nil {
		s.writeError(c, err)
		return
	}

	v, ok := s.session.Portfolio().View(id)
	if !ok {
		s.writeError(c, fmt.Errorf("%w: %q", findeck.ErrAccountNotFound, id))
		return
	}
	c.JSON(http.StatusOK, newAccountResponse(v))
}

func (s *Server) DeleteAccount(c *gin.Context) {
	if err := s.session.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Refresh reloads the accounts and fetches prices, then returns the
// portfolio. The fetch survives a client going away.
func (s *Server) Refresh(c *gin.Context) {
	ctx := context.WithoutCancel(c.Request.Context())
	done, err := s.session.Refresh(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}
	select {
	case <-done:
	case <-c.Request.Context().Done():
		return
	}
	c.JSON(http.StatusOK, newPortfolioResponse(s.session.Portfolio()))
}

func (s *Server) GetPrices(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.Prices())
}
