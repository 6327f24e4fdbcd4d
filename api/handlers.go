package api

import (
	"net/http"
	"strconv"
	"time"

	"wagerpool/models"
	"wagerpool/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Handlers exposes the bet and account services over HTTP
type Handlers struct {
	betService     service.BetService
	accountService service.AccountService
}

// NewHandlers creates the HTTP handlers
func NewHandlers(betService service.BetService, accountService service.AccountService) *Handlers {
	return &Handlers{
		betService:     betService,
		accountService: accountService,
	}
}

type placeBetRequest struct {
	Subject   string          `json:"subject"`
	Duration  int64           `json:"duration"`
	Direction int16           `json:"direction"`
	Wager     decimal.Decimal `json:"wager"`
	Value     decimal.Decimal `json:"value"`
}

type addBettorRequest struct {
	Group int16           `json:"group"`
	Wager decimal.Decimal `json:"wager"`
	Value decimal.Decimal `json:"value"`
}

type approveRequest struct {
	Threshold  *decimal.Decimal `json:"threshold" binding:"required"`
	ObservedAt *time.Time       `json:"observed_at"`
}

type settleRequest struct {
	ObservedValue *decimal.Decimal `json:"observed_value" binding:"required"`
}

// PlaceBet opens a new bet for the authenticated caller
func (h *Handlers) PlaceBet(c *gin.Context) {
	var req placeBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	detail, err := h.betService.PlaceBet(c.Request.Context(), callerAddress(c), req.Subject, req.Duration,
		models.Direction(req.Direction), req.Wager, req.Value)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newBetDetailResponse(detail))
}

// AddBettor joins the authenticated caller to a group
func (h *Handlers) AddBettor(c *gin.Context) {
	betID, ok := betIDParam(c)
	if !ok {
		return
	}

	var req addBettorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	member, err := h.betService.AddBettor(c.Request.Context(), callerAddress(c), betID,
		models.Group(req.Group), req.Wager, req.Value)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newMemberResponse(member))
}

// ApproveBet attaches the threshold to a created bet
func (h *Handlers) ApproveBet(c *gin.Context) {
	betID, ok := betIDParam(c)
	if !ok {
		return
	}

	var req approveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	observedAt := time.Now()
	if req.ObservedAt != nil {
		observedAt = *req.ObservedAt
	}

	bet, err := h.betService.SetBetValue(c.Request.Context(), callerAddress(c), betID, *req.Threshold, observedAt)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newBetResponse(bet))
}

// CloseBet stops new bettors from joining
func (h *Handlers) CloseBet(c *gin.Context) {
	betID, ok := betIDParam(c)
	if !ok {
		return
	}

	bet, err := h.betService.CloseBet(c.Request.Context(), callerAddress(c), betID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newBetResponse(bet))
}

// SettleBet resolves a closed bet against an observed value
func (h *Handlers) SettleBet(c *gin.Context) {
	betID, ok := betIDParam(c)
	if !ok {
		return
	}

	var req settleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.betService.SettleBet(c.Request.Context(), callerAddress(c), betID, *req.ObservedValue)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newSettlementResponse(result))
}

// ListBets returns recent bets
func (h *Handlers) ListBets(c *gin.Context) {
	var status *models.BetStatus
	if raw := c.Query("status"); raw != "" {
		s := models.BetStatus(raw)
		if !s.Valid() {
			badRequest(c, "unknown status "+raw)
			return
		}
		status = &s
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		badRequest(c, "limit must be an integer")
		return
	}

	bets, err := h.betService.ListBets(c.Request.Context(), status, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	data := make([]betResponse, 0, len(bets))
	for _, bet := range bets {
		data = append(data, newBetResponse(bet))
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  data,
		"count": len(data),
	})
}

// GetBet returns a bet with both member lists
func (h *Handlers) GetBet(c *gin.Context) {
	betID, ok := betIDParam(c)
	if !ok {
		return
	}

	detail, err := h.betService.GetBet(c.Request.Context(), betID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newBetDetailResponse(detail))
}

// GetPools returns the pool totals of a bet
func (h *Handlers) GetPools(c *gin.Context) {
	betID, ok := betIDParam(c)
	if !ok {
		return
	}

	pools, err := h.betService.GetPools(c.Request.Context(), betID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, poolsResponse{Group1: pools.Group1, Group2: pools.Group2, Total: pools.Total})
}

// GetMember returns one group member by index
func (h *Handlers) GetMember(c *gin.Context) {
	betID, ok := betIDParam(c)
	if !ok {
		return
	}

	group, err := strconv.ParseInt(c.Param("group"), 10, 16)
	if err != nil {
		badRequest(c, "group must be an integer")
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		badRequest(c, "index must be an integer")
		return
	}

	member, err := h.betService.GetMember(c.Request.Context(), betID, models.Group(group), index)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newMemberResponse(member))
}

// GetAccount returns an account balance
func (h *Handlers) GetAccount(c *gin.Context) {
	account, err := h.accountService.GetAccount(c.Request.Context(), c.Param("address"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, accountResponse{Address: account.Address, Balance: account.Balance})
}

// GetAccountHistory returns recent ledger entries of an account
func (h *Handlers) GetAccountHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		badRequest(c, "limit must be an integer")
		return
	}

	entries, err := h.accountService.GetHistory(c.Request.Context(), c.Param("address"), limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	data := make([]ledgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		data = append(data, newLedgerEntryResponse(e))
	}

	c.JSON(http.StatusOK, gin.H{
		"data":  data,
		"count": len(data),
	})
}

func betIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "bet id must be an integer")
		return 0, false
	}
	return id, true
}
