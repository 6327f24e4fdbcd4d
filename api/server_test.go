package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wagerpool/config"
	"wagerpool/models"
	"wagerpool/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type serverFixture struct {
	handler  http.Handler
	bets     *mockBetService
	accounts *mockAccountService
	auth     *Authenticator
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.NewTestConfig()
	bets := new(mockBetService)
	accounts := new(mockAccountService)
	auth := NewAuthenticator(cfg.JWTSecret)
	server := NewServer(cfg, bets, accounts, auth, func(context.Context) bool { return true })

	return &serverFixture{handler: server.Handler(), bets: bets, accounts: accounts, auth: auth}
}

func (f *serverFixture) do(t *testing.T, method, path, caller, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		token, err := f.auth.GenerateToken(caller)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestHealth(t *testing.T) {
	f := newServerFixture(t)

	w := f.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decodeBody(t, w)["status"])
}

func TestHealth_DatabaseDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	server := NewServer(config.NewTestConfig(), new(mockBetService), new(mockAccountService),
		NewAuthenticator("s"), func(context.Context) bool { return false })

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPlaceBet_RequiresToken(t *testing.T) {
	f := newServerFixture(t)

	w := f.do(t, http.MethodPost, "/api/bets", "", `{"subject":"ETH/USD"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "unauthenticated", decodeBody(t, w)["code"])
	f.bets.AssertNotCalled(t, "PlaceBet")
}

func TestPlaceBet_PassesCallerAndAmounts(t *testing.T) {
	f := newServerFixture(t)
	wager := amt("3333333333333333333")

	detail := &models.BetDetail{
		Bet: &models.Bet{ID: 1, Initiator: "0xalice", Subject: "ETH/USD", Direction: models.DirectionAbove,
			Status: models.BetStatusCreated, Group1Pool: wager, Group2Pool: decimal.Zero},
		Group1Members: []*models.BetMember{{BetID: 1, Group: models.GroupOne, Address: "0xalice", Wager: wager}},
	}
	f.bets.On("PlaceBet", mock.Anything, "0xalice", "ETH/USD", int64(3600), models.DirectionAbove,
		mock.MatchedBy(wager.Equal), mock.MatchedBy(wager.Equal)).Return(detail, nil)

	body := `{"subject":"ETH/USD","duration":3600,"direction":1,"wager":"3333333333333333333","value":"3333333333333333333"}`
	w := f.do(t, http.MethodPost, "/api/bets", "0xalice", body)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeBody(t, w)
	assert.Equal(t, "3333333333333333333", resp["group1_pool"])
	assert.Equal(t, "created", resp["status"])
	members := resp["group1_members"].([]any)
	require.Len(t, members, 1)
	f.bets.AssertExpectations(t)
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{service.ErrNotFound, http.StatusNotFound, "not_found"},
		{service.ErrUnauthorized, http.StatusForbidden, "unauthorized"},
		{service.ErrInvalidDeposit, http.StatusBadRequest, "invalid_deposit"},
		{service.ErrInvalidGroup, http.StatusBadRequest, "invalid_group"},
		{service.ErrNotApproved, http.StatusConflict, "not_approved"},
		{service.ErrNotClosed, http.StatusConflict, "not_closed"},
		{fmt.Errorf("%w: threshold 2000.4", service.ErrInvalidValue), http.StatusBadRequest, "invalid_value"},
		{service.ErrInvalidDuration, http.StatusBadRequest, "invalid_duration"},
		{fmt.Errorf("failed to debit 0xbob: %w", service.ErrInsufficientFunds), http.StatusPaymentRequired, "insufficient_funds"},
		{fmt.Errorf("connection reset"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			f := newServerFixture(t)
			f.bets.On("CloseBet", mock.Anything, "0xadmin", int64(9)).Return(nil, tt.err)

			w := f.do(t, http.MethodPost, "/api/bets/9/close", "0xadmin", "")

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeBody(t, w)["code"])
		})
	}
}

func TestApproveBet(t *testing.T) {
	f := newServerFixture(t)
	observedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	threshold := amt("2000")

	f.bets.On("SetBetValue", mock.Anything, "0xadmin", int64(4), mock.MatchedBy(threshold.Equal), observedAt).
		Return(&models.Bet{ID: 4, Status: models.BetStatusApproved, Threshold: &threshold}, nil)

	w := f.do(t, http.MethodPost, "/api/bets/4/approve", "0xadmin",
		`{"threshold":"2000","observed_at":"2026-01-02T03:04:05Z"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "2000", decodeBody(t, w)["threshold"])
}

func TestApproveBet_FractionalThreshold(t *testing.T) {
	f := newServerFixture(t)
	f.bets.On("SetBetValue", mock.Anything, "0xadmin", int64(4), mock.MatchedBy(amt("2000.4").Equal), mock.Anything).
		Return(nil, fmt.Errorf("%w: threshold 2000.4", service.ErrInvalidValue))

	w := f.do(t, http.MethodPost, "/api/bets/4/approve", "0xadmin", `{"threshold":"2000.4"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_value", decodeBody(t, w)["code"])
}

func TestApproveBet_MissingThreshold(t *testing.T) {
	f := newServerFixture(t)

	w := f.do(t, http.MethodPost, "/api/bets/4/approve", "0xadmin", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.bets.AssertNotCalled(t, "SetBetValue")
}

func TestSettleBet(t *testing.T) {
	f := newServerFixture(t)
	winner := models.GroupOne
	result := &models.SettlementResult{
		Bet:          &models.Bet{ID: 2, Status: models.BetStatusSettled},
		WinningGroup: &winner,
		TotalPool:    amt("10000"),
		TotalPaid:    amt("9999"),
		Residual:     amt("1"),
		Payouts: []models.SettlementPayout{
			{Member: &models.BetMember{Group: models.GroupOne, Position: 0, Address: "0xa"}, Amount: amt("3333")},
			{Member: &models.BetMember{Group: models.GroupOne, Position: 1, Address: "0xb"}, Amount: amt("6666")},
		},
	}
	f.bets.On("SettleBet", mock.Anything, "0xadmin", int64(2), mock.MatchedBy(amt("2001").Equal)).Return(result, nil)

	w := f.do(t, http.MethodPost, "/api/bets/2/settle", "0xadmin", `{"observed_value":"2001"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody(t, w)
	assert.Equal(t, "1", resp["residual"])
	assert.EqualValues(t, 1, resp["winning_group"])
	assert.Len(t, resp["payouts"], 2)
}

func TestAddBettor_InvalidBetID(t *testing.T) {
	f := newServerFixture(t)

	w := f.do(t, http.MethodPost, "/api/bets/abc/bettors", "0xbob", `{"group":2,"wager":"1","value":"1"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.bets.AssertNotCalled(t, "AddBettor")
}

func TestListBets_StatusFilter(t *testing.T) {
	f := newServerFixture(t)
	approved := models.BetStatusApproved
	f.bets.On("ListBets", mock.Anything, &approved, 10).Return([]*models.Bet{{ID: 1, Status: approved}}, nil)

	w := f.do(t, http.MethodGet, "/api/bets?status=approved&limit=10", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decodeBody(t, w)["count"])

	w = f.do(t, http.MethodGet, "/api/bets?status=bogus", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetMember(t *testing.T) {
	f := newServerFixture(t)
	f.bets.On("GetMember", mock.Anything, int64(3), models.GroupTwo, 1).
		Return(&models.BetMember{BetID: 3, Group: models.GroupTwo, Position: 1, Address: "0xc", Wager: amt("5")}, nil)

	w := f.do(t, http.MethodGet, "/api/bets/3/groups/2/members/1", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Equal(t, "0xc", resp["address"])
	assert.Equal(t, "5", resp["wager"])
}

func TestGetAccount(t *testing.T) {
	f := newServerFixture(t)
	f.accounts.On("GetAccount", mock.Anything, "0xnew").
		Return(&models.Account{Address: "0xnew", Balance: decimal.Zero}, nil)

	w := f.do(t, http.MethodGet, "/api/accounts/0xnew", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", decodeBody(t, w)["balance"])
}

func TestValidateToken_RejectsOtherSecret(t *testing.T) {
	issuer := NewAuthenticator("one")
	token, err := issuer.GenerateToken("0xalice")
	require.NoError(t, err)

	_, err = NewAuthenticator("two").ValidateToken(token)
	assert.Error(t, err)

	claims, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "0xalice", claims.Address)
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	auth := NewAuthenticator("secret")
	claims := &Claims{
		Address: "0xalice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = auth.ValidateToken(token)
	assert.Error(t, err)
}
