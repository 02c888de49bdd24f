package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jerneif/lotto-api/internal/api/middleware"
	"github.com/jerneif/lotto-api/internal/domain"
)

type fakeBoardService struct {
	BoardService

	purchaseErr error
	gotNumbers  []int
	gotPlayer   uuid.UUID
	board       domain.Board
}

func (f *fakeBoardService) Purchase(_ context.Context, gameID, playerID uuid.UUID, numbers []int) (domain.Board, int, error) {
	f.gotNumbers = numbers
	f.gotPlayer = playerID
	if f.purchaseErr != nil {
		return domain.Board{}, 0, f.purchaseErr
	}

	return domain.Board{ID: uuid.New(), GameID: gameID, PlayerID: playerID, Numbers: numbers, Price: 20}, 480, nil
}

func (f *fakeBoardService) GetBoard(context.Context, uuid.UUID) (domain.Board, error) {
	return f.board, nil
}

func (f *fakeBoardService) CanPlayerAffordBoard(_ context.Context, _ uuid.UUID, numberCount int) (bool, error) {
	if _, err := domain.Price(numberCount); err != nil {
		return false, err
	}
	return numberCount == 5, nil
}

type fakeTransactionService struct {
	TransactionService

	byRef map[string]domain.Transaction
}

func (f *fakeTransactionService) GetByReference(_ context.Context, ref string) (domain.Transaction, error) {
	t, ok := f.byRef[ref]
	if !ok {
		return domain.Transaction{}, domain.ErrTransactionNotFound
	}
	return t, nil
}

type fakeGameService struct {
	GameService

	endErr error
	gotW   domain.WinningNumbers
}

func (f *fakeGameService) EndGame(_ context.Context, gameID uuid.UUID, w domain.WinningNumbers) (domain.Game, error) {
	f.gotW = w
	if f.endErr != nil {
		return domain.Game{}, f.endErr
	}

	now := time.Now().UTC()
	return domain.Game{ID: gameID, NumbersPublishedAt: &now}, nil
}

func withPrincipal(p domain.Principal) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		middleware.SetPrincipal(ctx, p)
		ctx.Next()
	}
}

func newTestRouter(p domain.Principal) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(withPrincipal(p))
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHandlePurchaseBoard(t *testing.T) {
	player := domain.Principal{PlayerID: uuid.New(), Role: domain.RolePlayer}
	gameID := uuid.New()

	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantError  string
	}{
		{
			name:       "created",
			body:       `{"game_id":"` + gameID.String() + `","numbers":[5,1,2,3,4]}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "malformed game id",
			body:       `{"game_id":"nope","numbers":[1,2,3,4,5]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "insufficient funds",
			body:       `{"game_id":"` + gameID.String() + `","numbers":[1,2,3,4,5]}`,
			svcErr:     domain.ErrInsufficientFunds,
			wantStatus: http.StatusConflict,
			wantError:  "player balance too low",
		},
		{
			name:       "lock busy",
			body:       `{"game_id":"` + gameID.String() + `","numbers":[1,2,3,4,5]}`,
			svcErr:     domain.ErrLockBusy,
			wantStatus: http.StatusTooManyRequests,
			wantError:  "another transaction is already in progress, please try again",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeBoardService{purchaseErr: tt.svcErr}
			r := newTestRouter(player)
			r.POST("/boards", NewBoardHandler(svc).HandlePurchaseBoard)

			w := doJSON(r, http.MethodPost, "/boards", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantError != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.wantError, body["error"])
			}
			if tt.wantStatus == http.StatusCreated {
				assert.Equal(t, player.PlayerID, svc.gotPlayer)
				assert.Contains(t, w.Body.String(), `"balance":480`)
			}
		})
	}
}

func TestHandleGetBoard_Ownership(t *testing.T) {
	owner := uuid.New()
	board := domain.Board{ID: uuid.New(), PlayerID: owner}

	tests := []struct {
		name string
		p    domain.Principal
		want int
	}{
		{name: "owner", p: domain.Principal{PlayerID: owner, Role: domain.RolePlayer}, want: http.StatusOK},
		{name: "other player", p: domain.Principal{PlayerID: uuid.New(), Role: domain.RolePlayer}, want: http.StatusForbidden},
		{name: "admin", p: domain.Principal{PlayerID: uuid.New(), Role: domain.RoleAdmin}, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(tt.p)
			r.GET("/boards/:boardID", NewBoardHandler(&fakeBoardService{board: board}).HandleGetBoard)

			w := doJSON(r, http.MethodGet, "/boards/"+board.ID.String(), "")
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestHandleEndGame(t *testing.T) {
	admin := domain.Principal{PlayerID: uuid.New(), Role: domain.RoleAdmin}
	gameID := uuid.New()

	tests := []struct {
		name       string
		path       string
		body       string
		svcErr     error
		wantStatus int
	}{
		{name: "ended", path: gameID.String(), body: `{"winning_numbers":[3,7,12]}`, wantStatus: http.StatusOK},
		{name: "bad id", path: "42", body: `{"winning_numbers":[3,7,12]}`, wantStatus: http.StatusBadRequest},
		{name: "two numbers", path: gameID.String(), body: `{"winning_numbers":[3,7]}`, wantStatus: http.StatusBadRequest},
		{name: "too early", path: gameID.String(), body: `{"winning_numbers":[3,7,12]}`, svcErr: domain.ErrDeadlineNotPassed, wantStatus: http.StatusConflict},
		{name: "next game missing", path: gameID.String(), body: `{"winning_numbers":[3,7,12]}`, svcErr: domain.ErrNextGameMissing, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeGameService{endErr: tt.svcErr}
			r := newTestRouter(admin)
			r.POST("/admin/games/:gameID/end", NewGameHandler(svc, nil).HandleEndGame)

			w := doJSON(r, http.MethodPost, "/admin/games/"+tt.path+"/end", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, domain.WinningNumbers{3, 7, 12}, svc.gotW)
			}
		})
	}
}

func TestHandlersRequirePrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/boards", NewBoardHandler(&fakeBoardService{}).HandlePurchaseBoard)

	w := doJSON(r, http.MethodPost, "/boards", `{}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleCanAffordBoard(t *testing.T) {
	player := domain.Principal{PlayerID: uuid.New(), Role: domain.RolePlayer}

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantBody   string
	}{
		{name: "affordable", query: "?count=5", wantStatus: http.StatusOK, wantBody: `{"can_afford":true}`},
		{name: "too expensive", query: "?count=8", wantStatus: http.StatusOK, wantBody: `{"can_afford":false}`},
		{name: "unpriced count", query: "?count=9", wantStatus: http.StatusBadRequest},
		{name: "missing count", query: "", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(player)
			r.GET("/boards/can-afford", NewBoardHandler(&fakeBoardService{}).HandleCanAffordBoard)

			w := doJSON(r, http.MethodGet, "/boards/can-afford"+tt.query, "")
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestHandleGetTransactionByReference(t *testing.T) {
	admin := domain.Principal{PlayerID: uuid.New(), Role: domain.RoleAdmin}
	deposit := domain.Transaction{ID: uuid.New(), Type: domain.TransactionDeposit, Amount: 200}
	svc := &fakeTransactionService{byRef: map[string]domain.Transaction{"MP-12345": deposit}}

	r := newTestRouter(admin)
	r.GET("/admin/transactions/by-reference/:ref", NewTransactionHandler(svc).HandleGetTransactionByReference)

	w := doJSON(r, http.MethodGet, "/admin/transactions/by-reference/MP-12345", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), deposit.ID.String())

	w = doJSON(r, http.MethodGet, "/admin/transactions/by-reference/MP-00000", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
