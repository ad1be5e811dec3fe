package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"asset_manager/internal/api"
	"asset_manager/internal/domain"
	"asset_manager/internal/ledger"
	"asset_manager/internal/middleware"
	"asset_manager/internal/report"
	"asset_manager/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestServer wires the full route table against the in-memory store.
// The redis client points nowhere; cache reads miss and writes fail
// silently, which the handlers tolerate.
func newTestServer(t *testing.T) (*gin.Engine, *repository.Memory) {
	t.Helper()
	store := repository.NewMemory()
	engine := ledger.New(store)
	reports := report.New(store)
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})

	r := gin.New()
	r.POST("/users", api.RegisterHandler(store))
	r.POST("/auth/login", api.LoginHandler(store, testSecret))

	authGroup := r.Group("")
	authGroup.Use(middleware.JWTAuthMiddleware(testSecret))
	authGroup.GET("/users", api.ListUsersHandler(store))
	authGroup.POST("/assets", api.CreateAssetHandler(store))
	authGroup.GET("/assets", api.ListAssetsHandler(store))
	authGroup.POST("/transactions", api.CreateTransactionHandler(engine, store, rdb))
	authGroup.GET("/transactions", api.ListTransactionsHandler(store))
	authGroup.GET("/reports", api.MyReportHandler(reports, rdb))
	authGroup.GET("/analytics/graphs", api.MyGraphsHandler(reports, rdb))

	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.JWTAuthMiddleware(testSecret), middleware.AdminOnlyMiddleware(store))
	adminGroup.GET("/users", api.AdminListUsersHandler(store, rdb))
	adminGroup.GET("/transactions", api.AdminListTransactionsHandler(store, rdb))
	adminGroup.POST("/transactions", api.AdminCreateTransactionHandler(engine, store, rdb))
	adminGroup.GET("/reports", api.AdminReportHandler(reports, rdb))
	adminGroup.GET("/analytics/graphs", api.AdminGraphsHandler(reports, rdb))

	return r, store
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func register(t *testing.T, r *gin.Engine, username string) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/users", "", gin.H{
		"username": username, "email": username + "@example.com", "password": "password1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func login(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{
		"username": username, "password": "password1",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp api.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func seedAdmin(t *testing.T, store *repository.Memory) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.DefaultCost)
	require.NoError(t, err)
	admin := &domain.User{Username: "root", Email: "root@example.com", Password: string(hash), Role: domain.RoleAdmin}
	require.NoError(t, store.Users().Create(context.Background(), admin))
}

func TestRegister_DuplicatesRejectedDistinctly(t *testing.T) {
	r, _ := newTestServer(t)
	register(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/users", "", gin.H{
		"username": "alice", "email": "other@example.com", "password": "password1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Username already registered")

	w = doJSON(t, r, http.MethodPost, "/users", "", gin.H{
		"username": "alice2", "email": "alice@example.com", "password": "password1",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Email already registered")
}

func TestLogin_WrongPasswordUnauthorized(t *testing.T) {
	r, _ := newTestServer(t)
	register(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/auth/login", "", gin.H{
		"username": "alice", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAssets_CreateAndListEnvelope(t *testing.T) {
	r, _ := newTestServer(t)
	register(t, r, "alice")
	token := login(t, r, "alice")

	for i := 0; i < 3; i++ {
		w := doJSON(t, r, http.MethodPost, "/assets", token, gin.H{
			"name": "home", "type": "real_estate", "value": 100.0 + float64(i),
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := doJSON(t, r, http.MethodGet, "/assets?page=2&limit=2", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Assets          []domain.Asset `json:"assets"`
		TotalCount      int64          `json:"total_count"`
		Page            int            `json:"page"`
		Limit           int            `json:"limit"`
		HasNextPage     bool           `json:"has_next_page"`
		HasPreviousPage bool           `json:"has_previous_page"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Assets, 1)
	assert.Equal(t, int64(3), resp.TotalCount)
	assert.Equal(t, 2, resp.Page)
	assert.False(t, resp.HasNextPage)
	assert.True(t, resp.HasPreviousPage)
}

func TestAssets_InvalidTypeRejected(t *testing.T) {
	r, _ := newTestServer(t)
	register(t, r, "alice")
	token := login(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/assets", token, gin.H{
		"name": "beanie babies", "type": "collectible", "value": 5.0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTransactions_SelfServiceFlow(t *testing.T) {
	r, _ := newTestServer(t)
	register(t, r, "alice")
	token := login(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/assets", token, gin.H{
		"name": "btc", "type": "crypto", "value": 100.0,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var asset domain.Asset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &asset))

	// Buy adds to the value.
	w = doJSON(t, r, http.MethodPost, "/transactions", token, gin.H{
		"type": "buy", "asset_id": asset.ID, "amount": 50.0,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Over-selling is a bad request naming the bound.
	w = doJSON(t, r, http.MethodPost, "/transactions", token, gin.H{
		"type": "sell", "asset_id": asset.ID, "amount": 500.0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cannot sell more than current value")

	// Missing amount on sell is rejected before the engine runs.
	w = doJSON(t, r, http.MethodPost, "/transactions", token, gin.H{
		"type": "sell", "asset_id": asset.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// History shows just the committed buy.
	w = doJSON(t, r, http.MethodGet, "/transactions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var hist struct {
		Transactions []domain.Transaction `json:"transactions"`
		TotalCount   int64                `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
	assert.Equal(t, int64(1), hist.TotalCount)
	require.Len(t, hist.Transactions, 1)
	assert.Equal(t, domain.TxBuy, hist.Transactions[0].Type)
}

func TestTransactions_MissingAssetNotFound(t *testing.T) {
	r, _ := newTestServer(t)
	register(t, r, "alice")
	token := login(t, r, "alice")

	w := doJSON(t, r, http.MethodPost, "/transactions", token, gin.H{
		"type": "buy", "asset_id": 42, "amount": 5.0,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminRoutes_ForbiddenForRegularUsers(t *testing.T) {
	r, _ := newTestServer(t)
	register(t, r, "alice")
	token := login(t, r, "alice")

	w := doJSON(t, r, http.MethodGet, "/admin/reports", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminSell_ReplacesValueAndTransfers(t *testing.T) {
	r, store := newTestServer(t)
	seedAdmin(t, store)
	register(t, r, "bob")
	register(t, r, "carol")
	adminToken := login(t, r, "root")
	bobToken := login(t, r, "bob")

	w := doJSON(t, r, http.MethodPost, "/assets", bobToken, gin.H{
		"name": "villa", "type": "real_estate", "value": 60.0,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var asset domain.Asset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &asset))

	carol, err := store.Users().GetByUsername(context.Background(), "carol")
	require.NoError(t, err)

	w = doJSON(t, r, http.MethodPost, "/admin/transactions", adminToken, gin.H{
		"type": "sell", "asset_id": asset.ID, "amount": 200.0, "to_owner_id": carol.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	got, err := store.Assets().GetByID(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, got.Value, "admin sell replaces the value")
	assert.Equal(t, carol.ID, got.OwnerID)
}

func TestAdminGraphs_InvalidRangeRejected(t *testing.T) {
	r, store := newTestServer(t)
	seedAdmin(t, store)
	adminToken := login(t, r, "root")

	w := doJSON(t, r, http.MethodGet, "/admin/analytics/graphs?start=2026-09-02&end=2026-09-01", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "after end date")
}

func TestReports_EmptyOwnerSummary(t *testing.T) {
	r, _ := newTestServer(t)
	register(t, r, "alice")
	token := login(t, r, "alice")

	w := doJSON(t, r, http.MethodGet, "/reports", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary report.Summary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, int64(0), summary.TotalAssets)
	assert.Len(t, summary.TransactionTypes, 3, "all declared types present")
}

func TestPagination_OutOfRangeRejected(t *testing.T) {
	r, _ := newTestServer(t)
	register(t, r, "alice")
	token := login(t, r, "alice")

	for _, query := range []string{"limit=500", "limit=0", "limit=abc", "page=0", "page=-1"} {
		w := doJSON(t, r, http.MethodGet, "/assets?"+query, token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}

	// The documented bounds themselves are accepted.
	w := doJSON(t, r, http.MethodGet, "/assets?page=1&limit=200", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminTransactions_EndDateCoversWholeDay(t *testing.T) {
	r, store := newTestServer(t)
	seedAdmin(t, store)
	adminToken := login(t, r, "root")

	// A transaction landing in the final second of the end day.
	tx := &domain.Transaction{
		Amount: 10, Type: domain.TxBuy, AssetID: 1, UserID: 1,
		FromOwnerID: 1, ToOwnerID: 1,
		Timestamp: time.Date(2026, 8, 20, 23, 59, 59, 500_000_000, time.UTC),
	}
	require.NoError(t, store.Transactions().Append(context.Background(), tx))

	w := doJSON(t, r, http.MethodGet, "/admin/transactions?from=2026-08-20&to=2026-08-20", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Transactions []domain.Transaction `json:"transactions"`
		TotalCount   int64                `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.TotalCount)
}

func TestProtectedRoutes_RequireToken(t *testing.T) {
	r, _ := newTestServer(t)
	w := doJSON(t, r, http.MethodGet, "/assets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
