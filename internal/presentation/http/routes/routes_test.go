package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/repairshop-api/internal/application/service"
	"github.com/sangkips/repairshop-api/internal/config"
	"github.com/sangkips/repairshop-api/internal/domain/entity"
	"github.com/sangkips/repairshop-api/internal/infrastructure/database"
	"github.com/sangkips/repairshop-api/internal/infrastructure/repository"
	"github.com/sangkips/repairshop-api/internal/presentation/http/handler"
	"github.com/sangkips/repairshop-api/internal/presentation/http/middleware"
	"github.com/sangkips/repairshop-api/pkg/printer"
	"github.com/sangkips/repairshop-api/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	adminEmail    = "admin@shop.test"
	adminPassword = "admin-secret"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	stock  *service.InventoryService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zap.NewNop()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := database.NewSQLiteDB(dsn, "silent", log)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.SeedDefaultData(db, config.AdminConfig{
		Name: "Owner", Email: adminEmail, Password: adminPassword,
	}, log))

	cfg := &config.Config{
		App:  config.AppConfig{Name: "repairshop-api"},
		CORS: config.CORSConfig{AllowedOrigins: []string{"*"}},
	}
	jwtManager := utils.NewJWTManager("test-secret", time.Hour)
	tx := repository.NewTransactor(db)

	inventory := service.NewInventoryService(repository.NewStockRepository(db), tx, log, 3)
	sales := service.NewSaleService(repository.NewSaleRepository(db), inventory, tx, log)
	tickets := service.NewServiceTicketService(
		repository.NewServiceTicketRepository(db),
		repository.NewServiceSequenceRepository(db),
		inventory, tx,
		service.ServiceTicketOptions{Location: time.UTC},
		log,
	)
	printers := service.NewPrinterService(printer.NewBufferPrinter(), sales, tickets, service.PrinterOptions{}, log)
	dashboard := service.NewDashboardService(repository.NewSaleRepository(db), repository.NewServiceTicketRepository(db), inventory, tickets, time.UTC)

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{Requests: 1000, Window: time.Second})
	t.Cleanup(rl.Stop)

	router := Setup(&Handlers{
		Auth:      handler.NewAuthHandler(service.NewAuthService(repository.NewUserRepository(db), jwtManager, log)),
		Stock:     handler.NewStockHandler(inventory),
		Sale:      handler.NewSaleHandler(sales, time.UTC),
		Service:   handler.NewServiceHandler(tickets, time.UTC),
		Public:    handler.NewPublicHandler(inventory, tickets),
		Dashboard: handler.NewDashboardHandler(dashboard, time.UTC),
		Printer:   handler.NewPrinterHandler(printers),
	}, &Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: repository.NewIdempotencyRepository(db),
		Log:             log,
		RateLimiter:     rl,
	})

	return &testServer{router: router, db: db, stock: inventory}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}, headers ...string) (*httptest.ResponseRecorder, envelope) {
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
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.AccessToken)
	return data.AccessToken
}

func (s *testServer) createStock(t *testing.T, token, name string, qty int, sell float64) string {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/v1/stock", token, map[string]interface{}{
		"name": name, "quantity": qty, "purchase_price": sell / 2, "sell_price": sell,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var item struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &item))
	return item.ID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(t, http.MethodGet, "/api/v1/stock", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSaleSubmissionIsIdempotent(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, adminEmail, adminPassword)
	id := s.createStock(t, token, "Phone case", 5, 10)

	body := map[string]interface{}{
		"buyer_name":  "Walk-in",
		"items":       []map[string]interface{}{{"stock_item_id": id, "quantity": 3}},
		"amount_paid": 30,
	}

	w, _ := s.do(t, http.MethodPost, "/api/v1/sales", token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing Idempotency-Key")

	first, _ := s.do(t, http.MethodPost, "/api/v1/sales", token, body, middleware.IdempotencyKeyHeader, "checkout-1")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	replay, _ := s.do(t, http.MethodPost, "/api/v1/sales", token, body, middleware.IdempotencyKeyHeader, "checkout-1")
	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("X-Idempotency-Replayed"))
	assert.JSONEq(t, first.Body.String(), replay.Body.String())

	var n int64
	require.NoError(t, s.db.Model(&entity.Sale{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
	item, err := s.stock.GetByID(testContext(t), uuid.MustParse(id))
	require.NoError(t, err)
	assert.Equal(t, 2, item.QtyOnHand)

	body["amount_paid"] = 40
	w, _ = s.do(t, http.MethodPost, "/api/v1/sales", token, body, middleware.IdempotencyKeyHeader, "checkout-1")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "same key, different body")
}

func TestSaleErrorsCarryKind(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, adminEmail, adminPassword)
	id := s.createStock(t, token, "Charger", 2, 15)

	w, env := s.do(t, http.MethodPost, "/api/v1/sales", token, map[string]interface{}{
		"buyer_name":  "Walk-in",
		"items":       []map[string]interface{}{{"stock_item_id": id, "quantity": 3}},
		"amount_paid": 100,
	}, middleware.IdempotencyKeyHeader, "checkout-2")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "insufficient_stock", env.Kind)

	w, env = s.do(t, http.MethodPost, "/api/v1/sales", token, map[string]interface{}{
		"buyer_name":  "Walk-in",
		"items":       []map[string]interface{}{{"stock_item_id": id, "quantity": 1}},
		"amount_paid": 10,
	}, middleware.IdempotencyKeyHeader, "checkout-3")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "insufficient_payment", env.Kind)
}

func TestCustomerRoutes(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Sari", "email": "sari@mail.test", "password": "password1", "password_confirm": "password1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token := s.login(t, "sari@mail.test", "password1")

	w, _ = s.do(t, http.MethodGet, "/api/v1/stock", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/v1/service-requests", token, map[string]string{
		"device_model": "Galaxy A52", "issue_description": "Cracked screen",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var ticket struct {
		ServiceCode string `json:"service_code"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &ticket))
	assert.Regexp(t, `^SRV\d{6}\d{3}$`, ticket.ServiceCode)

	w, env = s.do(t, http.MethodGet, "/api/v1/public/services/"+ticket.ServiceCode, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "Galaxy A52")
	assert.NotContains(t, string(env.Data), "Cracked screen")

	w, _ = s.do(t, http.MethodGet, "/api/v1/service-requests", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteAllStockNeedsConfirmation(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, adminEmail, adminPassword)
	s.createStock(t, token, "Cable", 4, 5)

	w, _ := s.do(t, http.MethodDelete, "/api/v1/admin/stock", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodDelete, "/api/v1/admin/stock?confirm="+handler.DeleteAllConfirmation, token, nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	items, err := s.stock.ListAll(testContext(t))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPrintReceiptForSale(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, adminEmail, adminPassword)
	id := s.createStock(t, token, "Screen guard", 3, 7.5)

	w, env := s.do(t, http.MethodPost, "/api/v1/sales", token, map[string]interface{}{
		"buyer_name":  "Walk-in",
		"items":       []map[string]interface{}{{"stock_item_id": id, "quantity": 2}},
		"amount_paid": 20,
	}, middleware.IdempotencyKeyHeader, "checkout-print")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sale struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sale))

	w, env = s.do(t, http.MethodPost, "/api/v1/printer/receipt", token, map[string]string{"type": "sale", "id": sale.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), "Screen guard")

	w, _ = s.do(t, http.MethodPost, "/api/v1/printer/receipt", token, map[string]string{"type": "order", "id": sale.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// testContext mirrors testing.T.Context (Go 1.24+) for older toolchains.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
