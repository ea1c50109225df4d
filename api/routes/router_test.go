package routes

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Kunwar-bir-singh/Online-Assessment/internal/auth"
	"github.com/Kunwar-bir-singh/Online-Assessment/internal/orders"
	"github.com/Kunwar-bir-singh/Online-Assessment/internal/products"
	"github.com/Kunwar-bir-singh/Online-Assessment/internal/stream"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/config"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/db"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/db/models"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/logger"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/metrics"
	"github.com/Kunwar-bir-singh/Online-Assessment/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type memorySessions struct {
	mu       sync.Mutex
	sessions map[string]int64
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[string]int64{}}
}

func (m *memorySessions) Track(_ context.Context, accessID string, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[accessID] = userID
	return nil
}

func (m *memorySessions) Revoke(_ context.Context, accessID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, accessID)
	return nil
}

func (m *memorySessions) HasSession(_ context.Context, accessID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[accessID]
	return ok, nil
}

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "access-secret",
			RefreshSecret:          "refresh-secret",
			Issuer:                 "food-ordering",
			ExpirationMinutes:      15,
			RefreshTokenTTLMinutes: 60,
		},
		Password: config.PasswordConfig{
			ArgonMemoryKB:    8,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      16,
		},
		Orders: config.OrdersConfig{ProgressionStep: time.Hour},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusEntry{},
	); err != nil {
		t.Fatalf("migrating schema: %v", err)
	}

	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("error"), Output: io.Discard})
	dbClient := db.NewWithConn(conn)
	sessions := newMemorySessions()
	hub := stream.NewHub()
	promMetrics := metrics.New()

	authService, err := auth.NewService(auth.ServiceParams{
		DB:             dbClient,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		t.Fatalf("creating auth service: %v", err)
	}

	productsService, err := products.NewService(products.NewRepository(conn))
	if err != nil {
		t.Fatalf("creating products service: %v", err)
	}

	ordersService, err := orders.NewService(orders.ServiceParams{
		DB:      dbClient,
		Hub:     hub,
		Metrics: promMetrics,
		Logger:  logg,
		Orders:  cfg.Orders,
	})
	if err != nil {
		t.Fatalf("creating orders service: %v", err)
	}

	router := NewRouter(RouterParams{
		Config:         cfg,
		Logger:         logg,
		DBPinger:       stubPinger{},
		RedisPinger:    stubPinger{},
		SessionManager: sessions,
		AuthService:    authService,
		Products:       productsService,
		Orders:         ordersService,
		Hub:            hub,
		Metrics:        promMetrics,
	})
	return router, conn
}

func seedProduct(t *testing.T, conn *gorm.DB, name string, price string) models.Product {
	t.Helper()
	product := models.Product{
		Name:        name,
		Description: "test item",
		Price:       decimal.RequireFromString(price),
		Category:    "main",
	}
	if err := conn.Create(&product).Error; err != nil {
		t.Fatalf("seeding product: %v", err)
	}
	return product
}

func postJSON(t *testing.T, router http.Handler, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshaling payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func getJSON(t *testing.T, router http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope types.SuccessEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	raw, err := json.Marshal(envelope.Data)
	if err != nil {
		t.Fatalf("remarshaling data: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decoding data: %v", err)
	}
}

func registerUser(t *testing.T, router http.Handler, email string) auth.AuthResponse {
	t.Helper()
	resp := postJSON(t, router, "/auth/register", "", map[string]string{
		"name":     "Test Diner",
		"email":    email,
		"password": "secret-password",
		"address":  "1 Test Street",
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 from register got %d: %s", resp.Code, resp.Body.String())
	}
	var out auth.AuthResponse
	decodeData(t, resp, &out)
	if out.AccessToken == "" || out.RefreshToken == "" {
		t.Fatal("expected token pair from register")
	}
	return out
}

func TestHealthLive(t *testing.T) {
	router, _ := newTestRouter(t)
	resp := getJSON(t, router, "/health/live", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got := resp.Header().Get("X-FoodOrder-Env"); got != "test" {
		t.Fatalf("expected env header test got %q", got)
	}
}

func TestHealthReady(t *testing.T) {
	router, _ := newTestRouter(t)
	resp := getJSON(t, router, "/health/ready", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	router, _ := newTestRouter(t)
	resp := getJSON(t, router, "/metrics", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "foodorder_orders_created_total") {
		t.Fatal("expected orders counter in exposition")
	}
}

func TestPrivateRoutesRejectMissingJWT(t *testing.T) {
	router, _ := newTestRouter(t)
	for _, path := range []string{"/api/products", "/api/orders"} {
		resp := getJSON(t, router, path, "")
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s got %d", path, resp.Code)
		}
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	router, _ := newTestRouter(t)
	creds := registerUser(t, router, "logout@example.com")

	resp := postJSON(t, router, "/auth/logout", creds.AccessToken, map[string]string{})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 from logout got %d: %s", resp.Code, resp.Body.String())
	}

	resp = getJSON(t, router, "/api/products", creds.AccessToken)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout got %d", resp.Code)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	router, _ := newTestRouter(t)
	creds := registerUser(t, router, "refresh@example.com")

	resp := postJSON(t, router, "/auth/refresh", "", map[string]string{"refresh_token": creds.RefreshToken})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 from refresh got %d: %s", resp.Code, resp.Body.String())
	}
	var rotated auth.AuthResponse
	decodeData(t, resp, &rotated)
	if rotated.RefreshToken == creds.RefreshToken {
		t.Fatal("expected refresh to rotate the refresh token")
	}

	// The consumed token is single use.
	resp = postJSON(t, router, "/auth/refresh", "", map[string]string{"refresh_token": creds.RefreshToken})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 replaying consumed token got %d", resp.Code)
	}
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	router, conn := newTestRouter(t)
	pizza := seedProduct(t, conn, "Margherita Pizza", "12.99")
	cola := seedProduct(t, conn, "Cola", "2.50")
	creds := registerUser(t, router, "orders@example.com")

	resp := getJSON(t, router, "/api/products", creds.AccessToken)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 listing products got %d: %s", resp.Code, resp.Body.String())
	}
	var listed []products.ProductDTO
	decodeData(t, resp, &listed)
	if len(listed) != 2 {
		t.Fatalf("expected 2 products got %d", len(listed))
	}

	resp = postJSON(t, router, "/api/orders", creds.AccessToken, orders.CreateOrderRequest{
		Items: []orders.CreateOrderItemInput{
			{ProductID: pizza.ID, Quantity: 2},
			{ProductID: cola.ID, Quantity: 1},
		},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating order got %d: %s", resp.Code, resp.Body.String())
	}
	var created orders.OrderDTO
	decodeData(t, resp, &created)
	if created.Status != "pending" {
		t.Fatalf("expected pending order got %s", created.Status)
	}
	if !created.TotalAmount.Equal(decimal.RequireFromString("28.48")) {
		t.Fatalf("unexpected total %s", created.TotalAmount)
	}
	if len(created.Items) != 2 {
		t.Fatalf("expected 2 items got %d", len(created.Items))
	}

	resp = getJSON(t, router, fmt.Sprintf("/api/orders/%d", created.ID), creds.AccessToken)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching order got %d: %s", resp.Code, resp.Body.String())
	}

	body, err := json.Marshal(orders.UpdateStatusRequest{Status: "cancelled"})
	if err != nil {
		t.Fatalf("marshaling payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/orders/%d/status", created.ID), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 cancelling got %d: %s", rec.Code, rec.Body.String())
	}
	var cancelled orders.OrderDTO
	decodeData(t, rec, &cancelled)
	if cancelled.Status != "cancelled" {
		t.Fatalf("expected cancelled got %s", cancelled.Status)
	}

	// Another user cannot see the order.
	other := registerUser(t, router, "other@example.com")
	resp = getJSON(t, router, fmt.Sprintf("/api/orders/%d", created.ID), other.AccessToken)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign order got %d", resp.Code)
	}
}

func TestOrderStreamSSE(t *testing.T) {
	router, conn := newTestRouter(t)
	pizza := seedProduct(t, conn, "Margherita Pizza", "12.99")
	creds := registerUser(t, router, "stream@example.com")

	resp := postJSON(t, router, "/api/orders", creds.AccessToken, orders.CreateOrderRequest{
		Items: []orders.CreateOrderItemInput{{ProductID: pizza.ID, Quantity: 1}},
	})
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating order got %d: %s", resp.Code, resp.Body.String())
	}
	var created orders.OrderDTO
	decodeData(t, resp, &created)

	server := httptest.NewServer(router)
	defer server.Close()

	streamURL := fmt.Sprintf("%s/api/orders/%d/stream?token=%s", server.URL, created.ID, creds.AccessToken)
	streamResp, err := http.Get(streamURL)
	if err != nil {
		t.Fatalf("opening stream: %v", err)
	}
	defer streamResp.Body.Close()

	if streamResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from stream got %d", streamResp.StatusCode)
	}
	if got := streamResp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("expected event-stream content type got %q", got)
	}

	frames := readSSEFrames(t, streamResp.Body, 2)
	var connected struct {
		Type   string `json:"type"`
		UserID int64  `json:"user_id"`
	}
	if err := json.Unmarshal([]byte(frames[0]), &connected); err != nil {
		t.Fatalf("decoding connected frame: %v", err)
	}
	if connected.Type != "connected" {
		t.Fatalf("expected connected frame got %s", connected.Type)
	}

	var current struct {
		Type    string `json:"type"`
		OrderID int64  `json:"order_id"`
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(frames[1]), &current); err != nil {
		t.Fatalf("decoding status frame: %v", err)
	}
	if current.Status != "pending" || current.Message != "Current order status" {
		t.Fatalf("unexpected snapshot frame %+v", current)
	}
}

func TestOrderStreamRejectsBadToken(t *testing.T) {
	router, _ := newTestRouter(t)
	resp := getJSON(t, router, "/api/orders/1/stream?token=garbage", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func readSSEFrames(t *testing.T, body io.Reader, count int) []string {
	t.Helper()
	reader := bufio.NewReader(body)
	frames := make([]string, 0, count)
	deadline := time.After(5 * time.Second)
	lines := make(chan string)
	go func() {
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				close(lines)
				return
			}
			lines <- line
		}
	}()
	for len(frames) < count {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatalf("stream closed after %d frames", len(frames))
			}
			line = strings.TrimSpace(line)
			if strings.HasPrefix(line, "data: ") {
				frames = append(frames, strings.TrimPrefix(line, "data: "))
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %d frames", count)
		}
	}
	return frames
}
