package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuipii/strawberry-website-bot/pkg/domain/model"
	"github.com/yuipii/strawberry-website-bot/pkg/domain/service"
	"github.com/yuipii/strawberry-website-bot/pkg/metrics"
	"github.com/yuipii/strawberry-website-bot/pkg/telegram"
)

type env struct {
	server   *httptest.Server
	catalog  service.Catalog
	ledger   *fakeLedger
	notifier *fakeNotifier
	probe    *fakeProbe
}

func newEnv(t *testing.T, seed []model.Product) *env {
	t.Helper()

	reg := metrics.NewRegistry()
	catalog := service.NewCatalog(&memStore{products: seed}, reg)
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{}
	probe := &fakeProbe{info: &telegram.BotInfo{FirstName: "Berry", Username: "berry_bot"}}

	router := Router(catalog, ledger, notifier, probe, reg, t.TempDir())
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &env{server: srv, catalog: catalog, ledger: ledger, notifier: notifier, probe: probe}
}

func (e *env) do(t *testing.T, method, path, body string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]json.RawMessage
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

const validOrder = `{
	"customer": {"name": "Иван", "phone": "+79990001122", "address": "ул. Ленина, 1"},
	"delivery": {"date": "2025-06-01", "time": "12:00"},
	"payment": "cash",
	"items": [{"name": "Клубника", "quantity": 2, "unit": "кг", "price": 500}],
	"totals": {"subtotal": 1000, "delivery": 200, "total": 1200},
	"comment": "позвонить заранее"
}`

func TestReceiveOrder(t *testing.T) {
	e := newEnv(t, nil)

	resp, body := e.do(t, http.MethodPost, "/api/order", validOrder)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `"success"`, string(body["status"]))

	orders := e.ledger.all()
	require.Len(t, orders, 1)
	assert.Equal(t, "Иван", orders[0].CustomerName)
	assert.Equal(t, int64(1200), orders[0].Total)
	assert.Equal(t, model.PaymentCash, orders[0].Payment)

	// The seller notification went through the async path.
	msgs := e.notifier.asyncMessages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "НОВЫЙ ЗАКАЗ")
	assert.Contains(t, msgs[0].text, "Иван")
	assert.Equal(t, int64(0), msgs[0].chatID)
}

func TestReceiveOrderBadBody(t *testing.T) {
	e := newEnv(t, nil)

	resp, _ := e.do(t, http.MethodPost, "/api/order", "{broken")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, e.ledger.all())
}

func TestReceiveOrderValidation(t *testing.T) {
	e := newEnv(t, nil)

	resp, _ := e.do(t, http.MethodPost, "/api/order", `{"payment": "gold", "items": []}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Empty(t, e.ledger.all())
}

func TestReceiveOrderLedgerFailure(t *testing.T) {
	e := newEnv(t, nil)
	e.ledger.appendErr = errors.New("db gone")

	resp, _ := e.do(t, http.MethodPost, "/api/order", validOrder)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Empty(t, e.notifier.asyncMessages())
}

func TestGetProductsFiltersInactive(t *testing.T) {
	e := newEnv(t, []model.Product{
		{ID: 1, Name: "Клубника", Active: true},
		{ID: 2, Name: "Скрытый", Active: false},
	})

	resp, err := http.Get(e.server.URL + "/api/products")
	require.NoError(t, err)
	defer resp.Body.Close()

	var products []model.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	require.Len(t, products, 1)
	assert.Equal(t, "Клубника", products[0].Name)
}

func TestAdminProductCRUD(t *testing.T) {
	e := newEnv(t, []model.Product{{ID: 1, Name: "Клубника", Active: true}})

	t.Run("list all includes inactive", func(t *testing.T) {
		resp, err := http.Get(e.server.URL + "/api/admin/products")
		require.NoError(t, err)
		defer resp.Body.Close()

		var products []model.Product
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
		assert.Len(t, products, 1)
	})

	t.Run("create assigns id and defaults active", func(t *testing.T) {
		resp, body := e.do(t, http.MethodPost, "/api/admin/products",
			`{"name": "Корзина", "price": 700, "unit": "шт"}`)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var p model.Product
		require.NoError(t, json.Unmarshal(body["product"], &p))
		assert.Equal(t, int64(2), p.ID)
		assert.True(t, p.Active)
	})

	t.Run("update", func(t *testing.T) {
		resp, body := e.do(t, http.MethodPut, "/api/admin/products/1", `{"price": 550}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var p model.Product
		require.NoError(t, json.Unmarshal(body["product"], &p))
		assert.Equal(t, int64(550), p.Price)
		assert.Equal(t, "Клубника", p.Name)
	})

	t.Run("update missing id", func(t *testing.T) {
		resp, _ := e.do(t, http.MethodPut, "/api/admin/products/99", `{"price": 550}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		resp, _ := e.do(t, http.MethodDelete, "/api/admin/products/2", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		_, err := e.catalog.Find(2)
		assert.ErrorIs(t, err, model.ErrProductNotFound)
	})

	t.Run("delete missing id is silent success", func(t *testing.T) {
		resp, _ := e.do(t, http.MethodDelete, "/api/admin/products/99", "")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestBotCheck(t *testing.T) {
	e := newEnv(t, nil)

	resp, body := e.do(t, http.MethodGet, "/api/bot-check", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `"berry_bot"`, string(body["bot_username"]))

	e.probe.err = errors.New("unauthorized")
	resp, _ = e.do(t, http.MethodGet, "/api/bot-check", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestCheckAPI(t *testing.T) {
	e := newEnv(t, nil)

	resp, body := e.do(t, http.MethodGet, "/api/check", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `"success"`, string(body["status"]))
}

func TestMetricsEndpoint(t *testing.T) {
	e := newEnv(t, nil)

	resp, _ := e.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

type memStore struct {
	mu       sync.Mutex
	products []model.Product
}

func (m *memStore) Load() ([]model.Product, error) {
	return m.products, nil
}

func (m *memStore) Save(products []model.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append([]model.Product(nil), products...)
	return nil
}

type fakeLedger struct {
	mu        sync.Mutex
	orders    []*model.Order
	appendErr error
}

func (f *fakeLedger) Append(order *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	order.ID = int64(len(f.orders) + 1)
	f.orders = append(f.orders, order)
	return nil
}

func (f *fakeLedger) Aggregate(model.StatsWindow) (*model.OrderStats, error) {
	return &model.OrderStats{}, nil
}

func (f *fakeLedger) all() []*model.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*model.Order(nil), f.orders...)
}

type asyncMsg struct {
	chatID int64
	text   string
}

type fakeNotifier struct {
	mu    sync.Mutex
	async []asyncMsg
}

func (f *fakeNotifier) Send(int64, string) bool { return true }

func (f *fakeNotifier) SendAsync(chatID int64, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.async = append(f.async, asyncMsg{chatID: chatID, text: text})
}

func (f *fakeNotifier) asyncMessages() []asyncMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]asyncMsg(nil), f.async...)
}

type fakeProbe struct {
	info *telegram.BotInfo
	err  error
}

func (f *fakeProbe) GetMe() (*telegram.BotInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.info, nil
}
