package tests

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuipii/strawberry-website-bot/pkg/domain/model"
	"github.com/yuipii/strawberry-website-bot/pkg/domain/service"
)

const (
	adminChat    int64 = 111
	strangerChat int64 = 999
)

func setupRouter(t *testing.T, seed []model.Product) (service.Router, service.Catalog, service.Conversation, *mockNotifier, *mockLedger) {
	t.Helper()
	catalog, _ := newCatalog(t, seed)
	notifier := &mockNotifier{}
	ledger := &mockLedger{stats: &model.OrderStats{}}
	conv := service.NewConversation(catalog, notifier)
	router := service.NewRouter(catalog, ledger, conv, notifier, []int64{adminChat})
	return router, catalog, conv, notifier, ledger
}

func TestRouterRejectsUnknownSender(t *testing.T) {
	seed := []model.Product{{ID: 1, Name: "Клубника"}}
	router, catalog, conv, notifier, _ := setupRouter(t, seed)

	router.HandleMessage(strangerChat, "/list")

	msgs := notifier.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, strangerChat, msgs[0].chatID)
	assert.Contains(t, msgs[0].text, "нет прав")
	assert.Equal(t, seed, catalog.All())
	assert.False(t, conv.Active(strangerChat))
}

func TestRouterHelpAndStart(t *testing.T) {
	router, _, _, notifier, _ := setupRouter(t, nil)

	router.HandleMessage(adminChat, "/help")
	assert.Contains(t, notifier.lastTexts(1)[0], "Команды администратора")

	router.HandleMessage(adminChat, "/start")
	assert.Contains(t, notifier.lastTexts(1)[0], "Команды администратора")
}

func TestRouterListsCatalog(t *testing.T) {
	router, _, _, notifier, _ := setupRouter(t, []model.Product{
		{ID: 1, Name: "Клубника", Price: 500, Unit: "кг", Active: true},
		{ID: 2, Name: "Корзина", Price: 700, Unit: "шт", Active: false},
	})

	router.HandleMessage(adminChat, "/list")

	text := notifier.lastTexts(1)[0]
	assert.Contains(t, text, "Клубника")
	assert.Contains(t, text, "✅")
	assert.Contains(t, text, "❌")
	assert.Contains(t, text, "ID: 2")
}

func TestRouterDeleteExisting(t *testing.T) {
	router, catalog, _, notifier, _ := setupRouter(t, []model.Product{{ID: 1, Name: "Клубника"}})

	router.HandleMessage(adminChat, "/delete 1")

	assert.Empty(t, catalog.All())
	texts := notifier.lastTexts(2)
	assert.Contains(t, texts[0], "успешно удален")
	assert.Contains(t, texts[1], "Список продуктов пуст")
}

func TestRouterDeleteMissing(t *testing.T) {
	seed := []model.Product{{ID: 1, Name: "Клубника"}}
	router, catalog, _, notifier, _ := setupRouter(t, seed)

	router.HandleMessage(adminChat, "/delete 99")

	assert.Contains(t, notifier.lastTexts(1)[0], "Продукт не найден")
	assert.Equal(t, seed, catalog.All())
}

func TestRouterEditArgumentErrors(t *testing.T) {
	router, _, conv, notifier, _ := setupRouter(t, []model.Product{{ID: 1}})

	router.HandleMessage(adminChat, "/edit")
	assert.Contains(t, notifier.lastTexts(1)[0], "Укажите ID продукта")

	router.HandleMessage(adminChat, "/edit abc")
	assert.Contains(t, notifier.lastTexts(1)[0], "Неверный формат ID")

	assert.False(t, conv.Active(adminChat))
}

func TestRouterStartsFlows(t *testing.T) {
	router, _, conv, _, _ := setupRouter(t, []model.Product{{ID: 1, Name: "Клубника"}})

	router.HandleMessage(adminChat, "/add")
	assert.True(t, conv.Active(adminChat))

	// /edit mid-flow restarts with the edit flow.
	router.HandleMessage(adminChat, "/edit 1")
	assert.True(t, conv.Active(adminChat))

	router.HandleMessage(adminChat, "3")
	router.HandleMessage(adminChat, "777")
	assert.False(t, conv.Active(adminChat))
}

func TestRouterSlashCommandsTakePrecedenceMidFlow(t *testing.T) {
	router, catalog, conv, notifier, _ := setupRouter(t, []model.Product{{ID: 1, Name: "Клубника"}})

	router.HandleMessage(adminChat, "/add")
	router.HandleMessage(adminChat, "Черновик")

	// A slash command mid-flow is dispatched as a command, not as input.
	router.HandleMessage(adminChat, "/list")
	assert.Contains(t, notifier.lastTexts(1)[0], "Список продуктов")

	// The flow is still alive and keeps consuming non-slash text.
	require.True(t, conv.Active(adminChat))
	router.HandleMessage(adminChat, "Описание")
	router.HandleMessage(adminChat, "300")
	router.HandleMessage(adminChat, "шт")
	router.HandleMessage(adminChat, "img")

	products := catalog.All()
	require.Len(t, products, 2)
	assert.Equal(t, "Черновик", products[1].Name)
}

func TestRouterFreeTextWithoutFlowIsIgnored(t *testing.T) {
	router, _, _, notifier, _ := setupRouter(t, nil)

	router.HandleMessage(adminChat, "привет")

	assert.Empty(t, notifier.messages())
}

func TestRouterUnknownCommand(t *testing.T) {
	router, _, _, notifier, _ := setupRouter(t, nil)

	router.HandleMessage(adminChat, "/frobnicate")

	assert.Contains(t, notifier.lastTexts(1)[0], "Неизвестная команда")
}

func TestRouterStats(t *testing.T) {
	router, _, _, notifier, ledger := setupRouter(t, nil)
	ledger.stats = &model.OrderStats{
		TotalOrders:     4,
		TotalRevenue:    2000,
		AvgOrderValue:   500,
		UniqueCustomers: 3,
		TopProducts:     []model.ProductSales{{Name: "Клубника", Quantity: 7, Revenue: 3500}},
	}

	t.Run("defaults to all", func(t *testing.T) {
		router.HandleMessage(adminChat, "/stats")
		assert.Equal(t, model.WindowAll, ledger.lastWindow)
		assert.Contains(t, notifier.lastTexts(1)[0], "за все время")
	})

	t.Run("explicit window", func(t *testing.T) {
		router.HandleMessage(adminChat, "/stats today")
		assert.Equal(t, model.WindowToday, ledger.lastWindow)
		assert.Contains(t, notifier.lastTexts(1)[0], "сегодня")
	})

	t.Run("unknown window", func(t *testing.T) {
		router.HandleMessage(adminChat, "/stats quarter")
		assert.Contains(t, notifier.lastTexts(1)[0], "Неверный период")
	})

	t.Run("ledger failure", func(t *testing.T) {
		ledger.err = errors.New("db gone")
		defer func() { ledger.err = nil }()

		router.HandleMessage(adminChat, "/stats")
		assert.Contains(t, notifier.lastTexts(1)[0], "Ошибка получения статистики")
	})
}

func TestRouterStatsEmptyWindow(t *testing.T) {
	router, _, _, notifier, ledger := setupRouter(t, nil)
	ledger.stats = &model.OrderStats{}

	router.HandleMessage(adminChat, "/stats today")

	text := notifier.lastTexts(1)[0]
	assert.Contains(t, text, "Всего заказов:</b> 0")
	assert.Contains(t, text, "Общая выручка:</b> 0 ₽")
	assert.Contains(t, text, "Средний чек:</b> 0 ₽")
	assert.Contains(t, text, "Уникальных клиентов:</b> 0")
}

type mockLedger struct {
	orders     []*model.Order
	stats      *model.OrderStats
	err        error
	lastWindow model.StatsWindow
}

func (m *mockLedger) Append(order *model.Order) error {
	if m.err != nil {
		return m.err
	}
	order.ID = int64(len(m.orders) + 1)
	m.orders = append(m.orders, order)
	return nil
}

func (m *mockLedger) Aggregate(window model.StatsWindow) (*model.OrderStats, error) {
	m.lastWindow = window
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}
