package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/yuipii/strawberry-website-bot/pkg/domain/model"
)

// Router classifies inbound operator text: slash commands go through the
// command table (always, even mid-flow), everything else is forwarded to an
// active conversation. Replies go back to the sender only.
type Router interface {
	HandleMessage(chatID int64, text string)
}

func NewRouter(catalog Catalog, ledger model.OrderLedger, conv Conversation, notifier model.Notifier, admins []int64) Router {
	allowed := make(map[int64]struct{}, len(admins))
	for _, id := range admins {
		allowed[id] = struct{}{}
	}
	return &router{
		catalog:  catalog,
		ledger:   ledger,
		conv:     conv,
		notifier: notifier,
		admins:   allowed,
	}
}

type router struct {
	catalog  Catalog
	ledger   model.OrderLedger
	conv     Conversation
	notifier model.Notifier
	admins   map[int64]struct{}
}

func (r *router) HandleMessage(chatID int64, text string) {
	if _, ok := r.admins[chatID]; !ok {
		r.notifier.Send(chatID, "❌ У вас нет прав для выполнения этой команды")
		return
	}

	if strings.HasPrefix(text, "/") {
		r.handleCommand(chatID, text)
		return
	}

	if r.conv.Active(chatID) {
		r.conv.HandleText(chatID, text)
	}
}

func (r *router) handleCommand(chatID int64, text string) {
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "/start", "/help":
		r.notifier.Send(chatID, HelpMessage)

	case "/list":
		r.notifier.Send(chatID, formatProductList(r.catalog.All()))

	case "/add":
		r.conv.StartAdd(chatID)

	case "/edit":
		id, ok := r.parseID(chatID, parts, "/edit")
		if !ok {
			return
		}
		r.conv.StartEdit(chatID, id)

	case "/delete":
		id, ok := r.parseID(chatID, parts, "/delete")
		if !ok {
			return
		}
		r.deleteProduct(chatID, id)

	case "/stats":
		arg := ""
		if len(parts) > 1 {
			arg = parts[1]
		}
		r.sendStats(chatID, arg)

	default:
		r.notifier.Send(chatID, "❌ Неизвестная команда. Используйте /help для списка команд")
	}
}

func (r *router) parseID(chatID int64, parts []string, command string) (int64, bool) {
	if len(parts) < 2 {
		r.notifier.Send(chatID, fmt.Sprintf("❌ Укажите ID продукта: %s [ID]", command))
		return 0, false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		r.notifier.Send(chatID, fmt.Sprintf("❌ Неверный формат ID. Используйте: %s [ID]", command))
		return 0, false
	}
	return id, true
}

func (r *router) deleteProduct(chatID int64, id int64) {
	product, err := r.catalog.Remove(id)
	if errors.Is(err, model.ErrProductNotFound) {
		r.notifier.Send(chatID, "❌ Продукт не найден")
		return
	}

	r.notifier.Send(chatID, fmt.Sprintf("✅ Продукт '%s' успешно удален!", escapeHTML(product.Name)))
	r.notifier.Send(chatID, formatProductList(r.catalog.All()))
}

func (r *router) sendStats(chatID int64, arg string) {
	window, err := model.ParseStatsWindow(arg)
	if err != nil {
		r.notifier.Send(chatID, "❌ Неверный период. Используйте: /stats today/week/month/all")
		return
	}

	stats, err := r.ledger.Aggregate(window)
	if err != nil {
		log.WithError(err).Error("Failed to aggregate order stats")
		r.notifier.Send(chatID, "❌ Ошибка получения статистики")
		return
	}

	r.notifier.Send(chatID, formatStatsMessage(stats, window))
}
