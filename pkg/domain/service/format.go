package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/yuipii/strawberry-website-bot/pkg/domain/model"
)

func escapeHTML(text string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(text)
}

// HelpMessage is the admin command reference, also sent on startup.
const HelpMessage = `🤖 <b>Команды администратора:</b>

/start - Главное меню
/help - Показать это сообщение

📦 <b>Управление продуктами:</b>
/list - Показать все продукты
/add - Добавить новый продукт
/edit - Редактировать продукт
/delete - Удалить продукт

📊 <b>Статистика:</b>
/stats - Статистика за все время
/stats today - Статистика за сегодня
/stats week - Статистика за неделю
/stats month - Статистика за месяц

💡 <b>Как использовать:</b>
1. Используйте команды для управления продуктами
2. Следуйте инструкциям бота
3. Изменения сразу отобразятся на сайте`

func formatProductList(products []model.Product) string {
	if len(products) == 0 {
		return "📭 Список продуктов пуст"
	}

	var b strings.Builder
	b.WriteString("📦 <b>Список продуктов:</b>\n\n")
	for i, p := range products {
		status := "✅"
		if !p.Active {
			status = "❌"
		}
		fmt.Fprintf(&b, "%d. %s <b>%s</b>\n", i+1, status, escapeHTML(p.Name))
		fmt.Fprintf(&b, "   Цена: %d ₽/%s\n", p.Price, p.Unit)
		fmt.Fprintf(&b, "   ID: %d\n\n", p.ID)
	}
	b.WriteString("\n💡 Используйте /edit [ID] для редактирования или /delete [ID] для удаления")
	return b.String()
}

func formatEditPrompt(p model.Product) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✏️ <b>Редактирование:</b> %s\n\n", escapeHTML(p.Name))
	b.WriteString("Выберите поле для редактирования:\n")
	b.WriteString("1. name - Название\n")
	b.WriteString("2. description - Описание\n")
	b.WriteString("3. price - Цена\n")
	b.WriteString("4. unit - Единица измерения\n")
	b.WriteString("5. image - URL изображения\n")
	b.WriteString("6. active - Активность (true/false)\n\n")
	b.WriteString("Введите номер поля или название:")
	return b.String()
}

// FormatOrderMessage renders the notification sent to the seller when a new
// order arrives.
func FormatOrderMessage(order *model.Order, now time.Time) string {
	var b strings.Builder

	b.WriteString("🛒 <b>НОВЫЙ ЗАКАЗ</b>\n\n")
	fmt.Fprintf(&b, "👤 <b>%s</b>\n", escapeHTML(order.CustomerName))
	fmt.Fprintf(&b, "📞 %s\n", escapeHTML(order.CustomerPhone))
	fmt.Fprintf(&b, "📍 %s\n\n", escapeHTML(order.CustomerAddress))
	b.WriteString("🚚 <b>Доставка:</b>\n")
	fmt.Fprintf(&b, "%s %s\n\n", escapeHTML(order.DeliveryDate), escapeHTML(order.DeliveryTime))

	b.WriteString("📦 <b>Товары:</b>\n")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "• %s - %d %s × %d ₽ = %d ₽\n",
			escapeHTML(item.Name), item.Quantity, escapeHTML(item.Unit), item.Price, item.Quantity*item.Price)
	}

	fmt.Fprintf(&b, "\n💰 <b>Итого: %d ₽</b>\n", order.Total)
	fmt.Fprintf(&b, "(Товары: %d ₽ + Доставка: %d ₽)\n\n", order.Subtotal, order.DeliveryFee)

	if order.Comment != "" {
		fmt.Fprintf(&b, "💬 <b>Комментарий:</b>\n%s\n\n", escapeHTML(order.Comment))
	}

	payment := "Картой онлайн"
	if order.Payment == model.PaymentCash {
		payment = "Наличными"
	}
	fmt.Fprintf(&b, "💳 <b>Оплата:</b> %s\n", payment)
	fmt.Fprintf(&b, "⏰ <b>Время заказа:</b> %s", now.Format("02.01.2006 15:04"))

	return b.String()
}

func formatStatsMessage(stats *model.OrderStats, window model.StatsWindow) string {
	periodNames := map[model.StatsWindow]string{
		model.WindowToday: "сегодня",
		model.WindowWeek:  "за неделю",
		model.WindowMonth: "за месяц",
		model.WindowAll:   "за все время",
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>СТАТИСТИКА ЗАКАЗОВ (%s)</b>\n\n", periodNames[window])
	fmt.Fprintf(&b, "📦 <b>Всего заказов:</b> %d\n", stats.TotalOrders)
	fmt.Fprintf(&b, "💰 <b>Общая выручка:</b> %d ₽\n", stats.TotalRevenue)
	fmt.Fprintf(&b, "📈 <b>Средний чек:</b> %.0f ₽\n", stats.AvgOrderValue)
	fmt.Fprintf(&b, "👥 <b>Уникальных клиентов:</b> %d\n\n", stats.UniqueCustomers)

	if len(stats.TopProducts) > 0 {
		b.WriteString("🏆 <b>Популярные товары:</b>\n")
		top := stats.TopProducts
		if len(top) > 5 {
			top = top[:5]
		}
		for i, p := range top {
			fmt.Fprintf(&b, "%d. %s - %d шт. (%d ₽)\n", i+1, escapeHTML(p.Name), p.Quantity, p.Revenue)
		}
		b.WriteString("\n")
	}

	if len(stats.Daily) > 1 {
		b.WriteString("📅 <b>Последние дни:</b>\n")
		daily := stats.Daily
		if len(daily) > 7 {
			daily = daily[len(daily)-7:]
		}
		for _, d := range daily {
			fmt.Fprintf(&b, "• %s: %d зак. (%d ₽)\n", d.Date, d.Orders, d.Revenue)
		}
	}

	b.WriteString("\n💡 Используйте /stats today/week/month/all для фильтрации")
	return b.String()
}
