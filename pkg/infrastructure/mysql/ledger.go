package mysql

import (
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/yuipii/strawberry-website-bot/pkg/domain/model"
)

// Connect opens the orders database. The DSN must carry parseTime=true so
// DATE columns scan into time.Time.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect to orders db")
	}
	return db, nil
}

// Ledger is the append-only order store. Orders are immutable once written.
type Ledger struct {
	db *sqlx.DB
}

func NewLedger(db *sqlx.DB) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) Append(order *model.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return errors.Wrap(err, "encode order items")
	}

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}

	res, err := l.db.Exec(`
		INSERT INTO orders
			(customer_name, customer_phone, customer_address, delivery_date, delivery_time,
			 payment_method, subtotal, delivery_fee, total, comment, items, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.CustomerName, order.CustomerPhone, order.CustomerAddress,
		order.DeliveryDate, order.DeliveryTime, string(order.Payment),
		order.Subtotal, order.DeliveryFee, order.Total, order.Comment,
		items, order.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	if id, err := res.LastInsertId(); err == nil {
		order.ID = id
	}
	return nil
}

func windowCondition(window model.StatsWindow) string {
	switch window {
	case model.WindowToday:
		return "DATE(created_at) = CURDATE()"
	case model.WindowWeek:
		return "created_at >= DATE_SUB(NOW(), INTERVAL 7 DAY)"
	case model.WindowMonth:
		return "created_at >= DATE_SUB(NOW(), INTERVAL 30 DAY)"
	default:
		return "1=1"
	}
}

func (l *Ledger) Aggregate(window model.StatsWindow) (*model.OrderStats, error) {
	cond := windowCondition(window)

	var totals struct {
		Orders    int64           `db:"orders"`
		Revenue   int64           `db:"revenue"`
		AvgOrder  sql.NullFloat64 `db:"avg_order"`
		Customers int64           `db:"customers"`
	}
	err := l.db.Get(&totals, `
		SELECT COUNT(*) AS orders,
		       COALESCE(SUM(total), 0) AS revenue,
		       AVG(total) AS avg_order,
		       COUNT(DISTINCT customer_phone) AS customers
		FROM orders WHERE `+cond)
	if err != nil {
		return nil, errors.Wrap(err, "aggregate order totals")
	}

	stats := &model.OrderStats{
		TotalOrders:     totals.Orders,
		TotalRevenue:    totals.Revenue,
		AvgOrderValue:   totals.AvgOrder.Float64,
		UniqueCustomers: totals.Customers,
	}

	var daily []struct {
		Date    time.Time `db:"order_date"`
		Orders  int64     `db:"orders"`
		Revenue int64     `db:"revenue"`
	}
	err = l.db.Select(&daily, `
		SELECT DATE(created_at) AS order_date,
		       COUNT(*) AS orders,
		       COALESCE(SUM(total), 0) AS revenue
		FROM orders WHERE `+cond+`
		GROUP BY DATE(created_at)
		ORDER BY order_date`)
	if err != nil {
		return nil, errors.Wrap(err, "aggregate daily stats")
	}
	for _, d := range daily {
		stats.Daily = append(stats.Daily, model.DailyStat{
			Date:    d.Date.Format("2006-01-02"),
			Orders:  d.Orders,
			Revenue: d.Revenue,
		})
	}

	top, err := l.topProducts(cond)
	if err != nil {
		return nil, err
	}
	stats.TopProducts = top

	return stats, nil
}

// topProducts sums quantities per item name across every in-window order.
// Items are stored as a JSON column, so the grouping happens here rather
// than in SQL.
func (l *Ledger) topProducts(cond string) ([]model.ProductSales, error) {
	var rows []string
	if err := l.db.Select(&rows, `SELECT items FROM orders WHERE `+cond); err != nil {
		return nil, errors.Wrap(err, "load order items")
	}
	return rankItems(rows), nil
}

func rankItems(rows []string) []model.ProductSales {
	type sales struct {
		quantity int64
		revenue  int64
	}
	byName := make(map[string]*sales)
	for _, raw := range rows {
		var items []model.OrderItem
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			continue
		}
		for _, item := range items {
			s, ok := byName[item.Name]
			if !ok {
				s = &sales{}
				byName[item.Name] = s
			}
			s.quantity += item.Quantity
			s.revenue += item.Quantity * item.Price
		}
	}

	top := make([]model.ProductSales, 0, len(byName))
	for name, s := range byName {
		top = append(top, model.ProductSales{Name: name, Quantity: s.quantity, Revenue: s.revenue})
	}
	sort.Slice(top, func(i, j int) bool { return top[i].Quantity > top[j].Quantity })

	if len(top) > 10 {
		top = top[:10]
	}
	return top
}
