package model

import (
	"errors"
	"time"
)

var (
	ErrUnknownStatsWindow = errors.New("unknown stats window")
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

type Order struct {
	ID              int64
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	DeliveryDate    string
	DeliveryTime    string
	Payment         PaymentMethod
	Items           []OrderItem
	Subtotal        int64
	DeliveryFee     int64
	Total           int64
	Comment         string
	CreatedAt       time.Time
}

// OrderItem captures the line item as submitted; later catalog edits do not
// affect persisted orders.
type OrderItem struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
	Unit     string `json:"unit"`
	Price    int64  `json:"price"`
}

type StatsWindow int

const (
	WindowAll StatsWindow = iota
	WindowToday
	WindowWeek
	WindowMonth
)

func ParseStatsWindow(s string) (StatsWindow, error) {
	switch s {
	case "", "all":
		return WindowAll, nil
	case "today":
		return WindowToday, nil
	case "week":
		return WindowWeek, nil
	case "month":
		return WindowMonth, nil
	}
	return WindowAll, ErrUnknownStatsWindow
}

func (w StatsWindow) String() string {
	switch w {
	case WindowToday:
		return "today"
	case WindowWeek:
		return "week"
	case WindowMonth:
		return "month"
	default:
		return "all"
	}
}

type DailyStat struct {
	Date    string
	Orders  int64
	Revenue int64
}

type ProductSales struct {
	Name     string
	Quantity int64
	Revenue  int64
}

type OrderStats struct {
	TotalOrders     int64
	TotalRevenue    int64
	AvgOrderValue   float64
	UniqueCustomers int64
	Daily           []DailyStat
	TopProducts     []ProductSales
}

type OrderLedger interface {
	Append(order *Order) error
	Aggregate(window StatsWindow) (*OrderStats, error)
}
