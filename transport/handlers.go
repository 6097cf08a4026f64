package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/yuipii/strawberry-website-bot/pkg/domain/model"
	"github.com/yuipii/strawberry-website-bot/pkg/domain/service"
	"github.com/yuipii/strawberry-website-bot/pkg/metrics"
	"github.com/yuipii/strawberry-website-bot/pkg/telegram"
)

// BotProbe checks that the messaging transport is reachable.
type BotProbe interface {
	GetMe() (*telegram.BotInfo, error)
}

type Handler struct {
	catalog   service.Catalog
	ledger    model.OrderLedger
	notifier  model.Notifier
	probe     BotProbe
	reg       *metrics.Registry
	validate  *validator.Validate
	staticDir string
}

func Router(catalog service.Catalog, ledger model.OrderLedger, notifier model.Notifier, probe BotProbe, reg *metrics.Registry, staticDir string) http.Handler {
	h := &Handler{
		catalog:   catalog,
		ledger:    ledger,
		notifier:  notifier,
		probe:     probe,
		reg:       reg,
		validate:  validator.New(),
		staticDir: staticDir,
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/order", h.receiveOrder).Methods(http.MethodPost)
	api.HandleFunc("/products", h.getActiveProducts).Methods(http.MethodGet)
	api.HandleFunc("/admin/products", h.getAllProducts).Methods(http.MethodGet)
	api.HandleFunc("/admin/products", h.addProduct).Methods(http.MethodPost)
	api.HandleFunc("/admin/products/{id:[0-9]+}", h.updateProduct).Methods(http.MethodPut)
	api.HandleFunc("/admin/products/{id:[0-9]+}", h.deleteProduct).Methods(http.MethodDelete)
	api.HandleFunc("/bot-check", h.checkBot).Methods(http.MethodGet)
	api.HandleFunc("/check", h.checkAPI).Methods(http.MethodGet)

	r.Path("/metrics").Handler(reg.Handler())
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))

	return logMiddleware(r)
}

type orderRequest struct {
	Customer struct {
		Name    string `json:"name" validate:"required"`
		Phone   string `json:"phone" validate:"required"`
		Address string `json:"address" validate:"required"`
	} `json:"customer"`
	Delivery struct {
		Date string `json:"date"`
		Time string `json:"time"`
	} `json:"delivery"`
	Payment string            `json:"payment" validate:"required,oneof=cash card"`
	Items   []model.OrderItem `json:"items" validate:"required,min=1"`
	Totals  struct {
		Subtotal int64 `json:"subtotal"`
		Delivery int64 `json:"delivery"`
		Total    int64 `json:"total"`
	} `json:"totals"`
	Comment string `json:"comment"`
}

func (h *Handler) receiveOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No data provided"})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	order := &model.Order{
		CustomerName:    req.Customer.Name,
		CustomerPhone:   req.Customer.Phone,
		CustomerAddress: req.Customer.Address,
		DeliveryDate:    req.Delivery.Date,
		DeliveryTime:    req.Delivery.Time,
		Payment:         model.PaymentMethod(req.Payment),
		Items:           req.Items,
		Subtotal:        req.Totals.Subtotal,
		DeliveryFee:     req.Totals.Delivery,
		Total:           req.Totals.Total,
		Comment:         req.Comment,
	}

	log.WithField("customer", order.CustomerName).Info("Received new order")

	if err := h.ledger.Append(order); err != nil {
		log.WithError(err).Error("Failed to store order")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":  "Internal server error",
			"status": "error",
		})
		return
	}

	h.reg.OrdersReceived.Inc()

	// The seller is notified off the request path; a slow or unreachable
	// Telegram API must not delay the acknowledgment.
	h.notifier.SendAsync(0, service.FormatOrderMessage(order, time.Now()))

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Order received successfully",
		"status":  "success",
	})
}

func (h *Handler) getActiveProducts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.Active())
}

func (h *Handler) getAllProducts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.catalog.All())
}

type productPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Unit        string `json:"unit"`
	Image       string `json:"image"`
	Active      *bool  `json:"active"`
}

func (h *Handler) addProduct(w http.ResponseWriter, r *http.Request) {
	var payload productPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No data provided"})
		return
	}

	active := true
	if payload.Active != nil {
		active = *payload.Active
	}

	product, err := h.catalog.Create(model.Product{
		Name:        payload.Name,
		Description: payload.Description,
		Price:       payload.Price,
		Unit:        payload.Unit,
		Image:       payload.Image,
		Active:      active,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to save product"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Product added successfully",
		"product": product,
	})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	var patch model.ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No data provided"})
		return
	}

	product, err := h.catalog.Update(id, patch)
	if errors.Is(err, model.ErrProductNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Product not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to save product"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Product updated successfully",
		"product": product,
	})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)

	// Deleting an absent product is a silent success.
	_, err := h.catalog.Remove(id)
	if err != nil && !errors.Is(err, model.ErrProductNotFound) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to save products"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

func (h *Handler) checkBot(w http.ResponseWriter, _ *http.Request) {
	info, err := h.probe.GetMe()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": "Bot check failed: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":       "success",
		"bot_username": info.Username,
		"bot_name":     info.FirstName,
	})
}

func (h *Handler) checkAPI(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "API is working!",
		"status":  "success",
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	b, err := json.Marshal(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(b); err != nil {
		log.WithField("err", err).Error("write response")
	}
}

func logMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.WithFields(log.Fields{
			"requestId":  uuid.NewString(),
			"method":     r.Method,
			"url":        r.URL,
			"remoteAddr": r.RemoteAddr,
			"userAgent":  r.UserAgent(),
		}).Info("got a new request")
		h.ServeHTTP(w, r)
	})
}
