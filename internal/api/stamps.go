package stamps

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	interf "github.com/glkeru/loyalty/stamps/internal/interfaces"
	model "github.com/glkeru/loyalty/stamps/internal/models"
	service "github.com/glkeru/loyalty/stamps/internal/services"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type StampsHandler struct {
	router   *mux.Router
	services *service.Stamps
	snapshot interf.SnapshotStorage
	location string // точка продаж по умолчанию
	logger   *zap.Logger
}

func NewHandler(services *service.Stamps, snapshot interf.SnapshotStorage, location string, logger *zap.Logger) *StampsHandler {
	router := mux.NewRouter()
	h := &StampsHandler{router, services, snapshot, location, logger}
	router.Use(MiddlewareLog())

	// клиенты
	router.HandleFunc("/customers", h.SignUpHandler).Methods(http.MethodPost)
	router.HandleFunc("/customers", h.GetCustomersHandler).Methods(http.MethodGet)
	router.HandleFunc("/customers/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/customers/{id}", h.GetCustomerHandler).Methods(http.MethodGet)
	router.HandleFunc("/customers/{id}/dashboard", h.DashboardHandler).Methods(http.MethodGet)
	router.HandleFunc("/customers/{id}/transactions", h.GetCustomerTransactionsHandler).Methods(http.MethodGet)
	router.HandleFunc("/customers/{id}/notifications", h.GetNotificationsHandler).Methods(http.MethodGet)
	router.HandleFunc("/customers/{id}/messages", h.SendMessageHandler).Methods(http.MethodPost)
	router.HandleFunc("/customers/{id}/audit", h.AuditHandler).Methods(http.MethodGet)

	// начисления
	router.HandleFunc("/customers/{id}/stamps", h.AwardStampHandler).Methods(http.MethodPost)
	router.HandleFunc("/customers/{id}/redeem", h.RedeemHandler).Methods(http.MethodPost)
	router.HandleFunc("/scan", h.ScanHandler).Methods(http.MethodPost)
	router.HandleFunc("/scan/resolve", h.ResolveHandler).Methods(http.MethodPost)

	// карта
	router.HandleFunc("/card", h.GetCardHandler).Methods(http.MethodGet)
	router.HandleFunc("/card", h.UpdateCardHandler).Methods(http.MethodPut)

	// реестр QR кодов
	router.HandleFunc("/qrcodes", h.GetQRCodesHandler).Methods(http.MethodGet)
	router.HandleFunc("/qrcodes", h.CreateQRCodeHandler).Methods(http.MethodPost)
	router.HandleFunc("/qrcodes/stats", h.QRCodeStatsHandler).Methods(http.MethodGet)
	router.HandleFunc("/qrcodes/{id}", h.GetQRCodeHandler).Methods(http.MethodGet)
	router.HandleFunc("/qrcodes/{id}", h.UpdateQRCodeHandler).Methods(http.MethodPatch)
	router.HandleFunc("/qrcodes/{id}", h.DeleteQRCodeHandler).Methods(http.MethodDelete)
	router.HandleFunc("/qrcodes/{id}/toggle", h.ToggleQRCodeHandler).Methods(http.MethodPost)

	// журнал и сводки
	router.HandleFunc("/transactions", h.GetTransactionsHandler).Methods(http.MethodGet)
	router.HandleFunc("/stats/today", h.TodayHandler).Methods(http.MethodGet)
	router.HandleFunc("/stats/overview", h.OverviewHandler).Methods(http.MethodGet)

	// рассылки и уведомления
	router.HandleFunc("/campaigns", h.GetCampaignsHandler).Methods(http.MethodGet)
	router.HandleFunc("/campaigns", h.BroadcastHandler).Methods(http.MethodPost)
	router.HandleFunc("/campaigns/schedule", h.ScheduleHandler).Methods(http.MethodPost)
	router.HandleFunc("/notifications/{id}/read", h.MarkReadHandler).Methods(http.MethodPost)

	router.HandleFunc("/admin/snapshot", h.SnapshotHandler).Methods(http.MethodGet)

	return h
}

func (h *StampsHandler) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	h.router.ServeHTTP(w, req)
}

func (h *StampsHandler) Log(msg string, service string, err error) {
	h.logger.Error(msg,
		zap.String("service", service),
		zap.Error(err),
	)
}

// Ошибка -> HTTP статус
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrCustomerNotFound), errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrConflict), errors.Is(err, model.ErrDuplicateContact):
		return http.StatusConflict
	case errors.Is(err, model.ErrInsufficientStamps), errors.Is(err, model.ErrCodeInactive), errors.Is(err, model.ErrLedgerMismatch):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (h *StampsHandler) fail(w http.ResponseWriter, service string, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.Log("Request failed", service, err)
	}
	http.Error(w, err.Error(), status)
}

func (h *StampsHandler) reply(w http.ResponseWriter, service string, status int, v any) {
	j, err := json.Marshal(v)
	if err != nil {
		h.Log("Marshal", service, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(j)
}

// Тело запроса. Пустое тело - нулевое значение
func (h *StampsHandler) decode(w http.ResponseWriter, req *http.Request, service string, v any) bool {
	defer req.Body.Close()
	err := json.NewDecoder(req.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		h.Log("Unmarshal", service, err)
		http.Error(w, "Body is not correct", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *StampsHandler) where(location string) string {
	if location == "" {
		return h.location
	}
	return location
}

// Клиенты

func (h *StampsHandler) SignUpHandler(w http.ResponseWriter, req *http.Request) {
	var body service.SignUpRequest
	if !h.decode(w, req, "SignUpHandler", &body) {
		return
	}
	customer, err := h.services.Customers.SignUp(req.Context(), body)
	if err != nil {
		h.fail(w, "SignUpHandler", err)
		return
	}
	h.reply(w, "SignUpHandler", http.StatusCreated, customer)
}

func (h *StampsHandler) GetCustomersHandler(w http.ResponseWriter, req *http.Request) {
	customers, err := h.services.Customers.List(req.Context(), req.URL.Query().Get("search"))
	if err != nil {
		h.fail(w, "GetCustomersHandler", err)
		return
	}
	h.reply(w, "GetCustomersHandler", http.StatusOK, customers)
}

type LoginRequest struct {
	Contact string `json:"contact"` // email или телефон
}

func (h *StampsHandler) LoginHandler(w http.ResponseWriter, req *http.Request) {
	var body LoginRequest
	if !h.decode(w, req, "LoginHandler", &body) {
		return
	}
	customer, err := h.services.Customers.FindByContact(req.Context(), body.Contact)
	if err != nil {
		h.fail(w, "LoginHandler", err)
		return
	}
	h.reply(w, "LoginHandler", http.StatusOK, customer)
}

func (h *StampsHandler) GetCustomerHandler(w http.ResponseWriter, req *http.Request) {
	customer, err := h.services.Customers.Get(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		h.fail(w, "GetCustomerHandler", err)
		return
	}
	h.reply(w, "GetCustomerHandler", http.StatusOK, customer)
}

func (h *StampsHandler) DashboardHandler(w http.ResponseWriter, req *http.Request) {
	dashboard, err := h.services.Customers.Dashboard(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		h.fail(w, "DashboardHandler", err)
		return
	}
	h.reply(w, "DashboardHandler", http.StatusOK, dashboard)
}

func (h *StampsHandler) GetCustomerTransactionsHandler(w http.ResponseWriter, req *http.Request) {
	id := mux.Vars(req)["id"]
	_, err := h.services.Customers.Get(req.Context(), id)
	if err != nil {
		h.fail(w, "GetCustomerTransactionsHandler", err)
		return
	}
	tnxs, err := h.services.Customers.Transactions(req.Context(), id)
	if err != nil {
		h.fail(w, "GetCustomerTransactionsHandler", err)
		return
	}
	h.reply(w, "GetCustomerTransactionsHandler", http.StatusOK, tnxs)
}

func (h *StampsHandler) GetNotificationsHandler(w http.ResponseWriter, req *http.Request) {
	notifications, err := h.services.Notifier.List(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		h.fail(w, "GetNotificationsHandler", err)
		return
	}
	h.reply(w, "GetNotificationsHandler", http.StatusOK, notifications)
}

type MessageRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

func (h *StampsHandler) SendMessageHandler(w http.ResponseWriter, req *http.Request) {
	var body MessageRequest
	if !h.decode(w, req, "SendMessageHandler", &body) {
		return
	}
	notification, err := h.services.Notifier.Send(req.Context(), mux.Vars(req)["id"], body.Title, body.Message)
	if err != nil {
		h.fail(w, "SendMessageHandler", err)
		return
	}
	h.reply(w, "SendMessageHandler", http.StatusCreated, notification)
}

func (h *StampsHandler) AuditHandler(w http.ResponseWriter, req *http.Request) {
	err := h.services.Customers.Audit(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		h.fail(w, "AuditHandler", err)
		return
	}
	h.reply(w, "AuditHandler", http.StatusOK, map[string]bool{"consistent": true})
}

// Начисления

type AwardRequest struct {
	Amount   *int   `json:"amount"` // по умолчанию 1
	Location string `json:"location"`
}

func (h *StampsHandler) AwardStampHandler(w http.ResponseWriter, req *http.Request) {
	var body AwardRequest
	if !h.decode(w, req, "AwardStampHandler", &body) {
		return
	}
	amount := 1
	if body.Amount != nil {
		amount = *body.Amount
	}
	result, err := h.services.Engine.AwardStamp(req.Context(), mux.Vars(req)["id"], amount, h.where(body.Location))
	if err != nil {
		h.fail(w, "AwardStampHandler", err)
		return
	}
	h.reply(w, "AwardStampHandler", http.StatusOK, result)
}

type RedeemRequest struct {
	Location string `json:"location"`
}

func (h *StampsHandler) RedeemHandler(w http.ResponseWriter, req *http.Request) {
	var body RedeemRequest
	if !h.decode(w, req, "RedeemHandler", &body) {
		return
	}
	result, err := h.services.Engine.RedeemManually(req.Context(), mux.Vars(req)["id"], h.where(body.Location))
	if err != nil {
		h.fail(w, "RedeemHandler", err)
		return
	}
	h.reply(w, "RedeemHandler", http.StatusOK, result)
}

type ScanRequest struct {
	Code     string `json:"code"`
	Location string `json:"location"`
}

func (h *StampsHandler) ScanHandler(w http.ResponseWriter, req *http.Request) {
	var body ScanRequest
	if !h.decode(w, req, "ScanHandler", &body) {
		return
	}
	result, err := h.services.Engine.Scan(req.Context(), body.Code, h.where(body.Location))
	if err != nil {
		h.fail(w, "ScanHandler", err)
		return
	}
	h.reply(w, "ScanHandler", http.StatusOK, result)
}

// Только распознавание, без начисления
func (h *StampsHandler) ResolveHandler(w http.ResponseWriter, req *http.Request) {
	var body ScanRequest
	if !h.decode(w, req, "ResolveHandler", &body) {
		return
	}
	resolution, err := h.services.Resolver.Resolve(req.Context(), body.Code)
	if err != nil {
		h.fail(w, "ResolveHandler", err)
		return
	}
	h.reply(w, "ResolveHandler", http.StatusOK, resolution)
}

// Карта

func (h *StampsHandler) GetCardHandler(w http.ResponseWriter, req *http.Request) {
	cfg, err := h.services.Customers.CardConfig(req.Context())
	if err != nil {
		h.fail(w, "GetCardHandler", err)
		return
	}
	h.reply(w, "GetCardHandler", http.StatusOK, cfg)
}

func (h *StampsHandler) UpdateCardHandler(w http.ResponseWriter, req *http.Request) {
	var body model.CardConfig
	if !h.decode(w, req, "UpdateCardHandler", &body) {
		return
	}
	cfg, err := h.services.Customers.UpdateCardConfig(req.Context(), body)
	if err != nil {
		h.fail(w, "UpdateCardHandler", err)
		return
	}
	h.reply(w, "UpdateCardHandler", http.StatusOK, cfg)
}

// Реестр QR кодов

func (h *StampsHandler) GetQRCodesHandler(w http.ResponseWriter, req *http.Request) {
	qrs, err := h.services.Registry.List(req.Context(), req.URL.Query().Get("search"))
	if err != nil {
		h.fail(w, "GetQRCodesHandler", err)
		return
	}
	h.reply(w, "GetQRCodesHandler", http.StatusOK, qrs)
}

func (h *StampsHandler) CreateQRCodeHandler(w http.ResponseWriter, req *http.Request) {
	var body service.QRCodeInput
	if !h.decode(w, req, "CreateQRCodeHandler", &body) {
		return
	}
	qr, err := h.services.Registry.Create(req.Context(), body)
	if err != nil {
		h.fail(w, "CreateQRCodeHandler", err)
		return
	}
	h.reply(w, "CreateQRCodeHandler", http.StatusCreated, qr)
}

func (h *StampsHandler) QRCodeStatsHandler(w http.ResponseWriter, req *http.Request) {
	stats, err := h.services.Registry.Stats(req.Context())
	if err != nil {
		h.fail(w, "QRCodeStatsHandler", err)
		return
	}
	h.reply(w, "QRCodeStatsHandler", http.StatusOK, stats)
}

func (h *StampsHandler) GetQRCodeHandler(w http.ResponseWriter, req *http.Request) {
	qr, err := h.services.Registry.Get(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		h.fail(w, "GetQRCodeHandler", err)
		return
	}
	h.reply(w, "GetQRCodeHandler", http.StatusOK, qr)
}

func (h *StampsHandler) UpdateQRCodeHandler(w http.ResponseWriter, req *http.Request) {
	var body service.QRCodeInput
	if !h.decode(w, req, "UpdateQRCodeHandler", &body) {
		return
	}
	qr, err := h.services.Registry.Update(req.Context(), mux.Vars(req)["id"], body)
	if err != nil {
		h.fail(w, "UpdateQRCodeHandler", err)
		return
	}
	h.reply(w, "UpdateQRCodeHandler", http.StatusOK, qr)
}

func (h *StampsHandler) DeleteQRCodeHandler(w http.ResponseWriter, req *http.Request) {
	err := h.services.Registry.Delete(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		h.fail(w, "DeleteQRCodeHandler", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *StampsHandler) ToggleQRCodeHandler(w http.ResponseWriter, req *http.Request) {
	qr, err := h.services.Registry.Toggle(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		h.fail(w, "ToggleQRCodeHandler", err)
		return
	}
	h.reply(w, "ToggleQRCodeHandler", http.StatusOK, qr)
}

// Журнал и сводки

func (h *StampsHandler) GetTransactionsHandler(w http.ResponseWriter, req *http.Request) {
	tnxs, err := h.services.Customers.Transactions(req.Context(), "")
	if err != nil {
		h.fail(w, "GetTransactionsHandler", err)
		return
	}
	h.reply(w, "GetTransactionsHandler", http.StatusOK, tnxs)
}

func (h *StampsHandler) TodayHandler(w http.ResponseWriter, req *http.Request) {
	summary, err := h.services.Stats.Today(req.Context())
	if err != nil {
		h.fail(w, "TodayHandler", err)
		return
	}
	h.reply(w, "TodayHandler", http.StatusOK, summary)
}

func (h *StampsHandler) OverviewHandler(w http.ResponseWriter, req *http.Request) {
	overview, err := h.services.Stats.Overview(req.Context())
	if err != nil {
		h.fail(w, "OverviewHandler", err)
		return
	}
	h.reply(w, "OverviewHandler", http.StatusOK, overview)
}

// Рассылки и уведомления

func (h *StampsHandler) GetCampaignsHandler(w http.ResponseWriter, req *http.Request) {
	campaigns, err := h.services.Notifier.Campaigns(req.Context())
	if err != nil {
		h.fail(w, "GetCampaignsHandler", err)
		return
	}
	h.reply(w, "GetCampaignsHandler", http.StatusOK, campaigns)
}

func (h *StampsHandler) BroadcastHandler(w http.ResponseWriter, req *http.Request) {
	var body service.CampaignRequest
	if !h.decode(w, req, "BroadcastHandler", &body) {
		return
	}
	campaign, err := h.services.Notifier.Broadcast(req.Context(), body)
	if err != nil {
		h.fail(w, "BroadcastHandler", err)
		return
	}
	h.reply(w, "BroadcastHandler", http.StatusCreated, campaign)
}

type ScheduleRequest struct {
	service.CampaignRequest
	SentAt time.Time `json:"sentAt"`
}

func (h *StampsHandler) ScheduleHandler(w http.ResponseWriter, req *http.Request) {
	var body ScheduleRequest
	if !h.decode(w, req, "ScheduleHandler", &body) {
		return
	}
	campaign, err := h.services.Notifier.Schedule(req.Context(), body.CampaignRequest, body.SentAt)
	if err != nil {
		h.fail(w, "ScheduleHandler", err)
		return
	}
	h.reply(w, "ScheduleHandler", http.StatusCreated, campaign)
}

func (h *StampsHandler) MarkReadHandler(w http.ResponseWriter, req *http.Request) {
	err := h.services.Notifier.MarkRead(req.Context(), mux.Vars(req)["id"])
	if err != nil {
		h.fail(w, "MarkReadHandler", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Выгрузка всех коллекций
func (h *StampsHandler) SnapshotHandler(w http.ResponseWriter, req *http.Request) {
	snapshot, err := h.snapshot.Snapshot(req.Context())
	if err != nil {
		h.fail(w, "SnapshotHandler", err)
		return
	}
	h.reply(w, "SnapshotHandler", http.StatusOK, snapshot)
}
