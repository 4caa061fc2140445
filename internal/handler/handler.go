// Package handler содержит HTTP-обработчики API сервиса StarQuest.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/starquest/internal/credit"
	"github.com/mmeshcher/starquest/internal/middleware"
	"github.com/mmeshcher/starquest/internal/model"
	"github.com/mmeshcher/starquest/internal/repository"
	"github.com/mmeshcher/starquest/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterParent(ctx context.Context, email, password, name, familyName, locale string) (*model.Parent, error)
	AuthenticateParent(ctx context.Context, email, password string) (uuid.UUID, error)
	GetParent(ctx context.Context, id uuid.UUID) (*model.Parent, error)
	GetChildBalance(ctx context.Context, familyID, childID uuid.UUID) (*service.BalanceReport, error)
	GetInterestTiers(ctx context.Context, familyID uuid.UUID) ([]model.CreditInterestTier, error)
	RunMonthlySettlement(ctx context.Context) error
	ListPendingActivities(ctx context.Context, familyID uuid.UUID) ([]model.Activity, error)
	ListPendingRedemptions(ctx context.Context, familyID uuid.UUID) ([]model.Redemption, error)
	ReviewActivities(ctx context.Context, reviewer *model.Parent, action service.Action, reason string, ids []string) ([]model.Activity, error)
	ReviewRedemptions(ctx context.Context, reviewer *model.Parent, action service.Action, reason string, ids []string) ([]model.Redemption, error)
	SaveDemoSnapshot(ctx context.Context, familyID uuid.UUID) error
	RestoreDemoData(ctx context.Context, familyID uuid.UUID) error
	DeleteChild(ctx context.Context, familyID, childID uuid.UUID) error
	InviteFamilyMember(ctx context.Context, inviter *model.Parent, email, locale string) (*service.Invite, error)
}

// Handler реализует HTTP-обработчики API сервиса StarQuest.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	allowedOrigins []string
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware, allowedOrigins []string) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
		allowedOrigins: allowedOrigins,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int) {
	http.Error(w, http.StatusText(status), status)
}

// currentParent возвращает профиль родителя, выполнившего запрос.
func (h *Handler) currentParent(w http.ResponseWriter, r *http.Request) (*model.Parent, bool) {
	parentID, ok := middleware.GetParentIDFromContext(r.Context())
	if !ok {
		httpError(w, http.StatusUnauthorized)
		return nil, false
	}

	p, err := h.service.GetParent(r.Context(), parentID)
	if err != nil {
		if errors.Is(err, repository.ErrParentNotFound) {
			httpError(w, http.StatusUnauthorized)
			return nil, false
		}
		h.logger.Error("get parent error", zap.Error(err), zap.String("parentID", parentID.String()))
		httpError(w, http.StatusInternalServerError)
		return nil, false
	}

	return p, true
}

type registerRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	FamilyName string `json:"family_name"`
	Locale     string `json:"locale"`
}

// Register регистрирует родителя вместе с новой семьёй.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		httpError(w, http.StatusBadRequest)
		return
	}

	locale := req.Locale
	if locale == "" {
		locale = resolveLocale(r.Header.Get("Accept-Language"))
	}

	p, err := h.service.RegisterParent(r.Context(), req.Email, req.Password, req.Name, req.FamilyName, locale)
	if err != nil {
		if errors.Is(err, repository.ErrParentExists) {
			httpError(w, http.StatusConflict)
			return
		}
		h.logger.Error("register parent error", zap.Error(err))
		httpError(w, http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, p.ID)
	writeJSON(w, http.StatusOK, parentResponse{
		ID:       p.ID,
		FamilyID: p.FamilyID,
		Email:    p.Email,
		Name:     p.Name,
		Locale:   p.Locale,
	})
}

type parentResponse struct {
	ID       uuid.UUID `json:"id"`
	FamilyID uuid.UUID `json:"family_id"`
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Locale   string    `json:"locale"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login выполняет аутентификацию родителя и устанавливает cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		httpError(w, http.StatusBadRequest)
		return
	}

	parentID, err := h.service.AuthenticateParent(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpError(w, http.StatusUnauthorized)
			return
		}
		h.logger.Error("login parent error", zap.Error(err))
		httpError(w, http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, parentID)
	w.WriteHeader(http.StatusOK)
}

// GetChildBalance возвращает баланс ребёнка с доступным кредитом и текущей ступенью долга.
func (h *Handler) GetChildBalance(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentParent(w, r)
	if !ok {
		return
	}

	childID, err := uuid.Parse(chi.URLParam(r, "childID"))
	if err != nil {
		httpError(w, http.StatusBadRequest)
		return
	}

	report, err := h.service.GetChildBalance(r.Context(), p.FamilyID, childID)
	if err != nil {
		if errors.Is(err, repository.ErrChildNotFound) {
			httpError(w, http.StatusNotFound)
			return
		}
		h.logger.Error("get child balance error", zap.Error(err), zap.String("childID", childID.String()))
		httpError(w, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// DeleteChild удаляет ребёнка семьи вместе с его данными.
func (h *Handler) DeleteChild(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentParent(w, r)
	if !ok {
		return
	}

	childID, err := uuid.Parse(chi.URLParam(r, "childID"))
	if err != nil {
		httpError(w, http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteChild(r.Context(), p.FamilyID, childID); err != nil {
		if errors.Is(err, repository.ErrChildNotFound) {
			httpError(w, http.StatusNotFound)
			return
		}
		h.logger.Error("delete child error", zap.Error(err), zap.String("childID", childID.String()))
		httpError(w, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type tierResponse struct {
	TierOrder    int    `json:"tier_order"`
	MinDebt      int64  `json:"min_debt"`
	MaxDebt      *int64 `json:"max_debt"`
	InterestRate string `json:"interest_rate"`
	Range        string `json:"range"`
	Rate         string `json:"rate"`
}

// GetInterestTiers возвращает таблицу ступеней процентов семьи с готовыми к показу подписями.
func (h *Handler) GetInterestTiers(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentParent(w, r)
	if !ok {
		return
	}

	tiers, err := h.service.GetInterestTiers(r.Context(), p.FamilyID)
	if err != nil {
		h.logger.Error("get interest tiers error", zap.Error(err), zap.String("familyID", p.FamilyID.String()))
		httpError(w, http.StatusInternalServerError)
		return
	}

	resp := make([]tierResponse, 0, len(tiers))
	for _, t := range tiers {
		resp = append(resp, tierResponse{
			TierOrder:    t.TierOrder,
			MinDebt:      t.MinDebt,
			MaxDebt:      t.MaxDebt,
			InterestRate: t.InterestRate.String(),
			Range:        credit.FormatDebtRange(t.MinDebt, t.MaxDebt),
			Rate:         credit.FormatInterestRate(t.InterestRate),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// RunSettlement запускает ежемесячный расчёт процентов вне расписания.
func (h *Handler) RunSettlement(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentParent(w, r); !ok {
		return
	}

	if err := h.service.RunMonthlySettlement(r.Context()); err != nil {
		h.logger.Error("run settlement error", zap.Error(err))
		httpError(w, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetPendingActivities возвращает записи о заданиях, ожидающие проверки.
func (h *Handler) GetPendingActivities(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentParent(w, r)
	if !ok {
		return
	}

	activities, err := h.service.ListPendingActivities(r.Context(), p.FamilyID)
	if err != nil {
		h.logger.Error("list pending activities error", zap.Error(err), zap.String("familyID", p.FamilyID.String()))
		httpError(w, http.StatusInternalServerError)
		return
	}

	if len(activities) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, activities)
}

// GetPendingRedemptions возвращает запросы на награды, ожидающие проверки.
func (h *Handler) GetPendingRedemptions(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentParent(w, r)
	if !ok {
		return
	}

	redemptions, err := h.service.ListPendingRedemptions(r.Context(), p.FamilyID)
	if err != nil {
		h.logger.Error("list pending redemptions error", zap.Error(err), zap.String("familyID", p.FamilyID.String()))
		httpError(w, http.StatusInternalServerError)
		return
	}

	if len(redemptions) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, redemptions)
}

type reviewRequest struct {
	IDs    []string `json:"ids"`
	Action string   `json:"action"`
	Reason string   `json:"reason"`
}

func decodeReview(r *http.Request) (reviewRequest, bool) {
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, false
	}
	for _, id := range req.IDs {
		if _, err := uuid.Parse(id); err != nil {
			return req, false
		}
	}
	return req, true
}

func (h *Handler) reviewError(w http.ResponseWriter, err error, table string, p *model.Parent) {
	if errors.Is(err, service.ErrInvalidAction) {
		httpError(w, http.StatusBadRequest)
		return
	}
	if errors.Is(err, service.ErrRefreshFailed) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.logger.Error("batch review error", zap.Error(err),
		zap.String("table", table), zap.String("familyID", p.FamilyID.String()))
	httpError(w, http.StatusInternalServerError)
}

// ReviewActivities подтверждает или отклоняет выбранные записи о заданиях
// и возвращает обновлённый список ожидающих.
func (h *Handler) ReviewActivities(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentParent(w, r)
	if !ok {
		return
	}

	req, ok := decodeReview(r)
	if !ok {
		httpError(w, http.StatusBadRequest)
		return
	}

	activities, err := h.service.ReviewActivities(r.Context(), p, service.Action(req.Action), req.Reason, req.IDs)
	if err != nil {
		h.reviewError(w, err, repository.TableStarTransactions, p)
		return
	}

	if activities == nil {
		activities = []model.Activity{}
	}
	writeJSON(w, http.StatusOK, activities)
}

// ReviewRedemptions подтверждает или отклоняет выбранные запросы на награды
// и возвращает обновлённый список ожидающих.
func (h *Handler) ReviewRedemptions(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentParent(w, r)
	if !ok {
		return
	}

	req, ok := decodeReview(r)
	if !ok {
		httpError(w, http.StatusBadRequest)
		return
	}

	redemptions, err := h.service.ReviewRedemptions(r.Context(), p, service.Action(req.Action), req.Reason, req.IDs)
	if err != nil {
		h.reviewError(w, err, repository.TableRedemptions, p)
		return
	}

	if redemptions == nil {
		redemptions = []model.Redemption{}
	}
	writeJSON(w, http.StatusOK, redemptions)
}

type inviteRequest struct {
	Email string `json:"email"`
}

// InviteFamilyMember создаёт приглашение в семью и отправляет его по почте.
func (h *Handler) InviteFamilyMember(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentParent(w, r)
	if !ok {
		return
	}

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		httpError(w, http.StatusBadRequest)
		return
	}

	locale := p.Locale
	if locale == "" {
		locale = resolveLocale(r.Header.Get("Accept-Language"))
	}

	inv, err := h.service.InviteFamilyMember(r.Context(), p, req.Email, locale)
	if err != nil {
		h.logger.Error("create invite error", zap.Error(err), zap.String("familyID", p.FamilyID.String()))
		httpError(w, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, inv)
}

// SaveDemoSnapshot сохраняет снимок демо-данных семьи.
func (h *Handler) SaveDemoSnapshot(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentParent(w, r)
	if !ok {
		return
	}

	if err := h.service.SaveDemoSnapshot(r.Context(), p.FamilyID); err != nil {
		h.logger.Error("save demo snapshot error", zap.Error(err), zap.String("familyID", p.FamilyID.String()))
		httpError(w, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RestoreDemoData восстанавливает демо-данные семьи из снимка.
func (h *Handler) RestoreDemoData(w http.ResponseWriter, r *http.Request) {
	p, ok := h.currentParent(w, r)
	if !ok {
		return
	}

	if err := h.service.RestoreDemoData(r.Context(), p.FamilyID); err != nil {
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			httpError(w, http.StatusNotFound)
			return
		}
		h.logger.Error("restore demo data error", zap.Error(err), zap.String("familyID", p.FamilyID.String()))
		httpError(w, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
