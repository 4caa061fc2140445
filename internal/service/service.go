// Package service реализует бизнес-логику сервиса StarQuest.
package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/starquest/internal/batch"
	"github.com/mmeshcher/starquest/internal/credit"
	"github.com/mmeshcher/starquest/internal/model"
	"github.com/mmeshcher/starquest/internal/notify"
	"github.com/mmeshcher/starquest/internal/repository"
)

var (
	// ErrInvalidCredentials возвращается при неверной паре e-mail и пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidAction возвращается для неизвестного действия проверки.
	ErrInvalidAction = errors.New("invalid review action")
	// ErrRefreshFailed возвращается, если пакетное изменение применено, но список перечитать не удалось.
	ErrRefreshFailed = errors.New("batch applied, pending list reload failed")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error
	CreateParent(ctx context.Context, familyName, email, name, locale string, passwordHash []byte) (*model.Parent, error)
	GetParentByEmail(ctx context.Context, email string) (*model.Parent, error)
	GetParent(ctx context.Context, id uuid.UUID) (*model.Parent, error)
	GetChildBalance(ctx context.Context, familyID, childID uuid.UUID) (*model.ChildBalance, error)
	ListInterestTiers(ctx context.Context, familyID uuid.UUID) ([]model.CreditInterestTier, error)
	ListPendingActivities(ctx context.Context, familyID uuid.UUID) ([]model.Activity, error)
	ListPendingRedemptions(ctx context.Context, familyID uuid.UUID) ([]model.Redemption, error)
	UpdateByIDs(ctx context.Context, table string, familyID uuid.UUID, ids []string, fields map[string]any) error
	RunMonthlySettlement(ctx context.Context) error
	SaveDemoSnapshot(ctx context.Context, familyID uuid.UUID) error
	RestoreDemoData(ctx context.Context, familyID uuid.UUID) error
	AdminDeleteChild(ctx context.Context, familyID, childID uuid.UUID) error
	CreateFamilyInvite(ctx context.Context, familyID uuid.UUID, email string) (string, error)
}

// Mailer отправляет письма.
type Mailer interface {
	Send(ctx context.Context, email notify.Email) (string, error)
}

// Options содержит настраиваемые параметры сервиса.
type Options struct {
	BatchTimeout       time.Duration
	SettlementInterval time.Duration
	AppBaseURL         string
}

// Service содержит бизнес-логику сервиса StarQuest.
type Service struct {
	repo         Repository
	mailer       Mailer
	logger       *zap.Logger
	orchestrator *batch.Orchestrator
	opts         Options
	now          func() time.Time

	lastSettled string
}

// NewService создаёт новый сервис с указанным репозиторием и почтовым клиентом.
func NewService(repo Repository, mailer Mailer, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:         repo,
		mailer:       mailer,
		logger:       logger,
		orchestrator: batch.NewOrchestrator(logger, opts.BatchTimeout),
		opts:         opts,
		now:          time.Now,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterParent регистрирует родителя вместе с новой семьёй.
func (s *Service) RegisterParent(ctx context.Context, email, password, name, familyName, locale string) (*model.Parent, error) {
	email = normalizeEmail(email)
	if familyName == "" {
		familyName = name
	}
	if locale != model.LocaleZhCN {
		locale = model.LocaleEN
	}

	p, err := s.repo.CreateParent(ctx, familyName, email, name, locale, hashPassword(email, password))
	if err != nil {
		if errors.Is(err, repository.ErrParentExists) {
			return nil, repository.ErrParentExists
		}
		return nil, err
	}
	return p, nil
}

// AuthenticateParent проверяет e-mail и пароль родителя и возвращает его идентификатор.
func (s *Service) AuthenticateParent(ctx context.Context, email, password string) (uuid.UUID, error) {
	email = normalizeEmail(email)

	p, err := s.repo.GetParentByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrParentNotFound) {
			return uuid.Nil, ErrInvalidCredentials
		}
		return uuid.Nil, err
	}

	if subtle.ConstantTimeCompare(hashPassword(email, password), p.PasswordHash) != 1 {
		return uuid.Nil, ErrInvalidCredentials
	}

	return p.ID, nil
}

// GetParent возвращает профиль родителя.
func (s *Service) GetParent(ctx context.Context, id uuid.UUID) (*model.Parent, error) {
	return s.repo.GetParent(ctx, id)
}

func hashPassword(email, password string) []byte {
	sum := sha256.Sum256([]byte(email + ":" + password))
	return sum[:]
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// BalanceReport содержит баланс ребёнка с производными полями и текущую ступень долга.
type BalanceReport struct {
	model.ChildBalance
	CurrentTier *model.CreditInterestTier `json:"current_tier,omitempty"`
}

// GetChildBalance возвращает баланс ребёнка, пересчитанный по правилам кредита.
func (s *Service) GetChildBalance(ctx context.Context, familyID, childID uuid.UUID) (*BalanceReport, error) {
	raw, err := s.repo.GetChildBalance(ctx, familyID, childID)
	if err != nil {
		return nil, err
	}

	report := &BalanceReport{ChildBalance: credit.Summarize(*raw)}
	if report.CreditUsed == 0 {
		return report, nil
	}

	tiers, err := s.GetInterestTiers(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if tier, ok := credit.TierFor(tiers, report.CreditUsed); ok {
		report.CurrentTier = &tier
	}

	return report, nil
}

// GetInterestTiers возвращает таблицу ступеней семьи. Если таблицы нет или она некорректна,
// возвращается стартовая таблица.
func (s *Service) GetInterestTiers(ctx context.Context, familyID uuid.UUID) ([]model.CreditInterestTier, error) {
	tiers, err := s.repo.ListInterestTiers(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if len(tiers) == 0 {
		return credit.DefaultTiers(), nil
	}
	if err := credit.ValidateTiers(tiers); err != nil {
		s.logger.Warn("stored interest tiers are invalid, using defaults",
			zap.Error(err), zap.String("familyID", familyID.String()))
		return credit.DefaultTiers(), nil
	}
	return tiers, nil
}

// RunMonthlySettlement запускает ежемесячный расчёт процентов.
func (s *Service) RunMonthlySettlement(ctx context.Context) error {
	return s.repo.RunMonthlySettlement(ctx)
}

// SaveDemoSnapshot сохраняет снимок демо-данных семьи.
func (s *Service) SaveDemoSnapshot(ctx context.Context, familyID uuid.UUID) error {
	return s.repo.SaveDemoSnapshot(ctx, familyID)
}

// RestoreDemoData восстанавливает демо-данные семьи.
func (s *Service) RestoreDemoData(ctx context.Context, familyID uuid.UUID) error {
	return s.repo.RestoreDemoData(ctx, familyID)
}

// DeleteChild удаляет ребёнка семьи.
func (s *Service) DeleteChild(ctx context.Context, familyID, childID uuid.UUID) error {
	return s.repo.AdminDeleteChild(ctx, familyID, childID)
}

// Invite описывает созданное приглашение в семью.
type Invite struct {
	Code    string `json:"code"`
	Link    string `json:"link"`
	Emailed bool   `json:"emailed"`
}

// InviteFamilyMember создаёт приглашение и отправляет его по почте на языке locale.
// Ошибка отправки письма не отменяет приглашение.
func (s *Service) InviteFamilyMember(ctx context.Context, inviter *model.Parent, email, locale string) (*Invite, error) {
	email = normalizeEmail(email)

	code, err := s.repo.CreateFamilyInvite(ctx, inviter.FamilyID, email)
	if err != nil {
		return nil, err
	}

	inv := &Invite{
		Code: code,
		Link: fmt.Sprintf("%s/invite/%s", strings.TrimRight(s.opts.AppBaseURL, "/"), code),
	}

	if s.mailer == nil {
		return inv, nil
	}

	name := inviter.Name
	if name == "" {
		name = inviter.Email
	}

	_, err = s.mailer.Send(ctx, notify.InviteEmail(locale, email, name, inv.Link))
	switch {
	case err == nil:
		inv.Emailed = true
	case errors.Is(err, notify.ErrNotConfigured):
		s.logger.Debug("mailer disabled, invite not emailed")
	default:
		s.logger.Error("send invite email error", zap.Error(err), zap.String("familyID", inviter.FamilyID.String()))
	}

	return inv, nil
}
