package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/starquest/internal/batch"
	"github.com/mmeshcher/starquest/internal/model"
	"github.com/mmeshcher/starquest/internal/repository"
	"github.com/mmeshcher/starquest/internal/review"
	"github.com/mmeshcher/starquest/internal/selection"
)

// Action описывает решение родителя по выбранным записям.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// familyStore ограничивает пакетное обновление записями одной семьи.
type familyStore struct {
	repo     Repository
	familyID uuid.UUID
}

func (f familyStore) UpdateByIDs(ctx context.Context, table string, ids []string, fields map[string]any) error {
	return f.repo.UpdateByIDs(ctx, table, f.familyID, ids, fields)
}

// ListPendingActivities возвращает записи о заданиях, ожидающие проверки.
func (s *Service) ListPendingActivities(ctx context.Context, familyID uuid.UUID) ([]model.Activity, error) {
	return s.repo.ListPendingActivities(ctx, familyID)
}

// ListPendingRedemptions возвращает запросы на награды, ожидающие проверки.
func (s *Service) ListPendingRedemptions(ctx context.Context, familyID uuid.UUID) ([]model.Redemption, error) {
	return s.repo.ListPendingRedemptions(ctx, familyID)
}

// ReviewActivities подтверждает или отклоняет записи о заданиях и возвращает обновлённый список ожидающих.
// Пустая причина отклонения сохраняется как NULL.
func (s *Service) ReviewActivities(ctx context.Context, reviewer *model.Parent, action Action, reason string, ids []string) ([]model.Activity, error) {
	payload, err := s.buildPayload(reviewer, action, reason)
	if err != nil {
		return nil, err
	}
	return reviewBatch(ctx, s, reviewer.FamilyID, repository.TableStarTransactions, payload, ids, s.repo.ListPendingActivities)
}

// ReviewRedemptions подтверждает или отклоняет запросы на награды и возвращает обновлённый список ожидающих.
// Отклонение без причины ничего не меняет.
func (s *Service) ReviewRedemptions(ctx context.Context, reviewer *model.Parent, action Action, reason string, ids []string) ([]model.Redemption, error) {
	payload, err := s.buildPayload(reviewer, action, reason)
	if err != nil {
		return nil, err
	}
	if action == ActionReject && strings.TrimSpace(reason) == "" {
		ids = nil
	}
	return reviewBatch(ctx, s, reviewer.FamilyID, repository.TableRedemptions, payload, ids, s.repo.ListPendingRedemptions)
}

func (s *Service) buildPayload(reviewer *model.Parent, action Action, reason string) (review.Payload, error) {
	switch action {
	case ActionApprove:
		return review.BuildApprovalPayload(reviewer.ID.String(), s.now()), nil
	case ActionReject:
		return review.BuildRejectionPayload(reason, reviewer.ID.String(), s.now()), nil
	default:
		return nil, ErrInvalidAction
	}
}

// reviewBatch выполняет пакетную операцию и возвращает список, перечитанный после успешного изменения.
// Если операция ничего не сделала, список читается заново.
// Если изменение применено, но список перечитать не удалось, возвращается ErrRefreshFailed.
func reviewBatch[T any](
	ctx context.Context,
	s *Service,
	familyID uuid.UUID,
	table string,
	payload review.Payload,
	ids []string,
	list func(ctx context.Context, familyID uuid.UUID) ([]T, error),
) ([]T, error) {
	sel := selection.New()
	sel.SelectAll(ids)

	var (
		refreshed  []T
		refreshErr error
		didRefresh bool
	)

	err := s.orchestrator.HandleBatchOperation(ctx, batch.Operation{
		Store:     familyStore{repo: s.repo, familyID: familyID},
		Selection: sel,
		Table:     table,
		Payload:   payload,
		Refresher: batch.RefreshFunc(func(ctx context.Context) {
			refreshed, refreshErr = list(ctx, familyID)
			didRefresh = true
		}),
	})
	if err != nil {
		return nil, err
	}

	if !didRefresh {
		return list(ctx, familyID)
	}
	if refreshErr != nil {
		s.logger.Warn("reload pending list after batch update error",
			zap.Error(refreshErr), zap.String("table", table), zap.String("familyID", familyID.String()))
		return nil, fmt.Errorf("%w: %w", ErrRefreshFailed, refreshErr)
	}
	return refreshed, nil
}
