// Package batch применяет одно изменение статуса ко всем выбранным записям за одно обращение к хранилищу.
package batch

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/starquest/internal/metrics"
	"github.com/mmeshcher/starquest/internal/review"
)

// DefaultTimeout ограничивает обращение к хранилищу, если таймаут не задан.
const DefaultTimeout = 10 * time.Second

// ErrNoPayload возвращается, если для непустого выбора не задано изменение.
var ErrNoPayload = errors.New("batch payload is not set")

// Store описывает хранилище, умеющее обновить все строки таблицы с id из списка одним запросом.
type Store interface {
	UpdateByIDs(ctx context.Context, table string, ids []string, fields map[string]any) error
}

// Refresher перечитывает данные текущего представления после успешного изменения.
type Refresher interface {
	Refresh(ctx context.Context)
}

// RefreshFunc позволяет использовать функцию как Refresher.
type RefreshFunc func(ctx context.Context)

// Refresh вызывает f(ctx).
func (f RefreshFunc) Refresh(ctx context.Context) {
	f(ctx)
}

// Selection описывает состояние выбора, которым управляет пакетная операция.
type Selection interface {
	Len() int
	SelectedIDs() []string
	ExitSelectionMode()
	SetBatchProcessing(on bool)
}

// Operation описывает одну пакетную операцию.
type Operation struct {
	Store     Store
	Selection Selection
	Refresher Refresher
	Table     string
	Payload   review.Payload
	OnError   func(err error)
	OnSuccess func()
}

// Orchestrator выполняет пакетные операции. Защиты от параллельного запуска нет,
// вызывающая сторона не должна запускать операцию, пока IsBatchProcessing истинно.
type Orchestrator struct {
	logger  *zap.Logger
	timeout time.Duration
}

// NewOrchestrator создаёт оркестратор. Неположительный timeout заменяется DefaultTimeout.
func NewOrchestrator(logger *zap.Logger, timeout time.Duration) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Orchestrator{
		logger:  logger,
		timeout: timeout,
	}
}

// ExecuteBatchUpdate выполняет ровно одно обновление всех строк table с id из ids.
// Ошибка хранилища возвращается без изменений, повторов нет.
func ExecuteBatchUpdate(ctx context.Context, store Store, table string, ids []string, payload review.Payload) error {
	return store.UpdateByIDs(ctx, table, ids, payload.Fields())
}

// HandleBatchOperation применяет op.Payload к выбранным записям.
// Пустой выбор ничего не делает. При ошибке вызывается OnError, выбор сохраняется.
// При успехе вызывается OnSuccess, выбор очищается с выходом из режима выбора, затем один раз вызывается Refresh.
// Признак обработки сбрасывается в любом случае, в том числе при панике в колбэке.
func (o *Orchestrator) HandleBatchOperation(ctx context.Context, op Operation) error {
	if op.Selection.Len() == 0 {
		metrics.BatchOperations.WithLabelValues(op.Table, statusOf(op.Payload), metrics.OutcomeSkipped).Inc()
		return nil
	}

	op.Selection.SetBatchProcessing(true)
	defer op.Selection.SetBatchProcessing(false)

	ids := op.Selection.SelectedIDs()

	if op.Payload == nil {
		return ErrNoPayload
	}
	status := string(op.Payload.Status())

	updateCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	err := ExecuteBatchUpdate(updateCtx, op.Store, op.Table, ids, op.Payload)
	metrics.BatchDuration.WithLabelValues(op.Table).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.BatchOperations.WithLabelValues(op.Table, status, metrics.OutcomeError).Inc()
		o.logger.Error("batch update error",
			zap.Error(err),
			zap.String("table", op.Table),
			zap.String("status", status),
			zap.Int("rows", len(ids)),
		)
		if op.OnError != nil {
			op.OnError(err)
		}
		return err
	}

	metrics.BatchOperations.WithLabelValues(op.Table, status, metrics.OutcomeSuccess).Inc()
	metrics.BatchRows.WithLabelValues(op.Table, status).Add(float64(len(ids)))
	o.logger.Info("batch update applied",
		zap.String("table", op.Table),
		zap.String("status", status),
		zap.Int("rows", len(ids)),
	)

	if op.OnSuccess != nil {
		op.OnSuccess()
	}
	op.Selection.ExitSelectionMode()
	if op.Refresher != nil {
		op.Refresher.Refresh(ctx)
	}

	return nil
}

func statusOf(p review.Payload) string {
	if p == nil {
		return "none"
	}
	return string(p.Status())
}
