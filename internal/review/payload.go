// Package review формирует изменения статуса для подтверждения и отклонения записей.
package review

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/mmeshcher/starquest/internal/model"
)

// Поля, которые пакетная операция записывает в хранилище.
const (
	FieldStatus         = "status"
	FieldReviewedAt     = "reviewed_at"
	FieldReviewedBy     = "reviewed_by"
	FieldParentResponse = "parent_response"
)

var now = time.Now

// Payload описывает изменение статуса записи. Реализуется только Approval и Rejection.
type Payload interface {
	Status() model.ReviewStatus
	// Fields возвращает значения колонок для обновления. Отсутствующий ключ означает, что колонка не меняется.
	Fields() map[string]any
	isPayload()
}

// Approval подтверждает записи. ReviewedBy == nil означает, что поле reviewed_by не трогается.
type Approval struct {
	ReviewedBy *string
	ReviewedAt time.Time
}

// Rejection отклоняет записи. ParentResponse всегда записывается, nil сохраняется как NULL.
type Rejection struct {
	ReviewedBy     *string
	ReviewedAt     time.Time
	ParentResponse *string
}

// BuildApprovalPayload собирает подтверждение. Пустой reviewedBy не попадает в поля,
// нулевое reviewedAt заменяется текущим временем.
func BuildApprovalPayload(reviewedBy string, reviewedAt time.Time) Approval {
	return Approval{
		ReviewedBy: optional(reviewedBy),
		ReviewedAt: stamp(reviewedAt),
	}
}

// BuildRejectionPayload собирает отклонение. Причина обрезается по пробелам, пустая причина становится NULL.
func BuildRejectionPayload(reason, reviewedBy string, reviewedAt time.Time) Rejection {
	return Rejection{
		ReviewedBy:     optional(reviewedBy),
		ReviewedAt:     stamp(reviewedAt),
		ParentResponse: optional(strings.TrimSpace(reason)),
	}
}

func (Approval) Status() model.ReviewStatus { return model.ReviewStatusApproved }

func (a Approval) Fields() map[string]any {
	f := map[string]any{
		FieldStatus:     string(model.ReviewStatusApproved),
		FieldReviewedAt: a.ReviewedAt,
	}
	if a.ReviewedBy != nil {
		f[FieldReviewedBy] = *a.ReviewedBy
	}
	return f
}

func (a Approval) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Fields())
}

func (Approval) isPayload() {}

func (Rejection) Status() model.ReviewStatus { return model.ReviewStatusRejected }

func (r Rejection) Fields() map[string]any {
	f := map[string]any{
		FieldStatus:     string(model.ReviewStatusRejected),
		FieldReviewedAt: r.ReviewedAt,
	}
	if r.ReviewedBy != nil {
		f[FieldReviewedBy] = *r.ReviewedBy
	}
	if r.ParentResponse != nil {
		f[FieldParentResponse] = *r.ParentResponse
	} else {
		f[FieldParentResponse] = nil
	}
	return f
}

func (r Rejection) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Fields())
}

func (Rejection) isPayload() {}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return now().UTC()
	}
	return t.UTC()
}
