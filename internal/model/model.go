// Package model содержит доменные сущности сервиса StarQuest.
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Parent представляет родителя, управляющего семьёй.
type Parent struct {
	ID           uuid.UUID
	FamilyID     uuid.UUID
	Email        string
	Name         string
	Locale       string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Поддерживаемые локали интерфейса.
const (
	LocaleEN   = "en"
	LocaleZhCN = "zh-CN"
)

// ChildBalance содержит звёздный баланс ребёнка и параметры кредита.
// CurrentStars может быть отрицательным, это означает долг.
type ChildBalance struct {
	ChildID         uuid.UUID `json:"child_id"`
	Name            string    `json:"name"`
	CurrentStars    int64     `json:"current_stars"`
	LifetimeStars   int64     `json:"lifetime_stars"`
	CreditEnabled   bool      `json:"credit_enabled"`
	CreditLimit     int64     `json:"credit_limit"`
	CreditUsed      int64     `json:"credit_used"`
	AvailableCredit int64     `json:"available_credit"`
	SpendableStars  int64     `json:"spendable_stars"`
}

// CreditInterestTier описывает одну ступень процентной ставки по долгу.
// MaxDebt == nil означает ступень без верхней границы.
type CreditInterestTier struct {
	TierOrder    int             `json:"tier_order"`
	MinDebt      int64           `json:"min_debt"`
	MaxDebt      *int64          `json:"max_debt"`
	InterestRate decimal.Decimal `json:"interest_rate"`
}

// ReviewStatus описывает статус проверки записи родителем.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Activity описывает запись о выполненном задании, ожидающую подтверждения.
type Activity struct {
	ID             string       `json:"id"`
	ChildID        uuid.UUID    `json:"child_id"`
	QuestTitle     string       `json:"quest_title"`
	Stars          int64        `json:"stars"`
	Status         ReviewStatus `json:"status"`
	ChildNote      *string      `json:"child_note,omitempty"`
	ParentResponse *string      `json:"parent_response,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Redemption описывает запрос ребёнка на обмен звёзд на награду.
type Redemption struct {
	ID             string       `json:"id"`
	ChildID        uuid.UUID    `json:"child_id"`
	RewardName     string       `json:"reward_name"`
	StarsSpent     int64        `json:"stars_spent"`
	Status         ReviewStatus `json:"status"`
	ChildNote      *string      `json:"child_note,omitempty"`
	ParentResponse *string      `json:"parent_response,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}
