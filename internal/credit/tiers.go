package credit

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/starquest/internal/model"
)

// ErrInvalidTiers возвращается, если ступени не разбивают диапазон долга [0, ∞) без пропусков и пересечений.
var ErrInvalidTiers = errors.New("invalid interest tiers")

var hundred = decimal.NewFromInt(100)

// FormatInterestRate форматирует долю как процент: 0.05 -> "5%".
func FormatInterestRate(rate decimal.Decimal) string {
	return rate.Mul(hundred).Round(0).String() + "%"
}

// FormatDebtRange форматирует диапазон долга ступени: "0-19" или "50+" для ступени без верхней границы.
func FormatDebtRange(minDebt int64, maxDebt *int64) string {
	if maxDebt == nil {
		return strconv.FormatInt(minDebt, 10) + "+"
	}
	return strconv.FormatInt(minDebt, 10) + "-" + strconv.FormatInt(*maxDebt, 10)
}

// DefaultTiers возвращает стартовую таблицу ступеней. Действующая таблица хранится в БД и может отличаться у каждой семьи.
func DefaultTiers() []model.CreditInterestTier {
	return []model.CreditInterestTier{
		{TierOrder: 1, MinDebt: 0, MaxDebt: ptr(19), InterestRate: decimal.RequireFromString("0.05")},
		{TierOrder: 2, MinDebt: 20, MaxDebt: ptr(49), InterestRate: decimal.RequireFromString("0.10")},
		{TierOrder: 3, MinDebt: 50, MaxDebt: nil, InterestRate: decimal.RequireFromString("0.15")},
	}
}

// ValidateTiers проверяет, что ступени упорядочены по tier_order начиная с 1, покрывают [0, ∞)
// без пропусков, имеют строго возрастающие ставки и единственную последнюю ступень без верхней границы.
func ValidateTiers(tiers []model.CreditInterestTier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("%w: empty table", ErrInvalidTiers)
	}

	var next int64
	for i, t := range tiers {
		if t.TierOrder != i+1 {
			return fmt.Errorf("%w: tier %d has order %d", ErrInvalidTiers, i+1, t.TierOrder)
		}
		if t.MinDebt != next {
			return fmt.Errorf("%w: tier %d starts at %d, want %d", ErrInvalidTiers, t.TierOrder, t.MinDebt, next)
		}
		if i > 0 && !t.InterestRate.GreaterThan(tiers[i-1].InterestRate) {
			return fmt.Errorf("%w: tier %d rate does not increase", ErrInvalidTiers, t.TierOrder)
		}

		last := i == len(tiers)-1
		if t.MaxDebt == nil {
			if !last {
				return fmt.Errorf("%w: unbounded tier %d is not last", ErrInvalidTiers, t.TierOrder)
			}
			continue
		}
		if last {
			return fmt.Errorf("%w: last tier %d is bounded", ErrInvalidTiers, t.TierOrder)
		}
		if *t.MaxDebt < t.MinDebt {
			return fmt.Errorf("%w: tier %d max below min", ErrInvalidTiers, t.TierOrder)
		}
		next = *t.MaxDebt + 1
	}

	return nil
}

// TierFor возвращает ступень, в которую попадает долг, или false, если такой нет.
func TierFor(tiers []model.CreditInterestTier, debt int64) (model.CreditInterestTier, bool) {
	for _, t := range tiers {
		if debt < t.MinDebt {
			continue
		}
		if t.MaxDebt == nil || debt <= *t.MaxDebt {
			return t, true
		}
	}
	return model.CreditInterestTier{}, false
}

func ptr(v int64) *int64 {
	return &v
}
