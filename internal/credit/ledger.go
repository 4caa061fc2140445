// Package credit содержит расчёты кредитного баланса и таблицу процентных ступеней.
package credit

import "github.com/mmeshcher/starquest/internal/model"

// GetCreditUsed возвращает размер использованного кредита: модуль отрицательного баланса или 0.
func GetCreditUsed(balance int64) int64 {
	if balance >= 0 {
		return 0
	}
	return -balance
}

// GetAvailableCredit возвращает остаток кредитного лимита. Результат лежит в [0, creditLimit].
func GetAvailableCredit(balance, creditLimit int64, creditEnabled bool) int64 {
	if !creditEnabled {
		return 0
	}
	return max(creditLimit-GetCreditUsed(balance), 0)
}

// CalculateTotalSpendable возвращает количество звёзд, доступных для трат.
// Долг не вычитается: отрицательный баланс даёт 0, а доступный кредит добавляется отдельно.
func CalculateTotalSpendable(balance int64, creditEnabled bool, availableCredit int64) int64 {
	own := max(balance, 0)
	if !creditEnabled {
		return own
	}
	return own + availableCredit
}

// Summarize заполняет производные поля баланса по сырым данным хранилища.
// SpendableStars пересчитывается, даже если хранилище вернуло готовое значение.
func Summarize(b model.ChildBalance) model.ChildBalance {
	b.CreditUsed = GetCreditUsed(b.CurrentStars)
	b.AvailableCredit = GetAvailableCredit(b.CurrentStars, b.CreditLimit, b.CreditEnabled)
	b.SpendableStars = CalculateTotalSpendable(b.CurrentStars, b.CreditEnabled, b.AvailableCredit)
	return b
}
