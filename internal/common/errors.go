// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях ядра.
// Эти ошибки позволяют вызывающему коду различать типы проблем
// и принимать решение: показать пользователю, повторить или остановиться.
package common

import "errors"

// Ошибки леджера (балансы, цепочка хешей)
var (
	// ErrInsufficientFunds — списание превышает текущий баланс
	ErrInsufficientFunds = errors.New("недостаточно средств на счёте")
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrAccountFrozen — счёт заморожен после нарушения целостности цепочки,
	// списания запрещены до ручной проверки
	ErrAccountFrozen = errors.New("счёт заморожен до ручной проверки")
	// ErrChainIntegrity — пересчёт цепочки хешей не сошёлся с сохранёнными значениями
	ErrChainIntegrity = errors.New("нарушена целостность цепочки леджера")
)

// Ошибки аллокаций (дрип-движок)
var (
	// ErrAllocationNotFound — аллокация не найдена в базе
	ErrAllocationNotFound = errors.New("аллокация не найдена")
	// ErrAllocationClosed — аллокация уже закрыта (исчерпана или истекла)
	ErrAllocationClosed = errors.New("аллокация уже закрыта")
)

// Ошибки тарифов и выводов
var (
	// ErrUnknownTier — тариф отсутствует в каталоге
	ErrUnknownTier = errors.New("неизвестный тариф")
	// ErrUnknownCurrency — валюта не поддерживается ядром
	ErrUnknownCurrency = errors.New("неизвестная валюта")
	// ErrNothingToBatch — нет ожидающих выводов для формирования батча
	ErrNothingToBatch = errors.New("нет ожидающих выводов")
)
