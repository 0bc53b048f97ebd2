// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: работа с календарными датами, форматирование длительностей,
// ключи месяца для джекпот-хранилища.
package common

import (
	"fmt"
	"time"
)

// DateKey возвращает дату без времени в заданном часовом поясе.
// Используется как идемпотентный ключ дрип-цикла: одна аллокация —
// максимум один дрип на календарный день.
func DateKey(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// MonthKey возвращает ключ месяца в формате "2006-01".
// По этому ключу накапливается месячное джекпот-хранилище тарифа.
func MonthKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01")
}

// SameDay проверяет, что два момента времени попадают на один
// календарный день в заданном часовом поясе.
func SameDay(a, b time.Time, loc *time.Location) bool {
	a, b = a.In(loc), b.In(loc)
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// FormatDuration форматирует длительность в строку вида "1h 23m 45s".
// Нулевые старшие разряды опускаются: 95 секунд → "1m 35s".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04".
// Используется в логах и операторских уведомлениях.
func FormatDateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02.01.2006 15:04")
}
