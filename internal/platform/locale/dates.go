// Package locale renders dates the way the Spanish-language dashboard
// shows them. Values that cannot be parsed are returned unchanged.
package locale

import (
	"fmt"
	"strings"
	"time"
)

var months = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Parse accepts the ISO date and datetime forms the backends emit. Times
// carrying a zone are converted to UTC.
func Parse(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// LongDate formats raw as "15 de abril de 2025".
func LongDate(raw string) string {
	t, ok := Parse(raw)
	if !ok {
		return raw
	}
	return fmt.Sprintf("%d de %s de %d", t.Day(), months[t.Month()-1], t.Year())
}

// ShortDate formats raw as "23/04/1985".
func ShortDate(raw string) string {
	t, ok := Parse(raw)
	if !ok {
		return raw
	}
	return t.Format("02/01/2006")
}
