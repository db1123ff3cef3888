package sheetsync

import (
	"strconv"
	"strings"
)

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName converts a carga's month field, a 1-12 number or a month name in
// any casing, into the capitalized Spanish form the spreadsheet rows carry.
// Unrecognized input passes through unchanged so row matching still compares
// like against like.
func MonthName(mes string) string {
	trimmed := strings.TrimSpace(mes)
	if trimmed == "" {
		return ""
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		if n >= 1 && n <= 12 {
			return monthNames[n-1]
		}
		return trimmed
	}
	lower := strings.ToLower(trimmed)
	for _, name := range monthNames {
		if strings.ToLower(name) == lower {
			return name
		}
	}
	return trimmed
}
