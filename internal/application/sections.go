package application

import (
	"fmt"
	"strings"
	"time"
)

// SectionPath resolves the panel path a notification should open. The
// explicit object tag wins; untagged notifications fall back to keyword
// matching on the notification kind, then to the role dashboard root.
func SectionPath(n Notification, isAdmin bool) string {
	base := "/resident"
	if isAdmin {
		base = "/admin"
	}

	switch n.Target {
	case TargetFine:
		return base + "/multas"
	case TargetCommonExpense:
		return base + "/gastocomun"
	case TargetUser:
		if isAdmin {
			return base + "/residentes"
		}
		return base + "/profile"
	case TargetConfig:
		return base + "/configuracion"
	}

	kind := strings.ToLower(n.Kind)
	switch {
	case strings.Contains(kind, "multa"):
		return base + "/multas"
	case strings.Contains(kind, "gasto"):
		return base + "/gastocomun"
	case strings.Contains(kind, "usuario"):
		if isAdmin {
			return base + "/residentes"
		}
		return base + "/profile"
	case strings.Contains(kind, "configuracion"):
		return base + "/configuracion"
	}

	return base
}

// RelativeAge renders a notification timestamp the way the backend labels
// them: minutes and hours for recent events, day counts up to a week, then
// an absolute date.
func RelativeAge(createdAt, now time.Time) string {
	elapsed := now.Sub(createdAt)
	switch {
	case elapsed < time.Minute:
		return "Hace un momento"
	case elapsed < time.Hour:
		minutes := int(elapsed.Minutes())
		if minutes == 1 {
			return "Hace 1 minuto"
		}
		return fmt.Sprintf("Hace %d minutos", minutes)
	case elapsed < 24*time.Hour:
		hours := int(elapsed.Hours())
		if hours == 1 {
			return "Hace 1 hora"
		}
		return fmt.Sprintf("Hace %d horas", hours)
	case elapsed < 7*24*time.Hour:
		days := int(elapsed.Hours() / 24)
		if days == 1 {
			return "Hace 1 día"
		}
		return fmt.Sprintf("Hace %d días", days)
	default:
		return createdAt.Format("02/01/2006")
	}
}
