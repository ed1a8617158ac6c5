package app

import (
	"nodeflow/internal/service"
)

// ============================================================
// Settings
// ============================================================

func (a *App) GetStyle() service.Style {
	return a.settings.Style()
}

func (a *App) SetDarkMode(isDark bool) (service.Style, error) {
	return a.settings.SetDark(isDark)
}

func (a *App) ShowMinimap() bool {
	return a.settings.ShowMinimap()
}

func (a *App) SetShowMinimap(show bool) error {
	return a.settings.SetShowMinimap(show)
}
