package service

import (
	"context"
	"strconv"

	"nodeflow/internal/canvas"
	"nodeflow/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Settings — window size, theme and minimap toggle
// ─────────────────────────────────────────────────────────────
//
// Stored as key/value rows in app_settings. None of this reaches the
// canvas engine; the theme is handed to renderers as a Style value.

// WindowSize holds the saved window dimensions.
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Style is the styling context given to the rendering layer.
type Style struct {
	IsDark       bool     `json:"isDark"`
	Background   string   `json:"background"`
	Grid         string   `json:"grid"`
	Edge         string   `json:"edge"`
	EdgeSelected string   `json:"edgeSelected"`
	GroupPalette []string `json:"groupPalette"`
}

// StyleFor returns the style for a theme.
func StyleFor(isDark bool) Style {
	st := Style{
		IsDark:       false,
		Background:   "#f4f4f5",
		Grid:         "#d4d4d8",
		Edge:         "#a1a1aa",
		EdgeSelected: "#3b82f6",
	}
	if isDark {
		st = Style{
			IsDark:       true,
			Background:   "#09090b",
			Grid:         "#27272a",
			Edge:         "#52525b",
			EdgeSelected: "#22d3ee",
		}
	}
	st.GroupPalette = append([]string(nil), canvas.GroupPalette...)
	return st
}

// SettingsService persists UI preferences between sessions.
type SettingsService struct {
	store   *storage.SettingsStore
	emitter EventEmitter
	ctx     context.Context
}

// NewSettingsService creates a SettingsService. store may be nil, in which
// case defaults are returned and nothing is saved.
func NewSettingsService(store *storage.SettingsStore, emitter EventEmitter) *SettingsService {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	return &SettingsService{store: store, emitter: emitter, ctx: context.Background()}
}

// SetContext sets the context passed to the emitter.
func (s *SettingsService) SetContext(ctx context.Context) { s.ctx = ctx }

const (
	settingWindowWidth  = "window_width"
	settingWindowHeight = "window_height"
	settingDarkMode     = "dark_mode"
	settingShowMinimap  = "show_minimap"
	settingLastWorkflow = "last_workflow"
	defaultWindowWidth  = 1440
	defaultWindowHeight = 900
)

// LoadWindowSize returns the saved window dimensions, or sensible defaults.
func (s *SettingsService) LoadWindowSize() WindowSize {
	w := s.intSetting(settingWindowWidth, defaultWindowWidth)
	h := s.intSetting(settingWindowHeight, defaultWindowHeight)
	if w < 800 {
		w = defaultWindowWidth
	}
	if h < 600 {
		h = defaultWindowHeight
	}
	return WindowSize{Width: w, Height: h}
}

// SaveWindowSize persists the current window dimensions.
func (s *SettingsService) SaveWindowSize(width, height int) error {
	if err := s.set(settingWindowWidth, strconv.Itoa(width)); err != nil {
		return err
	}
	return s.set(settingWindowHeight, strconv.Itoa(height))
}

// Style returns the current styling context.
func (s *SettingsService) Style() Style {
	return StyleFor(s.boolSetting(settingDarkMode, true))
}

// SetDark switches the theme.
func (s *SettingsService) SetDark(isDark bool) (Style, error) {
	if err := s.set(settingDarkMode, strconv.FormatBool(isDark)); err != nil {
		return Style{}, err
	}
	st := StyleFor(isDark)
	s.emitter.Emit(s.ctx, EventSettingsChanged, st)
	return st, nil
}

// ShowMinimap reports whether the minimap panel is visible.
func (s *SettingsService) ShowMinimap() bool {
	return s.boolSetting(settingShowMinimap, true)
}

// SetShowMinimap toggles the minimap panel.
func (s *SettingsService) SetShowMinimap(show bool) error {
	return s.set(settingShowMinimap, strconv.FormatBool(show))
}

// LastWorkflow returns the id of the workflow open at last shutdown.
func (s *SettingsService) LastWorkflow() string {
	if s.store == nil {
		return ""
	}
	v, _, _ := s.store.Get(settingLastWorkflow)
	return v
}

// SetLastWorkflow remembers the open workflow.
func (s *SettingsService) SetLastWorkflow(id string) error {
	return s.set(settingLastWorkflow, id)
}

func (s *SettingsService) set(key, value string) error {
	if s.store == nil {
		return nil
	}
	return s.store.Set(key, value)
}

func (s *SettingsService) intSetting(key string, def int) int {
	if s.store == nil {
		return def
	}
	v, ok, err := s.store.Get(key)
	if err != nil || !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (s *SettingsService) boolSetting(key string, def bool) bool {
	if s.store == nil {
		return def
	}
	v, ok, err := s.store.Get(key)
	if err != nil || !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
