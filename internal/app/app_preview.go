package app

import (
	"fmt"
	"net/url"
	"sync"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"nodeflow/internal/domain"
)

// ============================================================
// Media Preview
// ============================================================
//
// The preview overlay is UI state only; it never touches the canvas.

const eventPreviewChanged = "preview:changed"

// Preview is the media shown in the full-screen overlay.
type Preview struct {
	Open bool             `json:"open"`
	URL  string           `json:"url,omitempty"`
	Kind domain.MediaKind `json:"kind,omitempty"`
}

type previewState struct {
	mu      sync.Mutex
	current Preview
}

// OpenPreview shows a generated image or video.
func (a *App) OpenPreview(rawURL, kind string) (Preview, error) {
	k := domain.MediaKind(kind)
	if k != domain.MediaImage && k != domain.MediaVideo {
		return Preview{}, fmt.Errorf("preview: unsupported media kind %q", kind)
	}
	if _, err := url.Parse(rawURL); err != nil || rawURL == "" {
		return Preview{}, fmt.Errorf("preview: invalid url %q", rawURL)
	}

	a.preview.mu.Lock()
	a.preview.current = Preview{Open: true, URL: rawURL, Kind: k}
	p := a.preview.current
	a.preview.mu.Unlock()

	wailsRuntime.EventsEmit(a.ctx, eventPreviewChanged, p)
	return p, nil
}

func (a *App) ClosePreview() {
	a.preview.mu.Lock()
	a.preview.current = Preview{}
	a.preview.mu.Unlock()
	wailsRuntime.EventsEmit(a.ctx, eventPreviewChanged, Preview{})
}

func (a *App) GetPreview() Preview {
	a.preview.mu.Lock()
	defer a.preview.mu.Unlock()
	return a.preview.current
}
