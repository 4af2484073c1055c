// Package adpages resolves a project's advertising pages to their Meta
// Pixel emitter, caching one Emitter per page so the Router and HTTP layer
// don't rebuild an http.Client on every message.
package adpages

import (
	"sync"

	"github.com/argenlinea/receptor/internal/adevents"
	"github.com/argenlinea/receptor/internal/database"
	"github.com/argenlinea/receptor/internal/models"
)

// Registry looks up pages.fb_pixel_id/fb_access_token on demand and caches
// the resulting Emitter by page ID.
type Registry struct {
	mu        sync.RWMutex
	emitters  map[string]*adevents.Emitter
}

// NewRegistry constructs an empty Registry; emitters are built lazily as
// pages are looked up.
func NewRegistry() *Registry {
	return &Registry{emitters: make(map[string]*adevents.Emitter)}
}

// EmitterFor resolves the Emitter for pageID, or for projectID's first page
// if pageID is empty. Returns nil if no matching page (or no pixel
// credentials) is found.
func (r *Registry) EmitterFor(projectID, pageID string) *adevents.Emitter {
	page, ok := r.lookupPage(projectID, pageID)
	if !ok || page.FBPixelID == "" || page.FBAccessToken == "" {
		return nil
	}

	r.mu.RLock()
	if e, exists := r.emitters[page.ID]; exists {
		r.mu.RUnlock()
		return e
	}
	r.mu.RUnlock()

	e := adevents.New(page.FBPixelID, page.FBAccessToken, page.FBTestEventCode)

	r.mu.Lock()
	r.emitters[page.ID] = e
	r.mu.Unlock()

	return e
}

func (r *Registry) lookupPage(projectID, pageID string) (models.Page, bool) {
	var page models.Page
	var err error
	if pageID != "" {
		err = database.SelectOne(&page, "id = ? AND project_id = ?", pageID, projectID)
	} else {
		err = database.SelectOne(&page, "project_id = ?", projectID)
	}
	if err != nil {
		return models.Page{}, false
	}
	return page, true
}
