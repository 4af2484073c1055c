// Package router implements the Inbound Router: the single entry point
// every line session's message events funnel through before anything else
// in the pipeline sees them.
package router

import (
	"context"
	"log"
	"regexp"
	"sync"
	"time"

	"github.com/argenlinea/receptor/internal/adevents"
	"github.com/argenlinea/receptor/internal/database"
	"github.com/argenlinea/receptor/internal/models"
	"github.com/argenlinea/receptor/internal/objectstore"
	"github.com/argenlinea/receptor/internal/ocrpool"
	"github.com/argenlinea/receptor/internal/receipts"
	"github.com/argenlinea/receptor/internal/whatsapp"
)

// leadTrigger recognizes the Spanish discount-code opener. It is checked only
// when a contact's lead row is first written, where a match also emits a Lead
// ad event; a match on a later message writes nothing.
var leadTrigger = regexp.MustCompile(`(?i)^\s*hola\s+mi\s+c[oó]digo\s+de\s+descuento\s+es\s*[:\-]?\s*\S+`)

// acceptedMimeTypes gates which attachments enter the receipt pipeline; any
// other mimetype is treated as a plain chat message.
var acceptedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"application/pdf": true,
}

// PageLookup resolves the advertising page (and its Meta pixel credentials)
// bound to a line, if any.
type PageLookup interface {
	EmitterFor(projectID, pageID string) *adevents.Emitter
}

// Router dedupes, classifies, and dispatches every inbound message.
type Router struct {
	store  *objectstore.Store
	pages  PageLookup
	pool   *ocrpool.Pool
	seen   *seenSet
}

// New constructs a Router. pool may be nil, in which case receipt
// processing runs synchronously on the caller's goroutine.
func New(store *objectstore.Store, pages PageLookup, pool *ocrpool.Pool, seenCapacity int) *Router {
	return &Router{
		store: store,
		pages: pages,
		pool:  pool,
		seen:  newSeenSet(seenCapacity),
	}
}

// HandleMessage implements whatsapp.Router: it is the callback the Line
// Session Manager invokes for every message event it observes, including
// ones the line itself sent (those are skipped here).
func (r *Router) HandleMessage(ctx context.Context, lineID, projectID string, msg whatsapp.InboundMessage) {
	if msg.IsFromMe || !msg.IsIndividual {
		return
	}
	if msg.CanonicalID != "" && !r.seen.addIfNew(msg.CanonicalID) {
		return
	}

	pageID, slug := r.resolveSource(projectID, msg.Contact)

	r.recordChat(projectID, lineID, pageID, slug, msg.Contact, msg.Contact, msg.Caption)
	r.updateAgendaAndLead(projectID, lineID, pageID, slug, msg.Contact, msg.Contact, msg.Caption)

	if !acceptedMimeTypes[msg.MimeType] || len(msg.MediaBytes) == 0 {
		return
	}

	deps := receipts.Deps{Store: r.store, Events: r.emitterFor(projectID, pageID)}
	job := receipts.Message{
		ProjectID:  projectID,
		LineID:     lineID,
		Contact:    msg.Contact,
		Caption:    msg.Caption,
		MediaBytes: msg.MediaBytes,
		MimeType:   msg.MimeType,
		PageID:     pageID,
		Slug:       slug,
	}

	run := func() { receipts.Run(ctx, deps, job) }
	if r.pool != nil {
		r.pool.Submit(run)
	} else {
		run()
	}
}

// RecordAdClick establishes first-touch attribution for a contact arriving
// from an advertising page click, the path used by the chat-creation
// endpoint where page/slug are already known rather than resolved from a
// contact's prior history.
func (r *Router) RecordAdClick(projectID, lineID, pageID, slug, waPhone, contact, message string) {
	r.updateAgendaAndLead(projectID, lineID, pageID, slug, waPhone, contact, message)
}

func (r *Router) emitterFor(projectID, pageID string) *adevents.Emitter {
	if r.pages == nil {
		return nil
	}
	return r.pages.EmitterFor(projectID, pageID)
}

// resolveSource carries a contact's first-touch page/slug attribution
// forward onto every later message, reading it off the contact's existing
// Agenda row rather than re-deriving it (agenda.source_page_id/source_slug
// are sticky — see updateAgendaAndLead).
func (r *Router) resolveSource(projectID, contact string) (pageID, slug string) {
	var agenda models.Agenda
	if err := database.SelectOne(&agenda, "project_id = ? AND contact = ?", projectID, contact); err == nil {
		return agenda.SourcePageID, agenda.SourceSlug
	}
	return "", ""
}

func (r *Router) recordChat(projectID, lineID, pageID, slug, waPhone, contact, message string) {
	chat := models.AnalyticsChat{
		ProjectID: projectID,
		PageID:    pageID,
		Slug:      slug,
		LineID:    lineID,
		WaPhone:   waPhone,
		Contact:   contact,
		Message:   message,
	}
	if err := database.Insert(&chat); err != nil {
		log.Printf("ERROR: router: insert chat failed: %v", err)
	}
}

// updateAgendaAndLead writes the agenda and lead rows through one path
// instead of a two-hop generic-then-trigger lead write: one agenda upsert
// always runs, and the lead row is inserted only when a lookup finds none for
// (project_id, contact), so it is written at most once. The trigger regex
// only decides whether that one insert also emits a Lead ad event; the
// message is recorded as first_message either way. pageID/slug are only applied on each
// row's first insert — the agenda update-column list deliberately omits
// source_page_id/source_slug so a later message never overwrites a
// contact's original attribution.
func (r *Router) updateAgendaAndLead(projectID, lineID, pageID, slug, waPhone, contact, message string) {
	now := time.Now()

	agenda := models.Agenda{
		ProjectID:     projectID,
		Contact:       contact,
		WaPhone:       waPhone,
		SourceSlug:    slug,
		SourcePageID:  pageID,
		LastMessageAt: now,
	}
	if err := database.Upsert(&agenda, []string{"project_id", "contact"},
		[]string{"wa_phone", "last_message_at", "updated_at"}); err != nil {
		log.Printf("ERROR: router: upsert agenda failed: %v", err)
	}

	var existing models.AnalyticsLead
	err := database.SelectOne(&existing, "project_id = ? AND contact = ?", projectID, contact)
	if err == nil {
		return // already has a lead row; normal path writes at most once
	}
	if !database.IsNotFound(err) {
		log.Printf("ERROR: router: lead lookup failed: %v", err)
		return
	}

	lead := models.AnalyticsLead{
		ProjectID:    projectID,
		Contact:      contact,
		WaPhone:      waPhone,
		SourceSlug:   slug,
		SourcePageID: pageID,
		PageID:       pageID,
		Slug:         slug,
		FirstMessage: message,
	}
	if err := database.Insert(&lead); err != nil {
		log.Printf("ERROR: router: insert lead failed: %v", err)
		return
	}

	if leadTrigger.MatchString(message) {
		if e := r.emitterFor(projectID, pageID); e != nil {
			e.EmitLead(context.Background(), contact, "")
		}
	}
}

// seenSet is a bounded-capacity, FIFO-evicting dedupe set: once full, the
// oldest entry is evicted to make room for the next ID.
type seenSet struct {
	mu       sync.Mutex
	capacity int
	order    []string
	index    map[string]struct{}
}

func newSeenSet(capacity int) *seenSet {
	if capacity <= 0 {
		capacity = 10000
	}
	return &seenSet{capacity: capacity, index: make(map[string]struct{}, capacity)}
}

// addIfNew reports whether id had not been seen before, recording it if so.
func (s *seenSet) addIfNew(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[id]; exists {
		return false
	}

	if len(s.order) >= s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.index, oldest)
	}

	s.order = append(s.order, id)
	s.index[id] = struct{}{}
	return true
}
