// Package whatsapp drives one external WhatsApp Web client per marketing
// line, one client per advertised phone number, keyed by LineID.
package whatsapp

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/argenlinea/receptor/internal/database"
	"github.com/argenlinea/receptor/internal/models"

	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// States mirror the persisted lines.status values, minus the two
// control-plane-only values ("connected", "qr_ready") that never occur as
// in-memory states.
const (
	StateInitializing  = "initializing"
	StateLoading       = "loading"
	StateQR            = "qr"
	StateAuthenticated = "authenticated"
	StateReady         = "ready"
	StateDisconnected  = "disconnected"
	StateRestarting    = "restarting"
	StateError         = "error"
)

const (
	restartDelay      = 1200 * time.Millisecond
	healthProbePeriod = 20 * time.Second
	qrWaitTimeout      = 2 * time.Minute
	phoneResolveRetries = 60
	phoneResolveDelay   = 500 * time.Millisecond
)

// InboundMessage is the shape the session manager hands to the Router for
// every message event, independent of whatsmeow's own event types.
type InboundMessage struct {
	CanonicalID  string
	Contact      string // bare phone digits, no WhatsApp suffix
	IsFromMe     bool
	IsIndividual bool
	Caption      string
	MediaBytes   []byte
	MimeType     string
}

// Router is what the session manager dispatches inbound messages to; it is
// satisfied by internal/router.Router, kept as an interface here so this
// package doesn't import it back.
type Router interface {
	HandleMessage(ctx context.Context, lineID, projectID string, msg InboundMessage)
}

// Manager owns every line's session and the one background health-probe
// loop that reconciles their persisted status.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*LineSession
	dataPath string
	router   Router
}

// LineSession is one line's live WhatsApp Web client plus the bookkeeping
// its state machine needs.
type LineSession struct {
	LineID    string
	ProjectID string

	Client    *whatsmeow.Client
	SessionDB *sqlstore.Container

	QRCode string
	Phone  string
	State  string

	LastActivity       time.Time
	LastConnectAttempt time.Time

	manager *Manager
	mu      sync.RWMutex
}

// NewManager constructs a Manager whose per-line auth stores live under
// dataPath, dispatching inbound messages to router.
func NewManager(dataPath string, router Router) *Manager {
	return &Manager{
		sessions: make(map[string]*LineSession),
		dataPath: dataPath,
		router:   router,
	}
}

// GetOrCreateSession returns the line's existing session or builds a new
// one, initializing its auth store but not yet connecting.
func (m *Manager) GetOrCreateSession(lineID, projectID string) (*LineSession, error) {
	m.mu.RLock()
	session, exists := m.sessions[lineID]
	m.mu.RUnlock()
	if exists {
		return session, nil
	}
	return m.createSession(lineID, projectID)
}

func (m *Manager) createSession(lineID, projectID string) (*LineSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, exists := m.sessions[lineID]; exists {
		return existing, nil
	}

	session := &LineSession{
		LineID:       lineID,
		ProjectID:    projectID,
		State:        StateInitializing,
		LastActivity: time.Now(),
		manager:      m,
	}

	if err := session.initializeStore(m.dataPath); err != nil {
		return nil, fmt.Errorf("initialize auth store for line %s: %w", lineID, err)
	}

	m.sessions[lineID] = session
	session.persist()
	return session, nil
}

// authDBPath is the per-line SQLite auth file.
func authDBPath(dataPath, lineID string) string {
	return fmt.Sprintf("%s/wa_session_line_%s.db", strings.TrimSuffix(dataPath, "/"), lineID)
}

func (s *LineSession) initializeStore(dataPath string) error {
	driver := os.Getenv("WA_STORE_DRIVER")
	if driver == "" {
		driver = "sqlite"
	}

	var (
		db  *sqlstore.Container
		err error
	)

	switch driver {
	case "postgres", "pgx":
		dsn := os.Getenv("WA_STORE_DSN")
		if dsn == "" {
			return fmt.Errorf("WA_STORE_DSN is required when WA_STORE_DRIVER=postgres")
		}
		db, err = sqlstore.New(context.Background(), "pgx", dsn, nil)
	default:
		if err := os.MkdirAll(dataPath, 0o755); err != nil {
			return fmt.Errorf("create auth data path: %w", err)
		}
		dbPath := authDBPath(dataPath, s.LineID)
		dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode=WAL&_pragma=synchronous=NORMAL", dbPath)
		db, err = sqlstore.New(context.Background(), "sqlite", dsn, nil)
	}
	if err != nil {
		return err
	}

	s.SessionDB = db
	return nil
}

// shouldPurgeAuth reports whether a disconnect reason names an explicit
// logout, which invalidates the persisted session rather than a transient
// network drop.
func shouldPurgeAuth(reason string) bool {
	return strings.Contains(strings.ToUpper(reason), "LOGOUT")
}

func (s *LineSession) setState(state string) {
	s.mu.Lock()
	s.State = state
	s.LastActivity = time.Now()
	s.mu.Unlock()
	s.persist()
}

func (s *LineSession) getState() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.State
}

// persist writes the line's current status/phone to both the session row
// (through the shared Upsert primitive) and the line row (through Update).
func (s *LineSession) persist() {
	s.mu.RLock()
	state, phone := s.State, s.Phone
	s.mu.RUnlock()

	if err := database.CheckAndReconnect(); err != nil {
		log.Printf("WARNING: whatsapp: db reconnect check failed: %v", err)
	}

	session := models.WhatsAppSession{
		LineID:    s.LineID,
		ProjectID: s.ProjectID,
		WaStatus:  state,
		WaPhone:   phone,
	}
	if err := database.Upsert(&session, []string{"line_id"}, []string{"wa_status", "wa_phone", "updated_at", "project_id"}); err != nil {
		log.Printf("ERROR: whatsapp: persist session row failed: %v", err)
	}

	if err := database.Update(&models.Line{}, "id = ?", []interface{}{s.LineID}, map[string]interface{}{
		"status": state,
		"phone":  phone,
	}); err != nil {
		log.Printf("ERROR: whatsapp: persist line row failed: %v", err)
	}
}

// Connect starts (or resumes) the line's WhatsApp Web client.
func (m *Manager) Connect(lineID, projectID string) error {
	session, err := m.GetOrCreateSession(lineID, projectID)
	if err != nil {
		return err
	}
	return session.connect()
}

func (s *LineSession) connect() error {
	s.mu.Lock()
	if s.State == StateReady || s.State == StateAuthenticated {
		s.mu.Unlock()
		return nil
	}
	if time.Since(s.LastConnectAttempt) < 5*time.Second {
		s.mu.Unlock()
		return nil
	}
	s.LastConnectAttempt = time.Now()
	s.mu.Unlock()

	s.setState(StateLoading)

	deviceStore, err := s.SessionDB.GetFirstDevice(context.Background())
	if err != nil {
		s.setState(StateError)
		return fmt.Errorf("get device store: %w", err)
	}

	client := whatsmeow.NewClient(deviceStore, nil)
	client.AddEventHandler(s.handleEvent)

	if deviceStore.ID != nil {
		if err := client.Connect(); err == nil {
			s.mu.Lock()
			s.Client = client
			s.mu.Unlock()
			s.setState(StateAuthenticated)
			go s.onReady()
			return nil
		}
		log.Printf("DEBUG: whatsapp: line %s failed to restore session, falling back to QR", s.LineID)
	}

	qrChan, _ := client.GetQRChannel(context.Background())
	if err := client.Connect(); err != nil {
		s.setState(StateError)
		return fmt.Errorf("connect client: %w", err)
	}

	s.mu.Lock()
	s.Client = client
	s.mu.Unlock()
	s.setState(StateQR)

	go s.waitForQR(qrChan)
	return nil
}

func (s *LineSession) waitForQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for {
		select {
		case item, ok := <-qrChan:
			if !ok {
				return
			}
			switch item.Event {
			case "code":
				png, err := qrcode.Encode(item.Code, qrcode.Medium, 256)
				if err != nil {
					log.Printf("ERROR: whatsapp: line %s QR render failed: %v", s.LineID, err)
					continue
				}
				s.mu.Lock()
				s.QRCode = "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
				s.mu.Unlock()
				s.setState(StateQR)
			case "success":
				s.mu.Lock()
				s.QRCode = ""
				s.mu.Unlock()
				s.setState(StateAuthenticated)
				go s.onReady()
				return
			}
		case <-time.After(qrWaitTimeout):
			log.Printf("DEBUG: whatsapp: line %s QR wait timed out", s.LineID)
			s.setState(StateDisconnected)
			go s.scheduleRestart("qr timeout")
			return
		}
	}
}

// onReady resolves the line's own phone number with bounded retries before
// declaring the line ready.
func (s *LineSession) onReady() {
	var jid types.JID
	for i := 0; i < phoneResolveRetries; i++ {
		s.mu.RLock()
		client := s.Client
		s.mu.RUnlock()
		if client != nil && client.Store.ID != nil {
			jid = *client.Store.ID
			break
		}
		time.Sleep(phoneResolveDelay)
	}

	s.mu.Lock()
	if jid.User != "" {
		s.Phone = jid.User
	}
	s.mu.Unlock()

	s.setState(StateReady)
}

func (s *LineSession) handleEvent(evt interface{}) {
	switch e := evt.(type) {
	case *events.Connected:
		s.setState(StateReady)
	case *events.Disconnected:
		s.onDisconnected("connection dropped")
	case *events.LoggedOut:
		s.onDisconnected(fmt.Sprintf("LOGOUT: %v", e.Reason))
	case *events.Message:
		s.dispatchMessage(e)
	}
}

func (s *LineSession) onDisconnected(reason string) {
	s.setState(StateDisconnected)

	if shouldPurgeAuth(reason) {
		s.purgeAuth()
	}

	s.mu.Lock()
	client := s.Client
	s.Client = nil
	s.mu.Unlock()
	if client != nil {
		func() {
			defer func() { recover() }()
			client.Disconnect()
		}()
	}

	go s.scheduleRestart(reason)
}

func (s *LineSession) purgeAuth() {
	path := authDBPath(s.manager.dataPath, s.LineID)
	for _, suffix := range []string{"", "-wal", "-shm"} {
		_ = os.Remove(path + suffix)
	}
}

func (s *LineSession) scheduleRestart(reason string) {
	s.setState(StateRestarting)
	time.Sleep(restartDelay)
	log.Printf("DEBUG: whatsapp: line %s restarting (%s)", s.LineID, reason)
	s.setState(StateInitializing)

	if err := s.initializeStore(s.manager.dataPath); err != nil {
		log.Printf("ERROR: whatsapp: line %s restart failed to reopen auth store: %v", s.LineID, err)
		s.setState(StateError)
		return
	}
	if err := s.connect(); err != nil {
		log.Printf("ERROR: whatsapp: line %s restart connect failed: %v", s.LineID, err)
		s.setState(StateError)
	}
}

// isIndividualChat reports whether a JID belongs to a one-to-one chat,
// excluding groups, broadcast lists, and status updates.
func isIndividualChat(jid types.JID) bool {
	return jid.Server == types.DefaultUserServer
}

func (s *LineSession) dispatchMessage(e *events.Message) {
	if s.manager == nil || s.manager.router == nil {
		return
	}

	msg := InboundMessage{
		CanonicalID:  e.Info.ID,
		Contact:      e.Info.Sender.User,
		IsFromMe:     e.Info.IsFromMe,
		IsIndividual: isIndividualChat(e.Info.Chat),
		Caption:      extractText(e),
	}

	s.mu.RLock()
	client := s.Client
	s.mu.RUnlock()
	if data, mimetype, ok := downloadMedia(client, e); ok {
		msg.MediaBytes = data
		msg.MimeType = mimetype
	}

	s.manager.router.HandleMessage(context.Background(), s.LineID, s.ProjectID, msg)
}

// extractText pulls the best-effort plain-text body out of a message,
// covering the plain-conversation and captioned-media shapes.
func extractText(e *events.Message) string {
	if e.Message == nil {
		return ""
	}
	if e.Message.GetConversation() != "" {
		return e.Message.GetConversation()
	}
	if img := e.Message.GetImageMessage(); img != nil {
		return img.GetCaption()
	}
	if doc := e.Message.GetDocumentMessage(); doc != nil {
		return doc.GetCaption()
	}
	if ext := e.Message.GetExtendedTextMessage(); ext != nil {
		return ext.GetText()
	}
	return ""
}

// downloadMedia fetches the image/document payload attached to a message,
// if any, via the owning client's media downloader.
func downloadMedia(client *whatsmeow.Client, e *events.Message) ([]byte, string, bool) {
	if client == nil || e.Message == nil {
		return nil, "", false
	}

	if img := e.Message.GetImageMessage(); img != nil {
		data, err := client.Download(context.Background(), img)
		if err != nil {
			log.Printf("WARNING: whatsapp: image download failed: %v", err)
			return nil, "", false
		}
		return data, img.GetMimetype(), true
	}
	if doc := e.Message.GetDocumentMessage(); doc != nil {
		data, err := client.Download(context.Background(), doc)
		if err != nil {
			log.Printf("WARNING: whatsapp: document download failed: %v", err)
			return nil, "", false
		}
		return data, doc.GetMimetype(), true
	}
	return nil, "", false
}

// StartHealthProbe runs the reconciliation loop until ctx is cancelled:
// every healthProbePeriod, each line's reported connection state is
// reconciled into its persisted status.
func (m *Manager) StartHealthProbe(ctx context.Context) {
	ticker := time.NewTicker(healthProbePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probeOnce()
		}
	}
}

func (m *Manager) probeOnce() {
	m.mu.RLock()
	sessions := make([]*LineSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		s.mu.RLock()
		client := s.Client
		s.mu.RUnlock()

		if client != nil && client.IsConnected() {
			if s.getState() != StateReady {
				s.setState(StateReady)
			}
		} else if s.getState() == StateReady || s.getState() == StateAuthenticated {
			s.setState(StateDisconnected)
			go s.scheduleRestart("health probe: not connected")
		}
	}
}

// GetQRCode returns the line's current QR data URL, triggering a connect
// attempt if none is in flight yet.
func (m *Manager) GetQRCode(lineID, projectID string) (string, error) {
	session, err := m.GetOrCreateSession(lineID, projectID)
	if err != nil {
		return "", err
	}

	session.mu.RLock()
	hasQR := session.QRCode != ""
	state := session.State
	session.mu.RUnlock()

	if !hasQR && state != StateReady && state != StateAuthenticated && state != StateQR && state != StateLoading {
		go func() {
			if err := session.connect(); err != nil {
				log.Printf("ERROR: whatsapp: line %s connect for QR failed: %v", lineID, err)
			}
		}()
	}

	session.mu.RLock()
	defer session.mu.RUnlock()
	return session.QRCode, nil
}

// GetStatus returns the line's current state and resolved phone, or
// ("not_initialized", "") if the line has no session yet.
func (m *Manager) GetStatus(lineID string) (string, string) {
	m.mu.RLock()
	session, exists := m.sessions[lineID]
	m.mu.RUnlock()
	if !exists {
		return "not_initialized", ""
	}

	session.mu.RLock()
	defer session.mu.RUnlock()
	return session.State, session.Phone
}

// IsReady reports whether the line's client is fully authenticated.
func (m *Manager) IsReady(lineID string) bool {
	state, _ := m.GetStatus(lineID)
	return state == StateReady
}

// Restart tears down a line's client, purges its auth directory, and
// schedules a fresh connect — the explicit operator-triggered path
// distinct from the automatic disconnect-driven restart.
func (m *Manager) Restart(lineID, projectID string) error {
	session, err := m.GetOrCreateSession(lineID, projectID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	client := session.Client
	session.Client = nil
	session.mu.Unlock()

	if client != nil {
		func() {
			defer func() { recover() }()
			_ = client.Logout(context.Background())
		}()
		func() {
			defer func() { recover() }()
			client.Disconnect()
		}()
	}

	session.purgeAuth()
	go session.scheduleRestart("operator restart")
	return nil
}

// MarkQRReady flips a line's persisted status to qr_ready without touching
// its client.
func (m *Manager) MarkQRReady(lineID string) error {
	return database.Update(&models.Line{}, "id = ?", []interface{}{lineID}, map[string]interface{}{
		"status": models.LineStatusQRReady,
	})
}
