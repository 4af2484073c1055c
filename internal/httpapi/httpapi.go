// Package httpapi exposes the line-control and chat-ingestion surface over
// HTTP, using a mux.Router plus plain JSON-map handler responses.
package httpapi

import (
	b64 "encoding/base64"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/argenlinea/receptor/internal/database"
	"github.com/argenlinea/receptor/internal/models"
	"github.com/argenlinea/receptor/internal/router"
	"github.com/argenlinea/receptor/internal/whatsapp"

	"github.com/gorilla/mux"
)

// Handler bundles the collaborators every route needs.
type Handler struct {
	manager    *whatsapp.Manager
	router     *router.Router
	objectsDir string
}

// New constructs a Handler. objectsDir is the directory objectstore.Store
// writes receipt media under; it's served back at /objects/.
func New(manager *whatsapp.Manager, r *router.Router, objectsDir string) *Handler {
	return &Handler{manager: manager, router: r, objectsDir: objectsDir}
}

// Routes registers every endpoint onto mux and returns it CORS-wrapped.
func (h *Handler) Routes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/qr", h.QRPage).Methods("GET")
	r.HandleFunc("/lines/{id}/events", h.LineEvents).Methods("GET")
	r.HandleFunc("/lines/{id}/qr", h.PostQR).Methods("POST")
	r.HandleFunc("/lines/{id}/status", h.Status).Methods("GET")
	r.HandleFunc("/lines/{id}/qr.png", h.QRPNG).Methods("GET")
	r.HandleFunc("/lines/{id}/restart", h.Restart).Methods("POST")
	r.HandleFunc("/lines/{id}/start", h.Start).Methods("POST")
	r.HandleFunc("/api/chats/new", h.NewChat).Methods("POST")
	r.HandleFunc("/dev/incoming", h.DevIncoming).Methods("POST")
	r.HandleFunc("/pricing", h.Pricing).Methods("GET")
	r.PathPrefix("/objects/").Handler(http.StripPrefix("/objects/", http.FileServer(http.Dir(h.objectsDir)))).Methods("GET")

	return corsMiddleware(r)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, ngrok-skip-browser-warning")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// Health implements GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// QRPage implements GET /qr?line_id=..., an HTML page that polls the SSE
// status stream and swaps in the QR image as it changes.
func (h *Handler) QRPage(w http.ResponseWriter, r *http.Request) {
	lineID := r.URL.Query().Get("line_id")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(qrPageHTML(lineID)))
}

func qrPageHTML(lineID string) string {
	return `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>WhatsApp QR</title></head>
<body>
  <h3 id="status">Generando QR…</h3>
  <img id="qr" style="max-width:320px" />
  <script>
    const lineID = ` + jsString(lineID) + `;
    const status = document.getElementById('status');
    const img = document.getElementById('qr');
    const es = new EventSource('/lines/' + lineID + '/events');
    es.onmessage = (e) => {
      const data = JSON.parse(e.data);
      if (data.qr) { img.src = data.qr; status.textContent = 'Escaneá el código'; }
      else if (data.status === 'ready') { status.textContent = 'Conectado: ' + (data.phone || ''); img.style.display = 'none'; }
      else if (data.status === 'disconnected' || data.status === 'error') { status.textContent = 'Reconectando…'; }
    };
    es.onerror = () => { status.textContent = 'Reconectando…'; };
  </script>
</body></html>`
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// LineEvents implements GET /lines/:id/events as an SSE stream, polling the
// session manager at ~700ms and emitting on change.
func (h *Handler) LineEvents(w http.ResponseWriter, r *http.Request) {
	lineID := mux.Vars(r)["id"]

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "server_error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(700 * time.Millisecond)
	defer ticker.Stop()

	var lastStatus, lastPhone, lastQR string

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			status, phone := h.manager.GetStatus(lineID)
			qr, _ := h.manager.GetQRCode(lineID, "")

			if status == lastStatus && phone == lastPhone && qr == lastQR {
				continue
			}
			lastStatus, lastPhone, lastQR = status, phone, qr

			payload, _ := json.Marshal(map[string]string{"status": status, "phone": phone, "qr": qr})
			if _, err := w.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// PostQR implements POST /lines/:id/qr, waiting up to ~30s for a QR to
// become available.
func (h *Handler) PostQR(w http.ResponseWriter, r *http.Request) {
	lineID := mux.Vars(r)["id"]
	projectID := r.URL.Query().Get("project_id")

	deadline := time.Now().Add(30 * time.Second)
	for {
		qr, err := h.manager.GetQRCode(lineID, projectID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "error": "qr_failed"})
			return
		}
		if qr != "" {
			writeJSON(w, http.StatusOK, map[string]interface{}{"status": "qr", "qr": qr})
			return
		}
		if h.manager.IsReady(lineID) {
			writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ready", "qr": nil})
			return
		}
		if time.Now().After(deadline) {
			writeJSON(w, http.StatusOK, map[string]interface{}{"status": "pending", "qr": nil})
			return
		}
		time.Sleep(500 * time.Millisecond)
	}
}

// Status implements GET /lines/:id/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	lineID := mux.Vars(r)["id"]
	status, phone := h.manager.GetStatus(lineID)
	if status == "not_initialized" {
		writeJSON(w, http.StatusOK, map[string]string{"status": status})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": status, "phone": phone})
}

// QRPNG implements GET /lines/:id/qr.png, decoding the data-URL QR back to
// raw PNG bytes.
func (h *Handler) QRPNG(w http.ResponseWriter, r *http.Request) {
	lineID := mux.Vars(r)["id"]
	dataURL, err := h.manager.GetQRCode(lineID, "")
	if err != nil || dataURL == "" {
		http.NotFound(w, r)
		return
	}

	png, err := decodeDataURLPNG(dataURL)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// Restart implements POST /lines/:id/restart.
func (h *Handler) Restart(w http.ResponseWriter, r *http.Request) {
	lineID := mux.Vars(r)["id"]
	projectID := r.URL.Query().Get("project_id")

	if err := h.manager.Restart(lineID, projectID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"ok": false, "error": "restart_failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Start implements POST /lines/:id/start: marks the line row qr_ready
// without touching the client.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	lineID := mux.Vars(r)["id"]
	if err := h.manager.MarkQRReady(lineID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{"ok": false, "error": "server_error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// newChatRequest is the body shape for POST /api/chats/new.
type newChatRequest struct {
	ProjectID string `json:"project_id"`
	PageID    string `json:"page_id"`
	Slug      string `json:"slug"`
	LineID    string `json:"line_id"`
	WaPhone   string `json:"wa_phone"`
	Contact   string `json:"contact"`
	Message   string `json:"message"`
	Name      string `json:"name"`
}

// NewChat implements POST /api/chats/new.
func (h *Handler) NewChat(w http.ResponseWriter, r *http.Request) {
	var req newChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_body"})
		return
	}
	if req.ProjectID == "" || req.Contact == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing_required_fields"})
		return
	}

	chat := models.AnalyticsChat{
		ProjectID: req.ProjectID,
		PageID:    req.PageID,
		Slug:      req.Slug,
		LineID:    req.LineID,
		WaPhone:   req.WaPhone,
		Contact:   req.Contact,
		Message:   req.Message,
	}
	if err := database.Insert(&chat); err != nil {
		log.Printf("ERROR: httpapi: insert chat failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "insert_failed"})
		return
	}

	h.router.RecordAdClick(req.ProjectID, req.LineID, req.PageID, req.Slug, req.WaPhone, req.Contact, req.Message)

	if req.Name != "" {
		contactName := models.ContactName{ProjectID: req.ProjectID, Phone: req.WaPhone, Name: req.Name}
		if err := database.Upsert(&contactName, []string{"project_id", "phone"}, []string{"name", "updated_at"}); err != nil {
			log.Printf("WARNING: httpapi: upsert contact name failed: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// devIncomingRequest mirrors an inbound media message for local testing
// without a live WhatsApp client.
type devIncomingRequest struct {
	ProjectID  string `json:"project_id"`
	LineID     string `json:"line_id"`
	Contact    string `json:"contact"`
	Caption    string `json:"caption"`
	MimeType   string `json:"mime_type"`
	MediaBase64 string `json:"media_base64"`
}

// DevIncoming implements POST /dev/incoming: simulates a message arriving
// on a line without a live WhatsApp client, by feeding it through the same
// Router an external client's event would go through.
func (h *Handler) DevIncoming(w http.ResponseWriter, r *http.Request) {
	var req devIncomingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_body"})
		return
	}
	if req.ProjectID == "" || req.Contact == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing_required_fields"})
		return
	}

	msg := whatsapp.InboundMessage{
		Contact:      req.Contact,
		IsIndividual: true,
		Caption:      req.Caption,
		MimeType:     req.MimeType,
	}
	if req.MediaBase64 != "" {
		if media, err := decodeBase64(req.MediaBase64); err == nil {
			msg.MediaBytes = media
		}
	}

	h.router.HandleMessage(r.Context(), req.LineID, req.ProjectID, msg)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Pricing implements GET /pricing.
func (h *Handler) Pricing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"unit_usd":    0.05,
		"min_credits": 100,
		"currency":    "USD",
	})
}

func decodeDataURLPNG(dataURL string) ([]byte, error) {
	const prefix = "data:image/png;base64,"
	if len(dataURL) <= len(prefix) {
		return nil, io.ErrUnexpectedEOF
	}
	return decodeBase64(dataURL[len(prefix):])
}

func decodeBase64(s string) ([]byte, error) {
	return b64.StdEncoding.DecodeString(s)
}
