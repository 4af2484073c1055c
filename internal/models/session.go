package models

import "time"

// WhatsAppSession mirrors a line's session lifecycle into a row so an
// operator can see WhatsApp connection status without touching in-memory state.
type WhatsAppSession struct {
	LineID    string    `json:"line_id" gorm:"primaryKey;size:64"`
	ProjectID string    `json:"project_id" gorm:"not null"`
	WaStatus  string    `json:"wa_status" gorm:"size:20"`
	WaPhone   string    `json:"wa_phone" gorm:"size:32"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for WhatsAppSession.
func (WhatsAppSession) TableName() string {
	return "whatsapp_sessions"
}

// ContactName caches the display name and avatar last observed for a phone
// number within a project, keyed by (project_id, phone).
type ContactName struct {
	ProjectID string    `json:"project_id" gorm:"primaryKey;size:64"`
	Phone     string    `json:"phone" gorm:"primaryKey;size:32"`
	Name      string    `json:"name" gorm:"size:255"`
	AvatarURL string    `json:"avatar_url" gorm:"size:512"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for ContactName.
func (ContactName) TableName() string {
	return "wa_contact_names"
}
