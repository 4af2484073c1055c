package models

import "time"

// Agenda tracks the funnel state of a single contact within a project. The
// conflict key is (project_id, contact); status only moves new -> conversion,
// never backwards.
type Agenda struct {
	ID            uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ProjectID     string    `json:"project_id" gorm:"not null;uniqueIndex:idx_agenda_project_contact"`
	Contact       string    `json:"contact" gorm:"size:32;not null;uniqueIndex:idx_agenda_project_contact"`
	WaPhone       string    `json:"wa_phone" gorm:"size:32"`
	SourceSlug    string    `json:"source_slug" gorm:"size:128"`
	SourcePageID  string    `json:"source_page_id" gorm:"size:64"`
	Status        string    `json:"status" gorm:"size:20;default:'new'"`
	LastMessageAt time.Time `json:"last_message_at"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Agenda.
func (Agenda) TableName() string {
	return "agenda"
}

const (
	AgendaStatusNew        = "new"
	AgendaStatusConversion = "conversion"
)

// AnalyticsLead records the first message from a contact, written at most
// once per (project_id, contact) on the normal path.
type AnalyticsLead struct {
	ID            uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ProjectID     string    `json:"project_id" gorm:"not null;uniqueIndex:idx_leads_project_contact"`
	Contact       string    `json:"contact" gorm:"size:32;not null;uniqueIndex:idx_leads_project_contact"`
	WaPhone       string    `json:"wa_phone" gorm:"size:32"`
	SourceSlug    string    `json:"source_slug" gorm:"size:128"`
	SourcePageID  string    `json:"source_page_id" gorm:"size:64"`
	PageID        string    `json:"page_id" gorm:"size:64"`
	Slug          string    `json:"slug" gorm:"size:128"`
	FirstMessage  string    `json:"first_message" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for AnalyticsLead.
func (AnalyticsLead) TableName() string {
	return "analytics_leads"
}
