package models

import "time"

// Line represents a single WhatsApp account/session bound to one project.
type Line struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	ProjectID string    `json:"project_id" gorm:"not null;index"`
	Status    string    `json:"status" gorm:"type:varchar(20);default:'initializing'"`
	Phone     string    `json:"phone" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Line.
func (Line) TableName() string {
	return "lines"
}

// Status values a Line row can hold. "connected" and "qr_ready" exist only
// in the persisted row, never in the in-memory state machine.
const (
	LineStatusInitializing = "initializing"
	LineStatusLoading      = "loading"
	LineStatusQR           = "qr"
	LineStatusAuthenticated = "authenticated"
	LineStatusReady         = "ready"
	LineStatusConnected     = "connected"
	LineStatusDisconnected  = "disconnected"
	LineStatusRestarting    = "restarting"
	LineStatusError         = "error"
	LineStatusQRReady       = "qr_ready"
)

// Page represents an advertising landing page tied to a project, carrying
// the Meta Pixel credentials used by the ad-event emitter.
type Page struct {
	ID                string `json:"id" gorm:"primaryKey;size:64"`
	Slug              string `json:"slug" gorm:"size:128;index"`
	ProjectID         string `json:"project_id" gorm:"not null;index"`
	FBPixelID         string `json:"fb_pixel_id" gorm:"size:64"`
	FBAccessToken     string `json:"fb_access_token" gorm:"size:255"`
	FBTestEventCode   string `json:"fb_test_event_code" gorm:"size:64"`
}

// TableName specifies the table name for Page.
func (Page) TableName() string {
	return "pages"
}
