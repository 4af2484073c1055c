package models

import "time"

// AnalyticsChat records a single inbound or outbound message observed on a
// line, used for marketing-funnel analytics.
type AnalyticsChat struct {
	ID            uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ProjectID     string    `json:"project_id" gorm:"not null;index"`
	PageID        string    `json:"page_id" gorm:"size:64"`
	Slug          string    `json:"slug" gorm:"size:128"`
	LineID        string    `json:"line_id" gorm:"size:64;index"`
	WaPhone       string    `json:"wa_phone" gorm:"size:32;index"`
	Contact       string    `json:"contact" gorm:"size:32;not null"`
	Message       string    `json:"message" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for AnalyticsChat.
func (AnalyticsChat) TableName() string {
	return "analytics_chats"
}
