package models

import "time"

// AnalyticsConversion is the persisted record of an accepted receipt.
// Origin/destination fields may be empty when the field extractor could
// not resolve them.
type AnalyticsConversion struct {
	ID            uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ProjectID     string    `json:"project_id" gorm:"not null;index"`
	PageID        string    `json:"page_id" gorm:"size:64"`
	Slug          string    `json:"slug" gorm:"size:128"`
	Contact       string    `json:"contact" gorm:"size:32;not null"`
	WaPhone       string    `json:"wa_phone" gorm:"size:32"`
	FileURL       string    `json:"file_url" gorm:"size:512"`
	FileMime      string    `json:"file_mime" gorm:"size:64"`
	Amount        float64   `json:"amount" gorm:"not null"`
	Status        string    `json:"status" gorm:"size:20;default:'received'"`
	LineID        string    `json:"line_id" gorm:"size:64"`
	Concept       string    `json:"concept" gorm:"size:160"`
	Reference     string    `json:"reference" gorm:"size:64"`
	OperationNo   string    `json:"operation_no" gorm:"size:64"`
	OriginName    string    `json:"origin_name" gorm:"size:160"`
	OriginCUIT    string    `json:"origin_cuit" gorm:"size:16"`
	OriginAccount string    `json:"origin_account" gorm:"size:64"`
	OriginBank    string    `json:"origin_bank" gorm:"size:64"`
	DestName      string    `json:"dest_name" gorm:"size:160"`
	DestCUIT      string    `json:"dest_cuit" gorm:"size:16"`
	DestAccount   string    `json:"dest_account" gorm:"size:64"`
	DestBank      string    `json:"dest_bank" gorm:"size:64"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for AnalyticsConversion.
func (AnalyticsConversion) TableName() string {
	return "analytics_conversions"
}

const ConversionStatusReceived = "received"
