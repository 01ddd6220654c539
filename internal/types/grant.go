package types

import (
	"time"

	"github.com/google/uuid"
)

// GrantRecord is one grant payment reported by a private foundation
// (Schedule I line item), produced by the upstream ingestor. Rows are
// immutable once written.
type GrantRecord struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	FoundationID   string `gorm:"column:foundation_id;not null;index:idx_grant_record_foundation" json:"foundation_id"`
	FoundationName string `gorm:"column:foundation_name;not null" json:"foundation_name"`

	// GranteeID is the recipient EIN when the filing carried one.
	GranteeID             string `gorm:"column:grantee_id;index:idx_grant_record_grantee" json:"grantee_id,omitempty"`
	GranteeName           string `gorm:"column:grantee_name;not null" json:"grantee_name"`
	NormalizedGranteeName string `gorm:"column:normalized_grantee_name;index:idx_grant_record_norm_name" json:"normalized_grantee_name"`

	Amount  float64 `gorm:"column:amount;not null" json:"amount"`
	TaxYear int     `gorm:"column:tax_year;not null;index:idx_grant_record_tax_year" json:"tax_year"`

	Purpose  string `gorm:"column:purpose" json:"purpose,omitempty"`
	NTEECode string `gorm:"column:ntee_code" json:"ntee_code,omitempty"`

	GranteeCity    string `gorm:"column:grantee_city" json:"grantee_city,omitempty"`
	GranteeState   string `gorm:"column:grantee_state" json:"grantee_state,omitempty"`
	GranteeCountry string `gorm:"column:grantee_country" json:"grantee_country,omitempty"`

	Provenance   string  `gorm:"column:provenance" json:"provenance"`
	QualityScore float64 `gorm:"column:quality_score" json:"quality_score"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (GrantRecord) TableName() string { return "grant_record" }
