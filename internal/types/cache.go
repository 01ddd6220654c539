package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AnalysisCacheEntry memoizes one full pipeline run. Entries are
// superseded in place when the covered foundations are re-ingested,
// never appended.
type AnalysisCacheEntry struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	CacheKey       string         `gorm:"column:cache_key;not null;uniqueIndex:idx_analysis_cache_key" json:"cache_key"`
	FoundationIDs  datatypes.JSON `gorm:"column:foundation_ids;type:jsonb" json:"foundation_ids"`
	TaxYears       datatypes.JSON `gorm:"column:tax_years;type:jsonb" json:"tax_years"`
	MinFoundations int            `gorm:"column:min_foundations;not null" json:"min_foundations"`

	SerializedResult []byte `gorm:"column:serialized_result" json:"-"`

	BundledGranteesCount  int     `gorm:"column:bundled_grantees_count" json:"bundled_grantees_count"`
	TotalGrantsAnalyzed   int     `gorm:"column:total_grants_analyzed" json:"total_grants_analyzed"`
	ProcessingTimeSeconds float64 `gorm:"column:processing_time_seconds" json:"processing_time_seconds"`

	CreatedAt    time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	ExpiresAt    time.Time  `gorm:"column:expires_at;not null;index:idx_analysis_cache_expires" json:"expires_at"`
	HitCount     int64      `gorm:"column:hit_count;not null;default:0" json:"hit_count"`
	LastAccessed *time.Time `gorm:"column:last_accessed" json:"last_accessed,omitempty"`
}

func (AnalysisCacheEntry) TableName() string { return "analysis_cache" }
