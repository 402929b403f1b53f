package baseline

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// AuditStore provides append-only operations for audit event records.
type AuditStore struct {
	db *gorm.DB
}

// NewAuditStore creates a new AuditStore.
func NewAuditStore(db *gorm.DB) *AuditStore {
	return &AuditStore{db: db}
}

// Append creates a new immutable audit event record.
func (s *AuditStore) Append(event *AuditEventRecord) error {
	if err := s.db.Create(event).Error; err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListByVersion returns paginated audit events for a baseline version,
// ordered by created_at DESC (newest first). pageToken is an RFC3339Nano
// timestamp; events with created_at < pageToken are returned.
func (s *AuditStore) ListByVersion(versionID string, pageSize int, pageToken string) ([]AuditEventRecord, string, int, error) {
	return s.list(s.db.Where("version_id = ?", versionID),
		s.db.Model(&AuditEventRecord{}).Where("version_id = ?", versionID),
		pageSize, pageToken)
}

// ListByPortfolio returns paginated audit events for a portfolio.
func (s *AuditStore) ListByPortfolio(portfolioID string, pageSize int, pageToken string) ([]AuditEventRecord, string, int, error) {
	return s.list(s.db.Where("portfolio_id = ?", portfolioID),
		s.db.Model(&AuditEventRecord{}).Where("portfolio_id = ?", portfolioID),
		pageSize, pageToken)
}

// ListByCompany returns paginated audit events across a company,
// optionally filtered by event type.
func (s *AuditStore) ListByCompany(companyID string, pageSize int, pageToken string, eventType string) ([]AuditEventRecord, string, int, error) {
	query := s.db.Where("company_id = ?", companyID)
	countQuery := s.db.Model(&AuditEventRecord{}).Where("company_id = ?", companyID)
	if eventType != "" {
		query = query.Where("event_type = ?", eventType)
		countQuery = countQuery.Where("event_type = ?", eventType)
	}
	return s.list(query, countQuery, pageSize, pageToken)
}

// AuditFilter narrows a company-wide audit query.
type AuditFilter struct {
	CompanyID   string
	Actor       string
	EventType   string
	Outcome     string
	PortfolioID string
}

// ListFiltered returns paginated audit events matching the filter.
func (s *AuditStore) ListFiltered(filter AuditFilter, pageSize int, pageToken string) ([]AuditEventRecord, string, int, error) {
	apply := func(q *gorm.DB) *gorm.DB {
		if filter.CompanyID != "" {
			q = q.Where("company_id = ?", filter.CompanyID)
		}
		if filter.Actor != "" {
			q = q.Where("actor = ?", filter.Actor)
		}
		if filter.EventType != "" {
			q = q.Where("event_type = ?", filter.EventType)
		}
		if filter.Outcome != "" {
			q = q.Where("outcome = ?", filter.Outcome)
		}
		if filter.PortfolioID != "" {
			q = q.Where("portfolio_id = ?", filter.PortfolioID)
		}
		return q
	}
	return s.list(apply(s.db), apply(s.db.Model(&AuditEventRecord{})), pageSize, pageToken)
}

// GetByID retrieves a single audit event. Returns nil, nil if no record
// exists.
func (s *AuditStore) GetByID(id string) (*AuditEventRecord, error) {
	var record AuditEventRecord
	err := s.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get audit event: %w", err)
	}
	return &record, nil
}

// DeleteOlderThan deletes audit events created before the given cutoff
// time. Returns the number of deleted records.
func (s *AuditStore) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result := s.db.Where("created_at < ?", cutoff).Delete(&AuditEventRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete old audit events: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *AuditStore) list(query, countQuery *gorm.DB, pageSize int, pageToken string) ([]AuditEventRecord, string, int, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	var totalSize int64
	if err := countQuery.Count(&totalSize).Error; err != nil {
		return nil, "", 0, fmt.Errorf("count audit events: %w", err)
	}

	query = query.Order("created_at DESC").Limit(pageSize + 1)
	if pageToken != "" {
		t, err := time.Parse(time.RFC3339Nano, pageToken)
		if err != nil {
			return nil, "", 0, fmt.Errorf("invalid page token: %w", err)
		}
		query = query.Where("created_at < ?", t)
	}

	var records []AuditEventRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, "", 0, fmt.Errorf("list audit events: %w", err)
	}

	var nextToken string
	if len(records) > pageSize {
		nextToken = records[pageSize-1].CreatedAt.Format(time.RFC3339Nano)
		records = records[:pageSize]
	}

	return records, nextToken, int(totalSize), nil
}
