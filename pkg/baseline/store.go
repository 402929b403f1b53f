package baseline

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Store provides database operations for portfolios, baseline versions,
// and their modules.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the baseline tables.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&PortfolioRecord{}); err != nil {
		return fmt.Errorf("auto-migrate portfolios: %w", err)
	}
	if err := s.db.AutoMigrate(&BaselineVersionRecord{}); err != nil {
		return fmt.Errorf("auto-migrate baseline_versions: %w", err)
	}
	if err := s.db.AutoMigrate(&BaselineModuleRecord{}); err != nil {
		return fmt.Errorf("auto-migrate baseline_modules: %w", err)
	}
	if err := s.db.AutoMigrate(&AuditEventRecord{}); err != nil {
		return fmt.Errorf("auto-migrate audit_events: %w", err)
	}
	return nil
}

// CreatePortfolio inserts a new portfolio record.
func (s *Store) CreatePortfolio(record *PortfolioRecord) error {
	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("create portfolio: %w", err)
	}
	return nil
}

// GetPortfolio retrieves a portfolio by id. Returns nil, nil if no record
// exists.
func (s *Store) GetPortfolio(id string) (*PortfolioRecord, error) {
	var record PortfolioRecord
	err := s.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get portfolio: %w", err)
	}
	return &record, nil
}

// ListPortfolios returns paginated portfolios for a company, ordered by id.
// pageToken is the id of the last record from the previous page; pass ""
// for the first page.
func (s *Store) ListPortfolios(companyID string, pageSize int, pageToken string) ([]PortfolioRecord, string, int, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	var totalSize int64
	if err := s.db.Model(&PortfolioRecord{}).Where("company_id = ?", companyID).Count(&totalSize).Error; err != nil {
		return nil, "", 0, fmt.Errorf("count portfolios: %w", err)
	}

	query := s.db.Where("company_id = ?", companyID).Order("id ASC").Limit(pageSize + 1)
	if pageToken != "" {
		query = query.Where("id > ?", pageToken)
	}

	var records []PortfolioRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, "", 0, fmt.Errorf("list portfolios: %w", err)
	}

	var nextToken string
	if len(records) > pageSize {
		nextToken = records[pageSize-1].ID
		records = records[:pageSize]
	}

	return records, nextToken, int(totalSize), nil
}

// CreateVersion inserts a new draft version together with its seed
// modules in one transaction, assigning the next version number for the
// portfolio inside the transaction so concurrent creates cannot collide.
func (s *Store) CreateVersion(version *BaselineVersionRecord, modules []BaselineModuleRecord) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var maxNumber int
		row := tx.Model(&BaselineVersionRecord{}).
			Where("portfolio_id = ?", version.PortfolioID).
			Select("COALESCE(MAX(version_number), 0)").
			Row()
		if err := row.Scan(&maxNumber); err != nil {
			return fmt.Errorf("next version number: %w", err)
		}
		version.VersionNumber = maxNumber + 1

		if err := tx.Create(version).Error; err != nil {
			return fmt.Errorf("create baseline version: %w", err)
		}
		for i := range modules {
			modules[i].BaselineVersionID = version.ID
			if err := tx.Create(&modules[i]).Error; err != nil {
				return fmt.Errorf("create baseline module %s: %w", modules[i].ModuleType, err)
			}
		}
		return nil
	})
}

// GetVersion retrieves a version by id. Returns nil, nil if no record exists.
func (s *Store) GetVersion(id string) (*BaselineVersionRecord, error) {
	var record BaselineVersionRecord
	err := s.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get baseline version: %w", err)
	}
	return &record, nil
}

// ListVersions returns paginated versions for a portfolio, ordered by
// version_number DESC (newest first). pageToken is the version number of
// the last record from the previous page.
func (s *Store) ListVersions(portfolioID string, pageSize int, pageToken string) ([]BaselineVersionRecord, string, int, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	var totalSize int64
	if err := s.db.Model(&BaselineVersionRecord{}).Where("portfolio_id = ?", portfolioID).Count(&totalSize).Error; err != nil {
		return nil, "", 0, fmt.Errorf("count baseline versions: %w", err)
	}

	query := s.db.Where("portfolio_id = ?", portfolioID).Order("version_number DESC").Limit(pageSize + 1)
	if pageToken != "" {
		query = query.Where("version_number < ?", pageToken)
	}

	var records []BaselineVersionRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, "", 0, fmt.Errorf("list baseline versions: %w", err)
	}

	var nextToken string
	if len(records) > pageSize {
		nextToken = fmt.Sprintf("%d", records[pageSize-1].VersionNumber)
		records = records[:pageSize]
	}

	return records, nextToken, int(totalSize), nil
}

// GetModules returns all modules of a version ordered by module type.
func (s *Store) GetModules(versionID string) ([]BaselineModuleRecord, error) {
	var records []BaselineModuleRecord
	if err := s.db.Where("baseline_version_id = ?", versionID).Order("module_type ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list baseline modules: %w", err)
	}
	return records, nil
}

// GetModule retrieves one module of a version by type. Returns nil, nil
// if no record exists.
func (s *Store) GetModule(versionID string, moduleType ModuleType) (*BaselineModuleRecord, error) {
	var record BaselineModuleRecord
	err := s.db.Where("baseline_version_id = ? AND module_type = ?", versionID, string(moduleType)).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get baseline module: %w", err)
	}
	return &record, nil
}

// SaveModule persists a module's payload and cached validation state.
// Module edits are last-writer-wins at module granularity.
func (s *Store) SaveModule(record *BaselineModuleRecord) error {
	if err := s.db.Save(record).Error; err != nil {
		return fmt.Errorf("save baseline module: %w", err)
	}
	return nil
}

// UpdateChangeSummary sets the change summary of a draft version. Returns
// false if the version is not in draft (guarded update, no partial apply).
func (s *Store) UpdateChangeSummary(versionID, summary string) (bool, error) {
	result := s.db.Model(&BaselineVersionRecord{}).
		Where("id = ? AND status = ?", versionID, string(StatusDraft)).
		Update("change_summary", summary)
	if result.Error != nil {
		return false, fmt.Errorf("update change summary: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Transition applies a guarded status transition: the update only lands
// if the version is still in the expected source status. Returns false
// when the guard failed, which means a concurrent caller won the race.
func (s *Store) Transition(versionID string, from VersionStatus, updates map[string]any) (bool, error) {
	result := s.db.Model(&BaselineVersionRecord{}).
		Where("id = ? AND status = ?", versionID, string(from)).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("transition baseline version: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Publish atomically publishes a version: archives the previously active
// version (if any and different), marks the new version published with
// its content hash, and repoints the portfolio's active-baseline pointer.
// All three writes succeed or fail together; a partial application would
// leave two versions both looking "current" by different criteria.
// Returns false without side effects if the version was no longer in the
// expected source status or the portfolio's active pointer moved since
// the caller loaded it (concurrent publish).
func (s *Store) Publish(portfolioID, versionID string, from VersionStatus, previousActiveID, contentHash, actor string, now time.Time) (bool, error) {
	published := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if previousActiveID != "" && previousActiveID != versionID {
			result := tx.Model(&BaselineVersionRecord{}).
				Where("id = ? AND status = ?", previousActiveID, string(StatusPublished)).
				Update("status", string(StatusArchived))
			if result.Error != nil {
				return fmt.Errorf("archive previous version: %w", result.Error)
			}
		}

		result := tx.Model(&BaselineVersionRecord{}).
			Where("id = ? AND status = ?", versionID, string(from)).
			Updates(map[string]any{
				"status":       string(StatusPublished),
				"content_hash": contentHash,
				"published_by": actor,
				"published_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("publish version: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// Stale source status; roll the archive back too.
			return gorm.ErrRecordNotFound
		}

		// The repoint is guarded on the active pointer the caller saw.
		// A concurrent publish that already moved it rolls this whole
		// transaction back, including the version-status update above.
		repoint := tx.Model(&PortfolioRecord{}).Where("id = ?", portfolioID)
		if previousActiveID == "" {
			repoint = repoint.Where("active_baseline_version_id IS NULL")
		} else {
			repoint = repoint.Where("active_baseline_version_id = ?", previousActiveID)
		}
		result = repoint.Update("active_baseline_version_id", versionID)
		if result.Error != nil {
			return fmt.Errorf("repoint active baseline: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		published = true
		return nil
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}
	return published, nil
}

// DeleteDraftVersion removes a draft version and its modules in one
// transaction. Returns false when the version was not in draft anymore.
func (s *Store) DeleteDraftVersion(versionID string) (bool, error) {
	deleted := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND status = ?", versionID, string(StatusDraft)).
			Delete(&BaselineVersionRecord{})
		if result.Error != nil {
			return fmt.Errorf("delete baseline version: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("baseline_version_id = ?", versionID).
			Delete(&BaselineModuleRecord{}).Error; err != nil {
			return fmt.Errorf("delete baseline modules: %w", err)
		}
		deleted = true
		return nil
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}
	return deleted, nil
}
