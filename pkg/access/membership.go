package access

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PortfolioMemberRecord relates a user to a portfolio with an access level.
type PortfolioMemberRecord struct {
	ID          string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	PortfolioID string    `gorm:"column:portfolio_id;uniqueIndex:idx_member_unique,priority:1;not null"`
	UserID      string    `gorm:"column:user_id;uniqueIndex:idx_member_unique,priority:2;index:idx_member_user;not null"`
	AccessLevel string    `gorm:"column:access_level;not null"`
	GrantedBy   string    `gorm:"column:granted_by"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the GORM table name.
func (PortfolioMemberRecord) TableName() string { return "portfolio_members" }

// MembershipStore provides database operations for portfolio memberships.
type MembershipStore struct {
	db *gorm.DB
}

// NewMembershipStore creates a new MembershipStore.
func NewMembershipStore(db *gorm.DB) *MembershipStore {
	return &MembershipStore{db: db}
}

// AutoMigrate creates or updates the portfolio_members table.
func (s *MembershipStore) AutoMigrate() error {
	if err := s.db.AutoMigrate(&PortfolioMemberRecord{}); err != nil {
		return fmt.Errorf("auto-migrate portfolio_members: %w", err)
	}
	return nil
}

// Get retrieves the membership of a user on a portfolio. Returns nil, nil
// if the user has no membership.
func (s *MembershipStore) Get(portfolioID, userID string) (*PortfolioMemberRecord, error) {
	var record PortfolioMemberRecord
	err := s.db.Where("portfolio_id = ? AND user_id = ?", portfolioID, userID).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get portfolio membership: %w", err)
	}
	return &record, nil
}

// Grant creates or updates a membership. The access level must be one of
// the storable membership levels; admin access is derived from company
// role and never stored.
func (s *MembershipStore) Grant(record *PortfolioMemberRecord) error {
	level := AccessLevel(record.AccessLevel)
	valid := false
	for _, l := range MembershipLevels {
		if l == level {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid membership access level %q", record.AccessLevel)
	}

	existing, err := s.Get(record.PortfolioID, record.UserID)
	if err != nil {
		return err
	}
	if existing != nil {
		existing.AccessLevel = record.AccessLevel
		existing.GrantedBy = record.GrantedBy
		if err := s.db.Save(existing).Error; err != nil {
			return fmt.Errorf("update portfolio membership: %w", err)
		}
		*record = *existing
		return nil
	}

	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("create portfolio membership: %w", err)
	}
	return nil
}

// Revoke removes a user's membership on a portfolio.
func (s *MembershipStore) Revoke(portfolioID, userID string) error {
	if err := s.db.Where("portfolio_id = ? AND user_id = ?", portfolioID, userID).
		Delete(&PortfolioMemberRecord{}).Error; err != nil {
		return fmt.Errorf("revoke portfolio membership: %w", err)
	}
	return nil
}

// ListByPortfolio returns all memberships of a portfolio.
func (s *MembershipStore) ListByPortfolio(portfolioID string) ([]PortfolioMemberRecord, error) {
	var records []PortfolioMemberRecord
	if err := s.db.Where("portfolio_id = ?", portfolioID).Order("user_id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list portfolio memberships: %w", err)
	}
	return records, nil
}
