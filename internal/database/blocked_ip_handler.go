package database

import (
	"context"
	"fmt"

	"ipdnb/internal/domain"
)

// IsBlocked reports whether a record with exactly this IP string exists.
func (s *BlockStore) IsBlocked(ctx context.Context, ip string) (bool, error) {
	if s == nil || s.db == nil {
		return false, ErrNotInitialised
	}

	var count int64
	err := s.db.WithContext(ctx).
		Model(&domain.BlockedIP{}).
		Where("ip = ?", ip).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("query blocked ip %s: %w", ip, err)
	}
	return count > 0, nil
}

// Insert appends a record. It does not check for an existing row with the
// same IP; callers rely on IsBlocked beforehand.
func (s *BlockStore) Insert(ctx context.Context, record *domain.BlockedIP) error {
	if s == nil || s.db == nil {
		return ErrNotInitialised
	}
	if record == nil || record.IP == "" {
		return fmt.Errorf("insert blocked ip: empty record")
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("insert blocked ip %s: %w", record.IP, err)
	}
	return nil
}

// List returns every stored record in insertion order.
func (s *BlockStore) List(ctx context.Context) ([]domain.BlockedIP, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialised
	}

	var records []domain.BlockedIP
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list blocked ips: %w", err)
	}
	return records, nil
}

// Count returns how many rows hold the given IP, duplicates included.
func (s *BlockStore) Count(ctx context.Context, ip string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, ErrNotInitialised
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.BlockedIP{}).Where("ip = ?", ip).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count blocked ip %s: %w", ip, err)
	}
	return count, nil
}
