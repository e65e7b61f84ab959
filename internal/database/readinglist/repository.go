// Package readinglist provides database operations for per-user
// reading-list entries.
//
// Each (user, novel) pair has at most one entry, enforced by a unique
// index; Upsert relies on that invariant so at most one row is ever
// affected by an add.
//
// # Usage
//
//	repo := readinglist.NewRepository(db)
//	entry, err := repo.Upsert(userID, novelID, entities.ReadingStatusReading, nil, "")
package readinglist

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/dkovalev/novelshelf/internal/entities"
)

// Repository handles all reading-list database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new reading-list repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert creates the entry for (userID, novelID) or overwrites the
// existing one with the given status, rating and review, refreshing
// updated_at. An empty status falls back to "Want to Read".
// The whole operation runs in one transaction.
func (r *Repository) Upsert(userID, novelID uint, status entities.ReadingStatus, rating *int, review string) (*entities.ReadingListEntry, error) {
	if status == "" {
		status = entities.ReadingStatusWantToRead
	}

	var entry entities.ReadingListEntry
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND novel_id = ?", userID, novelID).First(&entry)
		if result.Error != nil {
			if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
				return result.Error
			}
			entry = entities.ReadingListEntry{
				UserID:  userID,
				NovelID: novelID,
				Status:  status,
				Rating:  rating,
				Review:  review,
			}
			return tx.Create(&entry).Error
		}

		entry.Status = status
		entry.Rating = rating
		entry.Review = review
		entry.UpdatedAt = time.Now()
		// Save with explicit column list so a nil rating clears the column.
		return tx.Model(&entry).Select("status", "rating", "review", "updated_at").
			Updates(map[string]any{
				"status":     entry.Status,
				"rating":     entry.Rating,
				"review":     entry.Review,
				"updated_at": entry.UpdatedAt,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Remove deletes the entry for (userID, novelID) if present. It
// reports whether a row was removed; removing an absent entry is a
// no-op, not an error.
func (r *Repository) Remove(userID, novelID uint) (bool, error) {
	result := r.db.Where("user_id = ? AND novel_id = ?", userID, novelID).
		Delete(&entities.ReadingListEntry{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Get returns the caller's entry for a novel, or nil without error
// when the novel is not on their list.
func (r *Repository) Get(userID, novelID uint) (*entities.ReadingListEntry, error) {
	var entry entities.ReadingListEntry
	err := r.db.Preload("Novel").
		Where("user_id = ? AND novel_id = ?", userID, novelID).First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// ListForUser fetches the user's entries, optionally restricted to
// one status, ordered by updated_at descending so the most recently
// touched entries come first.
func (r *Repository) ListForUser(userID uint, statusFilter entities.ReadingStatus) ([]entities.ReadingListEntry, error) {
	q := r.db.Preload("Novel").Where("user_id = ?", userID)
	if statusFilter != "" {
		q = q.Where("status = ?", statusFilter)
	}

	var entries []entities.ReadingListEntry
	err := q.Order("updated_at DESC").Find(&entries).Error
	return entries, err
}

// GroupByStatus buckets entries by status, preserving their order
// within each bucket. Only statuses actually present appear as keys;
// the view layer renders the remaining canonical statuses as empty.
func GroupByStatus(entries []entities.ReadingListEntry) map[entities.ReadingStatus][]entities.ReadingListEntry {
	grouped := make(map[entities.ReadingStatus][]entities.ReadingListEntry)
	for _, entry := range entries {
		grouped[entry.Status] = append(grouped[entry.Status], entry)
	}
	return grouped
}

// CountForUser returns the number of entries on the user's list.
func (r *Repository) CountForUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.ReadingListEntry{}).
		Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
