// Package novels provides read access to the novel catalog.
//
// The catalog is seeded once and read-only at runtime: there are no
// user-facing create/update/delete operations on novels.
//
// # Usage
//
//	repo := novels.NewRepository(db)
//	recent, err := repo.Recent(6)
package novels

import (
	"errors"
	"sort"

	"gorm.io/gorm"

	"github.com/dkovalev/novelshelf/internal/entities"
)

// ErrNovelNotFound is returned when a novel id does not exist.
var ErrNovelNotFound = errors.New("novel not found")

// Repository handles all catalog database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Recent returns up to limit novels, newest-created first. Creation
// ties are broken by insertion order (higher id first).
func (r *Repository) Recent(limit int) ([]entities.Novel, error) {
	var novels []entities.Novel
	err := r.db.Order("created_at DESC, id DESC").Limit(limit).Find(&novels).Error
	return novels, err
}

// Search filters the catalog by a free-text query and a tag filter,
// composed with AND when both are supplied. The text query matches a
// substring of title or author; the tag filter matches a substring of
// the raw tags field, so "Fantasy" also matches "Fantasy Romance".
// Results are ordered by title ascending.
func (r *Repository) Search(query, tagFilter string) ([]entities.Novel, error) {
	q := r.db.Model(&entities.Novel{})

	if query != "" {
		pattern := "%" + query + "%"
		q = q.Where("title LIKE ? OR author LIKE ?", pattern, pattern)
	}
	if tagFilter != "" {
		q = q.Where("tags LIKE ?", "%"+tagFilter+"%")
	}

	var novels []entities.Novel
	err := q.Order("title ASC").Find(&novels).Error
	return novels, err
}

// GetByID fetches a single novel, returning ErrNovelNotFound for an
// unknown id.
func (r *Repository) GetByID(id uint) (*entities.Novel, error) {
	var novel entities.Novel
	err := r.db.First(&novel, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNovelNotFound
		}
		return nil, err
	}
	return &novel, nil
}

// AllTags returns the distinct tag labels across the whole catalog,
// trimmed and sorted ascending. The set is computed over every novel,
// not just a filtered result, so the filter UI always offers the full
// vocabulary.
func (r *Repository) AllTags() ([]string, error) {
	var novels []entities.Novel
	if err := r.db.Select("tags").Find(&novels).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var tags []string
	for _, novel := range novels {
		for _, tag := range novel.TagList() {
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// Count returns the number of novels in the catalog.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Novel{}).Count(&count).Error
	return count, err
}
