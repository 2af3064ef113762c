package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/northpeak/logistics-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NumberSequenceRepository handles the atomic counters behind custom
// document ids. One counter row exists per (doc_type, year); orders and
// quotations count independently.
type NumberSequenceRepository struct {
	db *gorm.DB
}

// NewNumberSequenceRepository creates a new NumberSequenceRepository
func NewNumberSequenceRepository(db *gorm.DB) *NumberSequenceRepository {
	return &NumberSequenceRepository{db: db}
}

// NextNumber atomically retrieves and increments the counter for a
// doc type/year inside the caller's transaction, so the allocation
// commits or rolls back together with the row it numbers. The row is
// locked with SELECT FOR UPDATE; if no counter exists yet one is
// created starting at 1.
func (r *NumberSequenceRepository) NextNumber(ctx context.Context, tx *gorm.DB, docType domain.DocType, year int) (int, error) {
	var seq domain.NumberSequence
	var next int

	result := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("doc_type = ? AND year = ?", docType, year).
		First(&seq)

	if result.Error == gorm.ErrRecordNotFound {
		seq = domain.NumberSequence{
			DocType:    docType,
			Year:       year,
			LastNumber: 1,
		}
		if err := tx.WithContext(ctx).Create(&seq).Error; err != nil {
			return 0, fmt.Errorf("failed to create number sequence: %w", err)
		}
		return 1, nil
	}
	if result.Error != nil {
		return 0, fmt.Errorf("failed to get number sequence: %w", result.Error)
	}

	next = seq.LastNumber + 1
	if err := tx.WithContext(ctx).Model(&seq).Updates(map[string]interface{}{
		"last_number": next,
		"updated_at":  time.Now(),
	}).Error; err != nil {
		return 0, fmt.Errorf("failed to update number sequence: %w", err)
	}

	return next, nil
}

// Current retrieves the last used number without incrementing.
// Returns 0 if no counter exists for the doc type/year.
func (r *NumberSequenceRepository) Current(ctx context.Context, docType domain.DocType, year int) (int, error) {
	var seq domain.NumberSequence
	result := r.db.WithContext(ctx).
		Where("doc_type = ? AND year = ?", docType, year).
		First(&seq)

	if result.Error == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if result.Error != nil {
		return 0, fmt.Errorf("failed to get number sequence: %w", result.Error)
	}

	return seq.LastNumber, nil
}
