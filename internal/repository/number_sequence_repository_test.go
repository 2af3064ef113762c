package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/northpeak/logistics-api/internal/domain"
	"github.com/northpeak/logistics-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func nextInTx(t *testing.T, db *gorm.DB, repo *repository.NumberSequenceRepository, docType domain.DocType, year int) int {
	t.Helper()

	var n int
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		n, err = repo.NextNumber(context.Background(), tx, docType, year)
		return err
	})
	require.NoError(t, err)
	return n
}

func TestNextNumberStartsAtOneAndIncrements(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewNumberSequenceRepository(db)

	assert.Equal(t, 1, nextInTx(t, db, repo, domain.DocTypeOrder, 2026))
	assert.Equal(t, 2, nextInTx(t, db, repo, domain.DocTypeOrder, 2026))
	assert.Equal(t, 3, nextInTx(t, db, repo, domain.DocTypeOrder, 2026))
}

func TestNextNumberCountsDocTypesIndependently(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewNumberSequenceRepository(db)

	assert.Equal(t, 1, nextInTx(t, db, repo, domain.DocTypeOrder, 2026))
	assert.Equal(t, 2, nextInTx(t, db, repo, domain.DocTypeOrder, 2026))
	assert.Equal(t, 1, nextInTx(t, db, repo, domain.DocTypeQuotation, 2026))
}

func TestNextNumberResetsPerYear(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewNumberSequenceRepository(db)

	assert.Equal(t, 1, nextInTx(t, db, repo, domain.DocTypeOrder, 2025))
	assert.Equal(t, 2, nextInTx(t, db, repo, domain.DocTypeOrder, 2025))
	assert.Equal(t, 1, nextInTx(t, db, repo, domain.DocTypeOrder, 2026))
}

func TestNextNumberRollsBackWithTransaction(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewNumberSequenceRepository(db)
	ctx := context.Background()

	nextInTx(t, db, repo, domain.DocTypeOrder, 2026)

	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := repo.NextNumber(ctx, tx, domain.DocTypeOrder, 2026); err != nil {
			return err
		}
		return gorm.ErrInvalidTransaction
	})
	require.Error(t, err)

	// The aborted allocation must not burn a number
	current, err := repo.Current(ctx, domain.DocTypeOrder, 2026)
	require.NoError(t, err)
	assert.Equal(t, 1, current)
	assert.Equal(t, 2, nextInTx(t, db, repo, domain.DocTypeOrder, 2026))
}

func TestCurrentReturnsZeroWhenUnused(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewNumberSequenceRepository(db)

	current, err := repo.Current(context.Background(), domain.DocTypeQuotation, 2026)
	require.NoError(t, err)
	assert.Equal(t, 0, current)
}

func TestNextNumberConcurrentAllocationsDistinct(t *testing.T) {
	db := openTestDB(t)
	repo := repository.NewNumberSequenceRepository(db)

	const workers = 10
	numbers := make(chan int, workers)
	errs := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var n int
			err := db.Transaction(func(tx *gorm.DB) error {
				var err error
				n, err = repo.NextNumber(context.Background(), tx, domain.DocTypeOrder, 2026)
				return err
			})
			if err != nil {
				errs <- err
				return
			}
			numbers <- n
		}()
	}
	wg.Wait()
	close(numbers)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	seen := make(map[int]bool, workers)
	for n := range numbers {
		assert.False(t, seen[n], "number %d allocated twice", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers)

	current, err := repo.Current(context.Background(), domain.DocTypeOrder, 2026)
	require.NoError(t, err)
	assert.Equal(t, workers, current)
}
