package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketpaper/quote-api/internal/domain"
	"gorm.io/gorm"
)

type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

func (r *QuoteRepository) Create(ctx context.Context, quote *domain.Quote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *QuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	var quote domain.Quote
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// Update saves the quote header and replaces its line items in one
// transaction.
func (r *QuoteRepository) Update(ctx context.Context, quote *domain.Quote) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", quote.ID).Delete(&domain.LineItem{}).Error; err != nil {
			return err
		}
		items := quote.Items
		quote.Items = nil
		if err := tx.Omit("Items").Save(quote).Error; err != nil {
			quote.Items = items
			return err
		}
		for i := range items {
			items[i].ID = uuid.Nil
			items[i].QuoteID = quote.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				quote.Items = items
				return err
			}
		}
		quote.Items = items
		return nil
	})
}

func (r *QuoteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", id).Delete(&domain.LineItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Quote{}, "id = ?", id).Error
	})
}

func (r *QuoteRepository) List(ctx context.Context, filter domain.QuoteFilter) ([]domain.Quote, int64, error) {
	var quotes []domain.Quote
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Quote{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})

	if filter.DealID != "" {
		query = query.Where("deal_id = ?", filter.DealID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.PageSize
	err := query.Offset(offset).Limit(filter.PageSize).Order("created_at DESC").Find(&quotes).Error

	return quotes, total, err
}
