package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"catalog-feed-service/models"
)

// CatalogRepository defines data-access operations for feed sources,
// products, and variants.
type CatalogRepository interface {
	CreateSource(ctx context.Context, src *models.FeedSource) error
	FindSourceByID(ctx context.Context, id uint) (*models.FeedSource, error)
	FindSourceByURL(ctx context.Context, url string) (*models.FeedSource, error)
	ListSources(ctx context.Context) ([]models.FeedSource, error)
	ListSourcesByStatus(ctx context.Context, status string) ([]models.FeedSource, error)
	UpdateSourceStatus(ctx context.Context, id uint, status string) error
	FinishIngest(ctx context.Context, id uint, count int, next time.Time) error
	CountSourceProducts(ctx context.Context, id uint) (int64, error)
	DeleteSourceProducts(ctx context.Context, id uint) error
	DeleteSource(ctx context.Context, id uint) error
	SaveProduct(ctx context.Context, product *models.Product, variants []models.Variant) (int, error)
}

// GormCatalogRepository implements CatalogRepository using GORM.
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a new GormCatalogRepository.
func NewGormCatalogRepository(db *gorm.DB) CatalogRepository {
	return &GormCatalogRepository{db: db}
}

func (r *GormCatalogRepository) CreateSource(ctx context.Context, src *models.FeedSource) error {
	return r.db.WithContext(ctx).Create(src).Error
}

func (r *GormCatalogRepository) FindSourceByID(ctx context.Context, id uint) (*models.FeedSource, error) {
	var src models.FeedSource
	if err := r.db.WithContext(ctx).First(&src, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &src, nil
}

func (r *GormCatalogRepository) FindSourceByURL(ctx context.Context, url string) (*models.FeedSource, error) {
	var src models.FeedSource
	if err := r.db.WithContext(ctx).
		Where("url = ?", url).
		First(&src).Error; err != nil {
		return nil, err
	}
	return &src, nil
}

func (r *GormCatalogRepository) ListSources(ctx context.Context) ([]models.FeedSource, error) {
	var sources []models.FeedSource
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

func (r *GormCatalogRepository) ListSourcesByStatus(ctx context.Context, status string) ([]models.FeedSource, error) {
	var sources []models.FeedSource
	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("id").
		Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

func (r *GormCatalogRepository) UpdateSourceStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.FeedSource{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// FinishIngest records the outcome of a completed pass on the source row.
func (r *GormCatalogRepository) FinishIngest(ctx context.Context, id uint, count int, next time.Time) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&models.FeedSource{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"product_count": count,
			"last_update":   now,
			"next_update":   next,
		}).Error
}

func (r *GormCatalogRepository) CountSourceProducts(ctx context.Context, id uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("xml_url_id = ?", id).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormCatalogRepository) DeleteSourceProducts(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("product_id IN (?)",
				tx.Model(&models.Product{}).Select("id").Where("xml_url_id = ?", id)).
			Delete(&models.Variant{}).Error; err != nil {
			return err
		}
		return tx.Where("xml_url_id = ?", id).Delete(&models.Product{}).Error
	})
}

// DeleteSource removes the source's products and the source row in one
// transaction, so a failure leaves both in place.
func (r *GormCatalogRepository) DeleteSource(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("product_id IN (?)",
				tx.Model(&models.Product{}).Select("id").Where("xml_url_id = ?", id)).
			Delete(&models.Variant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("xml_url_id = ?", id).Delete(&models.Product{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.FeedSource{}, id).Error
	})
}

// SaveProduct writes one product and its variant set inside a single
// transaction scoped to that product. The product row is upserted by its feed
// id, the previous variant set is deleted, and the new set inserted. Each
// variant insert runs in a savepoint so one bad variant is skipped without
// poisoning the product's transaction. Returns how many variants were
// skipped.
func (r *GormCatalogRepository) SaveProduct(ctx context.Context, product *models.Product, variants []models.Variant) (int, error) {
	skipped := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(product).Error; err != nil {
			return err
		}

		if err := tx.Where("product_id = ?", product.ID).Delete(&models.Variant{}).Error; err != nil {
			return err
		}

		for i := range variants {
			variant := variants[i]
			if err := tx.Transaction(func(vtx *gorm.DB) error {
				return vtx.Create(&variant).Error
			}); err != nil {
				skipped++
			}
		}
		return nil
	})
	return skipped, err
}
