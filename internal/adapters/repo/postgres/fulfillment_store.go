package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cratey/cratey/internal/domain"
)

type FulfillmentStore struct{ db *gorm.DB }

func NewFulfillmentStore(db *gorm.DB) *FulfillmentStore { return &FulfillmentStore{db: db} }

// Commit writes one fulfillment in a single transaction. The unit is reserved
// with a conditional increment so two deliveries can never both take the last
// edition; the library row relies on idx_library_items_buyer_product so a
// racing duplicate becomes a no-op insert and rolls the whole unit back.
func (s *FulfillmentStore) Commit(ctx context.Context, f *domain.Fulfillment) error {
	if f == nil || f.Order == nil || f.Item == nil || f.Product == nil {
		return errors.New("incomplete fulfillment")
	}
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p := f.Product

		q := tx.Model(&domain.Product{}).Where("id = ?", p.ID)
		if p.IsLimited() {
			q = q.Where("total_sales < edition_limit")
		}
		res := q.Updates(map[string]any{
			"total_sales":         gorm.Expr("total_sales + 1"),
			"total_revenue_cents": gorm.Expr("total_revenue_cents + ?", f.Order.AmountCents),
			"updated_at":          now,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if p.IsLimited() {
				return domain.ErrSoldOut
			}
			return domain.ErrNotFound
		}

		var sales int
		if err := tx.Model(&domain.Product{}).Select("total_sales").Where("id = ?", p.ID).Row().Scan(&sales); err != nil {
			return err
		}
		if p.IsLimited() {
			n := sales
			f.Order.EditionNumber = &n
			f.Item.EditionNumber = &n
		}

		if err := tx.Create(f.Order).Error; err != nil {
			return err
		}

		res = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "buyer_email"}, {Name: "product_id"}},
			DoNothing: true,
		}).Create(f.Item)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrAlreadyOwned
		}

		if err := tx.Model(&domain.Artist{}).Where("id = ?", p.ArtistID).Updates(map[string]any{
			"total_sales":         gorm.Expr("total_sales + 1"),
			"total_revenue_cents": gorm.Expr("total_revenue_cents + ?", f.Order.ArtistPayoutCents),
			"updated_at":          now,
		}).Error; err != nil {
			return err
		}

		p.TotalSales = sales
		p.TotalRevenueCents += f.Order.AmountCents
		return nil
	})
}
