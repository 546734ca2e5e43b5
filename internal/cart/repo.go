package cart

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormRepo struct {
	DB *gorm.DB
}

func (r *GormRepo) Migrate(ctx context.Context) error {
	return r.DB.WithContext(ctx).AutoMigrate(&Item{})
}

func (r *GormRepo) Items(ctx context.Context, sessionID string) ([]Item, error) {
	var items []Item
	if err := r.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at, book_id").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) Add(ctx context.Context, item *Item) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Item{}).
			Where("session_id = ? AND book_id = ?", item.SessionID, item.BookID).
			Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("session_id = ? AND book_id = ?", item.SessionID, item.BookID).First(item).Error
		}
		return tx.Create(item).Error
	})
}

// SetQuantity reports false when the line does not exist.
func (r *GormRepo) SetQuantity(ctx context.Context, sessionID, bookID string, qty int) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&Item{}).
		Where("session_id = ? AND book_id = ?", sessionID, bookID).
		Update("quantity", qty)
	return res.RowsAffected > 0, res.Error
}

// RemoveOne decrements a line and deletes it once it reaches zero.
func (r *GormRepo) RemoveOne(ctx context.Context, sessionID, bookID string) (bool, *Item, error) {
	var item Item
	deleted := false

	if err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("session_id = ? AND book_id = ?", sessionID, bookID).
			First(&item).Error; err != nil {
			return err
		}
		if item.Quantity > 1 {
			if err := tx.Model(&item).Update("quantity", gorm.Expr("quantity - 1")).Error; err != nil {
				return err
			}
			return tx.Where("session_id = ? AND book_id = ?", sessionID, bookID).First(&item).Error
		}
		if err := tx.Delete(&item).Error; err != nil {
			return err
		}
		deleted = true
		return nil
	}); err != nil {
		return false, nil, err
	}
	return deleted, &item, nil
}

func (r *GormRepo) Remove(ctx context.Context, sessionID, bookID string) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("session_id = ? AND book_id = ?", sessionID, bookID).
		Delete(&Item{})
	return res.RowsAffected > 0, res.Error
}

func (r *GormRepo) Clear(ctx context.Context, sessionID string) error {
	return r.DB.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&Item{}).Error
}

func (r *GormRepo) Replace(ctx context.Context, sessionID string, items []Item) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&Item{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].SessionID = sessionID
		}
		return tx.Create(&items).Error
	})
}
