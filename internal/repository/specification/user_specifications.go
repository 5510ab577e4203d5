package specification

import "gorm.io/gorm"

// UserOwnedBy restricts rows to one owner.
type UserOwnedBy struct {
	UserID string
}

func (s UserOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}
