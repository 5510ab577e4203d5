package specification

import "gorm.io/gorm"

// Connected keeps services that finished the connect flow.
type Connected struct{}

func (s Connected) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("connection_id IS NOT NULL AND connection_id <> ''")
}
