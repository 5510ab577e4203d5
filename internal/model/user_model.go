package model

type User struct {
	Id    string `gorm:"type:varchar(255);primaryKey"`
	Name  string `gorm:"type:varchar(255)"`
	Email string `gorm:"type:varchar(255);uniqueIndex"`
}

func (User) TableName() string {
	return "users"
}
