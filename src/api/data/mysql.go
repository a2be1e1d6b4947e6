package data

import (
	"log"

	"github.com/civicworks/legisrev/src/api/types"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func MustMySQL(dsn string) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	return db
}

// Migrate creates or updates the schema and makes sure the settings the API
// reads at runtime have a row to read.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&types.Setting{},
		&types.User{},
		&types.Bill{},
		&types.Article{},
		&types.Proposal{},
		&types.Vote{},
		&types.Comment{},
	); err != nil {
		return err
	}

	defaults := []types.Setting{
		{Name: "registration_open", Value: "true"},
		{Name: "site_url", Value: "http://localhost:3000"},
	}
	for _, s := range defaults {
		var row types.Setting
		if err := db.Where("name = ?", s.Name).Attrs(s).FirstOrCreate(&row).Error; err != nil {
			return err
		}
	}
	return nil
}
