package migration

import (
	"chef-agent-api/entities"
	"fmt"
	"log"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")

	if err := db.AutoMigrate(&entities.User{}); err != nil {
		log.Printf("Error migrating user database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Thread{}, &entities.Message{}); err != nil {
		log.Printf("Error migrating thread database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.Recipe{}); err != nil {
		log.Printf("Error migrating recipe database: %v", err)
		return err
	}
	if err := db.AutoMigrate(&entities.AgentCheckpoint{}); err != nil {
		// the checkpoint store migrates its own table as well
		log.Printf("Error migrating agent checkpoint database: %v", err)
	}

	fmt.Println("Database migration complete")
	return nil
}
