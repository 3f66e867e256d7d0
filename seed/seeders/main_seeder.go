package seeders

import (
	"log"

	"gorm.io/gorm"

	"github.com/tutoo-mr/tutoo_core/model"
)

// MainSeeder coordinates all seeding operations
type MainSeeder struct {
	db *gorm.DB
}

func NewMainSeeder(db *gorm.DB) *MainSeeder {
	return &MainSeeder{db: db}
}

// SeedAll runs all seeders in the correct order
func (s *MainSeeder) SeedAll() error {
	log.Println("Starting database seeding...")

	if err := s.migrate(); err != nil {
		return err
	}

	courseSeeder := NewCourseSeeder(s.db)
	if err := courseSeeder.SeedCourses(); err != nil {
		log.Printf("Course seeding failed: %v", err)
		return err
	}

	demoSeeder := NewDemoSeeder(s.db)
	if err := demoSeeder.SeedDemoAccount(); err != nil {
		log.Printf("Demo account seeding failed: %v", err)
		return err
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

func (s *MainSeeder) migrate() error {
	return s.db.AutoMigrate(
		&model.User{},
		&model.ProfileRecord{},
		&model.ProgressEntry{},
		&model.CourseRecord{},
		&model.Conversation{},
	)
}

func (s *MainSeeder) SeedCoursesOnly() error {
	if err := s.migrate(); err != nil {
		return err
	}
	return NewCourseSeeder(s.db).SeedCourses()
}

func (s *MainSeeder) SeedDemoOnly() error {
	if err := s.migrate(); err != nil {
		return err
	}
	return NewDemoSeeder(s.db).SeedDemoAccount()
}
