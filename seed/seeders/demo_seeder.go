package seeders

import (
	"encoding/json"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/tutoo-mr/tutoo_core/gamification"
	"github.com/tutoo-mr/tutoo_core/model"
	"github.com/tutoo-mr/tutoo_core/shared"
)

// DemoSeeder creates the demo account used in classrooms without
// individual accounts.
type DemoSeeder struct {
	db *gorm.DB
}

const (
	demoEmail    = "demo@tutoo.mr"
	demoPassword = "demo123"
	demoNickname = "Démo"
	demoUserID   = "user_demo"
)

func NewDemoSeeder(db *gorm.DB) *DemoSeeder {
	return &DemoSeeder{db: db}
}

func (s *DemoSeeder) SeedDemoAccount() error {
	var existing model.User
	if err := s.db.Where("email = ?", demoEmail).First(&existing).Error; err == nil {
		log.Printf("Demo account %s already exists, skipping", demoEmail)
		return nil
	} else if err != gorm.ErrRecordNotFound {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	user := model.User{
		ID:        demoUserID,
		Email:     demoEmail,
		Nickname:  demoNickname,
		UserType:  shared.UserTypeStudent,
		Password:  string(hashed),
		LastLogin: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.Create(&user).Error; err != nil {
		return err
	}

	profile := gamification.NewProfile(demoUserID, demoNickname, shared.UserTypeStudent, now)
	payload, err := json.Marshal(&profile)
	if err != nil {
		return err
	}

	if err := s.db.Create(&model.ProfileRecord{
		UserID:    demoUserID,
		Payload:   payload,
		UpdatedAt: now,
	}).Error; err != nil {
		return err
	}

	log.Printf("Created demo account: %s", demoEmail)
	return nil
}
