package seeders

import (
	"encoding/json"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/tutoo-mr/tutoo_core/model"
	"github.com/tutoo-mr/tutoo_core/shared"
)

// CourseSeeder loads the starter course catalog
type CourseSeeder struct {
	db *gorm.DB
}

func NewCourseSeeder(db *gorm.DB) *CourseSeeder {
	return &CourseSeeder{db: db}
}

func (s *CourseSeeder) SeedCourses() error {
	courses := s.getStarterCourses()

	for _, course := range courses {
		var existing model.CourseRecord
		if err := s.db.Where("id = ?", course.ID).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				payload, merr := json.Marshal(&course)
				if merr != nil {
					return merr
				}

				record := model.CourseRecord{
					ID:        course.ID,
					Subject:   course.Subject,
					CreatedBy: "seed",
					Payload:   payload,
					CreatedAt: time.Now(),
					UpdatedAt: time.Now(),
				}
				if err := s.db.Create(&record).Error; err != nil {
					log.Printf("Error creating course %s: %v", course.Title, err)
					return err
				}
				log.Printf("Created course: %s", course.Title)
			} else {
				log.Printf("Error checking course %s: %v", course.Title, err)
				return err
			}
		} else {
			log.Printf("Course %s already exists, skipping", course.Title)
		}
	}

	log.Println("Course seeding completed successfully")
	return nil
}

// getStarterCourses returns the primary-school catalog shipped with new
// installs, one unlocked course per subject.
func (s *CourseSeeder) getStarterCourses() []model.Course {
	return []model.Course{
		{
			ID:            "course_math_additions",
			Subject:       "math",
			Title:         "Les Additions Magiques",
			Description:   "Apprends à additionner avec des jeux et des défis amusants.",
			EstimatedTime: "2 heures",
			AgeGroup:      "6-8 ans",
			Unlocked:      true,
			Lessons: []model.Lesson{
				{
					ID:       "lesson_math_add_1",
					Title:    "Compter jusqu'à 10",
					Type:     shared.LessonTypeVideo,
					Subject:  "math",
					XPReward: 50,
					Duration: "10 min",
				},
				{
					ID:            "lesson_math_add_2",
					Title:         "Additionner des petits nombres",
					Type:          shared.LessonTypeInteractive,
					Subject:       "math",
					XPReward:      75,
					Duration:      "15 min",
					Prerequisites: []string{"lesson_math_add_1"},
				},
				{
					ID:            "lesson_math_add_3",
					Title:         "Quiz des additions",
					Type:          shared.LessonTypeQuiz,
					Subject:       "math",
					XPReward:      100,
					Duration:      "10 min",
					Prerequisites: []string{"lesson_math_add_2"},
				},
			},
		},
		{
			ID:            "course_french_alphabet",
			Subject:       "french",
			Title:         "L'Alphabet en Chansons",
			Description:   "Découvre les lettres et leurs sons en chantant.",
			EstimatedTime: "3 heures",
			AgeGroup:      "6-8 ans",
			Unlocked:      true,
			Lessons: []model.Lesson{
				{
					ID:       "lesson_fr_alpha_1",
					Title:    "Les voyelles",
					Type:     shared.LessonTypeVideo,
					Subject:  "french",
					XPReward: 50,
					Duration: "12 min",
				},
				{
					ID:            "lesson_fr_alpha_2",
					Title:         "Les consonnes",
					Type:          shared.LessonTypeVideo,
					Subject:       "french",
					XPReward:      50,
					Duration:      "12 min",
					Prerequisites: []string{"lesson_fr_alpha_1"},
				},
				{
					ID:            "lesson_fr_alpha_3",
					Title:         "Écrire mes premières lettres",
					Type:          shared.LessonTypeExercise,
					Subject:       "french",
					XPReward:      100,
					Duration:      "20 min",
					Prerequisites: []string{"lesson_fr_alpha_2"},
				},
			},
		},
		{
			ID:            "course_science_water",
			Subject:       "science",
			Title:         "Le Voyage de l'Eau",
			Description:   "Suis une goutte d'eau du fleuve Sénégal jusqu'aux nuages.",
			EstimatedTime: "2 heures",
			AgeGroup:      "8-10 ans",
			Unlocked:      true,
			Lessons: []model.Lesson{
				{
					ID:       "lesson_sci_water_1",
					Title:    "Les états de l'eau",
					Type:     shared.LessonTypeVideo,
					Subject:  "science",
					XPReward: 60,
					Duration: "15 min",
				},
				{
					ID:            "lesson_sci_water_2",
					Title:         "Le cycle de l'eau",
					Type:          shared.LessonTypeInteractive,
					Subject:       "science",
					XPReward:      90,
					Duration:      "20 min",
					Prerequisites: []string{"lesson_sci_water_1"},
				},
			},
		},
		{
			ID:            "course_history_mauritania",
			Subject:       "history",
			Title:         "Trésors de Mauritanie",
			Description:   "Découvre Chinguetti, Oualata et les grandes caravanes du désert.",
			EstimatedTime: "2 heures",
			AgeGroup:      "8-10 ans",
			Unlocked:      true,
			Lessons: []model.Lesson{
				{
					ID:       "lesson_hist_mr_1",
					Title:    "Les villes anciennes",
					Type:     shared.LessonTypeVideo,
					Subject:  "history",
					XPReward: 60,
					Duration: "15 min",
				},
				{
					ID:            "lesson_hist_mr_2",
					Title:         "Les routes des caravanes",
					Type:          shared.LessonTypeQuiz,
					Subject:       "history",
					XPReward:      80,
					Duration:      "10 min",
					Prerequisites: []string{"lesson_hist_mr_1"},
				},
			},
		},
		{
			ID:            "course_geo_sahara",
			Subject:       "geography",
			Title:         "Du Sahara à l'Océan",
			Description:   "Explore les paysages de la Mauritanie, du désert à la côte.",
			EstimatedTime: "90 minutes",
			AgeGroup:      "8-10 ans",
			Unlocked:      true,
			Lessons: []model.Lesson{
				{
					ID:       "lesson_geo_mr_1",
					Title:    "Lire une carte",
					Type:     shared.LessonTypeInteractive,
					Subject:  "geography",
					XPReward: 70,
					Duration: "15 min",
				},
				{
					ID:            "lesson_geo_mr_2",
					Title:         "Les régions de Mauritanie",
					Type:          shared.LessonTypeQuiz,
					Subject:       "geography",
					XPReward:      80,
					Duration:      "12 min",
					Prerequisites: []string{"lesson_geo_mr_1"},
				},
			},
		},
	}
}
