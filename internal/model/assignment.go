package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Assignment is a graded piece of coursework belonging to a student within a
// course. Grade is nil until marked; Weight scales its share of the course grade.
type Assignment struct {
	ID          uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Title       string     `json:"title" gorm:"size:255;not null"`
	Description string     `json:"description,omitempty" gorm:"type:text"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	Grade       *float64   `json:"grade,omitempty"`
	Weight      float64    `json:"weight" gorm:"not null;default:1"`
	CourseID    uuid.UUID  `json:"courseId" gorm:"type:char(36);not null;index"`
	StudentID   uuid.UUID  `json:"studentId" gorm:"type:char(36);not null;index"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	// Relations
	Course  *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	Student *User   `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// BeforeCreate sets the UUID before inserting the record.
func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
