package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Course is owned by exactly one lecturer. A lecturer cannot reuse a title.
type Course struct {
	ID           uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Title        string    `json:"title" gorm:"size:255;not null;uniqueIndex:idx_lecturer_title"`
	Credits      int       `json:"credits" gorm:"not null"`
	SyllabusPath string    `json:"syllabusPath,omitempty" gorm:"size:512"`
	LecturerID   uuid.UUID `json:"lecturerId" gorm:"type:char(36);not null;uniqueIndex:idx_lecturer_title;index"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// Relations
	Lecturer    *User        `json:"lecturer,omitempty" gorm:"foreignKey:LecturerID"`
	Enrollments []Enrollment `json:"enrollments,omitempty" gorm:"foreignKey:CourseID"`
	Assignments []Assignment `json:"assignments,omitempty" gorm:"foreignKey:CourseID"`
}

// BeforeCreate sets the UUID before inserting the record.
func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
