package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EnrollStatus is the lifecycle state of an enrollment.
type EnrollStatus string

const (
	EnrollPending  EnrollStatus = "PENDING"
	EnrollApproved EnrollStatus = "APPROVED"
	EnrollRejected EnrollStatus = "REJECTED"
)

// Valid reports enum membership.
func (s EnrollStatus) Valid() bool {
	switch s {
	case EnrollPending, EnrollApproved, EnrollRejected:
		return true
	}
	return false
}

// Enrollment links one student to one course. The (course, student) pair is unique.
type Enrollment struct {
	ID         uuid.UUID    `json:"id" gorm:"type:char(36);primaryKey"`
	CourseID   uuid.UUID    `json:"courseId" gorm:"type:char(36);not null;uniqueIndex:idx_course_student"`
	StudentID  uuid.UUID    `json:"studentId" gorm:"type:char(36);not null;uniqueIndex:idx_course_student;index"`
	Status     EnrollStatus `json:"status" gorm:"size:20;not null;default:'PENDING';index"`
	EnrolledAt time.Time    `json:"enrolledAt" gorm:"autoCreateTime"`
	UpdatedAt  time.Time    `json:"updatedAt"`

	// Relations
	Course  *Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	Student *User   `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// BeforeCreate sets the UUID before inserting the record.
func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Status == "" {
		e.Status = EnrollPending
	}
	return nil
}
