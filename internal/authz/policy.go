// Package authz holds the pure authorization rules consulted by every
// resource service after identity attachment. Rules map (role, resource,
// action) to a decision; they touch no I/O and hold no state, so call sites
// must handle the denial path explicitly.
package authz

import (
	"github.com/google/uuid"

	"educrm/internal/auth"
	"educrm/internal/model"
)

// CourseVisibility is the decision for reading a single course.
type CourseVisibility int

const (
	// CourseHidden denies the read outright.
	CourseHidden CourseVisibility = iota
	// CourseReduced permits a reduced projection without enrollment or
	// assignment detail. Partial information is a policy outcome, not an error.
	CourseReduced
	// CourseFull permits the complete projection.
	CourseFull
)

// CanCreateCourse implements the role-gated creation rule for courses.
func CanCreateCourse(role model.Role) bool {
	return role == model.RoleLecturer || role == model.RoleAdmin
}

// CanMutateCourse implements the ownership rule: only the owning lecturer or
// an admin may update or delete a course.
func CanMutateCourse(p *auth.Principal, lecturerID uuid.UUID) bool {
	return p.Role == model.RoleAdmin || p.ID == lecturerID
}

// CourseRead narrows visibility of a single course. Lecturers see only their
// own courses in full; students not enrolled get the reduced projection.
func CourseRead(p *auth.Principal, lecturerID uuid.UUID, enrolled bool) CourseVisibility {
	switch p.Role {
	case model.RoleAdmin:
		return CourseFull
	case model.RoleLecturer:
		if p.ID == lecturerID {
			return CourseFull
		}
		return CourseHidden
	case model.RoleStudent:
		if enrolled {
			return CourseFull
		}
		return CourseReduced
	}
	return CourseHidden
}

// CanCreateUser implements the role-gated creation rule for user records.
func CanCreateUser(role model.Role) bool {
	return role == model.RoleAdmin
}

// SelfOrAdmin implements the self-or-admin rule used by profile read, update
// and password-change operations.
func SelfOrAdmin(p *auth.Principal, target uuid.UUID) bool {
	return p.Role == model.RoleAdmin || p.ID == target
}

// CanChangeRole restricts role reassignment to admins, even on oneself.
func CanChangeRole(role model.Role) bool {
	return role == model.RoleAdmin
}

// CanDeleteUser restricts user deletion to admins.
func CanDeleteUser(role model.Role) bool {
	return role == model.RoleAdmin
}

// CanEnrollStudent decides whether the principal may create an enrollment for
// the given student. Students may enroll only themselves.
func CanEnrollStudent(p *auth.Principal, studentID uuid.UUID) bool {
	if p.Role == model.RoleStudent {
		return p.ID == studentID
	}
	return true
}

// CanReadEnrollment implements the ownership rule for a single enrollment:
// the enrolled student, the lecturer owning the course, or an admin.
func CanReadEnrollment(p *auth.Principal, studentID, courseLecturerID uuid.UUID) bool {
	switch p.Role {
	case model.RoleAdmin:
		return true
	case model.RoleLecturer:
		return p.ID == courseLecturerID
	case model.RoleStudent:
		return p.ID == studentID
	}
	return false
}

// CanUpdateEnrollment gates status changes: students never, lecturers only
// for their own courses, admins always.
func CanUpdateEnrollment(p *auth.Principal, courseLecturerID uuid.UUID) bool {
	switch p.Role {
	case model.RoleAdmin:
		return true
	case model.RoleLecturer:
		return p.ID == courseLecturerID
	}
	return false
}

// CanDeleteEnrollment mirrors CanReadEnrollment: the student may withdraw,
// the owning lecturer or an admin may remove.
func CanDeleteEnrollment(p *auth.Principal, studentID, courseLecturerID uuid.UUID) bool {
	return CanReadEnrollment(p, studentID, courseLecturerID)
}
