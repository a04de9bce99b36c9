// Package policy decides which roles may use which capabilities.
package policy

import (
	"college/internal/auth"
	"college/internal/model"
)

// Capability names an action guarded by role.
type Capability string

const (
	SelfMarkAttendance   Capability = "attendance:self-mark"
	ReadOwnAttendance    Capability = "attendance:read-own"
	MarkAnyAttendance    Capability = "attendance:mark-any"
	PostAnnouncement     Capability = "announcement:post"
	ReadAnnouncements    Capability = "announcement:read"
	ReadOwnGrades        Capability = "grades:read-own"
	ListStudents         Capability = "students:list"
	ViewTeacherDashboard Capability = "dashboard:teacher"
	ViewAdminDashboard   Capability = "dashboard:admin"
)

var staff = []model.Role{model.RoleTeacher, model.RoleFaculty, model.RoleAdmin}

var grants = map[Capability][]model.Role{
	SelfMarkAttendance:   {model.RoleStudent},
	ReadOwnAttendance:    {model.RoleStudent},
	MarkAnyAttendance:    staff,
	PostAnnouncement:     staff,
	ReadAnnouncements:    {model.RoleAdmin, model.RoleFaculty, model.RoleStudent, model.RoleTeacher},
	ReadOwnGrades:        {model.RoleStudent},
	ListStudents:         staff,
	ViewTeacherDashboard: {model.RoleTeacher, model.RoleFaculty},
	ViewAdminDashboard:   {model.RoleAdmin},
}

// Authorize reports whether p may use c. A nil principal and an unknown
// capability are always denied.
func Authorize(p *auth.Principal, c Capability) bool {
	if p == nil {
		return false
	}
	for _, r := range grants[c] {
		if r == p.Role {
			return true
		}
	}
	return false
}

// Roles returns the roles granted c.
func Roles(c Capability) []model.Role {
	return append([]model.Role(nil), grants[c]...)
}
