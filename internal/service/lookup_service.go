package service

import (
	"context"

	"github.com/noah-isme/sma-dashboard-gateway/internal/models"
	appErrors "github.com/noah-isme/sma-dashboard-gateway/pkg/errors"
)

type classLookup interface {
	List(ctx context.Context) ([]models.ClassSection, error)
	ListStudents(ctx context.Context, classID int64) ([]models.Student, error)
	ListForTeacher(ctx context.Context, teacherUserID string) ([]models.ClassSection, error)
}

type studentLookup interface {
	List(ctx context.Context) ([]models.Student, error)
	ListForTeacher(ctx context.Context, teacherUserID string) ([]models.Student, error)
}

type teacherLookup interface {
	List(ctx context.Context) ([]models.Teacher, error)
}

type courseLookup interface {
	List(ctx context.Context, classID *int64) ([]models.Course, error)
}

// LookupService serves the reference lists behind the dashboard pickers. Teachers only see the
// classes and students they teach.
type LookupService struct {
	classes  classLookup
	students studentLookup
	teachers teacherLookup
	courses  courseLookup
}

// NewLookupService constructs a LookupService.
func NewLookupService(classes classLookup, students studentLookup, teachers teacherLookup, courses courseLookup) *LookupService {
	return &LookupService{classes: classes, students: students, teachers: teachers, courses: courses}
}

// Classes lists the classes visible to the caller.
func (s *LookupService) Classes(ctx context.Context, principal models.Principal) ([]models.ClassSection, error) {
	if principal.Role == models.RoleTeacher {
		if principal.UserID == "" {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "teacher identity missing from token")
		}
		return s.classes.ListForTeacher(ctx, principal.UserID)
	}
	return s.classes.List(ctx)
}

// ClassStudents lists the students enrolled in a class.
func (s *LookupService) ClassStudents(ctx context.Context, classID int64) ([]models.Student, error) {
	if classID <= 0 {
		return nil, appErrors.Validation("class id is required")
	}
	return s.classes.ListStudents(ctx, classID)
}

// Students lists the students visible to the caller.
func (s *LookupService) Students(ctx context.Context, principal models.Principal) ([]models.Student, error) {
	if principal.Role == models.RoleTeacher {
		if principal.UserID == "" {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "teacher identity missing from token")
		}
		return s.students.ListForTeacher(ctx, principal.UserID)
	}
	return s.students.List(ctx)
}

// Teachers lists all teachers.
func (s *LookupService) Teachers(ctx context.Context) ([]models.Teacher, error) {
	return s.teachers.List(ctx)
}

// Courses lists courses, optionally those taught in one class.
func (s *LookupService) Courses(ctx context.Context, classID *int64) ([]models.Course, error) {
	return s.courses.List(ctx, classID)
}
