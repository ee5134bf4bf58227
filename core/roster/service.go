package roster

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/class"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/core/user"
)

// Row is one student line of an external roster.
type Row struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Class    string `json:"class"`
	Teacher  string `json:"teacher"` // teacher email
	Level    string `json:"level"`
	Schedule string `json:"schedule"`
}

// Report summarizes an import.
type Report struct {
	ClassesCreated   int      `json:"classesCreated"`
	ClassesReused    int      `json:"classesReused"`
	StudentsEnrolled int      `json:"studentsEnrolled"`
	Skipped          []string `json:"skipped"`
}

// DefaultStages are given to the classes created by an import.
var DefaultStages = []class.NewStage{
	{Name: "1st stage", MaxPoints: 30},
	{Name: "2nd stage", MaxPoints: 30},
	{Name: "3rd stage", MaxPoints: 40},
}

// Service imports rosters into classes, students and enrollments.
type Service struct {
	classSvc *class.Service
	stuSvc   *student.Service
	usrRepo  user.Repository
	logger   core.Logger
}

func NewService(classSvc *class.Service, stuSvc *student.Service, usrRepo user.Repository, logger core.Logger) *Service {
	return &Service{classSvc: classSvc, stuSvc: stuSvc, usrRepo: usrRepo, logger: logger}
}

// Group is the rows of one roster class.
type Group struct {
	Name string
	Rows []Row
}

// GroupByClass aggregates rows by class name (case-insensitive), keeping first-seen order.
func GroupByClass(rows []Row) []Group {
	idx := make(map[string]int)
	groups := make([]Group, 0)
	for _, r := range rows {
		name := core.CleanString(r.Class)
		if name == "" {
			continue
		}
		key := core.CleanString(name, true /* lower */)
		i, ok := idx[key]
		if !ok {
			i = len(groups)
			idx[key] = i
			groups = append(groups, Group{Name: name})
		}
		groups[i].Rows = append(groups[i].Rows, r)
	}
	return groups
}

// Import creates (or reuses by name) one class per roster class and enrolls its students.
// Students are deduplicated by email. Rows that cannot be imported are reported, not fatal.
// Classes are assigned to the row's teacher when it is a known staff user, otherwise to fallbackTeacherID.
func (svc *Service) Import(ctx context.Context, rows []Row, fallbackTeacherID string) (Report, error) {
	rep := Report{Skipped: []string{}}

	existing, err := svc.classSvc.List(ctx)
	if err != nil {
		return rep, errors.Wrap(err, "listing classes")
	}
	byName := make(map[string]class.ClassGroup, len(existing))
	for _, c := range existing {
		byName[core.CleanString(c.Name, true /* lower */)] = c
	}

	for _, g := range GroupByClass(rows) {
		first := g.Rows[0]
		c, ok := byName[core.CleanString(g.Name, true /* lower */)]
		if ok {
			rep.ClassesReused++
		} else {
			c, err = svc.classSvc.Create(ctx, class.NewClass{
				Name:      g.Name,
				Level:     first.Level,
				Schedule:  first.Schedule,
				TeacherID: svc.teacherID(ctx, first.Teacher, fallbackTeacherID),
				Stages:    append([]class.NewStage(nil), DefaultStages...),
			})
			if err != nil {
				if core.IsValidationError(err) {
					rep.Skipped = append(rep.Skipped, fmt.Sprintf("class %q: %v", g.Name, err))
					continue
				}
				return rep, errors.Wrap(err, "creating class")
			}
			byName[core.CleanString(c.Name, true /* lower */)] = c
			rep.ClassesCreated++
		}

		seen := make(map[string]struct{}, len(g.Rows))
		for _, r := range g.Rows {
			email := core.CleanString(r.Email, true /* lower */)
			if _, dup := seen[email]; dup && email != "" {
				continue
			}
			seen[email] = struct{}{}

			_, err = svc.stuSvc.Enroll(ctx, student.NewStudent{
				Name:            r.Name,
				Email:           email,
				OriginalClass:   g.Name,
				OriginalTeacher: r.Teacher,
				OriginalLevel:   r.Level,
			}, c.ID)
			if err != nil {
				if core.IsValidationError(err) {
					rep.Skipped = append(rep.Skipped, fmt.Sprintf("student %q (%s): %v", r.Name, r.Email, err))
					continue
				}
				return rep, errors.Wrap(err, "enrolling student")
			}
			rep.StudentsEnrolled++
		}
	}

	svc.logger.Info(fmt.Sprintf("roster imported: %d classes created, %d reused, %d students enrolled, %d skipped",
		rep.ClassesCreated, rep.ClassesReused, rep.StudentsEnrolled, len(rep.Skipped)))
	return rep, nil
}

func (svc *Service) teacherID(ctx context.Context, email, fallback string) string {
	if email = core.CleanString(email, true /* lower */); email != "" {
		if usr, err := svc.usrRepo.Find(ctx, email); err == nil && !usr.IsStudent() {
			return usr.ID
		}
	}
	return fallback
}
