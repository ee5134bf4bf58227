package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/class"
	"github.com/trezcool/escola/core/feedback"
	"github.com/trezcool/escola/core/grading"
	"github.com/trezcool/escola/core/quiz"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/core/user"
)

var (
	// ErrInvalidDocument is returned when a restore document is malformed or lacks classes or students.
	ErrInvalidDocument = errors.New("invalid backup document")

	requiredFields = []string{"classes", "students"}
)

// minimalDocument is served when a backup cannot be encoded.
const minimalDocument = `{"users":[],"classes":[],"students":[],"activities":[],"grades":[],"enrollments":[],"feedbacks":[],"quizAttempts":[],"timestamp":null,"logo":null}`

// Document is the full point-in-time snapshot used for export and import.
type Document struct {
	Users        []user.User          `json:"users"`
	Classes      []class.ClassGroup   `json:"classes"`
	Students     []student.Student    `json:"students"`
	Activities   []grading.Activity   `json:"activities"`
	Grades       []grading.Grade      `json:"grades"`
	Enrollments  []student.Enrollment `json:"enrollments"`
	Feedbacks    []feedback.Feedback  `json:"feedbacks"`
	QuizAttempts []quiz.Attempt       `json:"quizAttempts"`
	Timestamp    *time.Time           `json:"timestamp"`
	Logo         *string              `json:"logo"`
}

// AutoSnapshot is the reduced snapshot taken periodically. The logo is left out to save space.
type AutoSnapshot struct {
	Users     []user.User        `json:"users"`
	Classes   []class.ClassGroup `json:"classes"`
	Students  []student.Student  `json:"students"`
	Timestamp time.Time          `json:"timestamp"`
}

func emptyDocument() Document {
	return Document{
		Users:        []user.User{},
		Classes:      []class.ClassGroup{},
		Students:     []student.Student{},
		Activities:   []grading.Activity{},
		Grades:       []grading.Grade{},
		Enrollments:  []student.Enrollment{},
		Feedbacks:    []feedback.Feedback{},
		QuizAttempts: []quiz.Attempt{},
	}
}

// Service reads and replaces the whole Record Store.
type Service struct {
	rs     *core.Records
	logger core.Logger
}

func NewService(rs *core.Records, logger core.Logger) *Service {
	return &Service{rs: rs, logger: logger}
}

// Backup gathers every collection, the logo and a timestamp. It never fails:
// on an internal failure an empty document is returned.
func (svc *Service) Backup(ctx context.Context) (doc Document) {
	defer func() {
		if r := recover(); r != nil {
			svc.logger.Error(fmt.Sprintf("backup failed: %v", r))
			doc = emptyDocument()
		}
	}()

	now := core.NowFunc()
	doc = Document{
		Users:        core.GetCollection[user.User](ctx, svc.rs, core.KeyUsers),
		Classes:      core.GetCollection[class.ClassGroup](ctx, svc.rs, core.KeyClasses),
		Students:     core.GetCollection[student.Student](ctx, svc.rs, core.KeyStudents),
		Activities:   core.GetCollection[grading.Activity](ctx, svc.rs, core.KeyActivities),
		Grades:       core.GetCollection[grading.Grade](ctx, svc.rs, core.KeyGrades),
		Enrollments:  core.GetCollection[student.Enrollment](ctx, svc.rs, core.KeyEnrollments),
		Feedbacks:    core.GetCollection[feedback.Feedback](ctx, svc.rs, core.KeyFeedbacks),
		QuizAttempts: core.GetCollection[quiz.Attempt](ctx, svc.rs, core.KeyQuizAttempts),
		Timestamp:    &now,
	}
	var logo string
	if svc.rs.GetValue(ctx, core.KeyLogo, &logo) && logo != "" {
		doc.Logo = &logo
	}

	// best effort
	svc.rs.SetValue(ctx, core.KeyBackupTimestamp, now)
	return doc
}

// Export returns the encoded backup document. It never fails.
func (svc *Service) Export(ctx context.Context) []byte {
	data, err := json.Marshal(svc.Backup(ctx))
	if err != nil {
		svc.logger.Error("encoding backup document", errors.Wrap(err, "encoding backup document"))
		return []byte(minimalDocument)
	}
	return data
}

// Restore replaces every collection with the ones of the encoded document.
// Collections missing from the document become empty. The logo is restored on a best-effort basis.
func (svc *Service) Restore(ctx context.Context, data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return invalidDocument("document", "malformed JSON")
	}
	for _, fld := range requiredFields {
		if v, ok := raw[fld]; !ok || string(v) == "null" {
			return invalidDocument(fld, "this field is required")
		}
	}

	doc := emptyDocument()
	if err := json.Unmarshal(data, &doc); err != nil {
		return invalidDocument("document", err.Error())
	}

	writes := []func() error{
		func() error { return core.Save(ctx, svc.rs, core.KeyUsers, doc.Users) },
		func() error { return core.Save(ctx, svc.rs, core.KeyClasses, doc.Classes) },
		func() error { return core.Save(ctx, svc.rs, core.KeyStudents, doc.Students) },
		func() error { return core.Save(ctx, svc.rs, core.KeyActivities, doc.Activities) },
		func() error { return core.Save(ctx, svc.rs, core.KeyGrades, doc.Grades) },
		func() error { return core.Save(ctx, svc.rs, core.KeyEnrollments, doc.Enrollments) },
		func() error { return core.Save(ctx, svc.rs, core.KeyFeedbacks, doc.Feedbacks) },
		func() error { return core.Save(ctx, svc.rs, core.KeyQuizAttempts, doc.QuizAttempts) },
	}
	for _, write := range writes {
		if err := write(); err != nil {
			return errors.Wrap(err, "restoring backup")
		}
	}

	if doc.Logo != nil && *doc.Logo != "" {
		if !svc.rs.SetValue(ctx, core.KeyLogo, *doc.Logo) {
			svc.logger.Warn("logo not restored")
		}
	}
	return nil
}

func invalidDocument(field, msg string) error {
	return core.NewValidationError(ErrInvalidDocument, core.FieldError{Field: field, Error: msg})
}

// RunAutoBackup stores a reduced snapshot (users, classes, students) and its timestamp.
// Failures are logged and swallowed; it reports whether the snapshot was stored.
func (svc *Service) RunAutoBackup(ctx context.Context) bool {
	snap := AutoSnapshot{
		Users:     core.GetCollection[user.User](ctx, svc.rs, core.KeyUsers),
		Classes:   core.GetCollection[class.ClassGroup](ctx, svc.rs, core.KeyClasses),
		Students:  core.GetCollection[student.Student](ctx, svc.rs, core.KeyStudents),
		Timestamp: core.NowFunc(),
	}
	if !svc.rs.SetValue(ctx, core.KeyAutoBackup, snap) {
		svc.logger.Warn("auto backup failed")
		return false
	}
	svc.rs.SetValue(ctx, core.KeyAutoBackupTimestamp, snap.Timestamp)
	return true
}

// LatestAutoBackup returns the last auto snapshot, if any.
func (svc *Service) LatestAutoBackup(ctx context.Context) (AutoSnapshot, bool) {
	var snap AutoSnapshot
	ok := svc.rs.GetValue(ctx, core.KeyAutoBackup, &snap)
	return snap, ok
}

// Loop runs RunAutoBackup every interval until ctx is done.
func (svc *Service) Loop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.RunAutoBackup(ctx)
		}
	}
}
