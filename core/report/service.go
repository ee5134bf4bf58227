package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/class"
	"github.com/trezcool/escola/core/feedback"
	"github.com/trezcool/escola/core/grading"
	"github.com/trezcool/escola/core/student"
	"github.com/trezcool/escola/core/user"
)

const (
	cardTemplate        = "report_card"
	classReportTemplate = "class_report"
	xlsxContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type (
	// GradebookWriter renders a gradebook as a spreadsheet.
	GradebookWriter func(w io.Writer, gb grading.Gradebook) error

	ActivityLine struct {
		Title     string  `json:"title"`
		MaxPoints float64 `json:"maxPoints"`
		Value     float64 `json:"value"`
		Graded    bool    `json:"graded"`
	}

	// Card is the report of a student for one stage of a class.
	Card struct {
		Student    student.Student    `json:"student"`
		Class      class.ClassGroup   `json:"class"`
		Stage      class.StageConfig  `json:"stage"`
		Activities []ActivityLine     `json:"activities"`
		Total      float64            `json:"total"`
		Feedback   *feedback.Feedback `json:"feedback"`
	}

	classReport struct {
		Teacher user.User
		Class   class.ClassGroup
		Stage   class.StageConfig
		Sent    int
	}
)

type Service struct {
	gradingSvc     *grading.Service
	fbRepo         feedback.Repository
	usrRepo        user.Repository
	mailSvc        core.EmailService
	writeGradebook GradebookWriter
}

func NewService(
	gradingSvc *grading.Service,
	fbRepo feedback.Repository,
	usrRepo user.Repository,
	mailSvc core.EmailService,
	writeGradebook GradebookWriter,
) *Service {
	return &Service{
		gradingSvc:     gradingSvc,
		fbRepo:         fbRepo,
		usrRepo:        usrRepo,
		mailSvc:        mailSvc,
		writeGradebook: writeGradebook,
	}
}

// StageCards builds the report cards of every active student of a class stage.
func (svc *Service) StageCards(ctx context.Context, classID, stageID string) ([]Card, error) {
	gb, err := svc.gradingSvc.Gradebook(ctx, classID)
	if err != nil {
		return nil, err
	}
	return svc.cards(ctx, gb, stageID)
}

// StudentCard builds the report card of one student for a class stage.
func (svc *Service) StudentCard(ctx context.Context, classID, stageID, studentID string) (Card, error) {
	cards, err := svc.StageCards(ctx, classID, stageID)
	if err != nil {
		return Card{}, err
	}
	for _, c := range cards {
		if c.Student.ID == studentID {
			return c, nil
		}
	}
	return Card{}, student.ErrNotFound
}

func (svc *Service) cards(ctx context.Context, gb grading.Gradebook, stageID string) ([]Card, error) {
	var gs *grading.GradebookStage
	for i := range gb.Stages {
		if gb.Stages[i].Summary.StageID == stageID {
			gs = &gb.Stages[i]
			break
		}
	}
	if gs == nil {
		return nil, class.ErrStageNotFound
	}
	stage, _ := gb.Class.Stage(stageID)

	fbs, err := svc.fbRepo.ListByClass(ctx, gb.Class.ID)
	if err != nil {
		return nil, errors.Wrap(err, "listing feedback")
	}
	byStudent := make(map[string]feedback.Feedback)
	for _, f := range fbs {
		if f.StageID == stageID {
			byStudent[f.StudentID] = f
		}
	}

	cards := make([]Card, 0, len(gs.Rows))
	for _, row := range gs.Rows {
		card := Card{
			Student:    row.Student,
			Class:      gb.Class,
			Stage:      stage,
			Activities: make([]ActivityLine, 0, len(gs.Activities)),
			Total:      row.Total,
		}
		for i, a := range gs.Activities {
			line := ActivityLine{Title: a.Title, MaxPoints: a.MaxPoints}
			if v := row.Grades[i]; v != nil {
				line.Value, line.Graded = *v, true
			}
			card.Activities = append(card.Activities, line)
		}
		if f, ok := byStudent[row.Student.ID]; ok {
			f := f
			card.Feedback = &f
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// SendStageReports emails each active student their report card for the stage,
// then sends the class teacher a summary with the gradebook attached.
// It returns the number of report cards sent.
func (svc *Service) SendStageReports(ctx context.Context, classID, stageID string) (int, error) {
	gb, err := svc.gradingSvc.Gradebook(ctx, classID)
	if err != nil {
		return 0, err
	}
	cards, err := svc.cards(ctx, gb, stageID)
	if err != nil {
		return 0, err
	}

	teacher, err := svc.usrRepo.Get(ctx, gb.Class.TeacherID)
	hasTeacher := err == nil
	if err != nil && !errors.Is(err, user.ErrNotFound) {
		return 0, errors.Wrap(err, "finding teacher")
	}

	msgs := make([]*core.EmailMessage, 0, len(cards)+1)
	for _, c := range cards {
		if c.Student.Email == "" {
			continue
		}
		msg := &core.EmailMessage{
			To:           []mail.Address{{Name: c.Student.Name, Address: c.Student.Email}},
			Subject:      fmt.Sprintf("%s - %s report", c.Class.Name, c.Stage.Name),
			TemplateName: cardTemplate,
			TemplateData: c,
		}
		if hasTeacher {
			msg.ReplyTo = &mail.Address{Name: teacher.Name, Address: teacher.Email}
		}
		msgs = append(msgs, msg)
	}
	sent := len(msgs)

	if hasTeacher {
		stage, _ := gb.Class.Stage(stageID)
		msg := &core.EmailMessage{
			To:           []mail.Address{{Name: teacher.Name, Address: teacher.Email}},
			Subject:      fmt.Sprintf("%s - %s reports sent", gb.Class.Name, stage.Name),
			TemplateName: classReportTemplate,
			TemplateData: classReport{Teacher: teacher, Class: gb.Class, Stage: stage, Sent: sent},
		}
		if svc.writeGradebook != nil {
			var buf bytes.Buffer
			if err = svc.writeGradebook(&buf, gb); err != nil {
				return 0, errors.Wrap(err, "writing gradebook")
			}
			if err = msg.Attach(&buf, gb.Class.Name+" gradebook.xlsx", xlsxContentType); err != nil {
				return 0, errors.Wrap(err, "attaching gradebook")
			}
		}
		msgs = append(msgs, msg)
	}

	svc.mailSvc.SendMessages(msgs...)
	return sent, nil
}
