// Package spreadsheet reads rosters from and writes gradebooks to .xlsx workbooks.
package spreadsheet

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/grading"
	"github.com/trezcool/escola/core/roster"
)

const maxSheetName = 31

var (
	// ErrNoHeader is returned when a roster lacks the name, email or class column.
	ErrNoHeader = errors.New("roster must have name, email and class columns")

	// header aliases (lowercase)
	columns = map[string][]string{
		"name":     {"name", "nome", "student", "aluno"},
		"email":    {"email", "e-mail"},
		"class":    {"class", "turma"},
		"teacher":  {"teacher", "professor"},
		"level":    {"level", "nivel", "nível"},
		"schedule": {"schedule", "horario", "horário"},
	}

	sheetNameReplacer = strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")")
)

// ReadRoster parses the first sheet of a workbook. The first row is the header;
// blank rows are skipped.
func ReadRoster(r io.Reader) ([]roster.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, core.NewValidationError(errors.Wrap(err, "opening workbook"),
			core.FieldError{Field: "file", Error: "not a valid .xlsx workbook"})
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []roster.Row{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, "reading rows")
	}
	if len(rows) == 0 {
		return []roster.Row{}, nil
	}

	idx := headerIndex(rows[0])
	for _, col := range []string{"name", "email", "class"} {
		if _, ok := idx[col]; !ok {
			return nil, core.NewValidationError(ErrNoHeader, core.FieldError{Field: col, Error: "column is missing"})
		}
	}

	res := make([]roster.Row, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(cells) {
				return ""
			}
			return core.CleanString(cells[i])
		}
		row := roster.Row{
			Name:     get("name"),
			Email:    get("email"),
			Class:    get("class"),
			Teacher:  get("teacher"),
			Level:    get("level"),
			Schedule: get("schedule"),
		}
		if row.Name == "" && row.Email == "" && row.Class == "" {
			continue
		}
		res = append(res, row)
	}
	return res, nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(columns))
	for i, h := range header {
		h = core.CleanString(h, true /* lower */)
		for col, aliases := range columns {
			if _, seen := idx[col]; seen {
				continue
			}
			for _, alias := range aliases {
				if h == alias {
					idx[col] = i
				}
			}
		}
	}
	return idx
}

// WriteGradebook renders one sheet per stage: a student per row, an activity per column,
// then the stage total. Missing grades are left blank.
func WriteGradebook(w io.Writer, gb grading.Gradebook) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "creating header style")
	}

	const defaultSheet = "Sheet1"
	used := make(map[string]int)
	for i, gs := range gb.Stages {
		name := sheetName(gs.Summary.Name, used)
		if i == 0 {
			if err = f.SetSheetName(defaultSheet, name); err != nil {
				return errors.Wrap(err, "renaming sheet")
			}
		} else if _, err = f.NewSheet(name); err != nil {
			return errors.Wrap(err, "creating sheet")
		}
		if err = writeStage(f, name, gs, bold); err != nil {
			return errors.Wrapf(err, "writing stage %q", gs.Summary.Name)
		}
	}
	if len(gb.Stages) > 0 {
		f.SetActiveSheet(0)
	}

	return errors.Wrap(f.Write(w), "writing workbook")
}

func writeStage(f *excelize.File, sheet string, gs grading.GradebookStage, headerStyle int) error {
	header := []interface{}{"Student", "Email"}
	for _, a := range gs.Activities {
		header = append(header, fmt.Sprintf("%s (%g)", a.Title, a.MaxPoints))
	}
	header = append(header, fmt.Sprintf("Total (%d)", gs.Summary.MaxPoints))
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err = f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for r, row := range gs.Rows {
		values := []interface{}{row.Student.Name, row.Student.Email}
		for _, g := range row.Grades {
			if g == nil {
				values = append(values, nil)
				continue
			}
			values = append(values, *g)
		}
		values = append(values, row.Total)

		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err = f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return nil
}

// sheetName returns a valid, unique sheet name for a stage.
func sheetName(name string, used map[string]int) string {
	name = core.CleanString(sheetNameReplacer.Replace(name))
	if name == "" {
		name = "Stage"
	}
	if len([]rune(name)) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}
	key := strings.ToLower(name)
	used[key]++
	if n := used[key]; n > 1 {
		suffix := fmt.Sprintf(" (%d)", n)
		runes := []rune(name)
		if len(runes)+len(suffix) > maxSheetName {
			runes = runes[:maxSheetName-len(suffix)]
		}
		name = string(runes) + suffix
	}
	return name
}
