package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/class"
	"github.com/trezcool/escola/core/grading"
	"github.com/trezcool/escola/core/roster"
	"github.com/trezcool/escola/core/student"
)

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		row := row
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf := new(bytes.Buffer)
	require.NoError(t, f.Write(buf))
	return buf
}

func TestReadRoster(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"Nome", "E-mail", "Turma", "Professor", "Nível"},
		{" Bia ", "bia@escola.cd", "English A", "ana@escola.cd", "A1"},
		{},
		{"Caio", "caio@escola.cd", "English A"},
	})

	rows, err := ReadRoster(buf)
	require.NoError(t, err)
	assert.Equal(t, []roster.Row{
		{Name: "Bia", Email: "bia@escola.cd", Class: "English A", Teacher: "ana@escola.cd", Level: "A1"},
		{Name: "Caio", Email: "caio@escola.cd", Class: "English A"},
	}, rows)
}

func TestReadRoster_Invalid(t *testing.T) {
	_, err := ReadRoster(bytes.NewBufferString("name,email,class"))
	assert.True(t, core.IsValidationError(err))

	buf := workbook(t, [][]interface{}{{"Name", "Class"}, {"Bia", "A"}})
	_, err = ReadRoster(buf)
	assert.True(t, core.IsValidationError(err))
}

func TestWriteGradebook(t *testing.T) {
	grade := 8.5
	gb := grading.Gradebook{
		Class: class.ClassGroup{ID: "c", Name: "English A"},
		Stages: []grading.GradebookStage{
			{
				Summary:    grading.StageSummary{StageID: "s1", Name: "1st stage", MaxPoints: 30},
				Activities: []grading.Activity{{ID: "a1", Title: "Test 1", MaxPoints: 10}, {ID: "a2", Title: "Test 2", MaxPoints: 20}},
				Rows: []grading.GradebookRow{
					{Student: student.Student{Name: "Bia", Email: "bia@escola.cd"}, Grades: []*float64{&grade, nil}, Total: 8.5},
				},
			},
			{Summary: grading.StageSummary{StageID: "s2", Name: "1st stage", MaxPoints: 30}},
		},
	}

	buf := new(bytes.Buffer)
	require.NoError(t, WriteGradebook(buf, gb))

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"1st stage", "1st stage (2)"}, f.GetSheetList())
	rows, err := f.GetRows("1st stage")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Student", "Email", "Test 1 (10)", "Test 2 (20)", "Total (30)"}, rows[0])
	assert.Equal(t, []string{"Bia", "bia@escola.cd", "8.5", "", "8.5"}, rows[1])
}

func TestSheetName(t *testing.T) {
	used := make(map[string]int)
	assert.Equal(t, "Stage 1 (final)", sheetName("Stage 1 [final]", used))
	assert.Equal(t, "a b", sheetName("a/b", used))
	assert.Equal(t, "Stage", sheetName("  ", used))
	assert.Equal(t, "stage (2)", sheetName("stage", used))
	assert.Len(t, []rune(sheetName("a very long stage name that exceeds the limit", used)), maxSheetName)
}
