package tests

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/escola/core/backup"
	"github.com/trezcool/escola/core/class"
	"github.com/trezcool/escola/core/roster"
)

func Test_backupApi_exportRestore(t *testing.T) {
	src := setup(t)

	rec := src.do(http.MethodGet, "/v1/backup", src.token(t, src.teacher))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = src.do(http.MethodGet, "/v1/backup", src.token(t, src.admin))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "escola-backup-")
	data := rec.Body.Bytes()
	var doc backup.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Len(t, doc.Users, 4)
	assert.Len(t, doc.Classes, 1)
	assert.Len(t, doc.Students, 1)

	dst := setup(t)
	adminToken := dst.token(t, dst.admin)
	runHTTPTests(t, dst, []httpTest{
		{
			name:     "malformed",
			method:   http.MethodPost,
			path:     "/v1/backup/restore",
			body:     []byte(`{"classes": [`),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"document": "malformed JSON"}`),
		},
		{
			name:     "without students",
			method:   http.MethodPost,
			path:     "/v1/backup/restore",
			body:     []byte(`{"classes": []}`),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"students": "this field is required"}`),
		},
	})

	rec = dst.do(http.MethodPost, "/v1/backup/restore", adminToken, data)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// the restored store replaced the destination one, users included
	rec = dst.do(http.MethodGet, "/v1/classes", src.token(t, src.admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var classes []class.ClassGroup
	unmarshallBody(t, rec, &classes)
	if assert.Len(t, classes, 1) {
		assert.Equal(t, src.class.ID, classes[0].ID)
	}
}

func Test_backupApi_auto(t *testing.T) {
	fx := setup(t)
	adminToken := fx.token(t, fx.admin)

	rec := fx.do(http.MethodGet, "/v1/backup/auto", adminToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = fx.do(http.MethodPost, "/v1/backup/auto", adminToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = fx.do(http.MethodGet, "/v1/backup/auto", adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	var snap backup.AutoSnapshot
	unmarshallBody(t, rec, &snap)
	assert.Len(t, snap.Users, 4)
	assert.Len(t, snap.Classes, 1)
}

func rosterWorkbook(t *testing.T, rows ...[]interface{}) []byte {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Nome", "E-mail", "Turma", "Professor"}))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func Test_backupApi_importRoster(t *testing.T) {
	fx := setup(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", "roster.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(rosterWorkbook(t,
		[]interface{}{"Caio", "caio@escola.cd", "Spanish", "rui@escola.cd"},
		[]interface{}{"Dani", "dani@escola.cd", "Spanish", "rui@escola.cd"},
		[]interface{}{"Bia", "bia@escola.cd", "English A", ""},
	))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/roster/import", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+fx.token(t, fx.admin))
	rec := httptest.NewRecorder()
	fx.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var rep roster.Report
	unmarshallBody(t, rec, &rep)
	assert.Equal(t, 1, rep.ClassesCreated)
	assert.Equal(t, 1, rep.ClassesReused)
	assert.Equal(t, 3, rep.StudentsEnrolled)
	assert.Empty(t, rep.Skipped)

	classes, err := fx.env.ClassSvc.ListByTeacher(req.Context(), fx.other.ID)
	require.NoError(t, err)
	if assert.Len(t, classes, 1) {
		assert.Equal(t, "Spanish", classes[0].Name)
	}

	rec = fx.do(http.MethodPost, "/v1/roster/import", fx.token(t, fx.admin))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
