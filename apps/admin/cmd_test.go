package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/backup"
	"github.com/trezcool/escola/core/user"
	"github.com/trezcool/escola/storage/kv"
	"github.com/trezcool/escola/tests"
)

func setup(t *testing.T) (*commandLine, *testutil.Env, *bytes.Buffer) {
	env := testutil.NewEnv(t)
	var out bytes.Buffer
	return &commandLine{
		conf:      env.Conf,
		usrSvc:    env.UserSvc,
		backupSvc: env.BackupSvc,
		rosterSvc: env.RosterSvc,
		out:       &out,
	}, env, &out
}

type cliTest struct {
	name    string
	args    []string // without program name
	pwd     string
	wantErr func(error) bool
}

func isHelp(err error) bool { return err == errHelp }

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			readPasswordFunc = func(int) ([]byte, error) { return []byte(tt.pwd), nil }
			err := cli.run(append([]string{"admin"}, tt.args...))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			if assert.Error(t, err) {
				assert.True(t, tt.wantErr(err), "unexpected error: %v", err)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, _, out := setup(t)
	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: isHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: isHelp},
		{name: "unknown flag", args: []string{"export", "-lol"}, wantErr: isHelp},
	})
	assert.Contains(t, out.String(), "Usage:")
}

func Test_commandLine_users(t *testing.T) {
	cli, env, _ := setup(t)
	ctx := context.Background()

	runCLITests(t, cli, []cliTest{
		{name: "adduser: no args", args: []string{"adduser"}, wantErr: isHelp},
		{name: "adduser: no password", args: []string{"adduser", "-name", "Ana", "-email", "ana@escola.cd"}, wantErr: isHelp},
		{name: "adduser: student", args: []string{"adduser", "-name", "Ana", "-email", "ana@escola.cd", "-role", "student"}, pwd: "pwd", wantErr: core.IsValidationError},
		{name: "adduser", args: []string{"adduser", "-name", "Ana", "-email", "Ana@escola.cd"}, pwd: "pwd"},
		{name: "adduser: duplicate", args: []string{"adduser", "-name", "Ana", "-email", "ana@escola.cd"}, pwd: "pwd", wantErr: core.IsValidationError},
		{name: "resetpassword: no args", args: []string{"resetpassword"}, wantErr: isHelp},
		{name: "resetpassword: no password", args: []string{"resetpassword", "-email", "ana@escola.cd"}, wantErr: isHelp},
		{
			name:    "resetpassword: user not found",
			args:    []string{"resetpassword", "-email", "lol@escola.cd"},
			pwd:     "lol",
			wantErr: func(err error) bool { return errors.Is(err, user.ErrNotFound) },
		},
		{name: "resetpassword", args: []string{"resetpassword", "-email", "ana@escola.cd"}, pwd: "new"},
	})

	usr, err := env.UserSvc.Authenticate(ctx, "ana@escola.cd", "new")
	require.NoError(t, err)
	assert.Equal(t, user.RoleTeacher, usr.Role)
}

func Test_commandLine_seedAdmin(t *testing.T) {
	cli, env, out := setup(t)

	require.NoError(t, cli.run([]string{"admin", "seedadmin"}))
	assert.Contains(t, out.String(), `admin "admin@test.cd" created`)
	require.NoError(t, cli.run([]string{"admin", "seedadmin"}))
	assert.Contains(t, out.String(), "admin already seeded")

	usr, err := env.UserSvc.Get(context.Background(), user.SeedAdminID)
	require.NoError(t, err)
	assert.True(t, usr.IsAdmin())
}

func Test_commandLine_backup(t *testing.T) {
	cli, env, out := setup(t)
	teacher := testutil.CreateUser(t, env.UserRepo, "Ana", "ana@escola.cd", user.RoleTeacher, "pwd")
	c := testutil.CreateClass(t, env.ClassSvc, teacher.ID, "English A", 30)
	testutil.EnrollStudent(t, env.StudentSvc, c.ID, "Bia", "bia@escola.cd")
	file := filepath.Join(t.TempDir(), "backup.json")

	runCLITests(t, cli, []cliTest{
		{name: "export", args: []string{"export", "-o", file}},
		{name: "import: no file", args: []string{"import"}, wantErr: isHelp},
		{name: "import: missing file", args: []string{"import", "-f", file + ".nope"}, wantErr: func(err error) bool { return err != nil }},
		{name: "autobackup", args: []string{"autobackup"}},
	})

	// restore into an empty store
	dst, dstEnv, _ := setup(t)
	require.NoError(t, dst.run([]string{"admin", "import", "-f", file}))
	classes, err := dstEnv.ClassSvc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, classes, 1)

	// stdout export
	out.Reset()
	require.NoError(t, cli.run([]string{"admin", "export"}))
	var doc backup.Document
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	assert.Len(t, doc.Students, 1)

	env.KV.SetQuota(core.RejectAllWrites)
	assert.Error(t, cli.run([]string{"admin", "autobackup"}))
}

func Test_commandLine_roster(t *testing.T) {
	cli, env, out := setup(t)
	ctx := context.Background()
	_, _, err := env.UserSvc.SeedAdmin(ctx, env.Conf.Admin)
	require.NoError(t, err)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Name", "Email", "Class"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Bia", "bia@escola.cd", "English A"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"Caio", "", "English A"}))
	file := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, f.SaveAs(file))
	require.NoError(t, f.Close())

	runCLITests(t, cli, []cliTest{
		{name: "no file", args: []string{"roster"}, wantErr: isHelp},
		{name: "import", args: []string{"roster", "-f", file}},
	})
	assert.Contains(t, out.String(), "classes created: 1, reused: 0, students enrolled: 1")
	assert.Contains(t, out.String(), "skipped")

	classes, err := env.ClassSvc.ListByTeacher(ctx, user.SeedAdminID)
	require.NoError(t, err)
	assert.Len(t, classes, 1)
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	var migrated bool
	migrateFunc = func(context.Context, core.DatabaseConfig) error {
		migrated = true
		return nil
	}
	defer func() { migrateFunc = migratePostgres }()

	err := cli.run([]string{"admin", "migrate"})
	assert.Equal(t, errNotPostgres, err)
	assert.False(t, migrated)

	cli.conf.Store.Driver = kv.DriverPostgres
	require.NoError(t, cli.run([]string{"admin", "migrate"}))
	assert.True(t, migrated)
}
