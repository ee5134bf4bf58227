package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/user"
)

func TestRollbarLogger_print(t *testing.T) {
	conf := core.NewTestConfig()
	var out bytes.Buffer
	logger := NewRollbarLogger(log.New(&out, "", 0), conf)
	logger.Enable(false)

	usr := user.User{ID: "u1", Name: "Ana", Email: "ana@escola.cd", Password: "secret"}
	logger.Error("saving grade", errors.New("storage is full"), usr)

	printed := out.String()
	assert.Contains(t, printed, "[ERROR] saving grade\nstorage is full\n")
	assert.Contains(t, printed, "user: u1 <ana@escola.cd>\n")
	assert.NotContains(t, printed, "secret")
}

func TestRollbarLogger_Debug(t *testing.T) {
	tests := []struct {
		name  string
		debug bool
		want  string
	}{
		{name: "debug", debug: true, want: "[DEBUG] stage summaries\n"},
		{name: "production"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := core.NewTestConfig()
			conf.Debug = tt.debug
			var out bytes.Buffer
			logger := NewRollbarLogger(log.New(&out, "", 0), conf)
			logger.Enable(false)

			logger.Debug("stage summaries")
			assert.Equal(t, tt.want, out.String())
		})
	}
}
