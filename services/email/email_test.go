package emailsvc

import (
	"bytes"
	"io"
	"log"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/escola/core"
	logsvc "github.com/trezcool/escola/services/logger"
)

func testLogger(conf *core.Config) core.Logger {
	l := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	l.Enable(false)
	return l
}

func newMessage(t *testing.T) *core.EmailMessage {
	msg := &core.EmailMessage{
		To:      []mail.Address{{Name: "Bia", Address: "bia@escola.cd"}},
		Cc:      []mail.Address{{Address: "ana@escola.cd"}},
		ReplyTo: &mail.Address{Name: "Ana", Address: "ana@escola.cd"},
		Subject: "English A - Stage 1 report",
		BodyStr: "Test 1: 8.5 / 10",
	}
	require.NoError(t, msg.Attach(strings.NewReader("grades"), "grades.txt", "text/plain"))
	return msg
}

func TestNew(t *testing.T) {
	conf := core.NewTestConfig()
	conf.SendgridAPIKey = "key"
	_, isConsole := New(conf, testLogger(conf)).(*ConsoleService)
	assert.True(t, isConsole, "test mode never reaches SendGrid")

	conf.TestMode = false
	_, isSendgrid := New(conf, testLogger(conf)).(*SendgridService)
	assert.True(t, isSendgrid)

	conf.SendgridAPIKey = ""
	_, isConsole = New(conf, testLogger(conf)).(*ConsoleService)
	assert.True(t, isConsole)
}

func TestConsoleService(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewConsoleServiceMock(conf, testLogger(conf))
	var out bytes.Buffer
	svc.out = log.New(&out, "", 0)

	svc.SendMessages(
		newMessage(t),
		&core.EmailMessage{Subject: "nobody", BodyStr: "lost"},
		&core.EmailMessage{To: []mail.Address{{Address: "bia@escola.cd"}}, Subject: "empty"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Test 1: 8.5 / 10", sent[0].TextContent)

	printed := out.String()
	for _, want := range []string{
		"Subject: [Escola] English A - Stage 1 report",
		`To: "Bia" <bia@escola.cd>`,
		`Reply-To: "Ana" <ana@escola.cd>`,
		"Content-Type: multipart/mixed",
		`filename="grades.txt"`,
	} {
		assert.Contains(t, printed, want)
	}
}

func TestSendgridService_mailV3(t *testing.T) {
	conf := core.NewTestConfig()
	svc := NewSendgridService(conf, testLogger(conf))
	msg := newMessage(t)
	msg.TemplateName = "report_card"
	require.NoError(t, msg.Render())

	m := svc.mailV3(*msg)
	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "[Escola] English A - Stage 1 report", p.Subject)
	assert.Len(t, p.To, 1)
	assert.Len(t, p.CC, 1)
	assert.Empty(t, p.BCC)

	if assert.NotNil(t, m.ReplyTo) {
		assert.Equal(t, "ana@escola.cd", m.ReplyTo.Address)
	}
	assert.Equal(t, []string{"report_card"}, m.Categories)
	if assert.Len(t, m.Content, 1) {
		assert.Equal(t, "text/plain", m.Content[0].Type)
	}
	if assert.Len(t, m.Attachments, 1) {
		assert.Equal(t, "grades.txt", m.Attachments[0].Filename)
		assert.Equal(t, "attachment", m.Attachments[0].Disposition)
	}
}
