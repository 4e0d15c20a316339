package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mailtpl "github.com/oksasatya/usuarios-storage-api/pkg/mailer/templates"
)

type fakeSender struct {
	to, subject, text, html string
	err                     error
	hasDeadline             bool
}

func (f *fakeSender) Send(ctx context.Context, to, subject, text, html string) (string, error) {
	_, f.hasDeadline = ctx.Deadline()
	f.to, f.subject, f.text, f.html = to, subject, text, html
	if f.err != nil {
		return "", f.err
	}
	return "<msg-1@mg>", nil
}

func TestPrepare_RendersTemplate(t *testing.T) {
	body := []byte(`{"to":"ana@example.com","template":"welcome","data":{"Name":"Ana Lopez","Email":"ana@example.com"}}`)
	now := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	job, err := prepare(body, now, mailtpl.WithBranding("Usuarios", "ACME", ""))
	require.NoError(t, err)
	assert.Equal(t, "Welcome to Usuarios", job.Subject)
	assert.Contains(t, job.Text, "Hi Ana Lopez")
	assert.Contains(t, job.HTML, "Ana Lopez")
	assert.Equal(t, "01 March 2026, 10:30", job.Data["Time"])
}

func TestPrepare_RawContent(t *testing.T) {
	job, err := prepare([]byte(`{"to":"a@b.co","subject":"hi","text":"plain"}`), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "hi", job.Subject)
	assert.Equal(t, "a@b.co", job.Data["Email"])
}

func TestPrepare_BadJobs(t *testing.T) {
	cases := map[string]string{
		"invalid json":     `{`,
		"no recipient":     `{"template":"welcome"}`,
		"unknown template": `{"to":"a@b.co","template":"reset_password"}`,
		"no content":       `{"to":"a@b.co","subject":"s"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := prepare([]byte(body), time.Now())
			assert.ErrorIs(t, err, errBadJob)
		})
	}
}

func TestProcess(t *testing.T) {
	s := &fakeSender{}
	id, err := process(context.Background(), s, []byte(`{"to":"ana@example.com","template":"account_deleted","data":{"Name":"Ana"}}`))
	require.NoError(t, err)
	assert.Equal(t, "<msg-1@mg>", id)
	assert.Equal(t, "ana@example.com", s.to)
	assert.True(t, s.hasDeadline)

	s.err = errors.New("mailgun 502")
	_, err = process(context.Background(), s, []byte(`{"to":"ana@example.com","template":"account_deleted"}`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, errBadJob)
}
