package ui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSender struct {
	titles   []string
	messages []string
	err      error
}

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	r.messages = append(r.messages, message)
	return r.err
}

func TestNotifier(t *testing.T) {
	sender := &recordingSender{err: errors.New("no notification daemon")}
	n := NewNotifierWithSender(sender)

	n.Notify("followcheck", "2 accounts do not follow back")

	assert.Equal(t, []string{"followcheck"}, sender.titles)
	assert.Equal(t, []string{"2 accounts do not follow back"}, sender.messages)
}

func TestDisabledNotifier(t *testing.T) {
	n := NewNotifier(false)
	assert.NotPanics(t, func() { n.Notify("title", "message") })

	var nilNotifier *Notifier
	assert.NotPanics(t, func() { nilNotifier.Notify("title", "message") })
}

func TestAppleScriptString(t *testing.T) {
	assert.Equal(t, `"say \"hi\" \\ bye"`, appleScriptString(`say "hi" \ bye`))
}
