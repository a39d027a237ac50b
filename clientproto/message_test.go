package clientproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingCallback struct {
	messages [][]byte
}

func (c *recordingCallback) SendChromeMessage(message []byte) error {
	c.messages = append(c.messages, message)
	return nil
}
func (c *recordingCallback) Notify(string, string) error        { return nil }
func (c *recordingCallback) Output(category, line string) error { return nil }

func TestSend_SuccessOmitsError(t *testing.T) {
	cb := &recordingCallback{}
	err := Send(cb, OK(4, struct{}{}))
	assert.NoError(t, err)
	assert.Len(t, cb.messages, 1)
	assert.NotContains(t, string(cb.messages[0]), `"error"`)
}

func TestSend_ErrorOmitsResult(t *testing.T) {
	cb := &recordingCallback{}
	err := Send(cb, Errorf(4, "Unknown command: Foo.bar"))
	assert.NoError(t, err)
	assert.Contains(t, string(cb.messages[0]), "Unknown command: Foo.bar")
	assert.NotContains(t, string(cb.messages[0]), `"result"`)
}

func TestEmit_HasNoID(t *testing.T) {
	cb := &recordingCallback{}
	err := Emit(cb, Event{Method: "Debugger.resumed"})
	assert.NoError(t, err)
	assert.NotContains(t, string(cb.messages[0]), `"id"`)
}
