package cli

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sandevgo/teambot/internal/core"
)

type fakeResponder struct {
	key core.ConversationKey
	err error
}

func (f *fakeResponder) Respond(ctx context.Context, key core.ConversationKey, text string) (string, error) {
	f.key = key
	return strings.ToUpper(text), f.err
}

type fakeRouter struct {
	caller core.Caller
}

func (f *fakeRouter) Execute(ctx context.Context, caller core.Caller, input string) (string, bool) {
	f.caller = caller
	if strings.HasPrefix(input, "/") {
		return "command " + input, true
	}
	return "", false
}

func (f *fakeRouter) ListCommands() []core.Command { return nil }

func TestHandle(t *testing.T) {
	resp, router := &fakeResponder{}, &fakeRouter{}
	r := &ReadLine{responder: resp, router: router}

	_, ok := r.handle(context.Background(), "")
	assert.False(t, ok)

	reply, ok := r.handle(context.Background(), "/stats")
	assert.True(t, ok)
	assert.Equal(t, "command /stats", reply)
	assert.True(t, router.caller.IsAdmin)

	reply, _ = r.handle(context.Background(), "hello")
	assert.Equal(t, "HELLO", reply)
	assert.Equal(t, core.DirectKey(LocalUserID), resp.key)

	resp.err = errors.New("boom")
	reply, _ = r.handle(context.Background(), "hello")
	assert.Equal(t, "Error: boom", reply)
}
