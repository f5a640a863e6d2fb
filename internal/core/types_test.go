package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "user", want: RoleUser},
		{in: "Assistant", want: RoleAssistant},
		{in: " bot ", want: RoleAssistant},
		{in: "system", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestConversationKey(t *testing.T) {
	direct := DirectKey(42)
	assert.False(t, direct.IsGroup())
	assert.Equal(t, "user:42", direct.String())

	group := GroupKey(42, -100500)
	assert.True(t, group.IsGroup())
	assert.Equal(t, "group:-100500", group.String())
}

func TestPromptSequence_Messages(t *testing.T) {
	seq := PromptSequence{
		Instruction: "be brief",
		History: []Message{
			{Role: RoleUser, Content: "Hi"},
			{Role: RoleAssistant, Content: "Hello"},
		},
		Query: "What is X?",
	}

	assert.Equal(t, []ChatMessage{
		{Role: ChatRoleSystem, Content: "be brief"},
		{Role: ChatRoleUser, Content: "Hi"},
		{Role: ChatRoleAssistant, Content: "Hello"},
		{Role: ChatRoleUser, Content: "What is X?"},
	}, seq.Messages())

	bare := PromptSequence{Query: "q"}
	assert.Equal(t, []ChatMessage{{Role: ChatRoleUser, Content: "q"}}, bare.Messages())
}

func TestAnswerError(t *testing.T) {
	cause := errors.New("http 500")
	err := error(NewGenerationError(cause))

	var aerr *AnswerError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, CodeAnswerGenerationFailed, aerr.Code)
	assert.Contains(t, aerr.UserMessage, CodeAnswerGenerationFailed)
	assert.ErrorIs(t, err, ErrAnswerGenerationFailed)
	assert.ErrorIs(t, err, cause)

	budget := error(NewTokenBudgetError(ErrTokenBudgetExceeded))
	assert.ErrorIs(t, budget, ErrTokenBudgetExceeded)
	assert.Contains(t, budget.Error(), CodeTokenBudgetExceeded)
}

func TestParseDay(t *testing.T) {
	day, err := ParseDay("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15T00:00:00Z", day.Format("2006-01-02T15:04:05Z07:00"))

	for _, bad := range []string{"", "15.03.2024", "2024-13-01", "2024-03-15T10:00"} {
		_, err := ParseDay(bad)
		assert.Error(t, err, bad)
	}
}
