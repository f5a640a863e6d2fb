package core

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is the wire shape of a prompt entry.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PromptSequence is the ordered input of one chat model call: instruction,
// replayed history oldest first, then the augmented query.
type PromptSequence struct {
	Instruction string
	History     []Message
	Query       string
}

func (p PromptSequence) Messages() []ChatMessage {
	out := make([]ChatMessage, 0, len(p.History)+2)
	if p.Instruction != "" {
		out = append(out, ChatMessage{Role: ChatRoleSystem, Content: p.Instruction})
	}
	for _, m := range p.History {
		out = append(out, ChatMessage{Role: m.Role.String(), Content: m.Content})
	}
	out = append(out, ChatMessage{Role: ChatRoleUser, Content: p.Query})
	return out
}
