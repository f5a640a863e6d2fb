package memory

import (
	"fmt"
	"time"

	"github.com/sandevgo/teambot/internal/core"
)

// exchange is a user turn and the assistant turn that immediately follows it.
type exchange struct {
	user      core.Message
	assistant core.Message
	tokens    int
}

// Window is the slice of history replayed for one request.
type Window struct {
	Messages []core.Message
	// Tokens covers the replayed history only, not the reserved part.
	Tokens  int
	Evicted int
}

// FitWindow selects the most recent history that fits into budget together
// with reserved tokens. Turns are only ever dropped as whole exchanges, oldest
// first. A trailing user turn without a reply is kept as-is. Unpaired turns in
// the middle of the log are skipped, and so is anything not strictly older
// than before (zero before disables that filter).
//
// The result is a contiguous suffix of the log's exchanges, not of its raw
// messages: for [U1 A1 U2 U3 A3] the window may hold U1 A1 U3 A3 but never U2.
func FitWindow(history []core.Message, before time.Time, reserved, budget int, counter core.TokenCounter) (Window, error) {
	pairs, trailing := pairUp(history, before)

	total := reserved
	for i := range pairs {
		pairs[i].tokens = counter.Count(pairs[i].user.Content) + counter.Count(pairs[i].assistant.Content)
		total += pairs[i].tokens
	}
	if trailing != nil {
		total += counter.Count(trailing.Content)
	}

	evicted := 0
	for total > budget && len(pairs)-evicted > 1 {
		total -= pairs[evicted].tokens
		evicted++
	}

	if total > budget {
		return Window{}, fmt.Errorf("%w: %d tokens needed, budget is %d", core.ErrTokenBudgetExceeded, total, budget)
	}

	kept := pairs[evicted:]
	msgs := make([]core.Message, 0, len(kept)*2+1)
	for _, p := range kept {
		msgs = append(msgs, p.user, p.assistant)
	}
	if trailing != nil {
		msgs = append(msgs, *trailing)
	}

	return Window{
		Messages: msgs,
		Tokens:   total - reserved,
		Evicted:  evicted,
	}, nil
}

func pairUp(history []core.Message, before time.Time) ([]exchange, *core.Message) {
	var (
		pairs   []exchange
		pending *core.Message
	)

	for i := range history {
		msg := history[i]
		if !before.IsZero() && !msg.CreatedAt.Before(before) {
			continue
		}

		switch msg.Role {
		case core.RoleUser:
			// A second user turn in a row orphans the first one.
			pending = &msg
		case core.RoleAssistant:
			if pending != nil {
				pairs = append(pairs, exchange{user: *pending, assistant: msg})
				pending = nil
			}
		}
	}
	return pairs, pending
}
