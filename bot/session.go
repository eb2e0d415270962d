package bot

// state names the next input a multi-step flow expects.
type state int

const (
	stateIdle state = iota
	stateCreateRecipient
	stateCreateCount
	stateCreateExpiry
	stateListRecipient
	stateDeleteRecipient
	stateDeleteCount
)

// session is the per-chat flow state. Only the operator chat ever has
// one in practice, but sessions are keyed by chat to stay correct if
// the operator talks from more than one chat.
type session struct {
	state     state
	recipient string
	count     int
}

func (b *Bot) session(chatID int64) *session {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[chatID]
	if !ok {
		s = &session{}
		b.sessions[chatID] = s
	}
	return s
}

func (b *Bot) resetSession(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, chatID)
}
