package admission

// Role identifies who wrote a chat message.
type Role string

// Chat roles.
const (
	RoleUser Role = "user"
	RoleAI   Role = "ai"
)

// ChatMessage is one entry of the advisor chat.
type ChatMessage struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Transcript is the ordered chat history of a session.
type Transcript []ChatMessage

// Append adds a message at the end.
func (t *Transcript) Append(role Role, text string) {
	*t = append(*t, ChatMessage{Role: role, Text: text})
}

// AppendToLast appends text to the final message. It reports false when the
// transcript is empty.
func (t *Transcript) AppendToLast(text string) bool {
	if len(*t) == 0 {
		return false
	}
	(*t)[len(*t)-1].Text += text
	return true
}

// ReplaceLast overwrites the text of the final message.
func (t *Transcript) ReplaceLast(text string) bool {
	if len(*t) == 0 {
		return false
	}
	(*t)[len(*t)-1].Text = text
	return true
}

// Last returns the final message.
func (t Transcript) Last() (ChatMessage, bool) {
	if len(t) == 0 {
		return ChatMessage{}, false
	}
	return t[len(t)-1], true
}
