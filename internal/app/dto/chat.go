package dto

// ChatTurn is one prior exchange in the assistant conversation.
type ChatTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// ChatRequest is the assistant input: the new message plus prior turns.
type ChatRequest struct {
	Message string     `json:"message"`
	History []ChatTurn `json:"history"`
}

// ChatReply is the one-shot assistant answer.
type ChatReply struct {
	Reply string `json:"reply"`
}
