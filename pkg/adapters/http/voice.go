package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aretw0/relay/pkg/domain"
)

// unknownPhone stands in for a caller number the telephony provider did not send.
const unknownPhone = "NOT AVAILABLE"

// VoiceRequest is the OpenAI-style body sent by voice assistant platforms.
type VoiceRequest struct {
	Model    string         `json:"model,omitempty"`
	Messages []VoiceMessage `json:"messages"`
	Metadata struct {
		SessionID string `json:"sessionId"`
	} `json:"metadata"`
	Customer *struct {
		Number string `json:"number"`
	} `json:"customer,omitempty"`
}

// VoiceMessage is one chat message of a VoiceRequest.
type VoiceMessage struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

type completionChunk struct {
	ID                string        `json:"id"`
	Object            string        `json:"object"`
	Created           int64         `json:"created"`
	Model             string        `json:"model"`
	SystemFingerprint *string       `json:"system_fingerprint"`
	Choices           []chunkChoice `json:"choices"`
}

type chunkChoice struct {
	Index        int          `json:"index"`
	Delta        VoiceMessage `json:"delta"`
	Logprobs     *struct{}    `json:"logprobs"`
	FinishReason string       `json:"finish_reason"`
}

// latestUserMessage returns the content of the last message with the user role.
func latestUserMessage(msgs []VoiceMessage) (string, bool) {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == string(domain.RoleUser) {
			return msgs[i].Content, true
		}
	}
	return "", false
}

// VoiceCompletions handles POST /v1/voice/chat/completions.
//
// The latest user message is wrapped with today's date and the caller's
// number, answered by the engine in the request's session, and returned as
// chat.completion.chunk server-sent events terminated by [DONE].
func (s *Server) VoiceCompletions(w http.ResponseWriter, r *http.Request) {
	var body VoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("voice: invalid request body", "error", err)
		return
	}
	msg, ok := latestUserMessage(body.Messages)
	if !ok {
		writeError(w, http.StatusBadRequest, "no user message")
		return
	}

	phone := unknownPhone
	if body.Customer != nil && body.Customer.Number != "" {
		phone = body.Customer.Number
	}
	now := s.now()
	question := fmt.Sprintf("{metadata: {today: '%s', currentPhoneNumber: '%s'}, userMessage: '%s'}",
		now.Format("02/01/2006"), phone, msg)

	resp, ok := s.invoke(w, r, domain.Request{Input: question, SessionID: body.Metadata.SessionID})
	if !ok {
		return
	}

	model := body.Model
	if model == "" {
		model = "relay"
	}
	chunk := func(delta VoiceMessage) completionChunk {
		return completionChunk{
			ID:      "chatcmpl-" + resp.RunID,
			Object:  "chat.completion.chunk",
			Created: now.Unix(),
			Model:   model,
			Choices: []chunkChoice{{Delta: delta, FinishReason: "stop"}},
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	for _, c := range []completionChunk{
		chunk(VoiceMessage{Role: string(domain.RoleAssistant), Content: resp.Output}),
		chunk(VoiceMessage{}),
	} {
		data, err := json.Marshal(c)
		if err != nil {
			s.logger.Error("voice: encode chunk", "error", err)
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
