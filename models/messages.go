package models

// Inbound message types accepted over the WebSocket.
const (
	MsgGreeting       = "greeting"
	MsgVoiceCommand   = "voice_command"
	MsgVoiceAudioFile = "voice_audio_file"
	MsgAnalyzeFrame   = "analyze_frame"
	MsgPing           = "ping"
	MsgStop           = "stop"
)

// Outbound event types emitted over the WebSocket.
const (
	EventConnected     = "connected"
	EventProcessing    = "processing"
	EventIntent        = "intent"
	EventResult        = "result"
	EventVisionResult  = "vision_result"
	EventTranscription = "transcription"
	EventReady         = "ready"
	EventError         = "error"
	EventPong          = "pong"
)

// ClientMessage is the envelope for everything a client sends.
type ClientMessage struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Language string `json:"language,omitempty"`
	Image    string `json:"image,omitempty"` // base64 JPEG
	Audio    string `json:"audio,omitempty"` // base64 WAV
}

// Event is the envelope for everything the server emits. Success is a
// pointer so that result events carry an explicit false instead of omitting
// the field.
type Event struct {
	Type        string                 `json:"type"`
	Message     string                 `json:"message,omitempty"`
	Success     *bool                  `json:"success,omitempty"`
	Intent      string                 `json:"intent,omitempty"`
	Confidence  *float64               `json:"confidence,omitempty"`
	Text        string                 `json:"text,omitempty"`
	IsFinal     bool                   `json:"isFinal,omitempty"`
	Description string                 `json:"description,omitempty"`
	Audio       string                 `json:"audio,omitempty"`
	Language    string                 `json:"language,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// ResultEvent builds a result event from an ExecutionResult.
func ResultEvent(res ExecutionResult, language string) Event {
	ok := res.Success
	return Event{
		Type:     EventResult,
		Success:  &ok,
		Message:  res.Message,
		Audio:    res.Audio,
		Language: language,
		Data:     res.Data,
	}
}

// VisionEvent builds a vision_result event.
func VisionEvent(success bool, description, audio string) Event {
	ok := success
	return Event{
		Type:        EventVisionResult,
		Success:     &ok,
		Description: description,
		Audio:       audio,
	}
}

// ErrorEvent builds an error event with a human-readable message.
func ErrorEvent(message string) Event {
	return Event{Type: EventError, Message: message}
}
