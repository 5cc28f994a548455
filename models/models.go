package models

import (
	"time"
)

// Intent is the closed set of actions an utterance can request. Anything the
// classifier cannot place lands on IntentConversational and is answered by
// the language model.
type Intent string

const (
	IntentOpenApp        Intent = "open_app"
	IntentCloseApp       Intent = "close_app"
	IntentCreateFile     Intent = "create_file"
	IntentDeleteFile     Intent = "delete_file"
	IntentListFiles      Intent = "list_files"
	IntentSearchFiles    Intent = "search_files"
	IntentVolumeUp       Intent = "volume_up"
	IntentVolumeDown     Intent = "volume_down"
	IntentMute           Intent = "mute"
	IntentBrightnessUp   Intent = "brightness_up"
	IntentBrightnessDown Intent = "brightness_down"
	IntentScreenshot     Intent = "screenshot"
	IntentGetTime        Intent = "get_time"
	IntentGetDate        Intent = "get_date"
	IntentSystemInfo     Intent = "system_info"
	IntentWebSearch      Intent = "web_search"
	IntentOpenCamera     Intent = "open_camera"
	IntentCloseCamera    Intent = "close_camera"
	IntentAnalyzeImage   Intent = "analyze_image"
	IntentRememberFact   Intent = "remember_fact"
	IntentRecallFact     Intent = "recall_fact"
	IntentSendMessage    Intent = "send_message"
	IntentGreeting       Intent = "greeting"
	IntentHelp           Intent = "help"
	IntentShutdown       Intent = "shutdown"
	IntentRestart        Intent = "restart"
	IntentConversational Intent = "conversational"
)

// Utterance is one transcribed or typed request. It lives for a single
// dispatch and is discarded afterwards.
type Utterance struct {
	Text     string
	Language string // "en" or "hi"
	Image    []byte // optional camera frame for vision queries
}

// IntentMatch is the classifier's verdict: exactly one intent per utterance,
// extracted parameters, and a confidence in [0,1].
type IntentMatch struct {
	Intent     Intent
	Params     map[string]string
	Confidence float64
	Text       string
}

// Param returns the named extracted parameter or "".
func (m IntentMatch) Param(name string) string {
	return m.Params[name]
}

// Command is the parameter-bound unit of execution derived from a match.
type Command struct {
	Match    IntentMatch
	Language string
	Image    []byte
	// Confirmed marks a destructive command the user has explicitly
	// confirmed ("confirm delete file x").
	Confirmed bool
}

// ExecutionResult is the single outcome of running a Command. Failure is
// represented here, never raised through the session loop.
type ExecutionResult struct {
	Success bool
	Message string
	Data    map[string]interface{}
	Audio   string // base64 synthesized speech, may be empty
}

// HistoryEntry is one appended record of a dispatched command.
type HistoryEntry struct {
	Command   string    `json:"command"`
	Intent    string    `json:"intent"`
	Response  string    `json:"response"`
	Success   bool      `json:"success"`
	Timestamp time.Time `json:"timestamp"`
}

// Statistics is the derived view over the history counters.
type Statistics struct {
	TotalCommands      int64   `json:"total_commands"`
	SuccessfulCommands int64   `json:"successful_commands"`
	SuccessRate        float64 `json:"success_rate"`
}
