package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/voiceast/voiceast/device"
	"github.com/voiceast/voiceast/models"
)

// AI is the language/vision model collaborator, a black box with its own
// latency and failure modes.
type AI interface {
	Chat(ctx context.Context, utterance string, facts []string) (string, error)
	DescribeImage(ctx context.Context, image []byte, question string) (string, error)
}

// Memory is the remember/recall fact store collaborator.
type Memory interface {
	Remember(ctx context.Context, fact string) (string, error)
	Recall(ctx context.Context, subject string) (string, bool, error)
}

// Executor turns a classified command into exactly one ExecutionResult.
// Failure is always represented in the result, never raised; nothing in
// here may take the session loop down.
type Executor struct {
	dev       *device.Controller
	ai        AI
	memory    Memory
	aiTimeout time.Duration
	logger    *zap.Logger
}

// New builds an Executor. ai and memory may be nil in reduced deployments;
// the affected intents then report failure instead of panicking.
func New(dev *device.Controller, ai AI, memory Memory, aiTimeout time.Duration) *Executor {
	if aiTimeout <= 0 {
		aiTimeout = 8 * time.Second
	}
	return &Executor{
		dev:       dev,
		ai:        ai,
		memory:    memory,
		aiTimeout: aiTimeout,
		logger:    zap.L().Named("executor"),
	}
}

// Execute runs one command. The switch over the intent enum is exhaustive;
// adding an intent without handling it here falls through to the
// conversational fallback rather than silently no-oping.
func (e *Executor) Execute(ctx context.Context, cmd models.Command) models.ExecutionResult {
	m := cmd.Match
	lang := cmd.Language
	if lang == "" {
		lang = "en"
	}

	switch m.Intent {
	case models.IntentOpenApp:
		msg, err := e.dev.OpenApp(m.Param("app_name"))
		return e.finish(msg, err, localized(lang, "hi", fmt.Sprintf("%s खोला जा रहा है", m.Param("app_name")), msg), nil)

	case models.IntentCloseApp:
		msg, err := e.dev.CloseApp(m.Param("app_name"))
		return e.finish(msg, err, localized(lang, "hi", fmt.Sprintf("%s बंद किया जा रहा है", m.Param("app_name")), msg), nil)

	case models.IntentCreateFile:
		msg, err := e.dev.CreateFile(m.Param("file_name"))
		return e.finish(msg, err, msg, nil)

	case models.IntentDeleteFile:
		confirmed := cmd.Confirmed || m.Param("confirm") == "true"
		msg, err := e.dev.DeleteFile(m.Param("file_name"), confirmed)
		return e.finish(msg, err, msg, nil)

	case models.IntentListFiles:
		msg, files, err := e.dev.ListFiles(m.Param("directory"))
		return e.finish(msg, err, msg, map[string]interface{}{"files": files})

	case models.IntentSearchFiles:
		msg, matches, err := e.dev.SearchFiles(m.Param("query"), m.Param("directory"))
		return e.finish(msg, err, msg, map[string]interface{}{"matches": matches})

	case models.IntentVolumeUp:
		msg, err := e.dev.AdjustVolume("up")
		return e.finish(msg, err, localized(lang, "hi", "वॉल्यूम बढ़ाया जा रहा है", msg), nil)

	case models.IntentVolumeDown:
		msg, err := e.dev.AdjustVolume("down")
		return e.finish(msg, err, localized(lang, "hi", "वॉल्यूम घटाया जा रहा है", msg), nil)

	case models.IntentMute:
		msg, err := e.dev.AdjustVolume("mute")
		return e.finish(msg, err, localized(lang, "hi", "म्यूट किया जा रहा है", msg), nil)

	case models.IntentBrightnessUp:
		msg, err := e.dev.AdjustBrightness("up")
		return e.finish(msg, err, msg, nil)

	case models.IntentBrightnessDown:
		msg, err := e.dev.AdjustBrightness("down")
		return e.finish(msg, err, msg, nil)

	case models.IntentScreenshot:
		msg, err := e.dev.Screenshot()
		return e.finish(msg, err, localized(lang, "hi", "स्क्रीनशॉट लिया गया", msg), nil)

	case models.IntentGetTime:
		now := time.Now().Format("3:04 PM")
		msg := fmt.Sprintf("The current time is %s", now)
		if lang == "hi" {
			msg = fmt.Sprintf("अभी समय %s बजे है", now)
		}
		return success(msg, map[string]interface{}{"time": now})

	case models.IntentGetDate:
		today := time.Now().Format("January 2, 2006")
		msg := fmt.Sprintf("Today is %s", today)
		if lang == "hi" {
			msg = fmt.Sprintf("आज की तारीख %s है", today)
		}
		return success(msg, map[string]interface{}{"date": today})

	case models.IntentSystemInfo:
		msg, info, err := e.dev.GetSystemInfo()
		return e.finish(msg, err, msg, map[string]interface{}{"info": info})

	case models.IntentWebSearch:
		msg, err := e.dev.WebSearch(m.Param("query"))
		return e.finish(msg, err, localized(lang, "hi", fmt.Sprintf("%s खोजा जा रहा है", m.Param("query")), msg), nil)

	case models.IntentOpenCamera:
		return models.ExecutionResult{
			Success: true,
			Message: "Opening camera. Ask me what I see.",
			Data:    map[string]interface{}{"action": "open_camera"},
		}

	case models.IntentCloseCamera:
		return models.ExecutionResult{
			Success: true,
			Message: "Camera closed.",
			Data:    map[string]interface{}{"action": "close_camera"},
		}

	case models.IntentAnalyzeImage:
		return e.analyzeImage(ctx, cmd)

	case models.IntentRememberFact:
		return e.remember(ctx, m.Param("fact"))

	case models.IntentRecallFact:
		return e.recall(ctx, m.Param("subject"))

	case models.IntentSendMessage:
		msg, err := e.dev.SendMessage(m.Param("contact"), m.Param("platform"), m.Param("message_body"))
		return e.finish(msg, err, msg, nil)

	case models.IntentGreeting:
		msg := "Hello! I'm Prime, your voice assistant. How can I help you today?"
		if lang == "hi" {
			msg = "नमस्ते! मैं प्राइम हूं, आपका वॉइस असिस्टेंट। मैं आपकी कैसे मदद कर सकता हूं?"
		}
		return success(msg, nil)

	case models.IntentHelp:
		msg := "I can open applications, manage files, adjust volume and brightness, " +
			"take screenshots, remember things for you, and answer questions. " +
			"Try 'open notepad' or 'what time is it'."
		if lang == "hi" {
			msg = "मैं ऐप्लिकेशन खोलने, फ़ाइलें प्रबंधित करने, सिस्टम सेटिंग्स बदलने और सवालों के जवाब देने में मदद कर सकता हूं।"
		}
		return success(msg, nil)

	case models.IntentShutdown:
		msg, err := e.dev.Shutdown()
		return e.finish(msg, err, msg, nil)

	case models.IntentRestart:
		msg, err := e.dev.Restart()
		return e.finish(msg, err, msg, nil)

	default:
		return e.converse(ctx, cmd)
	}
}

// converse forwards an unmatched utterance to the language model, bounded
// by the slow-path timeout. The session stays alive however this ends.
func (e *Executor) converse(ctx context.Context, cmd models.Command) models.ExecutionResult {
	if e.ai == nil {
		return failure("I can only run device commands right now; the AI service is not configured.")
	}
	ctx, cancel := context.WithTimeout(ctx, e.aiTimeout)
	defer cancel()

	var facts []string
	if e.memory != nil {
		if fact, ok, err := e.memory.Recall(ctx, cmd.Match.Text); err == nil && ok {
			facts = append(facts, fact)
		}
	}
	reply, err := e.ai.Chat(ctx, cmd.Match.Text, facts)
	if err != nil {
		e.logger.Warn("language model call failed", zap.Error(err))
		return failure("The AI service is unavailable right now. Device commands still work.")
	}
	return success(reply, nil)
}

func (e *Executor) analyzeImage(ctx context.Context, cmd models.Command) models.ExecutionResult {
	if e.ai == nil {
		return failure("Vision is not configured.")
	}
	if len(cmd.Image) == 0 {
		return failure("I don't have a camera frame to look at. Say 'open camera' first.")
	}
	ctx, cancel := context.WithTimeout(ctx, e.aiTimeout)
	defer cancel()

	description, err := e.ai.DescribeImage(ctx, cmd.Image, cmd.Match.Text)
	if err != nil {
		e.logger.Warn("vision model call failed", zap.Error(err))
		return failure("The vision service is unavailable right now.")
	}
	return success(description, map[string]interface{}{"vision": true})
}

func (e *Executor) remember(ctx context.Context, fact string) models.ExecutionResult {
	if e.memory == nil {
		return failure("Memory is not configured.")
	}
	subject, err := e.memory.Remember(ctx, fact)
	if err != nil {
		e.logger.Warn("storing fact failed", zap.Error(err))
		return failure("I couldn't save that, sorry.")
	}
	return success(fmt.Sprintf("Got it, I'll remember that about %s.", subject), nil)
}

func (e *Executor) recall(ctx context.Context, subject string) models.ExecutionResult {
	if e.memory == nil {
		return failure("Memory is not configured.")
	}
	fact, ok, err := e.memory.Recall(ctx, subject)
	if err != nil {
		e.logger.Warn("recalling fact failed", zap.Error(err))
		return failure("I couldn't check my memory just now.")
	}
	if !ok {
		return failure(fmt.Sprintf("I don't know anything about %s yet.", subject))
	}
	return success(fact, nil)
}

// finish folds a device call's (message, error) pair into a result,
// mapping the error taxonomy onto spoken explanations.
func (e *Executor) finish(msg string, err error, successMsg string, data map[string]interface{}) models.ExecutionResult {
	if err == nil {
		if successMsg != "" {
			msg = successMsg
		}
		return success(msg, data)
	}
	e.logger.Debug("command failed", zap.Error(err))
	return failure(explain(err))
}

// explain renders a device error as something worth speaking aloud.
func explain(err error) string {
	switch {
	case errors.Is(err, device.ErrAppNotFound):
		return fmt.Sprintf("I don't recognize that application. %s", err)
	case errors.Is(err, device.ErrConfirmationRequired):
		return fmt.Sprintf("That needs confirmation. %s", err)
	case errors.Is(err, device.ErrPathRejected):
		return "I can only touch files inside your documents folder."
	case errors.Is(err, device.ErrDeviceControlUnavailable):
		return "I can't control that on this device."
	case errors.Is(err, device.ErrLaunchFailed):
		return "I found the application but couldn't start it."
	case errors.Is(err, device.ErrAutomationTarget):
		return err.Error()
	default:
		return fmt.Sprintf("Something went wrong: %v", err)
	}
}

func success(msg string, data map[string]interface{}) models.ExecutionResult {
	return models.ExecutionResult{Success: true, Message: msg, Data: data}
}

func failure(msg string) models.ExecutionResult {
	return models.ExecutionResult{Success: false, Message: msg}
}

// localized picks the translated message when the utterance language
// matches want; only success messages are translated.
func localized(lang, want, translated, fallback string) string {
	if lang == want {
		return translated
	}
	return fallback
}
