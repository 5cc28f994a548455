package intent

import (
	"regexp"
	"strings"

	"github.com/voiceast/voiceast/models"
)

// pattern binds one regular expression to an intent and the names of its
// capture groups, in order. A nil names slice means the pattern carries no
// parameters.
type pattern struct {
	re     *regexp.Regexp
	intent models.Intent
	names  []string
}

// The table is evaluated strictly top to bottom and the first match wins.
// Ordering is load-bearing: system and application control come first (the
// latency-critical set), camera before the generic open/close patterns,
// file search before web search. Reordering entries changes observable
// behavior, which is why the order itself is under test.
var patterns = []pattern{
	// System control.
	{regexp.MustCompile(`(?i)(?:increase|raise|turn up)\s+(?:the\s+)?volume|volume\s+up|\blouder\b`), models.IntentVolumeUp, nil},
	{regexp.MustCompile(`(?i)(?:decrease|lower|turn down)\s+(?:the\s+)?volume|volume\s+down|\bquieter\b`), models.IntentVolumeDown, nil},
	{regexp.MustCompile(`(?i)\bmute\b|\bsilence\b`), models.IntentMute, nil},
	{regexp.MustCompile(`(?i)(?:increase|raise)\s+(?:the\s+)?brightness|brightness\s+up|make\s+it\s+brighter`), models.IntentBrightnessUp, nil},
	{regexp.MustCompile(`(?i)(?:decrease|lower)\s+(?:the\s+)?brightness|brightness\s+down|make\s+it\s+darker`), models.IntentBrightnessDown, nil},
	{regexp.MustCompile(`(?i)take\s+(?:a\s+)?screenshot|capture\s+(?:the\s+)?screen|print\s+screen`), models.IntentScreenshot, nil},

	// Camera must precede the generic open/close application patterns.
	{regexp.MustCompile(`(?i)(?:open|start|turn on)\s+(?:the\s+)?camera`), models.IntentOpenCamera, nil},
	{regexp.MustCompile(`(?i)(?:close|stop|turn off)\s+(?:the\s+)?camera`), models.IntentCloseCamera, nil},
	{regexp.MustCompile(`(?i)what\s+do\s+you\s+see|describe\s+what\s+you\s+see|analyze\s+(?:this|the)\s+(?:image|frame|picture)`), models.IntentAnalyzeImage, nil},

	// Messaging before close/open so "send a message to x on y" never
	// degrades into an app launch.
	{regexp.MustCompile(`(?i)send\s+(?:a\s+)?message\s+to\s+(\w+)\s+on\s+(\w+)\s+saying\s+(.+)`), models.IntentSendMessage, []string{"contact", "platform", "message_body"}},
	{regexp.MustCompile(`(?i)tell\s+(\w+)\s+on\s+(\w+)\s+(?:that\s+)?(.+)`), models.IntentSendMessage, []string{"contact", "platform", "message_body"}},

	// File operations before application control: "create file x" must not
	// become open_app, and the confirmed delete must precede the plain one.
	{regexp.MustCompile(`(?i)^confirm\s+delet(?:e|ing)\s+(?:the\s+)?file\s+(\S+)`), models.IntentDeleteFile, []string{"file_name", "+confirm"}},
	{regexp.MustCompile(`(?i)(?:create|make)\s+(?:a\s+)?(?:new\s+)?file\s+(?:named\s+|called\s+)?(\S+)`), models.IntentCreateFile, []string{"file_name"}},
	{regexp.MustCompile(`(?i)(?:delete|remove)\s+(?:the\s+)?file\s+(\S+)`), models.IntentDeleteFile, []string{"file_name"}},
	{regexp.MustCompile(`(?i)(?:list|show)\s+(?:the\s+)?files(?:\s+in\s+(.+))?`), models.IntentListFiles, []string{"directory"}},
	{regexp.MustCompile(`(?i)(?:search\s+for|find)\s+(.+?)\s+in\s+(?:my\s+)?(?:files|documents|(.+))`), models.IntentSearchFiles, []string{"query", "directory"}},

	// Application control.
	{regexp.MustCompile(`(?i)^(?:open|launch|start)\s+(.+?)\s*$`), models.IntentOpenApp, []string{"app_name"}},
	{regexp.MustCompile(`(?i)^(?:close|quit|exit|terminate)\s+(.+?)\s*$`), models.IntentCloseApp, []string{"app_name"}},

	// Informational queries.
	{regexp.MustCompile(`(?i)what\s+time\s+is\s+it|tell\s+me\s+the\s+time|current\s+time`), models.IntentGetTime, nil},
	{regexp.MustCompile(`(?i)what(?:'s|\s+is)\s+the\s+date|tell\s+me\s+the\s+date|today'?s?\s+date`), models.IntentGetDate, nil},
	{regexp.MustCompile(`(?i)system\s+info(?:rmation)?|computer\s+info|cpu\s+usage|memory\s+usage`), models.IntentSystemInfo, nil},

	// Web search.
	{regexp.MustCompile(`(?i)(?:search\s+(?:the\s+web\s+)?for|google|look\s+up)\s+(.+)`), models.IntentWebSearch, []string{"query"}},

	// Memory.
	{regexp.MustCompile(`(?i)^remember\s+(?:that\s+)?(.+)`), models.IntentRememberFact, []string{"fact"}},
	{regexp.MustCompile(`(?i)what\s+do\s+you\s+(?:know|remember)\s+about\s+(.+)|^recall\s+(.+)`), models.IntentRecallFact, []string{"subject", "subject"}},

	// Dangerous system control, gated downstream.
	{regexp.MustCompile(`(?i)shut\s*down\s+(?:the\s+)?(?:computer|system|pc)|power\s+off`), models.IntentShutdown, nil},
	{regexp.MustCompile(`(?i)restart\s+(?:the\s+)?(?:computer|system|pc)|\breboot\b`), models.IntentRestart, nil},

	// Greeting and help.
	{regexp.MustCompile(`(?i)^(?:hello|hi|hey|greetings)\b`), models.IntentGreeting, nil},
	{regexp.MustCompile(`(?i)\bhelp\b|what\s+can\s+you\s+do`), models.IntentHelp, nil},
}

const matchConfidence = 0.9

var devanagari = regexp.MustCompile(`[\x{0900}-\x{097F}]`)

// Classify maps an utterance to exactly one intent. It is pure and never
// fails: anything unmatched returns IntentConversational with confidence 0
// so the router escalates it to the language model. The language tag does
// not change matching; the pattern table is English-only.
func Classify(text, _ string) models.IntentMatch {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return models.IntentMatch{
			Intent:     models.IntentConversational,
			Params:     map[string]string{},
			Confidence: 0,
			Text:       text,
		}
	}

	for _, p := range patterns {
		groups := p.re.FindStringSubmatch(trimmed)
		if groups == nil {
			continue
		}
		params := map[string]string{}
		gi := 1
		for _, name := range p.names {
			if name == "+confirm" {
				params["confirm"] = "true"
				continue
			}
			if gi < len(groups) {
				v := strings.TrimSpace(groups[gi])
				// Alternated patterns can leave earlier groups empty;
				// the first non-empty value wins for a repeated name.
				if v != "" && params[name] == "" {
					params[name] = v
				}
			}
			gi++
		}
		return models.IntentMatch{
			Intent:     p.intent,
			Params:     params,
			Confidence: matchConfidence,
			Text:       trimmed,
		}
	}

	return models.IntentMatch{
		Intent:     models.IntentConversational,
		Params:     map[string]string{},
		Confidence: 0,
		Text:       trimmed,
	}
}

// DetectLanguage returns "hi" when the text contains Devanagari script and
// "en" otherwise. Pattern matching still runs against the English table for
// Hindi input; non-English command vocabulary is a known limitation.
func DetectLanguage(text string) string {
	if devanagari.MatchString(text) {
		return "hi"
	}
	return "en"
}
