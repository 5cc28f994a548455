package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/voiceast/voiceast/device"
	"github.com/voiceast/voiceast/intent"
	"github.com/voiceast/voiceast/models"
)

type fakeAI struct {
	chatReply   string
	chatCalls   int
	visionReply string
	visionCalls int
	err         error
}

func (f *fakeAI) Chat(ctx context.Context, utterance string, facts []string) (string, error) {
	f.chatCalls++
	if f.err != nil {
		return "", f.err
	}
	return f.chatReply, nil
}

func (f *fakeAI) DescribeImage(ctx context.Context, image []byte, question string) (string, error) {
	f.visionCalls++
	if f.err != nil {
		return "", f.err
	}
	return f.visionReply, nil
}

type fakeMemory struct {
	facts map[string]string
	err   error
}

func (f *fakeMemory) Remember(ctx context.Context, fact string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.facts == nil {
		f.facts = map[string]string{}
	}
	f.facts[fact] = fact
	return "subject", nil
}

func (f *fakeMemory) Recall(ctx context.Context, subject string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	fact, ok := f.facts[subject]
	return fact, ok, nil
}

func testExecutor(t *testing.T, ai AI, mem Memory) (*Executor, string) {
	t.Helper()
	root := t.TempDir()
	dev := device.NewController(nil, nil, root, false)
	return New(dev, ai, mem, 2*time.Second), root
}

func run(e *Executor, text string) models.ExecutionResult {
	match := intent.Classify(text, "en")
	return e.Execute(context.Background(), models.Command{
		Match:     match,
		Language:  "en",
		Confirmed: match.Param("confirm") == "true",
	})
}

func TestGetTimeIsLocal(t *testing.T) {
	ai := &fakeAI{chatReply: "should not be used"}
	e, _ := testExecutor(t, ai, nil)

	res := run(e, "what time is it")
	if !res.Success {
		t.Fatalf("failed: %s", res.Message)
	}
	if res.Message == "" || res.Data["time"] == nil {
		t.Errorf("missing time payload: %+v", res)
	}
	if ai.chatCalls != 0 {
		t.Errorf("local command reached the model: %d calls", ai.chatCalls)
	}
}

func TestGetDateHindi(t *testing.T) {
	e, _ := testExecutor(t, &fakeAI{}, nil)
	res := e.Execute(context.Background(), models.Command{
		Match:    intent.Classify("what is the date", "hi"),
		Language: "hi",
	})
	if !res.Success {
		t.Fatalf("failed: %s", res.Message)
	}
	if !strings.Contains(res.Message, "तारीख") {
		t.Errorf("expected a Hindi message, got %q", res.Message)
	}
}

func TestUnknownUtteranceGoesToModel(t *testing.T) {
	ai := &fakeAI{chatReply: "the sky scatters blue light"}
	e, _ := testExecutor(t, ai, nil)

	res := run(e, "why is the sky blue")
	if !res.Success {
		t.Fatalf("failed: %s", res.Message)
	}
	if res.Message != "the sky scatters blue light" {
		t.Errorf("message = %q", res.Message)
	}
	if ai.chatCalls != 1 {
		t.Errorf("chat calls = %d, want 1", ai.chatCalls)
	}
}

func TestModelFailureProducesResult(t *testing.T) {
	ai := &fakeAI{err: errors.New("upstream 500")}
	e, _ := testExecutor(t, ai, nil)

	res := run(e, "tell me a joke")
	if res.Success {
		t.Fatal("expected a failed result")
	}
	if !strings.Contains(res.Message, "unavailable") {
		t.Errorf("message should say the AI is unavailable: %q", res.Message)
	}
}

func TestDeleteFileRequiresConfirmation(t *testing.T) {
	e, root := testExecutor(t, &fakeAI{}, nil)

	if res := run(e, "create file keep.txt"); !res.Success {
		t.Fatalf("create failed: %s", res.Message)
	}
	path := filepath.Join(root, "keep.txt")

	res := run(e, "delete file keep.txt")
	if res.Success {
		t.Fatal("unconfirmed delete reported success")
	}
	if !strings.Contains(strings.ToLower(res.Message), "confirm") {
		t.Errorf("message should ask for confirmation: %q", res.Message)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal("file was deleted without confirmation")
	}

	res = run(e, "confirm delete file keep.txt")
	if !res.Success {
		t.Fatalf("confirmed delete failed: %s", res.Message)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("file survived confirmed delete")
	}
}

func TestPathEscapeIsFriendlyFailure(t *testing.T) {
	e, _ := testExecutor(t, &fakeAI{}, nil)

	res := run(e, "create file ../../outside.txt")
	if res.Success {
		t.Fatal("path escape succeeded")
	}
	if !strings.Contains(res.Message, "documents folder") {
		t.Errorf("unexpected message: %q", res.Message)
	}
}

func TestCameraCommandsCarryAction(t *testing.T) {
	e, _ := testExecutor(t, &fakeAI{}, nil)

	res := run(e, "open camera")
	if !res.Success || res.Data["action"] != "open_camera" {
		t.Fatalf("open camera result: %+v", res)
	}
	res = run(e, "close camera")
	if !res.Success || res.Data["action"] != "close_camera" {
		t.Fatalf("close camera result: %+v", res)
	}
}

func TestAnalyzeImage(t *testing.T) {
	ai := &fakeAI{visionReply: "a cat on a desk"}
	e, _ := testExecutor(t, ai, nil)

	// no frame attached
	res := e.Execute(context.Background(), models.Command{
		Match: models.IntentMatch{Intent: models.IntentAnalyzeImage, Text: "what do you see"},
	})
	if res.Success {
		t.Fatal("vision without a frame reported success")
	}
	if ai.visionCalls != 0 {
		t.Errorf("model called without a frame")
	}

	res = e.Execute(context.Background(), models.Command{
		Match: models.IntentMatch{Intent: models.IntentAnalyzeImage, Text: "what do you see"},
		Image: []byte{0xFF, 0xD8, 0xFF},
	})
	if !res.Success || res.Message != "a cat on a desk" {
		t.Fatalf("vision result: %+v", res)
	}
}

func TestRememberAndRecall(t *testing.T) {
	mem := &fakeMemory{}
	e, _ := testExecutor(t, &fakeAI{}, mem)

	res := run(e, "remember that my birthday is june first")
	if !res.Success {
		t.Fatalf("remember failed: %s", res.Message)
	}
	if len(mem.facts) != 1 {
		t.Fatalf("stored %d facts, want 1", len(mem.facts))
	}

	// recall of an unknown subject is a spoken don't-know, still a result
	res = run(e, "what do you know about quantum chromodynamics")
	if res.Success {
		t.Fatal("unknown subject reported success")
	}
	if !strings.Contains(res.Message, "don't know") {
		t.Errorf("message = %q", res.Message)
	}
}

func TestMemoryFailureIsSoft(t *testing.T) {
	mem := &fakeMemory{err: errors.New("redis down")}
	e, _ := testExecutor(t, &fakeAI{}, mem)

	res := run(e, "remember that x is y")
	if res.Success {
		t.Fatal("remember with a failing store reported success")
	}
	if res.Message == "" {
		t.Error("failure carried no message")
	}
}

func TestGreetingAndHelpAreLocal(t *testing.T) {
	ai := &fakeAI{}
	e, _ := testExecutor(t, ai, nil)

	if res := run(e, "hello"); !res.Success {
		t.Fatalf("greeting failed: %s", res.Message)
	}
	if res := run(e, "what can you do"); !res.Success {
		t.Fatalf("help failed: %s", res.Message)
	}
	if ai.chatCalls != 0 {
		t.Errorf("greeting or help reached the model")
	}
}

func TestShutdownGated(t *testing.T) {
	e, _ := testExecutor(t, &fakeAI{}, nil)

	res := run(e, "shut down the computer")
	if res.Success {
		t.Fatal("shutdown ran without dangerous commands enabled")
	}
	if !strings.Contains(strings.ToLower(res.Message), "confirmation") {
		t.Errorf("message = %q", res.Message)
	}
}
