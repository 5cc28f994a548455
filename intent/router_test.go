package intent

import (
	"testing"

	"github.com/voiceast/voiceast/models"
)

func TestRoutePartition(t *testing.T) {
	slow := map[models.Intent]bool{
		models.IntentConversational: true,
		models.IntentAnalyzeImage:   true,
	}

	all := []models.Intent{
		models.IntentOpenApp, models.IntentCloseApp,
		models.IntentCreateFile, models.IntentDeleteFile,
		models.IntentListFiles, models.IntentSearchFiles,
		models.IntentVolumeUp, models.IntentVolumeDown, models.IntentMute,
		models.IntentBrightnessUp, models.IntentBrightnessDown,
		models.IntentScreenshot,
		models.IntentGetTime, models.IntentGetDate, models.IntentSystemInfo,
		models.IntentWebSearch,
		models.IntentOpenCamera, models.IntentCloseCamera, models.IntentAnalyzeImage,
		models.IntentRememberFact, models.IntentRecallFact,
		models.IntentSendMessage,
		models.IntentGreeting, models.IntentHelp,
		models.IntentShutdown, models.IntentRestart,
		models.IntentConversational,
	}

	for _, in := range all {
		got := Route(models.IntentMatch{Intent: in})
		want := FastPath
		if slow[in] {
			want = SlowPath
		}
		if got != want {
			t.Errorf("Route(%s) = %s, want %s", in, got, want)
		}
	}
}

// Remember and recall stay on the fast path; their collaborator is the
// local store, not a model.
func TestRouteMemoryIsFast(t *testing.T) {
	if Route(models.IntentMatch{Intent: models.IntentRememberFact}) != FastPath {
		t.Fatal("remember_fact routed slow")
	}
	if Route(models.IntentMatch{Intent: models.IntentRecallFact}) != FastPath {
		t.Fatal("recall_fact routed slow")
	}
}

func TestPathString(t *testing.T) {
	if FastPath.String() != "fast" || SlowPath.String() != "slow" {
		t.Fatalf("unexpected path names: %s, %s", FastPath, SlowPath)
	}
}
