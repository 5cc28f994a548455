package store

import (
	"context"
	"errors"
	"testing"
)

func TestNormalizeSubject(t *testing.T) {
	cases := []struct {
		fact string
		want string
	}{
		{"my birthday is june first", "my birthday"},
		{"My sister lives in Pune", "my sister"},
		{"the wifi password is hunter2", "the wifi password"},
		{"I like green tea", "i"},
		{"blue mountain coffee beans from jamaica", "blue mountain coffee"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tc := range cases {
		if got := NormalizeSubject(tc.fact); got != tc.want {
			t.Errorf("NormalizeSubject(%q) = %q, want %q", tc.fact, got, tc.want)
		}
	}
}

func TestRememberAndRecall(t *testing.T) {
	f := NewFacts(testRedis(t), nil)
	ctx := context.Background()

	subject, err := f.Remember(ctx, "my birthday is june first")
	if err != nil {
		t.Fatalf("Remember: %v", err)
	}
	if subject != "my birthday" {
		t.Errorf("subject = %q, want %q", subject, "my birthday")
	}

	fact, ok, err := f.Recall(ctx, "my birthday")
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if !ok {
		t.Fatal("fact not found")
	}
	if fact != "my birthday is june first" {
		t.Errorf("fact = %q", fact)
	}

	// rephrased query normalizing to the same subject still hits
	fact, ok, err = f.Recall(ctx, "my birthday is when?")
	if err != nil || !ok {
		t.Fatalf("rephrased recall: ok=%v err=%v", ok, err)
	}
	if fact != "my birthday is june first" {
		t.Errorf("fact = %q", fact)
	}
}

func TestRecallUnknownSubject(t *testing.T) {
	f := NewFacts(testRedis(t), nil)

	fact, ok, err := f.Recall(context.Background(), "the meaning of life")
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if ok || fact != "" {
		t.Errorf("expected a don't-know answer, got ok=%v fact=%q", ok, fact)
	}
}

func TestRememberOverwritesSameSubject(t *testing.T) {
	f := NewFacts(testRedis(t), nil)
	ctx := context.Background()

	if _, err := f.Remember(ctx, "my car is a honda"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Remember(ctx, "my car is a toyota"); err != nil {
		t.Fatal(err)
	}

	fact, ok, _ := f.Recall(ctx, "my car")
	if !ok || fact != "my car is a toyota" {
		t.Errorf("latest fact should win, got ok=%v fact=%q", ok, fact)
	}
}

func TestRememberEmptyFact(t *testing.T) {
	f := NewFacts(testRedis(t), nil)
	if _, err := f.Remember(context.Background(), "   "); err == nil {
		t.Fatal("expected an error for an empty fact")
	}
}

type fakeSemantic struct {
	upserts  int
	queryHit string
	err      error
}

func (s *fakeSemantic) Upsert(ctx context.Context, subject, fact string) error {
	s.upserts++
	return s.err
}

func (s *fakeSemantic) Query(ctx context.Context, text string) (string, bool, error) {
	if s.err != nil {
		return "", false, s.err
	}
	if s.queryHit == "" {
		return "", false, nil
	}
	return s.queryHit, true, nil
}

func TestSemanticFallback(t *testing.T) {
	sem := &fakeSemantic{queryHit: "my sister lives in pune"}
	f := NewFacts(testRedis(t), sem)
	ctx := context.Background()

	// exact key misses, semantic index answers
	fact, ok, err := f.Recall(ctx, "where does my sibling live")
	if err != nil {
		t.Fatalf("Recall: %v", err)
	}
	if !ok || fact != "my sister lives in pune" {
		t.Errorf("semantic fallback missed: ok=%v fact=%q", ok, fact)
	}
}

func TestSemanticFailuresAreSoft(t *testing.T) {
	sem := &fakeSemantic{err: errors.New("index down")}
	f := NewFacts(testRedis(t), sem)
	ctx := context.Background()

	// remember still succeeds when the mirror write fails
	if _, err := f.Remember(ctx, "my dog is called rex"); err != nil {
		t.Fatalf("Remember with failing index: %v", err)
	}
	if sem.upserts != 1 {
		t.Errorf("upsert attempts = %d, want 1", sem.upserts)
	}

	// recall degrades to don't-know instead of erroring
	_, ok, err := f.Recall(ctx, "something unstored")
	if err != nil {
		t.Fatalf("Recall with failing index: %v", err)
	}
	if ok {
		t.Error("expected a don't-know answer")
	}
}
