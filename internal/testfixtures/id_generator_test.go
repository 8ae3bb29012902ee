package testfixtures

import "testing"

func TestIDSequenceProducesSequentialValues(t *testing.T) {
	seq := NewIDSequence(10)
	if got := seq.Next(); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
	if got := seq.Next(); got != 11 {
		t.Fatalf("expected 11, got %d", got)
	}

	seq.SetNext(1)
	if got := seq.Next(); got != 1 {
		t.Fatalf("expected reset to 1, got %d", got)
	}
}

func TestIDSequenceDefaultsToOne(t *testing.T) {
	seq := NewIDSequence(0)
	if got := seq.Next(); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
}

func TestIDSequenceNextFuncOnNil(t *testing.T) {
	var seq *IDSequence
	if got := seq.NextFunc()(); got != 0 {
		t.Fatalf("expected 0 from nil sequence, got %d", got)
	}
}
