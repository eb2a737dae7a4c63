package errx

import (
	"errors"
	"testing"
)

func TestWrapPreservesChain(t *testing.T) {
	base := New("base failure")
	wrapped := Wrap(base, "loading payslip")

	if !errors.Is(wrapped, base) {
		t.Fatalf("expected wrapped error to match base, got %v", wrapped)
	}
	if wrapped.Error() != "loading payslip: base failure" {
		t.Fatalf("unexpected message: %s", wrapped.Error())
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "ctx") != nil {
		t.Fatal("wrapping nil should return nil")
	}
	if Wrapf(nil, "ctx %d", 1) != nil {
		t.Fatal("wrapping nil should return nil")
	}
}

func TestWithCode(t *testing.T) {
	base := New("token too long")
	coded := WithCode(base, "INVALID_IDEMPOTENCY_KEY")

	if Code(coded) != "INVALID_IDEMPOTENCY_KEY" {
		t.Fatalf("expected code, got %q", Code(coded))
	}
	if !errors.Is(coded, base) {
		t.Fatal("coded error should unwrap to base")
	}

	// 错误码应该穿透外层包装
	outer := Wrap(coded, "middleware")
	if Code(outer) != "INVALID_IDEMPOTENCY_KEY" {
		t.Fatalf("expected code through wrap, got %q", Code(outer))
	}
}

func TestCodeOnPlainError(t *testing.T) {
	if Code(New("plain")) != "" {
		t.Fatal("plain error should have no code")
	}
	if Code(nil) != "" {
		t.Fatal("nil error should have no code")
	}
}
