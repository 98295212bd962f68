package auth

import "testing"

func TestThrottlerBlocksAfterFailure(t *testing.T) {
	th := NewThrottler(10)
	if !th.Allow("alice") {
		t.Fatal("unknown username should be allowed")
	}
	th.RecordFailure("alice")
	if th.Allow("alice") {
		t.Fatal("expected alice to be blocked immediately after a failure")
	}
}

func TestThrottlerSuccessClearsState(t *testing.T) {
	th := NewThrottler(10)
	th.RecordFailure("bob")
	th.RecordSuccess("bob")
	if !th.Allow("bob") {
		t.Fatal("expected success to clear backoff state")
	}
}

func TestThrottlerEvictsAtCapacity(t *testing.T) {
	th := NewThrottler(2)
	th.RecordFailure("a")
	th.RecordFailure("b")
	th.RecordFailure("c")
	if len(th.entries) > 2 {
		t.Fatalf("entries = %d, want at most 2", len(th.entries))
	}
}

func TestHashAndCheckPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hash, "correct horse battery staple") {
		t.Fatal("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong password") {
		t.Fatal("expected mismatched password to fail verification")
	}
}
