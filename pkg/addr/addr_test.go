package addr

import "testing"

func TestDerivationIsStableAndSeparated(t *testing.T) {
	if Warrior("alice", "rex") != Warrior("alice", "rex") {
		t.Fatal("derivation must be deterministic")
	}
	// The zero-byte separator keeps concatenation ambiguity out: ("ab","c")
	// and ("a","bc") must not collide.
	if Warrior("ab", "c") == Warrior("a", "bc") {
		t.Fatal("field boundary collision")
	}
	if Config() == Leaderboard() {
		t.Fatal("tag collision between singletons")
	}

	addrs := []string{
		Config(),
		Warrior("alice", "rex"),
		Battle("room-1"),
		Profile("alice"),
		Achievements("alice"),
		Leaderboard(),
	}
	seen := make(map[string]bool, len(addrs))
	for _, a := range addrs {
		if len(a) != 64 {
			t.Fatalf("address %q is not a hex sha256", a)
		}
		if seen[a] {
			t.Fatalf("duplicate address %q", a)
		}
		seen[a] = true
	}
}
