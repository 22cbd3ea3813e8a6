package security

import "testing"

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(4)
	password := []byte("hunter2hunter2")

	hash, err := h.Hash(password)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" {
		t.Fatal("Hash returned empty")
	}
	if err := h.Compare(hash, password); err != nil {
		t.Errorf("Compare with correct password: %v", err)
	}
	if err := h.Compare(hash, []byte("wrong-password")); err == nil {
		t.Error("Compare with wrong password should fail")
	}
}

func TestHasher_HashesDiffer(t *testing.T) {
	h := NewHasher(4)
	a, err := h.Hash([]byte("hunter2hunter2"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := h.Hash([]byte("hunter2hunter2"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a == b {
		t.Error("two hashes of the same password should differ by salt")
	}
}

func TestHasher_CostClamping(t *testing.T) {
	if h := NewHasher(12); h.Cost != 12 {
		t.Errorf("Cost = %d, want 12", h.Cost)
	}
	if h := NewHasher(0); h.Cost < 4 {
		t.Errorf("zero cost should be clamped to at least MinCost, got %d", h.Cost)
	}
}
