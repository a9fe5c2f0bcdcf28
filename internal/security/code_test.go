package security

import (
	"strings"
	"testing"
)

func TestGeneratePassNumberFormat(t *testing.T) {
	number, errGenerate := GeneratePassNumber()
	if errGenerate != nil {
		t.Fatalf("generate pass number: %v", errGenerate)
	}
	if !strings.HasPrefix(number, "MP") {
		t.Fatalf("expected MP prefix, got %s", number)
	}
	if len(number) != len("MP")+passNumberLength {
		t.Fatalf("expected %d characters, got %d (%s)", len("MP")+passNumberLength, len(number), number)
	}
	for _, r := range number[2:] {
		if !strings.ContainsRune(codeAlphabet, r) {
			t.Fatalf("unexpected character %q in %s", r, number)
		}
	}
}

func TestGenerateTransactionIDFormat(t *testing.T) {
	id, errGenerate := GenerateTransactionID()
	if errGenerate != nil {
		t.Fatalf("generate transaction id: %v", errGenerate)
	}
	if !strings.HasPrefix(id, "TXN") {
		t.Fatalf("expected TXN prefix, got %s", id)
	}
	if len(id) != len("TXN")+transactionIDLength {
		t.Fatalf("expected %d characters, got %d (%s)", len("TXN")+transactionIDLength, len(id), id)
	}
}

func TestGeneratedCodesDoNotCollide(t *testing.T) {
	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		number, errGenerate := GeneratePassNumber()
		if errGenerate != nil {
			t.Fatalf("generate pass number: %v", errGenerate)
		}
		if _, dup := seen[number]; dup {
			t.Fatalf("collision after %d generations: %s", i, number)
		}
		seen[number] = struct{}{}
	}
}
