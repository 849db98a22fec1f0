package embedding

import (
	"reflect"
	"testing"
)

func TestTokens(t *testing.T) {
	got := Tokens("  VPN down -- can't connect!  ")
	want := []string{"vpn", "down", "can", "t", "connect"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens() = %v, want %v", got, want)
	}
	if len(Tokens("")) != 0 {
		t.Error("empty text should have no tokens")
	}
}

func TestHashTokenizer_Tokenize(t *testing.T) {
	ids, attn, types := HashTokenizer{}.Tokenize("hello world", 10)
	if len(ids) != 10 || len(attn) != 10 || len(types) != 10 {
		t.Fatalf("lengths = %d/%d/%d", len(ids), len(attn), len(types))
	}
	if ids[0] != clsToken || ids[3] != sepToken {
		t.Errorf("ids = %v", ids)
	}
	if attn[3] != 1 || attn[4] != 0 {
		t.Errorf("attention = %v", attn)
	}
}

func TestHashTokenizer_Truncates(t *testing.T) {
	ids, _, _ := HashTokenizer{}.Tokenize("a b c d e f g h", 4)
	if ids[0] != clsToken || ids[3] != sepToken {
		t.Errorf("ids = %v", ids)
	}
}
