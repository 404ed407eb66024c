package auth

import (
    "testing"
    "time"
)

func TestGenerateAndValidateToken(t *testing.T) {
    sec := "secret123"
    sid := "abc"
    exp := time.Now().Add(5 * time.Minute).Unix()

    tok, err := GenerateBridgeToken(sec, sid, exp)
    if err != nil {
        t.Fatalf("gen: %v", err)
    }

    gotSID, gotExp, err := ValidateBridgeToken(sec, tok, sid, time.Now(), 60)
    if err != nil {
        t.Fatalf("validate: %v", err)
    }
    if gotSID != sid || gotExp != exp {
        t.Fatalf("mismatch: %s/%d", gotSID, gotExp)
    }
}

func TestBadSignature(t *testing.T) {
    sec := "secret123"
    sid := "abc"
    exp := time.Now().Add(5 * time.Minute).Unix()
    tok, _ := GenerateBridgeToken(sec, sid, exp)

    // flip a char
    if tok[0] == 'A' {
        tok = "B" + tok[1:]
    } else {
        tok = "A" + tok[1:]
    }

    _, _, err := ValidateBridgeToken(sec, tok, sid, time.Now(), 60)
    if err == nil {
        t.Fatalf("expected error for bad token")
    }
}

func TestSessionMismatch(t *testing.T) {
    exp := time.Now().Add(time.Minute).Unix()
    tok, _ := GenerateBridgeToken("s", "abc", exp)
    if _, _, err := ValidateBridgeToken("s", tok, "other", time.Now(), 60); err != ErrTokenSID {
        t.Fatalf("expected ErrTokenSID, got %v", err)
    }
}

func TestExpiredToken(t *testing.T) {
    exp := time.Now().Add(-10 * time.Minute).Unix()
    tok, _ := GenerateBridgeToken("s", "abc", exp)
    if _, _, err := ValidateBridgeToken("s", tok, "abc", time.Now(), 60); err != ErrTokenExp {
        t.Fatalf("expected ErrTokenExp, got %v", err)
    }
    // Within skew the token still passes.
    exp2 := time.Now().Add(-30 * time.Second).Unix()
    tok2, _ := GenerateBridgeToken("s", "abc", exp2)
    if _, _, err := ValidateBridgeToken("s", tok2, "abc", time.Now(), 60); err != nil {
        t.Fatalf("token within skew must validate, got %v", err)
    }
}
