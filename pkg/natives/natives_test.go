package natives

import (
	"os"
	"testing"

	"github.com/TenType/flowim/pkg/value"
)

func TestBuildRegistersEveryNative(t *testing.T) {
	globals, entries := Build()
	names := []string{
		"clock", "sha256", "hmac_sign", "bcrypt_hash", "bcrypt_verify",
		"jwt_sign", "jwt_verify", "json_quote", "ws_echo", "mail_send", "env",
	}
	for _, name := range names {
		v, ok := globals[name]
		if !ok {
			t.Fatalf("expected global %q to be registered", name)
		}
		if v.Kind != value.KindFun {
			t.Fatalf("global %q is not a Fun value: %v", name, v)
		}
		if v.Fn.Native < 0 || v.Fn.Native >= len(entries) {
			t.Fatalf("global %q has out-of-range native id %d", name, v.Fn.Native)
		}
		entry := entries[v.Fn.Native]
		if entry.Chunk.Arity != v.Fn.Arity {
			t.Fatalf("global %q: chunk arity %d != Fun arity %d", name, entry.Chunk.Arity, v.Fn.Arity)
		}
		if len(entry.Chunk.Code) != 2 {
			t.Fatalf("global %q: expected a 2-instruction chunk, got %d", name, len(entry.Chunk.Code))
		}
	}
}

func TestSha256(t *testing.T) {
	v, err := sha256Hash([]value.Value{value.Str("abc")})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if v.S != want {
		t.Fatalf("got %q, want %q", v.S, want)
	}
}

func TestBcryptRoundTrip(t *testing.T) {
	hashed, err := bcryptHash([]value.Value{value.Str("hunter2")})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	ok, err := bcryptVerify([]value.Value{value.Str("hunter2"), hashed})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !ok.B {
		t.Fatalf("expected the correct password to verify")
	}
	bad, err := bcryptVerify([]value.Value{value.Str("wrong"), hashed})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if bad.B {
		t.Fatalf("expected the wrong password to fail verification")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := jwtSign([]value.Value{value.Str("sub"), value.Str("k")})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	ok, err := jwtVerify([]value.Value{token, value.Str("k")})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !ok.B {
		t.Fatalf("expected the token to verify against its own secret")
	}
	bad, err := jwtVerify([]value.Value{token, value.Str("other")})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if bad.B {
		t.Fatalf("expected the token to fail verification against a different secret")
	}
}

func TestClockDoesNotDecrease(t *testing.T) {
	a, _ := clock(nil)
	b, _ := clock(nil)
	if b.F < a.F {
		t.Fatalf("expected clock() to be monotonically non-decreasing, got %v then %v", a.F, b.F)
	}
}

func TestEnvLookup(t *testing.T) {
	os.Setenv("FLOWIM_NATIVES_TEST", "hello")
	defer os.Unsetenv("FLOWIM_NATIVES_TEST")

	v, err := envLookup([]value.Value{value.Str("FLOWIM_NATIVES_TEST")})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if v.S != "hello" {
		t.Fatalf("got %q, want %q", v.S, "hello")
	}
}

func TestStrArgTypeError(t *testing.T) {
	_, err := sha256Hash([]value.Value{value.Int(5)})
	if err == nil {
		t.Fatalf("expected a type error for a non-str argument")
	}
}
