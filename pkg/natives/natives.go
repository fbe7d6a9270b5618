// Package natives builds the table of library-backed global functions
// every Flowim program starts with: clock, hashing, bcrypt, JWT,
// websocket, mail, and environment lookups. See SPEC_FULL.md §D — the
// teacher (`senapati484-flowa`) wires the same five third-party
// dependencies into its `pkg/eval`'s builtin-module table; these
// natives re-ground each of those concerns inside Flowim's six-variant
// Value model, one scalar-in/scalar-out Go function per concern.
//
// A native is an ordinary Fun value whose chunk is exactly two
// instructions, `NativeCall(id)` then `Return` (SPEC_FULL.md §4.2), so
// the VM's ordinary Call opcode dispatches to it with no special case.
package natives

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/gomail.v2"

	"github.com/TenType/flowim/pkg/chunk"
	"github.com/TenType/flowim/pkg/value"
	"github.com/TenType/flowim/pkg/vm"
)

// spec is one native's compile-time-visible shape: its global name,
// its arity (checked by vm.call exactly like a user function), and
// the Go implementation vm.nativeCall invokes.
type spec struct {
	name  string
	arity int
	fn    vm.Native
}

// Build returns the pre-populated global table and the matching
// natives registry a vm.New needs to resolve NativeCall(id) — called
// once per flowim.New, so every Run on that Runtime shares the result,
// mirroring how the teacher's eval.NewEnclosedEnvironment
// seeds every environment with the same builtin set.
func Build() (map[string]value.Value, []vm.NativeEntry) {
	specs := []spec{
		{"clock", 0, clock},
		{"sha256", 1, sha256Hash},
		{"hmac_sign", 2, hmacSign},
		{"bcrypt_hash", 1, bcryptHash},
		{"bcrypt_verify", 2, bcryptVerify},
		{"jwt_sign", 2, jwtSign},
		{"jwt_verify", 2, jwtVerify},
		{"json_quote", 1, jsonQuote},
		{"ws_echo", 2, wsEcho},
		{"mail_send", 3, mailSend},
		{"env", 1, envLookup},
	}

	globals := make(map[string]value.Value, len(specs))
	entries := make([]vm.NativeEntry, len(specs))

	for id, s := range specs {
		c := chunk.New()
		c.Name = s.name
		c.Arity = s.arity
		c.Write(chunk.NativeCall, id, 0)
		c.Write(chunk.Return, 0, 0)

		entries[id] = vm.NativeEntry{Chunk: c, Fn: s.fn}
		globals[s.name] = value.FunValue(value.Fun{
			Name:   s.name,
			Arity:  s.arity,
			Native: id,
		})
	}

	return globals, entries
}

// argError reports a native's argument-type mismatch in the same
// backtick-quoted style as pkg/vm's own runtime errors.
func argError(native string, index int, expected string, got value.Value) error {
	return fmt.Errorf("`%s` expects a `%s` argument at position %d, got `%s`",
		native, expected, index+1, value.TypeName(got))
}

func str(native string, args []value.Value, index int) (string, error) {
	if args[index].Kind != value.KindStr {
		return "", argError(native, index, "str", args[index])
	}
	return args[index].S, nil
}

// clock returns the current Unix time in fractional seconds — a
// Float that increases between two calls separated by real time
// (SPEC_FULL.md §8 scenario 9), the scalar equivalent of the
// teacher's `time.now_ms`.
func clock(args []value.Value) (value.Value, error) {
	return value.Float(float64(time.Now().UnixNano()) / 1e9), nil
}

func sha256Hash(args []value.Value) (value.Value, error) {
	s, err := str("sha256", args, 0)
	if err != nil {
		return value.Void(), err
	}
	sum := sha256.Sum256([]byte(s))
	return value.Str(hex.EncodeToString(sum[:])), nil
}

// hmacSign is the scalar form of the teacher's HMAC use inside its
// auth helpers: HMAC-SHA256 over msg keyed by key, base64-encoded.
func hmacSign(args []value.Value) (value.Value, error) {
	msg, err := str("hmac_sign", args, 0)
	if err != nil {
		return value.Void(), err
	}
	key, err := str("hmac_sign", args, 1)
	if err != nil {
		return value.Void(), err
	}
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(msg))
	return value.Str(base64.StdEncoding.EncodeToString(mac.Sum(nil))), nil
}

func bcryptHash(args []value.Value) (value.Value, error) {
	s, err := str("bcrypt_hash", args, 0)
	if err != nil {
		return value.Void(), err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(s), bcrypt.DefaultCost)
	if err != nil {
		return value.Void(), fmt.Errorf("bcrypt_hash: %w", err)
	}
	return value.Str(string(hashed)), nil
}

func bcryptVerify(args []value.Value) (value.Value, error) {
	s, err := str("bcrypt_verify", args, 0)
	if err != nil {
		return value.Void(), err
	}
	hashed, err := str("bcrypt_verify", args, 1)
	if err != nil {
		return value.Void(), err
	}
	ok := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(s)) == nil
	return value.Bool(ok), nil
}

// jwtSign mirrors the teacher's auth_helpers.go SignToken, narrowed to
// a single "sub" claim since Flowim's Value model has no map variant
// to carry an arbitrary payload.
func jwtSign(args []value.Value) (value.Value, error) {
	subject, err := str("jwt_sign", args, 0)
	if err != nil {
		return value.Void(), err
	}
	secret, err := str("jwt_sign", args, 1)
	if err != nil {
		return value.Void(), err
	}
	claims := jwt.MapClaims{"sub": subject}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return value.Void(), fmt.Errorf("jwt_sign: %w", err)
	}
	return value.Str(signed), nil
}

// jwtVerify mirrors the teacher's auth_helpers.go VerifyToken, reduced
// to the boolean the natives boundary can report in-band.
func jwtVerify(args []value.Value) (value.Value, error) {
	tokenString, err := str("jwt_verify", args, 0)
	if err != nil {
		return value.Void(), err
	}
	secret, err := str("jwt_verify", args, 1)
	if err != nil {
		return value.Void(), err
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	return value.Bool(err == nil && token.Valid), nil
}

// jsonQuote restricts the teacher's `json` module to the one shape the
// closed Value model can carry: a JSON-quoted string.
func jsonQuote(args []value.Value) (value.Value, error) {
	s, err := str("json_quote", args, 0)
	if err != nil {
		return value.Void(), err
	}
	quoted, err := json.Marshal(s)
	if err != nil {
		return value.Void(), fmt.Errorf("json_quote: %w", err)
	}
	return value.Str(string(quoted)), nil
}

// wsEcho is a synchronous client-side echo: dial url, send msg as one
// text frame, read one reply, close. Best-effort per SPEC_FULL.md §D —
// a dial/send/read failure returns Str("") rather than propagating an
// error the Value model has no variant to carry.
func wsEcho(args []value.Value) (value.Value, error) {
	url, err := str("ws_echo", args, 0)
	if err != nil {
		return value.Void(), err
	}
	msg, err := str("ws_echo", args, 1)
	if err != nil {
		return value.Void(), err
	}

	conn, _, dialErr := websocket.DefaultDialer.Dial(url, nil)
	if dialErr != nil {
		return value.Str(""), nil
	}
	defer conn.Close()

	if writeErr := conn.WriteMessage(websocket.TextMessage, []byte(msg)); writeErr != nil {
		return value.Str(""), nil
	}
	_, reply, readErr := conn.ReadMessage()
	if readErr != nil {
		return value.Str(""), nil
	}
	return value.Str(string(reply)), nil
}

// mailSend mirrors the teacher's mail.send builtin: SMTP config comes
// from the same SMTP_HOST/SMTP_PORT/SMTP_USER/SMTP_PASS environment
// variables (see env, loaded from .env by cmd/flowim via godotenv).
// Best-effort, per SPEC_FULL.md §D: any failure reports Bool(false).
func mailSend(args []value.Value) (value.Value, error) {
	to, err := str("mail_send", args, 0)
	if err != nil {
		return value.Void(), err
	}
	subject, err := str("mail_send", args, 1)
	if err != nil {
		return value.Void(), err
	}
	body, err := str("mail_send", args, 2)
	if err != nil {
		return value.Void(), err
	}

	host := os.Getenv("SMTP_HOST")
	portStr := os.Getenv("SMTP_PORT")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	if host == "" || portStr == "" {
		return value.Bool(false), nil
	}
	port := 587
	fmt.Sscanf(portStr, "%d", &port)

	from := user
	if from == "" {
		from = "noreply@example.com"
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(host, port, user, pass)
	if sendErr := d.DialAndSend(m); sendErr != nil {
		return value.Bool(false), nil
	}
	return value.Bool(true), nil
}

func envLookup(args []value.Value) (value.Value, error) {
	key, err := str("env", args, 0)
	if err != nil {
		return value.Void(), err
	}
	return value.Str(os.Getenv(key)), nil
}
