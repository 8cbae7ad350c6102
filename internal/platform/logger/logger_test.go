package logger

import (
	"strings"
	"testing"
)

func TestRedactorMasksSecretsAndHashesUserIDs(t *testing.T) {
	r := &redactor{enabled: true, salt: "pepper"}
	out := r.apply([]interface{}{
		"access_token", "abc",
		"user_id", "2b1f0c3e-0000-0000-0000-000000000000",
		"plant_id", "p-1",
		"dangling",
	})
	if len(out) != 7 {
		t.Fatalf("unexpected kv length: %d", len(out))
	}
	if out[1] != "[REDACTED]" {
		t.Fatalf("token not redacted: %v", out[1])
	}
	hashed, _ := out[3].(string)
	if !strings.HasPrefix(hashed, "hash:") || len(hashed) != len("hash:")+12 {
		t.Fatalf("user_id not hashed: %v", out[3])
	}
	if out[5] != "p-1" {
		t.Fatalf("plain value changed: %v", out[5])
	}
	if out[6] != "dangling" {
		t.Fatalf("dangling key dropped: %v", out[6])
	}
}

func TestRedactorDisabledPassesThrough(t *testing.T) {
	r := &redactor{enabled: false}
	in := []interface{}{"password", "hunter2"}
	out := r.apply(in)
	if out[1] != "hunter2" {
		t.Fatalf("expected passthrough, got %v", out[1])
	}
}

func TestRedactorCatchesBareJWT(t *testing.T) {
	r := &redactor{enabled: true}
	jwt := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxMjM0NTY3ODkwIn0.sig"
	out := r.apply([]interface{}{"header", jwt})
	if out[1] != "[REDACTED]" {
		t.Fatalf("jwt-shaped value leaked: %v", out[1])
	}
}
