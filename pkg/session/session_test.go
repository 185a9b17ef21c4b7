package session

import (
	"testing"
	"time"
)

func TestSession_New(t *testing.T) {
	expiresAt := time.Now().Add(24 * time.Hour)
	sess := New("test-id", "test-token", expiresAt)

	if sess.ID != "test-id" {
		t.Errorf("ID = %q, want %q", sess.ID, "test-id")
	}
	if sess.Token != "test-token" {
		t.Errorf("Token = %q, want %q", sess.Token, "test-token")
	}
	if !sess.IsNew() {
		t.Error("IsNew() = false, want true")
	}
	if !sess.IsDirty() {
		t.Error("IsDirty() = false, want true")
	}
	if sess.Values == nil {
		t.Error("Values is nil")
	}
	if sess.Flash == nil {
		t.Error("Flash is nil")
	}
}

func TestSession_IsAuthenticated(t *testing.T) {
	sess := New("id", "token", time.Now().Add(time.Hour))

	if sess.IsAuthenticated() {
		t.Error("IsAuthenticated() = true for new session, want false")
	}

	userID := "user-123"
	sess.UserID = &userID

	if !sess.IsAuthenticated() {
		t.Error("IsAuthenticated() = false after setting UserID, want true")
	}

	empty := ""
	sess.UserID = &empty

	if sess.IsAuthenticated() {
		t.Error("IsAuthenticated() = true for empty UserID, want false")
	}
}

func TestSession_Values(t *testing.T) {
	sess := New("id", "token", time.Now().Add(time.Hour))
	sess.ClearDirty() // Reset dirty state

	sess.SetValue("key", "value")

	if !sess.IsDirty() {
		t.Error("SetValue should mark session as dirty")
	}

	val, ok := sess.GetValue("key")
	if !ok {
		t.Error("GetValue returned ok=false for existing key")
	}
	if val != "value" {
		t.Errorf("GetValue = %v, want %v", val, "value")
	}

	_, ok = sess.GetValue("nonexistent")
	if ok {
		t.Error("GetValue returned ok=true for nonexistent key")
	}
}

func TestSession_DeleteValue(t *testing.T) {
	sess := New("id", "token", time.Now().Add(time.Hour))
	sess.SetValue("key", "value")
	sess.ClearDirty()

	sess.DeleteValue("key")

	if !sess.IsDirty() {
		t.Error("DeleteValue should mark session as dirty")
	}

	_, ok := sess.GetValue("key")
	if ok {
		t.Error("GetValue returned ok=true after DeleteValue")
	}
}

func TestSession_Flash(t *testing.T) {
	sess := New("id", "token", time.Now().Add(time.Hour))
	sess.ClearDirty()

	sess.SetFlash("notice", "saved")
	if !sess.IsDirty() {
		t.Error("SetFlash should mark session as dirty")
	}

	val, ok := sess.ConsumeFlash("notice")
	if !ok {
		t.Error("ConsumeFlash returned ok=false on first read")
	}
	if val != "saved" {
		t.Errorf("ConsumeFlash = %v, want %v", val, "saved")
	}

	// A flash value survives exactly one read.
	_, ok = sess.ConsumeFlash("notice")
	if ok {
		t.Error("ConsumeFlash returned ok=true on second read")
	}

	_, ok = sess.ConsumeFlash("missing")
	if ok {
		t.Error("ConsumeFlash returned ok=true for missing key")
	}
}

func TestSession_IsExpired(t *testing.T) {
	sess := New("id", "token", time.Now().Add(time.Hour))
	if sess.IsExpired() {
		t.Error("future expiry should not be expired")
	}

	sess.ExpiresAt = time.Now().Add(-time.Hour)
	if !sess.IsExpired() {
		t.Error("past expiry should be expired")
	}
}

func TestValue_TypedHelper(t *testing.T) {
	sess := New("id", "token", time.Now().Add(time.Hour))
	sess.SetValue("string", "hello")
	sess.SetValue("int", 42)

	strVal, err := Value[string](sess, "string")
	if err != nil {
		t.Errorf("Value[string] error: %v", err)
	}
	if strVal != "hello" {
		t.Errorf("Value[string] = %q, want %q", strVal, "hello")
	}

	intVal, err := Value[int](sess, "int")
	if err != nil {
		t.Errorf("Value[int] error: %v", err)
	}
	if intVal != 42 {
		t.Errorf("Value[int] = %d, want %d", intVal, 42)
	}

	if _, err = Value[int](sess, "string"); err == nil {
		t.Error("Value[int] on string should return error")
	}

	if _, err = Value[string](sess, "nonexistent"); err == nil {
		t.Error("Value on nonexistent key should return error")
	}

	if _, err = Value[string](nil, "key"); err != ErrNotFound {
		t.Errorf("Value on nil session should return ErrNotFound, got %v", err)
	}
}

func TestValueOr_TypedHelper(t *testing.T) {
	sess := New("id", "token", time.Now().Add(time.Hour))
	sess.SetValue("exists", "value")

	if val := ValueOr(sess, "exists", "default"); val != "value" {
		t.Errorf("ValueOr = %q, want %q", val, "value")
	}
	if val := ValueOr(sess, "nonexistent", "default"); val != "default" {
		t.Errorf("ValueOr for nonexistent = %q, want %q", val, "default")
	}
	if intVal := ValueOr(sess, "exists", 42); intVal != 42 {
		t.Errorf("ValueOr for type mismatch = %d, want %d", intVal, 42)
	}
}
