package keyring

import (
	"errors"
	"testing"
)

func TestMockStore_ImplementsInterface(t *testing.T) {
	var _ Store = (*MockStore)(nil)
}

func TestSystemStore_ImplementsInterface(t *testing.T) {
	var _ Store = (*SystemStore)(nil)
}

func TestEnvStore_ImplementsInterface(t *testing.T) {
	var _ Store = (*EnvStore)(nil)
}

func TestMockStore_SetAndGet(t *testing.T) {
	store := NewMockStore()

	err := store.Set(ServiceName, KeySessionToken, "test-token-123")
	if err != nil {
		t.Fatalf("Set() error = %v, want nil", err)
	}

	got, err := store.Get(ServiceName, KeySessionToken)
	if err != nil {
		t.Fatalf("Get() error = %v, want nil", err)
	}
	if got != "test-token-123" {
		t.Errorf("Get() = %q, want %q", got, "test-token-123")
	}
}

func TestMockStore_GetNotFound(t *testing.T) {
	store := NewMockStore()

	_, err := store.Get(ServiceName, "nonexistent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestMockStore_Delete(t *testing.T) {
	store := NewMockStore()

	_ = store.Set(ServiceName, KeySessionToken, "to-delete")

	if err := store.Delete(ServiceName, KeySessionToken); err != nil {
		t.Fatalf("Delete() error = %v, want nil", err)
	}

	_, err := store.Get(ServiceName, KeySessionToken)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete() error = %v, want ErrNotFound", err)
	}
}

func TestMockStore_Errors(t *testing.T) {
	boom := errors.New("boom")
	store := NewMockStore().WithGetError(boom).WithSetError(boom).WithDeleteError(boom)

	if _, err := store.Get(ServiceName, KeySessionToken); !errors.Is(err, boom) {
		t.Errorf("Get() error = %v, want boom", err)
	}
	if err := store.Set(ServiceName, KeySessionToken, "x"); !errors.Is(err, boom) {
		t.Errorf("Set() error = %v, want boom", err)
	}
	if err := store.Delete(ServiceName, KeySessionToken); !errors.Is(err, boom) {
		t.Errorf("Delete() error = %v, want boom", err)
	}
}

func TestEnvStore_GetFromEnvVar(t *testing.T) {
	mock := NewMockStore().WithData(ServiceName, KeySessionToken, "keyring-token")
	store := NewEnvStore(mock)

	t.Setenv(EnvSessionToken, "env-token-123")

	got, err := store.Get(ServiceName, KeySessionToken)
	if err != nil {
		t.Fatalf("Get() error = %v, want nil", err)
	}
	if got != "env-token-123" {
		t.Errorf("Get() = %q, want %q", got, "env-token-123")
	}
}

func TestEnvStore_FallbackToUnderlying(t *testing.T) {
	mock := NewMockStore().WithData(ServiceName, KeySessionToken, "keyring-token")
	store := NewEnvStore(mock)

	got, err := store.Get(ServiceName, KeySessionToken)
	if err != nil {
		t.Fatalf("Get() error = %v, want nil", err)
	}
	if got != "keyring-token" {
		t.Errorf("Get() = %q, want %q", got, "keyring-token")
	}
}

func TestEnvStore_EnvVarOnlyForSessionToken(t *testing.T) {
	mock := NewMockStore().WithData(ServiceName, "other_key", "other-value")
	store := NewEnvStore(mock)

	t.Setenv(EnvSessionToken, "env-token")

	got, err := store.Get(ServiceName, "other_key")
	if err != nil {
		t.Fatalf("Get() error = %v, want nil", err)
	}
	if got != "other-value" {
		t.Errorf("Get() = %q, want %q", got, "other-value")
	}
}

func TestEnvStore_SetAndDeletePassThrough(t *testing.T) {
	mock := NewMockStore()
	store := NewEnvStore(mock)

	if err := store.Set(ServiceName, KeySessionToken, "new-token"); err != nil {
		t.Fatalf("Set() error = %v, want nil", err)
	}
	if got, _ := mock.Get(ServiceName, KeySessionToken); got != "new-token" {
		t.Errorf("underlying Get() = %q, want %q", got, "new-token")
	}

	if err := store.Delete(ServiceName, KeySessionToken); err != nil {
		t.Fatalf("Delete() error = %v, want nil", err)
	}
	if _, err := mock.Get(ServiceName, KeySessionToken); !errors.Is(err, ErrNotFound) {
		t.Errorf("underlying Get() after Delete() error = %v, want ErrNotFound", err)
	}
}

func TestSessionToken(t *testing.T) {
	t.Run("missing token is empty", func(t *testing.T) {
		got, err := SessionToken(NewMockStore())
		if err != nil {
			t.Fatalf("SessionToken() error = %v, want nil", err)
		}
		if got != "" {
			t.Errorf("SessionToken() = %q, want empty", got)
		}
	})

	t.Run("stored token", func(t *testing.T) {
		store := NewMockStore().WithData(ServiceName, KeySessionToken, "abc")
		got, err := SessionToken(store)
		if err != nil {
			t.Fatalf("SessionToken() error = %v, want nil", err)
		}
		if got != "abc" {
			t.Errorf("SessionToken() = %q, want abc", got)
		}
	})

	t.Run("store failure", func(t *testing.T) {
		store := NewMockStore().WithGetError(errors.New("locked"))
		if _, err := SessionToken(store); err == nil {
			t.Error("SessionToken() error = nil, want error")
		}
	})
}
