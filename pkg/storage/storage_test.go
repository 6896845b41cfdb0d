package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func openBackends(t *testing.T) map[Backend]Store {
	t.Helper()
	dir := t.TempDir()

	stores := map[Backend]Store{}
	for _, tc := range []struct {
		backend Backend
		path    string
	}{
		{BackendMemory, ""},
		{BackendFile, filepath.Join(dir, "store.json")},
		{BackendSQLite, filepath.Join(dir, "store.db")},
	} {
		s, err := Open(tc.backend, tc.path, nil)
		if err != nil {
			t.Fatalf("Open(%s) error = %v", tc.backend, err)
		}
		t.Cleanup(func() { _ = s.Close() })
		stores[tc.backend] = s
	}
	return stores
}

func TestStores_GetSet(t *testing.T) {
	for backend, s := range openBackends(t) {
		t.Run(string(backend), func(t *testing.T) {
			if _, ok, err := s.Get("missing"); ok || err != nil {
				t.Errorf("Get(missing) = ok %v, err %v; want absent", ok, err)
			}

			if err := s.Set("k", `{"enabled":true}`); err != nil {
				t.Fatalf("Set error = %v", err)
			}
			v, ok, err := s.Get("k")
			if err != nil || !ok || v != `{"enabled":true}` {
				t.Errorf("Get(k) = %q, %v, %v", v, ok, err)
			}

			if err := s.Set("k", "updated"); err != nil {
				t.Fatalf("Set error = %v", err)
			}
			if v, _, _ := s.Get("k"); v != "updated" {
				t.Errorf("Get(k) after overwrite = %q, want updated", v)
			}
		})
	}
}

func TestPersistentStores_SurviveReopen(t *testing.T) {
	dir := t.TempDir()
	for _, tc := range []struct {
		backend Backend
		path    string
	}{
		{BackendFile, filepath.Join(dir, "nested", "store.json")},
		{BackendSQLite, filepath.Join(dir, "nested", "store.db")},
	} {
		t.Run(string(tc.backend), func(t *testing.T) {
			s, err := Open(tc.backend, tc.path, nil)
			if err != nil {
				t.Fatalf("Open error = %v", err)
			}
			if err := s.Set("past-midnight-settings", `{"idleTimeout":120000}`); err != nil {
				t.Fatalf("Set error = %v", err)
			}
			if err := s.Close(); err != nil {
				t.Fatalf("Close error = %v", err)
			}

			reopened, err := Open(tc.backend, tc.path, nil)
			if err != nil {
				t.Fatalf("reopen error = %v", err)
			}
			defer reopened.Close()

			v, ok, err := reopened.Get("past-midnight-settings")
			if err != nil || !ok || v != `{"idleTimeout":120000}` {
				t.Errorf("Get after reopen = %q, %v, %v", v, ok, err)
			}
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	if _, err := Open("redis", "", nil); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(redis) error = %v, want ErrUnknownBackend", err)
	}
	if _, err := Open(BackendFile, "", nil); err == nil {
		t.Error("file backend without path should fail")
	}
	if _, err := Open(BackendSQLite, "", nil); err == nil {
		t.Error("sqlite backend without path should fail")
	}
}

func TestOpenFile_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenFile(path); !errors.Is(err, ErrCorrupt) {
		t.Errorf("OpenFile error = %v, want ErrCorrupt", err)
	}
}

func TestOpenSQLite_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	if err := os.WriteFile(path, bytes.Repeat([]byte("garbage!"), 1024), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenSQLite(path); !errors.Is(err, ErrCorrupt) {
		t.Errorf("OpenSQLite error = %v, want ErrCorrupt", err)
	}
}

func TestOpen_CorruptStoreIsMovedAside(t *testing.T) {
	tests := []struct {
		name    string
		backend Backend
		file    string
		data    []byte
	}{
		{"file", BackendFile, "store.json", []byte("{not json")},
		{"sqlite", BackendSQLite, "store.db", bytes.Repeat([]byte("garbage!"), 1024)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, tt.file)
			if err := os.WriteFile(path, tt.data, 0o600); err != nil {
				t.Fatal(err)
			}

			core, logs := observer.New(zap.WarnLevel)
			s, err := Open(tt.backend, path, zap.New(core))
			if err != nil {
				t.Fatalf("Open error = %v", err)
			}
			t.Cleanup(func() { _ = s.Close() })

			if _, ok, err := s.Get("engine"); ok || err != nil {
				t.Errorf("Get = ok %v, err %v; want empty store", ok, err)
			}
			if err := s.Set("engine", `{"enabled":true}`); err != nil {
				t.Fatalf("Set error = %v", err)
			}
			if v, ok, _ := s.Get("engine"); !ok || v != `{"enabled":true}` {
				t.Errorf("Get = %q, %v", v, ok)
			}

			aside, err := filepath.Glob(path + ".corrupt-*")
			if err != nil || len(aside) != 1 {
				t.Fatalf("moved aside files = %v (err %v), want one", aside, err)
			}
			kept, err := os.ReadFile(aside[0])
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(kept, tt.data) {
				t.Error("moved aside file should keep the corrupt contents")
			}
			if logs.FilterMessage("settings store is corrupt, moving it aside").Len() != 1 {
				t.Errorf("warn logs = %v", logs.All())
			}
		})
	}
}

func TestOpen_CorruptStoreFallsBackToMemory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	// A read-only directory blocks the rename.
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })
	if f, err := os.CreateTemp(dir, "writable"); err == nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		t.Skip("directory permissions are not enforced")
	}

	s, err := Open(BackendFile, path, nil)
	if err != nil {
		t.Fatalf("Open error = %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Fatalf("Open returned %T, want *Memory", s)
	}
	if err := s.Set("k", "v"); err != nil {
		t.Errorf("Set error = %v", err)
	}
}

func TestOpenFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	f, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile error = %v", err)
	}
	if _, ok, _ := f.Get("anything"); ok {
		t.Error("empty document should hold no keys")
	}
}
