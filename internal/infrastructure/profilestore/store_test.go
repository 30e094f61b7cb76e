package profilestore

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/idrissbellil/cryptomonitor/internal/domain/entity"
)

func testProfile() entity.Profile {
	return entity.Profile{
		Addresses: []entity.Address{
			{Addr: "32xTLE3E1QkgDRPgncvNMhf4x7LHMAvkC9", Asset: entity.AssetBTC},
			{Addr: "0xde0b295669a9fd93d5f28d9ec85e40f4cb697bae", Asset: entity.AssetETH},
		},
		Exchangers: []entity.ExchangerProfile{
			{Exchanger: entity.ExchangerKraken, AuthKey: "key secret"},
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "profile.yaml")
	store := New(path)

	want := testProfile()
	if err := store.Save(want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat saved profile: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("profile file has mode %o, want 0600", perm)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func TestSaveReplacesWhole(t *testing.T) {
	t.Parallel()

	store := New(filepath.Join(t.TempDir(), "profile.yaml"))

	if err := store.Save(testProfile()); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}

	replacement := entity.Profile{
		Addresses: []entity.Address{
			{Addr: "0xde0b295669a9fd93d5f28d9ec85e40f4cb697bae", Asset: entity.AssetETH},
		},
	}
	if err := store.Save(replacement); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(got.Addresses, replacement.Addresses) {
		t.Fatalf("expected the replacement addresses, got %+v", got.Addresses)
	}
	if len(got.Exchangers) != 0 {
		t.Fatalf("expected the old exchanger entries to be gone, got %+v", got.Exchangers)
	}
}

func TestLoadMissingProfile(t *testing.T) {
	t.Parallel()

	store := New(filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := store.Load()
	if !errors.Is(err, entity.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestLoadMalformedProfile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte("addresses: {not: [valid"), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	if _, err := New(path).Load(); err == nil {
		t.Fatal("expected malformed YAML to be rejected")
	}
}
