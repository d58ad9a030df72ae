package launcher

import (
	"context"
	"testing"
)

func TestOfflineUUID_MatchesGameDerivation(t *testing.T) {
	if got, want := OfflineUUID("Steve"), "5627dd98e6be3c21b8a8e92344183641"; got != want {
		t.Fatalf("OfflineUUID(Steve) = %s, want %s", got, want)
	}
}

func TestOfflineCredentials(t *testing.T) {
	id, err := OfflineCredentials{Name: " Alex "}.Identity(context.Background())
	if err != nil {
		t.Fatalf("identity: %v", err)
	}
	if id.Name != "Alex" || id.AccessToken != "0" || id.UserType != "legacy" || id.UUID != OfflineUUID("Alex") {
		t.Fatalf("unexpected identity %+v", id)
	}
	if _, err := (OfflineCredentials{}).Identity(context.Background()); err == nil {
		t.Fatalf("expected error for empty name")
	}
}

func TestLaunchFillsIdentityFromProvider(t *testing.T) {
	cfg := testConfig("java", nil)
	cfg.Credentials = StaticCredentials{Name: "Herobrine", UUID: "u", AccessToken: "tok", UserType: "msa"}
	s := New(nil, cfg)
	lc := newContext(t.TempDir())
	lc.PlayerName = ""
	lc.VersionID = "missing"
	if _, err := s.Launch(context.Background(), lc); err != nil {
		t.Fatalf("launch: %v", err)
	}

	got := WithIdentity(LaunchContext{ClientID: "keep"}, Identity{Name: "n", UUID: "u", AccessToken: "t", UserType: "msa"})
	if got.PlayerName != "n" || got.PlayerUUID != "u" || got.AccessToken != "t" || got.UserType != "msa" || got.ClientID != "keep" {
		t.Fatalf("unexpected context %+v", got)
	}
}
