package launcher

import (
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"gamelaunch/internal/rules"
)

const fakeJava = `#!/bin/sh
if [ -n "$FAKE_JAVA_ARGS" ]; then
  pwd > "$FAKE_JAVA_ARGS"
  for a in "$@"; do echo "$a" >> "$FAKE_JAVA_ARGS"; done
fi
case "$FAKE_JAVA_MODE" in
marker)
  echo "Loading game"
  echo "[Render thread/INFO]: Setting user: Steve"
  exec sleep 30
  ;;
silent)
  exec sleep 30
  ;;
fail)
  echo "Error: could not create the Java Virtual Machine"
  exit 3
  ;;
*)
  echo "done"
  exit 0
  ;;
esac
`

const minimalDescriptor = `{
  "id": "1.0",
  "type": "release",
  "mainClass": "net.minecraft.client.main.Main",
  "assetIndex": {"id": "1.0"},
  "arguments": {
    "jvm": ["-cp", "${classpath}"],
    "game": ["--username", "${auth_player_name}", "--version", "${version_name}"]
  }
}`

// writeFakeJava writes a shell script standing in for the java executable.
func writeFakeJava(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake java is a shell script")
	}
	p := filepath.Join(t.TempDir(), "java")
	if err := os.WriteFile(p, []byte(fakeJava), 0o755); err != nil {
		t.Fatalf("write fake java: %v", err)
	}
	return p
}

func writeFile(t *testing.T, p string, b []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, b, 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
}

func sha1Hex(b []byte) string {
	s := sha1.Sum(b)
	return hex.EncodeToString(s[:])
}

// newRoot lays out a game root holding version "1.0" with its jar and an
// empty asset index.
func newRoot(t *testing.T, descriptor string) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "versions", "1.0", "1.0.json"), []byte(descriptor))
	writeFile(t, filepath.Join(root, "versions", "1.0", "1.0.jar"), []byte("jar"))
	writeFile(t, filepath.Join(root, "assets", "indexes", "1.0.json"), []byte(`{"objects":{}}`))
	return root
}

func newContext(root string) LaunchContext {
	return LaunchContext{
		PlayerName:  "Steve",
		PlayerUUID:  OfflineUUID("Steve"),
		AccessToken: "0",
		UserType:    "legacy",
		VersionID:   "1.0",
		Root:        root,
		Platform:    rules.Current(),
	}
}

// testConfig returns short timings suited to tests.
func testConfig(java string, pub EventPublisher, env ...string) Config {
	return Config{
		JavaPath:         java,
		Env:              env,
		Publisher:        pub,
		SuccessTimeout:   5 * time.Second,
		SuccessIdleDelay: 50 * time.Millisecond,
		ResetDelay:       30 * time.Millisecond,
		StopGrace:        2 * time.Second,
	}
}

// statesOf returns the states of all status events in publish order.
func statesOf(pub *MemoryPublisher) []State {
	var out []State
	for _, e := range pub.Named(EventStatus) {
		out = append(out, State(e.Fields["state"].(string)))
	}
	return out
}

// waitStates polls until pub has recorded n status events or fails.
func waitStates(t *testing.T, pub *MemoryPublisher, n int) []State {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if s := statesOf(pub); len(s) >= n {
			return s
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d status events, got %v", n, statesOf(pub))
	return nil
}

// waitFor polls until the task reaches want or fails.
func waitFor(t *testing.T, task *Task, want State) Status {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if st := task.Status(); st.State == want {
			return st
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s, last status %+v", want, task.Status())
	return Status{}
}
