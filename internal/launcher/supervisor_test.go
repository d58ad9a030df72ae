package launcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"gamelaunch/internal/fetch"
	"gamelaunch/internal/verify"
)

func stopOnCleanup(t *testing.T, s *Supervisor, id string) {
	t.Cleanup(func() { _ = s.Stop(id) })
}

func TestLaunch_SuccessReturnsToIdle(t *testing.T) {
	java := writeFakeJava(t)
	root := newRoot(t, minimalDescriptor)
	pub := NewMemoryPublisher()
	s := New(NewRegistry(), testConfig(java, pub, "FAKE_JAVA_MODE=marker"))
	stopOnCleanup(t, s, "1.0")

	if _, err := s.Launch(context.Background(), newContext(root)); err != nil {
		t.Fatalf("launch: %v", err)
	}
	got := waitStates(t, pub, 4)
	want := []State{StateChecking, StateStarting, StateSuccess, StateIdle}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("states mismatch (-want +got):\n%s", diff)
	}
	if len(pub.Named(EventLog)) == 0 {
		t.Fatalf("expected log events from process output")
	}

	// the forced idle already happened; the later exit must not add a transition
	if err := s.Stop("1.0"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if got := statesOf(pub); len(got) != 4 {
		t.Fatalf("exit after forced idle changed status: %v", got)
	}
}

func TestLaunch_DependencyFailureNeverStarts(t *testing.T) {
	java := writeFakeJava(t)
	desc := strings.Replace(minimalDescriptor, `"type": "release",`,
		`"type": "release", "libraries": [{"name": "com.example:missing:1.0",
  "downloads": {"artifact": {"path": "com/example/missing/1.0/missing-1.0.jar"}}}],`, 1)
	root := newRoot(t, desc)
	pub := NewMemoryPublisher()
	s := New(NewRegistry(), testConfig(java, pub))

	task, err := s.Launch(context.Background(), newContext(root))
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	got := waitStates(t, pub, 3)
	want := []State{StateChecking, StateError, StateIdle}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("states mismatch (-want +got):\n%s", diff)
	}
	if n := len(pub.Named(EventSpawn)); n != 0 {
		t.Fatalf("expected no spawn, got %d", n)
	}
	if task.Alive() {
		t.Fatalf("task should have no process")
	}
}

func TestLaunch_MissingManifestIsError(t *testing.T) {
	pub := NewMemoryPublisher()
	s := New(NewRegistry(), testConfig("java", pub))
	lc := newContext(t.TempDir())
	lc.VersionID = "nope"

	task, err := s.Launch(context.Background(), lc)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	errEvents := func() []Event {
		var out []Event
		for _, e := range pub.Named(EventStatus) {
			if e.Fields["state"] == string(StateError) {
				out = append(out, e)
			}
		}
		return out
	}
	waitStates(t, pub, 2)
	evs := errEvents()
	if len(evs) != 1 || !strings.Contains(evs[0].Fields["text"].(string), "nope") {
		t.Fatalf("expected one error naming the version, got %+v", evs)
	}
	waitFor(t, task, StateIdle)
}

func TestLaunch_ExitDuringStartupIsError(t *testing.T) {
	java := writeFakeJava(t)
	root := newRoot(t, minimalDescriptor)
	pub := NewMemoryPublisher()
	s := New(NewRegistry(), testConfig(java, pub, "FAKE_JAVA_MODE=fail"))

	task, err := s.Launch(context.Background(), newContext(root))
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	got := waitStates(t, pub, 4)
	want := []State{StateChecking, StateStarting, StateError, StateIdle}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("states mismatch (-want +got):\n%s", diff)
	}
	for _, e := range pub.Named(EventStatus) {
		if e.Fields["state"] == string(StateError) && !strings.Contains(e.Fields["text"].(string), "code 3") {
			t.Fatalf("error text should carry the exit code: %v", e.Fields["text"])
		}
	}
	if task.Alive() {
		t.Fatalf("process should have exited")
	}
}

func TestStop_KillClassifiedOnce(t *testing.T) {
	java := writeFakeJava(t)
	root := newRoot(t, minimalDescriptor)
	pub := NewMemoryPublisher()
	cfg := testConfig(java, pub, "FAKE_JAVA_MODE=silent")
	cfg.SuccessTimeout = time.Minute
	s := New(NewRegistry(), cfg)

	task, err := s.Launch(context.Background(), newContext(root))
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	waitFor(t, task, StateStarting)
	deadline := time.Now().Add(5 * time.Second)
	for !task.Alive() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if task.PID() == 0 {
		t.Fatalf("expected a live pid")
	}
	if err := s.Stop("1.0"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	waitFor(t, task, StateIdle)
	time.Sleep(100 * time.Millisecond)

	got := statesOf(pub)
	want := []State{StateChecking, StateStarting, StateError, StateIdle}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("states mismatch (-want +got):\n%s", diff)
	}
	if n := len(pub.Named(EventExit)); n != 1 {
		t.Fatalf("expected exactly one exit event, got %d", n)
	}
}

func TestLaunch_TimeoutFallbackDeclaresSuccess(t *testing.T) {
	java := writeFakeJava(t)
	root := newRoot(t, minimalDescriptor)
	pub := NewMemoryPublisher()
	cfg := testConfig(java, pub, "FAKE_JAVA_MODE=silent")
	cfg.SuccessTimeout = 100 * time.Millisecond
	cfg.SuccessIdleDelay = time.Minute
	s := New(NewRegistry(), cfg)
	stopOnCleanup(t, s, "1.0")

	task, err := s.Launch(context.Background(), newContext(root))
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	st := waitFor(t, task, StateSuccess)
	if !strings.Contains(st.Text, "no startup marker") {
		t.Fatalf("unexpected success text %q", st.Text)
	}
	if err := s.Stop("1.0"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	st = waitFor(t, task, StateIdle)
	if !strings.Contains(st.Text, "exited with code") {
		t.Fatalf("idle text should carry the exit code, got %q", st.Text)
	}
	want := []State{StateChecking, StateStarting, StateSuccess, StateIdle}
	if diff := cmp.Diff(want, statesOf(pub)); diff != "" {
		t.Fatalf("states mismatch (-want +got):\n%s", diff)
	}
}

func TestLaunch_RejectsReentrantRequest(t *testing.T) {
	java := writeFakeJava(t)
	root := newRoot(t, minimalDescriptor)
	pub := NewMemoryPublisher()
	cfg := testConfig(java, pub, "FAKE_JAVA_MODE=marker")
	cfg.SuccessIdleDelay = time.Minute
	s := New(NewRegistry(), cfg)
	stopOnCleanup(t, s, "1.0")

	task, err := s.Launch(context.Background(), newContext(root))
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	waitFor(t, task, StateSuccess)

	if _, err := s.Launch(context.Background(), newContext(root)); !IsAlreadyRunning(err) {
		t.Fatalf("expected already running, got %v", err)
	}
	if st := task.Status(); st.State != StateError {
		t.Fatalf("rejection should surface as error, got %+v", st)
	}
	// the process is alive, so the delayed reset must not clear the error
	time.Sleep(150 * time.Millisecond)
	if st := task.Status(); st.State != StateError {
		t.Fatalf("reset ran while the process was alive: %+v", st)
	}

	if err := s.Stop("1.0"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	waitFor(t, task, StateIdle)
}

func TestLaunch_RejectWhileCheckingKeepsStatus(t *testing.T) {
	pub := NewMemoryPublisher()
	s := New(NewRegistry(), testConfig("java", pub))
	task := s.Task("1.0")
	if _, ok := task.begin("Checking 1.0"); !ok {
		t.Fatalf("begin on idle task failed")
	}
	if _, err := s.Launch(context.Background(), newContext(t.TempDir())); !IsAlreadyRunning(err) {
		t.Fatalf("expected already running, got %v", err)
	}
	if st := task.Status(); st.State != StateChecking {
		t.Fatalf("status changed during checking: %+v", st)
	}
	rejected := pub.Named(EventRejected)
	if len(rejected) != 1 {
		t.Fatalf("rejected events = %d, want 1", len(rejected))
	}
	if got := rejected[0].Fields["state"]; got != string(StateChecking) {
		t.Fatalf("rejected event state = %v", got)
	}
}

func TestLaunch_SpawnFailureCountedSeparately(t *testing.T) {
	root := newRoot(t, minimalDescriptor)
	pub := NewMemoryPublisher()
	missing := filepath.Join(t.TempDir(), "no-such-java")
	s := New(NewRegistry(), testConfig(missing, pub))
	before := testutil.ToFloat64(launchesTotal.WithLabelValues("spawn_failed"))

	task, err := s.Launch(context.Background(), newContext(root))
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	got := waitStates(t, pub, 4)
	want := []State{StateChecking, StateStarting, StateError, StateIdle}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("states mismatch (-want +got):\n%s", diff)
	}
	if text := pub.Named(EventStatus)[2].Fields["text"].(string); !strings.Contains(text, "start game process") {
		t.Fatalf("error text = %q", text)
	}
	if delta := testutil.ToFloat64(launchesTotal.WithLabelValues("spawn_failed")) - before; delta != 1 {
		t.Fatalf("spawn_failed delta = %v, want 1", delta)
	}
	if task.Alive() {
		t.Fatalf("no process should be attached")
	}
}

func TestLaunch_PassesArgvAndWorkingDir(t *testing.T) {
	java := writeFakeJava(t)
	root := newRoot(t, minimalDescriptor)
	argsFile := filepath.Join(t.TempDir(), "argv.txt")
	pub := NewMemoryPublisher()
	s := New(NewRegistry(), testConfig(java, pub, "FAKE_JAVA_ARGS="+argsFile))

	lc := newContext(root)
	lc.Isolated = true
	task, err := s.Launch(context.Background(), lc)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	st := waitFor(t, task, StateIdle)
	if st.Text != "exited with code 0" {
		t.Fatalf("unexpected idle text %q", st.Text)
	}
	b, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("read argv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	gameDir, _ := filepath.EvalSymlinks(lc.GameDir())
	cwd, _ := filepath.EvalSymlinks(lines[0])
	if cwd != gameDir {
		t.Fatalf("working dir = %q, want %q", cwd, gameDir)
	}
	argv := lines[1:]
	wantTail := []string{"net.minecraft.client.main.Main", "--username", "Steve", "--version", "1.0"}
	if len(argv) < len(wantTail) {
		t.Fatalf("argv too short: %v", argv)
	}
	if diff := cmp.Diff(wantTail, argv[len(argv)-len(wantTail):]); diff != "" {
		t.Fatalf("argv tail mismatch (-want +got):\n%s", diff)
	}
	if argv[0] != "-cp" || !strings.HasSuffix(argv[1], filepath.Join("versions", "1.0", "1.0.jar")) {
		t.Fatalf("unexpected jvm args: %v", argv[:2])
	}
}

func TestLaunch_NoNetworkWhenDependenciesPresent(t *testing.T) {
	java := writeFakeJava(t)
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	jar := []byte("client jar")
	lib := []byte("library jar")
	obj := []byte("sound")
	objHash := sha1Hex(obj)
	index := []byte(`{"objects":{"minecraft/sounds/a.ogg":{"hash":"` + objHash + `","size":5}}}`)

	desc := `{
  "id": "1.0",
  "mainClass": "net.minecraft.client.main.Main",
  "assetIndex": {"id": "1.0", "url": "` + srv.URL + `/index.json", "sha1": "` + sha1Hex(index) + `"},
  "downloads": {"client": {"url": "` + srv.URL + `/client.jar", "sha1": "` + sha1Hex(jar) + `"}},
  "libraries": [{"name": "com.example:lib:1.0", "downloads": {"artifact": {
    "path": "com/example/lib/1.0/lib-1.0.jar", "url": "` + srv.URL + `/lib.jar", "sha1": "` + sha1Hex(lib) + `"}}}],
  "minecraftArguments": "--username ${auth_player_name} --version ${version_name}"
}`
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "versions", "1.0", "1.0.json"), []byte(desc))
	writeFile(t, filepath.Join(root, "versions", "1.0", "1.0.jar"), jar)
	writeFile(t, filepath.Join(root, "libraries", "com", "example", "lib", "1.0", "lib-1.0.jar"), lib)
	writeFile(t, filepath.Join(root, "assets", "indexes", "1.0.json"), index)
	writeFile(t, verify.AssetObjectPath(filepath.Join(root, "assets"), objHash), obj)

	pub := NewMemoryPublisher()
	cfg := testConfig(java, pub, "FAKE_JAVA_MODE=marker")
	cfg.Verifier = verify.New(verify.Config{
		Fetcher:   fetch.New(fetch.Config{Client: srv.Client()}),
		AssetHost: srv.URL,
	})
	cfg.SuccessIdleDelay = time.Minute
	s := New(NewRegistry(), cfg)
	stopOnCleanup(t, s, "1.0")

	task, err := s.Launch(context.Background(), newContext(root))
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	waitFor(t, task, StateSuccess)
	want := []State{StateChecking, StateStarting, StateSuccess}
	if diff := cmp.Diff(want, statesOf(pub)); diff != "" {
		t.Fatalf("states mismatch (-want +got):\n%s", diff)
	}
	if n := hits.Load(); n != 0 {
		t.Fatalf("expected no network requests, got %d", n)
	}
}

func TestStop_UnknownAndIdle(t *testing.T) {
	s := New(nil, Config{})
	if err := s.Stop("missing"); !IsTaskNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	s.Task("1.0")
	if err := s.Stop("1.0"); err != nil {
		t.Fatalf("stop without process should be a no-op, got %v", err)
	}
}

func TestStatuses_SortedSnapshot(t *testing.T) {
	s := New(nil, Config{})
	s.Task("b")
	s.Task("a")
	got := s.Statuses()
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("unexpected statuses: %+v", got)
	}
	if got[0].State != string(StateIdle) || got[0].PID != 0 {
		t.Fatalf("new task should be idle without pid: %+v", got[0])
	}
}
