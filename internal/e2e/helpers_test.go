package e2e

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"gamelaunch/internal/app"
	"gamelaunch/internal/config"
	"gamelaunch/internal/httpapi"
	"gamelaunch/pkg/types"
)

const fakeJava = `#!/bin/sh
echo "[main/INFO]: Loading"
echo "[Render thread/INFO]: Setting user: player"
exec sleep 30
`

func sha1Hex(b []byte) string {
	s := sha1.Sum(b)
	return hex.EncodeToString(s[:])
}

// origin serves dependency files and counts requests.
type origin struct {
	*httptest.Server
	mu    sync.Mutex
	files map[string][]byte
	hits  int
}

func newOrigin(t *testing.T) *origin {
	t.Helper()
	o := &origin{files: map[string][]byte{}}
	o.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		o.mu.Lock()
		o.hits++
		b, ok := o.files[r.URL.Path]
		o.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(b)
	}))
	t.Cleanup(o.Close)
	return o
}

func (o *origin) put(path string, b []byte) string {
	o.mu.Lock()
	o.files[path] = b
	o.mu.Unlock()
	return o.URL + path
}

func (o *origin) requests() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hits
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

// installVersion writes a descriptor for "1.0" whose every dependency lives
// on o. Nothing but the descriptor is on disk afterwards.
func installVersion(t *testing.T, o *origin, root string) {
	t.Helper()
	jar := []byte("client jar")
	lib := []byte("library jar")
	obj := []byte("sound bytes")
	objHash := sha1Hex(obj)
	o.put("/"+objHash[:2]+"/"+objHash, obj)
	index := []byte(`{"objects":{"minecraft/sounds/a.ogg":{"hash":"` + objHash + `","size":11},
"minecraft/sounds/b.ogg":{"hash":"` + objHash + `","size":11}}}`)

	desc := map[string]any{
		"id":        "1.0",
		"type":      "release",
		"mainClass": "net.minecraft.client.main.Main",
		"assetIndex": map[string]any{
			"id": "1.0", "url": o.put("/indexes/1.0.json", index), "sha1": sha1Hex(index),
		},
		"downloads": map[string]any{
			"client": map[string]any{"url": o.put("/client.jar", jar), "sha1": sha1Hex(jar)},
		},
		"libraries": []any{map[string]any{
			"name": "com.example:lib:1.0",
			"downloads": map[string]any{"artifact": map[string]any{
				"path": "com/example/lib/1.0/lib-1.0.jar", "url": o.put("/lib.jar", lib), "sha1": sha1Hex(lib),
			}},
		}},
		"arguments": map[string]any{
			"game": []any{"--username", "${auth_player_name}", "--uuid", "${auth_uuid}"},
			"jvm":  []any{"-cp", "${classpath}"},
		},
	}
	b, err := json.Marshal(desc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	writeFile(t, filepath.Join(root, "versions", "1.0", "1.0.json"), b)
}

func newServer(t *testing.T, o *origin, root, java string) *httptest.Server {
	t.Helper()
	cfg, err := config.Config{
		RootDir:          root,
		JavaPath:         java,
		AssetHost:        o.URL,
		PlayerName:       "Steve",
		SuccessIdleDelay: config.Duration(time.Minute),
		ResetDelay:       config.Duration(50 * time.Millisecond),
	}.WithDefaults()
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	svc := app.New(cfg, app.Options{HTTPClient: o.Client()})
	srv := httptest.NewServer(httpapi.NewMux(svc))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { _ = svc.Stop("1.0") })
	return srv
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, b
}

func httpPostJSON(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp, b
}

// waitTask polls GET /tasks until task id reaches state.
func waitTask(t *testing.T, base, id, state string) types.TaskStatus {
	t.Helper()
	deadline := time.Now().Add(15 * time.Second)
	var last types.TaskStatus
	for time.Now().Before(deadline) {
		_, b := httpGet(t, base+"/tasks")
		var st types.StatusResponse
		if err := json.Unmarshal(b, &st); err != nil {
			t.Fatalf("decode /tasks: %v", err)
		}
		for _, ts := range st.Tasks {
			if ts.ID == id {
				last = ts
				if ts.State == state {
					return ts
				}
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s to reach %s, last %+v", id, state, last)
	return last
}
