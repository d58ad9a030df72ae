package e2e

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gamelaunch/pkg/types"
)

func TestE2E_LaunchFetchesOnceThenRunsOffline(t *testing.T) {
	java := writeFakeJava(t)
	o := newOrigin(t)
	root := t.TempDir()
	installVersion(t, o, root)
	srv := newServer(t, o, root, java)

	_, b := httpGet(t, srv.URL+"/versions")
	var vs types.VersionsResponse
	if err := json.Unmarshal(b, &vs); err != nil {
		t.Fatalf("decode versions: %v", err)
	}
	if len(vs.Versions) != 1 || vs.Versions[0].ID != "1.0" {
		t.Fatalf("unexpected versions %+v", vs)
	}

	resp, b := httpPostJSON(t, srv.URL+"/launch", `{"version":"1.0"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("launch status=%d body=%s", resp.StatusCode, b)
	}
	st := waitTask(t, srv.URL, "1.0", "success")
	if st.PID == 0 {
		t.Fatalf("expected a pid while running: %+v", st)
	}
	// client, library, index and one deduplicated asset object
	if n := o.requests(); n != 4 {
		t.Fatalf("expected 4 downloads on first launch, got %d", n)
	}
	for _, p := range []string{
		filepath.Join(root, "versions", "1.0", "1.0.jar"),
		filepath.Join(root, "libraries", "com", "example", "lib", "1.0", "lib-1.0.jar"),
		filepath.Join(root, "assets", "indexes", "1.0.json"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("expected %s on disk: %v", p, err)
		}
	}

	resp, b = httpPostJSON(t, srv.URL+"/launch", `{"version":"1.0"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("relaunch while running: status=%d body=%s", resp.StatusCode, b)
	}

	resp, _ = httpPostJSON(t, srv.URL+"/tasks/1.0/stop", ``)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("stop status=%d", resp.StatusCode)
	}
	st = waitTask(t, srv.URL, "1.0", "idle")
	if !strings.Contains(st.Text, "exited with code") {
		t.Fatalf("idle text should carry the exit code: %+v", st)
	}

	before := o.requests()
	resp, b = httpPostJSON(t, srv.URL+"/launch", `{"version":"1.0","player":"Alex"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("second launch status=%d body=%s", resp.StatusCode, b)
	}
	waitTask(t, srv.URL, "1.0", "success")
	if n := o.requests(); n != before {
		t.Fatalf("second launch hit the network %d times", n-before)
	}
}

func TestE2E_MissingVersionReportsError(t *testing.T) {
	o := newOrigin(t)
	srv := newServer(t, o, t.TempDir(), "java")

	resp, b := httpPostJSON(t, srv.URL+"/launch", `{"version":"9.9"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("launch status=%d body=%s", resp.StatusCode, b)
	}
	waitTask(t, srv.URL, "9.9", "idle")
	resp, _ = httpPostJSON(t, srv.URL+"/tasks/nope/stop", ``)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("stop unknown task: status=%d", resp.StatusCode)
	}
}
