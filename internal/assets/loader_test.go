package assets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/alphadocs/alphadocs/internal/fetch"
)

func testClient() *fetch.Client {
	return fetch.NewClient(fetch.ClientOptions{Timeout: 5 * time.Second})
}

func TestManifestEntryRoundTrip(t *testing.T) {
	var m Manifest
	raw := `{"css":[["styles/app.css",0]],"js":[["https://cdn.example.com/marked.js",1],["js/app.js",0]]}`
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if len(m.CSS) != 1 || len(m.JS) != 2 {
		t.Fatalf("got %d css, %d js", len(m.CSS), len(m.JS))
	}
	if m.CSS[0].Absolute {
		t.Error("mode 0 entry parsed as absolute")
	}
	if !m.JS[0].Absolute {
		t.Error("mode 1 entry parsed as relative")
	}
	if m.JS[1].Ref != "js/app.js" {
		t.Errorf("ref: got %q", m.JS[1].Ref)
	}
}

func TestManifestEntryBadShape(t *testing.T) {
	var e Entry
	if err := json.Unmarshal([]byte(`["only-ref"]`), &e); err == nil {
		t.Error("expected error for 1-element entry")
	}
	if err := json.Unmarshal([]byte(`"not-an-array"`), &e); err == nil {
		t.Error("expected error for non-array entry")
	}
}

func TestWithBase(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"https://cdn.example.com", "js/app.js", "https://cdn.example.com/js/app.js"},
		{"https://cdn.example.com/", "/js/app.js", "https://cdn.example.com/js/app.js"},
		{"", "js/app.js", "/js/app.js"},
		{"https://cdn.example.com", "https://other.example.com/x.js", "https://other.example.com/x.js"},
		{"https://cdn.example.com", "HTTP://other.example.com/x.js", "HTTP://other.example.com/x.js"},
		{"https://cdn.example.com", "", ""},
	}
	for _, tt := range tests {
		if got := WithBase(tt.base, tt.path); got != tt.want {
			t.Errorf("WithBase(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

// manifestServer serves index-map.json plus every resource it mentions,
// recording request order.
func manifestServer(t *testing.T, manifest string) (*httptest.Server, *[]string, *sync.Mutex) {
	t.Helper()
	var mu sync.Mutex
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.URL.Path)
		mu.Unlock()
		if r.URL.Path == "/index-map.json" {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(manifest))
			return
		}
		w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)
	return srv, &requests, &mu
}

func TestBootLoadsScriptsInOrder(t *testing.T) {
	manifest := `{"css":[],"js":[["js/vendor.js",0],["js/app.js",0],["js/pages.js",0]]}`
	srv, requests, mu := manifestServer(t, manifest)

	sink := &ShellRecorder{}
	l := NewLoader(testClient(), srv.URL, sink, zap.NewNop())
	if err := l.Boot(context.Background(), "index"); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	var js []string
	for _, p := range *requests {
		if strings.HasPrefix(p, "/js/") {
			js = append(js, p)
		}
	}
	want := []string{"/js/vendor.js", "/js/app.js", "/js/pages.js"}
	if len(js) != len(want) {
		t.Fatalf("got %d js requests, want %d", len(js), len(want))
	}
	for i := range want {
		if js[i] != want[i] {
			t.Errorf("js request %d = %s, want %s (order must follow manifest)", i, js[i], want[i])
		}
	}
	if len(sink.Scripts) != 3 {
		t.Errorf("sink recorded %d scripts, want 3", len(sink.Scripts))
	}
}

func TestBootDeduplicatesResources(t *testing.T) {
	manifest := `{"css":[["styles/app.css",0]],"js":[["js/app.js",0],["js/app.js",0]]}`
	srv, requests, mu := manifestServer(t, manifest)

	sink := &ShellRecorder{}
	l := NewLoader(testClient(), srv.URL, sink, zap.NewNop())
	if err := l.Boot(context.Background(), "index"); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}

	mu.Lock()
	n := 0
	for _, p := range *requests {
		if p == "/js/app.js" {
			n++
		}
	}
	mu.Unlock()
	if n != 1 {
		t.Errorf("duplicate manifest entry fetched %d times, want 1", n)
	}
	if len(sink.Scripts) != 1 {
		t.Errorf("sink recorded %d scripts, want 1", len(sink.Scripts))
	}

	// A second Boot skips everything already loaded.
	if err := l.Boot(context.Background(), "index"); err != nil {
		t.Fatalf("second Boot failed: %v", err)
	}
	if len(sink.Scripts) != 1 {
		t.Errorf("second boot re-inserted scripts: %d", len(sink.Scripts))
	}
}

func TestFetchManifestMemoized(t *testing.T) {
	var fetches atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		w.Write([]byte(`{"css":[],"js":[]}`))
	}))
	t.Cleanup(srv.Close)

	l := NewLoader(testClient(), srv.URL, &ShellRecorder{}, zap.NewNop())

	// Concurrent callers share one in-flight fetch.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.FetchManifest(context.Background(), "index"); err != nil {
				t.Errorf("FetchManifest failed: %v", err)
			}
		}()
	}
	wg.Wait()

	// Memoized result, still one fetch.
	if _, err := l.FetchManifest(context.Background(), "index"); err != nil {
		t.Fatalf("FetchManifest failed: %v", err)
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("manifest fetched %d times, want 1", got)
	}
}

func TestBootFailureNamesResource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/index-map.json" {
			w.Write([]byte(`{"css":[],"js":[["js/broken.js",0]]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	l := NewLoader(testClient(), srv.URL, &ShellRecorder{}, zap.NewNop())
	err := l.Boot(context.Background(), "index")
	if err == nil {
		t.Fatal("expected Boot to fail")
	}
	if !strings.Contains(err.Error(), "js/broken.js") {
		t.Errorf("error %q does not identify the failing resource", err)
	}
	if l.Ready() {
		t.Error("loader must not signal ready after a failed boot")
	}
}

func TestBootScriptFailureWaitsForStylesheets(t *testing.T) {
	jsServed := make(chan struct{})
	var once sync.Once
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/index-map.json":
			w.Write([]byte(`{"css":[["styles/app.css",0]],"js":[["js/broken.js",0]]}`))
		case "/js/broken.js":
			once.Do(func() { close(jsServed) })
			w.WriteHeader(http.StatusNotFound)
		case "/styles/app.css":
			// Completes only after the script already failed, so a Boot
			// that bails out early would return with this load in flight.
			<-jsServed
			w.Write([]byte("ok"))
		}
	}))
	t.Cleanup(srv.Close)

	sink := &ShellRecorder{}
	l := NewLoader(testClient(), srv.URL, sink, zap.NewNop())
	err := l.Boot(context.Background(), "index")
	if err == nil {
		t.Fatal("expected Boot to fail")
	}
	if !strings.Contains(err.Error(), "js/broken.js") {
		t.Errorf("error %q does not identify the failing script", err)
	}
	if len(sink.Stylesheets) != 1 {
		t.Errorf("stylesheet load abandoned: sink recorded %d entries, want 1", len(sink.Stylesheets))
	}
}

func TestReadySignalBothOrders(t *testing.T) {
	srv, _, _ := manifestServer(t, `{"css":[],"js":[]}`)

	l := NewLoader(testClient(), srv.URL, &ShellRecorder{}, zap.NewNop())

	// Subscribe before boot.
	late := make(chan struct{})
	go func() {
		<-l.Done()
		close(late)
	}()

	if l.Ready() {
		t.Error("loader ready before boot")
	}
	if err := l.Boot(context.Background(), "index"); err != nil {
		t.Fatalf("Boot failed: %v", err)
	}

	// Check after boot: synchronous flag works.
	if !l.Ready() {
		t.Error("loader not ready after boot")
	}

	select {
	case <-late:
	case <-time.After(time.Second):
		t.Error("pre-boot subscriber never notified")
	}

	// Subscribe after boot: channel already closed.
	select {
	case <-l.Done():
	default:
		t.Error("post-boot subscriber should not block")
	}
}
