package inspect

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spaghettifunk/imagedata/engine/assets"
	"github.com/spaghettifunk/imagedata/engine/config"
	"github.com/spaghettifunk/imagedata/engine/renderer"
	"github.com/spaghettifunk/imagedata/engine/renderer/headless"
	"github.com/spaghettifunk/imagedata/engine/renderer/metadata"
	"github.com/spaghettifunk/imagedata/engine/resources"
	"github.com/spaghettifunk/imagedata/engine/systems"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// newTestServer registers the given resources and then runs the dispatcher on
// its own goroutine, which becomes the interactive thread.
func newTestServer(t *testing.T, res ...*resources.ImageResource) (*httptest.Server, *systems.SystemManager, *metadata.DiagnosticLog) {
	t.Helper()
	cfg := config.Default()
	cfg.Jobs.Workers = 1
	sm, err := systems.NewSystemManager(cfg, renderer.New(headless.New()), nil)
	if err != nil {
		t.Fatal(err)
	}
	diags := &metadata.DiagnosticLog{}
	sm.ImageSystem.SetDiagnosticSink(diags)
	for _, r := range res {
		if err := sm.ImageSystem.Register(r); err != nil {
			t.Fatal(err)
		}
	}

	stop := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(5 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-sm.Dispatcher.Notify():
			case <-ticker.C:
			}
			sm.Update()
		}
	}()

	ts := httptest.NewServer(NewServer(sm, diags).Handler())
	t.Cleanup(func() {
		ts.Close()
		close(stop)
		<-stopped
		sm.Shutdown()
	})
	return ts, sm, diags
}

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode: %s", err)
		}
	}
	return resp.StatusCode
}

func post(t *testing.T, url string) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

// waitForState polls the resource endpoint until it reports state.
func waitForState(t *testing.T, url, state string) resourceView {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var v resourceView
		if getJSON(t, url, &v) == http.StatusOK && v.State == state {
			return v
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("%s never reached state %s", url, state)
	return resourceView{}
}

func TestHealthAndMetrics(t *testing.T) {
	ts, _, _ := newTestServer(t)

	var status map[string]string
	if code := getJSON(t, ts.URL+"/healthz", &status); code != http.StatusOK || status["status"] != "ok" {
		t.Errorf("healthz: %d %v", code, status)
	}
	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics: %d", resp.StatusCode)
	}
}

func TestResources_ListAndPreview(t *testing.T) {
	wall := resources.New("wall", assets.NewMemorySource(pngBytes(t, 512, 256)))
	ts, _, _ := newTestServer(t, wall)

	var list []resourceView
	if code := getJSON(t, ts.URL+"/resources", &list); code != http.StatusOK {
		t.Fatalf("list: %d", code)
	}
	if len(list) != 1 || list[0].Name != "wall" || list[0].State != "none" {
		t.Fatalf("unexpected list %+v", list)
	}

	// The first preview request starts the load.
	resp, err := http.Get(ts.URL + "/resources/wall/preview")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	v := waitForState(t, ts.URL+"/resources/WALL", "ready")
	if v.Width != 512 || v.Height != 256 || v.Failed {
		t.Errorf("unexpected view %+v", v)
	}

	resp, err = http.Get(ts.URL + "/resources/wall/preview")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type %q", ct)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 256 || b.Dy() != 128 {
		t.Errorf("preview size %dx%d", b.Dx(), b.Dy())
	}
}

func TestResources_NotFound(t *testing.T) {
	ts, _, _ := newTestServer(t)
	if code := getJSON(t, ts.URL+"/resources/missing", nil); code != http.StatusNotFound {
		t.Errorf("get: %d", code)
	}
	if code := getJSON(t, ts.URL+"/resources/missing/preview", nil); code != http.StatusNotFound {
		t.Errorf("preview: %d", code)
	}
	if code := post(t, ts.URL+"/resources/missing/reload"); code != http.StatusNotFound {
		t.Errorf("reload: %d", code)
	}
}

func TestReload_And_Diagnostics(t *testing.T) {
	broken := resources.New("broken", assets.NewMemorySource([]byte("garbage")))
	nosource := resources.New("nosource", nil)
	ts, _, _ := newTestServer(t, broken, nosource)

	if code := post(t, ts.URL+"/resources/broken/reload"); code != http.StatusAccepted {
		t.Fatalf("reload: %d", code)
	}
	v := waitForState(t, ts.URL+"/resources/broken", "ready")
	if !v.Failed {
		t.Error("garbage must fail to load")
	}

	var diags []diagnosticView
	getJSON(t, ts.URL+"/diagnostics", &diags)
	if len(diags) == 0 || diags[0].Severity != "error" || diags[0].Resource != "broken" {
		t.Errorf("unexpected diagnostics %+v", diags)
	}

	if code := post(t, ts.URL+"/resources/nosource/reload"); code != http.StatusConflict {
		t.Errorf("reload without source: %d", code)
	}
}

func TestDeviceResetAndTrim(t *testing.T) {
	tile := resources.New("tile", assets.NewMemorySource(pngBytes(t, 4, 4)))
	ts, sm, _ := newTestServer(t, tile)

	done := make(chan struct{})
	sm.Dispatcher.Post(func() {
		sm.ImageSystem.LoadImage(tile, false)
		close(done)
	})
	<-done
	waitForState(t, ts.URL+"/resources/tile", "ready")

	created := make(chan bool)
	sm.Dispatcher.Post(func() {
		_, err := sm.ImageSystem.EnsureMaterialized(tile)
		created <- err == nil
	})
	if !<-created {
		t.Fatal("texture must be created")
	}
	var v resourceView
	getJSON(t, ts.URL+"/resources/tile", &v)
	if !v.Texture || v.TextureSize != "64 B" {
		t.Errorf("unexpected view %+v", v)
	}

	if code := post(t, ts.URL+"/device/reset"); code != http.StatusOK {
		t.Fatalf("reset: %d", code)
	}
	getJSON(t, ts.URL+"/resources/tile", &v)
	if v.Texture || v.State != "ready" {
		t.Errorf("device reset must drop the texture only, got %+v", v)
	}

	resp, err := http.Post(ts.URL+"/textures/trim", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var trimmed map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&trimmed); err != nil {
		t.Fatal(err)
	}
	if trimmed["released"] != 0 {
		t.Errorf("nothing left to trim, got %v", trimmed)
	}

	var reset map[string]int
	resp2, err := http.Post(ts.URL+"/resources/reload", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if err := json.NewDecoder(resp2.Body).Decode(&reset); err != nil {
		t.Fatal(err)
	}
	if reset["reset"] != 1 {
		t.Errorf("unexpected reset count %v", reset)
	}
	waitForState(t, ts.URL+"/resources/tile", "none")
}

func TestResource_ReportsGlow(t *testing.T) {
	lava := resources.New("lava", assets.NewMemorySource(pngBytes(t, 4, 4)), resources.WithFlat())
	ts, sm, _ := newTestServer(t, lava)
	sm.Glow.Set(lava.LongName(), resources.GlowingFlat{CalculateTextureColor: true})

	if code := post(t, ts.URL+"/resources/lava/reload"); code != http.StatusAccepted {
		t.Fatalf("reload: %d", code)
	}
	waitForState(t, ts.URL+"/resources/lava", "ready")

	// The glow callback runs in the same commit as the state change.
	var v resourceView
	getJSON(t, ts.URL+"/resources/lava", &v)
	if v.Glow != "#990707" || v.GlowBrightness != 55 {
		t.Errorf("unexpected glow %q (%d)", v.Glow, v.GlowBrightness)
	}
}
