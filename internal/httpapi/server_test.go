package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	geojson "github.com/paulmach/go.geojson"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signalsfoundry/hazardscope/core"
	"github.com/signalsfoundry/hazardscope/internal/observability"
	"github.com/signalsfoundry/hazardscope/internal/snapshot"
	"github.com/signalsfoundry/hazardscope/internal/source"
	"github.com/signalsfoundry/hazardscope/internal/source/sourcetest"
	"github.com/signalsfoundry/hazardscope/internal/viz"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func newTestServer(t *testing.T) (*httptest.Server, *observability.VizCollector) {
	t.Helper()
	path := sourcetest.WriteRun(t, t.TempDir(), sourcetest.Run{})
	store := snapshot.NewStore()
	if _, err := store.Load(context.Background(), snapshot.SlotPreloaded, source.NewFileLoader(path, nil)); err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	collector, err := observability.NewVizCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewVizCollector error: %v", err)
	}
	srv := httptest.NewServer(New(store, viz.NewService(store), WithCollector(collector)))
	t.Cleanup(srv.Close)
	return srv, collector
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, body
}

func TestMarkersGeoJSON(t *testing.T) {
	srv, collector := newTestServer(t)

	resp, body := get(t, srv.URL+"/v1/markers.geojson?t=100&selection=both")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/geo+json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		t.Fatalf("UnmarshalFeatureCollection error: %v", err)
	}

	byLayer := map[string]int{}
	for _, f := range fc.Features {
		if !f.Geometry.IsPoint() {
			t.Fatalf("feature geometry = %s, want Point", f.Geometry.Type)
		}
		byLayer[f.PropertyMustString("layer")]++
	}
	want := map[string]int{"nodes": 3, "people": 3, "hazard": 3, "trapped": 1}
	for layer, n := range want {
		if byLayer[layer] != n {
			t.Fatalf("layer %s features = %d, want %d (all %v)", layer, byLayer[layer], n, byLayer)
		}
	}

	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("missing X-Request-Id response header")
	}
	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("markers", "get", "200")); got != 1 {
		t.Fatalf("viz_http_requests_total{markers} = %v, want 1", got)
	}
}

func TestMarkersErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name  string
		query string
		code  int
	}{
		{name: "bad timestep", query: "t=abc", code: http.StatusBadRequest},
		{name: "negative timestep", query: "t=-5", code: http.StatusBadRequest},
		{name: "unknown agent scale", query: "t=0&agent=Plaid", code: http.StatusBadRequest},
		{name: "missing hazard column", query: "t=300", code: http.StatusNotFound},
		{name: "empty slot", query: "t=0&snapshot=configured", code: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := get(t, srv.URL+"/v1/markers.geojson?"+tc.query)
			if resp.StatusCode != tc.code {
				t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, tc.code, body)
			}
		})
	}
}

func TestChartsRenderPNG(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{
		"/v1/charts/safe.png?t=200",
		"/v1/charts/safe.png?t=0",
		"/v1/charts/nodes/2/occupancy.png?t=200",
		"/v1/charts/nodes/2/panic.png?t=3600",
	} {
		resp, body := get(t, srv.URL+path)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET %s status = %d, body %s", path, resp.StatusCode, body)
		}
		if !bytes.HasPrefix(body, pngMagic) {
			t.Fatalf("GET %s body is not a PNG", path)
		}
	}

	if resp, _ := get(t, srv.URL+"/v1/charts/nodes/2/heat.png"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown kind status = %d, want 400", resp.StatusCode)
	}
	if resp, _ := get(t, srv.URL+"/v1/charts/nodes/77/panic.png"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown node status = %d, want 404", resp.StatusCode)
	}
}

func TestChartTitles(t *testing.T) {
	ns := core.NodeSeries{NodeID: 7}
	if got := OccupancyChart(ns, 0).Title; got != "Number of people at node 7:" {
		t.Fatalf("occupancy title = %q", got)
	}
	if got := PanicChart(ns, 0).Title; got != "Average panic level at node 7:" {
		t.Fatalf("panic title = %q", got)
	}
	if got := SafeChart(nil, 0).Title; got != "Number of people at safety:" {
		t.Fatalf("safe title = %q", got)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := get(t, srv.URL+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
	var health healthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatalf("decode healthz: %v", err)
	}
	if len(health.Snapshots) != 1 || health.Snapshots[0].Nodes != 3 {
		t.Fatalf("healthz snapshots = %+v", health.Snapshots)
	}

	resp, body = get(t, srv.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
	if !bytes.Contains(body, []byte("viz_http_requests_total")) {
		t.Fatalf("metrics output missing viz_http_requests_total")
	}
}

func TestHealthEmptyStore(t *testing.T) {
	store := snapshot.NewStore()
	srv := httptest.NewServer(New(store, viz.NewService(store)))
	defer srv.Close()

	if resp, _ := get(t, srv.URL+"/healthz"); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("empty healthz status = %d, want 503", resp.StatusCode)
	}
}
