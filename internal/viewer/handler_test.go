package viewer

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"

	"github.com/inamate/rulergrid/internal/auth"
	"github.com/inamate/rulergrid/internal/content"
	"github.com/inamate/rulergrid/internal/geom"
	"github.com/inamate/rulergrid/internal/projection"
	"github.com/inamate/rulergrid/internal/viewport"
)

type published struct {
	mu      sync.Mutex
	changes []viewport.Change
	closed  []string
}

func (p *published) publish(_ string, _ projection.Frame, c viewport.Change) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
}

func (p *published) close(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = append(p.closed, id)
}

func newTestServer(t *testing.T) (*mux.Router, *Service, *published) {
	t.Helper()
	pub := &published{}
	svc := NewService(Options{
		Bounds:  geom.Rect{X: 30, Y: 30, Width: 800, Height: 800},
		Publish: pub.publish,
		Closed:  pub.close,
	})
	h := NewHandler(svc, auth.NewService("secret", ""))

	r := mux.NewRouter()
	r.HandleFunc("/viewers", h.Create).Methods("POST")
	r.HandleFunc("/viewers", h.List).Methods("GET")
	r.HandleFunc("/viewers/{id}", h.Get).Methods("GET")
	r.HandleFunc("/viewers/{id}", h.Delete).Methods("DELETE")
	r.HandleFunc("/viewers/{id}/pan", h.Pan).Methods("POST")
	r.HandleFunc("/viewers/{id}/zoom", h.Zoom).Methods("POST")
	r.HandleFunc("/viewers/{id}/zoom-in", h.ZoomIn).Methods("POST")
	r.HandleFunc("/viewers/{id}/zoom-out", h.ZoomOut).Methods("POST")
	r.HandleFunc("/viewers/{id}/resize", h.Resize).Methods("POST")
	r.HandleFunc("/viewers/{id}/content", h.Content).Methods("POST")
	r.HandleFunc("/viewers/{id}/hit", h.HitTest).Methods("GET")
	r.HandleFunc("/viewers/{id}/commands", h.Commands).Methods("GET")
	r.HandleFunc("/viewers/{id}/layers/{layer}.svg", h.Layer).Methods("GET")
	return r, svc, pub
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func createViewer(t *testing.T, r http.Handler, body string) createResponse {
	t.Helper()
	rec := do(t, r, http.MethodPost, "/viewers", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d: %s", rec.Code, rec.Body.String())
	}
	var resp createResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return resp
}

func decodeFrame(t *testing.T, rec *httptest.ResponseRecorder) frameResponse {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var resp frameResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode frame response: %v", err)
	}
	return resp
}

func TestCreateViewer(t *testing.T) {
	r, svc, _ := newTestServer(t)

	resp := createViewer(t, r, `{"placeholder":true}`)
	if resp.Token == "" || !strings.HasPrefix(resp.Viewer.ID, "viewer_") {
		t.Fatalf("response = %+v", resp)
	}
	if !resp.Viewer.View.Ready || resp.Viewer.View.ImageWidth != content.PlaceholderSize {
		t.Fatalf("placeholder viewer not ready: %+v", resp.Viewer.View)
	}

	empty := createViewer(t, r, "")
	if empty.Viewer.View.Ready {
		t.Fatal("viewer without content is ready")
	}
	if len(svc.List()) != 2 {
		t.Fatalf("list = %d viewers", len(svc.List()))
	}

	if rec := do(t, r, http.MethodPost, "/viewers", `{"width":-5,"height":10}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("negative size: status %d", rec.Code)
	}
}

func TestCreateViewerAccessKey(t *testing.T) {
	hash, err := auth.HashAccessKey("k")
	if err != nil {
		t.Fatal(err)
	}
	h := NewHandler(NewService(Options{}), auth.NewService("secret", hash))

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/viewers", strings.NewReader(`{"accessKey":"wrong"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/viewers", strings.NewReader(`{"accessKey":"k"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("right key: status %d", rec.Code)
	}
}

func TestViewerCommands(t *testing.T) {
	r, _, pub := newTestServer(t)
	id := createViewer(t, r, `{"width":800,"height":800}`).Viewer.ID
	base := "/viewers/" + id

	f := decodeFrame(t, do(t, r, http.MethodPost, base+"/pan", `{"dx":50,"dy":0}`))
	f = decodeFrame(t, do(t, r, http.MethodPost, base+"/pan", `{"dx":0,"dy":80}`))
	if !f.Changed || f.View.TranslateX != 50 || f.View.TranslateY != 80 {
		t.Fatalf("after pans: %+v", f.View)
	}
	if f.Frame.TopRuler.OffsetX != 50 || f.Frame.LeftRuler.OffsetY != 80 {
		t.Fatalf("rulers not synced: %+v / %+v", f.Frame.TopRuler.OffsetX, f.Frame.LeftRuler.OffsetY)
	}

	// pivot at the surface origin leaves (0,0) fixed
	f = decodeFrame(t, do(t, r, http.MethodPost, base+"/zoom", `{"factor":2,"x":30,"y":30}`))
	if f.View.Scale != 2 || f.View.TranslateX != 100 || f.View.TranslateY != 160 {
		t.Fatalf("after zoom: %+v", f.View)
	}
	if f.Frame.TopRuler.Width != 1600 {
		t.Fatalf("top ruler width = %v", f.Frame.TopRuler.Width)
	}

	f = decodeFrame(t, do(t, r, http.MethodPost, base+"/zoom", `{"deltaY":-3,"x":30,"y":30}`))
	if f.View.Scale != 2*viewport.DefaultZoomStep {
		t.Fatalf("after wheel: scale %v", f.View.Scale)
	}

	f = decodeFrame(t, do(t, r, http.MethodPost, base+"/zoom", `{"factor":0,"x":1,"y":1}`))
	if f.Changed {
		t.Fatal("zero factor reported a change")
	}

	f = decodeFrame(t, do(t, r, http.MethodPost, base+"/resize", `{"x":30,"y":30,"width":400,"height":300}`))
	if f.View.Bounds.Width != 400 || f.View.Scale != 2*viewport.DefaultZoomStep {
		t.Fatalf("after resize: %+v", f.View)
	}

	decodeFrame(t, do(t, r, http.MethodPost, base+"/zoom-in", ""))
	decodeFrame(t, do(t, r, http.MethodPost, base+"/zoom-out", ""))

	pub.mu.Lock()
	defer pub.mu.Unlock()
	// content, 2 pans, zoom, wheel, resize, zoom-in, zoom-out
	if len(pub.changes) != 8 {
		t.Fatalf("published %v", pub.changes)
	}
}

func TestViewerContent(t *testing.T) {
	r, _, _ := newTestServer(t)
	id := createViewer(t, r, "").Viewer.ID
	base := "/viewers/" + id

	f := decodeFrame(t, do(t, r, http.MethodPost, base+"/pan", `{"dx":10,"dy":10}`))
	if f.Changed || f.Frame.Ready {
		t.Fatal("pan before content changed state")
	}

	f = decodeFrame(t, do(t, r, http.MethodPost, base+"/content", `{"width":640,"height":480}`))
	if !f.Frame.Ready || f.View.ImageWidth != 640 {
		t.Fatalf("content not bound: %+v", f.View)
	}
	if rec := do(t, r, http.MethodPost, base+"/content", `{"width":1,"height":1}`); rec.Code != http.StatusConflict {
		t.Fatalf("second content: status %d", rec.Code)
	}
}

func TestViewerQueries(t *testing.T) {
	r, _, _ := newTestServer(t)
	id := createViewer(t, r, `{"placeholder":true}`).Viewer.ID
	base := "/viewers/" + id

	rec := do(t, r, http.MethodGet, base+"/hit?x=130&y=30", "")
	var hit struct {
		X, Y   float64
		Col    int
		Inside bool
	}
	if err := json.NewDecoder(rec.Body).Decode(&hit); err != nil {
		t.Fatal(err)
	}
	if !hit.Inside || hit.X != 100 || hit.Col != 5 {
		t.Fatalf("hit = %+v", hit)
	}
	if rec := do(t, r, http.MethodGet, base+"/hit?x=abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad hit query: status %d", rec.Code)
	}

	rec = do(t, r, http.MethodGet, base+"/commands", "")
	var cmds []projection.DrawCommand
	if err := json.NewDecoder(rec.Body).Decode(&cmds); err != nil || len(cmds) == 0 {
		t.Fatalf("commands: %v (%d)", err, len(cmds))
	}

	rec = do(t, r, http.MethodGet, base+"/layers/top.svg", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/svg+xml" {
		t.Fatalf("top.svg: status %d", rec.Code)
	}
	if err := xml.Unmarshal(rec.Body.Bytes(), new(struct{})); err != nil {
		t.Fatalf("top.svg is not XML: %v", err)
	}
	if rec := do(t, r, http.MethodGet, base+"/layers/side.svg", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown layer: status %d", rec.Code)
	}

	rec = do(t, r, http.MethodGet, base, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}
}

func TestDeleteViewer(t *testing.T) {
	r, svc, pub := newTestServer(t)
	id := createViewer(t, r, "").Viewer.ID

	if rec := do(t, r, http.MethodDelete, "/viewers/"+id, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	if _, err := svc.Get(id); !errors.Is(err, ErrNotFound) {
		t.Fatalf("viewer still present: %v", err)
	}
	if len(pub.closed) != 1 || pub.closed[0] != id {
		t.Fatalf("closed = %v", pub.closed)
	}
	if rec := do(t, r, http.MethodDelete, "/viewers/"+id, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: status %d", rec.Code)
	}
	if rec := do(t, r, http.MethodPost, "/viewers/"+id+"/pan", `{}`); rec.Code != http.StatusNotFound {
		t.Fatalf("pan on deleted viewer: status %d", rec.Code)
	}
}
