package imageprobe

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"mise-planner/internal/core/httpclient"
	"mise-planner/internal/pkg/common"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestVerify(t *testing.T) {
	common.InitNopLogger()
	data := pngBytes(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/ok.png", func(w http.ResponseWriter, r *http.Request) { w.Write(data) })
	mux.HandleFunc("/text", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("not an image")) })
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNotFound) })
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := New(httpclient.New(httpclient.Options{}), 1<<20)
	ctx := context.Background()

	info, err := p.Verify(ctx, srv.URL+"/ok.png")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if info.Format != "png" || info.Width != 4 || info.Height != 3 {
		t.Fatalf("info = %+v", info)
	}

	for _, path := range []string{"/text", "/missing"} {
		if _, err := p.Verify(ctx, srv.URL+path); err == nil {
			t.Errorf("Verify(%s) should fail", path)
		}
	}

	if _, err := p.Verify(ctx, "ftp://example/x.png"); err == nil {
		t.Error("non-http url should fail")
	}

	small := New(httpclient.New(httpclient.Options{}), 8)
	if _, err := small.Verify(ctx, srv.URL+"/ok.png"); err == nil {
		t.Error("oversized image should fail")
	}
}
