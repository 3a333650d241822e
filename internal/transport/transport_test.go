package transport

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	tests := []struct {
		kind       string
		wantChrome bool
	}{
		{Standard, false},
		{Chrome, true},
		{"", false},
		{"firefox", false},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			rt := New(tt.kind, 5*time.Second)
			_, isChrome := rt.(*chromeTransport)
			if isChrome != tt.wantChrome {
				t.Errorf("New(%q) = %T, chrome = %v", tt.kind, rt, tt.wantChrome)
			}
		})
	}
}

func TestNew_StandardIsolatedFromDefault(t *testing.T) {
	rt := New(Standard, 3*time.Second).(*http.Transport)
	if rt == http.DefaultTransport {
		t.Fatal("standard transport must be a clone")
	}
	if rt.ResponseHeaderTimeout != 3*time.Second {
		t.Errorf("ResponseHeaderTimeout = %v, want 3s", rt.ResponseHeaderTimeout)
	}
}

func TestChromeTransport_PlainHTTP(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	client := &http.Client{Transport: NewChromeTransport(2 * time.Second)}
	resp, err := client.Post(server.URL+"/api/v1/cart", "application/json", strings.NewReader(`{"qty":1}`))
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}
	if gotBody != `{"qty":1}` {
		t.Errorf("body = %q", gotBody)
	}
}

func TestRewind(t *testing.T) {
	t.Run("no body", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "https://shop.example.com/api/v1/products", nil)
		got, err := rewind(req)
		if err != nil || got != req {
			t.Errorf("rewind() = %v, %v; want same request", got, err)
		}
	})

	t.Run("replayable body", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "https://shop.example.com/api/v1/cart", bytes.NewReader([]byte("payload")))
		io.ReadAll(req.Body)

		got, err := rewind(req)
		if err != nil {
			t.Fatalf("rewind() error = %v", err)
		}
		b, _ := io.ReadAll(got.Body)
		if string(b) != "payload" {
			t.Errorf("body = %q, want payload", b)
		}
	})

	t.Run("one-shot body", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "https://shop.example.com/api/v1/cart", io.NopCloser(strings.NewReader("x")))
		if _, err := rewind(req); err == nil {
			t.Error("rewind() should fail without GetBody")
		}
	})
}
