package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/desertthunder/flickx/internal/services"
	"github.com/desertthunder/flickx/internal/shared"
	tu "github.com/desertthunder/flickx/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("Get", func(t *testing.T) {
		t.Run("Sends Query, Request ID and No Auth By Default", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("expected GET method, got %s", r.Method)
				}
				if r.URL.Path != "/api/search/" {
					t.Errorf("expected path '/api/search/', got %s", r.URL.Path)
				}
				if got := r.URL.Query().Get("s"); got != "alien" {
					t.Errorf("expected s=alien, got %q", got)
				}
				if r.Header.Get("X-Request-ID") == "" {
					t.Error("expected X-Request-ID header")
				}
				if r.Header.Get("Authorization") != "" {
					t.Errorf("expected no Authorization header, got %q", r.Header.Get("Authorization"))
				}
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{"status": "success"})
			}))
			defer server.Close()

			srv := services.NewAPIService(server.URL+"/", nil)
			resp, err := srv.Get(context.Background(), "/api/search/", url.Values{"s": {"alien"}}, "")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.OK() {
				t.Errorf("expected 2xx, got %d", resp.StatusCode)
			}
			if !resp.IsJSON || resp.JSONData == nil {
				t.Error("expected JSON response to be detected")
			}
		})

		t.Run("Attaches Bearer Token", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer abc" {
					t.Errorf("expected 'Bearer abc', got %q", got)
				}
				w.Write([]byte("<p>ok</p>"))
			}))
			defer server.Close()

			resp, err := services.NewAPIService(server.URL, nil).Get(context.Background(), "/", nil, "abc")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.IsJSON {
				t.Error("expected non-JSON response")
			}
			if string(resp.Body) != "<p>ok</p>" {
				t.Errorf("unexpected body %q", resp.Body)
			}
		})

		t.Run("Read Failure", func(t *testing.T) {
			rt := tu.NewMockRoundTripper(&http.Response{StatusCode: 200, Body: &tu.FCloser{}, Header: http.Header{}}, nil)
			srv := services.NewAPIService("http://example.com", &http.Client{Transport: rt})

			_, err := srv.Get(context.Background(), "/", nil, "")
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected read failure, got %v", err)
			}
		})

		t.Run("Transport Failure", func(t *testing.T) {
			rt := tu.NewMockRoundTripper(nil, errors.New("connection refused"))
			srv := services.NewAPIService("http://example.com", &http.Client{Transport: rt})

			_, err := srv.Get(context.Background(), "/", nil, "")
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected request failure, got %v", err)
			}
		})
	})

	t.Run("Err", func(t *testing.T) {
		tests := []struct {
			name    string
			status  int
			body    string
			want    error
			message string
		}{
			{name: "2xx", status: 200, body: `{}`},
			{name: "Unauthorized", status: 401, body: `{"detail":"bad token"}`, want: shared.ErrNotAuthenticated},
			{name: "JSON Error", status: 400, body: `{"error":"Mood is required"}`, want: shared.ErrRequestRejected, message: "Mood is required"},
			{name: "Plain Text", status: 502, body: "bad gateway", want: shared.ErrRequestRejected, message: "bad gateway"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				resp := &services.APIResponse{StatusCode: tt.status, Body: []byte(tt.body)}
				var data any
				if json.Unmarshal(resp.Body, &data) == nil {
					resp.IsJSON, resp.JSONData = true, data
				}

				err := resp.Err()
				if tt.want == nil {
					if err != nil {
						t.Errorf("expected nil, got %v", err)
					}
					return
				}
				if !errors.Is(err, tt.want) {
					t.Fatalf("expected %v, got %v", tt.want, err)
				}

				var rejected *services.RejectedError
				if tt.message != "" {
					if !errors.As(err, &rejected) {
						t.Fatalf("expected RejectedError, got %T", err)
					}
					if rejected.Message != tt.message {
						t.Errorf("expected message %q, got %q", tt.message, rejected.Message)
					}
				}
			})
		}
	})

	t.Run("PostForm", func(t *testing.T) {
		t.Run("Primes And Echoes CSRF Token", func(t *testing.T) {
			var primed int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch {
				case r.Method == http.MethodGet && r.URL.Path == "/":
					primed++
					http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: "tok123", Path: "/"})
				case r.Method == http.MethodPost:
					if got := r.Header.Get("X-CSRFToken"); got != "tok123" {
						t.Errorf("expected X-CSRFToken tok123, got %q", got)
					}
					r.ParseForm()
					if got := r.PostForm.Get("csrfmiddlewaretoken"); got != "tok123" {
						t.Errorf("expected csrfmiddlewaretoken tok123, got %q", got)
					}
					if got := r.PostForm.Get("mood"); got != "happy" {
						t.Errorf("expected mood happy, got %q", got)
					}
					w.Write([]byte("<div></div>"))
				}
			}))
			defer server.Close()

			jar, _ := cookiejar.New(nil)
			srv := services.NewAPIService(server.URL, &http.Client{Jar: jar})

			for range 2 {
				if _, err := srv.PostForm(context.Background(), "/mood-recommendations/", url.Values{"mood": {"happy"}}); err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
			}
			if primed != 1 {
				t.Errorf("expected the jar to be primed once, got %d", primed)
			}
		})

		t.Run("No Jar Sends No Token", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("X-CSRFToken") != "" {
					t.Error("expected no CSRF header without a cookie jar")
				}
				io.Copy(io.Discard, r.Body)
			}))
			defer server.Close()

			if _, err := services.NewAPIService(server.URL, nil).PostForm(context.Background(), "/x/", nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	})

	t.Run("PostJSON", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected JSON content type, got %q", ct)
			}
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["k"] != "v" {
				t.Errorf("unexpected body %v", body)
			}
			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		resp, err := services.NewAPIService(server.URL, nil).PostJSON(context.Background(), "/p/", map[string]string{"k": "v"}, "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.StatusCode != http.StatusCreated {
			t.Errorf("expected 201, got %d", resp.StatusCode)
		}
	})
}
