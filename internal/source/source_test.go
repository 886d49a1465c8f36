package source

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nothinghide/nothinghide/internal/model"
)

// newTestClient points a LeakCheck client at the given handler. The shared
// status-code contract lives in base, so one provider covers it for all.
func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*LeakCheck, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts = append(opts, WithBaseURL(srv.URL+"/check?email=%s"))
	return NewLeakCheck(opts...), srv
}

func TestStatusCodeContract(t *testing.T) {
	t.Parallel()

	t.Run("404 is a clean not-breached success", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		res := c.Fetch(context.Background(), "nobody@example.com")
		if !res.Success() {
			t.Fatalf("expected success, got error %q", res.Error)
		}
		if res.Breached {
			t.Error("404 must not count as breached")
		}
		if c.Health().Status() != model.StatusHealthy {
			t.Errorf("expected healthy after 404, got %v", c.Health().Status())
		}
	})

	t.Run("429 records a rate limit with the Retry-After hint", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(http.StatusTooManyRequests)
		})

		res := c.Fetch(context.Background(), "user@example.com")
		if res.Success() {
			t.Fatal("expected a failed result")
		}
		if !res.RateLimited {
			t.Error("expected RateLimited flag")
		}
		if res.RetryAfter != 30*time.Second {
			t.Errorf("expected 30s retry hint, got %v", res.RetryAfter)
		}
		if c.Health().Status() != model.StatusRateLimited {
			t.Errorf("expected RATE_LIMITED health, got %v", c.Health().Status())
		}
		if c.Available() {
			t.Error("rate-limited source must be unavailable during cooldown")
		}
	})

	t.Run("server error fails with the status in the message", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		res := c.Fetch(context.Background(), "user@example.com")
		if res.Success() {
			t.Fatal("expected a failed result")
		}
		if res.Error != "API returned status 500" {
			t.Errorf("unexpected error message: %q", res.Error)
		}
	})

	t.Run("timeout fails with the canonical message", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}, WithTimeout(20*time.Millisecond))

		res := c.Fetch(context.Background(), "user@example.com")
		if res.Success() {
			t.Fatal("expected a failed result")
		}
		if res.Error != "Request timed out" {
			t.Errorf("expected canonical timeout message, got %q", res.Error)
		}
	})

	t.Run("email is escaped into the URL", func(t *testing.T) {
		t.Parallel()
		var gotQuery string
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.RawQuery
			w.WriteHeader(http.StatusNotFound)
		})

		c.Fetch(context.Background(), "user+tag@example.com")
		if !strings.Contains(gotQuery, "user+tag@example.com") {
			t.Errorf("expected escaped email in query, got %q", gotQuery)
		}
	})
}

func TestLeakCheckParsing(t *testing.T) {
	t.Parallel()

	t.Run("found results map and dedupe breach databases", func(t *testing.T) {
		t.Parallel()
		body := `{"success":true,"found":3,"result":[
			{"sources":["LinkedIn","Adobe"],"last_breach":"2012-05"},
			{"sources":["linkedin"],"last_breach":"2012-06"}
		]}`
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})

		res := c.Fetch(context.Background(), "user@example.com")
		if !res.Success() || !res.Breached {
			t.Fatalf("expected breached success, got %+v", res)
		}
		if len(res.Breaches) != 2 {
			t.Fatalf("expected 2 deduped breaches, got %d", len(res.Breaches))
		}
		if res.Breaches[0].Name != "LinkedIn" || res.Breaches[0].Date != "2012-05" {
			t.Errorf("unexpected first breach: %+v", res.Breaches[0])
		}
		if res.Breaches[0].SourceAPI != "LeakCheck" {
			t.Errorf("expected SourceAPI LeakCheck, got %q", res.Breaches[0].SourceAPI)
		}
	})

	t.Run("zero found is clean", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true,"found":0,"result":[]}`))
		})

		res := c.Fetch(context.Background(), "user@example.com")
		if !res.Success() || res.Breached {
			t.Errorf("expected clean success, got %+v", res)
		}
	})

	t.Run("malformed JSON fails the source", func(t *testing.T) {
		t.Parallel()
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		})

		res := c.Fetch(context.Background(), "user@example.com")
		if res.Success() {
			t.Error("expected parse failure")
		}
	})
}

func TestXposedOrNotParsing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		wantNames []string
	}{
		{
			name:      "flat breach list",
			body:      `{"breaches":["LinkedIn","Adobe"]}`,
			wantNames: []string{"LinkedIn", "Adobe"},
		},
		{
			name:      "nested breach list",
			body:      `{"breaches":[["LinkedIn","Adobe"]]}`,
			wantNames: []string{"LinkedIn", "Adobe"},
		},
		{
			name: "breaches_details objects",
			body: `{"ExposedBreaches":{"breaches_details":[
				{"breach":"LinkedIn","xposed_date":"2012","xposed_data":"Email addresses;Passwords"}
			]}}`,
			wantNames: []string{"LinkedIn"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			c := NewXposedOrNot(WithBaseURL(srv.URL + "/check/%s"))
			res := c.Fetch(context.Background(), "user@example.com")
			if !res.Success() || !res.Breached {
				t.Fatalf("expected breached success, got %+v", res)
			}
			if len(res.Breaches) != len(tt.wantNames) {
				t.Fatalf("expected %d breaches, got %d", len(tt.wantNames), len(res.Breaches))
			}
			for i, want := range tt.wantNames {
				if res.Breaches[i].Name != want {
					t.Errorf("breach %d: got %q, want %q", i, res.Breaches[i].Name, want)
				}
			}
		})
	}

	t.Run("api key header is sent when configured", func(t *testing.T) {
		t.Parallel()
		var gotKey string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotKey = r.Header.Get("x-api-key")
			w.Write([]byte(`{"breaches":[]}`))
		}))
		t.Cleanup(srv.Close)

		c := NewXposedOrNot(WithBaseURL(srv.URL+"/check/%s"), WithAPIKey("secret-key"))
		c.Fetch(context.Background(), "user@example.com")
		if gotKey != "secret-key" {
			t.Errorf("expected x-api-key header, got %q", gotKey)
		}
	})
}

func TestAnalyticsParsing(t *testing.T) {
	t.Parallel()

	body := `{"ExposedBreaches":{"breaches_details":[{
		"breach":"Adobe",
		"xposed_date":"2013",
		"xposed_data":"Email addresses;Passwords;Credit cards",
		"details":"Large breach of account data.",
		"xposed_records":152000000
	},{
		"breach":"Canva",
		"xposed_date":"2019",
		"xposed_data":"Email addresses",
		"xposed_records":"137000000"
	}]}}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c := NewXposedOrNotAnalytics(WithBaseURL(srv.URL + "/analytics/%s"))
	res := c.Fetch(context.Background(), "user@example.com")
	if !res.Success() || len(res.Breaches) != 2 {
		t.Fatalf("expected 2 breaches, got %+v", res)
	}

	adobe := res.Breaches[0]
	if adobe.RecordsExposed != 152000000 {
		t.Errorf("expected numeric record count, got %d", adobe.RecordsExposed)
	}
	if adobe.Description == "" {
		t.Error("expected description to carry through")
	}
	if len(adobe.DataClasses) != 3 {
		t.Errorf("expected 3 data classes, got %v", adobe.DataClasses)
	}

	if res.Breaches[1].RecordsExposed != 137000000 {
		t.Errorf("expected string record count parsed, got %d", res.Breaches[1].RecordsExposed)
	}
}

func TestEmailRepParsing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"reputation":"low","details":{"credentials_leaked":true,"data_breach":true}}`))
	}))
	t.Cleanup(srv.Close)

	c := NewEmailRep(WithBaseURL(srv.URL + "/%s"))
	res := c.Fetch(context.Background(), "user@example.com")
	if !res.Breached || len(res.Breaches) != 2 {
		t.Fatalf("expected 2 synthetic breaches, got %+v", res)
	}
	if res.Breaches[0].Name != "Credential Leak Detected" {
		t.Errorf("unexpected breach name: %q", res.Breaches[0].Name)
	}
}

func TestHackCheckParsing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"Title":"LinkedIn","BreachDate":"2012-05-05","DataClasses":["Email addresses","Passwords"]},
			{"Name":"Adobe","BreachDate":"2013-10-04"}
		]`))
	}))
	t.Cleanup(srv.Close)

	c := NewHackCheck(WithBaseURL(srv.URL + "/breached/%s"))
	res := c.Fetch(context.Background(), "user@example.com")
	if !res.Breached || len(res.Breaches) != 2 {
		t.Fatalf("expected 2 breaches, got %+v", res)
	}
	if res.Breaches[1].Name != "Adobe" {
		t.Errorf("expected Name fallback, got %q", res.Breaches[1].Name)
	}
	if len(res.Breaches[1].DataClasses) != 1 || res.Breaches[1].DataClasses[0] != "Unknown" {
		t.Errorf("expected Unknown data class fallback, got %v", res.Breaches[1].DataClasses)
	}
}

func TestDeXposeParsing(t *testing.T) {
	t.Parallel()

	t.Run("400 is treated as clean", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		t.Cleanup(srv.Close)

		c := NewDeXpose(WithBaseURL(srv.URL + "/check/%s"))
		res := c.Fetch(context.Background(), "user@example.com")
		if !res.Success() || res.Breached {
			t.Errorf("expected clean success on 400, got %+v", res)
		}
	})

	t.Run("non-JSON 200 body counts as clean", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>maintenance</html>`))
		}))
		t.Cleanup(srv.Close)

		c := NewDeXpose(WithBaseURL(srv.URL + "/check/%s"))
		res := c.Fetch(context.Background(), "user@example.com")
		if !res.Success() || res.Breached {
			t.Errorf("expected forgiving clean success, got %+v", res)
		}
	})

	t.Run("exposure without detail yields a synthetic breach", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"exposed":true}`))
		}))
		t.Cleanup(srv.Close)

		c := NewDeXpose(WithBaseURL(srv.URL + "/check/%s"))
		res := c.Fetch(context.Background(), "user@example.com")
		if !res.Breached || len(res.Breaches) != 1 {
			t.Fatalf("expected 1 synthetic breach, got %+v", res)
		}
		if res.Breaches[0].Name != "DeXpose Exposure Detected" {
			t.Errorf("unexpected name: %q", res.Breaches[0].Name)
		}
	})
}

func TestPriorityScore(t *testing.T) {
	t.Parallel()

	t.Run("fresh source scores its base priority", func(t *testing.T) {
		t.Parallel()
		c := NewLeakCheck()
		if got := c.PriorityScore(); got != 100 {
			t.Errorf("expected 100, got %v", got)
		}
	})

	t.Run("latency and failures sink the score", func(t *testing.T) {
		t.Parallel()
		c := NewHackCheck()
		c.Health().RecordSuccess(2500) // latency penalty 0.5
		c.Health().RecordFailure(false, 0)
		c.Health().RecordFailure(false, 0) // degraded, success rate 1/3

		// 90 × 0.5 (degraded) × (1 − 0.5) × (1/3)
		want := 90.0 * 0.5 * 0.5 * (1.0 / 3.0)
		if got := c.PriorityScore(); math.Abs(got-want) > 1e-9 {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("latency penalty saturates", func(t *testing.T) {
		t.Parallel()
		c := NewLeakCheck()
		c.Health().RecordSuccess(60000)
		if got := c.PriorityScore(); got != 50 {
			t.Errorf("expected 50 with saturated penalty, got %v", got)
		}
	})
}

func TestAllSources(t *testing.T) {
	t.Parallel()

	sources := All("")
	if len(sources) != 6 {
		t.Fatalf("expected 6 sources, got %d", len(sources))
	}
	for i := 1; i < len(sources); i++ {
		if sources[i].Priority() > sources[i-1].Priority() {
			t.Errorf("sources not in descending priority: %s (%d) after %s (%d)",
				sources[i].Name(), sources[i].Priority(), sources[i-1].Name(), sources[i-1].Priority())
		}
	}
}
