package replicate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestClient(rt roundTripFunc) *Client {
	return NewClient(Options{
		Token:      "test-token",
		HTTPClient: &http.Client{Transport: rt},
	})
}

func TestCreatePredictionSendsVersionAndInput(t *testing.T) {
	var captured map[string]any
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/predictions" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Fatalf("authorization = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		return jsonResponse(http.StatusCreated, `{"id":"pred-1","status":"starting"}`), nil
	})

	input := MotionControlInput("https://img", "https://vid", "")
	pred, err := client.CreatePrediction(context.Background(), MotionControlVersion, input)
	if err != nil {
		t.Fatalf("CreatePrediction() error = %v", err)
	}
	if pred.ID != "pred-1" || pred.Status != PredictionStarting {
		t.Fatalf("prediction = %+v", pred)
	}
	if captured["version"] != MotionControlVersion {
		t.Fatalf("version = %v", captured["version"])
	}
	sent, _ := captured["input"].(map[string]any)
	if sent["prompt"] != "a person performing the motion naturally" {
		t.Fatalf("default prompt not applied: %v", sent["prompt"])
	}
	if sent["mode"] != "pro" || sent["character_orientation"] != "image" {
		t.Fatalf("input = %v", sent)
	}
}

func TestCreatePredictionWithoutTokenFails(t *testing.T) {
	client := NewClient(Options{})
	if _, err := client.CreatePrediction(context.Background(), "v", nil); err != ErrMissingToken {
		t.Fatalf("error = %v, want ErrMissingToken", err)
	}
}

func TestGetPredictionSurfacesProviderError(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"id":"pred-1","status":"failed","error":"NSFW content"}`), nil
	})
	pred, err := client.GetPrediction(context.Background(), "pred-1")
	if err != nil {
		t.Fatalf("GetPrediction() error = %v", err)
	}
	if pred.Status != PredictionFailed || pred.Error != "NSFW content" {
		t.Fatalf("prediction = %+v", pred)
	}
}

func TestGetPredictionNon2xx(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusPaymentRequired, `{"detail":"insufficient credit"}`), nil
	})
	if _, err := client.GetPrediction(context.Background(), "pred-1"); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestOutputURLHandlesStringAndArray(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare string", `"https://out/video.mp4"`, "https://out/video.mp4"},
		{"array", `["https://out/a.jpg","https://out/b.jpg"]`, "https://out/a.jpg"},
		{"empty array", `[]`, ""},
		{"null", `null`, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &Prediction{Output: json.RawMessage(tc.raw)}
			if got := p.OutputURL(); got != tc.want {
				t.Fatalf("OutputURL() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestUploadFileReturnsServedURL(t *testing.T) {
	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/v1/files" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/form-data") {
			t.Fatalf("content type = %q", ct)
		}
		return jsonResponse(http.StatusOK, `{"urls":{"get":"https://api.replicate.com/files/abc"}}`), nil
	})
	url, err := client.UploadFile(context.Background(), "clip.mp4", "video/mp4", []byte("data"))
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if url != "https://api.replicate.com/files/abc" {
		t.Fatalf("url = %q", url)
	}
}

func TestUpscaleInputsFollowModelSchemas(t *testing.T) {
	esrgan := RealESRGANInput("https://v.mp4", "")
	if esrgan["video_path"] != "https://v.mp4" || esrgan["resolution"] != "FHD" {
		t.Fatalf("real-esrgan input = %v", esrgan)
	}
	topaz := TopazInput("https://v.mp4", "4k")
	if topaz["video"] != "https://v.mp4" || topaz["target_resolution"] != "4k" || topaz["target_fps"] != 30 {
		t.Fatalf("topaz input = %v", topaz)
	}
}
