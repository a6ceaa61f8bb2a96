package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"parking-monitor/internal/domain/parking"
)

// vehicleClasses are the detector class labels treated as parked vehicles.
var vehicleClasses = map[string]bool{
	"car":   true,
	"truck": true,
	"bus":   true,
}

// HTTPDetector pulls one cycle's detections from the inference sidecar. The
// sidecar owns the camera and the model; this client only speaks JSON.
type HTTPDetector struct {
	baseURL string
	client  *http.Client
}

func NewHTTPDetector(baseURL string, timeout time.Duration) *HTTPDetector {
	return &HTTPDetector{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type detectionPayload struct {
	CapturedAt time.Time `json:"captured_at"`
	Detections []struct {
		X          float64 `json:"x"`
		Y          float64 `json:"y"`
		Width      float64 `json:"width"`
		Height     float64 `json:"height"`
		Confidence float64 `json:"confidence"`
		Class      string  `json:"class"`
	} `json:"detections"`
}

// Detect fetches the current detection set, keeping only vehicle classes.
// Any transport or payload problem surfaces as an error so the monitor can
// treat the cycle as an observation gap.
func (d *HTTPDetector) Detect(ctx context.Context) ([]parking.Detection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/detections", nil)
	if err != nil {
		return nil, fmt.Errorf("build detector request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query detector: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector returned status %d", resp.StatusCode)
	}

	var payload detectionPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode detector payload: %w", err)
	}

	detections := make([]parking.Detection, 0, len(payload.Detections))
	for _, det := range payload.Detections {
		if !vehicleClasses[det.Class] {
			continue
		}
		detections = append(detections, parking.Detection{
			Box: parking.Rect{
				X:      det.X,
				Y:      det.Y,
				Width:  det.Width,
				Height: det.Height,
			},
			Confidence: det.Confidence,
			Class:      det.Class,
			CapturedAt: payload.CapturedAt,
		})
	}
	return detections, nil
}

// Snapshot fetches the current camera frame as JPEG. Used by the session
// recorder to attach an image to freshly opened sessions.
func (d *HTTPDetector) Snapshot(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/snapshot", nil)
	if err != nil {
		return nil, fmt.Errorf("build snapshot request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read snapshot body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("snapshot is empty")
	}
	return data, nil
}
