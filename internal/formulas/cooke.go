package formulas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lake-health/lakecalc-ai/internal/biometry"
)

// DefaultCookeURL is the public Cooke K6 preop endpoint.
const DefaultCookeURL = "https://cookeformula.com/api/v1/k6/v2024.01/preop"

// CookeK6 calls the remote Cooke K6 formula API. It needs full biometry
// (ACD, LT, WTW, CCT); eyes missing any of those are rejected before the
// request is made. Network failures surface as errors; the caller decides
// whether to fall back to a local formula.
type CookeK6 struct {
	URL    string
	Client *http.Client
}

// NewCookeK6 returns a client for the public endpoint with a 10 s timeout.
func NewCookeK6() *CookeK6 {
	return &CookeK6{
		URL:    DefaultCookeURL,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Name implements Spherical.
func (*CookeK6) Name() string { return "Cooke K6" }

type cookeIOL struct {
	AConstant float64      `json:"AConstant"`
	Family    string       `json:"Family"`
	Powers    []cookeRange `json:"Powers"`
}

type cookeRange struct {
	From float64 `json:"From"`
	To   float64 `json:"To"`
	By   float64 `json:"By"`
}

type cookeEye struct {
	SpecialSituation string  `json:"SpecialSituation"`
	TgtRx            float64 `json:"TgtRx"`
	K1               float64 `json:"K1"`
	K2               float64 `json:"K2"`
	Biometer         string  `json:"Biometer"`
	AL               float64 `json:"AL"`
	CCT              int     `json:"CCT"`
	ACD              float64 `json:"ACD"`
	LT               float64 `json:"LT"`
	WTW              float64 `json:"WTW"`
}

type cookeRequest struct {
	KIndex            float64    `json:"KIndex"`
	PredictionsPerIol int        `json:"PredictionsPerIol"`
	IOLs              []cookeIOL `json:"IOLs"`
	Eyes              []cookeEye `json:"Eyes"`
}

type cookeResponse []struct {
	IOLs []struct {
		Predictions []struct {
			IOL float64 `json:"IOL"`
			Rx  float64 `json:"Rx"`
		} `json:"Predictions"`
	} `json:"IOLs"`
}

// Estimate implements Spherical. The K6 API does not report an ELP, so the
// estimate carries the Haigis ELP for the same eye alongside the K6 power.
func (c *CookeK6) Estimate(ctx context.Context, eye biometry.EyeBiometry, targetRefraction float64, consts Constants) (Estimate, error) {
	if eye.LTMM == nil || eye.WTWMM == nil || eye.CCTUM == nil {
		return Estimate{}, fmt.Errorf("cooke k6: LT, WTW and CCT are required")
	}

	a := consts.AConstant
	if a == 0 {
		a = DefaultAConstant
	}

	payload := cookeRequest{
		KIndex:            1.3375,
		PredictionsPerIol: 1,
		IOLs: []cookeIOL{{
			AConstant: a,
			Family:    "Other",
			Powers:    []cookeRange{{From: 6, To: 30, By: 0.5}},
		}},
		Eyes: []cookeEye{{
			SpecialSituation: "None",
			TgtRx:            targetRefraction,
			K1:               eye.K1.Power,
			K2:               eye.K2.Power,
			Biometer:         "Lenstar",
			AL:               eye.AxialLengthMM,
			CCT:              int(*eye.CCTUM),
			ACD:              eye.ACDMM,
			LT:               *eye.LTMM,
			WTW:              *eye.WTWMM,
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Estimate{}, fmt.Errorf("cooke k6: encoding request: %w", err)
	}

	url := c.URL
	if url == "" {
		url = DefaultCookeURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Estimate{}, fmt.Errorf("cooke k6: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Estimate{}, fmt.Errorf("cooke k6: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Estimate{}, fmt.Errorf("cooke k6: unexpected status %d", resp.StatusCode)
	}

	var decoded cookeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Estimate{}, fmt.Errorf("cooke k6: decoding response: %w", err)
	}
	if len(decoded) == 0 || len(decoded[0].IOLs) == 0 || len(decoded[0].IOLs[0].Predictions) == 0 {
		return Estimate{}, fmt.Errorf("cooke k6: empty prediction set")
	}

	// Local Haigis supplies the ELP the toric loop needs.
	haigis, err := Haigis{}.Estimate(ctx, eye, targetRefraction, consts)
	if err != nil {
		return Estimate{}, err
	}

	return Estimate{
		Formula:        "Cooke K6",
		ELPMM:          haigis.ELPMM,
		SphericalPower: decoded[0].IOLs[0].Predictions[0].IOL,
		Notes:          fmt.Sprintf("predicted Rx %+.2f D", decoded[0].IOLs[0].Predictions[0].Rx),
	}, nil
}
