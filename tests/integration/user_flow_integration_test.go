//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

func baseURL() string {
	if v := os.Getenv("GREENLIT_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:18080"
}

func TestUserJourneyIntegration(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	base := baseURL()

	userEmail := fmt.Sprintf("integration_%d@example.com", time.Now().UnixNano())
	password := "Secret123!"

	var registerResp struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	doPost(t, client, base+"/api/auth/register", "", map[string]string{
		"email":    userEmail,
		"password": password,
		"name":     "Integration User",
	}, &registerResp)
	if registerResp.Token == "" || registerResp.UserID == "" {
		t.Fatalf("unexpected register response: %+v", registerResp)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	doPost(t, client, base+"/api/auth/login", "", map[string]string{
		"email":    userEmail,
		"password": password,
	}, &loginResp)
	token := loginResp.Token
	if token == "" {
		t.Fatalf("login did not return token")
	}

	var catResp struct {
		Categories []struct {
			Key       string `json:"key"`
			Questions []struct {
				ID string `json:"id"`
			} `json:"questions"`
		} `json:"categories"`
	}
	doGet(t, client, base+"/api/questionnaire/categories", token, &catResp)
	if len(catResp.Categories) == 0 {
		t.Fatalf("expected categories in response")
	}
	questionID := catResp.Categories[0].Questions[0].ID

	var submitResp struct {
		Total float64 `json:"total"`
	}
	doPost(t, client, base+"/api/questionnaire/answers", token, map[string]any{
		"question_id": questionID,
		"answer":      1200,
	}, &submitResp)
	if submitResp.Total <= 0 {
		t.Fatalf("expected progress after answering, got %v", submitResp.Total)
	}

	var progResp struct {
		Total float64 `json:"total"`
	}
	doGet(t, client, base+"/api/questionnaire/progress", token, &progResp)
	if progResp.Total != submitResp.Total {
		t.Fatalf("progress mismatch: submit=%v progress=%v", submitResp.Total, progResp.Total)
	}

	var valResp struct {
		Valid      bool     `json:"valid"`
		Violations []string `json:"violations"`
	}
	doPost(t, client, base+"/api/plugins/validate", "", map[string]any{
		"id": "broken", "version": "abc",
	}, &valResp)
	if valResp.Valid || len(valResp.Violations) == 0 {
		t.Fatalf("expected violations for broken manifest: %+v", valResp)
	}

	exportReq, err := http.NewRequest(http.MethodGet, base+"/api/questionnaire/export", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	exportReq.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(exportReq)
	if err != nil {
		t.Fatalf("export request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("export status %d body %s", resp.StatusCode, string(body))
	}
	csvData, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read export data: %v", err)
	}
	if !strings.Contains(string(csvData), questionID) {
		t.Fatalf("export csv did not contain answered question; csv=%s", string(csvData))
	}

	var healthResp struct {
		OK bool `json:"ok"`
	}
	doGet(t, client, base+"/health", "", &healthResp)
	if !healthResp.OK {
		t.Fatalf("health endpoint reported not ok")
	}
}

func doPost(t *testing.T, client *http.Client, url, token string, body any, out any) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http post %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d for %s: %s", resp.StatusCode, url, string(bodyBytes))
	}
	if out != nil {
		decoder := json.NewDecoder(resp.Body)
		if err := decoder.Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
}

func doGet(t *testing.T, client *http.Client, url, token string, out any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("http get %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d for %s: %s", resp.StatusCode, url, string(bodyBytes))
	}
	if out != nil {
		decoder := json.NewDecoder(resp.Body)
		if err := decoder.Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
}
