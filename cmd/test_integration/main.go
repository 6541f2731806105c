// Command test_integration smoke-tests a running helix server over HTTP.
// It posts a pre-built record, reads it back through the query routes,
// and exits non-zero at the first failure. No LLM is involved.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

const baseURL = "http://localhost:8080"

func main() {
	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Integration Test...")

	unique := fmt.Sprintf("%d", time.Now().Unix())
	sourceID := "smoke-" + unique
	patientName := "Smoke Tester " + unique

	fmt.Println("1. Importing Record...")
	doc := map[string]any{
		"metadata": map[string]any{
			"source_id":          sourceID,
			"extracted_at":       time.Now().UTC().Format(time.RFC3339),
			"text_length":        256,
			"extraction_version": "1.0",
		},
		"patient": map[string]any{
			"name":       patientName,
			"patient_id": "pat-" + unique,
			"age":        37,
		},
		"visits": []map[string]any{{
			"visit_type": "checkup",
			"start_time": "2025-06-01T09:00:00Z",
			"provider":   map[string]any{"name": "Dr. Smoke"},
		}},
		"allergies": []map[string]any{{
			"allergen": "smoke-" + unique,
		}},
	}
	if !sendRequest("POST", "/records", []map[string]any{doc}) {
		fmt.Println("FAILED: Import record")
		os.Exit(1)
	}
	fmt.Println("PASSED: Import record")

	fmt.Println("2. Fetching Patient...")
	if !sendRequest("GET", "/patients/"+url.PathEscape(patientName), nil) {
		fmt.Println("FAILED: Fetch patient")
		os.Exit(1)
	}
	fmt.Println("PASSED: Fetch patient")

	fmt.Println("3. Filtering Patients...")
	if !sendRequest("GET", "/patients?filter="+url.QueryEscape("age:ge:30"), nil) {
		fmt.Println("FAILED: Filter patients")
		os.Exit(1)
	}
	fmt.Println("PASSED: Filter patients")

	fmt.Println("4. Listing Visits...")
	if !sendRequest("GET", "/visits?from=2025-06-01T00:00:00Z&to=2025-06-02T00:00:00Z", nil) {
		fmt.Println("FAILED: List visits")
		os.Exit(1)
	}
	fmt.Println("PASSED: List visits")

	fmt.Println("5. Health Check...")
	if !sendRequest("GET", "/healthz", nil) {
		fmt.Println("FAILED: Health check")
		os.Exit(1)
	}
	fmt.Println("PASSED: Health check")
}

func sendRequest(method, endpoint string, payload any) bool {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return false
	}

	respBody, _ := io.ReadAll(resp.Body)
	fmt.Printf("Response: %s\n", string(respBody))

	return true
}
