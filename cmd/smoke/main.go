package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"
)

type notice struct {
	Level   string `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type reportBody struct {
	Name   string  `json:"name"`
	Kind   string  `json:"kind"`
	Notice *notice `json:"notice"`
}

func main() {
	baseURL := pflag.StringP("url", "u", "http://localhost:8080", "Base URL of a running server")
	rangeName := pflag.StringP("range", "r", "all-time", "Time range passed to every report")
	wait := pflag.Duration("wait", 2*time.Second, "Time to wait for the server before the first request")
	pflag.Parse()

	time.Sleep(*wait)
	client := &http.Client{Timeout: 2 * time.Minute}

	fmt.Println("Starting smoke test...")

	fmt.Println("1. Health check...")
	if _, ok := get(client, *baseURL+"/healthz", http.StatusOK); !ok {
		fmt.Println("FAILED: Health check")
		os.Exit(1)
	}
	fmt.Println("PASSED: Health check")

	fmt.Println("2. Listing reports...")
	body, ok := get(client, *baseURL+"/reports", http.StatusOK)
	if !ok {
		fmt.Println("FAILED: List reports")
		os.Exit(1)
	}
	var list struct {
		Reports []reportBody `json:"reports"`
	}
	if err := json.Unmarshal(body, &list); err != nil || len(list.Reports) == 0 {
		fmt.Printf("FAILED: List reports returned no reports (%v)\n", err)
		os.Exit(1)
	}
	fmt.Printf("PASSED: List reports (%d)\n", len(list.Reports))

	fmt.Println("3. Rendering reports...")
	failed := 0
	for _, r := range list.Reports {
		body, ok := get(client, fmt.Sprintf("%s/reports/%s?range=%s", *baseURL, r.Name, *rangeName), http.StatusOK)
		if !ok {
			failed++
			continue
		}
		var rep reportBody
		if err := json.Unmarshal(body, &rep); err != nil {
			fmt.Printf("  %s: unreadable response: %v\n", r.Name, err)
			failed++
			continue
		}
		if rep.Notice != nil {
			fmt.Printf("  %s: %s notice [%s] %s\n", rep.Name, rep.Notice.Level, rep.Notice.Code, rep.Notice.Message)
			if rep.Notice.Level == "error" {
				failed++
			}
			continue
		}
		fmt.Printf("  %s: %s OK\n", rep.Name, rep.Kind)
	}

	fmt.Println("4. Rejecting an invalid filter...")
	if _, ok := get(client, *baseURL+"/reports/totals?range=yesterday", http.StatusBadRequest); !ok {
		failed++
	}

	if failed > 0 {
		fmt.Printf("FAILED: %d checks\n", failed)
		os.Exit(1)
	}
	fmt.Println("PASSED: Smoke test")
}

func get(client *http.Client, url string, want int) ([]byte, bool) {
	resp, err := client.Get(url)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return nil, false
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != want {
		fmt.Printf("Request %s failed with status %d: %s\n", url, resp.StatusCode, string(body))
		return nil, false
	}
	return body, true
}
