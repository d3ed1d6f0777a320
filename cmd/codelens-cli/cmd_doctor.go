package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration and connectivity",
		Long:  "Run diagnostic checks against config, server, and index state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	}
}

type checkResult struct {
	Name   string
	Passed bool
	Detail string
	Hint   string
}

func runDoctor() error {
	fmt.Println("\nCodelens Doctor")
	fmt.Println("===============")

	var results []checkResult

	// 1. Config file.
	cfgPath, cfg, cfgErr := doctorLoadConfig()
	if cfgErr != nil {
		results = append(results, checkResult{
			Name: "Config file", Passed: false,
			Detail: cfgPath,
			Hint:   fmt.Sprintf("Create %s with a url: entry, or rely on --url / CODELENS_URL", cfgPath),
		})
	} else {
		results = append(results, checkResult{
			Name: "Config file", Passed: true,
			Detail: fmt.Sprintf("found (%s)", cfgPath),
		})
	}

	// Resolve the URL with the same priority as resolveConfig.
	url := doctorResolveURL(cfg)

	// 2. Server URL.
	if url == "" {
		results = append(results, checkResult{
			Name: "Server URL", Passed: false,
			Hint: "Set --url or CODELENS_URL",
		})
	} else {
		results = append(results, checkResult{
			Name: "Server URL", Passed: true, Detail: url,
		})
	}

	// 3. Server reachable.
	var healthy bool
	if url != "" {
		ver, err := doctorCheckHealth(url)
		if err != nil {
			results = append(results, checkResult{
				Name: "Server reachable", Passed: false,
				Detail: url,
				Hint:   fmt.Sprintf("Is the codelens server running?\n   Error: %v", err),
			})
		} else {
			healthy = true
			detail := url
			if ver != "" {
				detail = fmt.Sprintf("v%s", ver)
			}
			results = append(results, checkResult{
				Name: "Server reachable", Passed: true, Detail: detail,
			})
		}
	}

	// 4. Index readiness (database, Ollama, graph size).
	if healthy {
		results = append(results, doctorCheckReady(url)...)
	}

	failed := 0
	for _, r := range results {
		mark := "ok"
		if !r.Passed {
			mark = "FAIL"
			failed++
		}
		fmt.Printf("  [%-4s] %-18s %s\n", mark, r.Name, r.Detail)
		if r.Hint != "" {
			fmt.Printf("         hint: %s\n", r.Hint)
		}
	}

	fmt.Println()
	if failed > 0 {
		fmt.Printf("%d check(s) failed\n", failed)
		os.Exit(1)
	}
	fmt.Println("All checks passed")
	return nil
}

func doctorLoadConfig() (string, *configFile, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", nil, err
	}
	cfgPath := filepath.Join(home, ".codelens", "config.yaml")

	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return cfgPath, nil, err
	}

	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfgPath, nil, err
	}
	return cfgPath, &cfg, nil
}

func doctorResolveURL(cfg *configFile) string {
	if flagURL != defaultURL {
		return flagURL
	}
	if v := os.Getenv("CODELENS_URL"); v != "" {
		return v
	}
	if cfg != nil {
		if cfg.Profiles != nil {
			name := cfg.ActiveProfile
			if name == "" {
				name = "default"
			}
			if p, ok := cfg.Profiles[name]; ok && p.URL != "" {
				return p.URL
			}
		}
		if cfg.URL != "" {
			return cfg.URL
		}
	}
	return flagURL
}

func doctorCheckHealth(baseURL string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/health", nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("health returned %d", resp.StatusCode)
	}

	var body struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", nil // reachable, version unknown
	}
	return body.Version, nil
}

func doctorCheckReady(baseURL string) []checkResult {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var results []checkResult

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/ready", nil)
	if err != nil {
		return append(results, checkResult{Name: "Readiness", Passed: false, Detail: err.Error()})
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return append(results, checkResult{Name: "Readiness", Passed: false, Detail: err.Error()})
	}
	defer resp.Body.Close() //nolint:errcheck

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
		Nodes  int64             `json:"nodes"`
		Edges  int64             `json:"edges"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return append(results, checkResult{Name: "Readiness", Passed: false, Detail: "invalid response"})
	}

	for _, name := range []string{"database", "ollama"} {
		status, ok := body.Checks[name]
		results = append(results, checkResult{
			Name:   name,
			Passed: ok && status == "ok",
			Detail: status,
		})
	}

	if body.Nodes == 0 {
		results = append(results, checkResult{
			Name: "Index", Passed: false,
			Detail: "empty",
			Hint:   "Run: codelens ingest <path-to-csharp-source>",
		})
	} else {
		results = append(results, checkResult{
			Name: "Index", Passed: true,
			Detail: fmt.Sprintf("%d nodes, %d edges", body.Nodes, body.Edges),
		})
	}

	return results
}
