// cmd/analysis-watch/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"hr-analysis/internal/analysis"
	"hr-analysis/internal/client"
	"hr-analysis/internal/common/logger"
	"hr-analysis/internal/models"
)

func main() {
	var (
		serverURL    = flag.String("server", "http://localhost:8080", "analysis server base URL")
		hcmURL       = flag.String("url", "", "HCM system URL to analyze (required)")
		companyName  = flag.String("company", "", "company name")
		analysisType = flag.String("type", "full", "analysis type: full or quick")
		timeout      = flag.Duration("timeout", 5*time.Minute, "overall wait timeout")
		pollInterval = flag.Duration("poll", 2*time.Second, "status poll interval")
		logLevel     = flag.String("log-level", "warn", "log level")
	)
	flag.Parse()

	if *hcmURL == "" {
		fmt.Fprintln(os.Stderr, "usage: analysis-watch -url <hcm-url> [-server <base-url>]")
		os.Exit(2)
	}

	zapLog := logger.New(*logLevel, "console")
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	api := client.NewAPIClient(*serverURL, 30*time.Second, *pollInterval, log)
	flow := client.NewFlow(api, api, client.Delays{}, log)

	flow.OnStateChange = func(s client.State) {
		fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05"), s)
	}
	flow.OnComplete = func(results *models.AnalysisResults) {
		fmt.Printf("\nAnalysis complete: overall score %d%% across %d processes\n",
			results.OverallScore, results.TotalProcesses)
		out, err := json.MarshalIndent(results, "", "  ")
		if err == nil {
			fmt.Println(string(out))
		}
	}
	flow.OnError = func(err error) {
		fmt.Fprintf(os.Stderr, "\nAnalysis failed: %v\n", err)
	}

	req := &analysis.SubmitRequest{
		HCMURL:       *hcmURL,
		CompanyName:  *companyName,
		AnalysisType: models.AnalysisType(*analysisType),
	}

	if err := flow.Run(ctx, req); err != nil {
		os.Exit(1)
	}
}
