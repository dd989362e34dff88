// seed_villages.go is a standalone script to load a village table and seed it via the DesaRank API.
//
// Usage:
//
//	go run scripts/seed_villages.go -file villages.csv -api http://localhost:8600 -token $DESARANK_ADMIN_TOKEN
//	go run scripts/seed_villages.go -file villages.csv -workbook data/Data_Stunting.xlsx
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/MikeSquared-Agency/DesaRank/internal/dataset"
	"github.com/MikeSquared-Agency/DesaRank/internal/scoring"
)

type villageRequest struct {
	Name   string             `json:"desa"`
	Values map[string]float64 `json:"values"`
}

func main() {
	filePath := flag.String("file", "villages.csv", "path to a .csv or .xlsx village table")
	apiURL := flag.String("api", "http://localhost:8600", "DesaRank API base URL")
	token := flag.String("token", os.Getenv("DESARANK_ADMIN_TOKEN"), "admin bearer token")
	workbook := flag.String("workbook", "", "write the rows to this workbook instead of posting them")
	sheet := flag.String("sheet", "ProsesingSAW", "sheet name used with -workbook")
	dryRun := flag.Bool("dry-run", false, "print villages without posting")
	flag.Parse()

	data, err := os.ReadFile(*filePath)
	if err != nil {
		log.Fatalf("read %s: %v", *filePath, err)
	}

	criteria := scoring.DefaultCriteria()
	records, err := dataset.ReadUpload(*filePath, data, criteria)
	if err != nil {
		log.Fatalf("parse %s: %v", *filePath, err)
	}
	log.Printf("parsed %d villages from %s", len(records), *filePath)

	if *dryRun {
		for i, rec := range records {
			fmt.Printf("[%d] %s missing=%v\n", i+1, rec.Name, rec.Missing())
		}
		return
	}

	if *workbook != "" {
		if err := dataset.Complete(records, criteria); err != nil {
			log.Fatalf("incomplete rows: %v", err)
		}
		if err := dataset.WriteXLSX(*workbook, *sheet, criteria, records); err != nil {
			log.Fatalf("write workbook: %v", err)
		}
		log.Printf("wrote %d villages to %s", len(records), *workbook)
		return
	}

	client := &http.Client{}
	created, skipped := 0, 0
	for _, rec := range records {
		item := villageRequest{Name: rec.Name, Values: make(map[string]float64, len(criteria))}
		for i, c := range criteria {
			if rec.Values[i] != nil {
				item.Values[c.Name] = *rec.Values[i]
			}
		}

		body, _ := json.Marshal(item)
		req, err := http.NewRequest("POST", *apiURL+"/api/v1/villages", bytes.NewReader(body))
		if err != nil {
			log.Printf("skip %q: %v", rec.Name, err)
			skipped++
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		if *token != "" {
			req.Header.Set("Authorization", "Bearer "+*token)
		}

		resp, err := client.Do(req)
		if err != nil {
			log.Printf("skip %q: %v", rec.Name, err)
			skipped++
			continue
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusCreated {
			created++
		} else {
			log.Printf("skip %q: status %d", rec.Name, resp.StatusCode)
			skipped++
		}
	}

	log.Printf("done: %d created, %d skipped", created, skipped)
}
