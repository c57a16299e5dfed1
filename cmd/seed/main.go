package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"loanpipe-backend/internal/config"
	"loanpipe-backend/internal/crm"
	"loanpipe-backend/internal/pipeline"
)

type seedContact struct {
	FirstName  string
	LastName   string
	Email      string
	Phone      string
	Stage      pipeline.Stage
	Labels     []string
	LoanType   string
	LoanAmount string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.CRMAPIKey == "" {
		log.Fatal("CRM_API_KEY is required to seed")
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	client := crm.NewClient(crm.Options{
		BaseURL:    cfg.CRMBaseURL,
		APIKey:     cfg.CRMAPIKey,
		APIVersion: cfg.CRMAPIVersion,
		LocationID: cfg.CRMLocationID,
		Timeout:    time.Duration(cfg.CRMTimeoutSec) * time.Second,
	}, logger)

	contacts := []seedContact{
		{FirstName: "Ava", LastName: "Nguyen", Email: "ava.nguyen@example.com", Phone: "+14155550101", Stage: pipeline.StageNewLead, Labels: []string{"referral"}, LoanType: "Conventional", LoanAmount: "420000"},
		{FirstName: "Marcus", LastName: "Hill", Email: "marcus.hill@example.com", Phone: "+14155550102", Stage: pipeline.StageContacted, Labels: []string{"warm"}, LoanType: "FHA", LoanAmount: "310000"},
		{FirstName: "Priya", LastName: "Shah", Email: "priya.shah@example.com", Phone: "+14155550103", Stage: pipeline.StageApplicationStarted, Labels: []string{"first-time buyer"}, LoanType: "Conventional", LoanAmount: "505000"},
		{FirstName: "Diego", LastName: "Ramos", Email: "diego.ramos@example.com", Phone: "+14155550104", Stage: pipeline.StagePreApproved, Labels: []string{"vip"}, LoanType: "VA", LoanAmount: "389000"},
		{FirstName: "Helen", LastName: "Okafor", Email: "helen.okafor@example.com", Phone: "+14155550105", Stage: pipeline.StageInUnderwriting, Labels: []string{"rate lock"}, LoanType: "Jumbo", LoanAmount: "890000"},
		{FirstName: "Tom", LastName: "Becker", Email: "tom.becker@example.com", Phone: "+14155550106", Stage: pipeline.StageClosed, Labels: []string{"repeat client"}, LoanType: "Conventional", LoanAmount: "275000"},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	for _, seed := range contacts {
		tags := append(append([]string{}, seed.Labels...), string(seed.Stage))
		created, err := client.CreateContact(ctx, crm.ContactUpsert{
			FirstName: seed.FirstName,
			LastName:  seed.LastName,
			Email:     seed.Email,
			Phone:     seed.Phone,
			Tags:      tags,
			CustomFields: map[string]string{
				"loanType":   seed.LoanType,
				"loanAmount": seed.LoanAmount,
			},
		})
		if err != nil {
			log.Printf("seed contact %s: %v", seed.Email, err)
			continue
		}
		log.Printf("seeded contact %s (%s)", created.ID, seed.Email)

		_, err = client.CreateTask(ctx, crm.TaskUpsert{
			Title:     "Follow up with " + seed.FirstName + " " + seed.LastName,
			DueDate:   time.Now().AddDate(0, 0, 2).Format("2006-01-02"),
			ContactID: created.ID,
			Priority:  "medium",
		})
		if err != nil {
			log.Printf("seed task for %s: %v", seed.Email, err)
		}
	}
}
