// cmd/seed/main.go
//
// Seeds the record store with a couple of practice scenarios so a
// fresh deployment has something to play with.
package main

import (
	"flag"
	"log"

	"github.com/Reflectix/CounselLab/internal/config"
	"github.com/Reflectix/CounselLab/internal/models"
	"github.com/Reflectix/CounselLab/internal/services"
	"github.com/Reflectix/CounselLab/internal/storage"
)

func main() {
	dataDir := flag.String("data", "", "data directory (defaults to DATA_DIR)")
	flag.Parse()

	baseConfig, err := config.Load()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}
	if *dataDir == "" {
		*dataDir = baseConfig.DataDir
	}

	store, err := storage.NewRecordStore(*dataDir)
	if err != nil {
		log.Fatalf("opening record store: %v", err)
	}
	scenarios := services.NewScenarioService(store)

	for _, seed := range seedScenarios() {
		created, err := scenarios.CreateWithSegments(seed.scenario, seed.segments)
		if err != nil {
			log.Fatalf("seeding scenario %q: %v", seed.scenario.Title, err)
		}
		log.Printf("seeded scenario %s (%s) with %d segments", created.Title, created.ID, len(seed.segments))
	}

	log.Println("done")
}

type seedScenario struct {
	scenario *models.Scenario
	segments []models.Segment
}

func seedScenarios() []seedScenario {
	end := func(t float64) *float64 { return &t }

	return []seedScenario{
		{
			scenario: &models.Scenario{
				Title:       "First Session Intake",
				Description: "A client arrives for their first counseling session, visibly anxious.",
				Difficulty:  models.DifficultyBeginner,
				Duration:    300,
				Category:    "intake",
			},
			segments: []models.Segment{
				{
					Title:       "Opening and welcome",
					Description: "The counselor greets the client and sets the frame.",
					StartTime:   0,
					EndTime:     end(60),
				},
				{
					Title:       "Client shares their concern",
					Description: "Respond with an empathic reflection.",
					StartTime:   60,
					EndTime:     end(150),
					PausePoint:  true,
				},
				{
					Title:       "Closing the intake",
					Description: "Summarize and agree on next steps.",
					StartTime:   150,
					PausePoint:  true,
				},
			},
		},
		{
			scenario: &models.Scenario{
				Title:       "Managing Client Resistance",
				Description: "A mandated client pushes back against the process.",
				Difficulty:  models.DifficultyAdvanced,
				Duration:    420,
				Category:    "resistance",
			},
			segments: []models.Segment{
				{
					Title:       "Client voices frustration",
					Description: "Roll with the resistance without confrontation.",
					StartTime:   0,
					EndTime:     end(120),
					PausePoint:  true,
				},
				{
					Title:       "Exploring ambivalence",
					Description: "Use open questions to surface the client's own motivation.",
					StartTime:   120,
					EndTime:     end(280),
					PausePoint:  true,
				},
				{
					Title:       "Debrief",
					Description: "Review the exchange.",
					StartTime:   280,
				},
			},
		},
	}
}
