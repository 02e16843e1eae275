package main

import (
	"context"
	"log"
	"time"

	"reportfire/engine"
	"reportfire/internal/report"
	"reportfire/types"
	"reportfire/types/config"
)

type demoSource struct {
	kind string
}

func (s demoSource) Fetch(ctx context.Context, ownerRef string, windowStart, windowEnd time.Time) (map[string]any, error) {
	return map[string]any{
		"kind":         s.kind,
		"owner":        ownerRef,
		"window_start": windowStart,
		"window_end":   windowEnd,
		"generated_at": time.Now(),
	}, nil
}

func main() {
	cfg, err := config.NewEngineConfig("west-canada",
		config.WithWorkerCount(8),
		config.WithArtifactDir("./reports"),
		config.WithAdminDashboardConfig("admin", "1234", "my-secret-key-1234-5", 8080),
		config.WithPostgresConfig(config.PostgresConfig{
			ConnectionUrl: "host=localhost port=5432 user=postgres password=postgres dbname=reportfire sslmode=disable",
		}),
	)
	if err != nil {
		log.Fatal(err)
	}

	err = cfg.RegisterFamilies([]config.FamilyConfig{
		{
			Name:         "personal-report",
			Space:        "personal",
			Destination:  "reports@example.com",
			TemplateType: "personal-summary",
		},
		{
			Name:         "project-report",
			Space:        "project",
			Destination:  "pm@example.com",
			TemplateType: "project-summary",
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	eng, err := engine.New(ctx, cfg, map[string]report.DataSource{
		"personal-report": demoSource{kind: "personal"},
		"project-report":  demoSource{kind: "project"},
	})
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Shutdown()

	personal, _ := eng.Family("personal-report")
	project, _ := eng.Family("project-report")

	now := time.Now()

	if _, err := personal.Run(ctx, &types.JobInformation{
		Name:        "weekly-activity-summary",
		OwnerRef:    "3b8656f7-9072-4a5b-a3e1-36db42692c13",
		Policy:      types.CronSchedule("0 0 9 * * 1"),
		WindowStart: now.AddDate(0, 0, -7),
		WindowEnd:   now,
	}); err != nil {
		log.Println(err)
	}

	if _, err := personal.Run(ctx, &types.JobInformation{
		Name:        "onboarding-digest",
		OwnerRef:    "new-hire-42",
		Policy:      types.FireCountSchedule(5, 24*time.Hour, time.Hour),
		WindowStart: now.AddDate(0, 0, -1),
		WindowEnd:   now,
	}); err != nil {
		log.Println(err)
	}

	if _, err := project.Run(ctx, &types.JobInformation{
		Name:        "nightly-progress-report",
		OwnerRef:    "project-apollo",
		Policy:      types.CronSchedule("0 0 2 * * *"),
		WindowStart: now.AddDate(0, 0, -1),
		WindowEnd:   now,
	}); err != nil {
		log.Println(err)
	}

	select {}
}
