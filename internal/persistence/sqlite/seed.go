package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed plans.yaml
var planCatalog []byte

type planSeed struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Price        float64  `yaml:"price"`
	Features     []string `yaml:"features"`
	VoiceEnabled bool     `yaml:"voice_enabled"`
	MultiCounter bool     `yaml:"multi_counter"`
	AdsEnabled   bool     `yaml:"ads_enabled"`
}

type planCatalogFile struct {
	Plans []planSeed `yaml:"plans"`
}

// SeedPlans loads the embedded plan catalog into the plans table. Existing
// rows are refreshed so catalog edits take effect on restart; the table is
// read-only to the rest of the system.
func (db *DB) SeedPlans(ctx context.Context) error {
	var catalog planCatalogFile
	if err := yaml.Unmarshal(planCatalog, &catalog); err != nil {
		return fmt.Errorf("parse plan catalog: %w", err)
	}
	if len(catalog.Plans) == 0 {
		return fmt.Errorf("plan catalog is empty")
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		for _, plan := range catalog.Plans {
			features, err := json.Marshal(plan.Features)
			if err != nil {
				return fmt.Errorf("encode features for plan %s: %w", plan.ID, err)
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO plans (id, name, price, features, voice_enabled, multi_counter, ads_enabled, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					name = excluded.name,
					price = excluded.price,
					features = excluded.features,
					voice_enabled = excluded.voice_enabled,
					multi_counter = excluded.multi_counter,
					ads_enabled = excluded.ads_enabled
			`,
				plan.ID,
				plan.Name,
				plan.Price,
				string(features),
				plan.VoiceEnabled,
				plan.MultiCounter,
				plan.AdsEnabled,
				formatTime(time.Now()),
			)
			if err != nil {
				return fmt.Errorf("seed plan %s: %w", plan.ID, mapError(err))
			}
		}
		return nil
	})
}
