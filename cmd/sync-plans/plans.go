package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/Mattie1391/sportify-backend/internal/domain/model"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type plansFile struct {
	Plans []planEntry `yaml:"plans"`
}

type planEntry struct {
	Name          string `yaml:"name"`
	Intro         string `yaml:"intro"`
	Pricing       string `yaml:"pricing"`
	MaxResolution int    `yaml:"max_resolution"`
	Livestream    bool   `yaml:"livestream"`
	SportsChoice  int    `yaml:"sports_choice"`
	SortOrder     int    `yaml:"sort_order"`
	IsActive      *bool  `yaml:"is_active"`
}

func loadPlansFromYAML(path string) ([]*model.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plans file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var file plansFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal plans yaml: %w", err)
	}

	plans := make([]*model.Plan, 0, len(file.Plans))
	for i, entry := range file.Plans {
		if entry.Name == "" {
			return nil, fmt.Errorf("plans[%d]: name is required", i)
		}

		pricing, err := decimal.NewFromString(entry.Pricing)
		if err != nil {
			return nil, fmt.Errorf("plans[%d]: invalid pricing %q: %w", i, entry.Pricing, err)
		}

		maxResolution := entry.MaxResolution
		if maxResolution == 0 {
			maxResolution = 720
		}

		isActive := true
		if entry.IsActive != nil {
			isActive = *entry.IsActive
		}

		plans = append(plans, &model.Plan{
			Name:          entry.Name,
			Intro:         entry.Intro,
			Pricing:       pricing,
			MaxResolution: maxResolution,
			Livestream:    entry.Livestream,
			SportsChoice:  entry.SportsChoice,
			SortOrder:     entry.SortOrder,
			IsActive:      isActive,
		})
	}

	return plans, nil
}
