package database

import (
	"context"
	"fmt"
	"os"

	"github.com/kgkhs001/BrighamWomensApp/internal/model"
	"github.com/kgkhs001/BrighamWomensApp/internal/repository"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Seed 位置目录和库存的初始数据
type Seed struct {
	Locations []*model.LocationModel      `yaml:"locations"`
	Inventory []*model.InventoryItemModel `yaml:"inventory"`
}

// LoadSeed 从 YAML 文件读取初始数据
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for _, loc := range seed.Locations {
		if loc.NodeID == "" || loc.LongName == "" {
			return nil, fmt.Errorf("seed location requires node_id and long_name: %+v", *loc)
		}
	}
	for _, item := range seed.Inventory {
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("invalid seed inventory item %q: %w", item.Name, err)
		}
	}
	return &seed, nil
}

// Apply 在同一事务中写入初始数据，已存在的记录会被覆盖
func (s *Seed) Apply(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewLocationRepository(tx).Upsert(ctx, s.Locations); err != nil {
			return fmt.Errorf("failed to seed locations: %w", err)
		}
		if err := repository.NewInventoryRepository(tx).Upsert(ctx, s.Inventory); err != nil {
			return fmt.Errorf("failed to seed inventory: %w", err)
		}
		return nil
	})
}
