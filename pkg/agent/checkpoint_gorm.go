package agent

import (
	"chef-agent-api/entities"
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCheckpointer stores state in the application database.
type GormCheckpointer struct {
	db        *gorm.DB
	namespace string
}

// NewGormCheckpointer prepares the checkpoint table. A migration failure is
// logged and ignored so an existing table keeps working.
func NewGormCheckpointer(db *gorm.DB, namespace string) *GormCheckpointer {
	if err := db.AutoMigrate(&entities.AgentCheckpoint{}); err != nil {
		log.Warnf("checkpoint setup failed, assuming table exists: %v", err)
	}
	return &GormCheckpointer{db: db, namespace: namespace}
}

func (g *GormCheckpointer) Load(ctx context.Context, threadID string) (*State, error) {
	var row entities.AgentCheckpoint
	err := g.db.WithContext(ctx).
		Where("namespace = ? AND thread_id = ?", g.namespace, threadID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCheckpointNotFound
	}
	if err != nil {
		return nil, err
	}

	var state State
	if err := json.Unmarshal(row.State, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (g *GormCheckpointer) Save(ctx context.Context, threadID string, state *State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	row := entities.AgentCheckpoint{
		ThreadID:  threadID,
		Namespace: g.namespace,
		State:     raw,
	}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "thread_id"}, {Name: "namespace"}},
		DoUpdates: clause.AssignmentColumns([]string{"state", "updated_at"}),
	}).Create(&row).Error
}

func (g *GormCheckpointer) Delete(ctx context.Context, threadID string) error {
	return g.db.WithContext(ctx).
		Where("namespace = ? AND thread_id = ?", g.namespace, threadID).
		Delete(&entities.AgentCheckpoint{}).Error
}

func (g *GormCheckpointer) Close() error {
	return nil
}
