package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/markflow/markflow/internal/workflow/model"
)

// RegistryService owns the block definition registry: the fixed built-in set
// plus user-created custom definitions.
type RegistryService struct {
	db *gorm.DB
}

func NewRegistryService(db *gorm.DB) *RegistryService {
	return &RegistryService{db: db}
}

// RegisterCustomBlock creates a custom block definition. Built-ins are never
// overwritten; custom definitions get a "custom-" prefixed reference ID.
func (s *RegistryService) RegisterCustomBlock(ctx context.Context, req *model.RegisterBlockDTO) (*model.BlockDefinition, error) {
	if req == nil || req.Name == "" {
		return nil, &model.ValidationError{Field: "name", Reason: "block name must not be empty"}
	}

	def := &model.BlockDefinition{
		DefID:       "custom-" + uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
		BuiltIn:     false,
	}
	if err := s.db.WithContext(ctx).Create(def).Error; err != nil {
		return nil, fmt.Errorf("failed to create block definition: %w", err)
	}
	return def, nil
}

// ListBlocks returns the built-in definitions first, in declared order,
// followed by custom definitions in creation order.
func (s *RegistryService) ListBlocks(ctx context.Context) ([]model.BlockDefinition, error) {
	blocks := model.BuiltinBlocks()

	var custom []model.BlockDefinition
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&custom).Error; err != nil {
		return nil, fmt.Errorf("failed to list custom blocks: %w", err)
	}
	return append(blocks, custom...), nil
}

// ResolveDefaultLabel returns the canonical display name for a built-in type
// or a custom block reference ID. Unknown references fall back to the
// generic placeholder the editor shows before a block is named.
func (s *RegistryService) ResolveDefaultLabel(ctx context.Context, ref string) string {
	for _, b := range model.BuiltinBlocks() {
		if b.DefID == ref {
			return b.Name
		}
	}

	var def model.BlockDefinition
	if err := s.db.WithContext(ctx).First(&def, "def_id = ?", ref).Error; err == nil {
		return def.Name
	}
	return model.DefaultStepLabel
}
