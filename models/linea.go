package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/gobdata/seguimiento_backend/config"
	"bitbucket.org/gobdata/seguimiento_backend/utils"
	"gorm.io/gorm"
)

// Linea is a policy commitment owned by a ministry, grouping indicators.
type Linea struct {
	ID           int       `gorm:"primary_key" json:"id"`
	MinisterioId int       `gorm:"index;not null" json:"ministerio_id" binding:"required"`
	Titulo       string    `gorm:"size:500;not null" json:"titulo" binding:"required"`
	IsActive     *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewLinea struct {
	MinisterioId int    `json:"ministerio_id" binding:"required"`
	Titulo       string `json:"titulo" binding:"required"`
}

func CreateLinea(ctx context.Context, input *NewLinea) (*Linea, error) {
	titulo := strings.TrimSpace(input.Titulo)
	if titulo == "" {
		return nil, utils.NewValidationError("titulo is required")
	}
	if _, err := GetMinisterio(ctx, input.MinisterioId); err != nil {
		return nil, err
	}

	linea := Linea{
		MinisterioId: input.MinisterioId,
		Titulo:       titulo,
		IsActive:     utils.NewTrue(),
	}

	db := config.GetDB()
	// db action
	err := db.WithContext(ctx).Create(&linea).Error
	if err != nil {
		return nil, err
	}
	return &linea, nil
}

func GetLinea(ctx context.Context, id int) (*Linea, error) {
	result, err := utils.FetchSingleModel[Linea](ctx, id)
	if err != nil {
		return nil, utils.NewNotFoundError("linea %d not found", id)
	}
	return result, nil
}

func GetLineas(ctx context.Context, ministerioId *int) ([]*Linea, error) {
	var results []*Linea
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if ministerioId != nil && *ministerioId > 0 {
		dbCtx = dbCtx.Where("ministerio_id = ?", *ministerioId)
	}
	err := dbCtx.Order("id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetOrCreateLinea matches by (ministerio, titulo); used by the importer.
func GetOrCreateLinea(ctx context.Context, ministerioId int, titulo string) (*Linea, error) {
	titulo = strings.TrimSpace(titulo)
	var existing Linea
	db := config.GetDB()
	err := db.WithContext(ctx).
		Where("ministerio_id = ? AND titulo = ?", ministerioId, titulo).
		Take(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return CreateLinea(ctx, &NewLinea{MinisterioId: ministerioId, Titulo: titulo})
}
