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

// Indicador is a measurable metric with a reporting cadence, owned by a linea.
type Indicador struct {
	ID           int         `gorm:"primary_key" json:"id"`
	LineaId      int         `gorm:"index;not null" json:"linea_id" binding:"required"`
	MinisterioId int         `gorm:"index;not null" json:"ministerio_id"`
	Nombre       string      `gorm:"size:500;not null" json:"nombre" binding:"required"`
	Periodicidad Periodicity `gorm:"size:20;not null" json:"periodicidad" binding:"required"`
	Unidad       string      `gorm:"size:50" json:"unidad"`
	IsActive     *bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewIndicador struct {
	LineaId      int         `json:"linea_id" binding:"required"`
	Nombre       string      `json:"nombre" binding:"required"`
	Periodicidad Periodicity `json:"periodicidad" binding:"required"`
	Unidad       string      `json:"unidad"`
}

func CreateIndicador(ctx context.Context, input *NewIndicador) (*Indicador, error) {
	nombre := strings.TrimSpace(input.Nombre)
	if nombre == "" {
		return nil, utils.NewValidationError("nombre is required")
	}
	if !input.Periodicidad.Valid() {
		return nil, utils.NewValidationError("periodicidad %q is not valid", input.Periodicidad)
	}
	linea, err := GetLinea(ctx, input.LineaId)
	if err != nil {
		return nil, err
	}

	indicador := Indicador{
		LineaId:      linea.ID,
		MinisterioId: linea.MinisterioId,
		Nombre:       nombre,
		Periodicidad: input.Periodicidad,
		Unidad:       strings.TrimSpace(input.Unidad),
		IsActive:     utils.NewTrue(),
	}

	db := config.GetDB()
	// db action
	err = db.WithContext(ctx).Create(&indicador).Error
	if err != nil {
		return nil, err
	}
	return &indicador, nil
}

func GetIndicador(ctx context.Context, id int) (*Indicador, error) {
	result, err := utils.FetchSingleModel[Indicador](ctx, id)
	if err != nil {
		return nil, utils.NewNotFoundError("indicador %d not found", id)
	}
	return result, nil
}

func GetIndicadores(ctx context.Context, lineaId *int) ([]*Indicador, error) {
	var results []*Indicador
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if lineaId != nil && *lineaId > 0 {
		dbCtx = dbCtx.Where("linea_id = ?", *lineaId)
	}
	err := dbCtx.Order("id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func ToggleActiveIndicador(ctx context.Context, id int, isActive bool) (*Indicador, error) {
	result, err := GetIndicador(ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(result).Updates(map[string]interface{}{
		"IsActive": isActive,
	}).Error
	if err != nil {
		return nil, err
	}
	result.IsActive = &isActive
	return result, nil
}

// GetOrCreateIndicador matches by (linea, nombre); used by the importer.
// Imported indicators default to monthly cadence, the workbook's column layout.
func GetOrCreateIndicador(ctx context.Context, lineaId int, nombre string) (*Indicador, error) {
	nombre = strings.TrimSpace(nombre)
	var existing Indicador
	db := config.GetDB()
	err := db.WithContext(ctx).
		Where("linea_id = ? AND nombre = ?", lineaId, nombre).
		Take(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return CreateIndicador(ctx, &NewIndicador{
		LineaId:      lineaId,
		Nombre:       nombre,
		Periodicidad: PeriodicityMensual,
	})
}
