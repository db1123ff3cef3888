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

type Ministerio struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Nombre    string    `gorm:"size:255;not null;unique" json:"nombre" binding:"required"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewMinisterio struct {
	Nombre string `json:"nombre" binding:"required"`
}

func CreateMinisterio(ctx context.Context, input *NewMinisterio) (*Ministerio, error) {
	nombre := strings.TrimSpace(input.Nombre)
	if nombre == "" {
		return nil, utils.NewValidationError("nombre is required")
	}

	ministerio := Ministerio{
		Nombre:   nombre,
		IsActive: utils.NewTrue(),
	}

	db := config.GetDB()
	// db action
	err := db.WithContext(ctx).Create(&ministerio).Error
	if err != nil {
		return nil, err
	}
	return &ministerio, nil
}

func GetMinisterio(ctx context.Context, id int) (*Ministerio, error) {
	result, err := utils.FetchSingleModel[Ministerio](ctx, id)
	if err != nil {
		return nil, utils.NewNotFoundError("ministerio %d not found", id)
	}
	return result, nil
}

func GetMinisterios(ctx context.Context) ([]*Ministerio, error) {
	var results []*Ministerio
	db := config.GetDB()
	err := db.WithContext(ctx).Order("nombre").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func GetMinisterioByNombre(ctx context.Context, nombre string) (*Ministerio, error) {
	var result Ministerio
	db := config.GetDB()
	err := db.WithContext(ctx).Where("nombre = ?", strings.TrimSpace(nombre)).Take(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("ministerio %q not found", nombre)
		}
		return nil, err
	}
	return &result, nil
}

// GetOrCreateMinisterio is used by the workbook importer, which treats each
// sheet name as a ministry name.
func GetOrCreateMinisterio(ctx context.Context, nombre string) (*Ministerio, error) {
	existing, err := GetMinisterioByNombre(ctx, nombre)
	if err == nil {
		return existing, nil
	}
	var notFound *utils.NotFoundError
	if !errors.As(err, &notFound) {
		return nil, err
	}
	return CreateMinisterio(ctx, &NewMinisterio{Nombre: nombre})
}
