package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/gobdata/seguimiento_backend/config"
	"bitbucket.org/gobdata/seguimiento_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Carga is one period's reported value for an indicator, moving through the
// review workflow: Draft/Pending -> Validated | Observed | Rejected.
type Carga struct {
	ID                  int              `gorm:"primary_key" json:"id"`
	IndicadorId         int              `gorm:"not null;uniqueIndex:idx_carga_abierta,priority:1" json:"indicador_id"`
	LineaId             int              `gorm:"index;not null" json:"linea_id"`
	MinisterioId        int              `gorm:"not null;uniqueIndex:idx_carga_abierta,priority:3" json:"ministerio_id"`
	Periodicidad        Periodicity      `gorm:"size:20;not null" json:"periodicidad"`
	Periodo             string           `gorm:"size:20;not null;uniqueIndex:idx_carga_abierta,priority:2" json:"periodo"`
	Mes                 string           `gorm:"size:20" json:"mes"`
	Valor               decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"valor"`
	Unidad              string           `gorm:"size:50" json:"unidad"`
	Meta                *decimal.Decimal `gorm:"type:decimal(20,4)" json:"meta"`
	Fuente              string           `gorm:"size:500" json:"fuente"`
	Responsable         string           `gorm:"size:255" json:"responsable"`
	EmailResponsable    string           `gorm:"size:100" json:"email_responsable"`
	TelefonoResponsable string           `gorm:"size:20" json:"telefono_responsable"`
	Observaciones       string           `gorm:"type:text" json:"observaciones"`
	Estado              CargaStatus      `gorm:"size:20;not null;index" json:"estado"`
	// Abierta is true while the carga is non-terminal and NULL afterwards, so
	// the unique index only constrains open cargas (MySQL ignores NULLs in
	// unique indexes). Concurrent creates for the same triple race on the
	// index: exactly one wins, the loser gets a precondition error.
	Abierta        *bool     `gorm:"uniqueIndex:idx_carga_abierta,priority:4" json:"-"`
	Publicado      *bool     `gorm:"not null;default:false" json:"publicado"`
	CreadoPor      int       `json:"creado_por"`
	ActualizadoPor int       `json:"actualizado_por"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCarga struct {
	IndicadorId         int              `json:"indicador_id" binding:"required"`
	Periodo             string           `json:"periodo" binding:"required"`
	Mes                 string           `json:"mes"`
	Valor               decimal.Decimal  `json:"valor"`
	Unidad              string           `json:"unidad"`
	Meta                *decimal.Decimal `json:"meta"`
	Fuente              string           `json:"fuente"`
	Responsable         string           `json:"responsable"`
	EmailResponsable    string           `json:"email_responsable"`
	TelefonoResponsable string           `json:"telefono_responsable"`
	Observaciones       string           `json:"observaciones"`
	// Enviar=true creates the carga directly in Pending (web form path);
	// otherwise it starts as Draft.
	Enviar *bool `json:"enviar"`
}

type RevisionCarga struct {
	Resultado     CargaStatus `json:"resultado" binding:"required"`
	Observaciones string      `json:"observaciones"`
}

type CargaStats struct {
	Draft     int64 `json:"draft"`
	Pending   int64 `json:"pending"`
	Validated int64 `json:"validated"`
	Observed  int64 `json:"observed"`
	Rejected  int64 `json:"rejected"`
}

const cargaStatsRedisKey = "CargaStats"

type actor struct {
	UserId       int
	Role         UserRole
	MinisterioId int
}

func (a actor) IsReviewer() bool {
	return a.Role.IsReviewer()
}

func actorFromContext(ctx context.Context) (actor, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return actor{}, utils.NewPreconditionError("authenticated user is required")
	}
	role, _ := utils.GetRoleFromContext(ctx)
	ministerioId, _ := utils.GetMinisterioIdFromContext(ctx)
	return actor{UserId: userId, Role: UserRole(role), MinisterioId: ministerioId}, nil
}

// checkMinistryAccess: reviewers act on any ministry, ministry users only on
// their own.
func checkMinistryAccess(a actor, ministerioId int) error {
	if a.IsReviewer() {
		return nil
	}
	if a.MinisterioId != ministerioId {
		return utils.NewPreconditionError("actor is not authorized for ministerio %d", ministerioId)
	}
	return nil
}

// checkEditAllowed: Draft is editable by its creator (or a reviewer);
// Pending only by a reviewer; terminal states are frozen.
func checkEditAllowed(estado CargaStatus, a actor, creadoPor int) error {
	switch estado {
	case CargaStatusDraft:
		if a.UserId != creadoPor && !a.IsReviewer() {
			return utils.NewPreconditionError("only the creator or a reviewer may edit a draft carga")
		}
		return nil
	case CargaStatusPending:
		if !a.IsReviewer() {
			return utils.NewPreconditionError("carga in state %q may only be edited by a reviewer", estado)
		}
		return nil
	}
	return utils.NewPreconditionError("carga in state %q cannot be edited", estado)
}

// checkRevisionInput: outcome must be terminal, and observations are
// mandatory unless the outcome is Validated.
func checkRevisionInput(resultado CargaStatus, observaciones string) error {
	switch resultado {
	case CargaStatusValidated:
		return nil
	case CargaStatusObserved, CargaStatusRejected:
		if strings.TrimSpace(observaciones) == "" {
			return utils.NewValidationError("observaciones are required when the outcome is %q", resultado)
		}
		return nil
	}
	return utils.NewValidationError("resultado %q is not a review outcome", resultado)
}

func CreateCarga(ctx context.Context, input *NewCarga) (*Carga, error) {
	a, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	indicador, err := GetIndicador(ctx, input.IndicadorId)
	if err != nil {
		return nil, err
	}
	if indicador.IsActive == nil || !*indicador.IsActive {
		return nil, utils.NewNotFoundError("indicador %d is inactive", indicador.ID)
	}

	if err := checkMinistryAccess(a, indicador.MinisterioId); err != nil {
		return nil, err
	}

	periodo := strings.TrimSpace(input.Periodo)
	if err := ValidatePeriod(periodo, indicador.Periodicidad); err != nil {
		return nil, err
	}
	if input.EmailResponsable != "" && !utils.IsValidEmail(input.EmailResponsable) {
		return nil, utils.NewValidationError("email_responsable %q is not valid", input.EmailResponsable)
	}

	estado := CargaStatusDraft
	if input.Enviar != nil && *input.Enviar {
		estado = CargaStatusPending
	}

	db := config.GetDB()

	// Friendly duplicate check; the unique index settles concurrent races.
	var open int64
	err = db.WithContext(ctx).Model(&Carga{}).
		Where("indicador_id = ? AND periodo = ? AND ministerio_id = ? AND abierta = ?",
			indicador.ID, periodo, indicador.MinisterioId, true).
		Count(&open).Error
	if err != nil {
		return nil, err
	}
	if open > 0 {
		return nil, utils.NewPreconditionError(
			"an open carga already exists for indicador %d, periodo %s", indicador.ID, periodo)
	}

	carga := Carga{
		IndicadorId:         indicador.ID,
		LineaId:             indicador.LineaId,
		MinisterioId:        indicador.MinisterioId,
		Periodicidad:        indicador.Periodicidad,
		Periodo:             periodo,
		Mes:                 strings.TrimSpace(input.Mes),
		Valor:               input.Valor,
		Unidad:              firstNonEmpty(input.Unidad, indicador.Unidad),
		Meta:                input.Meta,
		Fuente:              input.Fuente,
		Responsable:         input.Responsable,
		EmailResponsable:    input.EmailResponsable,
		TelefonoResponsable: input.TelefonoResponsable,
		Observaciones:       input.Observaciones,
		Estado:              estado,
		Abierta:             utils.NewTrue(),
		Publicado:           utils.NewFalse(),
		CreadoPor:           a.UserId,
		ActualizadoPor:      a.UserId,
	}

	// db action
	err = db.WithContext(ctx).Create(&carga).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate entry") {
			return nil, utils.NewPreconditionError(
				"an open carga already exists for indicador %d, periodo %s", indicador.ID, periodo)
		}
		return nil, err
	}

	_ = config.RemoveRedisKey(cargaStatsRedisKey)
	return &carga, nil
}

func UpdateCarga(ctx context.Context, id int, input *NewCarga) (*Carga, error) {
	a, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	carga, err := GetCarga(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkMinistryAccess(a, carga.MinisterioId); err != nil {
		return nil, err
	}
	if err := checkEditAllowed(carga.Estado, a, carga.CreadoPor); err != nil {
		return nil, err
	}
	if input.IndicadorId != 0 && input.IndicadorId != carga.IndicadorId {
		return nil, utils.NewValidationError("indicador cannot be changed; create a new carga instead")
	}

	periodo := strings.TrimSpace(input.Periodo)
	if periodo != "" && periodo != carga.Periodo {
		// Periodicidad was copied from the indicator at creation and never
		// changes, so the new period validates against the same cadence.
		if err := ValidatePeriod(periodo, carga.Periodicidad); err != nil {
			return nil, err
		}
	} else {
		periodo = carga.Periodo
	}
	if input.EmailResponsable != "" && !utils.IsValidEmail(input.EmailResponsable) {
		return nil, utils.NewValidationError("email_responsable %q is not valid", input.EmailResponsable)
	}

	db := config.GetDB()
	// db action
	err = db.WithContext(ctx).Model(carga).Updates(map[string]interface{}{
		"Periodo":             periodo,
		"Mes":                 strings.TrimSpace(input.Mes),
		"Valor":               input.Valor,
		"Unidad":              input.Unidad,
		"Meta":                input.Meta,
		"Fuente":              input.Fuente,
		"Responsable":         input.Responsable,
		"EmailResponsable":    input.EmailResponsable,
		"TelefonoResponsable": input.TelefonoResponsable,
		"Observaciones":       input.Observaciones,
		"ActualizadoPor":      a.UserId,
	}).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "Duplicate entry") {
			return nil, utils.NewPreconditionError(
				"an open carga already exists for indicador %d, periodo %s", carga.IndicadorId, periodo)
		}
		return nil, err
	}
	return carga, nil
}

// EnviarCarga submits a draft for review (Draft -> Pending).
func EnviarCarga(ctx context.Context, id int) (*Carga, error) {
	a, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	carga, err := GetCarga(ctx, id)
	if err != nil {
		return nil, err
	}
	if carga.Estado != CargaStatusDraft {
		return nil, utils.NewPreconditionError("carga in state %q cannot be submitted; Draft required", carga.Estado)
	}
	if a.UserId != carga.CreadoPor && !a.IsReviewer() {
		return nil, utils.NewPreconditionError("only the creator or a reviewer may submit a carga")
	}

	db := config.GetDB()
	// db action
	err = db.WithContext(ctx).Model(carga).Updates(map[string]interface{}{
		"Estado":         CargaStatusPending,
		"ActualizadoPor": a.UserId,
	}).Error
	if err != nil {
		return nil, err
	}
	carga.Estado = CargaStatusPending

	_ = config.RemoveRedisKey(cargaStatsRedisKey)
	return carga, nil
}

// RevisarCarga settles a pending carga (Pending -> Validated|Observed|Rejected).
// A Validated outcome marks the carga published and triggers the spreadsheet
// projection; the trigger is best-effort and its failure never rolls back the
// state transition.
func RevisarCarga(ctx context.Context, id int, input *RevisionCarga) (*Carga, error) {
	a, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !a.IsReviewer() {
		return nil, utils.NewPreconditionError("only a reviewer may review cargas")
	}

	if err := checkRevisionInput(input.Resultado, input.Observaciones); err != nil {
		return nil, err
	}

	carga, err := GetCarga(ctx, id)
	if err != nil {
		return nil, err
	}
	if carga.Estado != CargaStatusPending {
		return nil, utils.NewPreconditionError("carga in state %q cannot be reviewed; Pending required", carga.Estado)
	}

	updates := map[string]interface{}{
		"Estado":         input.Resultado,
		"Abierta":        gorm.Expr("NULL"),
		"ActualizadoPor": a.UserId,
	}
	if strings.TrimSpace(input.Observaciones) != "" {
		updates["Observaciones"] = input.Observaciones
	}
	if input.Resultado == CargaStatusValidated {
		updates["Publicado"] = true
	}

	db := config.GetDB()
	// db action
	err = db.WithContext(ctx).Model(carga).Updates(updates).Error
	if err != nil {
		return nil, err
	}
	carga.Estado = input.Resultado
	carga.Abierta = nil
	if input.Resultado == CargaStatusValidated {
		carga.Publicado = utils.NewTrue()
	}

	_ = config.RemoveRedisKey(cargaStatsRedisKey)

	if input.Resultado == CargaStatusValidated && config.SheetSyncEnabled() {
		correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
		if _, err := config.PublishCargaSync(ctx, config.CargaSyncMessage{
			CargaId:       carga.ID,
			CorrelationId: correlationId,
		}); err != nil {
			config.LogError(config.GetLogger(), "carga.go", "RevisarCarga", "PublishCargaSync", carga.ID, err)
		}
	}

	return carga, nil
}

func DeleteCarga(ctx context.Context, id int) (*Carga, error) {
	a, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	carga, err := GetCarga(ctx, id)
	if err != nil {
		return nil, err
	}
	if carga.Estado != CargaStatusDraft && carga.Estado != CargaStatusPending {
		return nil, utils.NewPreconditionError("carga in state %q cannot be deleted", carga.Estado)
	}
	if a.UserId != carga.CreadoPor && !a.IsReviewer() {
		return nil, utils.NewPreconditionError("only the creator or a reviewer may delete a carga")
	}
	if err := checkMinistryAccess(a, carga.MinisterioId); err != nil {
		return nil, err
	}

	db := config.GetDB()
	// db action
	err = db.WithContext(ctx).Delete(carga).Error
	if err != nil {
		return nil, err
	}

	_ = config.RemoveRedisKey(cargaStatsRedisKey)
	return carga, nil
}

func GetCarga(ctx context.Context, id int) (*Carga, error) {
	result, err := utils.FetchSingleModel[Carga](ctx, id)
	if err != nil {
		return nil, utils.NewNotFoundError("carga %d not found", id)
	}
	return result, nil
}

type CargaFilter struct {
	Estado       *CargaStatus
	MinisterioId *int
	IndicadorId  *int
}

func GetCargas(ctx context.Context, filter CargaFilter) ([]*Carga, error) {
	var results []*Carga
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if filter.Estado != nil {
		dbCtx = dbCtx.Where("estado = ?", *filter.Estado)
	}
	if filter.MinisterioId != nil && *filter.MinisterioId > 0 {
		dbCtx = dbCtx.Where("ministerio_id = ?", *filter.MinisterioId)
	}
	if filter.IndicadorId != nil && *filter.IndicadorId > 0 {
		dbCtx = dbCtx.Where("indicador_id = ?", *filter.IndicadorId)
	}
	err := dbCtx.Order("id DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

/*
caches:
	CargaStats (60s)
*/

func CountCargasByEstado(ctx context.Context) (*CargaStats, error) {
	var stats CargaStats
	if ok, _ := config.GetRedisObject(cargaStatsRedisKey, &stats); ok {
		return &stats, nil
	}

	type row struct {
		Estado CargaStatus
		Total  int64
	}
	var rows []row
	db := config.GetDB()
	err := db.WithContext(ctx).Model(&Carga{}).
		Select("estado, COUNT(*) AS total").
		Group("estado").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		switch r.Estado {
		case CargaStatusDraft:
			stats.Draft = r.Total
		case CargaStatusPending:
			stats.Pending = r.Total
		case CargaStatusValidated:
			stats.Validated = r.Total
		case CargaStatusObserved:
			stats.Observed = r.Total
		case CargaStatusRejected:
			stats.Rejected = r.Total
		}
	}

	_ = config.SetRedisObject(cargaStatsRedisKey, &stats, 60*time.Second)
	return &stats, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
