package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/gobdata/seguimiento_backend/config"
	"bitbucket.org/gobdata/seguimiento_backend/models"
	"bitbucket.org/gobdata/seguimiento_backend/utils"
	"github.com/shopspring/decimal"
)

func TestCargaReviewWorkflow(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "seguimiento_test")
	// Keep the validated transition from reaching for Pub/Sub in tests.
	t.Setenv("SHEET_SYNC_ENABLED", "false")

	config.ConnectDatabaseWithRetry()
	models.MigrateTable()

	reviewerCtx := utils.SetUserIdInContext(ctx, 1)
	reviewerCtx = utils.SetUserNameInContext(reviewerCtx, "Revisor")
	reviewerCtx = utils.SetRoleInContext(reviewerCtx, string(models.UserRoleAdmin))

	ministerio, err := models.CreateMinisterio(reviewerCtx, &models.NewMinisterio{Nombre: "Ministerio de Salud"})
	if err != nil {
		t.Fatalf("CreateMinisterio: %v", err)
	}
	linea, err := models.CreateLinea(reviewerCtx, &models.NewLinea{
		MinisterioId: ministerio.ID,
		Titulo:       "A) Plan de vacunación provincial",
	})
	if err != nil {
		t.Fatalf("CreateLinea: %v", err)
	}
	indicador, err := models.CreateIndicador(reviewerCtx, &models.NewIndicador{
		LineaId:      linea.ID,
		Nombre:       "Porcentaje de población vacunada",
		Periodicidad: models.PeriodicityMensual,
		Unidad:       "%",
	})
	if err != nil {
		t.Fatalf("CreateIndicador: %v", err)
	}

	ministryCtx := utils.SetUserIdInContext(ctx, 2)
	ministryCtx = utils.SetUserNameInContext(ministryCtx, "Carguista")
	ministryCtx = utils.SetRoleInContext(ministryCtx, string(models.UserRoleMinisterio))
	ministryCtx = utils.SetMinisterioIdInContext(ministryCtx, ministerio.ID)

	// Malformed period for the indicator's periodicity is rejected up front.
	_, err = models.CreateCarga(ministryCtx, &models.NewCarga{
		IndicadorId: indicador.ID,
		Periodo:     "2024Q1",
		Valor:       decimal.NewFromInt(10),
	})
	var validation *utils.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("CreateCarga with quarterly period on monthly indicator: expected ValidationError, got %v", err)
	}

	carga, err := models.CreateCarga(ministryCtx, &models.NewCarga{
		IndicadorId: indicador.ID,
		Periodo:     "2024-03",
		Mes:         "3",
		Valor:       decimal.NewFromFloat(0.39),
	})
	if err != nil {
		t.Fatalf("CreateCarga: %v", err)
	}
	if carga.Estado != models.CargaStatusDraft {
		t.Fatalf("new carga estado = %q, expected Draft", carga.Estado)
	}

	// A second open carga for the same triple conflicts.
	_, err = models.CreateCarga(ministryCtx, &models.NewCarga{
		IndicadorId: indicador.ID,
		Periodo:     "2024-03",
		Valor:       decimal.NewFromInt(1),
	})
	var precondition *utils.PreconditionError
	if !errors.As(err, &precondition) {
		t.Fatalf("duplicate open carga: expected PreconditionError, got %v", err)
	}

	if _, err := models.EnviarCarga(ministryCtx, carga.ID); err != nil {
		t.Fatalf("EnviarCarga: %v", err)
	}

	// Ministry users cannot review.
	_, err = models.RevisarCarga(ministryCtx, carga.ID, &models.RevisionCarga{Resultado: models.CargaStatusValidated})
	if !errors.As(err, &precondition) {
		t.Fatalf("review by ministry user: expected PreconditionError, got %v", err)
	}

	// Observed without observations fails.
	_, err = models.RevisarCarga(reviewerCtx, carga.ID, &models.RevisionCarga{Resultado: models.CargaStatusObserved})
	if !errors.As(err, &validation) {
		t.Fatalf("observed without observations: expected ValidationError, got %v", err)
	}

	reviewed, err := models.RevisarCarga(reviewerCtx, carga.ID, &models.RevisionCarga{Resultado: models.CargaStatusValidated})
	if err != nil {
		t.Fatalf("RevisarCarga validated: %v", err)
	}
	if reviewed.Estado != models.CargaStatusValidated {
		t.Fatalf("estado = %q, expected Validated", reviewed.Estado)
	}
	if reviewed.Publicado == nil || !*reviewed.Publicado {
		t.Fatal("validated carga should be publicado")
	}

	// Terminal cargas are frozen.
	_, err = models.DeleteCarga(reviewerCtx, carga.ID)
	if !errors.As(err, &precondition) {
		t.Fatalf("delete of validated carga: expected PreconditionError, got %v", err)
	}

	// The triple frees up once the prior carga is terminal.
	again, err := models.CreateCarga(ministryCtx, &models.NewCarga{
		IndicadorId: indicador.ID,
		Periodo:     "2024-03",
		Mes:         "3",
		Valor:       decimal.NewFromFloat(0.41),
		Enviar:      utils.NewTrue(),
	})
	if err != nil {
		t.Fatalf("CreateCarga after terminal: %v", err)
	}
	if again.Estado != models.CargaStatusPending {
		t.Fatalf("estado = %q, expected Pending for enviar=true", again.Estado)
	}

	// A failed publish never touches the validated state. Sync is on but no
	// Pub/Sub project is configured, so the publish fails and is absorbed.
	t.Setenv("SHEET_SYNC_ENABLED", "true")
	t.Setenv("PUBSUB_PROJECT_ID", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")
	t.Setenv("GCP_PROJECT", "")
	validated, err := models.RevisarCarga(reviewerCtx, again.ID, &models.RevisionCarga{Resultado: models.CargaStatusValidated})
	if err != nil {
		t.Fatalf("RevisarCarga with failing publish: %v", err)
	}
	if validated.Estado != models.CargaStatusValidated {
		t.Fatalf("estado = %q, expected Validated despite failed publish", validated.Estado)
	}
	t.Setenv("SHEET_SYNC_ENABLED", "false")

	// Retired indicadores stop accepting cargas.
	if _, err := models.ToggleActiveIndicador(reviewerCtx, indicador.ID, false); err != nil {
		t.Fatalf("ToggleActiveIndicador off: %v", err)
	}
	_, err = models.CreateCarga(ministryCtx, &models.NewCarga{
		IndicadorId: indicador.ID,
		Periodo:     "2024-04",
		Valor:       decimal.NewFromInt(5),
	})
	var notFound *utils.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("carga on inactive indicador: expected NotFoundError, got %v", err)
	}
	if _, err := models.ToggleActiveIndicador(reviewerCtx, indicador.ID, true); err != nil {
		t.Fatalf("ToggleActiveIndicador on: %v", err)
	}
	if _, err := models.CreateCarga(ministryCtx, &models.NewCarga{
		IndicadorId: indicador.ID,
		Periodo:     "2024-04",
		Mes:         "4",
		Valor:       decimal.NewFromInt(5),
	}); err != nil {
		t.Fatalf("CreateCarga after reactivation: %v", err)
	}

	// Reviewer provisions a ministry account and the account can log in.
	_, err = models.CreateUser(reviewerCtx, &models.NewUser{
		Username: "carguista.salud",
		Name:     "Carguista Salud",
		Password: "Cambiar.123",
		Role:     models.UserRoleMinisterio,
	})
	if !errors.As(err, &validation) {
		t.Fatalf("ministry user without ministerio_id: expected ValidationError, got %v", err)
	}
	user, err := models.CreateUser(reviewerCtx, &models.NewUser{
		Username:     "carguista.salud",
		Name:         "Carguista Salud",
		Password:     "Cambiar.123",
		Role:         models.UserRoleMinisterio,
		MinisterioId: ministerio.ID,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.MinisterioId != ministerio.ID {
		t.Fatalf("user ministerio_id = %d, expected %d", user.MinisterioId, ministerio.ID)
	}
	info, err := models.Login(ctx, "carguista.salud", "Cambiar.123")
	if err != nil {
		t.Fatalf("Login as provisioned user: %v", err)
	}
	if info.Role != string(models.UserRoleMinisterio) || info.MinisterioId != ministerio.ID {
		t.Fatalf("login info role=%q ministerio=%d, expected ministry user of %d", info.Role, info.MinisterioId, ministerio.ID)
	}
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("seguimiento-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=seguimiento_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
