package workflow_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/ledger"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"bitbucket.org/mmdatafocus/distribution_backend/workflow"
	"github.com/shopspring/decimal"
)

// End-to-end against real MySQL + Redis: a sale and a receipt posted through
// the workflow must leave the cached balance equal to the recomputed one, and
// the statement must carry the documented running balances.
func TestLedgerWorkflow_PostAndStatement(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "distribution_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	group, err := models.CreateAreaGroup(ctx, &models.NewAreaGroup{Name: "West"})
	if err != nil {
		t.Fatalf("CreateAreaGroup: %v", err)
	}
	area, err := models.CreateArea(ctx, &models.NewArea{Name: "Hlaing", GroupId: group.ID})
	if err != nil {
		t.Fatalf("CreateArea: %v", err)
	}
	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{
		Name:           "U Ba",
		AreaId:         area.ID,
		OpeningBalance: decimal.NewFromInt(5000),
	})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	d1 := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)

	discount := decimal.NewFromInt(10)
	sale, err := workflow.CreateSale(ctx, &models.NewSale{
		Date:            d1,
		CustomerId:      customer.ID,
		GrossAmount:     decimal.NewFromInt(1000),
		DiscountPercent: &discount,
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if sale.SaleNo != 1 {
		t.Fatalf("SaleNo = %d; want 1", sale.SaleNo)
	}

	receipt, err := workflow.CreateCashReceipt(ctx, &models.NewCashReceipt{
		Date:       d2,
		CustomerId: customer.ID,
		Amount:     decimal.NewFromInt(2000),
	})
	if err != nil {
		t.Fatalf("CreateCashReceipt: %v", err)
	}
	if receipt.InvoiceNo != 1 {
		t.Fatalf("InvoiceNo = %d; want 1", receipt.InvoiceNo)
	}

	fresh, err := models.GetCustomer(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if want := decimal.NewFromInt(3900); fresh.Balance.Cmp(want) != 0 {
		t.Fatalf("cached balance = %s; want %s", fresh.Balance, want)
	}

	stmt, err := workflow.CustomerStatement(ctx, customer.ID, d1, d2)
	if err != nil {
		t.Fatalf("CustomerStatement: %v", err)
	}
	if stmt.Opening.Cmp(decimal.NewFromInt(5000)) != 0 {
		t.Fatalf("opening = %s; want 5000", stmt.Opening)
	}
	if len(stmt.Entries) != 3 {
		t.Fatalf("entries = %d; want 3", len(stmt.Entries))
	}
	if stmt.Entries[1].Balance.Cmp(decimal.NewFromInt(5900)) != 0 {
		t.Fatalf("sale running balance = %s; want 5900", stmt.Entries[1].Balance)
	}
	if stmt.Entries[2].Balance.Cmp(decimal.NewFromInt(3900)) != 0 {
		t.Fatalf("receipt running balance = %s; want 3900", stmt.Entries[2].Balance)
	}
	if stmt.Customer.Area != "Hlaing" || stmt.Customer.Group != "West" {
		t.Fatalf("statement header = %+v", stmt.Customer)
	}

	// Reassigning the sale to another customer must resync both sides.
	other, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Daw Mya"})
	if err != nil {
		t.Fatalf("CreateCustomer(other): %v", err)
	}
	if _, err := workflow.UpdateSale(ctx, sale.ID, &models.NewSale{
		Date:            d1,
		CustomerId:      other.ID,
		GrossAmount:     decimal.NewFromInt(1000),
		DiscountPercent: &discount,
	}); err != nil {
		t.Fatalf("UpdateSale: %v", err)
	}
	fresh, err = models.GetCustomer(ctx, customer.ID)
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if want := decimal.NewFromInt(3000); fresh.Balance.Cmp(want) != 0 {
		t.Fatalf("old customer balance = %s; want %s", fresh.Balance, want)
	}
	freshOther, err := models.GetCustomer(ctx, other.ID)
	if err != nil {
		t.Fatalf("GetCustomer(other): %v", err)
	}
	if want := decimal.NewFromInt(900); freshOther.Balance.Cmp(want) != 0 {
		t.Fatalf("new customer balance = %s; want %s", freshOther.Balance, want)
	}

	// Bulk import: invoice numbers continue from the existing sequence and
	// the batch resyncs every touched customer.
	batchId, imported, err := workflow.ImportCashReceipts(ctx, []ledger.ReceiptImportEntry{
		{CustomerID: customer.ID, Amount: decimal.NewFromInt(500), Date: d2},
		{CustomerID: other.ID, Amount: decimal.NewFromInt(100), Date: d2},
	})
	if err != nil {
		t.Fatalf("ImportCashReceipts: %v", err)
	}
	if len(imported) != 2 || imported[0].InvoiceNo != 2 || imported[1].InvoiceNo != 3 {
		t.Fatalf("imported = %+v; want invoice no 2, 3", imported)
	}
	persisted, err := models.ListCashReceiptsByBatch(ctx, batchId)
	if err != nil {
		t.Fatalf("ListCashReceiptsByBatch: %v", err)
	}
	if len(persisted) != 2 {
		t.Fatalf("persisted batch rows = %d; want 2", len(persisted))
	}

	fresh, _ = models.GetCustomer(ctx, customer.ID)
	if want := decimal.NewFromInt(2500); fresh.Balance.Cmp(want) != 0 {
		t.Fatalf("balance after import = %s; want %s", fresh.Balance, want)
	}

	// Rebuild is a no-op on consistent data.
	count, err := workflow.RebuildAllBalances(ctx)
	if err != nil {
		t.Fatalf("RebuildAllBalances: %v", err)
	}
	if count != 2 {
		t.Fatalf("rebuilt %d customer(s); want 2", count)
	}
	fresh, _ = models.GetCustomer(ctx, customer.ID)
	if want := decimal.NewFromInt(2500); fresh.Balance.Cmp(want) != 0 {
		t.Fatalf("balance after rebuild = %s; want %s", fresh.Balance, want)
	}

	// Editing the opening balance must land together with the resynced cache:
	// the row returned by UpdateCustomer already carries the shifted balance.
	edited, err := workflow.UpdateCustomer(ctx, customer.ID, &models.NewCustomer{
		Name:           "U Ba",
		AreaId:         area.ID,
		OpeningBalance: decimal.NewFromInt(6000),
	})
	if err != nil {
		t.Fatalf("UpdateCustomer: %v", err)
	}
	if edited.OpeningBalance.Cmp(decimal.NewFromInt(6000)) != 0 {
		t.Fatalf("opening balance = %s; want 6000", edited.OpeningBalance)
	}
	if want := decimal.NewFromInt(3500); edited.Balance.Cmp(want) != 0 {
		t.Fatalf("balance after opening edit = %s; want %s", edited.Balance, want)
	}

	// January 2025 holds every posting: one 1000 sale at 10%, receipts
	// 2000 + 500 + 100.
	months, err := workflow.MonthlySummary(ctx, d1.AddDate(0, -1, 0), d2.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("MonthlySummary: %v", err)
	}
	if len(months) != 1 {
		t.Fatalf("months = %d; want 1", len(months))
	}
	if months[0].Year != 2025 || months[0].Month != time.January {
		t.Fatalf("bucket = %d-%s; want 2025-January", months[0].Year, months[0].Month)
	}
	if want := decimal.NewFromInt(900); months[0].TotalSales.Cmp(want) != 0 {
		t.Fatalf("January sales = %s; want %s", months[0].TotalSales, want)
	}
	if want := decimal.NewFromInt(2600); months[0].TotalReceipt.Cmp(want) != 0 {
		t.Fatalf("January receipts = %s; want %s", months[0].TotalReceipt, want)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("distribution-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("distribution-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=distribution_test",
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
	// wait until ready
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
