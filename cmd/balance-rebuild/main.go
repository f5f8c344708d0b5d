package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/distribution_backend/config"
	"bitbucket.org/mmdatafocus/distribution_backend/ledger"
	"bitbucket.org/mmdatafocus/distribution_backend/models"
	"bitbucket.org/mmdatafocus/distribution_backend/workflow"
)

// Recomputes every customer's cached balance from full transaction history.
// Run after data repair or when a cached balance is suspected stale.
func main() {
	dryRun := flag.Bool("dry-run", true, "Report drift only (no writes)")
	confirm := flag.String("confirm", "", "Type REBUILD to proceed when dry-run=false")
	flag.Parse()

	if !*dryRun && strings.TrimSpace(*confirm) != "REBUILD" {
		fmt.Fprintln(os.Stderr, "set --confirm=REBUILD to proceed")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()

	ctx := context.Background()

	if *dryRun {
		drifted, err := reportDrift(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "drift check failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%d customer(s) with stale cached balance\n", drifted)
		return
	}

	count, err := workflow.RebuildAllBalances(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rebuild failed after %d customer(s): %v\n", count, err)
		os.Exit(1)
	}
	fmt.Printf("resynced %d customer(s)\n", count)
}

func reportDrift(ctx context.Context) (int, error) {
	customers, err := models.ListCustomers(ctx)
	if err != nil {
		return 0, err
	}

	engine := ledger.New(models.NewLedgerStore(config.GetDB()))
	drifted := 0
	for _, customer := range customers {
		computed, err := engine.ComputeBalance(ctx, customer.ID, time.Now(), 0)
		if err != nil {
			return drifted, err
		}
		if !computed.Equal(customer.Balance) {
			drifted++
			fmt.Printf("customer %d (%s): cached=%s computed=%s diff=%s\n",
				customer.ID, customer.Name, customer.Balance, computed, computed.Sub(customer.Balance))
		}
	}
	return drifted, nil
}
