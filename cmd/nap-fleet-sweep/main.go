package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/locallens/presence_backend/config"
	"github.com/locallens/presence_backend/models"
	"github.com/locallens/presence_backend/napsync"
	"github.com/locallens/presence_backend/utils"
)

// One-shot fleet sweep. Normally the sweep runs through the Pub/Sub push
// endpoint; this binary exists for manual reruns and local operation.
func main() {
	orgID := flag.String("org-id", "", "Optional: sweep a single organization (uuid)")
	locationID := flag.Uint("location-id", 0, "Optional: sync a single location (requires --org-id)")
	timeout := flag.Duration("timeout", 30*time.Minute, "Overall sweep deadline")
	flag.Parse()

	if *locationID != 0 && strings.TrimSpace(*orgID) == "" {
		fmt.Fprintln(os.Stderr, "--location-id requires --org-id")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	ctx, cancel := context.WithTimeout(sigCtx, *timeout)
	defer cancel()

	engine := napsync.NewDefaultEngine()
	logger := config.GetLogger()

	if *locationID != 0 {
		ctx = utils.SetOrgIdInContext(ctx, *orgID)
		result := engine.RunNAPSync(ctx, 0, *locationID, *orgID, models.SyncTriggeredManual)
		logger.Infof("location %d: score=%d grade=%s platforms=%d",
			*locationID, result.HealthScore.Score, result.HealthScore.Grade, len(result.PlatformResults))
		return
	}

	if strings.TrimSpace(*orgID) != "" {
		ctx = utils.SetOrgIdInContext(ctx, *orgID)
		locations, err := models.ListLocationsByOrg(ctx, *orgID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "list locations: %v\n", err)
			os.Exit(1)
		}
		for _, location := range locations {
			if ctx.Err() != nil {
				break
			}
			result := engine.RunNAPSync(ctx, 0, location.ID, location.OrgId, models.SyncTriggeredManual)
			logger.Infof("location %d: score=%d grade=%s",
				location.ID, result.HealthScore.Score, result.HealthScore.Grade)
			time.Sleep(time.Second)
		}
		return
	}

	ctx = utils.SetSkipTenantScopeInContext(ctx)
	processed, failed := engine.RunNAPSyncForAllLocations(ctx)
	logger.Infof("fleet sweep done: processed=%d failed=%d", processed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
