package napsync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/locallens/presence_backend/config"
	"github.com/locallens/presence_backend/models"
	"github.com/locallens/presence_backend/utils"
)

const moduleName = "NAPSync"

const (
	defaultAdapterTimeout = 10 * time.Second
	defaultSweepDelay     = 1 * time.Second
)

// Engine orchestrates one NAP reconciliation run: fan out to every platform
// adapter, diff each response against Ground Truth, score the overall health,
// persist the evidence and optionally push corrections to Google.
type Engine struct {
	store          Store
	adapters       Registry
	corrector      *CorrectionPusher
	reporter       ErrorReporter
	adapterTimeout time.Duration
	sweepDelay     time.Duration
	lock           func(ctx context.Context, locationId uint, moduleName string, functionName string) (func(), error)
}

func NewEngine(store Store, adapters Registry, corrector *CorrectionPusher, reporter ErrorReporter) *Engine {
	return &Engine{
		store:          store,
		adapters:       adapters,
		corrector:      corrector,
		reporter:       reporter,
		adapterTimeout: defaultAdapterTimeout,
		sweepDelay:     defaultSweepDelay,
		lock:           utils.LocationLock,
	}
}

// NewDefaultEngine wires the production engine: GORM store, Google token
// refresher and all four platform adapters on a shared HTTP client.
func NewDefaultEngine() *Engine {
	client := &http.Client{Timeout: 30 * time.Second}
	store := NewStore()
	tokens := NewGoogleTokenService(client)
	return NewEngine(
		store,
		NewRegistry(store, tokens),
		NewCorrectionPusher(client, store, tokens),
		NewLogReporter(),
	)
}

// RunNAPSync executes one full reconciliation for a location and never
// returns an error: every failure mode is recorded on the run row and
// reflected in the returned result. Callers that need queued-run semantics
// pass the pre-created run id; passing 0 creates the run row here.
func (e *Engine) RunNAPSync(ctx context.Context, runId uint, locationId uint, orgId string, triggeredBy string) NAPSyncResult {
	const functionName = "RunNAPSync"
	logger := config.GetLogger()
	startedAt := time.Now().UTC()

	result := NAPSyncResult{
		LocationId: locationId,
		OrgId:      orgId,
		RunAt:      startedAt,
	}

	run, err := e.startRun(ctx, runId, locationId, orgId, triggeredBy, startedAt)
	if err != nil {
		config.LogError(logger, moduleName, functionName, "Could not start sync run", locationId, err)
		return result
	}

	release, err := e.lock(ctx, locationId, moduleName, functionName)
	if err != nil {
		e.failRun(ctx, run, startedAt)
		return result
	}
	defer release()

	gt, err := e.store.GroundTruth(ctx, locationId, orgId)
	if err != nil {
		config.LogError(logger, moduleName, functionName, "Could not load ground truth", locationId, err)
		e.failRun(ctx, run, startedAt)
		return result
	}

	platformIds, err := e.store.PlatformIDs(ctx, locationId, orgId)
	if err != nil {
		config.LogError(logger, moduleName, functionName, "Could not load platform ids", locationId, err)
		e.failRun(ctx, run, startedAt)
		return result
	}

	result.PlatformResults = e.fetchAll(ctx, locationId, orgId, platformIds)

	detectedAt := time.Now().UTC()
	for _, adapterResult := range result.PlatformResults {
		result.Discrepancies = append(result.Discrepancies, BuildDiscrepancy(gt, adapterResult, detectedAt))
	}

	result.HealthScore = CalculateNAPHealthScore(result.PlatformResults, result.Discrepancies, detectedAt)

	errorCount := e.persistRunOutput(ctx, run, result)

	if e.corrector != nil && config.AutoCorrectionEnabled() {
		e.pushCorrections(ctx, run, gt, platformIds, &result)
	}

	if err := e.store.UpdateLocationScore(ctx, locationId, orgId, result.HealthScore.Score, detectedAt); err != nil {
		config.LogError(logger, moduleName, functionName, "Could not update location score", locationId, err)
		errorCount++
	}

	for _, adapterResult := range result.PlatformResults {
		if adapterResult.Status == ResultAPIError {
			errorCount++
		}
	}

	finishedAt := time.Now().UTC()
	run.Status = models.SyncRunStatusSuccess
	if errorCount > 0 {
		run.Status = models.SyncRunStatusPartial
	}
	score := result.HealthScore.Score
	run.Score = &score
	run.Grade = result.HealthScore.Grade
	run.ErrorCount = errorCount
	run.StartedAt = &startedAt
	run.FinishedAt = &finishedAt
	run.DurationMs = finishedAt.Sub(startedAt).Milliseconds()
	if err := e.store.FinishRun(ctx, run); err != nil {
		config.LogError(logger, moduleName, functionName, "Could not finish sync run", run.ID, err)
	}

	logger.WithContext(ctx).Infof("%s - NAP sync finished for location %d: score=%d grade=%s errors=%d",
		moduleName, locationId, result.HealthScore.Score, result.HealthScore.Grade, errorCount)
	return result
}

func (e *Engine) startRun(ctx context.Context, runId uint, locationId uint, orgId string, triggeredBy string, startedAt time.Time) (*models.NAPSyncRun, error) {
	if runId != 0 {
		run := &models.NAPSyncRun{ID: runId, OrgId: orgId, LocationId: locationId, TriggeredBy: triggeredBy}
		run.Status = models.SyncRunStatusRunning
		run.StartedAt = &startedAt
		return run, nil
	}
	run := &models.NAPSyncRun{
		OrgId:       orgId,
		LocationId:  locationId,
		Status:      models.SyncRunStatusRunning,
		TriggeredBy: triggeredBy,
		StartedAt:   &startedAt,
	}
	if err := e.store.CreateRun(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (e *Engine) failRun(ctx context.Context, run *models.NAPSyncRun, startedAt time.Time) {
	finishedAt := time.Now().UTC()
	run.Status = models.SyncRunStatusFailed
	run.StartedAt = &startedAt
	run.FinishedAt = &finishedAt
	run.DurationMs = finishedAt.Sub(startedAt).Milliseconds()
	if err := e.store.FinishRun(ctx, run); err != nil {
		config.LogError(config.GetLogger(), moduleName, "failRun", "Could not mark run failed", run.ID, err)
	}
}

// fetchAll queries every registered adapter concurrently and always settles:
// a slow adapter is cut off by the per-adapter timeout, a panicking adapter
// becomes an api_error result. One broken platform never hides the others.
func (e *Engine) fetchAll(ctx context.Context, locationId uint, orgId string, platformIds map[models.Platform]string) []AdapterResult {
	results := make([]AdapterResult, 0, len(e.adapters))
	resultCh := make(chan AdapterResult, len(e.adapters))

	var wg sync.WaitGroup
	for _, adapter := range e.adapters {
		wg.Add(1)
		go func(a Adapter) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					e.reporter.CaptureMessage(ctx, fmt.Sprintf("adapter %s panicked: %v", a.Platform(), r),
						map[string]string{"platform": string(a.Platform())})
					resultCh <- apiErrorResult(a.Platform(), fmt.Sprintf("adapter panicked: %v", r), nil)
				}
			}()

			fetchCtx, cancel := context.WithTimeout(ctx, e.adapterTimeout)
			defer cancel()
			resultCh <- a.FetchNAP(fetchCtx, FetchContext{
				LocationId: locationId,
				OrgId:      orgId,
				PlatformId: platformIds[a.Platform()],
			})
		}(adapter)
	}
	wg.Wait()
	close(resultCh)

	byPlatform := map[models.Platform]AdapterResult{}
	for r := range resultCh {
		byPlatform[r.Platform] = r
	}
	// Stable platform order so snapshots and responses read the same every run.
	for _, platform := range models.AllPlatforms() {
		if r, ok := byPlatform[platform]; ok {
			results = append(results, r)
		}
	}
	return results
}

// persistRunOutput writes the per-platform snapshot and verdict rows. A
// failed insert for one platform is absorbed and counted, the rest still land.
func (e *Engine) persistRunOutput(ctx context.Context, run *models.NAPSyncRun, result NAPSyncResult) int {
	logger := config.GetLogger()
	errorCount := 0

	verdicts := map[models.Platform]PlatformDiscrepancy{}
	for _, d := range result.Discrepancies {
		verdicts[d.Platform] = d
	}

	for _, adapterResult := range result.PlatformResults {
		verdict := verdicts[adapterResult.Platform]

		snapshot := &models.NAPSnapshot{
			RunId:        run.ID,
			OrgId:        run.OrgId,
			LocationId:   run.LocationId,
			Platform:     adapterResult.Platform,
			Status:       verdict.Status,
			ErrorMessage: adapterResult.Message,
			HTTPStatus:   adapterResult.HTTPStatus,
		}
		if adapterResult.Data != nil {
			snapshot.DataJSON, _ = json.Marshal(adapterResult.Data)
		}
		if !adapterResult.FetchedAt.IsZero() {
			fetchedAt := adapterResult.FetchedAt
			snapshot.FetchedAt = &fetchedAt
		}
		if err := e.store.SaveSnapshot(ctx, snapshot); err != nil {
			config.LogError(logger, moduleName, "persistRunOutput", "Could not save snapshot", adapterResult.Platform, err)
			errorCount++
		}

		discrepancy := &models.NAPDiscrepancy{
			RunId:           run.ID,
			OrgId:           run.OrgId,
			LocationId:      run.LocationId,
			Platform:        verdict.Platform,
			Status:          verdict.Status,
			FieldsJSON:      EncodeFields(verdict.DiscrepantFields),
			Severity:        verdict.Severity,
			AutoCorrectable: verdict.AutoCorrectable,
			FixInstructions: verdict.FixInstructions,
			DetectedAt:      verdict.DetectedAt,
		}
		if err := e.store.SaveDiscrepancy(ctx, discrepancy); err != nil {
			config.LogError(logger, moduleName, "persistRunOutput", "Could not save discrepancy", verdict.Platform, err)
			errorCount++
		}
	}
	return errorCount
}

// pushCorrections writes safe fixes back to Google when the run found a
// correctable discrepancy there. Failures land in CorrectionsFailed and are
// reported, never propagated.
func (e *Engine) pushCorrections(ctx context.Context, run *models.NAPSyncRun, gt *GroundTruth, platformIds map[models.Platform]string, result *NAPSyncResult) {
	for _, verdict := range result.Discrepancies {
		if verdict.Platform != models.PlatformGoogle || !verdict.AutoCorrectable {
			continue
		}
		if verdict.Status != models.NAPStatusDiscrepancy || len(verdict.DiscrepantFields) == 0 {
			continue
		}

		pushed, err := e.corrector.Push(ctx, run.ID, gt, platformIds[models.PlatformGoogle], verdict.DiscrepantFields)
		if err != nil {
			e.reporter.CaptureException(ctx, err, map[string]string{
				"platform":    string(verdict.Platform),
				"location_id": fmt.Sprint(run.LocationId),
			})
			result.CorrectionsFailed = append(result.CorrectionsFailed, verdict.Platform)
			continue
		}
		if len(pushed) > 0 {
			result.CorrectionsPushed = append(result.CorrectionsPushed, verdict.Platform)
		}
	}
}

// RunNAPSyncForAllLocations sweeps every active location of every org on the
// growth plan or above, strictly sequentially with a delay between locations
// to stay inside platform rate limits. Returns processed and failed counts.
func (e *Engine) RunNAPSyncForAllLocations(ctx context.Context) (int, int) {
	const functionName = "RunNAPSyncForAllLocations"
	logger := config.GetLogger()

	orgs, err := e.store.SweepOrganizations(ctx, models.PlanGrowth)
	if err != nil {
		config.LogError(logger, moduleName, functionName, "Could not list sweep organizations", nil, err)
		return 0, 1
	}

	processed := 0
	failed := 0
	for _, org := range orgs {
		locations, err := e.store.SweepLocations(ctx, org.ID.String())
		if err != nil {
			config.LogError(logger, moduleName, functionName, "Could not list locations for org", org.ID, err)
			failed++
			continue
		}
		for _, location := range locations {
			if ctx.Err() != nil {
				logger.Infof("%s - fleet sweep aborted: %v", moduleName, ctx.Err())
				return processed, failed
			}
			result := e.RunNAPSync(ctx, 0, location.ID, location.OrgId, models.SyncTriggeredSchedule)
			if len(result.PlatformResults) == 0 {
				failed++
			} else {
				processed++
			}
			time.Sleep(e.sweepDelay)
		}
	}

	logger.Infof("%s - fleet sweep finished: processed=%d failed=%d", moduleName, processed, failed)
	return processed, failed
}
