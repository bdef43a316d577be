package napsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/locallens/presence_backend/models"
	"gorm.io/gorm"
)

// DB-free fakes. These validate the orchestration semantics: settle-all
// fan-out, failure absorption, run bookkeeping. Integration tests against
// MySQL + real platform APIs belong in an environment that has them.

type fakeStore struct {
	mu sync.Mutex

	gt          *GroundTruth
	gtErr       error
	platformIds map[models.Platform]string

	runs          []*models.NAPSyncRun
	finished      []*models.NAPSyncRun
	snapshots     []*models.NAPSnapshot
	discrepancies []*models.NAPDiscrepancy
	scoreWrites   []int
	corrections   [][]string

	conn    *models.PlatformConnection
	connErr error

	snapshotErr error

	sweepOrgs      []models.Organization
	sweepLocations map[string][]models.Location
}

func (s *fakeStore) GroundTruth(ctx context.Context, locationId uint, orgId string) (*GroundTruth, error) {
	if s.gtErr != nil {
		return nil, s.gtErr
	}
	return s.gt, nil
}

func (s *fakeStore) PlatformIDs(ctx context.Context, locationId uint, orgId string) (map[models.Platform]string, error) {
	return s.platformIds, nil
}

func (s *fakeStore) GoogleConnection(ctx context.Context, orgId string) (*models.PlatformConnection, error) {
	if s.connErr != nil {
		return nil, s.connErr
	}
	if s.conn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.conn, nil
}

func (s *fakeStore) SaveConnectionToken(ctx context.Context, connId uint, orgId string, accessToken string, expiresAt time.Time) error {
	return nil
}

func (s *fakeStore) CreateRun(ctx context.Context, run *models.NAPSyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.ID = uint(len(s.runs) + 1)
	s.runs = append(s.runs, run)
	return nil
}

func (s *fakeStore) FinishRun(ctx context.Context, run *models.NAPSyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = append(s.finished, run)
	return nil
}

func (s *fakeStore) SaveSnapshot(ctx context.Context, snapshot *models.NAPSnapshot) error {
	if s.snapshotErr != nil {
		return s.snapshotErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots = append(s.snapshots, snapshot)
	return nil
}

func (s *fakeStore) SaveDiscrepancy(ctx context.Context, discrepancy *models.NAPDiscrepancy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discrepancies = append(s.discrepancies, discrepancy)
	return nil
}

func (s *fakeStore) MarkCorrectionPushed(ctx context.Context, runId uint, orgId string, platform models.Platform, fields []string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.corrections = append(s.corrections, fields)
	return nil
}

func (s *fakeStore) UpdateLocationScore(ctx context.Context, locationId uint, orgId string, score int, checkedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scoreWrites = append(s.scoreWrites, score)
	return nil
}

func (s *fakeStore) SweepOrganizations(ctx context.Context, minimum models.SubscriptionPlan) ([]models.Organization, error) {
	return s.sweepOrgs, nil
}

func (s *fakeStore) SweepLocations(ctx context.Context, orgId string) ([]models.Location, error) {
	return s.sweepLocations[orgId], nil
}

type fakeAdapter struct {
	platform models.Platform
	result   AdapterResult
	delay    time.Duration
	panics   bool
}

func (a *fakeAdapter) Platform() models.Platform { return a.platform }

func (a *fakeAdapter) FetchNAP(ctx context.Context, fc FetchContext) AdapterResult {
	if a.panics {
		panic("adapter exploded")
	}
	if a.delay > 0 {
		select {
		case <-time.After(a.delay):
		case <-ctx.Done():
			return apiErrorResult(a.platform, ctx.Err().Error(), nil)
		}
	}
	return a.result
}

type fakeReporter struct {
	mu       sync.Mutex
	messages []string
}

func (r *fakeReporter) CaptureException(ctx context.Context, err error, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, err.Error())
}

func (r *fakeReporter) CaptureMessage(ctx context.Context, msg string, tags map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func noopLock(ctx context.Context, locationId uint, moduleName string, functionName string) (func(), error) {
	return func() {}, nil
}

func testEngine(store *fakeStore, adapters Registry) *Engine {
	return &Engine{
		store:          store,
		adapters:       adapters,
		reporter:       &fakeReporter{},
		adapterTimeout: 200 * time.Millisecond,
		sweepDelay:     time.Millisecond,
		lock:           noopLock,
	}
}

func okAdapter(platform models.Platform, data *NAPData) *fakeAdapter {
	return &fakeAdapter{platform: platform, result: okResult(platform, data)}
}

func TestRunNAPSync_AllPlatformsMatch(t *testing.T) {
	gt := testGroundTruth()
	store := &fakeStore{gt: gt, platformIds: map[models.Platform]string{}}

	matching := &NAPData{Name: strPtr(gt.Name), Phone: strPtr(gt.Phone)}
	adapters := Registry{
		models.PlatformGoogle:    okAdapter(models.PlatformGoogle, matching),
		models.PlatformYelp:      okAdapter(models.PlatformYelp, matching),
		models.PlatformAppleMaps: okAdapter(models.PlatformAppleMaps, matching),
		models.PlatformBing:      okAdapter(models.PlatformBing, matching),
	}
	engine := testEngine(store, adapters)

	result := engine.RunNAPSync(context.Background(), 0, gt.LocationId, gt.OrgId, models.SyncTriggeredManual)

	if result.HealthScore.Score != 100 {
		t.Fatalf("score = %d, want 100", result.HealthScore.Score)
	}
	if len(result.PlatformResults) != 4 {
		t.Fatalf("platform results = %d", len(result.PlatformResults))
	}
	if len(store.snapshots) != 4 || len(store.discrepancies) != 4 {
		t.Fatalf("snapshots=%d discrepancies=%d", len(store.snapshots), len(store.discrepancies))
	}
	if len(store.finished) != 1 || store.finished[0].Status != models.SyncRunStatusSuccess {
		t.Fatalf("finished = %+v", store.finished)
	}
	if len(store.scoreWrites) != 1 || store.scoreWrites[0] != 100 {
		t.Fatalf("score writes = %v", store.scoreWrites)
	}
}

func TestRunNAPSync_OneFailingPlatformDoesNotHideOthers(t *testing.T) {
	gt := testGroundTruth()
	store := &fakeStore{gt: gt, platformIds: map[models.Platform]string{}}

	matching := &NAPData{Name: strPtr(gt.Name)}
	adapters := Registry{
		models.PlatformGoogle: okAdapter(models.PlatformGoogle, matching),
		models.PlatformYelp: &fakeAdapter{
			platform: models.PlatformYelp,
			result:   apiErrorResult(models.PlatformYelp, "upstream 500", nil),
		},
		models.PlatformAppleMaps: okAdapter(models.PlatformAppleMaps, matching),
		models.PlatformBing:      okAdapter(models.PlatformBing, matching),
	}
	engine := testEngine(store, adapters)

	result := engine.RunNAPSync(context.Background(), 0, gt.LocationId, gt.OrgId, models.SyncTriggeredManual)

	if len(result.PlatformResults) != 4 {
		t.Fatalf("platform results = %d, want 4", len(result.PlatformResults))
	}
	if result.HealthScore.Score != 98 { // one api_error
		t.Fatalf("score = %d, want 98", result.HealthScore.Score)
	}
	if len(store.finished) != 1 || store.finished[0].Status != models.SyncRunStatusPartial {
		t.Fatalf("run status = %+v", store.finished)
	}
	if store.finished[0].ErrorCount != 1 {
		t.Fatalf("error count = %d", store.finished[0].ErrorCount)
	}
}

func TestRunNAPSync_PanickingAdapterBecomesAPIError(t *testing.T) {
	gt := testGroundTruth()
	store := &fakeStore{gt: gt, platformIds: map[models.Platform]string{}}

	matching := &NAPData{Name: strPtr(gt.Name)}
	adapters := Registry{
		models.PlatformGoogle:    okAdapter(models.PlatformGoogle, matching),
		models.PlatformYelp:      &fakeAdapter{platform: models.PlatformYelp, panics: true},
		models.PlatformAppleMaps: &fakeAdapter{platform: models.PlatformAppleMaps, panics: true},
		models.PlatformBing:      &fakeAdapter{platform: models.PlatformBing, panics: true},
	}
	engine := testEngine(store, adapters)

	result := engine.RunNAPSync(context.Background(), 0, gt.LocationId, gt.OrgId, models.SyncTriggeredManual)

	if len(result.PlatformResults) != 4 {
		t.Fatalf("platform results = %d, want 4", len(result.PlatformResults))
	}
	apiErrors := 0
	for _, r := range result.PlatformResults {
		if r.Status == ResultAPIError {
			apiErrors++
		}
	}
	if apiErrors != 3 {
		t.Fatalf("api errors = %d, want 3", apiErrors)
	}
}

func TestRunNAPSync_SlowAdapterCutOffByTimeout(t *testing.T) {
	gt := testGroundTruth()
	store := &fakeStore{gt: gt, platformIds: map[models.Platform]string{}}

	matching := &NAPData{Name: strPtr(gt.Name)}
	adapters := Registry{
		models.PlatformGoogle: okAdapter(models.PlatformGoogle, matching),
		models.PlatformYelp: &fakeAdapter{
			platform: models.PlatformYelp,
			result:   okResult(models.PlatformYelp, matching),
			delay:    5 * time.Second,
		},
	}
	engine := testEngine(store, adapters)

	start := time.Now()
	result := engine.RunNAPSync(context.Background(), 0, gt.LocationId, gt.OrgId, models.SyncTriggeredManual)
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("run took %s, timeout did not bite", elapsed)
	}

	var yelp *AdapterResult
	for i := range result.PlatformResults {
		if result.PlatformResults[i].Platform == models.PlatformYelp {
			yelp = &result.PlatformResults[i]
		}
	}
	if yelp == nil || yelp.Status != ResultAPIError {
		t.Fatalf("yelp result = %+v", yelp)
	}
}

func TestRunNAPSync_GroundTruthFailureFailsRun(t *testing.T) {
	store := &fakeStore{gtErr: errors.New("db down")}
	engine := testEngine(store, Registry{})

	result := engine.RunNAPSync(context.Background(), 0, 1, "org-1", models.SyncTriggeredManual)

	if len(result.PlatformResults) != 0 {
		t.Fatalf("platform results = %d", len(result.PlatformResults))
	}
	if len(store.finished) != 1 || store.finished[0].Status != models.SyncRunStatusFailed {
		t.Fatalf("finished = %+v", store.finished)
	}
}

func TestRunNAPSync_LockContentionFailsRunWithoutFetching(t *testing.T) {
	gt := testGroundTruth()
	store := &fakeStore{gt: gt, platformIds: map[models.Platform]string{}}
	engine := testEngine(store, Registry{
		models.PlatformGoogle: okAdapter(models.PlatformGoogle, &NAPData{}),
	})
	engine.lock = func(ctx context.Context, locationId uint, moduleName string, functionName string) (func(), error) {
		return func() {}, errors.New("sync already running for location")
	}

	result := engine.RunNAPSync(context.Background(), 0, gt.LocationId, gt.OrgId, models.SyncTriggeredManual)

	if len(result.PlatformResults) != 0 {
		t.Fatal("adapters must not run under lock contention")
	}
	if len(store.finished) != 1 || store.finished[0].Status != models.SyncRunStatusFailed {
		t.Fatalf("finished = %+v", store.finished)
	}
}

func TestRunNAPSync_ResultsInStablePlatformOrder(t *testing.T) {
	gt := testGroundTruth()
	store := &fakeStore{gt: gt, platformIds: map[models.Platform]string{}}

	matching := &NAPData{Name: strPtr(gt.Name)}
	adapters := Registry{}
	for _, platform := range models.AllPlatforms() {
		adapters[platform] = okAdapter(platform, matching)
	}
	engine := testEngine(store, adapters)

	for run := 0; run < 5; run++ {
		result := engine.RunNAPSync(context.Background(), 0, gt.LocationId, gt.OrgId, models.SyncTriggeredManual)
		for i, platform := range models.AllPlatforms() {
			if result.PlatformResults[i].Platform != platform {
				t.Fatalf("run %d: position %d = %s, want %s",
					run, i, result.PlatformResults[i].Platform, platform)
			}
		}
	}
}

func TestRunNAPSyncForAllLocations_SequentialSweep(t *testing.T) {
	gt := testGroundTruth()
	org := models.Organization{Plan: models.PlanGrowth}
	store := &fakeStore{
		gt:          gt,
		platformIds: map[models.Platform]string{},
		sweepOrgs:   []models.Organization{org},
		sweepLocations: map[string][]models.Location{
			org.ID.String(): {
				{ID: 1, OrgId: org.ID.String()},
				{ID: 2, OrgId: org.ID.String()},
				{ID: 3, OrgId: org.ID.String()},
			},
		},
	}
	adapters := Registry{
		models.PlatformGoogle: okAdapter(models.PlatformGoogle, &NAPData{Name: strPtr(gt.Name)}),
	}
	engine := testEngine(store, adapters)

	processed, failed := engine.RunNAPSyncForAllLocations(context.Background())
	if processed != 3 || failed != 0 {
		t.Fatalf("processed=%d failed=%d", processed, failed)
	}
	if len(store.finished) != 3 {
		t.Fatalf("finished runs = %d", len(store.finished))
	}
}

func TestRunNAPSyncForAllLocations_CancelledContextStops(t *testing.T) {
	gt := testGroundTruth()
	org := models.Organization{Plan: models.PlanGrowth}
	store := &fakeStore{
		gt:          gt,
		platformIds: map[models.Platform]string{},
		sweepOrgs:   []models.Organization{org},
		sweepLocations: map[string][]models.Location{
			org.ID.String(): {{ID: 1, OrgId: org.ID.String()}},
		},
	}
	engine := testEngine(store, Registry{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	processed, _ := engine.RunNAPSyncForAllLocations(ctx)
	if processed != 0 {
		t.Fatalf("processed = %d, want 0", processed)
	}
}
