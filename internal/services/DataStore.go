package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"tracer/internal/models"
	"tracer/internal/projections"
	"tracer/internal/storage"
)

var (
	// ErrSeriesNotFound is returned when a series update or delete targets an
	// id that is not in the cache.
	ErrSeriesNotFound = errors.New("series not found")

	// ErrTypeMismatch is returned when a value kind does not match the type
	// pinned on its series.
	ErrTypeMismatch = errors.New("value type does not match series type")

	ErrInvalidType     = errors.New("invalid series type")
	ErrSnapshotVersion = errors.New("unsupported snapshot version")
)

// Persistence is the durable side of the store. storage.Database satisfies it.
type Persistence interface {
	AddDataPoint(ctx context.Context, series string, value models.Value, timestamp int64) (int64, error)
	AddDataPoints(ctx context.Context, points []models.NewDataPoint) ([]models.DataPoint, error)
	GetAllDataPoints(ctx context.Context) ([]models.DataPoint, error)
	UpdateDataPoint(ctx context.Context, id int64, patch models.DataPointPatch) (models.DataPoint, bool, error)
	DeleteDataPoint(ctx context.Context, id int64) error

	AddSeries(ctx context.Context, params models.NewSeries) (models.DataSeries, error)
	GetAllSeries(ctx context.Context) ([]models.DataSeries, error)
	GetSeriesByName(ctx context.Context, name string) (models.DataSeries, bool, error)
	UpdateSeries(ctx context.Context, id int64, patch models.SeriesPatch) (models.DataSeries, bool, error)
	RenameSeriesCascade(ctx context.Context, id int64, oldName string, patch models.SeriesPatch) (models.DataSeries, int64, error)
	DeleteSeriesCascade(ctx context.Context, id int64, name string) (int64, error)

	ReplaceAll(ctx context.Context, series []models.DataSeries, points []models.DataPoint) error
	SchemaVersion(ctx context.Context) (int, error)
	DeleteDatabase(ctx context.Context) error
}

type DataStoreInterface interface {
	LoadDataPoints(ctx context.Context) error
	LoadSeries(ctx context.Context) error
	Load(ctx context.Context) error

	AddDataPoint(ctx context.Context, in models.NewDataPoint) (models.DataPoint, error)
	UpdateDataPoint(ctx context.Context, id int64, patch models.DataPointPatch) (models.DataPoint, bool, error)
	DeleteDataPoint(ctx context.Context, id int64) error
	AddSeries(ctx context.Context, params models.NewSeries) (models.DataSeries, error)
	UpdateSeries(ctx context.Context, id int64, patch models.SeriesPatch) (models.DataSeries, error)
	DeleteSeries(ctx context.Context, id int64) error
	ImportDataPoints(ctx context.Context, batch []models.NewDataPoint) ([]models.DataPoint, error)

	DataPoints() []models.DataPoint
	DataPointsBySeries(names []string) []models.DataPoint
	Series() []models.DataSeries
	SeriesByName() map[string]models.DataSeries
	UniqueValuesBySeries() map[string][]models.Value
	DataPointCount() int
	SeriesCount() int

	Revision() uint64
	Subscribe(buffer int) (<-chan models.ChangeEvent, func())

	Snapshot(ctx context.Context) (*models.Snapshot, error)
	Restore(ctx context.Context, snap *models.Snapshot) error
	DeleteDatabase(ctx context.Context) error
}

// DataStore is the in-memory cache of series and data points. Every write
// goes to Persistence first; the cache changes only after the write
// succeeded.
type DataStore struct {
	db Persistence

	mu       sync.RWMutex
	points   map[int64]models.DataPoint
	index    *models.SeriesIndex
	series   map[int64]models.DataSeries
	byName   map[string]int64
	revision uint64

	loadingPoints atomic.Bool
	loadingSeries atomic.Bool
	creating      singleflight.Group

	subMu   sync.Mutex
	subs    map[int]chan models.ChangeEvent
	nextSub int

	now    func() time.Time
	random func() float64
}

type StoreOption func(*DataStore)

func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *DataStore) { s.now = now }
}

// WithRandom sets the source used for auto-assigned series colors.
func WithRandom(random func() float64) StoreOption {
	return func(s *DataStore) { s.random = random }
}

func NewDataStore(db Persistence, opts ...StoreOption) *DataStore {
	s := &DataStore{
		db:     db,
		points: make(map[int64]models.DataPoint),
		index:  models.NewSeriesIndex(),
		series: make(map[int64]models.DataSeries),
		byName: make(map[string]int64),
		subs:   make(map[int]chan models.ChangeEvent),
		now:    time.Now,
		random: rand.Float64,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RandomColor returns a color with a uniformly random hue and fixed
// saturation and lightness.
func RandomColor(random func() float64) string {
	return fmt.Sprintf("hsl(%d, 70%%, 50%%)", int(random()*360))
}

func (s *DataStore) nowMillis() int64 {
	return s.now().UnixMilli()
}

// LoadDataPoints replaces the cached data points with the stored ones. A
// call made while another load is running returns immediately.
func (s *DataStore) LoadDataPoints(ctx context.Context) error {
	if !s.loadingPoints.CompareAndSwap(false, true) {
		return nil
	}
	defer s.loadingPoints.Store(false)

	points, err := s.db.GetAllDataPoints(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.points = make(map[int64]models.DataPoint, len(points))
	for _, p := range points {
		s.points[p.ID] = p
	}
	s.index = models.BuildSeriesIndex(points)
	ev := s.bump(models.ChangeEvent{Kind: models.ChangeDataPointsLoaded, Count: len(points)})
	s.mu.Unlock()

	s.publish(ev)
	return nil
}

func (s *DataStore) LoadSeries(ctx context.Context) error {
	if !s.loadingSeries.CompareAndSwap(false, true) {
		return nil
	}
	defer s.loadingSeries.Store(false)

	series, err := s.db.GetAllSeries(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.series = make(map[int64]models.DataSeries, len(series))
	s.byName = make(map[string]int64, len(series))
	for _, sr := range series {
		s.series[sr.ID] = sr
		s.byName[sr.Name] = sr.ID
	}
	ev := s.bump(models.ChangeEvent{Kind: models.ChangeSeriesLoaded, Count: len(series)})
	s.mu.Unlock()

	s.publish(ev)
	return nil
}

// Load reads series first so data points never reference an unknown name
// in the cache.
func (s *DataStore) Load(ctx context.Context) error {
	if err := s.LoadSeries(ctx); err != nil {
		return err
	}
	return s.LoadDataPoints(ctx)
}

func (s *DataStore) cachedSeries(name string) (models.DataSeries, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	if !ok {
		return models.DataSeries{}, false
	}
	return s.series[id], true
}

// ensureSeries resolves name from the cache or creates it. Concurrent
// callers for the same unseen name share one creation; a name taken in
// storage by someone else is re-fetched instead of duplicated.
func (s *DataStore) ensureSeries(ctx context.Context, name string, kind models.SeriesType) (models.DataSeries, error) {
	if sr, ok := s.cachedSeries(name); ok {
		return sr, nil
	}
	v, err, _ := s.creating.Do(name, func() (interface{}, error) {
		if sr, ok := s.cachedSeries(name); ok {
			return sr, nil
		}
		sr, err := s.db.AddSeries(ctx, models.NewSeries{
			Name:  name,
			Color: RandomColor(s.random),
			Type:  kind,
		})
		if errors.Is(err, storage.ErrSeriesExists) {
			var found bool
			sr, found, err = s.db.GetSeriesByName(ctx, name)
			if err == nil && !found {
				err = fmt.Errorf("series %q vanished while being created", name)
			}
		}
		if err != nil {
			return nil, err
		}
		s.putSeries(sr, models.ChangeSeriesAdded)
		return sr, nil
	})
	if err != nil {
		return models.DataSeries{}, err
	}
	return v.(models.DataSeries), nil
}

func (s *DataStore) putSeries(sr models.DataSeries, kind models.ChangeKind) {
	s.mu.Lock()
	if old, ok := s.series[sr.ID]; ok && old.Name != sr.Name {
		delete(s.byName, old.Name)
	}
	s.series[sr.ID] = sr
	s.byName[sr.Name] = sr.ID
	ev := s.bump(models.ChangeEvent{Kind: kind, SeriesID: sr.ID, Series: sr.Name})
	s.mu.Unlock()
	s.publish(ev)
}

func checkKind(sr models.DataSeries, v models.Value) error {
	if sr.Type == "" || sr.Type == v.Kind() {
		return nil
	}
	return fmt.Errorf("%w: series %q is %s, got %s value %q", ErrTypeMismatch, sr.Name, sr.Type, v.Kind(), v.String())
}

// AddDataPoint makes sure the series exists, stores the point, caches it and
// then stamps the series' dataAddedAt. An untyped series is pinned to the
// kind of its first point in the same write.
func (s *DataStore) AddDataPoint(ctx context.Context, in models.NewDataPoint) (models.DataPoint, error) {
	sr, err := s.ensureSeries(ctx, in.Series, in.Value.Kind())
	if err != nil {
		return models.DataPoint{}, err
	}
	if err := checkKind(sr, in.Value); err != nil {
		return models.DataPoint{}, err
	}

	ts := in.Timestamp
	if ts == 0 {
		ts = s.nowMillis()
	}
	id, err := s.db.AddDataPoint(ctx, in.Series, in.Value, ts)
	if err != nil {
		return models.DataPoint{}, err
	}
	dp := models.DataPoint{ID: id, Series: in.Series, Value: in.Value, Timestamp: ts}

	s.mu.Lock()
	s.points[id] = dp
	s.index.Add(dp.Series, id)
	ev := s.bump(models.ChangeEvent{Kind: models.ChangeDataPointAdded, DataPointID: id, Series: dp.Series})
	s.mu.Unlock()
	s.publish(ev)

	if err := s.touchSeries(ctx, sr, in.Value.Kind()); err != nil {
		return dp, err
	}
	return dp, nil
}

func (s *DataStore) touchSeries(ctx context.Context, sr models.DataSeries, kind models.SeriesType) error {
	now := s.nowMillis()
	patch := models.SeriesPatch{DataAddedAt: &now}
	if sr.Type == "" {
		patch.Type = &kind
	}
	updated, found, err := s.db.UpdateSeries(ctx, sr.ID, patch)
	if err != nil {
		return fmt.Errorf("data point stored, failed to update series %q: %w", sr.Name, err)
	}
	if found {
		s.putSeries(updated, models.ChangeSeriesUpdated)
	}
	return nil
}

// UpdateDataPoint merges patch into the point. found is false when storage
// has no such id; the cache is only patched when it holds the point.
func (s *DataStore) UpdateDataPoint(ctx context.Context, id int64, patch models.DataPointPatch) (models.DataPoint, bool, error) {
	s.mu.RLock()
	current, inCache := s.points[id]
	s.mu.RUnlock()

	target := current
	patch.Apply(&target)
	valueKnown := inCache || patch.Value != nil

	if patch.Series != nil {
		var kind models.SeriesType
		if valueKnown {
			kind = target.Value.Kind()
		}
		if _, err := s.ensureSeries(ctx, *patch.Series, kind); err != nil {
			return models.DataPoint{}, false, err
		}
	}
	if valueKnown && (patch.Series != nil || patch.Value != nil) {
		if sr, ok := s.cachedSeries(target.Series); ok {
			if err := checkKind(sr, target.Value); err != nil {
				return models.DataPoint{}, false, err
			}
		}
	}

	updated, found, err := s.db.UpdateDataPoint(ctx, id, patch)
	if err != nil || !found {
		return models.DataPoint{}, found, err
	}

	s.mu.Lock()
	cached, ok := s.points[id]
	if !ok {
		s.mu.Unlock()
		return updated, true, nil
	}
	s.points[id] = updated
	s.index.Move(cached.Series, updated.Series, id)
	ev := s.bump(models.ChangeEvent{Kind: models.ChangeDataPointUpdated, DataPointID: id, Series: updated.Series})
	s.mu.Unlock()
	s.publish(ev)

	return updated, true, nil
}

// DeleteDataPoint removes the point from storage and cache. Deleting an
// unknown id is not an error.
func (s *DataStore) DeleteDataPoint(ctx context.Context, id int64) error {
	if err := s.db.DeleteDataPoint(ctx, id); err != nil {
		return err
	}

	s.mu.Lock()
	dp, ok := s.points[id]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.points, id)
	s.index.Remove(dp.Series, id)
	ev := s.bump(models.ChangeEvent{Kind: models.ChangeDataPointDeleted, DataPointID: id, Series: dp.Series})
	s.mu.Unlock()
	s.publish(ev)
	return nil
}

// AddSeries stores a series and caches it. Names are not validated here; an
// empty color gets a random one.
func (s *DataStore) AddSeries(ctx context.Context, params models.NewSeries) (models.DataSeries, error) {
	if params.Type != "" && !params.Type.Valid() {
		return models.DataSeries{}, fmt.Errorf("%w: %q", ErrInvalidType, params.Type)
	}
	if params.Color == "" {
		params.Color = RandomColor(s.random)
	}
	sr, err := s.db.AddSeries(ctx, params)
	if err != nil {
		return models.DataSeries{}, err
	}
	s.putSeries(sr, models.ChangeSeriesAdded)
	return sr, nil
}

// UpdateSeries merges patch into a cached series. A rename rewrites every
// point of the old name together with the series row.
func (s *DataStore) UpdateSeries(ctx context.Context, id int64, patch models.SeriesPatch) (models.DataSeries, error) {
	s.mu.RLock()
	current, ok := s.series[id]
	s.mu.RUnlock()
	if !ok {
		return models.DataSeries{}, fmt.Errorf("%w: id %d", ErrSeriesNotFound, id)
	}

	if patch.Type != nil && *patch.Type != "" {
		if !patch.Type.Valid() {
			return models.DataSeries{}, fmt.Errorf("%w: %q", ErrInvalidType, *patch.Type)
		}
		if err := s.checkRecordedKinds(current.Name, *patch.Type); err != nil {
			return models.DataSeries{}, err
		}
	}

	if !patch.Renames(current) {
		updated, found, err := s.db.UpdateSeries(ctx, id, patch)
		if err != nil {
			return models.DataSeries{}, err
		}
		if !found {
			return models.DataSeries{}, fmt.Errorf("%w: id %d", ErrSeriesNotFound, id)
		}
		s.putSeries(updated, models.ChangeSeriesUpdated)
		return updated, nil
	}

	updated, moved, err := s.db.RenameSeriesCascade(ctx, id, current.Name, patch)
	if errors.Is(err, storage.ErrSeriesMissing) {
		return models.DataSeries{}, fmt.Errorf("%w: id %d", ErrSeriesNotFound, id)
	}
	if err != nil {
		return models.DataSeries{}, err
	}

	s.mu.Lock()
	for _, pid := range s.index.IDs(current.Name) {
		p := s.points[pid]
		p.Series = updated.Name
		s.points[pid] = p
	}
	s.index.Rename(current.Name, updated.Name)
	delete(s.byName, current.Name)
	s.series[id] = updated
	s.byName[updated.Name] = id
	ev := s.bump(models.ChangeEvent{Kind: models.ChangeSeriesUpdated, SeriesID: id, Series: updated.Name, Count: int(moved)})
	s.mu.Unlock()
	s.publish(ev)

	return updated, nil
}

func (s *DataStore) checkRecordedKinds(name string, t models.SeriesType) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, pid := range s.index.IDs(name) {
		if v := s.points[pid].Value; v.Kind() != t {
			return fmt.Errorf("%w: series %q holds %s value %q", ErrTypeMismatch, name, v.Kind(), v.String())
		}
	}
	return nil
}

// DeleteSeries removes a cached series together with all of its points.
func (s *DataStore) DeleteSeries(ctx context.Context, id int64) error {
	s.mu.RLock()
	current, ok := s.series[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: id %d", ErrSeriesNotFound, id)
	}

	if _, err := s.db.DeleteSeriesCascade(ctx, id, current.Name); err != nil {
		return err
	}

	s.mu.Lock()
	ids := s.index.Drop(current.Name)
	for _, pid := range ids {
		delete(s.points, pid)
	}
	delete(s.series, id)
	delete(s.byName, current.Name)
	ev := s.bump(models.ChangeEvent{Kind: models.ChangeSeriesDeleted, SeriesID: id, Series: current.Name, Count: len(ids)})
	s.mu.Unlock()
	s.publish(ev)
	return nil
}

// ImportDataPoints adds a batch in one storage transaction. The whole batch
// is kind-checked before any series is auto-created, so a rejected batch
// leaves storage and cache untouched. Every touched series gets its
// dataAddedAt stamped.
func (s *DataStore) ImportDataPoints(ctx context.Context, batch []models.NewDataPoint) ([]models.DataPoint, error) {
	if len(batch) == 0 {
		return []models.DataPoint{}, nil
	}

	kinds := make(map[string]models.SeriesType)
	order := make([]string, 0)
	for _, in := range batch {
		want, ok := kinds[in.Series]
		if !ok {
			want = in.Value.Kind()
			if sr, cached := s.cachedSeries(in.Series); cached && sr.Type != "" {
				want = sr.Type
			}
			kinds[in.Series] = want
			order = append(order, in.Series)
		}
		if err := checkKind(models.DataSeries{Name: in.Series, Type: want}, in.Value); err != nil {
			return nil, err
		}
	}

	for _, name := range order {
		sr, err := s.ensureSeries(ctx, name, kinds[name])
		if err != nil {
			return nil, err
		}
		if sr.Type != "" && sr.Type != kinds[name] {
			return nil, fmt.Errorf("%w: series %q is %s, got %s values", ErrTypeMismatch, name, sr.Type, kinds[name])
		}
	}

	stored, err := s.db.AddDataPoints(ctx, batch)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for _, dp := range stored {
		s.points[dp.ID] = dp
		s.index.Add(dp.Series, dp.ID)
	}
	ev := s.bump(models.ChangeEvent{Kind: models.ChangeDataImported, Count: len(stored)})
	s.mu.Unlock()
	s.publish(ev)

	for _, name := range order {
		sr, ok := s.cachedSeries(name)
		if !ok {
			continue
		}
		if err := s.touchSeries(ctx, sr, kinds[name]); err != nil {
			return stored, err
		}
	}
	return stored, nil
}

// DataPoints returns a copy of the cached points ordered by id.
func (s *DataStore) DataPoints() []models.DataPoint {
	s.mu.RLock()
	out := make([]models.DataPoint, 0, len(s.points))
	for _, p := range s.points {
		out = append(out, p)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DataPointsBySeries returns the cached points of the named series ordered by
// id. No names means every point.
func (s *DataStore) DataPointsBySeries(names []string) []models.DataPoint {
	if len(names) == 0 {
		return s.DataPoints()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.index.Union(names)
	out := make([]models.DataPoint, 0, ids.GetCardinality())
	it := ids.Iterator()
	for it.HasNext() {
		out = append(out, s.points[int64(it.Next())])
	}
	return out
}

func (s *DataStore) Series() []models.DataSeries {
	s.mu.RLock()
	out := make([]models.DataSeries, 0, len(s.series))
	for _, sr := range s.series {
		out = append(out, sr)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *DataStore) SeriesByName() map[string]models.DataSeries {
	return projections.SeriesByName(s.Series())
}

func (s *DataStore) UniqueValuesBySeries() map[string][]models.Value {
	return projections.UniqueValuesBySeries(s.DataPoints())
}

func (s *DataStore) DataPointCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

func (s *DataStore) SeriesCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.series)
}

// Revision increases by one on every cache change.
func (s *DataStore) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Subscribe returns a channel of change events and a function that ends the
// subscription. Events are dropped for a subscriber whose buffer is full.
func (s *DataStore) Subscribe(buffer int) (<-chan models.ChangeEvent, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan models.ChangeEvent, buffer)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

// bump must be called with mu held.
func (s *DataStore) bump(ev models.ChangeEvent) models.ChangeEvent {
	s.revision++
	ev.Revision = s.revision
	return ev
}

func (s *DataStore) publish(ev models.ChangeEvent) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Snapshot captures the cached state for a backup.
func (s *DataStore) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	version, err := s.db.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Snapshot{
		Version:       models.SnapshotVersion,
		SchemaVersion: version,
		CreatedAt:     s.now().UTC(),
		Series:        s.Series(),
		DataPoints:    s.DataPoints(),
	}, nil
}

// Restore replaces storage and cache with the snapshot contents, keeping ids.
func (s *DataStore) Restore(ctx context.Context, snap *models.Snapshot) error {
	if snap == nil || snap.Version != models.SnapshotVersion {
		return ErrSnapshotVersion
	}
	if snap.SchemaVersion > storage.LatestVersion() {
		return fmt.Errorf("%w: snapshot schema v%d", storage.ErrSchemaTooNew, snap.SchemaVersion)
	}
	if err := s.db.ReplaceAll(ctx, snap.Series, snap.DataPoints); err != nil {
		return err
	}

	s.mu.Lock()
	s.points = make(map[int64]models.DataPoint, len(snap.DataPoints))
	for _, p := range snap.DataPoints {
		s.points[p.ID] = p
	}
	s.index = models.BuildSeriesIndex(snap.DataPoints)
	s.series = make(map[int64]models.DataSeries, len(snap.Series))
	s.byName = make(map[string]int64, len(snap.Series))
	for _, sr := range snap.Series {
		s.series[sr.ID] = sr
		s.byName[sr.Name] = sr.ID
	}
	ev := s.bump(models.ChangeEvent{Kind: models.ChangeRestored, Count: len(snap.DataPoints)})
	s.mu.Unlock()
	s.publish(ev)
	return nil
}

// DeleteDatabase destroys storage and empties the cache. The cache is left
// untouched when storage cannot be cleared.
func (s *DataStore) DeleteDatabase(ctx context.Context) error {
	if err := s.db.DeleteDatabase(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.points = make(map[int64]models.DataPoint)
	s.index = models.NewSeriesIndex()
	s.series = make(map[int64]models.DataSeries)
	s.byName = make(map[string]int64)
	ev := s.bump(models.ChangeEvent{Kind: models.ChangeReset})
	s.mu.Unlock()
	s.publish(ev)
	return nil
}
