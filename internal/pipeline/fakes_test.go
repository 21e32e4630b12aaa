package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/floatchat/argo-data-service/internal/domain"
)

var errNoProfile = errors.New("fake: profile not found")

type fakeIndexSource struct {
	data  []byte
	err   error
	calls int
}

func (f *fakeIndexSource) FetchIndex(ctx context.Context) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

type fakeFileFetcher struct {
	mu      sync.Mutex
	local   string
	err     error
	calls   int
	cleaned int
}

func (f *fakeFileFetcher) FetchProfileFile(ctx context.Context, path string) (string, func(), error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", nil, f.err
	}
	return f.local, func() {
		f.mu.Lock()
		f.cleaned++
		f.mu.Unlock()
	}, nil
}

type fakeExtractor struct {
	mu     sync.Mutex
	series domain.ProfileSeries
	err    error
	calls  int
	gate   chan struct{} // when non-nil, ExtractSeries blocks until closed
}

func (f *fakeExtractor) ExtractSeries(path string) (domain.ProfileSeries, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.err != nil {
		return domain.ProfileSeries{}, f.err
	}
	return f.series, nil
}

// fakeStore backs every pipeline job in tests. Maps are keyed by profile
// id; write order is recorded for ordering assertions.
type fakeStore struct {
	mu       sync.Mutex
	profiles map[int64]domain.Profile
	rows     map[int64][]domain.Measurement

	floatUpserts   []string
	profileInserts []domain.Profile
	pathWrites     map[int64][]string
	nextID         int64

	upsertErr map[string]error
	insertErr error
	pathErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles:   make(map[int64]domain.Profile),
		rows:       make(map[int64][]domain.Measurement),
		pathWrites: make(map[int64][]string),
		upsertErr:  make(map[string]error),
	}
}

func (f *fakeStore) addProfile(p domain.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[p.ID] = p
	if p.ID > f.nextID {
		f.nextID = p.ID
	}
}

func (f *fakeStore) UpsertFloat(ctx context.Context, platformNumber string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.upsertErr[platformNumber]; err != nil {
		return err
	}
	f.floatUpserts = append(f.floatUpserts, platformNumber)
	return nil
}

func (f *fakeStore) InsertProfile(ctx context.Context, p domain.Profile) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	f.profiles[p.ID] = p
	f.profileInserts = append(f.profileInserts, p)
	return p.ID, nil
}

func (f *fakeStore) GetProfile(ctx context.Context, id int64) (domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return domain.Profile{}, errNoProfile
	}
	return p, nil
}

func (f *fakeStore) UpdateProfilePath(ctx context.Context, id int64, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pathErr != nil {
		return f.pathErr
	}
	f.pathWrites[id] = append(f.pathWrites[id], path)
	if p, ok := f.profiles[id]; ok {
		p.FilePath = &path
		f.profiles[id] = p
	}
	return nil
}

func (f *fakeStore) ProfilesMissingPath(ctx context.Context, limit int) ([]domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	missing := make([]domain.Profile, 0)
	for id := int64(1); id <= f.nextID; id++ {
		p, ok := f.profiles[id]
		if !ok {
			continue
		}
		if p.FilePath == nil || *p.FilePath == "" {
			missing = append(missing, p)
		}
		if limit > 0 && len(missing) >= limit {
			break
		}
	}
	return missing, nil
}

func (f *fakeStore) MeasurementsForProfile(ctx context.Context, profileID int64) ([]domain.Measurement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[profileID], nil
}

func (f *fakeStore) InsertMeasurements(ctx context.Context, profileID int64, rows []domain.Measurement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, m := range rows {
		m.ProfileID = profileID
		f.rows[profileID] = append(f.rows[profileID], m)
	}
	return nil
}
