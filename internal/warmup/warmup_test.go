package warmup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcas-genius/tcas-genius-go/internal/admission"
)

type fakeAdvisor struct {
	mu        sync.Mutex
	searched  []string
	detailed  []string
	failOn    string
	inFlight  atomic.Int32
	maxFlight atomic.Int32
}

func (f *fakeAdvisor) track() func() {
	n := f.inFlight.Add(1)
	for {
		m := f.maxFlight.Load()
		if n <= m || f.maxFlight.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(2 * time.Millisecond)
	return func() { f.inFlight.Add(-1) }
}

func (f *fakeAdvisor) SearchUniversities(_ context.Context, faculty string, lang admission.Lang) ([]string, error) {
	defer f.track()()
	f.mu.Lock()
	f.searched = append(f.searched, faculty+"/"+string(lang))
	f.mu.Unlock()
	if faculty == f.failOn {
		return nil, errors.New("boom")
	}
	return []string{"U1", "U2", "U3"}, nil
}

func (f *fakeAdvisor) UniversityDetails(_ context.Context, faculty, university string, lang admission.Lang) (*admission.UniversityData, error) {
	defer f.track()()
	f.mu.Lock()
	f.detailed = append(f.detailed, faculty+"/"+university+"/"+string(lang))
	f.mu.Unlock()
	return &admission.UniversityData{}, nil
}

func TestRun(t *testing.T) {
	t.Parallel()
	adv := &fakeAdvisor{failOn: "Law"}

	stats, err := Run(context.Background(), adv, Options{
		Faculties:         []string{"Medicine", "Law", "Engineering"},
		DetailsPerFaculty: 2,
		Concurrency:       2,
	})
	require.NoError(t, err)

	assert.Len(t, adv.searched, 6, "3 faculties x 2 langs")
	assert.EqualValues(t, 4, stats.Lists.Load())
	assert.EqualValues(t, 2, stats.Failed.Load())
	assert.EqualValues(t, 8, stats.Details.Load(), "2 details for each successful list")
	assert.LessOrEqual(t, adv.maxFlight.Load(), int32(2))
}

func TestRun_ListsOnly(t *testing.T) {
	t.Parallel()
	adv := &fakeAdvisor{}

	stats, err := Run(context.Background(), adv, Options{
		Faculties: []string{"Medicine"},
		Langs:     []admission.Lang{admission.LangTH},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Lists.Load())
	assert.Empty(t, adv.detailed)
}

func TestRun_Canceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, &fakeAdvisor{}, Options{Faculties: []string{"Medicine"}})
	assert.ErrorIs(t, err, context.Canceled)
}
