package tax

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamxdv30/TheOmnitool-sub000/internal/platform/cache"
)

type recordingMetrics struct {
	mu           sync.Mutex
	calculations map[string]int
	rejected     map[string]int
	lookups      map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		calculations: map[string]int{},
		rejected:     map[string]int{},
		lookups:      map[string]int{},
	}
}

func (r *recordingMetrics) CalculationDone(jurisdiction, condition string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calculations[jurisdiction+"/"+condition]++
}

func (r *recordingMetrics) CartRejected(jurisdiction string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected[jurisdiction]++
}

func (r *recordingMetrics) CacheLookup(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups[outcome]++
}

func newCachedService(t *testing.T) (*Service, *recordingMetrics, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	metrics := newRecordingMetrics()
	svc := NewService(nil, cache.NewVersioned(client, "taxengine", time.Minute), metrics)
	return svc, metrics, mr
}

func TestServiceCalculateCachesResults(t *testing.T) {
	svc, metrics, mr := newCachedService(t)
	ctx := context.Background()
	in := usSingleItemCart(Policy{DiscountsBeforeTax: true}, "20")

	first, err := svc.Calculate(ctx, in)
	require.NoError(t, err)
	assertMoney(t, "88.00", first.TotalAmount, "total amount")

	second, err := svc.Calculate(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, marshal(t, first), marshal(t, second))

	assert.Equal(t, 1, metrics.lookups["miss"])
	assert.Equal(t, 1, metrics.lookups["hit"])
	assert.Equal(t, 2, metrics.calculations["us/D"])

	keys := mr.Keys()
	assert.Contains(t, keys, "taxengine:version")
	assert.Len(t, keys, 2)
}

func TestServiceFallsBackWhenCacheIsDown(t *testing.T) {
	svc, metrics, mr := newCachedService(t)
	mr.Close()

	res, err := svc.Calculate(context.Background(), usSingleItemCart(Policy{}, "20"))
	require.NoError(t, err)
	assertMoney(t, "90.00", res.TotalAmount, "total amount")
	assert.Equal(t, 1, metrics.lookups["error"])
}

func TestServiceReportsValidationErrors(t *testing.T) {
	svc, metrics, _ := newCachedService(t)

	_, err := svc.Calculate(context.Background(), CartInput{
		Items:        []ItemInput{{Price: dec("1"), TaxRate: dec("1")}, {Price: dec("1"), TaxRate: dec("1")}},
		Discounts:    []DiscountInput{{Amount: dec("1"), Item: 5}},
		Jurisdiction: USFlat(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Equal(t, 1, metrics.rejected["us"])
	assert.Empty(t, metrics.calculations)
}

func TestServiceWithoutCacheIsConcurrencySafe(t *testing.T) {
	svc := NewService(nil, nil, nil)
	in := CartInput{
		Items:        []ItemInput{{Price: dec("100")}},
		Jurisdiction: CanadaProvincial("BC", []TaxType{{Name: "GST", Rate: dec("5")}, {Name: "PST", Rate: dec("7")}}),
	}

	var wg sync.WaitGroup
	results := make([]Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Calculate(context.Background(), in)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	for _, res := range results {
		assertMoney(t, "112.00", res.TotalAmount, "total amount")
		assert.Len(t, res.Breakdown, 2)
	}
	results[0].Breakdown[0].Label = "changed"
	assert.Equal(t, "Item 1: GST", results[1].Breakdown[0].Label)
}
