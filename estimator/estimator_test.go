package estimator

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"qurrium.com/pqp/types"
)

const testMeasurements = `X 1 Z 0
X 1 Z 1
`

const testSubsystems = `2
1 0
1 1
`

func testConfigurations() []types.Configuration {
	return []types.Configuration{
		{
			Name:     "purity_default",
			Pipeline: types.ShadowEstimatePipeline,
			Features: []string{types.PurityFeature, types.EntropyFeature},
		},
	}
}

func runRequest(t *testing.T, req Request, cfgs []types.Configuration) map[string]ConfigEstimates {
	t.Helper()
	ppln, err := ShadowEstimate(GetDefaultParams(cfgs))
	require.NoError(t, err)
	res, ok := <-ppln(context.Background(), req)
	require.True(t, ok, "pipeline channel closed without response")
	require.NoError(t, res.Err)

	response := make(map[string]ConfigEstimates)
	require.NoError(t, json.Unmarshal([]byte(res.Data), &response))
	return response
}

func TestShadowEstimatePipeline(t *testing.T) {
	response := runRequest(t, Request{
		Tid:          "test-tid",
		Measurements: testMeasurements,
		Subsystems:   testSubsystems,
	}, testConfigurations())

	require.Contains(t, response, "purity_default")
	result := response["purity_default"]
	require.Equal(t, 2, result.NumRecords)
	require.NotEmpty(t, result.DatasetFingerprint)
	require.Len(t, result.Estimates, 2)

	// Qubit 0: same basis, same outcome for the single pair.
	first := result.Estimates[0]
	require.Equal(t, []int{0}, first.Positions)
	require.Equal(t, 1, first.PairCount)
	require.Equal(t, 5.0, first.TraceTotal)
	require.NotNil(t, first.Purity)
	require.Equal(t, 5.0, *first.Purity)

	// Qubit 1: same basis, different outcome; purity is negative so the
	// entropy must be omitted.
	second := result.Estimates[1]
	require.Equal(t, []int{1}, second.Positions)
	require.Equal(t, -4.0, second.TraceTotal)
	require.NotNil(t, second.Purity)
	require.Equal(t, -4.0, *second.Purity)
	require.Nil(t, second.Renyi2Entropy)
}

func TestShadowEstimatePinnedSubsystems(t *testing.T) {
	cfgs := testConfigurations()
	cfgs[0].Params.PQP.Subsystems = [][]int{{0}}

	response := runRequest(t, Request{
		Tid:          "pinned",
		Measurements: testMeasurements,
		// No subsystems file: the configuration pins its own.
	}, cfgs)

	result := response["purity_default"]
	require.Len(t, result.Estimates, 1)
	require.Equal(t, []int{0}, result.Estimates[0].Positions)
}

func TestShadowEstimateNoSubsystems(t *testing.T) {
	ppln, err := ShadowEstimate(GetDefaultParams(testConfigurations()))
	require.NoError(t, err)
	res := <-ppln(context.Background(), Request{Tid: "no-subs", Measurements: testMeasurements})
	require.Error(t, res.Err)
}

func TestShadowEstimateMalformedMeasurements(t *testing.T) {
	ppln, err := ShadowEstimate(GetDefaultParams(testConfigurations()))
	require.NoError(t, err)
	res := <-ppln(context.Background(), Request{
		Tid:          "bad-data",
		Measurements: "X 1 Z\n",
		Subsystems:   testSubsystems,
	})
	require.Error(t, res.Err)
}

func TestShadowEstimateShortRecord(t *testing.T) {
	ppln, err := ShadowEstimate(GetDefaultParams(testConfigurations()))
	require.NoError(t, err)
	res := <-ppln(context.Background(), Request{
		Tid:          "short-record",
		Measurements: "X 1 Z 0\nX 1\n",
		Subsystems:   testSubsystems,
	})
	require.Error(t, res.Err)
	require.Contains(t, res.Err.Error(), "record 1")
}

func TestShadowEstimateNoConfigurations(t *testing.T) {
	_, err := ShadowEstimate(Params{})
	require.Error(t, err)
}

func TestShadowEstimateCancelledContext(t *testing.T) {
	ppln, err := ShadowEstimate(GetDefaultParams(testConfigurations()))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(5))
	bases := []string{"X", "Y", "Z"}
	var sb strings.Builder
	for i := 0; i < 300; i++ {
		for q := 0; q < 2; q++ {
			sb.WriteString(bases[rng.Intn(3)])
			sb.WriteByte(' ')
			sb.WriteString([]string{"0", "1"}[rng.Intn(2)])
			if q == 0 {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := <-ppln(ctx, Request{
		Tid:          "cancelled",
		Measurements: sb.String(),
		Subsystems:   testSubsystems,
	})
	if res.Err != nil {
		require.True(t, errors.Is(res.Err, context.Canceled), "expected context.Canceled, got %v", res.Err)
	}
}
