package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-kwic/internal/engine"
	"github.com/gcbaptista/go-kwic/model"
)

func TestRankingSuite(t *testing.T) {
	eng := CreateTestEngine(t)

	RunRankingTests(t, eng, []RankingTestCase{
		{
			Name:     "sample corpus",
			Lines:    SampleCorpus,
			Expected: SampleRanking,
		},
		{
			Name:     "prefix sorts first",
			Lines:    []string{"to be or", "to be"},
			Expected: []string{"be or to", "be to", "or to be", "to be", "to be or"},
		},
		{
			Name:     "blank lines contribute nothing",
			Lines:    []string{"", "b a", "   "},
			Expected: []string{"a b", "b a"},
		},
	})
}

func TestAsyncOperations(t *testing.T) {
	RunAsyncOperationTests(t, []AsyncOperationTest{
		{
			Name: "build index",
			SetupFunc: func(t *testing.T, eng *engine.Engine) string {
				CreateTestIndex(t, eng, "async-build")
				LoadTestLines(t, eng, "async-build", SampleCorpus)
				return "async-build"
			},
			OperationFunc: func(t *testing.T, eng *engine.Engine, indexName string) string {
				jobID, err := eng.BuildIndexAsync(indexName)
				require.NoError(t, err)
				return jobID
			},
			ValidateFunc: func(t *testing.T, eng *engine.Engine, indexName string, job *model.Job) {
				indexAccessor, err := eng.GetIndex(indexName)
				require.NoError(t, err)
				assert.Equal(t, SampleRanking, RenderedRanking(t, indexAccessor))
			},
			ExpectedJobType: model.JobTypeBuildIndex,
		},
		{
			Name: "load lines",
			SetupFunc: func(t *testing.T, eng *engine.Engine) string {
				CreateTestIndex(t, eng, "async-load")
				return "async-load"
			},
			OperationFunc: func(t *testing.T, eng *engine.Engine, indexName string) string {
				jobID, err := eng.LoadLinesAsync(indexName, "test", []byte("one two\nthree\n"))
				require.NoError(t, err)
				return jobID
			},
			ValidateFunc: func(t *testing.T, eng *engine.Engine, indexName string, job *model.Job) {
				indexAccessor, err := eng.GetIndex(indexName)
				require.NoError(t, err)
				info := indexAccessor.Info()
				assert.Equal(t, 2, info.LineCount)
				assert.Equal(t, 3, info.WordCount)
			},
			ExpectedJobType: model.JobTypeLoadLines,
		},
		{
			Name: "delete index",
			SetupFunc: func(t *testing.T, eng *engine.Engine) string {
				CreateTestIndex(t, eng, "async-delete")
				return "async-delete"
			},
			OperationFunc: func(t *testing.T, eng *engine.Engine, indexName string) string {
				jobID, err := eng.DeleteIndexAsync(indexName)
				require.NoError(t, err)
				return jobID
			},
			ValidateFunc: func(t *testing.T, eng *engine.Engine, indexName string, job *model.Job) {
				assert.NotContains(t, eng.ListIndexes(), indexName)
			},
			ExpectedJobType: model.JobTypeDeleteIndex,
		},
	})
}
