package work

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/safeher/safeher/server/models"
	"github.com/stretchr/testify/assert"
)

// syncBuffer keeps the worker goroutine & the test from racing on the buffer
type syncBuffer struct {
	mu   sync.Mutex
	buff bytes.Buffer
}

func (b *syncBuffer) WriteString(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buff.WriteString(s)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buff.String()
}

func TestPerform(t *testing.T) {
	models.InitializeTestDb()

	workerPool := NewWorkerAdapter("UTC")
	outputBuffer := &syncBuffer{}

	// Register job function
	writeToBuffer := func(args map[string]interface{}) error {
		outputBuffer.WriteString(args["greeting"].(string))
		return nil
	}
	workerPool.Register("write_to_buffer", writeToBuffer)

	err := workerPool.Perform(JobParams{
		Name:    "write_to_buffer",
		Handler: "write_to_buffer",
		Args:    map[string]interface{}{"greeting": "Hello"},
	})
	assert.Nil(t, err)
	assert.Empty(t, outputBuffer.String(), "Job should not run before the pool starts")

	workerPool.Start()

	// Wait for job to be processed
	assert.Eventually(t, func() bool {
		return outputBuffer.String() == "Hello"
	}, 5*time.Second, 10*time.Millisecond, "Expected job to write to outputBuffer")

	workerPool.Stop()

	// The processed job should be marked successful
	job, err := models.FindJobBy("name", "write_to_buffer")
	assert.Nil(t, err)
	assert.Equal(t, models.SUCCESSFUL_JOB, job.JobStatus.Name)
}

func TestPerformSwallowsDuplicateUniqueJob(t *testing.T) {
	models.InitializeTestDb()

	workerPool := NewWorkerAdapter("UTC")
	workerPool.Register("noop", func(map[string]interface{}) error { return nil })

	job := JobParams{
		Name:    "noop",
		Handler: "noop",
		Unique:  true,
		Args:    map[string]interface{}{},
	}

	assert.Nil(t, workerPool.Perform(job))
	assert.Nil(t, workerPool.Perform(job), "A duplicate unique job is dropped, not an error")
}

func TestFailingJobIsMarkedDead(t *testing.T) {
	models.InitializeTestDb()

	workerPool := NewWorkerAdapter("UTC")

	attempts := &syncBuffer{}
	workerPool.Register("always_fails", func(map[string]interface{}) error {
		attempts.WriteString("x")
		return assert.AnError
	})

	err := workerPool.Perform(JobParams{
		Name:    "always_fails",
		Handler: "always_fails",
		Args:    map[string]interface{}{},
	})
	assert.Nil(t, err)

	workerPool.Start()
	defer workerPool.Stop()

	assert.Eventually(t, func() bool {
		job, err := models.FindJobBy("name", "always_fails")
		if err != nil {
			return false
		}
		return job.JobStatus.Name == models.DEAD_JOB
	}, 10*time.Second, 10*time.Millisecond, "Expected job to be marked dead after repeated failures")

	assert.Equal(t, MAX_FAILS, len(attempts.String()))
}
