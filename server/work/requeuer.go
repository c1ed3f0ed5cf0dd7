package work

import (
	"errors"
	"time"

	"github.com/safeher/safeher/colors"
	"github.com/safeher/safeher/server/models"
	"gorm.io/gorm"
)

// A job stays claimed forever if the process dies between claim & update,
// which would silently drop an alert fanout. The requeuer returns such
// stuck jobs to the queue so the usual retry policy applies to them.
type requeuer struct {
	stuckAfterMins uint
	stopChan       chan struct{}
}

func newRequeuer(stuckAfterMins uint) *requeuer {
	return &requeuer{
		stuckAfterMins: stuckAfterMins,
		stopChan:       make(chan struct{}),
	}
}

func (r *requeuer) start() {
	go r.loop()
}

func (r *requeuer) stop() {
	r.stopChan <- struct{}{}
}

// loop pulls jobs from 'in-progress' that are stuck(i.e stayed too long
// in-progress) and requeues them
func (r *requeuer) loop() {
	var job *models.Job
	var err error

	// At some point we may need an expnential back-off,
	// but for now keep it simple
	sleepBackOff := 1
	rateLimiter := time.NewTicker(DefaultTickerDuration)
	defer rateLimiter.Stop()

	logg.Info("Starting job requeuer")
	for {
		select {
		case <-r.stopChan:
			logg.Info("Stopping job requeuer")
			return
		case <-rateLimiter.C:
			job, err = r.nextJob()

			// If no stuck job found, sleep for 'sleepBackOff' minutes
			if errors.Is(err, gorm.ErrRecordNotFound) {
				rateLimiter.Reset(time.Duration(sleepBackOff) * time.Minute)
				continue
			}

			if err != nil {
				r.logError(err)
				rateLimiter.Reset(TickerDurationOnError)
				continue
			}

			r.logInfof("fetched job with id=%v, status_id=%v, job.claimed=%v",
				job.ID, job.JobStatusID, job.Claimed)

			r.requeue(job)
			rateLimiter.Reset(DefaultTickerDuration)
		}
	}
}

func (r *requeuer) nextJob() (*models.Job, error) {
	return models.LastJobLastUpdated(r.stuckAfterMins, models.IN_PROGRESS_JOB)
}

func (r *requeuer) requeue(job *models.Job) {
	jobStatus, err := models.FindJobStatus(models.ENQUEUED_JOB)
	if err != nil {
		logg.Error(err)
		return
	}

	update := make(map[string]interface{})
	update["claimed"] = false
	update["job_status_id"] = jobStatus.ID

	err = job.Update(update)
	if err != nil {
		r.logError(err)
		return
	}

	r.logInfof("job with id=%v requeued", job.ID)
}

func (r *requeuer) logInfof(template string, args ...interface{}) {
	prefix := colors.Yellow("[job requeuer] ")
	logg.Infof(prefix+template, args...)
}

func (r *requeuer) logError(args ...interface{}) {
	prefix := colors.Red("[job requeuer] ")
	logg.Error(append([]interface{}{prefix}, args...)...)
}
