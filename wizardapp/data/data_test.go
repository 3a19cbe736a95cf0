package data

import (
	"testing"
	"time"

	"github.com/harrison-roh/image-classification-wizard/wizardapp/job"
	"github.com/stretchr/testify/assert"
)

func TestToItem(t *testing.T) {
	started := time.Date(2020, 5, 1, 10, 0, 0, 0, time.UTC)
	j := job.Job{
		ID:         "0a1b2c3d",
		Kind:       job.Train,
		Project:    "captcha",
		State:      job.Failed,
		Err:        "train: loss diverged",
		Stopping:   true,
		StartedAt:  started,
		FinishedAt: started.Add(time.Hour),
	}

	item := ToItem(j)
	assert.Equal(t, "0a1b2c3d", item.ID)
	assert.Equal(t, "train", item.Kind)
	assert.Equal(t, "captcha", item.Project)
	assert.Equal(t, "Failed", item.State)
	assert.Equal(t, "train: loss diverged", item.Message)
	assert.True(t, item.Stopped)
	assert.Equal(t, time.Hour, item.FinishedAt.Sub(item.StartedAt))
}
