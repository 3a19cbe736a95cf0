package learner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/dataset"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/job"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 학습 서버 흉내. 중지 요청을 받은 뒤 두 번째 상태 조회에서 completed 를 보고한다
type fakeLearnHost struct {
	mutex      sync.Mutex
	packaged   *PackageRequest
	compiled   *CompileRequest
	trainReq   *TrainRequest
	stopCalls  int
	polls      int
	pollsAfter int
	failTrain  bool
}

func (f *fakeLearnHost) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	r.POST("/datasets/:project", func(c *gin.Context) {
		var req PackageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		f.mutex.Lock()
		f.packaged = &req
		f.mutex.Unlock()
		c.JSON(http.StatusOK, Response{Status: "packaged"})
	})

	r.POST("/models/:project/compile", func(c *gin.Context) {
		var req CompileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if c.Param("project") == "broken" {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no checkpoint"})
			return
		}
		f.mutex.Lock()
		f.compiled = &req
		f.mutex.Unlock()
		c.JSON(http.StatusOK, Response{Status: "compiled"})
	})

	r.POST("/models/:project/train", func(c *gin.Context) {
		var req TrainRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		f.mutex.Lock()
		f.trainReq = &req
		f.mutex.Unlock()
		c.JSON(http.StatusAccepted, Response{Status: "started"})
	})

	r.GET("/models/:project/train", func(c *gin.Context) {
		f.mutex.Lock()
		defer f.mutex.Unlock()

		f.polls++
		if f.failTrain {
			c.JSON(http.StatusOK, TrainStatus{State: TrainFailed, Error: "nan loss"})
			return
		}
		if f.stopCalls > 0 {
			f.pollsAfter++
			if f.pollsAfter >= 2 {
				c.JSON(http.StatusOK, TrainStatus{State: TrainCompleted, Epoch: 3, Accuracy: 0.5})
				return
			}
		}
		c.JSON(http.StatusOK, TrainStatus{State: TrainRunning, Epoch: 1})
	})

	r.PUT("/models/:project/train/stop", func(c *gin.Context) {
		f.mutex.Lock()
		f.stopCalls++
		f.mutex.Unlock()
		c.JSON(http.StatusOK, Response{Status: "stopping"})
	})

	return r
}

func newTestClient(t *testing.T, f *fakeLearnHost) *Client {
	server := httptest.NewServer(f.router())
	t.Cleanup(server.Close)

	return New(Config{
		LHost:        strings.TrimPrefix(server.URL, "http://"),
		PollInterval: time.Millisecond,
	})
}

func TestPackage(t *testing.T) {
	f := &fakeLearnHost{}
	c := newTestClient(t, f)
	cfg := project.Default("p")

	err := c.Package(context.Background(), cfg,
		dataset.Paths{Train: []string{"/samples/t"}},
		dataset.Paths{Train: []string{"projects/p/dataset/train.0.tfrecords"}})
	require.NoError(t, err)

	f.mutex.Lock()
	packaged := f.packaged
	f.mutex.Unlock()
	require.NotNil(t, packaged)
	assert.Equal(t, []string{"/samples/t"}, packaged.Sources.Train)
	assert.Equal(t, "p", packaged.Config.Name)

	err = c.Package(context.Background(), cfg, dataset.Paths{}, dataset.Paths{})
	assert.Error(t, err)
}

func TestCompile(t *testing.T) {
	f := &fakeLearnHost{}
	c := newTestClient(t, f)

	require.NoError(t, c.Compile(context.Background(), project.Default("p"), "projects/p/out/graph/p.pb"))
	f.mutex.Lock()
	compiled := f.compiled
	f.mutex.Unlock()
	require.NotNil(t, compiled)
	assert.Equal(t, "projects/p/out/graph/p.pb", compiled.GraphPath)

	err := c.Compile(context.Background(), project.Default("broken"), "x.pb")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no checkpoint")
}

func TestTrainStopsCooperatively(t *testing.T) {
	f := &fakeLearnHost{}
	c := newTestClient(t, f)

	var stop job.StopFlag
	done := make(chan error, 1)
	go func() {
		done <- c.Train(context.Background(), project.Default("p"), &stop)
	}()

	// 몇 번 상태를 확인한 뒤 중지 요청
	require.Eventually(t, func() bool {
		f.mutex.Lock()
		defer f.mutex.Unlock()
		return f.polls >= 3
	}, 5*time.Second, time.Millisecond)
	stop.Set()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("training did not finish")
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()
	assert.Equal(t, 1, f.stopCalls)
	assert.Equal(t, 300, f.trainReq.ValidationBatchSize)
}

func TestTrainFailure(t *testing.T) {
	f := &fakeLearnHost{failTrain: true}
	c := newTestClient(t, f)

	err := c.Train(context.Background(), project.Default("p"), &job.StopFlag{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nan loss")
}

func TestTrainContextCanceled(t *testing.T) {
	f := &fakeLearnHost{}
	c := newTestClient(t, f)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.Train(ctx, project.Default("p"), &job.StopFlag{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
