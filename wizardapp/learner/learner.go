// Package learner 외부 학습 서버(learn host)에 데이터셋 변환, 그래프 컴파일, 학습을 요청
package learner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/harrison-roh/image-classification-wizard/wizardapp/dataset"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/job"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/project"
)

const defaultPollInterval = time.Second

// Config learner 클라이언트 설정
type Config struct {
	LHost        string
	PollInterval time.Duration
	HTTPClient   *http.Client
}

// Client learn host 클라이언트
type Client struct {
	lHost        string
	pollInterval time.Duration
	httpClient   *http.Client
}

// PackageRequest 데이터셋 변환 요청
type PackageRequest struct {
	Config  *project.Config `json:"config"`
	Sources dataset.Paths   `json:"sources"`
	Outputs dataset.Paths   `json:"outputs"`
}

// CompileRequest 그래프 컴파일 요청
type CompileRequest struct {
	Config    *project.Config `json:"config"`
	GraphPath string          `json:"graphPath"`
}

// TrainRequest 학습 시작 요청
type TrainRequest struct {
	Config              *project.Config `json:"config"`
	ValidationBatchSize int             `json:"validationBatchSize"`
}

// 학습 서버가 보고하는 학습 상태
const (
	TrainRunning   = "running"
	TrainCompleted = "completed"
	TrainFailed    = "failed"
)

// TrainStatus 학습 진행 상태
type TrainStatus struct {
	State    string  `json:"state"`
	Epoch    int     `json:"epoch"`
	Step     int     `json:"step"`
	Accuracy float64 `json:"accuracy"`
	Cost     float64 `json:"cost"`
	Error    string  `json:"error,omitempty"`
}

// Response learn host 응답
type Response struct {
	Status string `json:"status"`
}

type httpError struct {
	Error string `json:"error"`
}

// New learner 클라이언트 생성
func New(c Config) *Client {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}

	return &Client{
		lHost:        c.LHost,
		pollInterval: c.PollInterval,
		httpClient:   c.HTTPClient,
	}
}

// Package sources 의 샘플을 outputs 경로의 학습 프레임워크 형식으로 변환
func (c *Client) Package(ctx context.Context, cfg *project.Config, sources, outputs dataset.Paths) error {
	if len(sources.Train) == 0 && len(sources.Validation) == 0 {
		return errors.New("No source dataset")
	}

	req := PackageRequest{
		Config:  cfg,
		Sources: sources,
		Outputs: outputs,
	}

	var res Response
	if err := c.do(ctx, http.MethodPost, c.url("datasets", cfg.Name), req, &res); err != nil {
		return fmt.Errorf("Fail to package dataset: %w", err)
	}
	log.Printf("Dataset packaged for %s: %s", cfg.Name, res.Status)

	return nil
}

// Compile 학습 기록으로부터 추론용 그래프를 생성
func (c *Client) Compile(ctx context.Context, cfg *project.Config, graphPath string) error {
	req := CompileRequest{
		Config:    cfg,
		GraphPath: graphPath,
	}

	var res Response
	if err := c.do(ctx, http.MethodPost, c.url("models", cfg.Name, "compile"), req, &res); err != nil {
		return fmt.Errorf("Fail to compile graph: %w", err)
	}
	log.Printf("Graph compiled for %s: %s", cfg.Name, res.Status)

	return nil
}

// Train 학습을 시작하고 종료될 때까지 상태를 확인. stop 이 설정되면 학습 서버에
// 중지를 요청하고, 학습 서버가 스스로 종료할 때까지 계속 기다린다
func (c *Client) Train(ctx context.Context, cfg *project.Config, stop *job.StopFlag) error {
	req := TrainRequest{
		Config:              cfg,
		ValidationBatchSize: cfg.EffectiveValidationBatchSize(),
	}

	var res Response
	if err := c.do(ctx, http.MethodPost, c.url("models", cfg.Name, "train"), req, &res); err != nil {
		return fmt.Errorf("Fail to start training: %w", err)
	}
	log.Printf("Training started for %s: %s", cfg.Name, res.Status)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	stopSent := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if stop != nil && stop.IsSet() && !stopSent {
			if err := c.do(ctx, http.MethodPut, c.url("models", cfg.Name, "train", "stop"), nil, nil); err != nil {
				log.Printf("Fail to request stop for %s: %s", cfg.Name, err)
			} else {
				stopSent = true
				log.Printf("Stop requested for %s", cfg.Name)
			}
		}

		var status TrainStatus
		if err := c.do(ctx, http.MethodGet, c.url("models", cfg.Name, "train"), nil, &status); err != nil {
			return fmt.Errorf("Fail to read training status: %w", err)
		}

		switch status.State {
		case TrainRunning:
			continue
		case TrainCompleted:
			log.Printf("Training completed for %s (epoch=%d, acc=%.4f, cost=%.4f)",
				cfg.Name, status.Epoch, status.Accuracy, status.Cost)
			return nil
		case TrainFailed:
			return fmt.Errorf("Training failed: %s", status.Error)
		default:
			return fmt.Errorf("Unknown training state: %s", status.State)
		}
	}
}

func (c *Client) url(elems ...string) string {
	u := fmt.Sprintf("http://%s", c.lHost)
	for _, e := range elems {
		u += "/" + url.PathEscape(e)
	}
	return u
}

func (c *Client) do(ctx context.Context, method, u string, body, out interface{}) error {
	var reader *bytes.Buffer
	if body != nil {
		j, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(j)
	} else {
		reader = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := ioutil.ReadAll(res.Body)
		var he httpError
		if json.Unmarshal(b, &he) == nil && he.Error != "" {
			return fmt.Errorf("%s (%d)", he.Error, res.StatusCode)
		}
		return fmt.Errorf("Unexpected status %d from %s", res.StatusCode, u)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(res.Body).Decode(out)
}
