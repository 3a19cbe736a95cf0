package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/category"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/constants"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/data"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/dataset"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/failure"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/job"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/network"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/project"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/wizard"
)

// APIs api 핸들러
type APIs struct {
	W *wizard.Wizard
	M *data.Manager
}

type pathRequest struct {
	Path string `json:"path"`
}

type inferRequest struct {
	Path      string   `json:"path"`
	Names     []string `json:"names"`
	Delimiter string   `json:"delimiter"`
}

// Register 라우트 등록
func (a *APIs) Register(r gin.IRouter) {
	projectsGroup := r.Group("/projects")
	{
		projectsGroup.GET("", a.ListProjects)
		projectsGroup.GET(":project", a.ShowProject)
		projectsGroup.POST(":project", a.OpenProject)
		projectsGroup.PUT(":project", a.UpdateProject)
		projectsGroup.DELETE(":project", a.DeleteProject)
		projectsGroup.DELETE(":project/history", a.ResetHistory)
		projectsGroup.GET(":project/datasets", a.ListDatasets)
		projectsGroup.DELETE(":project/datasets", a.ClearDataset)
		projectsGroup.POST(":project/datasets/:kind/:mode", a.AddDataset)
		projectsGroup.DELETE(":project/datasets/:kind/:mode/:index", a.RemoveDataset)
		projectsGroup.POST(":project/jobs/:kind", a.StartJob)
	}

	jobsGroup := r.Group("/jobs")
	{
		jobsGroup.GET("", a.ListJobs)
		jobsGroup.PUT("stop", a.StopJob)
	}

	r.GET("/networks", a.ListNetworks)

	categoriesGroup := r.Group("/categories")
	{
		categoriesGroup.GET("", a.ListCategories)
		categoriesGroup.POST("infer", a.InferCategory)
	}
}

// ListProjects 프로젝트 목록 반환
func (a *APIs) ListProjects(c *gin.Context) {
	projects, err := a.W.Projects()
	if err != nil {
		Error(c, http.StatusInternalServerError, err)
		return
	}

	active, _ := a.W.Active()
	c.JSON(http.StatusOK, gin.H{
		"projects": projects,
		"active":   active,
	})
}

// OpenProject 프로젝트 생성 또는 전환
func (a *APIs) OpenProject(c *gin.Context) {
	name := c.Param("project")
	_, decorate := c.GetQuery("decorate")

	cfg, created, err := a.W.Open(name, decorate)
	if err != nil {
		Fail(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, cfg)
}

// ShowProject 프로젝트 설정 반환
func (a *APIs) ShowProject(c *gin.Context) {
	if cfg, err := a.W.Get(c.Param("project")); err != nil {
		Fail(c, err)
	} else {
		c.JSON(http.StatusOK, cfg)
	}
}

// UpdateProject 프로젝트 설정 저장
func (a *APIs) UpdateProject(c *gin.Context) {
	var edit project.Config
	if err := c.ShouldBindJSON(&edit); err != nil {
		Error(c, http.StatusBadRequest, err)
		return
	}

	if cfg, err := a.W.Update(c.Param("project"), &edit); err != nil {
		Fail(c, err)
	} else {
		c.JSON(http.StatusOK, cfg)
	}
}

// DeleteProject 프로젝트 삭제
func (a *APIs) DeleteProject(c *gin.Context) {
	name := c.Param("project")
	if err := a.W.DeleteProject(name); err != nil {
		Fail(c, err)
		return
	}

	if a.M != nil {
		if err := a.M.Forget(name); err != nil {
			Error(c, http.StatusInternalServerError, err)
			return
		}
	}
	c.String(http.StatusOK, "OK")
}

// ResetHistory 학습 기록 삭제
func (a *APIs) ResetHistory(c *gin.Context) {
	if err := a.W.ResetHistory(c.Param("project")); err != nil {
		Fail(c, err)
	} else {
		c.String(http.StatusOK, "OK")
	}
}

// ClearDataset 변환 데이터셋 삭제
func (a *APIs) ClearDataset(c *gin.Context) {
	if err := a.W.ClearDataset(c.Param("project")); err != nil {
		Fail(c, err)
	} else {
		c.String(http.StatusOK, "OK")
	}
}

// ListDatasets 데이터셋 목록 반환
func (a *APIs) ListDatasets(c *gin.Context) {
	if snap, err := a.W.Datasets(c.Param("project")); err != nil {
		Fail(c, err)
	} else {
		c.JSON(http.StatusOK, snap)
	}
}

func bucket(c *gin.Context) (dataset.Kind, dataset.Mode, error) {
	kind, err := dataset.ParseKind(c.Param("kind"))
	if err != nil {
		return "", "", err
	}
	mode, err := dataset.ParseMode(c.Param("mode"))
	if err != nil {
		return "", "", err
	}
	return kind, mode, nil
}

// AddDataset 데이터셋 경로 추가
func (a *APIs) AddDataset(c *gin.Context) {
	kind, mode, err := bucket(c)
	if err != nil {
		Error(c, http.StatusBadRequest, err)
		return
	}

	var req pathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err)
		return
	}

	if res, err := a.W.AddDataset(c.Param("project"), kind, mode, req.Path); err != nil {
		Fail(c, err)
	} else {
		c.JSON(http.StatusOK, res)
	}
}

// RemoveDataset 데이터셋 경로 삭제
func (a *APIs) RemoveDataset(c *gin.Context) {
	kind, mode, err := bucket(c)
	if err != nil {
		Error(c, http.StatusBadRequest, err)
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		Error(c, http.StatusBadRequest, fmt.Errorf("Invalid index: %s", c.Param("index")))
		return
	}

	if snap, err := a.W.RemoveDataset(c.Param("project"), kind, mode, index); err != nil {
		Fail(c, err)
	} else {
		c.JSON(http.StatusOK, snap)
	}
}

// StartJob 작업 시작. kind 는 package, attach, compile, train 중 하나
func (a *APIs) StartJob(c *gin.Context) {
	name := c.Param("project")

	var (
		j   job.Job
		err error
	)
	switch kind := c.Param("kind"); kind {
	case "package":
		j, err = a.W.MakeDataset(name)
	case "attach":
		var req pathRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, err)
			return
		}
		j, err = a.W.AttachDataset(name, req.Path)
	case "compile":
		j, err = a.W.Compile(name)
	case "train":
		j, err = a.W.StartTraining(name)
	default:
		Error(c, http.StatusBadRequest, fmt.Errorf("Unknown job: %s", kind))
		return
	}

	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, j)
}

// ListJobs 실행 중인 작업과 마지막 작업 반환
func (a *APIs) ListJobs(c *gin.Context) {
	current, last := a.W.Jobs()
	res := gin.H{
		"current": current,
		"last":    last,
	}

	if a.M != nil {
		limit, _ := strconv.Atoi(c.Query("limit"))
		history, err := a.M.History(c.Query("project"), limit)
		if err != nil {
			Error(c, http.StatusInternalServerError, err)
			return
		}
		res["history"] = history
	}

	c.JSON(http.StatusOK, res)
}

// StopJob 실행 중인 학습 중지 요청
func (a *APIs) StopJob(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stopping": a.W.StopTraining(),
	})
}

// ListNetworks 선택 가능한 네트워크 구성 반환
func (a *APIs) ListNetworks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"cnnNetworks":       network.CNNs(),
		"recurrentNetworks": network.Recurrents(),
		"lossFunctions":     network.Losses(),
		"optimizers":        network.Optimizers(),
	})
}

// ListCategories 카탈로그 반환
func (a *APIs) ListCategories(c *gin.Context) {
	entries := category.Catalog()
	categories := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		categories = append(categories, gin.H{
			"category": e.Tag,
			"size":     e.Size(),
			"chars":    e.Chars(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
	})
}

// InferCategory 파일명 목록 또는 디렉토리로 카테고리 추론
func (a *APIs) InferCategory(c *gin.Context) {
	var req inferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, err)
		return
	}
	if req.Delimiter == "" {
		req.Delimiter = constants.DefaultLabelDelimiter
	}

	var (
		res category.Result
		err error
	)
	switch {
	case len(req.Names) > 0:
		res, err = category.InferNames(req.Names, req.Delimiter)
	case req.Path != "":
		res, err = category.Infer(req.Path, req.Delimiter)
	default:
		Error(c, http.StatusBadRequest, errors.New("Empty `names` and `path`"))
		return
	}

	if err != nil {
		Error(c, http.StatusUnprocessableEntity, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// StatusOf 에러 분류에 따른 http 상태 코드
func StatusOf(err error) int {
	switch {
	case errors.Is(err, job.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, project.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dataset.ErrIndexOutOfRange):
		return http.StatusBadRequest
	case errors.As(err, new(*project.ParseError)):
		return http.StatusInternalServerError
	case failure.IsValidation(err):
		return http.StatusBadRequest
	case failure.IsState(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Fail 에러 분류에 맞는 상태 코드로 응답
func Fail(c *gin.Context, err error) {
	Error(c, StatusOf(err), err)
}

// HTTPError api 에러 메시지
type HTTPError struct {
	Error string `json:"error"`
}

// Error api 에러를 담은 json 응답 생성
func Error(c *gin.Context, status int, err error) {
	c.JSON(status, HTTPError{
		Error: err.Error(),
	})
}
