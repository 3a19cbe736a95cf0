package data

import (
	"log"

	"github.com/harrison-roh/image-classification-wizard/wizardapp/constants"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/data/db"
	"github.com/harrison-roh/image-classification-wizard/wizardapp/job"
)

const driverName string = "mysql"

const defaultHistoryLimit = 100

// Manager 작업 기록을 관리
type Manager struct {
	Conn *db.DBconn
}

// Record 종료된 작업 저장
func (dm *Manager) Record(j job.Job) error {
	return dm.Conn.Insert(ToItem(j))
}

// ToItem job 을 db item 으로 변환
func ToItem(j job.Job) db.Item {
	return db.Item{
		ID:         j.ID,
		Kind:       string(j.Kind),
		Project:    j.Project,
		State:      string(j.State),
		Message:    j.Err,
		Stopped:    j.Stopping,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
	}
}

// History project 의 작업 기록 반환. project 가 비어있으면 전체
func (dm *Manager) History(project string, limit int) ([]db.Item, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return dm.Conn.Get(project, limit)
}

// Forget project 의 작업 기록 삭제
func (dm *Manager) Forget(project string) error {
	n, err := dm.Conn.Delete(project)
	if err != nil {
		return err
	}
	log.Printf("Delete %d job records of %s", n, project)

	return nil
}

// Destroy 자원 해제
func (dm *Manager) Destroy() {
	dm.Conn.Destroy()
}

// New data manager 생성
func New(connInfo string) (*Manager, error) {
	conn, err := db.New(db.Config{
		DriverName: driverName,
		ConnInfo:   connInfo,
		TableName:  constants.HistoryTable,
	})
	if err != nil {
		return nil, err
	}

	return &Manager{
		Conn: conn,
	}, nil
}
