package db

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Config DBconn config
type Config struct {
	DriverName string
	ConnInfo   string

	TableName string
}

// DBconn db 연결정보
type DBconn struct {
	DriverName string
	ConnInfo   string

	TableName string

	db *sql.DB
}

// Item 작업 기록 항목
type Item struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Project    string    `json:"project"`
	State      string    `json:"state"`
	Message    string    `json:"message"`
	Stopped    bool      `json:"stopped"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}

func (conn *DBconn) createTable() error {
	if _, err := conn.db.Exec(fmt.Sprintf(`CREATE TABLE %s (
		id CHAR(8) NOT NULL,
		kind CHAR(10) NOT NULL,
		project VARCHAR(120) NOT NULL,
		state CHAR(10) NOT NULL,
		message TEXT NOT NULL,
		stopped BOOLEAN NOT NULL,
		startedAt DATETIME NOT NULL,
		finishedAt DATETIME NOT NULL,
		PRIMARY KEY (id));`, conn.TableName)); err != nil {
		return err
	}

	return nil
}

func (conn *DBconn) existsTable() bool {
	rows, err := conn.db.Query(fmt.Sprintf("SELECT 1 FROM %s LIMIT 1;", conn.TableName))
	if err != nil {
		return false
	}
	rows.Close()

	return true
}

func (conn *DBconn) initTable() error {
	if !conn.existsTable() {
		log.Printf("Create DB table: %s", conn.TableName)
		return conn.createTable()
	}

	return nil
}

// Insert entry 삽입
func (conn *DBconn) Insert(item Item) error {
	_, err := conn.db.Exec(fmt.Sprintf(`INSERT INTO %s (
		id,
		kind,
		project,
		state,
		message,
		stopped,
		startedAt,
		finishedAt) VALUES (?, ?, ?, ?, ?, ?, ?, ?);`, conn.TableName),
		item.ID, item.Kind, item.Project, item.State, item.Message,
		item.Stopped, item.StartedAt, item.FinishedAt,
	)

	return err
}

// Get project 의 작업 기록 반환. project 가 비어있으면 전체
func (conn *DBconn) Get(project string, limit int) ([]Item, error) {
	query := fmt.Sprintf(`SELECT id, kind, project, state, message, stopped, startedAt, finishedAt
		FROM %s`, conn.TableName)
	args := []interface{}{}
	if project != "" {
		query += " WHERE project = ?"
		args = append(args, project)
	}
	query += " ORDER BY startedAt DESC LIMIT ?;"
	args = append(args, limit)

	rows, err := conn.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		if err := rows.Scan(
			&item.ID, &item.Kind, &item.Project, &item.State, &item.Message,
			&item.Stopped, &item.StartedAt, &item.FinishedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

// Delete project 의 작업 기록 삭제
func (conn *DBconn) Delete(project string) (int64, error) {
	res, err := conn.db.Exec(fmt.Sprintf("DELETE FROM %s WHERE project = ?;", conn.TableName), project)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}

// Destroy db connection 해제
func (conn *DBconn) Destroy() error {
	return conn.db.Close()
}

// New 새로운 db connection 생성
func New(cfg Config) (*DBconn, error) {
	db, err := sql.Open(cfg.DriverName, cfg.ConnInfo)
	if err != nil {
		return nil, err
	}

	conn := &DBconn{
		DriverName: cfg.DriverName,
		ConnInfo:   cfg.ConnInfo,
		TableName:  cfg.TableName,
		db:         db,
	}

	if err := conn.initTable(); err != nil {
		db.Close()
		return nil, err
	}

	return conn, nil
}
