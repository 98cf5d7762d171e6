// store/gorm_postgresql.go
package store

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/partyserver/game"
	"github.com/wfunc/partyserver/models"
)

// GormPostgreSQL serves the catalog from Postgres through GORM.
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL connects, migrates the questions table, and seeds the
// embedded catalog into an empty one.
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	gormLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.GormQuestion{}); err != nil {
		return nil, err
	}
	if err := seedGormDefaults(db); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// seedGormDefaults fills an empty table with the embedded catalog.
// Operator-curated tables are left alone.
func seedGormDefaults(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.GormQuestion{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	rows := make([]models.GormQuestion, 0)
	for _, q := range game.DefaultQuestions() {
		rows = append(rows, models.NewGormQuestion(q))
	}
	return db.CreateInBatches(rows, 100).Error
}

// Load reads the full catalog in insertion order.
func (p *GormPostgreSQL) Load(ctx context.Context) ([]game.Question, error) {
	var rows []models.GormQuestion
	if err := p.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoQuestions
	}

	questions := make([]game.Question, 0, len(rows))
	for i := range rows {
		questions = append(questions, rows[i].Question())
	}
	return questions, nil
}

func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
