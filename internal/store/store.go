// Package store persists the records of containers managed through coco, so
// the daemon knows which backend owns which container across restarts.
package store

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/xerrors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ipynbsrv/coco/internal/backend"
)

var ErrRecordNotFound = errors.New("container record not found")

// Record is a managed container. PK is coco's own identifier; BackendPK is
// the identifier the owning backend knows the container by.
type Record struct {
	PK        string `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;not null"`
	Backend   string `gorm:"not null"`
	BackendPK string `gorm:"not null"`
	Image     string
	Status    backend.Status `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r Record) Details() backend.Details {
	return backend.Details{
		backend.FieldPK:     r.PK,
		backend.FieldName:   r.Name,
		backend.FieldStatus: r.Status,
		backend.FieldImage:  r.Image,
		"backend":           r.Backend,
		"backend_pk":        r.BackendPK,
	}
}

type Store struct {
	db *gorm.DB
}

func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, xerrors.Errorf("Failed to open container store %q: %w", path, err)
	}

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, xerrors.Errorf("Failed to migrate container store %q: %w", path, err)
	}

	return &Store{db: db}, nil
}

// NewPK generates a primary key for a new record.
func NewPK() string {
	return uuid.NewString()
}

func (s *Store) Save(record Record) error {
	if err := s.db.Save(&record).Error; err != nil {
		return xerrors.Errorf("Failed to save container record %q: %w", record.PK, err)
	}
	return nil
}

func (s *Store) Get(pk string) (Record, error) {
	var record Record

	err := s.db.First(&record, "pk = ?", pk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, xerrors.Errorf("%q: %w", pk, ErrRecordNotFound)
	} else if err != nil {
		return Record{}, xerrors.Errorf("Failed to get container record %q: %w", pk, err)
	}

	return record, nil
}

func (s *Store) GetByName(name string) (Record, error) {
	var record Record

	err := s.db.First(&record, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, xerrors.Errorf("%q: %w", name, ErrRecordNotFound)
	} else if err != nil {
		return Record{}, xerrors.Errorf("Failed to get container record %q: %w", name, err)
	}

	return record, nil
}

func (s *Store) List() ([]Record, error) {
	var records []Record

	if err := s.db.Order("created_at").Find(&records).Error; err != nil {
		return nil, xerrors.Errorf("Failed to list container records: %w", err)
	}

	return records, nil
}

func (s *Store) SetStatus(pk string, status backend.Status) error {
	result := s.db.Model(&Record{}).Where("pk = ?", pk).Update("status", status)
	if result.Error != nil {
		return xerrors.Errorf("Failed to update container record %q: %w", pk, result.Error)
	} else if result.RowsAffected == 0 {
		return xerrors.Errorf("%q: %w", pk, ErrRecordNotFound)
	}
	return nil
}

func (s *Store) Delete(pk string) error {
	result := s.db.Delete(&Record{}, "pk = ?", pk)
	if result.Error != nil {
		return xerrors.Errorf("Failed to delete container record %q: %w", pk, result.Error)
	} else if result.RowsAffected == 0 {
		return xerrors.Errorf("%q: %w", pk, ErrRecordNotFound)
	}
	return nil
}

func (s *Store) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}
