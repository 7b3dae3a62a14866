package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gorm.io/gorm"

	"complianceos/config"
	"complianceos/models"
	"complianceos/pkg/logger"
	"complianceos/repository"
)

// ErrDataSourceNotFound is returned for operations on unknown data source ids.
var ErrDataSourceNotFound = errors.New("data source not found")

// DataSourceService manages the registry of target data sources. Activation
// is exclusive: making one source active deactivates every other.
type DataSourceService interface {
	Create(ds *models.DataSource) error
	List() ([]models.DataSource, error)
	UploadCSV(name, filename string, src io.Reader) (*models.DataSource, error)
	Activate(id uint) (*models.DataSource, error)
	Delete(id uint) error
}

type dataSourceService struct {
	dsRepo    repository.DataSourceRepository
	uploadDir string
}

// NewDataSourceService creates a new data source service instance.
func NewDataSourceService() DataSourceService {
	return &dataSourceService{
		dsRepo:    repository.NewDataSourceRepository(),
		uploadDir: config.Cfg.UploadDir,
	}
}

func (s *dataSourceService) Create(ds *models.DataSource) error {
	ds.IsActive = false
	if err := s.dsRepo.Create(nil, ds); err != nil {
		return fmt.Errorf("failed to create data source: %w", err)
	}
	logger.Infof("Created data source %q (%s)", ds.Name, ds.Kind)
	return nil
}

func (s *dataSourceService) List() ([]models.DataSource, error) {
	return s.dsRepo.GetAll(nil)
}

// UploadCSV stores the uploaded file and registers it as a csv-kind source.
// The ingested table identity is fixed by the stored file name from here on.
func (s *dataSourceService) UploadCSV(name, filename string, src io.Reader) (*models.DataSource, error) {
	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	path := filepath.Join(s.uploadDir, filepath.Base(filename))
	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to store CSV file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	ds := &models.DataSource{
		Name:    name,
		Kind:    models.SourceKindCSV,
		Locator: path,
	}
	if err := s.dsRepo.Create(nil, ds); err != nil {
		return nil, fmt.Errorf("failed to register CSV data source: %w", err)
	}

	logger.Infof("Uploaded CSV data source %q at %s", name, path)
	return ds, nil
}

func (s *dataSourceService) Activate(id uint) (*models.DataSource, error) {
	if err := s.dsRepo.Activate(nil, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDataSourceNotFound
		}
		return nil, fmt.Errorf("failed to activate data source %d: %w", id, err)
	}
	ds, err := s.dsRepo.GetByID(nil, id)
	if err != nil {
		return nil, err
	}
	logger.Infof("Data source %q (%d) is now active", ds.Name, ds.ID)
	return ds, nil
}

func (s *dataSourceService) Delete(id uint) error {
	if _, err := s.dsRepo.GetByID(nil, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDataSourceNotFound
		}
		return err
	}
	if err := s.dsRepo.Delete(nil, id); err != nil {
		return fmt.Errorf("failed to delete data source %d: %w", id, err)
	}
	logger.Infof("Deleted data source %d", id)
	return nil
}
