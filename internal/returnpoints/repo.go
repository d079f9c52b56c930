package returnpoints

import (
	"context"
	"strings"

	"github.com/greencredits/greencredits-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListFilter narrows the return point directory.
type ListFilter struct {
	Chain  string
	Query  string
	Near   *Coordinates
	Offset int
	Limit  int
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64
	Lng float64
}

// Repository reads the return point directory.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to return point reads.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a return point.
func (r *Repository) FindByID(ctx context.Context, id uint) (*models.ReturnPoint, error) {
	var point models.ReturnPoint
	if err := r.db.WithContext(ctx).First(&point, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &point, nil
}

// Exists reports whether id names a return point.
func (r *Repository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ReturnPoint{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// List returns a filtered page and the unpaged total.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]models.ReturnPoint, int64, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.ReturnPoint{})
		if chain := strings.TrimSpace(filter.Chain); chain != "" {
			q = q.Where("LOWER(retailer) = ?", strings.ToLower(chain))
		}
		if term := strings.TrimSpace(filter.Query); term != "" {
			like := "%" + strings.ToLower(term) + "%"
			q = q.Where("(LOWER(name) LIKE ? OR LOWER(eircode) LIKE ? OR LOWER(retailer) LIKE ?)", like, like, like)
		}
		return q
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Distance and tiebreak share one expression; a second Order call would
	// replace the expression clause.
	q := scoped()
	if filter.Near != nil {
		q = q.Order(clause.OrderBy{Expression: clause.Expr{
			SQL:  "((lat - ?) * (lat - ?) + (lng - ?) * (lng - ?)), id ASC",
			Vars: []any{filter.Near.Lat, filter.Near.Lat, filter.Near.Lng, filter.Near.Lng},
		}})
	} else {
		q = q.Order("id ASC")
	}
	var rows []models.ReturnPoint
	if err := q.Offset(filter.Offset).Limit(filter.Limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
