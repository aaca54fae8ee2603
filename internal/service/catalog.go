package service

import (
	"context"
	"errors"
	"fmt"

	"edupay/internal/models"
	"edupay/internal/store"
)

// CatalogService reads the course catalog. Courses are immutable from this
// service's perspective.
type CatalogService struct {
	catalog CatalogStore
}

func NewCatalogService(catalog CatalogStore) *CatalogService {
	return &CatalogService{catalog: catalog}
}

func (c *CatalogService) ListCourses(ctx context.Context) ([]models.Course, error) {
	courses, err := c.catalog.GetCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, nil
}

func (c *CatalogService) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	course, err := c.catalog.GetCourseByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to load course: %w", err)
	}
	return course, nil
}
