package service

import (
	"context"
	"strings"

	"dotodo/internal/model"
	"dotodo/internal/repository"
)

// SectionService provides helpers around sections.
type SectionService struct {
	sectionRepo *repository.SectionRepository
	taskRepo    *repository.TaskRepository
}

func NewSectionService(sectionRepo *repository.SectionRepository, taskRepo *repository.TaskRepository) *SectionService {
	return &SectionService{sectionRepo: sectionRepo, taskRepo: taskRepo}
}

func (s *SectionService) List(ctx context.Context, user *model.User) ([]model.Section, error) {
	return s.sectionRepo.ListByUser(ctx, user.ID)
}

// Create validates the title and adds a section.
func (s *SectionService) Create(ctx context.Context, user *model.User, title, color string) (*model.Section, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if color == "" {
		color = "gray"
	}
	return s.sectionRepo.GetOrCreate(ctx, user.ID, title, color)
}

// Delete removes a section; its tasks fall back to the General group.
func (s *SectionService) Delete(ctx context.Context, user *model.User, sectionID uint) error {
	if err := s.taskRepo.DetachSection(ctx, user.ID, sectionID); err != nil {
		return err
	}
	return s.sectionRepo.Delete(ctx, user.ID, sectionID)
}
