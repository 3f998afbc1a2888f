package mocks

import (
	"context"

	"filevault/internal/model"
	"filevault/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Create(ctx context.Context, callerID string, in service.CreateFileInput) (*model.File, error) {
	args := m.Called(ctx, callerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) Show(ctx context.Context, callerID, id string) (*model.File, error) {
	args := m.Called(ctx, callerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) List(ctx context.Context, callerID, parentID string, page int) ([]model.File, error) {
	args := m.Called(ctx, callerID, parentID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.File), args.Error(1)
}

func (m *MockFileService) SetVisibility(ctx context.Context, callerID, id string, public bool) (*model.File, error) {
	args := m.Called(ctx, callerID, id, public)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) Download(ctx context.Context, callerID, id string, width int) (*service.DownloadResult, error) {
	args := m.Called(ctx, callerID, id, width)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadResult), args.Error(1)
}
