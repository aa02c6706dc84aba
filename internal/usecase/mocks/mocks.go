// Package mocks provides testify mocks for the pipeline's collaborators.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ShadewG/auto-downloader/internal/domain/entity/caserecord"
	"github.com/ShadewG/auto-downloader/internal/domain/entity/linkset"
	"github.com/ShadewG/auto-downloader/internal/domain/service"
	"github.com/ShadewG/auto-downloader/internal/storage/types"
)

// MockRecordSource is a mock implementation of the RecordSource interface
type MockRecordSource struct {
	mock.Mock
}

// FindReady mocks the FindReady method
func (m *MockRecordSource) FindReady(ctx context.Context, limit int) ([]*caserecord.CaseRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*caserecord.CaseRecord), args.Error(1)
}

// SetStatus mocks the SetStatus method
func (m *MockRecordSource) SetStatus(ctx context.Context, pageID string, status caserecord.Status) error {
	args := m.Called(ctx, pageID, status)
	return args.Error(0)
}

// SetSharedLink mocks the SetSharedLink method
func (m *MockRecordSource) SetSharedLink(ctx context.Context, pageID, link string) error {
	args := m.Called(ctx, pageID, link)
	return args.Error(0)
}

// MockCaseStore is a mock implementation of the CaseStore interface
type MockCaseStore struct {
	mock.Mock
}

// EnsureFolder mocks the EnsureFolder method
func (m *MockCaseStore) EnsureFolder(ctx context.Context, name string) (types.Folder, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(types.Folder), args.Error(1)
}

// Upload mocks the Upload method
func (m *MockCaseStore) Upload(ctx context.Context, folder types.Folder, localPath string) (string, error) {
	args := m.Called(ctx, folder, localPath)
	return args.String(0), args.Error(1)
}

// SharedLink mocks the SharedLink method
func (m *MockCaseStore) SharedLink(ctx context.Context, folder types.Folder) (string, error) {
	args := m.Called(ctx, folder)
	return args.String(0), args.Error(1)
}

// MockFetcher is a mock implementation of the Fetcher interface
type MockFetcher struct {
	mock.Mock
}

// Fetch mocks the Fetch method
func (m *MockFetcher) Fetch(ctx context.Context, link linkset.Link, creds service.Credentials, destDir string) (string, string, error) {
	args := m.Called(ctx, link, creds, destDir)
	return args.String(0), args.String(1), args.Error(2)
}
