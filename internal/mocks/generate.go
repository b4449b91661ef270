// Package mocks provides mock implementations for testing the session layer.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the ports interfaces. The mocks are generated using go:generate directives.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockStore := mocks.NewMockMirrorStore(ctrl)
//	mockStore.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
package mocks

// Generate mock for MirrorStore interface from internal/ports package.
// This creates MockMirrorStore with methods for all MirrorStore interface
// methods: Save, Get, Delete
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=mirror_store_mock.go github.com/nimbusbank/bankview/internal/ports MirrorStore
