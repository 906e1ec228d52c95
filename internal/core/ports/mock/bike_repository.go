package mock

import (
	context "context"
	reflect "reflect"
	time "time"

	domain "github.com/sm8ta/webike_bikeshop_inventory/internal/core/domain"
	gomock "go.uber.org/mock/gomock"
)

// MockBikeRepository is a mock of BikeRepository interface.
type MockBikeRepository struct {
	ctrl     *gomock.Controller
	recorder *MockBikeRepositoryMockRecorder
	isgomock struct{}
}

// MockBikeRepositoryMockRecorder is the mock recorder for MockBikeRepository.
type MockBikeRepositoryMockRecorder struct {
	mock *MockBikeRepository
}

// NewMockBikeRepository creates a new mock instance.
func NewMockBikeRepository(ctrl *gomock.Controller) *MockBikeRepository {
	mock := &MockBikeRepository{ctrl: ctrl}
	mock.recorder = &MockBikeRepositoryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockBikeRepository) EXPECT() *MockBikeRepositoryMockRecorder {
	return m.recorder
}

// CreateBike mocks base method.
func (m *MockBikeRepository) CreateBike(ctx context.Context, bike *domain.InventoryBike) (*domain.InventoryBike, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CreateBike", ctx, bike)
	ret0, _ := ret[0].(*domain.InventoryBike)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// CreateBike indicates an expected call of CreateBike.
func (mr *MockBikeRepositoryMockRecorder) CreateBike(ctx, bike any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CreateBike", reflect.TypeOf((*MockBikeRepository)(nil).CreateBike), ctx, bike)
}

// GetBikeByID mocks base method.
func (m *MockBikeRepository) GetBikeByID(ctx context.Context, id int64) (*domain.InventoryBike, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetBikeByID", ctx, id)
	ret0, _ := ret[0].(*domain.InventoryBike)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetBikeByID indicates an expected call of GetBikeByID.
func (mr *MockBikeRepositoryMockRecorder) GetBikeByID(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetBikeByID", reflect.TypeOf((*MockBikeRepository)(nil).GetBikeByID), ctx, id)
}

// ListBikes mocks base method.
func (m *MockBikeRepository) ListBikes(ctx context.Context, filter domain.BikeFilter) ([]*domain.InventoryBike, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListBikes", ctx, filter)
	ret0, _ := ret[0].([]*domain.InventoryBike)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListBikes indicates an expected call of ListBikes.
func (mr *MockBikeRepositoryMockRecorder) ListBikes(ctx, filter any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListBikes", reflect.TypeOf((*MockBikeRepository)(nil).ListBikes), ctx, filter)
}

// ListRefNumbers mocks base method.
func (m *MockBikeRepository) ListRefNumbers(ctx context.Context) ([]string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ListRefNumbers", ctx)
	ret0, _ := ret[0].([]string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// ListRefNumbers indicates an expected call of ListRefNumbers.
func (mr *MockBikeRepositoryMockRecorder) ListRefNumbers(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ListRefNumbers", reflect.TypeOf((*MockBikeRepository)(nil).ListRefNumbers), ctx)
}

// MarkBikeSold mocks base method.
func (m *MockBikeRepository) MarkBikeSold(ctx context.Context, id int64, sale domain.SaleRecord) (*domain.InventoryBike, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MarkBikeSold", ctx, id, sale)
	ret0, _ := ret[0].(*domain.InventoryBike)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// MarkBikeSold indicates an expected call of MarkBikeSold.
func (mr *MockBikeRepositoryMockRecorder) MarkBikeSold(ctx, id, sale any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MarkBikeSold", reflect.TypeOf((*MockBikeRepository)(nil).MarkBikeSold), ctx, id, sale)
}

// TombstoneBike mocks base method.
func (m *MockBikeRepository) TombstoneBike(ctx context.Context, id int64, at time.Time) (*domain.InventoryBike, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "TombstoneBike", ctx, id, at)
	ret0, _ := ret[0].(*domain.InventoryBike)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// TombstoneBike indicates an expected call of TombstoneBike.
func (mr *MockBikeRepositoryMockRecorder) TombstoneBike(ctx, id, at any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "TombstoneBike", reflect.TypeOf((*MockBikeRepository)(nil).TombstoneBike), ctx, id, at)
}

// UpdateBike mocks base method.
func (m *MockBikeRepository) UpdateBike(ctx context.Context, id int64, patch *domain.BikePatch) (*domain.InventoryBike, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "UpdateBike", ctx, id, patch)
	ret0, _ := ret[0].(*domain.InventoryBike)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// UpdateBike indicates an expected call of UpdateBike.
func (mr *MockBikeRepositoryMockRecorder) UpdateBike(ctx, id, patch any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "UpdateBike", reflect.TypeOf((*MockBikeRepository)(nil).UpdateBike), ctx, id, patch)
}
