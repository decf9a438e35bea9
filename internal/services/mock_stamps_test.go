// Моки хранилищ для gomock, по форме совпадают с выводом mockgen.
// Файл ведется вручную: при изменении AccrualStorage или ResolverStorage
// его можно перегенерировать директивой go:generate из internal/interfaces.

package stamps

import (
	context "context"
	reflect "reflect"
	time "time"

	stamps "github.com/glkeru/loyalty/stamps/internal/models"
	gomock "go.uber.org/mock/gomock"
)

// MockAccrualStorage is a mock of AccrualStorage interface.
type MockAccrualStorage struct {
	ctrl     *gomock.Controller
	recorder *MockAccrualStorageMockRecorder
	isgomock struct{}
}

// MockAccrualStorageMockRecorder is the mock recorder for MockAccrualStorage.
type MockAccrualStorageMockRecorder struct {
	mock *MockAccrualStorage
}

// NewMockAccrualStorage creates a new mock instance.
func NewMockAccrualStorage(ctrl *gomock.Controller) *MockAccrualStorage {
	mock := &MockAccrualStorage{ctrl: ctrl}
	mock.recorder = &MockAccrualStorageMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockAccrualStorage) EXPECT() *MockAccrualStorageMockRecorder {
	return m.recorder
}

// CommitAccrual mocks base method.
func (m *MockAccrualStorage) CommitAccrual(ctx context.Context, acc stamps.Accrual) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "CommitAccrual", ctx, acc)
	ret0, _ := ret[0].(error)
	return ret0
}

// CommitAccrual indicates an expected call of CommitAccrual.
func (mr *MockAccrualStorageMockRecorder) CommitAccrual(ctx, acc any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "CommitAccrual", reflect.TypeOf((*MockAccrualStorage)(nil).CommitAccrual), ctx, acc)
}

// GetCardConfig mocks base method.
func (m *MockAccrualStorage) GetCardConfig(ctx context.Context) (stamps.CardConfig, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetCardConfig", ctx)
	ret0, _ := ret[0].(stamps.CardConfig)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetCardConfig indicates an expected call of GetCardConfig.
func (mr *MockAccrualStorageMockRecorder) GetCardConfig(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetCardConfig", reflect.TypeOf((*MockAccrualStorage)(nil).GetCardConfig), ctx)
}

// GetCustomer mocks base method.
func (m *MockAccrualStorage) GetCustomer(ctx context.Context, id string) (stamps.Customer, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetCustomer", ctx, id)
	ret0, _ := ret[0].(stamps.Customer)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetCustomer indicates an expected call of GetCustomer.
func (mr *MockAccrualStorageMockRecorder) GetCustomer(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetCustomer", reflect.TypeOf((*MockAccrualStorage)(nil).GetCustomer), ctx, id)
}

// GetCustomerTransactions mocks base method.
func (m *MockAccrualStorage) GetCustomerTransactions(ctx context.Context, customerId string) ([]stamps.Transaction, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetCustomerTransactions", ctx, customerId)
	ret0, _ := ret[0].([]stamps.Transaction)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetCustomerTransactions indicates an expected call of GetCustomerTransactions.
func (mr *MockAccrualStorageMockRecorder) GetCustomerTransactions(ctx, customerId any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetCustomerTransactions", reflect.TypeOf((*MockAccrualStorage)(nil).GetCustomerTransactions), ctx, customerId)
}

// MockResolverStorage is a mock of ResolverStorage interface.
type MockResolverStorage struct {
	ctrl     *gomock.Controller
	recorder *MockResolverStorageMockRecorder
	isgomock struct{}
}

// MockResolverStorageMockRecorder is the mock recorder for MockResolverStorage.
type MockResolverStorageMockRecorder struct {
	mock *MockResolverStorage
}

// NewMockResolverStorage creates a new mock instance.
func NewMockResolverStorage(ctrl *gomock.Controller) *MockResolverStorage {
	mock := &MockResolverStorage{ctrl: ctrl}
	mock.recorder = &MockResolverStorageMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockResolverStorage) EXPECT() *MockResolverStorageMockRecorder {
	return m.recorder
}

// GetCustomer mocks base method.
func (m *MockResolverStorage) GetCustomer(ctx context.Context, id string) (stamps.Customer, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetCustomer", ctx, id)
	ret0, _ := ret[0].(stamps.Customer)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetCustomer indicates an expected call of GetCustomer.
func (mr *MockResolverStorageMockRecorder) GetCustomer(ctx, id any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetCustomer", reflect.TypeOf((*MockResolverStorage)(nil).GetCustomer), ctx, id)
}

// GetCustomerByQRCode mocks base method.
func (m *MockResolverStorage) GetCustomerByQRCode(ctx context.Context, code string) (stamps.Customer, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetCustomerByQRCode", ctx, code)
	ret0, _ := ret[0].(stamps.Customer)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetCustomerByQRCode indicates an expected call of GetCustomerByQRCode.
func (mr *MockResolverStorageMockRecorder) GetCustomerByQRCode(ctx, code any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetCustomerByQRCode", reflect.TypeOf((*MockResolverStorage)(nil).GetCustomerByQRCode), ctx, code)
}

// RegisterScan mocks base method.
func (m *MockResolverStorage) RegisterScan(ctx context.Context, code string, now time.Time) (stamps.QRCode, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "RegisterScan", ctx, code, now)
	ret0, _ := ret[0].(stamps.QRCode)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// RegisterScan indicates an expected call of RegisterScan.
func (mr *MockResolverStorageMockRecorder) RegisterScan(ctx, code, now any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "RegisterScan", reflect.TypeOf((*MockResolverStorage)(nil).RegisterScan), ctx, code, now)
}
