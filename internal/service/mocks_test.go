package service

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"time"

	"github.com/avelhart/opsuite/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// stubTx runs the unit of work inline without a database
type stubTx struct{}

func (stubTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memFileStore keeps stored files in memory
type memFileStore struct {
	files map[string][]byte
	next  int
}

func newMemFileStore() *memFileStore {
	return &memFileStore{files: map[string][]byte{}}
}

func (s *memFileStore) Save(fileName string, r io.Reader) (string, int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}
	s.next++
	path := fileName + "#" + strconv.Itoa(s.next)
	s.files[path] = data
	return path, int64(len(data)), nil
}

func (s *memFileStore) Open(path string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.files[path])), nil
}

func (s *memFileStore) Delete(path string) error {
	delete(s.files, path)
	return nil
}

func (s *memFileStore) Exists(path string) bool {
	_, ok := s.files[path]
	return ok
}

// MockWorkflowRepository mocks the WorkflowRepository interface
type MockWorkflowRepository struct {
	mock.Mock
}

func (m *MockWorkflowRepository) Create(ctx context.Context, wf *domain.Workflow) error {
	args := m.Called(ctx, wf)
	return args.Error(0)
}

func (m *MockWorkflowRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workflow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Workflow), args.Error(1)
}

func (m *MockWorkflowRepository) List(ctx context.Context, activeOnly bool) ([]domain.Workflow, error) {
	args := m.Called(ctx, activeOnly)
	return args.Get(0).([]domain.Workflow), args.Error(1)
}

func (m *MockWorkflowRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

// MockApprovalRepository mocks the ApprovalRepository interface
type MockApprovalRepository struct {
	mock.Mock
}

func (m *MockApprovalRepository) Create(ctx context.Context, req *domain.ApprovalRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockApprovalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ApprovalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.ApprovalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalRepository) GetLiveByDocument(ctx context.Context, documentID uuid.UUID) (*domain.ApprovalRequest, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ApprovalRequest), args.Error(1)
}

func (m *MockApprovalRepository) Update(ctx context.Context, req *domain.ApprovalRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockApprovalRepository) AppendDecision(ctx context.Context, d *domain.ApprovalDecision) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockApprovalRepository) ListDecisions(ctx context.Context, requestID uuid.UUID) ([]domain.ApprovalDecision, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).([]domain.ApprovalDecision), args.Error(1)
}

// MockDocumentRepository mocks the DocumentRepository interface
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.Document, error) {
	args := m.Called(ctx, ownerID, limit, offset)
	return args.Get(0).([]domain.Document), args.Error(1)
}

func (m *MockDocumentRepository) Update(ctx context.Context, doc *domain.Document) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) SoftDelete(ctx context.Context, id uuid.UUID, now time.Time) error {
	args := m.Called(ctx, id, now)
	return args.Error(0)
}

func (m *MockDocumentRepository) AddVersion(ctx context.Context, v *domain.DocumentVersion) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockDocumentRepository) ListVersions(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentVersion, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).([]domain.DocumentVersion), args.Error(1)
}

func (m *MockDocumentRepository) CountVersions(ctx context.Context, documentID uuid.UUID) (int, error) {
	args := m.Called(ctx, documentID)
	return args.Int(0), args.Error(1)
}

func (m *MockDocumentRepository) CreateFolder(ctx context.Context, f *domain.Folder) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockDocumentRepository) GetFolder(ctx context.Context, id uuid.UUID) (*domain.Folder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Folder), args.Error(1)
}

func (m *MockDocumentRepository) ListFolders(ctx context.Context, ownerID uuid.UUID) ([]domain.Folder, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]domain.Folder), args.Error(1)
}

func (m *MockDocumentRepository) CreateTag(ctx context.Context, t *domain.Tag) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockDocumentRepository) GetTag(ctx context.Context, id uuid.UUID) (*domain.Tag, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tag), args.Error(1)
}

func (m *MockDocumentRepository) ListTags(ctx context.Context) ([]domain.Tag, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Tag), args.Error(1)
}

func (m *MockDocumentRepository) AttachTag(ctx context.Context, dt *domain.DocumentTag) error {
	args := m.Called(ctx, dt)
	return args.Error(0)
}

func (m *MockDocumentRepository) DetachTag(ctx context.Context, documentID, tagID uuid.UUID) error {
	args := m.Called(ctx, documentID, tagID)
	return args.Error(0)
}

func (m *MockDocumentRepository) ListDocumentTags(ctx context.Context, documentID uuid.UUID) ([]domain.Tag, error) {
	args := m.Called(ctx, documentID)
	return args.Get(0).([]domain.Tag), args.Error(1)
}

// MockProfileRepository mocks the ProfileRepository interface
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Create(ctx context.Context, p *domain.SchedulingProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.SchedulingProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SchedulingProfile), args.Error(1)
}

func (m *MockProfileRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SchedulingProfile, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.SchedulingProfile), args.Error(1)
}

// MockScheduleRepository mocks the ScheduleRepository interface
type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) Create(ctx context.Context, s *domain.Schedule) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]domain.Schedule, error) {
	args := m.Called(ctx, profileID)
	return args.Get(0).([]domain.Schedule), args.Error(1)
}

func (m *MockScheduleRepository) SetActive(ctx context.Context, id uuid.UUID, active bool, now time.Time) error {
	args := m.Called(ctx, id, active, now)
	return args.Error(0)
}

// MockAvailabilityRepository mocks the AvailabilityRepository interface
type MockAvailabilityRepository struct {
	mock.Mock
}

func (m *MockAvailabilityRepository) Create(ctx context.Context, av *domain.Availability) error {
	args := m.Called(ctx, av)
	return args.Error(0)
}

func (m *MockAvailabilityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Availability, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Availability), args.Error(1)
}

func (m *MockAvailabilityRepository) HasOverlapping(ctx context.Context, hostProfileID uuid.UUID, start, end time.Time) (bool, error) {
	args := m.Called(ctx, hostProfileID, start, end)
	return args.Bool(0), args.Error(1)
}

func (m *MockAvailabilityRepository) ListByProfile(ctx context.Context, hostProfileID uuid.UUID, from, to time.Time) ([]domain.Availability, error) {
	args := m.Called(ctx, hostProfileID, from, to)
	return args.Get(0).([]domain.Availability), args.Error(1)
}

func (m *MockAvailabilityRepository) GetSlot(ctx context.Context, id uuid.UUID) (*domain.TimeSlot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TimeSlot), args.Error(1)
}

func (m *MockAvailabilityRepository) GetSlotForUpdate(ctx context.Context, id uuid.UUID) (*domain.TimeSlot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TimeSlot), args.Error(1)
}

func (m *MockAvailabilityRepository) GetSlotOwner(ctx context.Context, slotID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, slotID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockAvailabilityRepository) UpdateSlotStatus(ctx context.Context, slotID uuid.UUID, from, to domain.SlotStatus) (bool, error) {
	args := m.Called(ctx, slotID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockAvailabilityRepository) ListAvailableSlots(ctx context.Context, hostProfileID uuid.UUID, from, to time.Time) ([]domain.TimeSlot, error) {
	args := m.Called(ctx, hostProfileID, from, to)
	return args.Get(0).([]domain.TimeSlot), args.Error(1)
}

func (m *MockAvailabilityRepository) ListSlotsByAvailability(ctx context.Context, availabilityID uuid.UUID) ([]domain.TimeSlot, error) {
	args := m.Called(ctx, availabilityID)
	return args.Get(0).([]domain.TimeSlot), args.Error(1)
}

// MockUserRepository mocks the UserRepository interface
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ListRoles(ctx context.Context) ([]domain.Role, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Role), args.Error(1)
}

func (m *MockUserRepository) GetRoleByName(ctx context.Context, name string) (*domain.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Role), args.Error(1)
}

func (m *MockUserRepository) AssignRole(ctx context.Context, ur *domain.UserRole) error {
	args := m.Called(ctx, ur)
	return args.Error(0)
}

func (m *MockUserRepository) RevokeRole(ctx context.Context, userID, roleID uuid.UUID) error {
	args := m.Called(ctx, userID, roleID)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserRoles(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockUserRepository) GetRolePermissions(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, roleID)
	return args.Get(0).([]string), args.Error(1)
}

// MockAppointmentRepository mocks the AppointmentRepository interface
type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) Create(ctx context.Context, a *domain.Appointment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) Update(ctx context.Context, a *domain.Appointment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAppointmentRepository) ListByProfile(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]domain.Appointment, error) {
	args := m.Called(ctx, profileID, limit, offset)
	return args.Get(0).([]domain.Appointment), args.Error(1)
}
