package courseservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gomarket/internal/domain"
	apperror "gomarket/internal/errors"
	"gomarket/internal/pkg/listing"
	"gomarket/internal/pkg/logger"
	"gomarket/internal/service/courseservice"
)

type MockCourseRepository struct {
	mock.Mock
}

func (m *MockCourseRepository) List(ctx context.Context, q domain.ListingQuery) (domain.Page[domain.Course], error) {
	args := m.Called(ctx, q)
	return args.Get(0).(domain.Page[domain.Course]), args.Error(1)
}

func (m *MockCourseRepository) FindByID(ctx context.Context, id string) (domain.Course, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Course), args.Error(1)
}

func (m *MockCourseRepository) Save(ctx context.Context, c domain.Course) (domain.Course, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(domain.Course), args.Error(1)
}

func (m *MockCourseRepository) Update(ctx context.Context, c domain.Course) (domain.Course, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(domain.Course), args.Error(1)
}

func (m *MockCourseRepository) UpdateStatus(ctx context.Context, id string, status domain.CourseStatus, at time.Time) error {
	return m.Called(ctx, id, status, at).Error(0)
}

var (
	instructor = domain.Identity{UserID: "inst-1", Role: domain.RoleInstructor}
	admin      = domain.Identity{UserID: "admin-1", Role: domain.RoleAdmin}
)

func newService(repo *MockCourseRepository) *courseservice.Service {
	return courseservice.NewService(repo, logger.NewLogger("debug"), 0)
}

func validInput() domain.CourseInput {
	return domain.CourseInput{
		CategoryID: uuid.NewString(),
		Title:      "Introdução à Programação",
		Level:      "beginner",
		Price:      "0",
		Tags:       []string{"Go"},
	}
}

func TestList_PublicForcesPublished(t *testing.T) {
	mockRepo := new(MockCourseRepository)
	svc := newService(mockRepo)

	mockRepo.On("List", mock.Anything, mock.MatchedBy(func(q domain.ListingQuery) bool {
		return q.Limit == 12 && q.Predicate.Conditions[0].Value == "PUBLISHED"
	})).Return(domain.Page[domain.Course]{Items: []domain.Course{}}, nil).Once()

	_, err := svc.List(context.Background(), domain.Anonymous, courseservice.ListRequest{
		Page: listing.PageParams{Page: 1, Limit: 12},
		Sort: listing.CourseSort.Default,
	})
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestCreate_SlugFromTitle(t *testing.T) {
	mockRepo := new(MockCourseRepository)
	svc := newService(mockRepo)

	var saved domain.Course
	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("domain.Course")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(domain.Course) }).
		Return(domain.Course{ID: "co-1"}, nil).Once()
	mockRepo.On("FindByID", mock.Anything, "co-1").Return(domain.Course{ID: "co-1"}, nil).Once()

	_, err := svc.Create(context.Background(), instructor, validInput())

	require.NoError(t, err)
	assert.Equal(t, "introducao-a-programacao", saved.Slug)
	assert.Equal(t, domain.CourseDraft, saved.Status)
	assert.Equal(t, domain.LevelBeginner, saved.Level)
	assert.Equal(t, []string{"go"}, saved.Tags)
	mockRepo.AssertExpectations(t)
}

func TestCreate_SlugCollisionGetsSuffix(t *testing.T) {
	mockRepo := new(MockCourseRepository)
	svc := newService(mockRepo)

	var slugs []string
	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("domain.Course")).
		Run(func(args mock.Arguments) { slugs = append(slugs, args.Get(1).(domain.Course).Slug) }).
		Return(domain.Course{}, apperror.NewConflictError("slug")).Once()
	mockRepo.On("Save", mock.Anything, mock.AnythingOfType("domain.Course")).
		Run(func(args mock.Arguments) { slugs = append(slugs, args.Get(1).(domain.Course).Slug) }).
		Return(domain.Course{ID: "co-2"}, nil).Once()
	mockRepo.On("FindByID", mock.Anything, "co-2").Return(domain.Course{ID: "co-2"}, nil).Once()

	_, err := svc.Create(context.Background(), instructor, validInput())

	require.NoError(t, err)
	require.Len(t, slugs, 2)
	assert.Equal(t, "introducao-a-programacao", slugs[0])
	assert.Regexp(t, `^introducao-a-programacao-[0-9a-f]{8}$`, slugs[1])
}

func TestCreate_RejectsInvalidLevel(t *testing.T) {
	svc := newService(new(MockCourseRepository))

	in := validInput()
	in.Level = "expert"
	_, err := svc.Create(context.Background(), instructor, in)
	assert.IsType(t, &apperror.ValidationError{}, err)

	in = validInput()
	in.Price = "12345678901.00"
	_, err = svc.Create(context.Background(), instructor, in)
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = svc.Create(context.Background(), domain.Identity{UserID: "c", Role: domain.RoleCustomer}, validInput())
	assert.IsType(t, &apperror.ForbiddenError{}, err)
}

func TestChangeStatus_PublishSetsPublishedAt(t *testing.T) {
	mockRepo := new(MockCourseRepository)
	svc := newService(mockRepo)

	mockRepo.On("FindByID", mock.Anything, "co-1").
		Return(domain.Course{ID: "co-1", InstructorID: "inst-1", Status: domain.CourseDraft}, nil)
	mockRepo.On("UpdateStatus", mock.Anything, "co-1", domain.CoursePublished, mock.Anything).Return(nil).Once()

	c, err := svc.ChangeStatus(context.Background(), instructor, "co-1", "published")

	require.NoError(t, err)
	assert.Equal(t, domain.CoursePublished, c.Status)
	assert.NotNil(t, c.PublishedAt)

	_, err = svc.ChangeStatus(context.Background(), instructor, "co-1", "ARCHIVED")
	assert.IsType(t, &apperror.BusinessRuleError{}, err)
	mockRepo.AssertExpectations(t)
}

func TestGet_DraftVisibleToOwnerAndAdmin(t *testing.T) {
	mockRepo := new(MockCourseRepository)
	svc := newService(mockRepo)

	mockRepo.On("FindByID", mock.Anything, "co-1").
		Return(domain.Course{ID: "co-1", InstructorID: "inst-1", Status: domain.CourseDraft}, nil)

	_, err := svc.Get(context.Background(), domain.Anonymous, "co-1")
	assert.True(t, apperror.IsNotFound(err))

	_, err = svc.Get(context.Background(), instructor, "co-1")
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), admin, "co-1")
	assert.NoError(t, err)
}
