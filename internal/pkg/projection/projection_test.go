package projection_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomarket/internal/domain"
	"gomarket/internal/pkg/projection"
)

// TestMoney_RoundTrip testa 12.50 -> 12.5 -> "12.50".
func TestMoney_RoundTrip(t *testing.T) {
	v := projection.Money(decimal.RequireFromString("12.50"))
	assert.Equal(t, 12.5, v)
	assert.Equal(t, "12.50", projection.MoneyString(v))

	assert.Equal(t, "199.90", projection.MoneyString(projection.Money(decimal.RequireFromString("199.9"))))
	assert.Equal(t, "0.00", projection.MoneyString(projection.Money(decimal.Zero)))
}

func TestTimestamp(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	ts := time.Date(2024, 5, 10, 9, 30, 0, 0, loc)

	assert.Equal(t, "2024-05-10T12:30:00Z", projection.Timestamp(ts))
	assert.Nil(t, projection.OptionalTimestamp(nil))
	require.NotNil(t, projection.OptionalTimestamp(&ts))
	assert.Equal(t, "2024-05-10T12:30:00Z", *projection.OptionalTimestamp(&ts))
}

// TestAverageRating testa arredondamento em uma casa e amostra vazia.
func TestAverageRating(t *testing.T) {
	avg := projection.AverageRating(nil)
	assert.Equal(t, 0.0, avg)
	assert.False(t, math.IsNaN(avg))

	reviews := []domain.Review{{Rating: 5}, {Rating: 4}, {Rating: 4}}
	assert.Equal(t, 4.3, projection.AverageRating(reviews))

	assert.Equal(t, 3.0, projection.AverageRating([]domain.Review{{Rating: 3}}))
}

// TestProduct_AbsentRelationsAreNull testa que vendedor sem perfil e categoria ausente viram null.
func TestProduct_AbsentRelationsAreNull(t *testing.T) {
	p := domain.Product{
		ID:     "p-1",
		Name:   "Sérum Vitamina C",
		Price:  decimal.RequireFromString("89.90"),
		Status: domain.ProductActive,
		Seller: &domain.SellerRef{ID: "s-1", Name: "Ana"},
	}

	v := projection.Product(p)

	assert.Nil(t, v.Category)
	require.NotNil(t, v.Seller)
	assert.Nil(t, v.Seller.Profile)
	assert.Equal(t, 89.9, v.Price)
	assert.Equal(t, []string{}, v.Tags)

	raw, err := json.Marshal(v)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Nil(t, decoded["category"])
	assert.Nil(t, decoded["seller"].(map[string]interface{})["profile"])
	assert.Equal(t, []interface{}{}, decoded["skinTypes"])
	assert.NotContains(t, decoded, "reviews")
}

func TestProductDetail_IncludesReviewSample(t *testing.T) {
	p := domain.Product{
		ID:       "p-1",
		Category: &domain.CategoryRef{ID: "c-1", Name: "Skincare", Slug: "skincare"},
		Seller: &domain.SellerRef{
			ID:      "s-1",
			Profile: &domain.SellerProfile{StoreName: "Loja da Ana"},
		},
		Reviews: []domain.Review{{ID: "r-1", Rating: 5}, {ID: "r-2", Rating: 2}},
	}

	v := projection.ProductDetail(p)

	assert.Len(t, v.Reviews, 2)
	assert.Equal(t, 3.5, v.AverageRating)
	assert.Equal(t, "Loja da Ana", v.Seller.Profile.StoreName)
	assert.Equal(t, "skincare", v.Category.Slug)
}

func TestCourse(t *testing.T) {
	published := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	c := domain.Course{
		ID:          "c-1",
		Title:       "Go do Zero",
		Level:       domain.LevelBeginner,
		Price:       decimal.RequireFromString("199.90"),
		Status:      domain.CoursePublished,
		PublishedAt: &published,
		LessonCount: 12,
	}

	v := projection.Course(c)

	assert.Equal(t, 199.9, v.Price)
	assert.Equal(t, "BEGINNER", v.Level)
	assert.Equal(t, 12, v.LessonCount)
	assert.Nil(t, v.Instructor)
	require.NotNil(t, v.PublishedAt)
	assert.Equal(t, "2024-01-02T03:04:05Z", *v.PublishedAt)

	draft := projection.Course(domain.Course{Status: domain.CourseDraft})
	assert.Nil(t, draft.PublishedAt)
}

func TestUser_NeverExposesPasswordHash(t *testing.T) {
	u := domain.User{ID: "u-1", Email: "a@b.com", PasswordHash: "$2a$10$hash", Role: domain.RoleCustomer, Status: domain.UserActive}

	raw, err := json.Marshal(projection.User(u))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hash")
	assert.Contains(t, string(raw), `"lastLoginAt":null`)
}

func TestList_NeverNil(t *testing.T) {
	out := projection.List([]domain.Product(nil), projection.Product)
	assert.NotNil(t, out)
	assert.Len(t, out, 0)
}
