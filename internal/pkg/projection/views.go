package projection

import "gomarket/internal/domain"

// CategoryView é a categoria resumida dentro de um item.
type CategoryView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ReviewView é uma avaliação exibida no detalhe.
type ReviewView struct {
	ID         string `json:"id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
	AuthorName string `json:"authorName"`
	CreatedAt  string `json:"createdAt"`
}

// SellerProfileView é o perfil público da loja.
type SellerProfileView struct {
	StoreName string `json:"storeName"`
	LogoURL   string `json:"logoUrl"`
}

// SellerView é o vendedor resumido dentro do produto.
type SellerView struct {
	ID      string             `json:"id"`
	Name    string             `json:"name"`
	Profile *SellerProfileView `json:"profile"`
}

// ProductView é a representação pública de um produto.
type ProductView struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Brand         string        `json:"brand"`
	Price         float64       `json:"price" example:"12.5"`
	Stock         int           `json:"stock"`
	SkinTypes     []string      `json:"skinTypes"`
	Tags          []string      `json:"tags"`
	Images        []string      `json:"images"`
	Status        string        `json:"status" example:"ACTIVE"`
	AverageRating float64       `json:"averageRating"`
	Category      *CategoryView `json:"category"`
	Seller        *SellerView   `json:"seller"`
	Reviews       []ReviewView  `json:"reviews,omitempty"`
	CreatedAt     string        `json:"createdAt"`
	UpdatedAt     string        `json:"updatedAt"`
}

// InstructorView é o instrutor resumido dentro do curso.
type InstructorView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Headline  *string `json:"headline"`
	AvatarURL *string `json:"avatarUrl"`
}

// CourseView é a representação pública de um curso.
type CourseView struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Slug          string          `json:"slug"`
	Description   string          `json:"description"`
	Level         string          `json:"level" example:"BEGINNER"`
	Price         float64         `json:"price" example:"199.9"`
	Tags          []string        `json:"tags"`
	Status        string          `json:"status" example:"PUBLISHED"`
	LessonCount   int             `json:"lessonCount"`
	AverageRating float64         `json:"averageRating"`
	Category      *CategoryView   `json:"category"`
	Instructor    *InstructorView `json:"instructor"`
	Reviews       []ReviewView    `json:"reviews,omitempty"`
	PublishedAt   *string         `json:"publishedAt"`
	CreatedAt     string          `json:"createdAt"`
	UpdatedAt     string          `json:"updatedAt"`
}

// UserView é o usuário exposto pela API (sem o hash da senha).
type UserView struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	Status      string  `json:"status"`
	LastLoginAt *string `json:"lastLoginAt"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// EnrollmentView é uma matrícula com o curso e o progresso.
type EnrollmentView struct {
	ID         string                 `json:"id"`
	CourseID   string                 `json:"courseId"`
	EnrolledAt string                 `json:"enrolledAt"`
	Course     *CourseView            `json:"course"`
	Progress   *domain.CourseProgress `json:"progress"`
}

// CategoryListView é a categoria completa da listagem de categorias.
type CategoryListView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Slug      string  `json:"slug"`
	ParentID  *string `json:"parentId"`
	CreatedAt string  `json:"createdAt"`
}

// Product projeta um produto de listagem (sem a amostra de avaliações).
func Product(p domain.Product) ProductView {
	return ProductView{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Brand:         p.Brand,
		Price:         Money(p.Price),
		Stock:         p.Stock,
		SkinTypes:     orEmpty(p.SkinTypes),
		Tags:          orEmpty(p.Tags),
		Images:        orEmpty(p.Images),
		Status:        string(p.Status),
		AverageRating: AverageRating(p.Reviews),
		Category:      category(p.Category),
		Seller:        seller(p.Seller),
		CreatedAt:     Timestamp(p.CreatedAt),
		UpdatedAt:     Timestamp(p.UpdatedAt),
	}
}

// ProductDetail projeta o produto incluindo a amostra de avaliações.
func ProductDetail(p domain.Product) ProductView {
	v := Product(p)
	v.Reviews = List(p.Reviews, review)
	return v
}

// Course projeta um curso de listagem.
func Course(c domain.Course) CourseView {
	return CourseView{
		ID:            c.ID,
		Title:         c.Title,
		Slug:          c.Slug,
		Description:   c.Description,
		Level:         string(c.Level),
		Price:         Money(c.Price),
		Tags:          orEmpty(c.Tags),
		Status:        string(c.Status),
		LessonCount:   c.LessonCount,
		AverageRating: AverageRating(c.Reviews),
		Category:      category(c.Category),
		Instructor:    instructor(c.Instructor),
		PublishedAt:   OptionalTimestamp(c.PublishedAt),
		CreatedAt:     Timestamp(c.CreatedAt),
		UpdatedAt:     Timestamp(c.UpdatedAt),
	}
}

// CourseDetail projeta o curso incluindo a amostra de avaliações.
func CourseDetail(c domain.Course) CourseView {
	v := Course(c)
	v.Reviews = List(c.Reviews, review)
	return v
}

// User projeta um usuário.
func User(u domain.User) UserView {
	return UserView{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        string(u.Role),
		Status:      string(u.Status),
		LastLoginAt: OptionalTimestamp(u.LastLoginAt),
		CreatedAt:   Timestamp(u.CreatedAt),
		UpdatedAt:   Timestamp(u.UpdatedAt),
	}
}

// Enrollment projeta uma matrícula.
func Enrollment(e domain.Enrollment) EnrollmentView {
	v := EnrollmentView{
		ID:         e.ID,
		CourseID:   e.CourseID,
		EnrolledAt: Timestamp(e.CreatedAt),
		Progress:   e.Progress,
	}
	if e.Course != nil {
		c := Course(*e.Course)
		v.Course = &c
	}
	return v
}

// Category projeta uma categoria da listagem de categorias.
func Category(c domain.Category) CategoryListView {
	return CategoryListView{
		ID:        c.ID,
		Name:      c.Name,
		Slug:      c.Slug,
		ParentID:  c.ParentID,
		CreatedAt: Timestamp(c.CreatedAt),
	}
}

func category(c *domain.CategoryRef) *CategoryView {
	if c == nil {
		return nil
	}
	return &CategoryView{ID: c.ID, Name: c.Name, Slug: c.Slug}
}

func seller(s *domain.SellerRef) *SellerView {
	if s == nil {
		return nil
	}
	v := &SellerView{ID: s.ID, Name: s.Name}
	if s.Profile != nil {
		v.Profile = &SellerProfileView{StoreName: s.Profile.StoreName, LogoURL: s.Profile.LogoURL}
	}
	return v
}

func instructor(i *domain.InstructorRef) *InstructorView {
	if i == nil {
		return nil
	}
	return &InstructorView{ID: i.ID, Name: i.Name, Headline: i.Headline, AvatarURL: i.AvatarURL}
}

func review(r domain.Review) ReviewView {
	return ReviewView{
		ID:         r.ID,
		Rating:     r.Rating,
		Comment:    r.Comment,
		AuthorName: r.AuthorName,
		CreatedAt:  Timestamp(r.CreatedAt),
	}
}
