package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Limites impostos pelas colunas price NUMERIC(12,2) e stock INTEGER.
const MaxStock = math.MaxInt32

var MaxPrice = decimal.RequireFromString("9999999999.99")

// Category é a categoria compartilhada por produtos e cursos.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	ParentID  *string   `json:"parentId"`
	CreatedAt time.Time `json:"createdAt"`
}

// CategoryRef é o recorte da categoria carregado junto com o item.
type CategoryRef struct {
	ID   string
	Name string
	Slug string
}

// Review é uma avaliação (1 a 5) de produto ou curso.
type Review struct {
	ID         string
	Rating     int
	Comment    string
	AuthorName string
	CreatedAt  time.Time
}

// Enrollment liga um aluno a um curso.
type Enrollment struct {
	ID        string
	UserID    string
	CourseID  string
	CreatedAt time.Time

	Course   *Course
	Progress *CourseProgress
}

// CourseProgress é o agregado de aulas concluídas de uma matrícula.
type CourseProgress struct {
	CourseID         string `json:"courseId"`
	TotalLessons     int    `json:"totalLessons"`
	CompletedLessons int    `json:"completedLessons"`
	Percent          int    `json:"percent"`
}

// NewCourseProgress calcula o percentual arredondado; curso sem aulas = 0%.
func NewCourseProgress(courseID string, total, completed int) CourseProgress {
	p := CourseProgress{CourseID: courseID, TotalLessons: total, CompletedLessons: completed}
	if total > 0 {
		p.Percent = int(math.Round(float64(completed) * 100 / float64(total)))
	}
	return p
}
