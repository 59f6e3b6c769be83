package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Course é o curso publicado por um instrutor.
type Course struct {
	ID           string
	InstructorID string
	CategoryID   string
	Title        string
	Slug         string
	Description  string
	Level        CourseLevel
	Price        decimal.Decimal
	Tags         []string
	Status       CourseStatus
	PublishedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	LessonCount int
	Category    *CategoryRef
	Instructor  *InstructorRef
	Reviews     []Review
}

// CourseInput é o payload de criação/atualização de curso.
type CourseInput struct {
	CategoryID  string   `json:"categoryId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Level       string   `json:"level"`
	Price       string   `json:"price"`
	Tags        []string `json:"tags"`
}

// InstructorRef é o recorte do instrutor exibido com o curso.
type InstructorRef struct {
	ID        string
	Name      string
	Headline  *string
	AvatarURL *string
}

// Lesson é uma aula de um curso.
type Lesson struct {
	ID       string
	CourseID string
	Title    string
	Position int
}

// CourseLevel é o nível de dificuldade declarado.
type CourseLevel string

const (
	LevelBeginner     CourseLevel = "BEGINNER"
	LevelIntermediate CourseLevel = "INTERMEDIATE"
	LevelAdvanced     CourseLevel = "ADVANCED"
)

// ParseCourseLevel converte uma string (case-insensitive) no nível correspondente.
func ParseCourseLevel(s string) (CourseLevel, bool) {
	switch l := CourseLevel(upper(s)); l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return l, true
	}
	return "", false
}

// CourseStatus é o ciclo de vida do curso.
type CourseStatus string

const (
	CourseDraft     CourseStatus = "DRAFT"
	CoursePublished CourseStatus = "PUBLISHED"
	CourseArchived  CourseStatus = "ARCHIVED"
	CourseSuspended CourseStatus = "SUSPENDED"
)

// ParseCourseStatus converte uma string (case-insensitive) no status correspondente.
func ParseCourseStatus(s string) (CourseStatus, bool) {
	switch st := CourseStatus(upper(s)); st {
	case CourseDraft, CoursePublished, CourseArchived, CourseSuspended:
		return st, true
	}
	return "", false
}

var courseTransitions = map[CourseStatus][]CourseStatus{
	CourseDraft:     {CoursePublished},
	CoursePublished: {CourseArchived},
	CourseArchived:  {CoursePublished},
}

// CanTransitionTo aplica a máquina de estados do curso.
func (s CourseStatus) CanTransitionTo(next CourseStatus, admin bool) bool {
	if s == next {
		return false
	}
	if next == CourseSuspended {
		return admin
	}
	if s == CourseSuspended {
		return admin && (next == CourseDraft || next == CourseArchived)
	}
	for _, allowed := range courseTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}
