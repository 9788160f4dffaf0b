package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"educrm/internal/ai"
	"educrm/internal/auth"
	"educrm/internal/cache"
	apperrors "educrm/internal/errors"
	"educrm/internal/metrics"
	"educrm/internal/model"
	"educrm/internal/repository"
)

const (
	recommendCacheTTL = 10 * time.Minute

	advisorSystemPrompt = "You are an academic advisor AI that provides personalized course recommendations " +
		"based on student interests and academic history."
	curriculumSystemPrompt = "You are an experienced academic curriculum designer who creates detailed, " +
		"professional course syllabi for higher education institutions."
	assistantSystemPrompt = "You are a helpful AI assistant for an educational platform. " +
		"Provide clear, accurate, and educational responses."
)

// GenerateSyllabusInput carries the validated syllabus request. Optional fields
// fall back to a standard three-credit semester course.
type GenerateSyllabusInput struct {
	Topic    string
	Credits  int
	Duration string
	Context  string
}

// Recommendation is one advisor suggestion, enriched with the matching course
// record when the model named a real catalog entry.
type Recommendation struct {
	CourseTitle    string        `json:"courseTitle"`
	Reason         string        `json:"reason"`
	RelevanceScore int           `json:"relevanceScore"`
	CourseDetails  *model.Course `json:"courseDetails"`
}

// RecommendationResult is the response of the course advisor.
type RecommendationResult struct {
	Recommendations []Recommendation `json:"recommendations"`
	Summary         string           `json:"summary"`
	RawResponse     string           `json:"rawResponse,omitempty"`
	RequestedBy     model.PublicUser `json:"requestedBy"`
	Timestamp       time.Time        `json:"timestamp"`
}

// GenerationMetadata reports which model answered and at what token cost.
type GenerationMetadata struct {
	Model      string `json:"model"`
	TokensUsed int    `json:"tokensUsed"`
}

// SyllabusResult is the response of the syllabus generator.
type SyllabusResult struct {
	Syllabus    string             `json:"syllabus"`
	Topic       string             `json:"topic"`
	Credits     int                `json:"credits"`
	Duration    string             `json:"duration"`
	GeneratedBy model.PublicUser   `json:"generatedBy"`
	Timestamp   time.Time          `json:"timestamp"`
	Metadata    GenerationMetadata `json:"metadata"`
}

// TextResult is the response of the general completion endpoint.
type TextResult struct {
	Response    string             `json:"response"`
	Prompt      string             `json:"prompt"`
	GeneratedBy model.PublicUser   `json:"generatedBy"`
	Timestamp   time.Time          `json:"timestamp"`
	Metadata    GenerationMetadata `json:"metadata"`
}

// AIService exposes the model-backed advisory features.
type AIService interface {
	Recommend(ctx context.Context, p *auth.Principal, interests string) (*RecommendationResult, error)
	Syllabus(ctx context.Context, p *auth.Principal, in GenerateSyllabusInput) (*SyllabusResult, error)
	Generate(ctx context.Context, p *auth.Principal, prompt string) (*TextResult, error)
}

type aiService struct {
	client  *ai.Client
	users   repository.UserRepository
	courses CourseService
	cache   *cache.Client
	log     zerolog.Logger
}

// NewAIService creates a new AI service.
func NewAIService(
	client *ai.Client,
	users repository.UserRepository,
	courses CourseService,
	cacheClient *cache.Client,
	log zerolog.Logger,
) AIService {
	return &aiService{
		client:  client,
		users:   users,
		courses: courses,
		cache:   cacheClient,
		log:     log.With().Str("component", "ai_service").Logger(),
	}
}

func (s *aiService) Recommend(ctx context.Context, p *auth.Principal, interests string) (*RecommendationResult, error) {
	timer := time.Now()
	defer func() {
		metrics.AIGenerationDuration.WithLabelValues("recommend").Observe(time.Since(timer).Seconds())
	}()

	user, err := s.users.FindByIDWithRelations(ctx, p.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	cacheKey := recommendCacheKey(p.ID.String(), interests)
	if data, _ := s.cache.Get(ctx, cacheKey); data != nil {
		var cached RecommendationResult
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	catalog, err := s.courses.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	prompt := buildAdvisorPrompt(interests, user.Enrollments, catalog)

	completion, err := s.client.Complete(ctx, []ai.Message{
		{Role: "system", Content: advisorSystemPrompt},
		{Role: "user", Content: prompt},
	}, 1000, 0.7)
	if err != nil {
		s.log.Error().Err(err).Msg("course recommendation failed")
		return nil, fmt.Errorf("generate recommendations: %w", err)
	}

	result := &RecommendationResult{
		Recommendations: []Recommendation{},
		RequestedBy:     user.Public(),
		Timestamp:       time.Now().UTC(),
	}

	var parsed struct {
		Recommendations []Recommendation `json:"recommendations"`
		Summary         string           `json:"summary"`
	}
	if err := json.Unmarshal([]byte(ai.StripCodeFences(completion.Content)), &parsed); err != nil {
		// The model went off-script; surface its prose instead of failing.
		result.Summary = completion.Content
		result.RawResponse = completion.Content
		return result, nil
	}

	byTitle := make(map[string]*model.Course, len(catalog))
	for i := range catalog {
		byTitle[catalog[i].Title] = &catalog[i]
	}
	for _, rec := range parsed.Recommendations {
		rec.CourseDetails = byTitle[rec.CourseTitle]
		result.Recommendations = append(result.Recommendations, rec)
	}
	result.Summary = parsed.Summary

	if data, err := json.Marshal(result); err == nil {
		_ = s.cache.Set(ctx, cacheKey, data, recommendCacheTTL)
	}
	return result, nil
}

func (s *aiService) Syllabus(ctx context.Context, p *auth.Principal, in GenerateSyllabusInput) (*SyllabusResult, error) {
	timer := time.Now()
	defer func() {
		metrics.AIGenerationDuration.WithLabelValues("syllabus").Observe(time.Since(timer).Seconds())
	}()

	user, err := s.findUser(ctx, p)
	if err != nil {
		return nil, err
	}

	credits := in.Credits
	if credits == 0 {
		credits = 3
	}
	duration := in.Duration
	if duration == "" {
		duration = "1 semester (16 weeks)"
	}
	courseContext := in.Context
	if courseContext == "" {
		courseContext = "Standard undergraduate course"
	}

	prompt := buildSyllabusPrompt(in.Topic, credits, duration, courseContext)

	completion, err := s.client.Complete(ctx, []ai.Message{
		{Role: "system", Content: curriculumSystemPrompt},
		{Role: "user", Content: prompt},
	}, 2000, 0.5)
	if err != nil {
		s.log.Error().Err(err).Str("topic", in.Topic).Msg("syllabus generation failed")
		return nil, fmt.Errorf("generate syllabus: %w", err)
	}

	return &SyllabusResult{
		Syllabus:    completion.Content,
		Topic:       in.Topic,
		Credits:     credits,
		Duration:    duration,
		GeneratedBy: user.Public(),
		Timestamp:   time.Now().UTC(),
		Metadata: GenerationMetadata{
			Model:      completion.Model,
			TokensUsed: completion.TokensUsed,
		},
	}, nil
}

func (s *aiService) Generate(ctx context.Context, p *auth.Principal, prompt string) (*TextResult, error) {
	timer := time.Now()
	defer func() {
		metrics.AIGenerationDuration.WithLabelValues("generate").Observe(time.Since(timer).Seconds())
	}()

	if strings.TrimSpace(prompt) == "" {
		return nil, apperrors.Validation("prompt cannot be empty")
	}

	user, err := s.findUser(ctx, p)
	if err != nil {
		return nil, err
	}

	completion, err := s.client.Complete(ctx, []ai.Message{
		{Role: "system", Content: assistantSystemPrompt},
		{Role: "user", Content: prompt},
	}, 1500, 0.7)
	if err != nil {
		s.log.Error().Err(err).Msg("text generation failed")
		return nil, fmt.Errorf("generate text: %w", err)
	}

	return &TextResult{
		Response:    completion.Content,
		Prompt:      prompt,
		GeneratedBy: user.Public(),
		Timestamp:   time.Now().UTC(),
		Metadata: GenerationMetadata{
			Model:      completion.Model,
			TokensUsed: completion.TokensUsed,
		},
	}, nil
}

// findUser confirms the principal still maps to a live account. Tokens outlive
// account deletion, so this cannot be skipped.
func (s *aiService) findUser(ctx context.Context, p *auth.Principal) (*model.User, error) {
	user, err := s.users.FindByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func buildAdvisorPrompt(interests string, enrollments []model.Enrollment, catalog []model.Course) string {
	enrolled := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		if e.Course != nil {
			enrolled = append(enrolled, e.Course.Title)
		}
	}
	enrolledList := strings.Join(enrolled, ", ")
	if enrolledList == "" {
		enrolledList = "None"
	}

	lines := make([]string, 0, len(catalog))
	for _, c := range catalog {
		lines = append(lines, fmt.Sprintf("%s (%d credits)", c.Title, c.Credits))
	}

	var b strings.Builder
	b.WriteString("Based on the following student interests and currently enrolled courses, ")
	b.WriteString("recommend 3-5 relevant courses from the available course list.\n\n")
	fmt.Fprintf(&b, "Student Interests: %s\n", interests)
	fmt.Fprintf(&b, "Currently Enrolled Courses: %s\n\n", enrolledList)
	b.WriteString("Available Courses:\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\nPlease provide course recommendations in the following JSON format:\n")
	b.WriteString(`{
  "recommendations": [
    {
      "courseTitle": "Course Name",
      "reason": "Why this course matches the student's interests",
      "relevanceScore": 85
    }
  ],
  "summary": "Brief explanation of the recommendation strategy"
}`)
	b.WriteString("\n\nFocus on courses that align with the student's interests and complement their current enrollment.")
	return b.String()
}

func buildSyllabusPrompt(topic string, credits int, duration, courseContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a comprehensive course syllabus for the following topic: %q\n\n", topic)
	b.WriteString("Course Details:\n")
	fmt.Fprintf(&b, "- Credits: %d\n", credits)
	fmt.Fprintf(&b, "- Duration: %s\n", duration)
	fmt.Fprintf(&b, "- Additional Context: %s\n\n", courseContext)
	b.WriteString(`Please generate a detailed syllabus in the following format:

Course Title: [Generate an appropriate course title]

Course Description:
[2-3 paragraph course description]

Learning Objectives:
[List 5-7 specific learning objectives]

Course Schedule (Weekly):
Week 1: [Topic and activities]
Week 2: [Topic and activities]
...continue for the full duration

Assessment Methods:
- [List assessment types with percentages]

Required Materials:
- [List textbooks, software, etc.]

Grading Scale:
[Standard grading scale]

Course Policies:
[Attendance, late submissions, academic integrity, etc.]

Make the syllabus comprehensive, professional, and academically rigorous.`)
	return b.String()
}

func recommendCacheKey(userID, interests string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(interests))))
	return fmt.Sprintf("ai:recommend:%s:%s", userID, hex.EncodeToString(sum[:8]))
}
