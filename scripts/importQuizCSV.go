package main

import (
	"encoding/csv"
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	"lms/config"
	"lms/database"
	courseModels "lms/models/course"

	"gorm.io/gorm"
)

// Imports quizzes from a CSV with one question per row:
//
//	course_id,quiz_title,duration_minutes,passing_score,max_score,auto_grade,question_type,question_text,point,is_required,expected_boolean,options
//
// options is a "|" separated list; a leading "*" marks a correct option.
// Rows sharing course_id and quiz_title land in the same quiz, which is
// created as a draft and attached to the course as QUIZ content.
func main() {
	path := flag.String("file", "quizzes.csv", "CSV file to import")
	publish := flag.Bool("publish", false, "publish imported quizzes")
	flag.Parse()

	// Load config and connect to database
	config.LoadConfig()
	database.ConnectDb()

	file, err := os.Open(*path)
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}

	if len(records) < 2 {
		log.Fatal("CSV file is empty or has only headers")
	}

	header := records[0]
	log.Printf("Total rows to import: %d", len(records)-1)

	headerIndex := make(map[string]int)
	for i, h := range header {
		headerIndex[strings.TrimSpace(h)] = i
	}

	quizzes := make(map[string]*courseModels.Quiz)
	questionCount := make(map[uint]int)
	created := 0
	skipped := 0

	for i, row := range records[1:] {
		courseID := parseInt(getField(row, headerIndex, "course_id"))
		quizTitle := getField(row, headerIndex, "quiz_title")
		questionText := getField(row, headerIndex, "question_text")
		if courseID <= 0 || quizTitle == "" || questionText == "" {
			log.Printf("Row %d: missing course_id, quiz_title or question_text, skipping", i+2)
			skipped++
			continue
		}

		key := strconv.Itoa(courseID) + "/" + quizTitle
		quiz, ok := quizzes[key]
		if !ok {
			quiz, err = createQuiz(database.Database.Db, uint(courseID), quizTitle, row, headerIndex, *publish)
			if err != nil {
				log.Printf("Row %d: error creating quiz %q: %v", i+2, quizTitle, err)
				skipped++
				continue
			}
			quizzes[key] = quiz
		}

		question := courseModels.Question{
			QuizID:     quiz.ID,
			Type:       courseModels.QuestionType(strings.ToLower(getField(row, headerIndex, "question_type"))),
			Text:       questionText,
			Point:      parseInt(getField(row, headerIndex, "point")),
			IsRequired: parseBool(getField(row, headerIndex, "is_required")),
			OrderIndex: questionCount[quiz.ID],
		}
		if question.Point <= 0 {
			question.Point = 1
		}

		switch question.Type {
		case courseModels.QuestionMCQ:
			question.Options = parseOptions(getField(row, headerIndex, "options"))
			if len(question.Options) < 2 {
				log.Printf("Row %d: mcq question needs at least two options, skipping", i+2)
				skipped++
				continue
			}
		case courseModels.QuestionTrueFalse:
			if raw := getField(row, headerIndex, "expected_boolean"); raw != "" {
				expected := parseBool(raw)
				question.ExpectedBoolean = &expected
			}
		case courseModels.QuestionText:
		default:
			log.Printf("Row %d: unknown question_type %q, skipping", i+2, question.Type)
			skipped++
			continue
		}

		if err := database.Database.Db.Create(&question).Error; err != nil {
			log.Printf("Row %d: error inserting question: %v", i+2, err)
			skipped++
			continue
		}
		questionCount[quiz.ID]++
		created++
	}

	log.Printf("=== Import Complete ===")
	log.Printf("Quizzes: %d", len(quizzes))
	log.Printf("Questions: %d", created)
	log.Printf("Skipped: %d", skipped)
}

func createQuiz(db *gorm.DB, courseID uint, title string, row []string, headerIndex map[string]int, publish bool) (*courseModels.Quiz, error) {
	quiz := courseModels.Quiz{
		CourseID:         courseID,
		Title:            title,
		DurationMinutes:  parseInt(getField(row, headerIndex, "duration_minutes")),
		PassingScore:     parseInt(getField(row, headerIndex, "passing_score")),
		MaxScore:         parseInt(getField(row, headerIndex, "max_score")),
		AutoGradeEnabled: parseBool(getField(row, headerIndex, "auto_grade")),
		Status:           courseModels.QuizDraft,
	}
	if publish {
		quiz.Status = courseModels.QuizPublished
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var course courseModels.Course
		if err := tx.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
			return err
		}
		if err := tx.Create(&quiz).Error; err != nil {
			return err
		}

		var order int64
		if err := tx.Model(&courseModels.CourseContent{}).Where("course_id = ?", courseID).Count(&order).Error; err != nil {
			return err
		}
		content := courseModels.CourseContent{
			CourseID:    courseID,
			Title:       title,
			ContentType: "QUIZ",
			QuizID:      &quiz.ID,
			OrderIndex:  int(order),
			IsPublished: publish,
		}
		return tx.Create(&content).Error
	})
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func parseOptions(s string) []courseModels.QuestionOption {
	var options []courseModels.QuestionOption
	for i, raw := range strings.Split(s, "|") {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		correct := strings.HasPrefix(text, "*")
		options = append(options, courseModels.QuestionOption{
			OptionText: strings.TrimSpace(strings.TrimPrefix(text, "*")),
			IsCorrect:  correct,
			OrderIndex: i,
		})
	}
	return options
}

// getField safely gets a field from the row by header name
func getField(row []string, headerIndex map[string]int, field string) string {
	if idx, ok := headerIndex[field]; ok && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

// parseInt converts string to int
func parseInt(s string) int {
	if s == "" {
		return 0
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return val
}

func parseBool(s string) bool {
	val, err := strconv.ParseBool(strings.ToLower(s))
	if err != nil {
		return false
	}
	return val
}
